package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"ddgplugin/action"
	"ddgplugin/logs"
	"ddgplugin/metrics"
	"ddgplugin/models"
	"ddgplugin/plugins/duckduckgo"
	"ddgplugin/search"
	"ddgplugin/storage"
	"ddgplugin/ui"
)

// launcher holds what every front-end needs once settings are loaded
type launcher struct {
	storage  *storage.Manager
	settings *models.Settings
	manager  *search.Manager
	urls     duckduckgo.URLBuilder
}

var app = &launcher{}

func main() {
	cmd := &cli.Command{
		Name:  "ddgplugin",
		Usage: "DuckDuckGo Instant Answers for the desktop launcher",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "settings file (default ~/.ddgplugin/settings.yaml)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve prometheus metrics on this address, e.g. 127.0.0.1:9464",
			},
		},
		Before: app.before,
		Action: app.runGUI,
		Commands: []*cli.Command{
			app.searchCmd(),
			app.qrCmd(),
			app.rehydrateCmd(),
			app.consoleCmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logs.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

func (l *launcher) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	l.storage = storage.NewManager()
	l.storage.SetSettingsPath(cmd.String("config"))

	settings, err := l.storage.LoadSettings()
	if err != nil {
		return ctx, fmt.Errorf("loading settings error: %w", err)
	}
	l.settings = settings

	if err := logs.Init(logs.Options{
		Level:      settings.Logging.Level,
		Format:     settings.Logging.Format,
		Output:     settings.Logging.Output,
		File:       settings.Logging.File,
		MaxSize:    settings.Logging.MaxSize,
		MaxBackups: settings.Logging.MaxBackups,
		MaxAge:     settings.Logging.MaxAge,
	}); err != nil {
		return ctx, fmt.Errorf("init logger error: %w", err)
	}

	l.storage.SetMinQRSize(settings.MinQRSize)
	l.urls = duckduckgo.URLBuilder{APIBase: settings.APIEndpoint, SiteBase: settings.SiteURL}

	if l.manager, err = search.NewManager(settings); err != nil {
		return ctx, err
	}

	addr := cmd.String("metrics-addr")
	if addr == "" {
		addr = settings.MetricsAddr
	}
	if addr != "" {
		go func() {
			logs.Info("serving metrics on http://%s/metrics", addr)
			if err := metrics.Serve(ctx, addr); err != nil {
				logs.Error("metrics server stopped: %v", err)
			}
		}()
	}
	return ctx, nil
}

// dispatcher wires the desktop side effects around clipboard
func (l *launcher) dispatcher(clipboard action.Clipboard) *action.Dispatcher {
	return &action.Dispatcher{
		Opener:    action.NewProcessOpener(),
		Clipboard: clipboard,
		Saver:     &action.DialogSaver{FallbackDir: l.settings.ImageDir},
		Images:    l.storage,
		WebURL:    l.urls.Web,
	}
}

func (l *launcher) runGUI(ctx context.Context, _ *cli.Command) error {
	logs.Info("Starting DuckDuckGo launcher window...")
	w := ui.NewMainWindow(ui.Options{
		Manager:    l.manager,
		Storage:    l.storage,
		Settings:   l.settings,
		Dispatcher: l.dispatcher,
	})
	w.ShowAndRun(ctx)
	return nil
}

func (l *launcher) searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Print instant answers for a query",
		ArgsUsage: "<text...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Usage: "search tag, e.g. duck or qrcode"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			text := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("search text required")
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			results, err := l.manager.Collect(ctx, search.Query{Text: text, Tag: cmd.String("tag")})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Printf("No instant answers for '%s'.\n", text)
				return nil
			}
			for i := range results {
				printRecord(os.Stdout, i+1, &results[i])
			}
			return nil
		},
	}
}

func (l *launcher) qrCmd() *cli.Command {
	return &cli.Command{
		Name:      "qr",
		Usage:     "Render text as a QR code and save it as PNG",
		ArgsUsage: "<text...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "output file", Value: "qr_code.png"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			text := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("text required")
			}

			results, err := l.manager.Collect(ctx, search.Query{Text: text, Tag: l.settings.QRTag})
			if err != nil {
				return err
			}
			for i := range results {
				if !results[i].HasImage() {
					continue
				}
				out, err := filepath.Abs(cmd.String("out"))
				if err != nil {
					return err
				}
				written, err := l.storage.SaveImage(out, results[i].Image)
				if err != nil {
					return err
				}
				fmt.Printf("QR code saved to %s\n", written)
				return nil
			}
			fmt.Printf("No QR code returned for '%s'.\n", text)
			return nil
		},
	}
}

func (l *launcher) rehydrateCmd() *cli.Command {
	return &cli.Command{
		Name:      "rehydrate",
		Usage:     "Rebuild a result from the token printed by search",
		ArgsUsage: "<token>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "plugin", Usage: "plugin that produced the token", Value: duckduckgo.PluginName},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := models.DecodeIdentity(cmd.Args().First())
			if err != nil {
				return err
			}
			rec, err := l.manager.Rehydrate(ctx, cmd.String("plugin"), id)
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Println("Result is no longer available.")
				return nil
			}
			printRecord(os.Stdout, 1, rec)
			return nil
		},
	}
}

func (l *launcher) consoleCmd() *cli.Command {
	return &cli.Command{
		Name:  "console",
		Usage: "Interactive console front-end",
		Action: func(ctx context.Context, _ *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			console := NewConsoleApp(l, os.Stdin, os.Stdout)
			return console.Run(ctx)
		},
	}
}

var (
	labelColor = color.New(color.FgCyan, color.Bold)
	dimColor   = color.New(color.Faint)
)

// printRecord writes one numbered result followed by its rehydration token
func printRecord(w io.Writer, n int, rec *models.ResultRecord) {
	pin := ""
	if rec.IsPinned {
		pin = " *"
	}
	fmt.Fprintf(w, "%d. [%s]%s %s\n", n, labelColor.Sprint(rec.Label), pin, rec.Info)
	if rec.SourceURL != "" {
		fmt.Fprintf(w, "   %s\n", rec.SourceURL)
	}
	if rec.HasImage() {
		fmt.Fprintf(w, "   image: %d bytes\n", len(rec.Image))
	}
	if token, err := rec.Identity().Encode(); err == nil {
		fmt.Fprintf(w, "   %s\n", dimColor.Sprintf("token %s  score %.1f", token, rec.Score))
	}
}
