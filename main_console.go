package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ddgplugin/action"
	"ddgplugin/logs"
	"ddgplugin/models"
	"ddgplugin/search"
	"ddgplugin/storage"
)

// consoleEntry is a listed result together with the plugin that produced it
type consoleEntry struct {
	plugin string
	record models.ResultRecord
}

// ConsoleApp is the line-oriented front-end
type ConsoleApp struct {
	manager    *search.Manager
	storage    *storage.Manager
	dispatcher *action.Dispatcher
	in         *bufio.Scanner
	out        io.Writer
	entries    []consoleEntry
	pins       []storage.Pin
}

// NewConsoleApp creates a console reading commands from in
func NewConsoleApp(l *launcher, in io.Reader, out io.Writer) *ConsoleApp {
	app := &ConsoleApp{
		manager: l.manager,
		storage: l.storage,
		in:      bufio.NewScanner(in),
		out:     out,
	}
	app.dispatcher = l.dispatcher(&consoleClipboard{out: out})
	return app
}

// consoleClipboard prints copied text, there is no system clipboard here
type consoleClipboard struct {
	out io.Writer
}

func (c *consoleClipboard) SetText(text string) error {
	_, err := fmt.Fprintf(c.out, "Copied: %s\n", text)
	return err
}

// Run reads commands until quit, EOF or ctx is done
func (app *ConsoleApp) Run(ctx context.Context) error {
	app.loadPins()
	app.showHelp()

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(app.out, "> ")
		if !app.in.Scan() {
			fmt.Fprintln(app.out)
			return app.in.Err()
		}
		line := strings.TrimSpace(app.in.Text())
		if line == "" {
			continue
		}
		if quit := app.handleLine(ctx, line); quit {
			fmt.Fprintln(app.out, "Goodbye!")
			return nil
		}
	}
}

func (app *ConsoleApp) showHelp() {
	fmt.Fprintln(app.out, "\n=== DuckDuckGo Instant Answers ===")
	fmt.Fprintln(app.out, "  <text>          search")
	fmt.Fprintln(app.out, "  !<tag> <text>   search with a tag (!duck, !qrcode)")
	fmt.Fprintln(app.out, "  open N | copy N | copyinfo N | save N")
	fmt.Fprintln(app.out, "  pin N | unpin N | pins")
	fmt.Fprintln(app.out, "  help | quit")
}

var numbered = map[string]bool{
	"open": true, "copy": true, "copyinfo": true, "save": true, "pin": true, "unpin": true,
}

// handleLine runs one command and reports whether the console should exit
func (app *ConsoleApp) handleLine(ctx context.Context, line string) bool {
	verb, arg, _ := strings.Cut(line, " ")
	if _, err := strconv.Atoi(strings.TrimSpace(arg)); err != nil && numbered[verb] {
		// "open source" is a query, not a command
		verb = ""
	}
	switch verb {
	case "quit", "exit":
		return true
	case "help":
		app.showHelp()
	case "pins":
		app.showPins(ctx)
	case "open":
		app.runOperation(ctx, arg, action.OpenURL)
	case "copy":
		app.runOperation(ctx, arg, action.CopyURL)
	case "copyinfo":
		app.runOperation(ctx, arg, action.CopyContents)
	case "save":
		app.runOperation(ctx, arg, action.SaveImage)
	case "pin":
		app.pin(arg)
	case "unpin":
		app.unpin(arg)
	default:
		app.search(ctx, line)
	}
	return false
}

func (app *ConsoleApp) search(ctx context.Context, line string) {
	q := search.ParseQuery(line)
	plugin, err := app.manager.Resolve(q.Tag)
	if err != nil {
		fmt.Fprintf(app.out, "Error: %v\n", err)
		return
	}

	results, err := app.manager.Collect(ctx, q)
	if err != nil {
		fmt.Fprintf(app.out, "Error searching: %v\n", err)
	}
	if len(results) == 0 {
		if err == nil {
			fmt.Fprintf(app.out, "No results for '%s'.\n", q.Text)
		}
		app.entries = nil
		return
	}

	app.entries = app.entries[:0]
	for _, rec := range results {
		rec.IsPinned = app.pinIndex(plugin.Info().Name, rec) >= 0
		app.entries = append(app.entries, consoleEntry{plugin: plugin.Info().Name, record: rec})
	}
	app.list()
}

func (app *ConsoleApp) list() {
	for i := range app.entries {
		printRecord(app.out, i+1, &app.entries[i].record)
	}
}

// entry parses a 1-based result number
func (app *ConsoleApp) entry(arg string) (*consoleEntry, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(app.entries) {
		fmt.Fprintf(app.out, "Invalid result number: %q\n", arg)
		return nil, false
	}
	return &app.entries[n-1], true
}

func (app *ConsoleApp) runOperation(ctx context.Context, arg string, op action.Operation) {
	e, ok := app.entry(arg)
	if !ok {
		return
	}
	err := app.dispatcher.Handle(ctx, op, &e.record)
	switch {
	case errors.Is(err, action.ErrUnsupportedOperation):
		fmt.Fprintf(app.out, "%s is not available for this result\n", op.Name())
	case err != nil:
		fmt.Fprintf(app.out, "Error: %v\n", err)
	default:
		logs.Debug("%s on result %s done", op.Name(), arg)
	}
}

func (app *ConsoleApp) pin(arg string) {
	e, ok := app.entry(arg)
	if !ok {
		return
	}
	if app.pinIndex(e.plugin, e.record) >= 0 {
		fmt.Fprintln(app.out, "Already pinned.")
		return
	}
	token, err := e.record.Identity().Encode()
	if err != nil {
		fmt.Fprintf(app.out, "Error: %v\n", err)
		return
	}
	app.pins = append(app.pins, storage.Pin{Plugin: e.plugin, Token: token})
	e.record.IsPinned = true
	app.savePins()
	fmt.Fprintf(app.out, "Pinned %s\n", e.record.Info)
}

func (app *ConsoleApp) unpin(arg string) {
	e, ok := app.entry(arg)
	if !ok {
		return
	}
	i := app.pinIndex(e.plugin, e.record)
	if i < 0 {
		fmt.Fprintln(app.out, "Not pinned.")
		return
	}
	app.pins = append(app.pins[:i], app.pins[i+1:]...)
	e.record.IsPinned = false
	app.savePins()
	fmt.Fprintf(app.out, "Unpinned %s\n", e.record.Info)
}

// showPins rehydrates every stored pin and makes them the current list
func (app *ConsoleApp) showPins(ctx context.Context) {
	if len(app.pins) == 0 {
		fmt.Fprintln(app.out, "No pinned results.")
		return
	}
	app.entries = app.entries[:0]
	for _, p := range app.pins {
		id, err := models.DecodeIdentity(p.Token)
		if err != nil {
			logs.Warn("skipping unreadable pin: %v", err)
			continue
		}
		rec, err := app.manager.Rehydrate(ctx, p.Plugin, id)
		if err != nil {
			fmt.Fprintf(app.out, "Error restoring '%s': %v\n", id.Info, err)
			continue
		}
		if rec == nil {
			fmt.Fprintf(app.out, "'%s' is no longer available\n", id.Info)
			continue
		}
		rec.IsPinned = true
		app.entries = append(app.entries, consoleEntry{plugin: p.Plugin, record: *rec})
	}
	app.list()
}

// pinIndex matches on the identity so re-fetched records still count as pinned
func (app *ConsoleApp) pinIndex(plugin string, rec models.ResultRecord) int {
	want := rec.Identity()
	for i, p := range app.pins {
		if p.Plugin != plugin {
			continue
		}
		id, err := models.DecodeIdentity(p.Token)
		if err != nil {
			continue
		}
		if id.SearchedText == want.SearchedText && id.Kind == want.Kind && id.Info == want.Info {
			return i
		}
	}
	return -1
}

func (app *ConsoleApp) loadPins() {
	pins, err := app.storage.LoadPins()
	if err != nil {
		fmt.Fprintf(app.out, "Error loading pins: %v\n", err)
		return
	}
	app.pins = pins
}

func (app *ConsoleApp) savePins() {
	if err := app.storage.SavePins(app.pins); err != nil {
		fmt.Fprintf(app.out, "Error saving pins: %v\n", err)
	}
}
