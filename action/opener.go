package action

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ncruces/zenity"
)

// ProcessOpener opens URLs and files with the desktop's default handler
type ProcessOpener struct {
	// command builds the process; swapped out in tests
	command func(name string, args ...string) *exec.Cmd
}

func NewProcessOpener() *ProcessOpener {
	return &ProcessOpener{command: exec.Command}
}

// Open starts the platform opener without waiting for it
func (o *ProcessOpener) Open(target string) error {
	target = strings.Trim(strings.TrimSpace(target), `"'`)
	if target == "" {
		return fmt.Errorf("nothing to open")
	}
	name, args := openerCommand(runtime.GOOS, target)
	cmd := o.command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func openerCommand(goos, target string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	case "darwin":
		return "open", []string{target}
	default: // Linux and the BSDs
		return "xdg-open", []string{target}
	}
}

// DialogSaver asks for a save path with the native dialog. When no dialog
// tool is installed it falls back to FallbackDir.
type DialogSaver struct {
	FallbackDir string
}

func (s *DialogSaver) SavePath(ctx context.Context, suggestedName string) (string, error) {
	if !zenity.IsAvailable() {
		if s.FallbackDir == "" {
			return "", fmt.Errorf("no save dialog available and no image directory configured")
		}
		return filepath.Join(s.FallbackDir, suggestedName), nil
	}

	path, err := zenity.SelectFileSave(
		zenity.Context(ctx),
		zenity.Title("Save Image To..."),
		zenity.Filename(filepath.Join(s.FallbackDir, suggestedName)),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{
			{Name: "PNG images", Patterns: []string{"*.png"}, CaseFold: false},
		},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	return path, nil
}
