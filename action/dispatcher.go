package action

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ddgplugin/logs"
	"ddgplugin/models"
)

var (
	// ErrUnsupportedOperation is returned when the record's kind does not offer the operation
	ErrUnsupportedOperation = errors.New("operation not supported for result")
	// ErrNoImage is returned by SaveImage for records without image bytes
	ErrNoImage = errors.New("result has no image")
)

// Opener hands a URL or file path to the desktop
type Opener interface {
	Open(target string) error
}

// Clipboard receives copied text
type Clipboard interface {
	SetText(text string) error
}

// Saver asks where an image should go. An empty path means the user cancelled.
type Saver interface {
	SavePath(ctx context.Context, suggestedName string) (string, error)
}

// ImageWriter persists image bytes and returns the path actually written
type ImageWriter interface {
	SaveImage(path string, data []byte) (string, error)
}

// Dispatcher maps a selected operation onto its side effect
type Dispatcher struct {
	Opener    Opener
	Clipboard Clipboard
	Saver     Saver
	Images    ImageWriter
	// WebURL builds the browser fallback for records without a source URL
	WebURL func(text string) string
}

const defaultImageName = "qr_code.png"

// Handle runs op for rec
func (d *Dispatcher) Handle(ctx context.Context, op Operation, rec *models.ResultRecord) error {
	if rec == nil {
		return fmt.Errorf("no result selected")
	}
	if !OperationsFor(rec.Kind).Contains(op) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedOperation, op, rec.Kind)
	}

	switch op {
	case OpenURL:
		target := d.targetURL(rec)
		if target == "" {
			return nil
		}
		logs.CtxDebug(ctx, "opening %s", target)
		return d.Opener.Open(target)
	case CopyURL:
		target := d.targetURL(rec)
		if target == "" {
			return nil
		}
		return d.Clipboard.SetText(target)
	case CopyContents:
		return d.Clipboard.SetText(rec.Info)
	case SaveImage:
		return d.saveImage(ctx, rec)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedOperation, int(op))
	}
}

func (d *Dispatcher) targetURL(rec *models.ResultRecord) string {
	if strings.TrimSpace(rec.SourceURL) != "" {
		return rec.SourceURL
	}
	if strings.TrimSpace(rec.SearchedText) == "" || d.WebURL == nil {
		return ""
	}
	return d.WebURL(rec.SearchedText)
}

func (d *Dispatcher) saveImage(ctx context.Context, rec *models.ResultRecord) error {
	if !rec.HasImage() {
		return ErrNoImage
	}

	path, err := d.Saver.SavePath(ctx, defaultImageName)
	if err != nil {
		return fmt.Errorf("choose save path: %w", err)
	}
	if path == "" {
		logs.CtxDebug(ctx, "save image cancelled")
		return nil
	}

	written, err := d.Images.SaveImage(path, rec.Image)
	if err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	logs.CtxInfo(ctx, "saved QR code for %q to %s", rec.SearchedText, written)

	if d.Opener == nil {
		return nil
	}
	if err := d.Opener.Open(written); err != nil {
		logs.CtxWarn(ctx, "could not open saved image %s: %v", written, err)
	}
	return nil
}
