package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// Decoders for the formats the QR endpoint may embed
	_ "image/gif"
	_ "image/jpeg"

	_ "github.com/gen2brain/avif"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"ddgplugin/logs"
)

// DecodeImage validates raw image bytes and reports their format
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("image validation failed (format detection): %w", err)
	}
	return img, format, nil
}

// Upscale enlarges img so its longer edge is at least minEdge pixels.
// Nearest-neighbour keeps QR modules sharp. Larger images are returned as is.
func Upscale(img image.Image, minEdge int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if minEdge <= 0 || width == 0 || height == 0 || (width >= minEdge && height >= minEdge) {
		return img
	}

	// Whole multiples only, otherwise modules end up with uneven widths
	factor := (minEdge + min(width, height) - 1) / min(width, height)
	return resize.Resize(uint(width*factor), uint(height*factor), img, resize.NearestNeighbor)
}

// SaveImage decodes data, upscales small codes and writes a PNG to path.
// A missing or different extension is replaced with .png. The written path is returned.
func (m *Manager) SaveImage(path string, data []byte) (string, error) {
	path = strings.Trim(strings.TrimSpace(path), `"'`)
	if path == "" {
		return "", fmt.Errorf("empty image path")
	}

	img, format, err := DecodeImage(data)
	if err != nil {
		return "", err
	}
	bounds := img.Bounds()
	logs.Debug("QR image format %s, size %dx%d", format, bounds.Dx(), bounds.Dy())

	scaled := Upscale(img, m.minQRSize)
	if scaled != img {
		nb := scaled.Bounds()
		logs.Debug("upscaled QR image to %dx%d", nb.Dx(), nb.Dy())
	}

	if !strings.EqualFold(filepath.Ext(path), ".png") {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create image dir: %w", err)
		}
	}

	outFile, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create PNG file: %w", err)
	}
	defer outFile.Close()

	if err := png.Encode(outFile, scaled); err != nil {
		return "", fmt.Errorf("failed to encode as PNG: %w", err)
	}
	return path, nil
}
