package software

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/spaghettifunk/orbis/engine/core"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Encode writes img in the format named by ext (".png", ".bmp", ".tif" or ".tiff").
func Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, ext)
}

// WriteImage encodes the last frame to path, picking the format from its extension.
func (b *Backend) WriteImage(path string) error {
	if b.frame == nil {
		return core.ErrBackendNotInitialized
	}
	ext := filepath.Ext(path)
	if _, err := formatOf(ext); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, b.frame, ext); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	core.LogInfo("Snapshot written to %s (%dx%d)", path, b.width, b.height)
	return nil
}

func formatOf(ext string) (string, error) {
	switch e := strings.ToLower(ext); e {
	case ".png", ".bmp", ".tif", ".tiff":
		return strings.TrimPrefix(e, "."), nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, ext)
}
