package imageio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat indicates that a path's extension maps to no known encoder.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format identifies an output encoding.
type Format int

const (
	JPEG Format = iota
	PNG
	GIF
	BMP
	TIFF
)

// String returns the lowercase format name.
func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case GIF:
		return "gif"
	case BMP:
		return "bmp"
	case TIFF:
		return "tiff"
	}
	return "unknown"
}

// FormatFromPath maps a file path's extension to an output format.
// The match is case-insensitive. A ".webp" extension maps to JPEG:
// there is no pure-Go WebP encoder available, so WebP outputs are
// encoded as JPEG data under the requested name.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".png":
		return PNG, nil
	case ".gif":
		return GIF, nil
	case ".bmp":
		return BMP, nil
	case ".tiff", ".tif":
		return TIFF, nil
	case ".webp":
		return JPEG, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}
