// format.go - Image container formats and their lossiness.
package container

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format names an image container.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	WebP Format = "webp"
)

// Lossless reports whether f can store a grid without altering pixel values.
// GIF is excluded because its palette cannot hold arbitrary RGB values.
// BMP is lossless for opaque grids only; Encode rejects translucent ones.
func (f Format) Lossless() bool {
	switch f {
	case PNG, BMP, TIFF:
		return true
	default:
		return false
	}
}

// Ext returns the canonical file extension, including the dot.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case TIFF:
		return ".tiff"
	default:
		return "." + string(f)
	}
}

// MIME returns the content type for f.
func (f Format) MIME() string {
	switch f {
	case PNG:
		return "image/png"
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	case JPEG:
		return "image/jpeg"
	case GIF:
		return "image/gif"
	case WebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat accepts a format name or extension such as "png" or ".tif".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	case "webp":
		return WebP, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// FormatFromExt infers the format from a file path.
func FormatFromExt(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}
