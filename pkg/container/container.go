// Package container reads image files into lsb grids and writes grids back
// into lossless image files.
//
// Hidden data survives only lossless storage: writers refuse JPEG, GIF and
// WebP targets, and readers flag sources that went through lossy coding.
package container

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/xob0t/GoSteg/pkg/lsb"
)

var (
	ErrLossyFormat     = errors.New("container: output format is lossy")
	ErrTooLarge        = errors.New("container: image exceeds pixel limit")
	ErrUnreadableImage = errors.New("container: unreadable image")
)

// Source is a decoded image file.
type Source struct {
	Image  image.Image
	Format Format
	// Lossy is set when the pixels went through lossy coding, in which
	// case any hidden message is most likely gone.
	Lossy bool
}

// Grid converts the source pixels into a codec grid.
func (s *Source) Grid() *lsb.Grid {
	return ToGrid(s.Image)
}

// Decode sniffs and decodes an image file. A positive maxPixels rejects
// images larger than that before their pixels are decoded.
func Decode(data []byte, maxPixels int) (*Source, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableImage, err)
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d > %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnreadableImage, name, err)
	}

	f, err := ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return &Source{Image: img, Format: f, Lossy: isLossy(f, img)}, nil
}

func isLossy(f Format, img image.Image) bool {
	switch f {
	case JPEG, GIF:
		return true
	case WebP:
		// VP8 (lossy) decodes to YCbCr, VP8L (lossless) to NRGBA.
		switch img.(type) {
		case *image.YCbCr, *image.NYCbCrA:
			return true
		}
	}
	return false
}

// Encode writes g to w in the lossless format f.
func Encode(w io.Writer, g *lsb.Grid, f Format) error {
	if !f.Lossless() {
		return fmt.Errorf("%w: %s cannot carry hidden data, use png, bmp or tiff", ErrLossyFormat, f)
	}
	if err := g.Validate(); err != nil {
		return err
	}
	// x/image/bmp writes translucent images as 32-bit BGRA that its own
	// decoder reads back opaque.
	if f == BMP && !opaque(g) {
		return fmt.Errorf("%w: bmp cannot keep the alpha channel, use png or tiff", ErrLossyFormat)
	}

	img := ToImage(g)
	switch f {
	case PNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(w, img); err != nil {
			return fmt.Errorf("encode PNG: %w", err)
		}
	case BMP:
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("encode BMP: %w", err)
		}
	case TIFF:
		if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
			return fmt.Errorf("encode TIFF: %w", err)
		}
	}
	return nil
}

// opaque reports whether every alpha byte of g is 0xFF.
func opaque(g *lsb.Grid) bool {
	if g.Channels != 2 && g.Channels != 4 {
		return true
	}
	for i := g.Channels - 1; i < len(g.Pix); i += g.Channels {
		if g.Pix[i] != 0xFF {
			return false
		}
	}
	return true
}

// EncodeBytes is Encode into a new buffer.
func EncodeBytes(g *lsb.Grid, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, g, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads and decodes an image file from disk.
func Load(path string, maxPixels int) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data, maxPixels)
}

// Save writes g to path, choosing the format from the extension.
func Save(path string, g *lsb.Grid) error {
	f, err := FormatFromExt(path)
	if err != nil {
		return err
	}
	if !f.Lossless() {
		return fmt.Errorf("%w: %s", ErrLossyFormat, path)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	if err := Encode(out, g, f); err != nil {
		return err
	}
	return out.Sync()
}
