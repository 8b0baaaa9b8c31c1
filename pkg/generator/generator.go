// Package generator creates cover images to hide messages in.
//
// All output follows one pipeline: build an image.Image first, then write
// it through a lossless container. Textured covers (the default "noise"
// pattern) hide LSB changes better than flat fills.
package generator

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math/rand/v2"

	"github.com/xob0t/GoSteg/pkg/container"
)

// Config holds parameters for cover generation.
type Config struct {
	Width    int         // Pixel width (default: 1280)
	Height   int         // Pixel height (default: 720)
	Color    string      // Hex "#rrggbb" or "random"
	Pattern  string      // "solid", "gradient" or "noise" (default: noise)
	Caption  string      // Optional text drawn near the bottom edge
	FontPath string      // Caption TTF; empty uses Go Regular
	Seed     uint64      // Seed for "random" colors and noise; 0 picks one
	Image    image.Image // Pre-rendered image; overrides everything above
}

const (
	defaultWidth  = 1280
	defaultHeight = 720
	noiseJitter   = 24
)

// Generate creates a cover file. The format is inferred from the file
// extension and must be lossless (.png, .bmp, .tiff).
func Generate(output string, cfg Config) error {
	img, err := NewCover(cfg)
	if err != nil {
		return err
	}
	return container.Save(output, container.ToGrid(img))
}

// GenerateToWriter writes a cover to w in the format named by ext
// (".png", ".bmp" or ".tiff"). Useful for in-memory generation.
func GenerateToWriter(w io.Writer, ext string, cfg Config) error {
	f, err := container.ParseFormat(ext)
	if err != nil {
		return err
	}
	img, err := NewCover(cfg)
	if err != nil {
		return err
	}
	return container.Encode(w, container.ToGrid(img), f)
}

// NewCover renders the cover described by cfg.
func NewCover(cfg Config) (image.Image, error) {
	if cfg.Image != nil {
		return cfg.Image, nil
	}

	w := cfg.Width
	if w <= 0 {
		w = defaultWidth
	}
	h := cfg.Height
	if h <= 0 {
		h = defaultHeight
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	base, err := parseColorWith(cfg.Color, rng)
	if err != nil {
		return nil, err
	}

	var img *image.NRGBA
	switch cfg.Pattern {
	case "solid":
		img = NewSolidImage(w, h, base)
	case "gradient":
		img = newGradientImage(w, h, base)
	case "", "noise":
		img = newNoiseImage(w, h, base, rng)
	default:
		return nil, fmt.Errorf("unknown pattern %q: use solid, gradient or noise", cfg.Pattern)
	}

	if cfg.Caption != "" {
		if err := drawCaption(img, cfg.Caption, cfg.FontPath, base); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// newGradientImage fades from c at the top to a third of its brightness
// at the bottom.
func newGradientImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		// scale runs from 3/3 down to 1/3.
		num := 3*h - 2*y
		den := 3 * h
		row := color.NRGBA{
			R: uint8(int(c.R) * num / den),
			G: uint8(int(c.G) * num / den),
			B: uint8(int(c.B) * num / den),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, row)
		}
	}
	return img
}

// newNoiseImage jitters every channel of c by up to ±noiseJitter.
func newNoiseImage(w, h int, c color.NRGBA, rng *rand.Rand) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	jitter := func(v uint8) uint8 {
		n := int(v) + rng.IntN(2*noiseJitter+1) - noiseJitter
		return uint8(min(max(n, 0), 255))
	}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = jitter(c.R)
		img.Pix[i+1] = jitter(c.G)
		img.Pix[i+2] = jitter(c.B)
		img.Pix[i+3] = 255
	}
	return img
}
