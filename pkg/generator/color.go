// color.go - Color parsing and solid image creation.
package generator

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// ParseColor parses a color string. Accepts "#rrggbb", "random", or "".
// Empty string is treated as "random".
func ParseColor(s string) (r, g, b uint8, err error) {
	c, err := parseColorWith(s, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	if err != nil {
		return 0, 0, 0, err
	}
	return c.R, c.G, c.B, nil
}

func parseColorWith(s string, rng *rand.Rand) (color.NRGBA, error) {
	if s == "" || s == "random" {
		v := rng.Uint32()
		return color.NRGBA{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: 255}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: expected 6-char hex", s)
	}

	rv, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid red channel in %q: %w", s, err)
	}
	gv, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid green channel in %q: %w", s, err)
	}
	bv, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid blue channel in %q: %w", s, err)
	}

	return color.NRGBA{R: uint8(rv), G: uint8(gv), B: uint8(bv), A: 255}, nil
}

// NewSolidImage creates a uniform solid-color image using draw.Draw.
func NewSolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// contrastColor returns black or white, whichever reads better on c.
func contrastColor(c color.NRGBA) color.NRGBA {
	// Rec. 601 luma, scaled by 1000.
	luma := 299*int(c.R) + 587*int(c.G) + 114*int(c.B)
	if luma > 128*1000 {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
}
