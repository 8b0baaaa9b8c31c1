// Package lsb hides byte messages in the least significant bits of 8-bit
// pixel channels and recovers them.
//
// Encode and Decode are pure functions of their arguments: no state is
// kept between calls, so they are safe to call concurrently on distinct
// or shared grids.
package lsb

import (
	"bytes"
	"fmt"
)

// Grid is a row-major raster of 8-bit channels. Each pixel occupies
// Channels consecutive bytes of Pix.
//
// Channel meaning depends on the count:
//   - 1: gray
//   - 2: gray, alpha
//   - 3: red, green, blue
//   - 4: red, green, blue, alpha
type Grid struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewGrid allocates a zeroed grid.
func NewGrid(width, height, channels int) *Grid {
	width = max(width, 0)
	height = max(height, 0)
	channels = max(channels, 0)
	return &Grid{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// PixelCount returns Width*Height, or 0 for degenerate grids.
func (g *Grid) PixelCount() int {
	if g == nil || g.Width <= 0 || g.Height <= 0 {
		return 0
	}
	return g.Width * g.Height
}

// Validate reports ErrInvalidGrid when Pix does not hold exactly
// Width*Height*Channels bytes. Zero-sized grids are valid.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil grid", ErrInvalidGrid)
	}
	if g.Width < 0 || g.Height < 0 || g.Channels < 0 {
		return fmt.Errorf("%w: negative dimension %dx%dx%d", ErrInvalidGrid, g.Width, g.Height, g.Channels)
	}
	if want := g.Width * g.Height * g.Channels; len(g.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d for %dx%dx%d",
			ErrInvalidGrid, len(g.Pix), want, g.Width, g.Height, g.Channels)
	}
	return nil
}

// Clone returns a deep copy. Cloning nil yields nil.
func (g *Grid) Clone() *Grid {
	if g == nil {
		return nil
	}
	out := *g
	out.Pix = bytes.Clone(g.Pix)
	if out.Pix == nil {
		out.Pix = []uint8{}
	}
	return &out
}

// Equal reports whether both grids have the same shape and bytes.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.Width == o.Width && g.Height == o.Height &&
		g.Channels == o.Channels && bytes.Equal(g.Pix, o.Pix)
}

// colorChannels is the number of leading channels that hold color.
func (g *Grid) colorChannels() int {
	switch g.Channels {
	case 1, 2:
		return 1
	case 3, 4:
		return 3
	default:
		return 0
	}
}
