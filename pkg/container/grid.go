// grid.go - Conversion between image.Image and lsb.Grid.
package container

import (
	"image"
	"image/color"

	"github.com/xob0t/GoSteg/pkg/lsb"
)

// ToGrid copies img into a 4-channel non-premultiplied RGBA grid. Channels
// deeper than 8 bits are truncated to their high byte.
func ToGrid(img image.Image) *lsb.Grid {
	b := img.Bounds()
	g := lsb.NewGrid(b.Dx(), b.Dy(), 4)
	row := g.Width * 4

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < g.Height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(g.Pix[y*row:(y+1)*row], src.Pix[off:off+row])
		}
		return g
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			g.Pix[i+0] = c.R
			g.Pix[i+1] = c.G
			g.Pix[i+2] = c.B
			g.Pix[i+3] = c.A
			i += 4
		}
	}
	return g
}

// ToImage wraps a copy of g as an image. Grids with 1 to 4 channels are
// expanded to NRGBA; missing alpha is opaque.
func ToImage(g *lsb.Grid) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	if g.Channels == 4 {
		copy(img.Pix, g.Pix)
		return img
	}

	n := g.PixelCount()
	for p := 0; p < n; p++ {
		src := g.Pix[p*g.Channels : (p+1)*g.Channels]
		dst := img.Pix[p*4 : p*4+4]
		switch g.Channels {
		case 1:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], 0xFF
		case 2:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
		case 3:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xFF
		}
	}
	return img
}
