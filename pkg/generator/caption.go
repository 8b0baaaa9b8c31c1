// caption.go - Caption rendering with custom TTF support and embedded fallback font.
// Uses golang.org/x/image/font for OpenType rendering. Defaults to Go Regular
// font when no custom font is specified or when custom font loading fails.
package generator

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontManager handles font loading with fallback.
type FontManager struct {
	parsed *opentype.Font
}

// NewFontManager creates a font manager with the specified font.
// If customPath is empty or invalid, uses embedded Go font.
func NewFontManager(customPath string) (*FontManager, error) {
	var fontData []byte

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			logrus.WithError(err).WithField("path", customPath).Warn("Could not load caption font, using Go Regular")
		} else {
			fontData = data
		}
	}

	if fontData == nil {
		fontData = goregular.TTF
	}

	parsed, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FontManager{parsed: parsed}, nil
}

// Face returns a font.Face at the given size in points at 72 DPI.
func (fm *FontManager) Face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(fm.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// drawCaption writes text centered along the bottom of img, wrapped to
// 90% of the width, in a color that contrasts with bg.
func drawCaption(img *image.NRGBA, text, fontPath string, bg color.NRGBA) error {
	fm, err := NewFontManager(fontPath)
	if err != nil {
		return err
	}

	b := img.Bounds()
	size := max(float64(b.Dy())/16, 8)
	face, err := fm.Face(size)
	if err != nil {
		return err
	}
	defer face.Close()

	lines := wrapText(text, b.Dx()*9/10, face)
	lineHeight := int(size * 1.4)
	y := b.Max.Y - lineHeight*len(lines) + lineHeight/2

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(contrastColor(bg)),
		Face: face,
	}
	for _, line := range lines {
		w := d.MeasureString(line).Ceil()
		d.Dot = fixed.P(b.Min.X+(b.Dx()-w)/2, y)
		d.DrawString(line)
		y += lineHeight
	}
	return nil
}

// wrapText breaks text into lines that each fit within maxWidth pixels.
func wrapText(text string, maxWidth int, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() > maxWidth {
			lines = append(lines, current)
			current = word
		} else {
			current = candidate
		}
	}
	return append(lines, current)
}
