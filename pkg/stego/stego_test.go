package stego

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoSteg/pkg/container"
	"github.com/xob0t/GoSteg/pkg/generator"
	"github.com/xob0t/GoSteg/pkg/lsb"
	"github.com/xob0t/GoSteg/pkg/payload"
)

func cover(t *testing.T, w, h int, pattern string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, generator.GenerateToWriter(&buf, ".png", generator.Config{
		Width: w, Height: h, Color: "#204060", Pattern: pattern, Seed: 11,
	}))
	return buf.Bytes()
}

func TestHideReveal(t *testing.T) {
	t.Parallel()

	src := cover(t, 64, 64, "noise")
	msg := []byte("Meet me at the usual place at 10 o'clock.")

	sentinel := lsb.DefaultLayout()
	sentinel.Framing = lsb.Sentinel
	sentinel.Marker = []byte("\xffEND\xff")

	for _, layout := range []lsb.Layout{lsb.DefaultLayout(), sentinel} {
		for _, codec := range payload.Names() {
			if layout.Framing == lsb.Sentinel && codec != "plain" {
				continue
			}
			o := DefaultOptions()
			o.Layout = layout
			o.Compression = codec

			res, err := Hide(src, msg, o)
			require.NoError(t, err, "%v/%s", layout.Framing, codec)
			assert.Equal(t, container.PNG, res.Format)
			assert.Equal(t, 64, res.Width)
			assert.LessOrEqual(t, res.UsedBits, res.CapacityBits)

			got, err := Reveal(res.Data, o)
			require.NoError(t, err, "%v/%s", layout.Framing, codec)
			assert.Equal(t, msg, got.Message)
			assert.False(t, got.LossySource)
		}
	}
}

func TestHide_FromJPEGWritesLossless(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32)), nil))

	o := DefaultOptions()
	o.Output = container.BMP
	res, err := Hide(buf.Bytes(), []byte("from a jpeg"), o)
	require.NoError(t, err)
	assert.Equal(t, container.JPEG, res.SourceFormat)
	assert.Equal(t, container.BMP, res.Format)

	s, rev, err := RevealText(res.Data, o)
	require.NoError(t, err)
	assert.Equal(t, "from a jpeg", s)
	assert.Equal(t, container.BMP, rev.SourceFormat)
}

func TestHide_Errors(t *testing.T) {
	t.Parallel()

	o := DefaultOptions()

	_, err := Hide(cover(t, 8, 8, "solid"), nil, o)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = Hide(cover(t, 4, 4, "solid"), []byte("far too long for sixteen pixels"), o)
	assert.ErrorIs(t, err, lsb.ErrCapacityExceeded)

	_, err = Hide([]byte("not an image"), []byte("x"), o)
	assert.Error(t, err)

	o.Output = container.JPEG
	_, err = Hide(cover(t, 16, 16, "solid"), []byte("x"), o)
	assert.ErrorIs(t, err, container.ErrLossyFormat)
}

func TestSentinelRejectsCompression(t *testing.T) {
	t.Parallel()

	src := cover(t, 64, 64, "noise")
	for _, codec := range []string{"gzip", "deflate", "zstd", "brotli"} {
		o := DefaultOptions()
		o.Layout.Framing = lsb.Sentinel
		o.Compression = codec

		assert.ErrorIs(t, o.Validate(), lsb.ErrInvalidLayout, codec)

		_, err := Hide(src, []byte("meet at noon by the old bridge"), o)
		assert.ErrorIs(t, err, lsb.ErrInvalidLayout, codec)
		assert.NotErrorIs(t, err, lsb.ErrMarkerInMessage, codec)

		_, err = Reveal(src, o)
		assert.ErrorIs(t, err, lsb.ErrInvalidLayout, codec)
	}

	o := DefaultOptions()
	o.Layout.Framing = lsb.Sentinel
	for _, codec := range []string{"", "none", "plain"} {
		o.Compression = codec
		assert.NoError(t, o.Validate(), codec)
	}
}

func TestReveal_NoMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateToWriter(&buf, ".png", generator.Config{
		Width: 32, Height: 32, Color: "#000000", Pattern: "solid",
	}))

	_, err := Reveal(buf.Bytes(), DefaultOptions())
	assert.ErrorIs(t, err, lsb.ErrNoMessage)
}

func TestReveal_WrongCodec(t *testing.T) {
	t.Parallel()

	o := DefaultOptions()
	o.Compression = "zstd"
	res, err := Hide(cover(t, 32, 32, "noise"), []byte("compressed secret"), o)
	require.NoError(t, err)

	o.Compression = "gzip"
	_, err = Reveal(res.Data, o)
	assert.ErrorIs(t, err, lsb.ErrNoMessage)
}

func TestRevealText_InvalidEncoding(t *testing.T) {
	t.Parallel()

	res, err := Hide(cover(t, 16, 16, "noise"), []byte{0xC3, 0x28}, DefaultOptions())
	require.NoError(t, err)

	_, rev, err := RevealText(res.Data, DefaultOptions())
	assert.ErrorIs(t, err, payload.ErrInvalidEncoding)
	require.NotNil(t, rev)
	assert.Equal(t, []byte{0xC3, 0x28}, rev.Message)
}

func TestInspect(t *testing.T) {
	t.Parallel()

	info, err := Inspect(cover(t, 10, 10, "noise"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, container.PNG, info.Format)
	assert.Equal(t, 300, info.CapacityBits)
	assert.Equal(t, (300-32)/8, info.CapacityBytes)
	assert.False(t, info.Lossy)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	info, err = Inspect(buf.Bytes(), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, info.Lossy)

	o := DefaultOptions()
	o.MaxPixels = 50
	_, err = Inspect(cover(t, 10, 10, "noise"), o)
	assert.ErrorIs(t, err, container.ErrTooLarge)
}
