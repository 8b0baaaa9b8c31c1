// Package stego wires image files, payload codecs and the lsb codec into
// the hide and reveal operations offered by the CLI, server and WASM shells.
package stego

import (
	"errors"
	"fmt"

	"github.com/xob0t/GoSteg/pkg/container"
	"github.com/xob0t/GoSteg/pkg/lsb"
	"github.com/xob0t/GoSteg/pkg/payload"
)

// ErrEmptyMessage is returned by Hide for an empty message.
var ErrEmptyMessage = errors.New("please enter a message to encode")

// Options is the contract both sides of an exchange must agree on, plus
// output and resource settings that only affect hiding.
type Options struct {
	Layout      lsb.Layout
	Compression string           // payload codec name, "" for none
	Output      container.Format // lossless output container
	MaxPixels   int              // reject larger images; 0 disables the check
}

// DefaultOptions embeds into R, G, B with a length prefix, no compression,
// and writes PNG.
func DefaultOptions() Options {
	return Options{
		Layout:    lsb.DefaultLayout(),
		Output:    container.PNG,
		MaxPixels: 50_000_000,
	}
}

// Validate checks the layout and codec. Sentinel framing only works on
// uncompressed payloads: compressed bytes are close to random and soon
// contain any short marker.
func (o Options) Validate() error {
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	c, err := payload.Lookup(o.Compression)
	if err != nil {
		return err
	}
	if _, plain := c.(payload.Plain); !plain && o.Layout.Framing == lsb.Sentinel {
		return fmt.Errorf("%w: sentinel framing cannot be combined with %s compression, use length framing",
			lsb.ErrInvalidLayout, o.Compression)
	}
	return nil
}

// Result is an image with a hidden message.
type Result struct {
	Data         []byte
	Format       container.Format
	Width        int
	Height       int
	UsedBits     int // carrier bits overwritten, framing included
	CapacityBits int
	SourceFormat container.Format
}

// Revealed is a recovered message.
type Revealed struct {
	Message []byte
	// LossySource warns that the image went through lossy coding; a
	// message found anyway is probably corrupt.
	LossySource  bool
	SourceFormat container.Format
}

// Info describes a cover image under a given layout.
type Info struct {
	Format        container.Format
	Width         int
	Height        int
	Lossy         bool
	CapacityBits  int
	CapacityBytes int // largest message accepted, before compression
}

// Hide embeds msg into the image file src and returns the new file.
func Hide(src, msg []byte, o Options) (*Result, error) {
	if len(msg) == 0 {
		return nil, ErrEmptyMessage
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	source, err := container.Decode(src, o.MaxPixels)
	if err != nil {
		return nil, err
	}
	grid := source.Grid()

	packed, err := payload.Pack(msg, o.Compression)
	if err != nil {
		return nil, err
	}

	out, err := lsb.Encode(grid, packed, o.Layout)
	if err != nil {
		return nil, err
	}

	format := o.Output
	if format == "" {
		format = container.PNG
	}
	data, err := container.EncodeBytes(out, format)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:         data,
		Format:       format,
		Width:        out.Width,
		Height:       out.Height,
		UsedBits:     len(packed)*8 + o.Layout.ReservedBits(),
		CapacityBits: lsb.CapacityBits(grid, o.Layout),
		SourceFormat: source.Format,
	}, nil
}

// Reveal extracts the message hidden in the image file src.
func Reveal(src []byte, o Options) (*Revealed, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	source, err := container.Decode(src, o.MaxPixels)
	if err != nil {
		return nil, err
	}

	packed, err := lsb.Decode(source.Grid(), o.Layout)
	if err != nil {
		return nil, err
	}

	msg, err := payload.Unpack(packed, o.Compression)
	if err != nil {
		// Wrong codec or a false frame in an unmarked image.
		return nil, fmt.Errorf("%w: %v", lsb.ErrNoMessage, err)
	}

	return &Revealed{
		Message:      msg,
		LossySource:  source.Lossy,
		SourceFormat: source.Format,
	}, nil
}

// RevealText is Reveal followed by UTF-8 validation.
func RevealText(src []byte, o Options) (string, *Revealed, error) {
	r, err := Reveal(src, o)
	if err != nil {
		return "", nil, err
	}
	s, err := payload.ToText(r.Message)
	if err != nil {
		return "", r, err
	}
	return s, r, nil
}

// Inspect reports the capacity of the image file src.
func Inspect(src []byte, o Options) (*Info, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	source, err := container.Decode(src, o.MaxPixels)
	if err != nil {
		return nil, err
	}
	grid := source.Grid()
	return &Info{
		Format:        source.Format,
		Width:         grid.Width,
		Height:        grid.Height,
		Lossy:         source.Lossy,
		CapacityBits:  lsb.CapacityBits(grid, o.Layout),
		CapacityBytes: lsb.Capacity(grid, o.Layout),
	}, nil
}
