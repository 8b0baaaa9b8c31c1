// decode.go - Recovering a framed message from channel LSBs.
package lsb

import (
	"bytes"
	"encoding/binary"
)

// Decode scans g with layout l and returns the embedded message bytes.
// It returns ErrNoMessage when no frame is found. The bytes are not
// checked for any text encoding.
func Decode(g *Grid, l Layout) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	slots := l.slots(g)
	c := newCursor(g, slots)
	if l.Framing == Sentinel {
		return decodeSentinel(g, c, l.marker())
	}
	return decodeLengthPrefix(g, c, g.PixelCount()*len(slots))
}

func decodeLengthPrefix(g *Grid, c *cursor, avail int) ([]byte, error) {
	var hdr [4]byte
	for i := range hdr {
		b, ok := c.readByte(g.Pix)
		if !ok {
			return nil, ErrNoMessage
		}
		hdr[i] = b
	}

	// A zero length is what a flat, unmarked image produces.
	n := uint64(binary.BigEndian.Uint32(hdr[:]))
	if n == 0 || n*8 > uint64(avail-LengthPrefixBits) {
		return nil, ErrNoMessage
	}

	msg := make([]byte, n)
	for i := range msg {
		b, ok := c.readByte(g.Pix)
		if !ok {
			return nil, ErrNoMessage
		}
		msg[i] = b
	}
	return msg, nil
}

func decodeSentinel(g *Grid, c *cursor, marker []byte) ([]byte, error) {
	var buf []byte
	for {
		b, ok := c.readByte(g.Pix)
		if !ok {
			return nil, ErrNoMessage
		}
		buf = append(buf, b)
		if bytes.HasSuffix(buf, marker) {
			return buf[:len(buf)-len(marker)], nil
		}
	}
}
