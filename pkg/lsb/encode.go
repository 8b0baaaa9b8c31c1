// encode.go - Embedding a framed message into channel LSBs.
package lsb

import "fmt"

// Encode returns a copy of g with msg embedded according to l. The input
// grid is never modified. On any error no grid is returned.
//
// The result must be stored in a lossless container; any transform that
// alters pixel values destroys the message.
func Encode(g *Grid, msg []byte, l Layout) (*Grid, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	frame, err := l.frame(msg)
	if err != nil {
		return nil, err
	}

	slots := l.slots(g)
	need := len(frame) * 8
	if avail := g.PixelCount() * len(slots); need > avail {
		return nil, &CapacityError{Required: need, Available: avail}
	}

	out := g.Clone()
	c := newCursor(out, slots)
	written := 0
	for _, b := range frame {
		for i := 7; i >= 0; i-- {
			off, ok := c.next()
			if !ok {
				// Unreachable after the capacity check.
				return nil, fmt.Errorf("lsb: carrier exhausted after %d of %d bits", written, need)
			}
			out.Pix[off] = out.Pix[off]&0xFE | (b>>uint(i))&1
			written++
		}
	}
	return out, nil
}
