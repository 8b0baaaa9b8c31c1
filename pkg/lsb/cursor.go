package lsb

// cursor yields the Pix offsets of carrier channels in traversal order.
type cursor struct {
	channels int
	slots    []int
	pixels   int
	pixel    int
	slot     int
}

func newCursor(g *Grid, slots []int) *cursor {
	return &cursor{channels: g.Channels, slots: slots, pixels: g.PixelCount()}
}

func (c *cursor) next() (int, bool) {
	if len(c.slots) == 0 || c.pixel >= c.pixels {
		return 0, false
	}
	off := c.pixel*c.channels + c.slots[c.slot]
	c.slot++
	if c.slot == len(c.slots) {
		c.slot = 0
		c.pixel++
	}
	return off, true
}

// readByte assembles the next 8 carrier bits, MSB first.
func (c *cursor) readByte(pix []uint8) (byte, bool) {
	var b byte
	for i := 0; i < 8; i++ {
		off, ok := c.next()
		if !ok {
			return 0, false
		}
		b = b<<1 | pix[off]&1
	}
	return b, true
}
