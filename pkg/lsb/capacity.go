package lsb

// CapacityBits is the number of carrier bits g offers under l, framing
// included. Invalid grids or layouts have no capacity.
func CapacityBits(g *Grid, l Layout) int {
	if l.Validate() != nil || g.Validate() != nil {
		return 0
	}
	return g.PixelCount() * len(l.slots(g))
}

// Capacity is the largest message, in bytes, that Encode accepts for g
// under l.
func Capacity(g *Grid, l Layout) int {
	bits := CapacityBits(g, l) - l.ReservedBits()
	if bits < 0 {
		return 0
	}
	return bits / 8
}
