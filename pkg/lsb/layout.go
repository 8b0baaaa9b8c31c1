// layout.go - Bit layout shared by Encode and Decode.
package lsb

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// Channel indexes a color channel inside a pixel.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

func (c Channel) String() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// Framing selects how the end of the message is marked.
type Framing int

const (
	// LengthPrefix stores the message length as a 32-bit big-endian
	// integer ahead of the message bytes.
	LengthPrefix Framing = iota
	// Sentinel appends Layout.Marker after the message bytes.
	Sentinel
)

func (f Framing) String() string {
	switch f {
	case LengthPrefix:
		return "length"
	case Sentinel:
		return "sentinel"
	default:
		return fmt.Sprintf("Framing(%d)", int(f))
	}
}

// LengthPrefixBits is the width of the length field.
const LengthPrefixBits = 32

// DefaultMarker is the sentinel used when Layout.Marker is empty.
var DefaultMarker = []byte{0x00}

// Layout is the bit layout contract. Encoder and decoder must use equal
// layouts: a mismatch is not detectable and yields garbage or ErrNoMessage.
//
// Bits are always written most significant first, pixels are visited in
// row-major order and alpha never carries data.
type Layout struct {
	Order   []Channel
	Framing Framing
	Marker  []byte // Sentinel only; defaults to DefaultMarker
}

// DefaultLayout embeds into R, G and B with a length prefix.
func DefaultLayout() Layout {
	return Layout{Order: []Channel{Red, Green, Blue}, Framing: LengthPrefix}
}

// ParseOrder parses a channel order string such as "RGB" or "bgr".
func ParseOrder(s string) ([]Channel, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil, fmt.Errorf("%w: empty channel order", ErrInvalidLayout)
	}
	order := make([]Channel, 0, len(s))
	for _, r := range s {
		switch r {
		case 'R':
			order = append(order, Red)
		case 'G':
			order = append(order, Green)
		case 'B':
			order = append(order, Blue)
		case 'A':
			return nil, fmt.Errorf("%w: alpha channel cannot carry data", ErrInvalidLayout)
		default:
			return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidLayout, r)
		}
	}
	return order, nil
}

// ParseFraming parses "length" or "sentinel".
func ParseFraming(s string) (Framing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "length", "length-prefix":
		return LengthPrefix, nil
	case "sentinel", "marker":
		return Sentinel, nil
	default:
		return 0, fmt.Errorf("%w: unknown framing %q", ErrInvalidLayout, s)
	}
}

// ParseMarker parses a sentinel marker written as hex, e.g. "00" or
// "0xff00ff". An empty string selects DefaultMarker.
func ParseMarker(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, nil
	}
	m, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: marker %q: %v", ErrInvalidLayout, s, err)
	}
	return m, nil
}

// Validate checks the channel order and framing.
func (l Layout) Validate() error {
	if len(l.Order) == 0 {
		return fmt.Errorf("%w: empty channel order", ErrInvalidLayout)
	}
	var seen [3]bool
	for _, c := range l.Order {
		if c < Red || c > Blue {
			return fmt.Errorf("%w: invalid channel %v", ErrInvalidLayout, c)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate channel %v", ErrInvalidLayout, c)
		}
		seen[c] = true
	}
	if l.Framing != LengthPrefix && l.Framing != Sentinel {
		return fmt.Errorf("%w: invalid framing %v", ErrInvalidLayout, l.Framing)
	}
	return nil
}

func (l Layout) marker() []byte {
	if len(l.Marker) == 0 {
		return DefaultMarker
	}
	return l.Marker
}

// ReservedBits is the framing overhead in bits.
func (l Layout) ReservedBits() int {
	if l.Framing == Sentinel {
		return len(l.marker()) * 8
	}
	return LengthPrefixBits
}

// frame returns the exact byte sequence written into the grid.
func (l Layout) frame(msg []byte) ([]byte, error) {
	switch l.Framing {
	case Sentinel:
		m := l.marker()
		out := make([]byte, 0, len(msg)+len(m))
		out = append(out, msg...)
		out = append(out, m...)
		// The decoder stops at the first match, which must be the appended one.
		if bytes.Index(out, m) != len(msg) {
			return nil, fmt.Errorf("%w: marker % x occurs before end of message", ErrMarkerInMessage, m)
		}
		return out, nil
	default:
		if len(msg) == 0 {
			return nil, ErrEmptyMessage
		}
		if uint64(len(msg)) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrCapacityExceeded, uint64(math.MaxUint32))
		}
		out := make([]byte, 4, 4+len(msg))
		binary.BigEndian.PutUint32(out, uint32(len(msg)))
		return append(out, msg...), nil
	}
}

// slots lists the byte offsets inside a pixel that carry data for g,
// in traversal order. Channels the grid lacks are skipped, so on a gray
// grid only Red (the gray channel) carries data.
func (l Layout) slots(g *Grid) []int {
	n := g.colorChannels()
	out := make([]int, 0, len(l.Order))
	for _, c := range l.Order {
		if int(c) < n {
			out = append(out, int(c))
		}
	}
	return out
}
