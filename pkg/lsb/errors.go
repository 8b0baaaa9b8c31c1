package lsb

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is matched by *CapacityError.
	ErrCapacityExceeded = errors.New("lsb: capacity exceeded")
	// ErrNoMessage means the grid was scanned without finding a framed
	// message. It is the normal answer for images that carry nothing.
	ErrNoMessage = errors.New("lsb: no message found")

	ErrInvalidGrid     = errors.New("lsb: invalid grid")
	ErrInvalidLayout   = errors.New("lsb: invalid layout")
	ErrMarkerInMessage = errors.New("lsb: message contains the sentinel marker")
	ErrEmptyMessage    = errors.New("lsb: empty message")
)

// CapacityError reports how many bits a frame needed against what the
// grid offers.
type CapacityError struct {
	Required  int // bits, including framing
	Available int // bits
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("lsb: capacity exceeded: need %d bits, have %d", e.Required, e.Available)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
