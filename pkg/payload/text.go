// text.go - Boundary between message bytes and text.
package payload

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidEncoding means extracted bytes are not valid UTF-8.
var ErrInvalidEncoding = errors.New("payload: message is not valid UTF-8")

// FromText returns the NFC form of s as bytes, so visually identical
// input always embeds the same bits.
func FromText(s string) []byte {
	return norm.NFC.Bytes([]byte(s))
}

// ToText interprets b as UTF-8 text.
func ToText(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidEncoding
	}
	return string(b), nil
}
