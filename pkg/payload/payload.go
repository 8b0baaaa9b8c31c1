// Package payload prepares message bytes before they are embedded and
// restores them after extraction: optional compression and the text
// boundary between bytes and strings.
package payload

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// MaxUnpacked caps the size of a decompressed message.
const MaxUnpacked = 64 << 20

var (
	ErrUnknownCodec = errors.New("payload: unknown codec")
	ErrTooLarge     = errors.New("payload: decompressed message too large")
)

// Codec transforms message bytes. Both sides of an exchange must use the
// same codec; nothing in the embedded data names it.
type Codec interface {
	Encode([]byte) ([]byte, error)
	Decode([]byte) ([]byte, error)
}

var codecs = map[string]Codec{
	"plain":   Plain{},
	"gzip":    Gzip{},
	"deflate": Deflate{},
	"zstd":    Zstd{},
	"brotli":  Brotli{},
}

// Lookup returns the codec registered under name. "" and "none" mean plain,
// "br" is an alias for brotli.
func Lookup(name string) (Codec, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", "none":
		return Plain{}, nil
	case "br":
		return Brotli{}, nil
	default:
		if c, ok := codecs[n]; ok {
			return c, nil
		}
		return nil, fmt.Errorf("%w: %q (use one of %s)", ErrUnknownCodec, name, strings.Join(Names(), ", "))
	}
}

// Names lists registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for n := range codecs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Pack encodes msg with the named codec.
func Pack(msg []byte, codec string) ([]byte, error) {
	c, err := Lookup(codec)
	if err != nil {
		return nil, err
	}
	out, err := c.Encode(msg)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", codec, err)
	}
	return out, nil
}

// Unpack reverses Pack.
func Unpack(data []byte, codec string) ([]byte, error) {
	c, err := Lookup(codec)
	if err != nil {
		return nil, err
	}
	out, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", codec, err)
	}
	return out, nil
}

// readAllLimited reads r fully, failing once MaxUnpacked is exceeded.
func readAllLimited(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, MaxUnpacked+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxUnpacked {
		return nil, ErrTooLarge
	}
	return out, nil
}
