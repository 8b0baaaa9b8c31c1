// codecs.go - Compression codecs backed by klauspost/compress and brotli.
package payload

import (
	"bytes"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Plain passes bytes through unchanged.
type Plain struct{}

func (Plain) Encode(data []byte) ([]byte, error) { return bytes.Clone(data), nil }
func (Plain) Decode(data []byte) ([]byte, error) { return bytes.Clone(data), nil }

// Gzip compresses with gzip.
type Gzip struct{}

func (Gzip) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Gzip) Decode(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return readAllLimited(gr)
}

// Deflate compresses with raw DEFLATE; it has the smallest framing
// overhead of the codecs.
type Deflate struct{}

func (Deflate) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Deflate) Decode(data []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	return readAllLimited(fr)
}

// Zstd compresses with Zstandard.
type Zstd struct{}

func (Zstd) Encode(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func (Zstd) Decode(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(MaxUnpacked),
	)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return readAllLimited(dec)
}

// Brotli compresses with Brotli.
type Brotli struct{}

func (Brotli) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := bw.Write(data); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Brotli) Decode(data []byte) ([]byte, error) {
	return readAllLimited(brotli.NewReader(bytes.NewReader(data)))
}
