// Package compression wraps output and input streams in the codec implied
// by a file name's extension.
package compression

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a stream compression algorithm.
type Type uint8

const (
	// None passes bytes through unchanged.
	None Type = iota
	// Gzip is RFC 1952 gzip (".gz").
	Gzip
	// Zstd is Zstandard (".zst", ".zstd").
	Zstd
	// LZ4 is the LZ4 frame format (".lz4").
	LZ4
)

// ErrUnknownType is returned for an unsupported Type value.
var ErrUnknownType = errors.New("compression: unknown type")

// String returns the canonical extension-less name.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(t))
	}
}

// FromName infers the compression type from the extension of name.
// Object keys and URLs are accepted as well as file paths.
func FromName(name string) Type {
	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// TrimExt removes a compression extension from name, if present.
func TrimExt(name string) string {
	if FromName(name) == None {
		return name
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// NewWriter wraps w. Closing the returned writer flushes the compressed
// stream but does not close w.
func NewWriter(w io.Writer, t Type) (io.WriteCloser, error) {
	switch t {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return enc, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
}

// NewReader wraps r. Closing the returned reader releases decoder state but
// does not close r.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	switch t {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}
