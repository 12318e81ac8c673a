package npy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Magic is the leading byte sequence of every .npy file.
const Magic = "\x93NUMPY"

// ErrFormat is returned for malformed or unsupported files.
var ErrFormat = errors.New("npy: unsupported or malformed file")

// DType is a supported element type.
type DType string

const (
	Float32 DType = "<f4"
	Int32   DType = "<i4"
	Int64   DType = "<i8"
)

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Int64:
		return 8
	default:
		return 0
	}
}

// Header is the parsed array description.
type Header struct {
	DType        DType
	FortranOrder bool
	Shape        []int
	// DataOffset is the byte offset of the first element.
	DataOffset int
}

// Len returns the number of elements.
func (h Header) Len() int {
	n := 1
	for _, d := range h.Shape {
		n *= d
	}
	return n
}

// ParseHeader parses the preamble at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < 10 || string(data[:6]) != Magic {
		return Header{}, fmt.Errorf("%w: missing magic", ErrFormat)
	}

	major := data[6]
	var hlen, start int
	switch major {
	case 1:
		hlen, start = int(binary.LittleEndian.Uint16(data[8:10])), 10
	case 2, 3:
		if len(data) < 12 {
			return Header{}, fmt.Errorf("%w: truncated preamble", ErrFormat)
		}
		hlen, start = int(binary.LittleEndian.Uint32(data[8:12])), 12
	default:
		return Header{}, fmt.Errorf("%w: version %d.%d", ErrFormat, major, data[7])
	}
	if start+hlen > len(data) {
		return Header{}, fmt.Errorf("%w: truncated header", ErrFormat)
	}

	h, err := parseDict(string(bytes.TrimRight(data[start:start+hlen], " \n\x00")))
	if err != nil {
		return Header{}, err
	}
	h.DataOffset = start + hlen
	return h, nil
}

// parseDict parses the Python dict literal NumPy writes, e.g.
// {'descr': '<f4', 'fortran_order': False, 'shape': (3, 2), }
func parseDict(s string) (Header, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return Header{}, fmt.Errorf("%w: header is not a dict", ErrFormat)
	}

	var h Header
	descr, ok := dictValue(s, "descr")
	if !ok {
		return Header{}, fmt.Errorf("%w: missing descr", ErrFormat)
	}
	h.DType = DType(strings.Trim(descr, `'"`))
	if h.DType.Size() == 0 {
		return Header{}, fmt.Errorf("%w: dtype %s (want <f4, <i4 or <i8)", ErrFormat, h.DType)
	}

	fortran, ok := dictValue(s, "fortran_order")
	if !ok {
		return Header{}, fmt.Errorf("%w: missing fortran_order", ErrFormat)
	}
	h.FortranOrder = fortran == "True"
	if h.FortranOrder {
		return Header{}, fmt.Errorf("%w: fortran order arrays are not supported", ErrFormat)
	}

	shape, ok := dictValue(s, "shape")
	if !ok {
		return Header{}, fmt.Errorf("%w: missing shape", ErrFormat)
	}
	shape = strings.TrimSpace(shape)
	if !strings.HasPrefix(shape, "(") || !strings.HasSuffix(shape, ")") {
		return Header{}, fmt.Errorf("%w: shape %q", ErrFormat, shape)
	}
	h.Shape = []int{}
	for _, part := range strings.Split(shape[1:len(shape)-1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(part, "L"))
		if err != nil || n < 0 {
			return Header{}, fmt.Errorf("%w: shape %q", ErrFormat, shape)
		}
		h.Shape = append(h.Shape, n)
	}
	return h, nil
}

// dictValue returns the raw value of key in a flat dict literal.
func dictValue(s, key string) (string, bool) {
	for _, quote := range []string{"'", `"`} {
		i := strings.Index(s, quote+key+quote)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(s[i+len(key)+2:])
		rest, ok := strings.CutPrefix(rest, ":")
		if !ok {
			return "", false
		}
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "(") {
			end := strings.Index(rest, ")")
			if end < 0 {
				return "", false
			}
			return rest[:end+1], true
		}
		end := strings.IndexAny(rest, ",}")
		if end < 0 {
			return "", false
		}
		return strings.TrimSpace(rest[:end]), true
	}
	return "", false
}

// encodeHeader renders the preamble for h, padded so the data starts on a
// 64-byte boundary.
func encodeHeader(h Header) []byte {
	dims := make([]string, len(h.Shape))
	for i, d := range h.Shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(h.Shape) == 1 {
		shape += ","
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", h.DType, shape)

	major, preamble := byte(1), 10
	if len(dict)+1+preamble > 65535 {
		major, preamble = 2, 12
	}
	total := preamble + len(dict) + 1
	pad := (64 - total%64) % 64

	out := make([]byte, 0, total+pad)
	out = append(out, Magic...)
	out = append(out, major, 0)
	hlen := len(dict) + pad + 1
	if major == 1 {
		out = binary.LittleEndian.AppendUint16(out, uint16(hlen))
	} else {
		out = binary.LittleEndian.AppendUint32(out, uint32(hlen))
	}
	out = append(out, dict...)
	out = append(out, bytes.Repeat([]byte{' '}, pad)...)
	return append(out, '\n')
}
