package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unsafe"
)

var nativeLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// Array is a decoded .npy array. Its data may alias the buffer it was
// decoded from (for example a memory mapping).
type Array struct {
	Header
	data []byte
}

// Decode parses data as a complete .npy file without copying the payload.
func Decode(data []byte) (*Array, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	want := h.Len() * h.DType.Size()
	if len(data)-h.DataOffset < want {
		return nil, fmt.Errorf("%w: payload has %d bytes, shape %v needs %d", ErrFormat, len(data)-h.DataOffset, h.Shape, want)
	}
	return &Array{Header: h, data: data[h.DataOffset : h.DataOffset+want]}, nil
}

// Rows returns the first dimension, or 1 for a scalar.
func (a *Array) Rows() int {
	if len(a.Shape) == 0 {
		return 1
	}
	return a.Shape[0]
}

// Float32s returns the elements of a "<f4" array. On little-endian hosts
// with an aligned payload the result aliases the array data.
func (a *Array) Float32s() ([]float32, error) {
	if a.DType != Float32 {
		return nil, fmt.Errorf("%w: want %s, have %s", ErrFormat, Float32, a.DType)
	}
	n := a.Len()
	if n == 0 {
		return []float32{}, nil
	}
	if nativeLittleEndian && uintptr(unsafe.Pointer(&a.data[0]))%4 == 0 {
		return unsafe.Slice((*float32)(unsafe.Pointer(&a.data[0])), n), nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(a.data[i*4:]))
	}
	return out, nil
}

// Int64s returns the elements of an integer array, widening "<i4". A "<i8"
// array on a little-endian host with an aligned payload is not copied.
func (a *Array) Int64s() ([]int64, error) {
	n := a.Len()
	switch a.DType {
	case Int64:
		if n == 0 {
			return []int64{}, nil
		}
		if nativeLittleEndian && uintptr(unsafe.Pointer(&a.data[0]))%8 == 0 {
			return unsafe.Slice((*int64)(unsafe.Pointer(&a.data[0])), n), nil
		}
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(a.data[i*8:]))
		}
		return out, nil
	case Int32:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(int32(binary.LittleEndian.Uint32(a.data[i*4:])))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: want an integer array, have %s", ErrFormat, a.DType)
	}
}

// Write encodes data with the given shape. data must be []float32, []int32
// or []int64 and hold exactly the product of shape elements.
func Write(w io.Writer, shape []int, data any) error {
	h := Header{Shape: shape}
	var payload []byte
	switch v := data.(type) {
	case []float32:
		h.DType = Float32
		payload = make([]byte, 0, len(v)*4)
		for _, x := range v {
			payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(x))
		}
	case []int32:
		h.DType = Int32
		payload = make([]byte, 0, len(v)*4)
		for _, x := range v {
			payload = binary.LittleEndian.AppendUint32(payload, uint32(x))
		}
	case []int64:
		h.DType = Int64
		payload = make([]byte, 0, len(v)*8)
		for _, x := range v {
			payload = binary.LittleEndian.AppendUint64(payload, uint64(x))
		}
	default:
		return fmt.Errorf("%w: cannot encode %T", ErrFormat, data)
	}
	if got := len(payload) / h.DType.Size(); got != h.Len() {
		return fmt.Errorf("%w: %d elements do not match shape %v", ErrFormat, got, shape)
	}

	if _, err := w.Write(encodeHeader(h)); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
