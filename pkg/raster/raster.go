// Package raster holds the sample types and plane buffers shared by the
// binary and text-header container readers.
package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

type SampleType uint8

const (
	SampleUnknown SampleType = iota
	SampleUint16
	SampleUint32
	SampleFloat32
)

func (t SampleType) String() string {
	switch t {
	case SampleUint16:
		return "uint16"
	case SampleUint32:
		return "uint32"
	case SampleFloat32:
		return "float32"
	default:
		return fmt.Sprintf("sample(%d)", uint8(t))
	}
}

// Size returns the number of bytes per sample, or 0 for unknown types.
func (t SampleType) Size() int {
	switch t {
	case SampleUint16:
		return 2
	case SampleUint32, SampleFloat32:
		return 4
	default:
		return 0
	}
}

// UnsignedSampleType maps a bytes-per-pixel value to the unsigned sample type
// used by instrument files.
func UnsignedSampleType(bytesPerPixel int) (SampleType, error) {
	switch bytesPerPixel {
	case 2:
		return SampleUint16, nil
	case 4:
		return SampleUint32, nil
	default:
		return SampleUnknown, fmt.Errorf("%w: %d bytes per pixel", ErrUnsupportedSampleType, bytesPerPixel)
	}
}

// Plane is one decoded mass image for one acquisition plane. Exactly one of
// the sample slices is populated, selected by Type.
type Plane struct {
	Width  int
	Height int
	Type   SampleType
	U16    []uint16
	U32    []uint32
	F32    []float32
}

func (p *Plane) Len() int {
	switch p.Type {
	case SampleUint16:
		return len(p.U16)
	case SampleUint32:
		return len(p.U32)
	case SampleFloat32:
		return len(p.F32)
	default:
		return 0
	}
}

// At returns the sample at column x, row y widened to float64.
func (p *Plane) At(x, y int) float64 {
	i := y*p.Width + x
	switch p.Type {
	case SampleUint16:
		return float64(p.U16[i])
	case SampleUint32:
		return float64(p.U32[i])
	case SampleFloat32:
		return float64(p.F32[i])
	default:
		return 0
	}
}

// Values returns every sample widened to float64 in row-major order.
func (p *Plane) Values() []float64 {
	out := make([]float64, p.Len())
	switch p.Type {
	case SampleUint16:
		for i, v := range p.U16 {
			out[i] = float64(v)
		}
	case SampleUint32:
		for i, v := range p.U32 {
			out[i] = float64(v)
		}
	case SampleFloat32:
		for i, v := range p.F32 {
			out[i] = float64(v)
		}
	}
	return out
}

// AppendBytes appends the plane samples to dst encoded with the given order.
func (p *Plane) AppendBytes(dst []byte, order binary.AppendByteOrder) []byte {
	switch p.Type {
	case SampleUint16:
		for _, v := range p.U16 {
			dst = order.AppendUint16(dst, v)
		}
	case SampleUint32:
		for _, v := range p.U32 {
			dst = order.AppendUint32(dst, v)
		}
	case SampleFloat32:
		for _, v := range p.F32 {
			dst = order.AppendUint32(dst, math.Float32bits(v))
		}
	}
	return dst
}

// PlaneBytes returns width*height*sampleSize, rejecting empty or overflowing
// geometries.
func PlaneBytes(width, height int, t SampleType) (int64, error) {
	size := t.Size()
	if size == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedSampleType, t)
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid plane geometry %dx%d", width, height)
	}
	n := int64(width) * int64(height)
	if n > math.MaxInt64/int64(size) {
		return 0, errors.New("plane too large")
	}
	return n * int64(size), nil
}

// Decode converts raw bytes holding width*height samples into a Plane.
func Decode(raw []byte, order binary.ByteOrder, t SampleType, width, height int) (*Plane, error) {
	want, err := PlaneBytes(width, height, t)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) != want {
		return nil, fmt.Errorf("%w: plane has %d bytes, want %d", ErrTruncatedRead, len(raw), want)
	}

	n := width * height
	p := &Plane{Width: width, Height: height, Type: t}
	switch t {
	case SampleUint16:
		p.U16 = make([]uint16, n)
		for i := range n {
			p.U16[i] = order.Uint16(raw[i*2:])
		}
	case SampleUint32:
		p.U32 = make([]uint32, n)
		for i := range n {
			p.U32[i] = order.Uint32(raw[i*4:])
		}
	case SampleFloat32:
		p.F32 = make([]float32, n)
		for i := range n {
			p.F32[i] = math.Float32frombits(order.Uint32(raw[i*4:]))
		}
	}
	return p, nil
}
