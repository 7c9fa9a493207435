package im

import (
	"fmt"
	"io"

	"github.com/samcharles93/mims/pkg/raster"
)

// File pairs a decoded header with its byte source for pixel reads.
// ReadPlane uses positional reads only and is safe for concurrent use when
// the source's ReadAt is.
type File struct {
	Header *Header
	src    io.ReaderAt
	size   int64
}

// NewFile decodes the header of src and returns a File ready for plane reads.
func NewFile(src io.ReaderAt, size int64, opts ...DecodeOption) (*File, error) {
	h, err := Decode(src, size, opts...)
	if err != nil {
		return nil, err
	}
	return &File{Header: h, src: src, size: size}, nil
}

func (f *File) Size() int64 { return f.size }

// PlaneOffset computes where one mass image of one plane starts. Planes are
// stored plane-major: all masses of plane 0, then all masses of plane 1.
func PlaneOffset(headerSize int64, masses, bytesPerPixel, width, height, mass, plane int) int64 {
	planeBytes := int64(bytesPerPixel) * int64(width) * int64(height)
	return headerSize + int64(plane)*int64(masses)*planeBytes + int64(mass)*planeBytes
}

func (f *File) checkIndex(mass, plane int) error {
	h := f.Header
	if mass < 0 || mass >= h.MassCount() {
		return fmt.Errorf("%w: mass %d not in [0,%d)", ErrIndexOutOfRange, mass, h.MassCount())
	}
	if plane < 0 || plane >= h.PlaneCount() {
		return fmt.Errorf("%w: plane %d not in [0,%d)", ErrIndexOutOfRange, plane, h.PlaneCount())
	}
	return nil
}

// PlaneOffset returns the absolute offset of (mass, plane) in this file.
func (f *File) PlaneOffset(mass, plane int) (int64, error) {
	if err := f.checkIndex(mass, plane); err != nil {
		return 0, err
	}
	h := f.Header
	return PlaneOffset(int64(h.Analysis.HeaderSize), h.MassCount(), int(h.Geometry.BytesPerPixel), h.Width(), h.Height(), mass, plane), nil
}

// ReadPlane decodes exactly one width*height raster.
func (f *File) ReadPlane(mass, plane int) (*raster.Plane, error) {
	off, err := f.PlaneOffset(mass, plane)
	if err != nil {
		return nil, err
	}
	h := f.Header
	st, err := h.Geometry.SampleType()
	if err != nil {
		return nil, err
	}
	n, err := raster.PlaneBytes(h.Width(), h.Height(), st)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	got, err := f.src.ReadAt(buf, off)
	if int64(got) < n {
		if err == nil || err == io.EOF {
			err = fmt.Errorf("%w: plane needs %d bytes, read %d", ErrTruncatedRead, n, got)
		}
		return nil, &OffsetError{Op: fmt.Sprintf("read plane mass=%d plane=%d", mass, plane), Offset: off, Err: err}
	}
	return raster.Decode(buf, h.Order, st, h.Width(), h.Height())
}

// Check runs the size sanity check against the source length.
func (f *File) Check() error {
	return f.Header.Layout().Check(f.size)
}

func (f *File) IsConsistent() bool {
	return f.Check() == nil
}
