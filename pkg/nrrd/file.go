package nrrd

import (
	"bufio"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/samcharles93/mims/internal/source"
	"github.com/samcharles93/mims/pkg/raster"
)

// Source is a random-access byte source with a known length.
type Source interface {
	io.ReaderAt
	Size() int64
}

// Resolver opens the detached data file named by a header. The returned
// closer may be nil.
type Resolver func(name string) (Source, io.Closer, error)

// File is a parsed header bound to the bytes holding its pixels. Plane reads
// are positional and safe for concurrent use.
type File struct {
	Header *Header
	data   Source
	// start is where the pixel stream begins in data: after line and byte
	// skips for raw data, after line skips only for compressed data.
	start  int64
	closer io.Closer
}

// NewFile parses the header at the start of src and locates the pixel data,
// either after the header or in the detached file returned by resolve.
func NewFile(src Source, resolve Resolver) (*File, error) {
	h, err := Parse(io.NewSectionReader(src, 0, src.Size()))
	if err != nil {
		return nil, err
	}

	f := &File{Header: h, data: src}
	base := h.Length
	if h.Detached() {
		if resolve == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingDataFile, h.DataFile)
		}
		data, closer, err := resolve(h.DataFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMissingDataFile, h.DataFile, err)
		}
		f.data, f.closer, base = data, closer, 0
	}

	start, err := skipLines(f.data, base, h.LineSkip)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if h.Encoding == EncodingRaw {
		switch {
		case h.ByteSkip == -1:
			total, err := f.dataBytes()
			if err != nil {
				_ = f.Close()
				return nil, err
			}
			end := f.data.Size() - total
			if end < start {
				_ = f.Close()
				return nil, fmt.Errorf("%w: data needs %d bytes, %d available", ErrTruncatedRead, total, f.data.Size()-start)
			}
			start = end
		default:
			start += h.ByteSkip
		}
	}
	f.start = start
	return f, nil
}

// Close releases a detached data file opened through the resolver.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}

// DataStart returns the offset of the pixel stream within the data source.
func (f *File) DataStart() int64 { return f.start }

func skipLines(src Source, base int64, n int) (int64, error) {
	if n == 0 {
		return base, nil
	}
	br := bufio.NewReader(io.NewSectionReader(src, base, src.Size()-base))
	off := base
	for i := range n {
		line, err := br.ReadBytes('\n')
		off += int64(len(line))
		if err != nil {
			return 0, fmt.Errorf("%w: line skip %d reached end of data after %d lines", ErrTruncatedRead, n, i)
		}
	}
	return off, nil
}

func (f *File) layout() raster.Layout {
	h := f.Header
	return raster.Layout{Masses: h.Masses, Planes: h.Planes, Width: h.Width, Height: h.Height, Type: h.Type}
}

// dataBytes is the size of the whole pixel region.
func (f *File) dataBytes() (int64, error) {
	return f.layout().ExpectedSize()
}

// PlaneOffset returns the offset of (mass, plane) within the pixel stream.
// Data is stored mass-major: every plane of mass 0, then mass 1.
func PlaneOffset(sampleSize, width, height, planes, mass, plane int) int64 {
	img := int64(sampleSize) * int64(width) * int64(height)
	return img*int64(mass)*int64(planes) + img*int64(plane)
}

func (f *File) checkIndex(mass, plane int) error {
	h := f.Header
	if mass < 0 || mass >= h.Masses {
		return fmt.Errorf("%w: mass %d not in [0,%d)", ErrIndexOutOfRange, mass, h.Masses)
	}
	if plane < 0 || plane >= h.Planes {
		return fmt.Errorf("%w: plane %d not in [0,%d)", ErrIndexOutOfRange, plane, h.Planes)
	}
	return nil
}

// ReadPlane decodes one plane. Compressed data is streamed from the start of
// the pixel stream up to the requested plane; nothing else is retained.
func (f *File) ReadPlane(mass, plane int) (*raster.Plane, error) {
	if err := f.checkIndex(mass, plane); err != nil {
		return nil, err
	}
	h := f.Header
	n, err := raster.PlaneBytes(h.Width, h.Height, h.Type)
	if err != nil {
		return nil, err
	}
	rel := PlaneOffset(h.Type.Size(), h.Width, h.Height, h.Planes, mass, plane)
	buf := make([]byte, n)

	if h.Encoding == EncodingRaw {
		off := f.start + rel
		got, err := f.data.ReadAt(buf, off)
		if int64(got) < n {
			if err == nil || err == io.EOF {
				err = ErrTruncatedRead
			}
			return nil, fmt.Errorf("read plane mass=%d plane=%d at offset %d: %w", mass, plane, off, err)
		}
		return raster.Decode(buf, h.Order, h.Type, h.Width, h.Height)
	}

	zr, closeFn, err := f.decompressor()
	if err != nil {
		return nil, err
	}
	defer closeFn()
	if _, err := io.CopyN(io.Discard, zr, h.ByteSkip+rel); err != nil {
		return nil, fmt.Errorf("seek %s stream to %d: %w", h.Encoding, h.ByteSkip+rel, truncated(err))
	}
	if _, err := io.ReadFull(zr, buf); err != nil {
		return nil, fmt.Errorf("read plane mass=%d plane=%d: %w", mass, plane, truncated(err))
	}
	return raster.Decode(buf, h.Order, h.Type, h.Width, h.Height)
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedRead
	}
	return err
}

func (f *File) decompressor() (io.Reader, func(), error) {
	sr := io.NewSectionReader(f.data, f.start, f.data.Size()-f.start)
	switch f.Header.Encoding {
	case EncodingGzip:
		zr, err := gzip.NewReader(sr)
		if err != nil {
			return nil, nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case EncodingBzip2:
		return bzip2.NewReader(sr), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, f.Header.Encoding)
	}
}

// Check compares the pixel region against the declared geometry. Compressed
// streams are decompressed once to count their length.
func (f *File) Check() error {
	total, err := f.dataBytes()
	if err != nil {
		return err
	}
	h := f.Header
	if h.Encoding == EncodingRaw {
		l := f.layout()
		l.HeaderSize = f.start
		return l.Check(f.data.Size())
	}

	zr, closeFn, err := f.decompressor()
	if err != nil {
		return err
	}
	defer closeFn()
	got, err := io.Copy(io.Discard, zr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInconsistentFileSize, err)
	}
	if want := h.ByteSkip + total; got != want {
		return fmt.Errorf("%w: %s stream has %d bytes, header implies %d", ErrInconsistentFileSize, h.Encoding, got, want)
	}
	return nil
}

func (f *File) IsConsistent() bool { return f.Check() == nil }

// DirResolver resolves detached data files through source.Open, so a
// compressed data file is inflated transparently. Relative names are taken
// relative to dir, the directory of the header file.
func DirResolver(dir string) Resolver {
	return func(name string) (Source, io.Closer, error) {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}
		src, err := source.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return src, src, nil
	}
}

// Open parses the header file at path, resolving a detached data file next to
// it. The caller must Close the returned file.
func Open(path string) (*File, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := NewFile(src, DirResolver(filepath.Dir(path)))
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	f.closer = closers{f.closer, src}
	return f, nil
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		if cl != nil {
			errs = append(errs, cl.Close())
		}
	}
	return errors.Join(errs...)
}
