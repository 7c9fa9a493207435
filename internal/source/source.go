// Package source opens container files as random-access byte sources. Plain
// files are memory mapped when possible; compressed files are inflated into
// memory.
package source

import (
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sys/unix"
)

var ErrTooLarge = errors.New("source too large")

// MaxInflated bounds the size of a decompressed source held in memory.
var MaxInflated int64 = 8 << 30

type Compression string

const (
	CompressionNone  Compression = ""
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
	CompressionZstd  Compression = "zstd"
)

var suffixes = []struct {
	ext string
	c   Compression
}{
	{".gz", CompressionGzip},
	{".bz2", CompressionBzip2},
	{".zst", CompressionZstd},
}

// Detect returns the compression implied by the file name and the name with
// that suffix removed ("run.im.gz" -> gzip, "run.im").
func Detect(name string) (Compression, string) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) {
			return s.c, name[:len(name)-len(s.ext)]
		}
	}
	return CompressionNone, name
}

// File is a read-only random-access view of a file. ReadAt is safe for
// concurrent use, including with Close.
type File struct {
	Path        string
	Compression Compression
	mu          sync.RWMutex
	r           io.ReaderAt
	size        int64
	mapped      []byte
	fh          *os.File
}

// Open maps path read-only, or inflates it when its name carries a known
// compression suffix. If mmap is unavailable it falls back to ReadAt on the
// open file. The returned file must be closed.
func Open(path string) (*File, error) {
	comp, _ := Detect(filepath.Base(path))
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if comp != CompressionNone {
		defer func() { _ = fh.Close() }()
		data, err := inflate(fh, comp)
		if err != nil {
			return nil, fmt.Errorf("inflate %s: %w", path, err)
		}
		return &File{Path: path, Compression: comp, r: bytes.NewReader(data), size: int64(len(data))}, nil
	}

	st, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	size := st.Size()
	if size > int64(int(^uint(0)>>1)) {
		_ = fh.Close()
		return nil, ErrTooLarge
	}

	if size > 0 {
		data, err := unix.Mmap(int(fh.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			_ = fh.Close()
			return &File{Path: path, r: bytes.NewReader(data), size: size, mapped: data}, nil
		}
	}

	// Fallback path that keeps the descriptor open for pread.
	return &File{Path: path, r: fh, size: size, fh: fh}, nil
}

func inflate(r io.Reader, c Compression) ([]byte, error) {
	var zr io.Reader
	switch c {
	case CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer func() { _ = gr.Close() }()
		zr = gr
	case CompressionBzip2:
		zr = bzip2.NewReader(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		zr = dec
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}

	data, err := io.ReadAll(io.LimitReader(zr, MaxInflated+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxInflated {
		return nil, fmt.Errorf("%w: more than %d bytes after decompression", ErrTooLarge, MaxInflated)
	}
	return data, nil
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.r == nil {
		return 0, os.ErrClosed
	}
	return f.r.ReadAt(p, off)
}

func (f *File) Size() int64 { return f.size }

// Mapped reports whether the file is backed by a memory mapping.
func (f *File) Mapped() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.mapped != nil
}

// Close releases the mapping or descriptor. It waits for reads in progress;
// later reads fail with os.ErrClosed.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if f.mapped != nil {
		err = unix.Munmap(f.mapped)
		f.mapped = nil
	}
	if f.fh != nil {
		err = errors.Join(err, f.fh.Close())
		f.fh = nil
	}
	f.r = nil
	return err
}
