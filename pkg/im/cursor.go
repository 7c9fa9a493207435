package im

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/text/encoding"
)

// Cursor is a positioned, byte-order aware reader over a random-access
// source. It is not safe for concurrent use; plane reads do not go through it.
type Cursor struct {
	src   io.ReaderAt
	size  int64
	order binary.ByteOrder
	text  *encoding.Decoder
	pos   int64
}

func NewCursor(src io.ReaderAt, size int64, order binary.ByteOrder) *Cursor {
	return &Cursor{
		src:   src,
		size:  size,
		order: order,
		text:  DefaultTextEncoding.NewDecoder(),
	}
}

// SetTextEncoding changes the charset used by ReadFixedString.
func (c *Cursor) SetTextEncoding(enc encoding.Encoding) {
	if enc == nil {
		enc = DefaultTextEncoding
	}
	c.text = enc.NewDecoder()
}

func (c *Cursor) Order() binary.ByteOrder { return c.order }

func (c *Cursor) Position() int64 { return c.pos }

func (c *Cursor) Size() int64 { return c.size }

// SeekTo moves to an absolute offset. Seeking to the end is allowed; reads
// from there fail with ErrTruncatedRead.
func (c *Cursor) SeekTo(off int64) error {
	if off < 0 || off > c.size {
		return &OffsetError{Op: "seek", Offset: off, Err: fmt.Errorf("%w: file has %d bytes", ErrTruncatedRead, c.size)}
	}
	c.pos = off
	return nil
}

func (c *Cursor) Skip(n int) error {
	return c.SeekTo(c.pos + int64(n))
}

func (c *Cursor) readN(op string, n int) ([]byte, error) {
	if n < 0 {
		return nil, &OffsetError{Op: op, Offset: c.pos, Err: fmt.Errorf("invalid read length %d", n)}
	}
	if c.pos+int64(n) > c.size {
		return nil, &OffsetError{Op: op, Offset: c.pos, Err: fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedRead, n, c.size-c.pos)}
	}
	buf := make([]byte, n)
	got, err := c.src.ReadAt(buf, c.pos)
	if got < n {
		if err == nil || err == io.EOF {
			err = ErrTruncatedRead
		}
		return nil, &OffsetError{Op: op, Offset: c.pos, Err: err}
	}
	c.pos += int64(n)
	return buf, nil
}

func (c *Cursor) ReadInt16() (int16, error) {
	b, err := c.readN("read int16", 2)
	if err != nil {
		return 0, err
	}
	return int16(c.order.Uint16(b)), nil
}

func (c *Cursor) ReadInt32() (int32, error) {
	b, err := c.readN("read int32", 4)
	if err != nil {
		return 0, err
	}
	return int32(c.order.Uint32(b)), nil
}

func (c *Cursor) ReadFloat64() (float64, error) {
	b, err := c.readN("read float64", 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(c.order.Uint64(b)), nil
}

// ReadFixedString consumes exactly n bytes and returns the text before the
// first NUL.
func (c *Cursor) ReadFixedString(n int) (string, error) {
	b, err := c.readN("read string", n)
	if err != nil {
		return "", err
	}
	return cleanString(b, c.text), nil
}
