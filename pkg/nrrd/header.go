// Package nrrd reads the text-header raster container written by the
// instrument tooling: a "key: value" header terminated by a blank line,
// followed by (or pointing at) mass-major pixel data.
package nrrd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samcharles93/mims/pkg/meta"
	"github.com/samcharles93/mims/pkg/raster"
)

// Encoding is the compression applied to the pixel data.
type Encoding string

const (
	EncodingRaw   Encoding = "raw"
	EncodingGzip  Encoding = "gzip"
	EncodingBzip2 Encoding = "bzip2"
)

// MaxHeaderBytes bounds how much text is scanned for the terminating blank
// line before the input is rejected.
const MaxHeaderBytes = 1 << 20

var (
	uint16Types = []string{"ushort", "unsigned short", "unsigned short int", "uint16", "uint16_t"}
	uint32Types = []string{"uint", "unsigned int", "uint32", "uint32_t"}
	floatTypes  = []string{"float"}
	// Recognised by the format but not produced by the instrument tooling.
	otherTypes = []string{
		"uchar", "unsigned char", "uint8", "uint8_t",
		"short", "short int", "signed short", "signed short int", "int16", "int16_t",
		"int", "signed int", "int32", "int32_t",
		"double",
	}
)

type Header struct {
	Magic     string
	Dimension int
	Sizes     []int
	Width     int
	Height    int
	Planes    int
	Masses    int
	Type      raster.SampleType
	TypeName  string
	Encoding  Encoding
	Order     binary.ByteOrder
	DataFile  string
	LineSkip  int
	// ByteSkip is -1 when the data sits at the end of the file.
	ByteSkip int64
	// Length is the byte length of the header including the blank line.
	Length int64
	Meta   *meta.Tree
}

// Detached reports whether pixel data lives in a separate file.
func (h *Header) Detached() bool { return h.DataFile != "" }

func (h *Header) MassNames() []string {
	v, _ := h.Meta.List(meta.KeyMassNumbers)
	return v
}

func (h *Header) MassSymbols() []string {
	v, _ := h.Meta.List(meta.KeyMassSymbols)
	return v
}

// Parse reads header lines from r up to and including the first blank line.
// Instrument values are stored verbatim; only geometry fields are validated.
func Parse(r io.Reader) (*Header, error) {
	br := bufio.NewReader(r)
	h := &Header{
		Encoding: EncodingRaw,
		Order:    binary.BigEndian,
		Meta:     meta.New(),
	}

	var sawSizes, sawType bool
	for lineNo := 1; ; lineNo++ {
		raw, err := br.ReadString('\n')
		h.Length += int64(len(raw))
		if h.Length > MaxHeaderBytes {
			return nil, fmt.Errorf("%w: no blank line within %d bytes", ErrMalformedHeader, MaxHeaderBytes)
		}
		line := strings.TrimRight(raw, "\r\n")
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line == "" {
			break
		}
		if err := h.parseLine(lineNo, line, &sawSizes, &sawType); err != nil {
			return nil, err
		}
		if err == io.EOF {
			break
		}
	}

	if !sawSizes {
		return nil, fmt.Errorf("%w: missing sizes", ErrMalformedHeader)
	}
	if !sawType {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedHeader)
	}
	if h.Dimension != 0 && len(h.Sizes) != h.Dimension {
		return nil, fmt.Errorf("%w: %d sizes for dimension %d", ErrMalformedHeader, len(h.Sizes), h.Dimension)
	}
	if h.ByteSkip == -1 && h.Encoding != EncodingRaw {
		return nil, fmt.Errorf("%w: byte skip -1 requires raw encoding", ErrMalformedHeader)
	}
	return h, nil
}

func (h *Header) parseLine(lineNo int, line string, sawSizes, sawType *bool) error {
	if strings.HasPrefix(line, "#") {
		return nil
	}
	if lineNo == 1 && strings.HasPrefix(line, "NRRD") {
		h.Magic = strings.TrimSpace(line)
		return nil
	}

	// Private fields: "key:=value".
	if i := strings.IndexByte(line, ':'); i >= 0 && strings.HasPrefix(line[i:], meta.Separator) {
		key := strings.TrimSpace(line[:i])
		value := line[i+len(meta.Separator):]
		if canon, known := meta.CanonicalKey(key); known {
			key = canon
		}
		h.Meta.Set(key, strings.TrimSpace(value))
		return nil
	}

	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	h.Meta.Set(meta.NrrdPrefix+key, value)

	switch key {
	case "dimension":
		n, err := strconv.Atoi(value)
		if err != nil || n < 2 || n > 4 {
			return fmt.Errorf("%w: dimension %q", ErrMalformedHeader, value)
		}
		h.Dimension = n
	case "sizes":
		if err := h.parseSizes(value); err != nil {
			return err
		}
		*sawSizes = true
	case "type":
		st, err := parseType(value)
		if err != nil {
			return err
		}
		h.Type = st
		h.TypeName = value
		*sawType = true
	case "endian":
		if strings.EqualFold(value, "little") {
			h.Order = binary.LittleEndian
		} else {
			h.Order = binary.BigEndian
		}
	case "encoding":
		enc, err := parseEncoding(value)
		if err != nil {
			return err
		}
		h.Encoding = enc
	case "data file", "datafile":
		h.DataFile = value
	case "line skip", "lineskip":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: line skip %q", ErrMalformedHeader, value)
		}
		h.LineSkip = n
	case "byte skip", "byteskip":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < -1 {
			return fmt.Errorf("%w: byte skip %q", ErrMalformedHeader, value)
		}
		h.ByteSkip = n
	}
	return nil
}

func (h *Header) parseSizes(value string) error {
	fields := strings.Fields(value)
	if h.Dimension != 0 && len(fields) != h.Dimension {
		return fmt.Errorf("%w: %d sizes for dimension %d", ErrMalformedHeader, len(fields), h.Dimension)
	}
	if len(fields) < 2 || len(fields) > 4 {
		return fmt.Errorf("%w: sizes %q", ErrMalformedHeader, value)
	}
	sizes := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.Trim(f, `"`))
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: sizes %q", ErrMalformedHeader, value)
		}
		sizes[i] = n
	}
	h.Sizes = sizes
	h.Width, h.Height, h.Planes, h.Masses = sizes[0], sizes[1], 1, 1
	if len(sizes) > 2 {
		h.Planes = sizes[2]
	}
	if len(sizes) > 3 {
		h.Masses = sizes[3]
	}
	return nil
}

func parseType(value string) (raster.SampleType, error) {
	v := strings.ToLower(strings.Join(strings.Fields(value), " "))
	in := func(list []string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	}
	switch {
	case in(uint16Types):
		return raster.SampleUint16, nil
	case in(uint32Types):
		return raster.SampleUint32, nil
	case in(floatTypes):
		return raster.SampleFloat32, nil
	case in(otherTypes):
		return raster.SampleUnknown, fmt.Errorf("%w: %s", ErrUnsupportedSampleType, value)
	default:
		return raster.SampleUnknown, fmt.Errorf("%w: type %q", ErrMalformedHeader, value)
	}
}

func parseEncoding(value string) (Encoding, error) {
	switch strings.ToLower(value) {
	case "raw":
		return EncodingRaw, nil
	case "gzip", "gz":
		return EncodingGzip, nil
	case "bzip2", "bz2":
		return EncodingBzip2, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEncoding, value)
	}
}
