package nrrd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"

	"github.com/samcharles93/mims/pkg/meta"
	"github.com/samcharles93/mims/pkg/raster"
)

func header(lines ...string) string {
	return strings.Join(lines, "\n") + "\n\n"
}

func sample(mass, plane, i int) uint16 {
	return uint16(mass*1000 + plane*100 + i)
}

// pixels encodes masses*planes 4x4 uint16 images in mass-major order.
func pixels(order binary.AppendByteOrder, masses, planes int) []byte {
	var out []byte
	for m := range masses {
		for p := range planes {
			for i := range 16 {
				out = order.AppendUint16(out, sample(m, p, i))
			}
		}
	}
	return out
}

var baseLines = []string{
	"NRRD0004",
	"# written by a test",
	"type: ushort",
	"dimension: 4",
	"sizes: 4 4 3 2",
	"endian: little",
	"encoding: raw",
	"Mims_mass_numbers:=12.00 26.00",
	"Mims_mass_symbols:=12C 12C14N",
	"Mims_sample_name:=Cell Three",
	"Mims_user_name:=gs",
	"Mims_count_time:=1.5",
}

func TestParseGeometry(t *testing.T) {
	t.Parallel()

	h, err := Parse(strings.NewReader(header(baseLines...)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.Width != 4 || h.Height != 4 || h.Planes != 3 || h.Masses != 2 {
		t.Fatalf("geometry: got w=%d h=%d planes=%d masses=%d", h.Width, h.Height, h.Planes, h.Masses)
	}
	if h.Type != raster.SampleUint16 {
		t.Fatalf("type: got %v want uint16", h.Type)
	}
	if h.Order != binary.LittleEndian {
		t.Fatalf("endian: got %v", h.Order)
	}
	if h.Magic != "NRRD0004" {
		t.Fatalf("magic: got %q", h.Magic)
	}
	if diff := cmp.Diff([]string{"12.00", "26.00"}, h.MassNames()); diff != "" {
		t.Fatalf("mass names (-want +got):\n%s", diff)
	}
	if got := h.Meta.String(meta.KeySampleName); got != "Cell Three" {
		t.Fatalf("sample name: got %q", got)
	}
	if got := h.Meta.String(meta.NrrdPrefix + "sizes"); got != "4 4 3 2" {
		t.Fatalf("sizes key: got %q", got)
	}
}

func TestParseTypeAliases(t *testing.T) {
	t.Parallel()

	cases := map[string]raster.SampleType{
		"ushort":             raster.SampleUint16,
		"unsigned short int": raster.SampleUint16,
		"uint16_t":           raster.SampleUint16,
		"UINT":               raster.SampleUint32,
		"unsigned int":       raster.SampleUint32,
		"float":              raster.SampleFloat32,
	}
	for name, want := range cases {
		h, err := Parse(strings.NewReader(header("sizes: 2 2", "type: "+name)))
		if err != nil {
			t.Fatalf("type %q: %v", name, err)
		}
		if h.Type != want {
			t.Fatalf("type %q: got %v want %v", name, h.Type, want)
		}
		if h.Planes != 1 || h.Masses != 1 {
			t.Fatalf("2D sizes should default planes and masses to 1, got %d %d", h.Planes, h.Masses)
		}
	}
}

func TestParseMalformedInstrumentValue(t *testing.T) {
	t.Parallel()

	lines := append([]string{}, baseLines...)
	lines = append(lines, "Mims_count_time:=not-a-number", "Mims_pixel_width:=?", "Mims_dt_correction_applied:=maybe")
	h, err := Parse(strings.NewReader(header(lines...)))
	if err != nil {
		t.Fatalf("parse should tolerate malformed instrument values: %v", err)
	}
	if h.Masses != 2 || h.Width != 4 || h.Height != 4 {
		t.Fatalf("geometry lost: %+v", h)
	}
	s := meta.Summarize(h.Meta)
	if s.CountTime != meta.Unknown || s.PixelWidth != meta.Unknown {
		t.Fatalf("sentinels: count time %v pixel width %v", s.CountTime, s.PixelWidth)
	}
	if s.DTCorrectionApplied {
		t.Fatalf("garbled flag should read as false")
	}
}

func TestParseStructuralErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		lines []string
		want  error
	}{
		{"bad sizes", []string{"type: ushort", "sizes: 4 x 3"}, ErrMalformedHeader},
		{"sizes vs dimension", []string{"dimension: 3", "sizes: 4 4", "type: ushort"}, ErrMalformedHeader},
		{"dimension after sizes", []string{"sizes: 4 4", "dimension: 3", "type: ushort"}, ErrMalformedHeader},
		{"unknown type", []string{"sizes: 4 4", "type: quaternion"}, ErrMalformedHeader},
		{"missing type", []string{"sizes: 4 4"}, ErrMalformedHeader},
		{"missing sizes", []string{"type: ushort"}, ErrMalformedHeader},
		{"double", []string{"sizes: 4 4", "type: double"}, ErrUnsupportedSampleType},
		{"ascii", []string{"sizes: 4 4", "type: ushort", "encoding: ascii"}, ErrUnsupportedEncoding},
		{"skip -1 gzip", []string{"sizes: 4 4", "type: ushort", "encoding: gz", "byte skip: -1"}, ErrMalformedHeader},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(header(tc.lines...)))
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}
}

func TestReadPlaneAttached(t *testing.T) {
	t.Parallel()

	data := append([]byte(header(baseLines...)), pixels(binary.LittleEndian, 2, 3)...)
	f, err := NewFile(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("new file: %v", err)
	}
	if f.DataStart() != int64(len(header(baseLines...))) {
		t.Fatalf("data start: got %d want %d", f.DataStart(), len(header(baseLines...)))
	}
	for m := range 2 {
		for p := range 3 {
			pl, err := f.ReadPlane(m, p)
			if err != nil {
				t.Fatalf("read plane (%d,%d): %v", m, p, err)
			}
			if len(pl.U16) != 16 {
				t.Fatalf("samples: got %d", len(pl.U16))
			}
			if pl.U16[7] != sample(m, p, 7) {
				t.Fatalf("plane (%d,%d): got %d want %d", m, p, pl.U16[7], sample(m, p, 7))
			}
		}
	}
	if !f.IsConsistent() {
		t.Fatalf("complete file should be consistent: %v", f.Check())
	}
	if _, err := f.ReadPlane(2, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := f.ReadPlane(0, 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}

	short := data[:len(data)-32]
	f, err = NewFile(bytes.NewReader(short), nil)
	if err != nil {
		t.Fatalf("new file: %v", err)
	}
	if err := f.Check(); !errors.Is(err, ErrInconsistentFileSize) {
		t.Fatalf("expected ErrInconsistentFileSize, got %v", err)
	}
	if _, err := f.ReadPlane(1, 2); !errors.Is(err, ErrTruncatedRead) {
		t.Fatalf("expected ErrTruncatedRead, got %v", err)
	}
}

func TestReadPlaneGzip(t *testing.T) {
	t.Parallel()

	lines := append([]string{}, baseLines...)
	lines[6] = "encoding: gzip"
	lines = append(lines, "byte skip: 4")

	var z bytes.Buffer
	zw := gzip.NewWriter(&z)
	if _, err := zw.Write(append([]byte{9, 9, 9, 9}, pixels(binary.LittleEndian, 2, 3)...)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	data := append([]byte(header(lines...)), z.Bytes()...)

	f, err := NewFile(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("new file: %v", err)
	}
	pl, err := f.ReadPlane(1, 1)
	if err != nil {
		t.Fatalf("read plane: %v", err)
	}
	if pl.U16[0] != sample(1, 1, 0) || pl.U16[15] != sample(1, 1, 15) {
		t.Fatalf("gzip plane: got %d..%d", pl.U16[0], pl.U16[15])
	}
	if err := f.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestDetachedDataFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := append([]byte("junk line one\njunk line two\n"), pixels(binary.BigEndian, 2, 3)...)
	if err := os.WriteFile(filepath.Join(dir, "stack.raw"), raw, 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	hdr := header("NRRD0004", "type: uint16", "dimension: 4", "sizes: 4 4 3 2", "data file: stack.raw", "line skip: 2")
	path := filepath.Join(dir, "stack.nhdr")
	if err := os.WriteFile(path, []byte(hdr), 0o644); err != nil {
		t.Fatalf("write header: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	if f.DataStart() != int64(len("junk line one\njunk line two\n")) {
		t.Fatalf("data start: got %d", f.DataStart())
	}
	pl, err := f.ReadPlane(0, 2)
	if err != nil {
		t.Fatalf("read plane: %v", err)
	}
	if pl.U16[3] != sample(0, 2, 3) {
		t.Fatalf("sample: got %d want %d", pl.U16[3], sample(0, 2, 3))
	}
	if !f.IsConsistent() {
		t.Fatalf("detached data should be consistent: %v", f.Check())
	}

	if _, err := NewFile(bytes.NewReader([]byte(hdr)), nil); !errors.Is(err, ErrMissingDataFile) {
		t.Fatalf("expected ErrMissingDataFile without a resolver, got %v", err)
	}

	orphan := filepath.Join(dir, "orphan.nhdr")
	if err := os.WriteFile(orphan, []byte(header("type: ushort", "sizes: 4 4", "data file: gone.raw")), 0o644); err != nil {
		t.Fatalf("write orphan header: %v", err)
	}
	if _, err := Open(orphan); !errors.Is(err, ErrMissingDataFile) {
		t.Fatalf("expected ErrMissingDataFile for a missing data file, got %v", err)
	}
}

func TestByteSkipFromEnd(t *testing.T) {
	t.Parallel()

	hdr := header("type: ushort", "sizes: 4 4 1 1", "byte skip: -1")
	data := append([]byte(hdr), []byte("padding")...)
	data = append(data, pixels(binary.BigEndian, 1, 1)...)

	f, err := NewFile(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("new file: %v", err)
	}
	pl, err := f.ReadPlane(0, 0)
	if err != nil {
		t.Fatalf("read plane: %v", err)
	}
	if pl.U16[15] != sample(0, 0, 15) {
		t.Fatalf("sample: got %d", pl.U16[15])
	}
}

func TestPlaneOffsetMassMajor(t *testing.T) {
	t.Parallel()

	// 2 bytes * 4*4 = 32 per image; mass 1 skips 3 planes.
	if got := PlaneOffset(2, 4, 4, 3, 1, 2); got != 32*3+32*2 {
		t.Fatalf("offset: got %d want %d", got, 32*5)
	}
}
