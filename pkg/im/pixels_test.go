package im

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
)

func TestPlaneOffsetScenario(t *testing.T) {
	t.Parallel()

	// 128 + plane 2 * 2 masses * 32 bytes + mass 1 * 32 bytes
	if got := PlaneOffset(128, 2, 2, 4, 4, 1, 2); got != 288 {
		t.Fatalf("offset: got %d want 288", got)
	}

	// Header with header_size=128 pointing at a hand-built pixel region.
	h := &Header{
		Order:    binary.BigEndian,
		Analysis: Analysis{HeaderSize: 128},
		Masses:   make([]MassChannel, 2),
		Geometry: Geometry{Width: 4, Height: 4, BytesPerPixel: 2, Planes: 3},
	}
	data := make([]byte, 128+2*3*4*4*2)
	for i := range 16 {
		binary.BigEndian.PutUint16(data[288+2*i:], uint16(900+i))
	}
	f := &File{Header: h, src: bytes.NewReader(data), size: int64(len(data))}

	off, err := f.PlaneOffset(1, 2)
	if err != nil {
		t.Fatalf("plane offset: %v", err)
	}
	if off != 288 {
		t.Fatalf("plane offset: got %d want 288", off)
	}
	p, err := f.ReadPlane(1, 2)
	if err != nil {
		t.Fatalf("read plane: %v", err)
	}
	if len(p.U16) != 16 {
		t.Fatalf("samples: got %d want 16", len(p.U16))
	}
	for i, v := range p.U16 {
		if v != uint16(900+i) {
			t.Fatalf("sample %d: got %d want %d", i, v, 900+i)
		}
	}
	if !f.IsConsistent() {
		t.Fatalf("exact-length file should be consistent: %v", f.Check())
	}
}

func TestReadPlaneAllIndices(t *testing.T) {
	t.Parallel()

	fx := defaultFixture()
	fx.bpp = 4
	f, _ := decodeFixture(t, fx)
	for mass := range f.Header.MassCount() {
		for plane := range f.Header.PlaneCount() {
			p, err := f.ReadPlane(mass, plane)
			if err != nil {
				t.Fatalf("read plane (%d,%d): %v", mass, plane, err)
			}
			if p.Len() != 16 || p.U32 == nil {
				t.Fatalf("plane (%d,%d): got %d samples of %v", mass, plane, p.Len(), p.Type)
			}
			for i, v := range p.U32 {
				if v != pixel(mass, plane, i) {
					t.Fatalf("plane (%d,%d) sample %d: got %d want %d", mass, plane, i, v, pixel(mass, plane, i))
				}
			}
		}
	}
}

func TestReadPlaneOutOfRange(t *testing.T) {
	t.Parallel()

	f, _ := decodeFixture(t, defaultFixture())
	for _, idx := range [][2]int{{-1, 0}, {2, 0}, {0, -1}, {0, 3}} {
		if _, err := f.ReadPlane(idx[0], idx[1]); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("ReadPlane(%d,%d): expected ErrIndexOutOfRange, got %v", idx[0], idx[1], err)
		}
	}
}

func TestReadPlaneConcurrent(t *testing.T) {
	t.Parallel()

	f, _ := decodeFixture(t, defaultFixture())
	var wg sync.WaitGroup
	errs := make(chan error, f.Header.MassCount()*f.Header.PlaneCount())
	for mass := range f.Header.MassCount() {
		for plane := range f.Header.PlaneCount() {
			wg.Go(func() {
				p, err := f.ReadPlane(mass, plane)
				if err != nil {
					errs <- err
					return
				}
				if p.U16[0] != uint16(pixel(mass, plane, 0)) {
					errs <- errors.New("wrong first sample")
				}
			})
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent read: %v", err)
	}
}

func TestConsistency(t *testing.T) {
	t.Parallel()

	fx := defaultFixture()
	data := fx.bytes(t)
	f, err := NewFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !f.IsConsistent() {
		t.Fatalf("complete file should be consistent: %v", f.Check())
	}

	planeBytes := int(fx.width) * int(fx.height) * int(fx.bpp)
	short := data[:len(data)-planeBytes]
	f, err = NewFile(bytes.NewReader(short), int64(len(short)))
	if err != nil {
		t.Fatalf("decode truncated: %v", err)
	}
	if f.IsConsistent() {
		t.Fatalf("file missing one plane should be inconsistent")
	}
	if err := f.Check(); !errors.Is(err, ErrInconsistentFileSize) {
		t.Fatalf("expected ErrInconsistentFileSize, got %v", err)
	}
	if _, err := f.ReadPlane(1, 2); !errors.Is(err, ErrTruncatedRead) {
		t.Fatalf("reading the missing plane: expected ErrTruncatedRead, got %v", err)
	}
}
