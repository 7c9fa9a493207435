package im

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

type fixtureMass struct {
	amu       float64
	label     string
	countTime float64
}

type fixtureExt struct {
	polyatomics int32
	bfields     int32
	bfield      int32
	radii       [RadiusSlots]float64
	comment     string
	t0, tEnd    int32
	d1, es, as  int32
}

// fixture describes a synthetic .im file.
type fixture struct {
	order      binary.ByteOrder
	release    int32
	typ        AnalysisType
	headerSize int32
	name, user string
	date, hour string
	masses     []fixtureMass
	nbMass     int32 // overrides len(masses) when non-zero
	width      int16
	height     int16
	bpp        int16
	planes     int16
	raster     int32
	nickname   string
	ext        *fixtureExt
}

func defaultFixture() fixture {
	return fixture{
		order:      binary.BigEndian,
		release:    11,
		typ:        AnalysisImage,
		headerSize: 1024,
		name:       "cell_3",
		user:       "gs",
		date:       "14.03.19",
		hour:       "10:42",
		masses: []fixtureMass{
			{amu: 12.0, label: "12C", countTime: 1.5},
			{amu: 26.0031, label: "12C 14N", countTime: 2.0},
		},
		width:    4,
		height:   4,
		bpp:      2,
		planes:   3,
		raster:   20000,
		nickname: "run-a",
	}
}

// pixel is the sample stored for (mass, plane, i) in fixtures.
func pixel(mass, plane, i int) uint32 {
	return uint32(mass*1000 + plane*100 + i)
}

type fixtureWriter struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

func (w *fixtureWriter) i32(v int32) {
	w.order.PutUint32(w.buf[w.pos:], uint32(v))
	w.pos += 4
}

func (w *fixtureWriter) i16(v int16) {
	w.order.PutUint16(w.buf[w.pos:], uint16(v))
	w.pos += 2
}

func (w *fixtureWriter) f64(v float64) {
	w.order.PutUint64(w.buf[w.pos:], math.Float64bits(v))
	w.pos += 8
}

func (w *fixtureWriter) str(s string, n int) {
	copy(w.buf[w.pos:w.pos+n], s)
	w.pos += n
}

func (w *fixtureWriter) skip(n int) { w.pos += n }

func (w *fixtureWriter) species(label string) {
	w.i32(0)
	w.i32(0)
	w.i32(1)
	w.i32(1)
	w.str("-", 1)
	w.str(label, 64)
	w.skip(3)
	for i := range elementSlots {
		w.i32(int32(6 + i))
		w.i32(int32(i))
		w.i32(1)
	}
}

func (f fixture) bytes(t *testing.T) []byte {
	t.Helper()

	// Sample widths the decoder rejects get a header with no pixel region.
	pixelBytes := 0
	if f.bpp == 2 || f.bpp == 4 {
		pixelBytes = int(f.width) * int(f.height) * int(f.bpp) * len(f.masses) * int(f.planes)
	}
	w := &fixtureWriter{buf: make([]byte, int(f.headerSize)+pixelBytes), order: f.order}

	w.i32(f.release)
	w.i32(int32(f.typ))
	w.i32(f.headerSize)
	w.i32(0)
	w.i32(1)
	w.i32(-150)
	w.i32(275)
	w.str(f.name, 32)
	w.str(f.user, 16)
	w.i32(12)
	w.skip(12)
	w.str(f.date, 16)
	w.str(f.hour, 16)

	nb := f.nbMass
	if nb == 0 {
		nb = int32(len(f.masses))
	}
	if f.typ == AnalysisSampleStageImage {
		w.str("stage.im", 16)
		w.i32(3600)
		for range 5 {
			w.i32(1)
		}
		w.f64(0.5)
		w.i32(3)
		w.skip(4 * 4)
		w.str("autocal", 64)
		w.i32(0)
		w.i32(0)
		w.i32(1)
		w.str("hv", 64)
		w.i32(0)
		w.i32(0)
		w.f64(-1)
		w.f64(1)
		w.f64(0.1)
		w.i32(5)
		w.f64(0.25)
		w.skip(4)
		w.i32(1)
		w.species("28Si")
		w.skip(12)
		w.i32(nb)
		w.skip((stagePointers + 1) * 4)
	} else {
		w.str("orig.im", 16)
		w.i32(540)
		w.i32(3)
		w.i32(0)
		w.i16(1)
		w.i16(2)
		w.i16(3)
		w.skip(2)
		w.skip(4 * 4)
		w.str("autocal", 64)
		w.skip(8)
		w.i32(0)
		w.species("")
		w.skip(12)
		w.i32(nb)
		if f.release >= ExtensionRelease {
			w.skip(imagePointersExt * 4)
		} else {
			w.skip(imagePointers * 4)
		}
	}

	for i, m := range f.masses {
		w.i32(int32(i))
		w.i32(0)
		w.f64(m.amu)
		w.i32(0)
		w.i32(int32(i + 1))
		w.f64(0.1)
		w.f64(m.countTime)
		w.i32(0)
		w.i32(0)
		w.species(m.label)
	}

	if x := f.ext; x != nil {
		c := Counts{Masses: len(f.masses), Polyatomics: int(x.polyatomics), BFields: int(x.bfields)}
		at := func(off int64) *fixtureWriter {
			w.pos = int(off)
			return w
		}
		at(OffsetOf(FieldPolyatomicCount, c)).i32(x.polyatomics)
		at(OffsetOf(FieldBFieldCount, c)).i32(x.bfields)
		at(OffsetOf(FieldBField, c)).i32(x.bfield)
		for i, r := range x.radii {
			at(RadiusOffset(i, c)).f64(r)
		}
		at(OffsetOf(FieldComment, c)).str(x.comment, commentLength)
		at(OffsetOf(FieldPrimCurrentT0, c)).i32(x.t0)
		at(OffsetOf(FieldPrimCurrentTEnd, c)).i32(x.tEnd)
		at(OffsetOf(FieldD1Pos, c)).i32(x.d1)
		at(OffsetOf(FieldESPos, c)).i32(x.es)
		at(OffsetOf(FieldASPos, c)).i32(x.as)
	}

	w.pos = int(f.headerSize) - GeometrySize
	w.i32(GeometrySize)
	w.i16(0)
	w.i16(f.width)
	w.i16(f.height)
	w.i16(f.bpp)
	w.i16(int16(len(f.masses)))
	w.i16(f.planes)
	w.i32(f.raster)
	w.str(f.nickname, 64)

	if pixelBytes == 0 {
		return w.buf
	}
	w.pos = int(f.headerSize)
	n := int(f.width) * int(f.height)
	for plane := range int(f.planes) {
		for mass := range f.masses {
			for i := range n {
				v := pixel(mass, plane, i)
				if f.bpp == 2 {
					w.i16(int16(uint16(v)))
				} else {
					w.i32(int32(v))
				}
			}
		}
	}
	return w.buf
}

func decodeFixture(t *testing.T, f fixture) (*File, []byte) {
	t.Helper()

	data := f.bytes(t)
	file, err := NewFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return file, data
}
