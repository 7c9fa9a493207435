package im

import "fmt"

// Counts are the upstream counts every extension offset depends on.
type Counts struct {
	Masses      int
	Polyatomics int
	BFields     int
}

// Field names a scalar in the extended metadata block.
type Field int

const (
	FieldPolyatomicCount Field = iota
	FieldBFieldCount
	FieldBField
	FieldTrolleyTable
	FieldComment
	FieldPrimCurrentT0
	FieldPrimCurrentTEnd
	FieldD1Pos
	FieldESPos
	FieldASPos
)

const (
	RadiusSlots   = 12
	commentLength = 256

	tabMassStride   = 288
	polyStride      = 144
	bFieldStride    = 2840
	trolleyStride   = 208
	primaryBeamSize = 552
)

func (f Field) String() string {
	switch f {
	case FieldPolyatomicCount:
		return "polyatomic-count"
	case FieldBFieldCount:
		return "bfield-count"
	case FieldBField:
		return "bfield"
	case FieldTrolleyTable:
		return "trolley-table"
	case FieldComment:
		return "comment"
	case FieldPrimCurrentT0:
		return "primary-current-t0"
	case FieldPrimCurrentTEnd:
		return "primary-current-tend"
	case FieldD1Pos:
		return "d1-position"
	case FieldESPos:
		return "es-position"
	case FieldASPos:
		return "as-position"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// OffsetOf returns the absolute offset of f. Only the counts the field
// depends on are consulted: the polyatomic count needs Masses, the B-field
// count needs Masses and Polyatomics, and everything after the B-field table
// needs all three.
func OffsetOf(f Field, c Counts) int64 {
	m := int64(c.Masses) * tabMassStride
	p := int64(c.Polyatomics) * polyStride
	b := int64(c.BFields) * bFieldStride

	bTable := 2228 + m + p
	params := bTable + b
	primary := params + 16 + 4*4 + commentLength
	t0 := primary + 8
	es := primary + primaryBeamSize + 8

	switch f {
	case FieldPolyatomicCount:
		return 652 + m + 16
	case FieldBFieldCount:
		return 676 + m + p + 4*24
	case FieldBField:
		return bTable + 4
	case FieldTrolleyTable:
		return bTable + 10*4 + 2*8
	case FieldComment:
		return params + 16 + 4*4
	case FieldPrimCurrentT0:
		return t0
	case FieldPrimCurrentTEnd:
		return t0 + 4
	case FieldD1Pos:
		return t0 + 8 + 8*4
	case FieldESPos:
		return es
	case FieldASPos:
		return es + 4 + 40 + 40
	default:
		return -1
	}
}

// RadiusOffset returns the offset of trolley i's radius.
func RadiusOffset(i int, c Counts) int64 {
	return OffsetOf(FieldTrolleyTable, c) + int64(i)*trolleyStride + 64 + 8
}

// ExtendedMetadata is the supplementary block of releases at or above
// ExtensionRelease.
type ExtendedMetadata struct {
	Polyatomics     int
	BFields         int
	BField          int32
	Radii           [RadiusSlots]float64
	Comment         string
	PrimCurrentT0   int32
	PrimCurrentTEnd int32
	D1Pos           int32
	ESPos           int32
	ASPos           int32
}

// readExtension must run after the mass table so that masses is final.
func readExtension(c *Cursor, masses int) (*ExtendedMetadata, error) {
	x := &ExtendedMetadata{}
	counts := Counts{Masses: masses}

	readInt := func(f Field) (int32, error) {
		if err := c.SeekTo(OffsetOf(f, counts)); err != nil {
			return 0, fmt.Errorf("extension %s: %w", f, err)
		}
		v, err := c.ReadInt32()
		if err != nil {
			return 0, fmt.Errorf("extension %s: %w", f, err)
		}
		return v, nil
	}

	n, err := readInt(FieldPolyatomicCount)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &OffsetError{Op: "extension polyatomic count", Offset: OffsetOf(FieldPolyatomicCount, counts), Err: fmt.Errorf("negative count %d", n)}
	}
	x.Polyatomics = int(n)
	counts.Polyatomics = x.Polyatomics

	if n, err = readInt(FieldBFieldCount); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &OffsetError{Op: "extension bfield count", Offset: OffsetOf(FieldBFieldCount, counts), Err: fmt.Errorf("negative count %d", n)}
	}
	x.BFields = int(n)
	counts.BFields = x.BFields

	if x.BField, err = readInt(FieldBField); err != nil {
		return nil, err
	}
	for i := range x.Radii {
		if err := c.SeekTo(RadiusOffset(i, counts)); err != nil {
			return nil, fmt.Errorf("extension radius %d: %w", i, err)
		}
		if x.Radii[i], err = c.ReadFloat64(); err != nil {
			return nil, fmt.Errorf("extension radius %d: %w", i, err)
		}
	}

	if err := c.SeekTo(OffsetOf(FieldComment, counts)); err != nil {
		return nil, fmt.Errorf("extension %s: %w", FieldComment, err)
	}
	if x.Comment, err = c.ReadFixedString(commentLength); err != nil {
		return nil, fmt.Errorf("extension %s: %w", FieldComment, err)
	}

	for _, f := range []struct {
		field Field
		dst   *int32
	}{
		{FieldPrimCurrentT0, &x.PrimCurrentT0},
		{FieldPrimCurrentTEnd, &x.PrimCurrentTEnd},
		{FieldD1Pos, &x.D1Pos},
		{FieldESPos, &x.ESPos},
		{FieldASPos, &x.ASPos},
	} {
		if *f.dst, err = readInt(f.field); err != nil {
			return nil, err
		}
	}
	return x, nil
}
