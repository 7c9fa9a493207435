package im

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
)

const massChannelSize = 48 + speciesSize

type decodeConfig struct {
	text encoding.Encoding
}

type DecodeOption func(*decodeConfig)

// WithTextEncoding selects the charset for fixed-length header strings.
func WithTextEncoding(enc encoding.Encoding) DecodeOption {
	return func(c *decodeConfig) { c.text = enc }
}

// Decode reads the complete header of an .im file. No partial header is
// returned on error.
func Decode(src io.ReaderAt, size int64, opts ...DecodeOption) (*Header, error) {
	cfg := decodeConfig{text: DefaultTextEncoding}
	for _, opt := range opts {
		opt(&cfg)
	}

	order, _, err := Sniff(src)
	if err != nil {
		return nil, err
	}
	c := NewCursor(src, size, order)
	c.SetTextEncoding(cfg.text)

	h := &Header{Order: order}
	if h.Analysis, err = readAnalysis(c); err != nil {
		return nil, err
	}

	// Phase one: the mask shape yields the mass count.
	var countOffset int64
	h.Mask, countOffset, err = readMask(c, h.Analysis)
	if err != nil {
		return nil, err
	}
	n := h.Mask.massCount()
	if n <= 0 {
		return nil, &OffsetError{Op: "mass count", Offset: countOffset, Err: fmt.Errorf("%w: %d", ErrInvalidMassCount, n)}
	}
	if int64(n)*massChannelSize > size-c.Position() {
		return nil, &OffsetError{Op: "mass table", Offset: c.Position(), Err: fmt.Errorf("%w: %d mass channels do not fit", ErrTruncatedRead, n)}
	}

	// Phase two: bounded loop over the discovered count.
	h.Masses = make([]MassChannel, n)
	for i := range h.Masses {
		if h.Masses[i], err = readMassChannel(c); err != nil {
			return nil, fmt.Errorf("mass channel %d: %w", i, err)
		}
	}

	if h.Analysis.Release >= ExtensionRelease {
		if h.Extended, err = readExtension(c, len(h.Masses)); err != nil {
			return nil, err
		}
	}

	geomOffset := int64(h.Analysis.HeaderSize) - GeometrySize
	if err := c.SeekTo(geomOffset); err != nil {
		return nil, err
	}
	if h.Geometry, err = readGeometry(c); err != nil {
		return nil, err
	}
	if _, err := h.Geometry.SampleType(); err != nil {
		return nil, &OffsetError{Op: "geometry", Offset: geomOffset + 10, Err: err}
	}
	return h, nil
}

func readAnalysis(c *Cursor) (Analysis, error) {
	var a Analysis
	var typ int32
	if err := int32s(c, &a.Release, &typ, &a.HeaderSize, &a.SampleType, &a.DataIncluded, &a.SamplePosX, &a.SamplePosY); err != nil {
		return a, err
	}
	a.Type = AnalysisType(typ)

	var err error
	if a.Name, err = c.ReadFixedString(32); err != nil {
		return a, err
	}
	if a.UserName, err = c.ReadFixedString(16); err != nil {
		return a, err
	}
	if a.SamplePosZ, err = c.ReadInt32(); err != nil {
		return a, err
	}
	if err := c.Skip(3 * 4); err != nil {
		return a, err
	}
	if a.Date, err = c.ReadFixedString(16); err != nil {
		return a, err
	}
	if a.Hour, err = c.ReadFixedString(16); err != nil {
		return a, err
	}
	return a, nil
}

func readMask(c *Cursor, a Analysis) (Mask, int64, error) {
	switch a.Type {
	case AnalysisImage, AnalysisLineScanImage:
		return readImageMask(c, a.Release)
	case AnalysisSampleStageImage:
		return readStageMask(c)
	default:
		return nil, 0, &OffsetError{Op: "analysis type", Offset: sniffOffset, Err: fmt.Errorf("%w: %s", ErrUnrecognizedFormat, a.Type)}
	}
}

// int32s reads consecutive int32 values into dst.
func int32s(c *Cursor, dst ...*int32) error {
	for _, p := range dst {
		v, err := c.ReadInt32()
		if err != nil {
			return err
		}
		if p != nil {
			*p = v
		}
	}
	return nil
}

func int16s(c *Cursor, dst ...*int16) error {
	for _, p := range dst {
		v, err := c.ReadInt16()
		if err != nil {
			return err
		}
		if p != nil {
			*p = v
		}
	}
	return nil
}

func float64s(c *Cursor, dst ...*float64) error {
	for _, p := range dst {
		v, err := c.ReadFloat64()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

func readImageMask(c *Cursor, release int32) (*ImageMask, int64, error) {
	m := &ImageMask{}
	var err error
	if m.Filename, err = c.ReadFixedString(16); err != nil {
		return nil, 0, err
	}
	if err := int32s(c, &m.AnalysisDuration, &m.CycleNumber, &m.ScanType); err != nil {
		return nil, 0, err
	}
	if err := int16s(c, &m.Magnification, &m.SizeType, &m.SizeDetector, nil); err != nil {
		return nil, 0, err
	}
	if err := int32s(c, &m.BeamBlanking, &m.Sputtering, &m.SputteringDuration, &m.AutoCalibInAnalysis); err != nil {
		return nil, 0, err
	}
	if m.AutoCal, err = readAutoCal(c); err != nil {
		return nil, 0, err
	}
	if err := int32s(c, &m.SigReference); err != nil {
		return nil, 0, err
	}
	if m.SigRef, err = readSigRef(c); err != nil {
		return nil, 0, err
	}
	countOffset := c.Position()
	if err := int32s(c, &m.NbMass); err != nil {
		return nil, 0, err
	}

	pointers := imagePointers
	if release >= ExtensionRelease {
		pointers = imagePointersExt
	}
	if err := c.Skip(pointers * 4); err != nil {
		return nil, 0, err
	}
	return m, countOffset, nil
}

func readStageMask(c *Cursor) (*StageMask, int64, error) {
	m := &StageMask{}
	var err error
	if m.Filename, err = c.ReadFixedString(16); err != nil {
		return nil, 0, err
	}
	if err := int32s(c, &m.AnalysisDuration, &m.Type, &m.NbZones, &m.StepUnitX, &m.StepUnitY, &m.StepReelD); err != nil {
		return nil, 0, err
	}
	if err := float64s(c, &m.WtIntZones); err != nil {
		return nil, 0, err
	}
	if err := int32s(c, &m.CycleNumber, &m.BeamBlanking, &m.Sputtering, &m.SputteringDuration, &m.AutoCalInAnalysis); err != nil {
		return nil, 0, err
	}
	if m.AutoCal, err = readAutoCal(c); err != nil {
		return nil, 0, err
	}
	if err := int32s(c, &m.HVSampleControl); err != nil {
		return nil, 0, err
	}
	if m.HVControl, err = readHVControl(c); err != nil {
		return nil, 0, err
	}
	// One undocumented int sits between HVControl and SigRef.
	if err := c.Skip(4); err != nil {
		return nil, 0, err
	}
	if err := int32s(c, &m.SigReference); err != nil {
		return nil, 0, err
	}
	if m.SigRef, err = readSigRef(c); err != nil {
		return nil, 0, err
	}
	countOffset := c.Position()
	if err := int32s(c, &m.NbMass); err != nil {
		return nil, 0, err
	}
	// Pointer table, then another unused int.
	if err := c.Skip((stagePointers + 1) * 4); err != nil {
		return nil, 0, err
	}
	return m, countOffset, nil
}

func readAutoCal(c *Cursor) (AutoCal, error) {
	var ac AutoCal
	var err error
	if ac.Mass, err = c.ReadFixedString(64); err != nil {
		return ac, err
	}
	err = int32s(c, &ac.Begin, &ac.Period)
	return ac, err
}

func readHVControl(c *Cursor) (HVControl, error) {
	var hv HVControl
	var err error
	if hv.Mass, err = c.ReadFixedString(64); err != nil {
		return hv, err
	}
	if err := int32s(c, &hv.Begin, &hv.Period); err != nil {
		return hv, err
	}
	if err := float64s(c, &hv.LowerBound, &hv.UpperBound, &hv.Step); err != nil {
		return hv, err
	}
	if err := int32s(c, &hv.BandWidth); err != nil {
		return hv, err
	}
	err = float64s(c, &hv.CountTime)
	return hv, err
}

func readSigRef(c *Cursor) (SigRef, error) {
	var sr SigRef
	var err error
	if sr.Species, err = readSpecies(c); err != nil {
		return sr, err
	}
	err = int32s(c, &sr.Detector, &sr.Offset, &sr.Quantity)
	return sr, err
}

func readSpecies(c *Cursor) (Species, error) {
	var s Species
	if err := int32s(c, &s.FlagNumeric, &s.NumericValue, &s.NbElements, &s.NbCharges); err != nil {
		return s, err
	}
	var err error
	if s.Charge, err = c.ReadFixedString(1); err != nil {
		return s, err
	}
	if s.Label, err = c.ReadFixedString(64); err != nil {
		return s, err
	}
	// Three alignment bytes precede the element table.
	if err := c.Skip(3); err != nil {
		return s, err
	}
	for i := range s.Elements {
		e := &s.Elements[i]
		if err := int32s(c, &e.Element, &e.Isotope, &e.Quantity); err != nil {
			return s, err
		}
	}
	return s, nil
}

func readMassChannel(c *Cursor) (MassChannel, error) {
	var m MassChannel
	if err := int32s(c, &m.TrolleyIndex, &m.Unused); err != nil {
		return m, err
	}
	if err := float64s(c, &m.Amu); err != nil {
		return m, err
	}
	if err := int32s(c, &m.MatrixOrTrace, &m.Detector); err != nil {
		return m, err
	}
	if err := float64s(c, &m.WaitingTime, &m.CountingTime); err != nil {
		return m, err
	}
	if err := int32s(c, &m.Offset, &m.MagField); err != nil {
		return m, err
	}
	var err error
	m.Species, err = readSpecies(c)
	return m, err
}

func readGeometry(c *Cursor) (Geometry, error) {
	var g Geometry
	if err := int32s(c, &g.SizeSelf); err != nil {
		return g, err
	}
	if err := int16s(c, &g.Type, &g.Width, &g.Height, &g.BytesPerPixel, &g.Masses, &g.Planes); err != nil {
		return g, err
	}
	if err := int32s(c, &g.Raster); err != nil {
		return g, err
	}
	var err error
	g.Nickname, err = c.ReadFixedString(64)
	return g, err
}
