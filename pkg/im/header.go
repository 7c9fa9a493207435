package im

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/samcharles93/mims/pkg/raster"
)

// ExtensionRelease is the first release whose header carries the extended
// metadata block and the widened mass pointer table.
const ExtensionRelease = 4108

const (
	GeometrySize     = 84
	speciesSize      = 144
	elementSlots     = 5
	imagePointers    = 10
	imagePointersExt = 60
	stagePointers    = 20
)

// Header is a fully decoded .im header. It is immutable after Decode.
type Header struct {
	Order    binary.ByteOrder
	Analysis Analysis
	Mask     Mask
	Masses   []MassChannel
	Geometry Geometry
	// Extended is nil for releases below ExtensionRelease.
	Extended *ExtendedMetadata
}

// Analysis is the fixed record at the start of every file.
type Analysis struct {
	Release      int32
	Type         AnalysisType
	HeaderSize   int32
	SampleType   int32
	DataIncluded int32
	SamplePosX   int32
	SamplePosY   int32
	Name         string
	UserName     string
	SamplePosZ   int32
	Date         string
	Hour         string
}

// Mask is either *ImageMask or *StageMask.
type Mask interface {
	massCount() int32
	isMask()
}

type ImageMask struct {
	Filename            string
	AnalysisDuration    int32
	CycleNumber         int32
	ScanType            int32
	Magnification       int16
	SizeType            int16
	SizeDetector        int16
	BeamBlanking        int32
	Sputtering          int32
	SputteringDuration  int32
	AutoCalibInAnalysis int32
	AutoCal             AutoCal
	SigReference        int32
	SigRef              SigRef
	NbMass              int32
}

func (m *ImageMask) massCount() int32 { return m.NbMass }
func (*ImageMask) isMask()            {}

type StageMask struct {
	Filename           string
	AnalysisDuration   int32
	Type               int32
	NbZones            int32
	StepUnitX          int32
	StepUnitY          int32
	StepReelD          int32
	WtIntZones         float64
	CycleNumber        int32
	BeamBlanking       int32
	Sputtering         int32
	SputteringDuration int32
	AutoCalInAnalysis  int32
	AutoCal            AutoCal
	HVSampleControl    int32
	HVControl          HVControl
	SigReference       int32
	SigRef             SigRef
	NbMass             int32
}

func (m *StageMask) massCount() int32 { return m.NbMass }
func (*StageMask) isMask()            {}

type AutoCal struct {
	Mass   string
	Begin  int32
	Period int32
}

type HVControl struct {
	Mass       string
	Begin      int32
	Period     int32
	LowerBound float64
	UpperBound float64
	Step       float64
	BandWidth  int32
	CountTime  float64
}

type SigRef struct {
	Species  Species
	Detector int32
	Offset   int32
	Quantity int32
}

// MassChannel is one Tab_Mass record.
type MassChannel struct {
	TrolleyIndex  int32
	Unused        int32
	Amu           float64
	MatrixOrTrace int32
	Detector      int32
	WaitingTime   float64
	CountingTime  float64
	Offset        int32
	MagField      int32
	Species       Species
}

// Name is the mass in amu with two decimals.
func (m MassChannel) Name() string {
	return fmt.Sprintf("%.2f", m.Amu)
}

// Symbol is the species label with spaces removed, or "-" when empty.
func (m MassChannel) Symbol() string {
	s := strings.ReplaceAll(m.Species.Label, " ", "")
	if s == "" {
		return "-"
	}
	return s
}

// Species is a PolyAtomic record. Elements always has five slots.
type Species struct {
	FlagNumeric  int32
	NumericValue int32
	NbElements   int32
	NbCharges    int32
	Charge       string
	Label        string
	Elements     [elementSlots]Element
}

type Element struct {
	Element  int32
	Isotope  int32
	Quantity int32
}

// Geometry is the Header_Image record found GeometrySize bytes before the end
// of the header. Values are kept as stored.
type Geometry struct {
	SizeSelf      int32
	Type          int16
	Width         int16
	Height        int16
	BytesPerPixel int16
	Masses        int16
	Planes        int16
	Raster        int32
	Nickname      string
}

func (g Geometry) SampleType() (raster.SampleType, error) {
	return raster.UnsignedSampleType(int(g.BytesPerPixel))
}

// Counts returns the counts that drive extension offsets. Polyatomics and
// BFields are zero when the extension is absent.
func (h *Header) Counts() Counts {
	c := Counts{Masses: len(h.Masses)}
	if h.Extended != nil {
		c.Polyatomics = h.Extended.Polyatomics
		c.BFields = h.Extended.BFields
	}
	return c
}

func (h *Header) MassCount() int  { return len(h.Masses) }
func (h *Header) PlaneCount() int { return int(h.Geometry.Planes) }
func (h *Header) Width() int      { return int(h.Geometry.Width) }
func (h *Header) Height() int     { return int(h.Geometry.Height) }

// Layout describes the pixel region implied by the header.
func (h *Header) Layout() raster.Layout {
	st, _ := h.Geometry.SampleType()
	return raster.Layout{
		HeaderSize: int64(h.Analysis.HeaderSize),
		Masses:     h.MassCount(),
		Planes:     h.PlaneCount(),
		Width:      h.Width(),
		Height:     h.Height(),
		Type:       st,
	}
}

// AnalysisDuration returns the duration stored in whichever mask shape the
// file carries.
func (h *Header) AnalysisDuration() int32 {
	switch m := h.Mask.(type) {
	case *ImageMask:
		return m.AnalysisDuration
	case *StageMask:
		return m.AnalysisDuration
	default:
		return 0
	}
}

// CountTime is the counting time of the last mass channel, which is the value
// the acquisition software reports for the whole analysis.
func (h *Header) CountTime() float64 {
	if len(h.Masses) == 0 {
		return 0
	}
	return h.Masses[len(h.Masses)-1].CountingTime
}

// DwellTime returns the per-pixel dwell time in milliseconds.
func (h *Header) DwellTime() (float64, bool) {
	px := h.Width() * h.Height()
	if px == 0 {
		return 0, false
	}
	return 1000 * h.CountTime() / float64(px), true
}

// PixelSize returns raster/width and raster/height.
func (h *Header) PixelSize() (width, height float64) {
	width, height = 1, 1
	if h.Geometry.Width != 0 {
		width = float64(h.Geometry.Raster) / float64(h.Geometry.Width)
	}
	if h.Geometry.Height != 0 {
		height = float64(h.Geometry.Raster) / float64(h.Geometry.Height)
	}
	return width, height
}
