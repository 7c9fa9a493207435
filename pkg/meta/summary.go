package meta

import (
	"strings"
	"time"
)

// Unknown marks a numeric instrument value that was absent or unparseable.
const Unknown = -1.0

// Summary is the typed view of the instrument keys of a Tree. Malformed
// values degrade to Unknown or zero values instead of failing; Acquired is nil
// when the date is missing or unparseable.
type Summary struct {
	MassNames     []string   `json:"mass_names"`
	MassSymbols   []string   `json:"mass_symbols"`
	SampleName    string     `json:"sample_name"`
	UserName      string     `json:"user_name"`
	Date          string     `json:"date"`
	Hour          string     `json:"hour"`
	Acquired      *time.Time `json:"acquired,omitempty"`
	Duration      string     `json:"duration,omitempty"`
	DwellTime     string     `json:"dwell_time,omitempty"`
	Position      string     `json:"position,omitempty"`
	ZPosition     string     `json:"z_position,omitempty"`
	Raster        string     `json:"raster,omitempty"`
	CountTime     float64    `json:"count_time"`
	PixelWidth    float64    `json:"pixel_width"`
	PixelHeight   float64    `json:"pixel_height"`
	TilePositions []string   `json:"tile_positions,omitempty"`

	BField          string `json:"bfield,omitempty"`
	Comment         string `json:"comment,omitempty"`
	PrimCurrentT0   string `json:"prim_current_t0,omitempty"`
	PrimCurrentTEnd string `json:"prim_current_tend,omitempty"`
	ESPos           string `json:"es_pos,omitempty"`
	ASPos           string `json:"as_pos,omitempty"`
	D1Pos           string `json:"d1_pos,omitempty"`
	Radius          string `json:"radius,omitempty"`

	DTCorrectionApplied  bool      `json:"dt_correction_applied"`
	Prototype            bool      `json:"prototype"`
	QSACorrectionApplied bool      `json:"qsa_correction_applied"`
	QSAFCObjective       float64   `json:"qsa_fc_objective,omitempty"`
	QSABetas             []float64 `json:"qsa_betas,omitempty"`
	Notes                string    `json:"notes,omitempty"`

	// Extra holds keys outside both the generic container fields and the
	// known instrument keys.
	Extra map[string]string `json:"extra,omitempty"`
}

// Summarize builds the typed view of t.
func Summarize(t *Tree) Summary {
	s := Summary{
		SampleName:      t.String(KeySampleName),
		UserName:        t.String(KeyUserName),
		Date:            t.String(KeyDate),
		Hour:            t.String(KeyHour),
		Duration:        t.String(KeyDuration),
		DwellTime:       t.String(KeyDwellTime),
		Position:        t.String(KeyPosition),
		ZPosition:       t.String(KeyZPosition),
		Raster:          t.String(KeyRaster),
		BField:          t.String(KeyBField),
		Comment:         t.String(KeyComment),
		PrimCurrentT0:   t.String(KeyPrimCurrentT0),
		PrimCurrentTEnd: t.String(KeyPrimCurrentTEnd),
		ESPos:           t.String(KeyESPos),
		ASPos:           t.String(KeyASPos),
		D1Pos:           t.String(KeyD1Pos),
		Radius:          t.String(KeyRadius),
		Notes:           t.String(KeyNotes),
		CountTime:       Unknown,
		PixelWidth:      Unknown,
		PixelHeight:     Unknown,
	}
	s.MassNames, _ = t.List(KeyMassNumbers)
	s.MassSymbols, _ = t.List(KeyMassSymbols)
	if v, ok := t.Get(KeyTilePositions); ok {
		s.TilePositions = strings.Split(v, ";")
	}
	if ts, ok := t.Date(KeyDate, KeyHour); ok {
		s.Acquired = &ts
	}
	if f, ok := t.Float(KeyCountTime); ok {
		s.CountTime = f
	}
	if f, ok := t.Float(KeyPixelWidth); ok {
		s.PixelWidth = f
	}
	if f, ok := t.Float(KeyPixelHeight); ok {
		s.PixelHeight = f
	}
	s.DTCorrectionApplied, _ = t.Bool(KeyDTCorrectionApplied)
	s.Prototype, _ = t.Bool(KeyPrototype)
	s.QSACorrectionApplied, _ = t.Bool(KeyQSACorrectionApplied)
	if s.QSACorrectionApplied {
		if f, ok := t.Float(KeyQSAFCObjective); ok {
			s.QSAFCObjective = f
		}
		if betas, ok := t.Floats(KeyQSABetas); ok {
			s.QSABetas = betas
		}
	}

	for k, v := range t.All() {
		if strings.HasPrefix(k, NrrdPrefix) {
			continue
		}
		if _, known := canonical[strings.ToLower(k)]; known {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]string)
		}
		s.Extra[k] = v
	}
	return s
}
