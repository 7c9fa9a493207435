package meta

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/mims/pkg/im"
)

// FromBinary projects a decoded .im header onto the same keys a text header
// uses, so both containers can be compared and served alike.
func FromBinary(h *im.Header) *Tree {
	t := New()

	st, _ := h.Geometry.SampleType()
	endian := "big"
	if h.Order == binary.LittleEndian {
		endian = "little"
	}
	t.Set(NrrdPrefix+"dimension", "4")
	t.Set(NrrdPrefix+"sizes", fmt.Sprintf("%d %d %d %d", h.Width(), h.Height(), h.PlaneCount(), h.MassCount()))
	t.Set(NrrdPrefix+"type", st.String())
	t.Set(NrrdPrefix+"endian", endian)
	t.Set(NrrdPrefix+"encoding", "raw")

	names := make([]string, len(h.Masses))
	symbols := make([]string, len(h.Masses))
	for i, m := range h.Masses {
		names[i] = m.Name()
		symbols[i] = m.Symbol()
	}
	t.Set(KeyMassNumbers, strings.Join(names, " "))
	t.Set(KeyMassSymbols, strings.Join(symbols, " "))

	a := h.Analysis
	t.Set(KeyPosition, fmt.Sprintf("%d,%d", a.SamplePosX, a.SamplePosY))
	t.Set(KeyDate, a.Date)
	t.Set(KeyHour, a.Hour)
	t.Set(KeySampleName, a.Name)
	t.Set(KeyUserName, a.UserName)
	t.Set(KeyZPosition, strconv.Itoa(int(a.SamplePosZ)))
	t.Set(KeyDuration, fmt.Sprintf("%.3f", float64(h.AnalysisDuration())))
	if dwell, ok := h.DwellTime(); ok {
		t.Set(KeyDwellTime, fmt.Sprintf("%.3f", dwell))
	}
	t.Set(KeyRaster, strconv.Itoa(int(h.Geometry.Raster)))
	t.Set(KeyCountTime, strconv.FormatFloat(h.CountTime(), 'f', -1, 64))
	pw, ph := h.PixelSize()
	t.Set(KeyPixelWidth, strconv.FormatFloat(pw, 'f', -1, 64))
	t.Set(KeyPixelHeight, strconv.FormatFloat(ph, 'f', -1, 64))

	if x := h.Extended; x != nil {
		t.Set(KeyBField, strconv.Itoa(int(x.BField)))
		t.Set(KeyComment, x.Comment)
		t.Set(KeyPrimCurrentT0, strconv.Itoa(int(x.PrimCurrentT0)))
		t.Set(KeyPrimCurrentTEnd, strconv.Itoa(int(x.PrimCurrentTEnd)))
		t.Set(KeyESPos, strconv.Itoa(int(x.ESPos)))
		t.Set(KeyASPos, strconv.Itoa(int(x.ASPos)))
		t.Set(KeyD1Pos, strconv.Itoa(int(x.D1Pos)))
		t.Set(KeyRadius, formatRadii(x.Radii[:]))
	}
	return t
}

func formatRadii(r []float64) string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
