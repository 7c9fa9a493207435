package raster

import (
	"errors"
	"fmt"
	"math"
)

// Layout describes the pixel region that follows a container header.
type Layout struct {
	HeaderSize int64
	Masses     int
	Planes     int
	Width      int
	Height     int
	Type       SampleType
}

// ExpectedSize returns HeaderSize + Masses*Planes*Width*Height*sampleSize.
func (l Layout) ExpectedSize() (int64, error) {
	plane, err := PlaneBytes(l.Width, l.Height, l.Type)
	if err != nil {
		return 0, err
	}
	if l.Masses < 0 || l.Planes < 0 || l.HeaderSize < 0 {
		return 0, fmt.Errorf("negative layout value in %+v", l)
	}
	n := int64(l.Masses) * int64(l.Planes)
	if n != 0 && plane > (math.MaxInt64-l.HeaderSize)/n {
		return 0, errors.New("pixel region too large")
	}
	return l.HeaderSize + n*plane, nil
}

// Check compares the expected size against actual and returns
// ErrInconsistentFileSize when they differ.
func (l Layout) Check(actual int64) error {
	want, err := l.ExpectedSize()
	if err != nil {
		return err
	}
	if want != actual {
		return fmt.Errorf("%w: file has %d bytes, header implies %d", ErrInconsistentFileSize, actual, want)
	}
	return nil
}

func (l Layout) IsConsistent(actual int64) bool {
	return l.Check(actual) == nil
}
