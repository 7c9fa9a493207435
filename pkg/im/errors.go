package im

import (
	"errors"
	"fmt"

	"github.com/samcharles93/mims/pkg/raster"
)

var (
	ErrUnrecognizedFormat = errors.New("unrecognized im format")
	ErrInvalidMassCount   = errors.New("invalid mass count")

	ErrTruncatedRead         = raster.ErrTruncatedRead
	ErrUnsupportedSampleType = raster.ErrUnsupportedSampleType
	ErrIndexOutOfRange       = raster.ErrIndexOutOfRange
	ErrInconsistentFileSize  = raster.ErrInconsistentFileSize
)

// OffsetError records the absolute byte offset at which decoding failed.
type OffsetError struct {
	Op     string
	Offset int64
	Err    error
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("im: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *OffsetError) Unwrap() error { return e.Err }
