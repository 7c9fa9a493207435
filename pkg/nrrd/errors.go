package nrrd

import (
	"errors"

	"github.com/samcharles93/mims/pkg/raster"
)

var (
	// ErrMalformedHeader reports a structural field (dimension, sizes, type)
	// that cannot be used to address pixels.
	ErrMalformedHeader     = errors.New("malformed nrrd header")
	ErrUnsupportedEncoding = errors.New("unsupported nrrd encoding")
	ErrMissingDataFile     = errors.New("detached data file unavailable")

	ErrTruncatedRead         = raster.ErrTruncatedRead
	ErrUnsupportedSampleType = raster.ErrUnsupportedSampleType
	ErrIndexOutOfRange       = raster.ErrIndexOutOfRange
	ErrInconsistentFileSize  = raster.ErrInconsistentFileSize
)
