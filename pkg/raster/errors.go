package raster

import "errors"

var (
	ErrTruncatedRead         = errors.New("truncated read")
	ErrUnsupportedSampleType = errors.New("unsupported sample type")
	ErrIndexOutOfRange       = errors.New("index out of range")
	ErrInconsistentFileSize  = errors.New("inconsistent file size")
)
