package im

import (
	"encoding/binary"
	"fmt"
	"io"
)

// AnalysisType is the discriminant stored after the release number.
type AnalysisType int32

const (
	AnalysisImage            AnalysisType = 27
	AnalysisLineScanImage    AnalysisType = 39
	AnalysisSampleStageImage AnalysisType = 41
)

const sniffOffset = 4

func (t AnalysisType) Valid() bool {
	switch t {
	case AnalysisImage, AnalysisLineScanImage, AnalysisSampleStageImage:
		return true
	}
	return false
}

func (t AnalysisType) String() string {
	switch t {
	case AnalysisImage:
		return "image"
	case AnalysisLineScanImage:
		return "line-scan-image"
	case AnalysisSampleStageImage:
		return "sample-stage-image"
	default:
		return fmt.Sprintf("analysis(%d)", int32(t))
	}
}

// Sniff detects the byte order of an .im file by reading the analysis type in
// both orders and accepting the one that yields a known code. Big endian is
// tried first. A file whose code is valid in neither order is rejected; a
// corrupt file that happens to match in one order cannot be told apart.
func Sniff(r io.ReaderAt) (binary.ByteOrder, AnalysisType, error) {
	var buf [4]byte
	n, err := r.ReadAt(buf[:], sniffOffset)
	if n < len(buf) {
		if err == nil || err == io.EOF {
			err = ErrTruncatedRead
		}
		return nil, 0, &OffsetError{Op: "sniff", Offset: sniffOffset, Err: err}
	}

	if t := AnalysisType(binary.BigEndian.Uint32(buf[:])); t.Valid() {
		return binary.BigEndian, t, nil
	}
	if t := AnalysisType(binary.LittleEndian.Uint32(buf[:])); t.Valid() {
		return binary.LittleEndian, t, nil
	}
	return nil, 0, &OffsetError{Op: "sniff", Offset: sniffOffset, Err: fmt.Errorf("%w: analysis type bytes %x", ErrUnrecognizedFormat, buf)}
}
