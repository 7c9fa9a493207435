// Package mims opens ion-microprobe image files in either container format
// and answers the questions analysis code asks of them: how many masses and
// planes, what each mass is, and the pixels of one (mass, plane) image.
package mims

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/samcharles93/mims/internal/logger"
	"github.com/samcharles93/mims/internal/source"
	"github.com/samcharles93/mims/pkg/im"
	"github.com/samcharles93/mims/pkg/meta"
	"github.com/samcharles93/mims/pkg/nrrd"
	"github.com/samcharles93/mims/pkg/raster"
)

type Format string

const (
	FormatIM   Format = "im"
	FormatNRRD Format = "nrrd"
)

var ErrIndexOutOfRange = raster.ErrIndexOutOfRange

type config struct {
	log    logger.Logger
	text   encoding.Encoding
	strict bool
}

type Option func(*config)

func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTextEncoding sets the charset of fixed-length strings in binary headers.
func WithTextEncoding(enc encoding.Encoding) Option {
	return func(c *config) { c.text = enc }
}

// WithStrict makes Open fail when the file size disagrees with the header.
func WithStrict(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

// File is an opened image file. Plane reads are safe for concurrent use.
type File struct {
	Path   string
	format Format
	src    *source.File
	bin    *im.File
	txt    *nrrd.File
	meta   *meta.Tree
}

// Open detects the container of path, decodes its header and keeps the
// source open for plane reads. Compressed files (.gz, .bz2, .zst) are
// inflated first.
func Open(path string, opts ...Option) (*File, error) {
	cfg := config{log: logger.Discard(), text: im.DefaultTextEncoding}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.log.With("path", path)

	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	log.Debug("opened source", "size", src.Size(), "compression", string(src.Compression), "mapped", src.Mapped())

	f, err := open(path, src, cfg, log)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := f.Check(); err != nil {
		if cfg.strict {
			_ = f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		log.Warn("file size inconsistent with header", "err", err)
	}
	return f, nil
}

func open(path string, src *source.File, cfg config, log logger.Logger) (*File, error) {
	format, err := detect(path, src)
	if err != nil {
		return nil, err
	}
	f := &File{Path: path, format: format, src: src}

	switch format {
	case FormatNRRD:
		txt, err := nrrd.NewFile(src, nrrd.DirResolver(filepath.Dir(path)))
		if err != nil {
			return nil, err
		}
		f.txt = txt
		f.meta = txt.Header.Meta
		h := txt.Header
		log.Debug("decoded text header",
			"sizes", h.Sizes, "type", h.TypeName, "encoding", string(h.Encoding), "detached", h.Detached())
	default:
		bin, err := im.NewFile(src, src.Size(), im.WithTextEncoding(cfg.text))
		if err != nil {
			return nil, err
		}
		f.bin = bin
		f.meta = meta.FromBinary(bin.Header)
		h := bin.Header
		log.Debug("decoded binary header",
			"order", h.Order.String(),
			"release", h.Analysis.Release,
			"analysis", h.Analysis.Type.String(),
			"masses", h.MassCount(),
			"planes", h.PlaneCount(),
			"extended", h.Extended != nil)
	}
	return f, nil
}

// detect trusts a known extension and otherwise looks at the content.
func detect(path string, src *source.File) (Format, error) {
	_, inner := source.Detect(filepath.Base(path))
	switch strings.ToLower(filepath.Ext(inner)) {
	case ".im":
		return FormatIM, nil
	case ".nrrd", ".nhdr":
		return FormatNRRD, nil
	}

	magic := make([]byte, 4)
	if n, _ := src.ReadAt(magic, 0); n == len(magic) && bytes.Equal(magic, []byte("NRRD")) {
		return FormatNRRD, nil
	}
	if _, _, err := im.Sniff(src); err != nil {
		return "", err
	}
	return FormatIM, nil
}

func (f *File) Format() Format { return f.format }

// Close releases the source and any detached data file.
func (f *File) Close() error {
	var errs []error
	if f.txt != nil {
		errs = append(errs, f.txt.Close())
	}
	errs = append(errs, f.src.Close())
	return errors.Join(errs...)
}

// Binary returns the decoded binary header, or nil for text-header files.
func (f *File) Binary() *im.Header {
	if f.bin == nil {
		return nil
	}
	return f.bin.Header
}

// NRRD returns the parsed text header, or nil for binary files.
func (f *File) NRRD() *nrrd.Header {
	if f.txt == nil {
		return nil
	}
	return f.txt.Header
}

func (f *File) MassCount() int {
	if f.bin != nil {
		return f.bin.Header.MassCount()
	}
	return f.txt.Header.Masses
}

func (f *File) PlaneCount() int {
	if f.bin != nil {
		return f.bin.Header.PlaneCount()
	}
	return f.txt.Header.Planes
}

func (f *File) Width() int {
	if f.bin != nil {
		return f.bin.Header.Width()
	}
	return f.txt.Header.Width
}

func (f *File) Height() int {
	if f.bin != nil {
		return f.bin.Header.Height()
	}
	return f.txt.Header.Height
}

func (f *File) SampleType() raster.SampleType {
	if f.bin != nil {
		t, _ := f.bin.Header.Geometry.SampleType()
		return t
	}
	return f.txt.Header.Type
}

func (f *File) checkMass(i int) error {
	if i < 0 || i >= f.MassCount() {
		return fmt.Errorf("%w: mass %d not in [0,%d)", ErrIndexOutOfRange, i, f.MassCount())
	}
	return nil
}

// MassName returns the mass of channel i in amu with two decimals, e.g.
// "12.00".
func (f *File) MassName(i int) (string, error) {
	if err := f.checkMass(i); err != nil {
		return "", err
	}
	if f.bin != nil {
		return f.bin.Header.Masses[i].Name(), nil
	}
	return at(f.txt.Header.MassNames(), i), nil
}

// MassLabel returns the species label of channel i, e.g. "12C2". Channels
// without a label read "-".
func (f *File) MassLabel(i int) (string, error) {
	if err := f.checkMass(i); err != nil {
		return "", err
	}
	if f.bin != nil {
		return f.bin.Header.Masses[i].Symbol(), nil
	}
	if s := at(f.txt.Header.MassSymbols(), i); s != "" {
		return s, nil
	}
	return "-", nil
}

// MassSpecies returns the species label of channel i as stored, keeping the
// spaces between atoms ("12C 14N") when the container has them.
func (f *File) MassSpecies(i int) (string, error) {
	if err := f.checkMass(i); err != nil {
		return "", err
	}
	if f.bin != nil {
		return f.bin.Header.Masses[i].Species.Label, nil
	}
	return at(f.txt.Header.MassSymbols(), i), nil
}

func (f *File) MassNames() []string {
	out := make([]string, f.MassCount())
	for i := range out {
		out[i], _ = f.MassName(i)
	}
	return out
}

func (f *File) MassLabels() []string {
	out := make([]string, f.MassCount())
	for i := range out {
		out[i], _ = f.MassLabel(i)
	}
	return out
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func (f *File) SampleName() string {
	if f.bin != nil {
		return f.bin.Header.Analysis.Name
	}
	return f.meta.String(meta.KeySampleName)
}

func (f *File) UserName() string {
	if f.bin != nil {
		return f.bin.Header.Analysis.UserName
	}
	return f.meta.String(meta.KeyUserName)
}

// ReadPlane decodes the width*height image of one mass in one plane.
func (f *File) ReadPlane(mass, plane int) (*raster.Plane, error) {
	if f.bin != nil {
		return f.bin.ReadPlane(mass, plane)
	}
	return f.txt.ReadPlane(mass, plane)
}

// Check compares the byte length of the pixel data with what the header
// implies. The error wraps raster.ErrInconsistentFileSize.
func (f *File) Check() error {
	if f.bin != nil {
		return f.bin.Check()
	}
	return f.txt.Check()
}

func (f *File) IsConsistent() bool { return f.Check() == nil }

// Metadata returns the ordered key/value view of the header. Binary files are
// projected onto the same keys a text header carries. The returned tree is a
// copy the caller may modify.
func (f *File) Metadata() *meta.Tree { return f.meta.Copy() }

func (f *File) Summary() meta.Summary { return meta.Summarize(f.meta) }
