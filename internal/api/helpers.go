package api

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/mims/pkg/im"
	"github.com/samcharles93/mims/pkg/nrrd"
	"github.com/samcharles93/mims/pkg/raster"
)

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeBody(c, status, echo.MIMEApplicationJSON, b)
}

func writeBody(c *echo.Context, status int, contentType string, b []byte) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, contentType)
	res.WriteHeader(status)
	_, err := res.Write(b)
	return err
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// resolvePath maps a requested path onto dataDir and rejects anything that
// would leave it, lexically or through a symlink. dataDir must already be
// free of symlinks.
func resolvePath(dataDir, p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", newInvalidRequest("path is required")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(dataDir, p)
	}
	p = filepath.Clean(p)
	if !within(dataDir, p) {
		return "", newInvalidRequest(fmt.Sprintf("path %q is outside the data directory", p))
	}
	target, err := realPath(p)
	if err != nil {
		return "", err
	}
	if !within(dataDir, target) {
		return "", newInvalidRequest(fmt.Sprintf("path %q resolves outside the data directory", p))
	}
	return target, nil
}

func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// realPath evaluates symlinks in the longest existing prefix of p and
// appends the missing remainder unchanged.
func realPath(p string) (string, error) {
	var rest []string
	for cur := p; ; {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{im.ErrUnrecognizedFormat, "unrecognized_format"},
	{im.ErrInvalidMassCount, "invalid_mass_count"},
	{raster.ErrTruncatedRead, "truncated_read"},
	{raster.ErrUnsupportedSampleType, "unsupported_sample_type"},
	{raster.ErrInconsistentFileSize, "inconsistent_file_size"},
	{raster.ErrIndexOutOfRange, "index_out_of_range"},
	{nrrd.ErrMalformedHeader, "malformed_header"},
	{nrrd.ErrUnsupportedEncoding, "unsupported_encoding"},
	{nrrd.ErrMissingDataFile, "missing_data_file"},
}

// errorCode names the first known decode error wrapped by err.
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}
