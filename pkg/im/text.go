package im

import (
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultTextEncoding is used for fixed-length header strings when the caller
// does not pick one. Instrument software writes Windows code page text.
var DefaultTextEncoding encoding.Encoding = charmap.Windows1252

// LookupTextEncoding resolves a charset label such as "windows-1252",
// "latin1" or "utf-8". An empty label selects DefaultTextEncoding.
func LookupTextEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return DefaultTextEncoding, nil
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unknown text encoding %q", label)
	}
	return enc, nil
}

// cleanString cuts b at the first NUL, decodes it and trims surrounding
// whitespace.
func cleanString(b []byte, dec *encoding.Decoder) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	if dec != nil {
		if out, err := dec.Bytes(b); err == nil {
			b = out
		}
	}
	return strings.TrimSpace(string(b))
}
