// Package meta provides the ordered metadata tree shared by the binary and
// text-header containers, with typed accessors over string values.
package meta

import (
	"bytes"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/goccy/go-json"
)

// Tree is an insertion-ordered mapping of keys to raw string values.
type Tree struct {
	m *orderedmap.OrderedMap[string, string]
}

func New() *Tree {
	return &Tree{m: orderedmap.NewOrderedMap[string, string]()}
}

func (t *Tree) Set(key, value string) { t.m.Set(key, value) }

func (t *Tree) Get(key string) (string, bool) { return t.m.Get(key) }

func (t *Tree) Has(key string) bool { return t.m.Has(key) }

func (t *Tree) Len() int { return t.m.Len() }

// All iterates entries in insertion order.
func (t *Tree) All() iter.Seq2[string, string] { return t.m.AllFromFront() }

func (t *Tree) Keys() iter.Seq[string] { return t.m.Keys() }

func (t *Tree) Copy() *Tree { return &Tree{m: t.m.Copy()} }

// String returns the value for key, or "" when absent.
func (t *Tree) String(key string) string {
	v, _ := t.m.Get(key)
	return v
}

func (t *Tree) Int(key string) (int, bool) {
	v, ok := t.m.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (t *Tree) Float(key string) (float64, bool) {
	v, ok := t.m.Get(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool accepts "true" in any case as true and anything else as false, so a
// present but garbled flag reads as false.
func (t *Tree) Bool(key string) (bool, bool) {
	v, ok := t.m.Get(key)
	if !ok {
		return false, false
	}
	return strings.EqualFold(strings.TrimSpace(v), "true"), true
}

// List splits on semicolons when the value has any, otherwise on whitespace.
func (t *Tree) List(key string) ([]string, bool) {
	v, ok := t.m.Get(key)
	if !ok {
		return nil, false
	}
	return SplitList(v), true
}

// Floats parses a comma or whitespace separated list. Any bad element makes
// the whole list absent.
func (t *Tree) Floats(key string) ([]float64, bool) {
	v, ok := t.m.Get(key)
	if !ok {
		return nil, false
	}
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, x)
	}
	return out, true
}

// Date combines a dd.mm.yy date value with an optional HH:MM value.
func (t *Tree) Date(dateKey, hourKey string) (time.Time, bool) {
	d, ok := t.m.Get(dateKey)
	if !ok {
		return time.Time{}, false
	}
	h, _ := t.m.Get(hourKey)
	return ParseDate(d, h)
}

func SplitList(v string) []string {
	if strings.Contains(v, ";") {
		parts := strings.Split(v, ";")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return strings.Fields(v)
}

// MarshalJSON encodes the tree as a JSON object preserving key order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for k, v := range t.m.AllFromFront() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
