package main

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/samcharles93/mims/pkg/raster"
)

func testPlane() *raster.Plane {
	return &raster.Plane{Width: 3, Height: 2, Type: raster.SampleUint16, U16: []uint16{1, 2, 3, 40, 50, 60}}
}

func TestWritePlane(t *testing.T) {
	t.Parallel()

	var csv bytes.Buffer
	if err := writePlane(&csv, testPlane(), "csv"); err != nil {
		t.Fatalf("csv: %v", err)
	}
	if got, want := csv.String(), "1,2,3\n40,50,60\n"; got != want {
		t.Fatalf("csv: got %q want %q", got, want)
	}

	var js bytes.Buffer
	if err := writePlane(&js, testPlane(), "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got, want := strings.TrimSpace(js.String()), `{"width":3,"height":2,"type":"uint16","values":[1,2,3,40,50,60]}`; got != want {
		t.Fatalf("json: got %s want %s", got, want)
	}

	var raw bytes.Buffer
	if err := writePlane(&raw, testPlane(), "raw"); err != nil {
		t.Fatalf("raw: %v", err)
	}
	if raw.Len() != 12 || binary.LittleEndian.Uint16(raw.Bytes()[6:]) != 40 {
		t.Fatalf("raw: got % x", raw.Bytes())
	}

	if err := writePlane(&raw, testPlane(), "png"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
