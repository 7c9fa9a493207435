package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
)

const testHeader = "NRRD0004\n" +
	"type: ushort\n" +
	"dimension: 4\n" +
	"sizes: 2 2 1 2\n" +
	"endian: big\n" +
	"encoding: raw\n" +
	"Mims_mass_numbers:=12.00 26.00\n" +
	"Mims_mass_symbols:=12C 12C14N\n" +
	"Mims_sample_name:=grain\n" +
	"\n"

func writeImage(t *testing.T, dir, name string, samples int) string {
	t.Helper()
	data := []byte(testHeader)
	for i := range samples {
		data = binary.BigEndian.AppendUint16(data, uint16(i))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// run executes the CLI with an empty config file and returns stdout and the
// exit error, if any.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfg, nil, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	err := app.Run(context.Background(), append([]string{"mims", "--config", cfg, "--log-format", "text", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestInspectJSON(t *testing.T) {
	path := writeImage(t, t.TempDir(), "grain.nrrd", 8)

	out, err := run(t, "inspect", "--json", path)
	if err != nil {
		t.Fatalf("inspect returned error: %v", err)
	}
	var report struct {
		Format     string   `json:"format"`
		Masses     int      `json:"masses"`
		MassLabels []string `json:"mass_labels"`
		Consistent bool     `json:"consistent"`
		Summary    struct {
			SampleName string `json:"sample_name"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Format != "nrrd" || report.Masses != 2 || !report.Consistent || report.Summary.SampleName != "grain" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.MassLabels) != 2 || report.MassLabels[1] != "12C14N" {
		t.Fatalf("mass labels: got %v", report.MassLabels)
	}
}

func TestInspectText(t *testing.T) {
	path := writeImage(t, t.TempDir(), "grain.nrrd", 8)

	out, err := run(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect returned error: %v", err)
	}
	for _, want := range []string{"grain", "2x2, 1 planes, uint16", "Masses (2):", "12C14N"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPlaneCommand(t *testing.T) {
	path := writeImage(t, t.TempDir(), "grain.nrrd", 8)

	out, err := run(t, "plane", "--mass", "1", "--plane", "0", path)
	if err != nil {
		t.Fatalf("plane returned error: %v", err)
	}
	if out != "4,5\n6,7\n" {
		t.Fatalf("csv output: got %q", out)
	}

	if _, err := run(t, "plane", "--mass", "2", path); err == nil {
		t.Fatalf("expected error for an out of range mass")
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeImage(t, dir, "good.nrrd", 8)
	short := writeImage(t, dir, "short.nrrd", 7)

	out, err := run(t, "check", good)
	if err != nil || !strings.Contains(out, "ok   "+good) {
		t.Fatalf("check good: err=%v out=%s", err, out)
	}

	out, err = run(t, "check", good, short)
	if err == nil {
		t.Fatalf("expected failure for a short file")
	}
	if !strings.Contains(out, "FAIL "+short) {
		t.Fatalf("expected FAIL line, got:\n%s", out)
	}
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "b.nrrd", 8)
	writeImage(t, dir, "a.nrrd", 7)

	out, err := run(t, "list", "--data-dir", dir)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	a, b := strings.Index(out, "a.nrrd"), strings.Index(out, "b.nrrd")
	if a < 0 || b < 0 || a > b {
		t.Fatalf("expected sorted listing, got:\n%s", out)
	}
	if !strings.Contains(out, "grain") {
		t.Fatalf("expected sample names, got:\n%s", out)
	}
}
