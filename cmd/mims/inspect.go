package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mims/pkg/meta"
	"github.com/samcharles93/mims/pkg/mims"
)

type inspectReport struct {
	Path       string       `json:"path"`
	Format     string       `json:"format"`
	Masses     int          `json:"masses"`
	Planes     int          `json:"planes"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	SampleType string       `json:"sample_type"`
	MassNames  []string     `json:"mass_names"`
	MassLabels []string     `json:"mass_labels"`
	Species    []string     `json:"species"`
	Consistent bool         `json:"consistent"`
	SizeError  string       `json:"size_error,omitempty"`
	Summary    meta.Summary `json:"summary"`
	Metadata   *meta.Tree   `json:"metadata,omitempty"`
}

func newInspectReport(f *mims.File, withMetadata bool) inspectReport {
	r := inspectReport{
		Path:       f.Path,
		Format:     string(f.Format()),
		Masses:     f.MassCount(),
		Planes:     f.PlaneCount(),
		Width:      f.Width(),
		Height:     f.Height(),
		SampleType: f.SampleType().String(),
		MassNames:  f.MassNames(),
		MassLabels: f.MassLabels(),
		Species:    make([]string, f.MassCount()),
		Consistent: true,
		Summary:    f.Summary(),
	}
	for i := range r.Species {
		r.Species[i] = meta.FormatSpecies(speciesOf(f, i))
	}
	if err := f.Check(); err != nil {
		r.Consistent = false
		r.SizeError = err.Error()
	}
	if withMetadata {
		r.Metadata = f.Metadata()
	}
	return r
}

func speciesOf(f *mims.File, i int) string {
	s, _ := f.MassSpecies(i)
	return s
}

func inspectCmd() *cli.Command {
	var (
		asJSON  bool
		showAll bool
	)

	return &cli.Command{
		Name:      "inspect",
		Aliases:   []string{"info"},
		Usage:     "Print the header of an image file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print a JSON report", Destination: &asJSON},
			&cli.BoolFlag{Name: "all", Usage: "include every metadata key", Destination: &showAll},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: inspect needs a file argument", 1)
			}
			f, err := openFile(ctx, path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = f.Close() }()

			report := newInspectReport(f, showAll || asJSON)
			if asJSON {
				b, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(stdout(cmd), string(b))
				return err
			}
			return printReport(stdout(cmd), report)
		},
	}
}

func printReport(w io.Writer, r inspectReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	s := r.Summary
	row := func(k, v string) {
		if v != "" {
			_, _ = fmt.Fprintf(tw, "%s:\t%s\n", k, v)
		}
	}

	row("File", r.Path)
	row("Format", r.Format)
	row("Sample", s.SampleName)
	row("User", s.UserName)
	if s.Acquired != nil {
		row("Acquired", s.Acquired.Format("2006-01-02 15:04"))
	}
	row("Geometry", fmt.Sprintf("%dx%d, %d planes, %s", r.Width, r.Height, r.Planes, r.SampleType))
	row("Raster", s.Raster)
	row("Duration", s.Duration)
	row("Dwell time", s.DwellTime)
	if s.CountTime != meta.Unknown {
		row("Count time", fmt.Sprintf("%g", s.CountTime))
	}
	row("Position", s.Position)
	row("B field", s.BField)
	row("Comment", s.Comment)
	if r.Consistent {
		row("Size", "consistent")
	} else {
		row("Size", r.SizeError)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\nMasses (%d):\n", r.Masses)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := range r.Masses {
		_, _ = fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", i, r.MassNames[i], r.MassLabels[i], r.Species[i])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Metadata != nil {
		_, _ = fmt.Fprintf(w, "\nMetadata (%d keys):\n", r.Metadata.Len())
		for k, v := range r.Metadata.All() {
			_, _ = fmt.Fprintf(w, "  %s%s%s\n", k, meta.Separator, strings.ReplaceAll(v, "\n", `\n`))
		}
	}
	return nil
}
