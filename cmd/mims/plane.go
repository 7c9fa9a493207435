package main

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mims/internal/logger"
	"github.com/samcharles93/mims/pkg/raster"
)

func planeCmd() *cli.Command {
	var (
		mass   int64
		plane  int64
		format string
		output string
	)

	return &cli.Command{
		Name:      "plane",
		Usage:     "Extract one mass image of one plane",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "mass", Aliases: []string{"m"}, Usage: "mass index", Destination: &mass},
			&cli.Int64Flag{Name: "plane", Aliases: []string{"p"}, Usage: "plane index", Destination: &plane},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (csv, json, raw little-endian)",
				Value:       "csv",
				Destination: &format,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write to this file instead of stdout",
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: plane needs a file argument", 1)
			}
			f, err := openFile(ctx, path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = f.Close() }()

			p, err := f.ReadPlane(int(mass), int(plane))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			w := stdout(cmd)
			if output != "" {
				fh, err := os.Create(output)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				defer func() { _ = fh.Close() }()
				w = fh
			}
			if err := writePlane(w, p, format); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Debug("wrote plane", "mass", mass, "plane", plane, "format", format, "samples", p.Len())
			return nil
		},
	}
}

// writePlane writes p as CSV (one row per image row), a JSON object, or raw
// little-endian samples.
func writePlane(w io.Writer, p *raster.Plane, format string) error {
	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		row := make([]string, p.Width)
		for y := range p.Height {
			for x := range p.Width {
				row[x] = strconv.FormatFloat(p.At(x, y), 'f', -1, 64)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case "json":
		return json.NewEncoder(w).Encode(struct {
			Width  int       `json:"width"`
			Height int       `json:"height"`
			Type   string    `json:"type"`
			Values []float64 `json:"values"`
		}{p.Width, p.Height, p.Type.String(), p.Values()})
	case "raw":
		_, err := w.Write(p.AppendBytes(nil, binary.LittleEndian))
		return err
	default:
		return fmt.Errorf("unknown format %q (want csv, json or raw)", format)
	}
}
