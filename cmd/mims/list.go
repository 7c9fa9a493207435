package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mims/internal/logger"
)

func listCmd() *cli.Command {
	var recursive bool

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List image files in the data directory",
		Flags: []cli.Flag{
			dataDirFlag(),
			&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "descend into subdirectories", Destination: &recursive},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			dir, err := resolveDataDir(dataDir, loaded)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			files, err := discoverImages(dir, recursive)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if len(files) == 0 {
				log.Info("no image files found", "path", dir)
				return nil
			}

			w := stdout(cmd)
			_, _ = fmt.Fprintf(w, "Images in %s:\n\n", dir)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tFORMAT\tMASSES\tPLANES\tSIZE\tSAMPLE\tOK")
			for _, path := range files {
				name := displayName(dir, path)
				f, err := openFile(ctx, path)
				if err != nil {
					log.Warn("skipping file", "path", name, "err", err)
					_, _ = fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\terror\n", name)
					continue
				}
				ok := "yes"
				if !f.IsConsistent() {
					ok = "no"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%dx%d\t%s\t%s\n",
					name, f.Format(), f.MassCount(), f.PlaneCount(), f.Width(), f.Height(), f.SampleName(), ok)
				_ = f.Close()
			}
			return tw.Flush()
		},
	}
}
