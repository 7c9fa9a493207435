package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Verify that file sizes match their headers",
		ArgsUsage: "<file>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return cli.Exit("error: check needs at least one file", 1)
			}
			w := stdout(cmd)
			bad := 0
			for _, path := range cmd.Args().Slice() {
				f, err := openFile(ctx, path)
				if err != nil {
					bad++
					_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
					continue
				}
				if err := f.Check(); err != nil {
					bad++
					_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
				} else {
					_, _ = fmt.Fprintf(w, "ok   %s\n", path)
				}
				_ = f.Close()
			}
			if bad > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d files failed", bad, cmd.Args().Len()), 1)
			}
			return nil
		},
	}
}
