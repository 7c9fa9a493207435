package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mims/internal/logger"
	"github.com/samcharles93/mims/pkg/im"
	"github.com/samcharles93/mims/pkg/mims"
)

var (
	configFile   string
	logLevel     string
	logFormat    string
	debug        bool
	textEncoding string
	strict       bool
	dataDir      string

	// loaded is the config file read by the root Before hook.
	loaded Config
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func decodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "text-encoding",
			Usage:       "charset of fixed-length strings in .im headers",
			Value:       "windows-1252",
			Destination: &textEncoding,
		},
		&cli.BoolFlag{
			Name:        "strict",
			Usage:       "fail when the file size disagrees with the header",
			Destination: &strict,
		},
	}
}

func dataDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "data-dir",
		Aliases:     []string{"dir"},
		Usage:       "directory holding image files (default $" + envDataDir + ")",
		Destination: &dataDir,
	}
}

// openOptions turns the decode flags into facade options.
func openOptions(ctx context.Context) ([]mims.Option, error) {
	enc, err := im.LookupTextEncoding(textEncoding)
	if err != nil {
		return nil, fmt.Errorf("--text-encoding: %w", err)
	}
	return []mims.Option{
		mims.WithLogger(logger.FromContext(ctx)),
		mims.WithTextEncoding(enc),
		mims.WithStrict(strict),
	}, nil
}

func openFile(ctx context.Context, path string) (*mims.File, error) {
	opts, err := openOptions(ctx)
	if err != nil {
		return nil, err
	}
	return mims.Open(path, opts...)
}
