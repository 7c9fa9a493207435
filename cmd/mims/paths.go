package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samcharles93/mims/internal/source"
)

const envDataDir = "MIMS_DATA_DIR"

var imageExts = []string{".im", ".nrrd", ".nhdr"}

// resolveDataDir picks the flag, then the environment, then the config file.
func resolveDataDir(flag string, cfg Config) (string, error) {
	for _, dir := range []string{flag, os.Getenv(envDataDir), cfg.DataDir} {
		if dir = strings.TrimSpace(dir); dir != "" {
			return filepath.Clean(dir), nil
		}
	}
	return "", fmt.Errorf("--data-dir is required unless %s or data_dir in the config is set", envDataDir)
}

// isImageName reports whether name looks like an image file, looking through
// compression suffixes ("run.im.gz").
func isImageName(name string) bool {
	_, inner := source.Detect(name)
	ext := strings.ToLower(filepath.Ext(inner))
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// discoverImages lists image files in dir, sorted. Subdirectories are walked
// only when recursive is set.
func discoverImages(dir string, recursive bool) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data directory is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("data path is not a directory: %s", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if isImageName(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func displayName(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return filepath.Base(path)
	}
	return rel
}
