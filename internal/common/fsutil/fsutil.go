package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// FirstDir returns the first candidate (after '~' expansion) that is an existing directory.
// ok is false when none of them is.
func FirstDir(candidates ...string) (dir string, ok bool) {
	for _, c := range candidates {
		p, err := ExpandHome(strings.TrimSpace(c))
		if err != nil || p == "" {
			continue
		}
		if IsDir(p) {
			return p, true
		}
	}
	return "", false
}

// FindFile returns the first entry of dir whose lower-cased name ends with one of suffixes.
// Suffixes are tried in order, so earlier ones take priority.
func FindFile(dir string, suffixes ...string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, suf := range suffixes {
		suf = strings.ToLower(suf)
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.HasSuffix(strings.ToLower(e.Name()), suf) {
				return filepath.Join(dir, e.Name()), true
			}
		}
	}
	return "", false
}
