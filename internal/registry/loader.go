// Package registry maps base-model identifiers onto GGUF files in a models directory.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"humanizerd/internal/common/fsutil"
)

// Model is a GGUF file discovered on disk.
type Model struct {
	// ID is the filename including extension, e.g. "DialoGPT-medium.Q8_0.gguf".
	ID string
	// Path is the absolute file path.
	Path string
}

// LoadDir scans a directory for *.gguf files. Results are sorted by ID.
func LoadDir(dir string) ([]Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		models = append(models, Model{ID: name, Path: filepath.Join(abs, name)})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Resolve finds the file for a base-model identifier such as "microsoft/DialoGPT-medium".
// The organisation prefix is ignored and matching is case-insensitive: an exact stem
// match wins, otherwise the first file whose stem starts with the name followed by
// '.', '-' or '_' (quantisation suffixes like ".Q4_K_M").
// An identifier that is itself a path to an existing .gguf file resolves to that file.
func Resolve(models []Model, identifier string) (Model, bool) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return Model{}, false
	}
	if strings.HasSuffix(strings.ToLower(id), ".gguf") {
		if p, err := fsutil.ExpandHome(id); err == nil {
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				abs, _ := filepath.Abs(p)
				return Model{ID: filepath.Base(p), Path: abs}, true
			}
		}
	}
	name := strings.ToLower(id)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".gguf")
	for _, m := range models {
		if stem(m.ID) == name {
			return m, true
		}
	}
	for _, m := range models {
		s := stem(m.ID)
		if len(s) > len(name) && strings.HasPrefix(s, name) && strings.ContainsRune(".-_", rune(s[len(name)])) {
			return m, true
		}
	}
	return Model{}, false
}

func stem(filename string) string {
	return strings.TrimSuffix(strings.ToLower(filename), ".gguf")
}
