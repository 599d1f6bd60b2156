package engine

import (
	"fmt"
	"strings"

	"humanizerd/internal/registry"
)

// resolveBaseModel maps a candidate identifier to a GGUF file under modelsDir.
func resolveBaseModel(modelsDir, id string) (registry.Model, error) {
	models, err := registry.LoadDir(modelsDir)
	if err != nil {
		// A direct path still works without a models directory.
		if m, ok := registry.Resolve(nil, id); ok {
			return m, nil
		}
		return registry.Model{}, fmt.Errorf("scan models dir: %w", err)
	}
	m, ok := registry.Resolve(models, id)
	if !ok {
		return registry.Model{}, fmt.Errorf("no GGUF file for %s in %s", id, modelsDir)
	}
	return m, nil
}

// ggufAdapterFile returns the adapter path if llama.cpp can load it.
func ggufAdapterFile(spec LoadSpec) (string, error) {
	if spec.AdapterFile == "" {
		return "", fmt.Errorf("no adapter weights in %s", spec.AdapterDir)
	}
	if !strings.HasSuffix(strings.ToLower(spec.AdapterFile), ".gguf") {
		return "", fmt.Errorf("adapter %s is not GGUF; convert it with llama.cpp's convert_lora_to_gguf.py", spec.AdapterFile)
	}
	return spec.AdapterFile, nil
}
