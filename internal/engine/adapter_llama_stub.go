//go:build !llama

package engine

// No-CGO stub for the in-process adapter, compiled when the 'llama' build tag
// is NOT set. It still resolves the base model and adapter so configuration
// mistakes are reported before the missing runtime.

import (
	"context"
)

type llamaAdapter struct {
	modelsDir string
	ctxSize   int
	threads   int
}

// NewLlamaAdapter returns the in-process adapter.
func NewLlamaAdapter(modelsDir string, ctxSize, threads int) InferenceAdapter {
	return &llamaAdapter{modelsDir: modelsDir, ctxSize: ctxSize, threads: threads}
}

func (a *llamaAdapter) Name() string { return "llama" }

func (a *llamaAdapter) Version() string { return "go-llama.cpp (not built)" }

func (a *llamaAdapter) Start(ctx context.Context, spec LoadSpec) (InferSession, error) {
	if _, err := resolveBaseModel(a.modelsDir, spec.BaseModel); err != nil {
		return nil, err
	}
	if _, err := ggufAdapterFile(spec); err != nil {
		return nil, err
	}
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
