//go:build llama

package engine

import (
	"context"
	"errors"

	llama "github.com/go-skynet/go-llama.cpp"
	"golang.org/x/sync/semaphore"
)

// llamaAdapter loads GGUF base models with a LoRA adapter in-process.
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

func (a *llamaAdapter) Version() string { return "go-llama.cpp" }

// llamaSession owns the loaded model. go-llama.cpp models are not re-entrant,
// so Generate holds the single slot of sem for the whole prediction; a caller
// waiting for the slot gives up when its context ends.
type llamaSession struct {
	sem     *semaphore.Weighted
	model   *llama.LLama
	threads int
}

func (a *llamaAdapter) Start(ctx context.Context, spec LoadSpec) (InferSession, error) {
	mdl, err := resolveBaseModel(a.modelsDir, spec.BaseModel)
	if err != nil {
		return nil, err
	}
	lora, err := ggufAdapterFile(spec)
	if err != nil {
		return nil, err
	}
	prec := PrecisionFor(spec.Device)
	mo := []llama.ModelOption{
		llama.SetContext(a.ctxSize),
		llama.SetLoraAdapter(lora),
		llama.SetGPULayers(prec.GPULayers),
	}
	if prec.F16 {
		mo = append(mo, llama.EnableF16Memory)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := llama.New(mdl.Path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaSession{sem: semaphore.NewWeighted(1), model: m, threads: a.threads}, nil
}

// SpecialTokens is empty: llama.cpp stops on EOS internally.
func (s *llamaSession) SpecialTokens() SpecialTokens { return SpecialTokens{} }

func (s *llamaSession) Generate(ctx context.Context, prompt string, params InferParams, onToken func(string) error) (FinalResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return FinalResult{}, err
	}
	defer s.sem.Release(1)
	if s.model == nil {
		return FinalResult{}, errors.New("llama model not initialized")
	}
	var cbErr error
	s.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if err := onToken(tok); err != nil {
			cbErr = err
			return false
		}
		return true
	})
	defer s.model.SetTokenCallback(nil)
	text, err := s.model.Predict(prompt, mapInferParamsToPredictOptions(params, s.threads)...)
	if cbErr != nil {
		return FinalResult{Content: text, FinishReason: "stop"}, cbErr
	}
	if err != nil {
		if ctx.Err() != nil {
			return FinalResult{}, ctx.Err()
		}
		return FinalResult{}, err
	}
	// Token counts are not exposed by the bindings.
	return FinalResult{Content: text, FinishReason: "stop"}, nil
}

func (s *llamaSession) Close() error {
	_ = s.sem.Acquire(context.Background(), 1)
	defer s.sem.Release(1)
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// mapInferParamsToPredictOptions converts adapter params into go-llama.cpp options.
func mapInferParamsToPredictOptions(params InferParams, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, params.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(zf(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(params.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(zf(params.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if params.Seed != 0 {
		po = append(po, llama.SetSeed(params.Seed))
	}
	if len(params.Stop) > 0 {
		po = append(po, llama.SetStopWords(params.Stop...))
	}
	return po
}
