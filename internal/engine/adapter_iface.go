package engine

import "context"

// InferenceAdapter abstracts the model runtime.
// Concrete implementations (llama-server, in-process llama.cpp) satisfy this interface.
type InferenceAdapter interface {
	// Name identifies the runtime in logs, e.g. "llama_server".
	Name() string
	// Version describes the runtime build reported by /health.
	Version() string
	// Start loads the base model named by spec, attaches the adapter and returns a
	// session ready for inference. Errors make the loader move to the next candidate.
	Start(ctx context.Context, spec LoadSpec) (InferSession, error)
}

// InferSession represents a loaded model with its adapter attached.
type InferSession interface {
	// Generate streams tokens for the given prompt. The onToken callback is invoked
	// for each token; a non-nil return stops generation and is returned as-is.
	// Implementations must return when the context is canceled.
	Generate(ctx context.Context, prompt string, params InferParams, onToken func(string) error) (FinalResult, error)
	// SpecialTokens reports the tokenizer's end-of-sequence and pad tokens, when known.
	SpecialTokens() SpecialTokens
	// Close releases any resources associated with the session.
	Close() error
}

// Tokenizer is implemented by sessions that can truncate text to a token budget.
type Tokenizer interface {
	// Truncate returns text cut to at most maxTokens tokens, decoded back to a string.
	Truncate(ctx context.Context, text string, maxTokens int) (string, error)
}

// Warmer is implemented by sessions that need a readiness check before serving.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// LoadSpec describes one load attempt.
type LoadSpec struct {
	// BaseModel is the candidate identifier, e.g. "microsoft/DialoGPT-medium".
	BaseModel string
	// AdapterDir is the resolved adapter directory.
	AdapterDir string
	// AdapterFile is the adapter weight file inside AdapterDir; empty when none was found.
	AdapterFile string
	// Device is "cuda" or "cpu".
	Device string
}

// SpecialTokens holds tokenizer special tokens as text.
type SpecialTokens struct {
	EOS string
	// Pad defaults to EOS. Single-sequence llama runtimes never pad, so it is informational.
	Pad string
}

// InferParams captures generation parameters passed to the adapter.
type InferParams struct {
	Temperature   float32
	TopP          float32
	TopK          int
	MaxTokens     int
	Stop          []string
	Seed          int
	RepeatPenalty float32
}

// FinalResult summarizes the generation after streaming.
type FinalResult struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage contains token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
