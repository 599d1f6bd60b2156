package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeAdapter is a lightweight in-memory adapter used for tests.
// startErrs maps a base model id to the error Start returns for it.
type fakeAdapter struct {
	startErrs map[string]error
	warmErr   error
	session   *fakeSession
	started   []string
	specs     []LoadSpec
}

func (f *fakeAdapter) Name() string    { return "fake" }
func (f *fakeAdapter) Version() string { return "fake 1.0" }

func (f *fakeAdapter) Start(ctx context.Context, spec LoadSpec) (InferSession, error) {
	f.started = append(f.started, spec.BaseModel)
	f.specs = append(f.specs, spec)
	if err := f.startErrs[spec.BaseModel]; err != nil {
		return nil, err
	}
	if f.session == nil {
		f.session = &fakeSession{}
	}
	f.session.warmErr = f.warmErr
	return f.session, nil
}

type fakeSession struct {
	tokens   []string
	final    FinalResult
	genErr   error
	warmErr  error
	eos      string
	closed   bool
	prompts  []string
	params   []InferParams
	truncate func(string, int) string
}

func (s *fakeSession) Generate(ctx context.Context, prompt string, params InferParams, onToken func(string) error) (FinalResult, error) {
	s.prompts = append(s.prompts, prompt)
	s.params = append(s.params, params)
	if s.genErr != nil {
		return FinalResult{}, s.genErr
	}
	for _, t := range s.tokens {
		select {
		case <-ctx.Done():
			return FinalResult{}, ctx.Err()
		default:
		}
		if err := onToken(t); err != nil {
			return FinalResult{}, err
		}
	}
	return s.final, nil
}

func (s *fakeSession) SpecialTokens() SpecialTokens { return SpecialTokens{EOS: s.eos} }
func (s *fakeSession) Warmup(ctx context.Context) error { return s.warmErr }
func (s *fakeSession) Close() error                     { s.closed = true; return nil }

// tokenizingSession adds a Tokenizer to fakeSession.
type tokenizingSession struct{ *fakeSession }

func (s tokenizingSession) Truncate(ctx context.Context, text string, maxTokens int) (string, error) {
	return s.truncate(text, maxTokens), nil
}

// adapterDir creates an adapter directory with the given files under a temp dir.
func adapterDir(t *testing.T, files ...string) string {
	t.Helper()
	d := filepath.Join(t.TempDir(), "instruction_lora_humanizer_adapter")
	if err := os.Mkdir(d, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(d, f), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return d
}

// withCUDA pins the device probe for the duration of a test.
func withCUDA(t *testing.T, present bool) {
	t.Helper()
	orig := cudaProbe
	cudaProbe = func() bool { return present }
	t.Cleanup(func() { cudaProbe = orig })
}

// loadedWith returns a LoadedModel wrapping sess.
func loadedWith(sess InferSession) *LoadedModel {
	return &LoadedModel{BaseModel: "fake/model", Device: DeviceCPU, Runtime: "fake", session: sess, Tokens: sess.SpecialTokens()}
}

var errBoom = errors.New("boom")

func nopLogger() zerolog.Logger { return zerolog.Nop() }

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
