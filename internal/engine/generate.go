package engine

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"humanizerd/internal/textclean"
)

// Generation constants.
const (
	// MaxInputTokens bounds the prompt, leaving context room for the response.
	MaxInputTokens = 400
	// RepetitionPenalty is applied to every generation.
	RepetitionPenalty = 1.2
	// NoRepeatNGramSize is the word n-gram length that may not repeat.
	NoRepeatNGramSize = 3

	promptPrefix   = "Rewrite this to sound natural and human: "
	responseMarker = "Humanized:"
)

// Params are the caller-controlled sampling parameters.
type Params struct {
	Temperature  float64
	MaxNewTokens int
	TopP         float64
}

// BuildPrompt embeds text in the fixed instruction template.
func BuildPrompt(text string) string {
	return promptPrefix + text + "\n" + responseMarker
}

// Snapshot is a read-only view of the loaded model for status endpoints.
type Snapshot struct {
	ModelLoaded   bool
	Device        string
	CUDAAvailable bool
	Runtime       string
	RuntimeVer    string
	BaseModel     string
	AdapterPath   string
}

// Humanizer runs generation against a LoadedModel. It holds no mutable state
// and is safe for concurrent use as far as the runtime session is.
type Humanizer struct {
	model *LoadedModel
	log   zerolog.Logger
}

// NewHumanizer wraps a loaded model.
func NewHumanizer(m *LoadedModel, log zerolog.Logger) *Humanizer {
	return &Humanizer{model: m, log: log}
}

// Snapshot reports the model state. A nil model reports not loaded.
func (h *Humanizer) Snapshot() Snapshot {
	m := h.model
	if m == nil {
		return Snapshot{Device: ProbeDevice(""), CUDAAvailable: CUDAAvailable()}
	}
	return Snapshot{
		ModelLoaded:   m.session != nil,
		Device:        m.Device,
		CUDAAvailable: m.CUDAAvailable,
		Runtime:       m.Runtime,
		RuntimeVer:    m.RuntimeVer,
		BaseModel:     m.BaseModel,
		AdapterPath:   m.AdapterPath,
	}
}

// Humanize generates a rewrite of text and cleans it, returning text itself when
// the cleaned output is empty or too short.
func (h *Humanizer) Humanize(ctx context.Context, text string, p Params) (string, error) {
	raw, err := h.Generate(ctx, text, p)
	if err != nil {
		return "", err
	}
	out := textclean.Clean(raw, text)
	if out == text {
		h.log.Debug().Int("raw_len", len(raw)).Msg("cleaned output too short, returning original text")
	}
	return out, nil
}

// Generate runs one sampling pass and returns the response with the echoed prompt removed.
// Every failure is wrapped as a GenerationFailed error.
func (h *Humanizer) Generate(ctx context.Context, text string, p Params) (string, error) {
	start := time.Now()
	out, err := h.generate(ctx, text, p)
	generationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		generationsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Msg("error during text humanization")
		return "", generationFailedError{cause: err}
	}
	generationsTotal.WithLabelValues("ok").Inc()
	return out, nil
}

func (h *Humanizer) generate(ctx context.Context, text string, p Params) (string, error) {
	if h.model == nil || h.model.session == nil {
		return "", errors.New("model not loaded")
	}
	sess := h.model.session
	prompt := BuildPrompt(text)
	decoded, err := truncatePrompt(ctx, sess, prompt, MaxInputTokens)
	if err != nil {
		return "", err
	}
	params := InferParams{
		Temperature:   float32(p.Temperature),
		TopP:          float32(p.TopP),
		MaxTokens:     p.MaxNewTokens,
		RepeatPenalty: RepetitionPenalty,
	}
	if eos := h.model.Tokens.EOS; eos != "" {
		params.Stop = []string{eos}
	}
	guard := newNgramGuard(NoRepeatNGramSize)
	streamed := false
	res, err := sess.Generate(ctx, decoded, params, func(tok string) error {
		streamed = streamed || tok != ""
		return guard.observe(tok)
	})
	if err != nil && !errors.Is(err, errRepeatedNGram) {
		return "", err
	}
	if !streamed {
		_ = guard.observe(res.Content)
	}
	_ = guard.finish()
	return extractResponse(decoded+guard.String(), decoded, prompt), nil
}

// truncatePrompt cuts prompt to maxTokens using the session tokenizer when it has one,
// otherwise to maxTokens whitespace-separated words.
func truncatePrompt(ctx context.Context, sess InferSession, prompt string, maxTokens int) (string, error) {
	if tk, ok := sess.(Tokenizer); ok {
		return tk.Truncate(ctx, prompt, maxTokens)
	}
	return truncateWords(prompt, maxTokens), nil
}

// truncateWords keeps the first n words of s, preserving the original spacing between them.
func truncateWords(s string, n int) string {
	count := 0
	inWord := false
	for i, r := range s {
		space := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if !space && !inWord {
			if count == n {
				return strings.TrimRight(s[:i], " \n\t\r")
			}
			count++
		}
		inWord = !space
	}
	return s
}

// extractResponse strips the echoed prompt from full. It removes the decoded
// prompt by length; if nothing is left it takes the text after the last
// response marker, or failing that drops the raw prompt length.
func extractResponse(full, decodedPrompt, prompt string) string {
	resp := strings.TrimSpace(dropRunes(full, utf8.RuneCountInString(decodedPrompt)))
	if resp != "" {
		return resp
	}
	if i := strings.LastIndex(full, responseMarker); i >= 0 {
		return strings.TrimSpace(full[i+len(responseMarker):])
	}
	return strings.TrimSpace(dropRunes(full, utf8.RuneCountInString(prompt)))
}

// dropRunes returns s without its first n runes.
func dropRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[i:]
		}
		n--
	}
	return ""
}
