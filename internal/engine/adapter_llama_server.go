package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"humanizerd/internal/registry"
)

// llamaServerAdapter implements InferenceAdapter by talking to a running llama.cpp server over HTTP.
// The server must have been started with the base model and the adapter (--lora); Start checks
// both are present and enables the adapter.
type llamaServerAdapter struct {
	baseURL    string
	apiKey     string
	reqTimeout time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

// NewLlamaServerAdapter constructs a server-backed adapter.
func NewLlamaServerAdapter(baseURL, apiKey string, reqTimeout, connectTimeout time.Duration, log zerolog.Logger) InferenceAdapter {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout=0: every request carries its own context deadline.
	cli := &http.Client{Transport: tr, Timeout: 0}
	return &llamaServerAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		reqTimeout: reqTimeout,
		httpClient: cli,
		log:        log,
	}
}

func (a *llamaServerAdapter) Name() string { return "llama_server" }

func (a *llamaServerAdapter) Version() string { return "llama-server " + a.baseURL }

// llamaServerSession is bound to one served model id.
type llamaServerSession struct {
	adapter *llamaServerAdapter
	modelID string
	tokens  SpecialTokens
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type loraAdapter struct {
	ID    int     `json:"id"`
	Path  string  `json:"path,omitempty"`
	Scale float64 `json:"scale"`
}

type propsResponse struct {
	EOSToken string `json:"eos_token"`
}

func (a *llamaServerAdapter) Start(ctx context.Context, spec LoadSpec) (InferSession, error) {
	var models modelsResponse
	if err := a.getJSON(ctx, "/v1/models", &models); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	served := make([]registry.Model, 0, len(models.Data))
	for _, m := range models.Data {
		served = append(served, registry.Model{ID: filepath.Base(m.ID), Path: m.ID})
	}
	mdl, ok := registry.Resolve(served, spec.BaseModel)
	if !ok {
		ids := make([]string, 0, len(served))
		for _, m := range served {
			ids = append(ids, m.Path)
		}
		return nil, fmt.Errorf("model %s not served by llama-server (available: %s)", spec.BaseModel, strings.Join(ids, ", "))
	}
	if err := a.enableAdapter(ctx, spec); err != nil {
		return nil, err
	}
	sess := &llamaServerSession{adapter: a, modelID: mdl.Path}
	var props propsResponse
	if err := a.getJSON(ctx, "/props", &props); err != nil {
		a.log.Debug().Err(err).Msg("llama-server /props unavailable; eos token unknown")
	} else {
		sess.tokens.EOS = props.EOSToken
	}
	return sess, nil
}

// enableAdapter finds the server-side LoRA adapter matching spec.AdapterFile and sets its
// scale to 1, disabling every other adapter.
func (a *llamaServerAdapter) enableAdapter(ctx context.Context, spec LoadSpec) error {
	var loaded []loraAdapter
	if err := a.getJSON(ctx, "/lora-adapters", &loaded); err != nil {
		return fmt.Errorf("list lora adapters: %w", err)
	}
	want := ""
	if spec.AdapterFile != "" {
		want = filepath.Base(spec.AdapterFile)
	}
	found := -1
	for _, l := range loaded {
		base := filepath.Base(l.Path)
		if (want != "" && base == want) || filepath.Base(filepath.Dir(l.Path)) == filepath.Base(spec.AdapterDir) {
			found = l.ID
			break
		}
	}
	if found < 0 {
		return fmt.Errorf("adapter %s not loaded in llama-server (start it with --lora)", spec.AdapterDir)
	}
	scales := make([]loraAdapter, 0, len(loaded))
	for _, l := range loaded {
		s := 0.0
		if l.ID == found {
			s = 1.0
		}
		scales = append(scales, loraAdapter{ID: l.ID, Scale: s})
	}
	return a.postJSON(ctx, "/lora-adapters", scales, nil)
}

func (a *llamaServerAdapter) getJSON(ctx context.Context, path string, out any) error {
	return a.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (a *llamaServerAdapter) postJSON(ctx context.Context, path string, in, out any) error {
	return a.doJSON(ctx, http.MethodPost, path, in, out)
}

func (a *llamaServerAdapter) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	a.authorize(req)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &serverHTTPError{code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *llamaServerAdapter) authorize(req *http.Request) {
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
}

func (s *llamaServerSession) SpecialTokens() SpecialTokens { return s.tokens }

// serverHTTPError is a non-2xx reply from llama-server.
type serverHTTPError struct {
	code   int
	status string
	body   string
}

func (e *serverHTTPError) Error() string {
	return "llama server http error: " + e.status + ": " + e.body
}

// Readiness polling for Warmup. llama-server answers 503 until the model is loaded.
var (
	serverReadyTimeout  = 60 * time.Second
	serverReadyInterval = 250 * time.Millisecond
)

// Warmup polls /health until the server reports ready, any other error occurs,
// or serverReadyTimeout passes.
func (s *llamaServerSession) Warmup(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, serverReadyTimeout)
	defer cancel()
	t := time.NewTicker(serverReadyInterval)
	defer t.Stop()
	var loading error
	for {
		err := s.adapter.getJSON(ctx, "/health", nil)
		if err == nil {
			return nil
		}
		if loading != nil && ctx.Err() != nil {
			return fmt.Errorf("server not ready: %w", loading)
		}
		var he *serverHTTPError
		if !errors.As(err, &he) || he.code != http.StatusServiceUnavailable {
			return err
		}
		loading = err
		s.adapter.log.Debug().Str("model", s.modelID).Msg("llama-server still loading")
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready: %w", loading)
		case <-t.C:
		}
	}
}

// Truncate tokenizes text on the server and detokenizes the first maxTokens tokens.
func (s *llamaServerSession) Truncate(ctx context.Context, text string, maxTokens int) (string, error) {
	var tok struct {
		Tokens []int `json:"tokens"`
	}
	if err := s.adapter.postJSON(ctx, "/tokenize", map[string]any{"content": text}, &tok); err != nil {
		return "", fmt.Errorf("tokenize: %w", err)
	}
	if len(tok.Tokens) <= maxTokens {
		return text, nil
	}
	var detok struct {
		Content string `json:"content"`
	}
	if err := s.adapter.postJSON(ctx, "/detokenize", map[string]any{"tokens": tok.Tokens[:maxTokens]}, &detok); err != nil {
		return "", fmt.Errorf("detokenize: %w", err)
	}
	return detok.Content, nil
}

// openAICompletionRequest represents the payload for /v1/completions.
type openAICompletionRequest struct {
	Model       string   `json:"model,omitempty"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float32  `json:"temperature"`
	TopP        float32  `json:"top_p,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        int      `json:"seed,omitempty"`
	Stream      bool     `json:"stream"`
	// RepeatPenalty is a llama.cpp extension; other servers ignore it.
	RepeatPenalty float32 `json:"repeat_penalty,omitempty"`
}

// openAIStreamChoice covers both /v1/completions (text) and chat-style (delta.content) chunks.
type openAIStreamChoice struct {
	Text  string `json:"text"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type openAIStreamResponse struct {
	Object  string               `json:"object"`
	Choices []openAIStreamChoice `json:"choices"`
	Usage   *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (s *llamaServerSession) Generate(ctx context.Context, prompt string, params InferParams, onToken func(string) error) (FinalResult, error) {
	a := s.adapter
	if a == nil || a.httpClient == nil {
		return FinalResult{}, errors.New("llama server adapter not initialized")
	}
	if a.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.reqTimeout)
		defer cancel()
	}
	payload := openAICompletionRequest{
		Model:         s.modelID,
		Prompt:        prompt,
		MaxTokens:     max(1, params.MaxTokens),
		Temperature:   params.Temperature,
		TopP:          params.TopP,
		TopK:          params.TopK,
		Stop:          params.Stop,
		Seed:          params.Seed,
		Stream:        true,
		RepeatPenalty: params.RepeatPenalty,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return FinalResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return FinalResult{}, ctx.Err()
		}
		return FinalResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return FinalResult{}, &serverHTTPError{code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(b))}
	}
	// Servers emit Server-Sent Events with lines beginning with "data: ".
	r := bufio.NewReader(resp.Body)
	var final FinalResult
	var content strings.Builder
	emit := func(frag string) error {
		if err := onToken(frag); err != nil {
			return err
		}
		content.WriteString(frag)
		return nil
	}
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), "data:") {
			data := strings.TrimSpace(line[len("data:"):])
			if data == "[DONE]" {
				break
			}
			var msg openAIStreamResponse
			if jerr := json.Unmarshal([]byte(data), &msg); jerr == nil && (len(msg.Choices) > 0 || msg.Usage != nil) {
				if msg.Usage != nil {
					final.Usage = Usage{PromptTokens: msg.Usage.PromptTokens, CompletionTokens: msg.Usage.CompletionTokens, TotalTokens: msg.Usage.TotalTokens}
				}
				if len(msg.Choices) > 0 {
					c := msg.Choices[0]
					frag := c.Text
					if frag == "" {
						frag = c.Delta.Content
					}
					if frag != "" {
						if cbErr := emit(frag); cbErr != nil {
							final.Content = content.String()
							return final, cbErr
						}
					}
					if c.FinishReason != "" {
						final.FinishReason = c.FinishReason
					}
				}
			} else {
				// Native llama.cpp streaming objects carry the fragment in "content".
				var native struct {
					Content string `json:"content"`
					Stop    bool   `json:"stop"`
				}
				if jerr := json.Unmarshal([]byte(data), &native); jerr == nil && native.Content != "" {
					if cbErr := emit(native.Content); cbErr != nil {
						final.Content = content.String()
						return final, cbErr
					}
				} else {
					a.log.Debug().Str("line", line).Msg("llama_server unknown stream line")
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return final, ctx.Err()
			}
			a.log.Warn().Err(err).Msg("llama_server stream read error")
			return final, err
		}
	}
	final.Content = content.String()
	return final, nil
}

func (s *llamaServerSession) Close() error { return nil }
