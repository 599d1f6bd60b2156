package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"humanizerd/internal/engine"
	"humanizerd/internal/httpapi"
)

const authCode = "8472951630584729"

// createAdapterDir creates an adapter directory holding the given files and returns its path.
func createAdapterDir(t *testing.T, files ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "instruction_lora_humanizer_adapter")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir adapter dir: %v", err)
	}
	for _, n := range files {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(""), 0o644); err != nil {
			t.Fatalf("write adapter file %s: %v", n, err)
		}
	}
	return dir
}

// llamaStub stands in for a llama-server started with a base model and the adapter (--lora).
type llamaStub struct {
	mu      sync.Mutex
	models  []string
	lora    string
	reply   string
	prompts []string
	scaled  bool
}

func (s *llamaStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		data := make([]map[string]string, 0, len(s.models))
		for _, m := range s.models {
			data = append(data, map[string]string{"id": m})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
	mux.HandleFunc("/lora-adapters", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			s.mu.Lock()
			s.scaled = true
			s.mu.Unlock()
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 0, "path": s.lora, "scale": 0}})
	})
	mux.HandleFunc("/props", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"eos_token":"<|endoftext|>"}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/tokenize", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Content string `json:"content"` }
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]any{"tokens": make([]int, len(strings.Fields(in.Content)))})
	})
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Prompt string `json:"prompt"` }
		_ = json.NewDecoder(r.Body).Decode(&in)
		s.mu.Lock()
		s.prompts = append(s.prompts, in.Prompt)
		s.mu.Unlock()
		w.Header().Set("Content-Type", "text/event-stream")
		for _, word := range strings.SplitAfter(s.reply, " ") {
			b, _ := json.Marshal(map[string]any{"choices": []map[string]any{{"text": word}}})
			_, _ = w.Write([]byte("data: " + string(b) + "\n\n"))
		}
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	})
	return mux
}

// newStubServer starts stub and returns its base URL.
func newStubServer(t *testing.T, stub *llamaStub) string {
	t.Helper()
	llama := httptest.NewServer(stub.handler())
	t.Cleanup(llama.Close)
	return llama.URL
}

// newServer loads the model through a stubbed llama-server and serves the API.
func newServer(t *testing.T, stub *llamaStub, adapterDir string) (*httptest.Server, *engine.LoadedModel) {
	t.Helper()
	adapter := engine.NewLlamaServerAdapter(newStubServer(t, stub), "", 5*time.Second, time.Second, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := engine.Load(ctx, engine.LoaderConfig{
		Device:      engine.DeviceCPU,
		AdapterDirs: []string{filepath.Join(t.TempDir(), "missing"), adapterDir},
		Candidates:  []string{"microsoft/DialoGPT-medium", "microsoft/DialoGPT-large", "TinyLlama/TinyLlama-1.1B-Chat-v1.0"},
		Logger:      zerolog.Nop(),
	}, adapter)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	srv := httptest.NewServer(httpapi.NewMux(engine.NewHumanizer(m, zerolog.Nop()), authCode))
	t.Cleanup(srv.Close)
	return srv, m
}

func httpGet(t *testing.T, url, auth string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil { t.Fatalf("new req: %v", err) }
	if auth != "" { req.Header.Set("Authorization", auth) }
	resp, err := http.DefaultClient.Do(req)
	if err != nil { t.Fatalf("do req: %v", err) }
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url, auth string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil { t.Fatalf("new req: %v", err) }
	req.Header.Set("Content-Type", "application/json")
	if auth != "" { req.Header.Set("Authorization", auth) }
	resp, err := http.DefaultClient.Do(req)
	if err != nil { t.Fatalf("do req: %v", err) }
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
