package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// Backend selects the model runtime: "server" (llama-server over HTTP) or "llama" (in-process).
	Backend string `json:"backend" yaml:"backend" toml:"backend"`
	// Device is "auto", "cuda" or "cpu".
	Device          string   `json:"device" yaml:"device" toml:"device"`
	ModelsDir       string   `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	AdapterDirs     []string `json:"adapter_dirs" yaml:"adapter_dirs" toml:"adapter_dirs"`
	ModelCandidates []string `json:"model_candidates" yaml:"model_candidates" toml:"model_candidates"`
	AuthCode        string   `json:"auth_code" yaml:"auth_code" toml:"auth_code"`

	LlamaURL          string `json:"llama_url" yaml:"llama_url" toml:"llama_url"`
	LlamaAPIKey       string `json:"llama_api_key" yaml:"llama_api_key" toml:"llama_api_key"`
	LlamaCtx          int    `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads      int    `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec" toml:"request_timeout_sec"`

	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled  bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// Default values for unspecified fields.
const (
	DefaultAddr      = ":4100"
	DefaultBackend   = "server"
	DefaultDevice    = "auto"
	DefaultModelsDir = "~/models/llm"
	DefaultAuthCode  = "8472951630584729"
	DefaultLlamaURL  = "http://127.0.0.1:8080"
	DefaultLlamaCtx  = 2048
	DefaultLogLevel  = "info"
	DefaultLogFormat = "auto"
)

// DefaultAdapterDirs are checked in order; the first existing directory wins.
var DefaultAdapterDirs = []string{"../instruction_lora_humanizer_adapter", "./instruction_lora_humanizer_adapter"}

// DefaultModelCandidates are tried in order; the first one that loads wins.
var DefaultModelCandidates = []string{
	"microsoft/DialoGPT-medium",
	"microsoft/DialoGPT-large",
	"TinyLlama/TinyLlama-1.1B-Chat-v1.0",
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults returns a copy of c with every unspecified field set to its default.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if len(c.AdapterDirs) == 0 {
		c.AdapterDirs = append([]string(nil), DefaultAdapterDirs...)
	}
	if len(c.ModelCandidates) == 0 {
		c.ModelCandidates = append([]string(nil), DefaultModelCandidates...)
	}
	if c.AuthCode == "" {
		c.AuthCode = DefaultAuthCode
	}
	if c.LlamaURL == "" {
		c.LlamaURL = DefaultLlamaURL
	}
	if c.LlamaCtx <= 0 {
		c.LlamaCtx = DefaultLlamaCtx
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	return c
}

// ApplyEnv overrides fields from HUMANIZER_* variables looked up through getenv.
// Unparseable numeric values are reported instead of ignored.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = SplitCSV(v)
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	str("HUMANIZER_ADDR", &c.Addr)
	str("HUMANIZER_BACKEND", &c.Backend)
	str("HUMANIZER_DEVICE", &c.Device)
	str("HUMANIZER_MODELS_DIR", &c.ModelsDir)
	list("HUMANIZER_ADAPTER_DIRS", &c.AdapterDirs)
	list("HUMANIZER_MODEL_CANDIDATES", &c.ModelCandidates)
	str("HUMANIZER_AUTH_CODE", &c.AuthCode)
	str("HUMANIZER_LLAMA_URL", &c.LlamaURL)
	str("HUMANIZER_LLAMA_API_KEY", &c.LlamaAPIKey)
	str("HUMANIZER_LOG_LEVEL", &c.LogLevel)
	str("HUMANIZER_LOG_FORMAT", &c.LogFormat)
	list("HUMANIZER_CORS_ORIGINS", &c.CORSOrigins)
	if v := strings.TrimSpace(getenv("HUMANIZER_CORS_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("HUMANIZER_CORS_ENABLED: %w", err)
		}
		c.CORSEnabled = b
	}
	for key, dst := range map[string]*int{
		"HUMANIZER_LLAMA_CTX":           &c.LlamaCtx,
		"HUMANIZER_LLAMA_THREADS":       &c.LlamaThreads,
		"HUMANIZER_REQUEST_TIMEOUT_SEC": &c.RequestTimeoutSec,
	} {
		if err := num(key, dst); err != nil {
			return c, err
		}
	}
	return c, nil
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empty items.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
