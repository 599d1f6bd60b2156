package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"humanizerd/internal/config"
	"humanizerd/internal/engine"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// newRootCmd builds the command tree. The root command serves the API.
func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "humanizerd",
		Short:         "Serve the text humanizer API (base model + LoRA adapter)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, cfgPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "Path to a .yaml/.yml, .json or .toml config file")
	pf.String("addr", config.DefaultAddr, "HTTP listen address")
	pf.String("backend", config.DefaultBackend, "Model runtime: server|llama")
	pf.String("device", config.DefaultDevice, "Compute device: auto|cuda|cpu")
	pf.String("models-dir", config.DefaultModelsDir, "Directory to scan for *.gguf base models (llama backend)")
	pf.StringSlice("adapter-dir", nil, "Adapter directory candidates, first existing wins (repeatable)")
	pf.StringSlice("model", nil, "Base model candidates, tried in order (repeatable)")
	pf.String("auth-code", "", "Shared secret expected in the Authorization header")
	pf.String("llama-url", config.DefaultLlamaURL, "llama-server base URL (server backend)")
	pf.String("llama-api-key", "", "API key sent to llama-server")
	pf.Int("llama-ctx", config.DefaultLlamaCtx, "Context size (llama backend)")
	pf.Int("llama-threads", 0, "CPU threads, 0 lets llama.cpp decide (llama backend)")
	pf.Int("request-timeout-sec", 0, "Per-request timeout for llama-server calls, 0 disables")
	pf.Int64("max-body-bytes", 0, "Maximum request body size, 0 keeps the 1 MiB default")
	pf.Bool("cors-enabled", false, "Enable CORS for browser clients")
	pf.StringSlice("cors-origins", nil, "Allowed CORS origins")
	pf.String("log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	pf.String("log-format", config.DefaultLogFormat, "Log format: auto|console|json")

	root.AddCommand(newCheckCmd(&cfgPath), newVersionCmd())
	return root
}

// newCheckCmd runs the loader once and reports what loaded, without serving.
func newCheckCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the base model and adapter, print the result and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, *cfgPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			adapter, err := newAdapter(cfg, log)
			if err != nil {
				return err
			}
			m, err := engine.Load(cmd.Context(), loaderConfig(cfg, log), adapter)
			if err != nil {
				return err
			}
			defer m.Close()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(engine.NewHumanizer(m, log).Snapshot())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "humanizerd %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

// resolveConfig layers config file, HUMANIZER_* environment and explicitly set
// flags, in that order, then fills defaults.
func resolveConfig(cmd *cobra.Command, path string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = c
	}
	cfg, err := cfg.ApplyEnv(os.Getenv)
	if err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return cfg, err
	}
	return cfg.WithDefaults(), nil
}

// applyFlags copies flags the user set on the command line into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	var err error
	str := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}
	list := func(name string, dst *[]string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetStringSlice(name)
		}
	}
	num := func(name string, dst *int) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetInt(name)
		}
	}
	str("addr", &cfg.Addr)
	str("backend", &cfg.Backend)
	str("device", &cfg.Device)
	str("models-dir", &cfg.ModelsDir)
	list("adapter-dir", &cfg.AdapterDirs)
	list("model", &cfg.ModelCandidates)
	str("auth-code", &cfg.AuthCode)
	str("llama-url", &cfg.LlamaURL)
	str("llama-api-key", &cfg.LlamaAPIKey)
	num("llama-ctx", &cfg.LlamaCtx)
	num("llama-threads", &cfg.LlamaThreads)
	num("request-timeout-sec", &cfg.RequestTimeoutSec)
	list("cors-origins", &cfg.CORSOrigins)
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	if err == nil && fs.Changed("max-body-bytes") {
		cfg.MaxBodyBytes, err = fs.GetInt64("max-body-bytes")
	}
	if err == nil && fs.Changed("cors-enabled") {
		cfg.CORSEnabled, err = fs.GetBool("cors-enabled")
	}
	return err
}
