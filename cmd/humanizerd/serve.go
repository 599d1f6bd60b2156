package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"humanizerd/internal/config"
	"humanizerd/internal/engine"
	"humanizerd/internal/httpapi"
)

const (
	connectTimeout  = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Test hooks.
var (
	listen     = net.Listen
	newAdapter = defaultAdapter
)

// defaultAdapter picks the model runtime named by cfg.Backend.
func defaultAdapter(cfg config.Config, log zerolog.Logger) (engine.InferenceAdapter, error) {
	switch cfg.Backend {
	case "server":
		timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
		return engine.NewLlamaServerAdapter(cfg.LlamaURL, cfg.LlamaAPIKey, timeout, connectTimeout, log), nil
	case "llama":
		return engine.NewLlamaAdapter(cfg.ModelsDir, cfg.LlamaCtx, cfg.LlamaThreads), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want server or llama)", cfg.Backend)
	}
}

func loaderConfig(cfg config.Config, log zerolog.Logger) engine.LoaderConfig {
	return engine.LoaderConfig{
		Device:      cfg.Device,
		AdapterDirs: cfg.AdapterDirs,
		Candidates:  cfg.ModelCandidates,
		Logger:      log,
	}
}

// serve loads the model, then binds the listener and serves until ctx is
// canceled. Nothing is bound if loading fails.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	adapter, err := newAdapter(cfg, log)
	if err != nil {
		return err
	}
	log.Info().Str("backend", adapter.Name()).Msg("loading AI humanizer model")
	model, err := engine.Load(ctx, loaderConfig(cfg, log), adapter)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	defer func() {
		if err := model.Close(); err != nil {
			log.Warn().Err(err).Msg("close model")
		}
	}()
	log.Info().Str("model", model.BaseModel).Msg("model loaded, API ready")

	ln, err := listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)

	srv := &http.Server{
		Handler:           httpapi.NewMux(engine.NewHumanizer(model, log), cfg.AuthCode),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("humanizerd listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	// Cancel in-flight generations before draining connections.
	cancelBase()
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
