package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"humanizerd/internal/common/fsutil"
)

// adapterWeightsName is the file the adapter training run writes.
const adapterWeightsName = "adapter_model.safetensors"

// LoaderConfig controls Load.
type LoaderConfig struct {
	// Device is "auto", "cuda" or "cpu".
	Device string
	// AdapterDirs are checked in order; the first existing directory is used.
	AdapterDirs []string
	// Candidates are base-model identifiers tried in order.
	Candidates []string
	Logger     zerolog.Logger
}

// LoadedModel is the process-wide model, immutable once Load returns.
type LoadedModel struct {
	BaseModel     string
	AdapterPath   string
	AdapterFile   string
	Device        string
	CUDAAvailable bool
	Runtime       string
	RuntimeVer    string
	Tokens        SpecialTokens

	session InferSession
}

// Session returns the runtime session backing the model.
func (m *LoadedModel) Session() InferSession { return m.session }

// Close releases the runtime session.
func (m *LoadedModel) Close() error {
	if m == nil || m.session == nil {
		return nil
	}
	return m.session.Close()
}

// Load resolves the device and adapter directory, then tries each candidate
// base model in order until one loads with the adapter attached.
// A missing adapter directory fails immediately with an AdapterNotFound error;
// exhausting the candidates fails with a ModelUnavailable error joining every attempt's error.
func Load(ctx context.Context, cfg LoaderConfig, adapter InferenceAdapter) (*LoadedModel, error) {
	log := cfg.Logger
	cuda := CUDAAvailable()
	device := ProbeDevice(cfg.Device)
	log.Info().Str("device", device).Bool("cuda_available", cuda).Msg("using device")

	adapterDir, ok := fsutil.FirstDir(cfg.AdapterDirs...)
	if !ok {
		return nil, ErrAdapterNotFound(cfg.AdapterDirs...)
	}
	adapterFile := findAdapterFile(adapterDir, log)
	log.Info().Str("adapter_dir", adapterDir).Str("adapter_file", adapterFile).Msg("adapter resolved")

	prec := PrecisionFor(device)
	var errs []error
	for _, name := range cfg.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info().Str("model", name).Int("gpu_layers", prec.GPULayers).Bool("f16", prec.F16).Msg("attempting to load base model")
		spec := LoadSpec{BaseModel: name, AdapterDir: adapterDir, AdapterFile: adapterFile, Device: device}
		sess, err := startCandidate(ctx, adapter, spec)
		if err != nil {
			modelLoadAttempts.WithLabelValues(name, "error").Inc()
			log.Warn().Err(err).Str("model", name).Msg("failed to load candidate")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		modelLoadAttempts.WithLabelValues(name, "ok").Inc()
		tokens := sess.SpecialTokens()
		if tokens.Pad == "" && tokens.EOS != "" {
			tokens.Pad = tokens.EOS
		}
		m := &LoadedModel{
			BaseModel:     name,
			AdapterPath:   adapterDir,
			AdapterFile:   adapterFile,
			Device:        device,
			CUDAAvailable: cuda,
			Runtime:       adapter.Name(),
			RuntimeVer:    adapter.Version(),
			Tokens:        tokens,
			session:       sess,
		}
		log.Info().Str("model", name).Str("runtime", m.Runtime).Msg("model loaded successfully")
		return m, nil
	}
	return nil, modelUnavailableError{cause: errors.Join(errs...)}
}

// startCandidate starts a session and runs its readiness check, closing the
// session again if the check fails.
func startCandidate(ctx context.Context, adapter InferenceAdapter, spec LoadSpec) (InferSession, error) {
	sess, err := adapter.Start(ctx, spec)
	if err != nil {
		return nil, err
	}
	if w, ok := sess.(Warmer); ok {
		if err := w.Warmup(ctx); err != nil {
			_ = sess.Close()
			return nil, fmt.Errorf("warmup: %w", err)
		}
	}
	return sess, nil
}

// findAdapterFile picks the adapter weights inside dir. GGUF (what llama.cpp
// loads) wins over the safetensors file written by training.
func findAdapterFile(dir string, log zerolog.Logger) string {
	if p, ok := fsutil.FindFile(dir, ".gguf"); ok {
		return p
	}
	st := filepath.Join(dir, adapterWeightsName)
	if fsutil.PathExists(st) {
		log.Info().Str("path", st).Msg("found safetensors adapter")
		return st
	}
	log.Warn().Str("dir", dir).Msg(adapterWeightsName + " not found, will try other formats")
	return ""
}
