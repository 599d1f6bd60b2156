package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"humanizerd/internal/engine"
	"humanizerd/pkg/types"
)

// API metadata reported by / and /info.
const (
	APIName       = "AI Text Humanizer"
	APIVersion    = "1.0.0"
	MaxTextLength = 5000

	rootMessage    = "AI Text Humanizer API"
	statusHealthy  = "healthy"
	successMessage = "Text humanized successfully"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Humanize(ctx context.Context, text string, p engine.Params) (string, error)
	Snapshot() engine.Snapshot
}

// NewMux builds the router. authCode guards /info and /humanize.
func NewMux(svc Service, authCode string) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Get("/", rootHandler(svc))
	r.Get("/health", healthHandler(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Snapshot().ModelLoaded {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuthCode(authCode))
		r.Get("/info", infoHandler(svc))
		r.Post("/humanize", humanizeHandler(svc))
	})

	return r
}

// rootHandler reports basic service status.
//
// @Summary  Service status
// @Produce  json
// @Success  200  {object}  types.RootResponse
// @Router   / [get]
func rootHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := svc.Snapshot()
		writeJSON(w, http.StatusOK, types.RootResponse{
			Message:     rootMessage,
			Status:      statusHealthy,
			Device:      s.Device,
			ModelLoaded: s.ModelLoaded,
		})
	}
}

// @Summary  Detailed health check
// @Produce  json
// @Success  200  {object}  types.HealthResponse
// @Router   /health [get]
func healthHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := svc.Snapshot()
		writeJSON(w, http.StatusOK, types.HealthResponse{
			Status:        statusHealthy,
			ModelLoaded:   s.ModelLoaded,
			Device:        s.Device,
			TorchVersion:  s.RuntimeVer,
			CUDAAvailable: s.CUDAAvailable,
		})
	}
}

// @Summary   API information
// @Produce   json
// @Security  AuthCode
// @Success   200  {object}  types.InfoResponse
// @Failure   401  {object}  types.ErrorResponse
// @Router    /info [get]
func infoHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := svc.Snapshot()
		writeJSON(w, http.StatusOK, types.InfoResponse{
			APIName: APIName,
			Version: APIVersion,
			ModelInfo: types.ModelInfo{
				Device:       s.Device,
				ModelLoaded:  s.ModelLoaded,
				TorchVersion: s.RuntimeVer,
				BaseModel:    s.BaseModel,
				AdapterPath:  s.AdapterPath,
			},
			Endpoints: map[string]string{
				"POST /humanize": "Humanize AI text (requires auth)",
				"GET /health":    "Health check",
				"GET /info":      "API information (requires auth)",
			},
		})
	}
}

// humanizeHandler validates the text, generates a rewrite and returns it cleaned.
//
// @Summary   Rewrite text to sound natural
// @Accept    json
// @Produce   json
// @Security  AuthCode
// @Param     request  body      types.HumanizeRequest  true  "Text and sampling parameters"
// @Success   200      {object}  types.HumanizeResponse
// @Failure   400      {object}  types.ErrorResponse
// @Failure   401      {object}  types.ErrorResponse
// @Failure   413      {object}  types.ErrorResponse
// @Failure   422      {object}  types.ErrorResponse
// @Failure   500      {object}  types.ErrorResponse
// @Router    /humanize [post]
func humanizeHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Limit body size (configurable, default 1MiB)
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.HumanizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, detailBodyTooBig)
				return
			}
			writeJSONError(w, http.StatusUnprocessableEntity, detailInvalidBody)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeJSONError(w, http.StatusBadRequest, detailEmptyText)
			return
		}
		chars := utf8.RuneCountInString(req.Text)
		if chars > MaxTextLength {
			writeJSONError(w, http.StatusBadRequest, detailTextTooLong)
			return
		}

		lvl := requestLogLevel(r)
		start := time.Now()
		if lvl >= LevelInfo {
			withRequestID(zlog.Info(), r).Int("chars", chars).Msg("humanize start")
		}
		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		out, err := svc.Humanize(ctx, req.Text, engine.Params{
			Temperature:  req.TemperatureOrDefault(),
			MaxNewTokens: req.MaxNewTokensOrDefault(),
			TopP:         req.TopPOrDefault(),
		})
		if err != nil {
			// If context was canceled (client disconnect), just return.
			if r.Context().Err() != nil {
				return
			}
			writeJSONError(w, http.StatusInternalServerError, "Internal server error: "+errorCause(err).Error())
			if lvl >= LevelError {
				withRequestID(zlog.Error(), r).Int("status", http.StatusInternalServerError).Dur("dur", time.Since(start)).Err(err).Msg("humanize end")
			}
			return
		}
		writeJSON(w, http.StatusOK, types.HumanizeResponse{
			OriginalText:  req.Text,
			HumanizedText: out,
			Success:       true,
			Message:       successMessage,
		})
		if lvl >= LevelInfo {
			z := withRequestID(zlog.Info(), r).Int("status", http.StatusOK).Dur("dur", time.Since(start))
			if lvl >= LevelDebug {
				z = z.Str("humanized", out)
			}
			z.Msg("humanize end")
		}
	}
}

// errorCause strips the outermost wrapper, leaving the runtime's own message.
func errorCause(err error) error {
	if u := errors.Unwrap(err); u != nil {
		return u
	}
	return err
}

func withRequestID(e *zerolog.Event, r *http.Request) *zerolog.Event {
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		e = e.Str("request_id", rid)
	}
	return e
}
