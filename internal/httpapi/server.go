package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llamad/internal/session"
	"llamad/pkg/types"
)

// Service defines the methods required by the HTTP API layer. A live
// *session.Session wrapped by the daemon satisfies it.
type Service interface {
	Ready() bool
	Models() []types.ModelFile
	ModelInfo() (types.ModelInfo, error)
	MemoryInfo() (types.MemoryInfo, error)
	Stats() (types.GenerationStats, error)
	Reset() error
	State() types.GenerationState
	Generate(ctx context.Context, conversation []types.Message, opts session.GenerateOptions) (string, error)
}

// NewMux builds the daemon's HTTP handler: generation plus introspection
// under /v1, health probes and Prometheus metrics at the root.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	s := &server{svc: svc}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Get("/model", s.handleModel)
		r.Get("/memory", s.handleMemory)
		r.Get("/stats", s.handleStats)
		r.Post("/reset", s.handleReset)
		r.Post("/generate", s.handleGenerate)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
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

	return r
}

type server struct {
	svc Service
}

// handleModels lists discoverable model files.
//
//	@Summary	List model files
//	@Produce	json
//	@Success	200	{object}	types.ModelsResponse
//	@Router		/v1/models [get]
func (s *server) handleModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(types.ModelsResponse{Models: s.svc.Models()}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// handleModel reports metadata for the loaded model.
//
//	@Summary	Loaded model metadata
//	@Produce	json
//	@Success	200	{object}	types.ModelResponse
//	@Failure	503	{object}	types.ErrorResponse
//	@Router		/v1/model [get]
func (s *server) handleModel(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.ModelInfo()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.ModelResponse{
		Name:           info.Name,
		Architecture:   info.Architecture,
		ParameterCount: info.ParameterCount,
		ContextSize:    info.ContextSize,
		SupportsVision: info.SupportsVision,
		Capabilities:   info.Capabilities,
	})
}

// handleMemory reports the session's memory footprint.
//
//	@Summary	Memory usage
//	@Produce	json
//	@Success	200	{object}	types.MemoryResponse
//	@Failure	503	{object}	types.ErrorResponse
//	@Router		/v1/memory [get]
func (s *server) handleMemory(w http.ResponseWriter, r *http.Request) {
	mem, err := s.svc.MemoryInfo()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.MemoryResponse{
		ModelMB:   mem.ModelMB,
		ContextMB: mem.ContextMB,
		TotalMB:   mem.TotalMB,
	})
}

// handleStats reports statistics for the current or last generation.
//
//	@Summary	Generation statistics
//	@Produce	json
//	@Success	200	{object}	types.StatsResponse
//	@Failure	503	{object}	types.ErrorResponse
//	@Router		/v1/stats [get]
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.StatsResponse{
		TokensGenerated: st.TokensGenerated,
		TokensPerSecond: st.TokensPerSecond,
		ElapsedSeconds:  st.Elapsed.Seconds(),
		State:           string(st.State),
		Sampling:        st.Sampling,
	})
}

// handleReset clears the session's context memory.
//
//	@Summary	Reset session context
//	@Produce	json
//	@Success	204
//	@Failure	503	{object}	types.ErrorResponse
//	@Router		/v1/reset [post]
func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reset(); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// busyStates are the in-flight generation states that reject new work.
func busy(st types.GenerationState) bool {
	switch st {
	case types.StateInitializing, types.StateTokenizingPrompt, types.StateProcessingImages, types.StateGenerating:
		return true
	}
	return false
}

// handleGenerate runs one generation call, streaming NDJSON token lines
// followed by a final summary line when the client requests streaming,
// or a single JSON summary otherwise.
//
//	@Summary	Generate a completion
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.GenerateRequest	true	"conversation"
//	@Success	200		{object}	types.GenerateFinal
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	429		{object}	types.ErrorResponse
//	@Failure	503		{object}	types.ErrorResponse
//	@Router		/v1/generate [post]
func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		writeJSONError(w, http.StatusBadRequest, "messages are required")
		return
	}
	// Single-session daemon: one generation at a time. The session rejects
	// concurrent calls itself; this pre-check only picks the friendlier
	// status code.
	if busy(s.svc.State()) {
		IncrementBackpressure("session_busy")
		writeJSONError(w, http.StatusTooManyRequests, "generation already in progress")
		return
	}
	conversation, err := toMessages(req.Messages)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	if lvl >= LevelInfo {
		logStart(r, len(conversation))
	}

	// Join server base context with request context so shutdown cancels
	// in-flight work too.
	ctx, cancel := joinContexts(r.Context(), baseCtx)
	defer cancel()

	if !req.Stream {
		content, err := s.svc.Generate(ctx, conversation, session.GenerateOptions{Sampling: req.Sampling})
		s.finishGenerate(w, r, lvl, start, content, err, nil)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	writer := io.Writer(w)
	if lvl >= LevelDebug {
		writer = io.MultiWriter(w, &loggingLineWriter{})
	}
	enc := json.NewEncoder(writer)
	opts := session.GenerateOptions{
		Sampling: req.Sampling,
		OnToken: func(piece string) {
			_ = enc.Encode(types.TokenLine{Token: piece})
			if flush != nil {
				flush()
			}
		},
	}
	content, err := s.svc.Generate(ctx, conversation, opts)
	s.finishGenerate(w, r, lvl, start, content, err, enc)
}

// finishGenerate writes the terminal payload for a generation call and
// records its outcome. enc is non-nil on the streaming path, where the
// final line goes through the same NDJSON encoder as the tokens.
func (s *server) finishGenerate(w http.ResponseWriter, r *http.Request, lvl LogLevel, start time.Time, content string, err error, enc *json.Encoder) {
	// The session outlives the call, so the snapshot cannot fail here; a
	// torn-down session would have rejected the generation already.
	st, _ := s.svc.Stats()
	if err != nil {
		// Client disconnect or shutdown: nothing useful to write.
		if r.Context().Err() != nil || baseCtx.Err() != nil {
			observeGeneration("cancelled", st.TokensGenerated, time.Since(start))
			return
		}
		outcome := "error"
		if session.IsCancelled(err) {
			outcome = "cancelled"
		}
		observeGeneration(outcome, st.TokensGenerated, time.Since(start))
		writeSessionError(w, err)
		if lvl >= LevelInfo {
			logEnd(r, statusForCode(session.CodeOf(err)), start, err)
		}
		return
	}

	final := types.GenerateFinal{
		Done:            true,
		Content:         content,
		TokensGenerated: st.TokensGenerated,
		TokensPerSecond: st.TokensPerSecond,
		ElapsedSeconds:  st.Elapsed.Seconds(),
	}
	if enc != nil {
		_ = enc.Encode(final)
	} else {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(final)
	}
	observeGeneration("ok", st.TokensGenerated, time.Since(start))
	if lvl >= LevelInfo {
		logEnd(r, http.StatusOK, start, nil)
	}
}

// toMessages converts wire messages into domain messages, decoding base64
// image payloads.
func toMessages(in []types.ChatMessage) ([]types.Message, error) {
	out := make([]types.Message, 0, len(in))
	for _, m := range in {
		msg := types.Message{Role: types.Role(m.Role), Content: m.Content}
		for _, img := range m.Images {
			raw, err := base64.StdEncoding.DecodeString(img)
			if err != nil {
				return nil, &badImageError{}
			}
			msg.Images = append(msg.Images, types.ImageData{Data: raw})
		}
		out = append(out, msg)
	}
	return out, nil
}

type badImageError struct{}

func (*badImageError) Error() string { return "invalid base64 image data" }

func logStart(r *http.Request, turns int) {
	z := zlog.Info().Str("path", r.URL.Path).Int("turns", turns)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg("generate start")
}

func logEnd(r *http.Request, status int, start time.Time, err error) {
	z := zlog.Info().Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	if err != nil {
		z = z.Err(err)
	}
	z.Msg("generate end")
}
