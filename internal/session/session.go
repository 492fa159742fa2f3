// Package session implements the lifecycle and generation state machine over
// an opaque inference engine: ordered resource acquisition and teardown,
// sampler-chain construction, the autoregressive generation loop with
// cooperative cancellation and progress reporting, and read-only
// introspection. All fallible operations report a closed set of error codes.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"llamad/internal/engine"
	"llamad/pkg/types"
)

// Session owns one model/context pair plus the optional vision runtime. It
// is the only entity permitted to create or destroy its engine handles. One
// worker thread drives a session at a time; a second generation against a
// busy session is rejected, not queued.
type Session struct {
	eng engine.Engine
	log zerolog.Logger

	mu          sync.Mutex
	params      types.SessionParams
	model       engine.Model
	ectx        engine.Context
	sampler     engine.SamplerChain
	vision      engine.Vision
	batch       *engine.Batch
	backendHeld bool
	initialized bool
	genState    types.GenerationState
	stats       types.GenerationStats
	startTime   time.Time
}

// New returns an empty session bound to an engine. It holds no resources
// until Initialize succeeds.
func New(eng engine.Engine, log zerolog.Logger) *Session {
	return &Session{eng: eng, log: log, genState: types.StateIdle}
}

// Initialize validates params and acquires engine resources in fixed order:
// backend, decode batch, model, context, then the vision runtime when a
// projector path is set. Progress is reported at each step and cancellation
// is polled after each major step. On failure everything acquired in this
// call is unwound; on cancellation acquired resources are left for an
// explicit Close, since partial state may still be inspectable.
func (s *Session) Initialize(p types.SessionParams, progress ProgressFunc, cancel *CancelToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized || s.model != nil || s.backendHeld || s.genState == types.StateInitializing {
		return errf(CodeAlreadyInitialized, "session already initialized; teardown required first")
	}
	if err := ValidateSessionParams(p); err != nil {
		return err
	}
	if p.PredictCeiling <= 0 {
		p.PredictCeiling = types.DefaultPredictCeiling
	}
	s.params = p
	s.setStateLocked(types.StateInitializing)
	report(progress, 0.0, "initializing backend")

	if cancelled(nil, cancel) {
		s.setStateLocked(types.StateCancelled)
		return errf(CodeOperationCancelled, "initialization cancelled")
	}

	s.eng.AcquireBackend()
	s.backendHeld = true
	s.batch = engine.NewBatch(1)

	report(progress, 0.1, "loading model")
	model, err := s.eng.LoadModel(p.ModelPath, engine.ModelParams{
		GPULayers:   p.GPULayers,
		ContextSize: p.ContextSize,
	})
	if err != nil {
		s.log.Error().Err(err).Str("model", p.ModelPath).Msg("model load failed")
		s.releaseLocked()
		return errf(CodeModelLoadFailed, "failed to load model from %s: %v", p.ModelPath, err)
	}
	s.model = model

	if cancelled(nil, cancel) {
		s.setStateLocked(types.StateCancelled)
		return errf(CodeOperationCancelled, "initialization cancelled")
	}

	report(progress, 0.4, "initializing context")
	ectx, err := model.NewContext(engine.ContextParams{
		ContextSize: p.ContextSize,
		BatchSize:   p.BatchSize,
		Threads:     p.Threads,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("context init failed")
		s.releaseLocked()
		return errf(CodeContextInitFailed, "failed to initialize inference context: %v", err)
	}
	s.ectx = ectx
	report(progress, 0.6, "model loaded")

	if p.MmprojPath != "" {
		report(progress, 0.7, "loading vision projector")
		vision, err := s.eng.LoadVision(p.MmprojPath, model, engine.VisionParams{
			UseGPU:    p.MmprojUseGPU,
			Threads:   p.Threads,
			Verbosity: p.Verbosity,
		})
		if err != nil {
			s.log.Error().Err(err).Str("mmproj", p.MmprojPath).Msg("vision load failed")
			s.releaseLocked()
			return errf(CodeMmprojLoadFailed, "failed to load vision projector from %s: %v", p.MmprojPath, err)
		}
		s.vision = vision

		if cancelled(nil, cancel) {
			s.setStateLocked(types.StateCancelled)
			return errf(CodeOperationCancelled, "initialization cancelled")
		}
		report(progress, 0.9, "vision projector loaded")
	}

	s.initialized = true
	s.setStateLocked(types.StateIdle)
	report(progress, 1.0, "initialization complete")
	s.log.Info().Str("model", p.ModelPath).Bool("vision", s.vision != nil).Msg("session initialized")
	return nil
}

// Close tears the session down. Idempotent and infallible; the session ends
// uninitialized and may be initialized again with fresh parameters.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.backendHeld
	s.releaseLocked()
	if held {
		s.log.Debug().Msg("session released")
	}
	return nil
}

// releaseLocked frees every held handle in strict reverse acquisition
// order: batch, sampler, context, model, vision, backend. Callers hold mu.
func (s *Session) releaseLocked() {
	if s.batch != nil {
		s.batch.Free()
		s.batch = nil
	}
	if s.sampler != nil {
		s.sampler.Free()
		s.sampler = nil
	}
	if s.ectx != nil {
		s.ectx.Free()
		s.ectx = nil
	}
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	if s.vision != nil {
		s.vision.Free()
		s.vision = nil
	}
	if s.backendHeld {
		s.eng.ReleaseBackend()
		s.backendHeld = false
	}
	s.initialized = false
	s.setStateLocked(types.StateIdle)
}

// Reset clears the inference context's cached sequence without tearing the
// session down. It is the mandated recovery path out of the error state.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errf(CodeNotInitialized, "session must be initialized before use")
	}
	s.ectx.ClearMemory()
	s.setStateLocked(types.StateIdle)
	return nil
}

// Initialized reports whether the session holds a live model/context pair.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Ready reports whether the session can accept work; used by health probes.
func (s *Session) Ready() bool { return s.Initialized() }

// State returns the current generation state.
func (s *Session) State() types.GenerationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genState
}

func (s *Session) setStateLocked(st types.GenerationState) {
	s.genState = st
	s.stats.State = st
}

func (s *Session) setState(st types.GenerationState) {
	s.mu.Lock()
	s.setStateLocked(st)
	s.mu.Unlock()
}
