package session

import (
	"path/filepath"

	"llamad/pkg/types"
)

const bytesPerMB = 1024 * 1024

// ModelInfo reports metadata for the loaded model. The name falls back to
// the model file's base name when the file carries no description.
func (s *Session) ModelInfo() (types.ModelInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return types.ModelInfo{}, errf(CodeNotInitialized, "session must be initialized before use")
	}

	name := s.model.Description()
	if name == "" {
		name = filepath.Base(s.params.ModelPath)
	}
	info := types.ModelInfo{
		Name:           name,
		Architecture:   s.model.Architecture(),
		ParameterCount: s.model.NumParams(),
		ContextSize:    s.model.TrainedContextSize(),
		SupportsVision: s.vision != nil,
		Capabilities:   []string{"text_generation"},
	}
	if s.vision != nil {
		info.Capabilities = append(info.Capabilities, "vision", "multimodal")
	}
	return info, nil
}

// MemoryInfo reports the session's memory footprint in megabytes: the model
// weights plus the serialized context state.
func (s *Session) MemoryInfo() (types.MemoryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return types.MemoryInfo{}, errf(CodeNotInitialized, "session must be initialized before use")
	}

	modelMB := s.model.SizeBytes() / bytesPerMB
	ctxMB := s.ectx.StateSizeBytes() / bytesPerMB
	return types.MemoryInfo{
		ModelMB:   modelMB,
		ContextMB: ctxMB,
		TotalMB:   modelMB + ctxMB,
	}, nil
}

// Stats returns a snapshot of the most recent (or in-flight) generation.
// Like the other introspection queries it requires a live session.
func (s *Session) Stats() (types.GenerationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return types.GenerationStats{}, errf(CodeNotInitialized, "session must be initialized before use")
	}
	st := s.stats
	st.State = s.genState
	return st, nil
}
