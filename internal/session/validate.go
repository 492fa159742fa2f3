package session

import (
	"llamad/internal/common/fsutil"
	"llamad/pkg/types"
)

// ValidateSamplingParams checks sampling ranges in declaration order and
// returns the first violated constraint. Pure; touches no engine resource.
func ValidateSamplingParams(p types.SamplingParams) error {
	if p.Temperature < 0 || p.Temperature > 2 {
		return errf(CodeInvalidParameters, "temperature must be between 0.0 and 2.0")
	}
	if p.TopP < 0 || p.TopP > 1 {
		return errf(CodeInvalidParameters, "top_p must be between 0.0 and 1.0")
	}
	if p.TopK < 0 {
		return errf(CodeInvalidParameters, "top_k must be non-negative")
	}
	if p.MinP < 0 || p.MinP > 1 {
		return errf(CodeInvalidParameters, "min_p must be between 0.0 and 1.0")
	}
	if p.RepeatPenalty < 0 {
		return errf(CodeInvalidParameters, "repeat_penalty must be non-negative")
	}
	if p.RepeatLastN < 0 {
		return errf(CodeInvalidParameters, "repeat_last_n must be non-negative")
	}
	return nil
}

// ValidateSessionParams checks paths and positivity constraints, then
// delegates to sampling validation. A missing model file is reported as
// CodeModelNotFound and a missing projector as CodeMmprojNotFound, so
// callers can distinguish them from generic parameter errors.
func ValidateSessionParams(p types.SessionParams) error {
	if p.ModelPath == "" {
		return errf(CodeInvalidParameters, "model path cannot be empty")
	}
	if !fsutil.FileExists(p.ModelPath) {
		return errf(CodeModelNotFound, "model file not found: %s", p.ModelPath)
	}
	if p.MmprojPath != "" && !fsutil.FileExists(p.MmprojPath) {
		return errf(CodeMmprojNotFound, "multimodal projector file not found: %s", p.MmprojPath)
	}
	if p.ContextSize <= 0 {
		return errf(CodeInvalidParameters, "context size must be positive")
	}
	if p.BatchSize <= 0 {
		return errf(CodeInvalidParameters, "batch size must be positive")
	}
	if p.Threads <= 0 {
		return errf(CodeInvalidParameters, "thread count must be positive")
	}
	return ValidateSamplingParams(p.Sampling)
}
