package session

import (
	"os"
	"path/filepath"
	"testing"

	"llamad/pkg/types"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestValidateSamplingParamsDefaultsPass(t *testing.T) {
	if err := ValidateSamplingParams(types.DefaultSamplingParams()); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
}

func TestValidateSamplingParamsRanges(t *testing.T) {
	mod := func(f func(*types.SamplingParams)) types.SamplingParams {
		p := types.DefaultSamplingParams()
		f(&p)
		return p
	}
	cases := []struct {
		name   string
		params types.SamplingParams
		msg    string
	}{
		{"temp_low", mod(func(p *types.SamplingParams) { p.Temperature = -0.1 }), "temperature must be between 0.0 and 2.0"},
		{"temp_high", mod(func(p *types.SamplingParams) { p.Temperature = 2.5 }), "temperature must be between 0.0 and 2.0"},
		{"top_p_high", mod(func(p *types.SamplingParams) { p.TopP = 1.5 }), "top_p must be between 0.0 and 1.0"},
		{"top_k_negative", mod(func(p *types.SamplingParams) { p.TopK = -1 }), "top_k must be non-negative"},
		{"min_p_high", mod(func(p *types.SamplingParams) { p.MinP = 1.2 }), "min_p must be between 0.0 and 1.0"},
		{"repeat_penalty_negative", mod(func(p *types.SamplingParams) { p.RepeatPenalty = -1 }), "repeat_penalty must be non-negative"},
		{"repeat_last_n_negative", mod(func(p *types.SamplingParams) { p.RepeatLastN = -1 }), "repeat_last_n must be non-negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSamplingParams(tc.params)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if CodeOf(err) != CodeInvalidParameters {
				t.Fatalf("code = %v, want invalid_parameters", CodeOf(err))
			}
			if err.Error() != tc.msg {
				t.Fatalf("message = %q, want %q", err.Error(), tc.msg)
			}
		})
	}
}

// Boundary values are inclusive on both ends.
func TestValidateSamplingParamsBoundaries(t *testing.T) {
	p := types.DefaultSamplingParams()
	p.Temperature = 0
	p.TopP = 1
	p.TopK = 0
	p.MinP = 0
	p.RepeatLastN = 0
	if err := ValidateSamplingParams(p); err != nil {
		t.Fatalf("boundary values rejected: %v", err)
	}
	p.Temperature = 2
	p.TopP = 0
	p.MinP = 1
	if err := ValidateSamplingParams(p); err != nil {
		t.Fatalf("boundary values rejected: %v", err)
	}
}

// The first violated constraint wins when several fields are out of range.
func TestValidateSamplingParamsFirstViolationWins(t *testing.T) {
	p := types.DefaultSamplingParams()
	p.Temperature = 3
	p.TopK = -5
	err := ValidateSamplingParams(p)
	if err == nil || err.Error() != "temperature must be between 0.0 and 2.0" {
		t.Fatalf("got %v, want temperature violation first", err)
	}
}

func TestValidateSessionParams(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "model.gguf", []byte("GGUF...."))
	mmproj := writeFile(t, dir, "mmproj.gguf", []byte("GGUF...."))

	good := types.DefaultSessionParams()
	good.ModelPath = model
	if err := ValidateSessionParams(good); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	withVision := good
	withVision.MmprojPath = mmproj
	if err := ValidateSessionParams(withVision); err != nil {
		t.Fatalf("valid vision params rejected: %v", err)
	}

	cases := []struct {
		name string
		mod  func(*types.SessionParams)
		code Code
	}{
		{"empty_path", func(p *types.SessionParams) { p.ModelPath = "" }, CodeInvalidParameters},
		{"missing_model", func(p *types.SessionParams) { p.ModelPath = filepath.Join(dir, "absent.gguf") }, CodeModelNotFound},
		{"missing_mmproj", func(p *types.SessionParams) { p.MmprojPath = filepath.Join(dir, "absent-proj.gguf") }, CodeMmprojNotFound},
		{"bad_context", func(p *types.SessionParams) { p.ContextSize = 0 }, CodeInvalidParameters},
		{"bad_batch", func(p *types.SessionParams) { p.BatchSize = -1 }, CodeInvalidParameters},
		{"bad_threads", func(p *types.SessionParams) { p.Threads = 0 }, CodeInvalidParameters},
		{"bad_sampling", func(p *types.SessionParams) { p.Sampling.Temperature = 9 }, CodeInvalidParameters},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := good
			tc.mod(&p)
			err := ValidateSessionParams(p)
			if CodeOf(err) != tc.code {
				t.Fatalf("code = %v, want %v (err: %v)", CodeOf(err), tc.code, err)
			}
		})
	}
}
