//go:build llama

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaEngine adapts the go-llama.cpp binding to the Engine contract. The
// binding exposes a coarse predict loop rather than llama.cpp's fine-grained
// batch/sampler API, so loaded models implement Completer and the session
// delegates its decode/sample loop to the binding.
type llamaEngine struct {
	rc backendRC
}

// NewLlamaEngine returns the go-llama.cpp backed engine.
func NewLlamaEngine() (Engine, error) {
	// Backend init/free is handled inside the binding on model load; the
	// refcount still guards against interleaved acquire/release sequences.
	return &llamaEngine{}, nil
}

func (e *llamaEngine) AcquireBackend() { e.rc.acquire() }
func (e *llamaEngine) ReleaseBackend() { e.rc.release() }

func (e *llamaEngine) LoadModel(path string, p ModelParams) (Model, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	ctxSize := p.ContextSize
	if ctxSize <= 0 {
		ctxSize = 2048
	}
	mo := []llama.ModelOption{
		llama.SetContext(ctxSize),
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return &llamaModel{
		l:         m,
		path:      path,
		ctxSize:   ctxSize,
		sizeBytes: uint64(fi.Size()),
	}, nil
}

func (e *llamaEngine) LoadVision(path string, m Model, p VisionParams) (Vision, error) {
	// The binding has no mtmd surface.
	return nil, ErrVisionUnavailable
}

type llamaModel struct {
	l         *llama.LLama
	path      string
	ctxSize   int
	sizeBytes uint64
}

func (m *llamaModel) Description() string       { return filepath.Base(m.path) }
func (m *llamaModel) Architecture() string      { return "" }
func (m *llamaModel) NumParams() int64          { return 0 }
func (m *llamaModel) TrainedContextSize() int32 { return int32(m.ctxSize) }
func (m *llamaModel) SizeBytes() uint64         { return m.sizeBytes }

func (m *llamaModel) Tokenize(text string, addSpecial, parseSpecial bool) ([]Token, error) {
	return nil, errors.New("tokenize not exposed by the go-llama.cpp binding")
}

// ApplyChatTemplate renders a ChatML prompt host-side; the binding has no
// template API.
func (m *llamaModel) ApplyChatTemplate(msgs []ChatMessage, addAssistant bool) (string, error) {
	return RenderChatML(msgs, addAssistant), nil
}

func (m *llamaModel) TokenToPiece(t Token) string    { return "" }
func (m *llamaModel) IsEndOfGeneration(t Token) bool { return false }

func (m *llamaModel) NewContext(p ContextParams) (Context, error) {
	// The binding binds its context at model load; hand back a passive
	// handle so lifecycle ordering stays uniform.
	return &llamaContext{}, nil
}

func (m *llamaModel) NewSamplerChain() SamplerChain {
	// Sampling lives inside the binding's predict loop.
	return noopChain{}
}

func (m *llamaModel) Free() {
	if m.l != nil {
		m.l.Free()
		m.l = nil
	}
}

// Complete runs the binding's predict loop, bridging token streaming to
// onToken and cancellation to the callback's stop signal.
func (m *llamaModel) Complete(ctx context.Context, prompt string, p CompletionParams, onToken func(string) bool) (string, error) {
	if m.l == nil {
		return "", errors.New("model not loaded")
	}
	m.l.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		return onToken(tok)
	})
	po := []llama.PredictOption{
		llama.SetTokens(maxInt(1, p.MaxTokens)),
		llama.SetThreads(maxInt(1, p.Threads)),
		llama.SetTopP(nzf(p.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(nzi(p.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(nzf(p.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(nzf(p.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(p.Seed))
	}
	text, err := m.l.Predict(prompt, po...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

type llamaContext struct{}

func (c *llamaContext) Decode(b *Batch) error {
	return errors.New("decode not exposed by the go-llama.cpp binding")
}
func (c *llamaContext) StateSizeBytes() uint64 { return 0 }
func (c *llamaContext) ClearMemory()           {}
func (c *llamaContext) Free()                  {}

type noopChain struct{}

func (noopChain) AddPenalties(int32, float32, float32, float32) {}
func (noopChain) AddGreedy()                                    {}
func (noopChain) AddTopK(int32)                                 {}
func (noopChain) AddTypical(float32)                            {}
func (noopChain) AddTopP(float32)                               {}
func (noopChain) AddMinP(float32)                               {}
func (noopChain) AddTemp(float32)                               {}
func (noopChain) AddDist(uint32)                                {}
func (noopChain) Sample(Context) Token                          { return TokenNull }
func (noopChain) Accept(Token)                                  {}
func (noopChain) Free()                                         {}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func nzi(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func nzf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
