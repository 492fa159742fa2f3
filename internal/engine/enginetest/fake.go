// Package enginetest provides a scriptable in-memory engine used to exercise
// the session layer without a native runtime.
package enginetest

import (
	"errors"
	"strings"
	"sync"

	"llamad/internal/engine"
)

// EOG is the fake vocabulary's end-of-generation token.
const EOG engine.Token = 2

// Marker is the fake vision engine's image placeholder.
const Marker = "<__image__>"

// Engine is a fake inference+vision runtime. Failure toggles flip individual
// operations into their error paths; Events records lifecycle calls in order
// so tests can assert acquisition and teardown sequencing.
type Engine struct {
	mu     sync.Mutex
	Events []string

	BackendRefs int
	DecodeCalls int
	ClearCalls  int

	FailLoadModel     bool
	FailContext       bool
	FailVision        bool
	FailDecode        bool
	FailTokenize      bool
	FailTemplate      bool
	FailBitmap        bool
	FailMixedTokenize bool
	FailEvalChunks    bool
	SampleNull        bool

	// Script is the token sequence every new sampler chain yields before EOG.
	Script []engine.Token
	Pieces map[engine.Token]string

	// LastChain is the most recently built sampler chain, exposed so tests
	// can assert the stage order the builder produced.
	LastChain *Chain
}

// New returns an empty fake engine (chains yield EOG immediately).
func New() *Engine {
	return &Engine{Pieces: map[engine.Token]string{}}
}

// NewScripted returns a fake engine whose chains yield one token per given
// piece, in order, followed by EOG.
func NewScripted(pieces ...string) *Engine {
	e := New()
	for i, p := range pieces {
		tok := engine.Token(100 + i)
		e.Script = append(e.Script, tok)
		e.Pieces[tok] = p
	}
	return e
}

func (e *Engine) event(name string) {
	e.mu.Lock()
	e.Events = append(e.Events, name)
	e.mu.Unlock()
}

// EventList returns a copy of the recorded lifecycle events.
func (e *Engine) EventList() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.Events...)
}

func (e *Engine) AcquireBackend() {
	e.mu.Lock()
	e.BackendRefs++
	e.mu.Unlock()
	e.event("backend_acquire")
}

func (e *Engine) ReleaseBackend() {
	e.mu.Lock()
	e.BackendRefs--
	e.mu.Unlock()
	e.event("backend_release")
}

func (e *Engine) LoadModel(path string, p engine.ModelParams) (engine.Model, error) {
	if e.FailLoadModel {
		return nil, errors.New("fake: model load refused")
	}
	e.event("model_load")
	return &Model{e: e, path: path}, nil
}

func (e *Engine) LoadVision(path string, m engine.Model, p engine.VisionParams) (engine.Vision, error) {
	if e.FailVision {
		return nil, errors.New("fake: vision load refused")
	}
	e.event("vision_load")
	return &Vision{e: e}, nil
}

// Model is the fake model handle.
type Model struct {
	e    *Engine
	path string
}

func (m *Model) Description() string       { return "fake 7B Q4" }
func (m *Model) Architecture() string      { return "fake" }
func (m *Model) NumParams() int64          { return 7_000_000 }
func (m *Model) TrainedContextSize() int32 { return 4096 }
func (m *Model) SizeBytes() uint64         { return 64 << 20 }

func (m *Model) Tokenize(text string, addSpecial, parseSpecial bool) ([]engine.Token, error) {
	if m.e.FailTokenize {
		return nil, errors.New("fake: tokenize refused")
	}
	n := len(strings.Fields(text))
	if n == 0 {
		n = 1
	}
	toks := make([]engine.Token, n)
	for i := range toks {
		toks[i] = engine.Token(1000 + i)
	}
	return toks, nil
}

func (m *Model) ApplyChatTemplate(msgs []engine.ChatMessage, addAssistant bool) (string, error) {
	if m.e.FailTemplate {
		return "", errors.New("fake: template refused")
	}
	return engine.RenderChatML(msgs, addAssistant), nil
}

func (m *Model) TokenToPiece(t engine.Token) string    { return m.e.Pieces[t] }
func (m *Model) IsEndOfGeneration(t engine.Token) bool { return t == EOG }

func (m *Model) NewContext(p engine.ContextParams) (engine.Context, error) {
	if m.e.FailContext {
		return nil, errors.New("fake: context refused")
	}
	m.e.event("context_new")
	return &Context{e: m.e}, nil
}

func (m *Model) NewSamplerChain() engine.SamplerChain {
	c := &Chain{e: m.e, script: append([]engine.Token(nil), m.e.Script...)}
	m.e.mu.Lock()
	m.e.LastChain = c
	m.e.mu.Unlock()
	return c
}

func (m *Model) Free() { m.e.event("model_free") }

// Context is the fake inference context.
type Context struct {
	e *Engine
}

func (c *Context) Decode(b *engine.Batch) error {
	if c.e.FailDecode {
		return errors.New("fake: decode refused")
	}
	c.e.mu.Lock()
	c.e.DecodeCalls++
	c.e.mu.Unlock()
	return nil
}

func (c *Context) StateSizeBytes() uint64 { return 4 << 20 }

func (c *Context) ClearMemory() {
	c.e.mu.Lock()
	c.e.ClearCalls++
	c.e.mu.Unlock()
}

func (c *Context) Free() { c.e.event("context_free") }

// Chain is the fake sampler chain; it records appended stages and yields the
// engine's script.
type Chain struct {
	e        *Engine
	Stages   []string
	Accepted []engine.Token
	cursor   int
	script   []engine.Token
}

func (c *Chain) AddPenalties(lastN int32, repeat, frequency, presence float32) {
	c.Stages = append(c.Stages, "penalties")
}
func (c *Chain) AddGreedy()          { c.Stages = append(c.Stages, "greedy") }
func (c *Chain) AddTopK(k int32)     { c.Stages = append(c.Stages, "top_k") }
func (c *Chain) AddTypical(float32)  { c.Stages = append(c.Stages, "typical") }
func (c *Chain) AddTopP(float32)     { c.Stages = append(c.Stages, "top_p") }
func (c *Chain) AddMinP(float32)     { c.Stages = append(c.Stages, "min_p") }
func (c *Chain) AddTemp(float32)     { c.Stages = append(c.Stages, "temp") }
func (c *Chain) AddDist(seed uint32) { c.Stages = append(c.Stages, "dist") }

func (c *Chain) Sample(ctx engine.Context) engine.Token {
	if c.e.SampleNull {
		return engine.TokenNull
	}
	if c.cursor >= len(c.script) {
		return EOG
	}
	t := c.script[c.cursor]
	c.cursor++
	return t
}

func (c *Chain) Accept(t engine.Token) { c.Accepted = append(c.Accepted, t) }

func (c *Chain) Free() { c.e.event("sampler_free") }

// Vision is the fake multimodal runtime.
type Vision struct {
	e       *Engine
	Bitmaps int
}

type bitmap struct{}

func (bitmap) Free() {}

func (v *Vision) BitmapFromBytes(data []byte) (engine.Bitmap, error) {
	if v.e.FailBitmap {
		return nil, errors.New("fake: bitmap refused")
	}
	v.Bitmaps++
	return bitmap{}, nil
}

func (v *Vision) TokenizeMixed(text string, bitmaps []engine.Bitmap) ([]engine.Chunk, error) {
	if v.e.FailMixedTokenize {
		return nil, errors.New("fake: mixed tokenize refused")
	}
	chunks := make([]engine.Chunk, 0, len(bitmaps)+1)
	chunks = append(chunks, text)
	for range bitmaps {
		chunks = append(chunks, bitmap{})
	}
	return chunks, nil
}

func (v *Vision) EvaluateChunks(ctx engine.Context, chunks []engine.Chunk, startPos int32, batchSize int) (int32, error) {
	if v.e.FailEvalChunks {
		return startPos, errors.New("fake: chunk eval refused")
	}
	return startPos + int32(len(chunks))*8, nil
}

func (v *Vision) DefaultMarker() string { return Marker }

func (v *Vision) Free() { v.e.event("vision_free") }
