// Package engine defines the contracts consumed by the session layer: an
// inference engine (model loading, tokenization, batched decoding, sampling
// primitives) and an optional vision engine (bitmap ingestion, mixed
// text/image tokenization and evaluation).
//
// Concrete runtimes live behind build tags; the default build installs a
// stub that reports the dependency as unavailable, mirroring how the rest of
// the daemon degrades without a native llama.cpp library.
package engine

import (
	"context"
	"errors"
)

// Token is an engine vocabulary token id.
type Token int32

// TokenNull is the sentinel returned by a failed sampling call.
const TokenNull Token = -1

// ErrUnavailable is returned by constructors when the binary was built
// without the corresponding native runtime.
var ErrUnavailable = errors.New("inference engine unavailable: build with -tags=llama")

// ErrVisionUnavailable is returned when a multimodal projector is requested
// but no vision runtime is compiled in.
var ErrVisionUnavailable = errors.New("vision engine unavailable")

// ModelParams configure model loading.
type ModelParams struct {
	GPULayers int
	// ContextSize is a hint for coarse runtimes that bind the context size at
	// model-load time; fine-grained runtimes take it from ContextParams.
	ContextSize int
	// VocabOnly requests a metadata-only load for pre-flight validation.
	VocabOnly bool
}

// ContextParams configure inference context creation.
type ContextParams struct {
	ContextSize int
	BatchSize   int
	Threads     int
}

// VisionParams configure vision runtime initialization.
type VisionParams struct {
	UseGPU    bool
	Threads   int
	Verbosity int
}

// ChatMessage is a role-tagged turn handed to the model's chat template.
type ChatMessage struct {
	Role    string
	Content string
}

// Engine is the inference runtime entry point. Backend acquisition is
// reference-counted so static pre-flight validation and a live session can
// coexist without corrupting each other's backend lifecycle.
type Engine interface {
	// AcquireBackend initializes the global backend on first acquisition.
	AcquireBackend()
	// ReleaseBackend frees the global backend when the last holder releases.
	ReleaseBackend()
	// LoadModel loads a model file and returns its handle.
	LoadModel(path string, p ModelParams) (Model, error)
	// LoadVision loads a multimodal projector paired with a loaded model.
	LoadVision(path string, m Model, p VisionParams) (Vision, error)
}

// Model is a loaded model handle. It is exclusively owned by one session (or
// one pre-flight validation call) and must be freed by its owner.
type Model interface {
	Description() string
	Architecture() string
	NumParams() int64
	TrainedContextSize() int32
	SizeBytes() uint64
	// Tokenize converts text to tokens. addSpecial controls BOS insertion;
	// parseSpecial lets template control tokens through.
	Tokenize(text string, addSpecial, parseSpecial bool) ([]Token, error)
	// ApplyChatTemplate renders role-tagged turns into a single prompt
	// string, appending the assistant generation marker when requested.
	ApplyChatTemplate(msgs []ChatMessage, addAssistant bool) (string, error)
	TokenToPiece(t Token) string
	IsEndOfGeneration(t Token) bool
	NewContext(p ContextParams) (Context, error)
	NewSamplerChain() SamplerChain
	Free()
}

// Context is a live inference context bound to a model.
type Context interface {
	// Decode submits a batch for evaluation.
	Decode(b *Batch) error
	// StateSizeBytes reports the serialized context state size.
	StateSizeBytes() uint64
	// ClearMemory drops the cached sequence so calls do not leak context.
	ClearMemory()
	Free()
}

// SamplerChain is an ordered pipeline of probability-transforming stages.
// Stages are appended by the session's sampler builder; the stage order is
// load-bearing and owned by the builder, not the engine.
type SamplerChain interface {
	AddPenalties(lastN int32, repeat, frequency, presence float32)
	AddGreedy()
	AddTopK(k int32)
	AddTypical(p float32)
	AddTopP(p float32)
	AddMinP(p float32)
	AddTemp(t float32)
	AddDist(seed uint32)
	// Sample draws the next token from the last decoded logits, or TokenNull
	// on failure.
	Sample(ctx Context) Token
	// Accept feeds a sampled token back into the chain's acceptance state.
	Accept(t Token)
	Free()
}

// Bitmap is an engine-owned decoded image.
type Bitmap interface {
	Free()
}

// Chunk is one element of a mixed text/image token stream.
type Chunk interface{}

// Vision is the multimodal runtime paired with a loaded model.
type Vision interface {
	// BitmapFromBytes decodes raw encoded image bytes into an engine bitmap.
	BitmapFromBytes(data []byte) (Bitmap, error)
	// TokenizeMixed jointly tokenizes text containing image markers with the
	// given bitmaps into ordered chunks.
	TokenizeMixed(text string, bitmaps []Bitmap) ([]Chunk, error)
	// EvaluateChunks evaluates all chunks against ctx starting at startPos
	// and returns the advanced position cursor.
	EvaluateChunks(ctx Context, chunks []Chunk, startPos int32, batchSize int) (int32, error)
	// DefaultMarker is the per-image placeholder marker for prompt text.
	DefaultMarker() string
	Free()
}

// Completer is implemented by coarse-grained model runtimes that drive their
// own decode/sample loop (the go-llama.cpp binding exposes only this shape).
// When a session's model handle implements Completer, the generation engine
// delegates prompt evaluation and token sampling to it; onToken returning
// false stops generation early.
type Completer interface {
	Complete(ctx context.Context, prompt string, p CompletionParams, onToken func(piece string) bool) (string, error)
}

// CompletionParams are the sampling knobs a coarse runtime accepts.
type CompletionParams struct {
	MaxTokens     int
	Threads       int
	TopK          int
	TopP          float32
	Temperature   float32
	RepeatPenalty float32
	Seed          int
}
