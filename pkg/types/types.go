package types

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ImageData is a raw encoded image payload (PNG, JPEG or BMP). The format is
// sniffed from the leading bytes; the payload is never decoded by this layer.
type ImageData struct {
	Data []byte
}

// Message is a single turn in a conversation, optionally carrying images.
type Message struct {
	Role    Role
	Content string
	Images  []ImageData
}

// SamplingParams are the independent sampling knobs assembled into a sampler
// chain per generation call.
type SamplingParams struct {
	Temperature      float32 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP             float32 `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK             int32   `json:"top_k" yaml:"top_k" toml:"top_k"`
	MinP             float32 `json:"min_p" yaml:"min_p" toml:"min_p"`
	TypicalP         float32 `json:"typical_p" yaml:"typical_p" toml:"typical_p"`
	RepeatPenalty    float32 `json:"repeat_penalty" yaml:"repeat_penalty" toml:"repeat_penalty"`
	RepeatLastN      int32   `json:"repeat_last_n" yaml:"repeat_last_n" toml:"repeat_last_n"`
	FrequencyPenalty float32 `json:"frequency_penalty" yaml:"frequency_penalty" toml:"frequency_penalty"`
	PresencePenalty  float32 `json:"presence_penalty" yaml:"presence_penalty" toml:"presence_penalty"`
	NPredict         int32   `json:"n_predict" yaml:"n_predict" toml:"n_predict"`
}

// NPredictUnlimited requests generation until the model emits an
// end-of-generation token (bounded by SessionParams.PredictCeiling).
const NPredictUnlimited int32 = -1

// DefaultSamplingParams returns the stock sampling configuration.
func DefaultSamplingParams() SamplingParams {
	return SamplingParams{
		Temperature:   0.7,
		TopP:          0.9,
		TopK:          40,
		MinP:          0.05,
		TypicalP:      1.0,
		RepeatPenalty: 1.1,
		RepeatLastN:   64,
		NPredict:      NPredictUnlimited,
	}
}

// SessionParams configure a session before initialization. They are immutable
// once a session is initialized; a new session requires fresh parameters.
type SessionParams struct {
	ModelPath    string
	MmprojPath   string
	ContextSize  int
	BatchSize    int
	GPULayers    int
	MmprojUseGPU bool
	Threads      int
	Verbosity    int
	// PredictCeiling bounds generation when NPredict is unlimited, so a model
	// that never emits an end-of-generation token still terminates.
	PredictCeiling int
	Sampling       SamplingParams
}

// DefaultPredictCeiling bounds unlimited generation when PredictCeiling is unset.
const DefaultPredictCeiling = 4096

// DefaultSessionParams returns session parameters with stock values; the
// caller fills in the model path.
func DefaultSessionParams() SessionParams {
	return SessionParams{
		ContextSize:    16000,
		BatchSize:      4096,
		Threads:        6,
		Verbosity:      1,
		PredictCeiling: DefaultPredictCeiling,
		Sampling:       DefaultSamplingParams(),
	}
}

// GenerationState tracks where a session is within its lifecycle. It is
// mutated only by the session itself and read by introspection.
type GenerationState string

const (
	StateIdle             GenerationState = "idle"
	StateInitializing     GenerationState = "initializing"
	StateTokenizingPrompt GenerationState = "tokenizing_prompt"
	StateProcessingImages GenerationState = "processing_images"
	StateGenerating       GenerationState = "generating"
	StateFinished         GenerationState = "finished"
	StateCancelled        GenerationState = "cancelled"
	StateError            GenerationState = "error"
)

// GenerationStats is a read-only snapshot of the current or most recent
// generation call.
type GenerationStats struct {
	TokensGenerated int
	TokensPerSecond float64
	Elapsed         time.Duration
	State           GenerationState
	Sampling        SamplingParams
}

// ModelInfo describes a loaded (or pre-flight validated) model.
type ModelInfo struct {
	Name           string
	Architecture   string
	ParameterCount int64
	ContextSize    int32
	SupportsVision bool
	Capabilities   []string
}

// MemoryInfo reports the memory footprint of a live session in megabytes.
type MemoryInfo struct {
	ModelMB   uint64
	ContextMB uint64
	TotalMB   uint64
}

// ModelFile is a discoverable model file on disk, produced by the registry.
type ModelFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	// MmprojPath is the paired multimodal projector file, when one was found.
	MmprojPath string `json:"mmproj_path,omitempty"`
}
