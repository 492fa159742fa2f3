package types

// ChatMessage is the wire form of a conversation turn.
type ChatMessage struct {
	// Author of the turn: system, user or assistant.
	// example: user
	Role string `json:"role" example:"user"`
	// Text content of the turn.
	// example: Describe this picture.
	Content string `json:"content" example:"Describe this picture."`
	// Optional base64-encoded image payloads (PNG, JPEG or BMP).
	Images []string `json:"images,omitempty"`
}

// GenerateRequest is the payload for POST /v1/generate.
type GenerateRequest struct {
	// Ordered conversation turns. Must not be empty.
	Messages []ChatMessage `json:"messages"`
	// If true, stream tokens as NDJSON lines before the final line.
	// example: true
	Stream bool `json:"stream,omitempty" example:"true"`
	// Optional per-call sampling override. Omitted fields of a present
	// override are used as given; the session default applies when absent.
	Sampling *SamplingParams `json:"sampling,omitempty"`
}

// TokenLine is one streamed NDJSON line carrying a decoded token fragment.
type TokenLine struct {
	// Decoded text fragment for one sampled token.
	// example: Hello
	Token string `json:"token" example:"Hello"`
}

// GenerateFinal is the terminal NDJSON line of a generation stream.
type GenerateFinal struct {
	// Always true on the final line.
	// example: true
	Done bool `json:"done" example:"true"`
	// Full accumulated response text.
	Content string `json:"content"`
	// Number of tokens generated.
	// example: 42
	TokensGenerated int `json:"tokens_generated" example:"42"`
	// Generation throughput in tokens per second.
	// example: 31.5
	TokensPerSecond float64 `json:"tokens_per_second" example:"31.5"`
	// Wall-clock generation time in seconds.
	// example: 1.33
	ElapsedSeconds float64 `json:"elapsed_seconds" example:"1.33"`
}

// ModelResponse is returned by GET /v1/model.
type ModelResponse struct {
	// Model description string reported by the engine.
	// example: llama 8B Q4_K_M
	Name string `json:"name" example:"llama 8B Q4_K_M"`
	// Model architecture family, when known.
	// example: llama
	Architecture string `json:"architecture,omitempty" example:"llama"`
	// Total parameter count.
	// example: 8030000000
	ParameterCount int64 `json:"parameter_count" example:"8030000000"`
	// Context size the model was trained with.
	// example: 8192
	ContextSize int32 `json:"context_size" example:"8192"`
	// True when a multimodal projector is attached.
	// example: false
	SupportsVision bool `json:"supports_vision" example:"false"`
	// Capability tags: text_generation, plus vision/multimodal when attached.
	Capabilities []string `json:"capabilities"`
}

// MemoryResponse is returned by GET /v1/memory.
type MemoryResponse struct {
	// Model weight footprint in MB.
	// example: 4600
	ModelMB uint64 `json:"model_mb" example:"4600"`
	// Context state footprint in MB.
	// example: 512
	ContextMB uint64 `json:"context_mb" example:"512"`
	// Combined footprint in MB.
	// example: 5112
	TotalMB uint64 `json:"total_mb" example:"5112"`
}

// StatsResponse is returned by GET /v1/stats.
type StatsResponse struct {
	// Tokens generated by the current or most recent call.
	// example: 42
	TokensGenerated int `json:"tokens_generated" example:"42"`
	// Throughput in tokens per second.
	// example: 31.5
	TokensPerSecond float64 `json:"tokens_per_second" example:"31.5"`
	// Elapsed generation time in seconds.
	// example: 1.33
	ElapsedSeconds float64 `json:"elapsed_seconds" example:"1.33"`
	// Current generation state.
	// example: finished
	State string `json:"state" example:"finished"`
	// Sampling parameters in effect for that call.
	Sampling SamplingParams `json:"sampling"`
}

// ModelsResponse wraps the registry listing returned by GET /v1/models.
type ModelsResponse struct {
	// Model files discovered in the models directory.
	Models []ModelFile `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// Machine-readable error kind, when the failure came from the session layer.
	// example: invalid_parameters
	Kind string `json:"kind,omitempty" example:"invalid_parameters"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
