//go:build !llama

package engine

// NewLlamaEngine reports the native runtime as unavailable in default builds.
// Build with -tags=llama to link the go-llama.cpp binding.
func NewLlamaEngine() (Engine, error) {
	return nil, ErrUnavailable
}
