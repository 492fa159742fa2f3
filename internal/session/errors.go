package session

import (
	"errors"
	"fmt"
)

// Code classifies every failure a session operation can report. The set is
// closed so callers branch on the code, never on message text.
type Code int

const (
	CodeNone Code = iota
	CodeModelNotFound
	CodeModelLoadFailed
	CodeModelInvalid
	CodeMmprojNotFound
	CodeMmprojLoadFailed
	CodeMmprojInvalid
	CodeContextInitFailed
	CodeInsufficientMemory
	CodeTokenizationFailed
	CodeEvaluationFailed
	CodeSamplingFailed
	CodeImageProcessingFailed
	CodeInvalidParameters
	CodeNotInitialized
	CodeAlreadyInitialized
	CodeOperationCancelled
	CodeUnknown
)

var codeNames = map[Code]string{
	CodeNone:                  "none",
	CodeModelNotFound:         "model_not_found",
	CodeModelLoadFailed:       "model_load_failed",
	CodeModelInvalid:          "model_invalid",
	CodeMmprojNotFound:        "mmproj_not_found",
	CodeMmprojLoadFailed:      "mmproj_load_failed",
	CodeMmprojInvalid:         "mmproj_invalid",
	CodeContextInitFailed:     "context_init_failed",
	CodeInsufficientMemory:    "insufficient_memory",
	CodeTokenizationFailed:    "tokenization_failed",
	CodeEvaluationFailed:      "evaluation_failed",
	CodeSamplingFailed:        "sampling_failed",
	CodeImageProcessingFailed: "image_processing_failed",
	CodeInvalidParameters:     "invalid_parameters",
	CodeNotInitialized:        "not_initialized",
	CodeAlreadyInitialized:    "already_initialized",
	CodeOperationCancelled:    "operation_cancelled",
	CodeUnknown:               "unknown",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "unknown"
}

// Error is the uniform outcome every fallible session operation returns on
// failure: a code plus a human-readable diagnostic. The message is not part
// of the programmatic contract.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Message
}

// errf builds a session Error with a formatted diagnostic.
func errf(c Code, format string, args ...any) *Error {
	return &Error{Code: c, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the session code from err, or CodeUnknown for foreign
// errors and CodeNone for nil.
func CodeOf(err error) Code {
	if err == nil {
		return CodeNone
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// IsCancelled reports whether err is a cooperative-cancellation outcome.
func IsCancelled(err error) bool { return CodeOf(err) == CodeOperationCancelled }

// IsNotInitialized reports whether err indicates use before initialization.
func IsNotInitialized(err error) bool { return CodeOf(err) == CodeNotInitialized }
