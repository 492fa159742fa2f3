package httpapi

import (
	"encoding/json"
	"net/http"

	"llamad/internal/session"
	"llamad/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForCode maps session error codes to HTTP status codes. Codes that
// indicate a broken engine or an unexpected failure map to 500.
func statusForCode(c session.Code) int {
	switch c {
	case session.CodeModelNotFound, session.CodeMmprojNotFound:
		return http.StatusNotFound
	case session.CodeInvalidParameters, session.CodeImageProcessingFailed:
		return http.StatusBadRequest
	case session.CodeNotInitialized:
		return http.StatusServiceUnavailable
	case session.CodeAlreadyInitialized:
		return http.StatusConflict
	case session.CodeInsufficientMemory:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeSessionError maps a session error to its status and payload, keeping
// the machine-readable kind alongside the message.
func writeSessionError(w http.ResponseWriter, err error) {
	if he, ok := err.(HTTPError); ok {
		writeJSONError(w, he.StatusCode(), he.Error())
		return
	}
	code := session.CodeOf(err)
	status := statusForCode(code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: err.Error(), Kind: code.String(), Code: status})
}
