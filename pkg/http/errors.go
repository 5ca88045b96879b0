package http

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error   string `json:"error"`             // Machine-readable error code
	Message string `json:"message"`           // Human-readable message
	Details string `json:"details,omitempty"` // Optional additional context
	// RemainingMs is set on unlock_not_ready responses.
	RemainingMs *int64 `json:"remaining_ms,omitempty"`
}

// Machine-readable codes for the unlock gate.
const (
	CodeUnlockNotRequested = "unlock_not_requested"
	CodeUnlockNotReady     = "unlock_not_ready"
)

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	WriteErrorWithDetails(w, statusCode, errorCode, message, "")
}

// WriteErrorWithDetails writes a JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, errorCode, message, details string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
		Details: details,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}

func WriteValidationError(w http.ResponseWriter, message, details string) {
	WriteErrorWithDetails(w, http.StatusBadRequest, "validation_failed", message, details)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message)
}

// WriteUnlockNotRequested rejects a gated change on a restriction that has no
// cooldown in progress.
func WriteUnlockNotRequested(w http.ResponseWriter) {
	WriteError(w, http.StatusForbidden, CodeUnlockNotRequested, "Unlock not requested")
}

// WriteUnlockNotReady rejects a gated change while the cooldown is running.
func WriteUnlockNotReady(w http.ResponseWriter, remainingMs int64) {
	WriteJSON(w, http.StatusForbidden, ErrorResponse{
		Error:       CodeUnlockNotReady,
		Message:     "Unlock not ready",
		RemainingMs: &remainingMs,
	})
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message)
}
