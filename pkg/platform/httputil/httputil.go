// Package httputil centralizes JSON encoding and domain error translation for
// HTTP handlers. Keeping it here ensures every endpoint emits the same
// response envelope.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "gramsuvidha/pkg/domain-errors"
)

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
}

// MessageResponse is the envelope for operations that return no resource,
// such as deletes and password changes.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes a success message envelope.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, MessageResponse{Success: true, Message: message})
}

// WriteError translates a domain error into its transport representation.
// Internal faults are masked; callers are expected to log them with context
// before handing the error over.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Success: false,
		Detail:  dErrors.Detail(err),
	})
}

// Decode parses a JSON request body into T, reporting a bad_request on
// malformed input. A false return means the error response was written.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return v, false
	}
	return v, true
}

// PathUUID parses a chi URL parameter as a UUID, failing with bad_request.
func PathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid id")
	}
	return id, nil
}

// QueryUUID parses a query parameter as a UUID, failing with bad_request
// when missing or malformed.
func QueryUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.URL.Query().Get(key))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, key+" query parameter is required")
	}
	return id, nil
}

// LogError logs an unexpected fault with request context. Expected domain
// errors are the caller's responsibility to log (usually at warn level).
func LogError(logger *slog.Logger, r *http.Request, err error) {
	logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
}
