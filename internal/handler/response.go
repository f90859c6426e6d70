package handler

// Every JSON error from the API has the same shape:
//
//	{"error": "not_found", "message": "puzzle not found with id abc123"}
//
// so the client can branch on "error" without caring about the status code.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/heardle/internal/apperror"
)

// maxBodyBytes caps request bodies. Every payload the API accepts is a
// handful of short fields.
const maxBodyBytes = 64 << 10

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sets the content type and status, then encodes data.
// Headers must be set before the first Write.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to a status code.
//
// errors.Is walks the whole chain, so a service that returns
// fmt.Errorf("...: %w", apperror.NotFound(...)) still maps to 404.
// Errors that carry no *AppError become a generic 500 so driver messages
// never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, errorType = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status, errorType = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status, errorType = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrRoundClosed):
		status, errorType = http.StatusConflict, "round_closed"
	case errors.Is(err, apperror.ErrDuplicateGuess):
		status, errorType = http.StatusConflict, "duplicate_guess"
	case errors.Is(err, apperror.ErrConflict):
		status, errorType = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrPersistence):
		status, errorType = http.StatusInternalServerError, "persistence_error"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: "valid authentication required",
	})
}

// decodeJSON reads one JSON object from the body into dst. Unknown fields
// and trailing data are rejected.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}
