package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) (int, string) {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, "ValidationError"
	case domain.IsUnauthenticated(err):
		return http.StatusUnauthorized, "Unauthenticated"
	case domain.IsForbidden(err):
		return http.StatusForbidden, "Forbidden"
	case domain.IsNotFound(err):
		return http.StatusNotFound, "NotFound"
	case domain.IsInsufficientCapacity(err):
		return http.StatusConflict, "InsufficientCapacity"
	case domain.IsDuplicateBooking(err):
		return http.StatusConflict, "DuplicateBooking"
	case domain.IsConflict(err):
		return http.StatusConflict, "Conflict"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

// WriteError logs err and writes it as a JSON error body. Internal errors are
// not echoed to the client.
func WriteError(ctx context.Context, w http.ResponseWriter, logger application.AppLogger, err error) {
	status, kind := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		application.LogError(ctx, logger, "request failed", err, nil)
		message = http.StatusText(status)
	} else {
		application.LogDebug(ctx, logger, "request rejected", map[string]interface{}{
			"status": status,
			"kind":   kind,
			"error":  err.Error(),
		})
	}
	WriteJSON(ctx, w, logger, status, ErrorBody{Error: kind, Message: message})
}

// WriteBadRequest reports a malformed request body or parameter.
func WriteBadRequest(ctx context.Context, w http.ResponseWriter, logger application.AppLogger, message string) {
	WriteJSON(ctx, w, logger, http.StatusBadRequest, ErrorBody{Error: "BadRequest", Message: message})
}

func WriteJSON(ctx context.Context, w http.ResponseWriter, logger application.AppLogger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		application.LogError(ctx, logger, "error encoding response", err, nil)
	}
}

// ListBody wraps collection responses.
type ListBody[T any] struct {
	Count int `json:"count"`
	Data  []T `json:"data"`
}

func NewListBody[T any](items []T) ListBody[T] {
	if items == nil {
		items = []T{}
	}
	return ListBody[T]{Count: len(items), Data: items}
}
