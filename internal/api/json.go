package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/catadmin/internal/apperr"
	"github.com/starford/catadmin/internal/resource"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error    string   `json:"error" validate:"required"`
	Messages []string `json:"messages,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusOf maps a view or store error to an HTTP status. Failures of the
// catalog API itself surface as 502.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnknownResource), errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidRef), errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, resource.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
