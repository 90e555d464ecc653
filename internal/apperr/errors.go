// Package apperr defines the errors shared across the admin packages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownResource = errors.New("unknown resource")
	ErrInvalidRef      = errors.New("invalid record reference")
	ErrValidation      = errors.New("validation failed")
)

// APIError is a non-2xx response from the catalog API. Message holds the
// server's message field, which may span several lines.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// Is matches ErrNotFound for 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Messages splits Message on newlines, dropping blank lines.
func (e *APIError) Messages() []string {
	return SplitMessages(e.Message)
}

// SplitMessages splits a multi-line server message into display lines.
func SplitMessages(msg string) []string {
	lines := strings.Split(msg, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimRight(l, "\r"); strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// Messages returns the display lines for any error: the server's messages
// for an *APIError, the error text otherwise.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msgs := apiErr.Messages(); len(msgs) > 0 {
			return msgs
		}
		return []string{http.StatusText(apiErr.Status)}
	}
	return SplitMessages(err.Error())
}
