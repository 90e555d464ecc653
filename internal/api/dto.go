package api

import "encoding/json"

// SaveRequest is the body of POST /admin/{resource}/{id}.
type SaveRequest struct {
	Record  json.RawMessage `json:"record" validate:"required"`
	Publish bool            `json:"publish" example:"false"`
}

// PageResponse wraps a list or edit page together with an error raised
// while loading it.
type PageResponse struct {
	Page     any      `json:"page"`
	Error    string   `json:"error,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty"`
}
