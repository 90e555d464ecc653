package resource

import (
	"slices"
	"time"

	"github.com/starford/catadmin/internal/catalog"
)

// State is the observable state of a Store.
type State[R catalog.Record] struct {
	IsLoading  bool                            `json:"isLoading"`
	Records    []R                             `json:"records"`
	Total      int                             `json:"total"`
	Lookups    map[string][]catalog.LookupItem `json:"lookups"`
	Errors     []string                        `json:"errors"`
	Generation uint64                          `json:"generation"`
}

func newState[R catalog.Record]() State[R] {
	return State[R]{
		Records: []R{},
		Lookups: map[string][]catalog.LookupItem{},
		Errors:  []string{},
	}
}

// LastError returns the final error message, shown with emphasis by editors.
func (s State[R]) LastError() string {
	if len(s.Errors) == 0 {
		return ""
	}
	return s.Errors[len(s.Errors)-1]
}

func (s State[R]) clone() State[R] {
	out := s
	out.Records = slices.Clone(s.Records)
	out.Errors = slices.Clone(s.Errors)
	out.Lookups = make(map[string][]catalog.LookupItem, len(s.Lookups))
	for k, v := range s.Lookups {
		out.Lookups[k] = slices.Clone(v)
	}
	return out
}

// Op names a store operation.
type Op string

const (
	OpFetchList Op = "fetch_list"
	OpFetchOne  Op = "fetch_one"
	OpSave      Op = "save"
	OpRemove    Op = "remove"
)

// Outcome is how an operation ended.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
	// OutcomeStale marks a response dropped because a newer operation
	// started before it arrived.
	OutcomeStale Outcome = "stale"
)

// Change summarizes a state transition for out-of-process listeners.
type Change struct {
	Resource   string   `json:"resource"`
	Generation uint64   `json:"generation"`
	IsLoading  bool     `json:"isLoading"`
	Total      int      `json:"total"`
	Errors     []string `json:"errors"`
}

// Result describes a completed operation.
type Result struct {
	Resource   string
	Op         Op
	Ref        catalog.Ref
	ID         int64
	Generation uint64
	Outcome    Outcome
	Err        string
	Started    time.Time
	Duration   time.Duration
}
