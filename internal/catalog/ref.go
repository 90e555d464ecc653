package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/catadmin/internal/apperr"
)

// NewRef is the reference of a record that has not been created yet.
const NewRef Ref = "new"

// Ref addresses a record in URLs and store operations: either a positive
// numeric id or NewRef.
type Ref string

// ParseRef validates a path segment as a record reference. An empty string
// is read as NewRef.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == string(NewRef) {
		return NewRef, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidRef, s)
	}
	return RefOf(id), nil
}

// RefOf returns the reference of an existing record.
func RefOf(id int64) Ref {
	return Ref(strconv.FormatInt(id, 10))
}

// IsNew reports whether r routes saves to create instead of update.
func (r Ref) IsNew() bool {
	return r == "" || r == NewRef
}

// ID returns the numeric id, or 0 for NewRef.
func (r Ref) ID() int64 {
	if r.IsNew() {
		return 0
	}
	id, _ := strconv.ParseInt(string(r), 10, 64)
	return id
}

func (r Ref) String() string {
	if r == "" {
		return string(NewRef)
	}
	return string(r)
}
