package views

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/starford/catadmin/internal/apperr"
	"github.com/starford/catadmin/internal/catalog"
	"github.com/starford/catadmin/internal/listquery"
	"github.com/starford/catadmin/internal/resource"
)

// Resource is a list and edit view pair addressed by resource name, with
// records exchanged as JSON. The HTTP and MCP surfaces use it.
type Resource interface {
	Definition() catalog.Definition
	ListPage(ctx context.Context, rawQuery string) (any, error)
	EditPage(ctx context.Context, ref catalog.Ref) (any, error)
	SubmitJSON(ctx context.Context, ref catalog.Ref, record json.RawMessage, publish bool) (SubmitResult, error)
	Delete(ctx context.Context, ref catalog.Ref) (DeleteResult, error)
	Navigate(page, size int, filters string) string
}

// Binding adapts the typed views of one resource to Resource. Every call
// runs on its own store, so requests served concurrently stay isolated.
type Binding[R catalog.Form[R]] struct {
	stores *resource.Factory[R]
}

// Bind builds the views of the stores made by stores.
func Bind[R catalog.Form[R]](stores *resource.Factory[R]) *Binding[R] {
	return &Binding[R]{stores: stores}
}

func (b *Binding[R]) Definition() catalog.Definition { return b.stores.Definition() }

func (b *Binding[R]) ListPage(ctx context.Context, rawQuery string) (any, error) {
	return NewListView(b.stores.New()).Load(ctx, rawQuery)
}

func (b *Binding[R]) EditPage(ctx context.Context, ref catalog.Ref) (any, error) {
	return NewEditView(b.stores.New()).Open(ctx, ref)
}

// SubmitJSON decodes record into the resource type and submits it. It
// fails only when record is not valid JSON for the type.
func (b *Binding[R]) SubmitJSON(ctx context.Context, ref catalog.Ref, record json.RawMessage, publish bool) (SubmitResult, error) {
	var form R
	if err := json.Unmarshal(record, &form); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: decode %s: %v", apperr.ErrValidation, b.stores.Definition().Singular, err)
	}
	return NewEditView(b.stores.New()).Submit(ctx, ref, form, publish), nil
}

func (b *Binding[R]) Delete(ctx context.Context, ref catalog.Ref) (DeleteResult, error) {
	return NewEditView(b.stores.New()).Delete(ctx, ref)
}

func (b *Binding[R]) Navigate(page, size int, filters string) string {
	return listURL(b.stores.Definition(), page, size, listquery.DecodeFilters(filters))
}

// Set holds the resources served by the admin.
type Set struct {
	byName map[string]Resource
}

// NewSet indexes resources by definition name.
func NewSet(resources ...Resource) *Set {
	s := &Set{byName: make(map[string]Resource, len(resources))}
	for _, r := range resources {
		s.byName[r.Definition().Name] = r
	}
	return s
}

// Get returns the resource named name.
func (s *Set) Get(name string) (Resource, error) {
	r, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrUnknownResource, name)
	}
	return r, nil
}

// Names returns the resource names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.byName))
	for n := range s.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
