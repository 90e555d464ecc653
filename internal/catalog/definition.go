package catalog

import (
	"fmt"
	"sort"

	"github.com/starford/catadmin/internal/apperr"
)

// Lookup names a related list fetched to fill an editor's relation picker.
type Lookup struct {
	Name string // key under which the list is kept in the store
	Path string // API path returning [{id, title}, ...]

	// OnList also loads the lookup with every list page, for filter pickers.
	OnList bool
}

// Definition describes how one resource type maps onto the REST API.
type Definition struct {
	Name     string // plural, used in URLs: "brands"
	Singular string // used in notices: "brand"
	APIPath  string // collection endpoint: "/api/brands"
	ListKey  string // list envelope key: {"brands": [...], "total": n}
	Lookups  []Lookup
}

// ListLookups returns the lookups loaded with list pages.
func (d Definition) ListLookups() []Lookup {
	var out []Lookup
	for _, l := range d.Lookups {
		if l.OnList {
			out = append(out, l)
		}
	}
	return out
}

// RecordPath returns the endpoint of a single record.
func (d Definition) RecordPath(ref Ref) string {
	return d.APIPath + "/" + ref.String()
}

// AdminPath returns the list view path of the resource.
func (d Definition) AdminPath() string {
	return "/admin/" + d.Name
}

// EditPath returns the edit view path of a record.
func (d Definition) EditPath(ref Ref) string {
	return d.AdminPath() + "/" + ref.String()
}

func lookup(resource, name string) Lookup {
	return Lookup{Name: name, Path: "/api/" + resource + "/" + name}
}

// The five catalog resources.
var (
	Brands = Definition{
		Name: "brands", Singular: "brand", APIPath: "/api/brands", ListKey: "brands",
		Lookups: []Lookup{lookup("brands", "models")},
	}
	Models = Definition{
		Name: "models", Singular: "model", APIPath: "/api/models", ListKey: "models",
		Lookups: []Lookup{
			{Name: "brands", Path: "/api/models/brands", OnList: true},
			lookup("models", "ratings"),
		},
	}
	Ratings = Definition{
		Name: "ratings", Singular: "rating", APIPath: "/api/ratings", ListKey: "ratings",
		Lookups: []Lookup{lookup("ratings", "models")},
	}
	Galleries = Definition{
		Name: "galleries", Singular: "gallery", APIPath: "/api/galleries", ListKey: "galleries",
		Lookups: []Lookup{lookup("galleries", "models")},
	}
	Specs = Definition{
		Name: "specs", Singular: "spec", APIPath: "/api/specs", ListKey: "specs",
		Lookups: []Lookup{lookup("specs", "models")},
	}
)

// Registry indexes definitions by name.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns a registry holding defs.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		r.defs[d.Name] = d
	}
	return r
}

// DefaultRegistry returns a registry of the five catalog resources.
func DefaultRegistry() *Registry {
	return NewRegistry(Brands, Models, Ratings, Galleries, Specs)
}

// Get returns the definition named name.
func (r *Registry) Get(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", apperr.ErrUnknownResource, name)
	}
	return d, nil
}

// Names returns the registered resource names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
