package resource

import "github.com/starford/catadmin/internal/catalog"

// Factory builds stores of one resource that share an API client and
// options. Servers take a fresh store per request so that concurrent
// callers never cancel or overwrite each other's reads.
type Factory[R catalog.Record] struct {
	def  catalog.Definition
	api  API
	opts []Option
}

// NewFactory returns a factory of stores for def.
func NewFactory[R catalog.Record](def catalog.Definition, api API, opts ...Option) *Factory[R] {
	return &Factory[R]{def: def, api: api, opts: opts}
}

// Definition returns the resource definition of the built stores.
func (f *Factory[R]) Definition() catalog.Definition {
	return f.def
}

// New returns a store in its initial state.
func (f *Factory[R]) New() *Store[R] {
	return New[R](f.def, f.api, f.opts...)
}
