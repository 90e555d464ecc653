// Package listquery encodes list page state (page, size and column filters)
// into the query string shared by every list view, and decodes it back.
//
// The filters parameter uses a small sub-grammar:
//
//	filters = clause *( ";" clause )
//	clause  = key ":" value *( "," value )
//	key     = field *( "." field )
//
// so "status:published,warning;brand.title:Acme" filters the status column
// on two values and the nested brand title on one.
package listquery

import (
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	clauseSep = ";"
	keySep    = ":"
	valueSep  = ","
)

// Value is the list of values selected for one filter key.
// A nil Value means the filter is not set.
type Value []string

// FilterState maps a dotted field path to its selected values, keeping the
// order in which keys were first set.
type FilterState struct {
	m *orderedmap.OrderedMap[string, Value]
}

// NewFilterState returns an empty FilterState.
func NewFilterState() *FilterState {
	return &FilterState{m: orderedmap.New[string, Value]()}
}

// Set stores values under key. Setting a key that already exists replaces
// its values but keeps its position. Calling Set with no values records a
// null filter, which is kept but never active.
func (f *FilterState) Set(key string, values ...string) {
	f.init()
	if len(values) == 0 {
		f.m.Set(key, nil)
		return
	}
	f.m.Set(key, slices.Clone(Value(values)))
}

// Get returns the values stored under key. ok is false when the key is
// absent or its value is null.
func (f *FilterState) Get(key string) (Value, bool) {
	if f == nil || f.m == nil {
		return nil, false
	}
	v, ok := f.m.Get(key)
	if !ok || v == nil {
		return nil, false
	}
	return slices.Clone(v), true
}

// Active reports whether key carries at least one value.
func (f *FilterState) Active(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Delete removes key.
func (f *FilterState) Delete(key string) {
	if f == nil || f.m == nil {
		return
	}
	f.m.Delete(key)
}

// Len returns the number of active filters.
func (f *FilterState) Len() int {
	return len(f.Keys())
}

// Keys returns the active filter keys in insertion order.
func (f *FilterState) Keys() []string {
	if f == nil || f.m == nil {
		return nil
	}
	keys := make([]string, 0, f.m.Len())
	for pair := f.m.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value != nil {
			keys = append(keys, pair.Key)
		}
	}
	return keys
}

// Map returns the active filters as a plain map.
func (f *FilterState) Map() map[string][]string {
	out := make(map[string][]string)
	for _, k := range f.Keys() {
		v, _ := f.Get(k)
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of f.
func (f *FilterState) Clone() *FilterState {
	c := NewFilterState()
	if f == nil || f.m == nil {
		return c
	}
	for pair := f.m.Oldest(); pair != nil; pair = pair.Next() {
		c.m.Set(pair.Key, slices.Clone(pair.Value))
	}
	return c
}

// Equal reports whether f and o carry the same active keys with the same
// value sets. Key order and value order are ignored.
func (f *FilterState) Equal(o *FilterState) bool {
	fk, ok := f.Keys(), o.Keys()
	if len(fk) != len(ok) {
		return false
	}
	for _, k := range fk {
		a, _ := f.Get(k)
		b, found := o.Get(k)
		if !found {
			return false
		}
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			return false
		}
	}
	return true
}

func (f *FilterState) init() {
	if f.m == nil {
		f.m = orderedmap.New[string, Value]()
	}
}

// DecodeFilters parses the filters sub-grammar. Clauses without a ':' and
// empty clauses are dropped. When a key repeats, the last clause wins.
func DecodeFilters(s string) *FilterState {
	f := NewFilterState()
	for _, clause := range strings.Split(s, clauseSep) {
		if clause == "" {
			continue
		}
		key, raw, found := strings.Cut(clause, keySep)
		if !found || key == "" {
			continue
		}
		f.Set(key, strings.Split(raw, valueSep)...)
	}
	return f
}

// EncodeFilters renders f in the filters sub-grammar. Null filters are
// skipped; an empty string means no filter is active.
func EncodeFilters(f *FilterState) string {
	keys := f.Keys()
	if len(keys) == 0 {
		return ""
	}
	clauses := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := f.Get(k)
		clauses = append(clauses, k+keySep+strings.Join(v, valueSep))
	}
	return strings.Join(clauses, clauseSep)
}
