package listquery

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names and their defaults.
const (
	ParamPage    = "page"
	ParamSize    = "size"
	ParamFilters = "filters"

	DefaultPage = 1
	DefaultSize = 10
)

// PageQuery is the decoded state of a list view.
type PageQuery struct {
	Page    int
	Size    int
	Filters *FilterState
}

// NewPageQuery returns the default query: first page, ten rows, no filters.
func NewPageQuery() PageQuery {
	return PageQuery{Page: DefaultPage, Size: DefaultSize, Filters: NewFilterState()}
}

// Offset returns the zero-based index of the first row of the page.
func (q PageQuery) Offset() int {
	if q.Page < 1 || q.Size < 1 {
		return 0
	}
	return (q.Page - 1) * q.Size
}

// RawFilters returns the filters parameter value for q.
func (q PageQuery) RawFilters() string {
	return EncodeFilters(q.Filters)
}

// Equal reports whether q and o describe the same page and filters.
func (q PageQuery) Equal(o PageQuery) bool {
	return q.Page == o.Page && q.Size == o.Size && q.Filters.Equal(o.Filters)
}

// Decode parses a list URL query string. A leading '?' is ignored. It never
// fails: a missing or malformed page or size falls back to its default, and
// a malformed filters value degrades to no filter.
func Decode(query string) PageQuery {
	q := NewPageQuery()

	// ParseQuery rejects a pair holding a literal ';', which is the filters
	// clause separator, so it is escaped first. ParseQuery keeps every pair
	// it managed to parse, so a bad escape in one parameter does not lose
	// the others.
	raw := strings.ReplaceAll(strings.TrimPrefix(query, "?"), clauseSep, "%3B")
	values, _ := url.ParseQuery(raw)

	q.Page = positiveOr(values.Get(ParamPage), DefaultPage)
	q.Size = positiveOr(values.Get(ParamSize), DefaultSize)
	q.Filters = DecodeFilters(values.Get(ParamFilters))
	return q
}

// Encode renders q as a query string without the leading '?'. Parameters
// are emitted as page, size, filters; filters is left out when no filter is
// active. The ':' and ',' of the filters grammar are kept literal.
func Encode(q PageQuery) string {
	page, size := q.Page, q.Size
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultSize
	}

	var b strings.Builder
	b.WriteString(ParamPage + "=" + strconv.Itoa(page))
	b.WriteString("&" + ParamSize + "=" + strconv.Itoa(size))
	if filters := EncodeFilters(q.Filters); filters != "" {
		b.WriteString("&" + ParamFilters + "=" + EscapeParam(filters))
	}
	return b.String()
}

var literalReplacer = strings.NewReplacer("%3A", ":", "%2C", ",")

// EscapeParam query-escapes s but leaves ':' and ',' untouched, the way the
// catalog API expects filter values on the wire.
func EscapeParam(s string) string {
	return literalReplacer.Replace(url.QueryEscape(s))
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
