package views

import (
	"context"

	"github.com/starford/catadmin/internal/catalog"
	"github.com/starford/catadmin/internal/listquery"
	"github.com/starford/catadmin/internal/resource"
)

// ListPage is the model of a list view.
type ListPage[R catalog.Record] struct {
	Resource string                          `json:"resource"`
	Page     int                             `json:"page"`
	Size     int                             `json:"size"`
	Filters  map[string][]string             `json:"filters"`
	Records  []R                             `json:"records"`
	Total    int                             `json:"total"`
	Lookups  map[string][]catalog.LookupItem `json:"lookups"`
	Loading  bool                            `json:"loading"`
	Errors   []string                        `json:"errors"`
	NewPath  string                          `json:"newPath"`
}

// ListView drives the paginated, filterable list of one resource. It
// reads its page back from the store, so the store must not be shared
// with other callers.
type ListView[R catalog.Record] struct {
	store *resource.Store[R]
}

// NewListView returns a list view over store.
func NewListView[R catalog.Record](store *resource.Store[R]) *ListView[R] {
	return &ListView[R]{store: store}
}

// Load decodes the list URL query, fetches the page and returns its model.
// The page reflects the store state even when the fetch fails.
func (v *ListView[R]) Load(ctx context.Context, rawQuery string) (ListPage[R], error) {
	q := listquery.Decode(rawQuery)
	err := v.store.FetchList(ctx, q.Page, q.Size, listquery.EncodeFilters(q.Filters))

	def := v.store.Definition()
	st := v.store.Snapshot()
	return ListPage[R]{
		Resource: def.Name,
		Page:     q.Page,
		Size:     q.Size,
		Filters:  q.Filters.Map(),
		Records:  st.Records,
		Total:    st.Total,
		Lookups:  st.Lookups,
		Loading:  st.IsLoading,
		Errors:   st.Errors,
		NewPath:  def.EditPath(catalog.NewRef),
	}, err
}

// Navigate returns the list URL for a page change or a filter change.
func (v *ListView[R]) Navigate(page, size int, filters *listquery.FilterState) string {
	return listURL(v.store.Definition(), page, size, filters)
}

func listURL(def catalog.Definition, page, size int, filters *listquery.FilterState) string {
	return def.AdminPath() + "?" + listquery.Encode(listquery.PageQuery{
		Page:    page,
		Size:    size,
		Filters: filters,
	})
}
