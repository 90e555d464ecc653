package views

import (
	"context"
	"fmt"

	"github.com/starford/catadmin/internal/apperr"
	"github.com/starford/catadmin/internal/catalog"
	"github.com/starford/catadmin/internal/resource"
)

// EditPage is the model of an edit view.
type EditPage[R catalog.Record] struct {
	Resource  string                          `json:"resource"`
	Ref       catalog.Ref                     `json:"ref"`
	IsNew     bool                            `json:"isNew"`
	Title     string                          `json:"title"`
	Record    *R                              `json:"record"`
	Lookups   map[string][]catalog.LookupItem `json:"lookups"`
	Loading   bool                            `json:"loading"`
	Errors    []string                        `json:"errors"`
	LastError string                          `json:"lastError,omitempty"`
	Statuses  []catalog.Status                `json:"statuses"`
}

// SubmitResult is the outcome of an edit form submit.
type SubmitResult struct {
	OK          bool              `json:"ok"`
	ID          int64             `json:"id,omitempty"`
	Redirect    string            `json:"redirect,omitempty"`
	Record      any               `json:"record,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
	LastError   string            `json:"lastError,omitempty"`
	Notice      Notice            `json:"notice"`
}

// Invalid reports whether the form was rejected before reaching the API.
func (r SubmitResult) Invalid() bool {
	return len(r.FieldErrors) > 0
}

// DeleteResult is the outcome of a delete action.
type DeleteResult struct {
	Redirect string   `json:"redirect,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Notice   Notice   `json:"notice"`
}

// EditView drives the create/edit form of one resource. Like ListView it
// owns its store.
type EditView[R catalog.Form[R]] struct {
	store *resource.Store[R]
}

// NewEditView returns an edit view over store.
func NewEditView[R catalog.Form[R]](store *resource.Store[R]) *EditView[R] {
	return &EditView[R]{store: store}
}

// Open loads the lookups and, for an existing ref, the record.
func (v *EditView[R]) Open(ctx context.Context, ref catalog.Ref) (EditPage[R], error) {
	err := v.store.FetchOne(ctx, ref)
	return v.page(ref), err
}

func (v *EditView[R]) page(ref catalog.Ref) EditPage[R] {
	def := v.store.Definition()
	st := v.store.Snapshot()

	p := EditPage[R]{
		Resource:  def.Name,
		Ref:       ref,
		IsNew:     ref.IsNew(),
		Lookups:   st.Lookups,
		Loading:   st.IsLoading,
		Errors:    st.Errors,
		LastError: st.LastError(),
		Statuses:  catalog.Statuses,
	}
	if !ref.IsNew() {
		for i := range st.Records {
			if catalog.RefOf(st.Records[i].RecordID()) == ref {
				p.Record = &st.Records[i]
				break
			}
		}
	}
	p.Title = pageTitle(def, p.IsNew, p.Record)
	return p
}

func pageTitle[R catalog.Record](def catalog.Definition, isNew bool, rec *R) string {
	prefix := "Edit"
	if isNew {
		prefix = "New"
	}
	if rec != nil && (*rec).RecordTitle() != "" {
		return fmt.Sprintf("%s %q %s", prefix, (*rec).RecordTitle(), def.Singular)
	}
	return prefix + " " + def.Singular
}

// Submit validates form, saves it and reports where the editor goes next.
// With publish set the record is saved as published. Invalid forms never
// reach the store.
func (v *EditView[R]) Submit(ctx context.Context, ref catalog.Ref, form R, publish bool) SubmitResult {
	def := v.store.Definition()

	data := form.Normalized()
	if publish {
		data = data.WithStatus(catalog.StatusPublished)
	}
	if err := data.Validate(); err != nil {
		fields := catalog.FieldErrors(err)
		if fields == nil {
			fields = map[string]string{"": err.Error()}
		}
		return SubmitResult{FieldErrors: fields, Notice: saveFailedNotice(def)}
	}

	id, ok := v.store.Save(ctx, ref, data)
	st := v.store.Snapshot()
	if !ok {
		return SubmitResult{
			Errors:    st.Errors,
			LastError: st.LastError(),
			Notice:    saveFailedNotice(def),
		}
	}

	res := SubmitResult{OK: true, ID: id, Notice: savedNotice(def)}
	if ref.IsNew() {
		res.Redirect = def.EditPath(catalog.RefOf(id))
	}
	if len(st.Records) == 1 {
		res.Record = st.Records[0]
	}
	return res
}

// Delete removes record ref and sends the editor back to the list.
func (v *EditView[R]) Delete(ctx context.Context, ref catalog.Ref) (DeleteResult, error) {
	def := v.store.Definition()
	if err := v.store.Remove(ctx, ref); err != nil {
		return DeleteResult{
			Errors: apperr.Messages(err),
			Notice: removeFailedNotice(def),
		}, err
	}
	return DeleteResult{Redirect: def.AdminPath(), Notice: removedNotice(def)}, nil
}
