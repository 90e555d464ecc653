package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/catadmin/internal/apperr"
	"github.com/starford/catadmin/internal/catalog"
	"github.com/starford/catadmin/internal/journal"
	"github.com/starford/catadmin/internal/views"
)

// ActivityLog lists journaled store operations.
type ActivityLog interface {
	Recent(ctx context.Context, limit int, resource string) ([]journal.Entry, error)
}

// Handler holds admin route handlers.
type Handler struct {
	resources *views.Set
	activity  ActivityLog
}

// NewHandler creates a new Handler.
func NewHandler(resources *views.Set, activity ActivityLog) *Handler {
	return &Handler{resources: resources, activity: activity}
}

func (h *Handler) resource(w http.ResponseWriter, r *http.Request) (views.Resource, bool) {
	res, err := h.resources.Get(chi.URLParam(r, "resource"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return nil, false
	}
	return res, true
}

func (h *Handler) ref(w http.ResponseWriter, r *http.Request) (catalog.Ref, bool) {
	ref, err := catalog.ParseRef(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return "", false
	}
	return ref, true
}

// writePage writes a page, attaching err when loading it failed.
func writePage(w http.ResponseWriter, page any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, PageResponse{Page: page})
		return
	}
	writeJSON(w, statusOf(err), PageResponse{
		Page:     page,
		Error:    err.Error(),
		Messages: apperr.Messages(err),
	})
}

// List handles GET /admin/{resource}.
//
//	@Summary		Load a list page
//	@Tags			admin
//	@Produce		json
//	@Param			resource	path		string	true	"Resource name"	Enums(brands, models, ratings, galleries, specs)
//	@Param			page		query		int		false	"Page number"
//	@Param			size		query		int		false	"Page size"
//	@Param			filters		query		string	false	"Filters, key:v1,v2;key2:v"
//	@Success		200			{object}	PageResponse
//	@Failure		404			{object}	errResponse
//	@Router			/admin/{resource} [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	page, err := res.ListPage(r.Context(), r.URL.RawQuery)
	if err != nil {
		slog.Warn("list page failed",
			slog.String("resource", res.Definition().Name),
			slog.String("error", err.Error()))
	}
	writePage(w, page, err)
}

// Edit handles GET /admin/{resource}/{id}.
//
//	@Summary		Load an edit page
//	@Tags			admin
//	@Produce		json
//	@Param			resource	path		string	true	"Resource name"
//	@Param			id			path		string	true	"Record id or new"
//	@Success		200			{object}	PageResponse
//	@Failure		404			{object}	PageResponse
//	@Router			/admin/{resource}/{id} [get]
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	ref, ok := h.ref(w, r)
	if !ok {
		return
	}
	page, err := res.EditPage(r.Context(), ref)
	writePage(w, page, err)
}

// Save handles POST /admin/{resource}/{id}.
//
//	@Summary		Create or update a record
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			resource	path		string		true	"Resource name"
//	@Param			id			path		string		true	"Record id or new"
//	@Param			body		body		SaveRequest	true	"Record and publish flag"
//	@Success		200			{object}	views.SubmitResult
//	@Failure		400			{object}	views.SubmitResult
//	@Failure		422			{object}	views.SubmitResult
//	@Router			/admin/{resource}/{id} [post]
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	ref, ok := h.ref(w, r)
	if !ok {
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Record) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	out, err := res.SubmitJSON(r.Context(), ref, req.Record, req.Publish)
	switch {
	case err != nil:
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case out.Invalid():
		writeJSON(w, http.StatusUnprocessableEntity, out)
	case !out.OK:
		writeJSON(w, http.StatusBadRequest, out)
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

// Delete handles DELETE /admin/{resource}/{id}.
//
//	@Summary		Delete a record
//	@Tags			admin
//	@Produce		json
//	@Param			resource	path		string	true	"Resource name"
//	@Param			id			path		int		true	"Record id"
//	@Success		200			{object}	views.DeleteResult
//	@Failure		404			{object}	views.DeleteResult
//	@Router			/admin/{resource}/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	ref, ok := h.ref(w, r)
	if !ok {
		return
	}
	out, err := res.Delete(r.Context(), ref)
	if err != nil {
		writeJSON(w, statusOf(err), out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Activity handles GET /admin/activity.
//
//	@Summary		List recent store operations
//	@Tags			admin
//	@Produce		json
//	@Param			limit		query		int		false	"Maximum entries, 50 by default, at most 500"
//	@Param			resource	query		string	false	"Resource name"
//	@Success		200			{object}	[]journal.Entry
//	@Router			/admin/activity [get]
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	limit = journal.ClampLimit(limit)
	name := q.Get("resource")
	if name != "" {
		if _, err := h.resources.Get(name); errors.Is(err, apperr.ErrUnknownResource) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
	}

	entries, err := h.activity.Recent(r.Context(), limit, name)
	if err != nil {
		slog.Error("activity failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
