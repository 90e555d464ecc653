package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/catadmin/internal/views"
)

// Deps are the collaborators of the admin router.
type Deps struct {
	Resources   *views.Set
	Activity    ActivityLog
	Events      http.Handler
	Ready       func(ctx context.Context) error
	CORSOrigins []string
}

// NewRouter creates a chi router with the health endpoints and all admin
// routes mounted under /admin.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Resources, d.Activity)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(d.CORSOrigins))

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	})

	r.Route("/admin", func(r chi.Router) {
		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
		if d.Activity != nil {
			r.Get("/activity", h.Activity)
		}
		r.Get("/{resource}", h.List)
		r.Get("/{resource}/{id}", h.Edit)
		r.Post("/{resource}/{id}", h.Save)
		r.Delete("/{resource}/{id}", h.Delete)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	})

	return r
}
