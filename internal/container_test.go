package internal

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/catadmin/internal/journal"
	"github.com/starford/catadmin/internal/mcpserver"
)

func newTestContainer(t *testing.T, upstream http.Handler) *do.RootScope {
	t.Helper()

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := NewDefaultConfig()
	cfg.API.BaseURL = server.URL
	cfg.API.RateLimit.RPS = 0
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	require.NoError(t, cfg.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	injector := newContainer(cfg, logger, "test")
	t.Cleanup(func() { _ = injector.Shutdown() })
	return injector
}

func TestContainer_RouterServesResources(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/models":
			_, _ = w.Write([]byte(`{"models":[{"id":7,"title":"Model 3","brandId":1}],"total":1}`))
		case "/api/models/brands":
			_, _ = w.Write([]byte(`[{"id":1,"title":"Tesla"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
		}
	})
	injector := newTestContainer(t, upstream)

	router, err := do.Invoke[http.Handler](injector)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/models?page=1", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Page struct {
			Total   int               `json:"total"`
			Records []json.RawMessage `json:"records"`
		} `json:"page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Page.Total)
	assert.Len(t, body.Page.Records, 1)

	entries, err := do.MustInvoke[*journal.DB](injector).Recent(t.Context(), 10, "models")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fetch_list", entries[0].Op)
}

func TestContainer_MCPServer(t *testing.T) {
	injector := newTestContainer(t, http.NotFoundHandler())

	srv, err := do.Invoke[*mcpserver.Server](injector)
	require.NoError(t, err)
	assert.NotNil(t, srv.MCPServer())
}

func TestContainer_ShutdownClosesJournal(t *testing.T) {
	injector := newTestContainer(t, http.NotFoundHandler())
	db := do.MustInvoke[*journal.DB](injector)

	require.NoError(t, injector.Shutdown())
	assert.Error(t, db.Ping(t.Context()))
}
