package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/catadmin/internal/apiclient"
	"github.com/starford/catadmin/internal/catalog"
	"github.com/starford/catadmin/internal/journal"
	"github.com/starford/catadmin/internal/resource"
	"github.com/starford/catadmin/internal/sse"
	"github.com/starford/catadmin/internal/views"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// upstream is an in-memory catalog API serving brands.
type upstream struct {
	mu        sync.Mutex
	brands    map[int64]catalog.Brand
	nextID    int64
	saveError string
	queries   []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	rest := strings.TrimPrefix(r.URL.Path, "/api/brands")
	switch {
	case rest == "/models":
		writeJSON(w, http.StatusOK, []catalog.LookupItem{{ID: 1, Title: "Model S"}})
	case rest == "" && r.Method == http.MethodGet:
		u.queries = append(u.queries, r.URL.RawQuery)
		list := []catalog.Brand{}
		for _, b := range u.brands {
			list = append(list, b)
		}
		writeJSON(w, http.StatusOK, map[string]any{"brands": list, "total": 25})
	case rest == "" && r.Method == http.MethodPost:
		if u.saveError != "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": u.saveError})
			return
		}
		var b catalog.Brand
		_ = json.NewDecoder(r.Body).Decode(&b)
		u.nextID++
		b.ID = u.nextID
		u.brands[b.ID] = b
		writeJSON(w, http.StatusOK, b)
	default:
		id, _ := strconv.ParseInt(strings.TrimPrefix(rest, "/"), 10, 64)
		b, ok := u.brands[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Brand not found"})
			return
		}
		if r.Method == http.MethodDelete {
			delete(u.brands, id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

type testEnv struct {
	router   http.Handler
	upstream *upstream
	journal  *journal.DB
}

func newTestEnv(t *testing.T, ready func(context.Context) error) *testEnv {
	t.Helper()

	up := &upstream{brands: map[int64]catalog.Brand{}, nextID: 10}
	server := httptest.NewServer(up)
	t.Cleanup(server.Close)

	db, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)

	api := apiclient.New(apiclient.Options{BaseURL: server.URL}, quietLogger)
	stores := resource.NewFactory[catalog.Brand](catalog.Brands, api,
		resource.WithLogger(quietLogger),
		resource.WithOnChange(broker.PublishChange),
		resource.WithOnResult(db.Recorder(quietLogger)))

	if ready == nil {
		ready = db.Ping
	}
	router := NewRouter(Deps{
		Resources:   views.NewSet(views.Bind(stores)),
		Activity:    db,
		Events:      broker,
		Ready:       ready,
		CORSOrigins: []string{"http://admin.local"},
	})
	return &testEnv{router: router, upstream: up, journal: db}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func validBrand(title string) catalog.Brand {
	return catalog.Brand{Content: catalog.Content{
		Title:       title,
		Keywords:    "cars,ev",
		Description: "A car maker",
		Content:     "<p>About</p>",
		Thumbnail:   "/t.jpg",
		Image:       "/i.jpg",
	}}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil).Code)

	down := newTestEnv(t, func(context.Context) error { return errors.New("db closed") })
	w := down.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "db closed", decode(t, w)["error"])
}

func TestListPage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.upstream.brands[1] = validBrand("Tesla")

	w := env.do(t, http.MethodGet, "/admin/brands?page=2&size=10&filters=status:published", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page := decode(t, w)["page"].(map[string]any)
	assert.Equal(t, float64(25), page["total"])
	assert.Equal(t, float64(2), page["page"])
	assert.Len(t, page["records"], 1)
	assert.Equal(t, []string{"page=2&size=10&filters=status:published"}, env.upstream.queries)
}

func TestListPage_MultipleFilterClauses(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/admin/brands?filters=status:published;brand.title:Acme", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page := decode(t, w)["page"].(map[string]any)
	assert.Equal(t, map[string]any{
		"status":      []any{"published"},
		"brand.title": []any{"Acme"},
	}, page["filters"])
	assert.Equal(t, []string{"page=1&size=10&filters=status:published%3Bbrand.title:Acme"}, env.upstream.queries)
}

func TestUnknownResource(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, target := range []string{"/admin/widgets", "/admin/widgets/1", "/nowhere"} {
		w := env.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Equal(t, "not found", decode(t, w)["error"])
	}
}

func TestEditPage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.upstream.brands[4] = validBrand("Lucid")

	w := env.do(t, http.MethodGet, "/admin/brands/new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)["page"].(map[string]any)
	assert.Nil(t, page["record"])
	assert.Equal(t, "New brand", page["title"])

	w = env.do(t, http.MethodGet, "/admin/brands/4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode(t, w)["page"].(map[string]any)
	assert.Equal(t, "Lucid", page["record"].(map[string]any)["title"])

	w = env.do(t, http.MethodGet, "/admin/brands/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []any{"Brand not found"}, decode(t, w)["messages"])

	w = env.do(t, http.MethodGet, "/admin/brands/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSave(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/admin/brands/new", SaveRequest{Record: mustJSON(t, validBrand("Rivian")), Publish: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "/admin/brands/11", out["redirect"])
	assert.Equal(t, "Brand successfully saved!", out["notice"].(map[string]any)["text"])
	assert.Equal(t, catalog.StatusPublished, env.upstream.brands[11].Status)
}

func TestSave_Invalid(t *testing.T) {
	env := newTestEnv(t, nil)
	form := validBrand("Rivian")
	form.Keywords = ""

	w := env.do(t, http.MethodPost, "/admin/brands/new", SaveRequest{Record: mustJSON(t, form)})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode(t, w)["fieldErrors"].(map[string]any)
	assert.Contains(t, fields, "keywords")
	assert.Empty(t, env.upstream.brands)
}

func TestSave_UpstreamError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.upstream.saveError = "Slug is taken\nTitle is taken"

	w := env.do(t, http.MethodPost, "/admin/brands/new", SaveRequest{Record: mustJSON(t, validBrand("Rivian"))})
	require.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, []any{"Slug is taken", "Title is taken"}, out["errors"])
	assert.Equal(t, "Title is taken", out["lastError"])
}

func TestSave_BadBody(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/brands/new", strings.NewReader(`{"record":`))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/admin/brands/new", map[string]any{"record": []int{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	env.upstream.brands[3] = validBrand("Gone")

	w := env.do(t, http.MethodDelete, "/admin/brands/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/admin/brands", decode(t, w)["redirect"])

	w = env.do(t, http.MethodDelete, "/admin/brands/3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActivity(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/admin/brands", nil)
	env.do(t, http.MethodGet, "/admin/brands/77", nil)

	w := env.do(t, http.MethodGet, "/admin/activity?resource=brands&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode(t, w)["entries"].([]any)
	require.Len(t, entries, 2)
	latest := entries[0].(map[string]any)
	assert.Equal(t, "fetch_one", latest["op"])
	assert.Equal(t, "error", latest["outcome"])

	w = env.do(t, http.MethodGet, "/admin/activity?resource=widgets", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type recordingActivity struct {
	limits []int
}

func (a *recordingActivity) Recent(_ context.Context, limit int, _ string) ([]journal.Entry, error) {
	a.limits = append(a.limits, limit)
	return []journal.Entry{}, nil
}

func TestActivity_ClampsLimit(t *testing.T) {
	activity := &recordingActivity{}
	router := NewRouter(Deps{Resources: views.NewSet(), Activity: activity})

	for _, target := range []string{
		"/admin/activity?limit=1000000000",
		"/admin/activity?limit=-5",
		"/admin/activity?limit=20",
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, w.Code, target)
	}
	assert.Equal(t, []int{journal.MaxRecent, journal.DefaultRecent, 20}, activity.limits)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/admin/brands/new", nil)
	req.Header.Set("Origin", "http://admin.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "http://admin.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
