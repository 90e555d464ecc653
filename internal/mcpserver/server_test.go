package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/catadmin/internal/apiclient"
	"github.com/starford/catadmin/internal/catalog"
	"github.com/starford/catadmin/internal/resource"
	"github.com/starford/catadmin/internal/views"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/ratings/models":
			_, _ = w.Write([]byte(`[{"id":1,"title":"Model S"}]`))
		case r.URL.Path == "/api/ratings" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"ratings":[{"id":3,"title":"Best EVs"}],"total":1}`))
		case r.URL.Path == "/api/ratings" && r.Method == http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			body["id"] = 8
			_ = json.NewEncoder(w).Encode(body)
		case r.URL.Path == "/api/ratings/3" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"id":3,"title":"Best EVs"}`))
		case r.URL.Path == "/api/ratings/3" && r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Rating not found"}`))
		}
	}))
	t.Cleanup(upstream.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := apiclient.New(apiclient.Options{BaseURL: upstream.URL}, logger)
	stores := resource.NewFactory[catalog.Rating](catalog.Ratings, api, resource.WithLogger(logger))
	return New(views.NewSet(views.Bind(stores)), "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_records":
		result, err = srv.listRecords(ctx, req)
	case "get_record":
		result, err = srv.getRecord(ctx, req)
	case "save_record":
		result, err = srv.saveRecord(ctx, req)
	case "remove_record":
		result, err = srv.removeRecord(ctx, req)
	case "encode_query":
		result, err = srv.encodeQuery(ctx, req)
	case "get_filter_grammar":
		result, err = srv.getFilterGrammar(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListRecords(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_records", map[string]interface{}{
		"resource": "ratings",
		"query":    "page=1&size=5",
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var page struct {
		Total   int              `json:"total"`
		Size    int              `json:"size"`
		Records []catalog.Rating `json:"records"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || page.Size != 5 || len(page.Records) != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestUnknownResource(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_records", map[string]interface{}{"resource": "widgets"})
	if !r.IsError || !strings.Contains(resultText(r), "unknown resource") {
		t.Errorf("expected unknown resource error, got %q", resultText(r))
	}
}

func TestGetRecord(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_record", map[string]interface{}{"resource": "ratings", "id": "3"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"title": "Best EVs"`) {
		t.Errorf("record missing in %q", resultText(r))
	}

	r = callTool(t, srv, "get_record", map[string]interface{}{"resource": "ratings", "id": "42"})
	if !r.IsError {
		t.Error("expected error for missing record")
	}

	r = callTool(t, srv, "get_record", map[string]interface{}{"resource": "ratings", "id": "x"})
	if !r.IsError {
		t.Error("expected error for invalid id")
	}
}

func TestSaveRecord(t *testing.T) {
	srv := testServer(t)
	record := `{"title":"Top picks","keywords":"ev,top","description":"Best of","content":"<p>x</p>","thumbnail":"/t.jpg","image":"/i.jpg","modelIds":[1]}`

	r := callTool(t, srv, "save_record", map[string]interface{}{
		"resource": "ratings",
		"id":       "new",
		"record":   record,
		"publish":  true,
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var out views.SubmitResult
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != 8 || out.Redirect != "/admin/ratings/8" {
		t.Errorf("result = %+v", out)
	}
}

func TestSaveRecord_Invalid(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "save_record", map[string]interface{}{
		"resource": "ratings",
		"id":       "new",
		"record":   `{"title":"x"}`,
	})
	if !r.IsError || !strings.Contains(resultText(r), "fieldErrors") {
		t.Errorf("expected field errors, got %q", resultText(r))
	}

	r = callTool(t, srv, "save_record", map[string]interface{}{
		"resource": "ratings",
		"id":       "new",
		"record":   `not json`,
	})
	if !r.IsError {
		t.Error("expected error for malformed record")
	}
}

func TestRemoveRecord(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "remove_record", map[string]interface{}{"resource": "ratings", "id": "3"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"redirect": "/admin/ratings"`) {
		t.Errorf("result = %q", resultText(r))
	}

	r = callTool(t, srv, "remove_record", map[string]interface{}{"resource": "ratings", "id": "9"})
	if !r.IsError {
		t.Error("expected error for missing record")
	}
}

func TestEncodeQuery(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "encode_query", map[string]interface{}{
		"page":    float64(2),
		"filters": "status:published;title",
	})
	if got := resultText(r); got != "page=2&size=10&filters=status:published" {
		t.Errorf("encode_query = %q", got)
	}
}

func TestFilterGrammar(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_filter_grammar", nil)
	if resultText(r) != FilterGrammar {
		t.Error("grammar tool must return the grammar document")
	}

	contents, err := srv.readFilterGrammarResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource read = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != filterGrammarURI {
		t.Errorf("unexpected resource contents %+v", contents[0])
	}
}
