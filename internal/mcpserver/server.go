// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the catalog admin tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/catadmin/internal/catalog"
	"github.com/starford/catadmin/internal/listquery"
	"github.com/starford/catadmin/internal/views"
)

const filterGrammarURI = "catadmin://filter-grammar"

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp       *server.MCPServer
	resources *views.Set
}

// New creates a new MCP server with all catalog tools registered.
func New(resources *views.Set, version string) *Server {
	s := &Server{resources: resources}

	s.mcp = server.NewMCPServer(
		"catadmin",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	names := strings.Join(resources.Names(), ", ")
	resourceArg := mcp.WithString("resource", mcp.Required(),
		mcp.Description("Resource name: "+names))

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("Load one page of records. The query uses the list query format; "+
			"read it via get_filter_grammar or the "+filterGrammarURI+" resource."),
		resourceArg,
		mcp.WithString("query", mcp.Description("List query, e.g. page=1&size=10&filters=status:published")),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Load a record with the lookup lists of its editor. Use id \"new\" for the lookups only."),
		resourceArg,
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id or new")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("save_record",
		mcp.WithDescription("Validate and save a record. Id \"new\" creates it. "+
			"Returns field errors when the record is rejected before saving."),
		resourceArg,
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id or new")),
		mcp.WithString("record", mcp.Required(), mcp.Description("Record as a JSON object")),
		mcp.WithBoolean("publish", mcp.Description("Save with status published")),
	), s.saveRecord)

	s.mcp.AddTool(mcp.NewTool("remove_record",
		mcp.WithDescription("Delete a record."),
		resourceArg,
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.removeRecord)

	s.mcp.AddTool(mcp.NewTool("encode_query",
		mcp.WithDescription("Build a list query string from page, size and filters."),
		mcp.WithNumber("page", mcp.Description("Page number, default 1")),
		mcp.WithNumber("size", mcp.Description("Page size, default 10")),
		mcp.WithString("filters", mcp.Description("Filters, e.g. status:published;brand.title:Tesla")),
	), s.encodeQuery)

	s.mcp.AddTool(mcp.NewTool("get_filter_grammar",
		mcp.WithDescription("Returns the list query and filter format."),
	), s.getFilterGrammar)

	s.mcp.AddResource(
		mcp.NewResource(filterGrammarURI, "List Query Format",
			mcp.WithResourceDescription("Pagination and filter format of list queries."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFilterGrammarResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) target(req mcp.CallToolRequest, needID bool) (views.Resource, catalog.Ref, error) {
	name, err := req.RequireString("resource")
	if err != nil {
		return nil, "", err
	}
	res, err := s.resources.Get(name)
	if err != nil {
		return nil, "", err
	}
	if !needID {
		return res, "", nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return nil, "", err
	}
	ref, err := catalog.ParseRef(id)
	if err != nil {
		return nil, "", err
	}
	return res, ref, nil
}

func jsonResult(v any, isError bool) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	if isError {
		return mcp.NewToolResultError(string(out))
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, _, err := s.target(req, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := res.ListPage(ctx, req.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page, false), nil
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, ref, err := s.target(req, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := res.EditPage(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page, false), nil
}

func (s *Server) saveRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, ref, err := s.target(req, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	record, err := req.RequireString("record")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := res.SubmitJSON(ctx, ref, json.RawMessage(record), req.GetBool("publish", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out, !out.OK), nil
}

func (s *Server) removeRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, ref, err := s.target(req, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := res.Delete(ctx, ref)
	return jsonResult(out, err != nil), nil
}

func (s *Server) encodeQuery(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := listquery.PageQuery{
		Page:    req.GetInt("page", listquery.DefaultPage),
		Size:    req.GetInt("size", listquery.DefaultSize),
		Filters: listquery.DecodeFilters(req.GetString("filters", "")),
	}
	return mcp.NewToolResultText(listquery.Encode(q)), nil
}

func (s *Server) getFilterGrammar(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FilterGrammar), nil
}

func (s *Server) readFilterGrammarResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      filterGrammarURI,
			MIMEType: "text/markdown",
			Text:     FilterGrammar,
		},
	}, nil
}
