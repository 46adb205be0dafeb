// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Sowilo export tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sowilo/internal/recordservice"
)

const artifactFormatURI = "sowilo://artifact-format"

// Server wraps the MCP server with Sowilo tools.
type Server struct {
	mcp *server.MCPServer
	svc *recordservice.Service
}

// New creates a new MCP server with all Sowilo tools registered.
func New(svc *recordservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Sowilo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("parse_document",
		mcp.WithDescription("Parse a Markdown document into its export record (frontmatter, tags, slug, preview "+
			"and syntax tree) without writing anything. See the "+artifactFormatURI+" resource for the format."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the document (e.g. posts/hello.md)")),
	), s.parseDocument)

	s.mcp.AddTool(mcp.NewTool("publish_document",
		mcp.WithDescription("Export one document next to its source and upsert it into its base folder index."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the document")),
	), s.publishDocument)

	s.mcp.AddTool(mcp.NewTool("draft_document",
		mcp.WithDescription("Export one document under draft names. The folder index is left untouched."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the document")),
	), s.draftDocument)

	s.mcp.AddTool(mcp.NewTool("rebuild_collection",
		mcp.WithDescription("Re-export every document of a base folder and rewrite its index."),
		mcp.WithString("folder", mcp.Description("Base folder to rebuild (empty for all)")),
	), s.rebuildCollection)

	s.mcp.AddTool(mcp.NewTool("list_tag",
		mcp.WithDescription("List the exported records carrying a tag, or every tag with its count when no tag is given."),
		mcp.WithString("tag", mcp.Description("Tag without the leading #")),
	), s.listTag)

	s.mcp.AddTool(mcp.NewTool("search_records",
		mcp.WithDescription("Full-text search through exported records."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchRecords)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find the exported records that link to a vault path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the link target")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_artifact_format",
		mcp.WithDescription("Returns the description of the artifact and index formats."),
	), s.getArtifactFormat)

	s.mcp.AddResource(
		mcp.NewResource(artifactFormatURI, "Artifact Format",
			mcp.WithResourceDescription("Per-document artifact and aggregate index formats."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readArtifactFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) parseDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Parse(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rec), nil
}

func (s *Server) publishDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	diff, err := s.svc.Publish(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(diff), nil
}

func (s *Server) draftDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Draft(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) rebuildCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}
	sum, err := s.svc.Rebuild(ctx, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sum), nil
}

func (s *Server) listTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := ""
	if v, err := req.RequireString("tag"); err == nil {
		tag = strings.TrimPrefix(v, "#")
	}
	if tag == "" {
		tags, err := s.svc.Tags(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(tags), nil
	}
	rows, err := s.svc.ByTag(ctx, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no records tagged %s", tag)), nil
	}
	return jsonResult(rows), nil
}

func (s *Server) searchRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	lines := make([]string, len(links))
	for i, l := range links {
		lines[i] = l.Folder + "/" + l.Source
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getArtifactFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ArtifactFormat), nil
}

func (s *Server) readArtifactFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      artifactFormatURI,
			MIMEType: "text/markdown",
			Text:     ArtifactFormat,
		},
	}, nil
}
