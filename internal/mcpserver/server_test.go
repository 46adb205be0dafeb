package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/sowilo/internal/collection"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/recordservice"
	"github.com/starford/sowilo/internal/testutil"
	"github.com/starford/sowilo/internal/vault"
)

func testServer(t *testing.T) (*Server, *vault.FS) {
	t.Helper()

	_, v := testutil.TestVault(t, map[string]string{
		"posts/a.md": "---\ntags: [go]\n---\nlinks to [[b]] about capybaras\n",
		"posts/b.md": "b #rust",
	})
	db := testutil.TestDB(t)
	asm, ix := testutil.TestIndexer(t, v, []models.BaseFolder{{Path: "posts"}}, collection.WithCatalog(db))

	srv := New(recordservice.NewService(v, asm, ix, db))
	return srv, v
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper; dispatch to the handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "parse_document":
		result, err = srv.parseDocument(ctx, req)
	case "publish_document":
		result, err = srv.publishDocument(ctx, req)
	case "draft_document":
		result, err = srv.draftDocument(ctx, req)
	case "rebuild_collection":
		result, err = srv.rebuildCollection(ctx, req)
	case "list_tag":
		result, err = srv.listTag(ctx, req)
	case "search_records":
		result, err = srv.searchRecords(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_artifact_format":
		result, err = srv.getArtifactFormat(ctx, req)
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

func TestParseDocument(t *testing.T) {
	srv, v := testServer(t)

	r := callTool(t, srv, "parse_document", map[string]any{"path": "posts/a.md"})
	if r.IsError {
		t.Fatalf("parse error: %s", resultText(r))
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["path"] != "a.md" || rec["slug"] != "a" {
		t.Errorf("record = %v", rec)
	}
	if v.FileExists("posts/a.ast.json") {
		t.Error("parse must not write an artifact")
	}
}

func TestParseDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "parse_document", map[string]any{"path": "posts/nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestParseDocumentRequiresPath(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "parse_document", map[string]any{})
	if !r.IsError {
		t.Error("expected error without path")
	}
}

func TestPublishAndDraft(t *testing.T) {
	srv, v := testServer(t)

	r := callTool(t, srv, "publish_document", map[string]any{"path": "posts/a.md"})
	if r.IsError {
		t.Fatalf("publish error: %s", resultText(r))
	}
	if !v.FileExists("posts/a.ast.json") || !v.FileExists("posts/main.meta.json") {
		t.Error("publish should write the artifact and the index")
	}

	r = callTool(t, srv, "draft_document", map[string]any{"path": "posts/b.md"})
	if r.IsError {
		t.Fatalf("draft error: %s", resultText(r))
	}
	if !v.FileExists("posts/b.draft.ast.json") {
		t.Error("draft artifact missing")
	}

	r = callTool(t, srv, "publish_document", map[string]any{"path": "posts/b.draft.md"})
	if !r.IsError {
		t.Error("publishing a snapshot copy must fail")
	}
}

func TestRebuildAndListTag(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "rebuild_collection", map[string]any{})
	if r.IsError {
		t.Fatalf("rebuild error: %s", resultText(r))
	}
	var sum recordservice.RebuildSummary
	if err := json.Unmarshal([]byte(resultText(r)), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Documents != 2 {
		t.Errorf("documents = %d", sum.Documents)
	}

	r = callTool(t, srv, "list_tag", map[string]any{"tag": "#rust"})
	if !strings.Contains(resultText(r), `"path": "b.md"`) {
		t.Errorf("list_tag = %s", resultText(r))
	}

	r = callTool(t, srv, "list_tag", map[string]any{})
	text := resultText(r)
	if !strings.Contains(text, `"tag": "go"`) || !strings.Contains(text, `"tag": "rust"`) {
		t.Errorf("all tags = %s", text)
	}

	r = callTool(t, srv, "list_tag", map[string]any{"tag": "none"})
	if resultText(r) != "no records tagged none" {
		t.Errorf("empty tag = %q", resultText(r))
	}
}

func TestRebuildUnknownFolder(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "rebuild_collection", map[string]any{"folder": "elsewhere"})
	if !r.IsError {
		t.Error("expected error for unknown folder")
	}
}

func TestSearchAndBacklinks(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "rebuild_collection", map[string]any{"folder": "posts"})

	r := callTool(t, srv, "search_records", map[string]any{"query": "capybaras"})
	if !strings.Contains(resultText(r), `"path": "a.md"`) {
		t.Errorf("search = %s", resultText(r))
	}

	r = callTool(t, srv, "get_backlinks", map[string]any{"path": "posts/b.md"})
	if resultText(r) != "posts/a.md" {
		t.Errorf("backlinks = %q, want posts/a.md", resultText(r))
	}

	r = callTool(t, srv, "get_backlinks", map[string]any{"path": "posts/a.md"})
	if resultText(r) != "no backlinks found" {
		t.Errorf("backlinks = %q", resultText(r))
	}
}

func TestArtifactFormat(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_artifact_format", nil)
	if !strings.Contains(resultText(r), "main.meta.json") {
		t.Error("format description should name the index file")
	}

	contents, err := srv.readArtifactFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != artifactFormatURI {
		t.Errorf("resource = %#v", contents[0])
	}
}
