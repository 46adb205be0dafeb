//go:build sqlite_fts5

package catalog

import (
	"strings"
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records_fts`).Scan(&count); err != nil {
		t.Fatalf("records_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	r := record("fts.md", 1, "Sowilo provides powerful full-text search capabilities.", "search")
	r.Frontmatter["title"] = "FTS Note"
	syncFolder(t, db, "posts", r)

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "fts.md" || results[0].Title != "FTS Note" {
		t.Errorf("result = %+v", results[0])
	}
	if !strings.Contains(results[0].Snippet, "<b>powerful</b>") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestFTS5_StaleRowsLeaveIndex(t *testing.T) {
	db := testDB(t)
	syncFolder(t, db, "posts", record("gone.md", 1, "ephemeral words"))
	syncFolder(t, db, "posts")

	results, err := db.Search("ephemeral", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}
