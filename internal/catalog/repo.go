package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/export"
	"github.com/starford/sowilo/internal/node"
)

// RecordRow represents a row in the records table.
type RecordRow struct {
	Folder  string   `json:"folder"`
	Path    string   `json:"path"`
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Preview string   `json:"preview,omitempty"`
	Tags    []string `json:"tags"`
	MTime   int64    `json:"mtime"`
}

// TagCount is a tag and the number of records carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// LinkRow is a record linking to a vault path.
type LinkRow struct {
	Folder string `json:"folder"`
	Source string `json:"source"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Folder  string `json:"folder"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SyncFolder makes the folder's rows match ix in one transaction. Records
// in changed carry their tree; their body text and outgoing links are
// replaced. Rows of other records keep the body stored earlier.
func (db *DB) SyncFolder(folder string, ix *export.Index, changed []export.Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	keep := make(map[string]struct{}, len(ix.Files))
	for _, r := range ix.Files {
		keep[r.Path] = struct{}{}
		tagsJSON, _ := json.Marshal(r.Tags)
		_, err = tx.Exec(`
			INSERT INTO records (folder, path, slug, title, preview, tags, mtime)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(folder, path) DO UPDATE SET
				slug    = excluded.slug,
				title   = excluded.title,
				preview = excluded.preview,
				tags    = excluded.tags,
				mtime   = excluded.mtime
		`, folder, r.Path, r.Slug, r.Title(), r.Preview, string(tagsJSON), r.MTime)
		if err != nil {
			return fmt.Errorf("catalog: upsert record: %w", err)
		}
	}

	for _, r := range changed {
		if r.AST == nil {
			continue
		}
		if _, err := tx.Exec(`UPDATE records SET body = ? WHERE folder = ? AND path = ?`,
			node.TextContent(r.AST), folder, r.Path); err != nil {
			return fmt.Errorf("catalog: update body: %w", err)
		}
		if err := replaceLinks(tx, folder, r); err != nil {
			return err
		}
	}

	stale, err := stalePaths(tx, folder, keep)
	if err != nil {
		return err
	}
	for _, p := range stale {
		ftsDelete(tx, folder, p)
		_, _ = tx.Exec(`DELETE FROM links WHERE folder = ? AND source = ?`, folder, p)
		_, _ = tx.Exec(`DELETE FROM records WHERE folder = ? AND path = ?`, folder, p)
	}

	_, _ = tx.Exec(`DELETE FROM record_tags WHERE folder = ?`, folder)
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO record_tags (folder, tag, path) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare tag insert: %w", err)
	}
	defer stmt.Close()
	for _, g := range ix.Tags {
		for _, e := range g.Entries {
			if _, err := stmt.Exec(folder, g.Name, e.Path); err != nil {
				return fmt.Errorf("catalog: insert tag: %w", err)
			}
		}
	}

	for _, r := range ix.Files {
		var body string
		_ = tx.QueryRow(`SELECT body FROM records WHERE folder = ? AND path = ?`, folder, r.Path).Scan(&body)
		if err := ftsUpsert(tx, folder, r.Path, r.Title(), body, r.Tags); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func replaceLinks(tx *sql.Tx, folder string, r export.Record) error {
	_, _ = tx.Exec(`DELETE FROM links WHERE folder = ? AND source = ?`, folder, r.Path)
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (folder, source, target) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare link insert: %w", err)
	}
	defer stmt.Close()

	var insertErr error
	node.Walk(r.AST, func(n node.Node) bool {
		acc, ok := node.Accessor(n)
		if !ok || !acc.IsResolved() || insertErr != nil {
			return insertErr == nil
		}
		if _, err := stmt.Exec(folder, r.Path, acc.Resolved); err != nil {
			insertErr = fmt.Errorf("catalog: insert link: %w", err)
		}
		return true
	})
	return insertErr
}

func stalePaths(tx *sql.Tx, folder string, keep map[string]struct{}) ([]string, error) {
	rows, err := tx.Query(`SELECT path FROM records WHERE folder = ?`, folder)
	if err != nil {
		return nil, fmt.Errorf("catalog: list paths: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		if _, ok := keep[p]; !ok {
			out = append(out, p)
		}
	}
	return out, rows.Err()
}

// Get returns one record row. A missing row wraps apperr.ErrNotFound.
func (db *DB) Get(folder, path string) (*RecordRow, error) {
	row := db.conn.QueryRow(`
		SELECT folder, path, slug, title, preview, tags, mtime
		FROM records WHERE folder = ? AND path = ?
	`, folder, path)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: %s/%s: %w", folder, path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get: %w", err)
	}
	return r, nil
}

// ByTag returns the records carrying tag, newest first.
func (db *DB) ByTag(tag string) ([]RecordRow, error) {
	rows, err := db.conn.Query(`
		SELECT r.folder, r.path, r.slug, r.title, r.preview, r.tags, r.mtime
		FROM records r
		JOIN record_tags t ON t.folder = r.folder AND t.path = r.path
		WHERE t.tag = ?
		ORDER BY r.mtime DESC, r.folder, r.path
	`, tag)
	if err != nil {
		return nil, fmt.Errorf("catalog: by tag: %w", err)
	}
	defer rows.Close()

	out := []RecordRow{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Tags returns every tag with its record count, most used first.
func (db *DB) Tags() ([]TagCount, error) {
	rows, err := db.conn.Query(`
		SELECT tag, count(*) FROM record_tags
		GROUP BY tag
		ORDER BY count(*) DESC, tag
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: tags: %w", err)
	}
	defer rows.Close()

	out := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// Backlinks returns the records linking to a vault path.
func (db *DB) Backlinks(target string) ([]LinkRow, error) {
	rows, err := db.conn.Query(`SELECT folder, source FROM links WHERE target = ? ORDER BY folder, source`, target)
	if err != nil {
		return nil, fmt.Errorf("catalog: backlinks: %w", err)
	}
	defer rows.Close()

	out := []LinkRow{}
	for rows.Next() {
		var l LinkRow
		if err := rows.Scan(&l.Folder, &l.Source); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*RecordRow, error) {
	var r RecordRow
	var tags string
	if err := s.Scan(&r.Folder, &r.Path, &r.Slug, &r.Title, &r.Preview, &tags, &r.MTime); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil || r.Tags == nil {
		r.Tags = []string{}
	}
	return &r, nil
}
