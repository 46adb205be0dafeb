// Package recordservice is the domain facade shared by the HTTP API and the
// MCP server.
package recordservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/assembler"
	"github.com/starford/sowilo/internal/catalog"
	"github.com/starford/sowilo/internal/collection"
	"github.com/starford/sowilo/internal/export"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/vault"
)

// FailureItem is one failed path in a rebuild summary.
type FailureItem struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// RebuildSummary is the serializable form of a collection.Report.
type RebuildSummary struct {
	Folders   []string      `json:"folders"`
	Documents int           `json:"documents"`
	Written   []string      `json:"written"`
	Removed   []string      `json:"removed"`
	Failures  []FailureItem `json:"failures"`
}

// Service coordinates the vault, the indexer and the catalog.
type Service struct {
	vault   vault.Vault
	asm     *assembler.Assembler
	indexer *collection.Indexer
	db      catalog.Catalog
}

// NewService creates a new record service.
func NewService(v vault.Vault, asm *assembler.Assembler, indexer *collection.Indexer, db catalog.Catalog) *Service {
	return &Service{vault: v, asm: asm, indexer: indexer, db: db}
}

// Parse assembles a document without writing anything. Documents outside
// every base folder are assembled against the vault root.
func (s *Service) Parse(ctx context.Context, docPath string) (*export.Record, error) {
	folder, err := s.indexer.FolderFor(docPath)
	if err != nil && !errors.Is(err, apperr.ErrOutsideFolders) {
		return nil, err
	}
	doc, err := s.asm.Load(docPath)
	if err != nil {
		return nil, err
	}
	return s.asm.Assemble(ctx, doc, folder)
}

// Artifact returns the stored artifact of a document, the draft one when
// draft is set.
func (s *Service) Artifact(_ context.Context, docPath string, draft bool) (json.RawMessage, error) {
	p := export.PublishedArtifact(docPath)
	if draft {
		p = export.DraftArtifact(docPath)
	}
	text, err := s.vault.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

// Index returns the aggregate index of a configured base folder.
func (s *Service) Index(_ context.Context, folder string) (*export.Index, error) {
	if _, err := s.folder(folder); err != nil {
		return nil, err
	}
	return s.indexer.Index(folder)
}

// Publish exports one document and updates its folder index.
func (s *Service) Publish(ctx context.Context, docPath string) (*collection.Diff, error) {
	return s.indexer.PublishOne(ctx, docPath)
}

// Draft exports one document under draft names.
func (s *Service) Draft(ctx context.Context, docPath string) (*collection.DraftResult, error) {
	return s.indexer.DraftOne(ctx, docPath)
}

// Rebuild rebuilds one base folder, or all of them when folder is empty.
func (s *Service) Rebuild(ctx context.Context, folder string) (*RebuildSummary, error) {
	var folders []models.BaseFolder
	if folder != "" {
		f, err := s.folder(folder)
		if err != nil {
			return nil, err
		}
		folders = []models.BaseFolder{f}
	}
	report, err := s.indexer.RebuildAll(ctx, folders)
	if err != nil {
		return nil, err
	}
	return Summarize(report), nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]catalog.SearchResult, error) {
	return s.db.Search(query, limit)
}

// ByTag lists the records carrying tag across every folder.
func (s *Service) ByTag(_ context.Context, tag string) ([]catalog.RecordRow, error) {
	return s.db.ByTag(tag)
}

// Tags lists every tag with its record count.
func (s *Service) Tags(_ context.Context) ([]catalog.TagCount, error) {
	return s.db.Tags()
}

// Backlinks returns the records linking to a vault path.
func (s *Service) Backlinks(_ context.Context, target string) ([]catalog.LinkRow, error) {
	return s.db.Backlinks(target)
}

func (s *Service) folder(p string) (models.BaseFolder, error) {
	for _, f := range s.indexer.Folders() {
		if f.Path == p {
			return f, nil
		}
	}
	return models.BaseFolder{}, fmt.Errorf("recordservice: base folder %q: %w", p, apperr.ErrNotFound)
}

// Summarize converts a rebuild report for JSON output.
func Summarize(r *collection.Report) *RebuildSummary {
	out := &RebuildSummary{
		Folders:   nonNilSlice(r.Folders),
		Documents: r.Documents,
		Written:   nonNilSlice(r.Written),
		Removed:   nonNilSlice(r.Removed),
		Failures:  make([]FailureItem, 0, len(r.Failures)),
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, FailureItem{Path: f.Path, Error: f.Err.Error()})
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
