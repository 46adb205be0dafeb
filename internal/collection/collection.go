// Package collection folds assembled documents into per-document artifacts
// and the per-folder aggregate index.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/assembler"
	"github.com/starford/sowilo/internal/export"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/vault"
)

// Change kinds passed to an EventFunc.
const (
	EventPublished = "published"
	EventDrafted   = "drafted"
	EventRebuilt   = "rebuilt"
)

// EventFunc is notified after a successful publish, draft or rebuild. path
// is the document for publish and draft, the base folder for rebuild.
type EventFunc func(kind, path string)

// Catalog mirrors folder indexes into a queryable store. changed holds the
// full records, trees included, assembled by the operation.
type Catalog interface {
	SyncFolder(folder string, ix *export.Index, changed []export.Record) error
}

// Indexer is safe for concurrent use. Index updates are serialized per
// base folder.
type Indexer struct {
	vault   vault.Vault
	asm     *assembler.Assembler
	folders []models.BaseFolder
	workers int
	catalog Catalog
	onEvent EventFunc
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithWorkers bounds the number of documents assembled at once.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithCatalog mirrors every written index into c.
func WithCatalog(c Catalog) Option {
	return func(ix *Indexer) { ix.catalog = c }
}

// WithEventFunc registers a change callback.
func WithEventFunc(fn EventFunc) Option {
	return func(ix *Indexer) { ix.onEvent = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) { ix.logger = l }
}

// New creates an indexer over the configured base folders.
func New(v vault.Vault, asm *assembler.Assembler, folders []models.BaseFolder, opts ...Option) *Indexer {
	ix := &Indexer{
		vault:   v,
		asm:     asm,
		folders: folders,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
		locks:   map[string]*sync.Mutex{},
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// Folders returns the configured base folders.
func (ix *Indexer) Folders() []models.BaseFolder {
	return append([]models.BaseFolder(nil), ix.folders...)
}

// FolderFor returns the most specific base folder containing docPath.
func (ix *Indexer) FolderFor(docPath string) (models.BaseFolder, error) {
	best, found := models.BaseFolder{}, false
	for _, f := range ix.folders {
		if !f.Contains(docPath) {
			continue
		}
		if !found || len(f.Path) > len(best.Path) {
			best, found = f, true
		}
	}
	if !found {
		return models.BaseFolder{}, fmt.Errorf("collection: %s: %w", docPath, apperr.ErrOutsideFolders)
	}
	return best, nil
}

// Index reads the aggregate index of a base folder. A folder that was never
// indexed yields an empty index.
func (ix *Indexer) Index(folder string) (*export.Index, error) {
	p := export.IndexPath(folder)
	if !ix.vault.FileExists(p) {
		return export.NewIndex(nil), nil
	}
	text, err := ix.vault.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("collection: read index: %w", err)
	}
	idx, err := export.DecodeIndex([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("collection: %s: %w", p, err)
	}
	return idx, nil
}

func (ix *Indexer) folderLock(folder string) *sync.Mutex {
	key := strings.Trim(folder, "/")
	ix.mu.Lock()
	defer ix.mu.Unlock()
	l, ok := ix.locks[key]
	if !ok {
		l = &sync.Mutex{}
		ix.locks[key] = l
	}
	return l
}

func (ix *Indexer) emit(kind, path string) {
	if ix.onEvent != nil {
		ix.onEvent(kind, path)
	}
}

func (ix *Indexer) mirror(folder string, idx *export.Index, changed []export.Record) {
	if ix.catalog == nil {
		return
	}
	if err := ix.catalog.SyncFolder(folder, idx, changed); err != nil {
		ix.logger.Warn("collection: catalog mirror failed",
			slog.String("folder", folder),
			slog.String("error", err.Error()))
	}
}

func (ix *Indexer) checkSource(docPath string) (models.BaseFolder, error) {
	if !export.IsDocument(docPath) {
		if export.IsSnapshotSource(docPath) {
			return models.BaseFolder{}, fmt.Errorf("collection: %s: %w", docPath, apperr.ErrSnapshotSource)
		}
		return models.BaseFolder{}, fmt.Errorf("collection: %s: %w", docPath, apperr.ErrNotDocument)
	}
	return ix.FolderFor(docPath)
}

func (ix *Indexer) assemble(ctx context.Context, docPath string, folder models.BaseFolder) (models.RawDocument, *export.Record, error) {
	doc, err := ix.asm.Load(docPath)
	if err != nil {
		return doc, nil, err
	}
	rec, err := ix.asm.Assemble(ctx, doc, folder)
	if err != nil {
		return doc, nil, err
	}
	return doc, rec, nil
}
