package catalog

import "github.com/starford/sowilo/internal/export"

// Catalog defines the read and write operations of the mirror.
// Consumers should depend on this interface rather than the concrete *DB type.
type Catalog interface {
	SyncFolder(folder string, ix *export.Index, changed []export.Record) error
	Get(folder, path string) (*RecordRow, error)
	ByTag(tag string) ([]RecordRow, error)
	Tags() ([]TagCount, error)
	Backlinks(target string) ([]LinkRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
