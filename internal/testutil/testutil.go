// Package testutil provides shared test helpers for setting up vaults,
// indexers and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/sowilo/internal/assembler"
	"github.com/starford/sowilo/internal/catalog"
	"github.com/starford/sowilo/internal/collection"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/parser"
	"github.com/starford/sowilo/internal/vault"
)

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sowilo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault holding files.
func TestVault(t *testing.T, files map[string]string) (string, *vault.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	fs, err := vault.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	for p, text := range files {
		if err := fs.WriteFile(p, text); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	return vaultDir, fs
}

// TestIndexer wires a parser, assembler and indexer over v with default
// settings keys.
func TestIndexer(t *testing.T, v vault.Vault, folders []models.BaseFolder, opts ...collection.Option) (*assembler.Assembler, *collection.Indexer) {
	t.Helper()
	asm := assembler.New(v, parser.New(nil, nil), nil)
	return asm, collection.New(v, asm, folders, opts...)
}
