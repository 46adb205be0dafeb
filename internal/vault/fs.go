package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/models"
)

const tempPattern = ".sowilo-tmp-*"

// FS implements Vault backed by the local file system. It is safe for
// concurrent use.
type FS struct {
	root string // absolute path to vault directory

	mu      sync.Mutex
	names   *nameIndex // nil until first basename lookup
	headers map[string]headerEntry
}

// NewFS creates a new FS rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &FS{root: abs, headers: map[string]headerEntry{}}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" || rel == "." {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("vault: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("vault: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("vault: path escapes vault root: %s", rel)
	}
	return abs, nil
}

func (f *FS) relPath(abs string) string {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

// ReadFile returns the text of a vault file. A missing file wraps
// apperr.ErrNotFound.
func (f *FS) ReadFile(path string) (string, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("vault: read %s: %w", path, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("vault: read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteFile atomically writes text: tmp file → fsync → rename.
func (f *FS) WriteFile(path, text string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vault: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("vault: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(text); err != nil {
		return fmt.Errorf("vault: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("vault: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("vault: rename: %w", err)
	}
	success = true

	f.touched(f.relPath(abs), true)
	return nil
}

// RemoveFile deletes a file from the vault.
func (f *FS) RemoveFile(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("vault: remove %s: %w", path, apperr.ErrNotFound)
		}
		return fmt.Errorf("vault: remove %s: %w", path, err)
	}
	f.touched(f.relPath(abs), false)
	return nil
}

// FileExists reports whether path names a regular file inside the vault.
func (f *FS) FileExists(path string) bool {
	abs, err := f.safePath(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// ListFiles walks root and returns every regular file in lexical order.
// Dot-files and dot-directories are skipped.
func (f *FS) ListFiles(root string) ([]string, error) {
	base, err := f.safePath(root)
	if err != nil {
		return nil, err
	}
	var out []string
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p != base && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		out = append(out, f.relPath(p))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("vault: list %s: %w", root, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("vault: list: %w", err)
	}
	return out, nil
}

// StatOf returns the modification time and size of a vault file.
func (f *FS) StatOf(path string) (models.Stat, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return models.Stat{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Stat{}, fmt.Errorf("vault: stat %s: %w", path, apperr.ErrNotFound)
		}
		return models.Stat{}, fmt.Errorf("vault: stat %s: %w", path, err)
	}
	return models.NewStat(info.ModTime(), info.Size()), nil
}

// touched keeps the caches in step with a write (exists) or removal.
func (f *FS) touched(rel string, exists bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.headers, rel)
	if f.names == nil {
		return
	}
	if exists {
		f.names.add(rel)
	} else {
		f.names.remove(rel)
	}
}
