package vault

import (
	"os"

	"github.com/starford/sowilo/internal/scanner"
)

type headerEntry struct {
	mtime  int64
	size   int64
	fields map[string]any
}

// HeaderFieldsOf returns the decoded header of a vault file. Results are
// cached until the file's mtime or size changes. A missing or unreadable
// file, or a malformed header, reports false.
func (f *FS) HeaderFieldsOf(path string) (map[string]any, bool) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, false
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	mtime, size := info.ModTime().UnixNano(), info.Size()

	f.mu.Lock()
	e, ok := f.headers[path]
	f.mu.Unlock()
	if ok && e.mtime == mtime && e.size == size {
		return e.fields, true
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, false
	}
	h, err := scanner.ScanHeader(string(data))
	if err != nil {
		return nil, false
	}

	f.mu.Lock()
	f.headers[path] = headerEntry{mtime: mtime, size: size, fields: h.Fields}
	f.mu.Unlock()
	return h.Fields, true
}
