package vault

import (
	"path"
	"sort"
	"strings"
)

const docExt = ".md"

// nameIndex maps a lowercased file name to every vault path carrying it,
// in lexical order.
type nameIndex struct {
	byName map[string][]string
}

func (ix *nameIndex) add(p string) {
	key := strings.ToLower(path.Base(p))
	paths := ix.byName[key]
	i := sort.SearchStrings(paths, p)
	if i < len(paths) && paths[i] == p {
		return
	}
	paths = append(paths, "")
	copy(paths[i+1:], paths[i:])
	paths[i] = p
	ix.byName[key] = paths
}

func (ix *nameIndex) remove(p string) {
	key := strings.ToLower(path.Base(p))
	paths := ix.byName[key]
	i := sort.SearchStrings(paths, p)
	if i >= len(paths) || paths[i] != p {
		return
	}
	paths = append(paths[:i], paths[i+1:]...)
	if len(paths) == 0 {
		delete(ix.byName, key)
		return
	}
	ix.byName[key] = paths
}

func (f *FS) loadNames() (*nameIndex, error) {
	f.mu.Lock()
	if f.names != nil {
		defer f.mu.Unlock()
		return f.names, nil
	}
	f.mu.Unlock()

	files, err := f.ListFiles("")
	if err != nil {
		return nil, err
	}
	ix := &nameIndex{byName: map[string][]string{}}
	for _, p := range files {
		ix.add(p)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.names == nil {
		f.names = ix
	}
	return f.names, nil
}

// ResolveLinkTarget finds the file a link target points at. Candidates are
// tried relative to fromPath, then from the vault root, then by file name
// anywhere in the vault (case-insensitive, first in lexical order). A target
// without an extension also matches "<target>.md".
func (f *FS) ResolveLinkTarget(rawTarget, fromPath string) (string, bool) {
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return "", false
	}

	candidates := []string{target}
	if path.Ext(target) == "" {
		candidates = []string{target + docExt, target}
	}

	dir := path.Dir(fromPath)
	for _, c := range candidates {
		if strings.HasPrefix(c, "/") {
			continue
		}
		if p := path.Join(dir, c); f.FileExists(p) {
			return p, true
		}
	}
	for _, c := range candidates {
		if p := strings.TrimPrefix(path.Clean("/"+c), "/"); f.FileExists(p) {
			return p, true
		}
	}

	names, err := f.loadNames()
	if err != nil {
		return "", false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range candidates {
		suffix := "/" + strings.ToLower(strings.TrimPrefix(c, "/"))
		for _, p := range names.byName[strings.ToLower(path.Base(c))] {
			if strings.HasSuffix("/"+strings.ToLower(p), suffix) {
				return p, true
			}
		}
	}
	return "", false
}
