// Package resolver turns raw link targets found in a document into
// FileAccessor payloads using the vault's lookup rules.
package resolver

import (
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/starford/sowilo/internal/models"
)

// Vault is the read side of the vault used during resolution.
type Vault interface {
	ResolveLinkTarget(rawTarget, fromPath string) (string, bool)
	HeaderFieldsOf(path string) (map[string]any, bool)
	StatOf(path string) (models.Stat, error)
}

// Context carries the state threaded through every parse and resolve call.
// A zero Vault leaves every link dangling.
type Context struct {
	Vault        Vault
	SourcePath   string
	BaseFolder   string
	MetadataKeys []models.MetadataKey
}

// WithMetadataKeys returns a copy of c using keys.
func (c Context) WithMetadataKeys(keys []models.MetadataKey) Context {
	c.MetadataKeys = keys
	return c
}

// Resolve is shorthand for Resolve(c, raw, isEmbed).
func (c Context) Resolve(raw string, isEmbed bool) *models.FileAccessor {
	return Resolve(c, raw, isEmbed)
}

// Resolve builds the accessor for a link target. Unresolvable targets are
// not an error: the accessor keeps the normalized target and nothing else.
func Resolve(rc Context, raw string, isEmbed bool) *models.FileAccessor {
	target, subpath, alias := Normalize(raw)
	acc := &models.FileAccessor{
		Target:  target,
		Subpath: subpath,
		Alias:   alias,
		IsEmbed: isEmbed,
	}
	if rc.Vault == nil || target == "" {
		return acc
	}

	resolved, ok := rc.Vault.ResolveLinkTarget(target, rc.SourcePath)
	if !ok {
		return acc
	}
	acc.Resolved = resolved
	acc.Path = DisplayPath(rc.BaseFolder, resolved)
	if st, err := rc.Vault.StatOf(resolved); err == nil {
		acc.Stat = &st
	}
	if !isEmbed {
		acc.Slug = Slug(Stem(resolved))
		acc.Metadata = metadataEntries(rc, resolved)
	}
	return acc
}

// Normalize percent-decodes raw and splits off "|display" and "#subsection".
func Normalize(raw string) (target, subpath, alias string) {
	s := raw
	if decoded, err := url.PathUnescape(raw); err == nil {
		s = decoded
	}
	if i := strings.IndexByte(s, '|'); i >= 0 {
		s, alias = s[:i], strings.TrimSpace(s[i+1:])
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s, subpath = s[:i], strings.TrimSpace(s[i+1:])
	}
	return strings.TrimSpace(s), subpath, alias
}

// DisplayPath strips the base folder prefix from a vault path. Paths outside
// the folder are returned unchanged.
func DisplayPath(baseFolder, vaultPath string) string {
	base := strings.Trim(baseFolder, "/")
	if base == "" || base == "." {
		return vaultPath
	}
	if rel, ok := strings.CutPrefix(vaultPath, base+"/"); ok {
		return rel
	}
	return vaultPath
}

// Stem returns the file name of p without its extension.
func Stem(p string) string {
	name := path.Base(p)
	return strings.TrimSuffix(name, path.Ext(name))
}

// Slug lowercases s and joins runs of letters and digits with single
// hyphens.
func Slug(s string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteByte('-')
		}
		gap = false
		b.WriteRune(r)
	}
	return b.String()
}

func metadataEntries(rc Context, resolved string) []models.MetadataEntry {
	if len(rc.MetadataKeys) == 0 {
		return nil
	}
	fields, ok := rc.Vault.HeaderFieldsOf(resolved)
	if !ok {
		return nil
	}
	var out []models.MetadataEntry
	for _, k := range rc.MetadataKeys {
		v, ok := fields[k.Key]
		if !ok {
			continue
		}
		out = append(out, models.MetadataEntry{
			Key:              k.Key,
			Label:            k.DisplayLabel(),
			ContainsMarkdown: k.ContainsMarkdown,
			Value:            v,
			Type:             ValueType(v),
		})
	}
	return out
}

// ValueType classifies a decoded header value.
func ValueType(v any) string {
	switch v.(type) {
	case nil:
		return models.ValueNull
	case bool:
		return models.ValueBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return models.ValueNumber
	case []any:
		return models.ValueArray
	case map[string]any:
		return models.ValueObject
	}
	return models.ValueString
}
