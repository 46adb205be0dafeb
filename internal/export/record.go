// Package export defines the records and aggregate index written next to
// the vault documents, and the file names they are written under.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/starford/sowilo/internal/node"
)

// Keys a document's frontmatter cannot override.
var reserved = map[string]struct{}{
	"path":    {},
	"mtime":   {},
	"tags":    {},
	"slug":    {},
	"preview": {},
	"ast":     {},
}

var identity = map[string]struct{}{
	"path":      {},
	"name":      {},
	"extension": {},
	"mtime":     {},
	"size":      {},
}

// Record is the exportable form of one document. It marshals to a single
// flat JSON object: identity fields, then frontmatter, then the derived
// fields. Keys are emitted in sorted order.
type Record struct {
	Path        string // relative to the base folder
	Name        string
	Extension   string
	MTime       int64 // unix milliseconds
	Size        int64
	Frontmatter map[string]any
	Tags        []string
	Slug        string
	Preview     string
	AST         *node.Root
}

// Summary returns a copy without the tree, as stored in the index.
func (r Record) Summary() Record {
	r.AST = nil
	return r
}

// Title returns the frontmatter title, or the document name.
func (r Record) Title() string {
	if s, ok := r.Frontmatter["title"].(string); ok && s != "" {
		return s
	}
	return r.Name
}

func (r Record) fields() map[string]any {
	m := map[string]any{
		"path":      r.Path,
		"name":      r.Name,
		"extension": r.Extension,
		"mtime":     r.MTime,
		"size":      r.Size,
	}
	for k, v := range r.Frontmatter {
		if _, ok := reserved[k]; ok {
			continue
		}
		m[k] = v
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	m["tags"] = tags
	m["slug"] = r.Slug
	if r.Preview != "" {
		m["preview"] = r.Preview
	}
	if r.AST != nil {
		m["ast"] = r.AST
	}
	return m
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields())
}

// UnmarshalJSON reads a record back from the index. Numbers are kept as
// json.Number so they re-marshal unchanged. The tree is not decoded.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("export: decode record: %w", err)
	}

	out := Record{Frontmatter: map[string]any{}}
	out.Path, _ = m["path"].(string)
	out.Slug, _ = m["slug"].(string)
	out.Preview, _ = m["preview"].(string)
	out.MTime = toInt(m["mtime"])

	// Frontmatter may override name, extension and size with values of any
	// type. Whatever does not fit the identity field stays frontmatter so
	// the record re-marshals unchanged.
	overrides := map[string]any{}
	if v, ok := m["name"]; ok {
		if s, isStr := v.(string); isStr {
			out.Name = s
		} else {
			overrides["name"] = v
		}
	}
	if v, ok := m["extension"]; ok {
		if s, isStr := v.(string); isStr {
			out.Extension = s
		} else {
			overrides["extension"] = v
		}
	}
	if v, ok := m["size"]; ok {
		if n, isInt := exactInt(v); isInt {
			out.Size = n
		} else {
			overrides["size"] = v
		}
	}
	if tags, ok := m["tags"].([]any); ok {
		out.Tags = make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok {
				out.Tags = append(out.Tags, s)
			}
		}
	}
	for k, v := range m {
		_, isReserved := reserved[k]
		_, isIdentity := identity[k]
		if !isReserved && !isIdentity {
			out.Frontmatter[k] = v
		}
	}
	for k, v := range overrides {
		out.Frontmatter[k] = v
	}
	*r = out
	return nil
}

// exactInt returns v as an integer when it is a number without a fraction
// or exponent.
func exactInt(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil || n.String() != strconv.FormatInt(i, 10) {
		return 0, false
	}
	return i, true
}

func toInt(v any) int64 {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	}
	return 0
}
