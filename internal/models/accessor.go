// Package models defines the leaf domain types shared by the parser,
// resolver and exporter.
package models

import (
	"strings"
	"time"
)

// Stat is a filesystem snapshot of a vault file.
type Stat struct {
	MTime int64 `json:"mtime"` // unix milliseconds
	Size  int64 `json:"size"`
}

// NewStat builds a Stat from a modification time and size.
func NewStat(mtime time.Time, size int64) Stat {
	return Stat{MTime: mtime.UnixMilli(), Size: size}
}

// MetadataKey selects a header field that is copied from a linked document.
type MetadataKey struct {
	Key              string `yaml:"key" json:"metadataKey"`
	Label            string `yaml:"label" json:"label"`
	ContainsMarkdown bool   `yaml:"markdown" json:"containsMarkdown"`
}

// DisplayLabel returns the explicit label, or the key itself.
func (k MetadataKey) DisplayLabel() string {
	if k.Label != "" {
		return k.Label
	}
	return k.Key
}

// Value type tags carried by MetadataEntry.Type.
const (
	ValueString  = "string"
	ValueNumber  = "number"
	ValueBoolean = "boolean"
	ValueArray   = "array"
	ValueObject  = "object"
	ValueNull    = "null"
)

// MetadataEntry is one header field pulled from a link target.
type MetadataEntry struct {
	Key              string `json:"key"`
	Label            string `json:"label"`
	ContainsMarkdown bool   `json:"containsMarkdown"`
	Value            any    `json:"value"`
	Type             string `json:"type"`
}

// FileAccessor is the resolved payload of a wikilink, embed or internal link.
// A dangling link keeps Target and leaves the file fields empty.
type FileAccessor struct {
	Target   string          `json:"target"`
	Subpath  string          `json:"subpath,omitempty"`
	Alias    string          `json:"alias,omitempty"`
	IsEmbed  bool            `json:"isEmbed"`
	Resolved string          `json:"resolved,omitempty"` // vault-relative path
	Path     string          `json:"path,omitempty"`     // base-relative display path
	Slug     string          `json:"slug,omitempty"`
	Stat     *Stat           `json:"stat,omitempty"`
	Metadata []MetadataEntry `json:"metadata,omitempty"`
}

// IsResolved reports whether the link target was found in the vault.
func (a FileAccessor) IsResolved() bool {
	return a.Resolved != ""
}

// BaseFolder is a configured collection root inside the vault.
type BaseFolder struct {
	Path         string        `yaml:"path"`
	MetadataKeys []MetadataKey `yaml:"metadata_keys"`
}

// Contains reports whether the vault path p lies under the folder.
func (f BaseFolder) Contains(p string) bool {
	if f.Path == "" || f.Path == "." {
		return true
	}
	return strings.HasPrefix(p, strings.TrimSuffix(f.Path, "/")+"/")
}

// RawDocument is a document read from the vault.
type RawDocument struct {
	Path string
	Text string
	Stat Stat
}
