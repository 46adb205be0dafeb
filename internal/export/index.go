package export

import (
	"encoding/json"
	"fmt"
	"sort"
)

// TagEntry points at one record carrying a tag.
type TagEntry struct {
	Path    string `json:"path"`
	Slug    string `json:"slug"`
	Preview string `json:"preview,omitempty"`
}

// TagGroup lists the records carrying a tag.
type TagGroup struct {
	Name    string     `json:"name"`
	Entries []TagEntry `json:"entries"`
}

// Index is the aggregate index of one base folder. Files never carry a tree.
type Index struct {
	Files []Record   `json:"files"`
	Tags  []TagGroup `json:"tags"`
}

// NewIndex builds a sorted index over records.
func NewIndex(records []Record) *Index {
	ix := &Index{Files: make([]Record, 0, len(records))}
	for _, r := range records {
		ix.Files = append(ix.Files, r.Summary())
	}
	ix.reindex()
	return ix
}

// DecodeIndex reads an index file.
func DecodeIndex(data []byte) (*Index, error) {
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("export: decode index: %w", err)
	}
	ix.reindex()
	return &ix, nil
}

// Encode renders the index as indented JSON with a trailing newline.
func (ix *Index) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode index: %w", err)
	}
	return append(data, '\n'), nil
}

// Upsert replaces the record with the same path or adds it, then re-sorts
// and rebuilds the tag groups. It reports whether a record was replaced.
func (ix *Index) Upsert(r Record) bool {
	r = r.Summary()
	replaced := false
	for i := range ix.Files {
		if ix.Files[i].Path == r.Path {
			ix.Files[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		ix.Files = append(ix.Files, r)
	}
	ix.reindex()
	return replaced
}

// Find returns the record stored under path.
func (ix *Index) Find(path string) (Record, bool) {
	for _, r := range ix.Files {
		if r.Path == path {
			return r, true
		}
	}
	return Record{}, false
}

// Tag returns the group for name.
func (ix *Index) Tag(name string) (TagGroup, bool) {
	for _, g := range ix.Tags {
		if g.Name == name {
			return g, true
		}
	}
	return TagGroup{}, false
}

// TagNames lists tag names in index order.
func (ix *Index) TagNames() []string {
	names := make([]string, 0, len(ix.Tags))
	for _, g := range ix.Tags {
		names = append(names, g.Name)
	}
	return names
}

func (ix *Index) reindex() {
	if ix.Files == nil {
		ix.Files = []Record{}
	}
	SortRecords(ix.Files)
	ix.Tags = BuildTags(ix.Files)
}

// SortRecords orders records newest first, then by path.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].MTime != records[j].MTime {
			return records[i].MTime > records[j].MTime
		}
		return records[i].Path < records[j].Path
	})
}

// BuildTags groups records by tag in a single pass. Groups appear in the
// order their tag is first seen; entries keep record order.
func BuildTags(records []Record) []TagGroup {
	groups := []TagGroup{}
	pos := map[string]int{}
	for _, r := range records {
		for _, tag := range r.Tags {
			i, ok := pos[tag]
			if !ok {
				i = len(groups)
				pos[tag] = i
				groups = append(groups, TagGroup{Name: tag})
			}
			groups[i].Entries = append(groups[i].Entries, TagEntry{
				Path:    r.Path,
				Slug:    r.Slug,
				Preview: r.Preview,
			})
		}
	}
	return groups
}
