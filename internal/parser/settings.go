package parser

import (
	"encoding/json"
	"fmt"

	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/syntax"
)

const (
	keyTags         = "tags"
	keyTitle        = "title"
	keyDateTrigger  = "date-trigger"
	keyTimeTrigger  = "time-trigger"
	keyMetadataKeys = "metadata-keys"
)

// DefaultSettingsKeys are the header keys treated as board settings rather
// than frontmatter.
var DefaultSettingsKeys = []string{
	"kanban-plugin",
	"lane-width",
	"new-card-insertion-method",
	"new-line-trigger",
	"hide-card-count",
	"hide-tags-in-title",
	"hide-date-in-title",
	"show-checkboxes",
	"show-relative-date",
	"link-date-to-daily-note",
	"prepend-archive-date",
	"archive-with-date",
	"max-archive-size",
	"date-format",
	"time-format",
	"date-display-format",
	"tag-colors",
	keyDateTrigger,
	keyTimeTrigger,
	keyMetadataKeys,
}

func syntaxOptions(cfg map[string]any) syntax.Options {
	var opts syntax.Options
	if s, ok := cfg[keyDateTrigger].(string); ok {
		opts.DateTrigger = s
	}
	if s, ok := cfg[keyTimeTrigger].(string); ok {
		opts.TimeTrigger = s
	}
	return opts
}

// metadataKeys decodes a "metadata-keys" setting. The second result is false
// when the setting is absent.
func metadataKeys(cfg map[string]any) ([]models.MetadataKey, bool, error) {
	raw, ok := cfg[keyMetadataKeys]
	if !ok || raw == nil {
		return nil, false, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, false, fmt.Errorf("encode %s: %w", keyMetadataKeys, err)
	}
	var keys []models.MetadataKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", keyMetadataKeys, err)
	}
	out := keys[:0]
	for _, k := range keys {
		if k.Key != "" {
			out = append(out, k)
		}
	}
	return out, true, nil
}
