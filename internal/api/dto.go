package api

import (
	"github.com/starford/sowilo/internal/catalog"
	"github.com/starford/sowilo/internal/collection"
	"github.com/starford/sowilo/internal/recordservice"
)

// PublishResponse is the index diff returned after publishing.
type PublishResponse = collection.Diff

// DraftResponse names the draft files written.
type DraftResponse = collection.DraftResult

// RebuildResponse summarizes a rebuild.
type RebuildResponse = recordservice.RebuildSummary

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []catalog.SearchResult `json:"results" validate:"required"`
}

// TagsResponse lists tags with their record counts.
type TagsResponse struct {
	Tags []catalog.TagCount `json:"tags" validate:"required"`
}

// TagRecordsResponse lists the records carrying one tag.
type TagRecordsResponse struct {
	Tag     string              `json:"tag" example:"go" validate:"required"`
	Records []catalog.RecordRow `json:"records" validate:"required"`
}

// BacklinksResponse lists the records linking to a vault path.
type BacklinksResponse struct {
	Target string            `json:"target" example:"posts/hello.md" validate:"required"`
	Links  []catalog.LinkRow `json:"links" validate:"required"`
}
