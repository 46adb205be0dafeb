package export

import (
	"path"
	"strings"
)

const (
	IndexFile = "main.meta.json"

	publishedArtifactExt = ".ast.json"
	publishedSourceExt   = ".published.md"
	draftArtifactExt     = ".draft.ast.json"
	draftSourceExt       = ".draft.md"
)

func stem(doc string) string {
	return strings.TrimSuffix(doc, path.Ext(doc))
}

// PublishedArtifact is the tree artifact written for a published document.
func PublishedArtifact(doc string) string { return stem(doc) + publishedArtifactExt }

// PublishedSource is the raw copy written for a published document.
func PublishedSource(doc string) string { return stem(doc) + publishedSourceExt }

// DraftArtifact is the tree artifact written for a draft.
func DraftArtifact(doc string) string { return stem(doc) + draftArtifactExt }

// DraftSource is the raw copy written for a draft.
func DraftSource(doc string) string { return stem(doc) + draftSourceExt }

// IndexPath is the index file of a base folder.
func IndexPath(baseFolder string) string {
	return path.Join(baseFolder, IndexFile)
}

// IsSnapshotSource reports whether p is a raw copy written by publish or
// draft.
func IsSnapshotSource(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, publishedSourceExt) || strings.HasSuffix(lower, draftSourceExt)
}

// IsPublishedArtifact reports whether p is a published tree artifact. Draft
// artifacts do not count.
func IsPublishedArtifact(p string) bool {
	return strings.HasSuffix(p, publishedArtifactExt) && !strings.HasSuffix(p, draftArtifactExt)
}

// IsDocument reports whether p is a source document eligible for export.
func IsDocument(p string) bool {
	return strings.EqualFold(path.Ext(p), ".md") && !IsSnapshotSource(p)
}
