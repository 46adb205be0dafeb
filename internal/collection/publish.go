package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/sowilo/internal/checksum"
	"github.com/starford/sowilo/internal/export"
)

// Diff describes how a publish changed its folder's index.
type Diff struct {
	Path        string   `json:"path"`
	Folder      string   `json:"folder"`
	Artifact    string   `json:"artifact"`
	Replaced    bool     `json:"replaced"`
	Records     int      `json:"records"`
	TagsAdded   []string `json:"tags_added"`
	TagsRemoved []string `json:"tags_removed"`
}

// DraftResult names the files written by a draft.
type DraftResult struct {
	Path     string `json:"path"`
	Artifact string `json:"artifact"`
	Source   string `json:"source"`
	Written  bool   `json:"written"`
}

// PublishOne exports one document, stores a raw snapshot next to it, and
// upserts its record into the folder index.
func (ix *Indexer) PublishOne(ctx context.Context, docPath string) (*Diff, error) {
	folder, err := ix.checkSource(docPath)
	if err != nil {
		return nil, err
	}

	lock := ix.folderLock(folder.Path)
	lock.Lock()
	defer lock.Unlock()

	doc, rec, err := ix.assemble(ctx, docPath, folder)
	if err != nil {
		return nil, fmt.Errorf("collection: publish %s: %w", docPath, err)
	}
	artifact := export.PublishedArtifact(docPath)
	if _, err := ix.writeJSON(artifact, rec); err != nil {
		return nil, err
	}
	if _, err := ix.writeIfChanged(export.PublishedSource(docPath), []byte(doc.Text)); err != nil {
		return nil, err
	}

	idx, err := ix.Index(folder.Path)
	if err != nil {
		return nil, err
	}
	before := idx.TagNames()
	replaced := idx.Upsert(*rec)
	if _, err := ix.writeIndex(folder.Path, idx); err != nil {
		return nil, err
	}
	after := idx.TagNames()

	ix.mirror(folder.Path, idx, []export.Record{*rec})
	ix.emit(EventPublished, docPath)
	ix.logger.Info("collection: published",
		slog.String("path", docPath),
		slog.Bool("replaced", replaced))

	return &Diff{
		Path:        docPath,
		Folder:      folder.Path,
		Artifact:    artifact,
		Replaced:    replaced,
		Records:     len(idx.Files),
		TagsAdded:   missing(after, before),
		TagsRemoved: missing(before, after),
	}, nil
}

// DraftOne exports one document under draft names. The index is not
// touched.
func (ix *Indexer) DraftOne(ctx context.Context, docPath string) (*DraftResult, error) {
	folder, err := ix.checkSource(docPath)
	if err != nil {
		return nil, err
	}
	doc, rec, err := ix.assemble(ctx, docPath, folder)
	if err != nil {
		return nil, fmt.Errorf("collection: draft %s: %w", docPath, err)
	}

	res := &DraftResult{
		Path:     docPath,
		Artifact: export.DraftArtifact(docPath),
		Source:   export.DraftSource(docPath),
	}
	wroteArtifact, err := ix.writeJSON(res.Artifact, rec)
	if err != nil {
		return nil, err
	}
	wroteSource, err := ix.writeIfChanged(res.Source, []byte(doc.Text))
	if err != nil {
		return nil, err
	}
	res.Written = wroteArtifact || wroteSource

	ix.emit(EventDrafted, docPath)
	return res, nil
}

func (ix *Indexer) writeJSON(path string, v any) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("collection: encode %s: %w", path, err)
	}
	return ix.writeIfChanged(path, data)
}

func (ix *Indexer) writeIndex(folder string, idx *export.Index) (bool, error) {
	data, err := idx.Encode()
	if err != nil {
		return false, err
	}
	return ix.writeIfChanged(export.IndexPath(folder), data)
}

// writeIfChanged leaves files whose content already matches untouched.
func (ix *Indexer) writeIfChanged(path string, data []byte) (bool, error) {
	if ix.vault.FileExists(path) {
		if cur, err := ix.vault.ReadFile(path); err == nil && checksum.Equal([]byte(cur), data) {
			return false, nil
		}
	}
	if err := ix.vault.WriteFile(path, string(data)); err != nil {
		return false, fmt.Errorf("collection: write %s: %w", path, err)
	}
	return true, nil
}

// missing returns the names in a that are not in b.
func missing(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := []string{}
	for _, s := range a {
		if _, ok := set[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
