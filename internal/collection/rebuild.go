package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/export"
	"github.com/starford/sowilo/internal/models"
)

// Failure is a document, artifact or folder that could not be exported.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string { return f.Path + ": " + f.Err.Error() }

func (f Failure) Unwrap() error { return f.Err }

// Report summarizes a rebuild.
type Report struct {
	Folders   []string // folders whose index was written
	Documents int      // documents exported
	Written   []string // artifacts whose content changed
	Removed   []string // stale artifacts deleted
	Failures  []Failure
}

// OK reports whether every document was exported.
func (r *Report) OK() bool { return len(r.Failures) == 0 }

// Err joins the failures, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

func (r *Report) fail(path string, err error) {
	r.Failures = append(r.Failures, Failure{Path: path, Err: err})
}

// RebuildAll re-exports every eligible document of each folder, removes
// artifacts that no longer have a document, and rewrites each folder's
// index. Nil folders selects every configured folder. Document failures are
// collected in the report; only cancellation aborts the run.
func (ix *Indexer) RebuildAll(ctx context.Context, folders []models.BaseFolder) (*Report, error) {
	if folders == nil {
		folders = ix.folders
	}
	report := &Report{}
	for _, f := range folders {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := ix.rebuildFolder(ctx, f, report); err != nil {
			return report, err
		}
	}
	ix.logger.Info("collection: rebuild complete",
		slog.Int("folders", len(report.Folders)),
		slog.Int("documents", report.Documents),
		slog.Int("written", len(report.Written)),
		slog.Int("removed", len(report.Removed)),
		slog.Int("failures", len(report.Failures)))
	return report, nil
}

// owns reports whether folder is the most specific base folder holding p.
func (ix *Indexer) owns(folder models.BaseFolder, p string) bool {
	for _, f := range ix.folders {
		if len(f.Path) > len(folder.Path) && folder.Contains(f.Path+"/") && f.Contains(p) {
			return false
		}
	}
	return true
}

type slot struct {
	rec     *export.Record
	written bool
	err     error
}

func (ix *Indexer) rebuildFolder(ctx context.Context, folder models.BaseFolder, report *Report) error {
	lock := ix.folderLock(folder.Path)
	lock.Lock()
	defer lock.Unlock()

	files, err := ix.vault.ListFiles(folder.Path)
	if err != nil {
		report.fail(folder.Path, err)
		return nil
	}

	var docs []string
	stale := map[string]struct{}{}
	for _, p := range files {
		switch {
		case !ix.owns(folder, p):
			// Belongs to a nested base folder.
		case export.IsPublishedArtifact(p):
			stale[p] = struct{}{}
		case export.IsDocument(p):
			docs = append(docs, p)
		}
	}

	slots := make([]slot, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, p := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, rec, err := ix.assemble(gctx, p, folder)
			if err != nil {
				slots[i].err = err
				return nil
			}
			written, err := ix.writeJSON(export.PublishedArtifact(p), rec)
			slots[i] = slot{rec: rec, written: written, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("collection: rebuild %s: %w", folder.Path, err)
	}

	records := make([]export.Record, 0, len(docs))
	for i, s := range slots {
		if s.err != nil {
			ix.logger.Warn("collection: document failed",
				slog.String("path", docs[i]),
				slog.String("error", s.err.Error()))
			report.fail(docs[i], s.err)
			continue
		}
		artifact := export.PublishedArtifact(docs[i])
		delete(stale, artifact)
		records = append(records, *s.rec)
		report.Documents++
		if s.written {
			report.Written = append(report.Written, artifact)
		}
	}

	leftovers := make([]string, 0, len(stale))
	for p := range stale {
		leftovers = append(leftovers, p)
	}
	sort.Strings(leftovers)
	for _, p := range leftovers {
		if err := ix.vault.RemoveFile(p); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			report.fail(p, err)
			continue
		}
		report.Removed = append(report.Removed, p)
	}

	idx := export.NewIndex(records)
	written, err := ix.writeIndex(folder.Path, idx)
	if err != nil {
		report.fail(export.IndexPath(folder.Path), err)
		return nil
	}
	if written {
		report.Written = append(report.Written, export.IndexPath(folder.Path))
	}
	report.Folders = append(report.Folders, folder.Path)

	ix.mirror(folder.Path, idx, records)
	ix.emit(EventRebuilt, folder.Path)
	return nil
}
