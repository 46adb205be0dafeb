package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/assembler"
	"github.com/starford/sowilo/internal/export"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/parser"
	"github.com/starford/sowilo/internal/vault"
)

var posts = models.BaseFolder{Path: "posts"}

func setup(t *testing.T, files map[string]string, opts ...Option) (*Indexer, *vault.FS) {
	t.Helper()
	v, err := vault.NewFS(t.TempDir())
	require.NoError(t, err)
	for p, text := range files {
		require.NoError(t, v.WriteFile(p, text))
	}
	asm := assembler.New(v, parser.New(nil, nil), nil)
	return New(v, asm, []models.BaseFolder{posts}, opts...), v
}

func read(t *testing.T, v *vault.FS, p string) string {
	t.Helper()
	text, err := v.ReadFile(p)
	require.NoError(t, err)
	return text
}

func readIndex(t *testing.T, v *vault.FS) *export.Index {
	t.Helper()
	idx, err := export.DecodeIndex([]byte(read(t, v, "posts/main.meta.json")))
	require.NoError(t, err)
	return idx
}

func TestRebuildAll(t *testing.T) {
	ix, v := setup(t, map[string]string{
		"posts/a.md":           "---\ntitle: A\ntags: [go]\n---\nLinks to [[b]] #shared\n",
		"posts/b.md":           "B body #shared\n",
		"posts/b.published.md": "old snapshot",
		"posts/c.draft.md":     "draft copy",
		"posts/notes.txt":      "ignored",
		"other/x.md":           "outside",
	})

	report, err := ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, report.OK(), "%v", report.Err())
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, []string{"posts"}, report.Folders)

	assert.True(t, v.FileExists("posts/a.ast.json"))
	assert.True(t, v.FileExists("posts/b.ast.json"))
	assert.False(t, v.FileExists("posts/b.published.ast.json"))
	assert.False(t, v.FileExists("posts/c.draft.ast.json"))
	assert.False(t, v.FileExists("other/x.ast.json"))

	idx := readIndex(t, v)
	require.Len(t, idx.Files, 2)
	assert.ElementsMatch(t, []string{"go", "shared"}, idx.TagNames())
	g, _ := idx.Tag("shared")
	assert.Len(t, g.Entries, 2)

	var art map[string]any
	require.NoError(t, json.Unmarshal([]byte(read(t, v, "posts/a.ast.json")), &art))
	assert.Equal(t, "a.md", art["path"])
	assert.Equal(t, "A", art["title"])
	assert.Contains(t, art, "ast")
}

func TestRebuildAll_Idempotent(t *testing.T) {
	ix, v := setup(t, map[string]string{
		"posts/a.md":    "---\ntags: [x]\ncount: 3\nratio: 1.5\n---\n[[b]] ![[img.png]] @{2024-01-01}\n",
		"posts/b.md":    "---\nstatus: open\n---\nb",
		"posts/img.png": "png",
	})

	_, err := ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)
	firstArtifact := read(t, v, "posts/a.ast.json")
	firstIndex := read(t, v, "posts/main.meta.json")

	report, err := ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, firstArtifact, read(t, v, "posts/a.ast.json"))
	assert.Equal(t, firstIndex, read(t, v, "posts/main.meta.json"))
	assert.Empty(t, report.Written, "unchanged output should not be rewritten")
}

func TestPublishOne_KeepsOtherEntriesStable(t *testing.T) {
	ix, v := setup(t, map[string]string{
		"posts/a.md": "---\nsize: large\nname: 42\nextension: [x]\n---\na",
		"posts/b.md": "b",
	})

	_, err := ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)
	before := read(t, v, "posts/main.meta.json")

	_, err = ix.PublishOne(context.Background(), "posts/b.md")
	require.NoError(t, err)
	assert.Equal(t, before, read(t, v, "posts/main.meta.json"))

	a, ok := readIndex(t, v).Find("a.md")
	require.True(t, ok)
	assert.Equal(t, "large", a.Frontmatter["size"])
}

func TestRebuildAll_RemovesStaleArtifacts(t *testing.T) {
	ix, v := setup(t, map[string]string{
		"posts/a.md":                "a",
		"posts/gone.ast.json":       "{}",
		"posts/keep.draft.ast.json": "{}",
	})
	report, err := ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/gone.ast.json"}, report.Removed)
	assert.False(t, v.FileExists("posts/gone.ast.json"))
	assert.True(t, v.FileExists("posts/keep.draft.ast.json"))
}

func TestRebuildAll_FailuresDoNotAbort(t *testing.T) {
	ix, v := setup(t, map[string]string{
		"posts/bad.md":  "---\n: : {{\n---\n",
		"posts/good.md": "fine",
	})
	report, err := ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "posts/bad.md", report.Failures[0].Path)
	assert.False(t, report.OK())
	assert.Error(t, report.Err())

	idx := readIndex(t, v)
	require.Len(t, idx.Files, 1)
	assert.Equal(t, "good.md", idx.Files[0].Path)
}

func TestRebuildAll_MissingFolder(t *testing.T) {
	ix, _ := setup(t, nil)
	report, err := ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], apperr.ErrNotFound)
}

func TestRebuildAll_Canceled(t *testing.T) {
	ix, _ := setup(t, map[string]string{"posts/a.md": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ix.RebuildAll(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublishOne_Upsert(t *testing.T) {
	ix, v := setup(t, map[string]string{"posts/a.md": "---\ntags: [one]\n---\nv1"})

	diff, err := ix.PublishOne(context.Background(), "posts/a.md")
	require.NoError(t, err)
	assert.False(t, diff.Replaced)
	assert.Equal(t, []string{"one"}, diff.TagsAdded)
	assert.Equal(t, "posts/a.ast.json", diff.Artifact)
	assert.Equal(t, "---\ntags: [one]\n---\nv1", read(t, v, "posts/a.published.md"))

	require.NoError(t, v.WriteFile("posts/a.md", "---\ntags: [two]\n---\nv2"))
	diff, err = ix.PublishOne(context.Background(), "posts/a.md")
	require.NoError(t, err)
	assert.True(t, diff.Replaced)
	assert.Equal(t, 1, diff.Records)
	assert.Equal(t, []string{"two"}, diff.TagsAdded)
	assert.Equal(t, []string{"one"}, diff.TagsRemoved)

	idx := readIndex(t, v)
	require.Len(t, idx.Files, 1)
	assert.Equal(t, []string{"two"}, idx.Files[0].Tags)
	assert.Equal(t, []string{"two"}, idx.TagNames())
}

func TestPublishOne_Rejects(t *testing.T) {
	ix, _ := setup(t, map[string]string{
		"posts/a.published.md": "x",
		"other/b.md":           "x",
	})
	_, err := ix.PublishOne(context.Background(), "posts/a.published.md")
	assert.ErrorIs(t, err, apperr.ErrSnapshotSource)
	_, err = ix.PublishOne(context.Background(), "other/b.md")
	assert.ErrorIs(t, err, apperr.ErrOutsideFolders)
	_, err = ix.PublishOne(context.Background(), "posts/missing.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = ix.DraftOne(context.Background(), "posts/notes.txt")
	assert.ErrorIs(t, err, apperr.ErrNotDocument)
}

func TestPublishOne_Concurrent(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 12; i++ {
		files[fmt.Sprintf("posts/n%02d.md", i)] = fmt.Sprintf("note %d #t%d #all", i, i%3)
	}
	ix, v := setup(t, files)

	var wg sync.WaitGroup
	for p := range files {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ix.PublishOne(context.Background(), p)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	idx := readIndex(t, v)
	assert.Len(t, idx.Files, len(files))
	g, ok := idx.Tag("all")
	require.True(t, ok)
	assert.Len(t, g.Entries, len(files))
}

func TestDraftOne_Isolation(t *testing.T) {
	ix, v := setup(t, map[string]string{"posts/a.md": "---\ntags: [pub]\n---\npublished"})
	_, err := ix.PublishOne(context.Background(), "posts/a.md")
	require.NoError(t, err)
	indexBefore := read(t, v, "posts/main.meta.json")
	artifactBefore := read(t, v, "posts/a.ast.json")

	require.NoError(t, v.WriteFile("posts/a.md", "---\ntags: [wip]\n---\ndraft edit"))
	res, err := ix.DraftOne(context.Background(), "posts/a.md")
	require.NoError(t, err)
	assert.Equal(t, "posts/a.draft.ast.json", res.Artifact)
	assert.Equal(t, "posts/a.draft.md", res.Source)
	assert.True(t, res.Written)

	assert.Equal(t, indexBefore, read(t, v, "posts/main.meta.json"))
	assert.Equal(t, artifactBefore, read(t, v, "posts/a.ast.json"))
	assert.Equal(t, "---\ntags: [wip]\n---\ndraft edit", read(t, v, "posts/a.draft.md"))

	report, err := ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)
	assert.NotContains(t, report.Removed, "posts/a.draft.ast.json")
	assert.True(t, v.FileExists("posts/a.draft.ast.json"))
}

type fakeCatalog struct {
	mu      sync.Mutex
	folders map[string]int
	changed []string
}

func (c *fakeCatalog) SyncFolder(folder string, ix *export.Index, changed []export.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.folders[folder] = len(ix.Files)
	for _, r := range changed {
		if r.AST != nil {
			c.changed = append(c.changed, r.Path)
		}
	}
	return nil
}

func TestHooks(t *testing.T) {
	cat := &fakeCatalog{folders: map[string]int{}}
	var mu sync.Mutex
	var events []string
	record := func(kind, path string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, kind+":"+path)
	}
	ix, _ := setup(t, map[string]string{"posts/a.md": "a", "posts/b.md": "b"},
		WithCatalog(cat), WithEventFunc(record), WithWorkers(1))

	_, err := ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)
	_, err = ix.PublishOne(context.Background(), "posts/a.md")
	require.NoError(t, err)
	_, err = ix.DraftOne(context.Background(), "posts/b.md")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"posts": 2}, cat.folders)
	assert.ElementsMatch(t, []string{"a.md", "b.md", "a.md"}, cat.changed)
	assert.Equal(t, []string{"rebuilt:posts", "published:posts/a.md", "drafted:posts/b.md"}, events)
}

func TestFolderFor_MostSpecific(t *testing.T) {
	v, err := vault.NewFS(t.TempDir())
	require.NoError(t, err)
	ix := New(v, nil, []models.BaseFolder{{Path: "posts"}, {Path: "posts/deep"}})

	f, err := ix.FolderFor("posts/deep/a.md")
	require.NoError(t, err)
	assert.Equal(t, "posts/deep", f.Path)

	f, err = ix.FolderFor("posts/a.md")
	require.NoError(t, err)
	assert.Equal(t, "posts", f.Path)
}

func TestRebuildAll_NestedFolderOwnsItsDocuments(t *testing.T) {
	v, err := vault.NewFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, v.WriteFile("posts/a.md", "a"))
	require.NoError(t, v.WriteFile("posts/deep/b.md", "b"))
	asm := assembler.New(v, parser.New(nil, nil), nil)
	ix := New(v, asm, []models.BaseFolder{{Path: "posts"}, {Path: "posts/deep"}})

	_, err = ix.RebuildAll(context.Background(), nil)
	require.NoError(t, err)

	outer, err := ix.Index("posts")
	require.NoError(t, err)
	require.Len(t, outer.Files, 1)
	assert.Equal(t, "a.md", outer.Files[0].Path)

	inner, err := ix.Index("posts/deep")
	require.NoError(t, err)
	require.Len(t, inner.Files, 1)
	assert.Equal(t, "b.md", inner.Files[0].Path)
}
