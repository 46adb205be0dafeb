package assembler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/parser"
	"github.com/starford/sowilo/internal/scanner"
	"github.com/starford/sowilo/internal/vault"
)

func setup(t *testing.T, files map[string]string) (*Assembler, *vault.FS) {
	t.Helper()
	v, err := vault.NewFS(t.TempDir())
	require.NoError(t, err)
	for p, text := range files {
		require.NoError(t, v.WriteFile(p, text))
	}
	return New(v, parser.New(nil, nil), nil), v
}

func assemble(t *testing.T, a *Assembler, docPath string, folder models.BaseFolder) map[string]any {
	t.Helper()
	doc, err := a.Load(docPath)
	require.NoError(t, err)
	rec, err := a.Assemble(context.Background(), doc, folder)
	require.NoError(t, err)
	return map[string]any{
		"path": rec.Path, "name": rec.Name, "extension": rec.Extension,
		"slug": rec.Slug, "preview": rec.Preview, "tags": rec.Tags,
		"size": rec.Size, "hasTree": rec.AST != nil, "title": rec.Title(),
	}
}

func TestAssemble_Identity(t *testing.T) {
	a, _ := setup(t, map[string]string{
		"posts/Hello World.md": "---\ntitle: Hi\ntags: [intro]\n---\nBody #extra\n",
	})
	got := assemble(t, a, "posts/Hello World.md", models.BaseFolder{Path: "posts"})

	assert.Equal(t, "Hello World.md", got["path"])
	assert.Equal(t, "Hello World", got["name"])
	assert.Equal(t, "md", got["extension"])
	assert.Equal(t, "hello-world", got["slug"])
	assert.Equal(t, []string{"intro", "extra"}, got["tags"])
	assert.Equal(t, "Hi", got["title"])
	assert.Equal(t, true, got["hasTree"])
	assert.NotZero(t, got["size"])
}

func TestAssemble_FrontmatterSlug(t *testing.T) {
	a, _ := setup(t, map[string]string{
		"p/a.md": "---\nslug: My Custom Slug\n---\n",
	})
	got := assemble(t, a, "p/a.md", models.BaseFolder{Path: "p"})
	assert.Equal(t, "my-custom-slug", got["slug"])
}

func TestAssemble_FrontmatterSlugKeptWhenURLSafe(t *testing.T) {
	a, _ := setup(t, map[string]string{
		"p/a.md": "---\nslug: release-v1.2_final~x\n---\n",
	})
	got := assemble(t, a, "p/a.md", models.BaseFolder{Path: "p"})
	assert.Equal(t, "release-v1.2_final~x", got["slug"])
}

func TestAssemble_PreviewInsideFolder(t *testing.T) {
	a, _ := setup(t, map[string]string{
		"posts/a.md":          "---\npreview: \"![[cover.png]]\"\n---\n",
		"posts/img/cover.png": "png",
	})
	got := assemble(t, a, "posts/a.md", models.BaseFolder{Path: "posts"})
	assert.Equal(t, "img/cover.png", got["preview"])
}

func TestAssemble_PreviewOutsideFolder(t *testing.T) {
	a, _ := setup(t, map[string]string{
		"posts/a.md":       "---\npreview: \"![alt](../assets/x.png)\"\n---\n",
		"assets/x.png":     "png",
		"assets/other.png": "png",
	})
	got := assemble(t, a, "posts/a.md", models.BaseFolder{Path: "posts"})
	assert.Equal(t, "/assets/x.png", got["preview"])
}

func TestAssemble_PreviewUnresolved(t *testing.T) {
	a, _ := setup(t, map[string]string{
		"posts/a.md": "---\npreview: \"![[missing.png]]\"\n---\n",
	})
	got := assemble(t, a, "posts/a.md", models.BaseFolder{Path: "posts"})
	assert.Equal(t, "", got["preview"])
}

func TestAssemble_MalformedHeader(t *testing.T) {
	a, _ := setup(t, map[string]string{"bad.md": "---\n: : {{\n---\n"})
	doc, err := a.Load("bad.md")
	require.NoError(t, err)
	_, err = a.Assemble(context.Background(), doc, models.BaseFolder{})
	assert.ErrorIs(t, err, scanner.ErrMalformedHeader)
}

func TestAssemble_Canceled(t *testing.T) {
	a, _ := setup(t, map[string]string{"a.md": "x"})
	doc, err := a.Load("a.md")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Assemble(ctx, doc, models.BaseFolder{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_Missing(t *testing.T) {
	a, _ := setup(t, nil)
	_, err := a.Load("nope.md")
	assert.Error(t, err)
}
