package parser

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/node"
	"github.com/starford/sowilo/internal/resolver"
	"github.com/starford/sowilo/internal/scanner"
	"github.com/starford/sowilo/internal/vault"
)

func newVault(t *testing.T, files map[string]string) *vault.FS {
	t.Helper()
	v, err := vault.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	for p, text := range files {
		if err := v.WriteFile(p, text); err != nil {
			t.Fatalf("WriteFile(%s): %v", p, err)
		}
	}
	return v
}

func mustParse(t *testing.T, raw string, rc resolver.Context) *Result {
	t.Helper()
	r, err := New(nil, nil).Parse(raw, rc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return r
}

func find[T node.Node](t *testing.T, root *node.Root) []T {
	t.Helper()
	var out []T
	node.Walk(root, func(n node.Node) bool {
		if v, ok := n.(T); ok {
			out = append(out, v)
		}
		return true
	})
	return out
}

func TestParse_FrontmatterAndConfig(t *testing.T) {
	raw := "---\ntitle: Hello\nlane-width: 300\ntags:\n  - go\n---\n# Hello\nBody text.\n\n```\n{\"lane-width\": 200, \"hide-card-count\": true}\n```\n"
	r := mustParse(t, raw, resolver.Context{})

	if r.Title != "Hello" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Config["lane-width"] != 300 {
		t.Errorf("header should override footer, lane-width = %#v", r.Config["lane-width"])
	}
	if r.Config["hide-card-count"] != true {
		t.Errorf("footer value missing: %v", r.Config)
	}
	if _, ok := r.Frontmatter["lane-width"]; ok {
		t.Error("settings key leaked into frontmatter")
	}
	if r.Frontmatter["title"] != "Hello" {
		t.Errorf("frontmatter = %v", r.Frontmatter)
	}
	if codes := find[*node.Code](t, r.Tree); len(codes) != 0 {
		t.Error("footer block must not appear in the tree")
	}
}

func TestParse_NoHeader(t *testing.T) {
	r := mustParse(t, "# Just a heading\nSome text.\n", resolver.Context{})
	if len(r.Frontmatter) != 0 {
		t.Errorf("expected empty frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_MalformedHeader(t *testing.T) {
	_, err := New(nil, nil).Parse("---\n: invalid: yaml: {{{\n---\nBody\n", resolver.Context{SourcePath: "x.md"})
	if !errors.Is(err, scanner.ErrMalformedHeader) {
		t.Fatalf("err = %v, want ErrMalformedHeader", err)
	}
}

func TestParse_TrailingCodeBlockFailsDocument(t *testing.T) {
	_, err := New(nil, nil).Parse("# Code\n\n```go\nx := 1\n```\n", resolver.Context{})
	if !errors.Is(err, scanner.ErrMalformedFooter) {
		t.Fatalf("err = %v, want ErrMalformedFooter", err)
	}
}

func TestParse_Tags(t *testing.T) {
	r := mustParse(t, "word #tag/sub more #tag2\n", resolver.Context{})
	if !reflect.DeepEqual(r.Tags, []string{"tag/sub", "tag2"}) {
		t.Errorf("tags = %v", r.Tags)
	}

	r = mustParse(t, "a#notatag\n", resolver.Context{})
	if len(r.Tags) != 0 {
		t.Errorf("tags = %v, want none", r.Tags)
	}
	if tags := find[*node.Tag](t, r.Tree); len(tags) != 0 {
		t.Errorf("tag nodes = %v", tags)
	}
}

func TestParse_TagsMergeFrontmatter(t *testing.T) {
	r := mustParse(t, "---\ntags: [b, a]\n---\ntext #a #c\n", resolver.Context{})
	if !reflect.DeepEqual(r.Tags, []string{"b", "a", "c"}) {
		t.Errorf("tags = %v", r.Tags)
	}
	r = mustParse(t, "---\ntags: \"#x, y\"\n---\n", resolver.Context{})
	if !reflect.DeepEqual(r.Tags, []string{"x", "y"}) {
		t.Errorf("string tags = %v", r.Tags)
	}
}

func TestParse_TaskList(t *testing.T) {
	r := mustParse(t, "- [x] Done thing\n- [ ] Todo\n- plain\n", resolver.Context{})
	items := find[*node.ListItem](t, r.Tree)
	if len(items) != 3 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0].Checked == nil || !*items[0].Checked {
		t.Error("first item should be checked")
	}
	if got := node.TextContent(items[0]); got != "Done thing" {
		t.Errorf("first item text = %q", got)
	}
	if items[1].Checked == nil || *items[1].Checked {
		t.Error("second item should be unchecked")
	}
	if got := node.TextContent(items[1]); got != "Todo" {
		t.Errorf("second item text = %q", got)
	}
	if items[2].Checked != nil {
		t.Error("plain item should have no checked state")
	}
}

func TestParse_Wikilinks(t *testing.T) {
	v := newVault(t, map[string]string{"notes/Foo.md": "---\nstatus: open\n---\nfoo"})
	rc := resolver.Context{
		Vault:        v,
		SourcePath:   "notes/index.md",
		BaseFolder:   "notes",
		MetadataKeys: []models.MetadataKey{{Key: "status"}},
	}
	r := mustParse(t, "See [[Foo]] and ![[Foo]]\n", rc)

	links := find[*node.Wikilink](t, r.Tree)
	if len(links) != 1 {
		t.Fatalf("wikilinks = %d", len(links))
	}
	acc := links[0].FileAccessor
	if acc == nil || acc.IsEmbed || acc.Slug != "foo" || acc.Path != "Foo.md" {
		t.Fatalf("accessor = %+v", acc)
	}
	if len(acc.Metadata) != 1 || acc.Metadata[0].Value != "open" {
		t.Errorf("metadata = %+v", acc.Metadata)
	}

	embeds := find[*node.Embed](t, r.Tree)
	if len(embeds) != 1 || !embeds[0].FileAccessor.IsEmbed {
		t.Fatalf("embeds = %+v", embeds)
	}
	if embeds[0].FileAccessor.Metadata != nil {
		t.Error("embeds carry no metadata")
	}
	if !reflect.DeepEqual(r.Links, []string{"notes/Foo.md"}) {
		t.Errorf("links = %v", r.Links)
	}
}

type recordingVault struct{ lookups []string }

func (v *recordingVault) ResolveLinkTarget(raw, _ string) (string, bool) {
	v.lookups = append(v.lookups, raw)
	return "", false
}
func (v *recordingVault) HeaderFieldsOf(string) (map[string]any, bool) { return nil, false }
func (v *recordingVault) StatOf(string) (models.Stat, error)           { return models.Stat{}, errors.New("none") }

func TestParse_ResolvesInDocumentOrder(t *testing.T) {
	v := &recordingVault{}
	mustParse(t, "# [[A]]\n\n> ![[B]]\n\n- [c](C%20D.md) [[E|alias]]\n", resolver.Context{Vault: v})
	want := []string{"A", "B", "C D.md", "E"}
	if !reflect.DeepEqual(v.lookups, want) {
		t.Errorf("lookups = %v, want %v", v.lookups, want)
	}
}

func TestParse_InternalLinks(t *testing.T) {
	v := newVault(t, map[string]string{"docs/My Note.md": "x"})
	r := mustParse(t, "[go](My%20Note.md) ![pic](My%20Note.md) [web](https://example.com/a.md)\n",
		resolver.Context{Vault: v, SourcePath: "docs/index.md", BaseFolder: "docs"})

	links := find[*node.InternalLink](t, r.Tree)
	if len(links) != 2 {
		t.Fatalf("internal links = %d", len(links))
	}
	if links[0].URL != "My%20Note.md" || links[0].IsEmbed {
		t.Errorf("first = %+v", links[0])
	}
	if links[0].FileAccessor.Path != "My Note.md" || links[0].FileAccessor.Slug != "my-note" {
		t.Errorf("accessor = %+v", links[0].FileAccessor)
	}
	if !links[1].IsEmbed || !links[1].FileAccessor.IsEmbed {
		t.Error("image link should be an embed")
	}
	if got := node.TextContent(links[0]); got != "go" {
		t.Errorf("label = %q", got)
	}
	if ext := find[*node.Link](t, r.Tree); len(ext) != 1 {
		t.Errorf("external links = %d", len(ext))
	}
}

func TestParse_BlockID(t *testing.T) {
	r := mustParse(t, "A paragraph ^para-1\n\n- item ^item\n\nmid ^no text\n", resolver.Context{})
	paras := find[*node.Paragraph](t, r.Tree)
	if len(paras) != 3 {
		t.Fatalf("paragraphs = %d", len(paras))
	}
	if paras[0].BlockID != "para-1" {
		t.Errorf("block id = %q", paras[0].BlockID)
	}
	if got := node.TextContent(paras[0]); got != "A paragraph" {
		t.Errorf("text = %q", got)
	}
	items := find[*node.ListItem](t, r.Tree)
	if len(items) != 1 || items[0].BlockID != "item" {
		t.Errorf("item block id = %+v", items)
	}
	if paras[2].BlockID != "" || node.TextContent(paras[2]) != "mid ^no text" {
		t.Errorf("mid-line id should stay text: %q", node.TextContent(paras[2]))
	}
}

func TestParse_DateTimeTriggers(t *testing.T) {
	r := mustParse(t, "due @{2024-01-02} @@{09:30}\n", resolver.Context{})
	dates, times := find[*node.Date](t, r.Tree), find[*node.Time](t, r.Tree)
	if len(dates) != 1 || dates[0].Value != "2024-01-02" || len(times) != 1 || times[0].Value != "09:30" {
		t.Errorf("dates = %+v times = %+v", dates, times)
	}

	raw := "due !{2024-01-02} @{plain}\n\n```\n{\"date-trigger\": \"!\", \"time-trigger\": \"!!\"}\n```\n"
	r = mustParse(t, raw, resolver.Context{})
	dates = find[*node.Date](t, r.Tree)
	if len(dates) != 1 || dates[0].Value != "2024-01-02" {
		t.Errorf("custom trigger dates = %+v", dates)
	}
}

func TestParse_MetadataKeysOverride(t *testing.T) {
	v := newVault(t, map[string]string{"Card.md": "---\nowner: sam\nstatus: open\n---\n"})
	raw := "[[Card]]\n\n```\n{\"metadata-keys\": [{\"metadataKey\": \"owner\", \"label\": \"Owner\", \"containsMarkdown\": true}]}\n```\n"
	r := mustParse(t, raw, resolver.Context{Vault: v, MetadataKeys: []models.MetadataKey{{Key: "status"}}})

	links := find[*node.Wikilink](t, r.Tree)
	if len(links) != 1 {
		t.Fatalf("wikilinks = %d", len(links))
	}
	want := []models.MetadataEntry{{Key: "owner", Label: "Owner", ContainsMarkdown: true, Value: "sam", Type: models.ValueString}}
	if !reflect.DeepEqual(links[0].FileAccessor.Metadata, want) {
		t.Errorf("metadata = %+v", links[0].FileAccessor.Metadata)
	}
}

func TestParseFragment(t *testing.T) {
	v := newVault(t, map[string]string{"img/cover.png": "png"})
	root := New(nil, nil).ParseFragment("![[cover.png]]", resolver.Context{Vault: v})
	embeds := find[*node.Embed](t, root)
	if len(embeds) != 1 || embeds[0].FileAccessor.Resolved != "img/cover.png" {
		t.Errorf("embeds = %+v", embeds)
	}
}

func TestParse_Deterministic(t *testing.T) {
	raw := "---\ntitle: T\n---\n# T\n\n- [x] a [[B]] #t\n- b **bold** ~~gone~~ `code`\n\n> quote\n"
	p := New(nil, nil)
	var out [2][]byte
	for i := range out {
		r, err := p.Parse(raw, resolver.Context{})
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		out[i], err = json.Marshal(r.Tree)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
	}
	if string(out[0]) != string(out[1]) {
		t.Errorf("non-deterministic output:\n%s\n%s", out[0], out[1])
	}
}

func TestParse_InlineFormatting(t *testing.T) {
	r := mustParse(t, "*em* **strong** ~~del~~ `code` <b>x</b>\n", resolver.Context{})
	if len(find[*node.Emphasis](t, r.Tree)) != 1 ||
		len(find[*node.Strong](t, r.Tree)) != 1 ||
		len(find[*node.Delete](t, r.Tree)) != 1 ||
		len(find[*node.InlineCode](t, r.Tree)) != 1 {
		t.Errorf("unexpected inline kinds in %+v", r.Tree.Children)
	}
	if raw := find[*node.RawInline](t, r.Tree); len(raw) != 2 {
		t.Errorf("raw html = %d", len(raw))
	}
}

func TestParse_EscapesAndEntities(t *testing.T) {
	r := mustParse(t, "a \\*b\\* &amp; c &#35;1 `\\*raw\\*`\n", resolver.Context{})
	var text string
	for _, n := range find[*node.Text](t, r.Tree) {
		text += n.Value
	}
	if text != "a *b* & c #1 " {
		t.Errorf("text = %q", text)
	}
	if len(find[*node.Emphasis](t, r.Tree)) != 0 {
		t.Error("escaped markers must not open emphasis")
	}
	code := find[*node.InlineCode](t, r.Tree)
	if len(code) != 1 || code[0].Value != `\*raw\*` {
		t.Errorf("code span = %+v", code)
	}
	if tags := find[*node.Tag](t, r.Tree); len(tags) != 0 {
		t.Errorf("entity must not become a tag: %+v", tags)
	}
}

func TestEffectiveConfig(t *testing.T) {
	p := New([]string{"a"}, nil)
	cfg, fm := p.EffectiveConfig(map[string]any{"a": 2, "b": 3}, map[string]any{"a": 1, "c": 4})
	if !reflect.DeepEqual(cfg, map[string]any{"a": 2, "c": 4}) {
		t.Errorf("cfg = %v", cfg)
	}
	if !reflect.DeepEqual(fm, map[string]any{"b": 3}) {
		t.Errorf("frontmatter = %v", fm)
	}
}
