package mcpserver

// ArtifactFormat describes the files Sowilo writes next to exported
// documents, for LLM consumers reading them back.
const ArtifactFormat = `# Sowilo Artifact Format

Exports are written inside the vault, next to their source document.

## Files

| File | Written by | Content |
|---|---|---|
| ` + "`<stem>.ast.json`" + ` | publish, rebuild | export record with tree |
| ` + "`<stem>.published.md`" + ` | publish | raw copy of the source |
| ` + "`<stem>.draft.ast.json`" + ` | draft | export record with tree |
| ` + "`<stem>.draft.md`" + ` | draft | raw copy of the source |
| ` + "`<base>/main.meta.json`" + ` | publish, rebuild | aggregate index of a base folder |

Snapshot copies (` + "`.published.md`, `.draft.md`" + `) are never exported themselves.
A rebuild deletes ` + "`.ast.json`" + ` files whose document is gone; draft artifacts are kept.

## Export record

One flat JSON object with sorted keys:

- ` + "`path`" + ` document path relative to its base folder
- ` + "`name`, `extension`, `mtime` (unix ms), `size`" + ` file identity
- every frontmatter field, except that it cannot replace the reserved keys
  ` + "`path`, `mtime`, `tags`, `slug`, `preview`, `ast`" + `
- ` + "`tags`" + ` frontmatter tags followed by inline #tags, de-duplicated
- ` + "`slug`" + ` frontmatter slug, or one derived from the file name
- ` + "`preview`" + ` first embedded file of the frontmatter preview field
- ` + "`ast`" + ` the syntax tree (omitted in the index)

## Syntax tree

Every node has a ` + "`type`" + `. Parents carry ` + "`children`" + `.
Block types: root, paragraph, heading, list, listItem, blockquote, code,
thematicBreak, html. Inline types: text, emphasis, strong, delete, inlineCode,
break, link, image, tag, wikilink, embed, internalLink, blockId, date, time,
rawInline.

Wikilinks, embeds and internal links carry a ` + "`fileAccessor`" + `:

` + "```" + `json
{
  "target": "other",
  "subpath": "#Heading",
  "alias": "shown text",
  "isEmbed": false,
  "resolved": "posts/other.md",
  "path": "other.md",
  "slug": "other",
  "stat": {"mtime": 1700000000000, "size": 120},
  "metadata": [{"key": "title", "label": "Title", "value": "Other", "type": "string"}]
}
` + "```" + `

A dangling link keeps only ` + "`target`" + ` and its subpath and alias.

## Aggregate index

` + "```" + `json
{
  "files": [ /* export records without ast, newest mtime first */ ],
  "tags": [
    {"name": "go", "entries": [{"path": "hello.md", "slug": "hello", "preview": "cover.png"}]}
  ]
}
` + "```" + `

Tag groups appear in the order their tag is first seen while walking ` + "`files`" + `.
`
