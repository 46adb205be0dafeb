// Package assembler drives the parser over one document and shapes the
// exportable record.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/starford/sowilo/internal/export"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/node"
	"github.com/starford/sowilo/internal/parser"
	"github.com/starford/sowilo/internal/resolver"
	"github.com/starford/sowilo/internal/vault"
)

const (
	keySlug    = "slug"
	keyPreview = "preview"
)

// Assembler is safe for concurrent use.
type Assembler struct {
	vault  vault.Vault
	parser *parser.Parser
	logger *slog.Logger
}

// New creates an assembler.
func New(v vault.Vault, p *parser.Parser, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{vault: v, parser: p, logger: logger}
}

// Load reads a document and its stat from the vault.
func (a *Assembler) Load(docPath string) (models.RawDocument, error) {
	text, err := a.vault.ReadFile(docPath)
	if err != nil {
		return models.RawDocument{}, err
	}
	st, err := a.vault.StatOf(docPath)
	if err != nil {
		return models.RawDocument{}, err
	}
	return models.RawDocument{Path: docPath, Text: text, Stat: st}, nil
}

// Assemble parses doc in the context of folder and returns its record.
func (a *Assembler) Assemble(ctx context.Context, doc models.RawDocument, folder models.BaseFolder) (*export.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc := resolver.Context{
		Vault:        a.vault,
		SourcePath:   doc.Path,
		BaseFolder:   folder.Path,
		MetadataKeys: folder.MetadataKeys,
	}
	res, err := a.parser.Parse(doc.Text, rc)
	if err != nil {
		return nil, fmt.Errorf("assembler: %w", err)
	}

	name := path.Base(doc.Path)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	return &export.Record{
		Path:        resolver.DisplayPath(folder.Path, doc.Path),
		Name:        stem,
		Extension:   strings.TrimPrefix(ext, "."),
		MTime:       doc.Stat.MTime,
		Size:        doc.Stat.Size,
		Frontmatter: res.Frontmatter,
		Tags:        res.Tags,
		Slug:        a.slug(res.Frontmatter, stem),
		Preview:     a.preview(res.Frontmatter, rc),
		AST:         res.Tree,
	}, nil
}

// slug prefers a frontmatter slug over one derived from the file name. A
// supplied slug made only of URL-unreserved characters is kept verbatim;
// anything else is normalized where possible.
func (a *Assembler) slug(fm map[string]any, stem string) string {
	raw, ok := fm[keySlug].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return resolver.Slug(stem)
	}
	if isUnreserved(raw) {
		return raw
	}
	normalized, err := slug.Normalize(raw)
	if err != nil || normalized == "" {
		return raw
	}
	return normalized
}

func isUnreserved(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '.', r == '_', r == '~':
		default:
			return false
		}
	}
	return true
}

// preview resolves the first embed or image of the frontmatter "preview"
// field. The result is relative to the base folder, or rooted at the vault
// with a leading "/" when the asset lives elsewhere.
func (a *Assembler) preview(fm map[string]any, rc resolver.Context) string {
	raw, ok := fm[keyPreview].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return ""
	}

	var acc *models.FileAccessor
	node.Find(a.parser.ParseFragment(raw, rc), func(n node.Node) bool {
		switch v := n.(type) {
		case *node.Embed:
			acc = v.FileAccessor
		case *node.InternalLink:
			if v.IsEmbed {
				acc = v.FileAccessor
			}
		case *node.Image:
			acc = rc.Resolve(v.URL, true)
		}
		return acc != nil
	})

	if acc == nil || !acc.IsResolved() {
		a.logger.Debug("assembler: preview not resolved",
			slog.String("path", rc.SourcePath),
			slog.String("preview", raw))
		return ""
	}
	if folder := (models.BaseFolder{Path: rc.BaseFolder}); folder.Contains(acc.Resolved) {
		return resolver.DisplayPath(rc.BaseFolder, acc.Resolved)
	}
	return "/" + acc.Resolved
}
