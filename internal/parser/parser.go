// Package parser turns a raw vault document into its effective settings,
// frontmatter, and a resolved node tree.
package parser

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/sowilo/internal/node"
	"github.com/starford/sowilo/internal/resolver"
	"github.com/starford/sowilo/internal/scanner"
	"github.com/starford/sowilo/internal/syntax"
)

// Result holds the output of parsing a document.
type Result struct {
	Config      map[string]any
	Frontmatter map[string]any
	Tree        *node.Root
	Tags        []string
	Links       []string
	Title       string
}

// Parser is safe for concurrent use. Goldmark engines are built once per
// distinct set of span triggers and reused.
type Parser struct {
	settings map[string]struct{}
	logger   *slog.Logger

	mu         sync.Mutex
	registries map[syntax.Options]*syntax.Registry
}

// New creates a parser recognizing settingsKeys in document headers. An
// empty list selects DefaultSettingsKeys.
func New(settingsKeys []string, logger *slog.Logger) *Parser {
	if len(settingsKeys) == 0 {
		settingsKeys = DefaultSettingsKeys
	}
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[string]struct{}, len(settingsKeys))
	for _, k := range settingsKeys {
		set[k] = struct{}{}
	}
	return &Parser{
		settings:   set,
		logger:     logger,
		registries: map[syntax.Options]*syntax.Registry{},
	}
}

// Parse splits raw into header, body and footer, merges the effective
// settings, and builds the node tree. Link-bearing nodes are resolved
// through rc in document order.
func (p *Parser) Parse(raw string, rc resolver.Context) (*Result, error) {
	h, f, err := scanner.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", rc.SourcePath, err)
	}
	for _, d := range []string{h.Diagnostic, f.Diagnostic} {
		if d != "" {
			p.logger.Debug("parser: degraded scan",
				slog.String("path", rc.SourcePath),
				slog.String("diagnostic", d))
		}
	}

	cfg, fm := p.EffectiveConfig(h.Fields, f.Fields())
	if keys, ok, err := metadataKeys(cfg); err != nil {
		p.logger.Warn("parser: ignoring metadata-keys",
			slog.String("path", rc.SourcePath),
			slog.String("error", err.Error()))
	} else if ok {
		rc = rc.WithMetadataKeys(keys)
	}

	b := &builder{source: []byte(f.Body), rc: rc}
	tree := b.root(p.registry(syntaxOptions(cfg)).Parse(b.source))

	return &Result{
		Config:      cfg,
		Frontmatter: fm,
		Tree:        tree,
		Tags:        collectTags(fm, tree),
		Links:       collectLinks(tree),
		Title:       deriveTitle(fm, tree),
	}, nil
}

// ParseFragment parses text with the default span triggers and no header or
// footer extraction.
func (p *Parser) ParseFragment(text string, rc resolver.Context) *node.Root {
	b := &builder{source: []byte(text), rc: rc}
	return b.root(p.registry(syntax.Options{}).Parse(b.source))
}

// EffectiveConfig merges footer settings with the header fields whose keys
// are recognized settings; header values win. Every other header field is
// returned as frontmatter.
func (p *Parser) EffectiveConfig(header, footer map[string]any) (cfg, frontmatter map[string]any) {
	cfg = make(map[string]any, len(footer))
	for k, v := range footer {
		cfg[k] = v
	}
	frontmatter = map[string]any{}
	for k, v := range header {
		if _, ok := p.settings[k]; ok {
			cfg[k] = v
			continue
		}
		frontmatter[k] = v
	}
	return cfg, frontmatter
}

func (p *Parser) registry(opts syntax.Options) *syntax.Registry {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.registries[opts]
	if !ok {
		r = syntax.New(opts)
		p.registries[opts] = r
	}
	return r
}

// collectTags returns frontmatter tags followed by inline tags, without
// duplicates.
func collectTags(fm map[string]any, tree *node.Root) []string {
	seen := map[string]struct{}{}
	out := []string{}
	add := func(s string) {
		s = strings.TrimPrefix(strings.TrimSpace(s), "#")
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := fm[keyTags].(type) {
	case string:
		for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			add(s)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}

	node.Walk(tree, func(n node.Node) bool {
		if t, ok := n.(*node.Tag); ok {
			add(t.Value)
		}
		return true
	})
	return out
}

// collectLinks lists link targets in document order, preferring the
// resolved vault path.
func collectLinks(tree *node.Root) []string {
	seen := map[string]struct{}{}
	var out []string
	node.Walk(tree, func(n node.Node) bool {
		acc, ok := node.Accessor(n)
		if !ok {
			return true
		}
		target := acc.Target
		if acc.IsResolved() {
			target = acc.Resolved
		}
		if _, dup := seen[target]; target != "" && !dup {
			seen[target] = struct{}{}
			out = append(out, target)
		}
		return true
	})
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the text
// of the first level-one heading, otherwise empty string.
func deriveTitle(fm map[string]any, tree *node.Root) string {
	if s, ok := fm[keyTitle].(string); ok && s != "" {
		return s
	}
	h := node.Find(tree, func(n node.Node) bool {
		h, ok := n.(*node.Heading)
		return ok && h.Depth == 1
	})
	if h == nil {
		return ""
	}
	return strings.TrimSpace(node.TextContent(h))
}
