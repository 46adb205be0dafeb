// Package syntax extends goldmark with the vault's inline constructs:
// wikilinks, embeds, tags, block ids, dates and times, plus a post-pass that
// marks links to vault documents as internal.
//
// Nothing here touches the filesystem; resolution happens when the parser
// converts the goldmark tree.
package syntax

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	DefaultDateTrigger = "@"
	DefaultTimeTrigger = "@@"

	// Below goldmark's link parser (200) so "[[" and "![[" are seen first.
	tokenizerPriority   = 199
	transformerPriority = 100
)

// Options configures the trigger sequences of date and time spans.
type Options struct {
	DateTrigger string
	TimeTrigger string
}

func (o Options) withDefaults() Options {
	if o.DateTrigger == "" {
		o.DateTrigger = DefaultDateTrigger
	}
	if o.TimeTrigger == "" {
		o.TimeTrigger = DefaultTimeTrigger
	}
	return o
}

// Registry is the ordered dispatch table of inline tokenizers. It implements
// goldmark.Extender and is safe for concurrent use once built.
type Registry struct {
	opts  Options
	spans []WrappedSpan
	md    goldmark.Markdown
}

// New builds a registry and the goldmark engine that carries it.
func New(opts Options) *Registry {
	opts = opts.withDefaults()
	r := &Registry{opts: opts, spans: defaultSpans(opts)}
	r.md = goldmark.New(goldmark.WithExtensions(
		extension.TaskList,
		extension.Strikethrough,
		r,
	))
	return r
}

// Options returns the effective options.
func (r *Registry) Options() Options { return r.opts }

// Spans returns the wrapped span definitions in registration order.
func (r *Registry) Spans() []WrappedSpan {
	return append([]WrappedSpan(nil), r.spans...)
}

// Extend implements goldmark.Extender.
func (r *Registry) Extend(m goldmark.Markdown) {
	var tokenizers []util.PrioritizedValue
	for _, p := range newSpanParsers(r.spans) {
		tokenizers = append(tokenizers, util.Prioritized(p, tokenizerPriority))
	}
	tokenizers = append(tokenizers,
		util.Prioritized(tagParser{}, tokenizerPriority),
		util.Prioritized(blockIDParser{}, tokenizerPriority),
	)
	m.Parser().AddOptions(
		parser.WithInlineParsers(tokenizers...),
		parser.WithASTTransformers(util.Prioritized(internalLinkTransformer{}, transformerPriority)),
	)
}

// Parse runs the extended grammar over src. Text segments in the returned
// tree refer back into src.
func (r *Registry) Parse(src []byte) ast.Node {
	return r.md.Parser().Parse(text.NewReader(src))
}
