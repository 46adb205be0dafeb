package parser

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/util"

	"github.com/starford/sowilo/internal/node"
	"github.com/starford/sowilo/internal/resolver"
	"github.com/starford/sowilo/internal/syntax"
)

// builder converts a goldmark tree into node values. Children are visited
// in order, so links resolve in pre-order.
type builder struct {
	source []byte
	rc     resolver.Context
}

func (b *builder) root(doc ast.Node) *node.Root {
	root := &node.Root{}
	root.Children = b.blocks(doc)
	return root
}

func (b *builder) blocks(parent ast.Node) []node.Node {
	out := []node.Node{}
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, b.block(c)...)
	}
	return out
}

func (b *builder) block(n ast.Node) []node.Node {
	switch v := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		p := &node.Paragraph{}
		p.Children, p.BlockID = b.blockInlines(n)
		return []node.Node{p}

	case *ast.Heading:
		h := &node.Heading{Depth: v.Level}
		h.Children, h.BlockID = b.blockInlines(n)
		return []node.Node{h}

	case *ast.List:
		l := &node.List{Ordered: v.IsOrdered(), Spread: !v.IsTight}
		if l.Ordered {
			l.Start = v.Start
		}
		l.Children = b.blocks(n)
		return []node.Node{l}

	case *ast.ListItem:
		item := &node.ListItem{}
		if cb := taskCheckBox(n); cb != nil {
			checked := cb.IsChecked
			item.Checked = &checked
		}
		item.Children = b.blocks(n)
		if len(item.Children) == 1 {
			if p, ok := item.Children[0].(*node.Paragraph); ok {
				item.BlockID = p.BlockID
			}
		}
		return []node.Node{item}

	case *ast.Blockquote:
		q := &node.Blockquote{}
		q.Children = b.blocks(n)
		return []node.Node{q}

	case *ast.FencedCodeBlock:
		return []node.Node{&node.Code{
			Lang:  string(v.Language(b.source)),
			Value: strings.TrimSuffix(b.lines(n), "\n"),
		}}

	case *ast.CodeBlock:
		return []node.Node{&node.Code{Value: strings.TrimSuffix(b.lines(n), "\n")}}

	case *ast.ThematicBreak:
		return []node.Node{&node.ThematicBreak{}}

	case *ast.HTMLBlock:
		value := b.lines(n)
		if v.HasClosure() {
			value += string(v.ClosureLine.Value(b.source))
		}
		return []node.Node{&node.HTML{Value: strings.TrimSuffix(value, "\n")}}
	}

	if n.Type() == ast.TypeInline {
		return b.inline(n)
	}
	return b.blocks(n)
}

// blockInlines converts the inline children of a block and lifts a trailing
// block id off the text.
func (b *builder) blockInlines(n ast.Node) ([]node.Node, string) {
	children := b.inlines(n, true)
	if len(children) == 0 {
		return children, ""
	}
	id, ok := children[len(children)-1].(*node.BlockID)
	if !ok {
		return children, ""
	}
	if len(children) > 1 {
		if t, ok := children[len(children)-2].(*node.Text); ok {
			t.Value = strings.TrimRight(t.Value, " \t")
			if t.Value == "" {
				children = append(children[:len(children)-2], id)
			}
		}
	}
	return children, id.Value
}

// inlines converts the children of n. A block id survives only as the last
// child of a block; anywhere else it is plain text.
func (b *builder) inlines(n ast.Node, blockLevel bool) []node.Node {
	var out []node.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, b.inline(c)...)
	}
	for i, c := range out {
		if id, ok := c.(*node.BlockID); ok && (!blockLevel || i != len(out)-1) {
			out[i] = &node.Text{Value: "^" + id.Value}
		}
	}
	return mergeText(out)
}

func (b *builder) inline(n ast.Node) []node.Node {
	switch v := n.(type) {
	case *ast.Text:
		value := b.segmentText(v)
		switch {
		case v.HardLineBreak():
			return []node.Node{&node.Text{Value: value}, &node.Break{}}
		case v.SoftLineBreak():
			value += "\n"
		}
		return []node.Node{&node.Text{Value: value}}

	case *ast.String:
		return []node.Node{&node.Text{Value: string(v.Value)}}

	case *ast.CodeSpan:
		return []node.Node{&node.InlineCode{Value: b.text(n)}}

	case *ast.Emphasis:
		if v.Level >= 2 {
			s := &node.Strong{}
			s.Children = b.inlines(n, false)
			return []node.Node{s}
		}
		e := &node.Emphasis{}
		e.Children = b.inlines(n, false)
		return []node.Node{e}

	case *east.Strikethrough:
		d := &node.Delete{}
		d.Children = b.inlines(n, false)
		return []node.Node{d}

	case *ast.Link:
		l := &node.Link{URL: string(v.Destination), Title: string(v.Title)}
		l.Children = b.inlines(n, false)
		return []node.Node{l}

	case *ast.Image:
		return []node.Node{&node.Image{
			URL:   string(v.Destination),
			Title: string(v.Title),
			Alt:   b.text(n),
		}}

	case *ast.AutoLink:
		l := &node.Link{URL: string(v.URL(b.source))}
		l.Append(&node.Text{Value: string(v.Label(b.source))})
		return []node.Node{l}

	case *ast.RawHTML:
		var sb strings.Builder
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			sb.Write(seg.Value(b.source))
		}
		return []node.Node{&node.RawInline{Value: sb.String()}}

	case *east.TaskCheckBox:
		return nil

	case *syntax.TagNode:
		return []node.Node{&node.Tag{Value: v.Value}}

	case *syntax.BlockIDNode:
		return []node.Node{&node.BlockID{Value: v.Value}}

	case *syntax.SpanNode:
		return []node.Node{b.span(v)}

	case *syntax.InternalLinkNode:
		il := &node.InternalLink{
			URL:          v.Destination,
			Title:        v.Title,
			IsEmbed:      v.IsEmbed,
			FileAccessor: b.rc.Resolve(v.Destination, v.IsEmbed),
		}
		il.Children = b.inlines(n, false)
		return []node.Node{il}
	}

	if n.HasChildren() {
		return b.inlines(n, false)
	}
	return nil
}

func (b *builder) span(v *syntax.SpanNode) node.Node {
	switch v.SpanKind {
	case node.KindWikilink:
		return &node.Wikilink{Value: v.Raw, FileAccessor: b.rc.Resolve(v.Target, false)}
	case node.KindEmbed:
		return &node.Embed{Value: v.Raw, FileAccessor: b.rc.Resolve(v.Target, true)}
	case node.KindDate:
		return &node.Date{Value: v.Date}
	case node.KindTime:
		return &node.Time{Value: v.Time}
	}
	return &node.RawInline{Value: v.Raw}
}

func (b *builder) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(b.source))
	}
	return sb.String()
}

// text concatenates the literal text below n.
func (b *builder) text(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.WriteString(b.segmentText(t))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// segmentText returns the literal text of t. Backslash escapes and entity
// references are decoded unless the segment is raw, as in code spans.
func (b *builder) segmentText(t *ast.Text) string {
	value := t.Segment.Value(b.source)
	if t.IsRaw() {
		return string(value)
	}
	value = util.UnescapePunctuations(value)
	value = util.ResolveNumericReferences(value)
	value = util.ResolveEntityNames(value)
	return string(value)
}

func taskCheckBox(item ast.Node) *east.TaskCheckBox {
	first := item.FirstChild()
	if first == nil {
		return nil
	}
	cb, _ := first.FirstChild().(*east.TaskCheckBox)
	return cb
}

// mergeText joins adjacent text nodes and drops empty ones.
func mergeText(in []node.Node) []node.Node {
	out := make([]node.Node, 0, len(in))
	for _, n := range in {
		t, ok := n.(*node.Text)
		if !ok {
			out = append(out, n)
			continue
		}
		if t.Value == "" {
			continue
		}
		if prev, ok := lastText(out); ok {
			out[len(out)-1] = &node.Text{Value: prev.Value + t.Value}
			continue
		}
		out = append(out, t)
	}
	return out
}

func lastText(ns []node.Node) (*node.Text, bool) {
	if len(ns) == 0 {
		return nil, false
	}
	t, ok := ns[len(ns)-1].(*node.Text)
	return t, ok
}
