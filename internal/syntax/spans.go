package syntax

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/starford/sowilo/internal/node"
)

// Attacher copies the span interior onto the node.
type Attacher func(n *SpanNode, interior string)

// WrappedSpan describes an inline span delimited by fixed open and close
// sequences on a single line.
type WrappedSpan struct {
	Open   string
	Close  string
	Kind   node.Kind
	Attach Attacher
}

func attachTarget(n *SpanNode, interior string) { n.Target = strings.TrimSpace(interior) }
func attachDate(n *SpanNode, interior string)   { n.Date = strings.TrimSpace(interior) }
func attachTime(n *SpanNode, interior string)   { n.Time = strings.TrimSpace(interior) }

func defaultSpans(opts Options) []WrappedSpan {
	return []WrappedSpan{
		{Open: "![[", Close: "]]", Kind: node.KindEmbed, Attach: attachTarget},
		{Open: "[[", Close: "]]", Kind: node.KindWikilink, Attach: attachTarget},
		{Open: opts.TimeTrigger + "{", Close: "}", Kind: node.KindTime, Attach: attachTime},
		{Open: opts.DateTrigger + "{", Close: "}", Kind: node.KindDate, Attach: attachDate},
	}
}

// spanParser handles every wrapped span that shares a first byte. Longer
// openings are tried first so "@@{" wins over "@{".
type spanParser struct {
	trigger byte
	spans   []WrappedSpan
}

func newSpanParsers(spans []WrappedSpan) []*spanParser {
	byTrigger := map[byte]*spanParser{}
	var order []byte
	for _, s := range spans {
		if s.Open == "" || s.Close == "" {
			continue
		}
		p, ok := byTrigger[s.Open[0]]
		if !ok {
			p = &spanParser{trigger: s.Open[0]}
			byTrigger[s.Open[0]] = p
			order = append(order, s.Open[0])
		}
		p.spans = append(p.spans, s)
	}

	out := make([]*spanParser, 0, len(order))
	for _, c := range order {
		p := byTrigger[c]
		sort.SliceStable(p.spans, func(i, j int) bool {
			return len(p.spans[i].Open) > len(p.spans[j].Open)
		})
		out = append(out, p)
	}
	return out
}

func (p *spanParser) Trigger() []byte { return []byte{p.trigger} }

func (p *spanParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	for _, s := range p.spans {
		if !bytes.HasPrefix(line, []byte(s.Open)) {
			continue
		}
		rest := line[len(s.Open):]
		end := bytes.Index(rest, []byte(s.Close))
		if end <= 0 {
			continue
		}
		interior := string(rest[:end])
		n := &SpanNode{SpanKind: s.Kind, Raw: interior}
		if s.Attach != nil {
			s.Attach(n, interior)
		}
		block.Advance(len(s.Open) + end + len(s.Close))
		return n
	}
	return nil
}
