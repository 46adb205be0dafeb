package syntax

import (
	"github.com/yuin/goldmark/ast"

	"github.com/starford/sowilo/internal/node"
)

var (
	KindSpan         = ast.NewNodeKind("SowiloSpan")
	KindTag          = ast.NewNodeKind("SowiloTag")
	KindBlockID      = ast.NewNodeKind("SowiloBlockID")
	KindInternalLink = ast.NewNodeKind("SowiloInternalLink")
)

// SpanNode is a wrapped span such as [[target]] or @{date}.
type SpanNode struct {
	ast.BaseInline
	SpanKind node.Kind
	Raw      string // text between the opening and closing sequences
	Target   string
	Date     string
	Time     string
}

func (n *SpanNode) Kind() ast.NodeKind { return KindSpan }

func (n *SpanNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"SpanKind": string(n.SpanKind),
		"Raw":      n.Raw,
	}, nil)
}

// TagNode is an inline #tag.
type TagNode struct {
	ast.BaseInline
	Value string
}

func (n *TagNode) Kind() ast.NodeKind { return KindTag }

func (n *TagNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": n.Value}, nil)
}

// BlockIDNode is a ^identifier at the end of a line.
type BlockIDNode struct {
	ast.BaseInline
	Value string
}

func (n *BlockIDNode) Kind() ast.NodeKind { return KindBlockID }

func (n *BlockIDNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": n.Value}, nil)
}

// InternalLinkNode replaces a link or image that points at a vault document.
// Children are the link label, moved over from the original node.
type InternalLinkNode struct {
	ast.BaseInline
	Destination string
	Title       string
	IsEmbed     bool
}

func (n *InternalLinkNode) Kind() ast.NodeKind { return KindInternalLink }

func (n *InternalLinkNode) Dump(source []byte, level int) {
	embed := "false"
	if n.IsEmbed {
		embed = "true"
	}
	ast.DumpHelper(n, source, level, map[string]string{
		"Destination": n.Destination,
		"IsEmbed":     embed,
	}, nil)
}
