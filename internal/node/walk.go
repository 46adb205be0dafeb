package node

import "strings"

// WalkFunc is called for every node in pre-order. Returning false skips the
// node's children.
type WalkFunc func(n Node) bool

// Walk visits n and its descendants in pre-order.
func Walk(n Node, fn WalkFunc) {
	if n == nil || !fn(n) {
		return
	}
	if p, ok := n.(Parent); ok {
		for _, c := range p.Nodes() {
			Walk(c, fn)
		}
	}
}

// Find returns the first node in pre-order for which match returns true.
func Find(n Node, match func(Node) bool) Node {
	var found Node
	Walk(n, func(c Node) bool {
		if found != nil {
			return false
		}
		if match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// TextContent concatenates the plain text under n.
func TextContent(n Node) string {
	var b strings.Builder
	Walk(n, func(c Node) bool {
		switch v := c.(type) {
		case *Text:
			b.WriteString(v.Value)
		case *InlineCode:
			b.WriteString(v.Value)
		case *Break:
			b.WriteString("\n")
		case *Tag:
			b.WriteString("#" + v.Value)
		case *Wikilink:
			b.WriteString(v.Value)
		}
		return true
	})
	return b.String()
}
