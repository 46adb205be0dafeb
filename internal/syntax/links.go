package syntax

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

// IsInternalDestination reports whether a link destination names a vault
// document: no scheme and a path ending in ".md".
func IsInternalDestination(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "//") || schemePattern.MatchString(dest) {
		return false
	}
	p := dest
	if i := strings.IndexAny(p, "#?"); i >= 0 {
		p = p[:i]
	}
	return strings.HasSuffix(strings.ToLower(p), ".md")
}

// internalLinkTransformer rewrites links and images that point at vault
// documents into InternalLinkNode values.
type internalLinkTransformer struct{}

func (internalLinkTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	var found []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			if IsInternalDestination(string(v.Destination)) {
				found = append(found, n)
			}
		case *ast.Image:
			if IsInternalDestination(string(v.Destination)) {
				found = append(found, n)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, n := range found {
		il := &InternalLinkNode{}
		switch v := n.(type) {
		case *ast.Link:
			il.Destination, il.Title = string(v.Destination), string(v.Title)
		case *ast.Image:
			il.Destination, il.Title, il.IsEmbed = string(v.Destination), string(v.Title), true
		}
		for c := n.FirstChild(); c != nil; {
			next := c.NextSibling()
			il.AppendChild(il, c)
			c = next
		}
		parent := n.Parent()
		parent.ReplaceChild(parent, n, il)
	}
}
