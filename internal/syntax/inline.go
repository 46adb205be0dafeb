package syntax

import (
	"bytes"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type tagParser struct{}

func (tagParser) Trigger() []byte { return []byte{'#'} }

func (tagParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	// "&#" opens a numeric character reference.
	if prev := block.PrecendingCharacter(); isWordRune(prev) || prev == '&' {
		return nil
	}
	line, _ := block.PeekLine()
	i := 1
	for i < len(line) {
		r, size := utf8.DecodeRune(line[i:])
		if !isTagRune(r) {
			break
		}
		i += size
	}
	if i == 1 {
		return nil
	}
	block.Advance(i)
	return &TagNode{Value: string(line[1:i])}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isTagRune(r rune) bool {
	return isWordRune(r) || r == '-' || r == '/'
}

var blockIDPattern = regexp.MustCompile(`^\^([A-Za-z0-9][A-Za-z0-9-]*)[ \t]*\r?\n?$`)

// blockIDParser recognizes ^id when nothing but whitespace follows it on the
// line. The tree builder drops ids that do not end their block.
type blockIDParser struct{}

func (blockIDParser) Trigger() []byte { return []byte{'^'} }

func (blockIDParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	if !unicode.IsSpace(block.PrecendingCharacter()) {
		return nil
	}
	line, _ := block.PeekLine()
	m := blockIDPattern.FindSubmatch(line)
	if m == nil {
		return nil
	}
	block.Advance(len(bytes.TrimRight(line, "\r\n")))
	return &BlockIDNode{Value: string(m[1])}
}
