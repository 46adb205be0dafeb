// Package scanner splits a raw document into its leading metadata header,
// its trailing fenced settings footer, and the body between them.
//
// Both scans are lenient: missing or malformed delimiters degrade to an empty
// block plus a Diagnostic. Only undecodable block content is an error.
package scanner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrMalformedHeader = errors.New("scanner: malformed header")
	ErrMalformedFooter = errors.New("scanner: malformed footer")
)

const (
	headerDelim = '-'
	fenceMark   = '`'
	triad       = 3
)

// Header is the result of ScanHeader.
type Header struct {
	Fields     map[string]any
	Body       string // text following the header, or the whole input
	Found      bool
	Diagnostic string
}

type headerState int

const (
	stateAwaitingOpenDelimiter headerState = iota
	stateInHeader
	stateAwaitingCloseDelimiter
)

func (s headerState) String() string {
	switch s {
	case stateAwaitingOpenDelimiter:
		return "AwaitingOpenDelimiter"
	case stateInHeader:
		return "InHeader"
	case stateAwaitingCloseDelimiter:
		return "AwaitingCloseDelimiter"
	}
	return "unknown"
}

// ScanHeader extracts a "---" delimited YAML block from the start of text.
func ScanHeader(text string) (Header, error) {
	h := Header{Fields: map[string]any{}, Body: text}

	state := stateAwaitingOpenDelimiter
	dashes := 0
	start := 0     // first byte of header content
	lineBreak := 0 // newline that precedes a candidate closing line

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case stateAwaitingOpenDelimiter:
			if c != headerDelim {
				h.Diagnostic = fmt.Sprintf("header: found %d of %d opening delimiters", dashes, triad)
				return h, nil
			}
			dashes++
			if dashes == triad {
				start = i + 1
				state = stateInHeader
			}

		case stateInHeader:
			if c == '\n' {
				lineBreak = i
				dashes = 0
				state = stateAwaitingCloseDelimiter
			}

		case stateAwaitingCloseDelimiter:
			switch c {
			case headerDelim:
				dashes++
				if dashes == triad {
					return decodeHeader(h, text, start, lineBreak, i+1)
				}
			case '\n':
				lineBreak = i
				dashes = 0
			default:
				state = stateInHeader
			}
		}
	}

	if state == stateAwaitingOpenDelimiter {
		h.Diagnostic = fmt.Sprintf("header: found %d of %d opening delimiters", dashes, triad)
	} else {
		h.Diagnostic = "header: closing delimiter not found"
	}
	return h, nil
}

func decodeHeader(h Header, text string, start, end, after int) (Header, error) {
	content := text[start:end]

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(content), &fields); err != nil {
		return h, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	if fields == nil {
		fields = map[string]any{}
	}

	body := text[after:]
	switch {
	case strings.HasPrefix(body, "\r\n"):
		body = body[2:]
	case strings.HasPrefix(body, "\n"):
		body = body[1:]
	}

	return Header{Fields: fields, Body: body, Found: true}, nil
}

// FormatHeader serializes fields as a "---" delimited YAML block.
func FormatHeader(fields map[string]any) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	if len(fields) > 0 {
		out, err := yaml.Marshal(fields)
		if err != nil {
			return "", fmt.Errorf("scanner: marshal header: %w", err)
		}
		buf.Write(out)
	}
	buf.WriteString("---\n")
	return buf.String(), nil
}

// Footer is the result of ScanFooter.
type Footer struct {
	Value      any
	Body       string // text preceding the opening fence, or the whole input
	Found      bool
	Diagnostic string
}

// Fields returns the footer value when it is a JSON object.
func (f Footer) Fields() map[string]any {
	if m, ok := f.Value.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

type footerState int

const (
	stateAwaitingFenceFromEnd footerState = iota
	stateAwaitingCloseBoundary
	stateInFencedBlock
)

func (s footerState) String() string {
	switch s {
	case stateAwaitingFenceFromEnd:
		return "AwaitingFenceFromEnd"
	case stateAwaitingCloseBoundary:
		return "AwaitingCloseBoundary"
	case stateInFencedBlock:
		return "InFencedBlock"
	}
	return "unknown"
}

// ScanFooter extracts a trailing ``` fenced JSON block, scanning from the end
// of text backward.
func ScanFooter(text string) (Footer, error) {
	f := Footer{Body: text}

	state := stateAwaitingFenceFromEnd
	ticks := 0
	end := 0 // first backtick of the closing fence

	for i := len(text) - 1; i >= 0; i-- {
		c := text[i]
		switch state {
		case stateAwaitingFenceFromEnd:
			switch {
			case c == fenceMark:
				ticks++
				if ticks == triad {
					end = i
					state = stateAwaitingCloseBoundary
				}
			case isSpace(c):
				ticks = 0
			default:
				f.Diagnostic = fmt.Sprintf("footer: unexpected %q after closing fence", c)
				return f, nil
			}

		case stateAwaitingCloseBoundary:
			if !isLineBoundary(c) {
				f.Diagnostic = "footer: closing fence does not start a line"
				return f, nil
			}
			ticks = 0
			state = stateInFencedBlock

		case stateInFencedBlock:
			if c != fenceMark {
				ticks = 0
				continue
			}
			ticks++
			if ticks >= triad && (i == 0 || isLineBoundary(text[i-1])) {
				return decodeFooter(f, text, i, i+ticks, end)
			}
		}
	}

	if state == stateInFencedBlock {
		f.Diagnostic = "footer: opening fence not found"
	} else {
		f.Diagnostic = "footer: no closing fence"
	}
	return f, nil
}

func decodeFooter(f Footer, text string, open, start, end int) (Footer, error) {
	raw := strings.TrimSpace(text[start:end])
	if raw == "" {
		return Footer{Value: map[string]any{}, Body: text[:open], Found: true}, nil
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return f, fmt.Errorf("%w: %v", ErrMalformedFooter, err)
	}
	return Footer{Value: v, Body: text[:open], Found: true}, nil
}

// Split runs ScanHeader and then ScanFooter over the remaining text.
func Split(text string) (Header, Footer, error) {
	h, err := ScanHeader(text)
	if err != nil {
		return h, Footer{Body: h.Body}, err
	}
	f, err := ScanFooter(h.Body)
	if err != nil {
		return h, f, err
	}
	return h, f, nil
}

func isLineBoundary(c byte) bool {
	return c == '\n' || c == '\r'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || isLineBoundary(c)
}
