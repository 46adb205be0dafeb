// Package node defines the document tree produced by the parser.
//
// The set of node kinds is closed: every kind is a concrete struct and the
// Node interface is sealed. Nodes own their children; a tree is never shared
// or cyclic. Source positions are not retained.
package node

import "github.com/starford/sowilo/internal/models"

// Kind is the serialized "type" discriminator of a node.
type Kind string

const (
	KindRoot          Kind = "root"
	KindParagraph     Kind = "paragraph"
	KindHeading       Kind = "heading"
	KindList          Kind = "list"
	KindListItem      Kind = "listItem"
	KindBlockquote    Kind = "blockquote"
	KindCode          Kind = "code"
	KindThematicBreak Kind = "thematicBreak"
	KindHTML          Kind = "html"

	KindText         Kind = "text"
	KindEmphasis     Kind = "emphasis"
	KindStrong       Kind = "strong"
	KindDelete       Kind = "delete"
	KindInlineCode   Kind = "inlineCode"
	KindBreak        Kind = "break"
	KindLink         Kind = "link"
	KindImage        Kind = "image"
	KindTag          Kind = "tag"
	KindWikilink     Kind = "wikilink"
	KindEmbed        Kind = "embed"
	KindInternalLink Kind = "internalLink"
	KindBlockID      Kind = "blockId"
	KindDate         Kind = "date"
	KindTime         Kind = "time"
	KindRawInline    Kind = "rawInline"
)

// Node is implemented only by the types in this package.
type Node interface {
	Kind() Kind
	sealed()
}

// Parent is a node with children.
type Parent interface {
	Node
	Nodes() []Node
}

// Branch holds the children of a parent node.
type Branch struct {
	Children []Node `json:"children"`
}

// Nodes returns the children.
func (b *Branch) Nodes() []Node { return b.Children }

// Append adds children.
func (b *Branch) Append(n ...Node) { b.Children = append(b.Children, n...) }

type (
	Root struct {
		Branch
	}

	Paragraph struct {
		BlockID string `json:"blockId,omitempty"`
		Branch
	}

	Heading struct {
		Depth   int    `json:"depth"`
		BlockID string `json:"blockId,omitempty"`
		Branch
	}

	List struct {
		Ordered bool `json:"ordered"`
		Start   int  `json:"start,omitempty"`
		Spread  bool `json:"spread"`
		Branch
	}

	ListItem struct {
		Checked *bool  `json:"checked,omitempty"`
		BlockID string `json:"blockId,omitempty"`
		Branch
	}

	Blockquote struct {
		Branch
	}

	Code struct {
		Lang  string `json:"lang,omitempty"`
		Value string `json:"value"`
	}

	ThematicBreak struct{}

	HTML struct {
		Value string `json:"value"`
	}

	Text struct {
		Value string `json:"value"`
	}

	Emphasis struct {
		Branch
	}

	Strong struct {
		Branch
	}

	Delete struct {
		Branch
	}

	InlineCode struct {
		Value string `json:"value"`
	}

	Break struct{}

	Link struct {
		URL   string `json:"url"`
		Title string `json:"title,omitempty"`
		Branch
	}

	Image struct {
		URL   string `json:"url"`
		Title string `json:"title,omitempty"`
		Alt   string `json:"alt,omitempty"`
	}

	// Tag is an inline #tag; Value excludes the marker and keeps "/" nesting.
	Tag struct {
		Value string `json:"value"`
	}

	Wikilink struct {
		Value        string               `json:"value"`
		FileAccessor *models.FileAccessor `json:"fileAccessor,omitempty"`
	}

	Embed struct {
		Value        string               `json:"value"`
		FileAccessor *models.FileAccessor `json:"fileAccessor,omitempty"`
	}

	// InternalLink is a standard link or image whose destination is a vault
	// document. URL keeps the raw, still percent-encoded destination.
	InternalLink struct {
		URL          string               `json:"url"`
		Title        string               `json:"title,omitempty"`
		IsEmbed      bool                 `json:"isEmbed"`
		FileAccessor *models.FileAccessor `json:"fileAccessor,omitempty"`
		Branch
	}

	BlockID struct {
		Value string `json:"value"`
	}

	Date struct {
		Value string `json:"date"`
	}

	Time struct {
		Value string `json:"time"`
	}

	RawInline struct {
		Value string `json:"value"`
	}
)

func (*Root) Kind() Kind          { return KindRoot }
func (*Paragraph) Kind() Kind     { return KindParagraph }
func (*Heading) Kind() Kind       { return KindHeading }
func (*List) Kind() Kind          { return KindList }
func (*ListItem) Kind() Kind      { return KindListItem }
func (*Blockquote) Kind() Kind    { return KindBlockquote }
func (*Code) Kind() Kind          { return KindCode }
func (*ThematicBreak) Kind() Kind { return KindThematicBreak }
func (*HTML) Kind() Kind          { return KindHTML }
func (*Text) Kind() Kind          { return KindText }
func (*Emphasis) Kind() Kind      { return KindEmphasis }
func (*Strong) Kind() Kind        { return KindStrong }
func (*Delete) Kind() Kind        { return KindDelete }
func (*InlineCode) Kind() Kind    { return KindInlineCode }
func (*Break) Kind() Kind         { return KindBreak }
func (*Link) Kind() Kind          { return KindLink }
func (*Image) Kind() Kind         { return KindImage }
func (*Tag) Kind() Kind           { return KindTag }
func (*Wikilink) Kind() Kind      { return KindWikilink }
func (*Embed) Kind() Kind         { return KindEmbed }
func (*InternalLink) Kind() Kind  { return KindInternalLink }
func (*BlockID) Kind() Kind       { return KindBlockID }
func (*Date) Kind() Kind          { return KindDate }
func (*Time) Kind() Kind          { return KindTime }
func (*RawInline) Kind() Kind     { return KindRawInline }

func (*Root) sealed()          {}
func (*Paragraph) sealed()     {}
func (*Heading) sealed()       {}
func (*List) sealed()          {}
func (*ListItem) sealed()      {}
func (*Blockquote) sealed()    {}
func (*Code) sealed()          {}
func (*ThematicBreak) sealed() {}
func (*HTML) sealed()          {}
func (*Text) sealed()          {}
func (*Emphasis) sealed()      {}
func (*Strong) sealed()        {}
func (*Delete) sealed()        {}
func (*InlineCode) sealed()    {}
func (*Break) sealed()         {}
func (*Link) sealed()          {}
func (*Image) sealed()         {}
func (*Tag) sealed()           {}
func (*Wikilink) sealed()      {}
func (*Embed) sealed()         {}
func (*InternalLink) sealed()  {}
func (*BlockID) sealed()       {}
func (*Date) sealed()          {}
func (*Time) sealed()          {}
func (*RawInline) sealed()     {}

// Accessor returns the file accessor of a link-bearing node.
func Accessor(n Node) (*models.FileAccessor, bool) {
	switch v := n.(type) {
	case *Wikilink:
		return v.FileAccessor, v.FileAccessor != nil
	case *Embed:
		return v.FileAccessor, v.FileAccessor != nil
	case *InternalLink:
		return v.FileAccessor, v.FileAccessor != nil
	}
	return nil, false
}
