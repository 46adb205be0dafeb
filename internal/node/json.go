package node

import "encoding/json"

// Every node marshals as an object whose "type" member names its Kind.
// The local plain types drop the MarshalJSON method to avoid recursion.

func (n *Root) MarshalJSON() ([]byte, error) {
	type plain Root
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Paragraph) MarshalJSON() ([]byte, error) {
	type plain Paragraph
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Heading) MarshalJSON() ([]byte, error) {
	type plain Heading
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *List) MarshalJSON() ([]byte, error) {
	type plain List
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *ListItem) MarshalJSON() ([]byte, error) {
	type plain ListItem
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Blockquote) MarshalJSON() ([]byte, error) {
	type plain Blockquote
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Code) MarshalJSON() ([]byte, error) {
	type plain Code
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *ThematicBreak) MarshalJSON() ([]byte, error) {
	type plain ThematicBreak
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *HTML) MarshalJSON() ([]byte, error) {
	type plain HTML
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Emphasis) MarshalJSON() ([]byte, error) {
	type plain Emphasis
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Strong) MarshalJSON() ([]byte, error) {
	type plain Strong
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Delete) MarshalJSON() ([]byte, error) {
	type plain Delete
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *InlineCode) MarshalJSON() ([]byte, error) {
	type plain InlineCode
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Break) MarshalJSON() ([]byte, error) {
	type plain Break
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Link) MarshalJSON() ([]byte, error) {
	type plain Link
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Tag) MarshalJSON() ([]byte, error) {
	type plain Tag
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Wikilink) MarshalJSON() ([]byte, error) {
	type plain Wikilink
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Embed) MarshalJSON() ([]byte, error) {
	type plain Embed
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *InternalLink) MarshalJSON() ([]byte, error) {
	type plain InternalLink
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *BlockID) MarshalJSON() ([]byte, error) {
	type plain BlockID
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Date) MarshalJSON() ([]byte, error) {
	type plain Date
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *Time) MarshalJSON() ([]byte, error) {
	type plain Time
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}

func (n *RawInline) MarshalJSON() ([]byte, error) {
	type plain RawInline
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{n.Kind(), (*plain)(n)})
}
