// Package doc models a rich-text document as a typed node tree.
//
// A document is a Node of type "doc" whose content is an ordered list of
// block nodes. Positions inside the tree are flat integer offsets: a text
// node occupies one position per rune, an atom occupies one position, and
// every other node occupies two positions (its opening and closing token)
// plus the size of its content. Offset 0 is the start of the root's content.
package doc

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Node is one element of the document tree.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// Mark is inline formatting attached to a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// New returns an empty document.
func New() Node {
	return Node{Type: TypeDoc}
}

// IsText reports whether n is a text leaf.
func (n Node) IsText() bool {
	return n.Type == TypeText
}

// IsAtom reports whether n is a leaf that occupies a single position.
func (n Node) IsAtom() bool {
	nt, ok := nodeTypes[n.Type]
	return ok && nt.atom
}

// IsTextblock reports whether n holds inline content directly.
func (n Node) IsTextblock() bool {
	nt, ok := nodeTypes[n.Type]
	return ok && nt.content.inline
}

// Size is the number of positions n occupies in its parent.
func (n Node) Size() int {
	switch {
	case n.IsText():
		return utf8.RuneCountInString(n.Text)
	case n.IsAtom():
		return 1
	default:
		return 2 + n.ContentSize()
	}
}

// ContentSize is the summed size of n's children.
func (n Node) ContentSize() int {
	size := 0
	for _, child := range n.Content {
		size += child.Size()
	}
	return size
}

// TextContent concatenates the text of every descendant text node.
func (n Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n Node) writeText(b *strings.Builder) {
	for _, child := range n.Content {
		if child.IsText() {
			b.WriteString(child.Text)
			continue
		}
		child.writeText(b)
	}
}

// HasMark reports whether n carries a mark of the given type.
func (n Node) HasMark(typ string) bool {
	for _, m := range n.Marks {
		if m.Type == typ {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of n. The copy shares no maps or slices with n.
func (n Node) Clone() Node {
	out := Node{
		Type:  n.Type,
		Text:  n.Text,
		Attrs: cloneAttrs(n.Attrs),
	}
	if n.Content != nil {
		out.Content = make([]Node, len(n.Content))
		for i, child := range n.Content {
			out.Content[i] = child.Clone()
		}
	}
	if n.Marks != nil {
		out.Marks = make([]Mark, len(n.Marks))
		for i, m := range n.Marks {
			out.Marks[i] = Mark{Type: m.Type, Attrs: cloneAttrs(m.Attrs)}
		}
	}
	return out
}

func cloneAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneAttrs(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Equal reports whether a and b have the same tree shape. Attribute numbers
// compare by value regardless of their Go type, and an empty content list
// equals a missing one.
func Equal(a, b Node) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(left) == string(right)
}

// Attr returns the raw attribute value for key.
func (n Node) Attr(key string) any {
	if n.Attrs == nil {
		return nil
	}
	return n.Attrs[key]
}

// AttrString returns a string attribute or "" when absent or of another type.
func (n Node) AttrString(key string) string {
	return attrString(n.Attrs, key)
}

// AttrInt returns an integer attribute. JSON numbers decode as float64.
func (n Node) AttrInt(key string) int {
	value, _ := attrInt(n.Attrs, key)
	return value
}

// AttrBool returns a boolean attribute or false.
func (n Node) AttrBool(key string) bool {
	b, _ := n.Attr(key).(bool)
	return b
}

// AttrString returns a string attribute of the mark.
func (m Mark) AttrString(key string) string {
	return attrString(m.Attrs, key)
}

func attrString(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	s, _ := attrs[key].(string)
	return s
}

func attrInt(attrs map[string]any, key string) (int, bool) {
	if attrs == nil {
		return 0, false
	}
	switch v := attrs[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func marksEqual(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(Node{Type: a[i].Type, Attrs: a[i].Attrs}, Node{Type: b[i].Type, Attrs: b[i].Attrs}) {
			return false
		}
	}
	return true
}
