package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parse decodes a stored document. The root must be of type "doc"; the
// grammar is not checked here, see Validate.
func Parse(data []byte) (Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Node{}, ErrNotDocument
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return Node{}, fmt.Errorf("decode document: %w", err)
	}
	if n.Type != TypeDoc {
		return Node{}, ErrNotDocument
	}
	return n, nil
}

// Serialize encodes a tree. Parse(Serialize(d)) is structurally equal to d.
func Serialize(n Node) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Text builds a text node.
func Text(s string, marks ...Mark) Node {
	n := Node{Type: TypeText, Text: s}
	if len(marks) > 0 {
		n.Marks = marks
	}
	return n
}

// Paragraph builds a paragraph holding the given inline nodes.
func Paragraph(inline ...Node) Node {
	return Node{Type: TypeParagraph, Content: nonEmpty(inline)}
}

// Heading builds a heading of the given level.
func Heading(level int, inline ...Node) Node {
	return Node{Type: TypeHeading, Attrs: map[string]any{"level": level}, Content: nonEmpty(inline)}
}

// Blockquote wraps blocks in a quotation.
func Blockquote(blocks ...Node) Node {
	return Node{Type: TypeBlockquote, Content: nonEmpty(blocks)}
}

// BulletList builds an unordered list with one item per block group.
func BulletList(items ...Node) Node {
	return Node{Type: TypeBulletList, Content: nonEmpty(items)}
}

// OrderedList builds a numbered list.
func OrderedList(items ...Node) Node {
	return Node{Type: TypeOrderedList, Content: nonEmpty(items)}
}

// ListItem builds a list item.
func ListItem(blocks ...Node) Node {
	return Node{Type: TypeListItem, Content: nonEmpty(blocks)}
}

// TaskList builds a checklist.
func TaskList(items ...Node) Node {
	return Node{Type: TypeTaskList, Content: nonEmpty(items)}
}

// TaskItem builds a checklist entry.
func TaskItem(checked bool, blocks ...Node) Node {
	return Node{Type: TypeTaskItem, Attrs: map[string]any{"checked": checked}, Content: nonEmpty(blocks)}
}

// CodeBlock builds a code block with plain text content.
func CodeBlock(language, code string) Node {
	n := Node{Type: TypeCodeBlock}
	if language != "" {
		n.Attrs = map[string]any{"language": language}
	}
	if code != "" {
		n.Content = []Node{Text(code)}
	}
	return n
}

// Image builds an image atom.
func Image(src, alt string) Node {
	attrs := map[string]any{"src": src}
	if alt != "" {
		attrs["alt"] = alt
	}
	return Node{Type: TypeImage, Attrs: attrs}
}

// HorizontalRule builds a divider.
func HorizontalRule() Node {
	return Node{Type: TypeHorizontalRule}
}

// HardBreak builds a line break inside a textblock.
func HardBreak() Node {
	return Node{Type: TypeHardBreak}
}

// Youtube builds an embedded video atom.
func Youtube(src string) Node {
	return Node{Type: TypeYoutube, Attrs: map[string]any{"src": src}}
}

// LinkPreview builds a bookmark atom. An empty url means the node is still
// waiting for input.
func LinkPreview(url string) Node {
	return Node{Type: TypeLinkPreview, Attrs: map[string]any{"url": url}}
}

// Link returns a link mark.
func Link(href string) Mark {
	return Mark{Type: MarkLink, Attrs: map[string]any{"href": href}}
}

// Doc builds a document from blocks.
func Doc(blocks ...Node) Node {
	return Node{Type: TypeDoc, Content: nonEmpty(blocks)}
}

func nonEmpty(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes
}
