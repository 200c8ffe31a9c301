package render

import (
	"fmt"
	"strings"

	"folio/api/internal/doc"
)

// LegacyBlock is one element of the flat block-array format used before
// content was stored as document trees.
type LegacyBlock struct {
	Type    string
	Content string
	Meta    map[string]any
}

// legacyBlocks recognises the block-array shape: every element an object
// with a string type.
func legacyBlocks(items []any) ([]LegacyBlock, bool) {
	if len(items) == 0 {
		return nil, false
	}
	blocks := make([]LegacyBlock, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		typ, ok := obj["type"].(string)
		if !ok {
			return nil, false
		}
		block := LegacyBlock{Type: typ}
		switch content := obj["content"].(type) {
		case string:
			block.Content = content
		case nil:
		default:
			block.Content = fmt.Sprint(content)
		}
		block.Meta, _ = obj["meta"].(map[string]any)
		blocks = append(blocks, block)
	}
	return blocks, true
}

// fromLegacy converts blocks into a document. Unknown block types are dropped.
func fromLegacy(blocks []LegacyBlock) doc.Node {
	d := doc.New()
	for _, block := range blocks {
		if n, ok := legacyNode(block); ok {
			d.Content = append(d.Content, n)
		}
	}
	return d
}

func legacyNode(b LegacyBlock) (doc.Node, bool) {
	meta := func(key string) string {
		s, _ := b.Meta[key].(string)
		return s
	}
	switch strings.ToLower(b.Type) {
	case "paragraph", "text", "p":
		return doc.Paragraph(legacyInline(b.Content)...), true
	case "heading", "h1", "h2", "h3":
		level := 2
		switch {
		case len(b.Type) == 2:
			level = int(b.Type[1] - '0')
		case b.Meta != nil:
			if l, ok := b.Meta["level"].(float64); ok && l >= 1 && l <= 3 {
				level = int(l)
			}
		}
		return doc.Heading(level, legacyInline(b.Content)...), true
	case "quote", "blockquote":
		quote := []doc.Node{doc.Paragraph(doc.Text("“" + b.Content + "”"))}
		if author := meta("author"); author != "" {
			quote = append(quote, doc.Paragraph(doc.Text("— "+author)))
		}
		return doc.Blockquote(quote...), true
	case "code":
		n := doc.CodeBlock(meta("language"), b.Content)
		if filename := meta("filename"); filename != "" {
			if n.Attrs == nil {
				n.Attrs = map[string]any{}
			}
			n.Attrs["filename"] = filename
		}
		return n, true
	case "image":
		if strings.TrimSpace(b.Content) == "" {
			return doc.Node{}, false
		}
		alt := meta("alt")
		if alt == "" {
			alt = meta("caption")
		}
		return doc.Image(b.Content, alt), true
	case "list", "bullet-list", "ordered-list":
		var items []doc.Node
		for _, line := range strings.Split(b.Content, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimLeft(line, "-*• ")
			line = trimOrdinal(line)
			if line == "" {
				continue
			}
			items = append(items, doc.ListItem(doc.Paragraph(doc.Text(line))))
		}
		if len(items) == 0 {
			return doc.Node{}, false
		}
		ordered, _ := b.Meta["ordered"].(bool)
		if ordered || b.Type == "ordered-list" {
			return doc.OrderedList(items...), true
		}
		return doc.BulletList(items...), true
	case "divider", "hr":
		return doc.HorizontalRule(), true
	case "video", "youtube":
		return doc.Youtube(b.Content), true
	case "bookmark", "link":
		return doc.LinkPreview(strings.TrimSpace(b.Content)), true
	default:
		return doc.Node{}, false
	}
}

func legacyInline(text string) []doc.Node {
	if text == "" {
		return nil
	}
	var out []doc.Node
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out = append(out, doc.HardBreak())
		}
		if line != "" {
			out = append(out, doc.Text(line))
		}
	}
	return out
}

func trimOrdinal(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
