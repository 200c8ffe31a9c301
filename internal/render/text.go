package render

import (
	"strings"

	"folio/api/internal/doc"
)

// PlainText flattens a tree to text, one line per textblock. Used for search
// indexing and summaries.
func PlainText(d doc.Node) string {
	var lines []string
	var walk func(doc.Node)
	walk = func(n doc.Node) {
		switch {
		case n.IsTextblock():
			var b strings.Builder
			for _, child := range n.Content {
				switch child.Type {
				case doc.TypeText:
					b.WriteString(child.Text)
				case doc.TypeHardBreak:
					b.WriteString("\n")
				}
			}
			if line := strings.TrimSpace(b.String()); line != "" {
				lines = append(lines, line)
			}
		case n.Type == doc.TypeImage:
			if alt := n.AttrString("alt"); alt != "" {
				lines = append(lines, alt)
			}
		case n.Type == doc.TypeLinkPreview:
			if u := n.AttrString("url"); u != "" {
				lines = append(lines, u)
			}
		default:
			for _, child := range n.Content {
				walk(child)
			}
		}
	}
	walk(d)
	return strings.Join(lines, "\n")
}

// Summary returns the first limit runes of the plain text, cut at a word
// boundary when possible.
func Summary(d doc.Node, limit int) string {
	text := strings.Join(strings.Fields(PlainText(d)), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
