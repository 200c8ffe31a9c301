package render

import (
	"fmt"
	"html"
	"regexp"

	"folio/api/internal/doc"
)

// markOrder lists marks from innermost to outermost. The stored order of a
// text node's marks never changes the output.
var markOrder = []string{
	doc.MarkBold,
	doc.MarkItalic,
	doc.MarkUnderline,
	doc.MarkStrike,
	doc.MarkSubscript,
	doc.MarkSuperscript,
	doc.MarkTextStyle,
	doc.MarkCode,
	doc.MarkLink,
	doc.MarkHighlight,
}

var cssColor = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\([0-9\s.,%]+\)|hsla?\([0-9\s.,%deg]+\)|[a-zA-Z]+)$`)

func renderText(text string, marks []doc.Mark, st styles) string {
	if text == "" {
		return ""
	}
	out := html.EscapeString(text)
	if len(marks) == 0 {
		return out
	}

	byType := make(map[string]doc.Mark, len(marks))
	for _, m := range marks {
		typ := m.Type
		if typ == "color" {
			typ = doc.MarkTextStyle
		}
		byType[typ] = m
	}
	for _, typ := range markOrder {
		m, ok := byType[typ]
		if !ok {
			continue
		}
		out = wrapMark(out, m, st)
	}
	return out
}

func wrapMark(inner string, m doc.Mark, st styles) string {
	switch m.Type {
	case doc.MarkBold:
		return "<strong>" + inner + "</strong>"
	case doc.MarkItalic:
		return "<em>" + inner + "</em>"
	case doc.MarkUnderline:
		return "<u>" + inner + "</u>"
	case doc.MarkStrike:
		return "<s>" + inner + "</s>"
	case doc.MarkSubscript:
		return "<sub>" + inner + "</sub>"
	case doc.MarkSuperscript:
		return "<sup>" + inner + "</sup>"
	case doc.MarkTextStyle, "color":
		color := m.AttrString("color")
		if !cssColor.MatchString(color) {
			return inner
		}
		return fmt.Sprintf(`<span style="color: %s">%s</span>`, color, inner)
	case doc.MarkCode:
		return fmt.Sprintf("<code%s>%s</code>", class(st.inlineCode), inner)
	case doc.MarkLink:
		href := safeURL(m.AttrString("href"))
		if href == "" {
			return inner
		}
		return fmt.Sprintf(`<a href="%s"%s target="_blank" rel="noopener noreferrer">%s</a>`, html.EscapeString(href), class(st.link), inner)
	case doc.MarkHighlight:
		if color := m.AttrString("color"); cssColor.MatchString(color) {
			return fmt.Sprintf(`<mark%s style="background-color: %s">%s</mark>`, class(st.highlight), color, inner)
		}
		return fmt.Sprintf("<mark%s>%s</mark>", class(st.highlight), inner)
	default:
		return inner
	}
}
