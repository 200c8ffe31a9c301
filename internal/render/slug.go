package render

import (
	"regexp"
	"strings"

	"folio/api/internal/doc"
)

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\p{Z}\s-]`)
	slugWhitespace = regexp.MustCompile(`[\p{Z}\s]+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slug derives a heading anchor id. It is idempotent.
func Slug(text string) string {
	s := strings.ToLower(text)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Heading is one table-of-contents entry.
type Heading struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

// ExtractHeadings lists the headings of stored content in document order,
// using the same format precedence as Content. Ids match the rendered ones.
func ExtractHeadings(raw string) []Heading {
	d, _ := Decode(raw)
	return Headings(d)
}

// tocContainers are the node types whose children the renderer emits.
var tocContainers = map[string]bool{
	doc.TypeDoc:         true,
	doc.TypeBlockquote:  true,
	doc.TypeBulletList:  true,
	doc.TypeOrderedList: true,
	doc.TypeListItem:    true,
	doc.TypeTaskList:    true,
	doc.TypeTaskItem:    true,
	doc.TypeTable:       true,
	doc.TypeTableRow:    true,
	doc.TypeTableCell:   true,
	doc.TypeTableHeader: true,
}

// Headings lists the headings of a decoded tree that render with an anchor.
func Headings(d doc.Node) []Heading {
	headings := []Heading{}
	var walk func(doc.Node)
	walk = func(n doc.Node) {
		if n.Type == doc.TypeHeading {
			level := n.AttrInt("level")
			if level < 1 {
				level = 1
			}
			if level > 3 {
				level = 3
			}
			title := n.TextContent()
			if id := Slug(title); id != "" {
				headings = append(headings, Heading{ID: id, Title: title, Level: level})
			}
			return
		}
		if !tocContainers[n.Type] {
			return
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	walk(d)
	return headings
}
