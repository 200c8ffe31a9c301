// Package render turns document trees into HTML for the public site.
package render

import (
	"fmt"
	"html"
	"strings"

	"folio/api/internal/doc"
)

// LinkCard is the fetched metadata shown inside a link-preview card.
type LinkCard struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	SiteName    string `json:"siteName"`
}

// Options controls a render.
type Options struct {
	Variant Variant
	// Previews maps link-preview urls to their cards. Missing entries render
	// a card showing only the url.
	Previews map[string]LinkCard
}

type renderer struct {
	st       styles
	previews map[string]LinkCard
}

// Document renders the blocks of d. Nodes of unknown type render nothing.
func Document(d doc.Node, opts Options) string {
	r := renderer{st: stylesFor(opts.Variant), previews: opts.Previews}
	if d.Type != doc.TypeDoc {
		return r.node(d)
	}
	return r.content(d.Content)
}

// Block renders a single node.
func Block(n doc.Node, opts Options) string {
	r := renderer{st: stylesFor(opts.Variant), previews: opts.Previews}
	return r.node(n)
}

func (r renderer) content(nodes []doc.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(r.node(n))
	}
	return b.String()
}

func (r renderer) node(n doc.Node) string {
	switch n.Type {
	case doc.TypeDoc:
		return r.content(n.Content)
	case doc.TypeParagraph:
		return fmt.Sprintf("<p%s%s>%s</p>\n", class(r.st.paragraph), alignStyle(n), r.content(n.Content))
	case doc.TypeHeading:
		level := n.AttrInt("level")
		if level < 1 {
			level = 1
		}
		if level > 3 {
			level = 3
		}
		id := Slug(n.TextContent())
		idAttr := ""
		if id != "" {
			idAttr = fmt.Sprintf(` id="%s"`, id)
		}
		return fmt.Sprintf("<h%d%s%s%s>%s</h%d>\n", level, idAttr, class(r.st.headings[level]), alignStyle(n), r.content(n.Content), level)
	case doc.TypeBlockquote:
		return fmt.Sprintf("<blockquote%s%s>\n%s</blockquote>\n", class(r.st.blockquote), alignStyle(n), r.content(n.Content))
	case doc.TypeBulletList:
		return fmt.Sprintf("<ul%s>\n%s</ul>\n", class(r.st.bulletList), r.content(n.Content))
	case doc.TypeOrderedList:
		start := ""
		if s := n.AttrInt("start"); s > 1 {
			start = fmt.Sprintf(` start="%d"`, s)
		}
		return fmt.Sprintf("<ol%s%s>\n%s</ol>\n", class(r.st.orderedList), start, r.content(n.Content))
	case doc.TypeListItem:
		return fmt.Sprintf("<li%s>%s</li>\n", class(r.st.listItem), r.content(n.Content))
	case doc.TypeTaskList:
		return fmt.Sprintf("<ul data-type=\"taskList\"%s>\n%s</ul>\n", class(r.st.taskList), r.content(n.Content))
	case doc.TypeTaskItem:
		checked := n.AttrBool("checked")
		box := `<input type="checkbox" disabled>`
		if checked {
			box = `<input type="checkbox" disabled checked>`
		}
		return fmt.Sprintf("<li data-type=\"taskItem\" data-checked=\"%t\"%s><label>%s</label><div>%s</div></li>\n",
			checked, class(r.st.taskItem), box, r.content(n.Content))
	case doc.TypeCodeBlock:
		return r.codeBlock(n)
	case doc.TypeImage:
		src := safeURL(n.AttrString("src"))
		if src == "" {
			return ""
		}
		title := ""
		if t := n.AttrString("title"); t != "" {
			title = fmt.Sprintf(` title="%s"`, html.EscapeString(t))
		}
		return fmt.Sprintf("<img%s src=\"%s\" alt=\"%s\"%s loading=\"lazy\">\n",
			class(r.st.image), html.EscapeString(src), html.EscapeString(n.AttrString("alt")), title)
	case doc.TypeHorizontalRule:
		return fmt.Sprintf("<hr%s>\n", class(r.st.rule))
	case doc.TypeTable:
		return fmt.Sprintf("<div%s><table%s>\n<tbody>\n%s</tbody>\n</table></div>\n", class(r.st.tableWrap), class(r.st.table), r.content(n.Content))
	case doc.TypeTableRow:
		return fmt.Sprintf("<tr>\n%s</tr>\n", r.content(n.Content))
	case doc.TypeTableCell:
		return fmt.Sprintf("<td%s%s>%s</td>\n", class(r.st.cell), spans(n), r.content(n.Content))
	case doc.TypeTableHeader:
		return fmt.Sprintf("<th%s%s>%s</th>\n", class(r.st.headerCell), spans(n), r.content(n.Content))
	case doc.TypeYoutube:
		embed := youtubeEmbedURL(n.AttrString("src"))
		if embed == "" {
			return ""
		}
		return fmt.Sprintf("<div%s><iframe src=\"%s\" title=\"YouTube video\" width=\"100%%\" height=\"100%%\" allowfullscreen loading=\"lazy\"></iframe></div>\n",
			class(r.st.video), html.EscapeString(embed))
	case doc.TypeLinkPreview:
		return r.linkCard(n.AttrString("url"))
	case doc.TypeText:
		return renderText(n.Text, n.Marks, r.st)
	case doc.TypeHardBreak:
		return "<br>"
	default:
		return ""
	}
}

func (r renderer) codeBlock(n doc.Node) string {
	var code strings.Builder
	for _, child := range n.Content {
		switch child.Type {
		case doc.TypeText:
			code.WriteString(child.Text)
		case doc.TypeHardBreak:
			code.WriteString("\n")
		}
	}
	language := n.AttrString("language")
	filename := n.AttrString("filename")

	var b strings.Builder
	fmt.Fprintf(&b, "<div%s>", class(r.st.codeWrap))
	if language != "" || filename != "" {
		fmt.Fprintf(&b, "<div%s><span>%s</span><span>%s</span></div>", class(r.st.codeHeader), html.EscapeString(filename), html.EscapeString(language))
	}
	langClass := ""
	if language != "" {
		langClass = fmt.Sprintf(` class="language-%s"`, html.EscapeString(language))
	}
	fmt.Fprintf(&b, "<pre%s><code%s>%s</code></pre></div>\n", class(r.st.pre), langClass, Highlight(code.String()))
	return b.String()
}

func (r renderer) linkCard(raw string) string {
	href := safeURL(raw)
	if href == "" {
		return ""
	}
	card, ok := r.previews[raw]
	if !ok {
		card = LinkCard{URL: raw}
	}
	title := card.Title
	if title == "" {
		title = raw
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<a%s href=\"%s\" target=\"_blank\" rel=\"noopener noreferrer\" data-type=\"linkPreview\">", class(r.st.card), html.EscapeString(href))
	b.WriteString(`<span class="link-preview-body">`)
	fmt.Fprintf(&b, `<span class="link-preview-title">%s</span>`, html.EscapeString(title))
	if card.Description != "" {
		fmt.Fprintf(&b, `<span class="link-preview-description">%s</span>`, html.EscapeString(card.Description))
	}
	fmt.Fprintf(&b, `<span class="link-preview-site">%s</span>`, html.EscapeString(siteLabel(card)))
	b.WriteString("</span>")
	if img := safeURL(card.Image); img != "" {
		fmt.Fprintf(&b, `<img class="link-preview-image" src="%s" alt="" loading="lazy">`, html.EscapeString(img))
	}
	b.WriteString("</a>\n")
	return b.String()
}

func alignStyle(n doc.Node) string {
	switch align := n.AttrString("textAlign"); align {
	case "left", "center", "right", "justify":
		return fmt.Sprintf(` style="text-align: %s"`, align)
	default:
		return ""
	}
}

func spans(n doc.Node) string {
	var out string
	if c := n.AttrInt("colspan"); c > 1 {
		out += fmt.Sprintf(` colspan="%d"`, c)
	}
	if r := n.AttrInt("rowspan"); r > 1 {
		out += fmt.Sprintf(` rowspan="%d"`, r)
	}
	return out
}

// PreviewURLs lists the urls of every link-preview node in d, in order and
// without duplicates.
func PreviewURLs(d doc.Node) []string {
	seen := map[string]bool{}
	var urls []string
	var walk func(doc.Node)
	walk = func(n doc.Node) {
		if n.Type == doc.TypeLinkPreview {
			if u := n.AttrString("url"); u != "" && !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	walk(d)
	return urls
}
