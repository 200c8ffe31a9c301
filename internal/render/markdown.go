package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"folio/api/internal/doc"
)

// fromMarkdown parses Markdown and converts the AST into a document tree so
// the fallback format renders through the same node renderer. Headings below
// level 3 are clamped to level 3.
func fromMarkdown(source []byte) doc.Node {
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	d := doc.New()
	d.Content = markdownBlocks(root, source)
	return d
}

func markdownBlocks(parent ast.Node, source []byte) []doc.Node {
	var out []doc.Node
	for node := parent.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			level := n.Level
			if level > 3 {
				level = 3
			}
			var images []doc.Node
			inline := markdownInline(n, source, nil, &images)
			out = append(out, doc.Heading(level, inline...))
			out = append(out, images...)
		case *ast.Paragraph, *ast.TextBlock:
			var images []doc.Node
			inline := markdownInline(n, source, nil, &images)
			if len(inline) > 0 || len(images) == 0 {
				out = append(out, doc.Paragraph(inline...))
			}
			out = append(out, images...)
		case *ast.FencedCodeBlock:
			out = append(out, doc.CodeBlock(string(n.Language(source)), codeLines(n, source)))
		case *ast.CodeBlock:
			out = append(out, doc.CodeBlock("", codeLines(n, source)))
		case *ast.HTMLBlock:
			if raw := strings.TrimSpace(codeLines(n, source)); raw != "" {
				out = append(out, doc.Paragraph(doc.Text(raw)))
			}
		case *ast.Blockquote:
			children := markdownBlocks(n, source)
			if len(children) == 0 {
				children = []doc.Node{doc.Paragraph()}
			}
			out = append(out, doc.Blockquote(children...))
		case *ast.List:
			var items []doc.Node
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				children := markdownBlocks(item, source)
				if len(children) == 0 {
					children = []doc.Node{doc.Paragraph()}
				}
				items = append(items, doc.ListItem(children...))
			}
			if len(items) == 0 {
				continue
			}
			if n.IsOrdered() {
				list := doc.OrderedList(items...)
				if n.Start > 1 {
					list.Attrs = map[string]any{"start": n.Start}
				}
				out = append(out, list)
			} else {
				out = append(out, doc.BulletList(items...))
			}
		case *ast.ThematicBreak:
			out = append(out, doc.HorizontalRule())
		}
	}
	return out
}

func markdownInline(parent ast.Node, source []byte, marks []doc.Mark, images *[]doc.Node) []doc.Node {
	var out []doc.Node
	for node := parent.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Text:
			if value := string(n.Segment.Value(source)); value != "" {
				out = append(out, doc.Text(value, marks...))
			}
			switch {
			case n.HardLineBreak():
				out = append(out, doc.HardBreak())
			case n.SoftLineBreak():
				out = append(out, doc.Text(" ", marks...))
			}
		case *ast.String:
			if len(n.Value) > 0 {
				out = append(out, doc.Text(string(n.Value), marks...))
			}
		case *ast.Emphasis:
			mark := doc.Mark{Type: doc.MarkItalic}
			if n.Level >= 2 {
				mark = doc.Mark{Type: doc.MarkBold}
			}
			out = append(out, markdownInline(n, source, withMark(marks, mark), images)...)
		case *ast.CodeSpan:
			if code := plainText(n, source); code != "" {
				out = append(out, doc.Text(code, withMark(marks, doc.Mark{Type: doc.MarkCode})...))
			}
		case *ast.Link:
			linkMarks := marks
			if dest := strings.TrimSpace(string(n.Destination)); dest != "" {
				linkMarks = withMark(marks, doc.Link(dest))
			}
			out = append(out, markdownInline(n, source, linkMarks, images)...)
		case *ast.AutoLink:
			url := string(n.URL(source))
			href := url
			if n.AutoLinkType == ast.AutoLinkEmail {
				href = "mailto:" + url
			}
			out = append(out, doc.Text(url, withMark(marks, doc.Link(href))...))
		case *ast.Image:
			*images = append(*images, doc.Image(string(n.Destination), plainText(n, source)))
		case *ast.RawHTML:
			var raw bytes.Buffer
			for i := 0; i < n.Segments.Len(); i++ {
				segment := n.Segments.At(i)
				raw.Write(segment.Value(source))
			}
			if raw.Len() > 0 {
				out = append(out, doc.Text(raw.String(), marks...))
			}
		default:
			out = append(out, markdownInline(n, source, marks, images)...)
		}
	}
	return doc.NormalizeInline(out)
}

func withMark(marks []doc.Mark, m doc.Mark) []doc.Mark {
	out := make([]doc.Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}

func plainText(parent ast.Node, source []byte) string {
	var b strings.Builder
	for node := parent.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(source))
		case *ast.String:
			b.Write(n.Value)
		default:
			b.WriteString(plainText(n, source))
		}
	}
	return b.String()
}

func codeLines(n ast.Node, source []byte) string {
	var code bytes.Buffer
	for i := 0; i < n.Lines().Len(); i++ {
		line := n.Lines().At(i)
		code.Write(line.Value(source))
	}
	return strings.TrimSuffix(code.String(), "\n")
}
