package doc

import (
	"errors"
	"fmt"
	"strings"
)

// BlockKind names a target of the "turn into" conversion.
type BlockKind string

const (
	KindParagraph   BlockKind = "paragraph"
	KindHeading1    BlockKind = "heading1"
	KindHeading2    BlockKind = "heading2"
	KindHeading3    BlockKind = "heading3"
	KindBulletList  BlockKind = "bulletList"
	KindOrderedList BlockKind = "orderedList"
	KindTaskList    BlockKind = "taskList"
	KindBlockquote  BlockKind = "blockquote"
	KindCodeBlock   BlockKind = "codeBlock"
)

// Kinds lists every conversion target in menu order.
var Kinds = []BlockKind{
	KindParagraph, KindHeading1, KindHeading2, KindHeading3,
	KindBulletList, KindOrderedList, KindTaskList, KindBlockquote, KindCodeBlock,
}

var ErrIncompatible = errors.New("block cannot be converted")

// ParseKind validates a kind name.
func ParseKind(s string) (BlockKind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrIncompatible, s)
}

type run struct {
	content []Node
	checked bool
	align   any
}

// Convert rewrites a block as kind. Inline content is preserved where the
// target allows it: every textblock found in the source becomes one paragraph,
// heading, list item or quoted paragraph. Converting to a code block joins
// the text with newlines and drops marks and inline atoms. Atoms and tables
// cannot be converted.
func Convert(n Node, kind BlockKind) ([]Node, error) {
	runs, err := collectRuns(n, false)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		runs = []run{{}}
	}

	switch kind {
	case KindParagraph:
		out := make([]Node, 0, len(runs))
		for _, r := range runs {
			p := Paragraph(r.content...)
			p.Attrs = alignAttrs(r.align)
			out = append(out, p)
		}
		return out, nil
	case KindHeading1, KindHeading2, KindHeading3:
		level := int(kind[len(kind)-1] - '0')
		out := make([]Node, 0, len(runs))
		for _, r := range runs {
			h := Heading(level, r.content...)
			if r.align != nil {
				h.Attrs["textAlign"] = r.align
			}
			out = append(out, h)
		}
		return out, nil
	case KindBulletList, KindOrderedList:
		items := make([]Node, 0, len(runs))
		for _, r := range runs {
			items = append(items, ListItem(Paragraph(r.content...)))
		}
		if kind == KindOrderedList {
			return []Node{OrderedList(items...)}, nil
		}
		return []Node{BulletList(items...)}, nil
	case KindTaskList:
		items := make([]Node, 0, len(runs))
		for _, r := range runs {
			items = append(items, TaskItem(r.checked, Paragraph(r.content...)))
		}
		return []Node{TaskList(items...)}, nil
	case KindBlockquote:
		paragraphs := make([]Node, 0, len(runs))
		for _, r := range runs {
			paragraphs = append(paragraphs, Paragraph(r.content...))
		}
		return []Node{Blockquote(paragraphs...)}, nil
	case KindCodeBlock:
		lines := make([]string, 0, len(runs))
		for _, r := range runs {
			lines = append(lines, inlinePlainText(r.content))
		}
		code := CodeBlock("", strings.Join(lines, "\n"))
		if n.Type == TypeCodeBlock {
			code.Attrs = cloneAttrs(n.Attrs)
		}
		return []Node{code}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrIncompatible, kind)
	}
}

func collectRuns(n Node, checked bool) ([]run, error) {
	switch n.Type {
	case TypeParagraph, TypeHeading:
		content := make([]Node, 0, len(n.Content))
		for _, child := range n.Content {
			content = append(content, child.Clone())
		}
		return []run{{content: content, checked: checked, align: n.Attr("textAlign")}}, nil
	case TypeCodeBlock:
		text := n.TextContent()
		lines := strings.Split(text, "\n")
		runs := make([]run, 0, len(lines))
		for _, line := range lines {
			r := run{checked: checked}
			if line != "" {
				r.content = []Node{Text(line)}
			}
			runs = append(runs, r)
		}
		return runs, nil
	case TypeBlockquote, TypeBulletList, TypeOrderedList, TypeTaskList, TypeListItem, TypeTaskItem:
		if n.Type == TypeTaskItem {
			checked = n.AttrBool("checked")
		}
		var runs []run
		for _, child := range n.Content {
			childRuns, err := collectRuns(child, checked)
			if err != nil {
				return nil, err
			}
			runs = append(runs, childRuns...)
		}
		return runs, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrIncompatible, n.Type)
	}
}

func alignAttrs(align any) map[string]any {
	if align == nil {
		return nil
	}
	return map[string]any{"textAlign": align}
}
