package doc

import (
	"fmt"
	"unicode/utf8"
)

// StepMap records how a transform moved positions: the range
// [Pos, Pos+OldSize) was replaced by NewSize positions.
type StepMap struct {
	Pos     int
	OldSize int
	NewSize int
}

// Map translates a position from before the step to after it. Positions
// inside the replaced range collapse onto its start.
func (m StepMap) Map(pos int) int {
	switch {
	case pos <= m.Pos:
		return pos
	case pos >= m.Pos+m.OldSize:
		return pos - m.OldSize + m.NewSize
	default:
		return m.Pos
	}
}

// InsertAt inserts nodes at pos. Inline nodes may be inserted inside a text
// node, which is split around them.
func InsertAt(d Node, pos int, nodes ...Node) (Node, StepMap, error) {
	return Replace(d, pos, pos, nodes...)
}

// DeleteRange removes [from, to). Both ends must share a parent.
func DeleteRange(d Node, from, to int) (Node, StepMap, error) {
	return Replace(d, from, to)
}

// Replace swaps the content between from and to for nodes. The input tree is
// never modified; on error the returned tree is the zero Node.
func Replace(d Node, from, to int, nodes ...Node) (Node, StepMap, error) {
	if from > to {
		return Node{}, StepMap{}, fmt.Errorf("%w: %d > %d", ErrInvalidRange, from, to)
	}
	rf, err := Resolve(d, from)
	if err != nil {
		return Node{}, StepMap{}, err
	}
	rt, err := Resolve(d, to)
	if err != nil {
		return Node{}, StepMap{}, err
	}
	if !sameParent(rf, rt) {
		return Node{}, StepMap{}, fmt.Errorf("%w: %d and %d do not share a parent", ErrInvalidRange, from, to)
	}
	for _, n := range nodes {
		if err := ValidateNode(n); err != nil {
			return Node{}, StepMap{}, err
		}
	}

	out := d.Clone()
	parent := nodeAtPath(&out, rf.Indexes[:rf.Depth])
	start := rf.Start(rf.Depth)

	children, i := splitAt(parent.Content, from-start)
	children, j := splitAt(children, to-start)
	next := make([]Node, 0, len(children)-(j-i)+len(nodes))
	next = append(next, children[:i]...)
	for _, n := range nodes {
		next = append(next, n.Clone())
	}
	next = append(next, children[j:]...)
	if parent.IsTextblock() {
		next = NormalizeInline(next)
	}
	if err := checkContent(parent.Type, next); err != nil {
		return Node{}, StepMap{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	parent.Content = nonEmpty(next)

	inserted := 0
	for _, n := range nodes {
		inserted += n.Size()
	}
	return out, StepMap{Pos: from, OldSize: to - from, NewSize: inserted}, nil
}

// splitAt makes offset a child boundary, splitting a text node when needed,
// and returns the index of the first child at or after offset.
func splitAt(children []Node, offset int) ([]Node, int) {
	pos := 0
	for i, child := range children {
		if offset == pos {
			return children, i
		}
		size := child.Size()
		if offset < pos+size && child.IsText() {
			left, right := splitText(child, offset-pos)
			out := make([]Node, 0, len(children)+1)
			out = append(out, children[:i]...)
			out = append(out, left, right)
			out = append(out, children[i+1:]...)
			return out, i + 1
		}
		pos += size
	}
	return children, len(children)
}

func splitText(n Node, at int) (Node, Node) {
	byteAt := 0
	for i := 0; i < at; i++ {
		_, w := utf8.DecodeRuneInString(n.Text[byteAt:])
		byteAt += w
	}
	left := n.Clone()
	right := n.Clone()
	left.Text = n.Text[:byteAt]
	right.Text = n.Text[byteAt:]
	return left, right
}

// NormalizeInline drops empty text nodes and merges adjacent text nodes that
// carry identical marks.
func NormalizeInline(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsText() && n.Text == "" {
			continue
		}
		if last := len(out) - 1; last >= 0 && n.IsText() && out[last].IsText() && marksEqual(out[last].Marks, n.Marks) {
			out[last].Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}

// SetNodeType changes the type of the node at pos. Textblock to textblock
// changes carry the inline content over, stripping marks and inline atoms when
// the target is a code block.
func SetNodeType(d Node, pos int, typ string, attrs map[string]any) (Node, StepMap, error) {
	n, err := NodeAt(d, pos)
	if err != nil {
		return Node{}, StepMap{}, err
	}
	if !Known(typ) {
		return Node{}, StepMap{}, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	next := Node{Type: typ, Attrs: mergeAttrs(carriedAttrs(n, typ), attrs)}
	if n.IsTextblock() && nodeTypes[typ].content.inline {
		next.Content = nonEmpty(retargetInline(n.Content, typ))
	} else {
		next.Content = n.Content
	}
	return Replace(d, pos, pos+n.Size(), next)
}

// SetAttributes merges attrs into the node at pos. A nil value removes the key.
func SetAttributes(d Node, pos int, attrs map[string]any) (Node, StepMap, error) {
	n, err := NodeAt(d, pos)
	if err != nil {
		return Node{}, StepMap{}, err
	}
	if n.IsText() {
		return Node{}, StepMap{}, fmt.Errorf("%w: text nodes have no attributes", ErrInvalidAttrs)
	}
	next := n.Clone()
	next.Attrs = mergeAttrs(next.Attrs, attrs)
	out, _, err := Replace(d, pos, pos+n.Size(), next)
	if err != nil {
		return Node{}, StepMap{}, err
	}
	return out, StepMap{Pos: pos}, nil
}

func mergeAttrs(base, patch map[string]any) map[string]any {
	if len(base) == 0 && len(patch) == 0 {
		return nil
	}
	out := cloneAttrs(base)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = cloneValue(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func carriedAttrs(n Node, typ string) map[string]any {
	align, ok := n.Attrs["textAlign"]
	if !ok || align == nil {
		return nil
	}
	switch typ {
	case TypeParagraph, TypeHeading, TypeBlockquote:
		return map[string]any{"textAlign": align}
	}
	return nil
}

// retargetInline adapts inline content for a textblock of type typ.
func retargetInline(content []Node, typ string) []Node {
	if typ == TypeCodeBlock {
		text := inlinePlainText(content)
		if text == "" {
			return nil
		}
		return []Node{Text(text)}
	}
	out := make([]Node, 0, len(content))
	for _, n := range content {
		out = append(out, n.Clone())
	}
	return splitNewlines(NormalizeInline(out))
}

// inlinePlainText flattens inline content to text with hard breaks as newlines.
func inlinePlainText(content []Node) string {
	var text string
	for _, n := range content {
		switch n.Type {
		case TypeText:
			text += n.Text
		case TypeHardBreak:
			text += "\n"
		}
	}
	return text
}

// splitNewlines turns newlines inside text nodes into hard breaks.
func splitNewlines(content []Node) []Node {
	out := make([]Node, 0, len(content))
	for _, n := range content {
		if !n.IsText() {
			out = append(out, n)
			continue
		}
		start := 0
		for i := 0; i < len(n.Text); i++ {
			if n.Text[i] != '\n' {
				continue
			}
			if i > start {
				part := n.Clone()
				part.Text = n.Text[start:i]
				out = append(out, part)
			}
			out = append(out, HardBreak())
			start = i + 1
		}
		if start < len(n.Text) {
			part := n.Clone()
			part.Text = n.Text[start:]
			out = append(out, part)
		}
	}
	return out
}
