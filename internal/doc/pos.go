package doc

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange   = errors.New("position out of range")
	ErrNoNode       = errors.New("no node at position")
	ErrInvalidRange = errors.New("invalid range")
)

// ResolvedPos describes where a flat position falls in the tree.
//
// Nodes holds the ancestors from the root down to the innermost node whose
// content contains the position; Depth is len(Nodes)-1. Indexes[d] is the
// child index taken inside Nodes[d] to reach Nodes[d+1], and Index is the
// child index inside Parent at the position. When the position falls inside
// a text node, InText is set, Index names that text node and TextOffset is the
// rune offset within it.
type ResolvedPos struct {
	Pos        int
	Depth      int
	Nodes      []Node
	Indexes    []int
	Starts     []int
	Index      int
	InText     bool
	TextOffset int
}

// Resolve maps pos onto the tree.
func Resolve(d Node, pos int) (ResolvedPos, error) {
	if pos < 0 || pos > d.ContentSize() {
		return ResolvedPos{}, fmt.Errorf("%w: %d not in [0, %d]", ErrOutOfRange, pos, d.ContentSize())
	}
	r := ResolvedPos{Pos: pos, Nodes: []Node{d}, Starts: []int{0}}
	parent := d
	start := 0
	for {
		offset := start
		descended := false
		r.Index = len(parent.Content)
		for i, child := range parent.Content {
			size := child.Size()
			if pos == offset {
				r.Index = i
				break
			}
			if pos < offset+size {
				if child.IsText() {
					r.Index = i
					r.InText = true
					r.TextOffset = pos - offset
					break
				}
				r.Indexes = append(r.Indexes, i)
				r.Nodes = append(r.Nodes, child)
				r.Starts = append(r.Starts, offset+1)
				parent = child
				start = offset + 1
				descended = true
				break
			}
			offset += size
		}
		if !descended {
			break
		}
	}
	r.Depth = len(r.Nodes) - 1
	return r, nil
}

// Parent is the innermost node whose content holds the position.
func (r ResolvedPos) Parent() Node {
	return r.Nodes[r.Depth]
}

// Node returns the ancestor at depth.
func (r ResolvedPos) Node(depth int) Node {
	return r.Nodes[depth]
}

// Start is the position where the content of the ancestor at depth begins.
func (r ResolvedPos) Start(depth int) int {
	return r.Starts[depth]
}

// Before is the position directly before the ancestor at depth. Depth 0 has
// no position before it.
func (r ResolvedPos) Before(depth int) int {
	if depth < 1 {
		return -1
	}
	return r.Starts[depth] - 1
}

// NodeAfter returns the child starting at the position, if any.
func (r ResolvedPos) NodeAfter() (Node, bool) {
	parent := r.Parent()
	if r.InText || r.Index >= len(parent.Content) {
		return Node{}, false
	}
	return parent.Content[r.Index], true
}

// NodeBefore returns the child ending at the position, if any.
func (r ResolvedPos) NodeBefore() (Node, bool) {
	if r.InText || r.Index == 0 {
		return Node{}, false
	}
	return r.Parent().Content[r.Index-1], true
}

// NodeAt returns the node that starts at pos.
func NodeAt(d Node, pos int) (Node, error) {
	r, err := Resolve(d, pos)
	if err != nil {
		return Node{}, err
	}
	n, ok := r.NodeAfter()
	if !ok {
		return Node{}, fmt.Errorf("%w: %d", ErrNoNode, pos)
	}
	return n, nil
}

func sameParent(a, b ResolvedPos) bool {
	if a.Depth != b.Depth {
		return false
	}
	for i := 0; i < a.Depth; i++ {
		if a.Indexes[i] != b.Indexes[i] {
			return false
		}
	}
	return true
}

// nodeAtPath walks child indexes from root and returns a pointer into root.
func nodeAtPath(root *Node, path []int) *Node {
	n := root
	for _, i := range path {
		n = &n.Content[i]
	}
	return n
}
