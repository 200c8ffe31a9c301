package editor

import (
	"folio/api/internal/doc"
)

// Point is a pointer position in viewport coordinates.
type Point struct {
	X float64
	Y float64
}

// Rect is a box in viewport coordinates.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// View answers geometry questions about the rendered editor.
type View interface {
	// EditorRect is the bounding box of the editing surface.
	EditorRect() Rect
	// PosAtCoords maps a point inside the surface to a document position.
	PosAtCoords(p Point) (int, bool)
	// BlockRect is the box of the top-level block starting at pos.
	BlockRect(pos int) (Rect, bool)
}

const (
	gutterLeft  = 100
	gutterRight = 50
	probeInset  = 50
)

// Block is a top-level block and the position where it starts.
type Block struct {
	Node doc.Node
	Pos  int
}

// End is the position right after the block.
func (b Block) End() int {
	return b.Pos + b.Node.Size()
}

// Locate finds the top-level block under the pointer. The active zone spans
// the editor vertically and extends 100px left and 50px right of it. The
// document is only read.
func Locate(d doc.Node, v View, p Point) (Block, bool) {
	editor := v.EditorRect()
	if p.X < editor.Left-gutterLeft || p.X > editor.Right+gutterRight {
		return Block{}, false
	}
	if p.Y < editor.Top || p.Y > editor.Bottom {
		return Block{}, false
	}

	pos, ok := v.PosAtCoords(Point{X: editor.Left + probeInset, Y: p.Y})
	if !ok {
		return Block{}, false
	}
	block, ok := TopLevelBlock(d, pos)
	if !ok {
		return Block{}, false
	}

	box, ok := v.BlockRect(block.Pos)
	if !ok || p.Y < box.Top || p.Y > box.Bottom {
		return Block{}, false
	}
	return block, true
}

// TopLevelBlock returns the direct child of the root containing pos. At a
// boundary between blocks the block after wins, or the last block at the end.
func TopLevelBlock(d doc.Node, pos int) (Block, bool) {
	r, err := doc.Resolve(d, pos)
	if err != nil {
		return Block{}, false
	}
	if r.Depth >= 1 {
		return Block{Node: r.Node(1), Pos: r.Before(1)}, true
	}
	if n, ok := r.NodeAfter(); ok {
		return Block{Node: n, Pos: pos}, true
	}
	if n, ok := r.NodeBefore(); ok {
		return Block{Node: n, Pos: pos - n.Size()}, true
	}
	return Block{}, false
}
