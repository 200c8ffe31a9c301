package editor

import (
	"fmt"

	"folio/api/internal/doc"
)

// HandleState is the visibility state of the block handle.
type HandleState int

const (
	HandleHidden HandleState = iota
	HandleVisible
	HandleDragging
	HandleMenuOpen
)

func (s HandleState) String() string {
	switch s {
	case HandleVisible:
		return "visible"
	case HandleDragging:
		return "dragging"
	case HandleMenuOpen:
		return "menu-open"
	default:
		return "hidden"
	}
}

// Handle is the floating control beside the hovered block. It tracks the
// pointer, opens the block menu and starts drags.
type Handle struct {
	session *Session
	view    View
	state   HandleState
	block   Block
	payload DragPayload
}

// NewHandle attaches a handle to a session and its view.
func NewHandle(s *Session, v View) *Handle {
	return &Handle{session: s, view: v}
}

func (h *Handle) State() HandleState {
	return h.state
}

// Block is the block the handle currently points at.
func (h *Handle) Block() (Block, bool) {
	if h.state == HandleHidden {
		return Block{}, false
	}
	return h.block, true
}

// PointerMove re-locates the hovered block. While dragging or with the menu
// open the handle stays where it is.
func (h *Handle) PointerMove(p Point) {
	if h.state == HandleDragging || h.state == HandleMenuOpen {
		return
	}
	b, ok := Locate(h.session.doc, h.view, p)
	if !ok {
		h.state = HandleHidden
		h.block = Block{}
		return
	}
	h.state = HandleVisible
	h.block = b
}

// PointerLeave hides the handle unless it is in use.
func (h *Handle) PointerLeave() {
	if h.state == HandleDragging || h.state == HandleMenuOpen {
		return
	}
	h.state = HandleHidden
	h.block = Block{}
}

// OpenMenu opens the block menu for the hovered block.
func (h *Handle) OpenMenu() error {
	if h.state != HandleVisible {
		return fmt.Errorf("%w: open menu while %s", ErrInvalidState, h.state)
	}
	h.state = HandleMenuOpen
	return nil
}

// CloseMenu dismisses the menu without acting.
func (h *Handle) CloseMenu() {
	if h.state == HandleMenuOpen {
		h.state = HandleVisible
	}
}

func (h *Handle) target() (Block, error) {
	if h.state != HandleVisible && h.state != HandleMenuOpen {
		return Block{}, fmt.Errorf("%w: no block under handle", ErrNoBlock)
	}
	if err := h.session.current(h.block); err != nil {
		return Block{}, err
	}
	return h.block, nil
}

// Delete removes the block under the handle.
func (h *Handle) Delete() error {
	b, err := h.target()
	if err != nil {
		return err
	}
	if err := DeleteBlock(h.session, b.Pos); err != nil {
		return err
	}
	h.state = HandleHidden
	h.block = Block{}
	return nil
}

// Duplicate inserts a copy of the block under the handle after it.
func (h *Handle) Duplicate() error {
	b, err := h.target()
	if err != nil {
		return err
	}
	if err := DuplicateBlock(h.session, b.Pos); err != nil {
		return err
	}
	h.state = HandleVisible
	return nil
}

// TurnInto converts the block under the handle.
func (h *Handle) TurnInto(kind doc.BlockKind) error {
	b, err := h.target()
	if err != nil {
		return err
	}
	if err := TurnBlockInto(h.session, b.Pos, kind); err != nil {
		return err
	}
	converted, err := h.session.BlockAt(b.Pos)
	if err != nil {
		h.state = HandleHidden
		h.block = Block{}
		return nil
	}
	h.state = HandleVisible
	h.block = converted
	return nil
}

// DragStart captures the hovered block as a drag payload and builds its
// drag image.
func (h *Handle) DragStart() (DragPayload, DragImage, error) {
	if h.state != HandleVisible {
		return DragPayload{}, DragImage{}, fmt.Errorf("%w: drag while %s", ErrInvalidState, h.state)
	}
	b, err := h.target()
	if err != nil {
		return DragPayload{}, DragImage{}, err
	}
	h.payload = DragPayload{Node: b.Node.Clone(), From: b.Pos}
	h.state = HandleDragging
	return h.payload, NewDragImage(b), nil
}

// Drop finishes the drag at target. It reports whether the document changed.
func (h *Handle) Drop(target int) (bool, error) {
	if h.state != HandleDragging {
		return false, fmt.Errorf("%w: drop while %s", ErrInvalidState, h.state)
	}
	moved, err := Drop(h.session, h.payload, target)
	h.DragEnd()
	return moved, err
}

// DragEnd ends a drag without dropping.
func (h *Handle) DragEnd() {
	if h.state != HandleDragging {
		return
	}
	h.payload = DragPayload{}
	h.state = HandleVisible
	if err := h.session.current(h.block); err != nil {
		h.state = HandleHidden
		h.block = Block{}
	}
}
