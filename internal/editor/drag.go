package editor

import (
	"encoding/json"
	"errors"
	"fmt"

	"folio/api/internal/doc"
	"folio/api/internal/render"
)

// DragMIME is the data-transfer type carrying a block payload.
const DragMIME = "application/x-folio-block"

var ErrForeignDrop = errors.New("not a block drag")

// DragPayload is the block being moved and where it was taken from.
type DragPayload struct {
	Node doc.Node `json:"node"`
	From int      `json:"from"`
}

// Marshal encodes the payload for the data transfer.
func (p DragPayload) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode drag payload: %w", err)
	}
	return data, nil
}

// ParseDragPayload decodes a payload produced by Marshal. Data transfers of
// any other type, or payloads that do not carry a block, are rejected.
func ParseDragPayload(mimeType string, data []byte) (DragPayload, error) {
	if mimeType != DragMIME {
		return DragPayload{}, fmt.Errorf("%w: %q", ErrForeignDrop, mimeType)
	}
	var p DragPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return DragPayload{}, fmt.Errorf("decode drag payload: %w", err)
	}
	if p.Node.Type == "" {
		return DragPayload{}, fmt.Errorf("decode drag payload: missing node")
	}
	if !doc.IsBlock(p.Node.Type) {
		return DragPayload{}, fmt.Errorf("%w: %s is not a block", ErrForeignDrop, p.Node.Type)
	}
	return p, nil
}

// DragImage describes the ghost shown under the pointer while dragging.
type DragImage struct {
	HTML     string  `json:"html"`
	OffsetX  float64 `json:"offsetX"`
	OffsetY  float64 `json:"offsetY"`
	Shadow   string  `json:"shadow"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
}

// NewDragImage renders the block for its drag ghost.
func NewDragImage(b Block) DragImage {
	return DragImage{
		HTML:     render.Block(b.Node, render.Options{Variant: render.VariantPreview}),
		OffsetX:  10,
		OffsetY:  10,
		Shadow:   "0 10px 25px rgba(0, 0, 0, 0.35)",
		Rotation: 2,
		Opacity:  0.9,
	}
}

// Drop moves the payload's block to target as one atomic change. Dropping a
// block onto itself, or a payload whose source no longer matches the tree, is
// a no-op reported as false.
func Drop(s *Session, p DragPayload, target int) (bool, error) {
	size := p.Node.Size()
	if target >= p.From && target < p.From+size {
		return false, nil
	}
	current, err := doc.NodeAt(s.doc, p.From)
	if err != nil || !doc.Equal(current, p.Node) {
		return false, nil
	}
	at, err := doc.Resolve(s.doc, target)
	if err != nil {
		return false, err
	}
	if parent := at.Parent().Type; at.InText || !doc.Allows(parent, p.Node.Type) {
		return false, fmt.Errorf("%w: %s cannot be dropped into %s", doc.ErrInvalidContent, p.Node.Type, parent)
	}
	insertAt := target
	if p.From < target {
		insertAt -= size
	}
	if err := s.Apply(
		DeleteRange(p.From, p.From+size),
		InsertAt(insertAt, p.Node),
		SetSelection(insertAt, insertAt),
	); err != nil {
		return false, err
	}
	return true, nil
}

// MoveBlock drags the top-level block at from to target.
func MoveBlock(s *Session, from, target int) (bool, error) {
	b, err := s.BlockAt(from)
	if err != nil {
		return false, err
	}
	return Drop(s, DragPayload{Node: b.Node, From: b.Pos}, target)
}
