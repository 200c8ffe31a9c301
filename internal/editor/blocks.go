package editor

import (
	"fmt"

	"folio/api/internal/doc"
)

// blockAt returns the top-level block starting exactly at pos.
func blockAt(d doc.Node, pos int) (Block, error) {
	r, err := doc.Resolve(d, pos)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %v", ErrNoBlock, err)
	}
	n, ok := r.NodeAfter()
	if r.Depth != 0 || !ok {
		return Block{}, fmt.Errorf("%w at %d", ErrNoBlock, pos)
	}
	return Block{Node: n, Pos: pos}, nil
}

// BlockAt returns the top-level block starting at pos in the session.
func (s *Session) BlockAt(pos int) (Block, error) {
	return blockAt(s.doc, pos)
}

// Blocks lists the top-level blocks with their positions.
func (s *Session) Blocks() []Block {
	blocks := make([]Block, 0, len(s.doc.Content))
	pos := 0
	for _, n := range s.doc.Content {
		blocks = append(blocks, Block{Node: n.Clone(), Pos: pos})
		pos += n.Size()
	}
	return blocks
}

// current checks that b still describes the tree.
func (s *Session) current(b Block) error {
	n, err := doc.NodeAt(s.doc, b.Pos)
	if err != nil || !doc.Equal(n, b.Node) {
		return fmt.Errorf("%w at %d", ErrStaleBlock, b.Pos)
	}
	return nil
}

// DeleteBlock removes the top-level block at pos.
func DeleteBlock(s *Session, pos int) error {
	b, err := s.BlockAt(pos)
	if err != nil {
		return err
	}
	return s.Apply(DeleteRange(b.Pos, b.End()))
}

// DuplicateBlock inserts a deep copy of the block at pos right after it.
func DuplicateBlock(s *Session, pos int) error {
	b, err := s.BlockAt(pos)
	if err != nil {
		return err
	}
	return s.Apply(InsertAt(b.End(), b.Node.Clone()))
}

// TurnBlockInto converts the block at pos to kind. The selection moves to the
// block start first, so the conversion targets that block.
func TurnBlockInto(s *Session, pos int, kind doc.BlockKind) error {
	b, err := s.BlockAt(pos)
	if err != nil {
		return err
	}
	converted, err := doc.Convert(b.Node, kind)
	if err != nil {
		return err
	}
	return s.Apply(
		SetSelection(b.Pos, b.Pos),
		Replace(b.Pos, b.End(), converted...),
		SetSelection(b.Pos, b.Pos),
	)
}
