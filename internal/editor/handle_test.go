package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/api/internal/doc"
)

var (
	overFirst  = Point{X: 300, Y: 20}
	overSecond = Point{X: 300, Y: 70}
	outside    = Point{X: 900, Y: 20}
)

func TestHandleStateMachine(t *testing.T) {
	s := threeParagraphs(t)
	h := NewHandle(s, layout(s))
	assert.Equal(t, HandleHidden, h.State())
	assert.ErrorIs(t, h.OpenMenu(), ErrInvalidState)

	h.PointerMove(overFirst)
	require.Equal(t, HandleVisible, h.State())
	b, ok := h.Block()
	require.True(t, ok)
	assert.Equal(t, 0, b.Pos)

	require.NoError(t, h.OpenMenu())
	h.PointerMove(outside)
	h.PointerLeave()
	assert.Equal(t, HandleMenuOpen, h.State())
	b, _ = h.Block()
	assert.Equal(t, 0, b.Pos)

	h.CloseMenu()
	assert.Equal(t, HandleVisible, h.State())
	h.PointerMove(outside)
	assert.Equal(t, HandleHidden, h.State())
	_, ok = h.Block()
	assert.False(t, ok)
}

func TestHandleActions(t *testing.T) {
	t.Run("delete", func(t *testing.T) {
		s := threeParagraphs(t)
		h := NewHandle(s, layout(s))
		h.PointerMove(overSecond)
		require.NoError(t, h.Delete())
		assert.Equal(t, []string{"a", "c"}, texts(s))
		assert.Equal(t, HandleHidden, h.State())
	})

	t.Run("duplicate", func(t *testing.T) {
		s := threeParagraphs(t)
		h := NewHandle(s, layout(s))
		h.PointerMove(overFirst)
		require.NoError(t, h.OpenMenu())
		require.NoError(t, h.Duplicate())
		assert.Equal(t, []string{"a", "a", "b", "c"}, texts(s))
		assert.Equal(t, HandleVisible, h.State())
	})

	t.Run("turn into heading", func(t *testing.T) {
		s := threeParagraphs(t)
		h := NewHandle(s, layout(s))
		h.PointerMove(overSecond)
		require.NoError(t, h.OpenMenu())
		require.NoError(t, h.TurnInto(doc.KindHeading2))
		n := s.Doc().Content[1]
		assert.Equal(t, doc.TypeHeading, n.Type)
		assert.Equal(t, 2, n.AttrInt("level"))
		assert.Equal(t, Caret(3), s.Selection())
		b, ok := h.Block()
		require.True(t, ok)
		assert.Equal(t, doc.TypeHeading, b.Node.Type)
	})

	t.Run("turn into rejects atoms", func(t *testing.T) {
		s, err := NewWithDoc(doc.Doc(doc.HorizontalRule()))
		require.NoError(t, err)
		h := NewHandle(s, layout(s))
		h.PointerMove(overFirst)
		assert.ErrorIs(t, h.TurnInto(doc.KindParagraph), doc.ErrIncompatible)
		assert.Equal(t, 0, s.Version())
	})

	t.Run("stale block", func(t *testing.T) {
		s := threeParagraphs(t)
		h := NewHandle(s, layout(s))
		h.PointerMove(overFirst)
		require.NoError(t, DeleteBlock(s, 0))
		assert.ErrorIs(t, h.Delete(), ErrStaleBlock)
		assert.Equal(t, []string{"b", "c"}, texts(s))
	})
}

func TestHandleDrag(t *testing.T) {
	s := threeParagraphs(t)
	h := NewHandle(s, layout(s))
	h.PointerMove(overFirst)

	payload, image, err := h.DragStart()
	require.NoError(t, err)
	assert.Equal(t, HandleDragging, h.State())
	assert.Equal(t, 0, payload.From)
	assert.Contains(t, image.HTML, "<p")
	assert.Greater(t, image.Opacity, 0.0)

	h.PointerMove(outside)
	assert.Equal(t, HandleDragging, h.State())
	assert.ErrorIs(t, h.OpenMenu(), ErrInvalidState)

	moved, err := h.Drop(9)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{"b", "c", "a"}, texts(s))
	assert.NotEqual(t, HandleDragging, h.State())

	_, err = h.Drop(0)
	assert.ErrorIs(t, err, ErrInvalidState)
}
