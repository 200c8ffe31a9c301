package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/api/internal/doc"
)

func TestDrop(t *testing.T) {
	tests := []struct {
		name   string
		from   int
		target int
		moved  bool
		want   []string
	}{
		{name: "first to end", from: 0, target: 9, moved: true, want: []string{"b", "c", "a"}},
		{name: "first between second and third", from: 0, target: 6, moved: true, want: []string{"b", "a", "c"}},
		{name: "last to start", from: 6, target: 0, moved: true, want: []string{"c", "a", "b"}},
		{name: "middle to start", from: 3, target: 0, moved: true, want: []string{"b", "a", "c"}},
		{name: "onto itself", from: 3, target: 3, moved: false, want: []string{"a", "b", "c"}},
		{name: "inside itself", from: 3, target: 5, moved: false, want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := threeParagraphs(t)
			calls := 0
			s.OnChange(func(doc.Node) { calls++ })

			moved, err := MoveBlock(s, tt.from, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.moved, moved)
			assert.Equal(t, tt.want, texts(s))
			if tt.moved {
				assert.Equal(t, 1, calls)
			} else {
				assert.Equal(t, 0, s.Version())
			}
		})
	}
}

func TestDropStalePayloadIsNoop(t *testing.T) {
	s := threeParagraphs(t)
	moved, err := Drop(s, DragPayload{Node: doc.Paragraph(doc.Text("z")), From: 0}, 9)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 0, s.Version())
}

func TestDropIntoTextIsRejectedWhole(t *testing.T) {
	s := threeParagraphs(t)
	_, err := MoveBlock(s, 6, 1)
	require.ErrorIs(t, err, doc.ErrInvalidContent)
	assert.Equal(t, []string{"a", "b", "c"}, texts(s))
	assert.Equal(t, 0, s.Version())
}

func TestDragPayloadRoundTrip(t *testing.T) {
	p := DragPayload{Node: doc.Heading(2, doc.Text("Title")), From: 12}
	data, err := p.Marshal()
	require.NoError(t, err)

	got, err := ParseDragPayload(DragMIME, data)
	require.NoError(t, err)
	assert.Equal(t, 12, got.From)
	assert.True(t, doc.Equal(p.Node, got.Node))

	_, err = ParseDragPayload(DragMIME, []byte(`{"from":1}`))
	assert.Error(t, err)

	_, err = ParseDragPayload("text/plain", data)
	assert.ErrorIs(t, err, ErrForeignDrop)

	_, err = ParseDragPayload(DragMIME, []byte(`{"node":{"type":"text","text":"x"},"from":1}`))
	assert.ErrorIs(t, err, ErrForeignDrop)
}

func TestDropChecksTargetParent(t *testing.T) {
	s, err := NewWithDoc(doc.Doc(
		doc.Paragraph(doc.Text("a")),
		doc.BulletList(doc.ListItem(doc.Paragraph(doc.Text("b")))),
	))
	require.NoError(t, err)

	// 4 is the boundary inside the bullet list, before its first item.
	_, err = MoveBlock(s, 0, 4)
	require.ErrorIs(t, err, doc.ErrInvalidContent)
	assert.Equal(t, 0, s.Version())

	_, err = MoveBlock(s, 0, 99)
	require.ErrorIs(t, err, doc.ErrOutOfRange)
	assert.Equal(t, 0, s.Version())
}

func TestBlockActions(t *testing.T) {
	s := threeParagraphs(t)
	require.NoError(t, DuplicateBlock(s, 3))
	assert.Equal(t, []string{"a", "b", "b", "c"}, texts(s))

	require.NoError(t, TurnBlockInto(s, 6, doc.KindCodeBlock))
	assert.Equal(t, doc.TypeCodeBlock, s.Doc().Content[2].Type)

	assert.ErrorIs(t, DeleteBlock(s, 1), ErrNoBlock)
	assert.ErrorIs(t, DeleteBlock(s, 99), ErrNoBlock)
}
