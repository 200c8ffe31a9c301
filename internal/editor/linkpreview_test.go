package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/api/internal/doc"
)

func TestPasteURLIntoEmptyParagraph(t *testing.T) {
	s, err := NewWithDoc(doc.Doc(doc.Paragraph(doc.Text("intro")), doc.Paragraph()))
	require.NoError(t, err)
	require.NoError(t, s.Apply(SetSelection(8, 8)))

	result, err := Paste(s, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, PastedLinkPreview, result)

	d := s.Doc()
	require.Len(t, d.Content, 2)
	assert.Equal(t, doc.TypeLinkPreview, d.Content[1].Type)
	assert.Equal(t, "https://example.com", d.Content[1].AttrString("url"))
	assert.Equal(t, Caret(8), s.Selection())
}

func TestPasteText(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		text string
		want string
	}{
		{name: "url into non-empty paragraph", sel: Caret(6), text: "https://example.com", want: "hellohttps://example.com"},
		{name: "url with spaces", sel: Caret(1), text: "https://a.com b", want: "https://a.com bhello"},
		{name: "plain text", sel: Caret(3), text: "XY", want: "heXYllo"},
		{name: "replaces selection", sel: Selection{Anchor: 3, Head: 1}, text: "XY", want: "XYllo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewWithDoc(doc.Doc(doc.Paragraph(doc.Text("hello"))))
			require.NoError(t, err)
			require.NoError(t, s.Apply(SetSelection(tt.sel.Anchor, tt.sel.Head)))

			result, err := Paste(s, tt.text)
			require.NoError(t, err)
			assert.Equal(t, PastedText, result)
			d := s.Doc()
			require.Len(t, d.Content, 1)
			assert.Equal(t, tt.want, d.Content[0].TextContent())
		})
	}
}

func TestPasteNonURLIntoEmptyParagraph(t *testing.T) {
	s, err := NewWithDoc(doc.Doc(doc.Paragraph()))
	require.NoError(t, err)
	require.NoError(t, s.Apply(SetSelection(1, 1)))

	result, err := Paste(s, "ftp://example.com")
	require.NoError(t, err)
	assert.Equal(t, PastedText, result)
	assert.Equal(t, doc.TypeParagraph, s.Doc().Content[0].Type)
	assert.Equal(t, Caret(18), s.Selection())

	result, err = Paste(s, "")
	require.NoError(t, err)
	assert.Equal(t, PastedNothing, result)
}

func TestLinkPreviewLifecycle(t *testing.T) {
	s, err := NewWithDoc(doc.Doc(doc.Paragraph(doc.Text("x"))))
	require.NoError(t, err)

	lp, err := InsertLinkPreview(s, 3)
	require.NoError(t, err)
	assert.Equal(t, PreviewEditing, lp.State())

	assert.ErrorIs(t, lp.Submit(), ErrEmptyURL)
	lp.SetInput("   ")
	assert.ErrorIs(t, lp.KeyDown("Enter"), ErrEmptyURL)
	assert.ErrorIs(t, lp.ToLink(), ErrInvalidState)

	lp.SetInput("  https://go.dev ")
	require.NoError(t, lp.KeyDown("Tab"))
	assert.Equal(t, PreviewEditing, lp.State())
	require.NoError(t, lp.KeyDown("Enter"))
	assert.Equal(t, PreviewDisplaying, lp.State())
	assert.Equal(t, "https://go.dev", lp.URL())

	require.NoError(t, lp.Edit())
	assert.Equal(t, PreviewEditing, lp.State())
	lp.SetInput("https://go.dev/blog")
	require.NoError(t, lp.Submit())

	reopened, err := OpenLinkPreview(s, 3)
	require.NoError(t, err)
	assert.Equal(t, PreviewDisplaying, reopened.State())
	assert.Equal(t, "https://go.dev/blog", reopened.URL())

	require.NoError(t, lp.ToLink())
	d := s.Doc()
	require.Len(t, d.Content, 2)
	link := d.Content[1]
	assert.Equal(t, doc.TypeParagraph, link.Type)
	require.Len(t, link.Content, 1)
	assert.Equal(t, "https://go.dev/blog", link.Content[0].Text)
	assert.Equal(t, "https://go.dev/blog", link.Content[0].Marks[0].AttrString("href"))

	assert.ErrorIs(t, lp.ToText(), ErrDetached)
}

func TestLinkPreviewToText(t *testing.T) {
	s, err := NewWithDoc(doc.Doc(doc.LinkPreview("https://example.com")))
	require.NoError(t, err)

	lp, err := OpenLinkPreview(s, 0)
	require.NoError(t, err)
	require.NoError(t, lp.ToText())

	n := s.Doc().Content[0]
	assert.Equal(t, doc.TypeParagraph, n.Type)
	assert.Equal(t, "https://example.com", n.TextContent())
	assert.Empty(t, n.Content[0].Marks)

	_, err = OpenLinkPreview(s, 0)
	assert.ErrorIs(t, err, ErrNotPreview)
}
