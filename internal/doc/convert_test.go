package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	bold := Mark{Type: MarkBold}
	para := Paragraph(Text("Hello ", bold), Text("there"))
	list := BulletList(
		ListItem(Paragraph(Text("first"))),
		ListItem(Paragraph(Text("second"))),
	)

	t.Run("paragraph to heading keeps marks", func(t *testing.T) {
		out, err := Convert(para, KindHeading2)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, TypeHeading, out[0].Type)
		assert.Equal(t, 2, out[0].AttrInt("level"))
		assert.True(t, out[0].Content[0].HasMark(MarkBold))
	})

	t.Run("paragraph to code strips marks", func(t *testing.T) {
		out, err := Convert(para, KindCodeBlock)
		require.NoError(t, err)
		require.Len(t, out, 1)
		require.NoError(t, ValidateNode(out[0]))
		assert.Equal(t, "Hello there", out[0].TextContent())
		assert.Empty(t, out[0].Content[0].Marks)
	})

	t.Run("list to paragraphs lifts items", func(t *testing.T) {
		out, err := Convert(list, KindParagraph)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "second", out[1].TextContent())
	})

	t.Run("list to task list", func(t *testing.T) {
		out, err := Convert(list, KindTaskList)
		require.NoError(t, err)
		require.Len(t, out, 1)
		require.NoError(t, ValidateNode(out[0]))
		assert.Len(t, out[0].Content, 2)
	})

	t.Run("code to ordered list splits lines", func(t *testing.T) {
		out, err := Convert(CodeBlock("go", "a\nb\nc"), KindOrderedList)
		require.NoError(t, err)
		require.NoError(t, ValidateNode(out[0]))
		assert.Len(t, out[0].Content, 3)
	})

	t.Run("paragraph to blockquote", func(t *testing.T) {
		out, err := Convert(para, KindBlockquote)
		require.NoError(t, err)
		require.NoError(t, ValidateNode(out[0]))
		assert.Equal(t, TypeParagraph, out[0].Content[0].Type)
	})

	t.Run("empty paragraph stays valid", func(t *testing.T) {
		for _, kind := range Kinds {
			out, err := Convert(Paragraph(), kind)
			require.NoError(t, err, kind)
			for _, n := range out {
				require.NoError(t, ValidateNode(n), kind)
			}
		}
	})

	t.Run("atoms are rejected", func(t *testing.T) {
		for _, n := range []Node{HorizontalRule(), Image("/a.png", ""), LinkPreview("https://go.dev")} {
			_, err := Convert(n, KindParagraph)
			assert.ErrorIs(t, err, ErrIncompatible)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := ParseKind("callout")
		assert.ErrorIs(t, err, ErrIncompatible)
	})
}
