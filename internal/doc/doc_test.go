package doc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const richDocument = `{
  "type": "doc",
  "content": [
    {"type": "heading", "attrs": {"level": 2, "textAlign": "center"}, "content": [{"type": "text", "text": "Getting Started!"}]},
    {"type": "paragraph", "content": [
      {"type": "text", "text": "Hello "},
      {"type": "text", "marks": [{"type": "italic"}, {"type": "bold"}], "text": "world"},
      {"type": "hardBreak"},
      {"type": "text", "marks": [{"type": "link", "attrs": {"href": "https://example.com"}}], "text": "link"}
    ]},
    {"type": "codeBlock", "attrs": {"language": "ts", "filename": null}, "content": [{"type": "text", "text": "const x = 1;\nfoo(x)"}]},
    {"type": "taskList", "content": [
      {"type": "taskItem", "attrs": {"checked": true}, "content": [{"type": "paragraph", "content": [{"type": "text", "text": "done"}]}]}
    ]},
    {"type": "image", "attrs": {"src": "/img/a.png", "alt": "A"}},
    {"type": "linkPreview", "attrs": {"url": "https://go.dev"}},
    {"type": "horizontalRule"}
  ]
}`

func TestParseSerializeRoundTrip(t *testing.T) {
	d, err := Parse([]byte(richDocument))
	require.NoError(t, err)
	require.NoError(t, Validate(d))

	data, err := Serialize(d)
	require.NoError(t, err)
	again, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, Equal(d, again))
	assert.Equal(t, 7, len(again.Content))
}

func TestParseRejectsNonDocuments(t *testing.T) {
	for _, input := range []string{``, `[]`, `"text"`, `{"type":"paragraph"}`, `{"type":"doc","content":"x"}`} {
		_, err := Parse([]byte(input))
		assert.Error(t, err, input)
	}
	_, err := Parse([]byte(`{"type":"paragraph"}`))
	assert.ErrorIs(t, err, ErrNotDocument)
}

func TestSizes(t *testing.T) {
	p := Paragraph(Text("héllo"), HardBreak())
	assert.Equal(t, 5, Text("héllo").Size())
	assert.Equal(t, 1, HardBreak().Size())
	assert.Equal(t, 8, p.Size())
	assert.Equal(t, 1, HorizontalRule().Size())
	assert.Equal(t, 2, Paragraph().Size())

	list := BulletList(ListItem(Paragraph(Text("ab"))))
	assert.Equal(t, 8, list.Size())

	d := Doc(p, HorizontalRule(), list)
	assert.Equal(t, 17, d.ContentSize())
}

func TestCloneDoesNotAlias(t *testing.T) {
	d := Doc(Heading(1, Text("Title")))
	c := d.Clone()
	c.Content[0].Attrs["level"] = 3
	c.Content[0].Content[0].Text = "Changed"
	assert.Equal(t, 1, d.Content[0].AttrInt("level"))
	assert.Equal(t, "Title", d.Content[0].TextContent())
}

func TestEqualNormalizesNumbers(t *testing.T) {
	parsed, err := Parse([]byte(`{"type":"doc","content":[{"type":"heading","attrs":{"level":2}}]}`))
	require.NoError(t, err)
	assert.True(t, Equal(parsed, Doc(Heading(2))))
	assert.True(t, Equal(Node{Type: TypeParagraph, Content: []Node{}}, Paragraph()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  Node
		err  error
		path string
	}{
		{name: "valid", doc: Doc(Paragraph(Text("a")), CodeBlock("go", "x"))},
		{name: "empty document", doc: New()},
		{name: "not a doc", doc: Paragraph(), err: ErrNotDocument},
		{name: "unknown type", doc: Doc(Node{Type: "callout"}), err: ErrUnknownType, path: "content[0]"},
		{name: "marks in code", doc: Doc(Node{Type: TypeCodeBlock, Content: []Node{Text("x", Mark{Type: MarkBold})}}), err: ErrInvalidContent, path: "content[0]"},
		{name: "atom with children", doc: Doc(Node{Type: TypeLinkPreview, Content: []Node{Paragraph()}}), err: ErrInvalidContent},
		{name: "text directly in list item", doc: Doc(BulletList(ListItem(Text("x")))), err: ErrInvalidContent, path: "content[0].content[0]"},
		{name: "empty blockquote", doc: Doc(Node{Type: TypeBlockquote}), err: ErrInvalidContent},
		{name: "heading level 4", doc: Doc(Heading(4, Text("x"))), err: ErrInvalidAttrs},
		{name: "bad alignment", doc: Doc(Node{Type: TypeParagraph, Attrs: map[string]any{"textAlign": "middle"}}), err: ErrInvalidAttrs},
		{name: "image without src", doc: Doc(Node{Type: TypeImage}), err: ErrInvalidAttrs},
		{name: "link without href", doc: Doc(Paragraph(Text("x", Mark{Type: MarkLink}))), err: ErrInvalidAttrs},
		{name: "empty text", doc: Doc(Paragraph(Text(""))), err: ErrInvalidContent, path: "content[0].content[0]"},
		{name: "block in paragraph", doc: Doc(Paragraph(HorizontalRule())), err: ErrInvalidContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.doc)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
			if tt.path != "" {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.path, verr.Path)
			}
		})
	}
}
