package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/api/internal/doc"
)

func TestContentFormatPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		format   Format
		contains []string
	}{
		{
			name:     "document",
			raw:      `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"tree"}]}]}`,
			format:   FormatDocument,
			contains: []string{"tree</p>"},
		},
		{
			name:     "legacy quote",
			raw:      `[{"type":"quote","content":"Sample"}]`,
			format:   FormatLegacy,
			contains: []string{"<blockquote", "“Sample”"},
		},
		{
			name:     "legacy blocks",
			raw:      `[{"type":"h1","content":"Intro"},{"type":"code","content":"x := 1","meta":{"language":"go","filename":"main.go"}},{"type":"list","content":"- a\n- b"},{"type":"divider"}]`,
			format:   FormatLegacy,
			contains: []string{`<h1 id="intro"`, `class="language-go"`, "main.go", "<ul", "<hr"},
		},
		{
			name:     "array that is not blocks falls back to markdown",
			raw:      `[1, 2]`,
			format:   FormatMarkdown,
			contains: []string{"[1, 2]"},
		},
		{
			name:     "object of another type falls back to markdown",
			raw:      `{"type":"paragraph"}`,
			format:   FormatMarkdown,
			contains: []string{"&#34;paragraph&#34;"},
		},
		{
			name:     "doc with broken content falls back to markdown",
			raw:      `{"type":"doc","content":"oops"}`,
			format:   FormatMarkdown,
		},
		{
			name:     "markdown",
			raw:      "# Title\n\nSome **bold** and *soft* `code` [link](https://example.com).",
			format:   FormatMarkdown,
			contains: []string{`<h1 id="title"`, "<strong>bold</strong>", "<em>soft</em>", "<code", `href="https://example.com"`},
		},
		{
			name:   "whitespace",
			raw:    "  \n\t ",
			format: FormatEmpty,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Content(tt.raw, Options{})
			assert.Equal(t, tt.format, out.Format)
			for _, want := range tt.contains {
				assert.Contains(t, out.HTML, want)
			}
		})
	}
	assert.Equal(t, "", Content("   ", Options{}).HTML)
}

func TestMarkdownConversion(t *testing.T) {
	src := "## Getting Started!\n\n- one\n- two\n\n1. first\n2. second\n\n> quoted\n\n```ts\nconst a = 1\n```\n\n#### Deep\n\n---\n"
	d, format := Decode(src)
	require.Equal(t, FormatMarkdown, format)

	types := make([]string, 0, len(d.Content))
	for _, n := range d.Content {
		types = append(types, n.Type)
	}
	assert.Equal(t, []string{"heading", "bulletList", "orderedList", "blockquote", "codeBlock", "heading", "horizontalRule"}, types)
	assert.Equal(t, "ts", d.Content[4].AttrString("language"))
	assert.Equal(t, "const a = 1", d.Content[4].TextContent())
	assert.Equal(t, 3, d.Content[5].AttrInt("level"))
	assert.Len(t, d.Content[1].Content, 2)

	headings := ExtractHeadings(src)
	require.Len(t, headings, 2)
	assert.Equal(t, "getting-started", headings[0].ID)
	assert.Equal(t, 3, headings[1].Level)
}

func TestMarkdownEmptyLinkKeepsText(t *testing.T) {
	d, format := Decode("[draft]() and [site](https://example.com)")
	require.Equal(t, FormatMarkdown, format)
	require.NoError(t, doc.Validate(d))

	html := Document(d, Options{})
	assert.Contains(t, html, "draft")
	assert.Contains(t, html, `href="https://example.com"`)
	assert.Equal(t, 1, strings.Count(html, "<a "))
}

func TestExtractHeadingsFromLegacy(t *testing.T) {
	headings := ExtractHeadings(`[{"type":"heading","content":"Why Go?","meta":{"level":3}},{"type":"paragraph","content":"x"}]`)
	require.Len(t, headings, 1)
	assert.Equal(t, Heading{ID: "why-go", Title: "Why Go?", Level: 3}, headings[0])
	assert.Empty(t, ExtractHeadings(""))
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Getting Started!":        "getting-started",
		"  Hello   World  ":       "hello-world",
		"--Already-slugged--":     "already-slugged",
		"C++ & Go: a comparison":  "c-go-a-comparison",
		"Ünïcode":                 "ncode",
		"multi---dash":            "multi-dash",
		"a\u00a0b":                "a-b",
		"wide\u3000gap":           "wide-gap",
		"":                        "",
	}
	for in, want := range tests {
		got := Slug(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, Slug(got), "idempotent for %q", in)
	}
}

func TestSanitize(t *testing.T) {
	dirty := `<h2 id="getting-started">Hi</h2><p onclick="x()">a</p><script>alert(1)</script><a href="javascript:alert(1)">x</a>`
	clean := Sanitize(dirty)
	assert.Contains(t, clean, `id="getting-started"`)
	assert.NotContains(t, clean, "onclick")
	assert.NotContains(t, clean, "<script")
	assert.NotContains(t, clean, "javascript:")
}
