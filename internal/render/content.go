package render

import (
	"encoding/json"
	"strings"

	"folio/api/internal/doc"
)

// Format names the stored representation a piece of content was read as.
type Format string

const (
	FormatEmpty    Format = "empty"
	FormatDocument Format = "document"
	FormatLegacy   Format = "legacy"
	FormatMarkdown Format = "markdown"
)

// Result is the outcome of rendering stored content.
type Result struct {
	HTML   string `json:"html"`
	Format Format `json:"format"`
}

// Content renders a stored content blob. It never fails: unusable input
// renders as empty output.
func Content(raw string, opts Options) Result {
	d, format := Decode(raw)
	return Result{HTML: Document(d, opts), Format: format}
}

// Decode reads stored content into a tree. A JSON object of type "doc" wins,
// then a JSON array of typed blocks, then Markdown.
func Decode(raw string) (doc.Node, Format) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return doc.New(), FormatEmpty
	}

	var shape any
	if err := json.Unmarshal([]byte(trimmed), &shape); err == nil {
		switch v := shape.(type) {
		case map[string]any:
			if v["type"] == doc.TypeDoc {
				if d, err := doc.Parse([]byte(trimmed)); err == nil {
					return d, FormatDocument
				}
			}
		case []any:
			if blocks, ok := legacyBlocks(v); ok {
				return fromLegacy(blocks), FormatLegacy
			}
		}
	}

	d := fromMarkdown([]byte(raw))
	if len(d.Content) == 0 {
		return d, FormatEmpty
	}
	return d, FormatMarkdown
}
