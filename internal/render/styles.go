package render

import (
	"fmt"
	"strings"
)

// Variant selects the class set applied to rendered elements. The blog page
// and the about preview share one renderer and differ only here.
type Variant int

const (
	VariantBlog Variant = iota
	VariantPreview
)

func (v Variant) String() string {
	switch v {
	case VariantPreview:
		return "preview"
	default:
		return "blog"
	}
}

// ParseVariant accepts "blog" or "preview"; empty means blog.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blog":
		return VariantBlog, nil
	case "preview":
		return VariantPreview, nil
	default:
		return VariantBlog, fmt.Errorf("unknown variant %q", s)
	}
}

type styles struct {
	paragraph   string
	headings    [4]string
	blockquote  string
	bulletList  string
	orderedList string
	listItem    string
	taskList    string
	taskItem    string
	codeWrap    string
	codeHeader  string
	pre         string
	inlineCode  string
	link        string
	highlight   string
	image       string
	rule        string
	tableWrap   string
	table       string
	cell        string
	headerCell  string
	video       string
	card        string
}

var blogStyles = styles{
	paragraph: "mb-6 text-lg leading-relaxed text-gray-300",
	headings: [4]string{
		"",
		"mt-12 mb-6 scroll-mt-24 text-4xl font-bold text-white",
		"mt-10 mb-4 scroll-mt-24 text-3xl font-semibold text-white",
		"mt-8 mb-3 scroll-mt-24 text-2xl font-semibold text-white",
	},
	blockquote:  "my-8 border-l-4 border-blue-500 pl-6 italic text-gray-400",
	bulletList:  "mb-6 ml-6 list-disc space-y-2 text-gray-300",
	orderedList: "mb-6 ml-6 list-decimal space-y-2 text-gray-300",
	listItem:    "leading-relaxed",
	taskList:    "mb-6 space-y-2 text-gray-300",
	taskItem:    "flex items-start gap-3",
	codeWrap:    "my-8 overflow-hidden rounded-lg border border-gray-800 bg-[#1e1e1e]",
	codeHeader:  "flex justify-between border-b border-gray-800 px-4 py-2 text-xs text-gray-500",
	pre:         "overflow-x-auto p-4 text-sm leading-6 text-[#d4d4d4]",
	inlineCode:  "rounded bg-gray-800 px-1.5 py-0.5 font-mono text-sm text-pink-400",
	link:        "text-blue-400 underline hover:text-blue-300",
	highlight:   "rounded bg-yellow-300/30 px-0.5",
	image:       "my-8 w-full rounded-lg",
	rule:        "my-12 border-gray-800",
	tableWrap:   "my-8 overflow-x-auto",
	table:       "w-full border-collapse text-left text-gray-300",
	cell:        "border border-gray-800 px-4 py-2",
	headerCell:  "border border-gray-800 bg-gray-900 px-4 py-2 font-semibold",
	video:       "my-8 aspect-video w-full overflow-hidden rounded-lg",
	card:        "my-6 flex overflow-hidden rounded-lg border border-gray-800 hover:border-gray-600",
}

var previewStyles = styles{
	paragraph: "mb-3 leading-relaxed text-gray-400",
	headings: [4]string{
		"",
		"mb-3 text-2xl font-bold text-white",
		"mb-2 text-xl font-semibold text-white",
		"mb-2 text-lg font-semibold text-white",
	},
	blockquote:  "my-4 border-l-2 border-gray-600 pl-4 italic text-gray-500",
	bulletList:  "mb-3 ml-5 list-disc space-y-1 text-gray-400",
	orderedList: "mb-3 ml-5 list-decimal space-y-1 text-gray-400",
	listItem:    "",
	taskList:    "mb-3 space-y-1 text-gray-400",
	taskItem:    "flex items-start gap-2",
	codeWrap:    "my-4 overflow-hidden rounded border border-gray-800 bg-[#1e1e1e]",
	codeHeader:  "flex justify-between px-3 py-1 text-xs text-gray-500",
	pre:         "overflow-x-auto p-3 text-xs leading-5 text-[#d4d4d4]",
	inlineCode:  "rounded bg-gray-800 px-1 font-mono text-xs text-pink-400",
	link:        "text-blue-400 hover:underline",
	highlight:   "bg-yellow-300/30",
	image:       "my-4 max-h-64 rounded",
	rule:        "my-6 border-gray-800",
	tableWrap:   "my-4 overflow-x-auto",
	table:       "w-full border-collapse text-left text-sm text-gray-400",
	cell:        "border border-gray-800 px-2 py-1",
	headerCell:  "border border-gray-800 px-2 py-1 font-semibold",
	video:       "my-4 aspect-video w-full overflow-hidden rounded",
	card:        "my-3 flex overflow-hidden rounded border border-gray-800",
}

func stylesFor(v Variant) styles {
	if v == VariantPreview {
		return previewStyles
	}
	return blogStyles
}

func class(c string) string {
	if c == "" {
		return ""
	}
	return fmt.Sprintf(` class="%s"`, c)
}
