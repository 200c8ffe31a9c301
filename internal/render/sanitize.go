package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w\s:/.#%\[\]-]*$`)).Globally()
	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[a-z0-9-]+$`)).OnElements("h1", "h2", "h3")
	p.AllowAttrs("data-type").Matching(regexp.MustCompile(`^(taskList|taskItem|linkPreview)$`)).OnElements("ul", "li", "a")
	p.AllowAttrs("data-checked").Matching(regexp.MustCompile(`^(true|false)$`)).OnElements("li")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("loading").Matching(regexp.MustCompile(`^lazy$`)).OnElements("img", "iframe")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")

	p.AllowStyles("text-align").Matching(regexp.MustCompile(`^(left|center|right|justify)$`)).OnElements("p", "h1", "h2", "h3", "blockquote")
	p.AllowStyles("color").Matching(cssColor).OnElements("span")
	p.AllowStyles("background-color").Matching(cssColor).OnElements("mark")

	p.AllowElements("input", "label", "mark", "u", "s", "iframe")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")

	p.AllowAttrs("src").Matching(regexp.MustCompile(`^https://www\.youtube-nocookie\.com/embed/[A-Za-z0-9_-]+$`)).OnElements("iframe")
	p.AllowAttrs("title", "width", "height", "allowfullscreen").OnElements("iframe")

	return p
}

// Sanitize strips anything outside the markup the renderer produces.
func Sanitize(html string) string {
	return policy.Sanitize(html)
}
