package render

import (
	"net/url"
	"regexp"
	"strings"
)

var youtubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)

// safeURL returns raw when it is relative or uses http, https or mailto.
func safeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "", "http", "https", "mailto":
		return u
	default:
		return ""
	}
}

// youtubeEmbedURL rewrites any youtube watch, short or embed url to the
// privacy-enhanced embed url. Other hosts yield "".
func youtubeEmbedURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	var id string
	switch host {
	case "youtube.com", "m.youtube.com", "youtube-nocookie.com":
		switch {
		case parsed.Path == "/watch":
			id = parsed.Query().Get("v")
		case strings.HasPrefix(parsed.Path, "/embed/"):
			id = strings.TrimPrefix(parsed.Path, "/embed/")
		case strings.HasPrefix(parsed.Path, "/shorts/"):
			id = strings.TrimPrefix(parsed.Path, "/shorts/")
		}
	case "youtu.be":
		id = strings.TrimPrefix(parsed.Path, "/")
	}
	if !youtubeID.MatchString(id) {
		return ""
	}
	return "https://www.youtube-nocookie.com/embed/" + id
}

func siteLabel(card LinkCard) string {
	if card.SiteName != "" {
		return card.SiteName
	}
	parsed, err := url.Parse(card.URL)
	if err != nil || parsed.Host == "" {
		return card.URL
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}
