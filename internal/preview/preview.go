// Package preview fetches a web page and extracts the metadata shown on a
// link-preview card.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"folio/api/internal/render"
)

var (
	ErrUnsupportedURL = errors.New("unsupported url")
	ErrUpstream       = errors.New("upstream error")
)

const maxBody = 1 << 20

type Metadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	SiteName    string `json:"siteName"`
}

func (m Metadata) Card() render.LinkCard {
	return render.LinkCard{
		URL:         m.URL,
		Title:       m.Title,
		Description: m.Description,
		Image:       m.Image,
		SiteName:    m.SiteName,
	}
}

type Fetcher struct {
	client    *retryablehttp.Client
	userAgent string
}

func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = timeout
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil
	if logger != nil {
		client.Logger = leveledLogger{logger.Sugar().Named("preview")}
	}
	return &Fetcher{client: client, userAgent: "folio-link-preview/1.0"}
}

// Fetch downloads rawURL and returns its card metadata. Non-HTML responses
// yield metadata carrying only the URL and site name.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Metadata{}, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("build preview request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return Metadata{}, fmt.Errorf("%w: fetch %s: %w", ErrUpstream, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Metadata{}, fmt.Errorf("%w: %s returned %d", ErrUpstream, u, resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "" && mediaType != "text/html" && mediaType != "application/xhtml+xml" {
		return Metadata{URL: u.String(), SiteName: siteName(u)}, nil
	}
	return Parse(io.LimitReader(resp.Body, maxBody), u.String())
}

// Parse reads an HTML document and extracts OpenGraph metadata, falling back
// to the title element and the description meta tag. Relative image URLs are
// resolved against pageURL.
func Parse(r io.Reader, pageURL string) (Metadata, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("parse html: %w", err)
	}

	meta := map[string]string{}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Meta:
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				if key != "" {
					if _, seen := meta[key]; !seen {
						meta[key] = strings.TrimSpace(attr(n, "content"))
					}
				}
			case atom.Body:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	base, _ := url.Parse(pageURL)
	m := Metadata{
		URL:         pageURL,
		Title:       first(meta["og:title"], meta["twitter:title"], title),
		Description: first(meta["og:description"], meta["twitter:description"], meta["description"]),
		SiteName:    meta["og:site_name"],
	}
	if image := first(meta["og:image"], meta["og:image:url"], meta["twitter:image"]); image != "" {
		m.Image = resolve(base, image)
	}
	if m.SiteName == "" && base != nil {
		m.SiteName = siteName(base)
	}
	return m, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil || u.IsAbs() {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

func siteName(u *url.URL) string {
	return strings.TrimPrefix(u.Hostname(), "www.")
}

type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
