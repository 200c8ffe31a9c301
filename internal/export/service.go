package export

import (
	"context"
	"fmt"
	"html/template"

	"folio/api/internal/render"
	"folio/api/internal/store"
)

// PostSource loads stored posts.
type PostSource interface {
	GetPost(ctx context.Context, slug string) (store.Post, error)
}

// job is one rendered page handed to a converter.
type job struct {
	HTML  string
	Title string
	Paper Paper
}

type converter func(ctx context.Context, j job) (*Result, error)

type Service struct {
	posts PostSource
	pdf   converter
	docx  converter
}

func NewService(posts PostSource) *Service {
	return &Service{posts: posts, pdf: exportPDF, docx: exportDOCX}
}

// Page renders the standalone HTML page for a post.
func (s *Service) Page(ctx context.Context, slug string) (string, store.Post, error) {
	post, err := s.posts.GetPost(ctx, slug)
	if err != nil {
		return "", store.Post{}, fmt.Errorf("get post: %w", err)
	}
	html, err := PageFor(post)
	if err != nil {
		return "", store.Post{}, err
	}
	return html, post, nil
}

// PageFor renders post content in the blog style and wraps it in the page
// template.
func PageFor(post store.Post) (string, error) {
	d, _ := render.Decode(post.Content)
	body := render.Sanitize(render.Document(d, render.Options{Variant: render.VariantBlog}))
	html, err := RenderPageHTML(TemplateData{
		Title:       post.Title,
		Summary:     post.Summary,
		ContentHTML: template.HTML(body),
		TOC:         render.Headings(d),
		UpdatedAt:   post.UpdatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return html, nil
}

// Export generates the post in the requested format.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	html, post, err := s.Page(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	j := job{HTML: html, Title: post.Title, Paper: req.Paper}

	switch req.Format {
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(post.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return s.pdf(ctx, j)
	case FormatDOCX:
		return s.docx(ctx, j)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
}
