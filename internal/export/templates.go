package export

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"folio/api/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var postTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/post.html")
	if err != nil {
		postTemplate = template.Must(template.New("post").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	postTemplate = template.Must(template.New("post").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for the standalone post page.
type TemplateData struct {
	Title   string
	Summary string
	// ContentHTML must already be sanitized.
	ContentHTML template.HTML
	TOC         []render.Heading
	UpdatedAt   time.Time
}

// RenderPageHTML renders a complete HTML page for a post.
func RenderPageHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := postTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 760px; margin: 2rem auto; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{if .Summary}}<p>{{.Summary}}</p>{{end}}
  <article>{{.ContentHTML}}</article>
</body>
</html>`
