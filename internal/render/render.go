// Package render converts generated markdown documents into standalone
// HTML pages for delivery.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/finscribe/finscribe/internal/conversation"
)

// Renderer renders document versions to HTML. Safe for concurrent use.
type Renderer struct {
	md   goldmark.Markdown
	page *template.Template
}

// New creates a renderer with GFM tables and syntax highlighting
// enabled.
func New() (*Renderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{md: md, page: page}, nil
}

// Render converts one document version into a full HTML page.
func (r *Renderer) Render(doc conversation.DocumentVersion) ([]byte, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(doc.Content), &body); err != nil {
		return nil, fmt.Errorf("converting markdown for %s v%d: %w", doc.CapabilityID, doc.Version, err)
	}

	var out bytes.Buffer
	err := r.page.Execute(&out, pageData{
		Title:   doc.Title,
		Version: doc.Version,
		Body:    template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("executing page template: %w", err)
	}
	return out.Bytes(), nil
}

type pageData struct {
	Title   string
	Version int
	Body    template.HTML
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
h1, h2 { border-bottom: 1px solid #eee; padding-bottom: 0.2rem; }
.version { color: #888; font-size: 0.85rem; }
</style>
</head>
<body>
<p class="version">Version {{.Version}}</p>
{{.Body}}
</body>
</html>
`
