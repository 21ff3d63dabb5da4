// Package web holds the page, its static assets and the HTML fragments the
// API returns for the tables panel and the hint box.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"sqlplayground/internal/hints"
	"sqlplayground/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	IndexTemplate  = "index.tmpl"
	tablesTemplate = "tables.tmpl"
	hintTemplate   = "hint.tmpl"
)

type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		// Hint bodies are static strings compiled into the binary.
		"trusted": func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Templates returns the parsed set, for gin's HTML renderer.
func (r *Renderer) Templates() *template.Template {
	return r.templates
}

// Tables renders the tables panel. No tables gives an empty string.
func (r *Renderer) Tables(tables []models.Table) (string, error) {
	if len(tables) == 0 {
		return "", nil
	}
	return r.execute(tablesTemplate, tables)
}

// Hint renders the hint box. A nil rule gives an empty string.
func (r *Renderer) Hint(rule *hints.Rule) (string, error) {
	if rule == nil {
		return "", nil
	}
	return r.execute(hintTemplate, rule)
}

func (r *Renderer) execute(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Static serves the embedded script and stylesheet.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
