package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// view names, one template file each
const (
	viewAnalysis = "analysis.html"
	viewAdmin    = "admin.html"
	viewError    = "error.html"
)

// ViewData is what every page template receives.
type ViewData struct {
	Title  string
	Active string
	Data   any
}

// Views holds the layout cloned once per page, parsed at startup.
type Views struct {
	pages map[string]*template.Template
}

func NewViews() (*Views, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{viewAnalysis, viewAdmin, viewError} {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Views{pages: pages}, nil
}

// Render writes the page with the given status code.
func (v *Views) Render(w http.ResponseWriter, status int, page string, data ViewData) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("template not found: %s", page)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return t.ExecuteTemplate(w, "layout", data)
}
