// Package web renders the server-side HTML pages. Templates are embedded in
// the binary; every page is parsed together with layout.html.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/models"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFiles embed.FS

const layoutFile = "layout.html"

// Page is the data passed to every template
type Page struct {
	Title string
	User  *models.User
	Data  any
}

// Renderer executes parsed page templates
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 02, 2006") },
	"datetime": func(t time.Time) string {
		return t.Format("January 02, 2006 03:04 PM")
	},
	"crores": func(v float64) string { return fmt.Sprintf("₹%.2f Cr", v) },
	"paragraphs": func(s string) []string {
		var out []string
		for _, p := range strings.Split(s, "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
}

// New parses every embedded page
func New() (*Renderer, error) {
	names, err := fs.Glob(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := path.Base(name)
		if base == layoutFile {
			continue
		}
		tmpl, err := template.New(base).Funcs(funcs).ParseFS(templateFiles, "templates/"+layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", base, err)
		}
		r.pages[strings.TrimSuffix(base, ".html")] = tmpl
	}
	return r, nil
}

// Render writes the named page. Rendering happens into a buffer so a
// template error never leaves a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		logrus.Errorf("Unknown page template %q", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		logrus.Errorf("Failed to render %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Has reports whether a page template exists
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}
