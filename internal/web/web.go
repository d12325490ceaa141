// Package web serves the playground page that hosts the preview iframe.
package web

import (
	_ "embed"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

//go:embed static/index.html
var indexHTML string

// Page is the minified playground shell.
type Page struct {
	body []byte
}

// New minifies the embedded page once.
func New() (*Page, error) {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)

	out, err := m.String("text/html", indexHTML)
	if err != nil {
		return nil, fmt.Errorf("minifying index.html: %w", err)
	}
	return &Page{body: []byte(out)}, nil
}

// Size returns the minified page size in bytes.
func (p *Page) Size() int { return len(p.body) }

// RegisterRoutes mounts the page at / and /playground.
func (p *Page) RegisterRoutes(r chi.Router) {
	r.Get("/", p.serve)
	r.Get("/playground", p.serve)
}

func (p *Page) serve(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Frame-Options", "DENY")
	w.WriteHeader(http.StatusOK)
	w.Write(p.body)
}
