// Package markdown renders documentation posts to sanitized HTML.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to HTML and strips anything unsafe.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// Heading is a section heading found in rendered HTML.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

var languageClass = regexp.MustCompile(`^(language-[\w-]+|chroma)$`)

// New creates a Renderer with GitHub flavoured markdown and syntax
// highlighting.
func New() *Renderer {
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

	// Raw HTML is let through by goldmark and cleaned up here.
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(languageClass).OnElements("code", "pre")
	p.AllowStyles("color", "background-color", "font-weight", "font-style", "text-decoration").OnElements("span", "pre")

	return &Renderer{md: md, sanitizer: p}
}

// Render converts src to sanitized HTML.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return r.sanitizer.Sanitize(buf.String()), nil
}

// Excerpt returns up to n runes of the prose in rendered HTML, cut at a
// word boundary. Code blocks are skipped.
func Excerpt(rendered string, n int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return ""
	}
	doc.Find("pre").Remove()
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, br").AfterHtml(" ")
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:n])
	if runes[n] != ' ' {
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}

// Headings lists the h1-h3 headings of rendered HTML in document order.
func Headings(rendered string) []Heading {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return nil
	}
	var out []Heading
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		out = append(out, Heading{
			Level: int(goquery.NodeName(s)[1] - '0'),
			ID:    id,
			Text:  strings.TrimSpace(s.Text()),
		})
	})
	return out
}
