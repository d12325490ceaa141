// Package export writes the preview document of every post to a directory,
// along with an index page that embeds them in sandboxed iframes.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codegram/codegram/internal/feed"
	"github.com/codegram/codegram/internal/metrics"
	"github.com/codegram/codegram/internal/preview"
	"github.com/codegram/codegram/internal/progress"
	"github.com/codegram/codegram/internal/sandbox"
)

const pageSize = 100

// Lister pages through posts.
type Lister interface {
	List(ctx context.Context, filter feed.ListFilter) ([]feed.Post, error)
}

// Options configures an export.
type Options struct {
	Dir         string
	Concurrency int
	Minify      bool
	Filter      feed.ListFilter
	Reporter    progress.Reporter
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Entry is one written post.
type Entry struct {
	ID    string
	Title string
	Type  feed.PostType
	File  string
}

// Result lists what an export wrote.
type Result struct {
	Entries []Entry
	Index   string
}

// Run writes <id>.html for every post matching opts.Filter and an
// index.html linking them. Limit and Offset in the filter are ignored.
func Run(ctx context.Context, posts Lister, opts Options) (*Result, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", opts.Dir, err)
	}

	all, err := collect(ctx, posts, opts.Filter)
	if err != nil {
		return nil, err
	}

	var m *minify.M
	if opts.Minify {
		m = newMinifier()
	}
	if opts.Reporter != nil {
		opts.Reporter.Start(len(all), "Rendering previews")
		defer opts.Reporter.Finish()
	}

	names := fileNames(all)
	entries := make([]Entry, len(all))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, p := range all {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, tag, err := render(p)
			if err != nil {
				return err
			}
			if m != nil {
				small, err := m.String("text/html", doc)
				if err != nil {
					opts.Logger.Warn("minifying preview", zap.String("post_id", p.ID), zap.Error(err))
				} else {
					doc = small
				}
			}

			name := names[i]
			if err := os.WriteFile(filepath.Join(opts.Dir, name), []byte(doc), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			opts.Metrics.RecordDocument(tag)

			entries[i] = Entry{ID: p.ID, Title: p.Title, Type: p.Type, File: name}
			if opts.Reporter != nil {
				opts.Reporter.Step(p.Title)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := filepath.Join(opts.Dir, "index.html")
	if err := writeIndex(index, entries); err != nil {
		return nil, err
	}
	opts.Logger.Info("export complete", zap.Int("posts", len(entries)), zap.String("dir", opts.Dir))
	return &Result{Entries: entries, Index: index}, nil
}

func collect(ctx context.Context, posts Lister, filter feed.ListFilter) ([]feed.Post, error) {
	filter.Limit = pageSize
	filter.Offset = 0
	var all []feed.Post
	for {
		page, err := posts.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("listing posts: %w", err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		filter.Offset += pageSize
	}
}

// render returns the document for p and the label it is counted under.
// Documentation posts are shown as their rendered markdown.
func render(p feed.Post) (doc, tag string, err error) {
	if p.Type == feed.TypeDocumentation {
		var buf bytes.Buffer
		err := docTemplate.Execute(&buf, struct {
			Title string
			Body  template.HTML
		}{p.Title, template.HTML(p.HTML)})
		if err != nil {
			return "", "", fmt.Errorf("rendering %s: %w", p.ID, err)
		}
		return buf.String(), "documentation", nil
	}
	src := preview.NewSource(p.Content, p.PreviewLanguage())
	return preview.Generate(src), string(src.Tag), nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeName(id string) string {
	name := unsafeChars.ReplaceAllString(id, "_")
	if name == "" || name == "." || name == ".." {
		name = "post"
	}
	return name
}

// fileNames assigns every post a distinct file name. Ids that sanitise to
// the same name, ignoring case, get a numeric suffix in list order; the
// index page's name is reserved.
func fileNames(posts []feed.Post) []string {
	used := map[string]bool{"index": true}
	names := make([]string, len(posts))
	for i, p := range posts {
		base := safeName(p.ID)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[strings.ToLower(name)] = true
		names[i] = name + ".html"
	}
	return names
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	return m
}

func writeIndex(path string, entries []Entry) error {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, struct {
		Entries []Entry
		Sandbox string
	}{entries, sandbox.Attribute})
	if err != nil {
		return fmt.Errorf("rendering index: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}
