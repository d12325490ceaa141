// Package playground connects browser preview panels to the preview
// pipeline. Each websocket connection is one preview session: its iframe is
// the sandbox surface, driven by a refresh controller of its own.
package playground

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/clock"
	"github.com/codegram/codegram/internal/metrics"
	"github.com/codegram/codegram/internal/preview"
	"github.com/codegram/codegram/internal/sandbox"
)

// Posts resolves a post id to the code and editor language it previews.
// ok is false when no such post exists.
type Posts interface {
	PreviewSource(ctx context.Context, id string) (code, language string, ok bool, err error)
}

// Options configures a Playground.
type Options struct {
	Debounce        time.Duration
	Settle          time.Duration
	DefaultViewport preview.ViewportMode
	Clock           clock.Clock
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
	Posts           Posts
}

// Playground owns the document store shared by all sessions and tracks the
// open sessions.
type Playground struct {
	docs    *sandbox.Store
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[*Session]struct{}
	current  *editorSource
}

type editorSource struct {
	code     string
	language string
}

// New creates a Playground publishing documents in docs.
func New(docs *sandbox.Store, opts Options) *Playground {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultViewport == "" {
		opts.DefaultViewport = preview.ViewportDesktop
	}
	return &Playground{
		docs:     docs,
		opts:     opts,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		sessions: make(map[*Session]struct{}),
	}
}

// RegisterRoutes mounts the preview websocket and the preview API.
func (p *Playground) RegisterRoutes(r chi.Router) {
	r.Get("/ws/preview", p.handleWebSocket)
	r.Post("/api/preview/render", p.handleRender)
	r.Get("/api/viewports", handleViewports)
	r.Get("/api/posts/{id}/preview", p.handlePostPreview)
}

// Broadcast replaces the editor source of every open session and of
// sessions opened later.
func (p *Playground) Broadcast(code, language string) {
	p.mu.Lock()
	p.current = &editorSource{code: code, language: language}
	sessions := make([]*Session, 0, len(p.sessions))
	for s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.mu.Unlock()

	for _, s := range sessions {
		s.setSource(code, language)
	}
}

// Sessions returns the number of open sessions.
func (p *Playground) Sessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

func (p *Playground) register(s *Session) *editorSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[s] = struct{}{}
	p.metrics.SessionOpened()
	return p.current
}

func (p *Playground) unregister(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[s]; ok {
		delete(p.sessions, s)
		p.metrics.SessionClosed()
	}
}
