package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/feed"
	"github.com/codegram/codegram/internal/messages"
	"github.com/codegram/codegram/internal/metrics"
	"github.com/codegram/codegram/internal/playground"
	"github.com/codegram/codegram/internal/profile"
	"github.com/codegram/codegram/internal/sandbox"
	"github.com/codegram/codegram/internal/search"
	"github.com/codegram/codegram/internal/stories"
	"github.com/codegram/codegram/internal/web"
)

// Config holds server configuration.
type Config struct {
	Host     string
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Deps are the feature stores and handlers the server mounts. Nil entries
// are skipped.
type Deps struct {
	Users      *profile.Store
	Posts      *feed.Store
	Stories    *stories.Store
	Messages   *messages.Store
	Search     *search.Index
	Docs       *sandbox.Store
	Playground *playground.Playground
	Page       *web.Page
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// Server is the CodeGram HTTP server.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
	listener   net.Listener
}

// New creates a server with every route registered.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.deps.Metrics.Middleware)
	r.Use(timeoutUnlessUpgrade(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}

	d := s.deps
	if d.Users != nil {
		profile.RegisterRoutes(r, d.Users)
	}
	if d.Posts != nil {
		var idx feed.Indexer
		if d.Search != nil {
			idx = d.Search
		}
		feed.RegisterRoutes(r, d.Posts, idx, s.logger)
		if d.Search != nil {
			search.RegisterRoutes(r, d.Search, d.Posts)
		}
	}
	if d.Stories != nil {
		stories.RegisterRoutes(r, d.Stories)
	}
	if d.Messages != nil {
		messages.RegisterRoutes(r, d.Messages)
	}
	if d.Docs != nil {
		sandbox.RegisterRoutes(r, d.Docs)
	}
	if d.Playground != nil {
		d.Playground.RegisterRoutes(r)
	}
	if d.Page != nil {
		d.Page.RegisterRoutes(r)
	}

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Listen binds the configured address. Port 0 picks a free port.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Serve serves on the listener bound by Listen, binding one first if
// needed. It returns nil after Shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("codegram server listening", zap.String("addr", s.listener.Addr().String()))
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// timeoutUnlessUpgrade bounds ordinary requests. Websocket upgrades stay
// open for the life of the preview session.
func timeoutUnlessUpgrade(d time.Duration) func(http.Handler) http.Handler {
	timeout := middleware.Timeout(d)
	return func(next http.Handler) http.Handler {
		bounded := timeout(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			bounded.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
