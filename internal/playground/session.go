package playground

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/preview"
	"github.com/codegram/codegram/internal/refresh"
	"github.com/codegram/codegram/internal/sandbox"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is the incoming websocket message format.
type clientMessage struct {
	Type     string `json:"type"` // "edit", "refresh", "viewport" or "load_post"
	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`
	Mode     string `json:"mode,omitempty"`
	PostID   string `json:"post_id,omitempty"`
}

type navigateMessage struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type stateMessage struct {
	Type       string `json:"type"`
	Refreshing bool   `json:"refreshing"`
	Seq        uint64 `json:"seq"`
}

type viewportMessage struct {
	Type   string `json:"type"`
	Mode   string `json:"mode"`
	Width  string `json:"width"`
	Height string `json:"height"`
	Fill   bool   `json:"fill"`
}

type sourceMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Session is one mounted preview panel. The connection's iframe is the
// surface of the session's host; nothing else navigates it.
type Session struct {
	conn       *websocket.Conn
	writeMu    sync.Mutex
	host       *sandbox.Host
	controller *refresh.Controller
	logger     *zap.Logger

	mu       sync.Mutex
	viewport preview.ViewportMode
}

func (p *Playground) newSession(conn *websocket.Conn) *Session {
	s := &Session{
		conn:     conn,
		logger:   p.logger.With(zap.String("remote", conn.RemoteAddr().String())),
		viewport: p.opts.DefaultViewport,
	}
	s.host = sandbox.NewHost(s, p.docs, sandbox.Options{
		Settle:  p.opts.Settle,
		Clock:   p.opts.Clock,
		Logger:  s.logger,
		Metrics: p.metrics,
	})
	s.controller = refresh.New(s.host, refresh.Options{
		Debounce: p.opts.Debounce,
		Clock:    p.opts.Clock,
		Logger:   s.logger,
		Metrics:  p.metrics,
	})
	s.controller.Observe(func(st refresh.State) {
		s.send(stateMessage{Type: "state", Refreshing: st.Refreshing, Seq: st.Seq})
	})
	return s
}

// Navigate points the session's iframe at url.
func (s *Session) Navigate(url string) error {
	return s.write(navigateMessage{Type: "navigate", URL: url})
}

// Close stops the session's controller and releases its live document.
func (s *Session) Close() {
	s.controller.Close()
	s.host.Close()
}

// State returns the session's refresh state.
func (s *Session) State() refresh.State {
	return s.controller.State()
}

// Viewport returns the session's viewport mode.
func (s *Session) Viewport() preview.ViewportMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

func (s *Session) setSource(code, language string) {
	s.send(sourceMessage{Type: "source", Code: code, Language: language})
	s.controller.Update(preview.NewSource(code, language))
}

func (s *Session) setViewport(mode preview.ViewportMode) {
	s.mu.Lock()
	s.viewport = mode
	s.mu.Unlock()

	d := preview.SizeFor(mode)
	s.send(viewportMessage{
		Type:   "viewport",
		Mode:   string(d.Mode),
		Width:  d.Width,
		Height: d.Height,
		Fill:   d.Fill,
	})
}

func (s *Session) write(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *Session) send(v any) {
	if err := s.write(v); err != nil {
		s.logger.Debug("playground: websocket write", zap.Error(err))
	}
}

func (s *Session) sendError(message string) {
	s.send(errorMessage{Type: "error", Content: message})
}

func (p *Playground) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.Warn("playground: websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	s := p.newSession(conn)
	current := p.register(s)
	defer func() {
		s.Close()
		p.unregister(s)
		s.logger.Debug("playground: session closed")
	}()
	s.logger.Debug("playground: session opened")

	s.setViewport(s.Viewport())
	if current != nil {
		s.setSource(current.code, current.language)
	}

	// A session outlives the router's request timeout.
	ctx := context.WithoutCancel(r.Context())

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("playground: websocket read", zap.Error(err))
			}
			return
		}

		var req clientMessage
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError("invalid message format")
			continue
		}
		p.dispatch(ctx, s, req)
	}
}

func (p *Playground) dispatch(ctx context.Context, s *Session, req clientMessage) {
	switch req.Type {
	case "edit":
		s.controller.Update(preview.NewSource(req.Code, req.Language))
	case "refresh":
		s.controller.Refresh()
	case "viewport":
		mode, err := preview.ParseViewport(req.Mode)
		if err != nil {
			s.sendError(err.Error())
			return
		}
		s.setViewport(mode)
	case "load_post":
		p.loadPost(ctx, s, req.PostID)
	default:
		s.sendError("unknown message type: " + req.Type)
	}
}

func (p *Playground) loadPost(ctx context.Context, s *Session, id string) {
	if p.opts.Posts == nil {
		s.sendError("posts are not available")
		return
	}
	if id == "" {
		s.sendError("post_id is required")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	code, language, ok, err := p.opts.Posts.PreviewSource(ctx, id)
	if err != nil {
		s.logger.Warn("playground: loading post", zap.String("post_id", id), zap.Error(err))
		s.sendError("failed to load post")
		return
	}
	if !ok {
		s.sendError("post not found")
		return
	}
	s.setSource(code, language)
}
