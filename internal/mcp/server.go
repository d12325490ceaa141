package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/codegram/codegram/internal/feed"
	"github.com/codegram/codegram/internal/metrics"
	"github.com/codegram/codegram/internal/search"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the preview generator and the
// post catalogue to agents.
type Server struct {
	posts   *feed.Store
	index   *search.Index
	metrics *metrics.Metrics
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server. posts and index may be nil, in which
// case only render_preview and list_viewports are offered.
func NewServer(posts *feed.Store, index *search.Index, m *metrics.Metrics) *Server {
	s := &Server{
		posts:   posts,
		index:   index,
		metrics: m,
	}

	s.mcp = server.NewMCPServer(
		"codegram",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(renderPreviewTool, s.handleRenderPreview)
	s.mcp.AddTool(listViewportsTool, s.handleListViewports)
	if s.posts != nil {
		s.mcp.AddTool(getPostTool, s.handleGetPost)
		if s.index != nil {
			s.mcp.AddTool(searchPostsTool, s.handleSearchPosts)
		}
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
