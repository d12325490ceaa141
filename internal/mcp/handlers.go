package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codegram/codegram/internal/feed"
	"github.com/codegram/codegram/internal/preview"
	"github.com/codegram/codegram/internal/search"
)

// handleRenderPreview runs the template generator on the given code.
func (s *Server) handleRenderPreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: code"), nil
	}
	language := request.GetString("language", "html")

	src := preview.NewSource(code, language)
	s.metrics.RecordDocument(string(src.Tag))
	return mcp.NewToolResultText(preview.Generate(src)), nil
}

// handleListViewports describes the viewport presets.
func (s *Server) handleListViewports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	for _, d := range preview.Viewports() {
		fmt.Fprintf(&sb, "%s (%s): %s x %s\n", d.Mode, d.Label, d.Width, d.Height)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearchPosts performs semantic search over the post index.
func (s *Server) handleSearchPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}
	typeFilter := request.GetString("type_filter", "")

	hits, err := s.index.Search(ctx, query, limit, typeFilter)
	if errors.Is(err, search.ErrNothingToEmbed) {
		return mcp.NewToolResultError("query has no searchable words"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(hits) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}

	return mcp.NewToolResultText(formatHits(hits)), nil
}

// handleGetPost returns a post formatted for agent consumption.
func (s *Server) handleGetPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("post_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: post_id"), nil
	}

	d, err := s.posts.Detail(ctx, id)
	if errors.Is(err, feed.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("No post found with id %q.", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load post: %v", err)), nil
	}

	return mcp.NewToolResultText(formatPost(d)), nil
}

// formatHits converts search hits into a compact text list.
func formatHits(hits []search.Hit) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(hits)))
	for i, h := range hits {
		sb.WriteString(fmt.Sprintf("\n%d. %s [%s]\n", i+1, h.Title, h.Type))
		sb.WriteString(fmt.Sprintf("   ID: %s\n", h.PostID))
		sb.WriteString(fmt.Sprintf("   Similarity: %.1f%%\n", h.Similarity*100))
	}
	return sb.String()
}

func formatPost(d *feed.Detail) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", d.Title))
	sb.WriteString(fmt.Sprintf("Type: %s\n", d.Type))
	sb.WriteString(fmt.Sprintf("Author: @%s\n", d.Author.Username))
	if d.Language != "" {
		sb.WriteString(fmt.Sprintf("Language: %s\n", d.Language))
	}
	if d.Category != "" {
		sb.WriteString(fmt.Sprintf("Category: %s\n", d.Category))
	}
	if len(d.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(d.Tags, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Likes: %d\n", d.Likes))
	if d.Caption != "" {
		sb.WriteString("\n" + d.Caption + "\n")
	}

	sb.WriteString("\n")
	if d.Type == feed.TypeSnippet {
		sb.WriteString("```" + d.Language + "\n" + d.Content + "\n```\n")
	} else {
		sb.WriteString(d.Content + "\n")
	}

	if len(d.Related) > 0 {
		sb.WriteString("\nRelated:\n")
		for _, r := range d.Related {
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", r.Title, r.ID))
		}
	}
	return sb.String()
}
