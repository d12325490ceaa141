package mcp

import "github.com/mark3labs/mcp-go/mcp"

// renderPreviewTool defines the render_preview MCP tool.
var renderPreviewTool = mcp.NewTool("render_preview",
	mcp.WithDescription("Render editor code into the self-contained HTML document the live preview iframe loads."),
	mcp.WithString("code",
		mcp.Required(),
		mcp.Description("Source code from the editor"),
	),
	mcp.WithString("language",
		mcp.Description("Editor language, e.g. html, css, javascript, jsx or typescript (default html)"),
	),
)

// listViewportsTool defines the list_viewports MCP tool.
var listViewportsTool = mcp.NewTool("list_viewports",
	mcp.WithDescription("List the preview viewport presets and their sizes."),
)

// searchPostsTool defines the search_posts MCP tool.
var searchPostsTool = mcp.NewTool("search_posts",
	mcp.WithDescription("Search snippets and documentation posts by meaning. Returns post ids, titles and similarity."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("type_filter",
		mcp.Description("Restrict results to one post type"),
		mcp.Enum("snippet", "documentation"),
	),
)

// getPostTool defines the get_post MCP tool.
var getPostTool = mcp.NewTool("get_post",
	mcp.WithDescription("Get a post with its code or documentation body, tags and related posts."),
	mcp.WithString("post_id",
		mcp.Required(),
		mcp.Description("Post id as returned by search_posts"),
	),
)
