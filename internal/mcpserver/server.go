// Package mcpserver provides an MCP (Model Context Protocol) server
// that lets an LLM drive the viewer over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mdview/internal/navigation"
	"github.com/starford/mdview/internal/viewer"
)

// PageURI is the resource holding the rendered current document.
const PageURI = "mdview://page"

// Server wraps the MCP server with viewer tools.
type Server struct {
	mcp *server.MCPServer
	v   *viewer.Viewer
}

// New creates a new MCP server with all viewer tools registered.
func New(v *viewer.Viewer, version string) *Server {
	s := &Server{v: v}

	s.mcp = server.NewMCPServer(
		"mdview",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("open_document",
		mcp.WithDescription("Open a Markdown or text file in the viewer. The previous document is pushed onto the back history."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path, or a path relative to the current document")),
		mcp.WithString("target", mcp.Description("Optional heading id to scroll to")),
	), s.openDocument)

	s.mcp.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Navigate to the previous document in history."),
	), s.goBack)

	s.mcp.AddTool(mcp.NewTool("go_forward",
		mcp.WithDescription("Navigate to the next document in history."),
	), s.goForward)

	s.mcp.AddTool(mcp.NewTool("current_location",
		mcp.WithDescription("Return the current document, scroll position and history stacks as JSON."),
	), s.currentLocation)

	s.mcp.AddTool(mcp.NewTool("file_history",
		mcp.WithDescription("List recently opened files, most recent first."),
	), s.fileHistory)

	s.mcp.AddTool(mcp.NewTool("set_theme",
		mcp.WithDescription("Change the viewer theme."),
		mcp.WithString("theme", mcp.Required(), mcp.Description("One of system, light, dark"), mcp.Enum("system", "light", "dark")),
	), s.setTheme)

	s.mcp.AddResource(
		mcp.NewResource(PageURI, "Current Document",
			mcp.WithResourceDescription("Rendered HTML of the document currently on screen."),
			mcp.WithMIMEType("text/html"),
		),
		s.readPageResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) openDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target := strings.TrimPrefix(req.GetString("target", ""), "#")

	// Relative paths resolve against the current document. They are file
	// names, not hrefs, so "#" and "%" are taken literally.
	if !filepath.IsAbs(path) {
		current := s.v.CurrentFile()
		if current == "" {
			return mcp.NewToolResultError(fmt.Sprintf("no document open to resolve %q against", path)), nil
		}
		path = filepath.Join(filepath.Dir(current), filepath.FromSlash(path))
	}
	var opts []navigation.GoOption
	if target != "" {
		opts = append(opts, navigation.WithTarget(target))
	}
	if err := s.v.Open(path, opts...); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("opened: %s", s.v.Location().FilePath)), nil
}

func (s *Server) goBack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.v.Back() {
		return mcp.NewToolResultError("no previous document"), nil
	}
	return mcp.NewToolResultText(s.v.Location().FilePath), nil
}

func (s *Server) goForward(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.v.Forward() {
		return mcp.NewToolResultError("no next document"), nil
	}
	return mcp.NewToolResultText(s.v.Location().FilePath), nil
}

func (s *Server) currentLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.v.Location(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) fileHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files := s.v.History()
	if len(files) == 0 {
		return mcp.NewToolResultText("no recent files"), nil
	}
	return mcp.NewToolResultText(strings.Join(files, "\n")), nil
}

func (s *Server) setTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	theme, err := req.RequireString("theme")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.v.SetTheme(theme); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("theme: " + theme), nil
}

func (s *Server) readPageResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	page, err := s.v.Page()
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PageURI,
			MIMEType: "text/html",
			Text:     page.HTML,
		},
	}, nil
}
