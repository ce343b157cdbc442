// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes site building and the page index via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/noteservice"
	"github.com/starford/vaultsite/internal/wikilink"
)

const (
	syntaxURI          = "vaultsite://wikilink-syntax"
	defaultSearchLimit = 20
)

// Server wraps the MCP server with the site tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"vaultsite",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("build_site",
		mcp.WithDescription("Rebuild the static site from the vault and refresh the search index. "+
			"Returns the build id and counts."),
	), s.buildSite)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles, bodies and tags of the last build."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List built pages, optionally only those carrying a tag."),
		mcp.WithString("tag", mcp.Description("Optional tag filter")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with the number of notes declaring it."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Return one note's metadata, Markdown body and backlinks."),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Page path (folder/note.html) or vault path (folder/note.md)")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("rewrite_wikilinks",
		mcp.WithDescription("Convert [[wikilinks]] and ![[embeds]] in text to HTML exactly as the site build does. "+
			"See the "+syntaxURI+" resource for the rules."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown text containing wikilinks")),
	), s.rewriteWikilinks)

	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Wikilink Syntax",
			mcp.WithResourceDescription("How notes, frontmatter and wikilinks are turned into pages."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) buildSite(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.svc.Rebuild(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build failed: %v", err)), nil
	}
	return jsonResult(sum)
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", defaultSearchLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := req.GetString("tag", "")
	items, _, err := s.svc.ListNotes(ctx, tag, 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.Path + "\t" + it.Title
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.Tags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags)
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

type rewriteResult struct {
	HTML   string   `json:"html"`
	Links  []string `json:"links"`
	Embeds []string `json:"embeds"`
}

func (s *Server) rewriteWikilinks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := rewriteResult{
		HTML:   wikilink.Rewrite(text),
		Links:  wikilink.Links(text),
		Embeds: wikilink.Embeds(text),
	}
	if res.Links == nil {
		res.Links = []string{}
	}
	if res.Embeds == nil {
		res.Embeds = []string{}
	}
	return jsonResult(res)
}

func (s *Server) readSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     WikilinkSyntax,
		},
	}, nil
}
