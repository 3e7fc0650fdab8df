// Package mcp exposes the index over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/senselabs/sense/internal/index"
	"github.com/senselabs/sense/internal/search"
	"github.com/senselabs/sense/internal/store"
)

// Server implements the MCP server.
type Server struct {
	mcpServer *server.MCPServer
	root      string
	store     *store.Store
	searcher  *search.Searcher
	indexer   *index.Indexer
}

// Config contains server configuration.
type Config struct {
	Root     string
	Store    *store.Store
	Searcher *search.Searcher
	Indexer  *index.Indexer
}

// New creates a new MCP server.
func New(cfg Config) *Server {
	s := &Server{
		root:     cfg.Root,
		store:    cfg.Store,
		searcher: cfg.Searcher,
		indexer:  cfg.Indexer,
	}

	mcpServer := server.NewMCPServer(
		"sense",
		"0.1.0",
		server.WithLogging(),
	)
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Search indexed files by label similarity"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
	), s.handleSearchFiles)

	mcpServer.AddTool(mcp.NewTool("index_files",
		mcp.WithDescription("Reconcile the index with the file tree"),
	), s.handleIndexFiles)

	mcpServer.AddTool(mcp.NewTool("index_status",
		mcp.WithDescription("Get index statistics"),
	), s.handleIndexStatus)
}

type searchResult struct {
	Path       string  `json:"path"`
	Similarity float32 `json:"similarity"`
	FileID     string  `json:"file_id,omitempty"`
}

func (s *Server) handleSearchFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := req.GetInt("limit", 10)

	matches, err := s.searcher.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]searchResult, len(matches))
	for i, m := range matches {
		results[i] = searchResult{Path: m.Key, Similarity: m.Score, FileID: m.FileID}
	}

	jsonResult, err := json.MarshalIndent(map[string]any{
		"query":   query,
		"results": results,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleIndexFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.indexer.Index(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	jsonResult, err := json.MarshalIndent(map[string]int{
		"new":       summary.New,
		"changed":   summary.Changed,
		"deleted":   summary.Deleted,
		"unlabeled": summary.Unlabeled,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode summary: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleIndexStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	total, unlabeled, err := s.store.Count()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	unregistered, err := s.store.PathsWithoutFileID()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	jsonResult, err := json.MarshalIndent(map[string]any{
		"root":         s.root,
		"total":        total,
		"unlabeled":    unlabeled,
		"unregistered": len(unregistered),
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode stats: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonResult)), nil
}

// ServeStdio serves MCP over stdin/stdout, blocking until the client
// disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
