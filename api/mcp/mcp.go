// Package mcp exposes the toolbox tools over the Model Context Protocol.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/toolbox/pkg/toolkit"
	"github.com/papercomputeco/toolbox/pkg/utils"
)

type Config struct {
	// Toolkit runs the tools and records each call.
	Toolkit *toolkit.Toolkit

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the toolbox tools registered.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "toolbox",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Toolkit == nil {
			return nil, errors.New("toolkit is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        generateToolName,
			Description: generateDescription,
		}, s.handleGenerate)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        analyzeToolName,
			Description: analyzeDescription,
		}, s.handleAnalyze)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        documentToolName,
			Description: documentDescription,
		}, s.handleDocument)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        improveToolName,
			Description: improveDescription,
		}, s.handleImprove)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        requestToolName,
			Description: requestDescription,
		}, s.handleRequest)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        scrapeToolName,
			Description: scrapeDescription,
		}, s.handleScrape)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
