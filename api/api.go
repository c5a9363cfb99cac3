package api

import (
	"errors"
	"log/slog"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"

	"github.com/papercomputeco/toolbox/api/mcp"
	"github.com/papercomputeco/toolbox/pkg/storage"
	"github.com/papercomputeco/toolbox/pkg/toolkit"
)

// Server is the API server for running tools and reading the call ledger.
type Server struct {
	config Config
	kit    *toolkit.Toolkit
	ledger storage.Driver
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The ledger is injected so the worker pool writing it and the server
// reading it share one backend.
func NewServer(config Config, kit *toolkit.Toolkit, ledger storage.Driver, logger *slog.Logger) (*Server, error) {
	if kit == nil {
		return nil, errors.New("toolkit is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger storage driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(compress.New())

	s := &Server{
		config: config,
		kit:    kit,
		ledger: ledger,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/tools", s.handleListTools)
	app.Post("/v1/tools/:tool", s.handleInvokeTool)
	app.Get("/v1/calls", s.handleListCalls)
	app.Get("/v1/calls/:id", s.handleGetCall)

	if config.MCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Toolkit: kit,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.MCP,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the API server on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting API server",
		"listen", ln.Addr().String(),
		"mcp", s.config.MCP,
	)
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
