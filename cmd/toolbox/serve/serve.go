// Package servecmder provides the serve command that runs the toolbox API
// server with its MCP endpoint.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/toolbox/api"
	"github.com/papercomputeco/toolbox/cmd/toolbox/wiring"
	"github.com/papercomputeco/toolbox/pkg/config"
	"github.com/papercomputeco/toolbox/pkg/credentials"
	"github.com/papercomputeco/toolbox/pkg/logger"
	"github.com/papercomputeco/toolbox/pkg/utils"
)

// ServeCommander holds the flag values for the serve command.
type ServeCommander struct {
	configDir string
	debug     bool
	logFormat string
	logFile   string

	listen         string
	mcp            bool
	sqlitePath     string
	postgresDSN    string
	eventsProvider string
	kafkaBrokers   string
	kafkaTopic     string
	provider       string
	openAIBaseURL  string
	anthropicURL   string
	userAgent      string

	logger *slog.Logger
}

// serveFlags are the registry flags bound into the viper precedence chain.
var serveFlags = []string{
	config.FlagListen,
	config.FlagMCP,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEventsProvider,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagProvider,
	config.FlagOpenAIBaseURL,
	config.FlagAnthropicURL,
	config.FlagUserAgent,
}

const serveLongDesc string = `Run the toolbox API server.

The server exposes every tool over HTTP and, unless disabled, over MCP:
  POST /v1/tools/<tool>   Invoke a tool
  GET  /v1/tools          List tools and configured providers
  GET  /v1/calls          List recorded tool calls
  ALL  /mcp               Streamable HTTP MCP endpoint

Flags override TOOLBOX_ environment variables, which override config.toml.

Provider API keys are read from OPENAI_API_KEY and ANTHROPIC_API_KEY.`

const serveShortDesc string = "Run the toolbox API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := wiring.LoadConfig(cmd, cmder.configDir, serveFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return cmder.run(cmd.Context(), cfg)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddBoolFlag(cmd, config.Flags, config.FlagMCP, &cmder.mcp)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagOpenAIBaseURL, &cmder.openAIBaseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagAnthropicURL, &cmder.anthropicURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagUserAgent, &cmder.userAgent)

	cmd.Flags().StringVar(&cmder.logFormat, "log-format", string(logger.FormatPretty), "Console log format: pretty, json, or text")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context, cfg *config.Config) error {
	closeLog, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	if ctx == nil {
		ctx = context.Background()
	}

	creds, err := credentials.NewStore(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	stack, err := wiring.Open(ctx, cfg, creds, c.logger)
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: cfg.Server.Listen,
		MCP:        cfg.Server.MCP,
	}, stack.Toolkit, stack.Ledger, c.logger)
	if err != nil {
		stack.Close()
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("toolbox ready",
		"providers", stack.Toolkit.Providers(),
		"default_provider", cfg.Completion.Provider,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case runErr = <-errChan:
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	}

	if err := server.Shutdown(); err != nil {
		c.logger.Warn("API server shutdown failed", "error", err)
	}

	return errors.Join(runErr, stack.Close())
}

// setupLogger builds the console logger and, with --log-file, fans out to a
// JSON file logger as well.
func (c *ServeCommander) setupLogger() (func(), error) {
	format, err := logger.ParseFormat(c.logFormat)
	if err != nil {
		return nil, err
	}

	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(format),
		logger.WithPrefix("toolbox"),
		logger.WithWriter(os.Stderr),
	)

	if c.logFile == "" {
		c.logger = console
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(logger.FormatJSON),
		logger.WithAttrs("version", utils.Version),
		logger.WithWriter(f),
	)
	c.logger = logger.Multi(console, file)

	return func() { _ = f.Close() }, nil
}
