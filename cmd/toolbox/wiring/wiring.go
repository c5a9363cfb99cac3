// Package wiring assembles the toolbox runtime (ledger, event publisher,
// providers, and toolkit) from a resolved config. Every command that runs
// tools goes through it so they all see the same backends.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/toolbox/api/worker"
	"github.com/papercomputeco/toolbox/pkg/completion"
	"github.com/papercomputeco/toolbox/pkg/config"
	"github.com/papercomputeco/toolbox/pkg/credentials"
	"github.com/papercomputeco/toolbox/pkg/eventstream"
	"github.com/papercomputeco/toolbox/pkg/eventstream/kafka"
	"github.com/papercomputeco/toolbox/pkg/eventstream/nop"
	"github.com/papercomputeco/toolbox/pkg/llm/provider"
	"github.com/papercomputeco/toolbox/pkg/logger"
	"github.com/papercomputeco/toolbox/pkg/storage"
	"github.com/papercomputeco/toolbox/pkg/storage/inmemory"
	"github.com/papercomputeco/toolbox/pkg/storage/postgres"
	"github.com/papercomputeco/toolbox/pkg/storage/sqlite"
	"github.com/papercomputeco/toolbox/pkg/toolkit"
	"github.com/papercomputeco/toolbox/pkg/web"
)

// providerMaxRetries is the SDK retry budget for transient vendor errors.
const providerMaxRetries = 2

// LoadConfig resolves the config for cmd: flags named by flagKeys, then
// TOOLBOX_ env vars, then config.toml, then defaults.
func LoadConfig(cmd *cobra.Command, configDir string, flagKeys []string) (*config.Config, error) {
	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)
	return config.FromViper(v), nil
}

// NewLedger opens the call ledger. Postgres wins over SQLite; with neither
// configured the ledger lives in memory.
func NewLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Driver, error) {
	switch {
	case cfg.Storage.PostgresDSN != "":
		driver, err := postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL ledger: %w", err)
		}
		logger.Info("using PostgreSQL ledger")
		return driver, nil

	case cfg.Storage.SQLitePath != "":
		driver, err := sqlite.NewSQLiteDriver(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite ledger: %w", err)
		}
		logger.Info("using SQLite ledger", "path", cfg.Storage.SQLitePath)
		return driver, nil

	default:
		logger.Debug("using in-memory ledger")
		return inmemory.NewDriver(), nil
	}
}

// NewPublisher creates the call event publisher named by events.provider.
func NewPublisher(cfg *config.Config, logger *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case "", config.EventsProviderNop:
		return nop.NewPublisher(logger), nil

	case config.EventsProviderKafka:
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		logger.Info("publishing call events to kafka",
			"brokers", cfg.Events.Brokers,
			"topic", pub.Topic(),
		)
		return pub, nil

	default:
		return nil, fmt.Errorf("unknown events provider: %q", cfg.Events.Provider)
	}
}

// NewProviders builds one adapter per supported vendor. API keys come from
// the environment, then from creds when it is non-nil.
func NewProviders(cfg *config.Config, creds *credentials.Store) ([]provider.Provider, error) {
	baseURLs := map[string]string{
		provider.OpenAI:    cfg.OpenAI.BaseURL,
		provider.Anthropic: cfg.Anthropic.BaseURL,
	}

	providers := make([]provider.Provider, 0, len(baseURLs))
	for _, name := range provider.SupportedProviders() {
		var apiKey string
		if creds != nil {
			key, _, err := creds.Lookup(name)
			if err != nil {
				return nil, fmt.Errorf("loading %s credentials: %w", name, err)
			}
			apiKey = key
		}

		p, err := provider.New(name, provider.Options{
			APIKey:     apiKey,
			BaseURL:    baseURLs[name],
			MaxRetries: providerMaxRetries,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// Stack is a running toolkit together with the ledger and worker pool that
// record its calls.
type Stack struct {
	Toolkit *toolkit.Toolkit
	Ledger  storage.Driver

	pool      *worker.Pool
	publisher eventstream.Publisher
	logger    *slog.Logger
}

// Open builds the full runtime for cfg. Callers must Close the returned
// Stack to drain pending ledger writes.
func Open(ctx context.Context, cfg *config.Config, creds *credentials.Store, logger *slog.Logger) (*Stack, error) {
	tables, err := cfg.CompletionTables()
	if err != nil {
		return nil, err
	}

	providers, err := NewProviders(cfg, creds)
	if err != nil {
		return nil, err
	}

	svc, err := completion.New(completion.Config{
		Tables:    tables,
		Providers: providers,
	}, logger)
	if err != nil {
		return nil, err
	}

	ledger, err := NewLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(cfg, logger)
	if err != nil {
		ledger.Close()
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{
		Driver:    ledger,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		publisher.Close()
		ledger.Close()
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	kit, err := toolkit.New(toolkit.Config{
		Completion: svc,
		Web: web.New(web.Config{
			UserAgent: cfg.Web.UserAgent,
			Timeout:   time.Duration(cfg.Web.TimeoutSeconds) * time.Second,
		}, logger),
		Recorder: pool,
	}, logger)
	if err != nil {
		pool.Close()
		publisher.Close()
		ledger.Close()
		return nil, err
	}

	return &Stack{
		Toolkit:   kit,
		Ledger:    ledger,
		pool:      pool,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Close drains the worker pool, then closes the publisher and the ledger.
func (s *Stack) Close() error {
	s.pool.Close()

	var errs []error
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing publisher: %w", err))
	}
	if err := s.Ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing ledger: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Warn("shutdown finished with errors", "error", err)
	}
	return err
}

// CLILogger returns the logger for one-shot commands. Runtime chatter such
// as ledger writes is only shown with --debug.
func CLILogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return logger.Nop()
	}
	return logger.New(
		logger.WithDebug(true),
		logger.WithFormat(logger.FormatPretty),
		logger.WithWriter(w),
	)
}
