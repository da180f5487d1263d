package application

import (
	"context"
	"fmt"

	"github.com/neekrasov/typedkv/internal/config"
	"github.com/neekrasov/typedkv/internal/database/auth"
	deliveryhttp "github.com/neekrasov/typedkv/internal/delivery/http"
	"github.com/neekrasov/typedkv/internal/workers"
	"github.com/neekrasov/typedkv/pkg/logger"
)

// Application - turns configuration into a running server and handles its
// lifecycle.
type Application struct {
	cfg *config.Config
}

// New - creates and returns a new instance of Application.
func New(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// Start - initializes the logger, binds the endpoint, wires the worker
// pipeline and serves until a shutdown statement executes or the context
// is cancelled.
func (a *Application) Start(ctx context.Context) error {
	logger.InitLogger(a.cfg.Logging.Level, a.cfg.Logging.Output)

	sourceOpts := make([]deliveryhttp.SourceOption, 0)
	if timeout := a.cfg.Network.IdleTimeout; timeout != 0 {
		sourceOpts = append(sourceOpts, deliveryhttp.WithIdleTimeout(timeout))
	}

	source, err := deliveryhttp.NewSource(a.cfg.Network.Address, sourceOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Debug("failed to close stream source")
		}
	}()

	authenticator, err := initAuthenticator(a.cfg.Auth)
	if err != nil {
		return err
	}

	coordinator := workers.NewCoordinator(a.pipelineConfig(), source, authenticator)

	return coordinator.Serve(ctx)
}

func (a *Application) pipelineConfig() workers.Config {
	cfg := workers.Config{
		Listeners: a.cfg.Network.Listeners,
		Analyzers: a.cfg.Network.Analyzers,
	}

	if pipeline := a.cfg.Pipeline; pipeline != nil {
		cfg.QueueSize = pipeline.QueueSize
		cfg.PollTimeout = pipeline.PollTimeout
		cfg.SendTimeout = pipeline.SendTimeout
		cfg.ReplyTimeout = pipeline.ReplyTimeout
	}

	if expiration := a.cfg.Expiration; expiration != nil {
		cfg.ExpirationInterval = expiration.Interval
		cfg.ExpirationBatch = expiration.Batch
	}

	return cfg
}

func initAuthenticator(cfg *config.AuthConfig) (auth.Service, error) {
	if cfg == nil || cfg.Mode == "" || cfg.Mode == "mock" {
		return auth.NewMock(), nil
	}

	if cfg.Mode != "static" {
		return nil, fmt.Errorf("unknown auth mode '%s'", cfg.Mode)
	}

	users := make(map[string]auth.StaticUser, len(cfg.Users))
	for _, user := range cfg.Users {
		level, err := auth.ParseLevel(user.Level)
		if err != nil {
			return nil, fmt.Errorf("user '%s': %w", user.Username, err)
		}

		users[user.Username] = auth.StaticUser{
			Level:        level,
			PasswordHash: user.PasswordHash,
		}
	}

	return auth.NewStatic(users), nil
}
