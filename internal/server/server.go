// Package server defines the Server container that composes the ledger's
// shared dependencies and owns their lifecycle:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the relational store (PostgreSQL pool or SQLite file)
//   - redis client and notification job worker (only when notifications are on)
//   - prometheus metrics
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/config"
	"github.com/deppfellow/maintenance-ledger/internal/database"
	"github.com/deppfellow/maintenance-ledger/internal/lib/job"
	"github.com/deppfellow/maintenance-ledger/internal/metrics"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/maintenance-ledger/internal/logger"
)

// Server is the application container; it is not the HTTP server itself.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	// Exactly one of DB and SQLite is set, following Config.Database.Driver.
	DB     *database.Database
	SQLite *database.SQLite

	// Redis and Job are nil when notifications are disabled.
	Redis *redis.Client
	Job   *job.JobService

	Metrics *metrics.Metrics

	httpServer *http.Server
}

// New opens the configured store and, when notifications are enabled, the
// Redis client and job worker.
//
// A Redis that does not answer the first ping is logged, not fatal: the
// ledger keeps working and enqueue attempts fail individually.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	server := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Metrics:       metrics.New(),
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		server.DB = db

	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.Database.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		server.SQLite = db

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if !cfg.Notifications.Enabled {
		logger.Info().Msg("notifications disabled, running without redis")
		return server, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService != nil && loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis, notifications will fail until it is reachable")
	}

	jobService := job.NewJobService(logger, cfg)
	jobService.InitHandlers(cfg, logger)

	if err := jobService.Start(); err != nil {
		return nil, err
	}

	server.Redis = redisClient
	server.Job = jobService

	return server, nil
}

// PingStore checks the configured store.
func (s *Server) PingStore(ctx context.Context) error {
	switch {
	case s.DB != nil:
		return s.DB.Ping(ctx)
	case s.SQLite != nil:
		return s.SQLite.Ping(ctx)
	default:
		return errors.New("no database configured")
	}
}

// SetupHTTPServer configures the internal net/http server. Config timeouts
// are seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("driver", s.Config.Database.Driver).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server, then the job worker, then closes the
// redis client and the store.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}

	return s.closeStore()
}

func (s *Server) closeStore() error {
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	if s.SQLite != nil {
		if err := s.SQLite.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	return nil
}
