package handler

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/config"
	"github.com/deppfellow/maintenance-ledger/internal/middleware"
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler reports whether the ledger store, and Redis when
// notifications are on, are reachable.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth answers 200 when every check passes and 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]any)
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"driver":      h.server.Config.Database.Driver,
		"checks":      checks,
	}

	cfg := h.checksConfig()
	isHealthy := true

	if cfg.Enabled && slices.Contains(cfg.Checks, "database") {
		isHealthy = h.runCheck(c.Request().Context(), cfg.Timeout, &logger, checks, "database", h.server.PingStore)
	}

	// Redis is only connected when notifications are enabled, and then
	// reminders cannot be queued without it.
	if cfg.Enabled && slices.Contains(cfg.Checks, "redis") && h.server.Redis != nil {
		ping := func(ctx context.Context) error { return h.server.Redis.Ping(ctx).Err() }
		if !h.runCheck(c.Request().Context(), cfg.Timeout, &logger, checks, "redis", ping) {
			isHealthy = false
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordHealthEvent(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Info().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// runCheck pings one dependency, stores its result under name and reports
// whether it passed.
func (h *HealthHandler) runCheck(
	parent context.Context,
	timeout time.Duration,
	logger *zerolog.Logger,
	checks map[string]any,
	name string,
	ping func(ctx context.Context) error,
) bool {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	checkStart := time.Now()
	err := ping(ctx)
	elapsed := time.Since(checkStart)

	if err != nil {
		checks[name] = map[string]any{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}

		logger.Error().
			Err(err).
			Dur("response_time", elapsed).
			Msgf("%s health check failed", name)

		h.recordHealthEvent(map[string]any{
			"check_type":       name,
			"operation":        "health_check",
			"error_type":       name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
		return false
	}

	checks[name] = map[string]any{
		"status":        "healthy",
		"response_time": elapsed.String(),
	}

	logger.Debug().
		Dur("response_time", elapsed).
		Msgf("%s health check passed", name)
	return true
}

func (h *HealthHandler) checksConfig() config.HealthChecksConfig {
	if h.server.Config.Observability == nil {
		return config.DefaultObservabilityConfig().HealthChecks
	}
	return h.server.Config.Observability.HealthChecks
}

func (h *HealthHandler) recordHealthEvent(attrs map[string]any) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}
	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
}
