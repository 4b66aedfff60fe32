package router

import (
	"github.com/deppfellow/maintenance-ledger/internal/handler"
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers the endpoints outside the ledger API:
// health, docs, static assets and prometheus metrics.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers, s *server.Server) {
	r.GET("/status", h.Health.CheckHealth)

	r.Static("/static", "static")

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)

	if s.Metrics != nil {
		r.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}
