// Package router builds the echo instance: global middleware, the system
// routes and the versioned ledger API.
package router

import (
	"net/http"

	"github.com/deppfellow/maintenance-ledger/internal/handler"
	"github.com/deppfellow/maintenance-ledger/internal/middleware"
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter wires middleware and routes. Middleware order matters: the
// request id must exist before tracing and the context logger read it.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h, s)

	v1 := router.Group("/api/v1")
	if middlewares.RateLimit.Enabled() {
		v1.Use(middlewares.RateLimit.Limit())
	}
	registerLedgerRoutes(v1, h)

	return router
}

func registerLedgerRoutes(g *echo.Group, h *handler.Handlers) {
	list := func() *handler.ListRequest { return &handler.ListRequest{} }
	byID := func() *handler.MachineIDRequest { return &handler.MachineIDRequest{} }

	m := h.Machine
	g.POST("/machines", handler.Handle(m.Handler, m.AddMachine, http.StatusCreated,
		func() *handler.AddMachineRequest { return &handler.AddMachineRequest{} }))
	g.GET("/machines", handler.Handle(m.Handler, m.ListMachines, http.StatusOK, list))
	g.GET("/machines/:id", handler.Handle(m.Handler, m.GetMachine, http.StatusOK, byID))
	g.PATCH("/machines/:id/status", handler.HandleNoContent(m.Handler, m.UpdateStatus, http.StatusNoContent,
		func() *handler.UpdateStatusRequest { return &handler.UpdateStatusRequest{} }))
	g.GET("/machines/:id/history", handler.Handle(m.Handler, m.GetHistory, http.StatusOK, byID))
	g.GET("/machines/:id/history/export", handler.HandleFile(m.Handler, m.ExportHistory, http.StatusOK, byID,
		handler.HistoryFilename, "text/csv"))
	g.DELETE("/machines/:id", handler.Handle(m.Handler, m.DeleteMachine, http.StatusOK, byID))
	g.DELETE("/machines/:id/confirmation", handler.HandleNoContent(m.Handler, m.CancelDelete, http.StatusNoContent, byID))

	mt := h.Maintenance
	g.POST("/maintenance", handler.Handle(mt.Handler, mt.ScheduleMaintenance, http.StatusCreated,
		func() *handler.ScheduleMaintenanceRequest { return &handler.ScheduleMaintenanceRequest{} }))
	g.GET("/maintenance/pending", handler.Handle(mt.Handler, mt.ListPending, http.StatusOK, list))

	in := h.Intervention
	g.POST("/interventions", handler.Handle(in.Handler, in.RegisterIntervention, http.StatusCreated,
		func() *handler.RegisterInterventionRequest { return &handler.RegisterInterventionRequest{} }))
}
