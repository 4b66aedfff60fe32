package handler

import (
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/deppfellow/maintenance-ledger/internal/service"
	"github.com/deppfellow/maintenance-ledger/internal/validation"
	"github.com/labstack/echo/v4"
)

type MaintenanceHandler struct {
	Handler
	ledger *service.LedgerService
}

func NewMaintenanceHandler(s *server.Server, ledger *service.LedgerService) *MaintenanceHandler {
	return &MaintenanceHandler{
		Handler: NewHandler(s),
		ledger:  ledger,
	}
}

type ScheduleMaintenanceRequest struct {
	MachineID     int64  `json:"machine_id" validate:"required,gt=0"`
	Type          string `json:"type" validate:"required"`
	ScheduledDate string `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
}

func (r *ScheduleMaintenanceRequest) Validate() error {
	return validation.Validator().Struct(r)
}

func (h *MaintenanceHandler) ScheduleMaintenance(c echo.Context, req *ScheduleMaintenanceRequest) (CreatedResponse, error) {
	// Validate already checked the layout.
	date, _ := time.Parse(model.DateLayout, req.ScheduledDate)

	id, err := h.ledger.ScheduleMaintenance(c.Request().Context(), service.ScheduleMaintenanceInput{
		MachineID:     req.MachineID,
		Type:          req.Type,
		ScheduledDate: date,
	})
	if err != nil {
		return CreatedResponse{}, err
	}
	return CreatedResponse{ID: id}, nil
}

func (h *MaintenanceHandler) ListPending(c echo.Context, _ *ListRequest) ([]model.PendingMaintenance, error) {
	pending, err := h.ledger.ListPendingMaintenance(c.Request().Context())
	if err != nil {
		return nil, err
	}
	if pending == nil {
		pending = []model.PendingMaintenance{}
	}
	return pending, nil
}
