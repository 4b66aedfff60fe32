package handler

import (
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/deppfellow/maintenance-ledger/internal/service"
	"github.com/deppfellow/maintenance-ledger/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type InterventionHandler struct {
	Handler
	ledger *service.LedgerService
}

func NewInterventionHandler(s *server.Server, ledger *service.LedgerService) *InterventionHandler {
	return &InterventionHandler{
		Handler: NewHandler(s),
		ledger:  ledger,
	}
}

// RegisterInterventionRequest accepts cost as a JSON number or string.
// Date is optional and defaults to today.
type RegisterInterventionRequest struct {
	MachineID       int64           `json:"machine_id" validate:"required,gt=0"`
	Description     string          `json:"description" validate:"required"`
	Cost            decimal.Decimal `json:"cost"`
	ResultingStatus model.Status    `json:"resulting_status" validate:"ledger_status"`
	Date            string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (r *RegisterInterventionRequest) Validate() error {
	if err := validation.Validator().Struct(r); err != nil {
		return err
	}
	if r.Cost.IsNegative() {
		return validation.CustomValidationErrors{{Field: "cost", Message: "must not be negative"}}
	}
	return nil
}

func (h *InterventionHandler) RegisterIntervention(c echo.Context, req *RegisterInterventionRequest) (CreatedResponse, error) {
	in := service.RegisterInterventionInput{
		MachineID:       req.MachineID,
		Description:     req.Description,
		Cost:            req.Cost,
		ResultingStatus: req.ResultingStatus,
	}
	if req.Date != "" {
		date, _ := time.Parse(model.DateLayout, req.Date)
		in.Date = &date
	}

	id, err := h.ledger.RegisterIntervention(c.Request().Context(), in)
	if err != nil {
		return CreatedResponse{}, err
	}
	return CreatedResponse{ID: id}, nil
}
