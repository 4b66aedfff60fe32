package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/deppfellow/maintenance-ledger/internal/errs"
	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/deppfellow/maintenance-ledger/internal/service"
	"github.com/deppfellow/maintenance-ledger/internal/validation"
	"github.com/labstack/echo/v4"
)

type MachineHandler struct {
	Handler
	ledger *service.LedgerService
}

func NewMachineHandler(s *server.Server, ledger *service.LedgerService) *MachineHandler {
	return &MachineHandler{
		Handler: NewHandler(s),
		ledger:  ledger,
	}
}

type AddMachineRequest struct {
	service.AddMachineInput
}

func (r *AddMachineRequest) Validate() error {
	return validation.Validator().Struct(r.AddMachineInput)
}

// MachineIDRequest addresses one machine through the :id path parameter.
type MachineIDRequest struct {
	ID int64 `param:"id" json:"-"`
}

func (r *MachineIDRequest) Validate() error {
	if r.ID <= 0 {
		return validation.CustomValidationErrors{{Field: "id", Message: "must be greater than 0"}}
	}
	return nil
}

type UpdateStatusRequest struct {
	MachineIDRequest
	Status model.Status `json:"status" validate:"ledger_status"`
}

func (r *UpdateStatusRequest) Validate() error {
	if err := r.MachineIDRequest.Validate(); err != nil {
		return err
	}
	return validation.Validator().Struct(r)
}

type ListRequest struct{}

func (r *ListRequest) Validate() error { return nil }

type CreatedResponse struct {
	ID int64 `json:"id"`
}

// HistoryResponse is a machine's history with the total also rendered for display.
type HistoryResponse struct {
	model.MachineHistory
	TotalDisplay string `json:"total_display"`
}

// DeleteResponse carries the step outcome. Action is set while a further
// request is needed to finish the delete.
type DeleteResponse struct {
	service.DeleteOutcome
	Action *errs.Action `json:"action,omitempty"`
}

func (h *MachineHandler) AddMachine(c echo.Context, req *AddMachineRequest) (CreatedResponse, error) {
	id, err := h.ledger.AddMachine(c.Request().Context(), req.AddMachineInput)
	if err != nil {
		return CreatedResponse{}, err
	}
	return CreatedResponse{ID: id}, nil
}

func (h *MachineHandler) ListMachines(c echo.Context, _ *ListRequest) ([]model.Machine, error) {
	machines, err := h.ledger.ListMachines(c.Request().Context())
	if err != nil {
		return nil, err
	}
	if machines == nil {
		machines = []model.Machine{}
	}
	return machines, nil
}

func (h *MachineHandler) GetMachine(c echo.Context, req *MachineIDRequest) (model.Machine, error) {
	return h.ledger.GetMachine(c.Request().Context(), req.ID)
}

func (h *MachineHandler) UpdateStatus(c echo.Context, req *UpdateStatusRequest) error {
	return h.ledger.UpdateMachineStatus(c.Request().Context(), req.ID, req.Status)
}

func (h *MachineHandler) GetHistory(c echo.Context, req *MachineIDRequest) (HistoryResponse, error) {
	history, err := h.ledger.GetMachineHistory(c.Request().Context(), req.ID)
	if err != nil {
		return HistoryResponse{}, err
	}
	return HistoryResponse{
		MachineHistory: history,
		TotalDisplay:   history.TotalDisplay(),
	}, nil
}

// ExportHistory renders the history as CSV, one row per intervention and
// a closing total row.
func (h *MachineHandler) ExportHistory(c echo.Context, req *MachineIDRequest) ([]byte, error) {
	history, err := h.ledger.GetMachineHistory(c.Request().Context(), req.ID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "date", "description", "cost", "resulting_status"})
	for _, in := range history.Interventions {
		_ = w.Write([]string{
			strconv.FormatInt(in.ID, 10),
			in.Date.Format(model.DateLayout),
			in.Description,
			in.Cost.StringFixed(2),
			in.ResultingStatus.String(),
		})
	}
	_ = w.Write([]string{"", "", "total", history.Total.StringFixed(2), ""})
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write history csv: %w", err)
	}

	return buf.Bytes(), nil
}

func HistoryFilename(c echo.Context) string {
	return fmt.Sprintf("machine-%s-history.csv", c.Param("id"))
}

// DeleteMachine advances the delete confirmation by one step. Nothing is
// removed until the confirmation requests arrive.
func (h *MachineHandler) DeleteMachine(c echo.Context, req *MachineIDRequest) (DeleteResponse, error) {
	outcome, err := h.ledger.DeleteMachine(c.Request().Context(), req.ID)
	if err != nil {
		return DeleteResponse{}, err
	}

	resp := DeleteResponse{DeleteOutcome: outcome}
	if !outcome.Deleted {
		resp.Action = &errs.Action{
			Type:    errs.ActionTypeConfirm,
			Message: outcome.Message,
			Value:   c.Request().URL.Path,
		}
	}
	return resp, nil
}

// CancelDelete disarms a pending confirmation. It succeeds whether or not
// one was armed.
func (h *MachineHandler) CancelDelete(c echo.Context, req *MachineIDRequest) error {
	if h.ledger.CancelDelete(req.ID) {
		h.server.Logger.Debug().Int64("machine_id", req.ID).Msg("delete confirmation cancelled")
	}
	return nil
}
