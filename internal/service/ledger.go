package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/errs"
	"github.com/deppfellow/maintenance-ledger/internal/metrics"
	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/deppfellow/maintenance-ledger/internal/repository"
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/deppfellow/maintenance-ledger/internal/validation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerService implements the maintenance ledger operations.
type LedgerService struct {
	repo     repository.LedgerRepository
	notifier Notifier
	deletes  *DeleteConfirmations
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewLedgerService builds the ledger on repo. notifier may be nil.
func NewLedgerService(s *server.Server, repo repository.LedgerRepository, notifier Notifier) *LedgerService {
	return &LedgerService{
		repo:     repo,
		notifier: notifier,
		deletes:  NewDeleteConfirmations(s.Config.Ledger.ConfirmTTL),
		metrics:  s.Metrics,
		logger:   s.Logger,
		now:      time.Now,
	}
}

type AddMachineInput struct {
	Name         string             `json:"name" validate:"required"`
	Description  string             `json:"description"`
	Type         model.MachineType  `json:"type" validate:"machine_type"`
	Capacity     string             `json:"capacity"`
	CapacityUnit model.CapacityUnit `json:"capacity_unit" validate:"capacity_unit"`
	Status       model.Status       `json:"status" validate:"ledger_status"`
}

type ScheduleMaintenanceInput struct {
	MachineID     int64     `json:"machine_id"`
	Type          string    `json:"type" validate:"required"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
}

type RegisterInterventionInput struct {
	MachineID       int64           `json:"machine_id"`
	Description     string          `json:"description" validate:"required"`
	Cost            decimal.Decimal `json:"cost"`
	ResultingStatus model.Status    `json:"resulting_status" validate:"ledger_status"`

	// Date defaults to today.
	Date *time.Time `json:"date"`
}

// AddMachine registers a machine and returns its id.
func (s *LedgerService) AddMachine(ctx context.Context, in AddMachineInput) (id int64, err error) {
	defer func() { s.metrics.ObserveOperation("add_machine", err) }()

	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return 0, err
	}

	id, err = s.repo.InsertMachine(ctx, model.NewMachine{
		Name:         in.Name,
		Description:  strings.TrimSpace(in.Description),
		Type:         in.Type,
		Capacity:     strings.TrimSpace(in.Capacity),
		CapacityUnit: in.CapacityUnit,
		Status:       in.Status,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("machine_id", id).Str("name", in.Name).Msg("machine added")
	return id, nil
}

// GetMachine returns one machine, or a NotFound error.
func (s *LedgerService) GetMachine(ctx context.Context, id int64) (model.Machine, error) {
	m, err := s.repo.GetMachine(ctx, id)
	s.metrics.ObserveOperation("get_machine", err)
	return m, err
}

// UpdateMachineStatus sets the status of a machine. An unknown id is a
// NotFound error, not a silent no-op.
func (s *LedgerService) UpdateMachineStatus(ctx context.Context, id int64, status model.Status) (err error) {
	defer func() { s.metrics.ObserveOperation("update_machine_status", err) }()

	if !status.Valid() {
		return errs.NewValidation("Validation failed", errs.FieldError{
			Field: "status",
			Error: fmt.Sprintf("must be one of: %q, %q", model.StatusOperational, model.StatusNonOperational),
		})
	}

	if err := s.repo.UpdateMachineStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.Info().Int64("machine_id", id).Str("status", status.String()).Msg("machine status updated")
	return nil
}

// ScheduleMaintenance plans a maintenance for a machine and returns its id.
func (s *LedgerService) ScheduleMaintenance(ctx context.Context, in ScheduleMaintenanceInput) (id int64, err error) {
	defer func() { s.metrics.ObserveOperation("schedule_maintenance", err) }()

	in.Type = strings.TrimSpace(in.Type)
	if err := validation.Struct(in); err != nil {
		return 0, err
	}
	in.ScheduledDate = model.Date(in.ScheduledDate)

	id, err = s.repo.InsertMaintenance(ctx, model.NewMaintenance{
		MachineID:     in.MachineID,
		Type:          in.Type,
		ScheduledDate: in.ScheduledDate,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Int64("maintenance_id", id).
		Int64("machine_id", in.MachineID).
		Str("scheduled_date", in.ScheduledDate.Format(model.DateLayout)).
		Msg("maintenance scheduled")

	if s.notifier != nil {
		if machine, err := s.repo.GetMachine(ctx, in.MachineID); err == nil {
			s.notifyMaintenanceScheduled(ctx, id, machine, in)
		}
	}

	return id, nil
}

// RegisterIntervention records a completed intervention and returns its id.
// The machine's own status is not touched.
func (s *LedgerService) RegisterIntervention(ctx context.Context, in RegisterInterventionInput) (id int64, err error) {
	defer func() { s.metrics.ObserveOperation("register_intervention", err) }()

	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return 0, err
	}
	if in.Cost.IsNegative() {
		return 0, errs.NewValidation("Validation failed", errs.FieldError{
			Field: "cost",
			Error: "must not be negative",
		})
	}
	if in.Cost.GreaterThan(model.MaxCost) {
		return 0, errs.NewValidation("Validation failed", errs.FieldError{
			Field: "cost",
			Error: "must not exceed " + model.MaxCost.String(),
		})
	}

	date := s.now()
	if in.Date != nil {
		date = *in.Date
	}

	record := model.NewIntervention{
		MachineID:       in.MachineID,
		Date:            model.Date(date),
		Description:     in.Description,
		Cost:            in.Cost,
		ResultingStatus: in.ResultingStatus,
	}

	id, err = s.repo.InsertIntervention(ctx, record)
	if err != nil {
		return 0, err
	}

	s.metrics.AddInterventionCost(in.Cost)
	s.logger.Info().
		Int64("intervention_id", id).
		Int64("machine_id", in.MachineID).
		Str("cost", in.Cost.StringFixed(2)).
		Msg("intervention registered")

	if s.notifier != nil && record.ResultingStatus == model.StatusNonOperational {
		if machine, err := s.repo.GetMachine(ctx, in.MachineID); err == nil {
			s.notifyMachineDown(ctx, id, machine, record)
		}
	}

	return id, nil
}

// ListMachines returns every machine in insertion order.
func (s *LedgerService) ListMachines(ctx context.Context) ([]model.Machine, error) {
	machines, err := s.repo.ListMachines(ctx)
	s.metrics.ObserveOperation("list_machines", err)
	return machines, err
}

// ListPendingMaintenance returns the maintenance not yet completed.
func (s *LedgerService) ListPendingMaintenance(ctx context.Context) ([]model.PendingMaintenance, error) {
	pending, err := s.repo.ListPendingMaintenance(ctx)
	s.metrics.ObserveOperation("list_pending_maintenance", err)
	return pending, err
}

// GetMachineHistory returns the interventions of a machine and their total
// cost. A machine without interventions, or an unknown id, has an empty
// history totalling zero.
func (s *LedgerService) GetMachineHistory(ctx context.Context, machineID int64) (model.MachineHistory, error) {
	interventions, err := s.repo.ListInterventions(ctx, machineID)
	s.metrics.ObserveOperation("get_machine_history", err)
	if err != nil {
		return model.MachineHistory{}, err
	}
	return model.NewMachineHistory(machineID, interventions), nil
}

// DeleteMachine advances the delete confirmation of a machine by one step:
//
//	idle                    -> pending_confirm          (nothing deleted, N interventions announced)
//	pending_confirm         -> idle, machine deleted    (still at most N interventions)
//	pending_confirm         -> pending_cascade_confirm  (interventions appeared since the warning)
//	pending_cascade_confirm -> idle, machine and interventions deleted
//
// The first request always only arms the confirmation and reports how many
// interventions would go with the machine. The delete runs in one
// transaction that counts interventions again, so interventions nobody was
// warned about are never deleted without a further confirmation.
func (s *LedgerService) DeleteMachine(ctx context.Context, machineID int64) (outcome DeleteOutcome, err error) {
	defer func() {
		s.metrics.ObserveOperation("delete_machine", err)
		if err == nil {
			s.metrics.ObserveDeleteStep(string(outcome.State))
		}
	}()

	outcome.MachineID = machineID
	var maintenance []int64

	err = s.deletes.Step(machineID, func(current DeleteStep) (DeleteStep, error) {
		if current.State == DeleteIdle {
			if _, err := s.repo.GetMachine(ctx, machineID); err != nil {
				return current, err
			}
			count, err := s.repo.CountInterventions(ctx, machineID)
			if err != nil {
				return current, err
			}
			outcome.Interventions = count
			outcome.State = DeletePendingConfirm
			outcome.Message = "Are you sure? Request the delete again to confirm."
			if count > 0 {
				outcome.Message = fmt.Sprintf("The machine has %d interventions. They will be deleted with it. Request the delete again to confirm.", count)
			}
			return DeleteStep{State: DeletePendingConfirm, Interventions: count}, nil
		}

		res, err := s.repo.DeleteMachine(ctx, machineID, current.Interventions)
		if err != nil {
			return current, err
		}
		outcome.Interventions = res.Interventions

		if !res.Deleted {
			outcome.State = DeletePendingCascadeConfirm
			outcome.Message = fmt.Sprintf("The machine has %d interventions. Request the delete again to remove it together with its interventions.", res.Interventions)
			return DeleteStep{State: DeletePendingCascadeConfirm, Interventions: res.Interventions}, nil
		}

		maintenance = res.Maintenance
		outcome.State = DeleteIdle
		outcome.Deleted = true
		outcome.Message = fmt.Sprintf("Machine %d deleted.", machineID)
		if res.Interventions > 0 {
			outcome.Message = fmt.Sprintf("Machine %d and its %d interventions deleted.", machineID, res.Interventions)
		}
		return DeleteStep{State: DeleteIdle}, nil
	})
	if err != nil {
		return DeleteOutcome{}, err
	}

	if outcome.Deleted {
		s.logger.Info().
			Int64("machine_id", machineID).
			Int("interventions", outcome.Interventions).
			Msg("machine deleted")
		s.cancelReminders(ctx, machineID, maintenance)
	}

	return outcome, nil
}

// CancelDelete drops any armed confirmation for the machine, the API's
// equivalent of navigating away. It reports whether one was armed.
func (s *LedgerService) CancelDelete(machineID int64) bool {
	return s.deletes.Cancel(machineID)
}

// DeleteState reports where the machine stands in the delete flow.
func (s *LedgerService) DeleteState(machineID int64) DeleteState {
	return s.deletes.State(machineID)
}
