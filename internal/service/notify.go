package service

import (
	"context"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/lib/job"
	"github.com/deppfellow/maintenance-ledger/internal/model"
)

// Notifier hands ledger events to the notification queue.
type Notifier interface {
	EnqueueMaintenanceReminder(ctx context.Context, p job.MaintenanceReminderPayload, at time.Time) error
	EnqueueMachineDownAlert(ctx context.Context, p job.MachineDownPayload) error
	CancelMaintenanceReminders(ctx context.Context, maintenanceIDs []int64) error
}

// The ledger write has already committed when these run, so a failed
// enqueue is logged and counted but never returned.

func (s *LedgerService) notifyMaintenanceScheduled(ctx context.Context, id int64, machine model.Machine, in ScheduleMaintenanceInput) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.EnqueueMaintenanceReminder(ctx, job.MaintenanceReminderPayload{
		MaintenanceID:   id,
		MachineID:       machine.ID,
		MachineName:     machine.Name,
		MaintenanceType: in.Type,
		ScheduledDate:   in.ScheduledDate.Format(model.DateLayout),
	}, job.ReminderTime(in.ScheduledDate))

	s.metrics.ObserveNotification(job.TaskMaintenanceReminder, err)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("maintenance_id", id).
			Msg("failed to enqueue maintenance reminder")
	}
}

func (s *LedgerService) notifyMachineDown(ctx context.Context, id int64, machine model.Machine, in model.NewIntervention) {
	if s.notifier == nil || in.ResultingStatus != model.StatusNonOperational {
		return
	}

	err := s.notifier.EnqueueMachineDownAlert(ctx, job.MachineDownPayload{
		InterventionID: id,
		MachineID:      machine.ID,
		MachineName:    machine.Name,
		Description:    in.Description,
		Date:           in.Date.Format(model.DateLayout),
		Cost:           model.FormatMoney(in.Cost),
	})

	s.metrics.ObserveNotification(job.TaskMachineDown, err)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("intervention_id", id).
			Msg("failed to enqueue machine down alert")
	}
}

// cancelReminders drops the reminders of maintenance deleted with a machine.
func (s *LedgerService) cancelReminders(ctx context.Context, machineID int64, maintenanceIDs []int64) {
	if s.notifier == nil || len(maintenanceIDs) == 0 {
		return
	}

	err := s.notifier.CancelMaintenanceReminders(ctx, maintenanceIDs)
	s.metrics.ObserveNotification(job.TaskMaintenanceReminder+":cancel", err)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("machine_id", machineID).
			Ints64("maintenance_ids", maintenanceIDs).
			Msg("failed to cancel maintenance reminders")
	}
}
