package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/maintenance-ledger/internal/lib/email"
	"github.com/hibiken/asynq"
)

func (j *JobService) handleMaintenanceReminderTask(ctx context.Context, t *asynq.Task) error {
	var p MaintenanceReminderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal maintenance reminder payload: %w: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", TaskMaintenanceReminder).
		Int64("maintenance_id", p.MaintenanceID).
		Msg("processing maintenance reminder")

	err := j.mailer.SendMaintenanceReminder(j.recipient, email.MaintenanceReminder{
		MaintenanceID:   p.MaintenanceID,
		MachineID:       p.MachineID,
		MachineName:     p.MachineName,
		MaintenanceType: p.MaintenanceType,
		ScheduledDate:   p.ScheduledDate,
	})
	if err != nil {
		j.logger.Error().
			Str("type", TaskMaintenanceReminder).
			Int64("maintenance_id", p.MaintenanceID).
			Err(err).
			Msg("failed to send maintenance reminder")
		return err
	}

	return nil
}

func (j *JobService) handleMachineDownTask(ctx context.Context, t *asynq.Task) error {
	var p MachineDownPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal machine down payload: %w: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", TaskMachineDown).
		Int64("machine_id", p.MachineID).
		Msg("processing machine down alert")

	err := j.mailer.SendMachineDownAlert(j.recipient, email.MachineDown{
		InterventionID: p.InterventionID,
		MachineID:      p.MachineID,
		MachineName:    p.MachineName,
		Description:    p.Description,
		Date:           p.Date,
		Cost:           p.Cost,
	})
	if err != nil {
		j.logger.Error().
			Str("type", TaskMachineDown).
			Int64("machine_id", p.MachineID).
			Err(err).
			Msg("failed to send machine down alert")
		return err
	}

	return nil
}
