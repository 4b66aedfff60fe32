// Package job runs the ledger's notification jobs on Asynq.
//
// The ledger enqueues tasks through the client; the worker server, backed by
// the same Redis, delivers them as emails.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/config"
	"github.com/deppfellow/maintenance-ledger/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Mailer delivers the notification emails.
type Mailer interface {
	SendMaintenanceReminder(to string, data email.MaintenanceReminder) error
	SendMachineDownAlert(to string, data email.MachineDown) error
}

// taskDeleter removes queued tasks. *asynq.Inspector implements it.
type taskDeleter interface {
	DeleteTask(queue, id string) error
	Close() error
}

// JobService holds the Asynq client (enqueue), inspector (cancel) and
// server (worker execution).
type JobService struct {
	Client *asynq.Client

	inspector taskDeleter
	server    *asynq.Server
	mailer    Mailer
	recipient string
	logger    *zerolog.Logger
}

// NewJobService creates a JobService on the Redis of cfg. Down alerts go to
// the "critical" queue, which gets the largest worker share.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	return &JobService{
		Client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		server:    server,
		recipient: cfg.Notifications.Recipient,
		logger:    logger,
	}
}

// InitHandlers sets up the email client used by the task handlers.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.mailer = email.NewClient(cfg, logger)
}

// Mux routes task types to their handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskMaintenanceReminder, j.handleMaintenanceReminderTask)
	mux.HandleFunc(TaskMachineDown, j.handleMachineDownTask)
	return mux
}

// Start starts the worker server. It does not block.
func (j *JobService) Start() error {
	j.logger.Info().Msg("starting background job server")
	return j.server.Start(j.Mux())
}

// Stop waits for running tasks and closes the enqueue client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Error().Err(err).Msg("failed to close job client")
	}
	if err := j.inspector.Close(); err != nil {
		j.logger.Error().Err(err).Msg("failed to close job inspector")
	}
}

// EnqueueMaintenanceReminder schedules the reminder of a maintenance on its date.
func (j *JobService) EnqueueMaintenanceReminder(ctx context.Context, p MaintenanceReminderPayload, at time.Time) error {
	task, err := NewMaintenanceReminderTask(p, at)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	j.logger.Info().
		Str("task_id", info.ID).
		Int64("maintenance_id", p.MaintenanceID).
		Time("process_at", info.NextProcessAt).
		Msg("maintenance reminder enqueued")
	return nil
}

// EnqueueMachineDownAlert queues an immediate alert for a machine that
// went out of service.
func (j *JobService) EnqueueMachineDownAlert(ctx context.Context, p MachineDownPayload) error {
	task, err := NewMachineDownTask(p)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	j.logger.Info().
		Str("task_id", info.ID).
		Int64("machine_id", p.MachineID).
		Msg("machine down alert enqueued")
	return nil
}

// CancelMaintenanceReminders drops the pending reminders of the given
// maintenance. Reminders already delivered or never enqueued are skipped.
func (j *JobService) CancelMaintenanceReminders(ctx context.Context, maintenanceIDs []int64) error {
	var failed error
	for _, id := range maintenanceIDs {
		if err := ctx.Err(); err != nil {
			return errors.Join(failed, err)
		}

		err := j.inspector.DeleteTask(reminderQueue, reminderTaskID(id))
		switch {
		case err == nil:
			j.logger.Info().
				Int64("maintenance_id", id).
				Msg("maintenance reminder cancelled")
		case errors.Is(err, asynq.ErrTaskNotFound), errors.Is(err, asynq.ErrQueueNotFound):
		default:
			failed = errors.Join(failed, fmt.Errorf("cancel reminder of maintenance %d: %w", id, err))
		}
	}
	return failed
}
