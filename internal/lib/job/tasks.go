package job

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskMaintenanceReminder fires on the scheduled date of a maintenance.
	TaskMaintenanceReminder = "maintenance:reminder"

	// TaskMachineDown fires when an intervention leaves a machine "no operativa".
	TaskMachineDown = "machine:down"
)

// reminderQueue holds the deferred maintenance reminders.
const reminderQueue = "default"

// ReminderHour is the UTC hour of the scheduled date a reminder is delivered at.
const ReminderHour = 8

type MaintenanceReminderPayload struct {
	MaintenanceID   int64  `json:"maintenance_id"`
	MachineID       int64  `json:"machine_id"`
	MachineName     string `json:"machine_name"`
	MaintenanceType string `json:"maintenance_type"`
	ScheduledDate   string `json:"scheduled_date"`
}

type MachineDownPayload struct {
	InterventionID int64  `json:"intervention_id"`
	MachineID      int64  `json:"machine_id"`
	MachineName    string `json:"machine_name"`
	Description    string `json:"description"`
	Date           string `json:"date"`
	Cost           string `json:"cost"`
}

// ReminderTime is when the reminder for a maintenance scheduled on day is
// processed. Dates in the past are processed right away by asynq.
func ReminderTime(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, ReminderHour, 0, 0, 0, time.UTC)
}

// NewMaintenanceReminderTask builds a reminder task deferred to the
// scheduled date. The maintenance id is the task id, so scheduling the
// same maintenance twice enqueues one reminder.
func NewMaintenanceReminderTask(p MaintenanceReminderPayload, at time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskMaintenanceReminder,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(reminderQueue),
		asynq.Timeout(30*time.Second),
		asynq.ProcessAt(at),
		asynq.TaskID(reminderTaskID(p.MaintenanceID)),
	), nil
}

func NewMachineDownTask(p MachineDownPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskMachineDown,
		payload,
		asynq.MaxRetry(5),
		asynq.Queue("critical"),
		asynq.Timeout(30*time.Second),
	), nil
}

func reminderTaskID(maintenanceID int64) string {
	return "maintenance-reminder-" + strconv.FormatInt(maintenanceID, 10)
}
