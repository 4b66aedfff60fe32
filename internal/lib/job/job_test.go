package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	to        []string
	reminders []email.MaintenanceReminder
	downs     []email.MachineDown
	err       error
}

func (f *fakeMailer) SendMaintenanceReminder(to string, data email.MaintenanceReminder) error {
	f.to = append(f.to, to)
	f.reminders = append(f.reminders, data)
	return f.err
}

func (f *fakeMailer) SendMachineDownAlert(to string, data email.MachineDown) error {
	f.to = append(f.to, to)
	f.downs = append(f.downs, data)
	return f.err
}

func newTestJobService(m Mailer) *JobService {
	logger := zerolog.Nop()
	return &JobService{mailer: m, recipient: "taller@example.com", logger: &logger}
}

func TestReminderTime(t *testing.T) {
	day := time.Date(2026, time.March, 14, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 14, ReminderHour, 0, 0, 0, time.UTC), ReminderTime(day))
}

func TestMaintenanceReminderTask(t *testing.T) {
	task, err := NewMaintenanceReminderTask(MaintenanceReminderPayload{MaintenanceID: 4, MachineName: "M1"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, TaskMaintenanceReminder, task.Type())
	assert.Equal(t, "maintenance-reminder-4", reminderTaskID(4))
}

func TestHandleMaintenanceReminder(t *testing.T) {
	mailer := &fakeMailer{}
	j := newTestJobService(mailer)

	payload, err := json.Marshal(MaintenanceReminderPayload{
		MaintenanceID:   4,
		MachineID:       1,
		MachineName:     "M1",
		MaintenanceType: "preventivo",
		ScheduledDate:   "2026-03-14",
	})
	require.NoError(t, err)

	require.NoError(t, j.handleMaintenanceReminderTask(context.Background(), asynq.NewTask(TaskMaintenanceReminder, payload)))

	require.Len(t, mailer.reminders, 1)
	assert.Equal(t, []string{"taller@example.com"}, mailer.to)
	assert.Equal(t, "preventivo", mailer.reminders[0].MaintenanceType)
	assert.Equal(t, "2026-03-14", mailer.reminders[0].ScheduledDate)
}

func TestHandleMachineDownPropagatesSendError(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("provider down")}
	j := newTestJobService(mailer)

	payload, err := json.Marshal(MachineDownPayload{MachineID: 2, MachineName: "M2", Cost: "$10.00"})
	require.NoError(t, err)

	err = j.handleMachineDownTask(context.Background(), asynq.NewTask(TaskMachineDown, payload))
	assert.EqualError(t, err, "provider down")
	require.Len(t, mailer.downs, 1)
	assert.Equal(t, "$10.00", mailer.downs[0].Cost)
}

func TestHandleMalformedPayloadSkipsRetry(t *testing.T) {
	j := newTestJobService(&fakeMailer{})

	err := j.handleMachineDownTask(context.Background(), asynq.NewTask(TaskMachineDown, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

type fakeInspector struct {
	deleted []string
	errs    map[string]error
}

func (f *fakeInspector) DeleteTask(queue, id string) error {
	f.deleted = append(f.deleted, queue+"/"+id)
	return f.errs[id]
}

func (f *fakeInspector) Close() error { return nil }

func TestCancelMaintenanceReminders(t *testing.T) {
	inspector := &fakeInspector{errs: map[string]error{
		"maintenance-reminder-2": asynq.ErrTaskNotFound,
		"maintenance-reminder-3": errors.New("redis unavailable"),
	}}
	j := newTestJobService(&fakeMailer{})
	j.inspector = inspector

	err := j.CancelMaintenanceReminders(context.Background(), []int64{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maintenance 3")
	assert.NotContains(t, err.Error(), "maintenance 2")
	assert.Equal(t, []string{
		"default/maintenance-reminder-1",
		"default/maintenance-reminder-2",
		"default/maintenance-reminder-3",
	}, inspector.deleted)

	require.NoError(t, j.CancelMaintenanceReminders(context.Background(), []int64{1, 2}))
}
