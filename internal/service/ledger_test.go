package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/config"
	"github.com/deppfellow/maintenance-ledger/internal/database"
	"github.com/deppfellow/maintenance-ledger/internal/errs"
	"github.com/deppfellow/maintenance-ledger/internal/lib/job"
	"github.com/deppfellow/maintenance-ledger/internal/metrics"
	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/deppfellow/maintenance-ledger/internal/repository"
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	reminders []job.MaintenanceReminderPayload
	at        []time.Time
	downs     []job.MachineDownPayload
	cancelled []int64
	err       error
}

func (f *fakeNotifier) EnqueueMaintenanceReminder(_ context.Context, p job.MaintenanceReminderPayload, at time.Time) error {
	f.reminders = append(f.reminders, p)
	f.at = append(f.at, at)
	return f.err
}

func (f *fakeNotifier) EnqueueMachineDownAlert(_ context.Context, p job.MachineDownPayload) error {
	f.downs = append(f.downs, p)
	return f.err
}

func (f *fakeNotifier) CancelMaintenanceReminders(_ context.Context, ids []int64) error {
	f.cancelled = append(f.cancelled, ids...)
	return f.err
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &server.Server{
		Config: &config.Config{
			Database: config.DatabaseConfig{Driver: config.DriverSQLite},
			Ledger:   config.LedgerConfig{ConfirmTTL: time.Minute},
		},
		Logger:  &logger,
		SQLite:  db,
		Metrics: metrics.New(),
	}
}

func newTestLedger(t *testing.T) *LedgerService {
	t.Helper()
	s := newTestServer(t)
	return NewLedgerService(s, repository.NewSQLiteLedger(s.SQLite.DB), nil)
}

func newNotifyingLedger(t *testing.T) (*LedgerService, *fakeNotifier) {
	t.Helper()
	s := newTestServer(t)
	n := &fakeNotifier{}
	return NewLedgerService(s, repository.NewSQLiteLedger(s.SQLite.DB), n), n
}

func addMachine(t *testing.T, svc *LedgerService, name string) int64 {
	t.Helper()
	id, err := svc.AddMachine(context.Background(), AddMachineInput{Name: name, Description: "Lavadora", Status: model.StatusOperational})
	require.NoError(t, err)
	return id
}

func TestLedgerScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestLedger(t)

	id, err := svc.AddMachine(ctx, AddMachineInput{Name: "M1", Description: "Lavadora", Status: model.StatusOperational})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = svc.RegisterIntervention(ctx, RegisterInterventionInput{
		MachineID:       1,
		Description:     "cambio de motor",
		Cost:            decimal.RequireFromString("150.00"),
		ResultingStatus: model.StatusOperational,
	})
	require.NoError(t, err)

	history, err := svc.GetMachineHistory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "150.00", history.Total.StringFixed(2))

	_, err = svc.RegisterIntervention(ctx, RegisterInterventionInput{
		MachineID:       1,
		Description:     "revisión",
		Cost:            decimal.RequireFromString("0.00"),
		ResultingStatus: model.StatusOperational,
	})
	require.NoError(t, err)

	history, err = svc.GetMachineHistory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history.Interventions, 2)
	assert.Equal(t, "$150.00", history.TotalDisplay())

	// The first request arms the confirmation and announces the
	// interventions, the second deletes everything.
	outcome, err := svc.DeleteMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, DeletePendingConfirm, outcome.State)
	assert.Equal(t, 2, outcome.Interventions)
	assert.False(t, outcome.Deleted)

	machines, err := svc.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 1)

	outcome, err = svc.DeleteMachine(ctx, 1)
	require.NoError(t, err)
	assert.True(t, outcome.Deleted)
	assert.Equal(t, DeleteIdle, outcome.State)
	assert.Equal(t, "Machine 1 and its 2 interventions deleted.", outcome.Message)

	machines, err = svc.ListMachines(ctx)
	require.NoError(t, err)
	assert.Empty(t, machines)

	history, err = svc.GetMachineHistory(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, history.Interventions)
	assert.Equal(t, "$0.00", history.TotalDisplay())
}

func TestAddMachine(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   AddMachineInput
		wantErr errs.Kind
		field   string
	}{
		{
			name:  "free text description",
			input: AddMachineInput{Name: "M1", Description: "Lavadora", Status: model.StatusOperational},
		},
		{
			name: "technical data",
			input: AddMachineInput{
				Name:         "Generador",
				Type:         model.MachineTypeSteamGenerator,
				Capacity:     "30",
				CapacityUnit: model.CapacityUnitHorsepower,
				Status:       model.StatusNonOperational,
			},
		},
		{
			name:    "empty name",
			input:   AddMachineInput{Name: "  ", Status: model.StatusOperational},
			wantErr: errs.KindValidation,
			field:   "name",
		},
		{
			name:    "status outside the domain",
			input:   AddMachineInput{Name: "M1", Status: "rota"},
			wantErr: errs.KindValidation,
			field:   "status",
		},
		{
			name:    "missing status",
			input:   AddMachineInput{Name: "M1"},
			wantErr: errs.KindValidation,
			field:   "status",
		},
		{
			name:    "unknown machine type",
			input:   AddMachineInput{Name: "M1", Type: "Tractor", Status: model.StatusOperational},
			wantErr: errs.KindValidation,
			field:   "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestLedger(t)

			id, err := svc.AddMachine(ctx, tt.input)

			machines, listErr := svc.ListMachines(ctx)
			require.NoError(t, listErr)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, errs.KindOf(err))

				var ledgerErr *errs.Error
				require.True(t, errors.As(err, &ledgerErr))
				require.NotEmpty(t, ledgerErr.Fields)
				assert.Equal(t, tt.field, ledgerErr.Fields[0].Field)
				assert.Empty(t, machines)
				return
			}

			require.NoError(t, err)
			require.Len(t, machines, 1)
			assert.Equal(t, id, machines[0].ID)
			assert.Equal(t, tt.input.Status, machines[0].Status)
			assert.Equal(t, tt.input.Type, machines[0].Type)
		})
	}
}

func TestUpdateMachineStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestLedger(t)
	id := addMachine(t, svc, "M1")

	require.NoError(t, svc.UpdateMachineStatus(ctx, id, model.StatusNonOperational))

	m, err := svc.GetMachine(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNonOperational, m.Status)

	err = svc.UpdateMachineStatus(ctx, id, "averiada")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	err = svc.UpdateMachineStatus(ctx, 404, model.StatusOperational)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestScheduleMaintenance(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newNotifyingLedger(t)
	id := addMachine(t, svc, "M1")

	when := time.Date(2026, time.November, 2, 15, 30, 0, 0, time.UTC)
	mid, err := svc.ScheduleMaintenance(ctx, ScheduleMaintenanceInput{MachineID: id, Type: "preventivo", ScheduledDate: when})
	require.NoError(t, err)

	pending, err := svc.ListPendingMaintenance(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, mid, pending[0].ID)
	assert.Equal(t, "M1", pending[0].MachineName)
	assert.Equal(t, "2026-11-02", pending[0].ScheduledDate.Format(model.DateLayout))

	require.Len(t, notifier.reminders, 1)
	assert.Equal(t, mid, notifier.reminders[0].MaintenanceID)
	assert.Equal(t, "2026-11-02", notifier.reminders[0].ScheduledDate)
	assert.Equal(t, job.ReminderTime(when), notifier.at[0])

	_, err = svc.ScheduleMaintenance(ctx, ScheduleMaintenanceInput{MachineID: 99, Type: "preventivo", ScheduledDate: when})
	assert.True(t, errors.Is(err, errs.ErrReference))

	_, err = svc.ScheduleMaintenance(ctx, ScheduleMaintenanceInput{MachineID: id, ScheduledDate: when})
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = svc.ScheduleMaintenance(ctx, ScheduleMaintenanceInput{MachineID: id, Type: "correctivo"})
	assert.True(t, errors.Is(err, errs.ErrValidation))

	assert.Len(t, notifier.reminders, 1)
}

func TestRegisterIntervention(t *testing.T) {
	ctx := context.Background()

	t.Run("negative cost", func(t *testing.T) {
		svc := newTestLedger(t)
		id := addMachine(t, svc, "M1")

		_, err := svc.RegisterIntervention(ctx, RegisterInterventionInput{
			MachineID:       id,
			Description:     "ajuste",
			Cost:            decimal.RequireFromString("-0.01"),
			ResultingStatus: model.StatusOperational,
		})
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))

		history, err := svc.GetMachineHistory(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, history.Interventions)
	})

	t.Run("cost beyond range", func(t *testing.T) {
		svc := newTestLedger(t)
		id := addMachine(t, svc, "M1")

		for _, cost := range []string{"1e400", "1e39"} {
			_, err := svc.RegisterIntervention(ctx, RegisterInterventionInput{
				MachineID:       id,
				Description:     "ajuste",
				Cost:            decimal.RequireFromString(cost),
				ResultingStatus: model.StatusOperational,
			})
			assert.Equal(t, errs.KindValidation, errs.KindOf(err), cost)
		}

		_, err := svc.RegisterIntervention(ctx, RegisterInterventionInput{
			MachineID:       id,
			Description:     "ajuste",
			Cost:            decimal.NewFromInt(1_000_000),
			ResultingStatus: model.StatusOperational,
		})
		require.NoError(t, err)

		history, err := svc.GetMachineHistory(ctx, id)
		require.NoError(t, err)
		require.Len(t, history.Interventions, 1)
		assert.Equal(t, "$1000000.00", history.TotalDisplay())
	})

	t.Run("unknown machine", func(t *testing.T) {
		svc := newTestLedger(t)

		_, err := svc.RegisterIntervention(ctx, RegisterInterventionInput{
			MachineID:       8,
			Description:     "ajuste",
			Cost:            decimal.NewFromInt(5),
			ResultingStatus: model.StatusOperational,
		})
		assert.Equal(t, errs.KindReference, errs.KindOf(err))
	})

	t.Run("date defaults to today", func(t *testing.T) {
		svc := newTestLedger(t)
		today := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return today }
		id := addMachine(t, svc, "M1")

		_, err := svc.RegisterIntervention(ctx, RegisterInterventionInput{
			MachineID:       id,
			Description:     "lubricación",
			Cost:            decimal.NewFromInt(12),
			ResultingStatus: model.StatusOperational,
		})
		require.NoError(t, err)

		history, err := svc.GetMachineHistory(ctx, id)
		require.NoError(t, err)
		require.Len(t, history.Interventions, 1)
		assert.Equal(t, "2026-10-15", history.Interventions[0].Date.Format(model.DateLayout))
	})

	t.Run("status is not derived from the intervention", func(t *testing.T) {
		svc, notifier := newNotifyingLedger(t)
		id := addMachine(t, svc, "M1")

		_, err := svc.RegisterIntervention(ctx, RegisterInterventionInput{
			MachineID:       id,
			Description:     "motor quemado",
			Cost:            decimal.RequireFromString("80.5"),
			ResultingStatus: model.StatusNonOperational,
		})
		require.NoError(t, err)

		m, err := svc.GetMachine(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusOperational, m.Status)

		require.Len(t, notifier.downs, 1)
		assert.Equal(t, "M1", notifier.downs[0].MachineName)
		assert.Equal(t, "$80.50", notifier.downs[0].Cost)
	})

	t.Run("enqueue failure does not fail the write", func(t *testing.T) {
		svc, notifier := newNotifyingLedger(t)
		notifier.err = errors.New("redis unavailable")
		id := addMachine(t, svc, "M1")

		_, err := svc.RegisterIntervention(ctx, RegisterInterventionInput{
			MachineID:       id,
			Description:     "motor quemado",
			Cost:            decimal.NewFromInt(1),
			ResultingStatus: model.StatusNonOperational,
		})
		require.NoError(t, err)

		count, err := svc.repo.CountInterventions(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestListMachinesKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	svc := newTestLedger(t)

	for _, name := range []string{"C", "A", "B"} {
		addMachine(t, svc, name)
	}

	machines, err := svc.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{machines[0].Name, machines[1].Name, machines[2].Name})
}
