package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/errs"
	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runLedgerTests exercises a LedgerRepository. newLedger must return an
// empty store whose ids start at 1.
func runLedgerTests(t *testing.T, newLedger func(t *testing.T) LedgerRepository) {
	ctx := context.Background()

	washer := model.NewMachine{Name: "M1", Description: "Lavadora", Status: model.StatusOperational}
	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)

	t.Run("insert and list machines", func(t *testing.T) {
		ledger := newLedger(t)

		id, err := ledger.InsertMachine(ctx, washer)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		id2, err := ledger.InsertMachine(ctx, model.NewMachine{
			Name:         "M2",
			Type:         model.MachineTypeDryer,
			Capacity:     "50",
			CapacityUnit: model.CapacityUnitPounds,
			Status:       model.StatusNonOperational,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), id2)

		machines, err := ledger.ListMachines(ctx)
		require.NoError(t, err)
		require.Len(t, machines, 2)

		assert.Equal(t, model.Machine{ID: 1, Name: "M1", Description: "Lavadora", Status: model.StatusOperational}, machines[0])
		assert.Equal(t, model.MachineTypeDryer, machines[1].Type)
		assert.Equal(t, "50", machines[1].Capacity)
		assert.Equal(t, model.CapacityUnitPounds, machines[1].CapacityUnit)
		assert.Equal(t, model.StatusNonOperational, machines[1].Status)
	})

	t.Run("list machines on empty store", func(t *testing.T) {
		ledger := newLedger(t)

		machines, err := ledger.ListMachines(ctx)
		require.NoError(t, err)
		assert.Empty(t, machines)
		assert.NotNil(t, machines)
	})

	t.Run("get machine", func(t *testing.T) {
		ledger := newLedger(t)

		id, err := ledger.InsertMachine(ctx, washer)
		require.NoError(t, err)

		m, err := ledger.GetMachine(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "M1", m.Name)

		_, err = ledger.GetMachine(ctx, 99)
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})

	t.Run("update status", func(t *testing.T) {
		ledger := newLedger(t)

		id, err := ledger.InsertMachine(ctx, washer)
		require.NoError(t, err)

		require.NoError(t, ledger.UpdateMachineStatus(ctx, id, model.StatusNonOperational))

		m, err := ledger.GetMachine(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusNonOperational, m.Status)

		err = ledger.UpdateMachineStatus(ctx, 42, model.StatusOperational)
		assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	})

	t.Run("status outside the domain is rejected by the store", func(t *testing.T) {
		ledger := newLedger(t)

		id, err := ledger.InsertMachine(ctx, washer)
		require.NoError(t, err)

		err = ledger.UpdateMachineStatus(ctx, id, model.Status("rota"))
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	})

	t.Run("pending maintenance joins machine name", func(t *testing.T) {
		ledger := newLedger(t)

		id, err := ledger.InsertMachine(ctx, washer)
		require.NoError(t, err)

		mid, err := ledger.InsertMaintenance(ctx, model.NewMaintenance{MachineID: id, Type: "preventivo", ScheduledDate: day})
		require.NoError(t, err)
		assert.Equal(t, int64(1), mid)

		pending, err := ledger.ListPendingMaintenance(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "M1", pending[0].MachineName)
		assert.Equal(t, "preventivo", pending[0].Type)
		assert.Equal(t, id, pending[0].MachineID)
		assert.Equal(t, day.Format(model.DateLayout), pending[0].ScheduledDate.Format(model.DateLayout))
	})

	t.Run("maintenance for unknown machine is a reference error", func(t *testing.T) {
		ledger := newLedger(t)

		_, err := ledger.InsertMaintenance(ctx, model.NewMaintenance{MachineID: 7, Type: "preventivo", ScheduledDate: day})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrReference))

		pending, err := ledger.ListPendingMaintenance(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("interventions and history", func(t *testing.T) {
		ledger := newLedger(t)

		id, err := ledger.InsertMachine(ctx, washer)
		require.NoError(t, err)

		for _, in := range []model.NewIntervention{
			{MachineID: id, Date: day, Description: "cambio de rodamientos", Cost: decimal.RequireFromString("150.00"), ResultingStatus: model.StatusOperational},
			{MachineID: id, Date: day.AddDate(0, 0, 1), Description: "inspección", Cost: decimal.Zero, ResultingStatus: model.StatusOperational},
		} {
			_, err := ledger.InsertIntervention(ctx, in)
			require.NoError(t, err)
		}

		count, err := ledger.CountInterventions(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		history, err := ledger.ListInterventions(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "cambio de rodamientos", history[0].Description)
		assert.True(t, decimal.NewFromInt(150).Equal(history[0].Cost))
		assert.True(t, history[1].Cost.IsZero())
		assert.Equal(t, day.Format(model.DateLayout), history[0].Date.Format(model.DateLayout))

		assert.Equal(t, "$150.00", model.NewMachineHistory(id, history).TotalDisplay())
	})

	t.Run("intervention for unknown machine is a reference error", func(t *testing.T) {
		ledger := newLedger(t)

		_, err := ledger.InsertIntervention(ctx, model.NewIntervention{
			MachineID:       3,
			Date:            day,
			Description:     "x",
			Cost:            decimal.NewFromInt(10),
			ResultingStatus: model.StatusOperational,
		})
		assert.Equal(t, errs.KindReference, errs.KindOf(err))
	})

	t.Run("delete machine without dependents", func(t *testing.T) {
		ledger := newLedger(t)

		id, err := ledger.InsertMachine(ctx, washer)
		require.NoError(t, err)
		maintenanceID, err := ledger.InsertMaintenance(ctx, model.NewMaintenance{MachineID: id, Type: "preventivo", ScheduledDate: day})
		require.NoError(t, err)

		res, err := ledger.DeleteMachine(ctx, id, 0)
		require.NoError(t, err)
		assert.True(t, res.Deleted)
		assert.Zero(t, res.Interventions)
		assert.Equal(t, []int64{maintenanceID}, res.Maintenance)

		machines, err := ledger.ListMachines(ctx)
		require.NoError(t, err)
		assert.Empty(t, machines)

		pending, err := ledger.ListPendingMaintenance(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("delete refuses more interventions than confirmed", func(t *testing.T) {
		ledger := newLedger(t)

		id, err := ledger.InsertMachine(ctx, washer)
		require.NoError(t, err)
		_, err = ledger.InsertIntervention(ctx, model.NewIntervention{
			MachineID: id, Date: day, Description: "ajuste", Cost: decimal.NewFromInt(20), ResultingStatus: model.StatusOperational,
		})
		require.NoError(t, err)

		res, err := ledger.DeleteMachine(ctx, id, 0)
		require.NoError(t, err)
		assert.False(t, res.Deleted)
		assert.Equal(t, 1, res.Interventions)
		assert.Empty(t, res.Maintenance)

		_, err = ledger.GetMachine(ctx, id)
		require.NoError(t, err)

		res, err = ledger.DeleteMachine(ctx, id, 1)
		require.NoError(t, err)
		assert.True(t, res.Deleted)

		count, err := ledger.CountInterventions(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, count)

		_, err = ledger.GetMachine(ctx, id)
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})

	t.Run("delete unknown machine", func(t *testing.T) {
		ledger := newLedger(t)

		_, err := ledger.DeleteMachine(ctx, 5, 0)
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})
}
