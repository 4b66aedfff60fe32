package repository

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/deppfellow/maintenance-ledger/internal/database"
	"github.com/deppfellow/maintenance-ledger/internal/errs"
	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *sqlx.DB {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db.DB
}

func newTestSQLite(t *testing.T) LedgerRepository {
	t.Helper()
	return NewSQLiteLedger(openTestSQLite(t))
}

func TestSQLiteLedger(t *testing.T) {
	runLedgerTests(t, newTestSQLite)
}

func TestSQLiteNonFiniteCostIsStoreError(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)
	ledger := NewSQLiteLedger(db)

	id, err := ledger.InsertMachine(ctx, model.NewMachine{Name: "M1", Status: model.StatusOperational})
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO intervenciones (maquinaria_id, fecha, descripcion, costo, estado_resultante)
		VALUES (?, '2026-03-14', 'ajuste', ?, 'operativa')`, id, math.Inf(1))
	require.NoError(t, err)

	require.NotPanics(t, func() {
		_, err = ledger.ListInterventions(ctx, id)
	})
	assert.Equal(t, errs.KindStore, errs.KindOf(err))
}
