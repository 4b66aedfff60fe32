package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/errs"
	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/deppfellow/maintenance-ledger/internal/sqlerr"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresLedger is the LedgerRepository of the hosted PostgreSQL backend.
// Each call acquires a pooled connection and releases it before returning.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

type pgMachineRow struct {
	ID           int64   `db:"id"`
	Name         string  `db:"nombre"`
	Description  *string `db:"descripcion"`
	Type         *string `db:"tipo"`
	Capacity     *string `db:"capacidad"`
	CapacityUnit *string `db:"unidad_medida"`
	Status       string  `db:"estado"`
}

func (r pgMachineRow) toModel() model.Machine {
	return model.Machine{
		ID:           r.ID,
		Name:         r.Name,
		Description:  deref(r.Description),
		Type:         model.MachineType(deref(r.Type)),
		Capacity:     deref(r.Capacity),
		CapacityUnit: model.CapacityUnit(deref(r.CapacityUnit)),
		Status:       model.Status(r.Status),
	}
}

type pgPendingRow struct {
	ID            int64      `db:"id"`
	MachineID     int64      `db:"maquinaria_id"`
	MachineName   string     `db:"nombre"`
	Type          string     `db:"tipo"`
	ScheduledDate *time.Time `db:"fecha_programada"`
}

// costo is REAL, a 4-byte float in PostgreSQL.
type pgInterventionRow struct {
	ID              int64     `db:"id"`
	MachineID       int64     `db:"maquinaria_id"`
	Date            time.Time `db:"fecha"`
	Description     string    `db:"descripcion"`
	Cost            *float32  `db:"costo"`
	ResultingStatus *string   `db:"estado_resultante"`
}

func (r pgInterventionRow) toModel() (model.Intervention, error) {
	cost := decimal.Zero
	if r.Cost != nil {
		if err := finiteCost(float64(*r.Cost)); err != nil {
			return model.Intervention{}, err
		}
		cost = decimal.NewFromFloat32(*r.Cost)
	}
	return model.Intervention{
		ID:              r.ID,
		MachineID:       r.MachineID,
		Date:            r.Date,
		Description:     r.Description,
		Cost:            cost,
		ResultingStatus: model.Status(deref(r.ResultingStatus)),
	}, nil
}

const machineColumns = `id, nombre, descripcion, tipo, capacidad, unidad_medida, estado`

func (l *PostgresLedger) InsertMachine(ctx context.Context, m model.NewMachine) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx, `
		INSERT INTO maquinaria (nombre, descripcion, tipo, capacidad, unidad_medida, estado)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		m.Name,
		nullable(m.Description),
		nullable(string(m.Type)),
		nullable(m.Capacity),
		nullable(string(m.CapacityUnit)),
		string(m.Status),
	).Scan(&id)
	if err != nil {
		return 0, sqlerr.Classify("insert machine", err)
	}
	return id, nil
}

func (l *PostgresLedger) GetMachine(ctx context.Context, id int64) (model.Machine, error) {
	var row pgMachineRow
	err := pgxscan.Get(ctx, l.pool, &row, `SELECT `+machineColumns+` FROM maquinaria WHERE id = $1`, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return model.Machine{}, errs.NewNotFound("machine", id)
		}
		return model.Machine{}, sqlerr.Classify("get machine", err)
	}
	return row.toModel(), nil
}

func (l *PostgresLedger) ListMachines(ctx context.Context) ([]model.Machine, error) {
	var rows []pgMachineRow
	if err := pgxscan.Select(ctx, l.pool, &rows, `SELECT `+machineColumns+` FROM maquinaria ORDER BY id`); err != nil {
		return nil, sqlerr.Classify("list machines", err)
	}

	machines := make([]model.Machine, 0, len(rows))
	for _, row := range rows {
		machines = append(machines, row.toModel())
	}
	return machines, nil
}

func (l *PostgresLedger) UpdateMachineStatus(ctx context.Context, id int64, status model.Status) error {
	tag, err := l.pool.Exec(ctx, `UPDATE maquinaria SET estado = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return sqlerr.Classify("update machine status", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFound("machine", id)
	}
	return nil
}

func (l *PostgresLedger) InsertMaintenance(ctx context.Context, m model.NewMaintenance) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx, `
		INSERT INTO mantenimiento (maquinaria_id, tipo, fecha_programada)
		VALUES ($1, $2, $3)
		RETURNING id`,
		m.MachineID, m.Type, model.Date(m.ScheduledDate),
	).Scan(&id)
	if err != nil {
		return 0, referenceOr(sqlerr.Classify("insert maintenance", err), m.MachineID)
	}
	return id, nil
}

func (l *PostgresLedger) ListPendingMaintenance(ctx context.Context) ([]model.PendingMaintenance, error) {
	var rows []pgPendingRow
	err := pgxscan.Select(ctx, l.pool, &rows, `
		SELECT mt.id, mt.maquinaria_id, m.nombre, mt.tipo, mt.fecha_programada
		FROM mantenimiento mt
		JOIN maquinaria m ON mt.maquinaria_id = m.id
		WHERE mt.completado = FALSE
		ORDER BY mt.id`)
	if err != nil {
		return nil, sqlerr.Classify("list pending maintenance", err)
	}

	pending := make([]model.PendingMaintenance, 0, len(rows))
	for _, row := range rows {
		p := model.PendingMaintenance{
			ID:          row.ID,
			MachineID:   row.MachineID,
			MachineName: row.MachineName,
			Type:        row.Type,
		}
		if row.ScheduledDate != nil {
			p.ScheduledDate = *row.ScheduledDate
		}
		pending = append(pending, p)
	}
	return pending, nil
}

func (l *PostgresLedger) InsertIntervention(ctx context.Context, in model.NewIntervention) (int64, error) {
	cost, err := realCost(in.Cost)
	if err != nil {
		return 0, err
	}

	var id int64
	err = l.pool.QueryRow(ctx, `
		INSERT INTO intervenciones (maquinaria_id, fecha, descripcion, costo, estado_resultante)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		in.MachineID,
		model.Date(in.Date),
		in.Description,
		cost,
		string(in.ResultingStatus),
	).Scan(&id)
	if err != nil {
		return 0, referenceOr(sqlerr.Classify("insert intervention", err), in.MachineID)
	}
	return id, nil
}

// realCost converts a cost to costo. REAL keeps about seven significant
// digits; a cost it would round is rejected rather than stored altered.
func realCost(d decimal.Decimal) (float32, error) {
	f64, _ := d.Float64()
	f := float32(f64)
	if math.IsInf(float64(f), 0) {
		return 0, errs.NewValidation("Validation failed", errs.FieldError{
			Field: "cost",
			Error: "must not exceed " + model.MaxCost.String(),
		})
	}
	if !decimal.NewFromFloat32(f).Equal(d) {
		return 0, errs.NewValidation("Validation failed", errs.FieldError{
			Field: "cost",
			Error: "has more significant digits than the store keeps",
		})
	}
	return f, nil
}

func (l *PostgresLedger) ListInterventions(ctx context.Context, machineID int64) ([]model.Intervention, error) {
	var rows []pgInterventionRow
	err := pgxscan.Select(ctx, l.pool, &rows, `
		SELECT id, maquinaria_id, fecha, descripcion, costo, estado_resultante
		FROM intervenciones
		WHERE maquinaria_id = $1
		ORDER BY fecha, id`, machineID)
	if err != nil {
		return nil, sqlerr.Classify("list interventions", err)
	}

	interventions := make([]model.Intervention, 0, len(rows))
	for _, row := range rows {
		in, err := row.toModel()
		if err != nil {
			return nil, err
		}
		interventions = append(interventions, in)
	}
	return interventions, nil
}

func (l *PostgresLedger) CountInterventions(ctx context.Context, machineID int64) (int, error) {
	var count int
	err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM intervenciones WHERE maquinaria_id = $1`, machineID).Scan(&count)
	if err != nil {
		return 0, sqlerr.Classify("count interventions", err)
	}
	return count, nil
}

func (l *PostgresLedger) DeleteMachine(ctx context.Context, id int64, maxInterventions int) (DeleteResult, error) {
	var result DeleteResult

	err := pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		// Row lock: concurrent intervention inserts wait on the FK check
		// until this transaction ends.
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM maquinaria WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NewNotFound("machine", id)
		}
		if err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM intervenciones WHERE maquinaria_id = $1`, id).Scan(&result.Interventions); err != nil {
			return err
		}
		if result.Interventions > maxInterventions {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM intervenciones WHERE maquinaria_id = $1`, id); err != nil {
			return err
		}
		if err := pgxscan.Select(ctx, tx, &result.Maintenance, `DELETE FROM mantenimiento WHERE maquinaria_id = $1 RETURNING id`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM maquinaria WHERE id = $1`, id); err != nil {
			return err
		}

		result.Deleted = true
		return nil
	})
	if err != nil {
		return DeleteResult{}, sqlerr.Classify("delete machine", err)
	}
	return result, nil
}

// referenceOr names the missing machine when err is a reference error.
func referenceOr(err error, machineID int64) error {
	if errs.KindOf(err) == errs.KindReference {
		return errs.NewReference("machine", machineID)
	}
	return err
}
