package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/deppfellow/maintenance-ledger/internal/errs"
	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/deppfellow/maintenance-ledger/internal/sqlerr"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// SQLiteLedger is the LedgerRepository of the embedded file database.
//
// The database is opened with a single connection, so statements inside a
// transaction must go through the transaction handle.
type SQLiteLedger struct {
	db *sqlx.DB
}

func NewSQLiteLedger(db *sqlx.DB) *SQLiteLedger {
	return &SQLiteLedger{db: db}
}

type sqliteMachineRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"nombre"`
	Description  sql.NullString `db:"descripcion"`
	Type         sql.NullString `db:"tipo"`
	Capacity     sql.NullString `db:"capacidad"`
	CapacityUnit sql.NullString `db:"unidad_medida"`
	Status       string         `db:"estado"`
}

func (r sqliteMachineRow) toModel() model.Machine {
	return model.Machine{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description.String,
		Type:         model.MachineType(r.Type.String),
		Capacity:     r.Capacity.String,
		CapacityUnit: model.CapacityUnit(r.CapacityUnit.String),
		Status:       model.Status(r.Status),
	}
}

type sqlitePendingRow struct {
	ID            int64        `db:"id"`
	MachineID     int64        `db:"maquinaria_id"`
	MachineName   string       `db:"nombre"`
	Type          string       `db:"tipo"`
	ScheduledDate sql.NullTime `db:"fecha_programada"`
}

type sqliteInterventionRow struct {
	ID              int64           `db:"id"`
	MachineID       int64           `db:"maquinaria_id"`
	Date            sql.NullTime    `db:"fecha"`
	Description     string          `db:"descripcion"`
	Cost            sql.NullFloat64 `db:"costo"`
	ResultingStatus sql.NullString  `db:"estado_resultante"`
}

func (r sqliteInterventionRow) toModel() (model.Intervention, error) {
	cost := decimal.Zero
	if r.Cost.Valid {
		if err := finiteCost(r.Cost.Float64); err != nil {
			return model.Intervention{}, err
		}
		cost = decimal.NewFromFloat(r.Cost.Float64)
	}
	return model.Intervention{
		ID:              r.ID,
		MachineID:       r.MachineID,
		Date:            r.Date.Time,
		Description:     r.Description,
		Cost:            cost,
		ResultingStatus: model.Status(r.ResultingStatus.String),
	}, nil
}

func (l *SQLiteLedger) InsertMachine(ctx context.Context, m model.NewMachine) (int64, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO maquinaria (nombre, descripcion, tipo, capacidad, unidad_medida, estado)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.Name,
		nullable(m.Description),
		nullable(string(m.Type)),
		nullable(m.Capacity),
		nullable(string(m.CapacityUnit)),
		string(m.Status),
	)
	if err != nil {
		return 0, sqlerr.Classify("insert machine", err)
	}
	return lastInsertID("insert machine", res)
}

func (l *SQLiteLedger) GetMachine(ctx context.Context, id int64) (model.Machine, error) {
	var row sqliteMachineRow
	err := l.db.GetContext(ctx, &row, `SELECT `+machineColumns+` FROM maquinaria WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Machine{}, errs.NewNotFound("machine", id)
	}
	if err != nil {
		return model.Machine{}, sqlerr.Classify("get machine", err)
	}
	return row.toModel(), nil
}

func (l *SQLiteLedger) ListMachines(ctx context.Context) ([]model.Machine, error) {
	var rows []sqliteMachineRow
	if err := l.db.SelectContext(ctx, &rows, `SELECT `+machineColumns+` FROM maquinaria ORDER BY id`); err != nil {
		return nil, sqlerr.Classify("list machines", err)
	}

	machines := make([]model.Machine, 0, len(rows))
	for _, row := range rows {
		machines = append(machines, row.toModel())
	}
	return machines, nil
}

func (l *SQLiteLedger) UpdateMachineStatus(ctx context.Context, id int64, status model.Status) error {
	res, err := l.db.ExecContext(ctx, `UPDATE maquinaria SET estado = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return sqlerr.Classify("update machine status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return sqlerr.Classify("update machine status", err)
	}
	if n == 0 {
		return errs.NewNotFound("machine", id)
	}
	return nil
}

func (l *SQLiteLedger) InsertMaintenance(ctx context.Context, m model.NewMaintenance) (int64, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO mantenimiento (maquinaria_id, tipo, fecha_programada)
		VALUES (?, ?, ?)`,
		m.MachineID, m.Type, m.ScheduledDate.Format(model.DateLayout),
	)
	if err != nil {
		return 0, referenceOr(sqlerr.Classify("insert maintenance", err), m.MachineID)
	}
	return lastInsertID("insert maintenance", res)
}

func (l *SQLiteLedger) ListPendingMaintenance(ctx context.Context) ([]model.PendingMaintenance, error) {
	var rows []sqlitePendingRow
	err := l.db.SelectContext(ctx, &rows, `
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
		pending = append(pending, model.PendingMaintenance{
			ID:            row.ID,
			MachineID:     row.MachineID,
			MachineName:   row.MachineName,
			Type:          row.Type,
			ScheduledDate: row.ScheduledDate.Time,
		})
	}
	return pending, nil
}

func (l *SQLiteLedger) InsertIntervention(ctx context.Context, in model.NewIntervention) (int64, error) {
	cost, _ := in.Cost.Float64()

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO intervenciones (maquinaria_id, fecha, descripcion, costo, estado_resultante)
		VALUES (?, ?, ?, ?, ?)`,
		in.MachineID,
		in.Date.Format(model.DateLayout),
		in.Description,
		cost,
		string(in.ResultingStatus),
	)
	if err != nil {
		return 0, referenceOr(sqlerr.Classify("insert intervention", err), in.MachineID)
	}
	return lastInsertID("insert intervention", res)
}

func (l *SQLiteLedger) ListInterventions(ctx context.Context, machineID int64) ([]model.Intervention, error) {
	var rows []sqliteInterventionRow
	err := l.db.SelectContext(ctx, &rows, `
		SELECT id, maquinaria_id, fecha, descripcion, costo, estado_resultante
		FROM intervenciones
		WHERE maquinaria_id = ?
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

func (l *SQLiteLedger) CountInterventions(ctx context.Context, machineID int64) (int, error) {
	var count int
	if err := l.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM intervenciones WHERE maquinaria_id = ?`, machineID); err != nil {
		return 0, sqlerr.Classify("count interventions", err)
	}
	return count, nil
}

func (l *SQLiteLedger) DeleteMachine(ctx context.Context, id int64, maxInterventions int) (DeleteResult, error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return DeleteResult{}, sqlerr.Classify("delete machine", err)
	}
	defer tx.Rollback()

	result, err := deleteMachineTx(ctx, tx, id, maxInterventions)
	if err != nil {
		return DeleteResult{}, sqlerr.Classify("delete machine", err)
	}
	if !result.Deleted {
		return result, nil
	}

	if err := tx.Commit(); err != nil {
		return DeleteResult{}, sqlerr.Classify("delete machine", err)
	}
	return result, nil
}

func deleteMachineTx(ctx context.Context, tx *sqlx.Tx, id int64, maxInterventions int) (DeleteResult, error) {
	var result DeleteResult

	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM maquinaria WHERE id = ?`, id); err != nil {
		return result, err
	}
	if exists == 0 {
		return result, errs.NewNotFound("machine", id)
	}

	if err := tx.GetContext(ctx, &result.Interventions, `SELECT COUNT(*) FROM intervenciones WHERE maquinaria_id = ?`, id); err != nil {
		return result, err
	}
	if result.Interventions > maxInterventions {
		return result, nil
	}

	if err := tx.SelectContext(ctx, &result.Maintenance, `SELECT id FROM mantenimiento WHERE maquinaria_id = ? ORDER BY id`, id); err != nil {
		return result, err
	}

	for _, stmt := range []string{
		`DELETE FROM intervenciones WHERE maquinaria_id = ?`,
		`DELETE FROM mantenimiento WHERE maquinaria_id = ?`,
		`DELETE FROM maquinaria WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return result, err
		}
	}

	result.Deleted = true
	return result, nil
}

func lastInsertID(op string, res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, sqlerr.Classify(op, err)
	}
	return id, nil
}
