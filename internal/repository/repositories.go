package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/deppfellow/maintenance-ledger/internal/config"
	"github.com/deppfellow/maintenance-ledger/internal/errs"
	"github.com/deppfellow/maintenance-ledger/internal/model"
	"github.com/deppfellow/maintenance-ledger/internal/server"
)

// LedgerRepository persists machines, scheduled maintenance and interventions.
//
// Every method is a single round trip (or a single transaction) that has
// committed when it returns.
type LedgerRepository interface {
	InsertMachine(ctx context.Context, m model.NewMachine) (int64, error)
	GetMachine(ctx context.Context, id int64) (model.Machine, error)
	ListMachines(ctx context.Context) ([]model.Machine, error)
	UpdateMachineStatus(ctx context.Context, id int64, status model.Status) error

	InsertMaintenance(ctx context.Context, m model.NewMaintenance) (int64, error)
	ListPendingMaintenance(ctx context.Context) ([]model.PendingMaintenance, error)

	InsertIntervention(ctx context.Context, in model.NewIntervention) (int64, error)
	ListInterventions(ctx context.Context, machineID int64) ([]model.Intervention, error)
	CountInterventions(ctx context.Context, machineID int64) (int, error)

	// DeleteMachine removes a machine, its interventions and its scheduled
	// maintenance in one transaction. It refuses (Deleted=false) when the
	// machine has more than maxInterventions interventions, the number the
	// caller confirmed deleting.
	DeleteMachine(ctx context.Context, id int64, maxInterventions int) (DeleteResult, error)
}

// DeleteResult reports what DeleteMachine did.
type DeleteResult struct {
	Deleted bool

	// Interventions is the number of interventions the machine had when the
	// transaction counted them.
	Interventions int

	// Maintenance holds the ids of the scheduled maintenance deleted with
	// the machine.
	Maintenance []int64
}

// Repositories is the container of all repositories.
type Repositories struct {
	Ledger LedgerRepository
}

// NewRepositories picks the ledger implementation for the configured driver.
func NewRepositories(s *server.Server) (*Repositories, error) {
	switch s.Config.Database.Driver {
	case config.DriverPostgres:
		if s.DB == nil {
			return nil, fmt.Errorf("postgres driver configured but no pool is open")
		}
		return &Repositories{Ledger: NewPostgresLedger(s.DB.Pool)}, nil

	case config.DriverSQLite:
		if s.SQLite == nil {
			return nil, fmt.Errorf("sqlite driver configured but no database is open")
		}
		return &Repositories{Ledger: NewSQLiteLedger(s.SQLite.DB)}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", s.Config.Database.Driver)
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// finiteCost fails for a stored costo that no decimal can hold.
func finiteCost(f float64) error {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return errs.NewStore("read intervention", fmt.Errorf("costo %v is not a finite number", f))
	}
	return nil
}
