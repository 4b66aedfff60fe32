package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Intervention is a completed repair or service (table intervenciones).
// Interventions are immutable; they only disappear when their machine is deleted.
type Intervention struct {
	ID              int64           `json:"id"`
	MachineID       int64           `json:"machine_id"`
	Date            time.Time       `json:"date"`
	Description     string          `json:"description"`
	Cost            decimal.Decimal `json:"cost"`
	ResultingStatus Status          `json:"resulting_status"`
}

// NewIntervention is the input of a register insert.
type NewIntervention struct {
	MachineID       int64
	Date            time.Time
	Description     string
	Cost            decimal.Decimal
	ResultingStatus Status
}

// MaxCost is the largest cost an intervention may carry. costo is REAL,
// a 4-byte float on PostgreSQL.
var MaxCost = decimal.NewFromFloat(math.MaxFloat32)

// MachineHistory is the intervention record of one machine and its total cost.
type MachineHistory struct {
	MachineID     int64           `json:"machine_id"`
	Interventions []Intervention  `json:"interventions"`
	Total         decimal.Decimal `json:"total"`
}

// NewMachineHistory sums the cost of interventions. An empty history totals 0.
func NewMachineHistory(machineID int64, interventions []Intervention) MachineHistory {
	if interventions == nil {
		interventions = []Intervention{}
	}

	total := decimal.Zero
	for _, in := range interventions {
		total = total.Add(in.Cost)
	}

	return MachineHistory{
		MachineID:     machineID,
		Interventions: interventions,
		Total:         total,
	}
}

// TotalDisplay renders the total as "$150.00".
func (h MachineHistory) TotalDisplay() string {
	return FormatMoney(h.Total)
}

// FormatMoney renders an amount with a dollar sign and two decimals.
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
