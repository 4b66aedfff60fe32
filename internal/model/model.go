// Package model holds the ledger's entities: machines, scheduled maintenance
// and interventions, plus the small value types (status, machine type, unit)
// they are built from.
package model

import "time"

// DateLayout is the wire format of calendar dates (fecha, fecha_programada).
const DateLayout = "2006-01-02"

// Date truncates t to midnight UTC, the precision of a DATE column.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
