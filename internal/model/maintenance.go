package model

import "time"

// ScheduledMaintenance is a planned maintenance event (table mantenimiento).
//
// Completed defaults to false and no operation sets it, so every scheduled
// entry stays pending.
type ScheduledMaintenance struct {
	ID            int64     `json:"id" db:"id"`
	MachineID     int64     `json:"machine_id" db:"maquinaria_id"`
	Type          string    `json:"type" db:"tipo"`
	ScheduledDate time.Time `json:"scheduled_date" db:"fecha_programada"`
	Completed     bool      `json:"completed" db:"completado"`
}

// PendingMaintenance is a not-yet-completed entry joined with the machine name.
type PendingMaintenance struct {
	ID            int64     `json:"id" db:"id"`
	MachineID     int64     `json:"machine_id" db:"maquinaria_id"`
	MachineName   string    `json:"machine_name" db:"nombre"`
	Type          string    `json:"type" db:"tipo"`
	ScheduledDate time.Time `json:"scheduled_date" db:"fecha_programada"`
}

// NewMaintenance is the input of a schedule insert.
type NewMaintenance struct {
	MachineID     int64
	Type          string
	ScheduledDate time.Time
}
