package model

// Machine is a piece of equipment tracked by the ledger (table maquinaria).
//
// A machine is described either by free text (Description) or by its
// technical data (Type, Capacity, CapacityUnit); all four are optional.
// Status only changes through an explicit status update, never from the
// intervention history.
type Machine struct {
	ID           int64        `json:"id" db:"id"`
	Name         string       `json:"name" db:"nombre"`
	Description  string       `json:"description,omitempty" db:"descripcion"`
	Type         MachineType  `json:"type,omitempty" db:"tipo"`
	Capacity     string       `json:"capacity,omitempty" db:"capacidad"`
	CapacityUnit CapacityUnit `json:"capacity_unit,omitempty" db:"unidad_medida"`
	Status       Status       `json:"status" db:"estado"`
}

// NewMachine is the input of an insert. The store assigns the id.
type NewMachine struct {
	Name         string
	Description  string
	Type         MachineType
	Capacity     string
	CapacityUnit CapacityUnit
	Status       Status
}
