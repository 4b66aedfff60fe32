package model

// Status is the operational state of a machine. Exactly two values exist.
type Status string

const (
	StatusOperational    Status = "operativa"
	StatusNonOperational Status = "no operativa"
)

// Statuses lists the status domain in display order.
var Statuses = []Status{StatusOperational, StatusNonOperational}

// Valid reports whether s is one of the two literal status values.
func (s Status) Valid() bool {
	return s == StatusOperational || s == StatusNonOperational
}

func (s Status) String() string {
	return string(s)
}

// MachineType is the equipment category offered when registering a machine:
// washer, dryer, centrifuge, steam generator and mangle.
type MachineType string

const (
	MachineTypeWasher         MachineType = "Lav"
	MachineTypeDryer          MachineType = "Sec"
	MachineTypeCentrifuge     MachineType = "Cen"
	MachineTypeSteamGenerator MachineType = "SG"
	MachineTypeMangle         MachineType = "Man"
)

var MachineTypes = []MachineType{
	MachineTypeWasher,
	MachineTypeDryer,
	MachineTypeCentrifuge,
	MachineTypeSteamGenerator,
	MachineTypeMangle,
}

// Valid reports whether t is a known machine type. The empty type is valid:
// machines may be described by free text instead.
func (t MachineType) Valid() bool {
	if t == "" {
		return true
	}
	for _, known := range MachineTypes {
		if t == known {
			return true
		}
	}
	return false
}

// CapacityUnit is the unit a machine capacity is expressed in.
type CapacityUnit string

const (
	CapacityUnitPounds     CapacityUnit = "LBS"
	CapacityUnitHorsepower CapacityUnit = "HP"
)

var CapacityUnits = []CapacityUnit{CapacityUnitPounds, CapacityUnitHorsepower}

// Valid reports whether u is a known unit or empty.
func (u CapacityUnit) Valid() bool {
	return u == "" || u == CapacityUnitPounds || u == CapacityUnitHorsepower
}
