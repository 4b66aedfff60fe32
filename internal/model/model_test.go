package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewMachineHistory(t *testing.T) {
	tests := []struct {
		name    string
		costs   []string
		total   string
		display string
	}{
		{"empty", nil, "0", "$0.00"},
		{"single", []string{"150"}, "150", "$150.00"},
		{"cents add up exactly", []string{"0.1", "0.2"}, "0.3", "$0.30"},
		{"several", []string{"100", "50.25", "9.75"}, "160", "$160.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var interventions []Intervention
			for _, c := range tt.costs {
				interventions = append(interventions, Intervention{Cost: decimal.RequireFromString(c)})
			}

			h := NewMachineHistory(1, interventions)
			assert.True(t, h.Total.Equal(decimal.RequireFromString(tt.total)), h.Total.String())
			assert.Equal(t, tt.display, h.TotalDisplay())
			assert.NotNil(t, h.Interventions)
		})
	}
}

func TestDate(t *testing.T) {
	in := time.Date(2026, time.March, 14, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-14", Date(in).Format(DateLayout))
	assert.Zero(t, Date(in).Hour())
}

func TestValues(t *testing.T) {
	assert.True(t, StatusOperational.Valid())
	assert.True(t, StatusNonOperational.Valid())
	assert.False(t, Status("rota").Valid())
	assert.False(t, Status("").Valid())

	assert.True(t, MachineType("").Valid())
	assert.True(t, MachineTypeDryer.Valid())
	assert.False(t, MachineType("XYZ").Valid())

	assert.True(t, CapacityUnit("").Valid())
	assert.True(t, CapacityUnitHorsepower.Valid())
	assert.False(t, CapacityUnit("KG").Valid())
}
