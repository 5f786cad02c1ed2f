package config

import "github.com/burnwise/coordinator/pkg/models"

// FuelTable maps a fuel type to its emission factor (g/s per hectare at
// reference intensity 1.0), per spec §4.4 step 1. Operator-configurable per
// the spec's Open Question ("implementers should make this table
// configurable") — the teacher's pkg/config/builtin.go pattern of a
// built-in-registry-with-YAML-override is mirrored by FuelTable/LoadFuelTable
// in pkg/config/loader.go.
type FuelTable map[models.FuelType]float64

// DefaultFuelTable returns the built-in emission factors from spec §4.4.
func DefaultFuelTable() FuelTable {
	return FuelTable{
		models.FuelWheatStubble:    12,
		models.FuelRiceStraw:       18,
		models.FuelCornStalks:      10,
		models.FuelOrchardPrunings: 8,
		models.FuelGrass:           6,
	}
}

// EmissionFactor returns the configured factor for fuel, falling back to the
// built-in default for any fuel type missing from an operator override (so a
// partial override file never silently zeroes an unmentioned fuel).
func (t FuelTable) EmissionFactor(fuel models.FuelType) float64 {
	if f, ok := t[fuel]; ok && f > 0 {
		return f
	}
	return DefaultFuelTable()[fuel]
}
