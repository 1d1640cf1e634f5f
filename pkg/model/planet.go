package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PlanetType is the density-based composition bucket. The numeric values
// match the snapshot encoding (0 rocky, 1 gas, 2 iron).
type PlanetType int

const (
	PlanetRocky PlanetType = iota
	PlanetGas
	PlanetIron
)

// String returns the lowercase name of the planet type
func (t PlanetType) String() string {
	switch t {
	case PlanetRocky:
		return "rocky"
	case PlanetGas:
		return "gas"
	case PlanetIron:
		return "iron"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParsePlanetType accepts either the numeric encoding or the name
func ParsePlanetType(s string) (PlanetType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "0", "rocky":
		return PlanetRocky, nil
	case "1", "gas":
		return PlanetGas, nil
	case "2", "iron":
		return PlanetIron, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		switch f {
		case 0:
			return PlanetRocky, nil
		case 1:
			return PlanetGas, nil
		case 2:
			return PlanetIron, nil
		}
	}
	return 0, fmt.Errorf("unknown planet type %q", s)
}

// Temperature sources
const (
	TemperatureObserved = "observed"
	TemperatureDerived  = "derived"
)

// Planet is one (star, planet) row. Optional values are pointers; nil means
// the observation is missing or the derivation is undefined. Pointed-to
// values are never written through: patches replace the pointer.
type Planet struct {
	Name     string
	HostStar string

	// Observational columns
	OrbitalPeriodDays  *float64
	SemiMajorAxisAU    *float64
	Eccentricity       *float64
	InsolationFlux     *float64
	EquilibriumTempK   *float64
	StellarTempK       *float64
	StellarRadiusKm    *float64
	DistanceLightYears *float64
	RadiusKm           *float64
	MassKg             *float64

	// Derived columns
	TemperatureSource string
	DensityKgM3       *float64
	SurfaceGravityMS2 *float64
	GravityEarth      *float64
	Type              *PlanetType
	InHabitableZone   *bool
	Habitable         *bool
}

// IsHabitable reports whether the habitability flag is known and true
func (p *Planet) IsHabitable() bool {
	return p.Habitable != nil && *p.Habitable
}

// IsInHabitableZone reports whether the zone flag is known and true
func (p *Planet) IsInHabitableZone() bool {
	return p.InHabitableZone != nil && *p.InHabitableZone
}

// Float returns a pointer to a copy of v
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to a copy of b
func Bool(b bool) *bool {
	return &b
}

// TypeOf returns a pointer to a copy of t
func TypeOf(t PlanetType) *PlanetType {
	return &t
}
