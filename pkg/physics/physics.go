// Package physics derives physical quantities from observed exoplanet
// parameters. Every function is pure and total: a missing or out-of-domain
// input yields nil instead of an error or a panic.
package physics

import (
	"math"

	"github.com/David-Botos/exo-habitability/pkg/model"
)

// Physical constants
const (
	GravitationalConstant = 6.674e-11 // m^3 kg^-1 s^-2
	EarthGravity          = 9.81      // m s^-2
	EarthMassKg           = 5.972e24  // kg
	EarthRadiusKm         = 6371.0    // km
	EarthDensity          = 5520.0    // kg m^-3
	JupiterDensity        = 1326.0    // kg m^-3
	SolarRadiusKm         = 695700.0  // km
	SolarTemperatureK     = 5778.0    // K
	AstronomicalUnitKm    = 1.495978707e8
	ParsecInLightYears    = 3.26156
	AbsoluteZeroCelsius   = -273.15
)

// Default derivation settings. The density cutoffs are not taken from a
// published composition model and should be reviewed by a domain expert.
const (
	// DefaultGasGiantMaxDensity sits above Jupiter and Neptune (~1638) and
	// below Mars (~3933).
	DefaultGasGiantMaxDensity = 2000.0
	// DefaultIronMinDensity sits well above Earth and Mercury (~5430).
	DefaultIronMinDensity = 8000.0

	DefaultHabitableMinK = 200.0
	DefaultHabitableMaxK = 320.0

	// DefaultMaxGravityG is the sustained g-force assumed survivable.
	DefaultMaxGravityG = 4.0

	// DefaultBondAlbedo is Earth's Bond albedo.
	DefaultBondAlbedo = 0.3
)

// Thresholds bounds the density bands used by Classify.
//
//	density <  GasGiantMaxDensity  gas
//	density >  IronMinDensity      iron
//	otherwise                      rocky (both edges inclusive)
type Thresholds struct {
	GasGiantMaxDensity float64
	IronMinDensity     float64
}

// HabitableZone is the inclusive equilibrium temperature band, in Kelvin,
// assumed to support liquid water.
type HabitableZone struct {
	MinK float64
	MaxK float64
}

// Settings groups every tunable used by the derivations
type Settings struct {
	Thresholds  Thresholds
	Zone        HabitableZone
	MaxGravityG float64
	BondAlbedo  float64
}

// DefaultSettings returns the calibrated defaults
func DefaultSettings() Settings {
	return Settings{
		Thresholds: Thresholds{
			GasGiantMaxDensity: DefaultGasGiantMaxDensity,
			IronMinDensity:     DefaultIronMinDensity,
		},
		Zone: HabitableZone{
			MinK: DefaultHabitableMinK,
			MaxK: DefaultHabitableMaxK,
		},
		MaxGravityG: DefaultMaxGravityG,
		BondAlbedo:  DefaultBondAlbedo,
	}
}

// EquilibriumTemperature computes the black-body equilibrium temperature
//
//	T_eq = T_star * sqrt(R_star / (2a)) * (1 - A)^(1/4)
//
// with the stellar radius in km and the orbital distance in AU.
func EquilibriumTemperature(starTempK, starRadiusKm, orbitAU *float64, albedo float64) *float64 {
	if !positive(starTempK) || !positive(starRadiusKm) || !positive(orbitAU) {
		return nil
	}
	if albedo < 0 || albedo >= 1 || math.IsNaN(albedo) {
		return nil
	}
	distanceKm := AUToKm(*orbitAU)
	t := *starTempK * math.Sqrt(*starRadiusKm/(2*distanceKm)) * math.Pow(1-albedo, 0.25)
	return finite(t)
}

// SurfaceGravity returns g = G*M / r^2 in m s^-2
func SurfaceGravity(massKg, radiusM *float64) *float64 {
	if !positive(massKg) || !positive(radiusM) {
		return nil
	}
	r := *radiusM
	return finite(GravitationalConstant * *massKg / (r * r))
}

// GravityRelativeToEarth normalises a surface gravity to Earth's 9.81 m s^-2
func GravityRelativeToEarth(gravity *float64) *float64 {
	if gravity == nil || !isFinite(*gravity) {
		return nil
	}
	return model.Float(*gravity / EarthGravity)
}

// Density returns mass / ((4/3) * pi * r^3) in kg m^-3
func Density(massKg, radiusM *float64) *float64 {
	if !positive(massKg) || !positive(radiusM) {
		return nil
	}
	r := *radiusM
	volume := (4.0 / 3.0) * math.Pi * r * r * r
	return finite(*massKg / volume)
}

// Classify buckets a density into rocky, gas or iron
func Classify(density *float64, t Thresholds) *model.PlanetType {
	if density == nil || !isFinite(*density) {
		return nil
	}
	switch d := *density; {
	case d < t.GasGiantMaxDensity:
		return model.TypeOf(model.PlanetGas)
	case d > t.IronMinDensity:
		return model.TypeOf(model.PlanetIron)
	default:
		return model.TypeOf(model.PlanetRocky)
	}
}

// InHabitableZone reports whether the temperature lies inside the inclusive band
func InHabitableZone(tempK *float64, zone HabitableZone) *bool {
	if tempK == nil || !isFinite(*tempK) {
		return nil
	}
	return model.Bool(*tempK >= zone.MinK && *tempK <= zone.MaxK)
}

// IsHabitable combines the zone flag, the composition and the gravity limit
// with three-valued logic: any known failing condition gives false, otherwise
// any unknown condition gives nil.
func IsHabitable(inZone *bool, planetType *model.PlanetType, gravityEarth *float64, maxGravityG float64) *bool {
	unknown := false

	if inZone == nil {
		unknown = true
	} else if !*inZone {
		return model.Bool(false)
	}

	if planetType == nil {
		unknown = true
	} else if *planetType != model.PlanetRocky {
		return model.Bool(false)
	}

	if gravityEarth == nil || !isFinite(*gravityEarth) {
		unknown = true
	} else if *gravityEarth > maxGravityG {
		return model.Bool(false)
	}

	if unknown {
		return nil
	}
	return model.Bool(true)
}

// KelvinToCelsius converts a temperature
func KelvinToCelsius(k float64) float64 {
	return k + AbsoluteZeroCelsius
}

// KmToM converts kilometres to metres
func KmToM(km float64) float64 {
	return km * 1000
}

// AUToKm converts astronomical units to kilometres
func AUToKm(au float64) float64 {
	return au * AstronomicalUnitKm
}

func positive(v *float64) bool {
	return v != nil && isFinite(*v) && *v > 0
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finite(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return model.Float(v)
}
