// pkg/model/metadata.go
package model

import "strings"

// SchemaVersion is bumped whenever the snapshot layout changes
const SchemaVersion = 1

// Canonical column names as they appear in cleaned snapshots, including the
// "accelaration_to_gravity" spelling.
const (
	ColName              = "name_of_planet"
	ColHostStar          = "name_of_host_star"
	ColOrbitalPeriod     = "orbital_period"
	ColSemiMajorAxis     = "orbital_period_widest_radius_in_AU"
	ColEccentricity      = "orbital_eccentricity"
	ColInsolation        = "insolation_flux"
	ColEquilibriumTemp   = "equilibrium_temperature_K"
	ColStellarTemp       = "stellar_effective_temperature_black_body_radiation"
	ColStellarRadius     = "stellar_radius"
	ColDistance          = "distance_to_system_in_light_years"
	ColRadius            = "planet_actual_radius"
	ColMass              = "planet_mass_in_kg"
	ColTemperatureSource = "equilibrium_temperature_source"
	ColDensity           = "planet_density"
	ColSurfaceGravity    = "accelaration_to_gravity"
	ColGravityEarth      = "gravity_compared_to_earth"
	ColPlanetType        = "is_planet_gas_giant"
	ColInHabitableZone   = "in_habitable_zone"
	ColHabitable         = "is_planet_habitable"
)

// ColumnKind is the value type stored in a column
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindFloat
	KindPlanetType
	KindBool
)

// Column represents metadata about a dataset column
type Column struct {
	Name          string     // Canonical column name
	Kind          ColumnKind // Value type
	Unit          string     // Canonical unit, empty for dimensionless
	Observational bool       // Part of the raw observation (dedupe identity)
	Positive      bool       // Non-positive values are sentinels

	// Exactly one accessor is set, matching Kind
	Text  func(p *Planet) *string
	Value func(p *Planet) **float64
	Flag  func(p *Planet) **bool
}

// TableMetadata contains the structure information for the planet table
type TableMetadata struct {
	Version int
	Columns []Column
}

// PlanetTable is the column catalogue shared by readers, the cleaner and the snapshot
var PlanetTable = TableMetadata{
	Version: SchemaVersion,
	Columns: []Column{
		{Name: ColName, Kind: KindText, Observational: true, Text: func(p *Planet) *string { return &p.Name }},
		{Name: ColHostStar, Kind: KindText, Observational: true, Text: func(p *Planet) *string { return &p.HostStar }},
		{Name: ColOrbitalPeriod, Kind: KindFloat, Unit: "days", Observational: true, Positive: true, Value: func(p *Planet) **float64 { return &p.OrbitalPeriodDays }},
		{Name: ColSemiMajorAxis, Kind: KindFloat, Unit: "AU", Observational: true, Positive: true, Value: func(p *Planet) **float64 { return &p.SemiMajorAxisAU }},
		{Name: ColEccentricity, Kind: KindFloat, Observational: true, Value: func(p *Planet) **float64 { return &p.Eccentricity }},
		{Name: ColInsolation, Kind: KindFloat, Unit: "earth flux", Observational: true, Positive: true, Value: func(p *Planet) **float64 { return &p.InsolationFlux }},
		{Name: ColEquilibriumTemp, Kind: KindFloat, Unit: "K", Observational: true, Positive: true, Value: func(p *Planet) **float64 { return &p.EquilibriumTempK }},
		{Name: ColStellarTemp, Kind: KindFloat, Unit: "K", Observational: true, Positive: true, Value: func(p *Planet) **float64 { return &p.StellarTempK }},
		{Name: ColStellarRadius, Kind: KindFloat, Unit: "km", Observational: true, Positive: true, Value: func(p *Planet) **float64 { return &p.StellarRadiusKm }},
		{Name: ColDistance, Kind: KindFloat, Unit: "ly", Observational: true, Positive: true, Value: func(p *Planet) **float64 { return &p.DistanceLightYears }},
		{Name: ColRadius, Kind: KindFloat, Unit: "km", Observational: true, Positive: true, Value: func(p *Planet) **float64 { return &p.RadiusKm }},
		{Name: ColMass, Kind: KindFloat, Unit: "kg", Observational: true, Positive: true, Value: func(p *Planet) **float64 { return &p.MassKg }},
		{Name: ColTemperatureSource, Kind: KindText, Text: func(p *Planet) *string { return &p.TemperatureSource }},
		{Name: ColDensity, Kind: KindFloat, Unit: "kg m^-3", Value: func(p *Planet) **float64 { return &p.DensityKgM3 }},
		{Name: ColSurfaceGravity, Kind: KindFloat, Unit: "m s^-2", Value: func(p *Planet) **float64 { return &p.SurfaceGravityMS2 }},
		{Name: ColGravityEarth, Kind: KindFloat, Unit: "g", Value: func(p *Planet) **float64 { return &p.GravityEarth }},
		{Name: ColPlanetType, Kind: KindPlanetType},
		{Name: ColInHabitableZone, Kind: KindBool, Flag: func(p *Planet) **bool { return &p.InHabitableZone }},
		{Name: ColHabitable, Kind: KindBool, Flag: func(p *Planet) **bool { return &p.Habitable }},
	},
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range tm.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// Names returns the canonical column names in snapshot order
func (tm *TableMetadata) Names() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

// ObservationalColumns returns the columns that make up a raw row's identity
func (tm *TableMetadata) ObservationalColumns() []Column {
	var cols []Column
	for _, col := range tm.Columns {
		if col.Observational {
			cols = append(cols, col)
		}
	}
	return cols
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
