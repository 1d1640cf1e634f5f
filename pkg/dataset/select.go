package dataset

import (
	"sort"

	"github.com/David-Botos/exo-habitability/pkg/model"
)

// Where returns the planets accepted by keep, in input order
func Where(planets []model.Planet, keep func(p *model.Planet) bool) []model.Planet {
	var out []model.Planet
	for i := range planets {
		if keep(&planets[i]) {
			out = append(out, planets[i])
		}
	}
	return out
}

// Habitable returns the planets whose habitability flag is known and true
func Habitable(planets []model.Planet) []model.Planet {
	return Where(planets, (*model.Planet).IsHabitable)
}

// HabitableZone returns the planets whose zone flag is known and true
func HabitableZone(planets []model.Planet) []model.Planet {
	return Where(planets, (*model.Planet).IsInHabitableZone)
}

// Pair is one plotted point with the row it came from
type Pair struct {
	X, Y float64
	Name string
}

// Pairs extracts (x, y) points. Rows where either value is null are dropped.
func Pairs(planets []model.Planet, x, y func(p *model.Planet) *float64) []Pair {
	var out []Pair
	for i := range planets {
		p := &planets[i]
		xv, yv := x(p), y(p)
		if xv == nil || yv == nil {
			continue
		}
		out = append(out, Pair{X: *xv, Y: *yv, Name: p.Name})
	}
	return out
}

// Values extracts the non-null values of one column
func Values(planets []model.Planet, v func(p *model.Planet) *float64) []float64 {
	var out []float64
	for i := range planets {
		if f := v(&planets[i]); f != nil {
			out = append(out, *f)
		}
	}
	return out
}

// StarCount is the number of planets found around one host star
type StarCount struct {
	HostStar string
	Planets  int
}

// CountByHostStar groups planets by host star, largest systems first and
// ties broken by star name
func CountByHostStar(planets []model.Planet) []StarCount {
	counts := make(map[string]int)
	for i := range planets {
		if planets[i].HostStar == "" {
			continue
		}
		counts[planets[i].HostStar]++
	}

	out := make([]StarCount, 0, len(counts))
	for star, n := range counts {
		out = append(out, StarCount{HostStar: star, Planets: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Planets != out[j].Planets {
			return out[i].Planets > out[j].Planets
		}
		return out[i].HostStar < out[j].HostStar
	})
	return out
}

// Column accessors used by charts and reports
var (
	Distance    = func(p *model.Planet) *float64 { return p.DistanceLightYears }
	Mass        = func(p *model.Planet) *float64 { return p.MassKg }
	Radius      = func(p *model.Planet) *float64 { return p.RadiusKm }
	Density     = func(p *model.Planet) *float64 { return p.DensityKgM3 }
	Gravity     = func(p *model.Planet) *float64 { return p.GravityEarth }
	Temperature = func(p *model.Planet) *float64 { return p.EquilibriumTempK }
	StellarTemp = func(p *model.Planet) *float64 { return p.StellarTempK }
	OrbitRadius = func(p *model.Planet) *float64 { return p.SemiMajorAxisAU }
	OrbitPeriod = func(p *model.Planet) *float64 { return p.OrbitalPeriodDays }
)
