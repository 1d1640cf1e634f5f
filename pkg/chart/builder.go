package chart

import (
	"fmt"
	"strconv"

	"github.com/David-Botos/exo-habitability/pkg/dataset"
	"github.com/David-Botos/exo-habitability/pkg/model"
	"github.com/David-Botos/exo-habitability/pkg/physics"
)

// Output file names
const (
	FileMassVsTemp              = "scatter_plot_mass_vs_temp.png"
	FileHabitableMassVsTemp     = "habitable_scatter_plot_mass_vs_temp.png"
	FilePlanetsPerStar          = "histogram_exoplanets_per_star.png"
	FileHabitablePlanetsPerStar = "habitable_histogram_exoplanets_per_star.png"
	FileDensityAll              = "density_all_planets.png"
	FileDensityHabitable        = "density_hab_planets.png"
	FileTypesAll                = "density_all_planets-histogram.png"
	FileTypesHabitable          = "density_hab_planets-histogram.png"
	FileGravityMassAll          = "g_force_all_exoplanets.png"
	FileGravityMassHabitable    = "g_force_habitable_exoplanets.png"
	FileGravityRadiusAll        = "g_force_all_exoplanets_radius.png"
	FileGravityRadiusHabitable  = "g_force_all_exoplanets_habitable_radius.png"
	FileGravitySplit            = "g_force_all_exoplanets_habitable_pie_chart.png"
)

// maxSystemSize is the last bar of the planets-per-star histogram; larger
// systems are counted in it
const maxSystemSize = 9

var earthMass = dataset.Pair{X: physics.SolarTemperatureK, Y: physics.EarthMassKg, Name: "Earth"}

// Build returns every chart for the table. Habitable subsets are the
// planets inside the habitable temperature band, so the gravity charts can
// show planets over the limit.
func Build(planets []model.Planet, maxGravityG float64) []Config {
	zone := dataset.HabitableZone(planets)

	return []Config{
		MassVsStarTemperature(planets, FileMassVsTemp,
			"Mass of known exoplanets against the temperature of their host star"),
		MassVsStarTemperature(zone, FileHabitableMassVsTemp,
			"Mass of habitable-zone exoplanets against the temperature of their host star"),
		PlanetsPerStar(planets, FilePlanetsPerStar,
			"Frequency of host stars by number of detected exoplanets"),
		PlanetsPerStar(zone, FileHabitablePlanetsPerStar,
			"Frequency of host stars by number of habitable-zone exoplanets"),
		DensityVsMass(planets, FileDensityAll,
			"Density against mass of all detected exoplanets"),
		DensityVsMass(zone, FileDensityHabitable,
			"Density against mass of habitable-zone exoplanets"),
		PlanetTypes(planets, FileTypesAll,
			"Frequency of planet types"),
		PlanetTypes(zone, FileTypesHabitable,
			"Frequency of planet types of habitable-zone exoplanets"),
		GravityVsMass(planets, maxGravityG, FileGravityMassAll,
			"G-force compared to Earth against mass of all detected exoplanets"),
		GravityVsMass(zone, maxGravityG, FileGravityMassHabitable,
			"G-force compared to Earth against mass of habitable-zone exoplanets"),
		GravityVsRadius(planets, maxGravityG, FileGravityRadiusAll,
			"G-force compared to Earth against radius of all detected exoplanets"),
		GravityVsRadius(zone, maxGravityG, FileGravityRadiusHabitable,
			"G-force compared to Earth against radius of habitable-zone exoplanets"),
		GravitySplit(zone, maxGravityG, FileGravitySplit,
			"Habitable-zone exoplanets over and under the gravity limit"),
	}
}

// MassVsStarTemperature plots planet mass against host star temperature
func MassVsStarTemperature(planets []model.Planet, file, title string) Config {
	return Config{
		File:  file,
		Kind:  KindScatter,
		Title: title,
		XAxis: "Temperature of the host star / K",
		YAxis: "Mass of the exoplanet / kg",
		Series: []Series{
			{Name: "Exoplanets", Points: dataset.Pairs(planets, dataset.StellarTemp, dataset.Mass)},
			{Name: "Earth", Points: []dataset.Pair{earthMass}, Reference: true},
		},
	}
}

// PlanetsPerStar counts host stars by the number of planets found around them
func PlanetsPerStar(planets []model.Planet, file, title string) Config {
	freq := make([]float64, maxSystemSize)
	for _, sc := range dataset.CountByHostStar(planets) {
		n := sc.Planets
		if n > maxSystemSize {
			n = maxSystemSize
		}
		freq[n-1]++
	}

	bars := make([]Bar, maxSystemSize)
	for i := range bars {
		label := strconv.Itoa(i + 1)
		if i+1 == maxSystemSize {
			label += "+"
		}
		bars[i] = Bar{Label: label, Value: freq[i]}
	}

	return Config{
		File:  file,
		Kind:  KindBar,
		Title: title,
		XAxis: "Number of detected exoplanets around star",
		YAxis: "Frequency",
		Bars:  bars,
	}
}

// DensityVsMass plots density against mass with Earth as reference
func DensityVsMass(planets []model.Planet, file, title string) Config {
	return Config{
		File:  file,
		Kind:  KindScatter,
		Title: title,
		XAxis: "Planet mass / kg",
		YAxis: "Planet density / kg m^-3",
		LogX:  true,
		Series: []Series{
			{Name: "Exoplanets", Points: dataset.Pairs(planets, dataset.Mass, dataset.Density)},
			{Name: "Earth", Points: []dataset.Pair{{X: physics.EarthMassKg, Y: physics.EarthDensity, Name: "Earth"}}, Reference: true},
		},
	}
}

// PlanetTypes counts classified planets per type
func PlanetTypes(planets []model.Planet, file, title string) Config {
	types := []model.PlanetType{model.PlanetRocky, model.PlanetGas, model.PlanetIron}
	counts := make(map[model.PlanetType]int, len(types))
	for i := range planets {
		if t := planets[i].Type; t != nil {
			counts[*t]++
		}
	}

	bars := make([]Bar, len(types))
	for i, t := range types {
		bars[i] = Bar{Label: typeLabel(t), Value: float64(counts[t])}
	}

	return Config{
		File:  file,
		Kind:  KindBar,
		Title: title,
		XAxis: "Planet type",
		YAxis: "Frequency",
		Bars:  bars,
	}
}

// GravityVsMass plots relative gravity against mass with the limit line
func GravityVsMass(planets []model.Planet, maxGravityG float64, file, title string) Config {
	return Config{
		File:  file,
		Kind:  KindScatter,
		Title: title,
		XAxis: "Planet mass / kg",
		YAxis: "G-force compared to Earth / G",
		LogX:  true,
		Series: []Series{
			{Name: "Exoplanets", Points: dataset.Pairs(planets, dataset.Mass, dataset.Gravity)},
			{Name: "Earth", Points: []dataset.Pair{{X: physics.EarthMassKg, Y: 1, Name: "Earth"}}, Reference: true},
		},
		HLine: &maxGravityG,
	}
}

// GravityVsRadius plots relative gravity against radius with the limit line
func GravityVsRadius(planets []model.Planet, maxGravityG float64, file, title string) Config {
	return Config{
		File:  file,
		Kind:  KindScatter,
		Title: title,
		XAxis: "Planet radius / km",
		YAxis: "G-force compared to Earth / G",
		Series: []Series{
			{Name: "Exoplanets", Points: dataset.Pairs(planets, dataset.Radius, dataset.Gravity)},
			{Name: "Earth", Points: []dataset.Pair{{X: physics.EarthRadiusKm, Y: 1, Name: "Earth"}}, Reference: true},
		},
		HLine: &maxGravityG,
	}
}

// GravitySplit counts planets at or under the limit against those over it.
// Planets without a gravity value are in neither bar.
func GravitySplit(planets []model.Planet, maxGravityG float64, file, title string) Config {
	var under, over int
	for _, g := range dataset.Values(planets, dataset.Gravity) {
		if g <= maxGravityG {
			under++
		} else {
			over++
		}
	}

	return Config{
		File:  file,
		Kind:  KindBar,
		Title: title,
		YAxis: "Planets",
		Bars: []Bar{
			{Label: fmt.Sprintf("Under %g G: %d", maxGravityG, under), Value: float64(under)},
			{Label: fmt.Sprintf("Over %g G: %d", maxGravityG, over), Value: float64(over)},
		},
	}
}

func typeLabel(t model.PlanetType) string {
	switch t {
	case model.PlanetRocky:
		return "Rocky planet"
	case model.PlanetGas:
		return "Gas planet"
	case model.PlanetIron:
		return "Iron planet"
	}
	return t.String()
}
