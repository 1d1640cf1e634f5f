// Package report prints the potentially habitable planets of a cleaned table.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/David-Botos/exo-habitability/pkg/dataset"
	"github.com/David-Botos/exo-habitability/pkg/model"
	"github.com/David-Botos/exo-habitability/pkg/physics"
)

const unknown = "unknown"

// Entry is one reported planet with its display values already rounded.
// Nil fields are unknown.
type Entry struct {
	Name              string
	OrbitalPeriodDays *float64
	TemperatureC      *float64
	StarTempK         *float64
	StarRadiusKm      *float64
	DistanceLY        *float64
	RadiusKm          *float64
	GravityMS2        *float64
	GravityG          *float64
}

// Entries selects the habitable planets in table order
func Entries(planets []model.Planet) []Entry {
	habitable := dataset.Habitable(planets)
	entries := make([]Entry, 0, len(habitable))
	for i := range habitable {
		p := &habitable[i]

		var tempC *float64
		if p.EquilibriumTempK != nil {
			tempC = model.Float(physics.RoundSig(physics.KelvinToCelsius(*p.EquilibriumTempK), 3))
		}

		entries = append(entries, Entry{
			Name:              p.Name,
			OrbitalPeriodDays: roundSig(p.OrbitalPeriodDays, 2),
			TemperatureC:      tempC,
			StarTempK:         p.StellarTempK,
			StarRadiusKm:      p.StellarRadiusKm,
			DistanceLY:        p.DistanceLightYears,
			RadiusKm:          p.RadiusKm,
			GravityMS2:        roundSig(p.SurfaceGravityMS2, 3),
			GravityG:          roundSig(p.GravityEarth, 3),
		})
	}
	return entries
}

// Write prints one paragraph per habitable planet followed by a summary table
func Write(w io.Writer, planets []model.Planet) error {
	entries := Entries(planets)
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No potentially habitable planets found.")
		return err
	}

	for _, e := range entries {
		if err := writeEntry(w, e); err != nil {
			return fmt.Errorf("failed to write report entry %s: %w", e.Name, err)
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetBorder(true)
	table.SetHeader([]string{
		"Planet",
		"Period\n(days)",
		"Temperature\n(°C)",
		"Star temp\n(K)",
		"Distance\n(ly)",
		"Radius\n(km)",
		"Gravity\n(m/s²)",
		"Gravity\n(G)",
	})
	for _, e := range entries {
		table.Append([]string{
			e.Name,
			format(e.OrbitalPeriodDays),
			format(e.TemperatureC),
			format(e.StarTempK),
			format(e.DistanceLY),
			format(e.RadiusKm),
			format(e.GravityMS2),
			format(e.GravityG),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "", "Total", strconv.Itoa(len(entries))})
	table.Render()
	return nil
}

func writeEntry(w io.Writer, e Entry) error {
	_, err := fmt.Fprintf(w, `Potentially habitable planet found! Planet name: %s
	orbital period: %s days (2 s.f.)
	possible temperature: %s degrees Celsius (3 s.f.)
	temperature of its star: %s K
	radius of its star: %s km
	distance to the planet: %s light years
	radius of the planet: %s km
	It lies in the habitable zone of its star and is neither a gas nor an iron planet.
	Gravity accelerates at %s m/s² (3 s.f.), %s times that of Earth (3 s.f.).

`,
		e.Name,
		format(e.OrbitalPeriodDays),
		format(e.TemperatureC),
		format(e.StarTempK),
		format(e.StarRadiusKm),
		format(e.DistanceLY),
		format(e.RadiusKm),
		format(e.GravityMS2),
		format(e.GravityG))
	return err
}

func roundSig(v *float64, sig int) *float64 {
	if v == nil {
		return nil
	}
	return model.Float(physics.RoundSig(*v, sig))
}

func format(v *float64) string {
	if v == nil {
		return unknown
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
