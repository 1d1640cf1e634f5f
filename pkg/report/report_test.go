package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/exo-habitability/pkg/model"
)

func trappist() model.Planet {
	return model.Planet{
		Name:               "TRAPPIST-1 e",
		HostStar:           "TRAPPIST-1",
		OrbitalPeriodDays:  model.Float(6.099615),
		EquilibriumTempK:   model.Float(252.46),
		StellarTempK:       model.Float(2566),
		StellarRadiusKm:    model.Float(83484),
		DistanceLightYears: model.Float(39),
		RadiusKm:           model.Float(5868.2),
		SurfaceGravityMS2:  model.Float(8.01234),
		GravityEarth:       model.Float(0.816752),
		InHabitableZone:    model.Bool(true),
		Habitable:          model.Bool(true),
	}
}

func TestEntriesSelectsHabitablePlanets(t *testing.T) {
	hot := trappist()
	hot.Name = "hot"
	hot.Habitable = model.Bool(false)
	unknownFlag := trappist()
	unknownFlag.Name = "unknown"
	unknownFlag.Habitable = nil

	entries := Entries([]model.Planet{hot, trappist(), unknownFlag})
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "TRAPPIST-1 e", e.Name)
	assert.Equal(t, 6.1, *e.OrbitalPeriodDays)
	assert.InDelta(t, -20.7, *e.TemperatureC, 1e-9)
	assert.Equal(t, 8.01, *e.GravityMS2)
	assert.Equal(t, 0.817, *e.GravityG)
	assert.Equal(t, 39.0, *e.DistanceLY)
}

func TestEntriesKeepsMissingValuesUnknown(t *testing.T) {
	p := trappist()
	p.EquilibriumTempK = nil
	p.OrbitalPeriodDays = nil

	entries := Entries([]model.Planet{p})
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].TemperatureC)
	assert.Nil(t, entries[0].OrbitalPeriodDays)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []model.Planet{trappist()}))

	out := buf.String()
	assert.Contains(t, out, "Potentially habitable planet found! Planet name: TRAPPIST-1 e")
	assert.Contains(t, out, "orbital period: 6.1 days")
	assert.Contains(t, out, "possible temperature: -20.7 degrees Celsius")
	assert.Contains(t, out, "distance to the planet: 39 light years")
	assert.Contains(t, out, "0.817 times that of Earth")
	assert.Contains(t, out, "Planet")
	assert.Contains(t, out, "Total")
	assert.Equal(t, 1, strings.Count(out, "Potentially habitable planet found!"))
}

func TestWriteUnknownValues(t *testing.T) {
	p := trappist()
	p.StellarRadiusKm = nil

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []model.Planet{p}))
	assert.Contains(t, buf.String(), "radius of its star: unknown km")
}

func TestWriteWithoutHabitablePlanets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.Equal(t, "No potentially habitable planets found.\n", buf.String())
}
