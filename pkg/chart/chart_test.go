package chart

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/exo-habitability/pkg/dataset"
	"github.com/David-Botos/exo-habitability/pkg/model"
	"github.com/David-Botos/exo-habitability/pkg/physics"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func planet(name, star string, mass, radius, density, g, starTemp float64, zone bool, typ model.PlanetType) model.Planet {
	return model.Planet{
		Name:            name,
		HostStar:        star,
		MassKg:          model.Float(mass),
		RadiusKm:        model.Float(radius),
		DensityKgM3:     model.Float(density),
		GravityEarth:    model.Float(g),
		StellarTempK:    model.Float(starTemp),
		Type:            model.TypeOf(typ),
		InHabitableZone: model.Bool(zone),
	}
}

func sampleTable() []model.Planet {
	return []model.Planet{
		planet("a b", "a", 3e24, 5000, 5200, 0.9, 3300, true, model.PlanetRocky),
		planet("a c", "a", 9e24, 7000, 6100, 1.6, 3300, true, model.PlanetRocky),
		planet("k b", "k", 1.9e27, 70000, 1300, 4.5, 6000, true, model.PlanetGas),
		planet("k c", "k", 2e27, 71000, 1350, 2.5, 6000, false, model.PlanetGas),
		planet("m b", "m", 4e25, 6000, 9000, 7.0, 4000, false, model.PlanetIron),
	}
}

func TestNewRendererRequiresDependencies(t *testing.T) {
	_, err := NewRenderer(nil, t.TempDir())
	assert.Error(t, err)

	_, err = NewRenderer(zaptest.NewLogger(t), "")
	assert.Error(t, err)
}

func TestBuildProducesEveryChart(t *testing.T) {
	configs := Build(sampleTable(), physics.DefaultMaxGravityG)
	files := make(map[string]bool)
	for _, c := range configs {
		files[c.File] = true
	}

	for _, f := range []string{
		FileMassVsTemp, FileHabitableMassVsTemp,
		FilePlanetsPerStar, FileHabitablePlanetsPerStar,
		FileDensityAll, FileDensityHabitable,
		FileTypesAll, FileTypesHabitable,
		FileGravityMassAll, FileGravityMassHabitable,
		FileGravityRadiusAll, FileGravityRadiusHabitable,
		FileGravitySplit,
	} {
		assert.True(t, files[f], f)
	}
	assert.Len(t, configs, 13)
}

func TestPlanetsPerStarBuckets(t *testing.T) {
	planets := sampleTable()
	for i := 0; i < 11; i++ {
		planets = append(planets, model.Planet{Name: "big", HostStar: "big"})
	}

	cfg := PlanetsPerStar(planets, "f.png", "t")
	require.Len(t, cfg.Bars, maxSystemSize)
	assert.Equal(t, 1.0, cfg.Bars[0].Value, "m has one planet")
	assert.Equal(t, 2.0, cfg.Bars[1].Value, "a and k have two")
	assert.Equal(t, 1.0, cfg.Bars[8].Value, "eleven planets land in the last bucket")
	assert.Equal(t, "9+", cfg.Bars[8].Label)
}

func TestPlanetTypesCounts(t *testing.T) {
	cfg := PlanetTypes(sampleTable(), "f.png", "t")
	require.Len(t, cfg.Bars, 3)
	assert.Equal(t, 2.0, cfg.Bars[0].Value)
	assert.Equal(t, 2.0, cfg.Bars[1].Value)
	assert.Equal(t, 1.0, cfg.Bars[2].Value)
}

func TestGravitySplitPartitionsOnLimit(t *testing.T) {
	planets := []model.Planet{
		{GravityEarth: model.Float(1)},
		{GravityEarth: model.Float(4)},
		{GravityEarth: model.Float(4.5)},
		{GravityEarth: model.Float(9)},
		{},
	}

	cfg := GravitySplit(planets, 4, "f.png", "t")
	require.Len(t, cfg.Bars, 2)
	assert.Equal(t, 2.0, cfg.Bars[0].Value, "4 G is under the limit")
	assert.Equal(t, 2.0, cfg.Bars[1].Value, "4 < g < 5 is counted once, as over")
	assert.Contains(t, cfg.Bars[0].Label, "Under 4 G: 2")
}

func TestScatterExcludesRowsMissingAField(t *testing.T) {
	planets := sampleTable()
	planets[0].StellarTempK = nil

	cfg := MassVsStarTemperature(planets, "f.png", "t")
	assert.Len(t, cfg.Series[0].Points, 4)
	assert.True(t, cfg.Series[1].Reference)
}

func TestConfigEmpty(t *testing.T) {
	assert.True(t, Config{Kind: KindScatter, Series: []Series{{Reference: true, Points: []dataset.Pair{{}}}}}.Empty())
	assert.True(t, PlanetTypes(nil, "f", "t").Empty())
	assert.False(t, PlanetTypes(sampleTable(), "f", "t").Empty())
}

func TestRenderAllWritesPNGs(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(zaptest.NewLogger(t), dir)
	require.NoError(t, err)

	summary, err := r.RenderAll(context.Background(), Build(sampleTable(), physics.DefaultMaxGravityG))
	require.NoError(t, err)
	assert.Len(t, summary.Written, 13)
	assert.Empty(t, summary.Skipped)

	for _, path := range summary.Written {
		data, err := os.ReadFile(path)
		require.NoError(t, err, path)
		assert.True(t, bytes.HasPrefix(data, pngSignature), path)
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRenderAllSkipsEmptySubsets(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(zaptest.NewLogger(t), dir)
	require.NoError(t, err)

	// nothing in the habitable zone
	planets := sampleTable()
	for i := range planets {
		planets[i].InHabitableZone = model.Bool(false)
	}

	summary, err := r.RenderAll(context.Background(), Build(planets, physics.DefaultMaxGravityG))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		FileHabitableMassVsTemp,
		FileHabitablePlanetsPerStar,
		FileDensityHabitable,
		FileTypesHabitable,
		FileGravityMassHabitable,
		FileGravityRadiusHabitable,
		FileGravitySplit,
	}, summary.Skipped)
	assert.Len(t, summary.Written, 6)

	_, err = os.Stat(filepath.Join(dir, FileGravitySplit))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderAllStopsOnCancelledContext(t *testing.T) {
	r, err := NewRenderer(zaptest.NewLogger(t), t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.RenderAll(ctx, Build(sampleTable(), physics.DefaultMaxGravityG))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Written)
}
