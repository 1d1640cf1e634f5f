// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/converter"
	"github.com/David-Botos/exo-habitability/pkg/model"
	"github.com/David-Botos/exo-habitability/pkg/physics"
)

// DataCleaner dedupes, normalises, corrects and derives a planet table
type DataCleaner struct {
	logger      *zap.Logger
	settings    physics.Settings
	corrections []Correction
}

// Stats counts what a cleaning pass changed
type Stats struct {
	RowsIn              int
	DuplicatesRemoved   int
	SentinelsCleared    int
	CorrectionsApplied  int
	TemperaturesDerived int
}

// Result is the output of a cleaning pass
type Result struct {
	Planets    []model.Planet
	Operations []model.CleaningOperation
	Stats      Stats
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger, settings physics.Settings, corrections []Correction) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	for _, c := range corrections {
		if _, err := validateCorrection(c); err != nil {
			return nil, fmt.Errorf("failed to configure corrections: %w", err)
		}
	}

	return &DataCleaner{
		logger:      logger.Named("cleaner"),
		settings:    settings,
		corrections: corrections,
	}, nil
}

// Clean runs deduplication, the missing-value policy, manual corrections and
// derivation, in that order. Row issues never abort the pass. RowIndex in
// the context's operations refers to the position in planets.
func (c *DataCleaner) Clean(planets []model.Planet, cctx model.CleaningContext) Result {
	result := Result{Stats: Stats{RowsIn: len(planets)}}

	// 1. Deduplication
	keep := Deduplicate(planets)
	kept := make([]model.Planet, 0, len(keep))
	rows := make([]int, 0, len(keep))
	firstSeen := make(map[string]int, len(keep))
	next := 0
	for i := range planets {
		key := observationKey(&planets[i])
		if next < len(keep) && keep[next] == i {
			kept = append(kept, planets[i])
			rows = append(rows, i)
			firstSeen[key] = i
			next++
			continue
		}
		rowCtx := rowContext(cctx, &planets[i], i)
		result.Operations = append(result.Operations, rowCtx.Operation(
			"*", nil, "",
			model.OpDeduplication,
			fmt.Sprintf("exact_duplicate_of_row_%d", firstSeen[key]),
		))
	}
	result.Stats.DuplicatesRemoved = len(planets) - len(kept)

	// 2. Missing-value policy
	for i := range kept {
		cleared, columns := ClearSentinels(kept[i])
		rowCtx := rowContext(cctx, &kept[i], rows[i])
		for _, col := range columns {
			previous := *col.Value(&kept[i])
			result.Operations = append(result.Operations, rowCtx.Operation(
				col.Name, converter.FormatFloat(previous), "",
				model.OpSentinelCleared,
				"non_positive_value",
			))
		}
		result.Stats.SentinelsCleared += len(columns)
		kept[i] = cleared
	}

	// Manual corrections
	corrected, applied := ApplyCorrections(kept, c.corrections)
	for _, a := range applied {
		rowCtx := rowContext(cctx, &corrected[a.Row], rows[a.Row])
		var previous interface{}
		if a.Previous != nil {
			previous = converter.FormatFloat(a.Previous)
		}
		result.Operations = append(result.Operations, rowCtx.Operation(
			a.Correction.Column, previous, converter.FormatFloat(&a.Correction.Value),
			model.OpManualCorrection,
			correctionReason(a.Correction),
		))
	}
	result.Stats.CorrectionsApplied = len(applied)

	// 3. Derivation
	for i := range corrected {
		corrected[i] = Derive(corrected[i], c.settings)
		if corrected[i].TemperatureSource == model.TemperatureDerived {
			result.Stats.TemperaturesDerived++
		}
	}
	result.Planets = corrected

	c.logger.Info("Cleaned planet table",
		zap.Int("rows_in", result.Stats.RowsIn),
		zap.Int("rows_out", len(result.Planets)),
		zap.Int("duplicates_removed", result.Stats.DuplicatesRemoved),
		zap.Int("sentinels_cleared", result.Stats.SentinelsCleared),
		zap.Int("corrections_applied", result.Stats.CorrectionsApplied),
		zap.Int("temperatures_derived", result.Stats.TemperaturesDerived))

	return result
}

// Deduplicate returns the ascending indices of the first occurrence of every
// distinct row, comparing all observational columns exactly. Rows that
// differ in any observed value are kept as separate rows.
func Deduplicate(planets []model.Planet) []int {
	seen := make(map[string]struct{}, len(planets))
	keep := make([]int, 0, len(planets))
	for i := range planets {
		key := observationKey(&planets[i])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	return keep
}

// ClearSentinels nulls non-positive values in strictly positive columns.
// It returns the cleaned copy and the columns that were cleared; the input
// is not modified.
func ClearSentinels(p model.Planet) (model.Planet, []model.Column) {
	var cleared []model.Column
	out := p
	for _, col := range model.PlanetTable.ObservationalColumns() {
		if col.Kind != model.KindFloat || !col.Positive {
			continue
		}
		target := col.Value(&out)
		if *target != nil && **target <= 0 {
			*target = nil
			cleared = append(cleared, col)
		}
	}
	return out, cleared
}

// Derive fills every derived column from the observed ones, in dependency
// order. Applying it to its own output yields the same record.
func Derive(p model.Planet, s physics.Settings) model.Planet {
	out := p

	switch {
	case out.EquilibriumTempK != nil && out.TemperatureSource != model.TemperatureDerived:
		out.TemperatureSource = model.TemperatureObserved
	default:
		out.EquilibriumTempK = physics.EquilibriumTemperature(out.StellarTempK, out.StellarRadiusKm, out.SemiMajorAxisAU, s.BondAlbedo)
		out.TemperatureSource = ""
		if out.EquilibriumTempK != nil {
			out.TemperatureSource = model.TemperatureDerived
		}
	}

	var radiusM *float64
	if out.RadiusKm != nil {
		radiusM = model.Float(physics.KmToM(*out.RadiusKm))
	}

	out.DensityKgM3 = physics.Density(out.MassKg, radiusM)
	out.SurfaceGravityMS2 = physics.SurfaceGravity(out.MassKg, radiusM)
	out.GravityEarth = physics.GravityRelativeToEarth(out.SurfaceGravityMS2)
	out.Type = physics.Classify(out.DensityKgM3, s.Thresholds)
	out.InHabitableZone = physics.InHabitableZone(out.EquilibriumTempK, s.Zone)
	out.Habitable = physics.IsHabitable(out.InHabitableZone, out.Type, out.GravityEarth, s.MaxGravityG)

	return out
}

// observationKey joins every observational value into a comparable key
func observationKey(p *model.Planet) string {
	var b strings.Builder
	for _, col := range model.PlanetTable.ObservationalColumns() {
		switch col.Kind {
		case model.KindText:
			b.WriteString(*col.Text(p))
		case model.KindFloat:
			if v := *col.Value(p); v != nil {
				b.WriteString(converter.FormatFloat(v))
			} else {
				b.WriteString("\x00")
			}
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}

func rowContext(cctx model.CleaningContext, p *model.Planet, row int) model.CleaningContext {
	cctx.RowIdentifier = p.Name
	cctx.RowIndex = row
	return cctx
}

func correctionReason(c Correction) string {
	if c.Source == "" {
		return "manual_correction"
	}
	return "manual_correction: " + c.Source
}
