package cleaner

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/David-Botos/exo-habitability/pkg/model"
)

// ErrInvalidCorrection is returned for correction entries that cannot be applied
var ErrInvalidCorrection = errors.New("invalid correction")

// Correction overrides one numeric field of every row whose planet name
// matches exactly
type Correction struct {
	Planet string  `yaml:"planet"`
	Column string  `yaml:"column"`
	Value  float64 `yaml:"value"`
	Source string  `yaml:"source"`
}

// correctionsFile is the on-disk layout of EXO_CORRECTIONS_FILE
type correctionsFile struct {
	Corrections []Correction `yaml:"corrections"`
}

// DefaultCorrections returns the built-in patches
func DefaultCorrections() []Correction {
	return []Correction{
		{
			Planet: "TRAPPIST-1 e",
			Column: model.ColDistance,
			Value:  39,
			Source: "NASA TRAPPIST-1 system overview",
		},
	}
}

// LoadCorrections reads a YAML corrections file and merges it over the
// defaults. An entry for the same planet and column replaces the default.
func LoadCorrections(path string) ([]Correction, error) {
	corrections := DefaultCorrections()
	if path == "" {
		return corrections, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corrections file %s: %w", path, err)
	}

	var file correctionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse corrections file %s: %w", path, err)
	}

	for i, c := range file.Corrections {
		col, err := validateCorrection(c)
		if err != nil {
			return nil, fmt.Errorf("corrections file %s entry %d: %w", path, i, err)
		}
		c.Column = col.Name
		corrections = mergeCorrection(corrections, c)
	}

	return corrections, nil
}

func validateCorrection(c Correction) (*model.Column, error) {
	if c.Planet == "" {
		return nil, fmt.Errorf("%w: planet name is empty", ErrInvalidCorrection)
	}
	col := model.PlanetTable.GetColumnByName(c.Column)
	if col == nil {
		return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidCorrection, c.Column)
	}
	if col.Kind != model.KindFloat || !col.Observational {
		return nil, fmt.Errorf("%w: column %q is not an observed numeric column", ErrInvalidCorrection, c.Column)
	}
	if col.Positive && c.Value <= 0 {
		return nil, fmt.Errorf("%w: column %q must be positive, got %g", ErrInvalidCorrection, c.Column, c.Value)
	}
	return col, nil
}

func mergeCorrection(corrections []Correction, c Correction) []Correction {
	for i, existing := range corrections {
		if existing.Planet == c.Planet && existing.Column == c.Column {
			corrections[i] = c
			return corrections
		}
	}
	return append(corrections, c)
}

// ApplyCorrections returns a patched copy of planets. The input slice and
// the values it points to are left untouched. Each applied patch is reported
// with its row position.
func ApplyCorrections(planets []model.Planet, corrections []Correction) ([]model.Planet, []AppliedCorrection) {
	out := make([]model.Planet, len(planets))
	copy(out, planets)

	var applied []AppliedCorrection
	for _, c := range corrections {
		col := model.PlanetTable.GetColumnByName(c.Column)
		if col == nil || col.Kind != model.KindFloat {
			continue
		}
		for i := range out {
			if out[i].Name != c.Planet {
				continue
			}
			target := col.Value(&out[i])
			if *target != nil && **target == c.Value {
				continue
			}
			applied = append(applied, AppliedCorrection{
				Row:        i,
				Correction: c,
				Previous:   *target,
			})
			*target = model.Float(c.Value)
		}
	}
	return out, applied
}

// AppliedCorrection records one field patched by ApplyCorrections
type AppliedCorrection struct {
	Row        int
	Correction Correction
	Previous   *float64
}
