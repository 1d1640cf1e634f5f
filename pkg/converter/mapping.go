// pkg/converter/mapping.go
package converter

import (
	"sort"
	"strings"

	"github.com/David-Botos/exo-habitability/pkg/model"
	"github.com/David-Botos/exo-habitability/pkg/physics"
)

// Mass and radius of Jupiter for the archive's Jupiter-unit columns
const (
	jupiterMassKg   = 1.898e27
	jupiterRadiusKm = 69911.0
)

// Alias maps a source header onto a canonical column
type Alias struct {
	Column   string  // Canonical column name
	Scale    float64 // Multiplier into the canonical unit
	Unit     string  // Source unit, for the audit trail
	Priority int     // Higher wins when several headers feed one column
}

// archiveAliases covers the NASA Exoplanet Archive PS/PSCompPars column names
var archiveAliases = map[string]Alias{
	"pl_name":     {Column: model.ColName, Scale: 1},
	"hostname":    {Column: model.ColHostStar, Scale: 1},
	"pl_orbper":   {Column: model.ColOrbitalPeriod, Scale: 1, Unit: "days"},
	"pl_orbsmax":  {Column: model.ColSemiMajorAxis, Scale: 1, Unit: "AU"},
	"pl_orbeccen": {Column: model.ColEccentricity, Scale: 1},
	"pl_insol":    {Column: model.ColInsolation, Scale: 1, Unit: "earth flux"},
	"pl_eqt":      {Column: model.ColEquilibriumTemp, Scale: 1, Unit: "K"},
	"st_teff":     {Column: model.ColStellarTemp, Scale: 1, Unit: "K"},
	"st_rad":      {Column: model.ColStellarRadius, Scale: physics.SolarRadiusKm, Unit: "solar radii"},
	"sy_dist":     {Column: model.ColDistance, Scale: physics.ParsecInLightYears, Unit: "pc"},
	"pl_rade":     {Column: model.ColRadius, Scale: physics.EarthRadiusKm, Unit: "earth radii", Priority: 1},
	"pl_radj":     {Column: model.ColRadius, Scale: jupiterRadiusKm, Unit: "jupiter radii"},
	"pl_bmasse":   {Column: model.ColMass, Scale: physics.EarthMassKg, Unit: "earth masses", Priority: 1},
	"pl_bmassj":   {Column: model.ColMass, Scale: jupiterMassKg, Unit: "jupiter masses"},
}

// binding ties a source column index to a canonical column
type binding struct {
	index  int
	header string
	alias  Alias
	column *model.Column
}

// ResolveAlias maps a header to its canonical column. Canonical names map to
// themselves with no scaling. Only observational columns are bound; derived
// columns in a raw source are recomputed.
func ResolveAlias(header string) (Alias, bool) {
	key := strings.ToLower(strings.TrimSpace(header))
	if alias, ok := archiveAliases[key]; ok {
		return alias, true
	}
	col := model.PlanetTable.GetColumnByName(key)
	if col == nil || !col.Observational {
		return Alias{}, false
	}
	// Canonical headers outrank archive aliases for the same column
	return Alias{Column: col.Name, Scale: 1, Unit: col.Unit, Priority: 2}, true
}

// bindHeaders resolves every header, ordered so higher-priority sources are
// applied first. Unknown headers are returned for logging.
func bindHeaders(headers []string) ([]binding, []string) {
	var bindings []binding
	var unknown []string

	for i, h := range headers {
		alias, ok := ResolveAlias(h)
		if !ok {
			unknown = append(unknown, h)
			continue
		}
		col := model.PlanetTable.GetColumnByName(alias.Column)
		if col == nil {
			unknown = append(unknown, h)
			continue
		}
		bindings = append(bindings, binding{
			index:  i,
			header: strings.TrimSpace(h),
			alias:  alias,
			column: col,
		})
	}

	sort.SliceStable(bindings, func(i, j int) bool {
		return bindings[i].alias.Priority > bindings[j].alias.Priority
	})
	return bindings, unknown
}

// hasColumn reports whether any binding feeds the canonical column
func hasColumn(bindings []binding, column string) bool {
	for _, b := range bindings {
		if b.alias.Column == column {
			return true
		}
	}
	return false
}
