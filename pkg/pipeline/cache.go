package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/David-Botos/exo-habitability/pkg/cleaner"
	"github.com/David-Botos/exo-habitability/pkg/config"
	"github.com/David-Botos/exo-habitability/pkg/dataset"
	"github.com/David-Botos/exo-habitability/pkg/model"
	"github.com/David-Botos/exo-habitability/pkg/physics"
)

// Fingerprint hashes everything that changes the normalized table for a
// given source: the schema version, the derivation settings and the
// manual corrections. Correction order does not matter.
func Fingerprint(settings physics.Settings, corrections []cleaner.Correction) string {
	h := sha256.New()
	write := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(h, format, args...)
	}

	write("schema=%d\n", model.SchemaVersion)
	write("gas_max_density=%g\n", settings.Thresholds.GasGiantMaxDensity)
	write("iron_min_density=%g\n", settings.Thresholds.IronMinDensity)
	write("hz_min_k=%g\n", settings.Zone.MinK)
	write("hz_max_k=%g\n", settings.Zone.MaxK)
	write("max_gravity_g=%g\n", settings.MaxGravityG)
	write("bond_albedo=%g\n", settings.BondAlbedo)

	sorted := make([]cleaner.Correction, len(corrections))
	copy(sorted, corrections)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Planet != sorted[j].Planet {
			return sorted[i].Planet < sorted[j].Planet
		}
		return sorted[i].Column < sorted[j].Column
	})
	for _, c := range sorted {
		write("correction=%q,%q,%g\n", c.Planet, c.Column, c.Value)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// cacheDecision is the outcome of comparing a snapshot with the current run
type cacheDecision struct {
	Reuse    bool
	Mismatch bool
	Reason   string
}

func decideCache(policy config.CachePolicy, meta dataset.SnapshotMeta, fingerprint string) cacheDecision {
	var reason string
	switch {
	case meta.Schema != model.SchemaVersion:
		reason = fmt.Sprintf("snapshot schema %d, current schema %d", meta.Schema, model.SchemaVersion)
	case meta.Fingerprint != fingerprint:
		reason = "derivation settings or corrections changed"
	}

	if reason == "" {
		return cacheDecision{Reuse: true}
	}
	if policy == config.CacheFingerprint {
		return cacheDecision{Reuse: false, Mismatch: true, Reason: reason}
	}
	return cacheDecision{Reuse: true, Mismatch: true, Reason: reason}
}
