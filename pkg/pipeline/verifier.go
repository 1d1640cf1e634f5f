package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/cleaner"
	"github.com/David-Botos/exo-habitability/pkg/converter"
	"github.com/David-Botos/exo-habitability/pkg/dataset"
	"github.com/David-Botos/exo-habitability/pkg/model"
)

// maxDiscrepancies caps the discrepancies kept per check
const maxDiscrepancies = 20

// floatTolerance is the relative difference below which two floats match
const floatTolerance = 1e-12

// RowDiscrepancy represents a discrepancy between cached and expected rows
type RowDiscrepancy struct {
	Row         int
	RowID       string
	ColumnName  string
	CachedValue string
	FreshValue  string
	Discrepancy string
}

// IntegrityIssue is a cached row whose derived columns disagree with its
// own observations
type IntegrityIssue struct {
	Row        int
	RowID      string
	ColumnName string
	Stored     string
	Expected   string
}

// VerificationReport contains the results of comparing the snapshot with a
// fresh build from the source file
type VerificationReport struct {
	CachePath          string
	SourcePath         string
	VerificationTime   time.Time
	FingerprintMatches bool
	CachedFingerprint  string
	CurrentFingerprint string
	RowCountMatches    bool
	CachedRows         int
	FreshRows          int
	RowsMatch          bool
	Discrepancies      []RowDiscrepancy
	TotalDiscrepancies int
	IntegrityVerified  bool
	IntegrityIssues    []IntegrityIssue
	StoreChecked       bool
	StoredRawRows      int
	Duration           time.Duration
}

// OK reports whether every check passed
func (r *VerificationReport) OK() bool {
	return r.FingerprintMatches && r.RowCountMatches && r.RowsMatch && r.IntegrityVerified
}

// Verify checks the snapshot against a fresh build without overwriting it.
// A missing snapshot is a structural error.
func (p *Pipeline) Verify(ctx context.Context) (*VerificationReport, error) {
	startTime := time.Now()
	report := &VerificationReport{
		CachePath:          p.cfg.CachePath,
		SourcePath:         p.cfg.InputPath,
		VerificationTime:   startTime,
		CurrentFingerprint: p.fingerprint,
	}

	p.logger.Info("Verifying snapshot",
		zap.String("cache_path", p.cfg.CachePath),
		zap.String("input_path", p.cfg.InputPath))

	exists, err := dataset.SnapshotExists(p.cfg.CachePath)
	if err != nil {
		return nil, structural(p.cfg.CachePath, ErrCacheUnreadable, err)
	}
	if !exists {
		return nil, structural(p.cfg.CachePath, ErrCacheUnreadable, fmt.Errorf("no snapshot to verify"))
	}
	snap, err := dataset.ReadSnapshot(p.cfg.CachePath)
	if err != nil {
		return nil, structural(p.cfg.CachePath, ErrCacheUnreadable, err)
	}
	report.CachedFingerprint = snap.Meta.Fingerprint
	report.FingerprintMatches = snap.Meta.Schema == model.SchemaVersion && snap.Meta.Fingerprint == p.fingerprint

	b, err := p.buildFromSource(ctx, "verify")
	if err != nil {
		return nil, err
	}
	fresh := b.cleaned.Planets

	// 1. Row count
	report.CachedRows = len(snap.Planets)
	report.FreshRows = len(fresh)
	report.RowCountMatches = report.CachedRows == report.FreshRows

	// 2. Row values
	report.Discrepancies, report.TotalDiscrepancies = compareRows(snap.Planets, fresh)
	report.RowsMatch = report.RowCountMatches && report.TotalDiscrepancies == 0

	// 3. Derived columns agree with the observations they came from
	report.IntegrityIssues = p.checkIntegrity(snap.Planets)
	report.IntegrityVerified = len(report.IntegrityIssues) == 0

	// 4. Raw master data
	if st := p.openStore(ctx); st != nil {
		raw, err := st.LoadRaw(ctx)
		if err != nil {
			p.logger.Warn("Raw master data check failed", zap.Error(err))
		} else {
			report.StoreChecked = true
			report.StoredRawRows = len(raw)
		}
	}

	report.Duration = time.Since(startTime)

	logFn := p.logger.Info
	if !report.OK() {
		logFn = p.logger.Warn
	}
	logFn("Verification report completed",
		zap.Bool("fingerprint_match", report.FingerprintMatches),
		zap.Bool("row_count_match", report.RowCountMatches),
		zap.Int("cached_rows", report.CachedRows),
		zap.Int("fresh_rows", report.FreshRows),
		zap.Int("discrepancies", report.TotalDiscrepancies),
		zap.Int("integrity_issues", len(report.IntegrityIssues)),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// checkIntegrity re-derives every cached row and reports derived columns
// that changed
func (p *Pipeline) checkIntegrity(planets []model.Planet) []IntegrityIssue {
	var issues []IntegrityIssue
	for i := range planets {
		stored := &planets[i]
		expected := cleaner.Derive(*stored, p.cfg.Derivation)
		for _, col := range model.PlanetTable.Columns {
			if col.Observational {
				continue
			}
			s, e := cellString(stored, col), cellString(&expected, col)
			if cellsEqual(stored, &expected, col) {
				continue
			}
			if len(issues) < maxDiscrepancies {
				issues = append(issues, IntegrityIssue{
					Row:        i,
					RowID:      stored.Name,
					ColumnName: col.Name,
					Stored:     s,
					Expected:   e,
				})
			}
		}
	}
	return issues
}

// compareRows compares rows pairwise by position. It returns up to
// maxDiscrepancies samples and the total count.
func compareRows(cached, fresh []model.Planet) ([]RowDiscrepancy, int) {
	var discrepancies []RowDiscrepancy
	total := 0
	add := func(d RowDiscrepancy) {
		total++
		if len(discrepancies) < maxDiscrepancies {
			discrepancies = append(discrepancies, d)
		}
	}

	n := len(cached)
	if len(fresh) < n {
		n = len(fresh)
	}
	for i := 0; i < n; i++ {
		c, f := &cached[i], &fresh[i]
		for _, col := range model.PlanetTable.Columns {
			if cellsEqual(c, f, col) {
				continue
			}
			add(RowDiscrepancy{
				Row:         i,
				RowID:       c.Name,
				ColumnName:  col.Name,
				CachedValue: cellString(c, col),
				FreshValue:  cellString(f, col),
				Discrepancy: "value mismatch",
			})
		}
	}
	for i := n; i < len(cached); i++ {
		add(RowDiscrepancy{Row: i, RowID: cached[i].Name, ColumnName: "*", Discrepancy: "missing in fresh build"})
	}
	for i := n; i < len(fresh); i++ {
		add(RowDiscrepancy{Row: i, RowID: fresh[i].Name, ColumnName: "*", Discrepancy: "missing in snapshot"})
	}
	return discrepancies, total
}

func cellsEqual(a, b *model.Planet, col model.Column) bool {
	if col.Kind == model.KindFloat {
		return valuesEqual(*col.Value(a), *col.Value(b))
	}
	return cellString(a, col) == cellString(b, col)
}

// valuesEqual compares two optional floats with a relative tolerance
func valuesEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if *a == *b {
		return true
	}
	scale := math.Max(math.Abs(*a), math.Abs(*b))
	return math.Abs(*a-*b) <= floatTolerance*scale
}

func cellString(p *model.Planet, col model.Column) string {
	switch col.Kind {
	case model.KindText:
		return *col.Text(p)
	case model.KindFloat:
		return converter.FormatFloat(*col.Value(p))
	case model.KindPlanetType:
		if p.Type == nil {
			return ""
		}
		return p.Type.String()
	case model.KindBool:
		if v := *col.Flag(p); v != nil {
			return fmt.Sprintf("%t", *v)
		}
	}
	return ""
}
