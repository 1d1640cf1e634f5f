package pipeline

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/cleaner"
	"github.com/David-Botos/exo-habitability/pkg/model"
)

// RunMetrics tracks what one run read, changed and produced
type RunMetrics struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	CacheHit  bool

	RowsRead            int
	RowsWritten         int
	DuplicatesRemoved   int
	SentinelsCleared    int
	CorrectionsApplied  int
	ConversionFailures  int
	TemperaturesDerived int

	// Non-null count per derived column
	DerivedCounts map[string]int

	InHabitableZone int
	Habitable       int
	ChartsWritten   int
	ChartsSkipped   int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(runID string) *RunMetrics {
	return &RunMetrics{
		RunID:         runID,
		StartTime:     time.Now(),
		DerivedCounts: make(map[string]int),
	}
}

// RecordCleaning copies the cleaner's counters
func (m *RunMetrics) RecordCleaning(stats cleaner.Stats) {
	m.DuplicatesRemoved = stats.DuplicatesRemoved
	m.SentinelsCleared = stats.SentinelsCleared
	m.CorrectionsApplied = stats.CorrectionsApplied
	m.TemperaturesDerived = stats.TemperaturesDerived
}

// RecordTable counts derived coverage and habitability over the final table
func (m *RunMetrics) RecordTable(planets []model.Planet) {
	m.RowsWritten = len(planets)
	m.InHabitableZone = 0
	m.Habitable = 0
	for k := range m.DerivedCounts {
		delete(m.DerivedCounts, k)
	}

	for i := range planets {
		p := &planets[i]
		for _, col := range model.PlanetTable.Columns {
			if col.Observational || !isSet(p, col) {
				continue
			}
			m.DerivedCounts[col.Name]++
		}
		if p.IsInHabitableZone() {
			m.InHabitableZone++
		}
		if p.IsHabitable() {
			m.Habitable++
		}
	}
}

func isSet(p *model.Planet, col model.Column) bool {
	switch col.Kind {
	case model.KindText:
		return *col.Text(p) != ""
	case model.KindFloat:
		return *col.Value(p) != nil
	case model.KindPlanetType:
		return p.Type != nil
	case model.KindBool:
		return *col.Flag(p) != nil
	}
	return false
}

// Complete marks the end of the run
func (m *RunMetrics) Complete() {
	m.EndTime = time.Now()
}

// Duration returns the run duration so far
func (m *RunMetrics) Duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// Log writes the end-of-run summary
func (m *RunMetrics) Log(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("run_id", m.RunID),
		zap.Bool("cache_hit", m.CacheHit),
		zap.Int("rows_read", m.RowsRead),
		zap.Int("rows_written", m.RowsWritten),
		zap.Int("duplicates_removed", m.DuplicatesRemoved),
		zap.Int("sentinels_cleared", m.SentinelsCleared),
		zap.Int("corrections_applied", m.CorrectionsApplied),
		zap.Int("conversion_failures", m.ConversionFailures),
		zap.Int("temperatures_derived", m.TemperaturesDerived),
		zap.Int("in_habitable_zone", m.InHabitableZone),
		zap.Int("habitable", m.Habitable),
		zap.Int("charts_written", m.ChartsWritten),
		zap.Int("charts_skipped", m.ChartsSkipped),
		zap.Duration("duration", m.Duration()),
	}
	for _, col := range model.PlanetTable.Columns {
		if !col.Observational {
			fields = append(fields, zap.Int("derived."+col.Name, m.DerivedCounts[col.Name]))
		}
	}
	logger.Info("Run completed", fields...)
}

// Registry exposes the metrics as Prometheus gauges
func (m *RunMetrics) Registry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	gauge := func(name, help string, value float64) error {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exohab",
			Name:      name,
			Help:      help,
		})
		g.Set(value)
		return reg.Register(g)
	}

	cacheHit := 0.0
	if m.CacheHit {
		cacheHit = 1
	}

	gauges := []struct {
		name  string
		help  string
		value float64
	}{
		{"rows_read", "Rows read from the source file.", float64(m.RowsRead)},
		{"rows_written", "Rows in the normalized table.", float64(m.RowsWritten)},
		{"duplicates_removed", "Exact duplicate rows dropped.", float64(m.DuplicatesRemoved)},
		{"sentinels_cleared", "Non-positive sentinel values set to null.", float64(m.SentinelsCleared)},
		{"corrections_applied", "Fields patched by manual corrections.", float64(m.CorrectionsApplied)},
		{"conversion_failures", "Cells that could not be parsed.", float64(m.ConversionFailures)},
		{"temperatures_derived", "Equilibrium temperatures computed from stellar parameters.", float64(m.TemperaturesDerived)},
		{"habitable_zone_planets", "Planets inside the habitable temperature band.", float64(m.InHabitableZone)},
		{"habitable_planets", "Planets passing every habitability test.", float64(m.Habitable)},
		{"charts_written", "Chart files written.", float64(m.ChartsWritten)},
		{"cache_hit", "1 when the run reused the cached snapshot.", cacheHit},
		{"run_duration_seconds", "Wall time of the run.", m.Duration().Seconds()},
		{"last_run_timestamp_seconds", "Unix time the run finished.", float64(m.EndTime.Unix())},
	}
	for _, g := range gauges {
		if err := gauge(g.name, g.help, g.value); err != nil {
			return nil, fmt.Errorf("failed to register metric %s: %w", g.name, err)
		}
	}

	derived := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "exohab",
		Name:      "derived_values",
		Help:      "Non-null values per derived column.",
	}, []string{"column"})
	for column, n := range m.DerivedCounts {
		derived.WithLabelValues(column).Set(float64(n))
	}
	if err := reg.Register(derived); err != nil {
		return nil, fmt.Errorf("failed to register metric derived_values: %w", err)
	}

	return reg, nil
}

// WriteTextfile writes the metrics in the node-exporter textfile format
func (m *RunMetrics) WriteTextfile(path string) error {
	reg, err := m.Registry()
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
