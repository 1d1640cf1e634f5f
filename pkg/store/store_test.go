package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/exo-habitability/pkg/config"
	"github.com/David-Botos/exo-habitability/pkg/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "nested", "exoplanets.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		BusyTimeout:  time.Second,
	}
	s, err := Open(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRejectsNilDependencies(t *testing.T) {
	_, err := Open(context.Background(), nil, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = Open(context.Background(), &config.DatabaseConfig{Path: "x.db"}, nil)
	assert.Error(t, err)
}

func TestOpenIsReentrant(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.createTables(context.Background()), "tables are created with IF NOT EXISTS")
}

func TestStoreTablesAndStats(t *testing.T) {
	s := openTestStore(t)

	var tables []string
	require.NoError(t, s.db.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"))
	assert.Equal(t, []string{"cleaned_on_ingress", "pipeline_runs", "raw_planets"}, tables)

	st := s.Stats()
	assert.Equal(t, 1, st.MaxOpenConns)
	assert.Positive(t, st.FileBytes)
}

func TestImportRawRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	planets := []model.Planet{
		{Name: "Earth", HostStar: "Sun", MassKg: model.Float(5.972e24), RadiusKm: model.Float(6371)},
		{Name: "TRAPPIST-1 e", HostStar: "TRAPPIST-1", DistanceLightYears: model.Float(40.7)},
	}
	require.NoError(t, s.ImportRaw(ctx, "run-1", planets))

	loaded, err := s.LoadRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, planets, loaded)

	// A second import replaces the first
	require.NoError(t, s.ImportRaw(ctx, "run-2", planets[:1]))
	loaded, err = s.LoadRaw(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestImportRawDropsDerivedColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := model.Planet{Name: "b", HostStar: "s", DensityKgM3: model.Float(1), Habitable: model.Bool(true)}
	require.NoError(t, s.ImportRaw(ctx, "run", []model.Planet{p}))

	loaded, err := s.LoadRaw(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Nil(t, loaded[0].DensityKgM3)
	assert.Nil(t, loaded[0].Habitable)
}

func TestRecordCleaningOperations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cctx := model.CleaningContext{RunID: "run-1", SourceName: "ps.csv", RowIdentifier: "Earth", RowIndex: 3}
	ops := []model.CleaningOperation{
		cctx.Operation(model.ColMass, "-1", "", model.OpSentinelCleared, "non_positive_value"),
		cctx.Operation("*", nil, "", model.OpDeduplication, "exact_duplicate_of_row_0"),
	}
	require.NoError(t, s.RecordCleaningOperations(ctx, ops))
	require.NoError(t, s.RecordCleaningOperations(ctx, nil))

	records, err := s.CleaningOperations(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, model.ColMass, records[0].ColumnName)
	require.NotNil(t, records[0].OriginalValue)
	assert.Equal(t, "-1", *records[0].OriginalValue)
	assert.Equal(t, 3, records[0].RowIndex)
	assert.Equal(t, "ps.csv", records[0].SourceName)
	assert.Nil(t, records[1].OriginalValue)
	assert.Equal(t, model.OpDeduplication, records[1].CleaningOperation)

	others, err := s.CleaningOperations(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestRunHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.RecordRun(ctx, Run{
			RunID:       id,
			SourcePath:  "ps.csv",
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
			FinishedAt:  base.Add(time.Duration(i)*time.Minute + time.Second),
			CacheHit:    i%2 == 1,
			RowsRead:    10,
			RowsWritten: 9,
			Habitable:   i,
			Status:      RunSucceeded,
		}))
	}

	runs, err := s.LatestRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)
	assert.True(t, runs[1].CacheHit)
	assert.Equal(t, 2, runs[0].Habitable)
	assert.WithinDuration(t, base.Add(2*time.Minute), runs[0].StartedAt, time.Millisecond)

	// Replacing a run keeps a single row
	require.NoError(t, s.RecordRun(ctx, Run{RunID: "c", SourcePath: "ps.csv", StartedAt: base, FinishedAt: base, Status: RunFailed, Error: "boom"}))
	runs, err = s.LatestRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	none, err := s.LatestRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
