package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/chart"
	"github.com/David-Botos/exo-habitability/pkg/cleaner"
	"github.com/David-Botos/exo-habitability/pkg/config"
	"github.com/David-Botos/exo-habitability/pkg/converter"
	"github.com/David-Botos/exo-habitability/pkg/dataset"
	"github.com/David-Botos/exo-habitability/pkg/model"
	"github.com/David-Botos/exo-habitability/pkg/report"
	"github.com/David-Botos/exo-habitability/pkg/store"
)

// ErrStoreDisabled is returned by store-backed operations when no database is configured
var ErrStoreDisabled = errors.New("database store is disabled")

// Pipeline loads, cleans and caches the planet table and produces the
// charts and report from it
type Pipeline struct {
	cfg         *config.Config
	logger      *zap.Logger
	converter   *converter.RowConverter
	cleaner     *cleaner.DataCleaner
	corrections []cleaner.Correction
	fingerprint string

	store       *store.Store
	storeOpened bool
}

// Result is the normalized table of one run
type Result struct {
	RunID      string
	Planets    []model.Planet
	Operations []model.CleaningOperation
	CacheHit   bool
	Metrics    *RunMetrics
	Errors     *ErrorHandler
}

// build is a table computed from the source file
type build struct {
	rowsRead   int
	raw        []model.Planet
	cleaned    cleaner.Result
	operations []model.CleaningOperation
}

// NewPipeline creates a pipeline for cfg
func NewPipeline(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger = logger.Named("pipeline")

	corrections, err := cleaner.LoadCorrections(cfg.CorrectionsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load corrections: %w", err)
	}

	dc, err := cleaner.NewDataCleaner(logger, cfg.Derivation, corrections)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:         cfg,
		logger:      logger,
		converter:   converter.NewRowConverter(logger),
		cleaner:     dc,
		corrections: corrections,
		fingerprint: Fingerprint(cfg.Derivation, corrections),
	}, nil
}

// Fingerprint returns the fingerprint written into new snapshots
func (p *Pipeline) Fingerprint() string {
	return p.fingerprint
}

// Close releases the store connection if one was opened
func (p *Pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	err := p.store.Close()
	p.store = nil
	return err
}

// Load returns the normalized table, from the snapshot when the cache
// policy allows it and from the source file otherwise. A table built from
// source is written to the snapshot before Load returns.
func (p *Pipeline) Load(ctx context.Context) (*Result, error) {
	return p.load(ctx, uuid.New().String())
}

func (p *Pipeline) load(ctx context.Context, runID string) (*Result, error) {
	res := &Result{
		RunID:   runID,
		Metrics: NewRunMetrics(runID),
		Errors:  NewErrorHandler(p.logger),
	}

	cached, err := p.readCache()
	if err != nil {
		return res, err
	}
	if cached != nil {
		res.CacheHit = true
		res.Planets = cached.Planets
		res.Metrics.CacheHit = true
		res.Metrics.RowsRead = len(cached.Planets)
		res.Metrics.RecordTable(res.Planets)
		return res, nil
	}

	b, err := p.buildFromSource(ctx, runID)
	if err != nil {
		return res, err
	}
	res.Planets = b.cleaned.Planets
	res.Operations = b.operations
	res.Errors.RecordOperations(b.operations)
	res.Metrics.RowsRead = b.rowsRead
	res.Metrics.ConversionFailures = res.Errors.Count(ErrorCategoryRowLevel)
	res.Metrics.RecordCleaning(b.cleaned.Stats)
	res.Metrics.RecordTable(res.Planets)

	meta := dataset.SnapshotMeta{Schema: model.SchemaVersion, Fingerprint: p.fingerprint}
	if err := dataset.WriteSnapshot(p.cfg.CachePath, meta, res.Planets); err != nil {
		return res, structural(p.cfg.CachePath, ErrCacheUnwritable, err)
	}
	p.logger.Info("Wrote snapshot",
		zap.String("path", p.cfg.CachePath),
		zap.Int("rows", len(res.Planets)))

	p.persistMasterData(ctx, runID, b)
	return res, nil
}

// readCache returns the snapshot to reuse, or nil when the table must be
// built from source
func (p *Pipeline) readCache() (*dataset.Snapshot, error) {
	path := p.cfg.CachePath
	exists, err := dataset.SnapshotExists(path)
	if err != nil {
		return nil, structural(path, ErrCacheUnreadable, err)
	}
	if !exists {
		p.logger.Info("No snapshot found, building from source",
			zap.String("cache_path", path),
			zap.String("input_path", p.cfg.InputPath))
		return nil, nil
	}

	snap, err := dataset.ReadSnapshot(path)
	if err != nil {
		return nil, structural(path, ErrCacheUnreadable, err)
	}

	decision := decideCache(p.cfg.CachePolicy, snap.Meta, p.fingerprint)
	if decision.Mismatch {
		p.logger.Warn("Snapshot does not match current settings",
			zap.String("path", path),
			zap.String("reason", decision.Reason),
			zap.String("policy", string(p.cfg.CachePolicy)),
			zap.Bool("reusing", decision.Reuse))
	}
	if !decision.Reuse {
		return nil, nil
	}

	p.logger.Info("Loaded snapshot", zap.String("path", path), zap.Int("rows", len(snap.Planets)))
	return snap, nil
}

// buildFromSource reads, converts and cleans the source file without
// writing anything
func (p *Pipeline) buildFromSource(ctx context.Context, runID string) (*build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := p.cfg.InputPath
	src, err := dataset.ReadSource(path)
	if err != nil {
		return nil, sourceError(path, err)
	}

	cctx := model.CleaningContext{RunID: runID, SourceName: path}
	raw, ops, err := p.converter.Convert(src.Header, src.Rows, cctx)
	if err != nil {
		return nil, structural(path, ErrMalformedSource, err)
	}

	cleaned := p.cleaner.Clean(raw, cctx)

	operations := make([]model.CleaningOperation, 0, len(ops)+len(cleaned.Operations))
	operations = append(operations, ops...)
	operations = append(operations, cleaned.Operations...)

	return &build{
		rowsRead:   len(src.Rows),
		raw:        raw,
		cleaned:    cleaned,
		operations: operations,
	}, nil
}

func sourceError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return structural(path, ErrSourceNotFound, err)
	}
	return structural(path, ErrMalformedSource, err)
}

// openStore lazily opens the master-data store. Failures are logged and
// leave the store disabled for the rest of the pipeline's life.
func (p *Pipeline) openStore(ctx context.Context) *store.Store {
	if p.storeOpened {
		return p.store
	}
	p.storeOpened = true
	if p.cfg.Database == nil {
		return nil
	}

	st, err := store.Open(ctx, p.cfg.Database, p.logger)
	if err != nil {
		p.logger.Error("Failed to open store, continuing without it", zap.Error(err))
		return nil
	}
	p.store = st
	return st
}

// persistMasterData writes the raw table and audit trail to the store
func (p *Pipeline) persistMasterData(ctx context.Context, runID string, b *build) {
	st := p.openStore(ctx)
	if st == nil {
		return
	}
	if err := st.ImportRaw(ctx, runID, b.raw); err != nil {
		p.logger.Error("Failed to import raw planets", zap.String("run_id", runID), zap.Error(err))
	}
	if err := st.RecordCleaningOperations(ctx, b.operations); err != nil {
		p.logger.Error("Failed to record cleaning operations", zap.String("run_id", runID), zap.Error(err))
	}
}

// Run loads the table, renders every chart and writes the habitability
// report to out. Structural errors abort before any chart is written.
func (p *Pipeline) Run(ctx context.Context, out io.Writer) (res *Result, err error) {
	runID := uuid.New().String()
	p.logger.Info("Starting run",
		zap.String("run_id", runID),
		zap.String("input_path", p.cfg.InputPath),
		zap.String("cache_path", p.cfg.CachePath),
		zap.String("cache_policy", string(p.cfg.CachePolicy)))

	res, err = p.load(ctx, runID)
	defer func() {
		res.Metrics.Complete()
		p.finishRun(ctx, res, err)
	}()
	if err != nil {
		return res, err
	}
	res.Errors.LogSummary()

	renderer, err := chart.NewRenderer(p.logger, p.cfg.OutputDir)
	if err != nil {
		return res, err
	}
	summary, err := renderer.RenderAll(ctx, chart.Build(res.Planets, p.cfg.Derivation.MaxGravityG))
	res.Metrics.ChartsWritten = len(summary.Written)
	res.Metrics.ChartsSkipped = len(summary.Skipped)
	if err != nil {
		if ctx.Err() != nil {
			return res, err
		}
		return res, structural(p.cfg.OutputDir, ErrOutputUnwritable, err)
	}

	if err := report.Write(out, res.Planets); err != nil {
		return res, fmt.Errorf("failed to write report: %w", err)
	}
	return res, nil
}

// finishRun logs the metrics and records the run history and textfile.
// Failures here never change the run's outcome.
func (p *Pipeline) finishRun(ctx context.Context, res *Result, runErr error) {
	m := res.Metrics
	if runErr != nil {
		p.logger.Error("Run failed",
			zap.String("run_id", res.RunID),
			zap.String("category", CategoryOf(runErr).String()),
			zap.Error(runErr))
	} else {
		m.Log(p.logger)
	}

	if st := p.openStore(ctx); st != nil {
		run := store.Run{
			RunID:       res.RunID,
			SourcePath:  p.cfg.InputPath,
			StartedAt:   m.StartTime.UTC(),
			FinishedAt:  m.EndTime.UTC(),
			CacheHit:    m.CacheHit,
			RowsRead:    m.RowsRead,
			RowsWritten: m.RowsWritten,
			Habitable:   m.Habitable,
			Status:      store.RunSucceeded,
		}
		if runErr != nil {
			run.Status = store.RunFailed
			run.Error = runErr.Error()
		}
		if err := st.RecordRun(ctx, run); err != nil {
			p.logger.Error("Failed to record run", zap.String("run_id", res.RunID), zap.Error(err))
		}
	}

	if p.cfg.MetricsPath != "" {
		if err := m.WriteTextfile(p.cfg.MetricsPath); err != nil {
			p.logger.Error("Failed to write metrics textfile",
				zap.String("path", p.cfg.MetricsPath),
				zap.Error(err))
		}
	}
}

// ClearCache removes the snapshot so the next run rebuilds from source.
// It reports whether a snapshot was removed.
func (p *Pipeline) ClearCache() (bool, error) {
	err := os.Remove(p.cfg.CachePath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to remove snapshot %s: %w", p.cfg.CachePath, err)
	}
	p.logger.Info("Removed snapshot", zap.String("path", p.cfg.CachePath))
	return true, nil
}

// History returns up to n recorded runs, newest first
func (p *Pipeline) History(ctx context.Context, n int) ([]store.Run, error) {
	st := p.openStore(ctx)
	if st == nil {
		return nil, ErrStoreDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return st.LatestRuns(ctx, n)
}
