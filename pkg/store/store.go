// Package store keeps the SQLite master-data copy of each source, the
// cleaning audit trail and the run history.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/exo-habitability/pkg/config"
	"github.com/David-Botos/exo-habitability/pkg/model"
)

const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// Store is the SQLite master-data store
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.DatabaseConfig
}

// Open creates or opens the store file and ensures its tables exist
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("database configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logger.Named("store")

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	logger.Info("Opening SQLite store", zap.String("path", cfg.Path))

	db, err := sqlx.Open(driverName, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite connection: %w", err)
	}

	applyPoolSettings(db.DB, cfg)

	if err := pingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open SQLite store %s: %w", cfg.Path, err)
	}

	s := &Store{db: db, logger: logger, cfg: cfg}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup store tables: %w", err)
	}

	s.logStats("Store ready")
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.logStats("Closing store")
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	statements := []string{
		rawPlanetsDDL(),
		`CREATE TABLE IF NOT EXISTS cleaned_on_ingress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			source_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			row_identifier TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cleaned_on_ingress_run ON cleaned_on_ingress (run_id)`,
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			run_id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			cache_hit INTEGER NOT NULL,
			rows_read INTEGER NOT NULL,
			rows_written INTEGER NOT NULL,
			habitable INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	s.logger.Debug("Ensured store tables exist")
	return nil
}

// rawPlanetsDDL builds the raw_planets table from the observational columns
func rawPlanetsDDL() string {
	defs := []string{"run_id TEXT NOT NULL", "row_index INTEGER NOT NULL"}
	for _, col := range model.PlanetTable.ObservationalColumns() {
		defs = append(defs, col.Name+" "+sqlType(col.Kind))
	}
	defs = append(defs, "PRIMARY KEY (run_id, row_index)")
	return "CREATE TABLE IF NOT EXISTS raw_planets (\n\t" + strings.Join(defs, ",\n\t") + "\n)"
}

func sqlType(kind model.ColumnKind) string {
	switch kind {
	case model.KindFloat:
		return "REAL"
	case model.KindText:
		return "TEXT NOT NULL DEFAULT ''"
	default:
		return "TEXT"
	}
}
