package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/config"
)

// Stats describes the store file and its connection pool
type Stats struct {
	Path            string
	FileBytes       int64
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
	WaitCount       int64
	WaitDuration    time.Duration
}

// Stats returns pool statistics and the current size of the database file
func (s *Store) Stats() Stats {
	pool := s.db.Stats()
	st := Stats{
		Path:            s.cfg.Path,
		OpenConnections: pool.OpenConnections,
		InUse:           pool.InUse,
		Idle:            pool.Idle,
		MaxOpenConns:    pool.MaxOpenConnections,
		WaitCount:       pool.WaitCount,
		WaitDuration:    pool.WaitDuration,
	}
	if info, err := os.Stat(s.cfg.Path); err == nil {
		st.FileBytes = info.Size()
	}
	return st
}

func (s *Store) logStats(msg string) {
	st := s.Stats()
	s.logger.Debug(msg,
		zap.String("path", st.Path),
		zap.Int64("file_bytes", st.FileBytes),
		zap.Int("open_connections", st.OpenConnections),
		zap.Int("in_use", st.InUse),
		zap.Int("idle", st.Idle),
		zap.Int("max_open", st.MaxOpenConns),
		zap.Int64("wait_count", st.WaitCount),
		zap.Duration("wait_duration", st.WaitDuration),
	)
}

// pingWithTimeout pings the database, giving up after timeout
func pingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if pingCtx.Err() != nil {
			return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
		}
		return err
	}
	return nil
}

// applyPoolSettings copies the non-zero pool limits onto db
func applyPoolSettings(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}
