// pkg/config/database.go
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds SQLite master-data store parameters
type DatabaseConfig struct {
	Path string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Busy timeout applied per connection
	BusyTimeout time.Duration
}

// LoadDatabaseConfig loads store configuration from environment variables.
// Setting EXO_DATABASE_PATH to an empty value disables the store.
func LoadDatabaseConfig() *DatabaseConfig {
	path, set := os.LookupEnv("EXO_DATABASE_PATH")
	if !set {
		path = "./data/exoplanets.db"
	}
	if path == "" {
		return nil
	}

	return &DatabaseConfig{
		Path: path,

		// SQLite allows a single writer
		MaxOpenConns:    getEnvAsInt("EXO_DATABASE_MAX_OPEN_CONNS", 1),
		MaxIdleConns:    getEnvAsInt("EXO_DATABASE_MAX_IDLE_CONNS", 1),
		ConnMaxLifetime: time.Duration(getEnvAsInt("EXO_DATABASE_CONN_MAX_LIFETIME_SECONDS", 0)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("EXO_DATABASE_CONN_MAX_IDLE_TIME_SECONDS", 0)) * time.Second,
		BusyTimeout:     time.Duration(getEnvAsInt("EXO_DATABASE_BUSY_TIMEOUT_MS", 5000)) * time.Millisecond,
	}
}

// Validate checks the store settings
func (c *DatabaseConfig) Validate() error {
	if c.Path == "" {
		return errors.New("database path is required")
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return errors.New("connection pool sizes cannot be negative")
	}
	if c.BusyTimeout < 0 {
		return errors.New("busy timeout cannot be negative")
	}
	return nil
}

// ConnectionString returns a modernc.org/sqlite DSN for the store file
func (c *DatabaseConfig) ConnectionString() string {
	dsn := "file:" + c.Path + "?_pragma=foreign_keys(1)"
	if c.BusyTimeout > 0 {
		dsn += "&_pragma=busy_timeout(" + strconv.FormatInt(c.BusyTimeout.Milliseconds(), 10) + ")"
	}
	return dsn
}
