// Package store persists analysis runs and their findings in SQLite.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrEmptyPath is returned when database path is empty
var ErrEmptyPath = errors.New("database path is required")

// OpenOptions holds options for opening a database
type OpenOptions struct {
	Path     string          // Database file path (required)
	LogLevel logger.LogLevel // GORM log level (default: Silent)
}

// OpenSQLite opens a SQLite database with pragmas tuned for a single writer
// and migrates the schema.
func OpenSQLite(opts OpenOptions) (*gorm.DB, error) {
	if opts.Path == "" {
		return nil, ErrEmptyPath
	}

	if opts.Path != MemoryPath {
		if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, appErrors.DirectoryCreateError(dir, err)
			}
		}
	}

	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Silent
	}

	// github.com/glebarez/sqlite is pure Go, no CGO required
	db, err := gorm.Open(sqlite.Open(opts.Path), &gorm.Config{
		Logger: logger.Default.LogMode(opts.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}

	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := db.AutoMigrate(&Run{}, &Finding{}); err != nil {
		_ = sqlDB.Close()
		return nil, appErrors.WrapWithContext(err, "migrate schema")
	}

	return db, nil
}
