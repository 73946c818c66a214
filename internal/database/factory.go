package database

import (
	"fmt"
	"path/filepath"

	"tidy-go/internal/config"
	"tidy-go/internal/tidy"
)

// NewDatabaseFromConfig creates a Database implementation based on the
// database config type and brings its schema up to date. Type "none"
// disables run history and returns a nil Database.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (tidy.Database, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		path = filepath.Join(cfg.DataDir, "tidy.db")
	case "memory":
		path = ":memory:"
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	db, err := NewSQLiteDatabase(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}
	return db, nil
}
