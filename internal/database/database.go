package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
	path string
}

// Path returns the file the database was opened from.
func (db *DB) Path() string { return db.path }

// Connect opens the sqlite database at path and applies migrations from
// migrationsPath when it is not empty.
func Connect(path string, migrationsPath string) (*DB, error) {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
		log.Info().Str("directory", dir).Msg("Created database directory")
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite serializes writers; a small pool avoids SQLITE_BUSY churn.
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(2)

	log.Info().Str("path", path).Msg("Database connection established")

	if migrationsPath != "" {
		if err := migrateUp(sqlDB, migrationsPath); err != nil {
			sqlDB.Close()
			return nil, err
		}
	} else {
		log.Warn().Msg("Migrations path not provided, skipping migrations.")
	}

	return &DB{DB: sqlDB, path: path}, nil
}

func migrateUp(sqlDB *sql.DB, migrationsPath string) error {
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite3 migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info().Str("migrations", migrationsPath).Msg("Database migrations applied successfully or no changes detected")
	return nil
}

// Backup writes a consistent copy of the database to backupFilePath.
func (db *DB) Backup(ctx context.Context, backupFilePath string) error {
	conn, err := db.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection for backup: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "VACUUM INTO ?", backupFilePath); err != nil {
		return fmt.Errorf("failed to backup database to %s: %w", backupFilePath, err)
	}
	log.Info().Str("backup_path", backupFilePath).Msg("Database backup successful")
	return nil
}

// Restore closes the database and replaces its file with backupFilePath.
// The DB must not be used afterwards; reconnect instead.
func (db *DB) Restore(backupFilePath string) error {
	if _, err := os.Stat(backupFilePath); err != nil {
		return fmt.Errorf("backup file %s: %w", backupFilePath, err)
	}
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing current database connection before restore, proceeding cautiously.")
	}

	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(db.path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove current database file %s: %w", db.path+suffix, err)
		}
	}

	src, err := os.Open(backupFilePath)
	if err != nil {
		return fmt.Errorf("failed to open backup file %s: %w", backupFilePath, err)
	}
	defer src.Close()

	dst, err := os.Create(db.path)
	if err != nil {
		return fmt.Errorf("failed to create new database file %s: %w", db.path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy backup to database file: %w", err)
	}
	log.Info().Str("backup_path", backupFilePath).Msg("Database restore successful. Please restart the application.")
	return nil
}
