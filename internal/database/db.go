package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/config"

	_ "github.com/lib/pq"
)

type Database struct {
	*sql.DB
}

func NewPostgresDatabase(cfg config.DatabaseConfig) (Database, error) {
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return Database{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Minute * 10)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if err := db.Close(); err != nil {
			return Database{}, fmt.Errorf("failed to close database: %w", err)
		}
		return Database{}, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Connected to postgres successfully")
	return Database{DB: db}, nil
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
func (d Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
