// Package db mirrors run history and classification outcomes into Postgres.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// NewDB connects to connStr. An empty connStr is built from the DB_*
// environment variables.
func NewDB(ctx context.Context, connStr string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if connStr == "" {
		connStr = connStringFromEnv()
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, logger: logger}
	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func connStringFromEnv() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "jobscout")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "jobscout")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id SERIAL PRIMARY KEY,
			run_key UUID NOT NULL UNIQUE,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			finished_at TIMESTAMPTZ,
			processed INTEGER NOT NULL DEFAULT 0,
			bookmarked INTEGER NOT NULL DEFAULT 0,
			extraction_errors INTEGER NOT NULL DEFAULT 0,
			service_errors INTEGER NOT NULL DEFAULT 0,
			interrupted BOOLEAN NOT NULL DEFAULT FALSE,
			reason TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS outcomes (
			job_id TEXT PRIMARY KEY,
			run_id INTEGER REFERENCES runs(id) ON DELETE SET NULL,
			stage1_pass BOOLEAN NOT NULL,
			stage1_explanation TEXT NOT NULL,
			stage1_answer TEXT,
			stage2_pass BOOLEAN,
			stage2_explanation TEXT,
			stage2_answer TEXT,
			stage3_pass BOOLEAN,
			stage3_explanation TEXT,
			stage3_answer TEXT,
			final_action VARCHAR(20) NOT NULL,
			bookmark VARCHAR(20),
			service_error TEXT,
			inconclusive_stage INTEGER,
			language VARCHAR(8),
			processed_at TIMESTAMPTZ NOT NULL,
			description TEXT,
			CONSTRAINT valid_final_action CHECK (final_action IN ('bookmarked', 'skipped'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create outcomes table: %w", err)
	}

	// tables created before answers and descriptions were recorded
	for _, column := range []string{"stage1_answer", "stage2_answer", "stage3_answer", "description"} {
		if _, err := db.conn.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE outcomes ADD COLUMN IF NOT EXISTS %s TEXT`, column)); err != nil {
			return fmt.Errorf("failed to add outcomes.%s: %w", column, err)
		}
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_outcomes_final_action ON outcomes(final_action)`)
	if err != nil {
		db.logger.Warn("failed to create index on outcomes.final_action", "err", err)
	}
	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id)`)
	if err != nil {
		db.logger.Warn("failed to create index on outcomes.run_id", "err", err)
	}

	db.logger.Debug("database schema initialized")
	return nil
}
