package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobscout/models"
)

// RunStats is what a finished run reports back
type RunStats struct {
	Processed        int
	Bookmarked       int
	ExtractionErrors int
	ServiceErrors    int
	Interrupted      bool
	Reason           string
}

// Run is one traversal recorded in the database
type Run struct {
	ID         int
	Key        uuid.UUID
	StartedAt  time.Time
	FinishedAt sql.NullTime
	RunStats
}

// StartRun records the start of a traversal and returns its id. key is the
// correlation id the run logs with.
func (db *DB) StartRun(ctx context.Context, key uuid.UUID) (int, error) {
	var id int
	err := db.conn.QueryRowContext(ctx, `INSERT INTO runs (run_key) VALUES ($1) RETURNING id`, key).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stores the final counters of a run
func (db *DB) FinishRun(ctx context.Context, runID int, stats RunStats) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = NOW(), processed = $1, bookmarked = $2, extraction_errors = $3,
			service_errors = $4, interrupted = $5, reason = $6
		WHERE id = $7
	`, stats.Processed, stats.Bookmarked, stats.ExtractionErrors, stats.ServiceErrors, stats.Interrupted, stats.Reason, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// LastRuns returns the most recent runs, newest first
func (db *DB) LastRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, run_key, started_at, finished_at, processed, bookmarked, extraction_errors, service_errors, interrupted, COALESCE(reason, '')
		FROM runs
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Key, &r.StartedAt, &r.FinishedAt, &r.Processed, &r.Bookmarked,
			&r.ExtractionErrors, &r.ServiceErrors, &r.Interrupted, &r.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveOutcome upserts the outcome of one job. A job classified again after
// a retry replaces its earlier row.
func (db *DB) SaveOutcome(ctx context.Context, runID int, o models.ClassificationOutcome) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO outcomes (job_id, run_id, stage1_pass, stage1_explanation, stage2_pass, stage2_explanation,
			stage3_pass, stage3_explanation, final_action, bookmark, service_error, inconclusive_stage, language, processed_at,
			stage1_answer, stage2_answer, stage3_answer, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (job_id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			stage1_pass = EXCLUDED.stage1_pass,
			stage1_explanation = EXCLUDED.stage1_explanation,
			stage2_pass = EXCLUDED.stage2_pass,
			stage2_explanation = EXCLUDED.stage2_explanation,
			stage3_pass = EXCLUDED.stage3_pass,
			stage3_explanation = EXCLUDED.stage3_explanation,
			final_action = EXCLUDED.final_action,
			bookmark = EXCLUDED.bookmark,
			service_error = EXCLUDED.service_error,
			inconclusive_stage = EXCLUDED.inconclusive_stage,
			language = EXCLUDED.language,
			processed_at = EXCLUDED.processed_at,
			stage1_answer = EXCLUDED.stage1_answer,
			stage2_answer = EXCLUDED.stage2_answer,
			stage3_answer = EXCLUDED.stage3_answer,
			description = EXCLUDED.description
	`,
		string(o.ID), nullInt(runID), o.Stage1Pass, o.Stage1Explanation,
		nullBool(o.Stage2Pass), nullString(o.Stage2Explanation),
		nullBool(o.Stage3Pass), nullString(o.Stage3Explanation),
		string(o.FinalAction), nullText(string(o.Bookmark)), nullText(o.ServiceError),
		nullInt(o.InconclusiveStage), nullText(o.Language), o.ProcessedAt,
		nullString(o.Stage1Answer), nullString(o.Stage2Answer), nullString(o.Stage3Answer), nullText(o.Description),
	)
	if err != nil {
		return fmt.Errorf("failed to save outcome %s: %w", o.ID, err)
	}
	return nil
}

// CountOutcomes returns the number of stored outcomes per final action
func (db *DB) CountOutcomes(ctx context.Context) (map[models.FinalAction]int, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT final_action, COUNT(*) FROM outcomes GROUP BY final_action`)
	if err != nil {
		return nil, fmt.Errorf("failed to count outcomes: %w", err)
	}
	defer rows.Close()

	counts := map[models.FinalAction]int{}
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[models.FinalAction(action)] = n
	}
	return counts, rows.Err()
}

// Recorder mirrors outcomes of one run into the database
type Recorder struct {
	db    *DB
	runID int
}

// Recorder returns an outcome sink bound to runID
func (db *DB) Recorder(runID int) *Recorder {
	return &Recorder{db: db, runID: runID}
}

// RecordOutcome implements traversal.OutcomeSink
func (r *Recorder) RecordOutcome(ctx context.Context, o models.ClassificationOutcome) error {
	return r.db.SaveOutcome(ctx, r.runID, o)
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
