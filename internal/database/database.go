package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/jordanhubbard/strata/pkg/models"
)

// Database persists learn-cycle history and performance records to
// PostgreSQL. Moving history out of process memory is how a deployment
// bounds the orchestrator's long-lived collections.
type Database struct {
	db *sql.DB
}

// rebind converts ? placeholders to $1, $2, ... for PostgreSQL.
func rebind(query string) string {
	n := 1
	out := strings.Builder{}
	for _, ch := range query {
		if ch == '?' {
			out.WriteString(fmt.Sprintf("$%d", n))
			n++
		} else {
			out.WriteRune(ch)
		}
	}
	return out.String()
}

// New opens a PostgreSQL connection and initializes the schema.
func New(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	d := &Database{db: db}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return d, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping verifies the connection is still alive.
func (d *Database) Ping() error {
	return d.db.Ping()
}

func (d *Database) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS learn_cycles (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		batch_id TEXT,
		tasks_created INTEGER NOT NULL,
		tasks_skipped INTEGER NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		success BOOLEAN NOT NULL,
		insights JSONB,
		duration_ms BIGINT NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS performance_records (
		id BIGSERIAL PRIMARY KEY,
		cycle_id TEXT NOT NULL REFERENCES learn_cycles(id) ON DELETE CASCADE,
		task_id TEXT NOT NULL,
		category TEXT NOT NULL,
		efficiency DOUBLE PRECISION NOT NULL,
		improvement_rate DOUBLE PRECISION NOT NULL,
		stability DOUBLE PRECISION NOT NULL,
		samples_processed INTEGER NOT NULL,
		adaptation_count INTEGER NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_perf_cycle ON performance_records(cycle_id);
	CREATE INDEX IF NOT EXISTS idx_perf_category ON performance_records(category);
	CREATE INDEX IF NOT EXISTS idx_cycles_completed ON learn_cycles(completed_at);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// CycleRow is one persisted learn cycle.
type CycleRow struct {
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	BatchID      string    `json:"batch_id,omitempty"`
	TasksCreated int       `json:"tasks_created"`
	TasksSkipped int       `json:"tasks_skipped"`
	Confidence   float64   `json:"confidence"`
	Success      bool      `json:"success"`
	DurationMs   int64     `json:"duration_ms"`
	CompletedAt  time.Time `json:"completed_at"`
}

// InsertCycle stores a learning result and its performance records in one
// transaction.
func (d *Database) InsertCycle(batchID string, result *models.LearningResult, records []*models.PerformanceRecord) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	insights, err := json.Marshal(result.Insights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	_, err = tx.Exec(rebind(`
		INSERT INTO learn_cycles (id, mode, batch_id, tasks_created, tasks_skipped, confidence, success, insights, duration_ms, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		result.CycleID, string(result.Mode), batchID,
		result.TasksCreated, result.TasksSkipped,
		result.Confidence, result.Success, string(insights),
		result.Duration.Milliseconds(), result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle %s: %w", result.CycleID, err)
	}

	for _, r := range records {
		_, err = tx.Exec(rebind(`
			INSERT INTO performance_records (cycle_id, task_id, category, efficiency, improvement_rate, stability, samples_processed, adaptation_count, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			result.CycleID, r.TaskID, string(r.Category),
			r.Efficiency, r.ImprovementRate, r.Stability,
			r.SamplesProcessed, r.AdaptationCount, r.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert performance record for task %s: %w", r.TaskID, err)
		}
	}

	return tx.Commit()
}

// RecentCycles returns the most recent learn cycles, newest first.
func (d *Database) RecentCycles(limit int) ([]*CycleRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(rebind(`
		SELECT id, mode, COALESCE(batch_id, ''), tasks_created, tasks_skipped, confidence, success, duration_ms, completed_at
		FROM learn_cycles ORDER BY completed_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var out []*CycleRow
	for rows.Next() {
		var c CycleRow
		if err := rows.Scan(&c.ID, &c.Mode, &c.BatchID, &c.TasksCreated, &c.TasksSkipped, &c.Confidence, &c.Success, &c.DurationMs, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// CategoryEfficiency returns the mean efficiency per strategy category over
// the last `since` window.
func (d *Database) CategoryEfficiency(since time.Duration) (map[string]float64, error) {
	rows, err := d.db.Query(rebind(`
		SELECT category, AVG(efficiency) FROM performance_records
		WHERE recorded_at > ? GROUP BY category`), time.Now().Add(-since))
	if err != nil {
		return nil, fmt.Errorf("failed to query category efficiency: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var category string
		var eff float64
		if err := rows.Scan(&category, &eff); err != nil {
			return nil, fmt.Errorf("failed to scan category efficiency: %w", err)
		}
		out[category] = eff
	}
	return out, rows.Err()
}
