// Package store persists scan history locally in SQLite, so past runs can be
// compared and reports re-pushed without re-running the scan.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/rts"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id            TEXT PRIMARY KEY,
	target_model  TEXT NOT NULL,
	started_at    TIMESTAMP NOT NULL,
	finished_at   TIMESTAMP,
	overall_score REAL NOT NULL,
	scored_cases  INTEGER NOT NULL,
	total_cases   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id      TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	case_id      TEXT NOT NULL,
	category     TEXT NOT NULL,
	attack       TEXT NOT NULL,
	status       TEXT NOT NULL,
	score        REAL NOT NULL,
	rationale    TEXT,
	error        TEXT,
	duration_ms  INTEGER NOT NULL,
	completed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_scan ON results(scan_id);
CREATE INDEX IF NOT EXISTS idx_results_category ON results(scan_id, category);
`

// Store is a SQLite-backed scan history store.
type Store struct {
	db *sql.DB
}

// Open opens (and initializes) the store at the given path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	const op = "store.Open"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "open database", err)
	}
	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under the concurrent scan pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.E(errors.KindInternal, op, "apply schema", err)
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport persists a finished report and all its results in one
// transaction.
func (s *Store) SaveReport(ctx context.Context, report *rts.Report) error {
	const op = "store.SaveReport"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.E(errors.KindInternal, op, "begin transaction", err)
	}
	defer tx.Rollback()

	overall, scored := report.OverallScore()
	results := report.Snapshot()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scans (id, target_model, started_at, finished_at, overall_score, scored_cases, total_cases)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.TargetModel, report.StartedAt, report.FinishedAt, overall, scored, len(results),
	); err != nil {
		return errors.E(errors.KindInternal, op, "insert scan", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (scan_id, case_id, category, attack, status, score, rationale, error, duration_ms, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.E(errors.KindInternal, op, "prepare insert", err)
	}
	defer stmt.Close()

	for _, res := range results {
		if _, err := stmt.ExecContext(ctx,
			report.ID, res.Case.ID, res.Case.Golden.Category.String(), res.Case.Attack.String(),
			res.Status.String(), res.Score, res.Rationale, res.Error, res.DurationMs, res.CompletedAt,
		); err != nil {
			return errors.E(errors.KindInternal, op, "insert result", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.E(errors.KindInternal, op, "commit", err)
	}
	return nil
}

// ScanSummary is one row of scan history.
type ScanSummary struct {
	ID           string
	TargetModel  string
	StartedAt    time.Time
	FinishedAt   time.Time
	OverallScore float64
	Grade        rts.Grade
	ScoredCases  int
	TotalCases   int
}

// ListScans returns recent scans, newest first.
func (s *Store) ListScans(ctx context.Context, limit int) ([]ScanSummary, error) {
	const op = "store.ListScans"

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target_model, started_at, finished_at, overall_score, scored_cases, total_cases
		 FROM scans ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "query scans", err)
	}
	defer rows.Close()

	var out []ScanSummary
	for rows.Next() {
		var sum ScanSummary
		if err := rows.Scan(&sum.ID, &sum.TargetModel, &sum.StartedAt, &sum.FinishedAt,
			&sum.OverallScore, &sum.ScoredCases, &sum.TotalCases); err != nil {
			return nil, errors.E(errors.KindInternal, op, "scan row", err)
		}
		sum.Grade = rts.GradeForScore(sum.OverallScore)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// CategoryBreakdown returns the per-category mean score for a stored scan,
// over scored cases only.
func (s *Store) CategoryBreakdown(ctx context.Context, scanID string) (map[rts.VulnerabilityCategory]float64, error) {
	const op = "store.CategoryBreakdown"

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, AVG(score) FROM results
		 WHERE scan_id = ? AND status IN (?, ?)
		 GROUP BY category`,
		scanID, rts.CaseScored.String(), rts.CaseAttackFailed.String())
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "query breakdown", err)
	}
	defer rows.Close()

	out := make(map[rts.VulnerabilityCategory]float64)
	for rows.Next() {
		var category string
		var score float64
		if err := rows.Scan(&category, &score); err != nil {
			return nil, errors.E(errors.KindInternal, op, "scan row", err)
		}
		out[rts.VulnerabilityCategory(category)] = score
	}
	return out, rows.Err()
}
