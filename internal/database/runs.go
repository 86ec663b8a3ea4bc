package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

const runColumns = `id, started_at, finished_at, comments_file, submissions_file, options_json,
	comments_in, comments_out, submissions_in, submissions_out`

// InsertRun records a run and its steps in a single transaction.
// An empty run ID is replaced by a new UUID; the ID used is returned.
func (db *DB) InsertRun(run Run, steps []RunStep) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt == "" {
		run.StartedAt = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.CommentsFile, run.SubmissionsFile, run.OptionsJSON,
		run.CommentsIn, run.CommentsOut, run.SubmissionsIn, run.SubmissionsOut,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for _, s := range steps {
		_, err := tx.Exec(
			`INSERT INTO run_steps (run_id, dataset, position, name, rows_in, rows_out)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, s.Dataset, s.Position, s.Name, s.RowsIn, s.RowsOut,
		)
		if err != nil {
			return "", fmt.Errorf("inserting step %s/%s: %w", s.Dataset, s.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// InsertRecords stores every row of t as a JSON object holding the table's
// columns. Rows without an id are keyed by their position.
func (db *DB) InsertRecords(runID, datasetName string, t *dataset.Table) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO records (run_id, dataset, record_id, data_json) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, r := range t.Rows {
		obj := make(map[string]string, len(t.Columns))
		for _, c := range t.Columns {
			obj[c] = r[c]
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return 0, fmt.Errorf("encoding record %d: %w", i, err)
		}
		recordID := r["id"]
		if recordID == "" {
			recordID = "#" + strconv.Itoa(i)
		}
		if _, err := stmt.Exec(runID, datasetName, recordID, string(data)); err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", recordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(t.Rows), nil
}

func scanRun(s interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	err := s.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.CommentsFile, &r.SubmissionsFile, &r.OptionsJSON,
		&r.CommentsIn, &r.CommentsOut, &r.SubmissionsIn, &r.SubmissionsOut)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	r, err := scanRun(db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// GetRecentRuns returns up to limit runs, newest first.
func (db *DB) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRunSteps returns the steps of a run grouped by dataset in stage order.
func (db *DB) GetRunSteps(runID string) ([]RunStep, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, dataset, position, name, rows_in, rows_out
		FROM run_steps WHERE run_id = ? ORDER BY dataset DESC, position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		var s RunStep
		if err := rows.Scan(&s.RunID, &s.Dataset, &s.Position, &s.Name, &s.RowsIn, &s.RowsOut); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM runs", &s.Runs},
		{"SELECT COUNT(*) FROM records", &s.Records},
		{"SELECT COUNT(*) FROM records WHERE dataset = 'submissions'", &s.SubmissionRecords},
		{"SELECT COUNT(*) FROM records WHERE dataset = 'comments'", &s.CommentRecords},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	if err := db.conn.QueryRow("SELECT COALESCE(MAX(started_at), '') FROM runs").Scan(&s.LastRunStartedAt); err != nil {
		return nil, err
	}

	return s, nil
}
