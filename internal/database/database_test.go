package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestInsertRunAssignsID(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertRun(Run{CommentsFile: "c.csv", SubmissionsFile: "s.csv"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected a UUID run ID, got %q", id)
	}

	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run == nil {
		t.Fatal("expected run to be stored")
	}
	if run.StartedAt == "" {
		t.Error("expected started_at to be filled")
	}
	if run.CommentsFile != "c.csv" {
		t.Errorf("expected comments file 'c.csv', got %q", run.CommentsFile)
	}
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)
	run, err := db.GetRun("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run != nil {
		t.Errorf("expected nil run, got %+v", run)
	}
}

func TestRunStepsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	steps := []RunStep{
		{Dataset: "comments", Position: 1, Name: "removed", RowsIn: 10, RowsOut: 8},
		{Dataset: "comments", Position: 2, Name: "score", RowsIn: 8, RowsOut: 5},
		{Dataset: "submissions", Position: 1, Name: "media", RowsIn: 4, RowsOut: 4},
	}
	id, err := db.InsertRun(Run{
		ID:              "run-1",
		StartedAt:       "2026-10-17T10:00:00Z",
		FinishedAt:      ptr("2026-10-17T10:00:01Z"),
		CommentsFile:    "c.csv",
		SubmissionsFile: "s.csv",
		OptionsJSON:     ptr(`{"min_score":2}`),
		CommentsIn:      10,
		CommentsOut:     5,
		SubmissionsIn:   4,
		SubmissionsOut:  4,
	}, steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "run-1" {
		t.Errorf("expected given ID to be kept, got %q", id)
	}

	got, err := db.GetRunSteps(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(got))
	}
	if got[0].Dataset != "submissions" || got[1].Name != "removed" || got[2].Name != "score" {
		t.Errorf("unexpected step order: %+v", got)
	}
	if got[2].Dropped() != 3 {
		t.Errorf("expected 3 dropped, got %d", got[2].Dropped())
	}
}

func TestInsertRunDuplicateID(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.InsertRun(Run{ID: "dup", CommentsFile: "c", SubmissionsFile: "s"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := db.InsertRun(Run{ID: "dup", CommentsFile: "c", SubmissionsFile: "s"}, nil); err == nil {
		t.Error("expected error for duplicate run ID")
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertRun(Run{CommentsFile: "c", SubmissionsFile: "s"}, nil)

	tbl := dataset.New("comments", []string{"id", "body", "score"}, []dataset.Row{
		{"id": "b", "body": "second \"quoted\" body", "score": "4"},
		{"id": "a", "body": "first, with comma", "score": "3", "stray": "ignored"},
	})
	n, err := db.InsertRecords(id, "comments", tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}

	rows := storedRecords(t, db, id, "comments")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["id"] != "b" || rows[0]["body"] != "second \"quoted\" body" {
		t.Errorf("unexpected first row %v", rows[0])
	}
	if _, ok := rows[1]["stray"]; ok {
		t.Error("expected only table columns to be stored")
	}

	if other := storedRecords(t, db, id, "submissions"); len(other) != 0 {
		t.Errorf("expected no submission records, got %d", len(other))
	}
}

func TestRecordsWithoutID(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertRun(Run{CommentsFile: "c", SubmissionsFile: "s"}, nil)

	tbl := dataset.New("comments", []string{"body"}, []dataset.Row{{"body": "x"}, {"body": "y"}})
	if _, err := db.InsertRecords(id, "comments", tbl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var recordID string
	err := db.conn.QueryRow(`SELECT record_id FROM records WHERE run_id = ? ORDER BY rowid LIMIT 1`, id).Scan(&recordID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recordID != "#0" {
		t.Errorf("expected positional record id #0, got %q", recordID)
	}
}

// storedRecords reads back the rows exported for one dataset of a run.
func storedRecords(t *testing.T, db *DB, runID, datasetName string) []dataset.Row {
	t.Helper()
	rows, err := db.conn.Query(
		`SELECT data_json FROM records WHERE run_id = ? AND dataset = ? ORDER BY rowid`,
		runID, datasetName,
	)
	if err != nil {
		t.Fatalf("querying records: %v", err)
	}
	defer rows.Close()

	var out []dataset.Row
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			t.Fatalf("scanning record: %v", err)
		}
		row := dataset.Row{}
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			t.Fatalf("decoding record: %v", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterating records: %v", err)
	}
	return out
}

func TestGetRecentRuns(t *testing.T) {
	db := openTestDB(t)
	db.InsertRun(Run{ID: "old", StartedAt: "2026-10-01T00:00:00Z", CommentsFile: "c", SubmissionsFile: "s"}, nil)
	db.InsertRun(Run{ID: "new", StartedAt: "2026-10-17T00:00:00Z", CommentsFile: "c", SubmissionsFile: "s"}, nil)
	db.InsertRun(Run{ID: "mid", StartedAt: "2026-10-09T00:00:00Z", CommentsFile: "c", SubmissionsFile: "s"}, nil)

	runs, err := db.GetRecentRuns(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Errorf("expected new, mid; got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Runs != 0 || stats.Records != 0 || stats.LastRunStartedAt != "" {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	id, _ := db.InsertRun(Run{StartedAt: "2026-10-17T00:00:00Z", CommentsFile: "c", SubmissionsFile: "s"}, nil)
	db.InsertRecords(id, "comments", dataset.New("c", []string{"id"}, []dataset.Row{{"id": "1"}, {"id": "2"}}))
	db.InsertRecords(id, "submissions", dataset.New("s", []string{"id"}, []dataset.Row{{"id": "x"}}))

	stats, err = db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Runs != 1 {
		t.Errorf("expected 1 run, got %d", stats.Runs)
	}
	if stats.Records != 3 || stats.CommentRecords != 2 || stats.SubmissionRecords != 1 {
		t.Errorf("unexpected record counts %+v", stats)
	}
	if stats.LastRunStartedAt != "2026-10-17T00:00:00Z" {
		t.Errorf("expected last run timestamp, got %q", stats.LastRunStartedAt)
	}
}

func TestExportIsSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "runs.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var mode string
	if err := db.conn.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != "delete" {
		t.Errorf("expected journal mode delete, got %q", mode)
	}

	if _, err := db.InsertRun(Run{CommentsFile: "c", SubmissionsFile: "s"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected export file: %v", err)
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if _, err := os.Stat(path + suffix); !os.IsNotExist(err) {
			t.Errorf("expected no %s file next to the export, got %v", suffix, err)
		}
	}
}
