package database

import (
	"database/sql"
	"fmt"
	"time"

	"imageprep/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase initializes and returns a database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_dir TEXT NOT NULL,
		ref_dir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT
	);
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		stage TEXT NOT NULL,
		dir TEXT,
		path TEXT NOT NULL,
		action TEXT NOT NULL,
		from_width INTEGER,
		from_height INTEGER,
		to_width INTEGER,
		to_height INTEGER,
		message TEXT,
		created_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_path ON events(path);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// OpenDatabase opens an existing database connection
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// Journal records pipeline events for a single run
type Journal struct {
	db    *sql.DB
	runID int64
}

// StartRun inserts a new run row and returns a journal bound to it
func StartRun(db *sql.DB, baseDir, refDir string) (*Journal, error) {
	res, err := db.Exec("INSERT INTO runs (base_dir, ref_dir, started_at) VALUES (?, ?, ?)",
		baseDir, refDir, time.Now().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("cannot start run: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("cannot read run id: %v", err)
	}

	return &Journal{db: db, runID: id}, nil
}

// RunID returns the id of the run this journal writes to
func (j *Journal) RunID() int64 {
	return j.runID
}

// Record stores one event
func (j *Journal) Record(event types.Event) error {
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := j.db.Exec(`
		INSERT INTO events (
			run_id, stage, dir, path, action, from_width, from_height, to_width, to_height, message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID,
		string(event.Stage),
		event.Dir,
		event.Path,
		string(event.Action),
		event.FromWidth,
		event.FromHeight,
		event.ToWidth,
		event.ToHeight,
		event.Message,
		at.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot record event for %s: %v", event.Path, err)
	}
	return nil
}

// Finish marks the run as completed
func (j *Journal) Finish() error {
	_, err := j.db.Exec("UPDATE runs SET finished_at = ? WHERE id = ?", time.Now().Format(time.RFC3339), j.runID)
	if err != nil {
		return fmt.Errorf("cannot finish run %d: %v", j.runID, err)
	}
	return nil
}

// LatestRunID returns the id of the most recent run
func LatestRunID(db *sql.DB) (int64, error) {
	var id sql.NullInt64
	if err := db.QueryRow("SELECT MAX(id) FROM runs").Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get latest run: %v", err)
	}
	if !id.Valid {
		return 0, fmt.Errorf("journal contains no runs")
	}
	return id.Int64, nil
}

// RunStats contains statistics for one run
type RunStats struct {
	RunID      int64
	BaseDir    string
	RefDir     string
	StartedAt  string
	FinishedAt string
	Events     int
	Counts     map[types.Stage]map[types.Action]int
	Failures   []types.Event
}

// GetRunStats retrieves per-stage action counts and failures for a run
func GetRunStats(db *sql.DB, runID int64) (*RunStats, error) {
	stats := RunStats{
		RunID:  runID,
		Counts: make(map[types.Stage]map[types.Action]int),
	}

	var finished sql.NullString
	err := db.QueryRow("SELECT base_dir, ref_dir, started_at, finished_at FROM runs WHERE id = ?", runID).
		Scan(&stats.BaseDir, &stats.RefDir, &stats.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %v", runID, err)
	}
	stats.FinishedAt = finished.String

	rows, err := db.Query("SELECT stage, action, COUNT(*) FROM events WHERE run_id = ? GROUP BY stage, action", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage, action string
		var count int
		if err := rows.Scan(&stage, &action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %v", err)
		}
		s := types.Stage(stage)
		if stats.Counts[s] == nil {
			stats.Counts[s] = make(map[types.Action]int)
		}
		stats.Counts[s][types.Action(action)] = count
		stats.Events += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	failures, err := db.Query(`
		SELECT stage, path, action, message FROM events
		WHERE run_id = ? AND action IN (?, ?) ORDER BY id`,
		runID, string(types.ActionFailed), string(types.ActionMissingCounterpart))
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %v", err)
	}
	defer failures.Close()

	for failures.Next() {
		var e types.Event
		var stage, action string
		var message sql.NullString
		if err := failures.Scan(&stage, &e.Path, &action, &message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %v", err)
		}
		e.RunID = runID
		e.Stage = types.Stage(stage)
		e.Action = types.Action(action)
		e.Message = message.String
		stats.Failures = append(stats.Failures, e)
	}

	return &stats, failures.Err()
}
