package database

import (
	"path/filepath"
	"testing"

	"imageprep/types"
)

func TestJournalRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	db, err := InitDatabase(dbPath)
	if err != nil {
		t.Fatalf("InitDatabase failed: %v", err)
	}
	defer db.Close()

	journal, err := StartRun(db, "/data/base", "/data/ref")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	events := []types.Event{
		{Stage: types.StageNormalize, Path: "/data/base/a.gif", Action: types.ActionConverted},
		{Stage: types.StageCap, Path: "/data/base/a.png", Action: types.ActionResized, FromWidth: 3000, FromHeight: 1000, ToWidth: 2048, ToHeight: 682},
		{Stage: types.StageCap, Path: "/data/base/b.png", Action: types.ActionUnchanged},
		{Stage: types.StageCap, Path: "/data/base/c.png", Action: types.ActionFailed, Message: "corrupt"},
		{Stage: types.StageReconcile, Path: "/data/base/d.png", Action: types.ActionMissingCounterpart, Message: "/data/ref/d.png"},
	}
	for _, e := range events {
		if err := journal.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := journal.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	latest, err := LatestRunID(db)
	if err != nil {
		t.Fatalf("LatestRunID failed: %v", err)
	}
	if latest != journal.RunID() {
		t.Errorf("expected latest run %d, got %d", journal.RunID(), latest)
	}

	stats, err := GetRunStats(db, latest)
	if err != nil {
		t.Fatalf("GetRunStats failed: %v", err)
	}

	if stats.Events != len(events) {
		t.Errorf("expected %d events, got %d", len(events), stats.Events)
	}
	if stats.BaseDir != "/data/base" || stats.FinishedAt == "" {
		t.Errorf("unexpected run metadata %+v", stats)
	}
	if stats.Counts[types.StageCap][types.ActionResized] != 1 {
		t.Errorf("expected one resize in cap stage, got %v", stats.Counts[types.StageCap])
	}
	if stats.Counts[types.StageNormalize][types.ActionConverted] != 1 {
		t.Errorf("expected one conversion, got %v", stats.Counts[types.StageNormalize])
	}
	if len(stats.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(stats.Failures))
	}
	if stats.Failures[0].Message != "corrupt" || stats.Failures[1].Action != types.ActionMissingCounterpart {
		t.Errorf("unexpected failures %+v", stats.Failures)
	}
}

func TestRunsAreSeparated(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("InitDatabase failed: %v", err)
	}
	defer db.Close()

	first, _ := StartRun(db, "b", "r")
	first.Record(types.Event{Stage: types.StageCap, Path: "x", Action: types.ActionUnchanged})

	second, _ := StartRun(db, "b", "r")
	if second.RunID() == first.RunID() {
		t.Fatal("runs share an id")
	}

	stats, err := GetRunStats(db, second.RunID())
	if err != nil {
		t.Fatalf("GetRunStats failed: %v", err)
	}
	if stats.Events != 0 {
		t.Errorf("second run should have no events, got %d", stats.Events)
	}
	if stats.FinishedAt != "" {
		t.Errorf("unfinished run reports finish time %q", stats.FinishedAt)
	}
}

func TestEmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := InitDatabase(dbPath)
	if err != nil {
		t.Fatalf("InitDatabase failed: %v", err)
	}
	db.Close()

	// Reopening an initialized journal must not fail
	db, err = InitDatabase(dbPath)
	if err != nil {
		t.Fatalf("re-init failed: %v", err)
	}
	defer db.Close()

	if _, err := LatestRunID(db); err == nil {
		t.Error("expected error for journal without runs")
	}
	if _, err := GetRunStats(db, 99); err == nil {
		t.Error("expected error for unknown run")
	}
}
