package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func openTimedTestDB(t *testing.T, threshold time.Duration) (*TimedDB, *observer.ObservedLogs) {
	t.Helper()
	db := openTestDB(t)
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	return NewTimedDB(db, zap.New(core), threshold), logs
}

// TestTimedDB_ExecAndQuery verifies statements pass through and are logged.
func TestTimedDB_ExecAndQuery(t *testing.T) {
	tdb, logs := openTimedTestDB(t, time.Hour)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id, val FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	count := 0
	for rows.Next() {
		count++
	}
	rows.Close()
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}

	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q, want hello", val)
	}

	if got := logs.FilterMessage("query").Len(); got != 3 {
		t.Errorf("query log entries = %d, want 3", got)
	}
	if got := logs.FilterMessage("slow_query").Len(); got != 0 {
		t.Errorf("slow_query entries = %d, want 0", got)
	}
}

// TestTimedDB_SlowQuery verifies statements over the threshold log a warning.
func TestTimedDB_SlowQuery(t *testing.T) {
	tdb, logs := openTimedTestDB(t, time.Nanosecond)

	tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello")

	slow := logs.FilterMessage("slow_query").All()
	if len(slow) != 1 {
		t.Fatalf("slow_query entries = %d, want 1", len(slow))
	}
	if slow[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", slow[0].Level)
	}
	if op := slow[0].ContextMap()["op"]; op != "exec" {
		t.Errorf("op = %v, want exec", op)
	}
}

// TestTimedDB_BeginTx verifies transactions work through the wrapper.
func TestTimedDB_BeginTx(t *testing.T) {
	tdb, _ := openTimedTestDB(t, 0)

	tx, err := tdb.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	tx.Exec("INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello")
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if tdb.Threshold() != DefaultSlowQuery {
		t.Errorf("Threshold = %v, want %v", tdb.Threshold(), DefaultSlowQuery)
	}
}

// TestTimedDB_NilLogger verifies TimedDB works without a logger.
func TestTimedDB_NilLogger(t *testing.T) {
	db := openTestDB(t)
	db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)")
	tdb := NewTimedDB(db, nil, 0)

	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext with nil logger: %v", err)
	}
}

// TestTimedDB_ErrorPassthrough verifies SQL errors are returned unchanged.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	tdb, logs := openTimedTestDB(t, time.Hour)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO missing (id) VALUES (1)"); err == nil {
		t.Error("expected error from ExecContext on missing table")
	}
	if _, err := tdb.QueryContext(ctx, "SELECT * FROM missing"); err == nil {
		t.Error("expected error from QueryContext on missing table")
	}
	err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "nope").Scan(new(string))
	if err != sql.ErrNoRows {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
	if logs.FilterMessage("query").Len() != 3 {
		t.Errorf("failed statements must still be timed")
	}
}
