package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"
)

// captureHandler records log records for assertion in tests.
type captureHandler struct {
	mu    sync.Mutex
	attrs []map[string]slog.Value
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := make(map[string]slog.Value)
	m["msg"] = slog.StringValue(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.attrs = append(h.attrs, m)
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(name string) slog.Handler { return h }

func (h *captureHandler) recordsFor(t *testing.T, msg string) []map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]slog.Value
	for _, m := range h.attrs {
		if m["msg"].String() == msg {
			out = append(out, m)
		}
	}
	return out
}

func (h *captureHandler) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attrs = nil
}

func setupLoggingDB(t *testing.T, logger *slog.Logger) *sql.DB {
	t.Helper()
	connector, err := NewLoggingConnector(":memory:", logger)
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	db := sql.OpenDB(connector)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewLoggingConnector_NilLoggerUsesDefault(t *testing.T) {
	conn, err := NewLoggingConnector(":memory:", nil)
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	if conn == nil {
		t.Fatal("conn is nil")
	}
	_ = conn.(*loggingConnector)
}

func TestLoggingConnector_ExecAndQueryLogged(t *testing.T) {
	handler := &captureHandler{}
	db := setupLoggingDB(t, slog.New(handler))

	const createSQL = `CREATE TABLE archive (dateTime INTEGER PRIMARY KEY, outTemp REAL)`
	if _, err := db.Exec(createSQL); err != nil {
		t.Fatalf("create table: %v", err)
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected at least one sql log record for Exec")
	}
	got := recs[len(recs)-1]
	if got["op"].String() != "exec" {
		t.Errorf("op: got %q, want exec", got["op"].String())
	}
	if got["sql"].String() != createSQL {
		t.Errorf("sql: got %q", got["sql"].String())
	}

	handler.reset()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM archive`).Scan(&n); err != nil {
		t.Fatalf("query row: %v", err)
	}
	recs = handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log record for QueryRow")
	}
	got = recs[len(recs)-1]
	if got["op"].String() != "query" {
		t.Errorf("op: got %q, want query", got["op"].String())
	}
}

func TestLoggingConnector_ArgsLogged(t *testing.T) {
	handler := &captureHandler{}
	db := setupLoggingDB(t, slog.New(handler))

	if _, err := db.Exec(`CREATE TABLE archive (dateTime INTEGER PRIMARY KEY, outTemp REAL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	handler.reset()

	if _, err := db.Exec(`INSERT INTO archive (dateTime, outTemp) VALUES (?, ?)`, 1600000000, 21.5); err != nil {
		t.Fatalf("insert: %v", err)
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log for Exec with args")
	}
	got := recs[len(recs)-1]
	if got["op"].String() != "exec" {
		t.Errorf("op: got %q, want exec", got["op"].String())
	}
	if _, hasArgs := got["args"]; !hasArgs {
		t.Error("expected args attribute in log")
	}
}

func TestLoggingConnector_PingSucceeds(t *testing.T) {
	db := setupLoggingDB(t, slog.Default())
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
