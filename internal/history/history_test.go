package history

import (
    "context"
    "path/filepath"
    "testing"
)

func TestOpenCreatesSchemaAndRecordsEvents(t *testing.T) {
    ctx := context.Background()
    path := filepath.Join(t.TempDir(), "history.db")

    store, err := Open(ctx, path)
    if err != nil {
        t.Fatalf("Open error: %v", err)
    }
    defer store.Close()

    code := 0
    if err := store.Record(ctx, "1", "created", "sh", nil, ""); err != nil {
        t.Fatalf("Record(created) error: %v", err)
    }
    if err := store.Record(ctx, "1", "exit", "sh", &code, ""); err != nil {
        t.Fatalf("Record(exit) error: %v", err)
    }

    var count int
    if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_events WHERE terminal_id = ?`, "1").Scan(&count); err != nil {
        t.Fatalf("count query error: %v", err)
    }
    if count != 2 {
        t.Fatalf("expected 2 recorded events, got %d", count)
    }
}

func TestOpenIsIdempotent(t *testing.T) {
    ctx := context.Background()
    path := filepath.Join(t.TempDir(), "history.db")

    store1, err := Open(ctx, path)
    if err != nil {
        t.Fatalf("first Open error: %v", err)
    }
    store1.Close()

    store2, err := Open(ctx, path)
    if err != nil {
        t.Fatalf("second Open error: %v", err)
    }
    defer store2.Close()
}

func TestNilStoreRecordIsNoOp(t *testing.T) {
    var store *Store
    if err := store.Record(context.Background(), "1", "created", "sh", nil, ""); err != nil {
        t.Fatalf("nil store Record should be a no-op, got %v", err)
    }
}
