package live

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

func TestFileSinkWritesFrame(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "mirror.txt")

    sink, err := NewFileSink(path)
    if err != nil {
        t.Fatalf("NewFileSink error: %v", err)
    }
    defer sink.Close()

    sink.Render(Frame{TerminalID: "1", Command: "sh", Lines: [][]rune{[]rune("hi")}, Cols: 2, Rows: 1, Running: true})

    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("read mirror file: %v", err)
    }
    if len(data) == 0 {
        t.Fatal("expected non-empty mirror file after Render")
    }
}

func TestFileSinkRecreatesAfterExternalRemoval(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "mirror.txt")

    sink, err := NewFileSink(path)
    if err != nil {
        t.Fatalf("NewFileSink error: %v", err)
    }
    defer sink.Close()

    if err := os.Remove(path); err != nil {
        t.Fatalf("remove mirror file: %v", err)
    }

    deadline := time.Now().Add(2 * time.Second)
    for time.Now().Before(deadline) {
        if _, err := os.Stat(path); err == nil {
            return
        }
        time.Sleep(20 * time.Millisecond)
    }
    t.Fatal("expected mirror file to be recreated after external removal")
}
