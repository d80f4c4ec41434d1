package session

import (
    "testing"
    "time"

    "vtctl/internal/apperr"
)

func waitForExit(t *testing.T, s *Session, timeout time.Duration) ExitRecord {
    t.Helper()
    ch, unsubscribe := s.Subscribe()
    defer unsubscribe()
    deadline := time.After(timeout)
    for {
        select {
        case ev := <-ch:
            if ev.Kind == EventExit {
                return *ev.Exit
            }
        case <-deadline:
            if rec, ok := s.ExitRecord(); ok {
                return rec
            }
            t.Fatalf("timed out waiting for exit")
        }
    }
}

func TestStartRequiresCommand(t *testing.T) {
    s := New(Recipe{})
    err := s.Start()
    if err == nil {
        t.Fatal("expected error starting a recipe with no command")
    }
    if apperr.KindOf(err) != apperr.InvalidCommand {
        t.Fatalf("expected InvalidCommand, got %v", apperr.KindOf(err))
    }
}

func TestTypeTextFailsWhenNotRunning(t *testing.T) {
    s := New(Recipe{Command: "sh"})
    err := s.TypeText([]byte("hi"))
    if apperr.KindOf(err) != apperr.NotRunning {
        t.Fatalf("expected NotRunning, got %v", apperr.KindOf(err))
    }
}

func TestPressKeyUnknownKeyPropagates(t *testing.T) {
    s := New(Recipe{Command: "sh", Args: []string{"-c", "sleep 1"}})
    if err := s.Start(); err != nil {
        t.Fatalf("Start error: %v", err)
    }
    defer s.Stop()

    err := s.PressKey("qux")
    if apperr.KindOf(err) != apperr.UnknownKey {
        t.Fatalf("expected UnknownKey, got %v", apperr.KindOf(err))
    }
}

func TestDoubleStartFails(t *testing.T) {
    s := New(Recipe{Command: "sh", Args: []string{"-c", "sleep 1"}})
    if err := s.Start(); err != nil {
        t.Fatalf("Start error: %v", err)
    }
    defer s.Stop()

    err := s.Start()
    if apperr.KindOf(err) != apperr.AlreadyRunning {
        t.Fatalf("expected AlreadyRunning, got %v", apperr.KindOf(err))
    }
}

func TestStopRecordsExit(t *testing.T) {
    s := New(Recipe{Command: "sh", Args: []string{"-c", "sleep 5"}})
    if err := s.Start(); err != nil {
        t.Fatalf("Start error: %v", err)
    }
    s.Stop()
    waitForExit(t, s, 2*time.Second)
    if s.Running() {
        t.Fatal("expected session to have exited")
    }
}

func TestChildOutputRendersToScreen(t *testing.T) {
    s := New(Recipe{
        Command: "sh",
        Args:    []string{"-c", `printf '\033[2J\033[HHello\nWorld\n'`},
        Cols:    20,
        Rows:    5,
    })
    if err := s.Start(); err != nil {
        t.Fatalf("Start error: %v", err)
    }
    waitForExit(t, s, 2*time.Second)

    text := s.ScreenText()
    if got := firstNLines(text, 2); got != "Hello\nWorld" {
        t.Fatalf("screen text = %q, want %q", got, "Hello\nWorld")
    }
}

func firstNLines(s string, n int) string {
    lines := splitLines(s)
    if len(lines) > n {
        lines = lines[:n]
    }
    out := ""
    for i, l := range lines {
        if i > 0 {
            out += "\n"
        }
        out += l
    }
    return out
}

func splitLines(s string) []string {
    var out []string
    start := 0
    for i := 0; i < len(s); i++ {
        if s[i] == '\n' {
            out = append(out, s[start:i])
            start = i + 1
        }
    }
    out = append(out, s[start:])
    return out
}

func TestResizeUpdatesSizeAndGrid(t *testing.T) {
    s := New(Recipe{Command: "sh", Args: []string{"-c", "sleep 2"}, Cols: 10, Rows: 5})
    if err := s.Start(); err != nil {
        t.Fatalf("Start error: %v", err)
    }
    defer s.Stop()

    if err := s.Resize(20, 10); err != nil {
        t.Fatalf("Resize error: %v", err)
    }
    cols, rows := s.Size()
    if cols != 20 || rows != 10 {
        t.Fatalf("size = %dx%d, want 20x10", cols, rows)
    }
}

func TestRestartPreservesRecipeAndClearsScreen(t *testing.T) {
    s := New(Recipe{Command: "sh", Args: []string{"-c", `printf 'first\n'; sleep 5`}, Cols: 20, Rows: 5})
    if err := s.Start(); err != nil {
        t.Fatalf("Start error: %v", err)
    }
    defer s.Stop()

    time.Sleep(100 * time.Millisecond)

    cmd := "sh"
    if err := s.Restart(Patch{Command: &cmd, Args: []string{"-c", `printf 'second\n'; sleep 5`}}); err != nil {
        t.Fatalf("Restart error: %v", err)
    }
    defer s.Stop()

    time.Sleep(150 * time.Millisecond)
    text := s.ScreenText()
    if got := firstNLines(text, 1); got != "second" {
        t.Fatalf("expected screen to show only post-restart output, got %q", text)
    }
}
