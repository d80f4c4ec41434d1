package live

import (
    "strings"
    "sync"
    "testing"
    "time"

    "vtctl/internal/grid"
)

type recordingSink struct {
    mu     sync.Mutex
    frames []Frame
    closed bool
}

func (r *recordingSink) Render(f Frame) {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.frames = append(r.frames, f)
}

func (r *recordingSink) Close() error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.closed = true
    return nil
}

func (r *recordingSink) count() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return len(r.frames)
}

func TestCoalescerCollapsesBurst(t *testing.T) {
    sink := &recordingSink{}
    c := NewCoalescer(sink)

    for i := 0; i < 10; i++ {
        c.Push(Frame{TerminalID: "1", Cols: 10, Rows: 2})
    }
    time.Sleep(50 * time.Millisecond)

    if got := sink.count(); got != 1 {
        t.Fatalf("expected exactly one coalesced frame, got %d", got)
    }
}

func TestCoalescerCloseFlushesPending(t *testing.T) {
    sink := &recordingSink{}
    c := NewCoalescer(sink)

    c.Push(Frame{TerminalID: "1", Cols: 10, Rows: 2})
    if err := c.Close(); err != nil {
        t.Fatalf("Close error: %v", err)
    }
    if got := sink.count(); got != 1 {
        t.Fatalf("expected pending frame flushed on close, got %d frames", got)
    }
    if !sink.closed {
        t.Fatal("expected underlying sink to be closed")
    }
}

func TestBoxDrawsBorderAndStatusBar(t *testing.T) {
    f := Frame{
        TerminalID: "1",
        Command:    "sh",
        Lines:      [][]rune{[]rune("hi"), []rune("  ")},
        Cursor:     grid.Cursor{},
        Cols:       2,
        Rows:       2,
        Running:    true,
    }
    out := box(f, 40)
    if !strings.HasPrefix(out, "╭") {
        t.Fatalf("expected box to start with top border, got %q", out[:1])
    }
    if !strings.Contains(out, "hi") {
        t.Fatalf("expected box to contain rendered line, got %q", out)
    }
    if !strings.Contains(out, "1: sh") {
        t.Fatalf("expected status bar to include terminal id and command, got %q", out)
    }
}

func TestBoxIncludesLastInvocation(t *testing.T) {
    now := time.Now().Add(-2 * time.Second)
    f := Frame{
        TerminalID: "1",
        Command:    "sh",
        Lines:      [][]rune{[]rune("hi")},
        Cols:       2,
        Rows:       1,
        Running:    true,
        LastOp:     "view_screen",
        LastOpAt:   now,
    }
    out := box(f, 40)
    if !strings.Contains(out, "last: view_screen") {
        t.Fatalf("expected invocation bar to name the last op, got %q", out)
    }
}

func TestBoxWithoutInvocationShowsNone(t *testing.T) {
    f := Frame{TerminalID: "1", Command: "sh", Lines: [][]rune{[]rune("hi")}, Cols: 2, Rows: 1, Running: true}
    out := box(f, 40)
    if !strings.Contains(out, "last: (none)") {
        t.Fatalf("expected invocation bar to show (none) before any dispatch, got %q", out)
    }
}

func TestTerminalSizeFallsBackWhenNotATerminal(t *testing.T) {
    if got := terminalSize(-1, 42); got != 42 {
        t.Fatalf("terminalSize(-1, 42) = %d, want fallback 42", got)
    }
}
