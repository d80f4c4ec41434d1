package live

import (
    "fmt"
    "io"
    "sync"

    "github.com/muesli/termenv"
)

// TerminalSink redraws the most recent frame in place on an output
// stream, typically stderr so it doesn't collide with a client
// reading the server's stdout protocol. The cursor is hidden for the
// duration so the redraw doesn't flicker a visible caret between
// frames, and restored on Close.
type TerminalSink struct {
    out    io.Writer
    output *termenv.Output

    mu       sync.Mutex
    lastRows int
    shown    bool
}

// NewTerminalSink wraps out (normally os.Stderr) for cursor-homed
// redraws.
func NewTerminalSink(out io.Writer) *TerminalSink {
    return &TerminalSink{
        out:    out,
        output: termenv.NewOutput(out),
    }
}

// Render repaints the frame, moving the cursor back to the top of the
// previous frame first so the new one overwrites it instead of
// scrolling the terminal.
func (t *TerminalSink) Render(f Frame) {
    t.mu.Lock()
    defer t.mu.Unlock()

    if !t.shown {
        t.output.HideCursor()
        t.shown = true
    } else {
        t.output.CursorUp(t.lastRows)
        fmt.Fprint(t.out, "\r")
    }

    // box adds four columns of border and padding around the inner width.
    width := terminalSize(int(fdOf(t.out)), f.Cols+4) - 4
    body := box(f, width)
    fmt.Fprint(t.out, body)
    t.lastRows = countLines(body)
}

// Close restores the cursor.
func (t *TerminalSink) Close() error {
    t.mu.Lock()
    defer t.mu.Unlock()
    if t.shown {
        t.output.ShowCursor()
        t.shown = false
    }
    return nil
}

func countLines(s string) int {
    n := 0
    for _, r := range s {
        if r == '\n' {
            n++
        }
    }
    return n
}

// fdOf returns the file descriptor of w when it exposes one, or -1
// otherwise; terminalSize treats -1 as "not a terminal".
func fdOf(w io.Writer) uintptr {
    type fdWriter interface {
        Fd() uintptr
    }
    if f, ok := w.(fdWriter); ok {
        return f.Fd()
    }
    return ^uintptr(0)
}
