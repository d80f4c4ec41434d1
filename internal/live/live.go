// Package live renders a session's screen for a human watching the
// server run, independent of the remote operations a client drives it
// with. It supports two sinks: a terminal sink that redraws in place
// on stderr, and a file sink that keeps a boxed snapshot on disk for
// tools like `tail -f` or an editor's auto-reload.
//
// Screen updates arrive far faster than a human eye needs to see them,
// so both sinks coalesce bursts behind a short debounce rather than
// redrawing on every byte the child writes.
package live

import (
    "fmt"
    "strings"
    "sync"
    "time"

    "github.com/charmbracelet/lipgloss"
    "github.com/charmbracelet/x/ansi"
    "golang.org/x/term"

    "vtctl/internal/grid"
)

// debounce is how long a sink waits after the first queued frame
// before it actually redraws, coalescing bursts of PTY output into one
// paint.
const debounce = 16 * time.Millisecond

// Frame is a screen snapshot handed to a Sink.
type Frame struct {
    TerminalID string
    Command    string
    Lines      [][]rune
    Cursor     grid.Cursor
    Cols, Rows int
    Running    bool

    // LastOp and LastOpAt describe the most recent remote-call
    // invocation across the whole server, per spec.md §4.F. LastOpAt
    // is the zero Time when no request has been dispatched yet.
    LastOp   string
    LastOpAt time.Time
}

// Sink receives coalesced frames and renders them somewhere.
type Sink interface {
    Render(Frame)
    Close() error
}

// Coalescer buffers frames and forwards only the most recent one to
// Sink after debounce elapses since the first frame in a burst.
type Coalescer struct {
    sink Sink

    mu      sync.Mutex
    pending *Frame
    timer   *time.Timer
}

// NewCoalescer wraps sink with debounced delivery.
func NewCoalescer(sink Sink) *Coalescer {
    return &Coalescer{sink: sink}
}

// Push queues f for delivery. If a burst is already pending, f simply
// replaces the queued frame; the debounce timer is not restarted, so a
// continuous stream of updates still redraws at a bounded rate.
func (c *Coalescer) Push(f Frame) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.pending = &f
    if c.timer != nil {
        return
    }
    c.timer = time.AfterFunc(debounce, c.flush)
}

func (c *Coalescer) flush() {
    c.mu.Lock()
    f := c.pending
    c.pending = nil
    c.timer = nil
    c.mu.Unlock()
    if f != nil {
        c.sink.Render(*f)
    }
}

// Close flushes any pending frame and closes the underlying sink.
func (c *Coalescer) Close() error {
    c.mu.Lock()
    if c.timer != nil {
        c.timer.Stop()
    }
    f := c.pending
    c.pending = nil
    c.timer = nil
    c.mu.Unlock()
    if f != nil {
        c.sink.Render(*f)
    }
    return c.sink.Close()
}

var statusStyle = lipgloss.NewStyle().
    Foreground(lipgloss.Color("252")).
    Background(lipgloss.Color("236"))

// box draws lines inside a two-line rounded border, one line per grid
// row plus a status bar, truncating each line to width using x/ansi's
// display-width-aware measurement so wide runes don't overflow the
// frame.
func box(f Frame, width int) string {
    if width <= 0 {
        width = f.Cols
    }
    inner := width
    var sb strings.Builder
    sb.WriteString("╭" + strings.Repeat("─", inner+2) + "╮\n")
    for _, line := range f.Lines {
        text := string(line)
        if w := ansi.StringWidth(text); w > inner {
            text = ansi.Truncate(text, inner, "")
        }
        pad := inner - ansi.StringWidth(text)
        sb.WriteString("│ ")
        sb.WriteString(text)
        if pad > 0 {
            sb.WriteString(strings.Repeat(" ", pad))
        }
        sb.WriteString(" │\n")
    }
    sb.WriteString("╰" + strings.Repeat("─", inner+2) + "╯\n")
    sb.WriteString(statusBar(f, inner+2))
    sb.WriteString("\n")
    sb.WriteString(invocationBar(f, inner+2))
    return sb.String()
}

func statusBar(f Frame, width int) string {
    left := fmt.Sprintf(" %s: %s", f.TerminalID, f.Command)
    right := fmt.Sprintf("%dx%d ", f.Cols, f.Rows)
    if !f.Running {
        right = "exited " + right
    }
    lw, rw := ansi.StringWidth(left), ansi.StringWidth(right)
    pad := width - lw - rw
    if pad < 1 {
        pad = 1
    }
    line := left + strings.Repeat(" ", pad) + right
    if ansi.StringWidth(line) > width {
        line = ansi.Truncate(line, width, "")
    }
    return statusStyle.Render(line)
}

// invocationBar renders the most recent remote-call invocation and the
// elapsed time since it was received, per spec.md §4.F.
func invocationBar(f Frame, width int) string {
    line := " last: (none)"
    if f.LastOp != "" {
        elapsed := time.Since(f.LastOpAt).Round(time.Millisecond)
        line = fmt.Sprintf(" last: %s (%s ago)", f.LastOp, elapsed)
    }
    if w := ansi.StringWidth(line); w > width {
        line = ansi.Truncate(line, width, "")
    }
    if pad := width - ansi.StringWidth(line); pad > 0 {
        line += strings.Repeat(" ", pad)
    }
    return statusStyle.Render(line)
}

// terminalSize reports the current stderr terminal's dimensions,
// falling back to fallback when stderr is not a terminal.
func terminalSize(fd int, fallback int) int {
    if !term.IsTerminal(fd) {
        return fallback
    }
    w, _, err := term.GetSize(fd)
    if err != nil || w <= 0 {
        return fallback
    }
    return w
}
