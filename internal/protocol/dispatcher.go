package protocol

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    "vtctl/internal/apperr"
    "vtctl/internal/history"
    "vtctl/internal/registry"
    "vtctl/internal/session"
    "vtctl/internal/system"
)

// postInputSettle is the pause after type_text/press_key before the
// handler returns, giving the child a chance to react and repaint
// before the caller's next view_screen sees stale output.
const postInputSettle = 50 * time.Millisecond

// initialRenderSettle is the pause after starting a session before
// run_tui/create_process return, giving the child's first frame time
// to land in the grid.
const initialRenderSettle = 500 * time.Millisecond

// Dispatcher resolves each incoming Request to a handler over a
// Registry, tracking which terminal is currently focused the way
// spec.md's resolution chain requires.
type Dispatcher struct {
    reg *registry.Registry
    hist *history.Store

    mu     sync.Mutex
    focus  string
    lastOp string
    lastAt time.Time
}

// New builds a Dispatcher over reg. hist may be nil, in which case
// lifecycle events are simply not recorded anywhere.
func New(reg *registry.Registry, hist *history.Store) *Dispatcher {
    return &Dispatcher{reg: reg, hist: hist}
}

// Focus returns the currently focused terminal ID, if any.
func (d *Dispatcher) Focus() string {
    d.mu.Lock()
    defer d.mu.Unlock()
    return d.focus
}

func (d *Dispatcher) setFocus(id string) {
    d.mu.Lock()
    d.focus = id
    d.mu.Unlock()
}

// LastInvocation returns the most recently dispatched operation's name
// and the time it was received, for the Live Renderer's status bar
// (spec.md §4.F). ok is false until the first request arrives.
func (d *Dispatcher) LastInvocation() (op string, receivedAt time.Time, ok bool) {
    d.mu.Lock()
    defer d.mu.Unlock()
    if d.lastOp == "" {
        return "", time.Time{}, false
    }
    return d.lastOp, d.lastAt, true
}

// Dispatch runs one request to completion and always returns a
// Response, never an error: failures are encoded into the Response's
// Error field per the wire contract in SPEC_FULL.md §6.1.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
    d.mu.Lock()
    d.lastOp = req.Op
    d.lastAt = time.Now()
    d.mu.Unlock()

    result, err := d.handle(ctx, req)
    if err != nil {
        return Response{Error: errorPayload(err)}
    }
    return Response{Result: result}
}

func errorPayload(err error) *ErrorPayload {
    if e, ok := apperr.As(err); ok {
        return &ErrorPayload{Kind: string(e.Kind), Message: e.Message}
    }
    return &ErrorPayload{Kind: string(apperr.InvalidArgs), Message: err.Error()}
}

func (d *Dispatcher) handle(ctx context.Context, req Request) (any, error) {
    switch req.Op {
    case "view_screen":
        return d.viewScreen(req.Args)
    case "type_text":
        return d.typeText(req.Args)
    case "press_key":
        return d.pressKey(req.Args)
    case "get_screen_size":
        return d.getScreenSize(req.Args)
    case "wait":
        return d.wait(ctx, req.Args)
    case "run_tui":
        return d.runTui(req.Args)
    case "stop_tui":
        return d.stopTui()
    case "create_process":
        return d.createProcess(req.Args)
    case "kill_process":
        return d.killProcess(req.Args)
    case "list_tabs":
        return d.listTabs()
    default:
        return nil, apperr.Errorf(apperr.InvalidArgs, "unknown operation %q", req.Op)
    }
}

func decode[T any](raw json.RawMessage) (T, error) {
    var v T
    if len(raw) == 0 {
        return v, nil
    }
    if err := json.Unmarshal(raw, &v); err != nil {
        return v, apperr.Errorf(apperr.InvalidArgs, "decode args: %v", err)
    }
    return v, nil
}

func (d *Dispatcher) resolve(explicit string) (string, *session.Session, error) {
    return d.reg.Resolve(explicit, d.Focus())
}

func (d *Dispatcher) viewScreen(raw json.RawMessage) (any, error) {
    args, err := decode[viewScreenArgs](raw)
    if err != nil {
        return nil, err
    }
    id, sess, err := d.resolve(args.TerminalID)
    if err != nil {
        return nil, err
    }
    text := sess.ScreenText()
    if !args.IncludeMetadata {
        return text, nil
    }
    _, cur, cols, rows := sess.Screen()
    return viewScreenResult{
        TerminalID: id,
        Screen:     text,
        Cursor:     cursorPoint{Row: cur.Row, Col: cur.Col},
        Size:       sizePoint{Cols: cols, Rows: rows},
    }, nil
}

func (d *Dispatcher) typeText(raw json.RawMessage) (any, error) {
    args, err := decode[typeTextArgs](raw)
    if err != nil {
        return nil, err
    }
    if args.Text == "" {
        return nil, apperr.New(apperr.InvalidArgs, "text is required")
    }
    _, sess, err := d.resolve(args.TerminalID)
    if err != nil {
        return nil, err
    }
    if err := sess.TypeText([]byte(args.Text)); err != nil {
        return nil, err
    }
    time.Sleep(postInputSettle)
    return "typed", nil
}

func (d *Dispatcher) pressKey(raw json.RawMessage) (any, error) {
    args, err := decode[pressKeyArgs](raw)
    if err != nil {
        return nil, err
    }
    if args.Key == "" {
        return nil, apperr.New(apperr.InvalidArgs, "key is required")
    }
    _, sess, err := d.resolve(args.TerminalID)
    if err != nil {
        return nil, err
    }
    if err := sess.PressKey(args.Key); err != nil {
        return nil, err
    }
    time.Sleep(postInputSettle)
    return fmt.Sprintf("pressed %s", args.Key), nil
}

func (d *Dispatcher) getScreenSize(raw json.RawMessage) (any, error) {
    args, err := decode[terminalArgs](raw)
    if err != nil {
        return nil, err
    }
    id, sess, err := d.resolve(args.TerminalID)
    if err != nil {
        return nil, err
    }
    cols, rows := sess.Size()
    return screenSizeResult{TerminalID: id, Cols: cols, Rows: rows}, nil
}

func (d *Dispatcher) wait(ctx context.Context, raw json.RawMessage) (any, error) {
    args, err := decode[waitArgs](raw)
    if err != nil {
        return nil, err
    }
    ms := args.Ms
    if ms <= 0 {
        ms = 100
    }
    _, sess, err := d.resolve(args.TerminalID)
    if err == nil {
        sess.Wait(ctx, time.Duration(ms)*time.Millisecond)
    } else {
        // wait has no NoSession failure mode in spec.md's table; fall
        // back to a bare timer when no session can be resolved.
        timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
        defer timer.Stop()
        select {
        case <-timer.C:
        case <-ctx.Done():
        }
    }
    return fmt.Sprintf("waited %dms", ms), nil
}

func (d *Dispatcher) runTui(raw json.RawMessage) (any, error) {
    args, err := decode[spawnArgs](raw)
    if err != nil {
        return nil, err
    }
    if args.Command == "" {
        return nil, apperr.New(apperr.InvalidArgs, "command is required")
    }
    recipe := session.Recipe{
        Command: args.Command,
        Args:    args.Args,
        Cwd:     args.Cwd,
        Cols:    args.Cols,
        Rows:    args.Rows,
    }

    if focus := d.Focus(); focus != "" {
        if sess, ok := d.reg.Get(focus); ok {
            patch := session.Patch{Command: &args.Command, Args: args.Args}
            if args.Cwd != "" {
                patch.Cwd = &args.Cwd
            }
            if args.Cols > 0 {
                patch.Cols = &args.Cols
            }
            if args.Rows > 0 {
                patch.Rows = &args.Rows
            }
            if err := sess.Restart(patch); err != nil {
                return nil, err
            }
            time.Sleep(initialRenderSettle)
            return fmt.Sprintf("restarted terminal %s running %s", focus, args.Command), nil
        }
    }

    id, _, err := d.reg.Create(recipe)
    if err != nil {
        return nil, err
    }
    d.setFocus(id)
    time.Sleep(initialRenderSettle)
    d.record(id, "created", args.Command, nil, "")
    return fmt.Sprintf("started terminal %s running %s", id, args.Command), nil
}

func (d *Dispatcher) stopTui() (any, error) {
    focus := d.Focus()
    if focus == "" {
        return nil, apperr.New(apperr.NoSession, "no session focused")
    }
    if focus == registry.LegacyID {
        if sess, ok := d.reg.Legacy(); ok {
            sess.Stop()
        }
    } else {
        d.reg.Kill(focus)
    }
    d.record(focus, "killed", "", nil, "")

    if last, ok := d.reg.LastID(); ok {
        d.setFocus(last)
    } else {
        d.setFocus("")
    }
    return fmt.Sprintf("stopped terminal %s", focus), nil
}

func (d *Dispatcher) createProcess(raw json.RawMessage) (any, error) {
    args, err := decode[spawnArgs](raw)
    if err != nil {
        return nil, err
    }
    if args.Command == "" {
        return nil, apperr.New(apperr.InvalidArgs, "command is required")
    }
    recipe := session.Recipe{
        Command: args.Command,
        Args:    args.Args,
        Cwd:     args.Cwd,
        Cols:    args.Cols,
        Rows:    args.Rows,
    }
    id, _, err := d.reg.Create(recipe)
    if err != nil {
        return nil, err
    }
    d.setFocus(id)
    time.Sleep(initialRenderSettle)
    d.record(id, "created", args.Command, nil, "")
    return createProcessResult{
        TerminalID: id,
        Command:    args.Command,
        Message:    fmt.Sprintf("created terminal %s", id),
    }, nil
}

func (d *Dispatcher) killProcess(raw json.RawMessage) (any, error) {
    args, err := decode[killProcessArgs](raw)
    if err != nil {
        return nil, err
    }
    if args.TerminalID == "" {
        return nil, apperr.New(apperr.InvalidArgs, "terminal_id is required")
    }
    if args.TerminalID == registry.LegacyID {
        return nil, apperr.Errorf(apperr.UnknownSession, "legacy session is not killable via kill_process")
    }
    if !d.reg.Kill(args.TerminalID) {
        return nil, apperr.Errorf(apperr.UnknownSession, "unknown session %q", args.TerminalID)
    }
    d.record(args.TerminalID, "killed", "", nil, "")
    if d.Focus() == args.TerminalID {
        if last, ok := d.reg.LastID(); ok {
            d.setFocus(last)
        } else {
            d.setFocus("")
        }
    }
    return fmt.Sprintf("killed terminal %s", args.TerminalID), nil
}

func (d *Dispatcher) listTabs() (any, error) {
    summaries := d.reg.List()
    out := make([]tabSummary, 0, len(summaries))
    for _, s := range summaries {
        out = append(out, tabSummary{ID: s.ID, Command: s.Command, Running: s.Running, Cols: s.Cols, Rows: s.Rows})
    }
    result := listTabsResult{Terminals: out, Focused: d.Focus()}
    if len(out) == 0 {
        result.Hint = "no terminals yet; use create_process or run_tui to start one"
    }
    return result, nil
}

func (d *Dispatcher) record(id, kind, command string, exitCode *int, signal string) {
    if d.hist == nil {
        return
    }
    ctx, cancel := context.WithTimeout(context.Background(), time.Second)
    defer cancel()
    if err := d.hist.Record(ctx, id, kind, command, exitCode, signal); err != nil {
        system.Logger.Warn("record session history", "terminal_id", id, "kind", kind, "err", err)
    }
}
