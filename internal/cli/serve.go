package cli

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/spf13/cobra"

    "vtctl/internal/config"
    "vtctl/internal/history"
    "vtctl/internal/live"
    "vtctl/internal/protocol"
    "vtctl/internal/registry"
    "vtctl/internal/session"
    "vtctl/internal/system"
)

func run(cmd *cobra.Command, opts *Options) error {
    logPath, err := config.ResolvePath(opts.LogFile)
    if err != nil {
        return err
    }
    logFile, err := system.Configure(logPath)
    if err != nil {
        return err
    }
    if logFile != nil {
        defer logFile.Close()
    }

    var hist *history.Store
    if opts.HistoryDB != "" {
        dbPath, err := config.ResolvePath(opts.HistoryDB)
        if err != nil {
            return err
        }
        hist, err = history.Open(cmd.Context(), dbPath)
        if err != nil {
            return err
        }
        defer hist.Close()
    }

    reg := registry.New()

    if opts.Command != "" {
        legacy := session.New(session.Recipe{
            Command: opts.Command,
            Args:    opts.Args,
            Cwd:     opts.Cwd,
            Cols:    opts.Cols,
            Rows:    opts.Rows,
        })
        if err := legacy.Start(); err != nil {
            return err
        }
        reg.SetLegacy(legacy)
    }

    dispatcher := protocol.New(reg, hist)

    var sink live.Sink
    switch {
    case opts.LiveFile != "":
        filePath, err := config.ResolvePath(opts.LiveFile)
        if err != nil {
            return err
        }
        fileSink, err := live.NewFileSink(filePath)
        if err != nil {
            return err
        }
        sink = fileSink
    case opts.Live:
        sink = live.NewTerminalSink(os.Stderr)
    }

    var coalescer *live.Coalescer
    unsubscribe := func() {}
    if sink != nil {
        coalescer = live.NewCoalescer(sink)
        ch, unsub := reg.Subscribe()
        unsubscribe = unsub
        go mirror(reg, dispatcher, ch, coalescer)
    }

    historyUnsubscribe := func() {}
    if hist != nil {
        hch, hunsub := reg.Subscribe()
        historyUnsubscribe = hunsub
        go recordHistory(hist, hch)
    }

    ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    done := make(chan error, 1)
    go func() {
        done <- protocol.ServeStdio(ctx, dispatcher, os.Stdin, os.Stdout, system.Logger)
    }()

    var serveErr error
    select {
    case serveErr = <-done:
    case <-ctx.Done():
    }

    reg.KillAll()
    unsubscribe()
    historyUnsubscribe()
    if coalescer != nil {
        coalescer.Close()
    }
    return serveErr
}

// mirror rebroadcasts registry events for the focused session as live
// frames until ch is closed, stamping each frame with the dispatcher's
// most recent invocation for the status bar (spec.md §4.F).
func mirror(reg *registry.Registry, dispatcher *protocol.Dispatcher, ch <-chan registry.Event, c *live.Coalescer) {
    for ev := range ch {
        if ev.TerminalID != dispatcher.Focus() {
            continue
        }
        sess, ok := reg.Get(ev.TerminalID)
        if !ok {
            continue
        }
        lines, cur, cols, rows := sess.Screen()
        frame := live.Frame{
            TerminalID: ev.TerminalID,
            Command:    sess.Recipe().Command,
            Lines:      lines,
            Cursor:     cur,
            Cols:       cols,
            Rows:       rows,
            Running:    sess.Running(),
        }
        if op, at, ok := dispatcher.LastInvocation(); ok {
            frame.LastOp = op
            frame.LastOpAt = at
        }
        c.Push(frame)
    }
}

// recordHistory persists "start" and "exit" registry events to hist.
// "created" and "killed" are already recorded synchronously by the
// dispatcher at the point of the API call that caused them (see
// protocol.Dispatcher.record), so only the two kinds that can happen
// with no dispatcher call in between (a restarted child starting, or a
// child crashing on its own) are handled here.
func recordHistory(hist *history.Store, ch <-chan registry.Event) {
    for ev := range ch {
        var kind, signal string
        var exitCode *int
        switch ev.Kind {
        case session.EventStart:
            kind = "start"
        case session.EventExit:
            kind = "exit"
            if ev.Exit != nil {
                code := ev.Exit.Code
                exitCode = &code
                signal = ev.Exit.Signal
            }
        default:
            continue
        }
        ctx, cancel := context.WithTimeout(context.Background(), time.Second)
        err := hist.Record(ctx, ev.TerminalID, kind, "", exitCode, signal)
        cancel()
        if err != nil {
            system.Logger.Warn("record session history", "terminal_id", ev.TerminalID, "kind", kind, "err", err)
        }
    }
}
