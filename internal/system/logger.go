package system

import (
    "io"
    "os"
    "time"

    clog "github.com/charmbracelet/log"
)

// utcTimeFunc stamps log lines with an ISO-8601 UTC timestamp
// regardless of the process's local zone.
func utcTimeFunc(t time.Time) time.Time {
    return t.UTC()
}

// Logger is the shared application logger. By default it writes
// human-readable text to stderr; Configure switches it to JSON on a
// file when --log-file is given, since a live-mirrored terminal and a
// text logger fight over the same fd.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
    ReportTimestamp: true,
    TimeFunction:    utcTimeFunc,
    TimeFormat:      time.RFC3339,
})

// Configure repoints Logger at path, if given, using JSON formatting,
// or leaves it on stderr as text otherwise. It returns the opened file
// so the caller can close it during shutdown; the return value is nil
// when path is empty.
func Configure(path string) (*os.File, error) {
    if path == "" {
        return nil, nil
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
    if err != nil {
        return nil, err
    }
    Logger = clog.NewWithOptions(io.Writer(f), clog.Options{
        ReportTimestamp: true,
        TimeFunction:    utcTimeFunc,
        TimeFormat:      time.RFC3339,
        Formatter:       clog.JSONFormatter,
    })
    return f, nil
}
