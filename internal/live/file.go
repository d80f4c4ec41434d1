package live

import (
    "os"
    "path/filepath"
    "sync"

    "github.com/fsnotify/fsnotify"

    "vtctl/internal/system"
)

// FileSink keeps a boxed snapshot of the most recent frame at path,
// overwriting the file in place on every render. A watcher recreates
// the file if something outside this process removes it, so tools
// like `tail -F` or an editor watching the path keep working across a
// `rm` of the mirror.
type FileSink struct {
    path string

    mu      sync.Mutex
    watcher *fsnotify.Watcher
    done    chan struct{}
}

// NewFileSink creates (or truncates) the file at path and starts
// watching its parent directory for deletion.
func NewFileSink(path string) (*FileSink, error) {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return nil, err
    }
    if err := touch(path); err != nil {
        return nil, err
    }
    watcher, err := fsnotify.NewWatcher()
    if err != nil {
        return nil, err
    }
    if err := watcher.Add(filepath.Dir(path)); err != nil {
        watcher.Close()
        return nil, err
    }
    s := &FileSink{path: path, watcher: watcher, done: make(chan struct{})}
    go s.watch()
    return s, nil
}

func touch(path string) error {
    f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
    if err != nil {
        return err
    }
    return f.Close()
}

func (s *FileSink) watch() {
    for {
        select {
        case ev, ok := <-s.watcher.Events:
            if !ok {
                return
            }
            if ev.Name == s.path && (ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0) {
                if err := touch(s.path); err != nil {
                    system.Logger.Warn("recreate live file", "path", s.path, "err", err)
                }
            }
        case err, ok := <-s.watcher.Errors:
            if !ok {
                return
            }
            system.Logger.Warn("live file watcher error", "err", err)
        case <-s.done:
            return
        }
    }
}

// Render overwrites the file with the boxed rendering of f.
func (s *FileSink) Render(f Frame) {
    s.mu.Lock()
    defer s.mu.Unlock()
    body := box(f, f.Cols)
    _ = os.WriteFile(s.path, []byte(body), 0o644)
}

// Close stops the directory watcher. The mirror file is left in place
// showing its last frame.
func (s *FileSink) Close() error {
    s.mu.Lock()
    defer s.mu.Unlock()
    close(s.done)
    return s.watcher.Close()
}
