package config

import (
    "path/filepath"
    "testing"

    tu "vtctl/internal/testutil"
)

func TestDirUsesXDGConfigHome(t *testing.T) {
    tmp := t.TempDir()
    defer tu.WithEnv(t, "XDG_CONFIG_HOME", tmp)()

    dir, err := Dir()
    if err != nil {
        t.Fatalf("Dir error: %v", err)
    }
    want := filepath.Join(tmp, "vtctl")
    if dir != want {
        t.Fatalf("Dir() = %q, want %q", dir, want)
    }
}

func TestResolvePathLeavesAbsoluteAndSeparatedPathsAlone(t *testing.T) {
    tmp := t.TempDir()
    defer tu.WithEnv(t, "XDG_CONFIG_HOME", tmp)()

    for _, p := range []string{"", "/abs/path.log", "relative/dir/file.log"} {
        got, err := ResolvePath(p)
        if err != nil {
            t.Fatalf("ResolvePath(%q) error: %v", p, err)
        }
        if got != p {
            t.Fatalf("ResolvePath(%q) = %q, want unchanged", p, got)
        }
    }
}

func TestResolvePathResolvesBareFilename(t *testing.T) {
    tmp := t.TempDir()
    defer tu.WithEnv(t, "XDG_CONFIG_HOME", tmp)()

    got, err := ResolvePath("calls.log")
    if err != nil {
        t.Fatalf("ResolvePath error: %v", err)
    }
    want := filepath.Join(tmp, "vtctl", "calls.log")
    if got != want {
        t.Fatalf("ResolvePath(calls.log) = %q, want %q", got, want)
    }
}
