package config

import (
    "errors"
    "os"
    "path/filepath"
    "strings"
)

// Dir returns the vtctl config directory under the user config base.
// On Linux, this typically resolves to $XDG_CONFIG_HOME/vtctl; on macOS
// to ~/Library/Application Support/vtctl; and on Windows to %AppData%/vtctl.
// Falls back to HOME when UserConfigDir is unavailable.
func Dir() (string, error) {
    base, err := os.UserConfigDir()
    if err != nil || strings.TrimSpace(base) == "" {
        if home, herr := os.UserHomeDir(); herr == nil {
            base = home
        } else {
            return "", errors.New("cannot determine config directory")
        }
    }
    return filepath.Join(base, "vtctl"), nil
}

// ResolvePath returns p unchanged if it already names a path (contains
// a separator or is empty), otherwise it resolves a bare filename
// against Dir() so flags like --log-file calls.log land under the
// user's config directory instead of the process's working directory.
func ResolvePath(p string) (string, error) {
    if p == "" || strings.ContainsRune(p, filepath.Separator) || filepath.IsAbs(p) {
        return p, nil
    }
    dir, err := Dir()
    if err != nil {
        return "", err
    }
    return filepath.Join(dir, p), nil
}
