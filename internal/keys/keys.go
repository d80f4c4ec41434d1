// Package keys implements the symbolic key name to byte sequence
// encoder: given a name like "ctrl+c", "pageup", or "a", it produces
// exactly the bytes a VT-style terminal would transmit for that key.
package keys

import (
	"strings"

	"vtctl/internal/apperr"
)

const esc = "\x1b"

// named holds the fixed, bit-exact key table from the spec. Keep this
// table in sync with it; tests round-trip every entry through the ANSI
// interpreter.
var named = map[string]string{
	"enter":     "\r",
	"return":    "\r",
	"tab":       "\t",
	"escape":    esc,
	"esc":       esc,
	"backspace": "\x7f",
	"delete":    esc + "[3~",
	"up":        esc + "[A",
	"down":      esc + "[B",
	"right":     esc + "[C",
	"left":      esc + "[D",
	"space":     " ",
	"home":      esc + "[H",
	"end":       esc + "[F",
	"pageup":    esc + "[5~",
	"pagedown":  esc + "[6~",
	"insert":    esc + "[2~",
	"f1":        esc + "OP",
	"f2":        esc + "OQ",
	"f3":        esc + "OR",
	"f4":        esc + "OS",
	"f5":        esc + "[15~",
	"f6":        esc + "[17~",
	"f7":        esc + "[18~",
	"f8":        esc + "[19~",
	"f9":        esc + "[20~",
	"f10":       esc + "[21~",
	"f11":       esc + "[23~",
	"f12":       esc + "[24~",
}

// Encode resolves a symbolic key name (case-insensitive, trimmed) into
// the bytes a terminal would transmit for it, following the
// resolution order: ctrl+<letter> combos, then the named-key table,
// then a bare single character, else UnknownKey.
func Encode(key string) ([]byte, error) {
	trimmed := strings.TrimSpace(key)
	lower := strings.ToLower(trimmed)

	if rest, ok := strings.CutPrefix(lower, "ctrl+"); ok {
		if len(rest) == 1 && rest[0] >= 'a' && rest[0] <= 'z' {
			return []byte{0x01 + (rest[0] - 'a')}, nil
		}
	}

	if bytes, ok := named[lower]; ok {
		return []byte(bytes), nil
	}

	if runeCount := len([]rune(trimmed)); runeCount == 1 {
		return []byte(trimmed), nil
	}

	return nil, apperr.Errorf(apperr.UnknownKey, "unknown key %q", key)
}
