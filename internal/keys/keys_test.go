package keys

import (
    "testing"

    "vtctl/internal/apperr"
)

func TestCtrlCombo(t *testing.T) {
    got, err := Encode("ctrl+c")
    if err != nil {
        t.Fatalf("Encode error: %v", err)
    }
    if len(got) != 1 || got[0] != 0x03 {
        t.Fatalf("ctrl+c = %v, want [0x03]", got)
    }
}

func TestNamedKeyPageUp(t *testing.T) {
    got, err := Encode("pageup")
    if err != nil {
        t.Fatalf("Encode error: %v", err)
    }
    if string(got) != "\x1b[5~" {
        t.Fatalf("pageup = %q, want %q", got, "\x1b[5~")
    }
}

func TestNamedKeyIsCaseInsensitive(t *testing.T) {
    got, err := Encode("Enter")
    if err != nil {
        t.Fatalf("Encode error: %v", err)
    }
    if string(got) != "\r" {
        t.Fatalf("Enter = %q, want CR", got)
    }
}

func TestSingleCharacterPassthrough(t *testing.T) {
    got, err := Encode("Q")
    if err != nil {
        t.Fatalf("Encode error: %v", err)
    }
    if string(got) != "Q" {
        t.Fatalf("single char = %q, want Q", got)
    }
}

func TestUnknownKeyName(t *testing.T) {
    _, err := Encode("qux")
    if err == nil {
        t.Fatal("expected error for unknown key name")
    }
    if apperr.KindOf(err) != apperr.UnknownKey {
        t.Fatalf("expected UnknownKey, got %v", apperr.KindOf(err))
    }
}

func TestCtrlComboRequiresSingleLetter(t *testing.T) {
    _, err := Encode("ctrl+enter")
    if err == nil {
        t.Fatal("expected error for ctrl+<non-letter>")
    }
    if apperr.KindOf(err) != apperr.UnknownKey {
        t.Fatalf("expected UnknownKey, got %v", apperr.KindOf(err))
    }
}

func TestAllNamedKeysEncodeWithoutError(t *testing.T) {
    for name := range named {
        if _, err := Encode(name); err != nil {
            t.Fatalf("named key %q failed to encode: %v", name, err)
        }
    }
}
