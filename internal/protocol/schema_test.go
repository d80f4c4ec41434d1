package protocol

import (
    "encoding/json"
    "strings"
    "testing"
)

func TestWireSchemaProducesValidJSONWithBothShapes(t *testing.T) {
    raw, err := WireSchema()
    if err != nil {
        t.Fatalf("WireSchema error: %v", err)
    }

    var doc map[string]json.RawMessage
    if err := json.Unmarshal(raw, &doc); err != nil {
        t.Fatalf("WireSchema output is not valid JSON: %v", err)
    }
    for _, key := range []string{"title", "description", "request", "response", "operations"} {
        if _, ok := doc[key]; !ok {
            t.Fatalf("expected key %q in wire schema document, got %v", key, doc)
        }
    }
    if !strings.Contains(string(raw), "vtctl") {
        t.Fatalf("expected schema title to mention vtctl, got %q", raw)
    }
}

func TestWireSchemaCoversEveryArgTakingOperation(t *testing.T) {
    raw, err := WireSchema()
    if err != nil {
        t.Fatalf("WireSchema error: %v", err)
    }

    var doc struct {
        Operations map[string]json.RawMessage `json:"operations"`
    }
    if err := json.Unmarshal(raw, &doc); err != nil {
        t.Fatalf("WireSchema output is not valid JSON: %v", err)
    }

    want := []string{
        "view_screen", "type_text", "press_key", "get_screen_size",
        "wait", "run_tui", "create_process", "kill_process",
    }
    for _, op := range want {
        sch, ok := doc.Operations[op]
        if !ok {
            t.Fatalf("expected an argument schema for op %q", op)
        }
        if len(sch) == 0 {
            t.Fatalf("expected a non-empty argument schema for op %q", op)
        }
    }
    // stop_tui and list_tabs take no arguments and are deliberately absent.
    if _, ok := doc.Operations["stop_tui"]; ok {
        t.Fatal("stop_tui takes no arguments and should not have a schema entry")
    }
}
