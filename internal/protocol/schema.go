package protocol

import (
    "encoding/json"

    "github.com/invopop/jsonschema"
)

// wireSchemaDoc bundles the reflected request/response envelope with a
// per-operation map of argument shapes, the same way types.go pairs
// each entry in dispatcher.go's operation switch with its own args
// struct.
type wireSchemaDoc struct {
    Title       string                     `json:"title"`
    Description string                     `json:"description"`
    Request     json.RawMessage            `json:"request"`
    Response    json.RawMessage            `json:"response"`
    Operations  map[string]json.RawMessage `json:"operations"`
}

// operationArgs maps every operation that takes arguments to a zero
// value of its args struct; stop_tui and list_tabs take none and are
// omitted, matching dispatcher.go's handle switch.
var operationArgs = map[string]any{
    "view_screen":     &viewScreenArgs{},
    "type_text":       &typeTextArgs{},
    "press_key":       &pressKeyArgs{},
    "get_screen_size": &terminalArgs{},
    "wait":            &waitArgs{},
    "run_tui":         &spawnArgs{},
    "create_process":  &spawnArgs{},
    "kill_process":    &killProcessArgs{},
}

// WireSchema reflects a JSON Schema document describing the Request/
// Response envelope and every operation's argument struct, so a client
// generator or operator can validate a wire payload without a second,
// hand-maintained copy of the shapes in types.go.
func WireSchema() ([]byte, error) {
    r := jsonschema.Reflector{ExpandedStruct: true}

    reqSch, err := json.Marshal(r.Reflect(&Request{}))
    if err != nil {
        return nil, err
    }
    respSch, err := json.Marshal(r.Reflect(&Response{}))
    if err != nil {
        return nil, err
    }

    ops := make(map[string]json.RawMessage, len(operationArgs))
    for op, args := range operationArgs {
        sch, err := json.Marshal(r.Reflect(args))
        if err != nil {
            return nil, err
        }
        ops[op] = sch
    }

    doc := wireSchemaDoc{
        Title:       "vtctl wire protocol",
        Description: "Newline-delimited JSON request/response envelope for vtctl's remote operations.",
        Request:     reqSch,
        Response:    respSch,
        Operations:  ops,
    }
    return json.MarshalIndent(doc, "", "  ")
}
