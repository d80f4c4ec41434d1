// Package protocol implements the remote operations surface: ten
// named operations over sessions owned by an internal/registry
// Registry, plus one concrete wire transport (newline-delimited JSON
// over stdio) that the core PTY/emulator packages know nothing about.
package protocol

import "encoding/json"

// Request is one line of the incoming stream.
type Request struct {
    Op   string          `json:"op"`
    Args json.RawMessage `json:"args,omitempty"`
}

// Response is one line of the outgoing stream, always exactly one per
// Request and in request order.
type Response struct {
    Result any           `json:"result,omitempty"`
    Error  *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload is the wire shape of a failed operation.
type ErrorPayload struct {
    Kind    string `json:"kind"`
    Message string `json:"message"`
}

type viewScreenArgs struct {
    TerminalID      string `json:"terminal_id"`
    IncludeMetadata bool   `json:"include_metadata"`
}

type cursorPoint struct {
    Row int `json:"row"`
    Col int `json:"col"`
}

type sizePoint struct {
    Cols int `json:"cols"`
    Rows int `json:"rows"`
}

type viewScreenResult struct {
    TerminalID string      `json:"terminal_id"`
    Screen     string      `json:"screen"`
    Cursor     cursorPoint `json:"cursor"`
    Size       sizePoint   `json:"size"`
}

type typeTextArgs struct {
    TerminalID string `json:"terminal_id"`
    Text       string `json:"text"`
}

type pressKeyArgs struct {
    TerminalID string `json:"terminal_id"`
    Key        string `json:"key"`
}

type terminalArgs struct {
    TerminalID string `json:"terminal_id"`
}

type screenSizeResult struct {
    TerminalID string `json:"terminal_id"`
    Cols       int    `json:"cols"`
    Rows       int    `json:"rows"`
}

type waitArgs struct {
    TerminalID string `json:"terminal_id"`
    Ms         int    `json:"ms"`
}

type spawnArgs struct {
    Command string   `json:"command"`
    Args    []string `json:"args"`
    Cwd     string   `json:"cwd"`
    Cols    int      `json:"cols"`
    Rows    int      `json:"rows"`
}

type createProcessResult struct {
    TerminalID string `json:"terminal_id"`
    Command    string `json:"command"`
    Message    string `json:"message"`
}

type killProcessArgs struct {
    TerminalID string `json:"terminal_id"`
}

type tabSummary struct {
    ID      string `json:"id"`
    Command string `json:"command"`
    Running bool   `json:"running"`
    Cols    int    `json:"cols"`
    Rows    int    `json:"rows"`
}

type listTabsResult struct {
    Terminals []tabSummary `json:"terminals"`
    Focused   string       `json:"focused"`
    Hint      string       `json:"hint,omitempty"`
}
