package protocol

import (
    "bufio"
    "context"
    "encoding/json"
    "io"
    "time"

    "github.com/charmbracelet/log"
    "github.com/google/uuid"
)

// ServeStdio reads newline-delimited Requests from in and writes
// newline-delimited Responses to out, one per request, in order.
// Malformed lines produce an InvalidArgs error response rather than
// terminating the loop, so one bad line doesn't kill the session.
func ServeStdio(ctx context.Context, d *Dispatcher, in io.Reader, out io.Writer, logger *log.Logger) error {
    scanner := bufio.NewScanner(in)
    scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
    enc := json.NewEncoder(out)

    for scanner.Scan() {
        line := scanner.Bytes()
        if len(line) == 0 {
            continue
        }
        correlationID := uuid.New().String()

        var req Request
        if err := json.Unmarshal(line, &req); err != nil {
            if logErr := enc.Encode(Response{Error: &ErrorPayload{Kind: "InvalidArgs", Message: "malformed request: " + err.Error()}}); logErr != nil {
                return logErr
            }
            continue
        }

        logger.Info("TOOL_CALL", "id", correlationID, "op", req.Op)
        start := time.Now()
        resp := d.Dispatch(ctx, req)
        elapsed := time.Since(start)

        fields := []any{"id", correlationID, "op", req.Op, "elapsed_ms", elapsed.Milliseconds()}
        if resp.Error != nil {
            fields = append(fields, "error_kind", resp.Error.Kind)
        }
        logger.Info("TOOL_RESULT", fields...)

        if err := enc.Encode(resp); err != nil {
            return err
        }
    }
    return scanner.Err()
}
