// Package cli implements vtctl's command-line invocation surface: a
// single command with flags, matching spec.md's "Server invocation
// surface" rather than a codectl-style subcommand tree.
package cli

import (
    "fmt"
    "os"

    "github.com/spf13/cobra"

    "vtctl/internal/protocol"
)

// Options holds the parsed flags for one server run.
type Options struct {
    Cols        int
    Rows        int
    Cwd         string
    Live        bool
    LiveFile    string
    LogFile     string
    HistoryDB   string
    PrintSchema bool
    Command     string
    Args        []string
}

var rootCmd = &cobra.Command{
    Use:   "vtctl [command args...]",
    Short: "vtctl – drive TUI applications under a controlled pseudo-terminal",
    Long: `vtctl spawns a child process under a pseudo-terminal, maintains a
live picture of its screen, and exposes remote operations over stdio
by which an automated client can inspect the screen and inject input.`,
    SilenceUsage:  true,
    SilenceErrors: true,
}

var opts Options

func init() {
    flags := rootCmd.Flags()
    flags.IntVar(&opts.Cols, "cols", 80, "initial column count for the legacy session")
    flags.IntVar(&opts.Rows, "rows", 24, "initial row count for the legacy session")
    flags.StringVar(&opts.Cwd, "cwd", "", "working directory for the legacy session")
    flags.BoolVar(&opts.Live, "live", false, "mirror the focused session's screen to stderr")
    flags.StringVar(&opts.LiveFile, "live-file", "", "mirror the focused session's screen to this file")
    flags.StringVar(&opts.LogFile, "log-file", "", "write TOOL_CALL/TOOL_RESULT records to this file instead of stderr")
    flags.StringVar(&opts.HistoryDB, "history-db", "", "record session lifecycle events to this SQLite database")
    flags.BoolVar(&opts.PrintSchema, "print-schema", false, "print the JSON Schema for the wire protocol and exit")

    rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
        if opts.PrintSchema {
            schema, err := protocol.WireSchema()
            if err != nil {
                return err
            }
            fmt.Fprintln(cmd.OutOrStdout(), string(schema))
            return nil
        }
        if len(args) > 0 {
            opts.Command = args[0]
            opts.Args = args[1:]
        }
        return run(cmd, &opts)
    }
    rootCmd.Args = cobra.ArbitraryArgs
    rootCmd.DisableFlagsInUseLine = true
}

// Execute runs the CLI, exiting the process with a nonzero status on
// failure.
func Execute() {
    if err := rootCmd.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}
