package session

import "strings"

// Recipe is the launch configuration for a session's child process:
// command, arguments, working directory, environment overrides, and
// initial PTY size.
type Recipe struct {
	Command string
	Args    []string
	Cwd     string
	Env     map[string]string
	Cols    int
	Rows    int
}

// Patch carries the subset of Recipe fields a restart wants to amend.
// Nil/empty fields leave the stored recipe's value untouched.
type Patch struct {
	Command *string
	Args    []string
	Cwd     *string
	Env     map[string]string
	Cols    *int
	Rows    *int
}

// Apply returns a copy of r with p's non-nil fields overlaid.
func (p Patch) Apply(r Recipe) Recipe {
	out := r
	if p.Command != nil {
		out.Command = *p.Command
	}
	if p.Args != nil {
		out.Args = p.Args
	}
	if p.Cwd != nil {
		out.Cwd = *p.Cwd
	}
	if p.Cols != nil {
		out.Cols = *p.Cols
	}
	if p.Rows != nil {
		out.Rows = *p.Rows
	}
	if len(p.Env) > 0 {
		merged := make(map[string]string, len(out.Env)+len(p.Env))
		for k, v := range out.Env {
			merged[k] = v
		}
		for k, v := range p.Env {
			merged[k] = v
		}
		out.Env = merged
	}
	return out
}

// environ builds the full child environment: the server's own
// environment, overlaid with the forced TERM/COLORTERM compatibility
// profile (spec.md §6, "Environment given to children"), overlaid with
// the recipe's explicit overrides. The forced profile deliberately
// wins over whatever TERM/COLORTERM the server process happens to have
// inherited from its own launching shell; only an explicit recipe
// override, not the ambient host environment, is allowed to change it
// (see DESIGN.md, Open Question (d)).
func environ(base []string, overrides map[string]string) []string {
	merged := make(map[string]string, len(base)+2+len(overrides))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	merged["TERM"] = "xterm-256color"
	merged["COLORTERM"] = "truecolor"
	for k, v := range overrides {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}
