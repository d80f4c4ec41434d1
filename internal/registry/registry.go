// Package registry implements the multi-session registry: it assigns
// stable decimal IDs, owns every session it creates, resolves a target
// session from an explicit ID or a caller-supplied focus, and fans
// session-level events out to subscribers tagged with the session's
// ID. Focus itself is held by the caller, not by the registry. It
// also models the legacy singleton — an optional, non-allocated session kept under the fixed ID "legacy" for backward
// compatibility with clients that launched the server with a command
// on its invocation line.
package registry

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"vtctl/internal/apperr"
	"vtctl/internal/session"
)

// killShutdownTimeout bounds how long Kill waits for the reader
// goroutine to observe the child's exit before giving up and removing
// the session from the map anyway.
const killShutdownTimeout = 2 * time.Second

const LegacyID = "legacy"

// Event is a session event rebroadcast by the registry, tagged with
// the terminal ID it came from.
type Event struct {
	TerminalID string
	Kind       session.EventKind
	Data       []byte
	Exit       *session.ExitRecord
	Command    string // set for "created"
}

const (
	EventCreated session.EventKind = "created"
	EventKilled  session.EventKind = "killed"
)

// Summary is the listing shape for one session.
type Summary struct {
	ID      string
	Command string
	Running bool
	Cols    int
	Rows    int
}

// Registry owns every Session it creates plus, optionally, the legacy
// singleton. All exported methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	nextID int
	byID   map[string]*session.Session
	legacy *session.Session

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		nextID: 1,
		byID:   make(map[string]*session.Session),
		subs:   make(map[chan Event]struct{}),
	}
}

// Subscribe registers a channel for every session event the registry
// rebroadcasts and returns an unsubscribe function.
func (r *Registry) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 128)
	r.subMu.Lock()
	r.subs[ch] = struct{}{}
	r.subMu.Unlock()
	return ch, func() {
		r.subMu.Lock()
		delete(r.subs, ch)
		r.subMu.Unlock()
		close(ch)
	}
}

func (r *Registry) publish(ev Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// forward attaches a forwarder that wraps sess's events with id and
// republishes them on the registry's bus.
func (r *Registry) forward(id string, sess *session.Session) {
	ch, _ := sess.Subscribe()
	go func() {
		for ev := range ch {
			r.publish(Event{TerminalID: id, Kind: ev.Kind, Data: ev.Data, Exit: ev.Exit})
		}
	}()
}

// Create allocates the next ID, constructs and starts a session from
// recipe, wires event forwarding, inserts it, and emits "created".
func (r *Registry) Create(recipe session.Recipe) (string, *session.Session, error) {
	r.mu.Lock()
	id := strconv.Itoa(r.nextID)
	r.nextID++
	r.mu.Unlock()

	sess := session.New(recipe)
	r.forward(id, sess)

	if err := sess.Start(); err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	r.byID[id] = sess
	r.mu.Unlock()

	r.publish(Event{TerminalID: id, Kind: EventCreated, Command: recipe.Command})
	return id, sess, nil
}

// SetLegacy installs sess as the legacy singleton without allocating
// an ID for it. It participates in Get, List, and the focus-fallback
// chain, but is never produced by the ID allocator and is never
// removed by Kill.
func (r *Registry) SetLegacy(sess *session.Session) {
	r.mu.Lock()
	r.legacy = sess
	r.mu.Unlock()
	r.forward(LegacyID, sess)
}

// Legacy returns the legacy singleton, if any.
func (r *Registry) Legacy() (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.legacy, r.legacy != nil
}

// Get looks up a session by ID, including the legacy singleton.
func (r *Registry) Get(id string) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == LegacyID {
		return r.legacy, r.legacy != nil
	}
	sess, ok := r.byID[id]
	return sess, ok
}

// Has reports whether id names a known session.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Ids returns every allocated (non-legacy) ID, ascending numerically.
func (r *Registry) Ids() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.byID))
	for id := range r.byID {
		if n, err := strconv.Atoi(id); err == nil {
			ids = append(ids, n)
		}
	}
	sort.Ints(ids)
	out := make([]string, len(ids))
	for i, n := range ids {
		out[i] = strconv.Itoa(n)
	}
	return out
}

// Count returns the number of allocated sessions (legacy excluded).
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// LastID returns the largest numeric ID currently present, so it
// survives out-of-order deletions rather than tracking "most recently
// allocated".
func (r *Registry) LastID() (string, bool) {
	ids := r.Ids()
	if len(ids) == 0 {
		return "", false
	}
	return ids[len(ids)-1], true
}

// List returns a summary of every session, including the legacy
// singleton if present, allocated IDs first in ascending order.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	legacy := r.legacy
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})

	out := make([]Summary, 0, len(ids)+1)
	for _, id := range ids {
		sess, ok := r.Get(id)
		if !ok {
			continue
		}
		out = append(out, summarize(id, sess))
	}
	if legacy != nil {
		out = append(out, summarize(LegacyID, legacy))
	}
	return out
}

func summarize(id string, sess *session.Session) Summary {
	cols, rows := sess.Size()
	return Summary{
		ID:      id,
		Command: sess.Recipe().Command,
		Running: sess.Running(),
		Cols:    cols,
		Rows:    rows,
	}
}

// Kill requests termination of the underlying session, waits (bounded)
// for its reader to observe the exit, then removes it from the map.
// The legacy singleton is deliberately excluded: it is killable only
// through the higher-level stop_tui operation, not kill_process (see
// DESIGN.md, Open Question (a)). Unknown IDs return false with no
// effect, making Kill idempotent.
func (r *Registry) Kill(id string) bool {
	r.mu.RLock()
	sess, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	if sess.Running() {
		events, unsubscribe := sess.Subscribe()
		sess.Stop()
		waitForExit(sess, events, killShutdownTimeout)
		unsubscribe()
	}

	r.mu.Lock()
	_, ok = r.byID[id]
	delete(r.byID, id)
	r.mu.Unlock()
	if !ok {
		return false // removed by a concurrent Kill meanwhile
	}

	r.publish(Event{TerminalID: id, Kind: EventKilled})
	return true
}

func waitForExit(sess *session.Session, events <-chan session.Event, timeout time.Duration) {
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-events:
			if !ok || ev.Kind == session.EventExit {
				return
			}
		case <-deadline:
			return
		}
		if !sess.Running() {
			return
		}
	}
}

// KillAll terminates and removes every allocated session (not legacy).
func (r *Registry) KillAll() {
	for _, id := range r.Ids() {
		r.Kill(id)
	}
}

// Resolve implements the terminal-ID resolution chain from the design:
// explicit ID → current focus → LastID → legacy (if running) → NoSession.
func (r *Registry) Resolve(explicit, focus string) (string, *session.Session, error) {
	if explicit != "" {
		sess, ok := r.Get(explicit)
		if !ok {
			return "", nil, unknownSessionErr(explicit, r.availableIDs())
		}
		return explicit, sess, nil
	}
	if focus != "" {
		if sess, ok := r.Get(focus); ok {
			return focus, sess, nil
		}
	}
	if id, ok := r.LastID(); ok {
		if sess, ok := r.Get(id); ok {
			return id, sess, nil
		}
	}
	if legacy, ok := r.Legacy(); ok && legacy.Running() {
		return LegacyID, legacy, nil
	}
	return "", nil, apperr.New(apperr.NoSession, "no session available")
}

func (r *Registry) availableIDs() []string {
	ids := r.Ids()
	if legacy, ok := r.Legacy(); ok && legacy != nil {
		ids = append(ids, LegacyID)
	}
	return ids
}

func unknownSessionErr(id string, available []string) error {
	return apperr.Errorf(apperr.UnknownSession, "unknown session %q; available: %v", id, available)
}
