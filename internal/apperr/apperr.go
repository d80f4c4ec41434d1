// Package apperr defines the error taxonomy shared by every layer of
// vtctl. Handlers never build ad-hoc string errors for the remote
// operations; they return an *Error carrying one of the fixed kinds
// below so the dispatcher can turn it into the structured
// {kind, message} payload callers receive.
package apperr

import "fmt"

// Kind is one of the recoverable error categories the core can raise.
type Kind string

const (
	InvalidArgs    Kind = "InvalidArgs"
	UnknownKey     Kind = "UnknownKey"
	NoSession      Kind = "NoSession"
	UnknownSession Kind = "UnknownSession"
	NotRunning     Kind = "NotRunning"
	SpawnFailed    Kind = "SpawnFailed"
	AlreadyRunning Kind = "AlreadyRunning"
	InvalidCommand Kind = "InvalidCommand"
)

// Error is a structured, recoverable error. It never crashes the
// server; every layer above the core is expected to catch it and
// translate it into the protocol's {kind, message} response.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error with a preformatted message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// As extracts an *Error from err by a direct type assertion. Unlike
// errors.As, it does not unwrap: an *Error wrapped inside another
// error is not found.
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	return ae, ok
}

// KindOf returns the Kind of err if it is an *Error, or "" otherwise.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return ""
}
