// Package session defines per-sender conversation state and the Store
// contract the dispatch engine persists it through. Three backends are
// provided: an in-memory map, per-sender JSON files, and SQLite.
package session

import (
	"context"
	"time"
)

// Session is the opaque per-sender state handlers read and mutate between
// dispatches. The engine persists it back after every handler invocation,
// so handlers can coordinate sequential state machines over it even when
// they decline to reply.
type Session map[string]interface{}

// Clone returns a shallow copy, so store internals are never aliased by
// the session a handler is mutating.
func (s Session) Clone() Session {
	out := make(Session, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Store maps a sender identifier to its Session.
//
// Get creates an empty session on first lookup; the created session is not
// durable until Set is called. The engine performs no locking of its own —
// serializing concurrent read-modify-write cycles for the same sender is
// the store's concern (or accepted as lost-update, as the memory store does).
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Set(ctx context.Context, id string, sess Session) error

	// Sweep removes sessions not written since the cutoff and reports how
	// many were removed.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)

	Close() error
}

type StoreError string

func (e StoreError) Error() string { return string(e) }

const (
	ErrEmptyID     StoreError = "session: empty sender id"
	ErrInvalidID   StoreError = "session: sender id contains path separators"
	ErrStoreClosed StoreError = "session: store is closed"
)
