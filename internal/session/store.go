// Package session persists serialized Instagram client state per username.
// The blob's shape is owned by the client library; this layer only attaches
// an optional proxy and guarantees whole-record replacement.
package session

import (
	"context"
	"encoding/json"
	"errors"
)

// Record is the persisted state for one identity.
type Record struct {
	State json.RawMessage
	Proxy string
}

var (
	// ErrNotFound means no record exists for the identity. Absence is not a
	// fault; callers map it to "must log in first".
	ErrNotFound = errors.New("session not found")

	// ErrCorrupt means a record exists but its payload is unparseable.
	ErrCorrupt = errors.New("session record corrupt")

	// ErrInvalidIdentity rejects empty identities and identities that would
	// escape the backing namespace.
	ErrInvalidIdentity = errors.New("invalid session identity")

	// ErrInvalidState rejects a caller-supplied blob that is not a JSON
	// object before anything is written. Caller input fault, unlike
	// ErrCorrupt which is a storage fault.
	ErrInvalidState = errors.New("session state is not a JSON object")
)

// Store is the durable medium for session records. A Save fully replaces any
// previous record for the identity; concurrent saves are last-write-wins.
type Store interface {
	Save(ctx context.Context, identity string, state json.RawMessage, proxy string) error
	Load(ctx context.Context, identity string) (Record, error)
	Delete(ctx context.Context, identity string) (bool, error)
	Exists(ctx context.Context, identity string) (bool, error)
}
