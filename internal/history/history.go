// Package history implements the per-session ring of recent events:
// a bounded log, newest first, shared by the gateway and the replay API.
package history

import (
	"context"
	"encoding/json"
)

// DefaultSize is the ring capacity per session.
const DefaultSize = 100

// Store is the ring history store. Append pushes a serialized event to the
// front of the session's ring and trims it to the configured size, as one
// atomic operation per call. Recent returns up to limit entries newest-first;
// an unknown session yields an empty slice, not an error.
type Store interface {
	Append(ctx context.Context, sessionID string, raw []byte) error
	Recent(ctx context.Context, sessionID string, limit int) ([]json.RawMessage, error)
	Close() error
}
