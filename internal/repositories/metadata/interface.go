// Package metadata is a small key/value store for device-local engine
// state: per-entity pull cursors, the session tokens, the device id.
package metadata

import "context"

type Repository interface {
	// Get returns the stored value, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Well-known keys.
const (
	KeyAccessToken = "session.access_token"
	KeyDeviceID    = "device.id"

	// CursorKeyPrefix + entity type name holds the last successful pull
	// timestamp for that entity, in millis.
	CursorKeyPrefix = "cursor."
)
