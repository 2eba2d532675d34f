package models

import "time"

// SyncMeta is the shape shared by every syncable record. Entity structs
// embed it; the generic orchestrator reaches it through the Syncable
// interface.
//
// Timestamps are milliseconds since epoch, the canonical comparable form.
// UpdatedAt is the ordering key for conflict resolution.
type SyncMeta struct {
	LocalID    int64
	RemoteID   *int64
	SyncStatus SyncStatus
	CreatedAt  int64
	UpdatedAt  int64
	DeletedAt  *int64
}

// Syncable is implemented by every entity record via the embedded SyncMeta.
type Syncable interface {
	Meta() *SyncMeta
}

func (m *SyncMeta) Meta() *SyncMeta { return m }

// HasRemoteID reports whether the authority has assigned this record an
// identifier. A record without one has never been successfully pushed.
func (m *SyncMeta) HasRemoteID() bool { return m.RemoteID != nil }

// RemoteIDValue returns the assigned remote id, or 0 when unset.
func (m *SyncMeta) RemoteIDValue() int64 {
	if m.RemoteID == nil {
		return 0
	}
	return *m.RemoteID
}

// IsTombstone reports whether the record is soft-deleted and waiting for
// deletion propagation.
func (m *SyncMeta) IsTombstone() bool { return m.DeletedAt != nil }

// NowMillis returns the current time in the canonical timestamp form.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Int64Ptr is a small helper for nullable id/timestamp columns.
func Int64Ptr(v int64) *int64 { return &v }
