package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from SyncStatus
		to   SyncStatus
		ok   bool
	}{
		{StatusPendingSync, StatusSynced, true},
		{StatusPendingSync, StatusSyncFailed, true},
		{StatusPendingSync, StatusConflict, true},
		{StatusSynced, StatusPendingSync, true},
		{StatusSyncFailed, StatusPendingSync, true},
		{StatusSyncFailed, StatusSynced, true},
		{StatusConflict, StatusPendingSync, true},

		// deletion is reachable from any live state
		{StatusPendingSync, StatusLocallyDeleted, true},
		{StatusSynced, StatusLocallyDeleted, true},
		{StatusConflict, StatusLocallyDeleted, true},

		// nothing skips PENDING_SYNC
		{StatusSynced, StatusSyncFailed, false},
		{StatusSynced, StatusConflict, false},
		{StatusConflict, StatusSynced, false},

		// tombstones are final
		{StatusLocallyDeleted, StatusPendingSync, false},
		{StatusLocallyDeleted, StatusSynced, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, StatusPendingSync.Retryable())
	assert.True(t, StatusSyncFailed.Retryable())
	assert.False(t, StatusSynced.Retryable())
	assert.False(t, StatusConflict.Retryable())
	assert.False(t, StatusLocallyDeleted.Retryable())
}

func TestSyncMetaHelpers(t *testing.T) {
	m := &SyncMeta{LocalID: 1, SyncStatus: StatusPendingSync}
	assert.False(t, m.HasRemoteID())
	assert.EqualValues(t, 0, m.RemoteIDValue())
	assert.False(t, m.IsTombstone())

	m.RemoteID = Int64Ptr(42)
	m.DeletedAt = Int64Ptr(NowMillis())
	assert.True(t, m.HasRemoteID())
	assert.EqualValues(t, 42, m.RemoteIDValue())
	assert.True(t, m.IsTombstone())
}
