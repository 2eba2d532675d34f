// Package models defines the syncable record types shared by the local
// repositories, the entity synchronizers and the remote boundary.
package models

// SyncStatus is the lifecycle tag attached to every syncable record.
type SyncStatus string

const (
	// StatusPendingSync marks a record with local changes not yet pushed.
	// Initial state for every locally created or edited record.
	StatusPendingSync SyncStatus = "PENDING_SYNC"

	// StatusSynced marks a record consistent with the authority. Terminal
	// until the next local edit.
	StatusSynced SyncStatus = "SYNCED"

	// StatusSyncFailed marks a record whose last push failed transiently.
	// Re-enumerated and retried on the next run.
	StatusSyncFailed SyncStatus = "SYNC_FAILED"

	// StatusLocallyDeleted marks a tombstone whose deletion is confirmed
	// (either propagated to the authority or never pushed at all).
	StatusLocallyDeleted SyncStatus = "LOCALLY_DELETED"

	// StatusConflict marks an ownership dispute (the remote entity belongs
	// to another principal). Never retried automatically; the owning
	// feature must resolve it.
	StatusConflict SyncStatus = "CONFLICT"
)

// legalTransitions encodes the sync status state machine. LOCALLY_DELETED
// is reachable from any state once deletion is confirmed, so it is handled
// separately in CanTransitionTo.
var legalTransitions = map[SyncStatus][]SyncStatus{
	StatusPendingSync:    {StatusSynced, StatusSyncFailed, StatusConflict},
	StatusSynced:         {StatusPendingSync},
	StatusSyncFailed:     {StatusPendingSync, StatusSynced, StatusConflict},
	StatusConflict:       {StatusPendingSync},
	StatusLocallyDeleted: {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s SyncStatus) CanTransitionTo(next SyncStatus) bool {
	if s == next {
		return true
	}
	if next == StatusLocallyDeleted {
		return true
	}
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Retryable reports whether a record in this status is picked up again by
// the push phase. CONFLICT and LOCALLY_DELETED never are; tombstones are
// enumerated by deletedAt, not by status.
func (s SyncStatus) Retryable() bool {
	return s == StatusPendingSync || s == StatusSyncFailed
}
