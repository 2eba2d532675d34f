// Package syncer implements the reconciliation engine: the generic
// push/pull orchestrator, one synchronizer per entity type, and the run
// coordinator that drives them in dependency order.
package syncer

import "github.com/dmitrijs2005/splitsync/internal/models"

// ShouldApplyRemote decides whether a pulled remote version may overwrite
// the local record it matched by remote id.
//
// Unsynced local intent always outranks a concurrently pulled snapshot:
// a PENDING_SYNC or SYNC_FAILED record holds an edit the user has not
// managed to push yet, and a CONFLICT record is frozen until resolved.
// Otherwise the remote version wins only when strictly newer; an equal or
// older timestamp means the stores are already consistent.
func ShouldApplyRemote(local *models.SyncMeta, remoteUpdatedAt int64) bool {
	if local == nil {
		return true
	}
	switch local.SyncStatus {
	case models.StatusPendingSync, models.StatusSyncFailed, models.StatusConflict:
		return false
	}
	return remoteUpdatedAt > local.UpdatedAt
}
