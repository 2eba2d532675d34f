package users

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/models"
)

// Repository describes local-store operations for User records.
type Repository interface {
	// Insert stores a new record and returns its device-assigned local id.
	Insert(ctx context.Context, u *models.User) (int64, error)

	GetByLocalID(ctx context.Context, localID int64) (*models.User, error)

	// GetByRemoteID returns the local counterpart of a pulled record, or
	// common.ErrNotFound.
	GetByRemoteID(ctx context.Context, remoteID int64) (*models.User, error)

	// ListUnsynced returns records the push phase should consider:
	// PENDING_SYNC, SYNC_FAILED, and tombstones not yet LOCALLY_DELETED.
	ListUnsynced(ctx context.Context) ([]*models.User, error)

	// SetPushResult writes the outcome of one push attempt: the assigned
	// remote id (nil to keep the current one) and the new status, in a
	// single statement so readers never see them out of step.
	SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error

	// UpsertRemote writes one pulled record, matched by remote id, using
	// the record's own status (SYNCED, or LOCALLY_DELETED for a remote
	// tombstone). Inserts when no local counterpart exists.
	UpsertRemote(ctx context.Context, u *models.User) error

	// SoftDelete marks the record as a tombstone pending propagation.
	SoftDelete(ctx context.Context, localID int64, now int64) error

	// StatusByLocalID is the read-only status lookup exposed to the UI layer.
	StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
}
