// Package archive stores markers for entities the user archived away from
// the main views.
package archive

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, a *models.ArchiveRecord) (int64, error)
	GetByRemoteID(ctx context.Context, remoteID int64) (*models.ArchiveRecord, error)
	ListUnsynced(ctx context.Context) ([]*models.ArchiveRecord, error)
	SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error
	UpsertRemote(ctx context.Context, a *models.ArchiveRecord) error
	SoftDelete(ctx context.Context, localID int64, now int64) error
	StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
}
