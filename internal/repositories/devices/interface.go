// Package devices stores push-notification device tokens.
package devices

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, d *models.DeviceToken) (int64, error)
	GetByRemoteID(ctx context.Context, remoteID int64) (*models.DeviceToken, error)
	ListUnsynced(ctx context.Context) ([]*models.DeviceToken, error)
	SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error
	UpsertRemote(ctx context.Context, d *models.DeviceToken) error
	SoftDelete(ctx context.Context, localID int64, now int64) error
	StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
}
