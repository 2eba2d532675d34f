// Package rates stores currency conversion rates. Device-recorded custom
// rates push; authority-published rates pull.
package rates

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, c *models.ConversionRate) (int64, error)
	GetByRemoteID(ctx context.Context, remoteID int64) (*models.ConversionRate, error)
	ListUnsynced(ctx context.Context) ([]*models.ConversionRate, error)
	SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error
	UpsertRemote(ctx context.Context, c *models.ConversionRate) error
	SoftDelete(ctx context.Context, localID int64, now int64) error
	StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
}
