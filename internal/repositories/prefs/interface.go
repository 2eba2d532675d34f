// Package prefs stores the per-user preference record (one per user).
package prefs

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, p *models.UserPreference) (int64, error)
	GetByUser(ctx context.Context, userLocalID int64) (*models.UserPreference, error)
	GetByRemoteID(ctx context.Context, remoteID int64) (*models.UserPreference, error)
	ListUnsynced(ctx context.Context) ([]*models.UserPreference, error)
	SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error
	UpsertRemote(ctx context.Context, p *models.UserPreference) error
	StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
}
