package syncer

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/splitsync/internal/repositories/users"
)

type usersDelegate struct {
	repo users.Repository
	api  remote.UsersAPI
}

// NewUsersSyncer builds the synchronizer for users. Users sync first:
// almost everything else references them.
func NewUsersSyncer(repo users.Repository, api remote.UsersAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.User, remote.UserWire] {
	return NewOrchestrator(&usersDelegate{repo: repo, api: api}, ids, md, logger, DefaultBatchSize)
}

func (d *usersDelegate) Entity() common.EntityType { return common.EntityUser }

func (d *usersDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.User, error) {
	return d.repo.ListUnsynced(ctx)
}

func (d *usersDelegate) PushOne(ctx context.Context, u *models.User) (*int64, error) {
	if u.IsTombstone() {
		if !u.HasRemoteID() {
			return nil, nil
		}
		if err := d.api.DeleteUser(ctx, u.RemoteIDValue()); err != nil {
			return nil, err
		}
		return u.RemoteID, nil
	}

	w := remote.UserWire{
		Name:        u.Name,
		Email:       u.Email,
		AvatarColor: u.AvatarColor,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}

	if u.HasRemoteID() {
		w.ID = u.RemoteIDValue()
		out, err := d.api.UpdateUser(ctx, w)
		if err != nil {
			return nil, err
		}
		return &out.ID, nil
	}

	out, err := d.api.CreateUser(ctx, w)
	if err != nil {
		return nil, err
	}
	return &out.ID, nil
}

func (d *usersDelegate) SetPushResult(ctx context.Context, u *models.User, remoteID *int64, status models.SyncStatus) error {
	return d.repo.SetPushResult(ctx, u.LocalID, remoteID, status)
}

func (d *usersDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.UserWire, error) {
	return d.api.ListUsersSince(ctx, cursor)
}

func (d *usersDelegate) ApplyOne(ctx context.Context, w remote.UserWire) (bool, error) {
	local, err := d.repo.GetByRemoteID(ctx, w.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	var meta *models.SyncMeta
	if local != nil {
		meta = &local.SyncMeta
	}
	if !ShouldApplyRemote(meta, w.UpdatedAt) {
		return false, nil
	}

	status := models.StatusSynced
	if w.DeletedAt != nil {
		status = models.StatusLocallyDeleted
	}
	u := &models.User{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: status,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			DeletedAt:  w.DeletedAt,
		},
		Name:        w.Name,
		Email:       w.Email,
		AvatarColor: w.AvatarColor,
	}
	if err := d.repo.UpsertRemote(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}
