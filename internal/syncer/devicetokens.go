package syncer

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/devices"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
)

// deviceTokensDelegate syncs push-notification registrations. Created on
// (re-)registration, tombstoned on unregister.
type deviceTokensDelegate struct {
	repo devices.Repository
	api  remote.DevicesAPI
}

func NewDeviceTokensSyncer(repo devices.Repository, api remote.DevicesAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.DeviceToken, remote.DeviceTokenWire] {
	return NewOrchestrator(&deviceTokensDelegate{repo: repo, api: api}, ids, md, logger, DefaultBatchSize)
}

func (d *deviceTokensDelegate) Entity() common.EntityType { return common.EntityDeviceToken }

func (d *deviceTokensDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.DeviceToken, error) {
	return d.repo.ListUnsynced(ctx)
}

func (d *deviceTokensDelegate) PushOne(ctx context.Context, t *models.DeviceToken) (*int64, error) {
	if t.IsTombstone() {
		if !t.HasRemoteID() {
			return nil, nil
		}
		if err := d.api.DeleteDeviceToken(ctx, t.RemoteIDValue()); err != nil {
			return nil, err
		}
		return t.RemoteID, nil
	}

	w := remote.DeviceTokenWire{
		Token:     t.Token,
		Platform:  t.Platform,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}

	if t.HasRemoteID() {
		w.ID = t.RemoteIDValue()
		out, err := d.api.UpdateDeviceToken(ctx, w)
		if err != nil {
			return nil, err
		}
		return &out.ID, nil
	}

	out, err := d.api.CreateDeviceToken(ctx, w)
	if err != nil {
		return nil, err
	}
	return &out.ID, nil
}

func (d *deviceTokensDelegate) SetPushResult(ctx context.Context, t *models.DeviceToken, remoteID *int64, status models.SyncStatus) error {
	return d.repo.SetPushResult(ctx, t.LocalID, remoteID, status)
}

func (d *deviceTokensDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.DeviceTokenWire, error) {
	return d.api.ListDeviceTokensSince(ctx, cursor)
}

func (d *deviceTokensDelegate) ApplyOne(ctx context.Context, w remote.DeviceTokenWire) (bool, error) {
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
	t := &models.DeviceToken{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: status,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			DeletedAt:  w.DeletedAt,
		},
		Token:    w.Token,
		Platform: w.Platform,
	}
	if err := d.repo.UpsertRemote(ctx, t); err != nil {
		return false, err
	}
	return true, nil
}
