package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/splitsync/internal/repositories/prefs"
	"github.com/dmitrijs2005/splitsync/internal/repositories/users"
)

// prefsDelegate syncs the per-user settings record. Preferences are never
// deleted, only overwritten, so there is no tombstone path.
type prefsDelegate struct {
	repo  prefs.Repository
	users users.Repository
	ids   idmap.Repository
	api   remote.PrefsAPI
}

func NewPrefsSyncer(repo prefs.Repository, usersRepo users.Repository, api remote.PrefsAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.UserPreference, remote.PreferenceWire] {
	return NewOrchestrator(&prefsDelegate{repo: repo, users: usersRepo, ids: ids, api: api}, ids, md, logger, DefaultBatchSize)
}

func (d *prefsDelegate) Entity() common.EntityType { return common.EntityPreference }

func (d *prefsDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.UserPreference, error) {
	return d.repo.ListUnsynced(ctx)
}

func (d *prefsDelegate) userRemoteID(ctx context.Context, localID int64) (int64, error) {
	u, err := d.users.GetByLocalID(ctx, localID)
	if err == nil && u.HasRemoteID() {
		return u.RemoteIDValue(), nil
	}
	if id, err := d.ids.Resolve(ctx, common.EntityUser, localID); err == nil {
		return id, nil
	}
	return 0, fmt.Errorf("user %d: %w", localID, common.ErrMissingDependency)
}

func (d *prefsDelegate) PushOne(ctx context.Context, p *models.UserPreference) (*int64, error) {
	userID, err := d.userRemoteID(ctx, p.UserLocalID)
	if err != nil {
		return nil, err
	}

	w := remote.PreferenceWire{
		UserID:             userID,
		Locale:             p.Locale,
		DefaultCurrency:    p.DefaultCurrency,
		NotifyOnPayment:    p.NotifyOnPayment,
		NotifyOnSettlement: p.NotifyOnSettlement,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}

	if p.HasRemoteID() {
		w.ID = p.RemoteIDValue()
		out, err := d.api.UpdatePreference(ctx, w)
		if err != nil {
			return nil, err
		}
		return &out.ID, nil
	}

	out, err := d.api.CreatePreference(ctx, w)
	if err != nil {
		return nil, err
	}
	return &out.ID, nil
}

func (d *prefsDelegate) SetPushResult(ctx context.Context, p *models.UserPreference, remoteID *int64, status models.SyncStatus) error {
	return d.repo.SetPushResult(ctx, p.LocalID, remoteID, status)
}

func (d *prefsDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.PreferenceWire, error) {
	return d.api.ListPreferencesSince(ctx, cursor)
}

func (d *prefsDelegate) ApplyOne(ctx context.Context, w remote.PreferenceWire) (bool, error) {
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

	user, err := d.users.GetByRemoteID(ctx, w.UserID)
	if err != nil {
		return false, fmt.Errorf("preference %d references unknown user %d: %w", w.ID, w.UserID, err)
	}

	p := &models.UserPreference{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: models.StatusSynced,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
		},
		UserLocalID:        user.LocalID,
		Locale:             w.Locale,
		DefaultCurrency:    w.DefaultCurrency,
		NotifyOnPayment:    w.NotifyOnPayment,
		NotifyOnSettlement: w.NotifyOnSettlement,
	}
	if err := d.repo.UpsertRemote(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}
