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
	"github.com/dmitrijs2005/splitsync/internal/repositories/rates"
)

// ratesDelegate syncs conversion rates. Custom device-recorded rates push
// up; authority-published rates pull down.
type ratesDelegate struct {
	repo rates.Repository
	api  remote.RatesAPI
}

func NewRatesSyncer(repo rates.Repository, api remote.RatesAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.ConversionRate, remote.ConversionRateWire] {
	return NewOrchestrator(&ratesDelegate{repo: repo, api: api}, ids, md, logger, DefaultBatchSize)
}

func (d *ratesDelegate) Entity() common.EntityType { return common.EntityConversionRate }

func (d *ratesDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.ConversionRate, error) {
	return d.repo.ListUnsynced(ctx)
}

func (d *ratesDelegate) PushOne(ctx context.Context, c *models.ConversionRate) (*int64, error) {
	if c.IsTombstone() {
		if !c.HasRemoteID() {
			return nil, nil
		}
		if err := d.api.DeleteRate(ctx, c.RemoteIDValue()); err != nil {
			return nil, err
		}
		return c.RemoteID, nil
	}

	w := remote.ConversionRateWire{
		BaseCurrency:  c.BaseCurrency,
		QuoteCurrency: c.QuoteCurrency,
		RateMicros:    c.RateMicros,
		RateDate:      c.RateDate,
		Custom:        c.Custom,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}

	if c.HasRemoteID() {
		w.ID = c.RemoteIDValue()
		out, err := d.api.UpdateRate(ctx, w)
		if err != nil {
			return nil, err
		}
		return &out.ID, nil
	}

	out, err := d.api.CreateRate(ctx, w)
	if err != nil {
		return nil, err
	}
	return &out.ID, nil
}

func (d *ratesDelegate) SetPushResult(ctx context.Context, c *models.ConversionRate, remoteID *int64, status models.SyncStatus) error {
	return d.repo.SetPushResult(ctx, c.LocalID, remoteID, status)
}

func (d *ratesDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.ConversionRateWire, error) {
	return d.api.ListRatesSince(ctx, cursor)
}

func (d *ratesDelegate) ApplyOne(ctx context.Context, w remote.ConversionRateWire) (bool, error) {
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
	c := &models.ConversionRate{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: status,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			DeletedAt:  w.DeletedAt,
		},
		BaseCurrency:  w.BaseCurrency,
		QuoteCurrency: w.QuoteCurrency,
		RateMicros:    w.RateMicros,
		RateDate:      w.RateDate,
		Custom:        w.Custom,
	}
	if err := d.repo.UpsertRemote(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}
