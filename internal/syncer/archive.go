package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/archive"
	"github.com/dmitrijs2005/splitsync/internal/repositories/groups"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/splitsync/internal/repositories/payments"
)

// archiveDelegate syncs archive markers. An archive record is immutable
// once created: push is create or delete, never update. The marker
// references another entity (a group or a payment), so the reference is
// translated like any other foreign key. Archive syncs last.
type archiveDelegate struct {
	repo     archive.Repository
	groups   groups.Repository
	payments payments.Repository
	ids      idmap.Repository
	api      remote.ArchiveAPI
}

func NewArchiveSyncer(repo archive.Repository, groupsRepo groups.Repository, paymentsRepo payments.Repository, api remote.ArchiveAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.ArchiveRecord, remote.ArchiveWire] {
	d := &archiveDelegate{repo: repo, groups: groupsRepo, payments: paymentsRepo, ids: ids, api: api}
	return NewOrchestrator(d, ids, md, logger, DefaultBatchSize)
}

func (d *archiveDelegate) Entity() common.EntityType { return common.EntityArchive }

func (d *archiveDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.ArchiveRecord, error) {
	return d.repo.ListUnsynced(ctx)
}

func (d *archiveDelegate) targetRemoteID(ctx context.Context, kind string, localID int64) (int64, error) {
	switch common.EntityType(kind) {
	case common.EntityGroup:
		g, err := d.groups.GetGroupByLocalID(ctx, localID)
		if err == nil && g.HasRemoteID() {
			return g.RemoteIDValue(), nil
		}
	case common.EntityPayment:
		p, err := d.payments.GetPaymentByLocalID(ctx, localID)
		if err == nil && p.HasRemoteID() {
			return p.RemoteIDValue(), nil
		}
	}
	if id, err := d.ids.Resolve(ctx, common.EntityType(kind), localID); err == nil {
		return id, nil
	}
	return 0, fmt.Errorf("%s %d: %w", kind, localID, common.ErrMissingDependency)
}

func (d *archiveDelegate) targetLocalID(ctx context.Context, kind string, remoteID int64) (int64, error) {
	switch common.EntityType(kind) {
	case common.EntityGroup:
		g, err := d.groups.GetGroupByRemoteID(ctx, remoteID)
		if err != nil {
			return 0, err
		}
		return g.LocalID, nil
	case common.EntityPayment:
		p, err := d.payments.GetPaymentByRemoteID(ctx, remoteID)
		if err != nil {
			return 0, err
		}
		return p.LocalID, nil
	}
	return 0, fmt.Errorf("unknown archive target kind %q", kind)
}

func (d *archiveDelegate) PushOne(ctx context.Context, a *models.ArchiveRecord) (*int64, error) {
	if a.IsTombstone() {
		if !a.HasRemoteID() {
			return nil, nil
		}
		if err := d.api.DeleteArchive(ctx, a.RemoteIDValue()); err != nil {
			return nil, err
		}
		return a.RemoteID, nil
	}

	// Already created on the authority; markers have no mutable fields.
	if a.HasRemoteID() {
		return a.RemoteID, nil
	}

	entityID, err := d.targetRemoteID(ctx, a.EntityKind, a.EntityLocalID)
	if err != nil {
		return nil, err
	}

	out, err := d.api.CreateArchive(ctx, remote.ArchiveWire{
		EntityKind: a.EntityKind,
		EntityID:   entityID,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &out.ID, nil
}

func (d *archiveDelegate) SetPushResult(ctx context.Context, a *models.ArchiveRecord, remoteID *int64, status models.SyncStatus) error {
	return d.repo.SetPushResult(ctx, a.LocalID, remoteID, status)
}

func (d *archiveDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.ArchiveWire, error) {
	return d.api.ListArchivesSince(ctx, cursor)
}

func (d *archiveDelegate) ApplyOne(ctx context.Context, w remote.ArchiveWire) (bool, error) {
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

	localTarget, err := d.targetLocalID(ctx, w.EntityKind, w.EntityID)
	if err != nil {
		return false, fmt.Errorf("archive %d: %w", w.ID, err)
	}

	status := models.StatusSynced
	if w.DeletedAt != nil {
		status = models.StatusLocallyDeleted
	}
	a := &models.ArchiveRecord{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: status,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			DeletedAt:  w.DeletedAt,
		},
		EntityKind:    w.EntityKind,
		EntityLocalID: localTarget,
	}
	if err := d.repo.UpsertRemote(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}
