package syncer

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/banking"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
)

// requisitionsDelegate mirrors the server-authoritative bank-connection
// authorizations. Requisitions are never locally originated: the push
// phase has nothing to enumerate and pulled records enter directly as
// SYNCED. They pull before bank accounts, which reference them.
type requisitionsDelegate struct {
	repo banking.Repository
	api  remote.BankingAPI
}

func NewRequisitionsSyncer(repo banking.Repository, api remote.BankingAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.Requisition, remote.RequisitionWire] {
	return NewOrchestrator(&requisitionsDelegate{repo: repo, api: api}, ids, md, logger, DefaultBatchSize)
}

func (d *requisitionsDelegate) Entity() common.EntityType { return common.EntityRequisition }

func (d *requisitionsDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.Requisition, error) {
	return nil, nil
}

func (d *requisitionsDelegate) PushOne(ctx context.Context, q *models.Requisition) (*int64, error) {
	// Unreachable: EnumerateLocalChanges never returns records.
	return q.RemoteID, nil
}

func (d *requisitionsDelegate) SetPushResult(ctx context.Context, q *models.Requisition, remoteID *int64, status models.SyncStatus) error {
	return nil
}

func (d *requisitionsDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.RequisitionWire, error) {
	return d.api.ListRequisitionsSince(ctx, cursor)
}

func (d *requisitionsDelegate) ApplyOne(ctx context.Context, w remote.RequisitionWire) (bool, error) {
	status := models.StatusSynced
	if w.DeletedAt != nil {
		status = models.StatusLocallyDeleted
	}
	q := &models.Requisition{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: status,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			DeletedAt:  w.DeletedAt,
		},
		InstitutionID: w.InstitutionID,
		Reference:     w.Reference,
		Status:        w.Status,
		Link:          w.Link,
	}
	if err := d.repo.UpsertRemoteRequisition(ctx, q); err != nil {
		return false, err
	}
	return true, nil
}
