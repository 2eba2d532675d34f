package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/banking"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
)

type bankAccountsDelegate struct {
	repo banking.Repository
	api  remote.BankingAPI
}

func NewBankAccountsSyncer(repo banking.Repository, api remote.BankingAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.BankAccount, remote.BankAccountWire] {
	return NewOrchestrator(&bankAccountsDelegate{repo: repo, api: api}, ids, md, logger, DefaultBatchSize)
}

func (d *bankAccountsDelegate) Entity() common.EntityType { return common.EntityBankAccount }

func (d *bankAccountsDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.BankAccount, error) {
	return d.repo.ListUnsyncedAccounts(ctx)
}

// requisitionRemoteID translates the local requisition reference.
// Requisitions are server-authoritative, so a stored requisition always
// carries its remote id; a missing one means the pull has not delivered it
// yet.
func (d *bankAccountsDelegate) requisitionRemoteID(ctx context.Context, localID int64) (int64, error) {
	q, err := d.repo.GetRequisitionByLocalID(ctx, localID)
	if err == nil && q.HasRemoteID() {
		return q.RemoteIDValue(), nil
	}
	return 0, fmt.Errorf("requisition %d: %w", localID, common.ErrMissingDependency)
}

func (d *bankAccountsDelegate) PushOne(ctx context.Context, a *models.BankAccount) (*int64, error) {
	if a.IsTombstone() {
		if !a.HasRemoteID() {
			return nil, nil
		}
		if err := d.api.DeleteBankAccount(ctx, a.RemoteIDValue()); err != nil {
			return nil, err
		}
		return a.RemoteID, nil
	}

	w := remote.BankAccountWire{
		InstitutionID:  a.InstitutionID,
		IBAN:           a.IBAN,
		DisplayName:    a.DisplayName,
		ReauthRequired: a.ReauthRequired,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.RequisitionLocalID != nil {
		id, err := d.requisitionRemoteID(ctx, *a.RequisitionLocalID)
		if err != nil {
			return nil, err
		}
		w.RequisitionID = &id
	}

	if a.HasRemoteID() {
		w.ID = a.RemoteIDValue()
		out, err := d.api.UpdateBankAccount(ctx, w)
		if err != nil {
			return nil, err
		}
		return &out.ID, nil
	}

	out, err := d.api.CreateBankAccount(ctx, w)
	if err != nil {
		return nil, err
	}
	return &out.ID, nil
}

func (d *bankAccountsDelegate) SetPushResult(ctx context.Context, a *models.BankAccount, remoteID *int64, status models.SyncStatus) error {
	return d.repo.SetAccountPushResult(ctx, a.LocalID, remoteID, status)
}

func (d *bankAccountsDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.BankAccountWire, error) {
	return d.api.ListBankAccountsSince(ctx, cursor)
}

func (d *bankAccountsDelegate) ApplyOne(ctx context.Context, w remote.BankAccountWire) (bool, error) {
	local, err := d.repo.GetAccountByRemoteID(ctx, w.ID)
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

	var reqLocalID *int64
	if w.RequisitionID != nil {
		q, err := d.repo.GetRequisitionByRemoteID(ctx, *w.RequisitionID)
		if err != nil {
			return false, fmt.Errorf("bank account %d references unknown requisition %d: %w", w.ID, *w.RequisitionID, err)
		}
		reqLocalID = &q.LocalID
	}

	status := models.StatusSynced
	if w.DeletedAt != nil {
		status = models.StatusLocallyDeleted
	}
	a := &models.BankAccount{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: status,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			DeletedAt:  w.DeletedAt,
		},
		RequisitionLocalID: reqLocalID,
		InstitutionID:      w.InstitutionID,
		IBAN:               w.IBAN,
		DisplayName:        w.DisplayName,
		ReauthRequired:     w.ReauthRequired,
	}
	if err := d.repo.UpsertRemoteAccount(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}
