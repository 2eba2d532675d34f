package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/groups"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/splitsync/internal/repositories/payments"
	"github.com/dmitrijs2005/splitsync/internal/repositories/users"
)

// paymentsDelegate syncs the payment+splits composite aggregate, the most
// involved synchronizer. Push order within one payment is strict: the
// payment itself, then split deletions, then split creates and updates.
// A failed split stays SYNC_FAILED without rolling back the payment; the
// aggregate heals on the next run.
type paymentsDelegate struct {
	repo   payments.Repository
	groups groups.Repository
	users  users.Repository
	ids    idmap.Repository
	api    remote.PaymentsAPI
	logger logging.Logger
}

func NewPaymentsSyncer(repo payments.Repository, groupsRepo groups.Repository, usersRepo users.Repository, api remote.PaymentsAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.Payment, remote.PaymentWire] {
	d := &paymentsDelegate{
		repo:   repo,
		groups: groupsRepo,
		users:  usersRepo,
		ids:    ids,
		api:    api,
		logger: logger.With("entity", common.EntityPayment),
	}
	return NewOrchestrator(d, ids, md, logger, DefaultBatchSize)
}

func (d *paymentsDelegate) Entity() common.EntityType { return common.EntityPayment }

func (d *paymentsDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.Payment, error) {
	return d.repo.ListUnsyncedPayments(ctx)
}

func (d *paymentsDelegate) groupRemoteID(ctx context.Context, localID int64) (int64, error) {
	g, err := d.groups.GetGroupByLocalID(ctx, localID)
	if err == nil && g.HasRemoteID() {
		return g.RemoteIDValue(), nil
	}
	if id, err := d.ids.Resolve(ctx, common.EntityGroup, localID); err == nil {
		return id, nil
	}
	return 0, fmt.Errorf("group %d: %w", localID, common.ErrMissingDependency)
}

func (d *paymentsDelegate) userRemoteID(ctx context.Context, localID int64) (int64, error) {
	u, err := d.users.GetByLocalID(ctx, localID)
	if err == nil && u.HasRemoteID() {
		return u.RemoteIDValue(), nil
	}
	if id, err := d.ids.Resolve(ctx, common.EntityUser, localID); err == nil {
		return id, nil
	}
	return 0, fmt.Errorf("user %d: %w", localID, common.ErrMissingDependency)
}

func (d *paymentsDelegate) PushOne(ctx context.Context, p *models.Payment) (*int64, error) {
	if p.IsTombstone() {
		return d.pushDeletion(ctx, p)
	}

	groupID, err := d.groupRemoteID(ctx, p.GroupLocalID)
	if err != nil {
		return nil, err
	}
	payerID, err := d.userRemoteID(ctx, p.PayerUserLocalID)
	if err != nil {
		return nil, err
	}

	w := remote.PaymentWire{
		GroupID:      groupID,
		PayerID:      payerID,
		AmountCents:  p.AmountCents,
		CurrencyCode: p.CurrencyCode,
		Title:        p.Title,
		PaidAt:       p.PaidAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}

	var paymentRemoteID int64
	if p.HasRemoteID() {
		w.ID = p.RemoteIDValue()
		out, err := d.api.UpdatePayment(ctx, w)
		if err != nil {
			return nil, err
		}
		paymentRemoteID = out.ID
	} else {
		out, err := d.api.CreatePayment(ctx, w)
		if err != nil {
			return nil, err
		}
		paymentRemoteID = out.ID
	}

	// The payment is committed remotely; split failures from here on are
	// recorded per split and never fail the payment itself.
	d.pushSplits(ctx, p, paymentRemoteID)

	return &paymentRemoteID, nil
}

// pushDeletion propagates a payment tombstone. The authority cascades the
// deletion to the payment's splits, so their local tombstones are settled
// in the same step. A payment already LOCALLY_DELETED is only re-enumerated
// when that settle failed, so the remote call is not repeated.
func (d *paymentsDelegate) pushDeletion(ctx context.Context, p *models.Payment) (*int64, error) {
	if p.HasRemoteID() && p.SyncStatus != models.StatusLocallyDeleted {
		if err := d.api.DeletePayment(ctx, p.RemoteIDValue()); err != nil {
			return nil, err
		}
	}

	if err := d.repo.MarkSplitsLocallyDeleted(ctx, p.LocalID); err != nil {
		// The remote delete already cascaded; the settle is retried next
		// run through re-enumeration.
		d.logger.Error(ctx, "failed to settle splits under deleted payment", "payment", p.LocalID, "error", err)
	}
	return p.RemoteID, nil
}

// pushSplits walks the payment's splits: deletions first, then creates and
// updates, each resolving its user reference through the mapping layer.
func (d *paymentsDelegate) pushSplits(ctx context.Context, p *models.Payment, paymentRemoteID int64) {
	splits, err := d.repo.ListSplitsByPayment(ctx, p.LocalID)
	if err != nil {
		d.logger.Error(ctx, "failed to list splits", "payment", p.LocalID, "error", err)
		return
	}

	// Deleting remote splits before creating new ones avoids a transient
	// duplicate-amount state on the authority.
	for _, s := range splits {
		if !s.IsTombstone() || s.SyncStatus == models.StatusLocallyDeleted {
			continue
		}
		if s.HasRemoteID() {
			if err := d.api.DeleteSplit(ctx, s.RemoteIDValue()); err != nil {
				d.logger.Error(ctx, "failed to delete split", "split", s.LocalID, "error", err)
				d.setSplitResult(ctx, s.LocalID, nil, models.StatusSyncFailed)
				continue
			}
		}
		d.setSplitResult(ctx, s.LocalID, nil, models.StatusLocallyDeleted)
	}

	for _, s := range splits {
		if s.IsTombstone() || !s.SyncStatus.Retryable() {
			continue
		}
		d.pushSplit(ctx, s, paymentRemoteID)
	}
}

func (d *paymentsDelegate) pushSplit(ctx context.Context, s *models.Split, paymentRemoteID int64) {
	userID, err := d.userRemoteID(ctx, s.UserLocalID)
	if err != nil {
		d.logger.Warn(ctx, "split dependency not yet synced", "split", s.LocalID, "error", err)
		d.setSplitResult(ctx, s.LocalID, nil, models.StatusSyncFailed)
		return
	}

	w := remote.SplitWire{
		PaymentID:   paymentRemoteID,
		UserID:      userID,
		AmountCents: s.AmountCents,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}

	if s.HasRemoteID() {
		w.ID = s.RemoteIDValue()
		if _, err := d.api.UpdateSplit(ctx, w); err != nil {
			d.logger.Error(ctx, "failed to update split", "split", s.LocalID, "error", err)
			d.setSplitResult(ctx, s.LocalID, nil, models.StatusSyncFailed)
			return
		}
		d.setSplitResult(ctx, s.LocalID, s.RemoteID, models.StatusSynced)
		return
	}

	out, err := d.api.CreateSplit(ctx, w)
	if err != nil {
		d.logger.Error(ctx, "failed to create split", "split", s.LocalID, "error", err)
		d.setSplitResult(ctx, s.LocalID, nil, models.StatusSyncFailed)
		return
	}
	d.setSplitResult(ctx, s.LocalID, &out.ID, models.StatusSynced)
	if err := d.ids.Save(ctx, common.EntitySplit, s.LocalID, out.ID); err != nil {
		d.logger.Error(ctx, "failed to save split mapping", "split", s.LocalID, "error", err)
	}
}

func (d *paymentsDelegate) setSplitResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) {
	if err := d.repo.SetSplitPushResult(ctx, localID, remoteID, status); err != nil {
		d.logger.Error(ctx, "failed to persist split push result", "split", localID, "error", err)
	}
}

func (d *paymentsDelegate) SetPushResult(ctx context.Context, p *models.Payment, remoteID *int64, status models.SyncStatus) error {
	return d.repo.SetPaymentPushResult(ctx, p.LocalID, remoteID, status)
}

func (d *paymentsDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.PaymentWire, error) {
	return d.api.ListPaymentsSince(ctx, cursor)
}

// ApplyOne applies a payment+splits wire bundle: the payment first, then
// its splits, skipping any split whose local counterpart is a tombstone so
// a user-deleted split is never resurrected.
func (d *paymentsDelegate) ApplyOne(ctx context.Context, w remote.PaymentWire) (bool, error) {
	local, err := d.repo.GetPaymentByRemoteID(ctx, w.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	var meta *models.SyncMeta
	if local != nil {
		meta = &local.SyncMeta
	}

	applied := false
	if ShouldApplyRemote(meta, w.UpdatedAt) {
		group, err := d.groups.GetGroupByRemoteID(ctx, w.GroupID)
		if err != nil {
			return false, fmt.Errorf("payment %d references unknown group %d: %w", w.ID, w.GroupID, err)
		}
		payer, err := d.users.GetByRemoteID(ctx, w.PayerID)
		if err != nil {
			return false, fmt.Errorf("payment %d references unknown payer %d: %w", w.ID, w.PayerID, err)
		}

		status := models.StatusSynced
		if w.DeletedAt != nil {
			status = models.StatusLocallyDeleted
		}
		p := &models.Payment{
			SyncMeta: models.SyncMeta{
				RemoteID:   &w.ID,
				SyncStatus: status,
				CreatedAt:  w.CreatedAt,
				UpdatedAt:  w.UpdatedAt,
				DeletedAt:  w.DeletedAt,
			},
			GroupLocalID:     group.LocalID,
			PayerUserLocalID: payer.LocalID,
			AmountCents:      w.AmountCents,
			CurrencyCode:     w.CurrencyCode,
			Title:            w.Title,
			PaidAt:           w.PaidAt,
		}
		if err := d.repo.UpsertRemotePayment(ctx, p); err != nil {
			return false, err
		}
		applied = true
	}

	// The splits need the payment's local id, which may have just been
	// assigned by the upsert.
	stored, err := d.repo.GetPaymentByRemoteID(ctx, w.ID)
	if err != nil {
		return applied, err
	}

	for _, sw := range w.Splits {
		splitApplied, err := d.applySplit(ctx, stored.LocalID, sw)
		if err != nil {
			return applied, err
		}
		applied = applied || splitApplied
	}
	return applied, nil
}

func (d *paymentsDelegate) applySplit(ctx context.Context, paymentLocalID int64, w remote.SplitWire) (bool, error) {
	local, err := d.repo.GetSplitByRemoteID(ctx, w.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	// A local tombstone means the user deleted this split; the pending
	// deletion outranks the pulled snapshot.
	if local != nil && local.IsTombstone() {
		return false, nil
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
		return false, fmt.Errorf("split %d references unknown user %d: %w", w.ID, w.UserID, err)
	}

	status := models.StatusSynced
	if w.DeletedAt != nil {
		status = models.StatusLocallyDeleted
	}
	s := &models.Split{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: status,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			DeletedAt:  w.DeletedAt,
		},
		PaymentLocalID: paymentLocalID,
		UserLocalID:    user.LocalID,
		AmountCents:    w.AmountCents,
	}
	if err := d.repo.UpsertRemoteSplit(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}
