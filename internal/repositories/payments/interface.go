// Package payments stores the payment+splits composite aggregate. A payment
// owns its splits; the pair shares one repository so related writes can run
// inside one transaction.
package payments

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/models"
)

type Repository interface {
	InsertPayment(ctx context.Context, p *models.Payment) (int64, error)
	GetPaymentByLocalID(ctx context.Context, localID int64) (*models.Payment, error)
	GetPaymentByRemoteID(ctx context.Context, remoteID int64) (*models.Payment, error)
	// ListUnsyncedPayments enumerates payments that are dirty themselves
	// or own a dirty split, so a settled payment re-enters the push loop
	// for the sake of its splits.
	ListUnsyncedPayments(ctx context.Context) ([]*models.Payment, error)
	SetPaymentPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error
	UpsertRemotePayment(ctx context.Context, p *models.Payment) error
	SoftDeletePayment(ctx context.Context, localID int64, now int64) error
	MarkSplitsLocallyDeleted(ctx context.Context, paymentLocalID int64) error

	InsertSplit(ctx context.Context, s *models.Split) (int64, error)
	// ListSplitsByPayment returns every split of a payment, tombstones
	// included. The push phase needs them to propagate deletions and the
	// pull phase needs them to avoid resurrecting deleted splits.
	ListSplitsByPayment(ctx context.Context, paymentLocalID int64) ([]*models.Split, error)
	GetSplitByRemoteID(ctx context.Context, remoteID int64) (*models.Split, error)
	SetSplitPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error
	UpsertRemoteSplit(ctx context.Context, s *models.Split) error
	SoftDeleteSplit(ctx context.Context, localID int64, now int64) error

	// Read-only status lookups exposed to the UI layer.
	PaymentStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
	SplitStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
}
