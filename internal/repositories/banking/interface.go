// Package banking stores linked bank accounts, their requisitions
// (server-authoritative bank-connection authorizations) and the live-fetched
// bank transactions.
package banking

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/models"
)

type Repository interface {
	InsertAccount(ctx context.Context, a *models.BankAccount) (int64, error)
	GetAccountByLocalID(ctx context.Context, localID int64) (*models.BankAccount, error)
	GetAccountByRemoteID(ctx context.Context, remoteID int64) (*models.BankAccount, error)
	ListAccounts(ctx context.Context) ([]*models.BankAccount, error)
	ListUnsyncedAccounts(ctx context.Context) ([]*models.BankAccount, error)
	SetAccountPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error
	UpsertRemoteAccount(ctx context.Context, a *models.BankAccount) error
	SoftDeleteAccount(ctx context.Context, localID int64, now int64) error

	// SetReauthRequired flips the consent-expired flag and marks the
	// record PENDING_SYNC so the flag reaches the authority.
	SetReauthRequired(ctx context.Context, localID int64, required bool, now int64) error

	// Requisitions are pull-only; the local store only ever mirrors them.
	UpsertRemoteRequisition(ctx context.Context, q *models.Requisition) error
	GetRequisitionByLocalID(ctx context.Context, localID int64) (*models.Requisition, error)
	GetRequisitionByRemoteID(ctx context.Context, remoteID int64) (*models.Requisition, error)
	ListRequisitions(ctx context.Context) ([]*models.Requisition, error)

	// Bank transactions arrive from the aggregator, deduplicated on
	// (account, external id).
	UpsertTransactions(ctx context.Context, txs []*models.BankTransaction) (int, error)

	// AccountStatusByLocalID is the read-only status lookup exposed to the UI layer.
	AccountStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
}
