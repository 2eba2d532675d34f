package banking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/dbx"
	"github.com/dmitrijs2005/splitsync/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const accountColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at,
	requisition_local_id, institution_id, iban, display_name, reauth_required`

func scanAccount(row interface{ Scan(...any) error }) (*models.BankAccount, error) {
	var a models.BankAccount
	var remoteID, deletedAt, reqID sql.NullInt64
	err := row.Scan(&a.LocalID, &remoteID, &a.SyncStatus, &a.CreatedAt, &a.UpdatedAt, &deletedAt,
		&reqID, &a.InstitutionID, &a.IBAN, &a.DisplayName, &a.ReauthRequired)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		a.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.Int64
	}
	if reqID.Valid {
		a.RequisitionLocalID = &reqID.Int64
	}
	return &a, nil
}

func (r *SQLiteRepository) InsertAccount(ctx context.Context, a *models.BankAccount) (int64, error) {
	query := `INSERT INTO bank_accounts (remote_id, sync_status, created_at, updated_at, deleted_at,
		requisition_local_id, institution_id, iban, display_name, reauth_required)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		a.RemoteID, a.SyncStatus, a.CreatedAt, a.UpdatedAt, a.DeletedAt,
		a.RequisitionLocalID, a.InstitutionID, a.IBAN, a.DisplayName, a.ReauthRequired)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bank account: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetAccountByLocalID(ctx context.Context, localID int64) (*models.BankAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM bank_accounts WHERE local_id = ?`, localID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account %d: %w", localID, err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAccountByRemoteID(ctx context.Context, remoteID int64) (*models.BankAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM bank_accounts WHERE remote_id = ?`, remoteID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account by remote id %d: %w", remoteID, err)
	}
	return a, nil
}

func (r *SQLiteRepository) listAccounts(ctx context.Context, query string, args ...any) ([]*models.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	var result []*models.BankAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]*models.BankAccount, error) {
	return r.listAccounts(ctx, `SELECT `+accountColumns+` FROM bank_accounts WHERE deleted_at IS NULL ORDER BY local_id`)
}

func (r *SQLiteRepository) ListUnsyncedAccounts(ctx context.Context) ([]*models.BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts
		WHERE sync_status IN (?, ?) OR (deleted_at IS NOT NULL AND sync_status != ?)
		ORDER BY local_id`
	return r.listAccounts(ctx, query,
		models.StatusPendingSync, models.StatusSyncFailed, models.StatusLocallyDeleted)
}

func (r *SQLiteRepository) SetAccountPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE bank_accounts SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for bank account %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemoteAccount(ctx context.Context, a *models.BankAccount) error {
	query := `INSERT INTO bank_accounts (remote_id, sync_status, created_at, updated_at, deleted_at,
		requisition_local_id, institution_id, iban, display_name, reauth_required)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			institution_id = excluded.institution_id,
			iban = excluded.iban,
			display_name = excluded.display_name,
			reauth_required = excluded.reauth_required`
	_, err := r.db.ExecContext(ctx, query,
		a.RemoteID, a.SyncStatus, a.CreatedAt, a.UpdatedAt, a.DeletedAt,
		a.RequisitionLocalID, a.InstitutionID, a.IBAN, a.DisplayName, a.ReauthRequired)
	if err != nil {
		return fmt.Errorf("failed to upsert remote bank account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDeleteAccount(ctx context.Context, localID int64, now int64) error {
	query := `UPDATE bank_accounts SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE local_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, now, models.StatusPendingSync, localID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete bank account %d: %w", localID, err)
	}
	return nil
}

func (r *SQLiteRepository) SetReauthRequired(ctx context.Context, localID int64, required bool, now int64) error {
	query := `UPDATE bank_accounts SET reauth_required = ?, updated_at = ?, sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, required, now, models.StatusPendingSync, localID)
	if err != nil {
		return fmt.Errorf("failed to set reauth flag for bank account %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

const requisitionColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at,
	institution_id, reference, status, link`

func scanRequisition(row interface{ Scan(...any) error }) (*models.Requisition, error) {
	var q models.Requisition
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&q.LocalID, &remoteID, &q.SyncStatus, &q.CreatedAt, &q.UpdatedAt, &deletedAt,
		&q.InstitutionID, &q.Reference, &q.Status, &q.Link)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		q.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		q.DeletedAt = &deletedAt.Int64
	}
	return &q, nil
}

func (r *SQLiteRepository) UpsertRemoteRequisition(ctx context.Context, q *models.Requisition) error {
	query := `INSERT INTO requisitions (remote_id, sync_status, created_at, updated_at, deleted_at,
		institution_id, reference, status, link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			status = excluded.status,
			link = excluded.link`
	_, err := r.db.ExecContext(ctx, query,
		q.RemoteID, q.SyncStatus, q.CreatedAt, q.UpdatedAt, q.DeletedAt,
		q.InstitutionID, q.Reference, q.Status, q.Link)
	if err != nil {
		return fmt.Errorf("failed to upsert remote requisition: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRequisitionByLocalID(ctx context.Context, localID int64) (*models.Requisition, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+requisitionColumns+` FROM requisitions WHERE local_id = ?`, localID)
	q, err := scanRequisition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requisition %d: %w", localID, err)
	}
	return q, nil
}

func (r *SQLiteRepository) GetRequisitionByRemoteID(ctx context.Context, remoteID int64) (*models.Requisition, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+requisitionColumns+` FROM requisitions WHERE remote_id = ?`, remoteID)
	q, err := scanRequisition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requisition by remote id %d: %w", remoteID, err)
	}
	return q, nil
}

func (r *SQLiteRepository) ListRequisitions(ctx context.Context) ([]*models.Requisition, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+requisitionColumns+` FROM requisitions WHERE deleted_at IS NULL ORDER BY local_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list requisitions: %w", err)
	}
	defer rows.Close()

	var result []*models.Requisition
	for rows.Next() {
		q, err := scanRequisition(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

// UpsertTransactions writes a fetched batch, deduplicating on
// (account, external id). Returns the number of newly inserted rows.
func (r *SQLiteRepository) UpsertTransactions(ctx context.Context, txs []*models.BankTransaction) (int, error) {
	inserted := 0
	// Booked transactions are immutable, so replays are simply ignored.
	query := `INSERT INTO bank_transactions (bank_account_local_id, external_id, amount_cents, currency_code, description, booked_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bank_account_local_id, external_id) DO NOTHING`
	for _, tx := range txs {
		res, err := r.db.ExecContext(ctx, query,
			tx.BankAccountLocalID, tx.ExternalID, tx.AmountCents, tx.CurrencyCode, tx.Description, tx.BookedAt, tx.FetchedAt)
		if err != nil {
			return inserted, fmt.Errorf("failed to upsert bank transaction %s: %w", tx.ExternalID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// AccountStatusByLocalID is the read-only status lookup exposed to the UI layer.
func (r *SQLiteRepository) AccountStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM bank_accounts WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for bank account %d: %w", localID, err)
	}
	return s, nil
}
