package payments

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

const paymentColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at,
	group_local_id, payer_user_local_id, amount_cents, currency_code, title, paid_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&p.LocalID, &remoteID, &p.SyncStatus, &p.CreatedAt, &p.UpdatedAt, &deletedAt,
		&p.GroupLocalID, &p.PayerUserLocalID, &p.AmountCents, &p.CurrencyCode, &p.Title, &p.PaidAt)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		p.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Int64
	}
	return &p, nil
}

func (r *SQLiteRepository) InsertPayment(ctx context.Context, p *models.Payment) (int64, error) {
	query := `INSERT INTO payments (remote_id, sync_status, created_at, updated_at, deleted_at,
		group_local_id, payer_user_local_id, amount_cents, currency_code, title, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		p.RemoteID, p.SyncStatus, p.CreatedAt, p.UpdatedAt, p.DeletedAt,
		p.GroupLocalID, p.PayerUserLocalID, p.AmountCents, p.CurrencyCode, p.Title, p.PaidAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert payment: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetPaymentByLocalID(ctx context.Context, localID int64) (*models.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE local_id = ?`, localID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment %d: %w", localID, err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetPaymentByRemoteID(ctx context.Context, remoteID int64) (*models.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE remote_id = ?`, remoteID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by remote id %d: %w", remoteID, err)
	}
	return p, nil
}

// ListUnsyncedPayments returns payments that are dirty themselves or own a
// dirty split. The second arm is what lets the aggregate heal: a SYNCED
// payment whose split failed (or was deleted after the payment settled) is
// re-enumerated until every split reaches a terminal status. A CONFLICT
// payment never re-enters through its splits; resolution gates the whole
// aggregate.
func (r *SQLiteRepository) ListUnsyncedPayments(ctx context.Context) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE sync_status IN (?, ?)
			OR (deleted_at IS NOT NULL AND sync_status != ?)
			OR (sync_status != ? AND local_id IN (SELECT payment_local_id FROM splits
				WHERE sync_status IN (?, ?)
					OR (deleted_at IS NOT NULL AND sync_status != ?)))
		ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query,
		models.StatusPendingSync, models.StatusSyncFailed, models.StatusLocallyDeleted,
		models.StatusConflict,
		models.StatusPendingSync, models.StatusSyncFailed, models.StatusLocallyDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced payments: %w", err)
	}
	defer rows.Close()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SetPaymentPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE payments SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for payment %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemotePayment(ctx context.Context, p *models.Payment) error {
	query := `INSERT INTO payments (remote_id, sync_status, created_at, updated_at, deleted_at,
		group_local_id, payer_user_local_id, amount_cents, currency_code, title, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			amount_cents = excluded.amount_cents,
			currency_code = excluded.currency_code,
			title = excluded.title,
			paid_at = excluded.paid_at`
	_, err := r.db.ExecContext(ctx, query,
		p.RemoteID, p.SyncStatus, p.CreatedAt, p.UpdatedAt, p.DeletedAt,
		p.GroupLocalID, p.PayerUserLocalID, p.AmountCents, p.CurrencyCode, p.Title, p.PaidAt)
	if err != nil {
		return fmt.Errorf("failed to upsert remote payment: %w", err)
	}
	return nil
}

// withTx runs fn against a repository bound to one transaction. A
// repository already constructed over a transaction runs fn directly.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(ctx context.Context, r *SQLiteRepository) error) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return fn(ctx, r)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewSQLiteRepository(tx))
	})
}

func (r *SQLiteRepository) SoftDeletePayment(ctx context.Context, localID int64, now int64) error {
	// The payment and its splits tombstone together, in one transaction,
	// so the push phase never sees a deleted payment with live splits.
	return r.withTx(ctx, func(ctx context.Context, r *SQLiteRepository) error {
		query := `UPDATE payments SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE local_id = ? AND deleted_at IS NULL`
		if _, err := r.db.ExecContext(ctx, query, now, now, models.StatusPendingSync, localID); err != nil {
			return fmt.Errorf("failed to soft-delete payment %d: %w", localID, err)
		}
		query = `UPDATE splits SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE payment_local_id = ? AND deleted_at IS NULL`
		if _, err := r.db.ExecContext(ctx, query, now, now, models.StatusPendingSync, localID); err != nil {
			return fmt.Errorf("failed to soft-delete splits of payment %d: %w", localID, err)
		}
		return nil
	})
}

// MarkSplitsLocallyDeleted settles every split of a payment whose remote
// deletion already cascaded. One statement, so the settle is atomic.
func (r *SQLiteRepository) MarkSplitsLocallyDeleted(ctx context.Context, paymentLocalID int64) error {
	query := `UPDATE splits SET sync_status = ? WHERE payment_local_id = ? AND sync_status != ?`
	if _, err := r.db.ExecContext(ctx, query, models.StatusLocallyDeleted, paymentLocalID, models.StatusLocallyDeleted); err != nil {
		return fmt.Errorf("failed to settle splits of deleted payment %d: %w", paymentLocalID, err)
	}
	return nil
}

const splitColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at, payment_local_id, user_local_id, amount_cents`

func scanSplit(row interface{ Scan(...any) error }) (*models.Split, error) {
	var s models.Split
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&s.LocalID, &remoteID, &s.SyncStatus, &s.CreatedAt, &s.UpdatedAt, &deletedAt,
		&s.PaymentLocalID, &s.UserLocalID, &s.AmountCents)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		s.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		s.DeletedAt = &deletedAt.Int64
	}
	return &s, nil
}

func (r *SQLiteRepository) InsertSplit(ctx context.Context, s *models.Split) (int64, error) {
	query := `INSERT INTO splits (remote_id, sync_status, created_at, updated_at, deleted_at, payment_local_id, user_local_id, amount_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		s.RemoteID, s.SyncStatus, s.CreatedAt, s.UpdatedAt, s.DeletedAt, s.PaymentLocalID, s.UserLocalID, s.AmountCents)
	if err != nil {
		return 0, fmt.Errorf("failed to insert split: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListSplitsByPayment(ctx context.Context, paymentLocalID int64) ([]*models.Split, error) {
	query := `SELECT ` + splitColumns + ` FROM splits WHERE payment_local_id = ? ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query, paymentLocalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits of payment %d: %w", paymentLocalID, err)
	}
	defer rows.Close()

	var result []*models.Split
	for rows.Next() {
		s, err := scanSplit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) GetSplitByRemoteID(ctx context.Context, remoteID int64) (*models.Split, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+splitColumns+` FROM splits WHERE remote_id = ?`, remoteID)
	s, err := scanSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split by remote id %d: %w", remoteID, err)
	}
	return s, nil
}

func (r *SQLiteRepository) SetSplitPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE splits SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for split %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemoteSplit(ctx context.Context, s *models.Split) error {
	query := `INSERT INTO splits (remote_id, sync_status, created_at, updated_at, deleted_at, payment_local_id, user_local_id, amount_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			amount_cents = excluded.amount_cents`
	_, err := r.db.ExecContext(ctx, query,
		s.RemoteID, s.SyncStatus, s.CreatedAt, s.UpdatedAt, s.DeletedAt, s.PaymentLocalID, s.UserLocalID, s.AmountCents)
	if err != nil {
		return fmt.Errorf("failed to upsert remote split: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDeleteSplit(ctx context.Context, localID int64, now int64) error {
	query := `UPDATE splits SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE local_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, now, models.StatusPendingSync, localID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete split %d: %w", localID, err)
	}
	return nil
}

// PaymentStatusByLocalID is the read-only status lookup exposed to the UI layer.
func (r *SQLiteRepository) PaymentStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM payments WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for payment %d: %w", localID, err)
	}
	return s, nil
}

func (r *SQLiteRepository) SplitStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM splits WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for split %d: %w", localID, err)
	}
	return s, nil
}
