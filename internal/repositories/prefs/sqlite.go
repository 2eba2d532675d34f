package prefs

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

const prefColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at,
	user_local_id, locale, default_currency, notify_on_payment, notify_on_settlement`

func scanPref(row interface{ Scan(...any) error }) (*models.UserPreference, error) {
	var p models.UserPreference
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&p.LocalID, &remoteID, &p.SyncStatus, &p.CreatedAt, &p.UpdatedAt, &deletedAt,
		&p.UserLocalID, &p.Locale, &p.DefaultCurrency, &p.NotifyOnPayment, &p.NotifyOnSettlement)
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

func (r *SQLiteRepository) Insert(ctx context.Context, p *models.UserPreference) (int64, error) {
	query := `INSERT INTO user_preferences (remote_id, sync_status, created_at, updated_at, deleted_at,
		user_local_id, locale, default_currency, notify_on_payment, notify_on_settlement)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		p.RemoteID, p.SyncStatus, p.CreatedAt, p.UpdatedAt, p.DeletedAt,
		p.UserLocalID, p.Locale, p.DefaultCurrency, p.NotifyOnPayment, p.NotifyOnSettlement)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user preference: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetByUser(ctx context.Context, userLocalID int64) (*models.UserPreference, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+prefColumns+` FROM user_preferences WHERE user_local_id = ?`, userLocalID)
	p, err := scanPref(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference for user %d: %w", userLocalID, err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, remoteID int64) (*models.UserPreference, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+prefColumns+` FROM user_preferences WHERE remote_id = ?`, remoteID)
	p, err := scanPref(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference by remote id %d: %w", remoteID, err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]*models.UserPreference, error) {
	query := `SELECT ` + prefColumns + ` FROM user_preferences
		WHERE sync_status IN (?, ?)
		ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query, models.StatusPendingSync, models.StatusSyncFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced user preferences: %w", err)
	}
	defer rows.Close()

	var result []*models.UserPreference
	for rows.Next() {
		p, err := scanPref(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE user_preferences SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for preference %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemote(ctx context.Context, p *models.UserPreference) error {
	query := `INSERT INTO user_preferences (remote_id, sync_status, created_at, updated_at, deleted_at,
		user_local_id, locale, default_currency, notify_on_payment, notify_on_settlement)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			locale = excluded.locale,
			default_currency = excluded.default_currency,
			notify_on_payment = excluded.notify_on_payment,
			notify_on_settlement = excluded.notify_on_settlement`
	_, err := r.db.ExecContext(ctx, query,
		p.RemoteID, p.SyncStatus, p.CreatedAt, p.UpdatedAt, p.DeletedAt,
		p.UserLocalID, p.Locale, p.DefaultCurrency, p.NotifyOnPayment, p.NotifyOnSettlement)
	if err != nil {
		return fmt.Errorf("failed to upsert remote user preference: %w", err)
	}
	return nil
}

// StatusByLocalID is the read-only status lookup exposed to the UI layer.
func (r *SQLiteRepository) StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM user_preferences WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for preference %d: %w", localID, err)
	}
	return s, nil
}
