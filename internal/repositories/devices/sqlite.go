package devices

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

const tokenColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at, token, platform`

func scanToken(row interface{ Scan(...any) error }) (*models.DeviceToken, error) {
	var d models.DeviceToken
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&d.LocalID, &remoteID, &d.SyncStatus, &d.CreatedAt, &d.UpdatedAt, &deletedAt,
		&d.Token, &d.Platform)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		d.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		d.DeletedAt = &deletedAt.Int64
	}
	return &d, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, d *models.DeviceToken) (int64, error) {
	query := `INSERT INTO device_tokens (remote_id, sync_status, created_at, updated_at, deleted_at, token, platform)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		d.RemoteID, d.SyncStatus, d.CreatedAt, d.UpdatedAt, d.DeletedAt, d.Token, d.Platform)
	if err != nil {
		return 0, fmt.Errorf("failed to insert device token: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, remoteID int64) (*models.DeviceToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM device_tokens WHERE remote_id = ?`, remoteID)
	d, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device token by remote id %d: %w", remoteID, err)
	}
	return d, nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]*models.DeviceToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM device_tokens
		WHERE sync_status IN (?, ?) OR (deleted_at IS NOT NULL AND sync_status != ?)
		ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query,
		models.StatusPendingSync, models.StatusSyncFailed, models.StatusLocallyDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced device tokens: %w", err)
	}
	defer rows.Close()

	var result []*models.DeviceToken
	for rows.Next() {
		d, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE device_tokens SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for device token %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemote(ctx context.Context, d *models.DeviceToken) error {
	query := `INSERT INTO device_tokens (remote_id, sync_status, created_at, updated_at, deleted_at, token, platform)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			token = excluded.token,
			platform = excluded.platform`
	_, err := r.db.ExecContext(ctx, query,
		d.RemoteID, d.SyncStatus, d.CreatedAt, d.UpdatedAt, d.DeletedAt, d.Token, d.Platform)
	if err != nil {
		return fmt.Errorf("failed to upsert remote device token: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, localID int64, now int64) error {
	query := `UPDATE device_tokens SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE local_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, now, models.StatusPendingSync, localID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete device token %d: %w", localID, err)
	}
	return nil
}

// StatusByLocalID is the read-only status lookup exposed to the UI layer.
func (r *SQLiteRepository) StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM device_tokens WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for device token %d: %w", localID, err)
	}
	return s, nil
}
