package archive

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

const archiveColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at, entity_kind, entity_local_id`

func scanArchive(row interface{ Scan(...any) error }) (*models.ArchiveRecord, error) {
	var a models.ArchiveRecord
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&a.LocalID, &remoteID, &a.SyncStatus, &a.CreatedAt, &a.UpdatedAt, &deletedAt,
		&a.EntityKind, &a.EntityLocalID)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		a.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.Int64
	}
	return &a, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, a *models.ArchiveRecord) (int64, error) {
	query := `INSERT INTO archive_records (remote_id, sync_status, created_at, updated_at, deleted_at, entity_kind, entity_local_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		a.RemoteID, a.SyncStatus, a.CreatedAt, a.UpdatedAt, a.DeletedAt, a.EntityKind, a.EntityLocalID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert archive record: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, remoteID int64) (*models.ArchiveRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+archiveColumns+` FROM archive_records WHERE remote_id = ?`, remoteID)
	a, err := scanArchive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive record by remote id %d: %w", remoteID, err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]*models.ArchiveRecord, error) {
	query := `SELECT ` + archiveColumns + ` FROM archive_records
		WHERE sync_status IN (?, ?) OR (deleted_at IS NOT NULL AND sync_status != ?)
		ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query,
		models.StatusPendingSync, models.StatusSyncFailed, models.StatusLocallyDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced archive records: %w", err)
	}
	defer rows.Close()

	var result []*models.ArchiveRecord
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE archive_records SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for archive record %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemote(ctx context.Context, a *models.ArchiveRecord) error {
	query := `INSERT INTO archive_records (remote_id, sync_status, created_at, updated_at, deleted_at, entity_kind, entity_local_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			entity_kind = excluded.entity_kind`
	_, err := r.db.ExecContext(ctx, query,
		a.RemoteID, a.SyncStatus, a.CreatedAt, a.UpdatedAt, a.DeletedAt, a.EntityKind, a.EntityLocalID)
	if err != nil {
		return fmt.Errorf("failed to upsert remote archive record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, localID int64, now int64) error {
	query := `UPDATE archive_records SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE local_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, now, models.StatusPendingSync, localID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete archive record %d: %w", localID, err)
	}
	return nil
}

// StatusByLocalID is the read-only status lookup exposed to the UI layer.
func (r *SQLiteRepository) StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM archive_records WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for archive record %d: %w", localID, err)
	}
	return s, nil
}
