package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/dbx"
	"github.com/dmitrijs2005/splitsync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const userColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at, name, email, avatar_color`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&u.LocalID, &remoteID, &u.SyncStatus, &u.CreatedAt, &u.UpdatedAt, &deletedAt,
		&u.Name, &u.Email, &u.AvatarColor)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		u.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Int64
	}
	return &u, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, u *models.User) (int64, error) {
	query := `INSERT INTO users (remote_id, sync_status, created_at, updated_at, deleted_at, name, email, avatar_color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		u.RemoteID, u.SyncStatus, u.CreatedAt, u.UpdatedAt, u.DeletedAt, u.Name, u.Email, u.AvatarColor)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetByLocalID(ctx context.Context, localID int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE local_id = ?`, localID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", localID, err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, remoteID int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE remote_id = ?`, remoteID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by remote id %d: %w", remoteID, err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE sync_status IN (?, ?) OR (deleted_at IS NOT NULL AND sync_status != ?)
		ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query,
		models.StatusPendingSync, models.StatusSyncFailed, models.StatusLocallyDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced users: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE users SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for user %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemote(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (remote_id, sync_status, created_at, updated_at, deleted_at, name, email, avatar_color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			name = excluded.name,
			email = excluded.email,
			avatar_color = excluded.avatar_color`
	_, err := r.db.ExecContext(ctx, query,
		u.RemoteID, u.SyncStatus, u.CreatedAt, u.UpdatedAt, u.DeletedAt, u.Name, u.Email, u.AvatarColor)
	if err != nil {
		return fmt.Errorf("failed to upsert remote user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, localID int64, now int64) error {
	query := `UPDATE users SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE local_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, now, models.StatusPendingSync, localID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete user %d: %w", localID, err)
	}
	return nil
}

// StatusByLocalID is the read-only status lookup exposed to the UI layer.
func (r *SQLiteRepository) StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM users WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for user %d: %w", localID, err)
	}
	return s, nil
}
