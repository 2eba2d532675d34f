package groups

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

const groupColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at, name, currency_code, invite_code`

func scanGroup(row interface{ Scan(...any) error }) (*models.Group, error) {
	var g models.Group
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&g.LocalID, &remoteID, &g.SyncStatus, &g.CreatedAt, &g.UpdatedAt, &deletedAt,
		&g.Name, &g.CurrencyCode, &g.InviteCode)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		g.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		g.DeletedAt = &deletedAt.Int64
	}
	return &g, nil
}

func (r *SQLiteRepository) InsertGroup(ctx context.Context, g *models.Group) (int64, error) {
	query := `INSERT INTO groups (remote_id, sync_status, created_at, updated_at, deleted_at, name, currency_code, invite_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		g.RemoteID, g.SyncStatus, g.CreatedAt, g.UpdatedAt, g.DeletedAt, g.Name, g.CurrencyCode, g.InviteCode)
	if err != nil {
		return 0, fmt.Errorf("failed to insert group: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetGroupByLocalID(ctx context.Context, localID int64) (*models.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE local_id = ?`, localID)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group %d: %w", localID, err)
	}
	return g, nil
}

func (r *SQLiteRepository) GetGroupByRemoteID(ctx context.Context, remoteID int64) (*models.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE remote_id = ?`, remoteID)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by remote id %d: %w", remoteID, err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListUnsyncedGroups(ctx context.Context) ([]*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups
		WHERE sync_status IN (?, ?) OR (deleted_at IS NOT NULL AND sync_status != ?)
		ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query,
		models.StatusPendingSync, models.StatusSyncFailed, models.StatusLocallyDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced groups: %w", err)
	}
	defer rows.Close()

	var result []*models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SetGroupPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE groups SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for group %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemoteGroup(ctx context.Context, g *models.Group) error {
	query := `INSERT INTO groups (remote_id, sync_status, created_at, updated_at, deleted_at, name, currency_code, invite_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			name = excluded.name,
			currency_code = excluded.currency_code,
			invite_code = excluded.invite_code`
	_, err := r.db.ExecContext(ctx, query,
		g.RemoteID, g.SyncStatus, g.CreatedAt, g.UpdatedAt, g.DeletedAt, g.Name, g.CurrencyCode, g.InviteCode)
	if err != nil {
		return fmt.Errorf("failed to upsert remote group: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDeleteGroup(ctx context.Context, localID int64, now int64) error {
	query := `UPDATE groups SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE local_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, now, models.StatusPendingSync, localID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete group %d: %w", localID, err)
	}
	return nil
}

const membershipColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at, group_local_id, user_local_id, role`

func scanMembership(row interface{ Scan(...any) error }) (*models.Membership, error) {
	var m models.Membership
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&m.LocalID, &remoteID, &m.SyncStatus, &m.CreatedAt, &m.UpdatedAt, &deletedAt,
		&m.GroupLocalID, &m.UserLocalID, &m.Role)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		m.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		m.DeletedAt = &deletedAt.Int64
	}
	return &m, nil
}

func (r *SQLiteRepository) InsertMembership(ctx context.Context, m *models.Membership) (int64, error) {
	query := `INSERT INTO memberships (remote_id, sync_status, created_at, updated_at, deleted_at, group_local_id, user_local_id, role)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		m.RemoteID, m.SyncStatus, m.CreatedAt, m.UpdatedAt, m.DeletedAt, m.GroupLocalID, m.UserLocalID, m.Role)
	if err != nil {
		return 0, fmt.Errorf("failed to insert membership: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetMembershipByRemoteID(ctx context.Context, remoteID int64) (*models.Membership, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE remote_id = ?`, remoteID)
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership by remote id %d: %w", remoteID, err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListUnsyncedMemberships(ctx context.Context) ([]*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships
		WHERE sync_status IN (?, ?) OR (deleted_at IS NOT NULL AND sync_status != ?)
		ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query,
		models.StatusPendingSync, models.StatusSyncFailed, models.StatusLocallyDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced memberships: %w", err)
	}
	defer rows.Close()

	var result []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SetMembershipPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE memberships SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for membership %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemoteMembership(ctx context.Context, m *models.Membership) error {
	query := `INSERT INTO memberships (remote_id, sync_status, created_at, updated_at, deleted_at, group_local_id, user_local_id, role)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			role = excluded.role`
	_, err := r.db.ExecContext(ctx, query,
		m.RemoteID, m.SyncStatus, m.CreatedAt, m.UpdatedAt, m.DeletedAt, m.GroupLocalID, m.UserLocalID, m.Role)
	if err != nil {
		return fmt.Errorf("failed to upsert remote membership: %w", err)
	}
	return nil
}

// GroupStatusByLocalID is the read-only status lookup exposed to the UI layer.
func (r *SQLiteRepository) GroupStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM groups WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for group %d: %w", localID, err)
	}
	return s, nil
}

func (r *SQLiteRepository) MembershipStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM memberships WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for membership %d: %w", localID, err)
	}
	return s, nil
}
