package rates

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

const rateColumns = `local_id, remote_id, sync_status, created_at, updated_at, deleted_at,
	base_currency, quote_currency, rate_micros, rate_date, custom`

func scanRate(row interface{ Scan(...any) error }) (*models.ConversionRate, error) {
	var c models.ConversionRate
	var remoteID, deletedAt sql.NullInt64
	err := row.Scan(&c.LocalID, &remoteID, &c.SyncStatus, &c.CreatedAt, &c.UpdatedAt, &deletedAt,
		&c.BaseCurrency, &c.QuoteCurrency, &c.RateMicros, &c.RateDate, &c.Custom)
	if err != nil {
		return nil, err
	}
	if remoteID.Valid {
		c.RemoteID = &remoteID.Int64
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Int64
	}
	return &c, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, c *models.ConversionRate) (int64, error) {
	query := `INSERT INTO conversion_rates (remote_id, sync_status, created_at, updated_at, deleted_at,
		base_currency, quote_currency, rate_micros, rate_date, custom)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		c.RemoteID, c.SyncStatus, c.CreatedAt, c.UpdatedAt, c.DeletedAt,
		c.BaseCurrency, c.QuoteCurrency, c.RateMicros, c.RateDate, c.Custom)
	if err != nil {
		return 0, fmt.Errorf("failed to insert conversion rate: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, remoteID int64) (*models.ConversionRate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+rateColumns+` FROM conversion_rates WHERE remote_id = ?`, remoteID)
	c, err := scanRate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion rate by remote id %d: %w", remoteID, err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]*models.ConversionRate, error) {
	query := `SELECT ` + rateColumns + ` FROM conversion_rates
		WHERE sync_status IN (?, ?) OR (deleted_at IS NOT NULL AND sync_status != ?)
		ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query,
		models.StatusPendingSync, models.StatusSyncFailed, models.StatusLocallyDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced conversion rates: %w", err)
	}
	defer rows.Close()

	var result []*models.ConversionRate
	for rows.Next() {
		c, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SetPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error {
	query := `UPDATE conversion_rates SET remote_id = COALESCE(?, remote_id), sync_status = ? WHERE local_id = ?`
	res, err := r.db.ExecContext(ctx, query, remoteID, status, localID)
	if err != nil {
		return fmt.Errorf("failed to set push result for conversion rate %d: %w", localID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertRemote(ctx context.Context, c *models.ConversionRate) error {
	query := `INSERT INTO conversion_rates (remote_id, sync_status, created_at, updated_at, deleted_at,
		base_currency, quote_currency, rate_micros, rate_date, custom)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			sync_status = excluded.sync_status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			rate_micros = excluded.rate_micros,
			rate_date = excluded.rate_date`
	_, err := r.db.ExecContext(ctx, query,
		c.RemoteID, c.SyncStatus, c.CreatedAt, c.UpdatedAt, c.DeletedAt,
		c.BaseCurrency, c.QuoteCurrency, c.RateMicros, c.RateDate, c.Custom)
	if err != nil {
		return fmt.Errorf("failed to upsert remote conversion rate: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, localID int64, now int64) error {
	query := `UPDATE conversion_rates SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE local_id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, now, now, models.StatusPendingSync, localID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete conversion rate %d: %w", localID, err)
	}
	return nil
}

// StatusByLocalID is the read-only status lookup exposed to the UI layer.
func (r *SQLiteRepository) StatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error) {
	var s models.SyncStatus
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM conversion_rates WHERE local_id = ?`, localID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync status for rate %d: %w", localID, err)
	}
	return s, nil
}
