package idmap

import (
	"database/sql"
	"errors"
	"fmt"

	"context"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, entity common.EntityType, localID, remoteID int64) error {
	existing, err := r.Resolve(ctx, entity, localID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	if err == nil {
		if existing == remoteID {
			return nil
		}
		return fmt.Errorf("idmap[%s/%d]: have %d, got %d: %w", entity, localID, existing, remoteID, common.ErrMappingExists)
	}

	query := `INSERT OR IGNORE INTO id_mappings (entity_type, local_id, remote_id) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, string(entity), localID, remoteID); err != nil {
		return fmt.Errorf("failed to save mapping %s/%d: %w", entity, localID, err)
	}
	return nil
}

func (r *SQLiteRepository) Resolve(ctx context.Context, entity common.EntityType, localID int64) (int64, error) {
	var remoteID int64
	query := `SELECT remote_id FROM id_mappings WHERE entity_type = ? AND local_id = ?`
	err := r.db.QueryRowContext(ctx, query, string(entity), localID).Scan(&remoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve mapping %s/%d: %w", entity, localID, err)
	}
	return remoteID, nil
}
