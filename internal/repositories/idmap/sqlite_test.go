package idmap

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE id_mappings (
  entity_type TEXT NOT NULL,
  local_id INTEGER NOT NULL,
  remote_id INTEGER NOT NULL,
  PRIMARY KEY (entity_type, local_id)
);
`)
	require.NoError(t, err)
	return db
}

func TestSaveAndResolve(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Resolve(ctx, common.EntityUser, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, r.Save(ctx, common.EntityUser, 1, 100))

	got, err := r.Resolve(ctx, common.EntityUser, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 100, got)

	// same local id under a different entity type is a separate key
	_, err = r.Resolve(ctx, common.EntityPayment, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSave_WriteOnce(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, common.EntityPayment, 7, 700))

	// identical pair: no-op
	require.NoError(t, r.Save(ctx, common.EntityPayment, 7, 700))

	// conflicting remote id: rejected, original survives
	err := r.Save(ctx, common.EntityPayment, 7, 999)
	assert.ErrorIs(t, err, common.ErrMappingExists)

	got, err := r.Resolve(ctx, common.EntityPayment, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 700, got)
}
