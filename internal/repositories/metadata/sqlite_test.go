package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB)`)
	require.NoError(t, err)
	return db
}

func TestSetGetDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	got, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, r.Set(ctx, "cursor.payment", []byte("1700000000000")))
	got, err = r.Get(ctx, "cursor.payment")
	require.NoError(t, err)
	assert.Equal(t, []byte("1700000000000"), got)

	// overwrite
	require.NoError(t, r.Set(ctx, "cursor.payment", []byte("1700000001000")))
	got, err = r.Get(ctx, "cursor.payment")
	require.NoError(t, err)
	assert.Equal(t, []byte("1700000001000"), got)

	require.NoError(t, r.Delete(ctx, "cursor.payment"))
	got, err = r.Get(ctx, "cursor.payment")
	require.NoError(t, err)
	assert.Nil(t, got)
}
