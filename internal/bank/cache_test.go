package bank

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/repositories/banking"

	_ "modernc.org/sqlite"
)

func setupRepo(t *testing.T) *banking.SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE requisitions (
  local_id INTEGER PRIMARY KEY AUTOINCREMENT,
  remote_id INTEGER UNIQUE,
  sync_status TEXT NOT NULL DEFAULT 'SYNCED',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER,
  institution_id TEXT NOT NULL DEFAULT '',
  reference TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL DEFAULT ''
);
CREATE TABLE bank_accounts (
  local_id INTEGER PRIMARY KEY AUTOINCREMENT,
  remote_id INTEGER UNIQUE,
  sync_status TEXT NOT NULL DEFAULT 'PENDING_SYNC',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER,
  requisition_local_id INTEGER,
  institution_id TEXT NOT NULL DEFAULT '',
  iban TEXT NOT NULL DEFAULT '',
  display_name TEXT NOT NULL DEFAULT '',
  reauth_required INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE bank_transactions (
  local_id INTEGER PRIMARY KEY AUTOINCREMENT,
  bank_account_local_id INTEGER NOT NULL,
  external_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  currency_code TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  booked_at INTEGER NOT NULL,
  fetched_at INTEGER NOT NULL,
  UNIQUE (bank_account_local_id, external_id)
);
`)
	require.NoError(t, err)
	return banking.NewSQLiteRepository(db)
}

func seedLinkedAccount(t *testing.T, repo *banking.SQLiteRepository, reference string) int64 {
	t.Helper()
	ctx := context.Background()
	now := models.NowMillis()

	require.NoError(t, repo.UpsertRemoteRequisition(ctx, &models.Requisition{
		SyncMeta:  models.SyncMeta{RemoteID: models.Int64Ptr(100), SyncStatus: models.StatusSynced, CreatedAt: now, UpdatedAt: now},
		Reference: reference,
		Status:    "LINKED",
	}))
	req, err := repo.GetRequisitionByRemoteID(ctx, 100)
	require.NoError(t, err)

	id, err := repo.InsertAccount(ctx, &models.BankAccount{
		SyncMeta:           models.SyncMeta{SyncStatus: models.StatusSynced, CreatedAt: now, UpdatedAt: now},
		RequisitionLocalID: &req.LocalID,
		DisplayName:        "Checking",
	})
	require.NoError(t, err)
	return id
}

type fakeAggregator struct {
	calls int
	txs   []TransactionWire
	err   error
}

func (f *fakeAggregator) ListTransactions(ctx context.Context, ref string) ([]TransactionWire, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.txs, nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCache_RefreshStoresTransactions(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	seedLinkedAccount(t, repo, "req-1")

	agg := &fakeAggregator{txs: []TransactionWire{
		{ExternalID: "tx-1", AmountCents: -450, CurrencyCode: "EUR", BookedAt: 1},
		{ExternalID: "tx-2", AmountCents: -1200, CurrencyCode: "EUR", BookedAt: 2},
	}}

	cache := NewCache(agg, repo, DefaultCooldown, testLogger())

	res, err := cache.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 0, res.Failed)
}

func TestCache_CooldownSuppressesRefetch(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	seedLinkedAccount(t, repo, "req-1")

	agg := &fakeAggregator{}
	cache := NewCache(agg, repo, DefaultCooldown, testLogger())

	_, err := cache.Refresh(ctx)
	require.NoError(t, err)

	res, err := cache.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.calls)
	assert.Equal(t, 0, res.Fetched)
	assert.Equal(t, 1, res.Skipped)
}

func TestCache_RefetchAfterCooldown(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	seedLinkedAccount(t, repo, "req-1")

	agg := &fakeAggregator{}
	cache := NewCache(agg, repo, DefaultCooldown, testLogger())

	current := time.Now()
	cache.now = func() time.Time { return current }

	_, err := cache.Refresh(ctx)
	require.NoError(t, err)

	current = current.Add(DefaultCooldown + time.Second)

	res, err := cache.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.calls)
	assert.Equal(t, 1, res.Fetched)
}

func TestCache_ConsentRejectedFlagsReauth(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	accID := seedLinkedAccount(t, repo, "req-1")

	agg := &fakeAggregator{err: &FetchError{StatusCode: 403, Message: "consent expired"}}
	cache := NewCache(agg, repo, DefaultCooldown, testLogger())

	res, err := cache.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	acc, err := repo.GetAccountByLocalID(ctx, accID)
	require.NoError(t, err)
	assert.True(t, acc.ReauthRequired)
	assert.Equal(t, models.StatusPendingSync, acc.SyncStatus)
}

func TestCache_DuplicateTransactionsIgnored(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	seedLinkedAccount(t, repo, "req-1")

	agg := &fakeAggregator{txs: []TransactionWire{
		{ExternalID: "tx-1", AmountCents: -450, CurrencyCode: "EUR", BookedAt: 1},
	}}
	cache := NewCache(agg, repo, 0, testLogger())

	current := time.Now()
	cache.now = func() time.Time { return current }
	cache.cooldown = time.Millisecond
	current = current.Add(time.Second)

	_, err := cache.Refresh(ctx)
	require.NoError(t, err)

	current = current.Add(time.Second)
	res, err := cache.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Fetched)
}
