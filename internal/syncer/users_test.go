package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
)

func insertPendingUser(t *testing.T, r *repos, name string) int64 {
	t.Helper()
	id, err := r.users.Insert(context.Background(), &models.User{SyncMeta: pendingMeta(), Name: name})
	require.NoError(t, err)
	return id
}

func TestUsersSyncer_IdempotentPush(t *testing.T) {
	ctx := context.Background()
	r := setupRepos(t)
	api := newFakeUsersAPI()
	o := NewUsersSyncer(r.users, api, r.ids, r.metadata, testLogger())

	localID := insertPendingUser(t, r, "alice")

	res := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Push(ctx, models.NowMillis(), res))
	assert.Equal(t, 1, res.Pushed)
	assert.Equal(t, 1, api.calls["CreateUser"])

	got, err := r.users.GetByLocalID(ctx, localID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, got.SyncStatus)
	require.True(t, got.HasRemoteID())

	// A later local edit re-queues the record; the retried push must be an
	// update, not a second create.
	require.NoError(t, r.users.SetPushResult(ctx, localID, nil, models.StatusPendingSync))

	res2 := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Push(ctx, models.NowMillis(), res2))
	assert.Equal(t, 1, api.calls["CreateUser"])
	assert.Equal(t, 1, api.calls["UpdateUser"])
	assert.Len(t, api.records, 1)
}

func TestUsersSyncer_TombstonePropagation(t *testing.T) {
	ctx := context.Background()
	r := setupRepos(t)
	api := newFakeUsersAPI()
	o := NewUsersSyncer(r.users, api, r.ids, r.metadata, testLogger())

	// One tombstone that reached the authority and one that never did.
	pushedID := insertPendingUser(t, r, "bob")
	res := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Push(ctx, models.NowMillis(), res))

	require.NoError(t, r.users.SoftDelete(ctx, pushedID, models.NowMillis()))
	neverPushedID := insertPendingUser(t, r, "carol")
	require.NoError(t, r.users.SoftDelete(ctx, neverPushedID, models.NowMillis()))

	res2 := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Push(ctx, models.NowMillis(), res2))

	assert.Equal(t, 1, api.calls["DeleteUser"])
	assert.Empty(t, api.records)

	for _, id := range []int64{pushedID, neverPushedID} {
		got, err := r.users.GetByLocalID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusLocallyDeleted, got.SyncStatus, "user %d", id)
	}

	// Settled tombstones drop out of the next enumeration.
	unsynced, err := r.users.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestUsersSyncer_ConflictNotRetried(t *testing.T) {
	ctx := context.Background()
	r := setupRepos(t)
	api := newFakeUsersAPI()
	api.errOn["CreateUser"] = &remote.APIError{StatusCode: 403, Message: "claimed"}
	o := NewUsersSyncer(r.users, api, r.ids, r.metadata, testLogger())

	localID := insertPendingUser(t, r, "dave")

	res := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Push(ctx, models.NowMillis(), res))
	assert.Equal(t, 1, res.Conflicts)

	got, err := r.users.GetByLocalID(ctx, localID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, got.SyncStatus)

	// The next run must not enumerate the conflicted record.
	res2 := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Push(ctx, models.NowMillis(), res2))
	assert.Equal(t, 1, api.calls["CreateUser"])
}

func TestUsersSyncer_PendingEditPrecedence(t *testing.T) {
	ctx := context.Background()
	r := setupRepos(t)
	api := newFakeUsersAPI()
	o := NewUsersSyncer(r.users, api, r.ids, r.metadata, testLogger())

	local := &models.User{
		SyncMeta: models.SyncMeta{RemoteID: models.Int64Ptr(42), SyncStatus: models.StatusPendingSync, CreatedAt: 1, UpdatedAt: 100},
		Name:     "edited offline",
	}
	require.NoError(t, r.users.UpsertRemote(ctx, local))

	api.records[42] = remote.UserWire{ID: 42, Name: "newer on server", UpdatedAt: 200}

	res := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Pull(ctx, models.NowMillis(), res))
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 1, res.Skipped)

	got, err := r.users.GetByRemoteID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "edited offline", got.Name)
	assert.Equal(t, models.StatusPendingSync, got.SyncStatus)
}

func TestUsersSyncer_StalePullRejection(t *testing.T) {
	ctx := context.Background()
	r := setupRepos(t)
	api := newFakeUsersAPI()
	o := NewUsersSyncer(r.users, api, r.ids, r.metadata, testLogger())

	local := &models.User{
		SyncMeta: models.SyncMeta{RemoteID: models.Int64Ptr(42), SyncStatus: models.StatusSynced, CreatedAt: 1, UpdatedAt: 200},
		Name:     "current",
	}
	require.NoError(t, r.users.UpsertRemote(ctx, local))

	api.records[42] = remote.UserWire{ID: 42, Name: "stale", UpdatedAt: 100}

	res := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Pull(ctx, models.NowMillis(), res))
	assert.Equal(t, 0, res.Applied)

	got, err := r.users.GetByRemoteID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "current", got.Name)
}

func TestUsersSyncer_PullAppliesNewerRemote(t *testing.T) {
	ctx := context.Background()
	r := setupRepos(t)
	api := newFakeUsersAPI()
	o := NewUsersSyncer(r.users, api, r.ids, r.metadata, testLogger())

	local := &models.User{
		SyncMeta: models.SyncMeta{RemoteID: models.Int64Ptr(42), SyncStatus: models.StatusSynced, CreatedAt: 1, UpdatedAt: 100},
		Name:     "old",
	}
	require.NoError(t, r.users.UpsertRemote(ctx, local))

	api.records[42] = remote.UserWire{ID: 42, Name: "renamed", UpdatedAt: 200}

	res := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Pull(ctx, models.NowMillis(), res))
	assert.Equal(t, 1, res.Applied)

	got, err := r.users.GetByRemoteID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, models.StatusSynced, got.SyncStatus)
}

func TestUsersSyncer_PullRemoteTombstone(t *testing.T) {
	ctx := context.Background()
	r := setupRepos(t)
	api := newFakeUsersAPI()
	o := NewUsersSyncer(r.users, api, r.ids, r.metadata, testLogger())

	local := &models.User{
		SyncMeta: models.SyncMeta{RemoteID: models.Int64Ptr(42), SyncStatus: models.StatusSynced, CreatedAt: 1, UpdatedAt: 100},
		Name:     "leaving",
	}
	require.NoError(t, r.users.UpsertRemote(ctx, local))

	api.records[42] = remote.UserWire{ID: 42, Name: "leaving", UpdatedAt: 200, DeletedAt: models.Int64Ptr(200)}

	res := &EntityResult{Entity: o.Entity()}
	require.NoError(t, o.Pull(ctx, models.NowMillis(), res))

	got, err := r.users.GetByRemoteID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLocallyDeleted, got.SyncStatus)
	assert.NotNil(t, got.DeletedAt)
}
