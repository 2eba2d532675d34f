package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/groups"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/splitsync/internal/repositories/users"
)

type groupsDelegate struct {
	repo groups.Repository
	api  remote.GroupsAPI
}

func NewGroupsSyncer(repo groups.Repository, api remote.GroupsAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.Group, remote.GroupWire] {
	return NewOrchestrator(&groupsDelegate{repo: repo, api: api}, ids, md, logger, DefaultBatchSize)
}

func (d *groupsDelegate) Entity() common.EntityType { return common.EntityGroup }

func (d *groupsDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.Group, error) {
	return d.repo.ListUnsyncedGroups(ctx)
}

func (d *groupsDelegate) PushOne(ctx context.Context, g *models.Group) (*int64, error) {
	if g.IsTombstone() {
		if !g.HasRemoteID() {
			return nil, nil
		}
		if err := d.api.DeleteGroup(ctx, g.RemoteIDValue()); err != nil {
			return nil, err
		}
		return g.RemoteID, nil
	}

	w := remote.GroupWire{
		Name:         g.Name,
		CurrencyCode: g.CurrencyCode,
		InviteCode:   g.InviteCode,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}

	if g.HasRemoteID() {
		w.ID = g.RemoteIDValue()
		out, err := d.api.UpdateGroup(ctx, w)
		if err != nil {
			return nil, err
		}
		return &out.ID, nil
	}

	out, err := d.api.CreateGroup(ctx, w)
	if err != nil {
		return nil, err
	}
	return &out.ID, nil
}

func (d *groupsDelegate) SetPushResult(ctx context.Context, g *models.Group, remoteID *int64, status models.SyncStatus) error {
	return d.repo.SetGroupPushResult(ctx, g.LocalID, remoteID, status)
}

func (d *groupsDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.GroupWire, error) {
	return d.api.ListGroupsSince(ctx, cursor)
}

func (d *groupsDelegate) ApplyOne(ctx context.Context, w remote.GroupWire) (bool, error) {
	local, err := d.repo.GetGroupByRemoteID(ctx, w.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	var meta *models.SyncMeta
	if local != nil {
		meta = &local.SyncMeta
	}
	if !ShouldApplyRemote(meta, w.UpdatedAt) {
		return false, nil
	}

	status := models.StatusSynced
	if w.DeletedAt != nil {
		status = models.StatusLocallyDeleted
	}
	g := &models.Group{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: status,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			DeletedAt:  w.DeletedAt,
		},
		Name:         w.Name,
		CurrencyCode: w.CurrencyCode,
		InviteCode:   w.InviteCode,
	}
	if err := d.repo.UpsertRemoteGroup(ctx, g); err != nil {
		return false, err
	}
	return true, nil
}

// membershipsDelegate syncs the group/user link records. Both references
// must resolve to remote ids before a membership can be pushed, which is
// why memberships run after users and groups in the dependency order.
type membershipsDelegate struct {
	repo  groups.Repository
	users users.Repository
	ids   idmap.Repository
	api   remote.GroupsAPI
}

func NewMembershipsSyncer(repo groups.Repository, usersRepo users.Repository, api remote.GroupsAPI, ids idmap.Repository, md metadata.Repository, logger logging.Logger) *Orchestrator[*models.Membership, remote.MembershipWire] {
	return NewOrchestrator(&membershipsDelegate{repo: repo, users: usersRepo, ids: ids, api: api}, ids, md, logger, DefaultBatchSize)
}

func (d *membershipsDelegate) Entity() common.EntityType { return common.EntityMembership }

func (d *membershipsDelegate) EnumerateLocalChanges(ctx context.Context) ([]*models.Membership, error) {
	return d.repo.ListUnsyncedMemberships(ctx)
}

func (d *membershipsDelegate) groupRemoteID(ctx context.Context, localID int64) (int64, error) {
	g, err := d.repo.GetGroupByLocalID(ctx, localID)
	if err == nil && g.HasRemoteID() {
		return g.RemoteIDValue(), nil
	}
	if id, err := d.ids.Resolve(ctx, common.EntityGroup, localID); err == nil {
		return id, nil
	}
	return 0, fmt.Errorf("group %d: %w", localID, common.ErrMissingDependency)
}

func (d *membershipsDelegate) userRemoteID(ctx context.Context, localID int64) (int64, error) {
	u, err := d.users.GetByLocalID(ctx, localID)
	if err == nil && u.HasRemoteID() {
		return u.RemoteIDValue(), nil
	}
	if id, err := d.ids.Resolve(ctx, common.EntityUser, localID); err == nil {
		return id, nil
	}
	return 0, fmt.Errorf("user %d: %w", localID, common.ErrMissingDependency)
}

func (d *membershipsDelegate) PushOne(ctx context.Context, m *models.Membership) (*int64, error) {
	if m.IsTombstone() {
		if !m.HasRemoteID() {
			return nil, nil
		}
		if err := d.api.DeleteMembership(ctx, m.RemoteIDValue()); err != nil {
			return nil, err
		}
		return m.RemoteID, nil
	}

	groupID, err := d.groupRemoteID(ctx, m.GroupLocalID)
	if err != nil {
		return nil, err
	}
	userID, err := d.userRemoteID(ctx, m.UserLocalID)
	if err != nil {
		return nil, err
	}

	w := remote.MembershipWire{
		GroupID:   groupID,
		UserID:    userID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if m.HasRemoteID() {
		w.ID = m.RemoteIDValue()
		out, err := d.api.UpdateMembership(ctx, w)
		if err != nil {
			return nil, err
		}
		return &out.ID, nil
	}

	out, err := d.api.CreateMembership(ctx, w)
	if err != nil {
		return nil, err
	}
	return &out.ID, nil
}

func (d *membershipsDelegate) SetPushResult(ctx context.Context, m *models.Membership, remoteID *int64, status models.SyncStatus) error {
	return d.repo.SetMembershipPushResult(ctx, m.LocalID, remoteID, status)
}

func (d *membershipsDelegate) PullSince(ctx context.Context, cursor int64) ([]remote.MembershipWire, error) {
	return d.api.ListMembershipsSince(ctx, cursor)
}

func (d *membershipsDelegate) ApplyOne(ctx context.Context, w remote.MembershipWire) (bool, error) {
	local, err := d.repo.GetMembershipByRemoteID(ctx, w.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	var meta *models.SyncMeta
	if local != nil {
		meta = &local.SyncMeta
	}
	if !ShouldApplyRemote(meta, w.UpdatedAt) {
		return false, nil
	}

	// Both referenced records should exist locally: groups and users pull
	// before memberships. If one is missing the cursor stays put and this
	// record is re-delivered next run.
	group, err := d.repo.GetGroupByRemoteID(ctx, w.GroupID)
	if err != nil {
		return false, fmt.Errorf("membership %d references unknown group %d: %w", w.ID, w.GroupID, err)
	}
	user, err := d.users.GetByRemoteID(ctx, w.UserID)
	if err != nil {
		return false, fmt.Errorf("membership %d references unknown user %d: %w", w.ID, w.UserID, err)
	}

	status := models.StatusSynced
	if w.DeletedAt != nil {
		status = models.StatusLocallyDeleted
	}
	m := &models.Membership{
		SyncMeta: models.SyncMeta{
			RemoteID:   &w.ID,
			SyncStatus: status,
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			DeletedAt:  w.DeletedAt,
		},
		GroupLocalID: group.LocalID,
		UserLocalID:  user.LocalID,
		Role:         w.Role,
	}
	if err := d.repo.UpsertRemoteMembership(ctx, m); err != nil {
		return false, err
	}
	return true, nil
}
