// Package groups stores expense groups and their memberships. One
// repository covers both record types because they sync as one unit
// (groups strictly before memberships).
package groups

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/models"
)

type Repository interface {
	InsertGroup(ctx context.Context, g *models.Group) (int64, error)
	GetGroupByLocalID(ctx context.Context, localID int64) (*models.Group, error)
	GetGroupByRemoteID(ctx context.Context, remoteID int64) (*models.Group, error)
	ListUnsyncedGroups(ctx context.Context) ([]*models.Group, error)
	SetGroupPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error
	UpsertRemoteGroup(ctx context.Context, g *models.Group) error
	SoftDeleteGroup(ctx context.Context, localID int64, now int64) error

	InsertMembership(ctx context.Context, m *models.Membership) (int64, error)
	GetMembershipByRemoteID(ctx context.Context, remoteID int64) (*models.Membership, error)
	ListUnsyncedMemberships(ctx context.Context) ([]*models.Membership, error)
	SetMembershipPushResult(ctx context.Context, localID int64, remoteID *int64, status models.SyncStatus) error
	UpsertRemoteMembership(ctx context.Context, m *models.Membership) error

	// Read-only status lookups exposed to the UI layer.
	GroupStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
	MembershipStatusByLocalID(ctx context.Context, localID int64) (models.SyncStatus, error)
}
