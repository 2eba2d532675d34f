package models

// Group is a shared-expense group.
type Group struct {
	SyncMeta
	Name         string
	CurrencyCode string
	InviteCode   string
}

// Membership links a user to a group. Both references are local ids and are
// translated through the identifier mapping store at push time, which is why
// memberships sync only after users and groups.
type Membership struct {
	SyncMeta
	GroupLocalID int64
	UserLocalID  int64
	Role         string
}

const (
	MembershipRoleOwner  = "owner"
	MembershipRoleMember = "member"
)
