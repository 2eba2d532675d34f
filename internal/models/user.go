package models

// User is a participant known to this device. Locally created users (e.g.
// ad-hoc group members added offline) start PENDING_SYNC; users discovered
// through a pull enter as SYNCED.
type User struct {
	SyncMeta
	Name        string
	Email       string
	AvatarColor string
}
