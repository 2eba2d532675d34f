package models

// ConversionRate is a currency conversion rate attached to expenses in a
// foreign currency. Device-recorded custom rates push; authority rates pull.
// Rate is fixed-point with six decimal places (micro-units).
type ConversionRate struct {
	SyncMeta
	BaseCurrency  string
	QuoteCurrency string
	RateMicros    int64
	RateDate      int64
	Custom        bool
}

// DeviceToken is a push-notification registration token. Push-mostly:
// created on (re-)registration, tombstoned on unregister.
type DeviceToken struct {
	SyncMeta
	Token    string
	Platform string
}

// UserPreference is the per-user settings record (one per user). Synced in
// both directions under the ordinary conflict policy.
type UserPreference struct {
	SyncMeta
	UserLocalID        int64
	Locale             string
	DefaultCurrency    string
	NotifyOnPayment    bool
	NotifyOnSettlement bool
}

// ArchiveRecord marks an entity the user archived away from the main views.
type ArchiveRecord struct {
	SyncMeta
	EntityKind    string
	EntityLocalID int64
}
