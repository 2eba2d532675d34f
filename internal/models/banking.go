package models

// BankAccount is a linked bank account. ReauthRequired is flipped when the
// aggregator reports an expired consent; it has a single-record sync escape
// hatch so the flag reaches the authority without waiting for a full run.
type BankAccount struct {
	SyncMeta
	RequisitionLocalID *int64
	InstitutionID      string
	IBAN               string
	DisplayName        string
	ReauthRequired     bool
}

// Requisition is a bank-connection authorization. Requisitions are
// server-authoritative: they are never locally originated, never pushed,
// and enter the local store directly as SYNCED.
type Requisition struct {
	SyncMeta
	InstitutionID string
	Reference     string
	Status        string
	Link          string
}

// BankTransaction is fetched live from the banking aggregator rather than
// the app's own authority, throttled by a cooldown cache. Pull-only.
type BankTransaction struct {
	LocalID            int64
	BankAccountLocalID int64
	ExternalID         string
	AmountCents        int64
	CurrencyCode       string
	Description        string
	BookedAt           int64
	FetchedAt          int64
}
