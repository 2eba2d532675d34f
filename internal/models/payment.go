package models

// Payment is one expense paid by a user on behalf of a group. It owns a set
// of Split records; together they form a composite aggregate whose push
// order is strict (payment before splits).
//
// Amounts are minor currency units (cents).
type Payment struct {
	SyncMeta
	GroupLocalID     int64
	PayerUserLocalID int64
	AmountCents      int64
	CurrencyCode     string
	Title            string
	PaidAt           int64
}

// Split is one user's share of a payment. Splits carry their own sync
// lifecycle but are only pushable once the owning payment has a confirmed
// remote id.
type Split struct {
	SyncMeta
	PaymentLocalID int64
	UserLocalID    int64
	AmountCents    int64
}
