package remote

// Wire representations exchanged with the sync authority. IDs are the
// authority's own; timestamps are milliseconds since epoch. A zero ID on a
// create request means "assign one".

type UserWire struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AvatarColor string `json:"avatar_color"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	DeletedAt   *int64 `json:"deleted_at,omitempty"`
}

type GroupWire struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currency_code"`
	InviteCode   string `json:"invite_code"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
	DeletedAt    *int64 `json:"deleted_at,omitempty"`
}

type MembershipWire struct {
	ID        int64  `json:"id"`
	GroupID   int64  `json:"group_id"`
	UserID    int64  `json:"user_id"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

type PaymentWire struct {
	ID           int64       `json:"id"`
	GroupID      int64       `json:"group_id"`
	PayerID      int64       `json:"payer_id"`
	AmountCents  int64       `json:"amount_cents"`
	CurrencyCode string      `json:"currency_code"`
	Title        string      `json:"title"`
	PaidAt       int64       `json:"paid_at"`
	CreatedAt    int64       `json:"created_at"`
	UpdatedAt    int64       `json:"updated_at"`
	DeletedAt    *int64      `json:"deleted_at,omitempty"`
	Splits       []SplitWire `json:"splits,omitempty"`
}

type SplitWire struct {
	ID          int64  `json:"id"`
	PaymentID   int64  `json:"payment_id"`
	UserID      int64  `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	DeletedAt   *int64 `json:"deleted_at,omitempty"`
}

type BankAccountWire struct {
	ID             int64  `json:"id"`
	RequisitionID  *int64 `json:"requisition_id,omitempty"`
	InstitutionID  string `json:"institution_id"`
	IBAN           string `json:"iban"`
	DisplayName    string `json:"display_name"`
	ReauthRequired bool   `json:"reauth_required"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
	DeletedAt      *int64 `json:"deleted_at,omitempty"`
}

type RequisitionWire struct {
	ID            int64  `json:"id"`
	InstitutionID string `json:"institution_id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	Link          string `json:"link"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
	DeletedAt     *int64 `json:"deleted_at,omitempty"`
}

type ConversionRateWire struct {
	ID            int64  `json:"id"`
	BaseCurrency  string `json:"base_currency"`
	QuoteCurrency string `json:"quote_currency"`
	RateMicros    int64  `json:"rate_micros"`
	RateDate      int64  `json:"rate_date"`
	Custom        bool   `json:"custom"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
	DeletedAt     *int64 `json:"deleted_at,omitempty"`
}

type DeviceTokenWire struct {
	ID        int64  `json:"id"`
	Token     string `json:"token"`
	Platform  string `json:"platform"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

type PreferenceWire struct {
	ID                 int64  `json:"id"`
	UserID             int64  `json:"user_id"`
	Locale             string `json:"locale"`
	DefaultCurrency    string `json:"default_currency"`
	NotifyOnPayment    bool   `json:"notify_on_payment"`
	NotifyOnSettlement bool   `json:"notify_on_settlement"`
	CreatedAt          int64  `json:"created_at"`
	UpdatedAt          int64  `json:"updated_at"`
}

type ArchiveWire struct {
	ID         int64  `json:"id"`
	EntityKind string `json:"entity_kind"`
	EntityID   int64  `json:"entity_id"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
	DeletedAt  *int64 `json:"deleted_at,omitempty"`
}
