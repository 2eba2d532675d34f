// Package remote is the typed boundary to the sync authority. Each entity
// type gets create/update/delete/list-since operations; failures carry an
// HTTP status code so the engine can single out 403-class ownership
// conflicts.
package remote

import "context"

type UsersAPI interface {
	CreateUser(ctx context.Context, u UserWire) (*UserWire, error)
	UpdateUser(ctx context.Context, u UserWire) (*UserWire, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsersSince(ctx context.Context, cursor int64) ([]UserWire, error)
}

type GroupsAPI interface {
	CreateGroup(ctx context.Context, g GroupWire) (*GroupWire, error)
	UpdateGroup(ctx context.Context, g GroupWire) (*GroupWire, error)
	DeleteGroup(ctx context.Context, id int64) error
	ListGroupsSince(ctx context.Context, cursor int64) ([]GroupWire, error)

	CreateMembership(ctx context.Context, m MembershipWire) (*MembershipWire, error)
	UpdateMembership(ctx context.Context, m MembershipWire) (*MembershipWire, error)
	DeleteMembership(ctx context.Context, id int64) error
	ListMembershipsSince(ctx context.Context, cursor int64) ([]MembershipWire, error)
}

type PaymentsAPI interface {
	CreatePayment(ctx context.Context, p PaymentWire) (*PaymentWire, error)
	UpdatePayment(ctx context.Context, p PaymentWire) (*PaymentWire, error)
	DeletePayment(ctx context.Context, id int64) error
	// ListPaymentsSince returns payments with their splits nested, so the
	// pull phase can apply the aggregate in one walk.
	ListPaymentsSince(ctx context.Context, cursor int64) ([]PaymentWire, error)

	CreateSplit(ctx context.Context, s SplitWire) (*SplitWire, error)
	UpdateSplit(ctx context.Context, s SplitWire) (*SplitWire, error)
	DeleteSplit(ctx context.Context, id int64) error
}

type BankingAPI interface {
	CreateBankAccount(ctx context.Context, a BankAccountWire) (*BankAccountWire, error)
	UpdateBankAccount(ctx context.Context, a BankAccountWire) (*BankAccountWire, error)
	DeleteBankAccount(ctx context.Context, id int64) error
	ListBankAccountsSince(ctx context.Context, cursor int64) ([]BankAccountWire, error)

	// Requisitions are server-authoritative: list-since only.
	ListRequisitionsSince(ctx context.Context, cursor int64) ([]RequisitionWire, error)
}

type RatesAPI interface {
	CreateRate(ctx context.Context, c ConversionRateWire) (*ConversionRateWire, error)
	UpdateRate(ctx context.Context, c ConversionRateWire) (*ConversionRateWire, error)
	DeleteRate(ctx context.Context, id int64) error
	ListRatesSince(ctx context.Context, cursor int64) ([]ConversionRateWire, error)
}

type DevicesAPI interface {
	CreateDeviceToken(ctx context.Context, d DeviceTokenWire) (*DeviceTokenWire, error)
	UpdateDeviceToken(ctx context.Context, d DeviceTokenWire) (*DeviceTokenWire, error)
	DeleteDeviceToken(ctx context.Context, id int64) error
	ListDeviceTokensSince(ctx context.Context, cursor int64) ([]DeviceTokenWire, error)
}

type PrefsAPI interface {
	CreatePreference(ctx context.Context, p PreferenceWire) (*PreferenceWire, error)
	UpdatePreference(ctx context.Context, p PreferenceWire) (*PreferenceWire, error)
	ListPreferencesSince(ctx context.Context, cursor int64) ([]PreferenceWire, error)
}

type ArchiveAPI interface {
	CreateArchive(ctx context.Context, a ArchiveWire) (*ArchiveWire, error)
	DeleteArchive(ctx context.Context, id int64) error
	ListArchivesSince(ctx context.Context, cursor int64) ([]ArchiveWire, error)
}

// Service is the full authority surface. Synchronizers depend on the
// narrow per-entity interfaces; the app wires one implementation of the
// whole thing.
type Service interface {
	UsersAPI
	GroupsAPI
	PaymentsAPI
	BankingAPI
	RatesAPI
	DevicesAPI
	PrefsAPI
	ArchiveAPI
}
