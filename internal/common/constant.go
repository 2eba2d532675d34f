// Package common contains shared constants and sentinel errors used across
// splitsync components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access
// token on outbound requests to the sync authority.
const AuthorizationHeaderName = "Authorization"

// EntityType names a syncable entity class. Used as the first half of the
// identifier-mapping key and as the per-entity pull cursor key.
type EntityType string

const (
	EntityUser           EntityType = "user"
	EntityGroup          EntityType = "group"
	EntityMembership     EntityType = "membership"
	EntityPayment        EntityType = "payment"
	EntitySplit          EntityType = "split"
	EntityBankAccount    EntityType = "bank_account"
	EntityRequisition    EntityType = "requisition"
	EntityConversionRate EntityType = "conversion_rate"
	EntityDeviceToken    EntityType = "device_token"
	EntityPreference     EntityType = "preference"
	EntityArchive        EntityType = "archive"
)
