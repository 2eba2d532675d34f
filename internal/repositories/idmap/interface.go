// Package idmap implements the identifier mapping store: a persistent,
// append-only translation from a device-assigned local id to the
// authority-assigned remote id, keyed by (entity type, local id).
//
// Any synchronizer that must reference another entity by remote id in a
// push payload resolves through this store first. A missing mapping means
// the dependency's own sync has not yet succeeded and the dependent push
// must fail fast instead of leaking a local id to the authority.
package idmap

import (
	"context"

	"github.com/dmitrijs2005/splitsync/internal/common"
)

type Repository interface {
	// Save records a freshly assigned remote id. Write-once per key:
	// saving the identical pair again is a no-op, a different remote id
	// for an existing key returns common.ErrMappingExists.
	Save(ctx context.Context, entity common.EntityType, localID, remoteID int64) error

	// Resolve returns the remote id for a local id, or common.ErrNotFound
	// when no mapping has been recorded yet.
	Resolve(ctx context.Context, entity common.EntityType, localID int64) (int64, error)
}
