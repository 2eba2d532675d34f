package common

import "errors"

// Sentinel errors. Callers should use errors.Is to match these values.
var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Run-blocking preconditions. A sync run refuses to start when one of
	// these holds; nothing is pushed or pulled.
	ErrNoNetwork      = errors.New("network unreachable")
	ErrNoSession      = errors.New("no authenticated session")
	ErrSyncInProgress = errors.New("sync already in progress")

	// Per-record push outcomes. These are result values, never panics, so
	// the orchestrator's batch loop can classify them with errors.Is.
	ErrOwnershipConflict = errors.New("ownership conflict")
	ErrMissingDependency = errors.New("missing dependency mapping")

	// Identifier mappings are write-once; a second remote id for the same
	// (entity, localID) key indicates corrupted state.
	ErrMappingExists = errors.New("identifier mapping already exists")

	// State-machine guard.
	ErrIllegalTransition = errors.New("illegal sync status transition")
)
