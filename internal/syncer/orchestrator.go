package syncer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
)

// DefaultBatchSize bounds one push batch. Each record in a batch commits
// independently, so a failure never rolls back its neighbours.
const DefaultBatchSize = 25

// Delegate supplies the entity-specific half of the reconciliation
// protocol. L is the local record type, W its wire representation.
type Delegate[L models.Syncable, W any] interface {
	Entity() common.EntityType

	// EnumerateLocalChanges lists records waiting to be pushed: status
	// PENDING_SYNC or SYNC_FAILED, plus tombstones whose deletion has not
	// been propagated. CONFLICT records are excluded; they are never
	// retried automatically.
	EnumerateLocalChanges(ctx context.Context) ([]L, error)

	// PushOne sends one record to the authority and returns the remote id
	// it now has: the newly assigned id for a create, the existing id for
	// an update or propagated deletion, nil for a tombstone that never had
	// a remote identity. PushOne must not touch the record's sync status;
	// the orchestrator persists the outcome.
	PushOne(ctx context.Context, record L) (*int64, error)

	// SetPushResult persists remote id and status in a single statement so
	// no reader ever observes one without the other. A nil remoteID keeps
	// the stored value.
	SetPushResult(ctx context.Context, record L, remoteID *int64, status models.SyncStatus) error

	// PullSince fetches wire records changed after the cursor.
	PullSince(ctx context.Context, cursor int64) ([]W, error)

	// ApplyOne writes one pulled record into the local store under the
	// ordering policy. It returns false when the policy discarded the
	// record (stale snapshot, pending local edit, tombstoned locally).
	ApplyOne(ctx context.Context, record W) (bool, error)
}

// EntitySyncer is the non-generic surface the run coordinator drives.
type EntitySyncer interface {
	Entity() common.EntityType
	Push(ctx context.Context, runStart int64, res *EntityResult) error
	Pull(ctx context.Context, runStart int64, res *EntityResult) error
}

// Orchestrator runs the push and pull phases for one entity type in
// bounded batches, translating per-record errors into statuses and counts.
type Orchestrator[L models.Syncable, W any] struct {
	delegate  Delegate[L, W]
	ids       idmap.Repository
	metadata  metadata.Repository
	logger    logging.Logger
	batchSize int
}

func NewOrchestrator[L models.Syncable, W any](
	d Delegate[L, W],
	ids idmap.Repository,
	md metadata.Repository,
	logger logging.Logger,
	batchSize int,
) *Orchestrator[L, W] {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Orchestrator[L, W]{
		delegate:  d,
		ids:       ids,
		metadata:  md,
		logger:    logger.With("entity", d.Entity()),
		batchSize: batchSize,
	}
}

func (o *Orchestrator[L, W]) Entity() common.EntityType {
	return o.delegate.Entity()
}

// Push enumerates local changes and pushes them batch by batch. Only a
// failure to enumerate aborts the phase; per-record failures are absorbed
// into the result counts. The run may be cancelled between batches.
func (o *Orchestrator[L, W]) Push(ctx context.Context, runStart int64, res *EntityResult) error {
	records, err := o.delegate.EnumerateLocalChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate local changes: %w", err)
	}

	for start := 0; start < len(records); start += o.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+o.batchSize, len(records))
		for _, rec := range records[start:end] {
			o.pushRecord(ctx, runStart, rec, res)
		}
	}
	return nil
}

// pushRecord pushes one record and persists the outcome. The returned
// error is the classified push error, for callers that need it directly.
func (o *Orchestrator[L, W]) pushRecord(ctx context.Context, runStart int64, rec L, res *EntityResult) error {
	meta := rec.Meta()

	// Edited after the run started: leave it for the next cycle instead of
	// racing the writer.
	if meta.UpdatedAt > runStart {
		res.Skipped++
		o.logger.Debug(ctx, "skipping record edited mid-run", "localID", meta.LocalID)
		return nil
	}

	remoteID, err := o.delegate.PushOne(ctx, rec)
	if err != nil {
		status := models.StatusSyncFailed
		switch {
		case remote.IsForbidden(err) || errors.Is(err, common.ErrOwnershipConflict):
			status = models.StatusConflict
			res.Conflicts++
			o.logger.Warn(ctx, "ownership conflict", "localID", meta.LocalID, "error", err)
		case errors.Is(err, common.ErrMissingDependency):
			res.PushFailed++
			o.logger.Warn(ctx, "dependency not yet synced", "localID", meta.LocalID, "error", err)
		default:
			res.PushFailed++
			o.logger.Error(ctx, "push failed", "localID", meta.LocalID, "error", err)
		}
		if serr := o.delegate.SetPushResult(ctx, rec, nil, status); serr != nil {
			o.logger.Error(ctx, "failed to record push failure", "localID", meta.LocalID, "error", serr)
		}
		return err
	}

	status := models.StatusSynced
	if meta.IsTombstone() {
		status = models.StatusLocallyDeleted
	}
	if err := o.delegate.SetPushResult(ctx, rec, remoteID, status); err != nil {
		res.PushFailed++
		o.logger.Error(ctx, "failed to persist push result", "localID", meta.LocalID, "error", err)
		return err
	}

	// A create assigned a fresh identity: record it in the mapping store
	// exactly once so dependents can translate their references.
	if !meta.HasRemoteID() && remoteID != nil && !meta.IsTombstone() {
		if err := o.ids.Save(ctx, o.Entity(), meta.LocalID, *remoteID); err != nil {
			o.logger.Error(ctx, "failed to save identifier mapping", "localID", meta.LocalID, "error", err)
		}
	}

	res.Pushed++
	return nil
}

// PushSingle pushes one record immediately, bypassing the batch loop. Used
// by single-record escape hatches such as the bank reauthentication flag.
func (o *Orchestrator[L, W]) PushSingle(ctx context.Context, rec L) error {
	res := &EntityResult{Entity: o.Entity()}
	return o.pushRecord(ctx, models.NowMillis(), rec, res)
}

// Pull fetches remote changes since the stored cursor and applies them.
// The cursor advances to the run start only when every record applied
// cleanly, so a failed record is re-delivered on the next run.
func (o *Orchestrator[L, W]) Pull(ctx context.Context, runStart int64, res *EntityResult) error {
	cursor, err := o.cursor(ctx)
	if err != nil {
		return err
	}

	records, err := o.delegate.PullSince(ctx, cursor)
	if err != nil {
		return fmt.Errorf("failed to pull changes: %w", err)
	}

	clean := true
	for _, w := range records {
		applied, err := o.delegate.ApplyOne(ctx, w)
		if err != nil {
			clean = false
			res.ApplyFailed++
			o.logger.Error(ctx, "failed to apply pulled record", "error", err)
			continue
		}
		if applied {
			res.Applied++
		} else {
			res.Skipped++
		}
	}

	if clean {
		if err := o.setCursor(ctx, runStart); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator[L, W]) cursorKey() string {
	return metadata.CursorKeyPrefix + string(o.Entity())
}

func (o *Orchestrator[L, W]) cursor(ctx context.Context) (int64, error) {
	v, err := o.metadata.Get(ctx, o.cursorKey())
	if err != nil {
		return 0, fmt.Errorf("failed to read pull cursor: %w", err)
	}
	if v == nil {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt pull cursor %q: %w", v, err)
	}
	return cursor, nil
}

func (o *Orchestrator[L, W]) setCursor(ctx context.Context, cursor int64) error {
	if err := o.metadata.Set(ctx, o.cursorKey(), []byte(strconv.FormatInt(cursor, 10))); err != nil {
		return fmt.Errorf("failed to advance pull cursor: %w", err)
	}
	o.logger.Debug(ctx, "pull cursor advanced", "cursor", cursor)
	return nil
}
