package syncer

import (
	"fmt"

	"github.com/dmitrijs2005/splitsync/internal/bank"
	"github.com/dmitrijs2005/splitsync/internal/common"
)

// Outcome is the run-level verdict.
type Outcome string

const (
	// OutcomeSuccess means every attempted record reached its target state.
	OutcomeSuccess Outcome = "SUCCESS"

	// OutcomePartialSuccess means the run completed but some records
	// failed. They stay queued for the next run.
	OutcomePartialSuccess Outcome = "PARTIAL_SUCCESS"

	// OutcomeError means a precondition (network, session) blocked the run
	// before anything was attempted, or the run itself was unable to
	// proceed.
	OutcomeError Outcome = "ERROR"
)

// EntityResult counts what happened to one entity type during a run.
type EntityResult struct {
	Entity      common.EntityType
	Pushed      int
	PushFailed  int
	Conflicts   int
	Skipped     int
	Applied     int
	ApplyFailed int
}

// Failed is the total number of records that did not reach their target
// state. Conflicts count as failures for the run verdict even though they
// are never retried automatically.
func (r *EntityResult) Failed() int {
	return r.PushFailed + r.Conflicts + r.ApplyFailed
}

// Succeeded is the total number of records processed cleanly.
func (r *EntityResult) Succeeded() int {
	return r.Pushed + r.Applied
}

func (r *EntityResult) String() string {
	return fmt.Sprintf("%s: pushed=%d pushFailed=%d conflicts=%d skipped=%d applied=%d applyFailed=%d",
		r.Entity, r.Pushed, r.PushFailed, r.Conflicts, r.Skipped, r.Applied, r.ApplyFailed)
}

// RunResult aggregates one full sync run.
type RunResult struct {
	StartedAt  int64
	FinishedAt int64
	Entities   []*EntityResult
	Bank       *bank.RefreshResult

	// PhaseErrors counts whole-phase failures (enumeration or pull
	// transport errors) that prevented an entity's records from being
	// attempted at all.
	PhaseErrors int

	// Err is set only when a precondition blocked the run.
	Err error
}

// Succeeded and Failed sum the per-entity counts.
func (r *RunResult) Succeeded() int {
	n := 0
	for _, e := range r.Entities {
		n += e.Succeeded()
	}
	return n
}

func (r *RunResult) Failed() int {
	n := 0
	for _, e := range r.Entities {
		n += e.Failed()
	}
	if r.Bank != nil {
		n += r.Bank.Failed
	}
	return n
}

// Outcome folds the per-entity counts, the bank refresh and any phase
// errors into the single verdict the UI layer consumes.
func (r *RunResult) Outcome() Outcome {
	if r.Err != nil {
		return OutcomeError
	}
	if r.Failed() > 0 || r.PhaseErrors > 0 {
		return OutcomePartialSuccess
	}
	return OutcomeSuccess
}
