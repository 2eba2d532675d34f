package syncer

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/splitsync/internal/bank"
	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/netx"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/archive"
	"github.com/dmitrijs2005/splitsync/internal/repositories/banking"
	"github.com/dmitrijs2005/splitsync/internal/repositories/devices"
	"github.com/dmitrijs2005/splitsync/internal/repositories/groups"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/splitsync/internal/repositories/payments"
	"github.com/dmitrijs2005/splitsync/internal/repositories/prefs"
	"github.com/dmitrijs2005/splitsync/internal/repositories/rates"
	"github.com/dmitrijs2005/splitsync/internal/repositories/users"
	"github.com/dmitrijs2005/splitsync/internal/session"
)

// ConflictResolution is the UI's answer to an ownership conflict.
type ConflictResolution string

const (
	// ResolutionKeepLocal re-queues the local copy for push.
	ResolutionKeepLocal ConflictResolution = "keep_local"

	// ResolutionAcceptRemote releases the local claim; the next pull
	// overwrites the record with the authority's version.
	ResolutionAcceptRemote ConflictResolution = "accept_remote"
)

// Deps is everything the coordinator wires together.
type Deps struct {
	Users    users.Repository
	Groups   groups.Repository
	Payments payments.Repository
	Banking  banking.Repository
	Rates    rates.Repository
	Devices  devices.Repository
	Prefs    prefs.Repository
	Archive  archive.Repository
	IDMap    idmap.Repository
	Metadata metadata.Repository

	Remote  remote.Service
	Bank    *bank.Cache
	Prober  netx.Prober
	Session *session.Manager
	Logger  logging.Logger
}

type statusAccess struct {
	read  func(ctx context.Context, localID int64) (models.SyncStatus, error)
	write func(ctx context.Context, localID int64, status models.SyncStatus) error
}

// Coordinator drives one full sync run: the push phase for every entity
// type in dependency order, then the pull phase in the same order, then
// the throttled bank refresh. Single-flight: a second TriggerSync while a
// run is in progress returns common.ErrSyncInProgress, so two runs can
// never race to assign two remote identities to the same local record.
type Coordinator struct {
	syncers      []EntitySyncer
	statuses     map[common.EntityType]statusAccess
	bankAccounts *Orchestrator[*models.BankAccount, remote.BankAccountWire]
	banking      banking.Repository
	bank         *bank.Cache
	prober       netx.Prober
	session      *session.Manager
	logger       logging.Logger

	running atomic.Bool
}

func NewCoordinator(d Deps) *Coordinator {
	bankAccounts := NewBankAccountsSyncer(d.Banking, d.Remote, d.IDMap, d.Metadata, d.Logger)

	c := &Coordinator{
		bankAccounts: bankAccounts,
		banking:      d.Banking,
		bank:         d.Bank,
		prober:       d.Prober,
		session:      d.Session,
		logger:       d.Logger.With("component", "syncer"),
	}

	// Dependency order. Memberships need users and groups; splits need
	// payments and users; bank accounts need requisitions (pull side).
	c.syncers = []EntitySyncer{
		NewUsersSyncer(d.Users, d.Remote, d.IDMap, d.Metadata, d.Logger),
		NewGroupsSyncer(d.Groups, d.Remote, d.IDMap, d.Metadata, d.Logger),
		NewMembershipsSyncer(d.Groups, d.Users, d.Remote, d.IDMap, d.Metadata, d.Logger),
		NewPaymentsSyncer(d.Payments, d.Groups, d.Users, d.Remote, d.IDMap, d.Metadata, d.Logger),
		NewRequisitionsSyncer(d.Banking, d.Remote, d.IDMap, d.Metadata, d.Logger),
		bankAccounts,
		NewRatesSyncer(d.Rates, d.Remote, d.IDMap, d.Metadata, d.Logger),
		NewDeviceTokensSyncer(d.Devices, d.Remote, d.IDMap, d.Metadata, d.Logger),
		NewPrefsSyncer(d.Prefs, d.Users, d.Remote, d.IDMap, d.Metadata, d.Logger),
		NewArchiveSyncer(d.Archive, d.Groups, d.Payments, d.Remote, d.IDMap, d.Metadata, d.Logger),
	}

	c.statuses = map[common.EntityType]statusAccess{
		common.EntityUser: {
			read:  d.Users.StatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Users.SetPushResult(ctx, id, nil, s) },
		},
		common.EntityGroup: {
			read:  d.Groups.GroupStatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Groups.SetGroupPushResult(ctx, id, nil, s) },
		},
		common.EntityMembership: {
			read:  d.Groups.MembershipStatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Groups.SetMembershipPushResult(ctx, id, nil, s) },
		},
		common.EntityPayment: {
			read:  d.Payments.PaymentStatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Payments.SetPaymentPushResult(ctx, id, nil, s) },
		},
		common.EntitySplit: {
			read:  d.Payments.SplitStatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Payments.SetSplitPushResult(ctx, id, nil, s) },
		},
		common.EntityBankAccount: {
			read:  d.Banking.AccountStatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Banking.SetAccountPushResult(ctx, id, nil, s) },
		},
		common.EntityRequisition: {
			read: func(ctx context.Context, id int64) (models.SyncStatus, error) {
				q, err := d.Banking.GetRequisitionByLocalID(ctx, id)
				if err != nil {
					return "", err
				}
				return q.SyncStatus, nil
			},
		},
		common.EntityConversionRate: {
			read:  d.Rates.StatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Rates.SetPushResult(ctx, id, nil, s) },
		},
		common.EntityDeviceToken: {
			read:  d.Devices.StatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Devices.SetPushResult(ctx, id, nil, s) },
		},
		common.EntityPreference: {
			read:  d.Prefs.StatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Prefs.SetPushResult(ctx, id, nil, s) },
		},
		common.EntityArchive: {
			read:  d.Archive.StatusByLocalID,
			write: func(ctx context.Context, id int64, s models.SyncStatus) error { return d.Archive.SetPushResult(ctx, id, nil, s) },
		},
	}

	return c
}

// TriggerSync fires a full run. It returns common.ErrSyncInProgress when a
// run is already active, and common.ErrNoNetwork or common.ErrNoSession
// when a precondition blocks the run before anything is attempted.
func (c *Coordinator) TriggerSync(ctx context.Context) (*RunResult, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, common.ErrSyncInProgress
	}
	defer c.running.Store(false)

	res := &RunResult{StartedAt: models.NowMillis()}

	if !c.prober.Reachable(ctx) {
		res.Err = common.ErrNoNetwork
		res.FinishedAt = models.NowMillis()
		return res, common.ErrNoNetwork
	}
	if _, err := c.session.Token(ctx); err != nil {
		res.Err = common.ErrNoSession
		res.FinishedAt = models.NowMillis()
		return res, common.ErrNoSession
	}

	runStart := res.StartedAt
	c.logger.Info(ctx, "sync run started")

	for _, s := range c.syncers {
		er := &EntityResult{Entity: s.Entity()}
		res.Entities = append(res.Entities, er)
		if err := s.Push(ctx, runStart, er); err != nil {
			res.PhaseErrors++
			c.logger.Error(ctx, "push phase failed", "entity", s.Entity(), "error", err)
		}
	}

	for i, s := range c.syncers {
		if err := s.Pull(ctx, runStart, res.Entities[i]); err != nil {
			res.PhaseErrors++
			c.logger.Error(ctx, "pull phase failed", "entity", s.Entity(), "error", err)
		}
	}

	if c.bank != nil {
		br, err := c.bank.Refresh(ctx)
		if err != nil {
			res.PhaseErrors++
			c.logger.Error(ctx, "bank refresh failed", "error", err)
		} else {
			res.Bank = br
		}
	}

	res.FinishedAt = models.NowMillis()
	c.logger.Info(ctx, "sync run finished",
		"outcome", res.Outcome(), "succeeded", res.Succeeded(), "failed", res.Failed())
	return res, nil
}

// Status returns the sync status of one record, read-only.
func (c *Coordinator) Status(ctx context.Context, entity common.EntityType, localID int64) (models.SyncStatus, error) {
	access, ok := c.statuses[entity]
	if !ok {
		return "", fmt.Errorf("unknown entity type %q", entity)
	}
	return access.read(ctx, localID)
}

// SyncReauthFlag pushes one bank account immediately, outside the batch
// loop, so a flipped reauthentication flag reaches the authority without
// waiting for the next full run.
func (c *Coordinator) SyncReauthFlag(ctx context.Context, accountLocalID int64) error {
	acc, err := c.banking.GetAccountByLocalID(ctx, accountLocalID)
	if err != nil {
		return err
	}
	return c.bankAccounts.PushSingle(ctx, acc)
}

// ResolveConflict settles an ownership conflict the way the user chose.
// Keeping the local copy re-queues it for push; accepting the remote copy
// releases the local claim so the next pull overwrites it.
func (c *Coordinator) ResolveConflict(ctx context.Context, entity common.EntityType, localID int64, resolution ConflictResolution) error {
	access, ok := c.statuses[entity]
	if !ok || access.write == nil {
		return fmt.Errorf("entity type %q does not support conflict resolution", entity)
	}

	current, err := access.read(ctx, localID)
	if err != nil {
		return err
	}
	if current != models.StatusConflict {
		return fmt.Errorf("%s %d is %s, not in conflict: %w", entity, localID, current, common.ErrIllegalTransition)
	}

	switch resolution {
	case ResolutionKeepLocal:
		return access.write(ctx, localID, models.StatusPendingSync)
	case ResolutionAcceptRemote:
		return access.write(ctx, localID, models.StatusSynced)
	default:
		return fmt.Errorf("unknown conflict resolution %q", resolution)
	}
}

// InProgress reports whether a run is currently active.
func (c *Coordinator) InProgress() bool {
	return c.running.Load()
}
