package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/splitsync/internal/common"
	"github.com/dmitrijs2005/splitsync/internal/syncer"
)

func (a *App) Sync(ctx context.Context) {
	res, err := a.coordinator.TriggerSync(ctx)
	switch {
	case errors.Is(err, common.ErrSyncInProgress):
		fmt.Println("A sync run is already in progress")
		return
	case errors.Is(err, common.ErrNoNetwork):
		fmt.Println("Server unreachable, changes stay queued locally")
		return
	case errors.Is(err, common.ErrNoSession):
		fmt.Println("Not logged in (or session expired), use 'login' first")
		return
	case err != nil:
		fmt.Printf("error: %v\n", err)
		return
	}

	fmt.Printf("Sync finished: %s (%d succeeded, %d failed)\n", res.Outcome(), res.Succeeded(), res.Failed())
	for _, e := range res.Entities {
		if e.Failed() > 0 || e.Succeeded() > 0 {
			fmt.Println("  " + e.String())
		}
	}
	if res.Bank != nil && res.Bank.Fetched > 0 {
		fmt.Printf("  bank: fetched=%d inserted=%d failed=%d\n", res.Bank.Fetched, res.Bank.Inserted, res.Bank.Failed)
	}
}

func (a *App) Status(ctx context.Context, args []string) {
	entity, localID, ok := parseRecordRef(args)
	if !ok {
		fmt.Println("Usage: status <entity> <local id>")
		return
	}

	status, err := a.coordinator.Status(ctx, entity, localID)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("%s %d: %s\n", entity, localID, status)
}

func (a *App) Resolve(ctx context.Context, args []string) {
	entity, localID, ok := parseRecordRef(args)
	if !ok || len(args) < 3 {
		fmt.Println("Usage: resolve <entity> <local id> keep|accept")
		return
	}

	var resolution syncer.ConflictResolution
	switch args[2] {
	case "keep":
		resolution = syncer.ResolutionKeepLocal
	case "accept":
		resolution = syncer.ResolutionAcceptRemote
	default:
		fmt.Println("Usage: resolve <entity> <local id> keep|accept")
		return
	}

	if err := a.coordinator.ResolveConflict(ctx, entity, localID, resolution); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("Conflict resolved")
}

func parseRecordRef(args []string) (common.EntityType, int64, bool) {
	if len(args) < 2 {
		return "", 0, false
	}
	localID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return common.EntityType(args[0]), localID, true
}
