package bank

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/repositories/banking"
)

// DefaultCooldown is the minimum interval between aggregator fetches for
// the same requisition.
const DefaultCooldown = 15 * time.Minute

// RefreshResult summarizes one refresh pass over the linked accounts.
type RefreshResult struct {
	Fetched  int // requisitions actually queried
	Skipped  int // requisitions still inside the cooldown window
	Inserted int // new transactions stored
	Failed   int // requisitions whose fetch errored
}

// Cache throttles aggregator fetches. It keeps the last-fetch time per
// requisition reference in memory; the transactions themselves go to the
// banking repository. The coordinator owns one Cache per engine and hands
// it to the refresh step, there is no process-wide instance.
type Cache struct {
	client   Client
	repo     banking.Repository
	cooldown time.Duration
	logger   logging.Logger
	now      func() time.Time

	mu        sync.Mutex
	lastFetch map[string]time.Time
}

func NewCache(client Client, repo banking.Repository, cooldown time.Duration, logger logging.Logger) *Cache {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Cache{
		client:    client,
		repo:      repo,
		cooldown:  cooldown,
		logger:    logger,
		now:       time.Now,
		lastFetch: make(map[string]time.Time),
	}
}

// Refresh fetches transactions for every linked account whose requisition
// is outside the cooldown window. A consent rejection flips the account's
// reauth flag instead of failing the pass.
func (c *Cache) Refresh(ctx context.Context) (*RefreshResult, error) {
	res := &RefreshResult{}

	accounts, err := c.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	for _, acc := range accounts {
		if acc.RequisitionLocalID == nil || acc.IsTombstone() {
			continue
		}
		req, err := c.repo.GetRequisitionByLocalID(ctx, *acc.RequisitionLocalID)
		if err != nil {
			res.Failed++
			continue
		}

		if !c.due(req.Reference) {
			res.Skipped++
			continue
		}

		txs, err := c.client.ListTransactions(ctx, req.Reference)
		if err != nil {
			res.Failed++
			if ReauthRequired(err) {
				c.logger.Warn(ctx, "bank consent rejected, flagging account for reauth",
					"account", acc.LocalID)
				if ferr := c.repo.SetReauthRequired(ctx, acc.LocalID, true, models.NowMillis()); ferr != nil {
					c.logger.Error(ctx, "failed to flag account for reauth", "error", ferr)
				}
			} else {
				c.logger.Error(ctx, "failed to fetch bank transactions",
					"requisition", req.Reference, "error", err)
			}
			continue
		}

		c.markFetched(req.Reference)
		res.Fetched++

		fetchedAt := models.NowMillis()
		records := make([]*models.BankTransaction, 0, len(txs))
		for _, tx := range txs {
			records = append(records, &models.BankTransaction{
				BankAccountLocalID: acc.LocalID,
				ExternalID:         tx.ExternalID,
				AmountCents:        tx.AmountCents,
				CurrencyCode:       tx.CurrencyCode,
				Description:        tx.Description,
				BookedAt:           tx.BookedAt,
				FetchedAt:          fetchedAt,
			})
		}

		inserted, err := c.repo.UpsertTransactions(ctx, records)
		if err != nil {
			res.Failed++
			continue
		}
		res.Inserted += inserted
	}

	return res, nil
}

func (c *Cache) due(reference string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.lastFetch[reference]
	if !ok {
		return true
	}
	return c.now().Sub(last) >= c.cooldown
}

func (c *Cache) markFetched(reference string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFetch[reference] = c.now()
}
