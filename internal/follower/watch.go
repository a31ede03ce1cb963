// Package follower turns chain state and event journals into the ordered
// event stream the reconciler consumes.
package follower

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/manifest-network/tracker/internal/chain"
	"github.com/manifest-network/tracker/internal/models"
)

// Applier consumes one event at a time, in arrival order.
type Applier interface {
	Apply(ctx context.Context, ev models.Event) error
}

// Watch polls the chain-data service and feeds derived events serially into
// the applier until the context is cancelled. Event order within one poll is
// pending transactions first, then the new head, then the finalized head, so
// a transaction is always announced before the block that settles it.
func Watch(ctx context.Context, src chain.HeadSource, rec Applier, pollInterval time.Duration, log *slog.Logger) error {
	var lastHead, lastFinalized string

	for {
		select {
		case <-ctx.Done():
			log.Info("Watch stopped")
			return nil
		default:
		}

		if err := pollOnce(ctx, src, rec, &lastHead, &lastFinalized, log); err != nil {
			return fmt.Errorf("failed to process chain state: %w", err)
		}

		select {
		case <-ctx.Done():
			log.Info("Watch stopped")
			return nil
		case <-time.After(pollInterval):
		}
	}
}

func pollOnce(ctx context.Context, src chain.HeadSource, rec Applier, lastHead, lastFinalized *string, log *slog.Logger) error {
	txs, err := src.PendingTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending transactions: %w", err)
	}
	for _, tx := range txs {
		if err := rec.Apply(ctx, models.NewTransaction{Tx: tx}); err != nil {
			return fmt.Errorf("failed to apply new transaction %s: %w", tx, err)
		}
	}

	head, parent, err := src.Head(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain head: %w", err)
	}
	if head != "" && head != *lastHead {
		log.Debug("New head", "block", head, "parent", parent)
		if err := rec.Apply(ctx, models.NewBlock{Block: head, Parent: parent}); err != nil {
			return fmt.Errorf("failed to apply new block %s: %w", head, err)
		}
		*lastHead = head
	}

	finalized, err := src.FinalizedHead(ctx)
	if err != nil {
		return fmt.Errorf("failed to get finalized head: %w", err)
	}
	if finalized != "" && finalized != *lastFinalized {
		log.Debug("New finalized head", "block", finalized)
		if err := rec.Apply(ctx, models.Finalized{Block: finalized}); err != nil {
			return fmt.Errorf("failed to apply finalization of %s: %w", finalized, err)
		}
		*lastFinalized = finalized
	}

	return nil
}
