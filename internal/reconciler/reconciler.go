// Package reconciler correlates the chain event stream against mutable
// per-transaction and per-block state, and notifies a sink exactly once
// when a transaction settles and when it is done.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/manifest-network/tracker/internal/chain"
	"github.com/manifest-network/tracker/internal/metrics"
	"github.com/manifest-network/tracker/internal/models"
	"github.com/manifest-network/tracker/internal/sink"
)

// Reconciler drives the pending -> settled -> done progression of every
// transaction observed in the event stream. It is not safe for concurrent
// use: the host must apply events one at a time, in arrival order.
type Reconciler struct {
	api chain.API
	out sink.Sink
	log *slog.Logger
	met *metrics.Metrics

	// pending holds transactions observed but not yet settled, in
	// arrival order.
	pending *orderedSet

	// settled maps a transaction hash to the block it settled in.
	// Entries are written once and never mutated; a transaction settles
	// in at most one block.
	settled map[string]string

	// done marks transactions whose settling block was finalized.
	// Entries are never removed; the set guarantees exactly-once done
	// notifications.
	done map[string]struct{}

	// processed marks blocks whose NewBlock event completed. A block that
	// failed mid-event is absent, so the host can redeliver it and the
	// remaining pending transactions get evaluated.
	processed map[string]struct{}

	// members maps a block hash to the transactions that settled in it,
	// in arrival order. An entry is created for every processed block,
	// even when empty, and dropped when the block is unpinned.
	members map[string][]string

	// parents records each processed block's parent link, for ancestry
	// walks at finalization time. Dropped together with members.
	parents map[string]string

	// unpinned marks blocks already released through the unpin API, so
	// no hash is unpinned twice and stale events for superseded blocks
	// are rejected.
	unpinned map[string]struct{}

	// finalized is the most recently finalized block hash, empty before
	// the first Finalized event.
	finalized string
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.log = l }
}

// WithMetrics sets the metrics collectors. Defaults to none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) { r.met = m }
}

// New creates a reconciler for one event stream.
func New(api chain.API, out sink.Sink, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:       api,
		out:       out,
		log:       slog.Default(),
		pending:   newOrderedSet(),
		settled:   make(map[string]string),
		processed: make(map[string]struct{}),
		done:      make(map[string]struct{}),
		members:   make(map[string][]string),
		parents:   make(map[string]string),
		unpinned:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply processes one event to completion, including all derived chain-data
// lookups and sink notifications. A returned error means the event was only
// partially applied; notifications already emitted stay recorded, so the
// host may redeliver the same event without causing duplicates.
func (r *Reconciler) Apply(ctx context.Context, ev models.Event) error {
	var err error
	switch e := ev.(type) {
	case models.NewTransaction:
		r.met.Event("new_transaction")
		r.handleNewTransaction(e.Tx)
	case models.NewBlock:
		r.met.Event("new_block")
		err = r.handleNewBlock(ctx, e.Block, e.Parent)
	case models.Finalized:
		r.met.Event("finalized")
		err = r.handleFinalized(ctx, e.Block)
	default:
		err = fmt.Errorf("unknown event type %T", ev)
	}

	if err != nil {
		r.met.Failure()
		return err
	}

	r.met.SetPending(r.pending.len())
	r.met.SetPinned(len(r.members))
	return nil
}

// PendingCount returns the number of transactions observed but not settled.
func (r *Reconciler) PendingCount() int {
	return r.pending.len()
}

// Finalized returns the most recently finalized block hash, or "" before
// the first Finalized event.
func (r *Reconciler) Finalized() string {
	return r.finalized
}

func (r *Reconciler) handleNewTransaction(tx string) {
	if r.pending.has(tx) {
		return
	}
	if _, ok := r.settled[tx]; ok {
		return
	}
	r.pending.add(tx)
	r.log.Debug("Transaction pending", "tx", tx)
}

func (r *Reconciler) handleNewBlock(ctx context.Context, blockHash, parent string) error {
	if _, ok := r.processed[blockHash]; ok {
		return nil // block already processed
	}
	if _, ok := r.unpinned[blockHash]; ok {
		r.log.Warn("Ignoring announcement of an unpinned block", "block", blockHash)
		return nil
	}

	r.met.ChainCall("getBody")
	body, err := r.api.GetBody(ctx, blockHash)
	if err != nil {
		return fmt.Errorf("failed to get body of block %s: %w", blockHash, err)
	}
	included := make(map[string]struct{}, len(body))
	for _, tx := range body {
		included[tx] = struct{}{}
	}

	r.parents[blockHash] = parent
	if _, ok := r.members[blockHash]; !ok {
		// recorded even when no transaction settles here
		r.members[blockHash] = []string{}
	}

	order := r.pending.snapshot()
	kept := make([]string, 0, len(order))
	for i, tx := range order {
		settles, err := r.settlesIn(ctx, blockHash, tx, included)
		if err != nil {
			// the failed transaction and everything after it stay pending
			r.pending.reset(append(kept, order[i:]...))
			return err
		}
		if !settles {
			kept = append(kept, tx)
			continue
		}

		r.settled[tx] = blockHash
		r.members[blockHash] = append(r.members[blockHash], tx)
		r.met.Settled()
		r.log.Info("Transaction settled", "tx", tx, "block", blockHash)
		if err := r.out.TxSettled(ctx, tx, models.Settlement{Block: blockHash}); err != nil {
			// the settled transaction leaves the pending set either way
			r.pending.reset(append(kept, order[i+1:]...))
			return fmt.Errorf("failed to report settlement of tx %s: %w", tx, err)
		}
	}
	r.pending.reset(kept)
	r.processed[blockHash] = struct{}{}
	return nil
}

// settlesIn reports whether a pending transaction settles in this block:
// it must be included in the block body and valid in it. The validity
// lookup is only issued for included transactions.
func (r *Reconciler) settlesIn(ctx context.Context, blockHash, tx string, included map[string]struct{}) (bool, error) {
	if _, ok := included[tx]; !ok {
		return false, nil
	}
	if _, ok := r.settled[tx]; ok {
		return false, nil
	}

	r.met.ChainCall("isTxValid")
	valid, err := r.api.IsTxValid(ctx, blockHash, tx)
	if err != nil {
		return false, fmt.Errorf("failed to check validity of tx %s in block %s: %w", tx, blockHash, err)
	}
	return valid, nil
}

func (r *Reconciler) handleFinalized(ctx context.Context, blockHash string) error {
	if blockHash == r.finalized {
		return nil // block already finalized
	}
	if _, ok := r.unpinned[blockHash]; ok {
		r.log.Warn("Ignoring finalization of an unpinned block", "block", blockHash)
		return nil
	}

	// A block never announced via NewBlock has no membership record;
	// nothing settles there, but unpinning below still runs.
	for _, tx := range r.members[blockHash] {
		if _, ok := r.done[tx]; ok {
			continue
		}

		r.met.ChainCall("isTxSuccessful")
		successful, err := r.api.IsTxSuccessful(ctx, blockHash, tx)
		if err != nil {
			return fmt.Errorf("failed to check outcome of tx %s in block %s: %w", tx, blockHash, err)
		}

		r.done[tx] = struct{}{}
		r.met.Done()
		r.log.Info("Transaction done", "tx", tx, "block", blockHash, "successful", successful)
		if err := r.out.TxDone(ctx, tx, models.Done{Block: blockHash, Successful: successful}); err != nil {
			return fmt.Errorf("failed to report completion of tx %s: %w", tx, err)
		}
	}

	superseded := r.superseded(blockHash)
	if len(superseded) > 0 {
		r.met.ChainCall("unpin")
		if err := r.api.Unpin(ctx, superseded); err != nil {
			return fmt.Errorf("failed to unpin superseded blocks: %w", err)
		}
		r.met.Unpinned(len(superseded))
		for _, h := range superseded {
			r.unpinned[h] = struct{}{}
			delete(r.members, h)
			delete(r.parents, h)
			delete(r.processed, h)
		}
		r.log.Info("Unpinned superseded blocks", "finalized", blockHash, "count", len(superseded))
	}

	r.finalized = blockHash
	return nil
}

// superseded returns every known block provably no longer needed once
// blockHash is finalized: ancestors of blockHash older than it, and blocks
// on pruned forks (neither ancestor nor descendant of blockHash).
// Descendants of the finalized block stay pinned; they may still settle
// transactions. The result is sorted for deterministic unpin batches.
func (r *Reconciler) superseded(blockHash string) []string {
	onChain := make(map[string]struct{})
	for h := blockHash; ; {
		if _, ok := onChain[h]; ok {
			break
		}
		onChain[h] = struct{}{}
		p, ok := r.parents[h]
		if !ok {
			break
		}
		h = p
	}

	var out []string
	for h := range r.members {
		if h == blockHash {
			continue
		}
		if _, ok := onChain[h]; ok {
			out = append(out, h) // finalized ancestor, strictly older
			continue
		}
		if !r.descendsFrom(h, blockHash) {
			out = append(out, h) // pruned fork
		}
	}
	sort.Strings(out)
	return out
}

// descendsFrom reports whether h is blockHash or one of its descendants,
// following known parent links.
func (r *Reconciler) descendsFrom(h, blockHash string) bool {
	for {
		if h == blockHash {
			return true
		}
		p, ok := r.parents[h]
		if !ok {
			return false
		}
		h = p
	}
}
