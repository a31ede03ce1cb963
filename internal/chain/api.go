package chain

import "context"

// API is the chain-data surface the reconciler queries on demand.
// Implementations are expected to be remote and lazy; the reconciler
// never issues a lookup it can answer from its own state.
type API interface {
	// GetBody returns the transaction hashes included in a block.
	GetBody(ctx context.Context, blockHash string) ([]string, error)

	// IsTxValid reports whether a transaction is validly included in a block.
	IsTxValid(ctx context.Context, blockHash, txHash string) (bool, error)

	// IsTxSuccessful reports the execution outcome of a settled transaction.
	IsTxSuccessful(ctx context.Context, blockHash, txHash string) (bool, error)

	// Unpin releases retained state for blocks no longer needed.
	Unpin(ctx context.Context, blockHashes []string) error
}

// HeadSource is the polling surface the live follower uses to turn chain
// state into events. It is separate from API because the reconciler core
// never needs it.
type HeadSource interface {
	// Head returns the latest observed block hash and its parent.
	Head(ctx context.Context) (blockHash, parent string, err error)

	// FinalizedHead returns the latest finalized block hash.
	FinalizedHead(ctx context.Context) (string, error)

	// PendingTransactions returns transaction hashes currently known to
	// the node but not yet included in a block.
	PendingTransactions(ctx context.Context) ([]string, error)
}
