package sink

import (
	"context"

	"github.com/manifest-network/tracker/internal/models"
)

// Sink receives lifecycle notifications from the reconciler. Both callbacks
// are invoked synchronously, at most once per transaction, in the order the
// transactions were first observed.
type Sink interface {
	// TxSettled reports that a transaction was included and valid in a block.
	TxSettled(ctx context.Context, tx string, s models.Settlement) error

	// TxDone reports that a transaction's settling block was finalized.
	TxDone(ctx context.Context, tx string, d models.Done) error

	// Close releases the sink's resources.
	Close() error
}
