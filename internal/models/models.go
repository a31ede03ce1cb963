package models

// Event is one entry of the totally-ordered chain event stream.
// Events are handed to the reconciler one at a time, in arrival order.
type Event interface {
	isEvent()
}

// NewTransaction announces a transaction hash seen in the network,
// not yet included in any processed block.
type NewTransaction struct {
	Tx string
}

// NewBlock announces a processed block and its parent hash.
type NewBlock struct {
	Block  string
	Parent string
}

// Finalized announces that a block (and implicitly its ancestors) is
// irreversible. Not every finalized block is announced; finalization
// may skip intermediate blocks.
type Finalized struct {
	Block string
}

func (NewTransaction) isEvent() {}
func (NewBlock) isEvent()       {}
func (Finalized) isEvent()      {}

// Settlement reports the block in which a transaction was first observed
// included and valid. The execution outcome is not known at this point.
type Settlement struct {
	Block string
}

// Done reports the finalization of a transaction's settling block together
// with its execution outcome.
type Done struct {
	Block      string
	Successful bool
}
