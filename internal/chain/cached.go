package chain

import (
	"context"
	"sync"
)

// Cached memoizes block bodies and per-(block, tx) validity lookups so that
// GetBody is issued at most once per distinct block hash and IsTxValid at
// most once per (block, tx) pair, even if the host redelivers an event after
// a partial failure. Unpinning a block drops its cached entries.
type Cached struct {
	api API

	mu     sync.Mutex
	bodies map[string][]string
	valid  map[string]map[string]bool
}

// NewCached wraps api with memoization.
func NewCached(api API) *Cached {
	return &Cached{
		api:    api,
		bodies: make(map[string][]string),
		valid:  make(map[string]map[string]bool),
	}
}

func (c *Cached) GetBody(ctx context.Context, blockHash string) ([]string, error) {
	c.mu.Lock()
	body, ok := c.bodies[blockHash]
	c.mu.Unlock()
	if ok {
		return body, nil
	}

	body, err := c.api.GetBody(ctx, blockHash)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.bodies[blockHash] = body
	c.mu.Unlock()
	return body, nil
}

func (c *Cached) IsTxValid(ctx context.Context, blockHash, txHash string) (bool, error) {
	c.mu.Lock()
	if perBlock, ok := c.valid[blockHash]; ok {
		if v, ok := perBlock[txHash]; ok {
			c.mu.Unlock()
			return v, nil
		}
	}
	c.mu.Unlock()

	v, err := c.api.IsTxValid(ctx, blockHash, txHash)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.valid[blockHash] == nil {
		c.valid[blockHash] = make(map[string]bool)
	}
	c.valid[blockHash][txHash] = v
	c.mu.Unlock()
	return v, nil
}

// IsTxSuccessful is not memoized: the reconciler asks exactly once per
// transaction by construction (the done set gates the lookup).
func (c *Cached) IsTxSuccessful(ctx context.Context, blockHash, txHash string) (bool, error) {
	return c.api.IsTxSuccessful(ctx, blockHash, txHash)
}

func (c *Cached) Unpin(ctx context.Context, blockHashes []string) error {
	if err := c.api.Unpin(ctx, blockHashes); err != nil {
		return err
	}
	c.mu.Lock()
	for _, h := range blockHashes {
		delete(c.bodies, h)
		delete(c.valid, h)
	}
	c.mu.Unlock()
	return nil
}
