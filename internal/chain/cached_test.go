package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAPI struct {
	bodyCalls    map[string]int
	validCalls   map[string]int
	successCalls map[string]int
	unpins       [][]string
}

func newCountingAPI() *countingAPI {
	return &countingAPI{
		bodyCalls:    map[string]int{},
		validCalls:   map[string]int{},
		successCalls: map[string]int{},
	}
}

func (c *countingAPI) GetBody(_ context.Context, blockHash string) ([]string, error) {
	c.bodyCalls[blockHash]++
	return []string{"t1", "t2"}, nil
}

func (c *countingAPI) IsTxValid(_ context.Context, blockHash, txHash string) (bool, error) {
	c.validCalls[blockHash+"/"+txHash]++
	return true, nil
}

func (c *countingAPI) IsTxSuccessful(_ context.Context, blockHash, txHash string) (bool, error) {
	c.successCalls[blockHash+"/"+txHash]++
	return true, nil
}

func (c *countingAPI) Unpin(_ context.Context, blockHashes []string) error {
	c.unpins = append(c.unpins, blockHashes)
	return nil
}

func TestCachedMemoizesBodies(t *testing.T) {
	inner := newCountingAPI()
	c := NewCached(inner)
	ctx := context.Background()

	for range 3 {
		body, err := c.GetBody(ctx, "B1")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2"}, body)
	}
	assert.Equal(t, 1, inner.bodyCalls["B1"])

	_, err := c.GetBody(ctx, "B2")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.bodyCalls["B2"])
}

func TestCachedMemoizesValidityPerPair(t *testing.T) {
	inner := newCountingAPI()
	c := NewCached(inner)
	ctx := context.Background()

	for range 2 {
		_, err := c.IsTxValid(ctx, "B1", "t1")
		require.NoError(t, err)
		_, err = c.IsTxValid(ctx, "B1", "t2")
		require.NoError(t, err)
		_, err = c.IsTxValid(ctx, "B2", "t1")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, inner.validCalls["B1/t1"])
	assert.Equal(t, 1, inner.validCalls["B1/t2"])
	assert.Equal(t, 1, inner.validCalls["B2/t1"])
}

func TestCachedDoesNotMemoizeOutcomes(t *testing.T) {
	inner := newCountingAPI()
	c := NewCached(inner)
	ctx := context.Background()

	_, err := c.IsTxSuccessful(ctx, "B1", "t1")
	require.NoError(t, err)
	_, err = c.IsTxSuccessful(ctx, "B1", "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.successCalls["B1/t1"])
}

func TestCachedUnpinEvicts(t *testing.T) {
	inner := newCountingAPI()
	c := NewCached(inner)
	ctx := context.Background()

	_, err := c.GetBody(ctx, "B1")
	require.NoError(t, err)
	_, err = c.IsTxValid(ctx, "B1", "t1")
	require.NoError(t, err)

	require.NoError(t, c.Unpin(ctx, []string{"B1"}))
	require.Len(t, inner.unpins, 1)

	_, err = c.GetBody(ctx, "B1")
	require.NoError(t, err)
	_, err = c.IsTxValid(ctx, "B1", "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.bodyCalls["B1"])
	assert.Equal(t, 2, inner.validCalls["B1/t1"])
}
