package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedSetPreservesArrivalOrder(t *testing.T) {
	s := newOrderedSet()

	assert.True(t, s.add("c"))
	assert.True(t, s.add("a"))
	assert.True(t, s.add("b"))
	assert.False(t, s.add("a"), "duplicate insert is rejected")

	assert.Equal(t, []string{"c", "a", "b"}, s.snapshot())
	assert.Equal(t, 3, s.len())
	assert.True(t, s.has("a"))
	assert.False(t, s.has("z"))
}

func TestOrderedSetReset(t *testing.T) {
	s := newOrderedSet()
	s.add("a")
	s.add("b")
	s.add("c")

	s.reset([]string{"b"})
	assert.Equal(t, []string{"b"}, s.snapshot())
	assert.False(t, s.has("a"), "index follows the reset")
	assert.True(t, s.has("b"))

	assert.True(t, s.add("a"), "removed item can re-enter, at the back")
	assert.Equal(t, []string{"b", "a"}, s.snapshot())
}

func TestOrderedSetSnapshotIsACopy(t *testing.T) {
	s := newOrderedSet()
	s.add("a")
	s.add("b")

	snap := s.snapshot()
	snap[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, s.snapshot())
}
