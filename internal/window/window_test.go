package window_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colinmarc/parray/internal/window"
)

func TestAssociateAndContains(t *testing.T) {
	w := window.New[int](4)
	require.False(t, w.Contains(2))
	w.Associate(2, 99, false)
	require.True(t, w.Contains(2))
	v, null := w.Get(2)
	require.Equal(t, 99, v)
	require.False(t, null)
}

func TestAssociateEvictsSlotmate(t *testing.T) {
	w := window.New[int](4)
	w.Associate(2, 99, false)
	w.Associate(6, 100, false) // same slot as 2 (6 mod 4 == 2)
	require.False(t, w.Contains(2))
	require.True(t, w.Contains(6))
	require.Equal(t, 6, w.Owner(2))
}

func TestEvictOnlyIfCurrentOwner(t *testing.T) {
	w := window.New[int](4)
	w.Associate(2, 1, false)
	w.Associate(6, 2, false)
	w.Evict(2) // 2 is no longer the slot's owner; should be a no-op
	require.True(t, w.Contains(6))
	w.Evict(6)
	require.False(t, w.Contains(6))
	require.Equal(t, -1, w.Owner(6))
}

func TestNullFlag(t *testing.T) {
	w := window.New[int](4)
	w.Associate(0, 0, true)
	_, null := w.Get(0)
	require.True(t, null)
}

func TestMinimumCapacity(t *testing.T) {
	w := window.New[int](0)
	require.Equal(t, 1, w.Capacity())
}
