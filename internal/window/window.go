// Package window implements the bounded in-memory ring that a
// persistent array uses to hold its resident working set. It performs no
// I/O of its own: callers associate decoded values with an index, and
// the window tracks which index currently owns each ring slot.
package window

// Window is a ring of capacity slots. Slot i mod capacity holds at most
// one record index at a time; an owner of -1 marks an empty slot.
type Window[T any] struct {
	capacity int
	value    []T
	null     []bool
	owner    []int
}

// New returns an empty window with the given capacity. Capacity must be
// at least 1.
func New[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	owner := make([]int, capacity)
	for i := range owner {
		owner[i] = -1
	}
	return &Window[T]{
		capacity: capacity,
		value:    make([]T, capacity),
		null:     make([]bool, capacity),
		owner:    owner,
	}
}

// Capacity returns the number of ring slots.
func (w *Window[T]) Capacity() int { return w.capacity }

// Slot returns the ring slot that index i maps to.
func (w *Window[T]) Slot(i int) int { return i % w.capacity }

// Owner returns the index currently occupying i's slot, or -1 if the
// slot is empty. The returned index need not equal i.
func (w *Window[T]) Owner(i int) int { return w.owner[w.Slot(i)] }

// Contains reports whether index i is currently resident.
func (w *Window[T]) Contains(i int) bool { return w.owner[w.Slot(i)] == i }

// Get returns the value and null flag associated with index i. The
// caller is expected to have checked Contains first.
func (w *Window[T]) Get(i int) (T, bool) {
	s := w.Slot(i)
	return w.value[s], w.null[s]
}

// Associate binds index i to v in its ring slot, evicting whatever index
// previously occupied that slot.
func (w *Window[T]) Associate(i int, v T, isNull bool) {
	s := w.Slot(i)
	w.value[s] = v
	w.null[s] = isNull
	w.owner[s] = i
}

// Evict clears index i's slot, but only if i is still the current
// occupant.
func (w *Window[T]) Evict(i int) {
	s := w.Slot(i)
	if w.owner[s] == i {
		w.owner[s] = -1
		var zero T
		w.value[s] = zero
	}
}
