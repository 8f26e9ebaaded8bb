// Package chunkqueue tracks the set of dirty, not-yet-flushed record
// indices for a persistent array's write path. It is a thin, ordered
// wrapper around a bitset, grounded on the bit-twiddling idioms of
// github.com/colinmarc/parray/bitset: membership is a single test-and-set,
// and ascending iteration over the dirty set drives gap-aware flush.
package chunkqueue

import (
	"math/bits"

	"github.com/colinmarc/parray/bitset"
)

// Queue is a bounded, ordered set of dirty record indices in
// [0, length). Capacity caps how many indices may be queued before the
// caller is expected to flush; it does not limit what Add will accept.
type Queue struct {
	length   int
	capacity int
	bits     []uintptr
	count    int
	first    int
}

// New returns an empty queue over indices [0, length) with the given
// write-chunk capacity.
func New(length, capacity int) *Queue {
	return &Queue{
		length:   length,
		capacity: capacity,
		bits:     bitset.NewClearBits(length),
		first:    -1,
	}
}

// Capacity returns the configured write-chunk capacity.
func (q *Queue) Capacity() int { return q.capacity }

// SetCapacity changes the write-chunk capacity. It does not evict or
// flush anything by itself; callers resize capacity around a flush.
func (q *Queue) SetCapacity(n int) { q.capacity = n }

// Count returns the number of indices currently queued.
func (q *Queue) Count() int { return q.count }

// Full reports whether the queue has reached its capacity.
func (q *Queue) Full() bool { return q.count >= q.capacity }

// Contains reports whether i is queued.
func (q *Queue) Contains(i int) bool {
	if i < 0 || i >= q.length {
		return false
	}
	return bitset.Test(q.bits, i)
}

// First returns the smallest queued index, or -1 if the queue is empty.
func (q *Queue) First() int { return q.first }

// After returns the smallest queued index strictly greater than i, or -1
// if there is none.
func (q *Queue) After(i int) int { return q.nextSet(i + 1) }

// Add inserts i into the queue, returning whether the queue is now full.
// Adding an index that is already queued is a no-op.
func (q *Queue) Add(i int) (full bool) {
	if !bitset.Test(q.bits, i) {
		bitset.Set(q.bits, i)
		q.count++
		if q.first == -1 || i < q.first {
			q.first = i
		}
	}
	return q.Full()
}

// Remove drops i from the queue, if present.
func (q *Queue) Remove(i int) {
	if !bitset.Test(q.bits, i) {
		return
	}
	bitset.Clear(q.bits, i)
	q.count--
	if i == q.first {
		q.first = q.nextSet(i + 1)
	}
}

// Clear empties the queue.
func (q *Queue) Clear() {
	for i := range q.bits {
		q.bits[i] = 0
	}
	q.count = 0
	q.first = -1
}

func (q *Queue) nextSet(from int) int {
	if from < 0 {
		from = 0
	}
	if from >= q.length {
		return -1
	}
	wordIdx := from / bitset.BitsPerWord
	bitOff := uint(from % bitset.BitsPerWord)
	if word := q.bits[wordIdx] >> bitOff; word != 0 {
		return from + bits.TrailingZeros64(uint64(word))
	}
	for w := wordIdx + 1; w < len(q.bits); w++ {
		if q.bits[w] != 0 {
			return w*bitset.BitsPerWord + bits.TrailingZeros64(uint64(q.bits[w]))
		}
	}
	return -1
}
