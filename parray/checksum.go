package parray

import "github.com/cespare/xxhash/v2"

// ChecksumRange returns an xxhash fingerprint over the encoded form of
// records [from, to). It is a diagnostic, not part of the on-disk
// format: tests use it to confirm that a flush/reload round-trip
// reproduces byte-identical content without holding every record in
// memory at once for comparison.
func (a *Array[T]) ChecksumRange(from, to int) (uint64, error) {
	h := xxhash.New()
	buf := make([]byte, a.recordSize)
	for i := from; i < to; i++ {
		v, null, err := a.Get(i)
		if err != nil {
			return 0, err
		}
		a.codec.Encode(v, null, buf)
		if _, err := h.Write(buf); err != nil {
			return 0, err
		}
	}
	return h.Sum64(), nil
}
