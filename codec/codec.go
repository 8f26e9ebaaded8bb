// Package codec defines the encoding contract between a persistent array
// and the fixed-width records it stores.
//
// A Codec[T] is supplied by the caller at Create/Open time and owns the
// byte-for-byte shape of a single record, including its leading null
// marker. The package also keeps a small, non-generic registry of
// descriptors (tag plus record size) so that callers sharing a codec by
// tag can validate compatibility before they ever touch the generic
// Codec[T] itself.
package codec

import (
	"fmt"
	"sync"

	"github.com/colinmarc/parray/errors"
)

// Descriptor identifies a record encoding: a human-readable tag and the
// fixed number of bytes (including the null marker byte) every record
// occupies on disk.
type Descriptor struct {
	Tag  string
	Size int
}

// Codec encodes and decodes values of type T to and from fixed-width
// byte records. Encode must write exactly Descriptor().Size bytes to dst.
// Decode must interpret exactly that many bytes from src.
type Codec[T any] interface {
	Descriptor() Descriptor
	Encode(v T, isNull bool, dst []byte)
	Decode(src []byte) (v T, isNull bool, err error)
}

var registry = struct {
	mu    sync.Mutex
	descs map[string]Descriptor
}{descs: map[string]Descriptor{}}

// Register records a descriptor under its tag. Registering the same tag
// twice with a different size is rejected; registering it twice with an
// identical descriptor is a no-op.
func Register(d Descriptor) error {
	if d.Size < 2 {
		return errors.E(errors.Invalid, fmt.Sprintf("codec %q: size %d is smaller than the minimum of 2 (marker byte + payload)", d.Tag, d.Size))
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if existing, ok := registry.descs[d.Tag]; ok {
		if existing != d {
			return errors.E(errors.Invalid, fmt.Sprintf("codec %q already registered with size %d, cannot re-register with size %d", d.Tag, existing.Size, d.Size))
		}
		return nil
	}
	registry.descs[d.Tag] = d
	return nil
}

// Lookup returns the descriptor registered under tag, if any.
func Lookup(tag string) (Descriptor, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	d, ok := registry.descs[tag]
	return d, ok
}
