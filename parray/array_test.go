package parray_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colinmarc/parray/codec"
	"github.com/colinmarc/parray/errors"
	"github.com/colinmarc/parray/parray"
)

// corruptLayoutByte flips the on-disk layout_flags byte (offset 9, right
// after the 6-byte magic and the critical/major/minor bytes) to the
// reserved variable-layout value, so Open is exercised against a header
// this implementation does not support.
func corruptLayoutByte(t *testing.T, path string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteAt([]byte{0x00}, 9)
	require.NoError(t, err)
}

type recorder struct {
	events []parray.Event
}

func (r *recorder) Notify(e parray.Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []parray.EventKind {
	var ks []parray.EventKind
	for _, e := range r.events {
		ks = append(ks, e.Kind)
	}
	return ks
}

func (r *recorder) count(kind parray.EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func newConfig(t *testing.T, mutate func(*parray.Config)) parray.Config {
	t.Helper()
	cfg := parray.DefaultConfig(filepath.Join(t.TempDir(), "array.parray"))
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func TestCreateThenGetAllNull(t *testing.T) {
	cfg := newConfig(t, nil)
	a, err := parray.Create[int32](10, codec.Int32{}, cfg)
	require.NoError(t, err)
	defer a.Close()

	for i := 0; i < 10; i++ {
		v, null, err := a.Get(i)
		require.NoError(t, err)
		require.True(t, null)
		require.Equal(t, int32(0), v)
	}
}

func TestCreateEmitsFileCreated(t *testing.T) {
	rec := &recorder{}
	cfg := newConfig(t, func(c *parray.Config) { c.Subscribers = []parray.Subscriber{rec} })
	a, err := parray.Create[int32](4, codec.Int32{}, cfg)
	require.NoError(t, err)
	defer a.Close()
	require.Equal(t, 1, rec.count(parray.FileCreated))
}

func TestIndexOutOfRange(t *testing.T) {
	cfg := newConfig(t, nil)
	a, err := parray.Create[int32](4, codec.Int32{}, cfg)
	require.NoError(t, err)
	defer a.Close()

	_, _, err = a.Get(4)
	require.True(t, errors.Is(errors.IndexOutOfRange, err))
	require.True(t, errors.Is(errors.IndexOutOfRange, a.Set(-1, 1)))
}

func TestSetGetRoundTrip(t *testing.T) {
	cfg := newConfig(t, nil)
	a, err := parray.Create[int32](16, codec.Int32{}, cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Set(3, 77))
	v, null, err := a.Get(3)
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, int32(77), v)
}

func TestCreateFillReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "array.parray")
	cfg := parray.DefaultConfig(path)
	cfg.MemorySize = 8

	a, err := parray.Create[int32](32, codec.Int32{}, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Fill(9))
	require.NoError(t, a.Close())

	b, err := parray.Open[int32](codec.Int32{}, cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	for i := 0; i < 32; i++ {
		v, null, err := b.Get(i)
		require.NoError(t, err)
		require.False(t, null)
		require.Equal(t, int32(9), v)
	}
}

func TestSlotCollisionWithQueuedPredecessor(t *testing.T) {
	rec := &recorder{}
	cfg := newConfig(t, func(c *parray.Config) {
		c.MemorySize = 4
		c.Write.Chunked = true
		c.Write.Size = 4 // at most MemorySize; two Sets never fill the queue
		c.Subscribers = []parray.Subscriber{rec}
	})
	a, err := parray.Create[int32](16, codec.Int32{}, cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Set(2, 100)) // slot 2, queued
	require.NoError(t, a.Set(6, 200)) // slot 6%4==2, collides with queued 2

	require.Equal(t, 1, rec.count(parray.WriteCollision))

	v, null, err := a.Get(2) // 2 was evicted; must reload from disk
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, int32(100), v) // the collision serialized it before eviction
}

func TestForceReloadBypassesCache(t *testing.T) {
	rec := &recorder{}
	cfg := newConfig(t, func(c *parray.Config) {
		c.Read.ForceReload = true
		c.Subscribers = []parray.Subscriber{rec}
	})
	a, err := parray.Create[int32](8, codec.Int32{}, cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Set(5, 42))
	v, null, err := a.Get(5)
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, int32(42), v)
	require.Equal(t, 1, rec.count(parray.RecordDeserialized))
	require.Equal(t, 0, rec.count(parray.CacheMiss)) // force_reload never reports a cache miss
}

func TestPreloadOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "array.parray")
	cfg := parray.DefaultConfig(path)
	a, err := parray.Create[int32](16, codec.Int32{}, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Set(3, 1))
	require.NoError(t, a.Set(7, 2))
	require.NoError(t, a.Close())

	rec := &recorder{}
	cfg.Subscribers = []parray.Subscriber{rec}
	b, err := parray.Open[int32](codec.Int32{}, cfg, []int{3, 7})
	require.NoError(t, err)
	defer b.Close()

	rec.events = nil // discard preload's own load events
	_, _, err = b.Get(3)
	require.NoError(t, err)
	require.Equal(t, 0, rec.count(parray.CacheMiss)) // already resident from preload
}

func TestGapAwareChunkFlush(t *testing.T) {
	cfg := newConfig(t, func(c *parray.Config) {
		c.MemorySize = 32
		c.Write.Chunked = true
		c.Write.Size = 32
	})
	a, err := parray.Create[int32](32, codec.Int32{}, cfg)
	require.NoError(t, err)

	indices := []int{1, 2, 3, 10, 11, 20}
	for _, i := range indices {
		require.NoError(t, a.Set(i, int32(i*10)))
	}
	require.NoError(t, a.Close())

	b, err := parray.Open[int32](codec.Int32{}, cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	for _, i := range indices {
		v, null, err := b.Get(i)
		require.NoError(t, err)
		require.False(t, null)
		require.Equal(t, int32(i*10), v)
	}
	// Untouched indices remain null.
	v, null, err := b.Get(15)
	require.NoError(t, err)
	require.True(t, null)
	require.Equal(t, int32(0), v)
}

func TestResizeReadExceedsMemory(t *testing.T) {
	cfg := newConfig(t, func(c *parray.Config) { c.MemorySize = 4 })
	a, err := parray.Create[int32](4, codec.Int32{}, cfg)
	require.NoError(t, err)
	defer a.Close()
	err = a.ResizeRead(5)
	require.True(t, errors.Is(errors.ReadChunkLimitExceeded, err))
}

func TestResizeWriteFlushesFirst(t *testing.T) {
	rec := &recorder{}
	cfg := newConfig(t, func(c *parray.Config) {
		c.MemorySize = 8
		c.Write.Chunked = true
		c.Write.Size = 8
		c.Subscribers = []parray.Subscriber{rec}
	})
	a, err := parray.Create[int32](8, codec.Int32{}, cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Set(0, 1))
	require.Equal(t, 0, rec.count(parray.ChunkSerialized)) // still only queued
	require.NoError(t, a.ResizeWrite(2))
	require.Equal(t, 1, rec.count(parray.ChunkSerialized)) // the resize flushed the queue

	v, null, err := a.Get(0) // still in the window, but now flushed to disk too
	require.NoError(t, err)
	require.False(t, null)
	require.Equal(t, int32(1), v)
}

func TestResizeMemoryBelowReadSize(t *testing.T) {
	cfg := newConfig(t, func(c *parray.Config) {
		c.MemorySize = 8
		c.Read.Chunked = true
		c.Read.Size = 4
	})
	a, err := parray.Create[int32](8, codec.Int32{}, cfg)
	require.NoError(t, err)
	defer a.Close()
	err = a.ResizeMemory(2)
	require.True(t, errors.Is(errors.ReadChunkLimitExceeded, err))
}

func TestClearDeletesFileAndResetsWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "array.parray")
	cfg := parray.DefaultConfig(path)
	a, err := parray.Create[int32](4, codec.Int32{}, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Set(1, 5))
	require.NoError(t, a.Clear())

	_, err = parray.Open[int32](codec.Int32{}, cfg, nil)
	require.Error(t, err) // file no longer exists
}

func TestArrayCopy(t *testing.T) {
	srcCfg := newConfig(t, nil)
	dstCfg := newConfig(t, nil)
	src, err := parray.Create[int32](8, codec.Int32{}, srcCfg)
	require.NoError(t, err)
	defer src.Close()
	dst, err := parray.Create[int32](8, codec.Int32{}, dstCfg)
	require.NoError(t, err)
	defer dst.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, src.Set(i, int32(i+1)))
	}
	require.NoError(t, parray.ArrayCopy(src, 0, dst, 4, 4))

	for i := 0; i < 4; i++ {
		v, null, err := dst.Get(4 + i)
		require.NoError(t, err)
		require.False(t, null)
		require.Equal(t, int32(i+1), v)
	}
}

func TestChecksumRangeMatchesAfterReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "array.parray")
	cfg := parray.DefaultConfig(path)
	cfg.Write.Chunked = true
	cfg.Write.Size = 4
	a, err := parray.Create[int32](16, codec.Int32{}, cfg)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		require.NoError(t, a.Set(i, int32(i)))
	}
	want, err := a.ChecksumRange(0, 16)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := parray.Open[int32](codec.Int32{}, cfg, nil)
	require.NoError(t, err)
	defer b.Close()
	got, err := b.ChecksumRange(0, 16)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestUnsupportedLayoutRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "array.parray")
	cfg := parray.DefaultConfig(path)
	a, err := parray.Create[int32](4, codec.Int32{}, cfg)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	corruptLayoutByte(t, path)

	_, err = parray.Open[int32](codec.Int32{}, cfg, nil)
	require.True(t, errors.Is(errors.UnsupportedLayout, err))
}
