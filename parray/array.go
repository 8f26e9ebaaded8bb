// Package parray implements a persistent fixed-record array: an
// indexable sequence of fixed-size records whose authoritative copy
// lives in a single backing file and whose working set lives in a
// bounded in-memory window. Records are demand-loaded on first access,
// writes are optionally coalesced into chunked flushes, and every
// interesting transition is reported to subscribers synchronously.
package parray

import (
	"bufio"
	"io"
	"os"

	"github.com/colinmarc/parray/codec"
	"github.com/colinmarc/parray/errors"
	"github.com/colinmarc/parray/internal/chunkqueue"
	"github.com/colinmarc/parray/internal/filecache"
	"github.com/colinmarc/parray/internal/layout"
	"github.com/colinmarc/parray/internal/window"
	"github.com/colinmarc/parray/log"
)

// Array is a persistent fixed-record array of element type T.
type Array[T any] struct {
	codec  codec.Codec[T]
	length int
	recordSize int
	layout layout.Fixed

	files *filecache.Cache

	window *window.Window[T]
	queue  *chunkqueue.Queue

	cfg  Config
	subs []Subscriber
}

// Create creates a new backing file at cfg.File.Path holding length
// records, all initially null, and returns an Array open on it. The file
// is written atomically: readers never observe a partially written file.
func Create[T any](length int, c codec.Codec[T], cfg Config) (*Array[T], error) {
	if length < 0 {
		return nil, errors.E(errors.Invalid, "length must be non-negative")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	desc := c.Descriptor()
	hdr := encodeHeader(header{
		version:    newVersion(layoutFixed),
		length:     int32(length),
		recordSize: int32(desc.Size),
	})
	nullRecord := make([]byte, desc.Size)
	c.Encode(*new(T), true, nullRecord)
	body := &repeatReader{remaining: length, pattern: nullRecord}
	if err := atomicCreate(cfg.File.Path, io.MultiReader(bytesReader(hdr), body)); err != nil {
		return nil, err
	}

	a, err := newArray(c, cfg, length, desc.Size)
	if err != nil {
		return nil, err
	}
	a.notify(Event{Kind: FileCreated})
	return a, nil
}

// Open opens an existing backing file at cfg.File.Path and returns an
// Array over it. The on-disk record size must match c.Descriptor().Size.
// preload, if non-empty, lists indices to eagerly load into the window
// (at most the window's capacity worth are honored).
func Open[T any](c codec.Codec[T], cfg Config, preload []int) (*Array[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	files := filecache.New(cfg.File.Path, cfg.File.Mode, cfg.File.Cached, cfg.File.Buffer)
	f, release, err := files.Acquire()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, headerSize)
	_, readErr := f.ReadAt(buf, 0)
	_ = release()
	if readErr != nil && readErr != io.EOF {
		return nil, errors.E(errors.BadHeader, readErr)
	}
	hdr, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}
	if err := hdr.version.checkCompatible(); err != nil {
		return nil, err
	}
	if hdr.version.layoutKind() != layoutFixed {
		return nil, errors.E(errors.UnsupportedLayout, "only the fixed record layout is supported")
	}
	desc := c.Descriptor()
	if int32(desc.Size) != hdr.recordSize {
		return nil, errors.E(errors.Invalid, errors.NewF("codec record size %d does not match file record size %d", desc.Size, hdr.recordSize))
	}

	a, err := newArrayWithFiles(c, cfg, files, int(hdr.length), int(hdr.recordSize))
	if err != nil {
		return nil, err
	}

	n := len(preload)
	if cap := a.window.Capacity(); n > cap {
		n = cap
	}
	for _, i := range preload[:n] {
		if _, _, err := a.Get(i); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func newArray[T any](c codec.Codec[T], cfg Config, length, recordSize int) (*Array[T], error) {
	files := filecache.New(cfg.File.Path, cfg.File.Mode, cfg.File.Cached, cfg.File.Buffer)
	return newArrayWithFiles(c, cfg, files, length, recordSize)
}

func newArrayWithFiles[T any](c codec.Codec[T], cfg Config, files *filecache.Cache, length, recordSize int) (*Array[T], error) {
	winSize := cfg.MemorySize
	if length > 0 && length < winSize {
		winSize = length
	}
	return &Array[T]{
		codec:      c,
		length:     length,
		recordSize: recordSize,
		layout:     layout.Fixed{HeaderSize: headerSize, RecordSize: int64(recordSize)},
		files:      files,
		window:     window.New[T](winSize),
		queue:      chunkqueue.New(length, cfg.writeSize()),
		cfg:        cfg,
		subs:       cfg.Subscribers,
	}, nil
}

// Length returns the number of records in the array.
func (a *Array[T]) Length() int { return a.length }

// RecordSize returns the on-disk size, in bytes, of one record.
func (a *Array[T]) RecordSize() int { return a.recordSize }

func (a *Array[T]) notify(e Event) {
	for _, s := range a.subs {
		s.Notify(e)
	}
}

func (a *Array[T]) checkIndex(i int) error {
	if i < 0 || i >= a.length {
		return errors.E(errors.IndexOutOfRange, errors.NewF("index %d, length %d", i, a.length))
	}
	return nil
}

// Get returns the value at index i, whether it is null, and an error.
// A cache miss (or a forced reload) triggers a synchronous load from the
// backing file before returning.
func (a *Array[T]) Get(i int) (value T, isNull bool, err error) {
	if err := a.checkIndex(i); err != nil {
		return value, false, err
	}
	if a.cfg.Read.ForceReload || !a.window.Contains(i) {
		if !a.cfg.Read.ForceReload {
			a.notify(Event{Kind: CacheMiss, Index: i})
			log.Debug.Printf("parray: cache miss at index %d", i)
		}
		if err := a.deserialize(i); err != nil {
			return value, false, err
		}
	}
	v, null := a.window.Get(i)
	return v, null, nil
}

// deserialize loads the prefetch run starting at i into the window.
func (a *Array[T]) deserialize(i int) error {
	size := 1
	if a.cfg.Read.Chunked {
		size = a.cfg.readSize()
	}
	limit := i + size
	if limit > a.length {
		limit = a.length
	}

	f, release, err := a.files.Acquire()
	if err != nil {
		return err
	}
	defer release()

	br := a.sectionReader(f, i)
	shouldSeek := false
	buf := make([]byte, a.recordSize)
	for o := i; o < limit; o++ {
		if !a.cfg.Read.ForceReload && a.window.Owner(o) == o {
			shouldSeek = true
			if a.cfg.Read.BreakOnLoaded {
				break
			}
			continue
		}
		if shouldSeek {
			br = a.sectionReader(f, o)
			shouldSeek = false
		}
		if _, err := io.ReadFull(br, buf); err != nil {
			return errors.E(errors.IOFailure, "read record", err)
		}
		v, null, err := a.codec.Decode(buf)
		if err != nil {
			return err
		}
		a.window.Associate(o, v, null)
		a.notify(Event{Kind: RecordDeserialized, Index: o})
	}
	a.notify(Event{Kind: ChunkDeserialized})
	return nil
}

func (a *Array[T]) sectionReader(f *os.File, from int) *bufio.Reader {
	off := a.layout.Offset(from)
	size := int64(a.length-from) * int64(a.recordSize)
	if size < 0 {
		size = 0
	}
	return bufio.NewReaderSize(io.NewSectionReader(f, off, size), a.cfg.File.Buffer)
}

// Set assigns v to index i, marking it non-null.
func (a *Array[T]) Set(i int, v T) error { return a.set(i, v, false) }

// SetNull marks index i as holding the null value.
func (a *Array[T]) SetNull(i int) error {
	var zero T
	return a.set(i, zero, true)
}

func (a *Array[T]) set(i int, v T, isNull bool) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	prior := a.window.Owner(i)
	if prior >= 0 && prior != i && a.queue.Contains(prior) {
		if a.cfg.Write.ForceFlush {
			if err := a.Flush(); err != nil {
				return err
			}
		} else if err := a.serializeOne(prior); err != nil {
			return err
		} else {
			a.queue.Remove(prior)
		}
		a.notify(Event{Kind: WriteCollision, Prior: prior, Incoming: i})
		log.Debug.Printf("parray: write collision in slot %d: prior=%d incoming=%d", a.window.Slot(i), prior, i)
	}

	a.window.Associate(i, v, isNull)
	if a.cfg.Write.Chunked {
		if a.queue.Add(i) {
			if err := a.Flush(); err != nil {
				return err
			}
		}
	} else if err := a.serializeOne(i); err != nil {
		return err
	}
	return nil
}

func (a *Array[T]) serializeOne(i int) error {
	f, release, err := a.files.Acquire()
	if err != nil {
		return err
	}
	defer release()

	v, null := a.window.Get(i)
	buf := make([]byte, a.recordSize)
	a.codec.Encode(v, null, buf)
	if _, err := f.WriteAt(buf, a.layout.Offset(i)); err != nil {
		return errors.E(errors.IOFailure, "write record", err)
	}
	a.notify(Event{Kind: RecordSerialized, Index: i})
	return nil
}

// Flush writes every queued dirty record to the backing file, coalescing
// contiguous runs into a single buffered write and seeking only across
// gaps. It is a no-op when writes are not chunked or nothing is queued.
func (a *Array[T]) Flush() error {
	if !a.cfg.Write.Chunked || a.queue.Count() == 0 {
		return nil
	}
	f, release, err := a.files.Acquire()
	if err != nil {
		return err
	}
	defer release()

	w := &offsetWriter{f: f, off: a.layout.Offset(a.queue.First())}
	bw := bufio.NewWriterSize(w, a.cfg.File.Buffer)
	buf := make([]byte, a.recordSize)
	prev := -1
	for i := a.queue.First(); i != -1; i = a.queue.After(i) {
		if prev != -1 && i != prev+1 {
			if err := bw.Flush(); err != nil {
				return errors.E(errors.IOFailure, "flush", err)
			}
			w = &offsetWriter{f: f, off: a.layout.Offset(i)}
			bw.Reset(w)
		}
		v, null := a.window.Get(i)
		a.codec.Encode(v, null, buf)
		if _, err := bw.Write(buf); err != nil {
			return errors.E(errors.IOFailure, "flush", err)
		}
		a.notify(Event{Kind: RecordSerialized, Index: i})
		prev = i
	}
	if err := bw.Flush(); err != nil {
		return errors.E(errors.IOFailure, "flush", err)
	}
	a.notify(Event{Kind: ChunkSerialized})
	a.queue.Clear()
	return nil
}

type offsetWriter struct {
	f   *os.File
	off int64
}

func (w *offsetWriter) Write(p []byte) (int, error) {
	n, err := w.f.WriteAt(p, w.off)
	w.off += int64(n)
	return n, err
}

// Fill sets every index to v and then flushes. For the duration of the
// sweep the write-chunk capacity is set to Config.Write.Size and restored
// afterwards; ResizeWrite updates Config.Write.Size together with the
// queue's capacity, so the sweep runs at the current write-chunk size.
func (a *Array[T]) Fill(v T) error {
	prior := a.queue.Capacity()
	a.queue.SetCapacity(a.cfg.writeSize())
	defer a.queue.SetCapacity(prior)
	for i := 0; i < a.length; i++ {
		if err := a.Set(i, v); err != nil {
			return err
		}
	}
	return a.Flush()
}

// ResizeRead changes the prefetch run length. It cannot exceed the
// window's capacity.
func (a *Array[T]) ResizeRead(n int) error {
	if n > a.window.Capacity() {
		return errors.E(errors.ReadChunkLimitExceeded, errors.NewF("read.size=%d exceeds memory.size=%d", n, a.window.Capacity()))
	}
	prior := a.cfg.Read.Size
	a.cfg.Read.Size = n
	a.notify(Event{Kind: ChunkResized, ResizeKind: ResizeRead, Prior: prior, Next: n})
	return nil
}

// ResizeWrite changes the write-chunk capacity, flushing first. It
// cannot exceed the window's capacity.
func (a *Array[T]) ResizeWrite(n int) error {
	if n > a.window.Capacity() {
		return errors.E(errors.WriteChunkLimitExceeded, errors.NewF("write.size=%d exceeds memory.size=%d", n, a.window.Capacity()))
	}
	if err := a.Flush(); err != nil {
		return err
	}
	prior := a.queue.Capacity()
	a.cfg.Write.Size = n
	a.queue.SetCapacity(n)
	a.notify(Event{Kind: ChunkResized, ResizeKind: ResizeWrite, Prior: prior, Next: n})
	return nil
}

// ResizeMemory changes the window's capacity, flushing first and
// discarding all resident records. It cannot go below the configured
// read or write chunk sizes.
func (a *Array[T]) ResizeMemory(n int) error {
	if n < a.cfg.readSize() {
		return errors.E(errors.ReadChunkLimitExceeded, errors.NewF("memory.size=%d is smaller than read.size=%d", n, a.cfg.readSize()))
	}
	if n < a.cfg.writeSize() {
		return errors.E(errors.WriteChunkLimitExceeded, errors.NewF("memory.size=%d is smaller than write.size=%d", n, a.cfg.writeSize()))
	}
	if err := a.Flush(); err != nil {
		return err
	}
	prior := a.window.Capacity()
	a.window = window.New[T](n)
	a.cfg.MemorySize = n
	a.notify(Event{Kind: ChunkResized, ResizeKind: ResizeMemory, Prior: prior, Next: n})
	return nil
}

// Close flushes any queued writes and releases the backing file handle.
// It is idempotent and best-effort: it always attempts both steps and
// returns the first error encountered.
func (a *Array[T]) Close() (err error) {
	err = a.Flush()
	errors.CleanUp(a.files.Shutdown, &err)
	return err
}

// Clear closes the array, deletes its backing file if present, and
// resets the in-memory window and write queue to empty.
func (a *Array[T]) Clear() error {
	if err := a.Close(); err != nil {
		return err
	}
	if err := os.Remove(a.cfg.File.Path); err != nil && !os.IsNotExist(err) {
		return errors.E(errors.IOFailure, "clear", err)
	}
	a.window = window.New[T](a.window.Capacity())
	a.queue.Clear()
	return nil
}

// ArrayCopy copies n records from src starting at srcPos into dst
// starting at dstPos, preserving null markers.
func ArrayCopy[T any](src *Array[T], srcPos int, dst *Array[T], dstPos, n int) error {
	for k := 0; k < n; k++ {
		v, null, err := src.Get(srcPos + k)
		if err != nil {
			return err
		}
		if null {
			if err := dst.SetNull(dstPos + k); err != nil {
				return err
			}
			continue
		}
		if err := dst.Set(dstPos+k, v); err != nil {
			return err
		}
	}
	return nil
}

type repeatReader struct {
	remaining int
	pattern   []byte
	off       int
}

func (r *repeatReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.remaining == 0 {
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		c := copy(p[n:], r.pattern[r.off:])
		n += c
		r.off += c
		if r.off == len(r.pattern) {
			r.off = 0
			r.remaining--
		}
	}
	return n, nil
}

func bytesReader(b []byte) io.Reader { return &sliceReader{b: b} }

type sliceReader struct {
	b   []byte
	off int
}

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.off >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.off:])
	r.off += n
	return n, nil
}
