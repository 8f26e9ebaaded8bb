package parray

import (
	"fmt"

	"github.com/colinmarc/parray/errors"
	"github.com/colinmarc/parray/internal/filecache"
)

// FileMode mirrors internal/filecache.Mode, re-exported so callers need
// not import the internal package to build a Config.
type FileMode = filecache.Mode

// The four supported file open modes.
const (
	R   = filecache.R
	RW  = filecache.RW
	RWS = filecache.RWS
	RWD = filecache.RWD
)

// FileConfig describes how the backing file is opened.
type FileConfig struct {
	// Path is the backing file's path.
	Path string
	// Mode is one of R, RW, RWS, RWD.
	Mode FileMode
	// Buffer is the size, in bytes, of buffered sequential I/O.
	Buffer int
	// Cached keeps a single open file handle alive across operations
	// instead of opening and closing one per access.
	Cached bool
}

// ReadConfig controls demand-loading behavior.
type ReadConfig struct {
	// Chunked enables prefetching Size records on a cache miss instead
	// of loading exactly one.
	Chunked bool
	// Size is the prefetch run length when Chunked is set.
	Size int
	// ForceReload bypasses the window on every Get, always reading from
	// the backing file.
	ForceReload bool
	// BreakOnLoaded stops a prefetch run as soon as it reaches an index
	// that is already resident, rather than reading past it.
	BreakOnLoaded bool
}

// WriteConfig controls how writes reach the backing file.
type WriteConfig struct {
	// Chunked defers writes in a dirty-index queue instead of writing
	// each Set immediately.
	Chunked bool
	// Size is the maximum number of dirty indices queued before an
	// automatic Flush.
	Size int
	// ForceFlush resolves a slot collision by flushing the entire queue
	// rather than serializing only the evicted record.
	ForceFlush bool
}

// Config configures a persistent array's storage and caching behavior.
type Config struct {
	File FileConfig
	Read ReadConfig
	Write WriteConfig

	// MemorySize is the capacity, in records, of the in-memory window.
	MemorySize int

	// Subscribers receive lifecycle and I/O events as they occur.
	Subscribers []Subscriber
}

// DefaultConfig returns a Config with conservative, cached, unchunked
// defaults for the backing file at path.
func DefaultConfig(path string) Config {
	return Config{
		File: FileConfig{Path: path, Mode: RW, Buffer: 4096, Cached: true},
		Read: ReadConfig{Size: 1},
		Write: WriteConfig{Size: 1},
		MemorySize: 256,
	}
}

func (c Config) readSize() int {
	if c.Read.Size <= 0 {
		return 1
	}
	return c.Read.Size
}

func (c Config) writeSize() int {
	if c.Write.Size <= 0 {
		return 1
	}
	return c.Write.Size
}

func (c Config) validate() error {
	if c.File.Path == "" {
		return errors.E(errors.Invalid, "file.path is required")
	}
	r, w := c.readSize(), c.writeSize()
	if c.MemorySize < r {
		return errors.E(errors.ReadChunkLimitExceeded, fmt.Sprintf("memory.size=%d is smaller than read.size=%d", c.MemorySize, r))
	}
	if c.MemorySize < w {
		return errors.E(errors.WriteChunkLimitExceeded, fmt.Sprintf("memory.size=%d is smaller than write.size=%d", c.MemorySize, w))
	}
	return nil
}
