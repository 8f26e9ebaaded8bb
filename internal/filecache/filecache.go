// Package filecache owns the single backing file handle of a persistent
// array. In cached mode it opens the file once and hands out the same
// *os.File on every Acquire; in uncached mode it opens and closes a
// fresh handle per acquisition. It also applies the platform's durability
// and advisory-locking semantics implied by the configured file mode, in
// the style of file.localFile's accessMode handling.
package filecache

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/colinmarc/parray/errors"
	"github.com/colinmarc/parray/log"
)

// Mode selects how the backing file is opened, mirroring the historical
// java.io.RandomAccessFile mode strings.
type Mode int

const (
	// R opens the file read-only.
	R Mode = iota
	// RW opens the file read-write with no extra durability guarantee.
	RW
	// RWS opens the file read-write and synchronizes both file content
	// and metadata on every write.
	RWS
	// RWD opens the file read-write and synchronizes file content (but
	// not necessarily metadata) on every write.
	RWD
)

func (m Mode) osFlags() int {
	switch m {
	case R:
		return os.O_RDONLY
	case RW:
		return os.O_RDWR
	case RWS:
		return os.O_RDWR | os.O_SYNC
	case RWD:
		return os.O_RDWR | unix.O_DSYNC
	default:
		return os.O_RDWR
	}
}

func (m Mode) wantsLock() bool { return m == RWS || m == RWD }

// Cache owns the backing file for one persistent array.
type Cache struct {
	path   string
	mode   Mode
	cached bool
	buffer int

	handle *os.File
	locked bool
}

// New returns a Cache for path. The file is not opened until the first
// Acquire.
func New(path string, mode Mode, cached bool, buffer int) *Cache {
	if buffer <= 0 {
		buffer = 4096
	}
	return &Cache{path: path, mode: mode, cached: cached, buffer: buffer}
}

// Path returns the backing file path.
func (c *Cache) Path() string { return c.path }

// Buffer returns the configured I/O buffer size.
func (c *Cache) Buffer() int { return c.buffer }

// Acquire returns a handle to the backing file and a release function
// the caller must invoke when done with it. In cached mode, release is a
// no-op and the same *os.File is returned on every call; in uncached
// mode each call opens a fresh handle that release closes.
func (c *Cache) Acquire() (*os.File, func() error, error) {
	if c.cached {
		if c.handle == nil {
			f, err := c.open()
			if err != nil {
				return nil, nil, err
			}
			c.handle = f
			c.tryLock(f)
		}
		return c.handle, func() error { return nil }, nil
	}
	f, err := c.open()
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (c *Cache) open() (*os.File, error) {
	f, err := os.OpenFile(c.path, c.mode.osFlags(), 0644)
	if err != nil {
		return nil, errors.E(errors.IOFailure, "open backing file", err)
	}
	return f, nil
}

func (c *Cache) tryLock(f *os.File) {
	if !c.mode.wantsLock() {
		return
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		log.Error.Printf("filecache: advisory lock of %s failed, continuing without it: %v", c.path, err)
		return
	}
	c.locked = true
}

// Shutdown releases the cached handle, if any. It is idempotent.
func (c *Cache) Shutdown() error {
	if c.handle == nil {
		return nil
	}
	if c.locked {
		_ = unix.Flock(int(c.handle.Fd()), unix.LOCK_UN)
		c.locked = false
	}
	err := c.handle.Close()
	c.handle = nil
	if err != nil {
		return errors.E(errors.IOFailure, "close backing file", err)
	}
	return nil
}
