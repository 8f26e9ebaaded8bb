package parray

import (
	"bytes"
	"encoding/binary"

	"github.com/colinmarc/parray/errors"
)

// headerSize is magic(6) + version(4) + length(1+4) + record_size(1+4).
const headerSize = 20

const (
	hdrNullMarker    byte = 0x0F
	hdrPresentMarker byte = 0x01
)

var magic = [6]byte{0xDE, 0xCA, 0xDA, 0xFA, 0xCA, 0xDA}

const (
	layoutVariable byte = 0
	layoutFixed    byte = 1
)

const (
	currentCritical byte = 1
	currentMajor    byte = 1
	currentMinor    byte = 0
)

// version is the 4-byte word following the magic: critical, major,
// minor, and a layout_flags bitfield (AABBCCDD, with DD the low two
// bits). Only the layout bits are interpreted; ordering and chunking
// bits are reserved for a future on-disk revision.
type version struct {
	critical, major, minor byte
	flags                  byte
}

func (v version) layoutKind() byte { return v.flags & 0x03 }

func newVersion(layoutKind byte) version {
	return version{critical: currentCritical, major: currentMajor, minor: currentMinor, flags: layoutKind}
}

func (v version) checkCompatible() error {
	if v.critical != currentCritical {
		return errors.E(errors.IncompatibleVersion, errors.NewF("critical version %d, reader supports %d", v.critical, currentCritical))
	}
	if v.major > currentMajor {
		return errors.E(errors.IncompatibleVersion, errors.NewF("major version %d, reader supports up to %d", v.major, currentMajor))
	}
	return nil
}

type header struct {
	version    version
	length     int32
	recordSize int32
}

func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:6], magic[:])
	buf[6], buf[7], buf[8], buf[9] = h.version.critical, h.version.major, h.version.minor, h.version.flags
	buf[10] = hdrPresentMarker
	binary.BigEndian.PutUint32(buf[11:15], uint32(h.length))
	buf[15] = hdrPresentMarker
	binary.BigEndian.PutUint32(buf[16:20], uint32(h.recordSize))
	return buf
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, errors.E(errors.BadHeader, "header truncated")
	}
	if !bytes.Equal(buf[0:6], magic[:]) {
		return header{}, errors.E(errors.BadHeader, "magic mismatch")
	}
	v := version{critical: buf[6], major: buf[7], minor: buf[8], flags: buf[9]}
	if buf[10] == hdrNullMarker {
		return header{}, errors.E(errors.BadHeader, "length field marked null")
	}
	length := int32(binary.BigEndian.Uint32(buf[11:15]))
	if buf[15] == hdrNullMarker {
		return header{}, errors.E(errors.BadHeader, "record_size field marked null")
	}
	recordSize := int32(binary.BigEndian.Uint32(buf[16:20]))
	if length < 0 {
		return header{}, errors.E(errors.BadHeader, "negative length")
	}
	if recordSize < 2 {
		return header{}, errors.E(errors.BadHeader, "record_size smaller than the minimum of 2")
	}
	return header{version: v, length: length, recordSize: recordSize}, nil
}
