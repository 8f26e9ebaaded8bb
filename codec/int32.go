package codec

import (
	"encoding/binary"

	"github.com/colinmarc/parray/errors"
)

const (
	int32NullMarker = 0x0F
	int32ValueMarker = 0x01
)

func init() {
	if err := Register(Int32{}.Descriptor()); err != nil {
		panic(err)
	}
}

// Int32 is the preregistered codec for 32-bit signed integers. Each
// record is 5 bytes: a leading marker byte (0x0F for null, 0x01 for
// value-present) followed by a 4-byte big-endian payload. Decode rejects
// any other marker byte with BadRecord.
type Int32 struct{}

// Descriptor implements Codec.
func (Int32) Descriptor() Descriptor {
	return Descriptor{Tag: "int32", Size: 5}
}

// Encode implements Codec.
func (Int32) Encode(v int32, isNull bool, dst []byte) {
	if isNull {
		dst[0] = int32NullMarker
		dst[1], dst[2], dst[3], dst[4] = 0, 0, 0, 0
		return
	}
	dst[0] = int32ValueMarker
	binary.BigEndian.PutUint32(dst[1:5], uint32(v))
}

// Decode implements Codec.
func (Int32) Decode(src []byte) (int32, bool, error) {
	switch src[0] {
	case int32NullMarker:
		return 0, true, nil
	case int32ValueMarker:
		return int32(binary.BigEndian.Uint32(src[1:5])), false, nil
	default:
		return 0, false, errors.E(errors.BadRecord, errors.NewF("unrecognized marker byte 0x%02x", src[0]))
	}
}
