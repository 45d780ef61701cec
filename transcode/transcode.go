// Package transcode converts rosbag message payloads directly between
// the ROS1 wire format and CDR, one byte span at a time, guided only by
// the registered type tree — it never builds a typesys-independent typed
// value the way cdr and ros1wire do. This is what lets a converter move
// an entire bag without paying the cost of a full decode/re-encode
// round trip through Go values for every message.
package transcode

import (
	"encoding/binary"

	"go.viam.com/rosbags/rosbagerr"
	"go.viam.com/rosbags/typesys"
)

// headerTypeName is the one type both wire formats represent
// differently: ROS1 carries a leading 4-byte seq that ROS2/CDR does not
// (spec.md §4.5).
const headerTypeName = "std_msgs/msg/Header"

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func primitiveWireSize(kind typesys.PrimitiveKind) (int, error) {
	switch kind {
	case typesys.Bool, typesys.Byte, typesys.Char, typesys.Int8, typesys.Uint8:
		return 1, nil
	case typesys.Int16, typesys.Uint16:
		return 2, nil
	case typesys.Int32, typesys.Uint32, typesys.Float32:
		return 4, nil
	case typesys.Int64, typesys.Uint64, typesys.Float64:
		return 8, nil
	case typesys.Time, typesys.Duration:
		return 8, nil
	default:
		return 0, rosbagerr.BadLength("primitive kind %d has no fixed wire size", kind)
	}
}

func readLE32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func putLE32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
