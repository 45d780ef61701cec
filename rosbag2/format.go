// Package rosbag2 reads and writes the rosbag2 container format: a
// directory holding a metadata.yaml description and one or more sqlite
// .db3 message stores.
package rosbag2

import "go.viam.com/rosbags/rosbagerr"

const (
	storageIdentifier = "sqlite3"
	minVersion        = 1
	maxVersion        = 5
)

// CompressionMode names which part of a rosbag2 bag is zstd-compressed.
type CompressionMode string

// The supported rosbag2 compression modes.
const (
	CompressionNone    CompressionMode = "none"
	CompressionFile    CompressionMode = "file"
	CompressionMessage CompressionMode = "message"
)

// CompressionFormat names the compression algorithm. zstd is the only
// one rosbag2 metadata can name here.
const CompressionFormatZstd = "zstd"

func validCompressionMode(m CompressionMode) bool {
	switch m {
	case CompressionNone, CompressionFile, CompressionMessage, "":
		return true
	default:
		return false
	}
}

// Topic is a rosbag2 connection: a topic name paired with its message
// type and ROS2 serialization/QoS metadata.
type Topic struct {
	Name                string
	Type                string
	SerializationFormat string
	OfferedQoSProfiles  string
}

// Message is a single stored message: which topic it belongs to, its
// recorded timestamp in nanoseconds since epoch, and its raw
// (already-decompressed) serialized bytes.
type Message struct {
	TopicName   string
	TimestampNs uint64
	Data        []byte
}

func checkVersion(v int) error {
	if v < minVersion || v > maxVersion {
		return rosbagerr.VersionUnsupported(v)
	}
	return nil
}
