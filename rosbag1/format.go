// Package rosbag1 reads and writes the legacy rosbag1 container format: a
// single file holding a magic line, a stream of length-prefixed records
// (chunks, connections, message data, and an index region), and a
// bag-header record pointing at that index region.
package rosbag1

import "go.viam.com/rosbags/rosbagerr"

const (
	magicLine = "#ROSBAG V2.0\n"

	// bagHeaderReservedLen is the fixed size, in bytes, reserved for the
	// bag-header record's field dictionary. Real rosbag1 writers reserve
	// this much space (padding the unused tail with a "padding" field) so
	// that index_pos, conn_count, and chunk_count — unknown until the
	// whole file has been written — can be patched in place on close
	// without shifting every record after them.
	bagHeaderReservedLen = 4096

	// defaultChunkBudget is the default uncompressed chunk size a writer
	// accumulates before flushing (spec.md §4.6).
	defaultChunkBudget = 768 * 1024
)

// Op tags the kind of a rosbag1 record, carried as the header dictionary's
// "op" field (a single byte).
type Op byte

// The record op codes, per the rosbag1 format.
const (
	OpMessageData Op = 0x02
	OpBagHeader   Op = 0x03
	OpIndexData   Op = 0x04
	OpChunk       Op = 0x05
	OpChunkInfo   Op = 0x06
	OpConnection  Op = 0x07
)

// Compression names the per-chunk compression algorithm.
type Compression string

// The supported rosbag1 chunk compressions.
const (
	CompressionNone Compression = "none"
	CompressionBZ2  Compression = "bz2"
	CompressionLZ4  Compression = "lz4"
)

func validCompression(c Compression) bool {
	switch c {
	case CompressionNone, CompressionBZ2, CompressionLZ4:
		return true
	default:
		return false
	}
}

// Connection is the unified connection record rosbag1 carries: a logical
// channel with ROS1-specific bookkeeping (md5sum, message_definition
// text, callerid, latching) alongside the fields every bag format shares.
type Connection struct {
	ID                 uint32
	Topic              string
	MsgType            string
	MD5Sum             string
	MessageDefinition  string
	CallerID           string
	Latching           bool
}

// Message is a single decoded-location message record: which connection
// it belongs to, its recorded timestamp in nanoseconds, and its raw
// undecoded wire bytes.
type Message struct {
	ConnID      uint32
	TimestampNs uint64
	Data        []byte
}

func badOp(got byte) error {
	return rosbagerr.CorruptRecord("unexpected record op 0x%02x", got)
}
