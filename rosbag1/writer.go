package rosbag1

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"go.uber.org/multierr"

	"go.viam.com/rosbags/rosbagerr"
)

// indexEntry is one message's position within a chunk, keyed implicitly
// by the connection it belongs to.
type indexEntry struct {
	timeNs uint64
	offset uint32
}

type pendingChunk struct {
	pos        int64
	startTime  uint64
	endTime    uint64
	connCounts map[uint32]uint32
	entries    map[uint32][]indexEntry
}

// Writer produces a rosbag1 file: it accumulates message records into
// byte-budgeted chunks, then on Close writes the index region (canonical
// connection records, per-chunk index data, and chunk-info records)
// followed by patching the bag-header record reserved at the top of the
// file with the now-known index position and counts.
type Writer struct {
	f           *os.File
	offset      int64
	compression Compression
	chunkBudget int

	bagHeaderPos int64

	connections map[uint32]*Connection
	connOrder   []uint32
	nextConnID  uint32

	chunkBuf       bytes.Buffer
	chunkStart     uint64
	chunkEnd       uint64
	chunkHasData   bool
	chunkConnCount map[uint32]uint32
	chunkEntries   map[uint32][]indexEntry

	chunks []pendingChunk
}

// Option configures a Writer created with Create.
type Option func(*Writer)

// WithCompression sets the per-chunk compression a Writer uses. The
// default is CompressionNone. Only CompressionNone and CompressionLZ4 are
// valid for writing (compressChunk rejects CompressionBZ2).
func WithCompression(c Compression) Option {
	return func(w *Writer) { w.compression = c }
}

// WithChunkBudget overrides the default uncompressed chunk byte budget.
func WithChunkBudget(n int) Option {
	return func(w *Writer) { w.chunkBudget = n }
}

// Create opens path for writing and reserves its magic line and
// bag-header record.
func Create(path string, opts ...Option) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, rosbagerr.IO(err)
	}

	w := &Writer{
		f:              f,
		compression:    CompressionNone,
		chunkBudget:    defaultChunkBudget,
		connections:    map[uint32]*Connection{},
		chunkConnCount: map[uint32]uint32{},
		chunkEntries:   map[uint32][]indexEntry{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if !validCompression(w.compression) {
		f.Close()
		return nil, rosbagerr.CorruptRecord("unsupported compression %q", w.compression)
	}

	if err := w.writeRaw([]byte(magicLine)); err != nil {
		f.Close()
		return nil, err
	}
	w.bagHeaderPos = w.offset
	if err := w.writeBagHeader(0, 0, 0); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeRaw(b []byte) error {
	if _, err := w.f.Write(b); err != nil {
		return rosbagerr.IO(err)
	}
	w.offset += int64(len(b))
	return nil
}

func (w *Writer) writeTopLevelRecord(fields []field, data []byte) error {
	var buf bytes.Buffer
	if err := writeRecord(&buf, fields, data); err != nil {
		return err
	}
	return w.writeRaw(buf.Bytes())
}

// writeBagHeader writes (or rewrites, in place, at bagHeaderPos) the
// fixed-size bag-header record, padding it to bagHeaderReservedLen so the
// three numeric fields can be patched on Close without moving any other
// record in the file.
func (w *Writer) writeBagHeader(indexPos uint64, connCount, chunkCount uint32) error {
	fixed := []field{
		opField(OpBagHeader),
		u64Field("index_pos", indexPos),
		u32Field("conn_count", connCount),
		u32Field("chunk_count", chunkCount),
	}
	fixedLen := fieldsEncodedLen(fixed)

	targetHeaderLen := bagHeaderReservedLen - 8 // minus the two 4-byte length prefixes
	const paddingKeyOverhead = 4 + len("padding") + 1
	paddingLen := targetHeaderLen - fixedLen - paddingKeyOverhead
	if paddingLen < 0 {
		return rosbagerr.CorruptRecord("bag-header reserved length too small for fixed fields")
	}
	fields := append(fixed, field{key: "padding", value: bytes.Repeat([]byte{' '}, paddingLen)})

	var buf bytes.Buffer
	if err := writeRecord(&buf, fields, nil); err != nil {
		return err
	}
	if buf.Len() != bagHeaderReservedLen {
		return rosbagerr.CorruptRecord("bag-header record size drifted from reserved length")
	}
	return w.writeRaw(buf.Bytes())
}

func fieldsEncodedLen(fields []field) int {
	n := 0
	for _, f := range fields {
		n += 4 + len(f.key) + 1 + len(f.value)
	}
	return n
}

// RegisterConnection assigns conn a connection id and adds it to the
// bag's connection table. The assigned id is both stored on conn and
// returned.
func (w *Writer) RegisterConnection(conn *Connection) uint32 {
	id := w.nextConnID
	w.nextConnID++
	conn.ID = id
	w.connections[id] = conn
	w.connOrder = append(w.connOrder, id)
	return id
}

// WriteMessage appends a message record for connID to the current chunk,
// flushing the chunk once it reaches the configured byte budget.
func (w *Writer) WriteMessage(connID uint32, timestampNs uint64, data []byte) error {
	if _, ok := w.connections[connID]; !ok {
		return rosbagerr.CorruptRecord("unknown connection id %d", connID)
	}

	offset := uint32(w.chunkBuf.Len())
	fields := []field{opField(OpMessageData), u32Field("conn", connID), u64Field("time", timestampNs)}
	if err := writeRecord(&w.chunkBuf, fields, data); err != nil {
		return err
	}

	if !w.chunkHasData || timestampNs < w.chunkStart {
		w.chunkStart = timestampNs
	}
	if !w.chunkHasData || timestampNs > w.chunkEnd {
		w.chunkEnd = timestampNs
	}
	w.chunkHasData = true
	w.chunkConnCount[connID]++
	w.chunkEntries[connID] = append(w.chunkEntries[connID], indexEntry{timeNs: timestampNs, offset: offset})

	if w.chunkBuf.Len() >= w.chunkBudget {
		return w.flushChunk()
	}
	return nil
}

func (w *Writer) flushChunk() error {
	if !w.chunkHasData {
		return nil
	}

	compressed, err := compressChunk(w.compression, w.chunkBuf.Bytes())
	if err != nil {
		return err
	}

	pos := w.offset
	fields := []field{
		opField(OpChunk),
		strField("compression", string(w.compression)),
		u32Field("size", uint32(w.chunkBuf.Len())),
	}
	if err := w.writeTopLevelRecord(fields, compressed); err != nil {
		return err
	}

	w.chunks = append(w.chunks, pendingChunk{
		pos:        pos,
		startTime:  w.chunkStart,
		endTime:    w.chunkEnd,
		connCounts: w.chunkConnCount,
		entries:    w.chunkEntries,
	})

	w.chunkBuf.Reset()
	w.chunkHasData = false
	w.chunkConnCount = map[uint32]uint32{}
	w.chunkEntries = map[uint32][]indexEntry{}
	return nil
}

// Close flushes any pending chunk, writes the index region, and patches
// the bag-header record with the final index position and counts.
func (w *Writer) Close() error {
	if err := w.flushChunk(); err != nil {
		return multierr.Append(err, rosbagerr.IO(w.f.Close()))
	}

	indexPos := w.offset

	for _, id := range w.connOrder {
		conn := w.connections[id]
		data, err := encodeConnectionHeader(conn)
		if err != nil {
			return multierr.Append(err, rosbagerr.IO(w.f.Close()))
		}
		topFields := []field{opField(OpConnection), u32Field("conn", id)}
		if err := w.writeTopLevelRecord(topFields, data); err != nil {
			return multierr.Append(err, rosbagerr.IO(w.f.Close()))
		}
	}

	for _, ch := range w.chunks {
		for _, id := range w.connOrder {
			entries, ok := ch.entries[id]
			if !ok {
				continue
			}
			var data bytes.Buffer
			for _, e := range entries {
				var tbuf [8]byte
				binary.LittleEndian.PutUint64(tbuf[:], e.timeNs)
				data.Write(tbuf[:])
				var obuf [4]byte
				binary.LittleEndian.PutUint32(obuf[:], e.offset)
				data.Write(obuf[:])
			}
			fields := []field{
				opField(OpIndexData),
				u32Field("ver", 1),
				u32Field("conn", id),
				u32Field("count", uint32(len(entries))),
			}
			if err := w.writeTopLevelRecord(fields, data.Bytes()); err != nil {
				return multierr.Append(err, rosbagerr.IO(w.f.Close()))
			}
		}

		var ciData bytes.Buffer
		for _, id := range w.connOrder {
			count, ok := ch.connCounts[id]
			if !ok {
				continue
			}
			var cbuf [4]byte
			binary.LittleEndian.PutUint32(cbuf[:], id)
			ciData.Write(cbuf[:])
			var nbuf [4]byte
			binary.LittleEndian.PutUint32(nbuf[:], count)
			ciData.Write(nbuf[:])
		}
		ciFields := []field{
			opField(OpChunkInfo),
			u32Field("ver", 1),
			u64Field("chunk_pos", uint64(ch.pos)),
			u64Field("start_time", ch.startTime),
			u64Field("end_time", ch.endTime),
			u32Field("count", uint32(len(ch.connCounts))),
		}
		if err := w.writeTopLevelRecord(ciFields, ciData.Bytes()); err != nil {
			return multierr.Append(err, rosbagerr.IO(w.f.Close()))
		}
	}

	if _, err := w.f.Seek(w.bagHeaderPos, io.SeekStart); err != nil {
		return multierr.Append(rosbagerr.IO(err), rosbagerr.IO(w.f.Close()))
	}
	savedOffset := w.offset
	w.offset = w.bagHeaderPos
	if err := w.writeBagHeader(uint64(indexPos), uint32(len(w.connOrder)), uint32(len(w.chunks))); err != nil {
		return multierr.Append(err, rosbagerr.IO(w.f.Close()))
	}
	w.offset = savedOffset

	return rosbagerr.IO(w.f.Close())
}

// encodeConnectionHeader builds a connection record's data section: the
// same key=value dictionary ROS1 carries on the wire for subscriber
// negotiation.
func encodeConnectionHeader(conn *Connection) ([]byte, error) {
	fields := []field{
		strField("topic", conn.Topic),
		strField("type", conn.MsgType),
		strField("md5sum", conn.MD5Sum),
		strField("message_definition", conn.MessageDefinition),
		strField("callerid", conn.CallerID),
		latchingField(conn.Latching),
	}
	var buf bytes.Buffer
	for _, f := range fields {
		entry := append(append([]byte(f.key), '='), f.value...)
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(entry)))
		buf.Write(lenBuf[:])
		buf.Write(entry)
	}
	return buf.Bytes(), nil
}
