package rosbag1

import (
	"container/heap"
	"io"
	"os"
	"sort"

	"go.viam.com/rosbags/rosbagerr"
)

// Reader gives random-access, index-driven access to a rosbag1 file: its
// connection table and an ordered message iterator. It refuses to open a
// file with no index region (spec.md §4.6).
type Reader struct {
	f           *os.File
	size        int64
	connections map[uint32]*Connection
	chunks      []chunkInfo
}

type chunkInfo struct {
	pos       uint64
	startTime uint64
	endTime   uint64
}

// Open reads path's bag header and index region, building the
// connection table and chunk directory. It does not read any chunk data
// yet; that happens lazily in Messages.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rosbagerr.IO(err)
	}

	r, err := openFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func openFile(f *os.File) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, rosbagerr.IO(err)
	}

	magic := make([]byte, len(magicLine))
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, rosbagerr.CorruptRecord("failed to read magic line: %v", err)
	}
	if string(magic) != magicLine {
		return nil, rosbagerr.VersionUnsupported(0)
	}

	headerRec, err := readRecord(f)
	if err != nil {
		return nil, rosbagerr.Wrap(err, "reading bag-header record")
	}
	op, err := headerRec.op()
	if err != nil || op != OpBagHeader {
		return nil, rosbagerr.CorruptRecord("expected bag-header record first")
	}
	indexPos, err := headerRec.findUint64("index_pos")
	if err != nil {
		return nil, err
	}
	if indexPos == 0 {
		return nil, rosbagerr.Unindexed(f.Name())
	}

	r := &Reader{f: f, size: info.Size(), connections: map[uint32]*Connection{}}
	if err := r.readIndexRegion(indexPos); err != nil {
		return nil, err
	}

	sort.Slice(r.chunks, func(i, j int) bool { return r.chunks[i].startTime < r.chunks[j].startTime })
	return r, nil
}

func (r *Reader) readIndexRegion(indexPos uint64) error {
	if _, err := r.f.Seek(int64(indexPos), io.SeekStart); err != nil {
		return rosbagerr.IO(err)
	}

	for {
		rec, err := readRecord(r.f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return rosbagerr.Wrap(err, "reading index region")
		}
		op, err := rec.op()
		if err != nil {
			return err
		}
		switch op {
		case OpConnection:
			conn, err := parseConnectionRecord(rec)
			if err != nil {
				return err
			}
			r.connections[conn.ID] = conn
		case OpChunkInfo:
			ci, err := parseChunkInfoRecord(rec)
			if err != nil {
				return err
			}
			if ci.pos >= uint64(r.size) {
				return rosbagerr.SplitNotSupported(r.f.Name())
			}
			r.chunks = append(r.chunks, ci)
		case OpIndexData:
			// Per-connection index entries are only needed to avoid a
			// full chunk decompress when seeking to a single message;
			// Messages always decompresses every chunk listed in the
			// index, so this op's payload is not otherwise consulted.
		default:
			return badOp(byte(op))
		}
	}
	return nil
}

func parseConnectionRecord(rec *record) (*Connection, error) {
	connID, err := rec.findUint32("conn")
	if err != nil {
		return nil, err
	}
	fields, err := parseFields(rec.data)
	if err != nil {
		return nil, rosbagerr.Wrap(err, "parsing connection header")
	}
	conn := &Connection{ID: connID}
	for _, f := range fields {
		switch f.key {
		case "topic":
			conn.Topic = string(f.value)
		case "type":
			conn.MsgType = string(f.value)
		case "md5sum":
			conn.MD5Sum = string(f.value)
		case "message_definition":
			conn.MessageDefinition = string(f.value)
		case "callerid":
			conn.CallerID = string(f.value)
		case "latching":
			conn.Latching = len(f.value) > 0 && f.value[0] == '1'
		}
	}
	if conn.Topic == "" {
		if t, err := rec.findString("topic"); err == nil {
			conn.Topic = t
		}
	}
	return conn, nil
}

func parseChunkInfoRecord(rec *record) (chunkInfo, error) {
	pos, err := rec.findUint64("chunk_pos")
	if err != nil {
		return chunkInfo{}, err
	}
	start, err := rec.findUint64("start_time")
	if err != nil {
		return chunkInfo{}, err
	}
	end, err := rec.findUint64("end_time")
	if err != nil {
		return chunkInfo{}, err
	}
	return chunkInfo{pos: pos, startTime: start, endTime: end}, nil
}

// Connections returns the bag's connection table, keyed by connection id.
func (r *Reader) Connections() map[uint32]*Connection {
	return r.connections
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return rosbagerr.IO(r.f.Close())
}

// Messages returns an iterator yielding every message in the bag in
// non-decreasing timestamp order, ties broken by the order records
// appear across chunks (spec.md §5).
func (r *Reader) Messages() (*MessageIterator, error) {
	var cursors []*chunkCursor
	for _, ci := range r.chunks {
		msgs, err := r.readChunkMessages(ci)
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			continue
		}
		cursors = append(cursors, &chunkCursor{messages: msgs, order: int(ci.pos)})
	}

	h := &cursorHeap{cursors: cursors}
	heap.Init(h)
	return &MessageIterator{heap: h}, nil
}

func (r *Reader) readChunkMessages(ci chunkInfo) ([]Message, error) {
	if _, err := r.f.Seek(int64(ci.pos), io.SeekStart); err != nil {
		return nil, rosbagerr.IO(err)
	}
	chunkRec, err := readRecord(r.f)
	if err != nil {
		return nil, rosbagerr.Wrap(err, "reading chunk record at %d", ci.pos)
	}
	op, err := chunkRec.op()
	if err != nil || op != OpChunk {
		return nil, rosbagerr.CorruptRecord("expected chunk record at %d", ci.pos)
	}
	compressionVal, _ := chunkRec.findString("compression")

	raw, err := decompressChunk(Compression(compressionVal), chunkRec.data)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	reader := &sliceReader{buf: raw}
	for reader.remaining() > 0 {
		rec, err := readRecord(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rosbagerr.Wrap(err, "reading message inside chunk at %d", ci.pos)
		}
		op, err := rec.op()
		if err != nil {
			return nil, err
		}
		switch op {
		case OpMessageData:
			connID, err := rec.findUint32("conn")
			if err != nil {
				return nil, err
			}
			ts, err := rec.findUint64("time")
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, Message{ConnID: connID, TimestampNs: ts, Data: rec.data})
		case OpConnection:
			// A chunk may repeat the connection header for its own
			// connections; the canonical copy already came from the
			// index region, so this one is informational only.
		default:
			return nil, badOp(byte(op))
		}
	}

	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].TimestampNs < msgs[j].TimestampNs })
	return msgs, nil
}

// sliceReader adapts a byte slice to io.Reader for reuse of readRecord
// against an in-memory decompressed chunk.
type sliceReader struct {
	buf []byte
	off int
}

func (s *sliceReader) remaining() int { return len(s.buf) - s.off }

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.off >= len(s.buf) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.off:])
	s.off += n
	return n, nil
}

type chunkCursor struct {
	messages []Message
	idx      int
	// order is the chunk's file offset, i.e. its position in source
	// order, used to break timestamp ties deterministically instead of by
	// heap shape.
	order int
}

// cursorHeap merges per-chunk sorted message lists into global
// timestamp order, preserving chunk order (and thus source order) for
// ties via the explicit order field, since container/heap does not
// guarantee a stable tie-break across Push/Pop/Fix on its own.
type cursorHeap struct {
	cursors []*chunkCursor
}

func (h *cursorHeap) Len() int { return len(h.cursors) }
func (h *cursorHeap) Less(i, j int) bool {
	ti := h.cursors[i].messages[h.cursors[i].idx].TimestampNs
	tj := h.cursors[j].messages[h.cursors[j].idx].TimestampNs
	if ti != tj {
		return ti < tj
	}
	return h.cursors[i].order < h.cursors[j].order
}
func (h *cursorHeap) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }
func (h *cursorHeap) Push(x any)    { h.cursors = append(h.cursors, x.(*chunkCursor)) }
func (h *cursorHeap) Pop() any {
	old := h.cursors
	n := len(old)
	item := old[n-1]
	h.cursors = old[:n-1]
	return item
}

// MessageIterator yields bag messages in order. It is not restartable;
// callers that need to replay must call Reader.Messages again.
type MessageIterator struct {
	heap *cursorHeap
}

// Next advances the iterator. ok is false once every message has been
// yielded.
func (it *MessageIterator) Next() (msg Message, ok bool, err error) {
	if it.heap.Len() == 0 {
		return Message{}, false, nil
	}
	top := it.heap.cursors[0]
	msg = top.messages[top.idx]
	top.idx++
	if top.idx >= len(top.messages) {
		heap.Pop(it.heap)
	} else {
		heap.Fix(it.heap, 0)
	}
	return msg, true, nil
}
