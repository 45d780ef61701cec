package rosbag2

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"go.viam.com/rosbags/logging"
	"go.viam.com/rosbags/rosbagerr"
)

// Writer accumulates messages into a single sqlite .db3 store through a
// transaction committed on Close, then writes metadata.yaml atomically
// and, for CompressionFile mode, zstd-compresses the finished store.
type Writer struct {
	dir         string
	dbName      string
	dbPath      string
	compression CompressionMode
	log         logging.Logger

	st       *store
	inserter *messageInserter

	topicIDs   map[string]int64
	topicMeta  map[string]Topic
	topicOrder []string
	counts     map[string]uint64

	messageCount uint64
	hasMessages  bool
	startTime    uint64
	endTime      uint64
}

// Option configures a Writer created with Create.
type Option func(*Writer)

// WithCompressionMode sets the CompressionMode a Writer uses. The
// default is CompressionNone.
func WithCompressionMode(m CompressionMode) Option {
	return func(w *Writer) { w.compression = m }
}

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(log logging.Logger) Option {
	return func(w *Writer) { w.log = log }
}

// Create makes dirPath (an existing directory is reused) and opens a fresh
// sqlite store inside it named after the directory's base name, the way
// ROS2 bag writers name their default storage file.
func Create(dirPath string, opts ...Option) (*Writer, error) {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return nil, rosbagerr.IO(err)
	}

	base := filepath.Base(dirPath)
	dbName := base + ".db3"

	w := &Writer{
		dir:         dirPath,
		dbName:      dbName,
		dbPath:      filepath.Join(dirPath, dbName),
		compression: CompressionNone,
		log:         logging.NewNopLogger(),
		topicIDs:    map[string]int64{},
		topicMeta:   map[string]Topic{},
		counts:      map[string]uint64{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if !validCompressionMode(w.compression) {
		return nil, rosbagerr.MetadataInvalid("unsupported compression mode %q", w.compression)
	}

	st, err := openStore(w.dbPath)
	if err != nil {
		return nil, err
	}
	w.st = st

	inserter, err := st.newMessageInserter()
	if err != nil {
		st.close()
		return nil, err
	}
	w.inserter = inserter

	return w, nil
}

// RegisterConnection adds a topic to the bag and returns the id used to
// address it in WriteMessage.
func (w *Writer) RegisterConnection(t Topic) (int64, error) {
	id, err := w.st.insertTopic(t)
	if err != nil {
		return 0, err
	}
	w.topicIDs[t.Name] = id
	w.topicMeta[t.Name] = t
	w.topicOrder = append(w.topicOrder, t.Name)
	return id, nil
}

// WriteMessage appends one message on the named topic. The topic must
// already have been registered with RegisterConnection.
func (w *Writer) WriteMessage(topicName string, timestampNs uint64, data []byte) error {
	id, ok := w.topicIDs[topicName]
	if !ok {
		return rosbagerr.UnknownType(topicName)
	}

	stored := data
	if w.compression == CompressionMessage {
		compressed, err := zstdCompress(data)
		if err != nil {
			return err
		}
		stored = compressed
	}
	if err := w.inserter.insert(id, timestampNs, stored); err != nil {
		return err
	}

	if !w.hasMessages || timestampNs < w.startTime {
		w.startTime = timestampNs
	}
	if !w.hasMessages || timestampNs > w.endTime {
		w.endTime = timestampNs
	}
	w.hasMessages = true
	w.messageCount++
	w.counts[topicName]++
	return nil
}

// Close commits the pending message transaction, optionally
// zstd-compresses the finished store file, and writes metadata.yaml
// atomically.
func (w *Writer) Close() error {
	if err := w.inserter.commit(); err != nil {
		return multierr.Append(err, w.st.close())
	}
	if err := w.st.close(); err != nil {
		return err
	}

	relPath := w.dbName
	compressionFormat := ""
	if w.compression == CompressionFile {
		compressedPath := w.dbPath + ".zstd"
		if err := compressFileInPlace(w.dbPath, compressedPath); err != nil {
			return err
		}
		relPath = filepath.Base(compressedPath)
		compressionFormat = CompressionFormatZstd
	} else if w.compression == CompressionMessage {
		compressionFormat = CompressionFormatZstd
	}

	var startTime, endTime uint64
	if w.hasMessages {
		startTime, endTime = w.startTime, w.endTime
	}

	md := &Metadata{
		Version:           maxVersion,
		BagID:             uuid.NewString(),
		StorageIdentifier: storageIdentifier,
		RelativeFilePaths: []string{relPath},
		MessageCount:      w.messageCount,
		StartTime:         startTime,
		EndTime:           endTime,
		CompressionFormat: compressionFormat,
		CompressionMode:   w.compression,
	}
	for _, name := range w.topicOrder {
		md.Topics = append(md.Topics, TopicCount{Topic: w.topicMeta[name], MessageCount: w.counts[name]})
	}

	return writeMetadata(filepath.Join(w.dir, "metadata.yaml"), md)
}
