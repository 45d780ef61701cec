package rosbag2

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/multierr"

	"go.viam.com/rosbags/logging"
	"go.viam.com/rosbags/rosbagerr"
)

// Reader gives read access to a rosbag2 directory: its topic table and an
// ordered message iterator, transparently undoing file- or
// message-level zstd compression per the bag's metadata.
type Reader struct {
	meta      *Metadata
	topics    map[string]Topic
	messages  []Message
	tempFiles []string
	log       logging.Logger
}

// Open reads dirPath's metadata.yaml and every referenced .db3 store,
// materializing the bag's full message sequence in timestamp order.
func Open(dirPath string, log logging.Logger) (*Reader, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	meta, err := readMetadata(filepath.Join(dirPath, "metadata.yaml"))
	if err != nil {
		return nil, err
	}

	r := &Reader{meta: meta, topics: map[string]Topic{}, log: log}

	for fileIdx, rel := range meta.RelativeFilePaths {
		dbPath := filepath.Join(dirPath, rel)
		openPath := dbPath
		if meta.CompressionMode == CompressionFile {
			tmp, err := decompressFileToTemp(dbPath)
			if err != nil {
				r.Close()
				return nil, err
			}
			r.tempFiles = append(r.tempFiles, tmp)
			openPath = tmp
		}

		st, err := openStore(openPath)
		if err != nil {
			r.Close()
			return nil, err
		}

		topics, err := st.listTopics()
		if err != nil {
			st.close()
			r.Close()
			return nil, err
		}
		for _, t := range topics {
			r.topics[t.Name] = t.Topic
		}

		rows, err := st.listMessagesOrdered()
		if err != nil {
			st.close()
			r.Close()
			return nil, err
		}
		for _, row := range rows {
			data := row.data
			if meta.CompressionMode == CompressionMessage {
				data, err = zstdDecompress(data)
				if err != nil {
					st.close()
					r.Close()
					return nil, err
				}
			}
			r.messages = append(r.messages, Message{TopicName: row.topicName, TimestampNs: row.timestamp, Data: data})
		}
		log.Debugw("read rosbag2 store", "file", rel, "messages", len(rows), "fileIndex", fileIdx)

		if err := st.close(); err != nil {
			r.Close()
			return nil, err
		}
	}

	sort.SliceStable(r.messages, func(i, j int) bool { return r.messages[i].TimestampNs < r.messages[j].TimestampNs })
	return r, nil
}

// Metadata returns the bag's parsed metadata.yaml contents.
func (r *Reader) Metadata() *Metadata {
	return r.meta
}

// Topics returns the bag's topic table, keyed by topic name.
func (r *Reader) Topics() map[string]Topic {
	return r.topics
}

// Close removes any temporary decompressed files created to satisfy
// CompressionFile mode.
func (r *Reader) Close() error {
	var err error
	for _, tmp := range r.tempFiles {
		err = multierr.Append(err, removeTemp(tmp))
	}
	return err
}

func removeTemp(path string) error {
	if err := os.Remove(path); err != nil {
		return rosbagerr.IO(err)
	}
	return nil
}

// MessageIterator yields a rosbag2 reader's messages in order. It is not
// restartable.
type MessageIterator struct {
	messages []Message
	idx      int
}

// Messages returns an iterator over every message in the bag, already
// sorted in non-decreasing timestamp order.
func (r *Reader) Messages() *MessageIterator {
	return &MessageIterator{messages: r.messages}
}

// Next advances the iterator. ok is false once every message has been
// yielded.
func (it *MessageIterator) Next() (Message, bool) {
	if it.idx >= len(it.messages) {
		return Message{}, false
	}
	msg := it.messages[it.idx]
	it.idx++
	return msg, true
}
