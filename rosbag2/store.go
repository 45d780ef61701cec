package rosbag2

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"go.viam.com/rosbags/rosbagerr"
)

// storeSchema is the fixed schema every rosbag2 .db3 file carries,
// matching the two tables spec.md §4.7 names.
const storeSchema = `
CREATE TABLE IF NOT EXISTS topics (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    serialization_format TEXT NOT NULL,
    offered_qos_profiles TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY,
    topic_id INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    data BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
`

type store struct {
	db *sql.DB
}

func openStore(path string) (*store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, rosbagerr.StorageError(err, "opening %s", path)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, rosbagerr.StorageError(err, "setting pragma %q", pragma)
		}
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, rosbagerr.StorageError(err, "creating schema in %s", path)
	}
	return &store{db: db}, nil
}

func (s *store) close() error {
	return rosbagerr.IO(s.db.Close())
}

type topicRow struct {
	id int64
	Topic
}

func (s *store) listTopics() ([]topicRow, error) {
	rows, err := s.db.Query("SELECT id, name, type, serialization_format, offered_qos_profiles FROM topics ORDER BY id")
	if err != nil {
		return nil, rosbagerr.StorageError(err, "listing topics")
	}
	defer rows.Close()

	var out []topicRow
	for rows.Next() {
		var tr topicRow
		if err := rows.Scan(&tr.id, &tr.Name, &tr.Type, &tr.SerializationFormat, &tr.OfferedQoSProfiles); err != nil {
			return nil, rosbagerr.StorageError(err, "scanning topic row")
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, rosbagerr.StorageError(err, "iterating topics")
	}
	return out, nil
}

// messageRow is one row of the messages table, joined with its topic's
// name for the caller's convenience.
type messageRow struct {
	topicID   int64
	topicName string
	timestamp uint64
	data      []byte
}

func (s *store) listMessagesOrdered() ([]messageRow, error) {
	rows, err := s.db.Query(`
		SELECT messages.topic_id, topics.name, messages.timestamp, messages.data
		FROM messages
		JOIN topics ON topics.id = messages.topic_id
		ORDER BY messages.timestamp, messages.id
	`)
	if err != nil {
		return nil, rosbagerr.StorageError(err, "listing messages")
	}
	defer rows.Close()

	var out []messageRow
	for rows.Next() {
		var r messageRow
		if err := rows.Scan(&r.topicID, &r.topicName, &r.timestamp, &r.data); err != nil {
			return nil, rosbagerr.StorageError(err, "scanning message row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, rosbagerr.StorageError(err, "iterating messages")
	}
	return out, nil
}

func (s *store) messageCount() (uint64, error) {
	var n uint64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, rosbagerr.StorageError(err, "counting messages")
	}
	return n, nil
}

// insertTopic inserts a topic row and returns its assigned id.
func (s *store) insertTopic(t Topic) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO topics (name, type, serialization_format, offered_qos_profiles) VALUES (?, ?, ?, ?)",
		t.Name, t.Type, t.SerializationFormat, t.OfferedQoSProfiles,
	)
	if err != nil {
		return 0, rosbagerr.StorageError(err, "inserting topic %q", t.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, rosbagerr.StorageError(err, "reading inserted topic id for %q", t.Name)
	}
	return id, nil
}

// messageInserter batches message inserts through a single transaction
// and a prepared statement, committed once on close.
type messageInserter struct {
	tx   *sql.Tx
	stmt *sql.Stmt
}

func (s *store) newMessageInserter() (*messageInserter, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, rosbagerr.StorageError(err, "beginning message transaction")
	}
	stmt, err := tx.Prepare("INSERT INTO messages (topic_id, timestamp, data) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return nil, rosbagerr.StorageError(err, "preparing message insert")
	}
	return &messageInserter{tx: tx, stmt: stmt}, nil
}

func (m *messageInserter) insert(topicID int64, timestampNs uint64, data []byte) error {
	if _, err := m.stmt.Exec(topicID, timestampNs, data); err != nil {
		return rosbagerr.StorageError(err, "inserting message for topic %d", topicID)
	}
	return nil
}

func (m *messageInserter) commit() error {
	if err := m.stmt.Close(); err != nil {
		m.tx.Rollback()
		return rosbagerr.StorageError(err, "closing prepared insert statement")
	}
	if err := m.tx.Commit(); err != nil {
		return rosbagerr.StorageError(err, "committing message transaction")
	}
	return nil
}
