package rosbag2

import (
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mybag")

	w, err := Create(dir)
	test.That(t, err, test.ShouldBeNil)

	id, err := w.RegisterConnection(Topic{Name: "/chatter", Type: "std_msgs/msg/String", SerializationFormat: "cdr"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id, test.ShouldEqual, int64(1))

	test.That(t, w.WriteMessage("/chatter", 42, []byte("hello")), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)

	r, err := Open(dir, nil)
	test.That(t, err, test.ShouldBeNil)
	defer r.Close()

	meta := r.Metadata()
	test.That(t, meta.MessageCount, test.ShouldEqual, uint64(1))
	test.That(t, meta.StartTime, test.ShouldEqual, uint64(42))
	test.That(t, meta.EndTime, test.ShouldEqual, uint64(42))

	topics := r.Topics()
	test.That(t, topics["/chatter"].Type, test.ShouldEqual, "std_msgs/msg/String")

	it := r.Messages()
	msg, ok := it.Next()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, msg.TopicName, test.ShouldEqual, "/chatter")
	test.That(t, string(msg.Data), test.ShouldEqual, "hello")

	_, ok = it.Next()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestEmptyBagTimeBounds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "emptybag")

	w, err := Create(dir)
	test.That(t, err, test.ShouldBeNil)
	_, err = w.RegisterConnection(Topic{Name: "/x", Type: "std_msgs/msg/String", SerializationFormat: "cdr"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)

	r, err := Open(dir, nil)
	test.That(t, err, test.ShouldBeNil)
	defer r.Close()

	meta := r.Metadata()
	test.That(t, meta.MessageCount, test.ShouldEqual, uint64(0))
	test.That(t, meta.StartTime, test.ShouldEqual, uint64(0))
	test.That(t, meta.EndTime, test.ShouldEqual, uint64(0))
}

func TestMessageCompressionRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "compressedbag")

	w, err := Create(dir, WithCompressionMode(CompressionMessage))
	test.That(t, err, test.ShouldBeNil)
	_, err = w.RegisterConnection(Topic{Name: "/x", Type: "std_msgs/msg/String", SerializationFormat: "cdr"})
	test.That(t, err, test.ShouldBeNil)

	payload := make([]byte, 2048)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	test.That(t, w.WriteMessage("/x", 1, payload), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)

	r, err := Open(dir, nil)
	test.That(t, err, test.ShouldBeNil)
	defer r.Close()

	test.That(t, r.Metadata().CompressionFormat, test.ShouldEqual, CompressionFormatZstd)

	it := r.Messages()
	msg, ok := it.Next()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, msg.Data, test.ShouldResemble, payload)
}

func TestFileCompressionRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "filecompressedbag")

	w, err := Create(dir, WithCompressionMode(CompressionFile))
	test.That(t, err, test.ShouldBeNil)
	_, err = w.RegisterConnection(Topic{Name: "/x", Type: "std_msgs/msg/String", SerializationFormat: "cdr"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.WriteMessage("/x", 5, []byte("abc")), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)

	r, err := Open(dir, nil)
	test.That(t, err, test.ShouldBeNil)
	defer r.Close()

	test.That(t, r.Metadata().RelativeFilePaths[0], test.ShouldEqual, "filecompressedbag.db3.zstd")

	it := r.Messages()
	msg, ok := it.Next()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, string(msg.Data), test.ShouldEqual, "abc")
}

func TestOpenUnsupportedMetadataVersion(t *testing.T) {
	dir := t.TempDir()
	md := &Metadata{Version: 99, StorageIdentifier: storageIdentifier, RelativeFilePaths: []string{"bag.db3"}}
	test.That(t, writeMetadata(filepath.Join(dir, "metadata.yaml"), md), test.ShouldBeNil)

	_, err := Open(dir, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
