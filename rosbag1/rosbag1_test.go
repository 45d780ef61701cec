package rosbag1

import (
	"errors"
	"path/filepath"
	"testing"

	"go.viam.com/rosbags/rosbagerr"
	"go.viam.com/test"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bag")

	w, err := Create(path)
	test.That(t, err, test.ShouldBeNil)

	connID := w.RegisterConnection(&Connection{
		Topic:             "/chatter",
		MsgType:           "std_msgs/String",
		MD5Sum:            "992ce8a1687cec8c8bd883ec73ca41d1",
		MessageDefinition: "string data\n",
		CallerID:          "/talker",
	})

	test.That(t, w.WriteMessage(connID, 100, []byte("one")), test.ShouldBeNil)
	test.That(t, w.WriteMessage(connID, 300, []byte("three")), test.ShouldBeNil)
	test.That(t, w.WriteMessage(connID, 200, []byte("two")), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)

	r, err := Open(path)
	test.That(t, err, test.ShouldBeNil)
	defer r.Close()

	conns := r.Connections()
	test.That(t, len(conns), test.ShouldEqual, 1)
	test.That(t, conns[connID].Topic, test.ShouldEqual, "/chatter")
	test.That(t, conns[connID].MsgType, test.ShouldEqual, "std_msgs/String")

	it, err := r.Messages()
	test.That(t, err, test.ShouldBeNil)

	var got []string
	var timestamps []uint64
	for {
		msg, ok, err := it.Next()
		test.That(t, err, test.ShouldBeNil)
		if !ok {
			break
		}
		got = append(got, string(msg.Data))
		timestamps = append(timestamps, msg.TimestampNs)
	}

	// Messages were written out of timestamp order within the chunk;
	// the reader must yield them back sorted.
	test.That(t, timestamps, test.ShouldResemble, []uint64{100, 200, 300})
	test.That(t, got, test.ShouldResemble, []string{"one", "two", "three"})
}

func TestWriteReadMultiChunkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bag")

	w, err := Create(path, WithChunkBudget(64))
	test.That(t, err, test.ShouldBeNil)

	connID := w.RegisterConnection(&Connection{Topic: "/n", MsgType: "std_msgs/Int32", MD5Sum: "abc"})

	const n = 50
	for i := 0; i < n; i++ {
		test.That(t, w.WriteMessage(connID, uint64(n-i), []byte{byte(i)}), test.ShouldBeNil)
	}
	test.That(t, w.Close(), test.ShouldBeNil)

	r, err := Open(path)
	test.That(t, err, test.ShouldBeNil)
	defer r.Close()

	it, err := r.Messages()
	test.That(t, err, test.ShouldBeNil)

	var lastTs uint64
	count := 0
	for {
		msg, ok, err := it.Next()
		test.That(t, err, test.ShouldBeNil)
		if !ok {
			break
		}
		test.That(t, msg.TimestampNs >= lastTs, test.ShouldBeTrue)
		lastTs = msg.TimestampNs
		count++
	}
	test.That(t, count, test.ShouldEqual, n)
}

func TestWriteReadLZ4Compression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bag")

	w, err := Create(path, WithCompression(CompressionLZ4))
	test.That(t, err, test.ShouldBeNil)

	connID := w.RegisterConnection(&Connection{Topic: "/x", MsgType: "std_msgs/String", MD5Sum: "x"})
	test.That(t, w.WriteMessage(connID, 1, []byte("payload")), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)

	r, err := Open(path)
	test.That(t, err, test.ShouldBeNil)
	defer r.Close()

	it, err := r.Messages()
	test.That(t, err, test.ShouldBeNil)
	msg, ok, err := it.Next()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, string(msg.Data), test.ShouldEqual, "payload")
}

func TestOpenUnindexedBag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unindexed.bag")

	w, err := Create(path)
	test.That(t, err, test.ShouldBeNil)
	connID := w.RegisterConnection(&Connection{Topic: "/x", MsgType: "std_msgs/String", MD5Sum: "x"})
	test.That(t, w.WriteMessage(connID, 1, []byte("hi")), test.ShouldBeNil)
	// Flush the chunk to disk but skip Close, so index_pos is never
	// patched away from its placeholder zero.
	test.That(t, w.flushChunk(), test.ShouldBeNil)
	test.That(t, w.f.Close(), test.ShouldBeNil)

	_, err = Open(path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, rosbagerr.ErrUnindexed), test.ShouldBeTrue)
}
