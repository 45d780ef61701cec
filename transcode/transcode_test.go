package transcode

import (
	"testing"

	"go.viam.com/rosbags/cdr"
	"go.viam.com/rosbags/ros1wire"
	"go.viam.com/rosbags/typesys"
	"go.viam.com/test"
)

func TestROS1ToCDRSimpleString(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	ros1Bytes, err := ros1wire.Encode(reg, def, ros1wire.Message{"data": "hi"})
	test.That(t, err, test.ShouldBeNil)

	got, err := ROS1ToCDR(reg, def, ros1Bytes, true)
	test.That(t, err, test.ShouldBeNil)

	want, err := cdr.Encode(reg, def, cdr.Message{"data": "hi"}, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, want)
}

func TestCDRToROS1SimpleString(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	cdrBytes, err := cdr.Encode(reg, def, cdr.Message{"data": "hi"}, false)
	test.That(t, err, test.ShouldBeNil)

	got, err := CDRToROS1(reg, def, cdrBytes)
	test.That(t, err, test.ShouldBeNil)

	want, err := ros1wire.Encode(reg, def, ros1wire.Message{"data": "hi"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, want)
}

func TestROS1ToCDRHeaderBridging(t *testing.T) {
	text := "Header header\n" +
		"string data\n" +
		"===\n" +
		"MSG: std_msgs/Header\n" +
		"uint32 seq\n" +
		"time stamp\n" +
		"string frame_id\n"
	defs, err := typesys.ParseMsg("pkg/msg/WithHeader", text)
	test.That(t, err, test.ShouldBeNil)

	reg := typesys.NewRegistry()
	test.That(t, reg.Register(defs), test.ShouldBeNil)
	def := defs["pkg/msg/WithHeader"]

	ros1Bytes := []byte{
		0x07, 0x00, 0x00, 0x00, // seq = 7 (dropped)
		0x0a, 0x00, 0x00, 0x00, // stamp.sec = 10
		0x00, 0x00, 0x00, 0x00, // stamp.nanosec = 0
		0x01, 0x00, 0x00, 0x00, 0x66, // frame_id = "f"
		0x01, 0x00, 0x00, 0x00, 0x78, // data = "x"
	}

	got, err := ROS1ToCDR(reg, def, ros1Bytes, true)
	test.That(t, err, test.ShouldBeNil)

	// The registered Header declares seq, which CDR does not carry, so the
	// expected CDR form is spelled out byte by byte.
	want := []byte{
		0x00, 0x01, 0x00, 0x00, // little-endian encapsulation header
		0x0a, 0x00, 0x00, 0x00, // stamp.sec = 10
		0x00, 0x00, 0x00, 0x00, // stamp.nanosec = 0
		0x02, 0x00, 0x00, 0x00, 0x66, 0x00, // frame_id = "f" + NUL
		0x00, 0x00, // pad to 4
		0x02, 0x00, 0x00, 0x00, 0x78, 0x00, // data = "x" + NUL
	}
	test.That(t, got, test.ShouldResemble, want)
}

func TestCDRToROS1HeaderBridging(t *testing.T) {
	text := "Header header\n" +
		"string data\n" +
		"===\n" +
		"MSG: std_msgs/Header\n" +
		"uint32 seq\n" +
		"time stamp\n" +
		"string frame_id\n"
	defs, err := typesys.ParseMsg("pkg/msg/WithHeader", text)
	test.That(t, err, test.ShouldBeNil)

	reg := typesys.NewRegistry()
	test.That(t, reg.Register(defs), test.ShouldBeNil)
	def := defs["pkg/msg/WithHeader"]

	cdrBytes := []byte{
		0x00, 0x01, 0x00, 0x00, // little-endian encapsulation header
		0x0a, 0x00, 0x00, 0x00, // stamp.sec = 10
		0x00, 0x00, 0x00, 0x00, // stamp.nanosec = 0
		0x02, 0x00, 0x00, 0x00, 0x66, 0x00, // frame_id = "f" + NUL
		0x00, 0x00, // pad to 4
		0x02, 0x00, 0x00, 0x00, 0x78, 0x00, // data = "x" + NUL
	}

	got, err := CDRToROS1(reg, def, cdrBytes)
	test.That(t, err, test.ShouldBeNil)

	// The first 4 bytes are the synthesized zero seq; everything after is
	// the remaining Header fields and data in unaligned ROS1 form.
	test.That(t, got[:4], test.ShouldResemble, []byte{0, 0, 0, 0})
	rest := []byte{
		0x0a, 0x00, 0x00, 0x00, // stamp.sec = 10
		0x00, 0x00, 0x00, 0x00, // stamp.nanosec = 0
		0x01, 0x00, 0x00, 0x00, 0x66, // frame_id = "f"
		0x01, 0x00, 0x00, 0x00, 0x78, // data = "x"
	}
	test.That(t, got[4:], test.ShouldResemble, rest)
}

func TestROS1ToCDRExcessBytes(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	ros1Bytes, err := ros1wire.Encode(reg, def, ros1wire.Message{"data": "hi"})
	test.That(t, err, test.ShouldBeNil)
	ros1Bytes = append(ros1Bytes, 0xff)

	_, err = ROS1ToCDR(reg, def, ros1Bytes, true)
	test.That(t, err, test.ShouldNotBeNil)
}
