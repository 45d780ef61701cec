package ros1wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/rosbags/typesys"
	"go.viam.com/test"
)

func TestEncodeStringNoTrailingNUL(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	got, err := Encode(reg, def, Message{"data": "hi"})
	test.That(t, err, test.ShouldBeNil)

	want := []byte{0x02, 0x00, 0x00, 0x00, 0x68, 0x69}
	test.That(t, got, test.ShouldResemble, want)
}

func TestRoundTripUnaligned(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("sensor_msgs/msg/Imu")
	test.That(t, err, test.ShouldBeNil)

	msg := Message{
		"header": Message{
			"stamp":    Message{"sec": int32(1), "nanosec": uint32(2)},
			"frame_id": "imu",
		},
		"orientation":                     Message{"x": 0.0, "y": 0.0, "z": 0.0, "w": 1.0},
		"orientation_covariance":          make([]any, 9),
		"angular_velocity":                Message{"x": 0.1, "y": 0.2, "z": 0.3},
		"angular_velocity_covariance":     make([]any, 9),
		"linear_acceleration":             Message{"x": 0.0, "y": 0.0, "z": 9.8},
		"linear_acceleration_covariance":  make([]any, 9),
	}
	for i := range msg["orientation_covariance"].([]any) {
		msg["orientation_covariance"].([]any)[i] = 0.0
		msg["angular_velocity_covariance"].([]any)[i] = 0.0
		msg["linear_acceleration_covariance"].([]any)[i] = 0.0
	}

	encoded, err := Encode(reg, def, msg)
	test.That(t, err, test.ShouldBeNil)

	decoded, err := Decode(reg, def, encoded)
	test.That(t, err, test.ShouldBeNil)
	if diff := cmp.Diff(msg, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeShortRead(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	_, err = Decode(reg, def, []byte{0x05, 0x00, 0x00, 0x00, 0x68})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecodeExcessBytes(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	encoded, err := Encode(reg, def, Message{"data": "x"})
	test.That(t, err, test.ShouldBeNil)
	encoded = append(encoded, 0x00)

	_, err = Decode(reg, def, encoded)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBoundedSequenceOverflow(t *testing.T) {
	reg := typesys.NewRegistry()
	def := &typesys.Definition{
		Name: "pkg/msg/Bounded",
		Fields: []typesys.Field{
			{Name: "items", Type: typesys.FieldType{
				Kind:    typesys.FieldSequence,
				Elem:    &typesys.FieldType{Kind: typesys.FieldPrimitive, Primitive: typesys.Int32},
				Bounded: true,
				Bound:   2,
			}},
		},
	}
	test.That(t, reg.RegisterOne(def), test.ShouldBeNil)

	_, err := Encode(reg, def, Message{"items": []any{int32(1), int32(2), int32(3)}})
	test.That(t, err, test.ShouldNotBeNil)
}
