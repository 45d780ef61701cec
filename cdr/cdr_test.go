package cdr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/rosbags/typesys"
	"go.viam.com/test"
)

func TestEncodeString(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	got, err := Encode(reg, def, Message{"data": "hi"}, true)
	test.That(t, err, test.ShouldBeNil)

	want := []byte{0x00, 0x01, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x68, 0x69, 0x00}
	test.That(t, got, test.ShouldResemble, want)
}

func TestEncodePoint(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("geometry_msgs/msg/Point")
	test.That(t, err, test.ShouldBeNil)

	got, err := Encode(reg, def, Message{"x": 1.0, "y": 2.0, "z": 3.0}, true)
	test.That(t, err, test.ShouldBeNil)

	want := []byte{
		0x00, 0x01, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0x3f,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x08, 0x40,
	}
	test.That(t, got, test.ShouldResemble, want)
	test.That(t, len(got), test.ShouldEqual, 28)
}

func TestRoundTripString(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	msg := Message{"data": "hello world"}
	encoded, err := Encode(reg, def, msg, true)
	test.That(t, err, test.ShouldBeNil)

	decoded, little, err := Decode(reg, def, encoded)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, little, test.ShouldBeTrue)
	if diff := cmp.Diff(msg, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripBigEndian(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("geometry_msgs/msg/Point")
	test.That(t, err, test.ShouldBeNil)

	msg := Message{"x": 1.5, "y": -2.5, "z": 0.0}
	encoded, err := Encode(reg, def, msg, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, encoded[1], test.ShouldEqual, byte(0x00))

	decoded, little, err := Decode(reg, def, encoded)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, little, test.ShouldBeFalse)
	if diff := cmp.Diff(msg, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripNestedHeader(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("geometry_msgs/msg/PoseStamped")
	test.That(t, err, test.ShouldBeNil)

	msg := Message{
		"header": Message{
			"stamp":    Message{"sec": int32(10), "nanosec": uint32(20)},
			"frame_id": "map",
		},
		"pose": Message{
			"position":    Message{"x": 1.0, "y": 2.0, "z": 3.0},
			"orientation": Message{"x": 0.0, "y": 0.0, "z": 0.0, "w": 1.0},
		},
	}
	encoded, err := Encode(reg, def, msg, true)
	test.That(t, err, test.ShouldBeNil)

	decoded, _, err := Decode(reg, def, encoded)
	test.That(t, err, test.ShouldBeNil)
	if diff := cmp.Diff(msg, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestZeroLengthSequenceAlignment exercises spec.md's §9 resolution: a
// zero-element sequence of a message type still advances alignment to
// that type's leading alignment before the next field, so byte offsets
// match a hand-computed expectation regardless of the runtime element
// count.
func TestZeroLengthSequenceAlignment(t *testing.T) {
	reg := typesys.NewRegistry()
	elemDef := &typesys.Definition{
		Name: "pkg/msg/Elem",
		Fields: []typesys.Field{
			{Name: "v", Type: typesys.FieldType{Kind: typesys.FieldPrimitive, Primitive: typesys.Float64}},
		},
	}
	outerDef := &typesys.Definition{
		Name: "pkg/msg/Outer",
		Fields: []typesys.Field{
			{Name: "items", Type: typesys.FieldType{
				Kind: typesys.FieldSequence,
				Elem: &typesys.FieldType{Kind: typesys.FieldNested, TypeName: "pkg/msg/Elem"},
			}},
			{Name: "tail", Type: typesys.FieldType{Kind: typesys.FieldPrimitive, Primitive: typesys.Int32}},
		},
	}
	test.That(t, reg.Register(map[string]*typesys.Definition{
		elemDef.Name:  elemDef,
		outerDef.Name: outerDef,
	}), test.ShouldBeNil)

	msg := Message{"items": []any{}, "tail": int32(7)}
	encoded, err := Encode(reg, outerDef, msg, true)
	test.That(t, err, test.ShouldBeNil)

	// header(4) + count(4, payload offset 0->4) + pad to the element's
	// 8-byte leading alignment (4 bytes, even though zero elements
	// follow) + tail int32 at payload offset 8 => 16 bytes total.
	test.That(t, len(encoded), test.ShouldEqual, 16)

	decoded, _, err := Decode(reg, outerDef, encoded)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded["tail"], test.ShouldEqual, int32(7))
}

func TestDecodeShortRead(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	_, _, err = Decode(reg, def, []byte{0x00, 0x01, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecodeExcessBytes(t *testing.T) {
	reg := typesys.Default()
	def, err := reg.Lookup("std_msgs/msg/String")
	test.That(t, err, test.ShouldBeNil)

	encoded, err := Encode(reg, def, Message{"data": "x"}, true)
	test.That(t, err, test.ShouldBeNil)
	encoded = append(encoded, 0xff, 0xff, 0xff, 0xff)

	_, _, err = Decode(reg, def, encoded)
	test.That(t, err, test.ShouldNotBeNil)
}
