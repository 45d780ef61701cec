package typesys

import (
	"testing"

	"go.viam.com/test"
)

func TestParseMsgSimple(t *testing.T) {
	defs, err := ParseMsg("std_msgs/msg/String", "string data\n")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(defs), test.ShouldEqual, 1)
	def := defs["std_msgs/msg/String"]
	test.That(t, def, test.ShouldNotBeNil)
	test.That(t, len(def.Fields), test.ShouldEqual, 1)
	test.That(t, def.Fields[0].Name, test.ShouldEqual, "data")
	test.That(t, def.Fields[0].Type.Kind, test.ShouldEqual, FieldPrimitive)
	test.That(t, def.Fields[0].Type.Primitive, test.ShouldEqual, String)
}

func TestParseMsgComments(t *testing.T) {
	text := "# a leading comment\n" +
		"string data # trailing comment\n" +
		"# another comment line\n" +
		"int32 count\n"
	defs, err := ParseMsg("pkg/msg/Foo", text)
	test.That(t, err, test.ShouldBeNil)
	def := defs["pkg/msg/Foo"]
	test.That(t, len(def.Fields), test.ShouldEqual, 2)
	test.That(t, def.Fields[0].Name, test.ShouldEqual, "data")
	test.That(t, def.Fields[1].Name, test.ShouldEqual, "count")
}

func TestParseMsgArraysAndSequences(t *testing.T) {
	text := "float64[3] fixed\n" +
		"int32[] unbounded\n" +
		"string[<=5] bounded\n"
	defs, err := ParseMsg("pkg/msg/Arrays", text)
	test.That(t, err, test.ShouldBeNil)
	def := defs["pkg/msg/Arrays"]
	test.That(t, def.Fields[0].Type.Kind, test.ShouldEqual, FieldArray)
	test.That(t, def.Fields[0].Type.ArrayLen, test.ShouldEqual, 3)
	test.That(t, def.Fields[1].Type.Kind, test.ShouldEqual, FieldSequence)
	test.That(t, def.Fields[1].Type.Bounded, test.ShouldBeFalse)
	test.That(t, def.Fields[2].Type.Kind, test.ShouldEqual, FieldSequence)
	test.That(t, def.Fields[2].Type.Bounded, test.ShouldBeTrue)
	test.That(t, def.Fields[2].Type.Bound, test.ShouldEqual, 5)
}

func TestParseMsgConstants(t *testing.T) {
	text := "int32 FOO=42\n" +
		"string BAR=hello=world\n" +
		"int32 field\n"
	defs, err := ParseMsg("pkg/msg/Consts", text)
	test.That(t, err, test.ShouldBeNil)
	def := defs["pkg/msg/Consts"]
	test.That(t, len(def.Constants), test.ShouldEqual, 2)
	test.That(t, def.Constants[0].Name, test.ShouldEqual, "FOO")
	test.That(t, def.Constants[0].Value, test.ShouldEqual, "42")
	test.That(t, def.Constants[1].Name, test.ShouldEqual, "BAR")
	test.That(t, def.Constants[1].Value, test.ShouldEqual, "hello=world")
	test.That(t, len(def.Fields), test.ShouldEqual, 1)
}

func TestParseMsgEmbeddedDefinitions(t *testing.T) {
	text := "Header header\n" +
		"string data\n" +
		"===\n" +
		"MSG: std_msgs/Header\n" +
		"uint32 seq\n" +
		"time stamp\n" +
		"string frame_id\n"
	defs, err := ParseMsg("pkg/msg/WithHeader", text)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(defs), test.ShouldEqual, 2)

	primary := defs["pkg/msg/WithHeader"]
	test.That(t, primary, test.ShouldNotBeNil)
	test.That(t, primary.Fields[0].Type.TypeName, test.ShouldEqual, "std_msgs/msg/Header")

	header := defs["std_msgs/msg/Header"]
	test.That(t, header, test.ShouldNotBeNil)
	test.That(t, len(header.Fields), test.ShouldEqual, 3)
	test.That(t, header.Fields[0].Name, test.ShouldEqual, "seq")
}

func TestParseMsgRelativeReference(t *testing.T) {
	defs, err := ParseMsg("geometry_msgs/msg/Pose", "geometry_msgs/msg/Point position\nQuaternion orientation\n")
	test.That(t, err, test.ShouldBeNil)
	def := defs["geometry_msgs/msg/Pose"]
	test.That(t, def.Fields[1].Type.TypeName, test.ShouldEqual, "geometry_msgs/msg/Quaternion")
}

func TestParseMsgDefaultValue(t *testing.T) {
	defs, err := ParseMsg("pkg/msg/Defaults", "int32 count 5\n")
	test.That(t, err, test.ShouldBeNil)
	def := defs["pkg/msg/Defaults"]
	test.That(t, def.Fields[0].HasDefault, test.ShouldBeTrue)
	test.That(t, def.Fields[0].Default, test.ShouldEqual, "5")
}

func TestParseMsgBadField(t *testing.T) {
	_, err := ParseMsg("pkg/msg/Bad", "justonetoken\n")
	test.That(t, err, test.ShouldNotBeNil)
}
