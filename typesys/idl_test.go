package typesys

import (
	"testing"

	"go.viam.com/test"
)

func TestParseIDLSimpleStruct(t *testing.T) {
	text := `
module std_msgs {
  module msg {
    struct String {
      string data;
    };
  };
};
`
	defs, err := ParseIDL(text)
	test.That(t, err, test.ShouldBeNil)
	def := defs["std_msgs/msg/String"]
	test.That(t, def, test.ShouldNotBeNil)
	test.That(t, len(def.Fields), test.ShouldEqual, 1)
	test.That(t, def.Fields[0].Name, test.ShouldEqual, "data")
	test.That(t, def.Fields[0].Type.Primitive, test.ShouldEqual, String)
}

func TestParseIDLNestedAndSequence(t *testing.T) {
	text := `
module geometry_msgs {
  module msg {
    struct Point {
      double x;
      double y;
      double z;
    };
    struct Polygon {
      sequence<geometry_msgs::msg::Point> points;
    };
  };
};
`
	defs, err := ParseIDL(text)
	test.That(t, err, test.ShouldBeNil)
	point := defs["geometry_msgs/msg/Point"]
	test.That(t, point, test.ShouldNotBeNil)
	test.That(t, point.Fields[0].Type.Primitive, test.ShouldEqual, Float64)

	poly := defs["geometry_msgs/msg/Polygon"]
	test.That(t, poly, test.ShouldNotBeNil)
	test.That(t, poly.Fields[0].Type.Kind, test.ShouldEqual, FieldSequence)
	test.That(t, poly.Fields[0].Type.Bounded, test.ShouldBeFalse)
	test.That(t, poly.Fields[0].Type.Elem.TypeName, test.ShouldEqual, "geometry_msgs/msg/Point")
}

func TestParseIDLBoundedSequenceAndArray(t *testing.T) {
	text := `
module pkg {
  module msg {
    struct Arrays {
      sequence<int32, 10> bounded;
      double fixed[3];
    };
  };
};
`
	defs, err := ParseIDL(text)
	test.That(t, err, test.ShouldBeNil)
	def := defs["pkg/msg/Arrays"]
	test.That(t, def.Fields[0].Type.Kind, test.ShouldEqual, FieldSequence)
	test.That(t, def.Fields[0].Type.Bounded, test.ShouldBeTrue)
	test.That(t, def.Fields[0].Type.Bound, test.ShouldEqual, 10)
	test.That(t, def.Fields[1].Type.Kind, test.ShouldEqual, FieldArray)
	test.That(t, def.Fields[1].Type.ArrayLen, test.ShouldEqual, 3)
}

func TestParseIDLConstAndComments(t *testing.T) {
	text := `
// line comment
module pkg {
  module msg {
    /* block
       comment */
    struct WithConst {
      const int32 FOO = 1;
      int32 value;
    };
  };
};
`
	defs, err := ParseIDL(text)
	test.That(t, err, test.ShouldBeNil)
	def := defs["pkg/msg/WithConst"]
	test.That(t, def, test.ShouldNotBeNil)
	test.That(t, len(def.Fields), test.ShouldEqual, 1)
	test.That(t, def.Fields[0].Name, test.ShouldEqual, "value")
}

func TestParseIDLDefaultAnnotation(t *testing.T) {
	text := `
module pkg {
  module msg {
    struct Defaults {
      @default(value=5)
      int32 count;
    };
  };
};
`
	defs, err := ParseIDL(text)
	test.That(t, err, test.ShouldBeNil)
	def := defs["pkg/msg/Defaults"]
	test.That(t, def.Fields[0].HasDefault, test.ShouldBeTrue)
	test.That(t, def.Fields[0].Default, test.ShouldEqual, "5")
}
