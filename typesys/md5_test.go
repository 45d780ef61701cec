package typesys

import (
	"testing"

	"go.viam.com/test"
)

func TestComputeMD5SumSimple(t *testing.T) {
	reg := NewRegistry()
	def := &Definition{
		Name:   "std_msgs/msg/String",
		Fields: []Field{{Name: "data", Type: FieldType{Kind: FieldPrimitive, Primitive: String}}},
	}
	test.That(t, reg.RegisterOne(def), test.ShouldBeNil)

	sum, err := ComputeMD5Sum(reg, def)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sum, test.ShouldEqual, "992ce8a1687cec8c8bd883ec73ca41d1")
}

func TestComputeMD5SumWithConstant(t *testing.T) {
	def := &Definition{
		Name:      "pkg/msg/Consts",
		Constants: []Constant{{Type: Int32, Name: "FOO", Value: "42"}},
		Fields:    []Field{{Name: "field", Type: FieldType{Kind: FieldPrimitive, Primitive: Int32}}},
	}
	reg := NewRegistry()
	test.That(t, reg.RegisterOne(def), test.ShouldBeNil)

	sum, err := ComputeMD5Sum(reg, def)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sum, test.ShouldEqual, "330df67da72616c726f3fd09464dd5e1")
}

func TestComputeMD5SumNestedSubstitution(t *testing.T) {
	reg := NewRegistry()

	timeDef := &Definition{
		Name: "builtin_interfaces/msg/Time",
		Fields: []Field{
			{Name: "sec", Type: FieldType{Kind: FieldPrimitive, Primitive: Int32}},
			{Name: "nanosec", Type: FieldType{Kind: FieldPrimitive, Primitive: Uint32}},
		},
	}
	headerDef := &Definition{
		Name: "std_msgs/msg/Header",
		Fields: []Field{
			{Name: "stamp", Type: FieldType{Kind: FieldNested, TypeName: "builtin_interfaces/msg/Time"}},
			{Name: "frame_id", Type: FieldType{Kind: FieldPrimitive, Primitive: String}},
		},
	}
	test.That(t, reg.Register(map[string]*Definition{
		timeDef.Name:   timeDef,
		headerDef.Name: headerDef,
	}), test.ShouldBeNil)

	sum, err := ComputeMD5Sum(reg, headerDef)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sum, test.ShouldEqual, "3cca5e8ccb31a32fff4058beb6f250e3")
}

func TestComputeMD5SumDeterministicAndSensitive(t *testing.T) {
	reg := NewRegistry()
	a := &Definition{Name: "pkg/msg/A", Fields: []Field{{Name: "x", Type: FieldType{Kind: FieldPrimitive, Primitive: Int32}}}}
	test.That(t, reg.RegisterOne(a), test.ShouldBeNil)

	sum1, err := ComputeMD5Sum(reg, a)
	test.That(t, err, test.ShouldBeNil)
	sum2, err := ComputeMD5Sum(reg, a)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sum1, test.ShouldEqual, sum2)

	reg2 := NewRegistry()
	b := &Definition{Name: "pkg/msg/A", Fields: []Field{{Name: "x", Type: FieldType{Kind: FieldPrimitive, Primitive: Int64}}}}
	test.That(t, reg2.RegisterOne(b), test.ShouldBeNil)
	sum3, err := ComputeMD5Sum(reg2, b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sum3, test.ShouldNotEqual, sum1)
}

func TestComputeMD5SumUnknownNestedType(t *testing.T) {
	reg := NewRegistry()
	def := &Definition{
		Name:   "pkg/msg/Bad",
		Fields: []Field{{Name: "f", Type: FieldType{Kind: FieldNested, TypeName: "pkg/msg/Missing"}}},
	}
	test.That(t, reg.RegisterOne(def), test.ShouldBeNil)

	_, err := ComputeMD5Sum(reg, def)
	test.That(t, err, test.ShouldNotBeNil)
}
