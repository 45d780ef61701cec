// Package typesys implements the message type system shared by every
// codec in rosbags: the .msg/.idl definition parsers (L1), the parse-tree
// data model, and the process-scoped type registry (L2).
//
// A parse tree never references another definition by pointer — only by
// fully-qualified name — so definitions can be registered in any order
// and codecs resolve names lazily at encode/decode time.
package typesys

import "fmt"

// PrimitiveKind enumerates the scalar wire types a field can hold.
type PrimitiveKind uint8

// The primitive kinds, in the order spec.md §3 lists their wire sizes.
const (
	Bool PrimitiveKind = iota
	Byte
	Char
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	String
	Time
	Duration
)

var primitiveNames = map[PrimitiveKind]string{
	Bool: "bool", Byte: "byte", Char: "char",
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64",
	Float32: "float32", Float64: "float64",
	String: "string", Time: "time", Duration: "duration",
}

var namesToPrimitive = func() map[string]PrimitiveKind {
	m := make(map[string]PrimitiveKind, len(primitiveNames))
	for k, v := range primitiveNames {
		m[v] = k
	}
	return m
}()

// String returns the .msg-dialect spelling of the primitive.
func (k PrimitiveKind) String() string {
	if name, ok := primitiveNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PrimitiveKind(%d)", uint8(k))
}

// LookupPrimitive returns the PrimitiveKind for a .msg-dialect type name,
// or false if name does not name a primitive.
func LookupPrimitive(name string) (PrimitiveKind, bool) {
	k, ok := namesToPrimitive[name]
	return k, ok
}

// Align returns the CDR alignment, in bytes, of a scalar value of this
// primitive kind: the position (relative to the payload start) at which a
// value of this kind must begin. Aggregate kinds (string, sequence) align
// on their uint32 length prefix.
func (k PrimitiveKind) Align() int {
	switch k {
	case Bool, Byte, Char, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32, String, Time, Duration:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 1
	}
}

// FixedSize reports the on-the-wire size in bytes of a scalar value of
// this kind, and whether the kind has a fixed size at all (string does
// not: ok is false).
func (k PrimitiveKind) FixedSize() (size int, ok bool) {
	switch k {
	case Bool, Byte, Char, Int8, Uint8:
		return 1, true
	case Int16, Uint16:
		return 2, true
	case Int32, Uint32, Float32:
		return 4, true
	case Int64, Uint64, Float64:
		return 8, true
	case Time, Duration:
		return 8, true
	case String:
		return 0, false
	default:
		return 0, false
	}
}

// FieldKind tags the shape of a FieldType.
type FieldKind uint8

const (
	// FieldPrimitive is a scalar of a PrimitiveKind.
	FieldPrimitive FieldKind = iota
	// FieldNested references another registered Definition by name.
	FieldNested
	// FieldArray is a fixed-length array of N elements.
	FieldArray
	// FieldSequence is a bounded or unbounded run-time-length sequence.
	FieldSequence
)

// FieldType is a sum type over the four field shapes spec.md §3 defines:
// primitive, nested message, fixed array, and bounded/unbounded sequence.
type FieldType struct {
	Kind FieldKind

	// Primitive is valid when Kind == FieldPrimitive.
	Primitive PrimitiveKind

	// TypeName is valid when Kind == FieldNested: a fully-qualified
	// "pkg/msg/Name" reference, resolved lazily against a Registry.
	TypeName string

	// Elem is valid when Kind is FieldArray or FieldSequence: the type of
	// each element, which may itself be primitive or nested.
	Elem *FieldType

	// ArrayLen is valid when Kind == FieldArray.
	ArrayLen int

	// Bounded and Bound are valid when Kind == FieldSequence. Bounded
	// false means an unbounded sequence ("T[]"); true means "T[<=N]"
	// with N in Bound.
	Bounded bool
	Bound   int
}

// IsMessage reports whether this field type (directly, or as the element
// of an array/sequence) names a nested message rather than a primitive.
func (f *FieldType) IsMessage() bool {
	switch f.Kind {
	case FieldNested:
		return true
	case FieldArray, FieldSequence:
		return f.Elem.IsMessage()
	default:
		return false
	}
}

// String renders the field type using .msg-dialect array/sequence syntax,
// e.g. "uint32", "geometry_msgs/msg/Point", "float64[3]", "string[<=10]".
func (f *FieldType) String() string {
	switch f.Kind {
	case FieldPrimitive:
		return f.Primitive.String()
	case FieldNested:
		return f.TypeName
	case FieldArray:
		return fmt.Sprintf("%s[%d]", f.Elem.String(), f.ArrayLen)
	case FieldSequence:
		if f.Bounded {
			return fmt.Sprintf("%s[<=%d]", f.Elem.String(), f.Bound)
		}
		return fmt.Sprintf("%s[]", f.Elem.String())
	default:
		return "?"
	}
}

// Equal reports whether two field types describe the same shape. Bound
// values and array lengths are part of the shape for TypeConflict
// detection purposes.
func (f *FieldType) Equal(other *FieldType) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Kind != other.Kind {
		return false
	}
	switch f.Kind {
	case FieldPrimitive:
		return f.Primitive == other.Primitive
	case FieldNested:
		return f.TypeName == other.TypeName
	case FieldArray:
		return f.ArrayLen == other.ArrayLen && f.Elem.Equal(other.Elem)
	case FieldSequence:
		return f.Bounded == other.Bounded && f.Bound == other.Bound && f.Elem.Equal(other.Elem)
	default:
		return false
	}
}

// Field is a named, typed slot in a Definition, with the bound/default
// syntax the parsers recognise but never enforce.
type Field struct {
	Name       string
	Type       FieldType
	HasDefault bool
	// Default holds the raw literal text for a default value, unparsed.
	Default string
}

// Constant is an informational (type, name, value) triple attached to a
// Definition. It never appears on the wire.
type Constant struct {
	Type  PrimitiveKind
	Name  string
	Value string
}

// Definition is a fully parsed message type: its fully-qualified name,
// ordered fields, and ordered constants.
type Definition struct {
	// Name is the fully-qualified "pkg/msg/Name" identity of this type.
	Name      string
	Fields    []Field
	Constants []Constant
}

// Equal reports whether two definitions have the same name, fields (in
// order, including defaults), and constants (in order). Used by the
// registry to detect a no-op re-registration versus a TypeConflict.
func (d *Definition) Equal(other *Definition) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Name != other.Name {
		return false
	}
	if len(d.Fields) != len(other.Fields) {
		return false
	}
	for i := range d.Fields {
		a, b := d.Fields[i], other.Fields[i]
		if a.Name != b.Name || a.HasDefault != b.HasDefault || a.Default != b.Default {
			return false
		}
		if !a.Type.Equal(&b.Type) {
			return false
		}
	}
	if len(d.Constants) != len(other.Constants) {
		return false
	}
	for i := range d.Constants {
		a, b := d.Constants[i], other.Constants[i]
		if a.Type != b.Type || a.Name != b.Name || a.Value != b.Value {
			return false
		}
	}
	return true
}

// LeadingAlignment returns the CDR alignment of this definition's first
// field, resolving nested messages recursively through reg. Per spec.md
// §4.3 this is how a nested message's own payload is aligned as a whole
// inside its parent (the "subtype alignment rule"). A definition with no
// fields aligns to 1 (it contributes no bytes).
func (d *Definition) LeadingAlignment(reg *Registry) (int, error) {
	if len(d.Fields) == 0 {
		return 1, nil
	}
	return d.Fields[0].Type.leadingAlignment(reg)
}

// LeadingAlignment returns the CDR alignment a value of this field type
// contributes when it is itself a struct's leading field: a primitive's
// own alignment, a nested message's leading alignment (recursively), or
// an array/sequence's element alignment. The CDR codec also uses this to
// determine the alignment boundary a sequence must observe after its
// length prefix, independent of runtime element count (the
// zero-length-sequence alignment rule, spec.md §9).
func (f *FieldType) LeadingAlignment(reg *Registry) (int, error) {
	return f.leadingAlignment(reg)
}

func (f *FieldType) leadingAlignment(reg *Registry) (int, error) {
	switch f.Kind {
	case FieldPrimitive:
		return f.Primitive.Align(), nil
	case FieldNested:
		def, err := reg.Lookup(f.TypeName)
		if err != nil {
			return 0, err
		}
		return def.LeadingAlignment(reg)
	case FieldArray, FieldSequence:
		// A sequence/array's own leading alignment, for the purpose of a
		// parent nested message, is the uint32 count (for sequences) or
		// the element alignment (for fixed arrays); either way this is
		// only consulted when this FieldType is itself field 0 of some
		// Definition, which the CDR codec already aligns explicitly, so
		// this branch exists for completeness of the recursion.
		if f.Kind == FieldSequence {
			return 4, nil
		}
		return f.Elem.leadingAlignment(reg)
	default:
		return 1, nil
	}
}

// PackageOf returns the package component of a fully-qualified
// "pkg/msg/Name" (or "pkg/Name") identity.
func PackageOf(fqn string) string {
	for i := 0; i < len(fqn); i++ {
		if fqn[i] == '/' {
			return fqn[:i]
		}
	}
	return fqn
}
