// Package cdr implements the CDR (Common Data Representation) wire codec:
// the OMG-standard binary encoding rosbag2 uses for every message it
// stores. Encoding and decoding walk a typesys.Definition field by field,
// against a dynamically typed Message value rather than a compiled Go
// struct, since the type tree itself is only known at runtime (parsed
// from .msg/.idl text and held in a typesys.Registry).
package cdr

// Message is a dynamically typed message value keyed by field name. A
// leaf value is one of: bool, int8, int16, int32, int64, uint8, uint16,
// uint32, uint64, float32, float64, string, Time, Duration, a nested
// Message, or a []any holding the elements of an array/sequence field.
type Message map[string]any

// Time mirrors builtin_interfaces/msg/Time and is also the value type
// for a field declared with the "time" primitive.
type Time struct {
	Sec     int32
	Nanosec uint32
}

// Duration mirrors builtin_interfaces/msg/Duration and is also the
// value type for a field declared with the "duration" primitive.
type Duration struct {
	Sec     int32
	Nanosec uint32
}
