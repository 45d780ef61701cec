package cdr

import (
	"encoding/binary"
	"math"

	"go.viam.com/rosbags/rosbagerr"
	"go.viam.com/rosbags/typesys"
)

// Encode serializes msg, a value of def's shape, as a CDR byte stream
// including its 4-byte encapsulation header. little selects the
// representation id written into that header.
func Encode(reg *typesys.Registry, def *typesys.Definition, msg Message, little bool) ([]byte, error) {
	e := &encoder{little: little}
	e.writeHeader()
	if err := e.encodeFields(reg, def, msg); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	buf    []byte
	little bool
}

func (e *encoder) writeHeader() {
	if e.little {
		e.buf = append(e.buf, 0x00, 0x01, 0x00, 0x00)
	} else {
		e.buf = append(e.buf, 0x00, 0x00, 0x00, 0x00)
	}
}

// pos is the write position relative to the start of the payload, i.e.
// excluding the 4-byte encapsulation header.
func (e *encoder) pos() int {
	return len(e.buf) - 4
}

func (e *encoder) align(n int) {
	if n <= 1 {
		return
	}
	if rem := e.pos() % n; rem != 0 {
		e.buf = append(e.buf, make([]byte, n-rem)...)
	}
}

func (e *encoder) order() binary.ByteOrder {
	if e.little {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (e *encoder) putUint16(v uint16) {
	e.align(2)
	var b [2]byte
	e.order().PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) putUint32(v uint32) {
	e.align(4)
	var b [4]byte
	e.order().PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) putUint64(v uint64) {
	e.align(8)
	var b [8]byte
	e.order().PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) encodeFields(reg *typesys.Registry, def *typesys.Definition, msg Message) error {
	for _, f := range def.Fields {
		if err := e.encodeField(reg, &f.Type, msg[f.Name]); err != nil {
			return rosbagerr.Wrap(err, "encoding field %q of %s", f.Name, def.Name)
		}
	}
	return nil
}

func (e *encoder) encodeField(reg *typesys.Registry, t *typesys.FieldType, val any) error {
	switch t.Kind {
	case typesys.FieldPrimitive:
		return e.encodePrimitive(t.Primitive, val)
	case typesys.FieldNested:
		return e.encodeNested(reg, t.TypeName, val)
	case typesys.FieldArray:
		return e.encodeArray(reg, t, val)
	case typesys.FieldSequence:
		return e.encodeSequence(reg, t, val)
	default:
		return rosbagerr.BadLength("unhandled field kind")
	}
}

func (e *encoder) encodeNested(reg *typesys.Registry, typeName string, val any) error {
	sub, err := reg.Lookup(typeName)
	if err != nil {
		return err
	}
	align, err := sub.LeadingAlignment(reg)
	if err != nil {
		return err
	}
	e.align(align)

	msg, ok := val.(Message)
	if !ok {
		return rosbagerr.BadLength("value for nested message %q must be a cdr.Message", typeName)
	}
	return e.encodeFields(reg, sub, msg)
}

func (e *encoder) encodeArray(reg *typesys.Registry, t *typesys.FieldType, val any) error {
	elems, err := asSlice(val)
	if err != nil {
		return err
	}
	if len(elems) != t.ArrayLen {
		return rosbagerr.BadLength("fixed array expects %d elements, got %d", t.ArrayLen, len(elems))
	}
	for _, el := range elems {
		if err := e.encodeField(reg, t.Elem, el); err != nil {
			return err
		}
	}
	return nil
}

// encodeSequence writes the uint32 count, then aligns to the element
// type's leading alignment unconditionally (the zero-length-sequence
// alignment rule, spec.md §9), then writes each element.
func (e *encoder) encodeSequence(reg *typesys.Registry, t *typesys.FieldType, val any) error {
	elems, err := asSlice(val)
	if err != nil {
		return err
	}
	if t.Bounded && len(elems) > t.Bound {
		return rosbagerr.BadLength("bounded sequence allows at most %d elements, got %d", t.Bound, len(elems))
	}
	e.putUint32(uint32(len(elems)))

	align, err := t.Elem.LeadingAlignment(reg)
	if err != nil {
		return err
	}
	e.align(align)

	for _, el := range elems {
		if err := e.encodeField(reg, t.Elem, el); err != nil {
			return err
		}
	}
	return nil
}

func asSlice(val any) ([]any, error) {
	elems, ok := val.([]any)
	if !ok {
		return nil, rosbagerr.BadLength("expected a slice value, got %T", val)
	}
	return elems, nil
}

func (e *encoder) encodePrimitive(kind typesys.PrimitiveKind, val any) error {
	switch kind {
	case typesys.Bool:
		v, ok := val.(bool)
		if !ok {
			return rosbagerr.BadLength("expected bool, got %T", val)
		}
		if v {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
	case typesys.Byte, typesys.Uint8:
		v, err := asUint64(val)
		if err != nil {
			return err
		}
		e.buf = append(e.buf, byte(v))
	case typesys.Char, typesys.Int8:
		v, err := asInt64(val)
		if err != nil {
			return err
		}
		e.buf = append(e.buf, byte(v))
	case typesys.Int16:
		v, err := asInt64(val)
		if err != nil {
			return err
		}
		e.putUint16(uint16(v))
	case typesys.Uint16:
		v, err := asUint64(val)
		if err != nil {
			return err
		}
		e.putUint16(uint16(v))
	case typesys.Int32:
		v, err := asInt64(val)
		if err != nil {
			return err
		}
		e.putUint32(uint32(v))
	case typesys.Uint32:
		v, err := asUint64(val)
		if err != nil {
			return err
		}
		e.putUint32(uint32(v))
	case typesys.Int64:
		v, err := asInt64(val)
		if err != nil {
			return err
		}
		e.putUint64(uint64(v))
	case typesys.Uint64:
		v, err := asUint64(val)
		if err != nil {
			return err
		}
		e.putUint64(v)
	case typesys.Float32:
		v, ok := val.(float32)
		if !ok {
			return rosbagerr.BadLength("expected float32, got %T", val)
		}
		e.putUint32(math.Float32bits(v))
	case typesys.Float64:
		v, ok := val.(float64)
		if !ok {
			return rosbagerr.BadLength("expected float64, got %T", val)
		}
		e.putUint64(math.Float64bits(v))
	case typesys.String:
		v, ok := val.(string)
		if !ok {
			return rosbagerr.BadLength("expected string, got %T", val)
		}
		e.putUint32(uint32(len(v) + 1))
		e.buf = append(e.buf, v...)
		e.buf = append(e.buf, 0)
	case typesys.Time:
		v, ok := val.(Time)
		if !ok {
			return rosbagerr.BadLength("expected cdr.Time, got %T", val)
		}
		e.putUint32(uint32(v.Sec))
		e.putUint32(v.Nanosec)
	case typesys.Duration:
		v, ok := val.(Duration)
		if !ok {
			return rosbagerr.BadLength("expected cdr.Duration, got %T", val)
		}
		e.putUint32(uint32(v.Sec))
		e.putUint32(v.Nanosec)
	default:
		return rosbagerr.BadLength("unhandled primitive kind %d", kind)
	}
	return nil
}

func asInt64(val any) (int64, error) {
	switch v := val.(type) {
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, rosbagerr.BadLength("expected a signed integer, got %T", val)
	}
}

func asUint64(val any) (uint64, error) {
	switch v := val.(type) {
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	default:
		return 0, rosbagerr.BadLength("expected an unsigned integer, got %T", val)
	}
}
