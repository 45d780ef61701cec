// Package ros1wire implements the legacy ROS1 wire format: little-endian,
// unaligned, with no encapsulation header. It shares its dynamic message
// value representation with the cdr package so the transcoder and the
// rosbag1/rosbag2 readers can move values between the two codecs without
// a third representation.
package ros1wire

import (
	"encoding/binary"
	"math"

	"go.viam.com/rosbags/cdr"
	"go.viam.com/rosbags/rosbagerr"
	"go.viam.com/rosbags/typesys"
)

// Message is the value type ros1wire encodes and decodes; an alias for
// cdr.Message so values can cross codecs without conversion.
type Message = cdr.Message

// Time and Duration alias the cdr package's representations of the
// builtin_interfaces/msg/Time and Duration shapes.
type Time = cdr.Time
type Duration = cdr.Duration

// Encode serializes msg, a value of def's shape, as ROS1 wire bytes.
func Encode(reg *typesys.Registry, def *typesys.Definition, msg Message) ([]byte, error) {
	e := &encoder{}
	if err := e.encodeFields(reg, def, msg); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Decode parses data as a complete ROS1 wire message against def. Every
// byte must be consumed; leftover bytes are an ExcessBytes error.
func Decode(reg *typesys.Registry, def *typesys.Definition, data []byte) (Message, error) {
	d := &decoder{buf: data}
	msg, err := d.decodeFields(reg, def)
	if err != nil {
		return nil, err
	}
	if d.off != len(d.buf) {
		return nil, rosbagerr.ExcessBytes("%d trailing bytes after decoding %s", len(d.buf)-d.off, def.Name)
	}
	return msg, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) putUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) putUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) putUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
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
	case typesys.FieldSequence:
		elems, err := asSlice(val)
		if err != nil {
			return err
		}
		if t.Bounded && len(elems) > t.Bound {
			return rosbagerr.BadLength("bounded sequence allows at most %d elements, got %d", t.Bound, len(elems))
		}
		e.putUint32(uint32(len(elems)))
		for _, el := range elems {
			if err := e.encodeField(reg, t.Elem, el); err != nil {
				return err
			}
		}
		return nil
	default:
		return rosbagerr.BadLength("unhandled field kind")
	}
}

func (e *encoder) encodeNested(reg *typesys.Registry, typeName string, val any) error {
	sub, err := reg.Lookup(typeName)
	if err != nil {
		return err
	}
	msg, ok := val.(Message)
	if !ok {
		return rosbagerr.BadLength("value for nested message %q must be a ros1wire.Message", typeName)
	}
	return e.encodeFields(reg, sub, msg)
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
		e.putUint32(uint32(len(v)))
		e.buf = append(e.buf, v...)
	case typesys.Time:
		v, ok := val.(Time)
		if !ok {
			return rosbagerr.BadLength("expected ros1wire.Time, got %T", val)
		}
		e.putUint32(uint32(v.Sec))
		e.putUint32(v.Nanosec)
	case typesys.Duration:
		v, ok := val.(Duration)
		if !ok {
			return rosbagerr.BadLength("expected ros1wire.Duration, got %T", val)
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

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) need(n int) error {
	if d.off+n > len(d.buf) {
		return rosbagerr.ShortRead("need %d more bytes at offset %d, have %d", n, d.off, len(d.buf)-d.off)
	}
	return nil
}

func (d *decoder) takeByte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) takeUint16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v, nil
}

func (d *decoder) takeUint32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) takeUint64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, nil
}

func (d *decoder) decodeFields(reg *typesys.Registry, def *typesys.Definition) (Message, error) {
	msg := make(Message, len(def.Fields))
	for _, f := range def.Fields {
		v, err := d.decodeField(reg, &f.Type)
		if err != nil {
			return nil, rosbagerr.Wrap(err, "decoding field %q of %s", f.Name, def.Name)
		}
		msg[f.Name] = v
	}
	return msg, nil
}

func (d *decoder) decodeField(reg *typesys.Registry, t *typesys.FieldType) (any, error) {
	switch t.Kind {
	case typesys.FieldPrimitive:
		return d.decodePrimitive(t.Primitive)
	case typesys.FieldNested:
		sub, err := reg.Lookup(t.TypeName)
		if err != nil {
			return nil, err
		}
		return d.decodeFields(reg, sub)
	case typesys.FieldArray:
		out := make([]any, t.ArrayLen)
		for i := range out {
			v, err := d.decodeField(reg, t.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case typesys.FieldSequence:
		count, err := d.takeUint32()
		if err != nil {
			return nil, err
		}
		if t.Bounded && int(count) > t.Bound {
			return nil, rosbagerr.BadLength("bounded sequence allows at most %d elements, got %d", t.Bound, count)
		}
		out := make([]any, count)
		for i := range out {
			v, err := d.decodeField(reg, t.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, rosbagerr.BadLength("unhandled field kind")
	}
}

func (d *decoder) decodePrimitive(kind typesys.PrimitiveKind) (any, error) {
	switch kind {
	case typesys.Bool:
		b, err := d.takeByte()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case typesys.Byte, typesys.Uint8:
		return d.takeByte()
	case typesys.Char, typesys.Int8:
		b, err := d.takeByte()
		return int8(b), err
	case typesys.Int16:
		v, err := d.takeUint16()
		return int16(v), err
	case typesys.Uint16:
		return d.takeUint16()
	case typesys.Int32:
		v, err := d.takeUint32()
		return int32(v), err
	case typesys.Uint32:
		return d.takeUint32()
	case typesys.Int64:
		v, err := d.takeUint64()
		return int64(v), err
	case typesys.Uint64:
		return d.takeUint64()
	case typesys.Float32:
		v, err := d.takeUint32()
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(v), nil
	case typesys.Float64:
		v, err := d.takeUint64()
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(v), nil
	case typesys.String:
		length, err := d.takeUint32()
		if err != nil {
			return nil, err
		}
		if err := d.need(int(length)); err != nil {
			return "", err
		}
		s := string(d.buf[d.off : d.off+int(length)])
		d.off += int(length)
		return s, nil
	case typesys.Time:
		sec, err := d.takeUint32()
		if err != nil {
			return nil, err
		}
		nsec, err := d.takeUint32()
		if err != nil {
			return nil, err
		}
		return Time{Sec: int32(sec), Nanosec: nsec}, nil
	case typesys.Duration:
		sec, err := d.takeUint32()
		if err != nil {
			return nil, err
		}
		nsec, err := d.takeUint32()
		if err != nil {
			return nil, err
		}
		return Duration{Sec: int32(sec), Nanosec: nsec}, nil
	default:
		return nil, rosbagerr.BadLength("unhandled primitive kind %d", kind)
	}
}
