package cdr

import (
	"encoding/binary"
	"math"

	"go.viam.com/rosbags/rosbagerr"
	"go.viam.com/rosbags/typesys"
)

// Decode parses a complete CDR byte stream (including its encapsulation
// header) against def, returning the decoded value and whether the
// stream declared little-endian representation. Every byte of data must
// be consumed; leftover bytes are an ExcessBytes error.
func Decode(reg *typesys.Registry, def *typesys.Definition, data []byte) (Message, bool, error) {
	if len(data) < 4 {
		return nil, false, rosbagerr.ShortRead("cdr stream shorter than the 4-byte encapsulation header")
	}
	if data[0] != 0x00 || (data[1] != 0x00 && data[1] != 0x01) {
		return nil, false, rosbagerr.BadLength("unrecognised cdr representation id %02x%02x", data[0], data[1])
	}
	little := data[1] == 0x01

	d := &decoder{buf: data[4:], little: little}
	msg, err := d.decodeFields(reg, def)
	if err != nil {
		return nil, little, err
	}
	if d.pos() != len(d.buf) {
		return nil, little, rosbagerr.ExcessBytes("%d trailing bytes after decoding %s", len(d.buf)-d.pos(), def.Name)
	}
	return msg, little, nil
}

type decoder struct {
	buf    []byte
	off    int
	little bool
}

func (d *decoder) pos() int { return d.off }

func (d *decoder) align(n int) {
	if n <= 1 {
		return
	}
	if rem := d.off % n; rem != 0 {
		d.off += n - rem
	}
}

func (d *decoder) order() binary.ByteOrder {
	if d.little {
		return binary.LittleEndian
	}
	return binary.BigEndian
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
	d.align(2)
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := d.order().Uint16(d.buf[d.off:])
	d.off += 2
	return v, nil
}

func (d *decoder) takeUint32() (uint32, error) {
	d.align(4)
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := d.order().Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) takeUint64() (uint64, error) {
	d.align(8)
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := d.order().Uint64(d.buf[d.off:])
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
		return d.decodeNested(reg, t.TypeName)
	case typesys.FieldArray:
		return d.decodeArray(reg, t)
	case typesys.FieldSequence:
		return d.decodeSequence(reg, t)
	default:
		return nil, rosbagerr.BadLength("unhandled field kind")
	}
}

func (d *decoder) decodeNested(reg *typesys.Registry, typeName string) (Message, error) {
	sub, err := reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	align, err := sub.LeadingAlignment(reg)
	if err != nil {
		return nil, err
	}
	d.align(align)
	return d.decodeFields(reg, sub)
}

func (d *decoder) decodeArray(reg *typesys.Registry, t *typesys.FieldType) ([]any, error) {
	out := make([]any, t.ArrayLen)
	for i := range out {
		v, err := d.decodeField(reg, t.Elem)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d *decoder) decodeSequence(reg *typesys.Registry, t *typesys.FieldType) ([]any, error) {
	count, err := d.takeUint32()
	if err != nil {
		return nil, err
	}
	if t.Bounded && int(count) > t.Bound {
		return nil, rosbagerr.BadLength("bounded sequence allows at most %d elements, got %d", t.Bound, count)
	}

	align, err := t.Elem.LeadingAlignment(reg)
	if err != nil {
		return nil, err
	}
	d.align(align)

	out := make([]any, count)
	for i := range out {
		v, err := d.decodeField(reg, t.Elem)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
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
		b, err := d.takeByte()
		return b, err
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
		return d.decodeString()
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

func (d *decoder) decodeString() (string, error) {
	length, err := d.takeUint32()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", rosbagerr.BadLength("cdr string length prefix must include the trailing NUL, got 0")
	}
	if err := d.need(int(length)); err != nil {
		return "", err
	}
	raw := d.buf[d.off : d.off+int(length)]
	d.off += int(length)
	// raw includes the trailing NUL; trim it.
	return string(raw[:len(raw)-1]), nil
}
