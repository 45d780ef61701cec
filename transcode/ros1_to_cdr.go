package transcode

import (
	"go.viam.com/rosbags/rosbagerr"
	"go.viam.com/rosbags/typesys"
)

// ROS1ToCDR transcodes a single ROS1 wire message to CDR, against def,
// resolving nested types through reg. little selects the CDR
// representation the output declares in its encapsulation header.
func ROS1ToCDR(reg *typesys.Registry, def *typesys.Definition, ros1Data []byte, little bool) ([]byte, error) {
	c := &ros1ToCDR{in: ros1Data, little: little}
	c.writeHeader()
	if err := c.transcodeMessage(reg, def); err != nil {
		return nil, err
	}
	if c.inOff != len(c.in) {
		return nil, rosbagerr.ExcessBytes("%d trailing ROS1 bytes after transcoding %s", len(c.in)-c.inOff, def.Name)
	}
	return c.out, nil
}

type ros1ToCDR struct {
	in     []byte
	inOff  int
	out    []byte
	little bool
}

func (c *ros1ToCDR) writeHeader() {
	if c.little {
		c.out = append(c.out, 0x00, 0x01, 0x00, 0x00)
	} else {
		c.out = append(c.out, 0x00, 0x00, 0x00, 0x00)
	}
}

func (c *ros1ToCDR) outPos() int { return len(c.out) - 4 }

func (c *ros1ToCDR) alignOut(n int) {
	if n <= 1 {
		return
	}
	if rem := c.outPos() % n; rem != 0 {
		c.out = append(c.out, make([]byte, n-rem)...)
	}
}

func (c *ros1ToCDR) readRaw(n int) ([]byte, error) {
	if c.inOff+n > len(c.in) {
		return nil, rosbagerr.ShortRead("need %d more ROS1 bytes at offset %d, have %d", n, c.inOff, len(c.in)-c.inOff)
	}
	b := c.in[c.inOff : c.inOff+n]
	c.inOff += n
	return b, nil
}

func (c *ros1ToCDR) transcodeMessage(reg *typesys.Registry, def *typesys.Definition) error {
	fields := def.Fields
	if def.Name == headerTypeName {
		if _, err := c.readRaw(4); err != nil {
			return rosbagerr.Wrap(err, "discarding ROS1 seq field of %s", def.Name)
		}
		// A Header parsed from ROS1 text declares seq itself; it has just
		// been consumed, so it is not transcoded again.
		if len(fields) > 0 && fields[0].Name == "seq" {
			fields = fields[1:]
		}
	}
	for _, f := range fields {
		if err := c.transcodeField(reg, &f.Type); err != nil {
			return rosbagerr.Wrap(err, "transcoding field %q of %s", f.Name, def.Name)
		}
	}
	return nil
}

func (c *ros1ToCDR) transcodeField(reg *typesys.Registry, t *typesys.FieldType) error {
	switch t.Kind {
	case typesys.FieldPrimitive:
		return c.transcodePrimitive(t.Primitive)
	case typesys.FieldNested:
		sub, err := reg.Lookup(t.TypeName)
		if err != nil {
			return err
		}
		align, err := sub.LeadingAlignment(reg)
		if err != nil {
			return err
		}
		c.alignOut(align)
		return c.transcodeMessage(reg, sub)
	case typesys.FieldArray:
		for i := 0; i < t.ArrayLen; i++ {
			if err := c.transcodeField(reg, t.Elem); err != nil {
				return err
			}
		}
		return nil
	case typesys.FieldSequence:
		return c.transcodeSequence(reg, t)
	default:
		return rosbagerr.BadLength("unhandled field kind")
	}
}

func (c *ros1ToCDR) transcodeSequence(reg *typesys.Registry, t *typesys.FieldType) error {
	countRaw, err := c.readRaw(4)
	if err != nil {
		return err
	}
	count := readLE32(countRaw)
	if t.Bounded && int(count) > t.Bound {
		return rosbagerr.BadLength("bounded sequence allows at most %d elements, got %d", t.Bound, count)
	}

	c.alignOut(4)
	countOut := putLE32(count)
	if !c.little {
		reverseBytes(countOut)
	}
	c.out = append(c.out, countOut...)

	align, err := t.Elem.LeadingAlignment(reg)
	if err != nil {
		return err
	}
	c.alignOut(align)

	for i := uint32(0); i < count; i++ {
		if err := c.transcodeField(reg, t.Elem); err != nil {
			return err
		}
	}
	return nil
}

func (c *ros1ToCDR) transcodePrimitive(kind typesys.PrimitiveKind) error {
	if kind == typesys.String {
		return c.transcodeString()
	}
	if kind == typesys.Time || kind == typesys.Duration {
		c.alignOut(4)
		for i := 0; i < 2; i++ {
			if err := c.moveNumeric(4); err != nil {
				return err
			}
		}
		return nil
	}

	size, err := primitiveWireSize(kind)
	if err != nil {
		return err
	}
	c.alignOut(size)
	return c.moveNumeric(size)
}

// moveNumeric copies a size-byte scalar from the ROS1 (always
// little-endian) input to the CDR output, reversing byte order first if
// the output declared big-endian representation.
func (c *ros1ToCDR) moveNumeric(size int) error {
	raw, err := c.readRaw(size)
	if err != nil {
		return err
	}
	word := append([]byte(nil), raw...)
	if !c.little && size > 1 {
		reverseBytes(word)
	}
	c.out = append(c.out, word...)
	return nil
}

func (c *ros1ToCDR) transcodeString() error {
	lenRaw, err := c.readRaw(4)
	if err != nil {
		return err
	}
	n := readLE32(lenRaw)
	data, err := c.readRaw(int(n))
	if err != nil {
		return err
	}

	c.alignOut(4)
	lenOut := putLE32(n + 1)
	if !c.little {
		reverseBytes(lenOut)
	}
	c.out = append(c.out, lenOut...)
	c.out = append(c.out, data...)
	c.out = append(c.out, 0)
	return nil
}
