package transcode

import (
	"go.viam.com/rosbags/rosbagerr"
	"go.viam.com/rosbags/typesys"
)

// CDRToROS1 transcodes a single complete CDR message (including its
// encapsulation header) to ROS1 wire bytes, against def.
func CDRToROS1(reg *typesys.Registry, def *typesys.Definition, cdrData []byte) ([]byte, error) {
	if len(cdrData) < 4 {
		return nil, rosbagerr.ShortRead("cdr stream shorter than the 4-byte encapsulation header")
	}
	if cdrData[0] != 0x00 || (cdrData[1] != 0x00 && cdrData[1] != 0x01) {
		return nil, rosbagerr.BadLength("unrecognised cdr representation id %02x%02x", cdrData[0], cdrData[1])
	}
	c := &cdrToROS1{in: cdrData[4:], little: cdrData[1] == 0x01}

	if err := c.transcodeMessage(reg, def); err != nil {
		return nil, err
	}
	if c.inOff != len(c.in) {
		return nil, rosbagerr.ExcessBytes("%d trailing cdr bytes after transcoding %s", len(c.in)-c.inOff, def.Name)
	}
	return c.out, nil
}

type cdrToROS1 struct {
	in     []byte
	inOff  int
	out    []byte
	little bool
}

func (c *cdrToROS1) alignIn(n int) {
	if n <= 1 {
		return
	}
	if rem := c.inOff % n; rem != 0 {
		c.inOff += n - rem
	}
}

func (c *cdrToROS1) readRaw(n int) ([]byte, error) {
	if c.inOff+n > len(c.in) {
		return nil, rosbagerr.ShortRead("need %d more cdr bytes at offset %d, have %d", n, c.inOff, len(c.in)-c.inOff)
	}
	b := c.in[c.inOff : c.inOff+n]
	c.inOff += n
	return b, nil
}

func (c *cdrToROS1) transcodeMessage(reg *typesys.Registry, def *typesys.Definition) error {
	fields := def.Fields
	if def.Name == headerTypeName {
		c.out = append(c.out, 0, 0, 0, 0)
		// A Header parsed from ROS1 text declares seq itself; CDR input
		// carries no seq, and the zero seq has just been written.
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

func (c *cdrToROS1) transcodeField(reg *typesys.Registry, t *typesys.FieldType) error {
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
		c.alignIn(align)
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

func (c *cdrToROS1) transcodeSequence(reg *typesys.Registry, t *typesys.FieldType) error {
	c.alignIn(4)
	countRaw, err := c.readRaw(4)
	if err != nil {
		return err
	}
	count := readFrom(countRaw, c.little)
	if t.Bounded && int(count) > t.Bound {
		return rosbagerr.BadLength("bounded sequence allows at most %d elements, got %d", t.Bound, count)
	}
	c.out = append(c.out, putLE32(count)...)

	align, err := t.Elem.LeadingAlignment(reg)
	if err != nil {
		return err
	}
	c.alignIn(align)

	for i := uint32(0); i < count; i++ {
		if err := c.transcodeField(reg, t.Elem); err != nil {
			return err
		}
	}
	return nil
}

func (c *cdrToROS1) transcodePrimitive(kind typesys.PrimitiveKind) error {
	if kind == typesys.String {
		return c.transcodeString()
	}
	if kind == typesys.Time || kind == typesys.Duration {
		c.alignIn(4)
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
	c.alignIn(size)
	return c.moveNumeric(size)
}

// moveNumeric copies a size-byte scalar from the CDR input (whose byte
// order is c.little) to the ROS1 output, which is always little-endian.
func (c *cdrToROS1) moveNumeric(size int) error {
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

func (c *cdrToROS1) transcodeString() error {
	c.alignIn(4)
	lenRaw, err := c.readRaw(4)
	if err != nil {
		return err
	}
	n := readFrom(lenRaw, c.little)
	if n == 0 {
		return rosbagerr.BadLength("cdr string length prefix must include the trailing NUL, got 0")
	}
	data, err := c.readRaw(int(n))
	if err != nil {
		return err
	}
	// data includes the trailing NUL CDR requires and ROS1 does not.
	c.out = append(c.out, putLE32(n-1)...)
	c.out = append(c.out, data[:len(data)-1]...)
	return nil
}

func readFrom(b []byte, little bool) uint32 {
	word := append([]byte(nil), b...)
	if !little {
		reverseBytes(word)
	}
	return readLE32(word)
}
