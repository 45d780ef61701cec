package convert

import (
	"go.viam.com/rosbags/logging"
	"go.viam.com/rosbags/rosbag1"
	"go.viam.com/rosbags/rosbag2"
	"go.viam.com/rosbags/rosbagerr"
	"go.viam.com/rosbags/transcode"
	"go.viam.com/rosbags/typesys"
)

const serializationFormatCDR = "cdr"

// Converter transcodes messages between a rosbag1 and a rosbag2 bag,
// auto-registering any rosbag1 connection type not already known to its
// registry.
type Converter struct {
	reg *typesys.Registry
	log logging.Logger
}

// New builds a Converter resolving types against reg and logging through
// log (a no-op logger if nil).
func New(reg *typesys.Registry, log logging.Logger) *Converter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Converter{reg: reg, log: log}
}

// Rosbag1ToRosbag2 reads srcPath (a rosbag1 file) and writes an
// equivalent rosbag2 bag at dstDir.
func (c *Converter) Rosbag1ToRosbag2(srcPath, dstDir string, opts ...rosbag2.Option) error {
	r, err := rosbag1.Open(srcPath)
	if err != nil {
		return err
	}
	defer r.Close()

	allOpts := append([]rosbag2.Option{rosbag2.WithLogger(c.log)}, opts...)
	w, err := rosbag2.Create(dstDir, allOpts...)
	if err != nil {
		return err
	}

	type connBinding struct {
		topicName string
		def       *typesys.Definition
	}
	bindings := make(map[uint32]connBinding, len(r.Connections()))

	for connID, conn := range r.Connections() {
		typeName := ros1ToRos2Name(conn.MsgType)
		def, err := c.resolveROS1Type(typeName, conn.MessageDefinition)
		if err != nil {
			return err
		}

		offeredQoS, err := synthesizeOfferedQoS(conn.Latching)
		if err != nil {
			return err
		}

		if _, err := w.RegisterConnection(rosbag2.Topic{
			Name:                conn.Topic,
			Type:                typeName,
			SerializationFormat: serializationFormatCDR,
			OfferedQoSProfiles:  offeredQoS,
		}); err != nil {
			return err
		}
		bindings[connID] = connBinding{topicName: conn.Topic, def: def}
		c.log.Debugw("bound rosbag1 connection", "topic", conn.Topic, "type", typeName)
	}

	it, err := r.Messages()
	if err != nil {
		return err
	}
	for {
		msg, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		b, ok := bindings[msg.ConnID]
		if !ok {
			return rosbagerr.UnknownType("unbound connection id")
		}
		cdrBytes, err := transcode.ROS1ToCDR(c.reg, b.def, msg.Data, true)
		if err != nil {
			return err
		}
		if err := w.WriteMessage(b.topicName, msg.TimestampNs, cdrBytes); err != nil {
			return err
		}
	}

	return w.Close()
}

// resolveROS1Type looks typeName up in the registry, auto-registering it
// from defText (a ROS1 connection header's message_definition) if it is
// not already known.
func (c *Converter) resolveROS1Type(typeName, defText string) (*typesys.Definition, error) {
	if def, err := c.reg.Lookup(typeName); err == nil {
		return def, nil
	}

	defs, err := typesys.ParseMsg(typeName, defText)
	if err != nil {
		return nil, err
	}
	if err := c.reg.Register(defs); err != nil {
		return nil, err
	}
	c.log.Infow("auto-registered type from rosbag1 connection header", "type", typeName)
	return defs[typeName], nil
}

// Rosbag2ToRosbag1 reads srcDir (a rosbag2 directory) and writes an
// equivalent rosbag1 file at dstPath.
func (c *Converter) Rosbag2ToRosbag1(srcDir, dstPath string, opts ...rosbag1.Option) error {
	r, err := rosbag2.Open(srcDir, c.log)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := rosbag1.Create(dstPath, opts...)
	if err != nil {
		return err
	}

	type connBinding struct {
		connID uint32
		def    *typesys.Definition
	}
	bindings := make(map[string]connBinding, len(r.Topics()))

	for name, topic := range r.Topics() {
		def, err := c.reg.Lookup(topic.Type)
		if err != nil {
			return rosbagerr.UnknownType(topic.Type)
		}

		defText, err := def.Text(c.reg)
		if err != nil {
			return err
		}
		md5sum, err := typesys.ComputeMD5Sum(c.reg, def)
		if err != nil {
			return err
		}

		connID := w.RegisterConnection(&rosbag1.Connection{
			Topic:             name,
			MsgType:           ros2ToRos1Name(topic.Type),
			MD5Sum:            md5sum,
			MessageDefinition: defText,
			Latching:          hasTransientLocal(topic.OfferedQoSProfiles),
		})
		bindings[name] = connBinding{connID: connID, def: def}
		c.log.Debugw("bound rosbag2 topic", "topic", name, "type", topic.Type)
	}

	it := r.Messages()
	for {
		msg, ok := it.Next()
		if !ok {
			break
		}
		b, ok := bindings[msg.TopicName]
		if !ok {
			return rosbagerr.UnknownType(msg.TopicName)
		}
		ros1Bytes, err := transcode.CDRToROS1(c.reg, b.def, msg.Data)
		if err != nil {
			return err
		}
		if err := w.WriteMessage(b.connID, msg.TimestampNs, ros1Bytes); err != nil {
			return err
		}
	}

	return w.Close()
}
