package typesys

import "strings"

// Text re-emits def as .msg-dialect text, resolving nested message
// references through reg and recursively embedding each one as a
// "===\nMSG: <fqn>\n..." sibling block, in breadth-first, first-use order
// with duplicates suppressed. This is how a rosbag1 writer produces the
// message_definition text for a connection whose type was registered
// from IDL text or from the built-in set, since ROS1 connection headers
// only ever carry .msg-dialect text (spec.md's supplemented features).
func (d *Definition) Text(reg *Registry) (string, error) {
	var b strings.Builder
	seen := map[string]bool{d.Name: true}
	writeMsgBlock(&b, d)

	queue := collectNestedNames(d, nil)
	for i := 0; i < len(queue); i++ {
		name := queue[i]
		if seen[name] {
			continue
		}
		seen[name] = true
		sub, err := reg.Lookup(name)
		if err != nil {
			return "", err
		}
		b.WriteString("================================================================================\n")
		b.WriteString("MSG: " + ros1Name(name) + "\n")
		writeMsgBlock(&b, sub)
		queue = collectNestedNames(sub, queue)
	}

	return b.String(), nil
}

// ros1Name drops the ROS2 "/msg/" infix for embedded definition headers,
// matching the convention real rosbag1 files use.
func ros1Name(fqn string) string {
	pkg := PackageOf(fqn)
	name := fqn[strings.LastIndex(fqn, "/")+1:]
	return pkg + "/" + name
}

func writeMsgBlock(b *strings.Builder, def *Definition) {
	for _, c := range def.Constants {
		b.WriteString(c.Type.String())
		b.WriteByte(' ')
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(c.Value)
		b.WriteByte('\n')
	}
	for _, f := range def.Fields {
		b.WriteString(f.Type.String())
		b.WriteByte(' ')
		b.WriteString(f.Name)
		if f.HasDefault {
			b.WriteByte(' ')
			b.WriteString(f.Default)
		}
		b.WriteByte('\n')
	}
}

func collectNestedNames(def *Definition, into []string) []string {
	for _, f := range def.Fields {
		into = append(into, nestedNamesOf(&f.Type)...)
	}
	return into
}

func nestedNamesOf(t *FieldType) []string {
	switch t.Kind {
	case FieldNested:
		return []string{t.TypeName}
	case FieldArray, FieldSequence:
		return nestedNamesOf(t.Elem)
	default:
		return nil
	}
}
