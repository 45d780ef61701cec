package typesys

import (
	"crypto/md5" //nolint:gosec // required: this is the ROS1 wire-compatibility digest, not a security use.
	"fmt"
	"strings"
)

// ComputeMD5Sum computes the canonical ROS1 md5sum of def, resolving
// nested message references through reg. Per spec.md §9, the algorithm
// is: build a line per constant ("type name=value"), then a line per
// field — substituting a nested message's own computed md5sum for its
// type name (array/sequence brackets are dropped for message-typed
// elements, but kept for primitive-typed ones) — and take the MD5 digest
// of the lines joined by "\n".
func ComputeMD5Sum(reg *Registry, def *Definition) (string, error) {
	text, err := computeMD5Text(reg, def, map[string]string{})
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(text)) //nolint:gosec
	return fmt.Sprintf("%x", sum), nil
}

func computeMD5Text(reg *Registry, def *Definition, memo map[string]string) (string, error) {
	ownerPkg := PackageOf(def.Name)
	var lines []string

	for _, c := range def.Constants {
		lines = append(lines, fmt.Sprintf("%s %s=%s", c.Type.String(), c.Name, c.Value))
	}

	for _, f := range def.Fields {
		rendered, err := md5FieldText(reg, &f.Type, ownerPkg, memo)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("%s %s", rendered, f.Name))
	}

	return strings.Join(lines, "\n"), nil
}

// md5FieldText renders the left-hand side of a field's md5 text line:
// either the primitive/qualified type name (array/sequence brackets
// appended), or — for a message type, including an array/sequence of
// one — the submessage's own md5sum with no bracket suffix.
func md5FieldText(reg *Registry, t *FieldType, ownerPkg string, memo map[string]string) (string, error) {
	switch t.Kind {
	case FieldPrimitive:
		return t.Primitive.String(), nil
	case FieldNested:
		sum, err := submessageSum(reg, t.TypeName, memo)
		if err != nil {
			return "", err
		}
		return sum, nil
	case FieldArray:
		elemText, err := md5FieldText(reg, t.Elem, ownerPkg, memo)
		if err != nil {
			return "", err
		}
		if t.Elem.IsMessage() {
			return elemText, nil
		}
		return fmt.Sprintf("%s[%d]", elemText, t.ArrayLen), nil
	case FieldSequence:
		elemText, err := md5FieldText(reg, t.Elem, ownerPkg, memo)
		if err != nil {
			return "", err
		}
		if t.Elem.IsMessage() {
			return elemText, nil
		}
		if t.Bounded {
			return fmt.Sprintf("%s[%d]", elemText, t.Bound), nil
		}
		return fmt.Sprintf("%s[]", elemText), nil
	default:
		return "", fmt.Errorf("typesys: unhandled field kind in md5 text")
	}
}

func submessageSum(reg *Registry, typeName string, memo map[string]string) (string, error) {
	if sum, ok := memo[typeName]; ok {
		return sum, nil
	}
	def, err := reg.Lookup(typeName)
	if err != nil {
		return "", err
	}
	text, err := computeMD5Text(reg, def, memo)
	if err != nil {
		return "", err
	}
	sum := fmt.Sprintf("%x", md5.Sum([]byte(text))) //nolint:gosec
	memo[typeName] = sum
	return sum, nil
}
