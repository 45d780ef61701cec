package typesys

import (
	"fmt"
	"regexp"
	"strings"

	"go.viam.com/rosbags/rosbagerr"
)

// fieldTypeToken matches a .msg-dialect type token: a base type name
// optionally followed by "[]", "[N]", or "[<=N]".
var fieldTypeToken = regexp.MustCompile(`^([A-Za-z0-9_/]+)(\[(<=)?(\d*)\])?$`)

// constantLine matches "<TYPE> <NAME>=<value>" with no whitespace
// required around '='; value is everything to the end of the match.
var constantLine = regexp.MustCompile(`^([A-Za-z0-9_/\[\]<=]+)\s+([A-Za-z_]\w*)\s*=\s*(.*)$`)

// separatorLine matches the "===" block separator: a line consisting
// entirely of three or more '=' characters once trimmed.
var separatorLine = regexp.MustCompile(`^={3,}$`)

var msgHeaderLine = regexp.MustCompile(`^MSG:\s*(\S+)$`)

// ParseMsg parses .msg-dialect text for the message primaryName (a
// fully-qualified "pkg/msg/Name"). The text may contain embedded
// definitions introduced by a "===" separator and a "MSG: <fqn>" header,
// as produced by rosbag1 connection headers; every embedded definition is
// parsed as a sibling of the primary one and included in the returned
// map, keyed by fully-qualified name.
func ParseMsg(primaryName, text string) (map[string]*Definition, error) {
	blocks := splitMsgBlocks(text)
	if len(blocks) == 0 {
		return nil, rosbagerr.Parse("", "empty .msg text")
	}

	result := make(map[string]*Definition, len(blocks))

	primaryPkg := PackageOf(primaryName)
	def, err := parseMsgBlock(primaryName, primaryPkg, blocks[0])
	if err != nil {
		return nil, err
	}
	result[primaryName] = def

	for _, block := range blocks[1:] {
		lines := strings.SplitN(block, "\n", 2)
		header := strings.TrimSpace(lines[0])
		m := msgHeaderLine.FindStringSubmatch(header)
		if m == nil {
			return nil, rosbagerr.Parse(header, "expected 'MSG: <fqn>' header for embedded definition")
		}
		fqn := normalizeEmbeddedName(m[1])
		body := ""
		if len(lines) > 1 {
			body = lines[1]
		}
		subDef, err := parseMsgBlock(fqn, PackageOf(fqn), body)
		if err != nil {
			return nil, err
		}
		result[fqn] = subDef
	}

	return result, nil
}

// normalizeEmbeddedName upgrades an embedded "MSG: pkg/Name" (ROS1-style,
// no "msg" infix) or "MSG: pkg/msg/Name" to the registry's canonical
// "pkg/msg/Name" form, special-casing std_msgs/Header as spec.md §4.1
// requires.
func normalizeEmbeddedName(name string) string {
	if name == "std_msgs/Header" {
		return "std_msgs/msg/Header"
	}
	parts := strings.Split(name, "/")
	if len(parts) == 2 {
		return parts[0] + "/msg/" + parts[1]
	}
	return name
}

// splitMsgBlocks splits raw .msg text on separator lines, without
// confusing a "===" occurring as part of a string constant's value (a
// string constant line never *starts* with "=", so separatorLine, which
// requires the whole trimmed line to be '=' characters, cannot match
// inside one).
func splitMsgBlocks(text string) []string {
	lines := strings.Split(text, "\n")
	var blocks []string
	var cur strings.Builder
	for _, line := range lines {
		if separatorLine.MatchString(strings.TrimSpace(line)) {
			blocks = append(blocks, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	blocks = append(blocks, cur.String())
	return blocks
}

func parseMsgBlock(fqn, pkg, body string) (*Definition, error) {
	def := &Definition{Name: fqn}

	for lineNo, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimRight(rawLine, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := constantLine.FindStringSubmatch(trimmed); m != nil && !strings.Contains(m[1], "[") {
			typeToken, name, rest := m[1], m[2], m[3]
			prim, ok := LookupPrimitive(typeToken)
			if !ok {
				return nil, rosbagerr.Parse(locAt(fqn, lineNo), "bad constant: unknown primitive type %q", typeToken)
			}
			value := rest
			if prim != String {
				value = stripInlineComment(value)
			}
			def.Constants = append(def.Constants, Constant{Type: prim, Name: name, Value: strings.TrimSpace(value)})
			continue
		}

		fieldLine := stripInlineComment(trimmed)
		fields := strings.Fields(fieldLine)
		if len(fields) < 2 {
			return nil, rosbagerr.Parse(locAt(fqn, lineNo), "bad field: %q", trimmed)
		}
		typeToken, name := fields[0], fields[1]
		fieldType, err := parseFieldTypeToken(typeToken, pkg)
		if err != nil {
			return nil, rosbagerr.Parse(locAt(fqn, lineNo), "%v", err)
		}

		field := Field{Name: name, Type: *fieldType}
		if len(fields) > 2 {
			field.HasDefault = true
			field.Default = strings.Join(fields[2:], " ")
		}
		def.Fields = append(def.Fields, field)
	}

	return def, nil
}

func locAt(fqn string, lineNo int) string {
	return fmt.Sprintf("%s:%d", fqn, lineNo+1)
}

// stripInlineComment removes a trailing "# ..." comment that is not
// inside a string constant's value (callers decide whether to call this
// based on the constant's declared type).
func stripInlineComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func parseFieldTypeToken(token, pkg string) (*FieldType, error) {
	m := fieldTypeToken.FindStringSubmatch(token)
	if m == nil {
		return nil, fmt.Errorf("missing or malformed type: %q", token)
	}
	base, hasBracket, boundedMark, digits := m[1], m[2] != "", m[3] == "<=", m[4]

	elem, err := resolveBaseType(base, pkg)
	if err != nil {
		return nil, err
	}

	if !hasBracket {
		return elem, nil
	}
	if boundedMark {
		if digits == "" {
			return nil, fmt.Errorf("bounded sequence %q missing bound", token)
		}
		n := atoiMust(digits)
		return &FieldType{Kind: FieldSequence, Elem: elem, Bounded: true, Bound: n}, nil
	}
	if digits == "" {
		return &FieldType{Kind: FieldSequence, Elem: elem}, nil
	}
	n := atoiMust(digits)
	return &FieldType{Kind: FieldArray, Elem: elem, ArrayLen: n}, nil
}

func atoiMust(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// resolveBaseType resolves a bare type token (no array/sequence syntax)
// to a FieldType, applying the relative-name and Header special-casing
// rules of spec.md §4.1.
func resolveBaseType(base, pkg string) (*FieldType, error) {
	if prim, ok := LookupPrimitive(base); ok {
		return &FieldType{Kind: FieldPrimitive, Primitive: prim}, nil
	}
	if base == "Header" {
		return &FieldType{Kind: FieldNested, TypeName: "std_msgs/msg/Header"}, nil
	}
	if strings.Contains(base, "/") {
		return &FieldType{Kind: FieldNested, TypeName: normalizeEmbeddedName(base)}, nil
	}
	// A bare, non-primitive name resolves against the primary
	// definition's own package.
	return &FieldType{Kind: FieldNested, TypeName: pkg + "/msg/" + base}, nil
}
