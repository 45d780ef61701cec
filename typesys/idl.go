package typesys

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.viam.com/rosbags/rosbagerr"
)

// idlPrimitives maps OMG IDL primitive spellings (as emitted by the ROS2
// IDL generator) to our PrimitiveKind. "wstring" is deliberately absent:
// spec.md's Non-goals exclude wide-string support.
var idlPrimitives = map[string]PrimitiveKind{
	"boolean": Bool,
	"octet":   Byte,
	"char":    Char,
	"int8":    Int8,
	"uint8":   Uint8,
	"int16":   Int16,
	"uint16":  Uint16,
	"int32":   Int32,
	"uint32":  Uint32,
	"int64":   Int64,
	"uint64":  Uint64,
	"float":   Float32,
	"double":  Float64,
	"string":  String,
}

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	defaultAnn   = regexp.MustCompile(`@default\s*\(\s*value\s*=\s*([^)]*)\)`)
	sequenceType = regexp.MustCompile(`^sequence<\s*([^,>]+)\s*(?:,\s*(\d+)\s*)?>$`)
)

// ParseIDL parses a subset of OMG IDL sufficient for ROS2 messages:
// nested modules, struct field lists, const declarations, sequence<T>
// and sequence<T,N>, fixed arrays "T name[N]", and @default(value=...)
// annotations. It returns every struct found, keyed by fully-qualified
// "pkg/msg/Name".
func ParseIDL(text string) (map[string]*Definition, error) {
	text = blockComment.ReplaceAllString(text, "")
	text = lineComment.ReplaceAllString(text, "")

	toks := tokenizeIDL(text)
	p := &idlParser{toks: toks}
	result := make(map[string]*Definition)
	if err := p.parseModuleBody(nil, result); err != nil {
		return nil, err
	}
	return result, nil
}

func tokenizeIDL(text string) []string {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{', '}', ';', ',', '<', '>':
			b.WriteByte(' ')
			b.WriteByte(c)
			b.WriteByte(' ')
		case ':':
			if i+1 < len(text) && text[i+1] == ':' {
				b.WriteString(" :: ")
				i++
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return strings.Fields(b.String())
}

type idlParser struct {
	toks []string
	pos  int
}

func (p *idlParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *idlParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *idlParser) expect(tok string) error {
	got := p.next()
	if got != tok {
		return rosbagerr.Parse(fmt.Sprintf("token %d", p.pos), "expected %q, got %q", tok, got)
	}
	return nil
}

// parseModuleBody consumes declarations until EOF or a closing brace that
// belongs to an enclosing module, collecting struct definitions into out.
func (p *idlParser) parseModuleBody(modulePath []string, out map[string]*Definition) error {
	for {
		tok := p.peek()
		switch tok {
		case "":
			return nil
		case "}":
			return nil
		case "module":
			p.next()
			name := p.next()
			if err := p.expect("{"); err != nil {
				return err
			}
			if err := p.parseModuleBody(append(append([]string{}, modulePath...), name), out); err != nil {
				return err
			}
			if err := p.expect("}"); err != nil {
				return err
			}
			p.consumeOptional(";")
		case "struct":
			p.next()
			name := p.next()
			def, err := p.parseStruct(modulePath, name)
			if err != nil {
				return err
			}
			out[def.Name] = def
			p.consumeOptional(";")
		case "const":
			if err := p.skipConst(); err != nil {
				return err
			}
		default:
			return rosbagerr.Parse(fmt.Sprintf("token %d", p.pos), "unexpected token %q", tok)
		}
	}
}

func (p *idlParser) consumeOptional(tok string) {
	if p.peek() == tok {
		p.next()
	}
}

// skipConst consumes a "const TYPE NAME = value ;" declaration. Constants
// are informational only (spec.md §3) and are not attached to a struct
// by the IDL grammar, so they are parsed for well-formedness and
// discarded.
func (p *idlParser) skipConst() error {
	if err := p.expect("const"); err != nil {
		return err
	}
	p.next() // type
	p.next() // name
	if err := p.expect("="); err != nil {
		return err
	}
	for p.peek() != ";" && p.peek() != "" {
		p.next()
	}
	p.consumeOptional(";")
	return nil
}

func (p *idlParser) parseStruct(modulePath []string, name string) (*Definition, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	def := &Definition{Name: structFQN(modulePath, name)}
	pendingDefault := ""

	for {
		tok := p.peek()
		if tok == "}" {
			p.next()
			break
		}
		if tok == "" {
			return nil, rosbagerr.Parse(name, "unterminated struct %q", name)
		}
		if tok == "const" {
			if err := p.skipConst(); err != nil {
				return nil, err
			}
			continue
		}
		if strings.HasPrefix(tok, "@") {
			// Re-join the annotation text: our tokenizer split on '(' is
			// not special-cased, so @default(value=...) survives intact
			// as a single token only when it contained no spaces; handle
			// both cases by scanning forward to a balanced ')'.
			ann := p.collectAnnotation()
			if m := defaultAnn.FindStringSubmatch(ann); m != nil {
				pendingDefault = strings.TrimSpace(m[1])
			}
			continue
		}

		field, err := p.parseField(modulePath)
		if err != nil {
			return nil, err
		}
		if pendingDefault != "" {
			field.HasDefault = true
			field.Default = pendingDefault
			pendingDefault = ""
		}
		def.Fields = append(def.Fields, *field)
	}

	return def, nil
}

// collectAnnotation re-assembles a "@default ( value = literal )"
// annotation from tokens back into a single string for regex matching,
// since tokenizeIDL does not split on '(' / ')'.
func (p *idlParser) collectAnnotation() string {
	var b strings.Builder
	b.WriteString(p.next())
	for strings.Contains(b.String(), "(") && !strings.Contains(b.String(), ")") {
		if p.peek() == "" {
			break
		}
		b.WriteByte(' ')
		b.WriteString(p.next())
	}
	if !strings.Contains(b.String(), "(") {
		// The annotation and its parenthesized value arrived as separate
		// tokens split by whitespace; keep consuming through the matching
		// close paren.
		for p.peek() != "" {
			t := p.next()
			b.WriteByte(' ')
			b.WriteString(t)
			if strings.Contains(t, ")") {
				break
			}
		}
	}
	return b.String()
}

func (p *idlParser) parseField(modulePath []string) (*Field, error) {
	typeToks := []string{p.next()}
	// sequence<T> / sequence<T,N> arrives as "sequence", "<", ... , ">"
	if typeToks[0] == "sequence" {
		for p.peek() != ">" && p.peek() != "" {
			typeToks = append(typeToks, p.next())
		}
		typeToks = append(typeToks, p.next()) // consume '>'
	}
	typeText := strings.Join(typeToks, "")
	typeText = strings.ReplaceAll(typeText, ", ", ",")

	name := p.next()

	arrayLen := -1
	if p.peek() == "[" {
		// Our tokenizer does not split '[' / ']' out, so a fixed array is
		// still glued to name, e.g. name="positions[10]".
	}
	if i := strings.IndexByte(name, '['); i >= 0 {
		lenStr := strings.TrimSuffix(name[i+1:], "]")
		n, err := strconv.Atoi(lenStr)
		if err != nil {
			return nil, rosbagerr.Parse(name, "bad fixed array length in %q", name)
		}
		arrayLen = n
		name = name[:i]
	}

	if err := p.expect(";"); err != nil {
		return nil, err
	}

	fieldType, err := idlFieldType(typeText, modulePath)
	if err != nil {
		return nil, err
	}
	if arrayLen >= 0 {
		fieldType = &FieldType{Kind: FieldArray, Elem: fieldType, ArrayLen: arrayLen}
	}

	return &Field{Name: name, Type: *fieldType}, nil
}

func idlFieldType(typeText string, modulePath []string) (*FieldType, error) {
	if m := sequenceType.FindStringSubmatch(typeText); m != nil {
		elem, err := idlBaseType(strings.TrimSpace(m[1]), modulePath)
		if err != nil {
			return nil, err
		}
		if m[2] != "" {
			n, _ := strconv.Atoi(m[2])
			return &FieldType{Kind: FieldSequence, Elem: elem, Bounded: true, Bound: n}, nil
		}
		return &FieldType{Kind: FieldSequence, Elem: elem}, nil
	}
	return idlBaseType(typeText, modulePath)
}

func idlBaseType(typeText string, modulePath []string) (*FieldType, error) {
	if prim, ok := idlPrimitives[typeText]; ok {
		return &FieldType{Kind: FieldPrimitive, Primitive: prim}, nil
	}
	if typeText == "wstring" {
		return nil, rosbagerr.Parse(typeText, "wstring is not supported")
	}
	if strings.Contains(typeText, "::") {
		parts := strings.Split(typeText, "::")
		return &FieldType{Kind: FieldNested, TypeName: structFQN(parts[:len(parts)-1], parts[len(parts)-1])}, nil
	}
	if typeText == "Header" {
		return &FieldType{Kind: FieldNested, TypeName: "std_msgs/msg/Header"}, nil
	}
	return &FieldType{Kind: FieldNested, TypeName: structFQN(modulePath, typeText)}, nil
}

// structFQN renders a module path + struct name as the registry's
// canonical "pkg/msg/Name" form, per spec.md's ROS2-style naming. Only
// the first module path segment (the package) and the struct name
// matter; any "msg" (or other) middle segment is the convention ROS2's
// IDL generator already follows and is normalised away.
func structFQN(modulePath []string, name string) string {
	if len(modulePath) == 0 {
		return "msg/" + name
	}
	return modulePath[0] + "/msg/" + name
}
