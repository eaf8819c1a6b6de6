// Package tsast models the small subset of TypeScript that generated modules
// are made of: type expressions, declarations and files, plus the renderer that
// turns a File into source text.
package tsast

import (
	"sort"
	"strconv"
	"strings"
)

// Kind tags the TypeExpr variant.
type Kind int

const (
	KindKeyword      Kind = iota // string, number, boolean, void, undefined, unknown, null
	KindRef                      // reference to an imported or declared identifier
	KindArray                    // Array<Elem>
	KindRecord                   // Record<string, Value>
	KindUnion                    // A | B | ...
	KindLiteral                  // "value"
	KindObject                   // { a: A; b?: B }
	KindIntersection             // A & B & ...
)

// TypeExpr is a closed variant over the type shapes the generator emits.
// Construct values with the helpers below; the zero value is not meaningful.
type TypeExpr struct {
	Kind   Kind
	Name   string     // KindKeyword: keyword; KindLiteral: literal value
	Ident  *Ident     // KindRef
	Args   []TypeExpr // KindRef: type arguments; KindArray/KindRecord: [elem]; KindUnion/KindIntersection: members
	Fields []Field    // KindObject
}

// Field is a property of an inline object type.
type Field struct {
	Name     string
	Optional bool
	Type     TypeExpr
}

// Keywords.
var (
	String    = Keyword("string")
	Number    = Keyword("number")
	Boolean   = Keyword("boolean")
	Void      = Keyword("void")
	Undefined = Keyword("undefined")
	Unknown   = Keyword("unknown")
	Null      = Keyword("null")
)

func Keyword(name string) TypeExpr { return TypeExpr{Kind: KindKeyword, Name: name} }

func Literal(value string) TypeExpr { return TypeExpr{Kind: KindLiteral, Name: value} }

func Ref(id *Ident, args ...TypeExpr) TypeExpr { return TypeExpr{Kind: KindRef, Ident: id, Args: args} }

func Array(elem TypeExpr) TypeExpr { return TypeExpr{Kind: KindArray, Args: []TypeExpr{elem}} }

func Record(value TypeExpr) TypeExpr { return TypeExpr{Kind: KindRecord, Args: []TypeExpr{value}} }

func Object(fields ...Field) TypeExpr { return TypeExpr{Kind: KindObject, Fields: fields} }

// Union builds a union of members. Nested unions are flattened and a single
// member is returned as is. Duplicates are kept; use Dedup first when needed.
func Union(members ...TypeExpr) TypeExpr {
	flat := make([]TypeExpr, 0, len(members))
	for _, m := range members {
		if m.Kind == KindUnion {
			flat = append(flat, m.Args...)
			continue
		}
		flat = append(flat, m)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return TypeExpr{Kind: KindUnion, Args: flat}
}

// Intersection builds an intersection of members, flattening nested ones.
func Intersection(members ...TypeExpr) TypeExpr {
	flat := make([]TypeExpr, 0, len(members))
	for _, m := range members {
		if m.Kind == KindIntersection {
			flat = append(flat, m.Args...)
			continue
		}
		flat = append(flat, m)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return TypeExpr{Kind: KindIntersection, Args: flat}
}

// Key returns the canonical form of t. Two expressions denote the same shape
// iff their keys are equal. Object fields and type arguments are order
// sensitive; union members are not.
func (t TypeExpr) Key() string {
	var b strings.Builder
	t.writeKey(&b)
	return b.String()
}

func (t TypeExpr) writeKey(b *strings.Builder) {
	switch t.Kind {
	case KindKeyword:
		b.WriteString("k:")
		b.WriteString(t.Name)
	case KindLiteral:
		b.WriteString("l:")
		b.WriteString(strconv.Quote(t.Name))
	case KindRef:
		b.WriteString("r:")
		if t.Ident != nil {
			b.WriteString(t.Ident.Key())
		}
		writeKeyList(b, t.Args)
	case KindArray:
		b.WriteString("a")
		writeKeyList(b, t.Args)
	case KindRecord:
		b.WriteString("m")
		writeKeyList(b, t.Args)
	case KindUnion, KindIntersection:
		keys := make([]string, 0, len(t.Args))
		for _, m := range t.Args {
			keys = append(keys, m.Key())
		}
		sort.Strings(keys)
		if t.Kind == KindUnion {
			b.WriteString("u{")
		} else {
			b.WriteString("i{")
		}
		b.WriteString(strings.Join(keys, "|"))
		b.WriteString("}")
	case KindObject:
		b.WriteString("o{")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(";")
			}
			b.WriteString(strconv.Quote(f.Name))
			if f.Optional {
				b.WriteString("?")
			}
			b.WriteString(":")
			f.Type.writeKey(b)
		}
		b.WriteString("}")
	}
}

func writeKeyList(b *strings.Builder, list []TypeExpr) {
	b.WriteString("<")
	for i, a := range list {
		if i > 0 {
			b.WriteString(",")
		}
		a.writeKey(b)
	}
	b.WriteString(">")
}

// Equal reports deep structural equality.
func Equal(a, b TypeExpr) bool { return a.Key() == b.Key() }

// Dedup removes structurally equal duplicates, keeping first-seen order.
func Dedup(list []TypeExpr) []TypeExpr {
	seen := make(map[string]struct{}, len(list))
	out := make([]TypeExpr, 0, len(list))
	for _, t := range list {
		k := t.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

// String renders t as TypeScript.
func (t TypeExpr) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t TypeExpr) write(b *strings.Builder) {
	switch t.Kind {
	case KindKeyword:
		b.WriteString(t.Name)
	case KindLiteral:
		b.WriteString(strconv.Quote(t.Name))
	case KindRef:
		if t.Ident != nil {
			b.WriteString(t.Ident.Name())
		}
		if len(t.Args) > 0 {
			b.WriteString("<")
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				a.write(b)
			}
			b.WriteString(">")
		}
	case KindArray:
		b.WriteString("Array<")
		t.Args[0].write(b)
		b.WriteString(">")
	case KindRecord:
		b.WriteString("Record<string, ")
		t.Args[0].write(b)
		b.WriteString(">")
	case KindUnion:
		for i, m := range t.Args {
			if i > 0 {
				b.WriteString(" | ")
			}
			m.write(b)
		}
	case KindIntersection:
		for i, m := range t.Args {
			if i > 0 {
				b.WriteString(" & ")
			}
			if m.Kind == KindUnion {
				b.WriteString("(")
				m.write(b)
				b.WriteString(")")
				continue
			}
			m.write(b)
		}
	case KindObject:
		if len(t.Fields) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(propertyKey(f.Name))
			if f.Optional {
				b.WriteString("?")
			}
			b.WriteString(": ")
			f.Type.write(b)
		}
		b.WriteString(" }")
	}
}

// propertyKey quotes names that are not valid identifiers.
func propertyKey(name string) string {
	if IsIdentifier(name) {
		return name
	}
	return strconv.Quote(name)
}

// IsIdentifier reports whether s is a plain ASCII JavaScript identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
