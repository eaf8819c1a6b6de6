package tsast

import (
	"strconv"
	"strings"
)

// ImportKind selects the import declaration form.
type ImportKind int

const (
	ImportDefault   ImportKind = iota // import X from "p"
	ImportNamed                       // import { N as X } from "p"
	ImportNamespace                   // import * as X from "p"
)

// ImportDecl binds Local to a symbol of the module at Path.
type ImportDecl struct {
	Kind     ImportKind
	Path     string
	Name     string // exported name for ImportNamed
	Local    *Ident
	TypeOnly bool
}

// ExportDecl exports Local under Exported, or as the default export.
type ExportDecl struct {
	Local    *Ident
	Exported string
	Default  bool
}

// Statement is a top-level declaration in a module body.
type Statement interface {
	writeStmt(b *strings.Builder)
}

// Param is a function parameter.
type Param struct {
	Name     string
	Optional bool
	Type     TypeExpr
}

// FuncDecl is `async function name(params): Promise<Returns> { return Body; }`.
type FuncDecl struct {
	Async   bool
	Name    *Ident
	Params  []Param
	Returns TypeExpr
	Body    Expr
}

// InterfaceDecl is `interface Name { fields }`.
type InterfaceDecl struct {
	Name   *Ident
	Fields []Field
}

// EnumDecl is `enum Name { A = "A", ... }`.
type EnumDecl struct {
	Name    *Ident
	Members []string
}

// TypeAliasDecl is `type Name = Type;`.
type TypeAliasDecl struct {
	Name *Ident
	Type TypeExpr
}

// Expr is an expression.
type Expr interface {
	writeExpr(b *strings.Builder)
}

// StringLit is a string literal.
type StringLit string

// IdentExpr references a local name, such as a parameter.
type IdentExpr string

// ObjectProp is one property of an object literal. It renders as shorthand
// when Key and Value are the same identifier.
type ObjectProp struct {
	Key   string
	Value string
}

// ObjectLit is an object literal mapping keys to local names: { a, "b-c": b_c }.
type ObjectLit struct {
	Props []ObjectProp
}

// Shorthand returns the literal { names... }.
func Shorthand(names ...string) ObjectLit {
	props := make([]ObjectProp, len(names))
	for i, n := range names {
		props[i] = ObjectProp{Key: n, Value: n}
	}
	return ObjectLit{Props: props}
}

// CallExpr is `Callee.Member(Args)`; Member may be empty.
type CallExpr struct {
	Callee *Ident
	Member string
	Args   []Expr
}

func (s StringLit) writeExpr(b *strings.Builder) { b.WriteString(strconv.Quote(string(s))) }

func (e IdentExpr) writeExpr(b *strings.Builder) { b.WriteString(string(e)) }

func (o ObjectLit) writeExpr(b *strings.Builder) {
	if len(o.Props) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{ ")
	for i, p := range o.Props {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Key == p.Value && IsIdentifier(p.Key) {
			b.WriteString(p.Key)
			continue
		}
		b.WriteString(propertyKey(p.Key))
		b.WriteString(": ")
		b.WriteString(p.Value)
	}
	b.WriteString(" }")
}

func (c CallExpr) writeExpr(b *strings.Builder) {
	b.WriteString(c.Callee.Name())
	if c.Member != "" {
		b.WriteString(".")
		b.WriteString(c.Member)
	}
	b.WriteString("(")
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.writeExpr(b)
	}
	b.WriteString(")")
}

func (f *FuncDecl) writeStmt(b *strings.Builder) {
	if f.Async {
		b.WriteString("async ")
	}
	b.WriteString("function ")
	b.WriteString(f.Name.Name())
	b.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteString("?")
		}
		b.WriteString(": ")
		p.Type.write(b)
	}
	b.WriteString("): ")
	if f.Async {
		b.WriteString("Promise<")
		f.Returns.write(b)
		b.WriteString(">")
	} else {
		f.Returns.write(b)
	}
	b.WriteString(" { return ")
	f.Body.writeExpr(b)
	b.WriteString("; }")
}

func (d *InterfaceDecl) writeStmt(b *strings.Builder) {
	b.WriteString("interface ")
	b.WriteString(d.Name.Name())
	b.WriteString(" {\n")
	for _, f := range d.Fields {
		b.WriteString("    ")
		b.WriteString(propertyKey(f.Name))
		if f.Optional {
			b.WriteString("?")
		}
		b.WriteString(": ")
		f.Type.write(b)
		b.WriteString(";\n")
	}
	b.WriteString("}")
}

func (d *EnumDecl) writeStmt(b *strings.Builder) {
	b.WriteString("enum ")
	b.WriteString(d.Name.Name())
	b.WriteString(" {\n")
	for _, m := range d.Members {
		b.WriteString("    ")
		b.WriteString(propertyKey(m))
		b.WriteString(" = ")
		b.WriteString(strconv.Quote(m))
		b.WriteString(",\n")
	}
	b.WriteString("}")
}

func (d *TypeAliasDecl) writeStmt(b *strings.Builder) {
	b.WriteString("type ")
	b.WriteString(d.Name.Name())
	b.WriteString(" = ")
	d.Type.write(b)
	b.WriteString(";")
}
