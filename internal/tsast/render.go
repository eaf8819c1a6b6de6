package tsast

import (
	"sort"
	"strconv"
	"strings"
)

// File is one generated module. Raw, when set, is emitted verbatim and the
// declaration lists are ignored.
type File struct {
	Path       string // output path relative to the output directory, with extension
	Imports    []ImportDecl
	Statements []Statement
	Exports    []ExportDecl
	Raw        string
}

// Render turns f into TypeScript source text. Named imports from the same
// path are grouped into one declaration; named exports are grouped and sorted.
func Render(f *File) []byte {
	if f.Raw != "" {
		return []byte(f.Raw)
	}
	var b strings.Builder
	writeImports(&b, f.Imports)
	for _, s := range f.Statements {
		s.writeStmt(&b)
		b.WriteString("\n")
	}
	writeExports(&b, f.Exports)
	return []byte(b.String())
}

func writeImports(b *strings.Builder, imports []ImportDecl) {
	type group struct {
		typeOnly bool
		specs    []string
	}
	named := map[string]*group{}
	flushNamed := func(path string) {
		g := named[path]
		if g == nil {
			return
		}
		b.WriteString("import ")
		if g.typeOnly {
			b.WriteString("type ")
		}
		b.WriteString("{ ")
		b.WriteString(strings.Join(g.specs, ", "))
		b.WriteString(" } from ")
		b.WriteString(strconv.Quote(path))
		b.WriteString(";\n")
		delete(named, path)
	}
	for _, imp := range imports {
		if imp.Kind != ImportNamed {
			continue
		}
		g, ok := named[imp.Path]
		if !ok {
			g = &group{typeOnly: true}
			named[imp.Path] = g
		}
		g.typeOnly = g.typeOnly && imp.TypeOnly
		spec := imp.Name
		if imp.Local.Name() != imp.Name {
			spec += " as " + imp.Local.Name()
		}
		g.specs = append(g.specs, spec)
	}
	for _, imp := range imports {
		switch imp.Kind {
		case ImportDefault:
			b.WriteString("import ")
			if imp.TypeOnly {
				b.WriteString("type ")
			}
			b.WriteString(imp.Local.Name())
			b.WriteString(" from ")
			b.WriteString(strconv.Quote(imp.Path))
			b.WriteString(";\n")
		case ImportNamespace:
			b.WriteString("import * as ")
			b.WriteString(imp.Local.Name())
			b.WriteString(" from ")
			b.WriteString(strconv.Quote(imp.Path))
			b.WriteString(";\n")
		case ImportNamed:
			flushNamed(imp.Path)
		}
	}
}

func writeExports(b *strings.Builder, exports []ExportDecl) {
	var specs []ExportDecl
	for _, e := range exports {
		if e.Default {
			b.WriteString("export default ")
			b.WriteString(e.Local.Name())
			b.WriteString(";\n")
			continue
		}
		specs = append(specs, e)
	}
	if len(specs) == 0 {
		return
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Exported < specs[j].Exported })
	parts := make([]string, 0, len(specs))
	for _, e := range specs {
		if e.Local.Name() == e.Exported {
			parts = append(parts, e.Exported)
			continue
		}
		parts = append(parts, e.Local.Name()+" as "+e.Exported)
	}
	b.WriteString("export { ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(" };\n")
}
