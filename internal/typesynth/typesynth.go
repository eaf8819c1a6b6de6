// Package typesynth maps OpenAPI schemas to TypeScript type expressions.
package typesynth

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/oas2ts/internal/spec"
	"github.com/mark3labs/oas2ts/internal/symbols"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

// inline schemas nested deeper than this become unknown; only references to
// named components break cycles.
const maxDepth = 32

// Synthesizer produces type expressions for one module. References to named
// component schemas become type-only default imports of their entity modules,
// registered in the module's symbol table. Safe for concurrent use.
type Synthesizer struct {
	resolver *spec.Resolver
	table    *symbols.Table
	locals   map[string]*tsast.Ident
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLocal makes references to component resolve to id, a declaration of
// the module itself, instead of an import.
func WithLocal(component string, id *tsast.Ident) Option {
	return func(s *Synthesizer) { s.locals[component] = id }
}

// New returns a Synthesizer registering imports in table.
func New(resolver *spec.Resolver, table *symbols.Table, opts ...Option) *Synthesizer {
	s := &Synthesizer{resolver: resolver, table: table, locals: map[string]*tsast.Ident{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process returns the type candidates of ref. Nullable schemas carry an
// additional undefined candidate.
func (s *Synthesizer) Process(ref *openapi3.SchemaRef, pointer string) ([]tsast.TypeExpr, error) {
	return s.process(ref, pointer, 0)
}

// Type returns the union of the candidates of ref.
func (s *Synthesizer) Type(ref *openapi3.SchemaRef, pointer string) (tsast.TypeExpr, error) {
	c, err := s.Process(ref, pointer)
	if err != nil {
		return tsast.TypeExpr{}, err
	}
	return tsast.Union(tsast.Dedup(c)...), nil
}

func (s *Synthesizer) process(ref *openapi3.SchemaRef, pointer string, depth int) ([]tsast.TypeExpr, error) {
	if depth > maxDepth {
		return []tsast.TypeExpr{tsast.Unknown}, nil
	}
	sch, err := s.resolver.Classify(ref, pointer)
	if err != nil {
		return nil, err
	}
	t, err := s.typeOf(sch, depth)
	if err != nil {
		return nil, err
	}
	out := []tsast.TypeExpr{t}
	if t.Kind == tsast.KindUnion {
		out = t.Args
	}
	if sch.Nullable {
		out = append(out, tsast.Undefined)
	}
	return out, nil
}

func (s *Synthesizer) union(ref *openapi3.SchemaRef, pointer string, depth int) (tsast.TypeExpr, error) {
	c, err := s.process(ref, pointer, depth+1)
	if err != nil {
		return tsast.TypeExpr{}, err
	}
	return tsast.Union(tsast.Dedup(c)...), nil
}

func (s *Synthesizer) typeOf(sch *spec.Schema, depth int) (tsast.TypeExpr, error) {
	switch sch.Kind {
	case spec.KindReference:
		return tsast.Ref(s.reference(sch.Name)), nil
	case spec.KindPrimitive:
		return primitive(sch.Primitive), nil
	case spec.KindEnum:
		if sch.Value.Type != "" && sch.Value.Type != openapi3.TypeString {
			return primitive(sch.Value.Type), nil
		}
		lits := make([]tsast.TypeExpr, 0, len(sch.Enum))
		for _, e := range sch.Enum {
			lits = append(lits, tsast.Literal(e))
		}
		if len(lits) == 0 {
			return tsast.String, nil
		}
		return tsast.Union(tsast.Dedup(lits)...), nil
	case spec.KindArray:
		if sch.Items == nil {
			return tsast.Array(tsast.Unknown), nil
		}
		elem, err := s.union(sch.Items, sch.ItemsPointer(), depth)
		if err != nil {
			return tsast.TypeExpr{}, err
		}
		return tsast.Array(elem), nil
	case spec.KindMap:
		if sch.Items == nil {
			return tsast.Record(tsast.Unknown), nil
		}
		val, err := s.union(sch.Items, sch.ItemsPointer(), depth)
		if err != nil {
			return tsast.TypeExpr{}, err
		}
		return tsast.Record(val), nil
	case spec.KindObject:
		if sch.IsEmptyObject() {
			return tsast.Record(tsast.Unknown), nil
		}
		fields, err := s.fields(sch, depth)
		if err != nil {
			return tsast.TypeExpr{}, err
		}
		return tsast.Object(fields...), nil
	case spec.KindComposite:
		members := make([]tsast.TypeExpr, 0, len(sch.Variants))
		for i, v := range sch.Variants {
			t, err := s.union(v, sch.VariantPointer(i), depth)
			if err != nil {
				return tsast.TypeExpr{}, err
			}
			members = append(members, t)
		}
		members = tsast.Dedup(members)
		if len(members) == 0 {
			return tsast.Unknown, nil
		}
		if sch.Composite == "allOf" {
			return tsast.Intersection(members...), nil
		}
		return tsast.Union(members...), nil
	}
	return tsast.Unknown, nil
}

// Fields returns the properties of an object schema as type fields, in
// declared order. Properties that are not required are optional.
func (s *Synthesizer) Fields(sch *spec.Schema) ([]tsast.Field, error) {
	return s.fields(sch, 0)
}

func (s *Synthesizer) fields(sch *spec.Schema, depth int) ([]tsast.Field, error) {
	fields := make([]tsast.Field, 0, len(sch.Properties))
	for _, p := range sch.Properties {
		t, err := s.union(p.Schema, p.Pointer, depth)
		if err != nil {
			return nil, err
		}
		fields = append(fields, tsast.Field{Name: p.Name, Optional: !p.Required, Type: t})
	}
	return fields, nil
}

func (s *Synthesizer) reference(component string) *tsast.Ident {
	if id, ok := s.locals[component]; ok {
		return id
	}
	path := s.table.Paths().Relative(EntityModule(component))
	return s.table.AddDefaultImport(path, EntityName(component), true)
}

func primitive(t string) tsast.TypeExpr {
	switch t {
	case openapi3.TypeString:
		return tsast.String
	case openapi3.TypeInteger, openapi3.TypeNumber:
		return tsast.Number
	case openapi3.TypeBoolean:
		return tsast.Boolean
	}
	return tsast.Unknown
}

// EntityModule returns the output path of the entity module of a component
// schema: dots separate directories, e.g. "com.example.Pet" becomes
// "com/example/Pet.ts".
func EntityModule(component string) string {
	parts := strings.Split(component, ".")
	for i, p := range parts {
		p = strings.Map(func(r rune) rune {
			switch r {
			case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
				return '_'
			}
			return r
		}, p)
		if p == "" {
			p = "_"
		}
		parts[i] = p
	}
	return strings.Join(parts, "/") + ".ts"
}

// EntityName returns the identifier base of a component schema: its last
// dotted segment with characters invalid in identifiers replaced by '_'.
func EntityName(component string) string {
	name := component
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || r == '$',
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "Entity"
	}
	return b.String()
}
