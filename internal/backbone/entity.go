package backbone

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"goa.design/clue/log"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/spec"
	"github.com/mark3labs/oas2ts/internal/symbols"
	"github.com/mark3labs/oas2ts/internal/tsast"
	"github.com/mark3labs/oas2ts/internal/typesynth"
)

// EntityProcessor synthesizes the module of one component schema. The module
// default-exports a single declaration named after the schema.
type EntityProcessor struct {
	doc  *spec.Document
	name string
}

func NewEntityProcessor(doc *spec.Document, name string) *EntityProcessor {
	return &EntityProcessor{doc: doc, name: name}
}

// Process builds the entity module. Non-nullable objects become interfaces,
// non-nullable string enums become enums and everything else a type alias.
func (p *EntityProcessor) Process(ctx context.Context) (*tsast.File, error) {
	if p.doc == nil || p.doc.API == nil {
		return nil, generr.Configuration("no document to read schema %q from", p.name)
	}
	ptr := spec.Pointer("components", "schemas", p.name)
	var ref *openapi3.SchemaRef
	if c := p.doc.API.Components; c != nil {
		ref = c.Schemas[p.name]
	}
	if ref == nil {
		return nil, generr.Resolution(ptr, nil, "component schema %q is not defined", p.name)
	}
	module := typesynth.EntityModule(p.name)
	log.Debug(ctx, log.KV{K: "msg", V: "processing entity"}, log.KV{K: "schema", V: p.name}, log.KV{K: "module", V: module})

	table := symbols.NewTable(module)
	self, err := table.AddDefaultExport(typesynth.EntityName(p.name))
	if err != nil {
		return nil, err
	}
	resolver := spec.NewResolver(p.doc)
	synth := typesynth.New(resolver, table, typesynth.WithLocal(p.name, self))

	decl, err := declaration(resolver, synth, self, ref, ptr)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", p.name, err)
	}
	table.Seal()
	return &tsast.File{
		Path:       module,
		Imports:    table.Imports(),
		Statements: []tsast.Statement{decl},
		Exports:    table.Exports(),
	}, nil
}

func declaration(resolver *spec.Resolver, synth *typesynth.Synthesizer, self *tsast.Ident, ref *openapi3.SchemaRef, ptr string) (tsast.Statement, error) {
	sch, err := resolver.Classify(ref, ptr)
	if err != nil {
		return nil, err
	}
	switch {
	case sch.Kind == spec.KindObject && !sch.IsEmptyObject() && !sch.Nullable:
		fields, err := synth.Fields(sch)
		if err != nil {
			return nil, err
		}
		return &tsast.InterfaceDecl{Name: self, Fields: fields}, nil
	case sch.Kind == spec.KindEnum && !sch.Nullable && len(sch.Enum) > 0 &&
		(sch.Value.Type == "" || sch.Value.Type == openapi3.TypeString):
		return &tsast.EnumDecl{Name: self, Members: sch.Enum}, nil
	}
	t, err := synth.Type(ref, ptr)
	if err != nil {
		return nil, err
	}
	return &tsast.TypeAliasDecl{Name: self, Type: t}, nil
}
