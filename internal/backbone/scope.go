// Package backbone synthesizes the endpoint and entity modules: one async
// function per operation, grouped into one module per tag, plus one module
// per component schema.
package backbone

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/spec"
	"github.com/mark3labs/oas2ts/internal/symbols"
	"github.com/mark3labs/oas2ts/internal/typesynth"
)

const jsonMediaType = "application/json"

// Scope is everything processors of one module share. Its symbol table is the
// only mutable part and is safe for concurrent use.
type Scope struct {
	Table       *symbols.Table
	Synth       *typesynth.Synthesizer
	Resolver    *spec.Resolver
	Order       *spec.OrderIndex
	ClientPath  string // specifier of the transport helper, e.g. "./connect-client.default.js"
	Diagnostics *generr.Diagnostics
}

// NewScope allocates the symbol table of the module at modulePath.
func NewScope(doc *spec.Document, modulePath, clientFile string, diags *generr.Diagnostics, opts ...typesynth.Option) *Scope {
	if diags == nil {
		diags = &generr.Diagnostics{}
	}
	table := symbols.NewTable(modulePath)
	resolver := spec.NewResolver(doc)
	var order *spec.OrderIndex
	if doc != nil {
		order = doc.Order
	}
	return &Scope{
		Table:       table,
		Synth:       typesynth.New(resolver, table, opts...),
		Resolver:    resolver,
		Order:       order,
		ClientPath:  table.Paths().Relative(clientFile),
		Diagnostics: diags,
	}
}

func (s *Scope) warn(ctx context.Context, code generr.Code, pointer, msg string) {
	s.Diagnostics.Warn(ctx, generr.Diagnostic{Code: code, Message: msg, Pointer: pointer})
}

// pickMedia returns the application/json entry of content, else the first
// entry in declared order.
func pickMedia(order *spec.OrderIndex, content openapi3.Content, pointer string) (string, *openapi3.MediaType) {
	if mt, ok := content[jsonMediaType]; ok && mt != nil {
		return jsonMediaType, mt
	}
	keys := make([]string, 0, len(content))
	for k, mt := range content {
		if mt != nil {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", nil
	}
	first := order.Sort(spec.ChildPointer(pointer, "content"), keys)[0]
	return first, content[first]
}

func mediaSchemaPointer(pointer, mediaType string) string {
	return spec.ChildPointer(spec.ChildPointer(spec.ChildPointer(pointer, "content"), mediaType), "schema")
}
