package backbone

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"goa.design/clue/log"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/spec"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

const (
	// DefaultInitName is the name of the extra-options parameter when no data
	// parameter takes it.
	DefaultInitName = "init"
	// InitTypeName is the extra-options type exported by the transport helper.
	InitTypeName = "ClientRequestInit"

	unsupportedBodyMessage = "A schema provided for endpoint method's 'requestBody' is not supported"
)

// RequestBodyResult is the merged parameter list of one operation.
type RequestBodyResult struct {
	// Params are the data parameters followed by the optional extra-options
	// parameter.
	Params []tsast.Param
	// Packed maps every data parameter by its wire name.
	Packed tsast.ObjectLit
	// Init names the extra-options parameter.
	Init string
}

type dataParam struct {
	key     string // wire name
	local   string // parameter name in the generated function
	schema  *openapi3.SchemaRef
	pointer string
}

// RequestBodyProcessor merges path parameters, query parameters and request
// body properties into one parameter list.
type RequestBodyProcessor struct {
	scope *Scope
	op    spec.Operation
	body  *openapi3.RequestBodyRef
}

// NewRequestBodyProcessor returns the merger for op. The request body is only
// considered for methods that carry one.
func NewRequestBodyProcessor(scope *Scope, op spec.Operation) *RequestBodyProcessor {
	p := &RequestBodyProcessor{scope: scope, op: op}
	if op.Method.HasRequestBody() && op.Operation != nil {
		p.body = op.Operation.RequestBody
	}
	return p
}

// Process builds the parameter list: path parameters, then query parameters,
// then body properties in declared order, then the extra-options parameter.
func (p *RequestBodyProcessor) Process(ctx context.Context) (RequestBodyResult, error) {
	initType := p.scope.Table.AddNamedImport(p.scope.ClientPath, InitTypeName)

	var data []dataParam
	for _, prm := range p.op.PathParameters {
		data = p.appendParameter(data, prm)
	}
	for _, prm := range p.op.QueryParameters() {
		data = p.appendParameter(data, prm)
	}
	body, err := p.bodyParameters(ctx)
	if err != nil {
		return RequestBodyResult{}, err
	}
	data = append(data, body...)
	data = p.dropShadowed(ctx, data)
	assignLocals(data)

	names := make([]string, len(data))
	for i, d := range data {
		names[i] = d.local
	}
	init := InitName(names)
	p.scope.Table.Reserve(append(names, init)...)

	res := RequestBodyResult{Init: init, Packed: tsast.ObjectLit{}}
	for _, d := range data {
		t, err := p.scope.Synth.Type(d.schema, d.pointer)
		if err != nil {
			return RequestBodyResult{}, err
		}
		res.Params = append(res.Params, tsast.Param{Name: d.local, Type: t})
		res.Packed.Props = append(res.Packed.Props, tsast.ObjectProp{Key: d.key, Value: d.local})
	}
	res.Params = append(res.Params, tsast.Param{Name: init, Optional: true, Type: tsast.Ref(initType)})
	return res, nil
}

// appendParameter adds prm when it declares a schema, directly or through
// its first content entry.
func (p *RequestBodyProcessor) appendParameter(data []dataParam, prm *openapi3.Parameter) []dataParam {
	ptr := p.op.ParameterPointer(prm)
	if prm.Schema != nil {
		return append(data, dataParam{key: prm.Name, schema: prm.Schema, pointer: spec.ChildPointer(ptr, "schema")})
	}
	if mt, media := pickMedia(p.scope.Order, prm.Content, ptr); media != nil && media.Schema != nil {
		return append(data, dataParam{key: prm.Name, schema: media.Schema, pointer: mediaSchemaPointer(ptr, mt)})
	}
	return data
}

func (p *RequestBodyProcessor) bodyParameters(ctx context.Context) ([]dataParam, error) {
	if p.body == nil {
		return nil, nil
	}
	ptr := p.op.RequestBodyPointer()
	if p.body.Value == nil {
		return nil, generr.Resolution(ptr, nil, "request body reference %q cannot be resolved", p.body.Ref)
	}
	mt, media := pickMedia(p.scope.Order, p.body.Value.Content, ptr)
	if media == nil || media.Schema == nil {
		return nil, nil
	}
	schemaPtr := mediaSchemaPointer(ptr, mt)
	sch, err := p.scope.Resolver.Resolve(media.Schema, schemaPtr)
	if err != nil {
		return nil, err
	}
	if sch.Kind != spec.KindObject || sch.IsEmptyObject() {
		p.scope.warn(ctx, generr.UnsupportedRequestBody, schemaPtr, unsupportedBodyMessage)
		return nil, nil
	}
	log.Debug(ctx, log.KV{K: "msg", V: "request body expanded"}, log.KV{K: "pointer", V: schemaPtr}, log.KV{K: "fields", V: len(sch.Properties)})
	out := make([]dataParam, 0, len(sch.Properties))
	for _, prop := range sch.Properties {
		out = append(out, dataParam{key: prop.Name, schema: prop.Schema, pointer: prop.Pointer})
	}
	return out, nil
}

// dropShadowed keeps the first data parameter of every wire name. Path
// parameters come first, so they keep filling the URL template.
func (p *RequestBodyProcessor) dropShadowed(ctx context.Context, data []dataParam) []dataParam {
	seen := make(map[string]string, len(data))
	out := data[:0]
	for _, d := range data {
		if first, ok := seen[d.key]; ok {
			p.scope.warn(ctx, generr.ShadowedParameter, d.pointer,
				fmt.Sprintf("%q is already declared at %s and is ignored", d.key, first))
			continue
		}
		seen[d.key] = d.pointer
		out = append(out, d)
	}
	return out
}

// InitName returns the shortest name of the form _*init that is not in names.
func InitName(names []string) string {
	taken := make(map[string]struct{}, len(names))
	for _, n := range names {
		taken[n] = struct{}{}
	}
	name := DefaultInitName
	for {
		if _, ok := taken[name]; !ok {
			return name
		}
		name = "_" + name
	}
}

// assignLocals gives every data parameter a unique JavaScript identifier.
// Valid, distinct wire names are used as is.
func assignLocals(data []dataParam) {
	used := make(map[string]struct{}, len(data))
	for i := range data {
		base := ParameterName(data[i].key)
		name := base
		for n := 2; ; n++ {
			if _, ok := used[name]; !ok {
				break
			}
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = struct{}{}
		data[i].local = name
	}
}

// ParameterName turns a wire name into a parameter identifier, e.g.
// "page-size" into "page_size" and "class" into "_class".
func ParameterName(key string) string {
	name := key
	if !tsast.IsIdentifier(name) {
		name = sanitize(name)
	}
	if reservedWords[name] {
		name = "_" + name
	}
	return name
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// sanitize replaces every character invalid in an identifier by '_' and
// prefixes a leading digit.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if !isIdentRune(r) {
			r = '_'
		}
		if b.Len() == 0 && r >= '0' && r <= '9' {
			b.WriteRune('_')
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true, "implements": true,
	"interface": true, "package": true, "private": true, "protected": true,
	"public": true, "await": true,
}
