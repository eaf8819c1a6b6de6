package backbone

import (
	"context"
	"strings"

	"goa.design/clue/log"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/spec"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

// OperationProcessor turns one operation into an exported async function
// calling the transport helper.
type OperationProcessor struct {
	scope *Scope
	tag   string
	op    spec.Operation
}

func NewOperationProcessor(scope *Scope, tag string, op spec.Operation) *OperationProcessor {
	return &OperationProcessor{scope: scope, tag: tag, op: op}
}

// Process returns the function declaration, or nil when there is no
// operation object.
func (p *OperationProcessor) Process(ctx context.Context) (*tsast.FuncDecl, error) {
	if p.op.Operation == nil {
		return nil, nil
	}
	name := FunctionName(p.op, p.tag)
	log.Debug(ctx, log.KV{K: "msg", V: "processing operation"}, log.KV{K: "function", V: p.tag + "." + name},
		log.KV{K: "method", V: p.op.Method.Upper()}, log.KV{K: "path", V: p.op.Path})

	params, err := NewRequestBodyProcessor(p.scope, p.op).Process(ctx)
	if err != nil {
		return nil, err
	}
	id, err := p.scope.Table.AddExport(name)
	if err != nil {
		return nil, err
	}
	client, ok := p.scope.Table.DefaultImport(p.scope.ClientPath)
	if !ok {
		return nil, generr.Configuration("transport helper %q is not imported by %s", p.scope.ClientPath, p.scope.Table.Module())
	}
	returns, err := NewResponseProcessor(p.scope, p.op).Process(ctx)
	if err != nil {
		return nil, err
	}
	return &tsast.FuncDecl{
		Async:   true,
		Name:    id,
		Params:  params.Params,
		Returns: returns,
		Body: tsast.CallExpr{
			Callee: client,
			Member: "call",
			Args: []tsast.Expr{
				tsast.StringLit(p.op.Method.Upper()),
				tsast.StringLit(p.op.Path),
				params.Packed,
				tsast.IdentExpr(params.Init),
			},
		},
	}, nil
}

// FunctionName derives the exported function name of op within tag.
//
// An operationId of the form "<tag>_<name>_<METHOD>" yields name and any other
// operationId is used as is. Without one the name is the lower-case method
// followed by the capitalized path segments: GET /pets/{petId} is getPetsPetId.
func FunctionName(op spec.Operation, tag string) string {
	id := op.OperationID()
	if id == "" {
		var b strings.Builder
		b.WriteString(strings.ToLower(string(op.Method)))
		words := strings.FieldsFunc(op.Path, func(r rune) bool { return !isIdentRune(r) })
		for _, w := range words {
			b.WriteString(strings.ToUpper(w[:1]))
			b.WriteString(w[1:])
		}
		return b.String()
	}
	prefix, suffix := tag+"_", "_"+op.Method.Upper()
	if len(id) > len(prefix)+len(suffix) && strings.HasPrefix(id, prefix) && strings.HasSuffix(id, suffix) {
		id = id[len(prefix) : len(id)-len(suffix)]
	}
	if tsast.IsIdentifier(id) {
		return id
	}
	return sanitize(id)
}
