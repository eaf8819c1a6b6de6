package backbone

import (
	"context"
	"strings"

	"goa.design/clue/log"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/spec"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

// ResponseProcessor computes the return type of one operation.
type ResponseProcessor struct {
	scope *Scope
	op    spec.Operation
}

func NewResponseProcessor(scope *Scope, op spec.Operation) *ResponseProcessor {
	return &ResponseProcessor{scope: scope, op: op}
}

// Process visits the responses in declared order and returns the resolved
// return type.
func (p *ResponseProcessor) Process(ctx context.Context) (tsast.TypeExpr, error) {
	if p.op.Operation == nil {
		return tsast.Void, nil
	}
	responses := p.op.Operation.Responses
	base := spec.ChildPointer(p.op.Pointer, "responses")
	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	var candidates []tsast.TypeExpr
	for _, code := range p.scope.Order.Sort(base, codes) {
		ref := responses[code]
		if ref == nil {
			continue
		}
		ptr := spec.ChildPointer(base, code)
		if strings.HasPrefix(ref.Ref, "#/") {
			ptr = ref.Ref
		}
		if ref.Value == nil {
			return tsast.TypeExpr{}, generr.Resolution(ptr, nil, "response reference %q cannot be resolved", ref.Ref)
		}
		mt, media := pickMedia(p.scope.Order, ref.Value.Content, ptr)
		if media == nil || media.Schema == nil {
			continue
		}
		c, err := p.scope.Synth.Process(media.Schema, mediaSchemaPointer(ptr, mt))
		if err != nil {
			return tsast.TypeExpr{}, err
		}
		candidates = append(candidates, c...)
	}
	t := ResponseType(candidates)
	log.Debug(ctx, log.KV{K: "msg", V: "response type resolved"}, log.KV{K: "operation", V: p.op.Pointer}, log.KV{K: "type", V: t.String()})
	return t, nil
}

// ResponseType flattens and deduplicates candidates. It returns void when
// nothing is left.
func ResponseType(candidates []tsast.TypeExpr) tsast.TypeExpr {
	flat := make([]tsast.TypeExpr, 0, len(candidates))
	for _, c := range candidates {
		if c.Kind == tsast.KindUnion {
			flat = append(flat, c.Args...)
			continue
		}
		flat = append(flat, c)
	}
	flat = tsast.Dedup(flat)
	if len(flat) == 0 {
		return tsast.Void
	}
	return tsast.Union(flat...)
}
