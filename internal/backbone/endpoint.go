package backbone

import (
	"context"
	"fmt"
	"strings"

	"goa.design/clue/log"
	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/spec"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

// operationStarted, when set, runs first in every operation task.
var operationStarted func(index int)

// EndpointProcessor synthesizes the module of one tag group.
type EndpointProcessor struct {
	scope *Scope
	group spec.TagGroup
}

// NewEndpointProcessor prepares the module of group. clientFile is the output
// path of the transport helper module, e.g. "connect-client.default.ts".
func NewEndpointProcessor(doc *spec.Document, group spec.TagGroup, clientFile string, diags *generr.Diagnostics) *EndpointProcessor {
	return &EndpointProcessor{
		scope: NewScope(doc, ModulePath(group.Tag), clientFile, diags),
		group: group,
	}
}

// ModulePath returns the output path of the module of tag.
func ModulePath(tag string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(tag) + ".ts"
}

// Process synthesizes every operation concurrently and assembles the module.
// Functions appear in operation order regardless of completion order.
func (p *EndpointProcessor) Process(ctx context.Context) (*tsast.File, error) {
	log.Debug(ctx, log.KV{K: "msg", V: "processing endpoint"}, log.KV{K: "tag", V: p.group.Tag}, log.KV{K: "operations", V: len(p.group.Operations)})
	p.scope.Table.AddDefaultImport(p.scope.ClientPath, "client", false)

	results := make([]*tsast.FuncDecl, len(p.group.Operations))
	g, gctx := errgroup.WithContext(ctx)
	for i, op := range p.group.Operations {
		g.Go(func() error {
			if operationStarted != nil {
				operationStarted(i)
			}
			fn, err := NewOperationProcessor(p.scope, p.group.Tag, op).Process(gctx)
			if err != nil {
				return fmt.Errorf("%s %s: %w", op.Method.Upper(), op.Path, err)
			}
			results[i] = fn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", p.group.Tag, err)
	}

	statements := make([]tsast.Statement, 0, len(results))
	for _, fn := range results {
		if fn != nil {
			statements = append(statements, fn)
		}
	}
	p.scope.Table.Seal()
	return &tsast.File{
		Path:       p.scope.Table.Module(),
		Imports:    p.scope.Table.Imports(),
		Statements: statements,
		Exports:    p.scope.Table.Exports(),
	}, nil
}
