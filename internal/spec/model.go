package spec

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Catalogue records read from the API description. They are read-only for the
// duration of a generation run.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	PUT     HttpMethod = "put"
	POST    HttpMethod = "post"
	DELETE  HttpMethod = "delete"
	OPTIONS HttpMethod = "options"
	HEAD    HttpMethod = "head"
	PATCH   HttpMethod = "patch"
	TRACE   HttpMethod = "trace"
)

// Methods lists the HTTP methods in their fallback encounter order.
var Methods = []HttpMethod{GET, PUT, POST, DELETE, OPTIONS, HEAD, PATCH, TRACE}

// Upper returns the method name as sent on the wire, e.g. "GET".
func (m HttpMethod) Upper() string { return strings.ToUpper(string(m)) }

// HasRequestBody reports whether operations using m may carry a request body.
func (m HttpMethod) HasRequestBody() bool {
	return m == POST || m == PUT || m == PATCH
}

// ParseMethod converts a method name in any case.
func ParseMethod(s string) (HttpMethod, bool) {
	m := HttpMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

func (m HttpMethod) operationOf(item *openapi3.PathItem) *openapi3.Operation {
	switch m {
	case GET:
		return item.Get
	case PUT:
		return item.Put
	case POST:
		return item.Post
	case DELETE:
		return item.Delete
	case OPTIONS:
		return item.Options
	case HEAD:
		return item.Head
	case PATCH:
		return item.Patch
	case TRACE:
		return item.Trace
	}
	return nil
}

// Operation is one HTTP method bound to one path.
type Operation struct {
	Path   string
	Method HttpMethod
	// Operation is the operation object as declared in the document.
	Operation *openapi3.Operation
	// PathParameters are the merged path-level and operation-level parameters
	// located in the path.
	PathParameters []*openapi3.Parameter
	// Parameters are all merged parameters, whatever their location.
	Parameters []*openapi3.Parameter
	// Pointer locates the operation object, e.g. "#/paths/~1pets/get".
	Pointer string

	paramPointers map[*openapi3.Parameter]string
}

// ParameterPointer locates the declaration of p, falling back to the
// operation's parameters when p was not read from the catalogue.
func (op Operation) ParameterPointer(p *openapi3.Parameter) string {
	if ptr, ok := op.paramPointers[p]; ok {
		return ptr
	}
	return ChildPointer(ChildPointer(op.Pointer, "parameters"), p.Name)
}

// RequestBodyPointer locates the request body declaration.
func (op Operation) RequestBodyPointer() string {
	if op.Operation != nil && op.Operation.RequestBody != nil && strings.HasPrefix(op.Operation.RequestBody.Ref, "#/") {
		return op.Operation.RequestBody.Ref
	}
	return ChildPointer(op.Pointer, "requestBody")
}

// QueryParameters returns the merged parameters located in the query string.
func (op Operation) QueryParameters() []*openapi3.Parameter {
	var out []*openapi3.Parameter
	for _, p := range op.Parameters {
		if p.In == openapi3.ParameterInQuery {
			out = append(out, p)
		}
	}
	return out
}

// OperationID returns the declared operationId, or "".
func (op Operation) OperationID() string {
	if op.Operation == nil {
		return ""
	}
	return strings.TrimSpace(op.Operation.OperationID)
}

// TagGroup is the set of operations generated into one module.
type TagGroup struct {
	Tag        string
	Operations []Operation
}

// Catalog is the grouped view of a document.
type Catalog struct {
	Groups []TagGroup
	// Schemas lists component schema names in declared order.
	Schemas []string
}

// Group returns the group for tag.
func (c *Catalog) Group(tag string) (TagGroup, bool) {
	for _, g := range c.Groups {
		if g.Tag == tag {
			return g, true
		}
	}
	return TagGroup{}, false
}

// OperationCount returns the number of operations across all groups.
func (c *Catalog) OperationCount() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Operations)
	}
	return n
}
