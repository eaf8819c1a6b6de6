package spec

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"goa.design/clue/log"

	"github.com/mark3labs/oas2ts/internal/generr"
)

// DefaultTag groups operations that have neither a tag nor a path segment.
const DefaultTag = "Default"

// BuildOption configures how the Catalog is built from a document.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
	err         error
}

// WithIncludeTags keeps only operations that have at least one of the given
// tags. Untagged operations are matched by their derived group tag.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) BuildOption {
	return func(c *buildConfig) {
		if len(methods) == 0 {
			return
		}
		if c.methods == nil {
			c.methods = make(map[HttpMethod]struct{}, len(methods))
		}
		for _, m := range methods {
			c.methods[m] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only operations whose path matches at least one of
// the regular expressions. BuildCatalog fails on an invalid pattern.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				if c.err == nil {
					c.err = generr.Configuration("invalid path pattern %q: %v", p, err)
				}
				continue
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// filterTags returns the tags filters match against: the declared tags, or
// the derived group tag for untagged operations.
func filterTags(op *openapi3.Operation, group string) []string {
	if op != nil && len(op.Tags) > 0 {
		return op.Tags
	}
	return []string{group}
}

func (c *buildConfig) keep(tags []string, path string, m HttpMethod) bool {
	if len(c.includeTags) > 0 && !anyTag(c.includeTags, tags) {
		return false
	}
	if anyTag(c.excludeTags, tags) {
		return false
	}
	if len(c.methods) > 0 {
		if _, ok := c.methods[m]; !ok {
			return false
		}
	}
	if len(c.pathRes) > 0 {
		for _, re := range c.pathRes {
			if re.MatchString(path) {
				return true
			}
		}
		return false
	}
	return true
}

func anyTag(set map[string]struct{}, tags []string) bool {
	for _, t := range tags {
		if _, ok := set[strings.TrimSpace(t)]; ok {
			return true
		}
	}
	return false
}

// BuildCatalog walks the paths of doc in declared order, visiting methods in
// the order of Methods, and groups every operation under its tag. Groups
// appear in order of first encounter and operations keep encounter order
// within their group.
func BuildCatalog(ctx context.Context, doc *Document, opts ...BuildOption) (*Catalog, error) {
	if doc == nil || doc.API == nil {
		return nil, generr.Configuration("no document to build the catalog from")
	}
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}

	cat := &Catalog{}
	index := map[string]int{}
	paths := make([]string, 0, len(doc.API.Paths))
	for p := range doc.API.Paths {
		paths = append(paths, p)
	}
	paths = doc.Order.Sort("#/paths", paths)

	for _, path := range paths {
		item := doc.API.Paths[path]
		if item == nil {
			continue
		}
		itemPtr := Pointer("paths", path)
		for _, m := range methodsOf(item) {
			op := m.operationOf(item)
			tag := TagOf(op, path)
			if len(op.Tags) > 0 && op.Tags[0] == "" {
				log.Warn(ctx, log.KV{K: "msg", V: "empty first tag, grouping by path"}, log.KV{K: "method", V: m.Upper()}, log.KV{K: "path", V: path}, log.KV{K: "tag", V: tag})
			}
			if !cfg.keep(filterTags(op, tag), path, m) {
				log.Debug(ctx, log.KV{K: "msg", V: "operation filtered out"}, log.KV{K: "method", V: m.Upper()}, log.KV{K: "path", V: path})
				continue
			}
			params, ptrs, err := mergeParameters(item.Parameters, op.Parameters, itemPtr, ChildPointer(itemPtr, string(m)))
			if err != nil {
				return nil, err
			}
			rec := Operation{
				Path:       path,
				Method:     m,
				Operation:  op,
				Parameters: params,
				Pointer:    ChildPointer(itemPtr, string(m)),

				paramPointers: ptrs,
			}
			for _, p := range params {
				if p.In == openapi3.ParameterInPath {
					rec.PathParameters = append(rec.PathParameters, p)
				}
			}
			i, ok := index[tag]
			if !ok {
				i = len(cat.Groups)
				index[tag] = i
				cat.Groups = append(cat.Groups, TagGroup{Tag: tag})
			}
			cat.Groups[i].Operations = append(cat.Groups[i].Operations, rec)
		}
	}

	if c := doc.API.Components; c != nil && len(c.Schemas) > 0 {
		names := make([]string, 0, len(c.Schemas))
		for n := range c.Schemas {
			names = append(names, n)
		}
		cat.Schemas = doc.Order.Sort("#/components/schemas", names)
	}
	return cat, nil
}

// methodsOf returns the methods present on item in the fixed order of Methods.
func methodsOf(item *openapi3.PathItem) []HttpMethod {
	out := make([]HttpMethod, 0, len(Methods))
	for _, m := range Methods {
		if m.operationOf(item) != nil {
			out = append(out, m)
		}
	}
	return out
}

// TagOf derives the group tag of an operation: its first tag as declared,
// else the first non-empty segment of path, else DefaultTag. An empty first
// tag counts as no tag.
func TagOf(op *openapi3.Operation, path string) string {
	if op != nil && len(op.Tags) > 0 && op.Tags[0] != "" {
		return op.Tags[0]
	}
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			return seg
		}
	}
	return DefaultTag
}

// mergeParameters combines path-item and operation parameters. An operation
// parameter overrides the path-item parameter with the same name and
// location, keeping the path-item position.
func mergeParameters(itemParams, opParams openapi3.Parameters, itemPtr, opPtr string) ([]*openapi3.Parameter, map[*openapi3.Parameter]string, error) {
	type key struct{ in, name string }
	var out []*openapi3.Parameter
	pos := map[key]int{}
	ptrs := map[*openapi3.Parameter]string{}
	add := func(list openapi3.Parameters, base string) error {
		for i, ref := range list {
			if ref == nil {
				continue
			}
			ptr := ChildPointer(ChildPointer(base, "parameters"), strconv.Itoa(i))
			if ref.Value == nil {
				return generr.Resolution(ptr, nil, "parameter reference %q cannot be resolved", ref.Ref)
			}
			if strings.HasPrefix(ref.Ref, "#/") {
				ptr = ref.Ref
			}
			p := ref.Value
			ptrs[p] = ptr
			k := key{p.In, p.Name}
			if at, ok := pos[k]; ok {
				out[at] = p
				continue
			}
			pos[k] = len(out)
			out = append(out, p)
		}
		return nil
	}
	if err := add(itemParams, itemPtr); err != nil {
		return nil, nil, err
	}
	if err := add(opParams, opPtr); err != nil {
		return nil, nil, err
	}
	return out, ptrs, nil
}
