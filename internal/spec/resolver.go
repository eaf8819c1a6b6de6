package spec

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/oas2ts/internal/generr"
)

// SchemaKind classifies a schema by the shape it generates.
type SchemaKind int

const (
	KindUnknown   SchemaKind = iota
	KindObject               // properties, possibly none
	KindEnum                 // enum of scalar values
	KindArray                // items
	KindMap                  // additionalProperties only
	KindPrimitive            // string, number, integer, boolean
	KindReference            // named component schema
	KindComposite            // oneOf, anyOf, allOf
)

func (k SchemaKind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindPrimitive:
		return "primitive"
	case KindReference:
		return "reference"
	case KindComposite:
		return "composite"
	}
	return "unknown"
}

const componentSchemaPrefix = "#/components/schemas/"

// Property is one object property in declared order.
type Property struct {
	Name     string
	Schema   *openapi3.SchemaRef
	Required bool
	Pointer  string
}

// Schema is the classified view of an OpenAPI schema.
type Schema struct {
	Kind    SchemaKind
	Pointer string
	// Name is the component name of a KindReference schema.
	Name  string
	Ref   string
	Value *openapi3.Schema

	Nullable   bool
	Properties []Property          // KindObject
	Items      *openapi3.SchemaRef // KindArray elements; KindMap values (nil: unknown)
	Enum       []string            // KindEnum
	Primitive  string              // KindPrimitive: the declared type
	Composite  string              // KindComposite: "oneOf", "anyOf" or "allOf"
	Variants   []*openapi3.SchemaRef
}

// ItemsPointer locates Items.
func (s *Schema) ItemsPointer() string {
	if s.Kind == KindMap {
		return ChildPointer(s.Pointer, "additionalProperties")
	}
	return ChildPointer(s.Pointer, "items")
}

// VariantPointer locates the i-th composite variant.
func (s *Schema) VariantPointer(i int) string {
	return ChildPointer(ChildPointer(s.Pointer, s.Composite), fmt.Sprint(i))
}

// IsEmptyObject reports whether s is an object declaring no properties.
func (s *Schema) IsEmptyObject() bool {
	return s.Kind == KindObject && len(s.Properties) == 0
}

// Resolver classifies schemas and follows references.
type Resolver struct {
	doc *Document
}

// NewResolver returns a resolver over doc. doc may be nil for free-standing
// schemas; key order then falls back to lexical order.
func NewResolver(doc *Document) *Resolver { return &Resolver{doc: doc} }

func (r *Resolver) order() *OrderIndex {
	if r.doc == nil {
		return nil
	}
	return r.doc.Order
}

// Classify inspects ref without following a reference to a named component
// schema, which is reported as KindReference.
func (r *Resolver) Classify(ref *openapi3.SchemaRef, pointer string) (*Schema, error) {
	if ref == nil {
		return &Schema{Kind: KindUnknown, Pointer: pointer}, nil
	}
	if name, ok := ComponentName(ref.Ref); ok {
		s := &Schema{Kind: KindReference, Pointer: pointer, Name: name, Ref: ref.Ref, Value: ref.Value}
		if ref.Value != nil {
			s.Nullable = ref.Value.Nullable
		}
		return s, nil
	}
	if ref.Value == nil {
		return nil, generr.Resolution(pointer, nil, "schema reference %q cannot be resolved", ref.Ref)
	}
	if ref.Ref != "" {
		pointer = refPointer(ref.Ref, pointer)
	}
	return r.classifyValue(ref.Value, ref.Ref, pointer), nil
}

// Resolve classifies ref, following a reference to its target schema.
func (r *Resolver) Resolve(ref *openapi3.SchemaRef, pointer string) (*Schema, error) {
	s, err := r.Classify(ref, pointer)
	if err != nil {
		return nil, err
	}
	return r.ResolveSchema(s)
}

// ResolveSchema follows s when it is a reference. Any other schema is returned
// unchanged, so resolving twice is the same as resolving once.
func (r *Resolver) ResolveSchema(s *Schema) (*Schema, error) {
	if s == nil || s.Kind != KindReference {
		return s, nil
	}
	if s.Value == nil {
		return nil, generr.Resolution(s.Pointer, nil, "schema reference %q cannot be resolved", s.Ref)
	}
	out := r.classifyValue(s.Value, s.Ref, componentSchemaPrefix+pointerEscaper.Replace(s.Name))
	out.Nullable = out.Nullable || s.Nullable
	return out, nil
}

func (r *Resolver) classifyValue(v *openapi3.Schema, ref, pointer string) *Schema {
	s := &Schema{Pointer: pointer, Ref: ref, Value: v, Nullable: v.Nullable}
	switch {
	case len(v.Enum) > 0:
		s.Kind = KindEnum
		for _, e := range v.Enum {
			if e == nil {
				s.Nullable = true
				continue
			}
			s.Enum = append(s.Enum, fmt.Sprint(e))
		}
	case len(v.OneOf) > 0:
		s.Kind, s.Composite, s.Variants = KindComposite, "oneOf", v.OneOf
	case len(v.AnyOf) > 0:
		s.Kind, s.Composite, s.Variants = KindComposite, "anyOf", v.AnyOf
	case len(v.AllOf) > 0:
		s.Kind, s.Composite, s.Variants = KindComposite, "allOf", v.AllOf
	case v.Type == openapi3.TypeArray:
		s.Kind, s.Items = KindArray, v.Items
	case v.Type == openapi3.TypeObject || (v.Type == "" && (len(v.Properties) > 0 || hasAdditional(v))):
		switch {
		case len(v.Properties) > 0:
			s.Kind = KindObject
			s.Properties = r.properties(v, pointer)
		case hasAdditional(v):
			s.Kind, s.Items = KindMap, v.AdditionalProperties.Schema
		default:
			s.Kind = KindObject
		}
	case v.Type == openapi3.TypeString, v.Type == openapi3.TypeNumber,
		v.Type == openapi3.TypeInteger, v.Type == openapi3.TypeBoolean:
		s.Kind, s.Primitive = KindPrimitive, v.Type
	default:
		s.Kind = KindUnknown
	}
	return s
}

func hasAdditional(v *openapi3.Schema) bool {
	ap := v.AdditionalProperties
	return ap.Schema != nil || (ap.Has != nil && *ap.Has)
}

func (r *Resolver) properties(v *openapi3.Schema, pointer string) []Property {
	required := make(map[string]bool, len(v.Required))
	for _, n := range v.Required {
		required[n] = true
	}
	names := make([]string, 0, len(v.Properties))
	for n := range v.Properties {
		names = append(names, n)
	}
	propsPtr := ChildPointer(pointer, "properties")
	names = r.order().Sort(propsPtr, names)
	out := make([]Property, 0, len(names))
	for _, n := range names {
		out = append(out, Property{
			Name:     n,
			Schema:   v.Properties[n],
			Required: required[n],
			Pointer:  ChildPointer(propsPtr, n),
		})
	}
	return out
}

// ComponentName returns the component name of a local component schema
// reference such as "#/components/schemas/Pet".
func ComponentName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, componentSchemaPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, componentSchemaPrefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return unescapeToken(name), true
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

func unescapeToken(s string) string { return pointerUnescaper.Replace(s) }

// refPointer maps a local $ref to the pointer of its target; other refs keep
// the pointer of the referencing site.
func refPointer(ref, site string) string {
	if strings.HasPrefix(ref, "#/") {
		return ref
	}
	return site
}
