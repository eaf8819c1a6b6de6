package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// preprocessV2ForCompatibility rewrites non-compliant Swagger 2.0 operations so
// kin-openapi can convert them to OpenAPI 3:
//   - several body parameters are merged into one body parameter whose schema
//     is an object with one property per original parameter;
//   - body parameters mixed with formData parameters become formData
//     parameters and the operation consumes multipart/form-data.
//
// The document is edited as a yaml.Node tree so declared key order survives
// the rewrite. On error the original bytes are returned with modified=false.
func preprocessV2ForCompatibility(data []byte) ([]byte, bool, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return data, false, err
	}
	if len(root.Content) == 0 {
		return data, false, nil
	}
	paths := mappingValue(root.Content[0], "paths")
	if paths == nil || paths.Kind != yaml.MappingNode {
		return data, false, nil
	}

	modified := false
	for i := 1; i < len(paths.Content); i += 2 {
		item := paths.Content[i]
		if item.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(item.Content); j += 2 {
			if _, ok := ParseMethod(item.Content[j].Value); !ok {
				continue
			}
			if rewriteV2Operation(item.Content[j+1]) {
				modified = true
			}
		}
	}
	if !modified {
		return data, false, nil
	}
	out, err := yaml.Marshal(&root)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

func rewriteV2Operation(op *yaml.Node) bool {
	if op.Kind != yaml.MappingNode {
		return false
	}
	params := mappingValue(op, "parameters")
	if params == nil || params.Kind != yaml.SequenceNode {
		return false
	}

	bodyCount, hasFormData := 0, false
	for _, p := range params.Content {
		switch strings.ToLower(scalarValue(mappingValue(p, "in"))) {
		case "body":
			bodyCount++
		case "formdata":
			hasFormData = true
		}
	}

	switch {
	case bodyCount == 0:
		return false
	case hasFormData:
		for i, p := range params.Content {
			if strings.EqualFold(scalarValue(mappingValue(p, "in")), "body") {
				params.Content[i] = formDataFromBodyParam(p)
			}
		}
		consumes := mappingValue(op, "consumes")
		if consumes == nil || consumes.Kind != yaml.SequenceNode {
			consumes = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			setMappingValue(op, "consumes", consumes)
		}
		for _, c := range consumes.Content {
			if c.Value == "multipart/form-data" {
				return true
			}
		}
		consumes.Content = append(consumes.Content, strNode("multipart/form-data"))
		return true
	case bodyCount > 1:
		props := mappingNode()
		required := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		rest := make([]*yaml.Node, 0, len(params.Content))
		for _, p := range params.Content {
			if !strings.EqualFold(scalarValue(mappingValue(p, "in")), "body") {
				rest = append(rest, p)
				continue
			}
			name := scalarValue(mappingValue(p, "name"))
			if name == "" {
				name = "field"
			}
			setMappingValue(props, name, schemaFromParam(p))
			if scalarValue(mappingValue(p, "required")) == "true" {
				required.Content = append(required.Content, strNode(name))
			}
		}
		schema := mappingNode()
		setMappingValue(schema, "type", strNode("object"))
		setMappingValue(schema, "properties", props)
		if len(required.Content) > 0 {
			setMappingValue(schema, "required", required)
		}
		merged := mappingNode()
		setMappingValue(merged, "in", strNode("body"))
		setMappingValue(merged, "name", strNode("body"))
		setMappingValue(merged, "schema", schema)
		params.Content = append([]*yaml.Node{merged}, rest...)
		return true
	}
	return false
}

// schemaFromParam returns the schema of a body parameter, synthesizing one
// from type, items and format when the parameter has none.
func schemaFromParam(p *yaml.Node) *yaml.Node {
	if s := mappingValue(p, "schema"); s != nil {
		return s
	}
	out := mappingNode()
	typ := scalarValue(mappingValue(p, "type"))
	if typ == "" {
		typ = "string"
	}
	setMappingValue(out, "type", strNode(typ))
	if it := mappingValue(p, "items"); it != nil {
		setMappingValue(out, "items", it)
	}
	if f := scalarValue(mappingValue(p, "format")); f != "" {
		setMappingValue(out, "format", strNode(f))
	}
	return out
}

func formDataFromBodyParam(p *yaml.Node) *yaml.Node {
	name := scalarValue(mappingValue(p, "name"))
	if name == "" {
		name = "field"
	}
	out := mappingNode()
	setMappingValue(out, "in", strNode("formData"))
	setMappingValue(out, "name", strNode(name))
	if d := scalarValue(mappingValue(p, "description")); d != "" {
		setMappingValue(out, "description", strNode(d))
	}
	if r := mappingValue(p, "required"); r != nil {
		setMappingValue(out, "required", r)
	}

	// formData cannot carry a referenced object; such fields degrade to string.
	src := mappingValue(p, "schema")
	if src == nil {
		src = p
	}
	typ := scalarValue(mappingValue(src, "type"))
	if typ == "" {
		typ = "string"
	}
	setMappingValue(out, "type", strNode(typ))
	if it := mappingValue(src, "items"); it != nil {
		setMappingValue(out, "items", it)
	}
	if f := scalarValue(mappingValue(src, "format")); f != "" {
		setMappingValue(out, "format", strNode(f))
	}
	return out
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setMappingValue(m *yaml.Node, key string, v *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return
		}
	}
	m.Content = append(m.Content, strNode(key), v)
}

func scalarValue(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}
