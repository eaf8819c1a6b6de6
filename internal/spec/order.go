package spec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// OrderIndex remembers the declared key order of every mapping in a document,
// keyed by JSON pointer. The parsed OpenAPI model stores paths, responses and
// properties in Go maps, so declared order is recovered from here.
type OrderIndex struct {
	keys map[string][]string
}

// BuildOrderIndex parses raw (YAML or JSON) and records the key order of every
// mapping node.
func BuildOrderIndex(raw []byte) (*OrderIndex, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("index key order: %w", err)
	}
	idx := &OrderIndex{keys: map[string][]string{}}
	if len(root.Content) > 0 {
		idx.walk("#", root.Content[0], 0)
	}
	return idx, nil
}

// maximum nesting followed while indexing; anchors can build cycles.
const maxIndexDepth = 64

func (o *OrderIndex) walk(ptr string, n *yaml.Node, depth int) {
	if n == nil || depth > maxIndexDepth {
		return
	}
	if n.Kind == yaml.AliasNode {
		n = n.Alias
		if n == nil {
			return
		}
	}
	switch n.Kind {
	case yaml.MappingNode:
		keys := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			keys = append(keys, k)
			o.walk(ChildPointer(ptr, k), n.Content[i+1], depth+1)
		}
		o.keys[ptr] = keys
	case yaml.SequenceNode:
		for i, c := range n.Content {
			o.walk(ChildPointer(ptr, strconv.Itoa(i)), c, depth+1)
		}
	}
}

// Keys returns the declared keys of the mapping at ptr.
func (o *OrderIndex) Keys(ptr string) ([]string, bool) {
	if o == nil {
		return nil, false
	}
	k, ok := o.keys[ptr]
	return k, ok
}

// Sort returns keys in declared order for the mapping at ptr. Keys the index
// does not know about follow in lexical order, so a missing index degrades to
// a sorted, still deterministic order.
func (o *OrderIndex) Sort(ptr string, keys []string) []string {
	out := append([]string(nil), keys...)
	declared, _ := o.Keys(ptr)
	rank := make(map[string]int, len(declared))
	for i, k := range declared {
		rank[k] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i]]
		rj, jok := rank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return out[i] < out[j]
	})
	return out
}

// alias copies the entries recorded under prefix from to prefix to.
func (o *OrderIndex) alias(from, to string) {
	if o == nil {
		return
	}
	for ptr, keys := range o.keys {
		if ptr == from || strings.HasPrefix(ptr, from+"/") {
			o.keys[to+strings.TrimPrefix(ptr, from)] = keys
		}
	}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// ChildPointer appends an escaped reference token to ptr.
func ChildPointer(ptr, token string) string {
	return ptr + "/" + pointerEscaper.Replace(token)
}

// Pointer builds a JSON pointer from unescaped tokens, e.g.
// Pointer("paths", "/pets", "get") == "#/paths/~1pets/get".
func Pointer(tokens ...string) string {
	ptr := "#"
	for _, t := range tokens {
		ptr = ChildPointer(ptr, t)
	}
	return ptr
}
