package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderIndex_RecordsDeclaredKeys(t *testing.T) {
	t.Parallel()
	idx, err := BuildOrderIndex([]byte(`
paths:
  /z/{id}:
    get:
      responses:
        "404": { description: nf }
        "200": { description: ok }
        default: { description: err }
  /a: {}
list:
  - { b: 1, a: 2 }
`))
	require.NoError(t, err)

	keys, ok := idx.Keys("#/paths")
	require.True(t, ok)
	assert.Equal(t, []string{"/z/{id}", "/a"}, keys)

	keys, _ = idx.Keys(Pointer("paths", "/z/{id}", "get", "responses"))
	assert.Equal(t, []string{"404", "200", "default"}, keys)

	keys, _ = idx.Keys("#/list/0")
	assert.Equal(t, []string{"b", "a"}, keys)
}

func TestOrderIndex_SortFallsBack(t *testing.T) {
	t.Parallel()
	idx, err := BuildOrderIndex([]byte(`m: { c: 1, a: 2 }`))
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "b", "d"}, idx.Sort("#/m", []string{"d", "a", "b", "c"}))
	assert.Equal(t, []string{"a", "b"}, idx.Sort("#/missing", []string{"b", "a"}))

	var none *OrderIndex
	assert.Equal(t, []string{"a", "b"}, none.Sort("#/m", []string{"b", "a"}))
}

func TestOrderIndex_Alias(t *testing.T) {
	t.Parallel()
	idx, err := BuildOrderIndex([]byte(`definitions: { Pet: { properties: { z: {}, y: {} } } }`))
	require.NoError(t, err)
	idx.alias("#/definitions", "#/components/schemas")

	keys, ok := idx.Keys("#/components/schemas/Pet/properties")
	require.True(t, ok)
	assert.Equal(t, []string{"z", "y"}, keys)
}

func TestPointerEscaping(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "#/paths/~1pets~1{id}/get", Pointer("paths", "/pets/{id}", "get"))
	assert.Equal(t, "#/a~0b", Pointer("a~b"))
}

func TestOrderIndex_InvalidInput(t *testing.T) {
	t.Parallel()
	_, err := BuildOrderIndex([]byte("a: [unclosed"))
	assert.Error(t, err)
}
