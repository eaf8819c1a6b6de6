package symbols

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/oas2ts/internal/generr"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

func TestNamedImport_Idempotent(t *testing.T) {
	t.Parallel()

	tbl := NewTable("Pets.ts")
	first := tbl.AddNamedImport("./connect-client.default.js", "ClientRequestInit")
	for i := 0; i < 10; i++ {
		assert.Same(t, first, tbl.AddNamedImport("./connect-client.default.js", "ClientRequestInit"))
	}
	require.Len(t, tbl.Imports(), 1)
}

func TestNamedImport_ConcurrentRequestsShareOneDeclaration(t *testing.T) {
	t.Parallel()

	tbl := NewTable("Pets.ts")
	var wg sync.WaitGroup
	ids := make([]*tsast.Ident, 50)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = tbl.AddNamedImport("./connect-client.default.js", "ClientRequestInit")
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Same(t, ids[0], id)
	}
	assert.Len(t, tbl.Imports(), 1)
}

func TestDefaultImport_IdempotentPerPath(t *testing.T) {
	t.Parallel()

	tbl := NewTable("Pets.ts")
	a := tbl.AddDefaultImport("./Pet.js", "Pet", true)
	b := tbl.AddDefaultImport("./Pet.js", "Other", false)
	assert.Same(t, a, b)

	got, ok := tbl.DefaultImport("./Pet.js")
	require.True(t, ok)
	assert.Same(t, a, got)

	imps := tbl.Imports()
	require.Len(t, imps, 1)
	assert.False(t, imps[0].TypeOnly, "value import supersedes type-only import")

	_, ok = tbl.DefaultImport("./Missing.js")
	assert.False(t, ok)
}

func TestAddExport_DuplicateIsNamingError(t *testing.T) {
	t.Parallel()

	tbl := NewTable("Pets.ts")
	_, err := tbl.AddExport("getPets")
	require.NoError(t, err)

	_, err = tbl.AddExport("getPets")
	require.Error(t, err)
	assert.ErrorIs(t, err, generr.ErrNaming)
}

func TestSeal_DeterministicRegardlessOfRegistrationOrder(t *testing.T) {
	t.Parallel()

	register := func(order []string) map[string]string {
		tbl := NewTable("Pets.ts")
		ids := map[string]*tsast.Ident{}
		for _, p := range order {
			ids[p] = tbl.AddDefaultImport(p, "Pet", true)
		}
		tbl.Seal()
		out := map[string]string{}
		for p, id := range ids {
			out[p] = id.Name()
		}
		return out
	}

	a := register([]string{"./b/Pet.js", "./a/Pet.js", "./c/Pet.js"})
	b := register([]string{"./c/Pet.js", "./a/Pet.js", "./b/Pet.js"})
	assert.Equal(t, a, b)
	assert.Equal(t, "Pet_1", a["./a/Pet.js"])
	assert.Equal(t, "Pet_3", a["./c/Pet.js"])
}

func TestSeal_SkipsReservedAndSharesNamespace(t *testing.T) {
	t.Parallel()

	tbl := NewTable("Pets.ts")
	client := tbl.AddDefaultImport("./connect-client.default.js", "client", false)
	fn, err := tbl.AddExport("client")
	require.NoError(t, err)
	tbl.Reserve("client_1")
	tbl.Seal()

	assert.Equal(t, "client_2", client.Name())
	assert.Equal(t, "client_3", fn.Name())

	exps := tbl.Exports()
	require.Len(t, exps, 1)
	assert.Equal(t, "client", exps[0].Exported)
}

func TestSeal_Idempotent(t *testing.T) {
	t.Parallel()

	tbl := NewTable("Pets.ts")
	id, err := tbl.AddExport("listPets")
	require.NoError(t, err)
	tbl.Seal()
	tbl.Seal()
	assert.Equal(t, "listPets_1", id.Name())
}

func TestDefaultExportOrderedFirst(t *testing.T) {
	t.Parallel()

	tbl := NewTable("com/example/Pet.ts")
	_, err := tbl.AddExport("helper")
	require.NoError(t, err)
	def, err := tbl.AddDefaultExport("Pet")
	require.NoError(t, err)
	_, err = tbl.AddDefaultExport("Other")
	assert.ErrorIs(t, err, generr.ErrNaming)

	exps := tbl.Exports()
	require.Len(t, exps, 2)
	assert.True(t, exps[0].Default)
	assert.Same(t, def, exps[0].Local)
}

func TestRelativePaths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		module, target, want string
	}{
		{"Pets.ts", "connect-client.default", "./connect-client.default.js"},
		{"Pets.ts", "com/example/Pet.ts", "./com/example/Pet.js"},
		{"com/example/Pet.ts", "com/example/Owner", "./Owner.js"},
		{"com/example/Pet.ts", "connect-client.default", "../../connect-client.default.js"},
		{"com/example/Pet.ts", "com/other/Tag", "../other/Tag.js"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.module, tc.target), func(t *testing.T) {
			assert.Equal(t, tc.want, NewPaths(tc.module, Extension).Relative(tc.target))
		})
	}
}
