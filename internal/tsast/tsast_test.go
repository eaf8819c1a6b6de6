package tsast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bound(key, base, name string) *Ident {
	id := NewIdent(key, base)
	id.Bind(name)
	return id
}

func TestEqual_UnionMembersOrderInsensitive(t *testing.T) {
	t.Parallel()

	a := Union(String, Undefined)
	b := Union(Undefined, String)
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, String))
}

func TestEqual_ObjectFieldsOrderSensitive(t *testing.T) {
	t.Parallel()

	a := Object(Field{Name: "a", Type: String}, Field{Name: "b", Type: Number})
	b := Object(Field{Name: "b", Type: Number}, Field{Name: "a", Type: String})
	assert.False(t, Equal(a, b))
	assert.True(t, Equal(a, Object(Field{Name: "a", Type: String}, Field{Name: "b", Type: Number})))
}

func TestEqual_RefsCompareBySymbolNotPointer(t *testing.T) {
	t.Parallel()

	x := NewIdent("./Pet.js#default", "Pet")
	y := NewIdent("./Pet.js#default", "Pet")
	z := NewIdent("./other/Pet.js#default", "Pet")
	assert.True(t, Equal(Ref(x), Ref(y)))
	assert.False(t, Equal(Ref(x), Ref(z)))
}

func TestEqual_IntersectionDistinctFromUnion(t *testing.T) {
	t.Parallel()

	assert.True(t, Equal(Intersection(String, Number), Intersection(Number, String)))
	assert.False(t, Equal(Intersection(String, Number), Union(String, Number)))
}

func TestDedup_KeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	got := Dedup([]TypeExpr{Number, Array(String), Number, Array(String), Union(Boolean, Null), Union(Null, Boolean)})
	require.Len(t, got, 3)
	assert.Equal(t, "number", got[0].String())
	assert.Equal(t, "Array<string>", got[1].String())
	assert.Equal(t, "boolean | null", got[2].String())
}

func TestUnion_FlattensAndCollapsesSingle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindKeyword, Union(String).Kind)
	u := Union(String, Union(Number, Undefined))
	assert.Equal(t, "string | number | undefined", u.String())
}

func TestTypeExprString(t *testing.T) {
	t.Parallel()

	ent := bound("./Entity.js#default", "Entity", "Entity_1")
	cases := map[string]TypeExpr{
		"Array<Record<string, string | undefined> | undefined>": Array(Union(Record(Union(String, Undefined)), Undefined)),
		"Entity_1<string>":                   Ref(ent, String),
		`"A" | "B"`:                          Union(Literal("A"), Literal("B")),
		`{ id: number; "x-y"?: string }`:     Object(Field{Name: "id", Type: Number}, Field{Name: "x-y", Optional: true, Type: String}),
		"{}":                                 Object(),
		"(string | number) & { a: boolean }": Intersection(Union(String, Number), Object(Field{Name: "a", Type: Boolean})),
	}
	for want, expr := range cases {
		assert.Equal(t, want, expr.String())
	}
}

func TestRender_EndpointModule(t *testing.T) {
	t.Parallel()

	client := bound("./connect-client.default.js#default", "client", "client_1")
	initType := bound("./connect-client.default.js#ClientRequestInit", "ClientRequestInit", "ClientRequestInit_1")
	pet := bound("./Pet.js#default", "Pet", "Pet_1")
	fn := bound("#export:getPet", "getPet", "getPet_1")

	f := &File{
		Path: "Pets.ts",
		Imports: []ImportDecl{
			{Kind: ImportDefault, Path: "./Pet.js", Local: pet, TypeOnly: true},
			{Kind: ImportDefault, Path: "./connect-client.default.js", Local: client},
			{Kind: ImportNamed, Path: "./connect-client.default.js", Name: "ClientRequestInit", Local: initType},
		},
		Statements: []Statement{&FuncDecl{
			Async:   true,
			Name:    fn,
			Params:  []Param{{Name: "id", Type: Number}, {Name: "init", Optional: true, Type: Ref(initType)}},
			Returns: Union(Ref(pet), Undefined),
			Body: CallExpr{Callee: client, Member: "call", Args: []Expr{
				StringLit("GET"), StringLit("/pets/{id}"), Shorthand("id"), IdentExpr("init"),
			}},
		}},
		Exports: []ExportDecl{{Local: fn, Exported: "getPet"}},
	}

	want := `import type Pet_1 from "./Pet.js";
import client_1 from "./connect-client.default.js";
import { ClientRequestInit as ClientRequestInit_1 } from "./connect-client.default.js";
async function getPet_1(id: number, init?: ClientRequestInit_1): Promise<Pet_1 | undefined> { return client_1.call("GET", "/pets/{id}", { id }, init); }
export { getPet_1 as getPet };
`
	assert.Equal(t, want, string(Render(f)))
}

func TestRender_EntityDeclarations(t *testing.T) {
	t.Parallel()

	status := bound("#local:Status", "Status", "Status_1")
	f := &File{
		Statements: []Statement{&EnumDecl{Name: status, Members: []string{"ACTIVE", "in-active"}}},
		Exports:    []ExportDecl{{Local: status, Default: true}},
	}
	want := "enum Status_1 {\n    ACTIVE = \"ACTIVE\",\n    \"in-active\" = \"in-active\",\n}\nexport default Status_1;\n"
	assert.Equal(t, want, string(Render(f)))
}

func TestObjectLit(t *testing.T) {
	t.Parallel()

	render := func(e Expr) string {
		var b strings.Builder
		e.writeExpr(&b)
		return b.String()
	}
	assert.Equal(t, "{}", render(ObjectLit{}))
	assert.Equal(t, "{ a, b }", render(Shorthand("a", "b")))
	assert.Equal(t, `{ id, "page-size": page_size }`, render(ObjectLit{Props: []ObjectProp{{Key: "id", Value: "id"}, {Key: "page-size", Value: "page_size"}}}))
}

func TestRender_RawFile(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "const x = 1;\n", string(Render(&File{Raw: "const x = 1;\n"})))
}

func TestIsIdentifier(t *testing.T) {
	t.Parallel()

	assert.True(t, IsIdentifier("_init"))
	assert.True(t, IsIdentifier("$ref2"))
	assert.False(t, IsIdentifier("2fa"))
	assert.False(t, IsIdentifier("x-y"))
	assert.False(t, IsIdentifier(""))
}
