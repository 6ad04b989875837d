package graphql_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/erdkit/compiler/gen"
	"github.com/syssam/erdkit/compiler/gen/graphql"
	"github.com/syssam/erdkit/diagram"
)

func testGraph() *diagram.Graph {
	n := 0
	return diagram.New(diagram.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
}

func emitSDL(t *testing.T, g *diagram.Graph) string {
	t.Helper()
	artifacts, err := gen.Emit(graphql.New(), g)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	require.Equal(t, "schema.graphql", artifacts[0].Name)
	return string(artifacts[0].Content)
}

// loadSDL validates the emitted document with a real SDL parser.
func loadSDL(t *testing.T, sdl string) *ast.Schema {
	t.Helper()
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl + "\ntype Query { ok: Boolean }\n"})
	require.NoError(t, err, "emitted SDL does not validate:\n%s", sdl)
	return schema
}

func TestEmitValidSDL(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Enum{
		Name: "Role",
		Values: []diagram.EnumValue{
			{Key: "ADMIN", Value: "admin"},
			{Key: "USER", Value: "user"},
		},
	}, diagram.Position{})
	user := g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "u-2", Name: "email", Type: "string"},
			{ID: "u-3", Name: "createdAt", Type: "Date"},
		},
	}, diagram.Position{})
	post := g.AddNode(&diagram.Entity{
		Name: "Post",
		Properties: []diagram.Property{
			{ID: "p-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "p-2", Name: "title", Type: "string"},
		},
	}, diagram.Position{})
	g.AddEdge(&diagram.Relationship{Type: diagram.OneToMany, SourceProperty: "posts"}, user, post)

	sdl := emitSDL(t, g)
	schema := loadSDL(t, sdl)

	assert.Contains(t, sdl, "scalar Time\n")
	assert.Contains(t, sdl, "enum Role {\n  ADMIN\n  USER\n}\n")
	assert.Contains(t, sdl, "  id: ID!\n")
	assert.Contains(t, sdl, "  email: String!\n")
	assert.Contains(t, sdl, "  createdAt: Time!\n")
	assert.Contains(t, sdl, "  posts: [Post!]!\n")
	assert.Contains(t, sdl, "  user: User!\n") // inverse side lives on Post

	require.NotNil(t, schema.Types["User"])
	require.NotNil(t, schema.Types["Post"])
	require.NotNil(t, schema.Types["Role"])
}

func TestEnumTypedFieldUsesEnum(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Enum{Name: "Role", Values: []diagram.EnumValue{{Key: "ADMIN", Value: "admin"}}}, diagram.Position{})
	user := g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "u-2", Name: "role", Type: "string"},
		},
	}, diagram.Position{})
	g.UpdateNode(user, &diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "u-2", Name: "role", Type: "Role"},
		},
	})

	sdl := emitSDL(t, g)
	loadSDL(t, sdl)
	assert.Contains(t, sdl, "  role: Role!\n")
	assert.NotContains(t, sdl, "scalar Role")
}

func TestUnknownTypeDeclaredAsScalar(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Entity{
		Name: "Payment",
		Properties: []diagram.Property{
			{ID: "p-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "p-2", Name: "amount", Type: "Money"},
		},
	}, diagram.Position{})

	sdl := emitSDL(t, g)
	loadSDL(t, sdl)
	assert.Contains(t, sdl, "scalar Money\n")
	assert.Contains(t, sdl, "  amount: Money!\n")
}

func TestParallelEdgesEmitSingleInverseField(t *testing.T) {
	g := testGraph()
	user := g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	post := g.AddNode(&diagram.Entity{
		Name: "Post",
		Properties: []diagram.Property{
			{ID: "p-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	g.AddEdge(&diagram.Relationship{Type: diagram.OneToMany, SourceProperty: "posts"}, user, post)
	g.AddEdge(&diagram.Relationship{Type: diagram.OneToMany, SourceProperty: "pinnedPosts"}, user, post)

	sdl := emitSDL(t, g)
	loadSDL(t, sdl)
	assert.Contains(t, sdl, "  posts: [Post!]!\n")
	assert.Contains(t, sdl, "  pinnedPosts: [Post!]!\n")
	assert.Equal(t, 1, strings.Count(sdl, "  user: User!\n"))
}

func TestImplementedInterfaceFieldsAppearOnType(t *testing.T) {
	g := testGraph()
	iface := g.AddNode(&diagram.Interface{
		Name: "Auditable",
		Properties: []diagram.Property{
			{ID: "i-1", Name: "updatedAt", Type: "Date"},
		},
	}, diagram.Position{})
	user := g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	g.AddEdge(&diagram.Relationship{Type: diagram.Implementation}, user, iface)

	sdl := emitSDL(t, g)
	schema := loadSDL(t, sdl)
	assert.Contains(t, sdl, "type User implements Auditable {")
	require.NotNil(t, schema.Types["User"])
	assert.NotNil(t, schema.Types["User"].Fields.ForName("updatedAt"))
}

func TestNullableFieldHasNoBang(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "u-2", Name: "bio", Type: "string", Nullable: true},
		},
	}, diagram.Position{})

	sdl := emitSDL(t, g)
	loadSDL(t, sdl)
	assert.Contains(t, sdl, "  bio: String\n")
}
