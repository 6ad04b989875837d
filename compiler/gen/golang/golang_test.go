package golang_test

import (
	"fmt"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdkit/compiler/gen"
	"github.com/syssam/erdkit/compiler/gen/golang"
	"github.com/syssam/erdkit/diagram"
)

func testGraph() *diagram.Graph {
	n := 0
	return diagram.New(diagram.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
}

func artifactByName(t *testing.T, artifacts []gen.Artifact, name string) string {
	t.Helper()
	for _, a := range artifacts {
		if a.Name == name {
			return string(a.Content)
		}
	}
	t.Fatalf("artifact %q not emitted", name)
	return ""
}

// requireParses checks that emitted source is syntactically valid Go.
func requireParses(t *testing.T, name, src string) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), name, src, parser.ParseComments)
	require.NoError(t, err, "emitted source does not parse:\n%s", src)
}

func TestEmitStruct(t *testing.T) {
	g := testGraph()
	user := g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "u-2", Name: "email", Type: "string", Unique: true},
			{ID: "u-3", Name: "createdAt", Type: "Date"},
			{ID: "u-4", Name: "bio", Type: "string", Nullable: true},
		},
	}, diagram.Position{})
	post := g.AddNode(&diagram.Entity{
		Name: "Post",
		Properties: []diagram.Property{
			{ID: "p-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	g.AddEdge(&diagram.Relationship{Type: diagram.OneToMany, SourceProperty: "posts"}, user, post)

	artifacts, err := gen.Emit(golang.New(), g)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	src := artifactByName(t, artifacts, "user.go")
	requireParses(t, "user.go", src)
	assert.Contains(t, src, "// Code generated by erdkit. DO NOT EDIT.")
	assert.Contains(t, src, "package model")
	assert.Contains(t, src, "type User struct {")
	assert.Contains(t, src, "Id")
	assert.Contains(t, src, "Email")
	assert.Contains(t, src, "time.Time")
	assert.Contains(t, src, "*string")
	assert.Contains(t, src, "Posts []*Post")

	postSrc := artifactByName(t, artifacts, "post.go")
	requireParses(t, "post.go", postSrc)
	assert.Contains(t, postSrc, "User *User")
}

func TestEmitEnum(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Enum{
		Name: "Role",
		Values: []diagram.EnumValue{
			{Key: "ADMIN", Value: "admin"},
			{Key: "USER", Value: "user"},
		},
	}, diagram.Position{})

	artifacts, err := gen.Emit(golang.New(), g)
	require.NoError(t, err)
	src := artifactByName(t, artifacts, "role.go")
	requireParses(t, "role.go", src)
	assert.Contains(t, src, "type Role string")
	assert.Contains(t, src, `RoleAdmin Role = "admin"`)
	assert.Contains(t, src, `RoleUser Role = "user"`)
}

func TestEnumTypedPropertyUsesNamedType(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Enum{Name: "Role"}, diagram.Position{})
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

	artifacts, err := gen.Emit(golang.New(), g)
	require.NoError(t, err)
	src := artifactByName(t, artifacts, "user.go")
	requireParses(t, "user.go", src)
	assert.Contains(t, src, "Role Role")
}

func TestEmitInterface(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Interface{
		Name: "Auditable",
		Properties: []diagram.Property{
			{ID: "i-1", Name: "createdAt", Type: "Date"},
		},
	}, diagram.Position{})

	artifacts, err := gen.Emit(golang.New(), g)
	require.NoError(t, err)
	src := artifactByName(t, artifacts, "auditable.go")
	requireParses(t, "auditable.go", src)
	assert.Contains(t, src, "type Auditable interface {")
	assert.Contains(t, src, "CreatedAt() time.Time")
}

func TestCustomPackageName(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})

	e := golang.New()
	e.Package = "entities"
	artifacts, err := gen.Emit(e, g)
	require.NoError(t, err)
	assert.Contains(t, artifactByName(t, artifacts, "user.go"), "package entities")
}

func TestInheritanceEmbedsParent(t *testing.T) {
	g := testGraph()
	base := g.AddNode(&diagram.Entity{
		Name: "Person",
		Properties: []diagram.Property{
			{ID: "b-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	emp := g.AddNode(&diagram.Entity{
		Name: "Employee",
		Properties: []diagram.Property{
			{ID: "e-1", Name: "salary", Type: "number"},
		},
	}, diagram.Position{})
	g.AddEdge(&diagram.Relationship{Type: diagram.Inheritance}, emp, base)

	artifacts, err := gen.Emit(golang.New(), g)
	require.NoError(t, err)
	src := artifactByName(t, artifacts, "employee.go")
	requireParses(t, "employee.go", src)
	assert.Contains(t, src, "type Employee struct {\n\tPerson\n")
}
