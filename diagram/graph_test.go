package diagram_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdkit/diagram"
)

// seqIDs returns a deterministic identifier generator for tests.
func seqIDs() diagram.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newGraph(t *testing.T) *diagram.Graph {
	t.Helper()
	return diagram.New(diagram.WithIDGenerator(seqIDs()), diagram.WithName("test"))
}

func userEntity() *diagram.Entity {
	return &diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "p-id", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "p-name", Name: "name", Type: "string"},
		},
	}
}

func TestAddNode(t *testing.T) {
	g := newGraph(t)
	id := g.AddNode(userEntity(), diagram.Position{X: 10, Y: 20})

	n := g.Node(id)
	require.NotNil(t, n)
	assert.Equal(t, diagram.KindEntity, n.Kind)
	assert.Equal(t, "User", n.Name())
	assert.Equal(t, diagram.Position{X: 10, Y: 20}, n.Position)
	assert.Len(t, g.Entities(), 1)
	assert.Empty(t, g.Enums())
}

func TestAddNodeKinds(t *testing.T) {
	g := newGraph(t)
	g.AddNode(userEntity(), diagram.Position{})
	g.AddNode(&diagram.Embeddable{Name: "Address"}, diagram.Position{})
	g.AddNode(&diagram.Enum{Name: "Role"}, diagram.Position{})
	g.AddNode(&diagram.Interface{Name: "Auditable"}, diagram.Position{})

	assert.Len(t, g.Nodes(), 4)
	assert.Len(t, g.Entities(), 1)
	assert.Len(t, g.Embeddables(), 1)
	assert.Len(t, g.Enums(), 1)
	assert.Len(t, g.Interfaces(), 1)
}

func TestUpdateNode(t *testing.T) {
	g := newGraph(t)
	id := g.AddNode(userEntity(), diagram.Position{})

	ent := userEntity()
	ent.Name = "Account"
	g.UpdateNode(id, ent)

	assert.Equal(t, "Account", g.Node(id).Name())
}

func TestUpdateNodeKindMismatchPanics(t *testing.T) {
	g := newGraph(t)
	id := g.AddNode(userEntity(), diagram.Position{})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		ie, ok := r.(*diagram.InvariantError)
		require.True(t, ok, "panic value is %T", r)
		assert.Equal(t, "UpdateNode", ie.Op)
	}()
	g.UpdateNode(id, &diagram.Enum{Name: "Role"})
}

func TestMoveNode(t *testing.T) {
	g := newGraph(t)
	id := g.AddNode(userEntity(), diagram.Position{})

	g.MoveNode(id, diagram.Position{X: 5, Y: -3})
	assert.Equal(t, diagram.Position{X: 5, Y: -3}, g.Node(id).Position)
}

func TestDeleteNodeCascadesEdges(t *testing.T) {
	g := newGraph(t)
	user := g.AddNode(userEntity(), diagram.Position{})
	post := g.AddNode(&diagram.Entity{
		Name: "Post",
		Properties: []diagram.Property{
			{ID: "post-id", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	edge := g.AddEdge(&diagram.Relationship{Type: diagram.OneToMany, SourceProperty: "posts"}, user, post)

	g.DeleteNode(user)

	assert.Nil(t, g.Node(user))
	assert.Nil(t, g.Edge(edge))
	assert.Empty(t, g.Edges())
	assert.NotNil(t, g.Node(post))
}

func TestAddEdgeUnknownEndpointPanics(t *testing.T) {
	g := newGraph(t)
	user := g.AddNode(userEntity(), diagram.Position{})

	assert.Panics(t, func() {
		g.AddEdge(&diagram.Relationship{Type: diagram.OneToOne}, user, "missing")
	})
}

func TestUpdateEdge(t *testing.T) {
	g := newGraph(t)
	user := g.AddNode(userEntity(), diagram.Position{})
	post := g.AddNode(&diagram.Entity{Name: "Post"}, diagram.Position{})
	edge := g.AddEdge(&diagram.Relationship{Type: diagram.OneToMany}, user, post)

	g.UpdateEdge(edge, &diagram.Relationship{Type: diagram.OneToMany, SourceProperty: "posts", Fetch: diagram.Eager})

	r := g.Edge(edge).Relationship()
	require.NotNil(t, r)
	assert.Equal(t, "posts", r.SourceProperty)
	assert.Equal(t, diagram.Eager, r.Fetch)
}

func TestDeleteEdge(t *testing.T) {
	g := newGraph(t)
	user := g.AddNode(userEntity(), diagram.Position{})
	post := g.AddNode(&diagram.Entity{Name: "Post"}, diagram.Position{})
	edge := g.AddEdge(&diagram.Relationship{Type: diagram.OneToMany}, user, post)

	g.DeleteEdge(edge)
	assert.Nil(t, g.Edge(edge))
	assert.NotNil(t, g.Node(user))
	assert.NotNil(t, g.Node(post))
}

func TestMerge(t *testing.T) {
	g := newGraph(t)
	g.AddNode(userEntity(), diagram.Position{})

	fragment := diagram.New(diagram.WithIDGenerator(seqIDs()))
	a := fragment.AddNode(&diagram.Entity{Name: "Order"}, diagram.Position{X: 1})
	b := fragment.AddNode(&diagram.Entity{Name: "Item"}, diagram.Position{X: 2})
	fragment.AddEdge(&diagram.Relationship{Type: diagram.OneToMany, SourceProperty: "items"}, a, b)

	g.Merge(fragment)

	require.Len(t, g.Nodes(), 3)
	require.Len(t, g.Edges(), 1)
	e := g.Edges()[0]
	assert.Equal(t, "Order", g.Node(e.Source).Name())
	assert.Equal(t, "Item", g.Node(e.Target).Name())
	// Fragment ids are remapped; the merged edge endpoints are new ids.
	assert.NotEqual(t, a, e.Source)
}

func TestCloneIsIndependent(t *testing.T) {
	g := newGraph(t)
	id := g.AddNode(userEntity(), diagram.Position{})

	c := g.Clone()
	c.Node(id).Entity().Name = "Changed"
	c.Node(id).Entity().Properties[0].Name = "changed"

	assert.Equal(t, "User", g.Node(id).Name())
	assert.Equal(t, "id", g.Node(id).Entity().Properties[0].Name)
}

func TestEnumByName(t *testing.T) {
	g := newGraph(t)
	first := g.AddNode(&diagram.Enum{Name: "Role"}, diagram.Position{})
	g.AddNode(&diagram.Enum{Name: "Role"}, diagram.Position{})

	n := g.EnumByName("Role")
	require.NotNil(t, n)
	assert.Equal(t, first, n.ID, "insertion order breaks ties")
	assert.Nil(t, g.EnumByName(""))
	assert.Nil(t, g.EnumByName("Missing"))
}
