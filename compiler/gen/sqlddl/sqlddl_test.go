package sqlddl_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdkit/compiler/gen"
	"github.com/syssam/erdkit/compiler/gen/sqlddl"
	"github.com/syssam/erdkit/dialect"
	"github.com/syssam/erdkit/diagram"
)

func testGraph() *diagram.Graph {
	n := 0
	return diagram.New(diagram.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
}

// blogGraph builds User and Post entities joined by a OneToMany edge,
// with a unique index on the user's email.
func blogGraph(t *testing.T) *diagram.Graph {
	t.Helper()
	g := testGraph()
	g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "u-2", Name: "name", Type: "string"},
			{ID: "u-3", Name: "email", Type: "string"},
		},
		Indexes: []diagram.Index{
			{ID: "i-1", Properties: []string{"u-3"}, Unique: true},
		},
	}, diagram.Position{})
	user := g.Entities()[0].ID
	post := g.AddNode(&diagram.Entity{
		Name: "Post",
		Properties: []diagram.Property{
			{ID: "p-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "p-2", Name: "title", Type: "string"},
		},
	}, diagram.Position{})
	g.AddEdge(&diagram.Relationship{
		Type:           diagram.OneToMany,
		SourceProperty: "posts",
		DeleteRule:     diagram.DeleteCascade,
	}, user, post)
	return g
}

func TestEmitPostgres(t *testing.T) {
	artifacts, err := gen.Emit(sqlddl.New(dialect.Postgres), blogGraph(t))
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	require.Equal(t, "schema.sql", artifacts[0].Name)

	script := string(artifacts[0].Content)
	assert.Contains(t, script, `CREATE TABLE users (
  id SERIAL PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  email VARCHAR(255) NOT NULL
);`)
	// The many side carries the key back to the one side.
	assert.Contains(t, script, "user_id INTEGER NOT NULL")
	assert.Contains(t, script, "CONSTRAINT posts_user_id_fkey FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE")
	assert.Contains(t, script, "CREATE UNIQUE INDEX users_email_key ON users (email);")
}

func TestStatementsOrder(t *testing.T) {
	stmts := sqlddl.New(dialect.Postgres).Statements(blogGraph(t))
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE TABLE users")
	assert.Contains(t, stmts[1], "CREATE TABLE posts")
	assert.Contains(t, stmts[2], "CREATE UNIQUE INDEX")
}

func TestDialectColumnTypes(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Entity{
		Name: "Flag",
		Properties: []diagram.Property{
			{ID: "f-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "f-2", Name: "enabled", Type: "boolean"},
			{ID: "f-3", Name: "updatedAt", Type: "Date"},
		},
	}, diagram.Position{})

	for _, tt := range []struct {
		dialect dialect.Dialect
		wantID  string
		wantB   string
	}{
		{dialect.Postgres, "id SERIAL PRIMARY KEY", "enabled BOOLEAN NOT NULL"},
		{dialect.MySQL, "id INT AUTO_INCREMENT PRIMARY KEY", "enabled TINYINT(1) NOT NULL"},
		{dialect.SQLite, "id INTEGER PRIMARY KEY AUTOINCREMENT", "enabled INTEGER NOT NULL"},
	} {
		stmts := sqlddl.New(tt.dialect).Statements(g)
		require.Len(t, stmts, 1, tt.dialect)
		assert.Contains(t, stmts[0], tt.wantID, tt.dialect)
		assert.Contains(t, stmts[0], tt.wantB, tt.dialect)
		assert.Contains(t, stmts[0], "updated_at TIMESTAMP NOT NULL", tt.dialect)
	}
}

func TestEnumPropertyFallsBackToString(t *testing.T) {
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

	stmts := sqlddl.New(dialect.Postgres).Statements(g)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "role VARCHAR(255) NOT NULL")
}

func TestUnknownTypePassesThrough(t *testing.T) {
	g := testGraph()
	g.AddNode(&diagram.Entity{
		Name: "Place",
		Properties: []diagram.Property{
			{ID: "p-1", Name: "id", Type: "number", PrimaryKey: true},
			{ID: "p-2", Name: "location", Type: "GEOGRAPHY(point)"},
		},
	}, diagram.Position{})

	stmts := sqlddl.New(dialect.Postgres).Statements(g)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "location GEOGRAPHY(point) NOT NULL")
}

func TestManyToManyJoinTable(t *testing.T) {
	g := testGraph()
	user := g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	group := g.AddNode(&diagram.Entity{
		Name: "Group",
		Properties: []diagram.Property{
			{ID: "g-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	g.AddEdge(&diagram.Relationship{Type: diagram.ManyToMany, DeleteRule: diagram.DeleteCascade}, user, group)

	tables := sqlddl.Lower(g, dialect.Postgres)
	require.Len(t, tables, 3)
	join := tables[2]
	assert.Equal(t, "users_groups", join.Name)
	require.Len(t, join.Columns, 2)
	assert.Equal(t, "user_id", join.Columns[0].Name)
	assert.Equal(t, "group_id", join.Columns[1].Name)
	assert.True(t, join.Columns[0].PrimaryKey)
	assert.True(t, join.Columns[1].PrimaryKey)
	require.Len(t, join.ForeignKeys, 2)
	assert.Equal(t, "CASCADE", join.ForeignKeys[0].OnDelete)
}

func TestSelfReferencingManyToMany(t *testing.T) {
	g := testGraph()
	user := g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	g.AddEdge(&diagram.Relationship{Type: diagram.ManyToMany, SourceProperty: "friends"}, user, user)

	tables := sqlddl.Lower(g, dialect.Postgres)
	require.Len(t, tables, 2)
	join := tables[1]
	assert.Equal(t, "user_id", join.Columns[0].Name)
	assert.Equal(t, "related_user_id", join.Columns[1].Name)
}

func TestManyToOneOwnsKey(t *testing.T) {
	g := testGraph()
	post := g.AddNode(&diagram.Entity{
		Name: "Post",
		Properties: []diagram.Property{
			{ID: "p-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	user := g.AddNode(&diagram.Entity{
		Name: "User",
		Properties: []diagram.Property{
			{ID: "u-1", Name: "id", Type: "number", PrimaryKey: true},
		},
	}, diagram.Position{})
	g.AddEdge(&diagram.Relationship{Type: diagram.ManyToOne, SourceProperty: "author", Nullable: true}, post, user)

	tables := sqlddl.Lower(g, dialect.Postgres)
	posts := tables[0]
	require.Equal(t, "posts", posts.Name)
	col := posts.Column("author_id")
	require.NotNil(t, col)
	assert.True(t, col.Nullable)
	assert.Equal(t, "INTEGER", col.Type)
	require.Len(t, posts.ForeignKeys, 1)
	assert.Equal(t, "users", posts.ForeignKeys[0].RefTable)
}
