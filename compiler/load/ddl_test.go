package load_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdkit/compiler/load"
	"github.com/syssam/erdkit/diagram"
)

func seq() diagram.Option {
	n := 0
	return diagram.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func entityByName(g *diagram.Graph, name string) *diagram.Node {
	for _, n := range g.Entities() {
		if n.Name() == name {
			return n
		}
	}
	return nil
}

const blogDDL = `CREATE TABLE users (
  id SERIAL PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  email VARCHAR(255) NOT NULL UNIQUE,
  active BOOLEAN DEFAULT true
);

CREATE TABLE posts (
  id SERIAL PRIMARY KEY,
  title VARCHAR(255) NOT NULL,
  author_id INTEGER NOT NULL,
  CONSTRAINT posts_author_id_fkey FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE
);

CREATE INDEX posts_title_idx ON posts (title);
`

func TestDDLImportsEntities(t *testing.T) {
	res := load.DDL(blogDDL, seq())
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Tables, 2)
	require.Len(t, res.Graph.Entities(), 2)

	user := entityByName(res.Graph, "User")
	require.NotNil(t, user)
	ent := user.Entity()
	require.Len(t, ent.Properties, 4)

	id := ent.Properties[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "number", id.Type)
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable)

	name := ent.Properties[1]
	assert.Equal(t, "name", name.Name)
	assert.Equal(t, "string", name.Type)
	assert.False(t, name.Nullable)

	email := ent.Properties[2]
	assert.True(t, email.Unique)

	active := ent.Properties[3]
	assert.True(t, active.Nullable)
	require.NotNil(t, active.Default)
	assert.Equal(t, "true", *active.Default)
}

func TestDDLImportsForeignKeyAsRelation(t *testing.T) {
	res := load.DDL(blogDDL, seq())
	g := res.Graph

	post := entityByName(g, "Post")
	require.NotNil(t, post)
	// The key column surfaces as a relationship edge, not a property.
	for _, p := range post.Entity().Properties {
		assert.NotEqual(t, "authorId", p.Name)
	}

	edges := g.EdgesFrom(post.ID)
	require.Len(t, edges, 1)
	r := edges[0].Relationship()
	require.NotNil(t, r)
	assert.Equal(t, diagram.ManyToOne, r.Type)
	assert.Equal(t, "author", r.SourceProperty)
	assert.False(t, r.Nullable)
	assert.Equal(t, diagram.DeleteCascade, r.DeleteRule)
	assert.Equal(t, "User", g.Node(edges[0].Target).Name())
}

func TestDDLImportsIndex(t *testing.T) {
	res := load.DDL(blogDDL, seq())
	post := entityByName(res.Graph, "Post")
	require.NotNil(t, post)
	require.Len(t, post.Entity().Indexes, 1)
	idx := post.Entity().Indexes[0]
	assert.False(t, idx.Unique)
	require.Len(t, idx.Properties, 1)
	p := post.Entity().Property(idx.Properties[0])
	require.NotNil(t, p)
	assert.Equal(t, "title", p.Name)
}

func TestDDLJoinTableBecomesManyToMany(t *testing.T) {
	src := `CREATE TABLE users (id SERIAL PRIMARY KEY);
CREATE TABLE groups (id SERIAL PRIMARY KEY);
CREATE TABLE groups_users (
  group_id INTEGER,
  user_id INTEGER,
  PRIMARY KEY (group_id, user_id),
  FOREIGN KEY (group_id) REFERENCES groups (id) ON DELETE CASCADE,
  FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
);`
	res := load.DDL(src, seq())
	require.Empty(t, res.Diagnostics)
	g := res.Graph
	// The join table imports as an edge, not an entity.
	require.Len(t, g.Entities(), 2)
	require.Len(t, g.Edges(), 1)
	e := g.Edges()[0]
	r := e.Relationship()
	require.NotNil(t, r)
	assert.Equal(t, diagram.ManyToMany, r.Type)
	assert.Equal(t, "Group", g.Node(e.Source).Name())
	assert.Equal(t, "User", g.Node(e.Target).Name())
	assert.Equal(t, "users", r.SourceProperty)
}

func TestDDLSkipsMalformedStatements(t *testing.T) {
	src := `CREATE TABLE users (id SERIAL PRIMARY KEY);

THIS IS NOT SQL AT ALL;

CREATE TABLE posts (id SERIAL PRIMARY KEY);`
	res := load.DDL(src, seq())

	// The malformed statement is reported; the others still import.
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, 3, res.Diagnostics[0].Line)
	assert.NotEmpty(t, res.Diagnostics[0].Message)
	assert.Len(t, res.Graph.Entities(), 2)
}

func TestDDLEmptyAndCommentOnlyInput(t *testing.T) {
	res := load.DDL("-- nothing here\n\n/* still nothing */\n", seq())
	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, res.Tables)
	assert.Empty(t, res.Graph.Nodes())
}

func TestDDLUnknownReferenceDiagnostic(t *testing.T) {
	src := `CREATE TABLE posts (
  id SERIAL PRIMARY KEY,
  author_id INTEGER REFERENCES users (id)
);`
	res := load.DDL(src, seq())
	require.Len(t, res.Graph.Entities(), 1)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "unknown table")
}

func TestDDLAlterTableForeignKey(t *testing.T) {
	src := `CREATE TABLE users (id SERIAL PRIMARY KEY);
CREATE TABLE posts (
  id SERIAL PRIMARY KEY,
  author_id INTEGER NOT NULL
);
ALTER TABLE posts ADD CONSTRAINT posts_author_id_fkey FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE SET NULL;`
	res := load.DDL(src, seq())
	require.Empty(t, res.Diagnostics)
	g := res.Graph

	post := entityByName(g, "Post")
	require.NotNil(t, post)
	edges := g.EdgesFrom(post.ID)
	require.Len(t, edges, 1)
	r := edges[0].Relationship()
	assert.Equal(t, diagram.ManyToOne, r.Type)
	assert.Equal(t, diagram.DeleteSetNull, r.DeleteRule)
}

func TestDDLQuotedIdentifiersAndBacktick(t *testing.T) {
	src := "CREATE TABLE `order_items` (\n  `id` INT AUTO_INCREMENT PRIMARY KEY,\n  `unit_price` INT NOT NULL\n) ENGINE=InnoDB;"
	res := load.DDL(src, seq())
	require.Empty(t, res.Diagnostics)
	item := entityByName(res.Graph, "OrderItem")
	require.NotNil(t, item)
	require.Len(t, item.Entity().Properties, 2)
	assert.Equal(t, "unitPrice", item.Entity().Properties[1].Name)
}

func TestDDLRoundTrip(t *testing.T) {
	res := load.DDL(blogDDL, seq())
	require.Empty(t, res.Diagnostics)

	data, err := diagram.EncodeJSON(res.Graph)
	require.NoError(t, err)
	decoded, err := diagram.DecodeJSON(data)
	require.NoError(t, err)
	assert.Len(t, decoded.Entities(), 2)
	assert.Len(t, decoded.Edges(), 1)
}
