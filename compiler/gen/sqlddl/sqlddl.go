// Package sqlddl lowers a diagram snapshot to relational tables and emits
// CREATE TABLE / CREATE INDEX statements for one SQL dialect. Dialect
// differences are confined to the type-mapping table, auto-increment
// syntax and the MySQL engine clause.
package sqlddl

import (
	"fmt"

	"github.com/syssam/erdkit/compiler/gen"
	"github.com/syssam/erdkit/dialect"
	"github.com/syssam/erdkit/dialect/schema"
	"github.com/syssam/erdkit/diagram"
)

// Emitter emits SQL DDL for a single dialect.
type Emitter struct {
	dialect dialect.Dialect
}

// New returns a DDL emitter for the given dialect.
func New(d dialect.Dialect) *Emitter {
	return &Emitter{dialect: d}
}

// Name implements gen.Emitter.
func (e *Emitter) Name() string { return e.dialect.String() }

// Emit produces a single schema.sql artifact containing every table and
// index of the diagram.
func (e *Emitter) Emit(g *diagram.Graph) ([]gen.Artifact, error) {
	tables := Lower(g, e.dialect)
	script := schema.Format(e.dialect, tables)
	return []gen.Artifact{{Name: "schema.sql", Content: []byte(script)}}, nil
}

// Statements lowers the diagram and formats it as individual statements.
func (e *Emitter) Statements(g *diagram.Graph) []string {
	return schema.Statements(e.dialect, Lower(g, e.dialect))
}

// Lower converts every entity of the diagram into a relational table:
// one column per property, one foreign key per structural relationship
// edge whose owning side is the entity, one index per Index entry, and a
// join table per ManyToMany edge. Entity order and property order are
// preserved; join tables come last in edge order.
func Lower(g *diagram.Graph, d dialect.Dialect) []*schema.Table {
	var tables []*schema.Table
	byNode := make(map[string]*schema.Table)

	for _, n := range g.Entities() {
		ent := n.Entity()
		t := &schema.Table{Name: gen.TableName(ent.Name)}
		propColumns := make(map[string]string, len(ent.Properties))
		for i := range ent.Properties {
			p := &ent.Properties[i]
			c := lowerProperty(g, d, p)
			propColumns[p.ID] = c.Name
			t.Columns = append(t.Columns, c)
		}
		for _, idx := range ent.Indexes {
			cols := make([]string, 0, len(idx.Properties))
			for _, pid := range idx.Properties {
				if name, ok := propColumns[pid]; ok {
					cols = append(cols, name)
				}
			}
			if len(cols) == 0 {
				continue
			}
			t.Indexes = append(t.Indexes, &schema.Index{
				Name:    gen.IndexName(t.Name, cols, idx.Unique),
				Unique:  idx.Unique,
				Columns: cols,
			})
		}
		tables = append(tables, t)
		byNode[n.ID] = t
	}

	var joins []*schema.Table
	for _, e := range g.Edges() {
		if e.Kind != diagram.KindRelationship {
			continue
		}
		r := e.Relationship()
		if !r.Type.Structural() {
			continue
		}
		src, tgt := byNode[e.Source], byNode[e.Target]
		if src == nil || tgt == nil {
			continue
		}
		srcNode, tgtNode := g.Node(e.Source), g.Node(e.Target)
		switch r.Type {
		case diagram.ManyToOne:
			addForeignKey(d, src, tgt, tgtNode, gen.ForeignKeyColumn(gen.SourceFieldName(e, tgtNode)), r, false)
		case diagram.OneToOne:
			addForeignKey(d, src, tgt, tgtNode, gen.ForeignKeyColumn(gen.SourceFieldName(e, tgtNode)), r, true)
		case diagram.OneToMany:
			// The many side holds the key: the column lives on the
			// target table and points back at the source.
			addForeignKey(d, tgt, src, srcNode, gen.ForeignKeyColumn(srcNode.Name()), r, false)
		case diagram.ManyToMany:
			joins = append(joins, joinTable(d, e, src, srcNode, tgt, tgtNode))
		}
	}
	return append(tables, joins...)
}

// lowerProperty converts one property to a column. A property whose type
// names an enum falls back to the dialect's string representation; there
// is no native enum column type in the lowered schema.
func lowerProperty(g *diagram.Graph, d dialect.Dialect, p *diagram.Property) *schema.Column {
	irType := p.Type
	if g.EnumByName(irType) != nil {
		irType = dialect.TypeString
	}
	c := &schema.Column{
		Name:          gen.ColumnName(p.Name),
		Type:          dialect.ColumnType(d, irType, p.PrimaryKey),
		Nullable:      p.Nullable,
		Unique:        p.Unique,
		PrimaryKey:    p.PrimaryKey,
		AutoIncrement: p.PrimaryKey && irType == dialect.TypeNumber,
	}
	if p.Default != nil {
		v := *p.Default
		c.Default = &v
	}
	return c
}

// addForeignKey puts a key column on the owning table referencing the
// other table's primary key, creating the column if the diagram does not
// declare it explicitly.
func addForeignKey(d dialect.Dialect, owner, ref *schema.Table, refNode *diagram.Node, column string, r *diagram.Relationship, unique bool) {
	refColumn, refType := referencedKey(d, ref, refNode)
	if owner.Column(column) == nil {
		owner.Columns = append(owner.Columns, &schema.Column{
			Name:     column,
			Type:     refType,
			Nullable: r.Nullable,
			Unique:   unique,
		})
	}
	owner.ForeignKeys = append(owner.ForeignKeys, &schema.ForeignKey{
		Symbol:     fmt.Sprintf("%s_%s_fkey", owner.Name, column),
		Columns:    []string{column},
		RefTable:   ref.Name,
		RefColumns: []string{refColumn},
		OnDelete:   r.DeleteRule.SQL(),
	})
}

// referencedKey resolves the primary-key column of the referenced table
// and the column type a key referencing it should have. Auto-increment
// keys are referenced with the plain integer type.
func referencedKey(d dialect.Dialect, t *schema.Table, n *diagram.Node) (name, typ string) {
	if pk := n.Entity().PrimaryKey(); pk != nil {
		irType := pk.Type
		return gen.ColumnName(pk.Name), dialect.ColumnType(d, irType, false)
	}
	return "id", dialect.ColumnType(d, dialect.TypeNumber, false)
}

// joinTable materializes a ManyToMany edge as a two-key table with a
// composite primary key.
func joinTable(d dialect.Dialect, e *diagram.Edge, src *schema.Table, srcNode *diagram.Node, tgt *schema.Table, tgtNode *diagram.Node) *schema.Table {
	srcCol, srcType := referencedKey(d, src, srcNode)
	tgtCol, tgtType := referencedKey(d, tgt, tgtNode)
	left := gen.ForeignKeyColumn(srcNode.Name())
	right := gen.ForeignKeyColumn(tgtNode.Name())
	if left == right {
		// Self-referencing many-to-many.
		right = "related_" + right
	}
	onDelete := e.Relationship().DeleteRule.SQL()
	return &schema.Table{
		Name: src.Name + "_" + tgt.Name,
		Columns: []*schema.Column{
			{Name: left, Type: srcType, PrimaryKey: true},
			{Name: right, Type: tgtType, PrimaryKey: true},
		},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     fmt.Sprintf("%s_%s_%s_fkey", src.Name, tgt.Name, left),
				Columns:    []string{left},
				RefTable:   src.Name,
				RefColumns: []string{srcCol},
				OnDelete:   onDelete,
			},
			{
				Symbol:     fmt.Sprintf("%s_%s_%s_fkey", src.Name, tgt.Name, right),
				Columns:    []string{right},
				RefTable:   tgt.Name,
				RefColumns: []string{tgtCol},
				OnDelete:   onDelete,
			},
		},
	}
}
