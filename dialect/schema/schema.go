// Package schema models the relational form a diagram lowers to before
// DDL text is produced: tables, columns, indexes and foreign keys. The
// DDL emitter lowers into this model, the DDL importer parses back into
// it, and validation and application both operate on it.
package schema

// Column is a single table column.
type Column struct {
	Name string
	// Type is the dialect-specific column type token. Custom diagram
	// types pass through here unchanged.
	Type          string
	Nullable      bool
	Unique        bool
	PrimaryKey    bool
	AutoIncrement bool
	Default       *string
}

// Index is a secondary index over one or more columns.
type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// ForeignKey is a referential constraint from one table to another.
type ForeignKey struct {
	// Symbol is the constraint name; optional.
	Symbol     string
	Columns    []string
	RefTable   string
	RefColumns []string
	// OnDelete is the referential action clause token ("CASCADE",
	// "SET NULL", ...); empty means no ON DELETE clause.
	OnDelete string
}

// Table is a relational table definition. Column, index and foreign-key
// order is emission order.
type Table struct {
	Name        string
	Columns     []*Column
	Indexes     []*Index
	ForeignKeys []*ForeignKey
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// PrimaryKey returns the primary-key columns in definition order.
func (t *Table) PrimaryKey() []*Column {
	var pk []*Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}
