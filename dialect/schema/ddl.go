package schema

import (
	"regexp"
	"strings"

	"github.com/syssam/erdkit/dialect"
)

// Statements formats the tables as dialect-specific DDL, one statement per
// element: first every CREATE TABLE in table order, then every CREATE
// INDEX in table order. The output is a pure function of its input;
// identical tables always yield byte-identical statements.
func Statements(d dialect.Dialect, tables []*Table) []string {
	var stmts []string
	for _, t := range tables {
		stmts = append(stmts, createTable(d, t))
	}
	for _, t := range tables {
		for _, idx := range t.Indexes {
			stmts = append(stmts, createIndex(t, idx))
		}
	}
	return stmts
}

// Format joins Statements into a single script separated by blank lines.
func Format(d dialect.Dialect, tables []*Table) string {
	stmts := Statements(d, tables)
	if len(stmts) == 0 {
		return ""
	}
	return strings.Join(stmts, "\n\n") + "\n"
}

func createTable(d dialect.Dialect, t *Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(t.Name)
	b.WriteString(" (")
	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, columnDef(d, t, c))
	}
	if pk := t.PrimaryKey(); len(pk) > 1 {
		names := make([]string, len(pk))
		for i, c := range pk {
			names[i] = c.Name
		}
		lines = append(lines, "PRIMARY KEY ("+strings.Join(names, ", ")+")")
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, foreignKeyDef(fk))
	}
	for i, line := range lines {
		b.WriteString("\n  ")
		b.WriteString(line)
		if i < len(lines)-1 {
			b.WriteString(",")
		}
	}
	b.WriteString("\n)")
	if d == dialect.MySQL {
		b.WriteString(" ENGINE=InnoDB")
	}
	b.WriteString(";")
	return b.String()
}

func columnDef(d dialect.Dialect, t *Table, c *Column) string {
	parts := []string{c.Name, c.Type}
	// A single-column primary key is declared inline; composite keys get
	// a table-level PRIMARY KEY clause instead.
	single := c.PrimaryKey && len(t.PrimaryKey()) == 1
	switch {
	case single && d == dialect.SQLite && c.AutoIncrement:
		parts = append(parts, "PRIMARY KEY AUTOINCREMENT")
	case single:
		parts = append(parts, "PRIMARY KEY")
	case !c.Nullable:
		parts = append(parts, "NOT NULL")
	}
	if c.Unique && !c.PrimaryKey {
		parts = append(parts, "UNIQUE")
	}
	if c.Default != nil {
		parts = append(parts, "DEFAULT "+defaultLiteral(*c.Default))
	}
	return strings.Join(parts, " ")
}

func foreignKeyDef(fk *ForeignKey) string {
	var b strings.Builder
	if fk.Symbol != "" {
		b.WriteString("CONSTRAINT ")
		b.WriteString(fk.Symbol)
		b.WriteString(" ")
	}
	b.WriteString("FOREIGN KEY (")
	b.WriteString(strings.Join(fk.Columns, ", "))
	b.WriteString(") REFERENCES ")
	b.WriteString(fk.RefTable)
	b.WriteString(" (")
	b.WriteString(strings.Join(fk.RefColumns, ", "))
	b.WriteString(")")
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE ")
		b.WriteString(fk.OnDelete)
	}
	return b.String()
}

func createIndex(t *Table, idx *Index) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(idx.Name)
	b.WriteString(" ON ")
	b.WriteString(t.Name)
	b.WriteString(" (")
	b.WriteString(strings.Join(idx.Columns, ", "))
	b.WriteString(");")
	return b.String()
}

var bareDefault = regexp.MustCompile(`(?i)^(-?\d+(\.\d+)?|true|false|null|current_timestamp(\(\))?|now\(\))$`)

// defaultLiteral quotes a default value unless it is a number, boolean,
// NULL or a timestamp function, which databases accept bare.
func defaultLiteral(v string) string {
	if bareDefault.MatchString(v) {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
