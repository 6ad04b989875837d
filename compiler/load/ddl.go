// Package load imports external text into the diagram representation.
// The DDL importer parses CREATE TABLE scripts statement by statement,
// skipping malformed statements with a diagnostic instead of aborting;
// the JSON importer is strict and rejects the whole document on any
// structural violation.
package load

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/go-openapi/inflect"

	"github.com/syssam/erdkit/compiler/gen"
	"github.com/syssam/erdkit/dialect"
	"github.com/syssam/erdkit/dialect/schema"
	"github.com/syssam/erdkit/diagram"
)

// Diagnostic records one skipped DDL statement.
type Diagnostic struct {
	// Line is the 1-based line the statement starts on.
	Line int
	// Message describes why the statement was skipped.
	Message string
}

// String implements fmt.Stringer.
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// DDLResult is the outcome of a DDL import: the fragment that parsed,
// the lowered tables it was built from, and the statements that did not
// parse. A script full of malformed statements still yields a result,
// just an empty graph with one diagnostic per statement.
type DDLResult struct {
	Graph       *diagram.Graph
	Tables      []*schema.Table
	Diagnostics []Diagnostic
}

// ddlLexer tokenizes SQL DDL. Keywords are matched case-insensitively
// against Ident tokens by the parser.
var ddlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LineComment", Pattern: `--[^\n]*`},
	{Name: "BlockComment", Pattern: `/\*([^*]|\*[^/])*\*/`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: "`[^`]*`|\"[^\"]*\""},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},
	{Name: "Punct", Pattern: `[(),;=.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var ddlParser = participle.MustBuild[ddlStatement](
	participle.Lexer(ddlLexer),
	participle.Elide("Whitespace", "LineComment", "BlockComment"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)

// sqlIdent is an identifier that strips backtick or double-quote wrapping
// when captured.
type sqlIdent string

// Capture implements participle's Capture interface.
func (i *sqlIdent) Capture(values []string) error {
	s := values[0]
	if len(s) >= 2 && (s[0] == '`' || s[0] == '"') {
		s = s[1 : len(s)-1]
	}
	*i = sqlIdent(s)
	return nil
}

type ddlStatement struct {
	CreateTable *createTableStmt `parser:"  @@"`
	CreateIndex *createIndexStmt `parser:"| @@"`
	AlterTable  *alterTableStmt  `parser:"| @@"`
}

type createTableStmt struct {
	IfNotExists bool          `parser:"'CREATE' 'TABLE' @('IF' 'NOT' 'EXISTS')?"`
	Name        sqlIdent      `parser:"(@Ident | @QuotedIdent)"`
	Items       []tableItem   `parser:"'(' @@ (',' @@)* ')'"`
	Options     []tableOption `parser:"@@* ';'?"`
}

type tableOption struct {
	Name  string  `parser:"@Ident"`
	Value *string `parser:"('=' (@Ident | @Number | @String))?"`
}

type tableItem struct {
	Constraint *tableConstraint `parser:"  @@"`
	Column     *columnDef       `parser:"| @@"`
}

type tableConstraint struct {
	Name       *sqlIdent   `parser:"('CONSTRAINT' (@Ident | @QuotedIdent))?"`
	PrimaryKey *columnList `parser:"( 'PRIMARY' 'KEY' @@"`
	Unique     *columnList `parser:"| 'UNIQUE' @@"`
	ForeignKey *fkSpec     `parser:"| @@ )"`
}

type fkSpec struct {
	Columns  columnList `parser:"'FOREIGN' 'KEY' @@"`
	RefTable sqlIdent   `parser:"'REFERENCES' (@Ident | @QuotedIdent)"`
	RefCols  columnList `parser:"@@"`
	OnDelete *refAction `parser:"('ON' 'DELETE' @@)?"`
	OnUpdate *refAction `parser:"('ON' 'UPDATE' @@)?"`
}

type refAction struct {
	Cascade    bool `parser:"  @'CASCADE'"`
	SetNull    bool `parser:"| 'SET' @'NULL'"`
	SetDefault bool `parser:"| 'SET' @'DEFAULT'"`
	Restrict   bool `parser:"| @'RESTRICT'"`
	NoAction   bool `parser:"| 'NO' @'ACTION'"`
}

// Rule maps the parsed action back to the diagram delete rule.
func (a *refAction) Rule() diagram.DeleteRule {
	switch {
	case a == nil:
		return ""
	case a.Cascade:
		return diagram.DeleteCascade
	case a.SetNull:
		return diagram.DeleteSetNull
	case a.SetDefault:
		return diagram.DeleteSetDefault
	case a.Restrict:
		return diagram.DeleteRestrict
	case a.NoAction:
		return diagram.DeleteNoAction
	}
	return ""
}

// SQL returns the ON DELETE clause token of the parsed action.
func (a *refAction) SQL() string {
	return a.Rule().SQL()
}

type columnList struct {
	Columns []sqlIdent `parser:"'(' (@Ident | @QuotedIdent) (',' (@Ident | @QuotedIdent))* ')'"`
}

func (l columnList) names() []string {
	out := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		out[i] = string(c)
	}
	return out
}

type columnDef struct {
	Name        sqlIdent        `parser:"(@Ident | @QuotedIdent)"`
	Type        columnType      `parser:"@@"`
	Constraints []colConstraint `parser:"@@*"`
}

type columnType struct {
	Name string   `parser:"@Ident"`
	Args []string `parser:"('(' (@Number | @Ident) (',' (@Number | @Ident))* ')')?"`
}

// Token reconstructs the column type token, e.g. "VARCHAR(255)".
func (t columnType) Token() string {
	if len(t.Args) == 0 {
		return strings.ToUpper(t.Name)
	}
	return strings.ToUpper(t.Name) + "(" + strings.Join(t.Args, ",") + ")"
}

type colConstraint struct {
	PrimaryKey    bool          `parser:"  @('PRIMARY' 'KEY')"`
	AutoIncrement bool          `parser:"| @('AUTO_INCREMENT' | 'AUTOINCREMENT')"`
	NotNull       bool          `parser:"| @('NOT' 'NULL')"`
	Null          bool          `parser:"| @'NULL'"`
	Unique        bool          `parser:"| @'UNIQUE'"`
	Default       *defaultValue `parser:"| 'DEFAULT' @@"`
	References    *refSpec      `parser:"| @@"`
}

type defaultValue struct {
	String *string `parser:"  @String"`
	Number *string `parser:"| @Number"`
	Expr   *string `parser:"| @Ident ('(' ')')?"`
}

// Value returns the default as plain text, unquoting string literals.
func (v *defaultValue) Value() string {
	switch {
	case v.String != nil:
		s := *v.String
		s = s[1 : len(s)-1]
		return strings.ReplaceAll(s, "''", "'")
	case v.Number != nil:
		return *v.Number
	case v.Expr != nil:
		return *v.Expr
	}
	return ""
}

type refSpec struct {
	Table    sqlIdent   `parser:"'REFERENCES' (@Ident | @QuotedIdent)"`
	Columns  *columnList `parser:"@@?"`
	OnDelete *refAction `parser:"('ON' 'DELETE' @@)?"`
	OnUpdate *refAction `parser:"('ON' 'UPDATE' @@)?"`
}

type createIndexStmt struct {
	Unique  bool       `parser:"'CREATE' @'UNIQUE'? 'INDEX'"`
	Name    sqlIdent   `parser:"(@Ident | @QuotedIdent)"`
	Table   sqlIdent   `parser:"'ON' (@Ident | @QuotedIdent)"`
	Columns columnList `parser:"@@ ';'?"`
}

type alterTableStmt struct {
	Table          sqlIdent  `parser:"'ALTER' 'TABLE' (@Ident | @QuotedIdent) 'ADD'"`
	ConstraintName *sqlIdent `parser:"('CONSTRAINT' (@Ident | @QuotedIdent))?"`
	ForeignKey     fkSpec    `parser:"@@ ';'?"`
}

// DDL parses one or more CREATE TABLE statements (optionally followed by
// CREATE INDEX and ALTER TABLE ... ADD FOREIGN KEY) into a diagram
// fragment. Malformed statements are skipped and recorded as diagnostics;
// the import never aborts because of one bad statement. Column type
// tokens are mapped back to diagram types where the dialect table is
// unambiguous and pass through as custom types otherwise.
func DDL(src string, opts ...diagram.Option) *DDLResult {
	res := &DDLResult{Graph: diagram.New(opts...)}
	tableLines := make(map[string]int)

	var indexes []*createIndexStmt
	var alters []*alterTableStmt
	for _, stmt := range splitStatements(src) {
		parsed, err := ddlParser.ParseString("", stmt.text)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Line:    stmt.line,
				Message: statementError(err),
			})
			continue
		}
		switch {
		case parsed.CreateTable != nil:
			t := lowerCreateTable(parsed.CreateTable)
			res.Tables = append(res.Tables, t)
			tableLines[t.Name] = stmt.line
		case parsed.CreateIndex != nil:
			indexes = append(indexes, parsed.CreateIndex)
		case parsed.AlterTable != nil:
			alters = append(alters, parsed.AlterTable)
		}
	}

	byName := make(map[string]*schema.Table, len(res.Tables))
	for _, t := range res.Tables {
		byName[t.Name] = t
	}
	for _, alter := range alters {
		t, ok := byName[string(alter.Table)]
		if !ok {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Message: fmt.Sprintf("ALTER TABLE %s: unknown table", alter.Table),
			})
			continue
		}
		fk := &schema.ForeignKey{
			Columns:    alter.ForeignKey.Columns.names(),
			RefTable:   string(alter.ForeignKey.RefTable),
			RefColumns: alter.ForeignKey.RefCols.names(),
			OnDelete:   alter.ForeignKey.OnDelete.SQL(),
		}
		if alter.ConstraintName != nil {
			fk.Symbol = string(*alter.ConstraintName)
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}
	for _, idx := range indexes {
		t, ok := byName[string(idx.Table)]
		if !ok {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Message: fmt.Sprintf("CREATE INDEX %s: unknown table %s", idx.Name, idx.Table),
			})
			continue
		}
		t.Indexes = append(t.Indexes, &schema.Index{
			Name:    string(idx.Name),
			Unique:  idx.Unique,
			Columns: idx.Columns.names(),
		})
	}

	buildGraph(res, tableLines)
	return res
}

func lowerCreateTable(ct *createTableStmt) *schema.Table {
	t := &schema.Table{Name: string(ct.Name)}
	for _, item := range ct.Items {
		switch {
		case item.Column != nil:
			t.Columns = append(t.Columns, lowerColumn(t, item.Column))
		case item.Constraint != nil:
			lowerConstraint(t, item.Constraint)
		}
	}
	return t
}

func lowerColumn(t *schema.Table, def *columnDef) *schema.Column {
	c := &schema.Column{
		Name:     string(def.Name),
		Type:     def.Type.Token(),
		Nullable: true,
	}
	for _, cons := range def.Constraints {
		switch {
		case cons.PrimaryKey:
			c.PrimaryKey = true
			c.Nullable = false
		case cons.AutoIncrement:
			c.AutoIncrement = true
		case cons.NotNull:
			c.Nullable = false
		case cons.Null:
			c.Nullable = true
		case cons.Unique:
			c.Unique = true
		case cons.Default != nil:
			v := cons.Default.Value()
			c.Default = &v
		case cons.References != nil:
			fk := &schema.ForeignKey{
				Columns:  []string{c.Name},
				RefTable: string(cons.References.Table),
				OnDelete: cons.References.OnDelete.SQL(),
			}
			if cons.References.Columns != nil {
				fk.RefColumns = cons.References.Columns.names()
			}
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
	}
	// SERIAL implies an auto-incrementing key column.
	if strings.HasPrefix(strings.ToUpper(c.Type), "SERIAL") || strings.HasPrefix(strings.ToUpper(c.Type), "BIGSERIAL") {
		c.AutoIncrement = true
		c.Nullable = false
	}
	return c
}

func lowerConstraint(t *schema.Table, cons *tableConstraint) {
	switch {
	case cons.PrimaryKey != nil:
		for _, name := range cons.PrimaryKey.names() {
			if c := t.Column(name); c != nil {
				c.PrimaryKey = true
				c.Nullable = false
			}
		}
	case cons.Unique != nil:
		names := cons.Unique.names()
		if len(names) == 1 {
			if c := t.Column(names[0]); c != nil {
				c.Unique = true
				return
			}
		}
		idx := &schema.Index{Unique: true, Columns: names}
		if cons.Name != nil {
			idx.Name = string(*cons.Name)
		}
		t.Indexes = append(t.Indexes, idx)
	case cons.ForeignKey != nil:
		fk := &schema.ForeignKey{
			Columns:    cons.ForeignKey.Columns.names(),
			RefTable:   string(cons.ForeignKey.RefTable),
			RefColumns: cons.ForeignKey.RefCols.names(),
			OnDelete:   cons.ForeignKey.OnDelete.SQL(),
		}
		if cons.Name != nil {
			fk.Symbol = string(*cons.Name)
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}
}

// buildGraph converts the lowered tables into diagram entities and
// relationship edges through the mutation API, so the structural
// invariants re-run on the imported fragment.
func buildGraph(res *DDLResult, tableLines map[string]int) {
	g := res.Graph

	// Two-key tables whose columns are all foreign keys import as a
	// ManyToMany edge instead of an entity.
	joins := make(map[string]*schema.Table)
	for _, t := range res.Tables {
		if isJoinTable(t) {
			joins[t.Name] = t
		}
	}

	entityIDs := make(map[string]string, len(res.Tables))
	i := 0
	for _, t := range res.Tables {
		if joins[t.Name] != nil {
			continue
		}
		fkCols := make(map[string]bool)
		for _, fk := range t.ForeignKeys {
			for _, c := range fk.Columns {
				fkCols[c] = true
			}
		}
		ent := &diagram.Entity{Name: entityName(t.Name)}
		props := make(map[string]string)
		for _, c := range t.Columns {
			if fkCols[c.Name] && !c.PrimaryKey {
				// Key columns surface as relationship edges, not
				// plain properties.
				continue
			}
			p := diagram.Property{
				ID:         g.NewID(),
				Name:       gen.FieldName(c.Name),
				Type:       columnIRType(c),
				PrimaryKey: c.PrimaryKey,
				Unique:     c.Unique,
				Nullable:   c.Nullable,
			}
			if c.Default != nil {
				v := *c.Default
				p.Default = &v
			}
			ent.Properties = append(ent.Properties, p)
			props[c.Name] = p.ID
		}
		for _, idx := range t.Indexes {
			di := diagram.Index{ID: g.NewID(), Unique: idx.Unique}
			for _, col := range idx.Columns {
				if pid, ok := props[col]; ok {
					di.Properties = append(di.Properties, pid)
				}
			}
			if len(di.Properties) > 0 {
				ent.Indexes = append(ent.Indexes, di)
			}
		}
		// Imported entities are laid out on a simple grid.
		pos := diagram.Position{X: float64(i%4) * 300, Y: float64(i/4) * 220}
		entityIDs[t.Name] = g.AddNode(ent, pos)
		i++
	}

	for _, t := range res.Tables {
		if joins[t.Name] != nil {
			continue
		}
		for _, fk := range t.ForeignKeys {
			source, ok := entityIDs[t.Name]
			if !ok {
				continue
			}
			target, ok := entityIDs[fk.RefTable]
			if !ok {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Line:    tableLines[t.Name],
					Message: fmt.Sprintf("table %s: foreign key references unknown table %s", t.Name, fk.RefTable),
				})
				continue
			}
			nullable := true
			if len(fk.Columns) == 1 {
				if c := t.Column(fk.Columns[0]); c != nil {
					nullable = c.Nullable
				}
			}
			g.AddEdge(&diagram.Relationship{
				Type:           diagram.ManyToOne,
				SourceProperty: relationField(fk),
				Nullable:       nullable,
				Fetch:          diagram.Lazy,
				DeleteRule:     diagram.DeleteRule(deleteRuleFromSQL(fk.OnDelete)),
			}, source, target)
		}
	}

	for _, t := range res.Tables {
		jt := joins[t.Name]
		if jt == nil {
			continue
		}
		left, lok := entityIDs[jt.ForeignKeys[0].RefTable]
		right, rok := entityIDs[jt.ForeignKeys[1].RefTable]
		if !lok || !rok {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Line:    tableLines[t.Name],
				Message: fmt.Sprintf("join table %s references an unknown table", t.Name),
			})
			continue
		}
		g.AddEdge(&diagram.Relationship{
			Type:           diagram.ManyToMany,
			SourceProperty: gen.PluralField(g.Node(right).Name()),
			Fetch:          diagram.Lazy,
			DeleteRule:     diagram.DeleteRule(deleteRuleFromSQL(jt.ForeignKeys[0].OnDelete)),
		}, left, right)
	}
}

// isJoinTable reports whether the table looks like a ManyToMany join
// table: exactly two columns, both primary-key members, covered by two
// single-column foreign keys.
func isJoinTable(t *schema.Table) bool {
	if len(t.Columns) != 2 || len(t.ForeignKeys) != 2 {
		return false
	}
	for _, c := range t.Columns {
		if !c.PrimaryKey {
			return false
		}
	}
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) != 1 {
			return false
		}
	}
	return true
}

// entityName derives an entity name from a table name: "order_items"
// becomes "OrderItem".
func entityName(table string) string {
	return gen.Exported(inflect.Singularize(table))
}

// relationField derives the relation field name from a foreign-key
// column: "author_id" becomes "author".
func relationField(fk *schema.ForeignKey) string {
	if len(fk.Columns) == 0 {
		return gen.FieldName(inflect.Singularize(fk.RefTable))
	}
	col := strings.TrimSuffix(fk.Columns[0], "_id")
	return gen.FieldName(col)
}

// columnIRType maps a parsed column back to a diagram type name. Serial
// and auto-increment keys are numbers regardless of token spelling.
func columnIRType(c *schema.Column) string {
	if c.AutoIncrement {
		return dialect.TypeNumber
	}
	return dialect.IRType(c.Type)
}

func deleteRuleFromSQL(clause string) string {
	switch strings.ToUpper(clause) {
	case "CASCADE":
		return string(diagram.DeleteCascade)
	case "SET NULL":
		return string(diagram.DeleteSetNull)
	case "SET DEFAULT":
		return string(diagram.DeleteSetDefault)
	case "RESTRICT":
		return string(diagram.DeleteRestrict)
	case "NO ACTION":
		return string(diagram.DeleteNoAction)
	}
	return ""
}

// statement is one semicolon-terminated chunk of the input script.
type statement struct {
	text string
	line int
}

// splitStatements cuts the script at top-level semicolons, tracking line
// numbers and skipping string literals, quoted identifiers and comments.
func splitStatements(src string) []statement {
	var out []statement
	var b strings.Builder
	line := 1
	start := 1
	flush := func() {
		text := strings.TrimSpace(b.String())
		b.Reset()
		if text != "" {
			out = append(out, statement{text: text, line: start})
		}
		start = line
	}
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch ch {
		case '\n':
			line++
			if strings.TrimSpace(b.String()) == "" {
				start = line
			}
			b.WriteByte(ch)
		case ';':
			b.WriteByte(ch)
			flush()
		case '\'', '"', '`':
			quote := ch
			b.WriteByte(ch)
			for i++; i < len(src); i++ {
				b.WriteByte(src[i])
				if src[i] == '\n' {
					line++
				}
				if src[i] == quote {
					break
				}
			}
		case '-':
			if i+1 < len(src) && src[i+1] == '-' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
				i--
				continue
			}
			b.WriteByte(ch)
		case '/':
			if i+1 < len(src) && src[i+1] == '*' {
				i += 2
				for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
					if src[i] == '\n' {
						line++
					}
					i++
				}
				i++
				continue
			}
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	flush()
	return out
}

// statementError extracts a readable message from a parse failure,
// dropping the parser's per-statement position in favor of the
// statement's own line number.
func statementError(err error) string {
	var perr participle.Error
	if errors.As(err, &perr) {
		return perr.Message()
	}
	return err.Error()
}
