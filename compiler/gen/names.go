package gen

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// TableName derives the SQL table name for an entity: snake case,
// pluralized. "User" becomes "users", "OrderItem" becomes "order_items".
func TableName(entity string) string {
	return inflect.Pluralize(inflect.Underscore(strings.TrimSpace(entity)))
}

// ColumnName derives the SQL column name for a property name.
func ColumnName(property string) string {
	return inflect.Underscore(strings.TrimSpace(property))
}

// ForeignKeyColumn derives the foreign-key column name for a relation
// field: the singularized snake-case field name with an "_id" suffix.
func ForeignKeyColumn(field string) string {
	return inflect.Singularize(inflect.Underscore(strings.TrimSpace(field))) + "_id"
}

// FieldName derives a lower-camel member name: "OrderItem" becomes
// "orderItem".
func FieldName(name string) string {
	return inflect.CamelizeDownFirst(inflect.Underscore(strings.TrimSpace(name)))
}

// PluralField derives a lower-camel plural member name for collection
// fields: "Post" becomes "posts".
func PluralField(name string) string {
	return inflect.CamelizeDownFirst(inflect.Pluralize(inflect.Underscore(strings.TrimSpace(name))))
}

// Exported derives an upper-camel identifier from a diagram name:
// "order_item" and "order item" both become "OrderItem". Names that are
// already upper-camel pass through unchanged.
func Exported(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.ContainsAny(name, " -_") {
		name = inflect.Camelize(strings.NewReplacer(" ", "_", "-", "_").Replace(name))
	}
	runes := []rune(name)
	if unicode.IsUpper(runes[0]) {
		return name
	}
	return titleCaser.String(string(runes[0])) + string(runes[1:])
}

// IndexName derives a deterministic index name from its table and columns.
func IndexName(table string, columns []string, unique bool) string {
	suffix := "_idx"
	if unique {
		suffix = "_key"
	}
	return table + "_" + strings.Join(columns, "_") + suffix
}
