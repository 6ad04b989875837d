package dialect

import "strings"

// Recognized intermediate type names. Property types outside this set are
// user-defined and pass through every mapping unchanged.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeDate    = "Date"
)

// columnTypes maps recognized intermediate types to column types per
// dialect. Unrecognized names pass through as custom types; emitters must
// never fail on an arbitrary type string.
var columnTypes = map[Dialect]map[string]string{
	Postgres: {
		TypeString:  "VARCHAR(255)",
		TypeNumber:  "INTEGER",
		TypeBoolean: "BOOLEAN",
		TypeDate:    "TIMESTAMP",
	},
	MySQL: {
		TypeString:  "VARCHAR(255)",
		TypeNumber:  "INT",
		TypeBoolean: "TINYINT(1)",
		TypeDate:    "TIMESTAMP",
	},
	SQLite: {
		TypeString:  "TEXT",
		TypeNumber:  "INTEGER",
		TypeBoolean: "INTEGER",
		TypeDate:    "TIMESTAMP",
	},
}

// serialTypes is the column type of an auto-incrementing numeric primary
// key per dialect. The PRIMARY KEY clause itself is appended by the
// formatter.
var serialTypes = map[Dialect]string{
	Postgres: "SERIAL",
	MySQL:    "INT AUTO_INCREMENT",
	SQLite:   "INTEGER",
}

// ColumnType returns the column type for the given intermediate type name.
// A numeric primary key maps to the dialect's auto-increment form.
// Unrecognized names are returned unchanged.
func ColumnType(d Dialect, irType string, primaryKey bool) string {
	if primaryKey && irType == TypeNumber {
		return serialTypes[d]
	}
	if t, ok := columnTypes[d][irType]; ok {
		return t
	}
	return irType
}

// irTypes maps column type tokens back to intermediate type names. Keys
// are upper-case with argument lists stripped. Tokens absent from the
// table pass through as custom types, mirroring ColumnType.
var irTypes = map[string]string{
	"VARCHAR":   TypeString,
	"CHAR":      TypeString,
	"TEXT":      TypeString,
	"SERIAL":    TypeNumber,
	"BIGSERIAL": TypeNumber,
	"INT":       TypeNumber,
	"INTEGER":   TypeNumber,
	"BIGINT":    TypeNumber,
	"SMALLINT":  TypeNumber,
	"BOOLEAN":   TypeBoolean,
	"BOOL":      TypeBoolean,
	"TINYINT":   TypeBoolean,
	"TIMESTAMP": TypeDate,
	"DATETIME":  TypeDate,
	"DATE":      TypeDate,
}

// IRType maps a column type token (e.g. "VARCHAR(255)") back to an
// intermediate type name. Unmapped tokens are returned unchanged so
// user-defined column types survive a round trip.
func IRType(token string) string {
	base := token
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	base = strings.ToUpper(strings.TrimSpace(base))
	if t, ok := irTypes[base]; ok {
		return t
	}
	return token
}

// tsTypes maps recognized intermediate types to TypeScript types.
var tsTypes = map[string]string{
	TypeString:  "string",
	TypeNumber:  "number",
	TypeBoolean: "boolean",
	TypeDate:    "Date",
}

// TSType returns the TypeScript type for an intermediate type name.
// Unrecognized names pass through unchanged (user-defined classes, enums).
func TSType(irType string) string {
	if t, ok := tsTypes[irType]; ok {
		return t
	}
	return irType
}

// goTypes maps recognized intermediate types to Go types.
var goTypes = map[string]string{
	TypeString:  "string",
	TypeNumber:  "int",
	TypeBoolean: "bool",
	TypeDate:    "time.Time",
}

// GoType returns the Go type for an intermediate type name, or the name
// itself for user-defined types.
func GoType(irType string) string {
	if t, ok := goTypes[irType]; ok {
		return t
	}
	return irType
}

// graphqlTypes maps recognized intermediate types to GraphQL scalars.
var graphqlTypes = map[string]string{
	TypeString:  "String",
	TypeNumber:  "Int",
	TypeBoolean: "Boolean",
	TypeDate:    "Time",
}

// GraphQLType returns the GraphQL type for an intermediate type name, or
// the name itself for user-defined types.
func GraphQLType(irType string) string {
	if t, ok := graphqlTypes[irType]; ok {
		return t
	}
	return irType
}
