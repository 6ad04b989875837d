// Package dialect names the SQL targets erdkit can emit DDL for and holds
// the per-target type-mapping tables.
package dialect

import "fmt"

// Dialect is a supported SQL DDL target.
type Dialect string

// Supported dialects.
const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// All returns the supported dialects in a stable order.
func All() []Dialect {
	return []Dialect{Postgres, MySQL, SQLite}
}

// Parse returns the dialect named by s.
func Parse(s string) (Dialect, error) {
	switch Dialect(s) {
	case Postgres, MySQL, SQLite:
		return Dialect(s), nil
	}
	return "", fmt.Errorf("dialect: unknown dialect %q", s)
}

// String implements fmt.Stringer.
func (d Dialect) String() string { return string(d) }
