package schema

import (
	"context"
	"database/sql"
	"fmt"
)

// Apply executes DDL statements in order on the given database handle and
// stops at the first failure. Statement text is produced by Statements;
// callers own the transaction boundary if they need one.
func Apply(ctx context.Context, db *sql.DB, statements []string) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: apply statement %d: %w", i+1, err)
		}
	}
	return nil
}
