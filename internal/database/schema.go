package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// ApplySchema creates the tables used by the service if they do not exist
// yet.  It is a bootstrap for fresh databases and local runs, not a
// migration system: existing tables are left untouched.
func ApplySchema(ctx context.Context, db *sql.DB, driver string) error {
	content, err := schemaFS.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for driver %q: %w", driver, err)
	}
	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
