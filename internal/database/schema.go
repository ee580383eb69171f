package database

import (
	"context"
	"fmt"
	"strings"

	"folio/internal/database/migrations"
)

// Schema returns the CREATE statements of the migrated SQLite schema,
// tables first, then indexes. The migration bookkeeping table is omitted.
func (s *Store) Schema(ctx context.Context) (string, error) {
	if s.dialect != migrations.SQLite {
		return "", fmt.Errorf("schema dump is only supported for sqlite")
	}

	const query = `
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type
		    WHEN 'table' THEN 1
		    WHEN 'index' THEN 2
		  END,
		  name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("querying schema: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scanning schema: %w", err)
		}
		b.WriteString(stmt)
		b.WriteString("\n\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("reading schema: %w", err)
	}
	return b.String(), nil
}
