package repositories

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
)

var validColumnName = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// SchemaRepository introspects and extends the issues table. Column names are
// validated before any DDL because they originate from operator-edited
// configuration.
type SchemaRepository struct {
	db    *sqlx.DB
	table string
}

// NewSchemaRepository creates a schema repository for the given table
func NewSchemaRepository(db *sqlx.DB, table string) *SchemaRepository {
	return &SchemaRepository{db: db, table: table}
}

// ListColumns returns the current column names of the table in ordinal order.
func (r *SchemaRepository) ListColumns(ctx context.Context) ([]string, error) {
	const query = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position
	`

	var columns []string
	if err := r.db.SelectContext(ctx, &columns, query, r.table); err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", r.table, err)
	}
	return columns, nil
}

// AddColumn issues an additive ALTER TABLE. Existing columns are never
// modified or dropped. Returns an error for names outside [a-zA-Z0-9_].
func (r *SchemaRepository) AddColumn(ctx context.Context, name, sqlType, comment string) error {
	if name == "" || !validColumnName.MatchString(name) {
		return fmt.Errorf("invalid column name: %q", name)
	}

	alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", r.table, name, sqlType)
	if _, err := r.db.ExecContext(ctx, alter); err != nil {
		return fmt.Errorf("failed to add column %s: %w", name, err)
	}

	if comment != "" {
		// COMMENT ON is a utility statement and cannot take bind parameters.
		escaped := strings.ReplaceAll(comment, "'", "''")
		stmt := fmt.Sprintf("COMMENT ON COLUMN %s.%s IS '%s'", r.table, name, escaped)
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to comment column %s: %w", name, err)
		}
	}
	return nil
}
