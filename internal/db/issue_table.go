package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"jirapulse/internal/constants"
)

// EnsureIssueTable creates the issues table with its fixed system columns.
// Mapped ndpu_ columns are added later by the schema synchronizer.
func EnsureIssueTable(db *sqlx.DB) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			issue_key     VARCHAR(50) PRIMARY KEY,
			summary       TEXT,
			status        VARCHAR(255),
			project_name  VARCHAR(255),
			location_name TEXT,
			scheduled      TIMESTAMP,
			acknowledged   TIMESTAMP,
			at_listing     TIMESTAMP,
			shoot_complete TIMESTAMP,
			uploaded       TIMESTAMP,
			edit_start     TIMESTAMP,
			final_review   TIMESTAMP,
			closed         TIMESTAMP,
			last_updated  TIMESTAMP
		)`, constants.IssueTable)
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create issues table: %w", err)
	}

	index := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_last_updated ON %s (last_updated)",
		constants.IssueTable, constants.IssueTable,
	)
	if _, err := db.Exec(index); err != nil {
		return fmt.Errorf("failed to create issues index: %w", err)
	}
	return nil
}
