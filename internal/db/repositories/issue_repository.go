package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"jirapulse/internal/constants"
	"jirapulse/internal/logging"
)

// maxUpsertBatch keeps one statement comfortably under the Postgres
// parameter limit given the width of the issue column list.
const maxUpsertBatch = 500

// UpsertResult aggregates one batch upsert. Failed counts records dropped for
// wrong arity plus records that still failed after the per-record retry;
// Retried counts records that went through the per-record fallback.
type UpsertResult struct {
	Processed int
	Created   int
	Updated   int
	Failed    int
	Retried   int
}

// IssueRepository writes assembled issue records. It uses raw SQL because the
// column list and conflict assignments are derived from the declared column
// order at runtime.
type IssueRepository struct {
	db      *sqlx.DB
	columns []string
	upsert  string
}

// NewIssueRepository creates an issue repository bound to the declared
// column list.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{
		db:      db,
		columns: constants.IssueColumns,
		upsert:  buildUpsertPrefix(constants.IssueColumns),
	}
}

// buildUpsertPrefix renders the static parts of the upsert statement: the
// column list and the ON CONFLICT assignments for every mutable column.
func buildUpsertPrefix(columns []string) string {
	assignments := make([]string, 0, len(columns)-1)
	for _, col := range columns {
		if col == "issue_key" {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %%s ON CONFLICT (issue_key) DO UPDATE SET %s RETURNING (xmax = 0) AS inserted",
		constants.IssueTable,
		strings.Join(columns, ", "),
		strings.Join(assignments, ", "),
	)
}

// BatchUpsert inserts or updates issue records. Each sub-batch commits
// atomically; a failing sub-batch is retried row by row so one bad record
// cannot sink its neighbors. Records with the wrong arity are dropped.
func (r *IssueRepository) BatchUpsert(ctx context.Context, rows [][]interface{}) (UpsertResult, error) {
	var result UpsertResult
	if len(rows) == 0 {
		return result, nil
	}

	valid := rows[:0:0]
	for _, row := range rows {
		if len(row) != len(r.columns) {
			logging.Warn("dropping record with wrong column count",
				"expected", len(r.columns),
				"got", len(row),
				"issue_key", issueKeyOf(row),
			)
			result.Failed++
			continue
		}
		valid = append(valid, row)
	}

	for start := 0; start < len(valid); start += maxUpsertBatch {
		end := start + maxUpsertBatch
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[start:end]

		created, updated, err := r.upsertBatch(ctx, batch)
		if err != nil {
			logging.Warn("batch upsert failed, retrying per record",
				"batch_size", len(batch),
				"error", err.Error(),
			)
			var failed int
			created, updated, failed = r.upsertIndividually(ctx, batch)
			result.Retried += len(batch)
			result.Failed += failed
		}
		result.Created += created
		result.Updated += updated
		result.Processed += created + updated
	}

	return result, nil
}

func (r *IssueRepository) upsertBatch(ctx context.Context, batch [][]interface{}) (created, updated int, err error) {
	placeholders := make([]string, len(batch))
	args := make([]interface{}, 0, len(batch)*len(r.columns))
	n := 1
	for i, row := range batch {
		marks := make([]string, len(r.columns))
		for j := range r.columns {
			marks[j] = fmt.Sprintf("$%d", n)
			n++
		}
		placeholders[i] = "(" + strings.Join(marks, ", ") + ")"
		args = append(args, row...)
	}

	query := fmt.Sprintf(r.upsert, strings.Join(placeholders, ", "))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, 0, err
	}
	for rows.Next() {
		var inserted bool
		if err := rows.Scan(&inserted); err != nil {
			rows.Close()
			return 0, 0, err
		}
		if inserted {
			created++
		} else {
			updated++
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, 0, err
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return created, updated, nil
}

func (r *IssueRepository) upsertIndividually(ctx context.Context, batch [][]interface{}) (created, updated, failed int) {
	for _, row := range batch {
		c, u, err := r.upsertBatch(ctx, [][]interface{}{row})
		if err != nil {
			logging.Error("failed to upsert issue record",
				"issue_key", issueKeyOf(row),
				"error", err.Error(),
			)
			failed++
			continue
		}
		created += c
		updated += u
	}
	return created, updated, failed
}

// Count returns the number of stored issues.
func (r *IssueRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", constants.IssueTable)
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}
	return count, nil
}

// ClearAll removes every synced issue. Administrative bulk clear only; normal
// syncs never delete.
func (r *IssueRepository) ClearAll(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s", constants.IssueTable)
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to clear issues: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// issue_key is by convention the first column of every record.
func issueKeyOf(row []interface{}) interface{} {
	if len(row) > 0 {
		return row[0]
	}
	return "unknown"
}
