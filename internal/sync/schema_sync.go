package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"jirapulse/internal/constants"
	"jirapulse/internal/logging"
	"jirapulse/internal/models/dtos"
)

// sqlTypeFor maps declared field types to Postgres column types.
var sqlTypeFor = map[dtos.FieldType]string{
	dtos.FieldTypeString:   "TEXT",
	dtos.FieldTypeNumber:   "NUMERIC",
	dtos.FieldTypeInteger:  "INTEGER",
	dtos.FieldTypeBoolean:  "BOOLEAN",
	dtos.FieldTypeDate:     "DATE",
	dtos.FieldTypeDatetime: "TIMESTAMP",
	dtos.FieldTypeArray:    "JSONB",
	dtos.FieldTypeObject:   "JSONB",
	dtos.FieldTypeStatus:   "VARCHAR(255)",
}

// SchemaStore is the slice of the schema repository the synchronizer needs.
type SchemaStore interface {
	ListColumns(ctx context.Context) ([]string, error)
	AddColumn(ctx context.Context, name, sqlType, comment string) error
}

// SchemaSynchronizer grows the issues table to cover every mapped field.
// It is strictly additive: existing columns are never altered or dropped.
type SchemaSynchronizer struct {
	store SchemaStore
}

func NewSchemaSynchronizer(store SchemaStore) *SchemaSynchronizer {
	return &SchemaSynchronizer{store: store}
}

// ColumnNameFor derives the database column for a logical field key. Reserved
// system columns and already-prefixed keys stay as-is, everything else gets
// the namespace prefix.
func ColumnNameFor(fieldKey string) string {
	if constants.ReservedBareColumns[fieldKey] {
		return fieldKey
	}
	if _, isMilestone := constants.MilestoneAliases[fieldKey]; isMilestone {
		return fieldKey
	}
	if strings.HasPrefix(fieldKey, constants.ColumnPrefix) {
		return fieldKey
	}
	return constants.ColumnPrefix + fieldKey
}

// Sync reconciles the issues table with the given mapping configuration. The
// column list is re-read on every call so concurrent DDL is observed. Per-field
// failures are collected, not fatal.
func (s *SchemaSynchronizer) Sync(ctx context.Context, cfg *dtos.FieldMappingConfig) (dtos.SchemaSyncResult, error) {
	var result dtos.SchemaSyncResult

	columns, err := s.store.ListColumns(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read current schema: %w", err)
	}
	existing := make(map[string]bool, len(columns))
	for _, col := range columns {
		existing[col] = true
	}

	for _, groupName := range sortedGroupNames(cfg) {
		group := cfg.FieldGroups[groupName]
		for _, fieldKey := range sortedFieldKeys(group) {
			def := group.Fields[fieldKey]
			column := ColumnNameFor(fieldKey)

			if existing[column] {
				result.Skipped = append(result.Skipped, column)
				continue
			}
			if !def.HasAnyMapping() {
				result.Skipped = append(result.Skipped, column)
				continue
			}

			sqlType, ok := sqlTypeFor[def.Type]
			if !ok {
				sqlType = "TEXT"
			}

			if err := s.store.AddColumn(ctx, column, sqlType, def.Description); err != nil {
				logging.Error("failed to add column",
					"column", column,
					"field", fieldKey,
					"error", err.Error(),
				)
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", column, err))
				continue
			}

			logging.Info("added column", "column", column, "type", sqlType)
			existing[column] = true
			result.Added = append(result.Added, column)
		}
	}

	return result, nil
}

func sortedGroupNames(cfg *dtos.FieldMappingConfig) []string {
	names := make([]string, 0, len(cfg.FieldGroups))
	for name := range cfg.FieldGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedFieldKeys(group dtos.FieldGroup) []string {
	keys := make([]string, 0, len(group.Fields))
	for key := range group.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
