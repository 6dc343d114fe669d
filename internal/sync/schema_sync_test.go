package sync

import (
	"context"
	"errors"
	"testing"

	"jirapulse/internal/models/dtos"
)

type fakeSchemaStore struct {
	columns []string
	added   map[string]string // name to sql type
	failOn  string
}

func newFakeSchemaStore(columns ...string) *fakeSchemaStore {
	return &fakeSchemaStore{columns: columns, added: map[string]string{}}
}

func (f *fakeSchemaStore) ListColumns(ctx context.Context) ([]string, error) {
	return append([]string(nil), f.columns...), nil
}

func (f *fakeSchemaStore) AddColumn(ctx context.Context, name, sqlType, comment string) error {
	if name == f.failOn {
		return errors.New("ddl rejected")
	}
	f.columns = append(f.columns, name)
	f.added[name] = sqlType
	return nil
}

func mappedConfig() *dtos.FieldMappingConfig {
	return &dtos.FieldMappingConfig{
		FieldGroups: map[string]dtos.FieldGroup{
			"order": {
				Fields: map[string]dtos.FieldDefinition{
					"order_number": {
						Type:      dtos.FieldTypeString,
						Instance1: &dtos.InstanceMapping{FieldID: "customfield_1"},
					},
					"raw_photos": {
						Type:      dtos.FieldTypeInteger,
						Instance1: &dtos.InstanceMapping{FieldID: "customfield_2"},
					},
					"unmapped_field": {
						Type: dtos.FieldTypeString,
					},
				},
			},
		},
	}
}

func TestSchemaSyncAddsMissingColumns(t *testing.T) {
	store := newFakeSchemaStore("issue_key", "summary")
	s := NewSchemaSynchronizer(store)

	result, err := s.Sync(context.Background(), mappedConfig())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	if len(result.Added) != 2 {
		t.Fatalf("added = %v", result.Added)
	}
	if store.added["ndpu_order_number"] != "TEXT" {
		t.Errorf("ndpu_order_number type = %q", store.added["ndpu_order_number"])
	}
	if store.added["ndpu_raw_photos"] != "INTEGER" {
		t.Errorf("ndpu_raw_photos type = %q", store.added["ndpu_raw_photos"])
	}

	// The unmapped field is skipped, not created.
	if _, ok := store.added["ndpu_unmapped_field"]; ok {
		t.Error("unmapped field should not create a column")
	}
}

func TestSchemaSyncIsIdempotent(t *testing.T) {
	store := newFakeSchemaStore("issue_key")
	s := NewSchemaSynchronizer(store)
	cfg := mappedConfig()

	first, err := s.Sync(context.Background(), cfg)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if len(first.Added) != 2 {
		t.Fatalf("first sync added = %v", first.Added)
	}

	second, err := s.Sync(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(second.Added) != 0 {
		t.Errorf("second sync should add nothing, added %v", second.Added)
	}
	if len(second.Skipped) != 3 {
		t.Errorf("second sync skipped = %v", second.Skipped)
	}
}

func TestSchemaSyncCollectsPerFieldErrors(t *testing.T) {
	store := newFakeSchemaStore()
	store.failOn = "ndpu_order_number"
	s := NewSchemaSynchronizer(store)

	result, err := s.Sync(context.Background(), mappedConfig())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v", result.Errors)
	}
	// The failure must not block the other column.
	if len(result.Added) != 1 || result.Added[0] != "ndpu_raw_photos" {
		t.Errorf("added = %v", result.Added)
	}
}

func TestColumnNameFor(t *testing.T) {
	cases := map[string]string{
		"order_number":      "ndpu_order_number",
		"summary":           "summary",
		"status":            "status",
		"location_name":     "location_name",
		"scheduled":         "scheduled",
		"closed":            "closed",
		"ndpu_already_done": "ndpu_already_done",
	}
	for in, want := range cases {
		if got := ColumnNameFor(in); got != want {
			t.Errorf("ColumnNameFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSchemaSyncTypeMapping(t *testing.T) {
	cfg := &dtos.FieldMappingConfig{
		FieldGroups: map[string]dtos.FieldGroup{
			"g": {
				Fields: map[string]dtos.FieldDefinition{
					"a_bool":     {Type: dtos.FieldTypeBoolean, Instance1: &dtos.InstanceMapping{FieldID: "f1"}},
					"a_datetime": {Type: dtos.FieldTypeDatetime, Instance1: &dtos.InstanceMapping{FieldID: "f2"}},
					"a_json":     {Type: dtos.FieldTypeObject, Instance1: &dtos.InstanceMapping{FieldID: "f3"}},
					"a_status":   {Type: dtos.FieldTypeStatus, Instance1: &dtos.InstanceMapping{FieldID: "f4"}},
				},
			},
		},
	}

	store := newFakeSchemaStore()
	if _, err := NewSchemaSynchronizer(store).Sync(context.Background(), cfg); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	want := map[string]string{
		"ndpu_a_bool":     "BOOLEAN",
		"ndpu_a_datetime": "TIMESTAMP",
		"ndpu_a_json":     "JSONB",
		"ndpu_a_status":   "VARCHAR(255)",
	}
	for col, sqlType := range want {
		if store.added[col] != sqlType {
			t.Errorf("%s type = %q, want %q", col, store.added[col], sqlType)
		}
	}
}
