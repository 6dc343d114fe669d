package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jirapulse/internal/common"
	"jirapulse/internal/constants"
	"jirapulse/internal/db/repositories"
	"jirapulse/internal/logging"
	"jirapulse/internal/models/dtos"
	models "jirapulse/internal/models/gorm"
	syncengine "jirapulse/internal/sync"
)

const (
	mappingCacheKey = "config:field_mappings:issue_fields"
	mappingCacheTTL = 5 * time.Minute
)

// ActiveMapping is the resolved active field-mapping configuration.
type ActiveMapping struct {
	Config    *dtos.FieldMappingConfig
	Version   int
	UpdatedAt time.Time
}

// MappingService owns the versioned field-mapping configuration: loading the
// active version, saving new versions, and keeping the issues table schema in
// step with the mapping.
type MappingService struct {
	store  *repositories.ConfigRepository
	schema *syncengine.SchemaSynchronizer
	cache  common.CacheService
}

func NewMappingService(store *repositories.ConfigRepository, schema *syncengine.SchemaSynchronizer, cache common.CacheService) *MappingService {
	return &MappingService{store: store, schema: schema, cache: cache}
}

// Active returns the validated active configuration. The parsed document is
// cached briefly since every sync run and most API calls read it.
func (s *MappingService) Active(ctx context.Context) (*ActiveMapping, error) {
	if cached, ok := s.cache.Get(ctx, mappingCacheKey); ok {
		var active ActiveMapping
		if err := json.Unmarshal([]byte(cached), &active); err == nil && active.Config != nil {
			return &active, nil
		}
	}

	stored, err := s.store.GetActiveConfig(ctx, constants.ConfigTypeFieldMappings, constants.ConfigKeyIssueFields)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("no active field mapping configuration")
	}

	cfg, err := configFromJSONB(stored.Value)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("active field mapping configuration is invalid: %w", err)
	}

	active := &ActiveMapping{Config: cfg, Version: stored.Version, UpdatedAt: stored.UpdatedAt}
	if encoded, err := json.Marshal(active); err == nil {
		_ = s.cache.Set(ctx, mappingCacheKey, string(encoded), mappingCacheTTL)
	}
	return active, nil
}

// Save validates and persists a new configuration version, then runs a
// best-effort schema sync so newly mapped fields get their columns. A schema
// failure does not roll back the saved version.
func (s *MappingService) Save(ctx context.Context, req dtos.SaveMappingRequest) (*dtos.SaveMappingResponse, error) {
	if err := req.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid field mapping configuration: %w", err)
	}

	value, err := configToJSONB(&req.Config)
	if err != nil {
		return nil, err
	}

	user := req.UpdatedBy
	if user == "" {
		user = "api"
	}

	version, err := s.store.SaveConfig(ctx, constants.ConfigTypeFieldMappings, constants.ConfigKeyIssueFields, value, user, req.Reason)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, mappingCacheKey)
	logging.Info("saved field mapping configuration", "version", version, "updated_by", user)

	resp := &dtos.SaveMappingResponse{Version: version}
	schemaResult, err := s.schema.Sync(ctx, &req.Config)
	if err != nil {
		logging.Error("schema sync after save failed", "version", version, "error", err.Error())
		schemaResult.Errors = append(schemaResult.Errors, err.Error())
	}
	resp.SchemaSync = &schemaResult
	return resp, nil
}

// SyncSchema reconciles the issues table against the active configuration.
func (s *MappingService) SyncSchema(ctx context.Context) (dtos.SchemaSyncResult, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return dtos.SchemaSyncResult{}, err
	}
	return s.schema.Sync(ctx, active.Config)
}

// History returns recent configuration changes, newest first.
func (s *MappingService) History(ctx context.Context, limit int) ([]models.ConfigurationHistory, error) {
	return s.store.GetHistory(ctx, constants.ConfigTypeFieldMappings, constants.ConfigKeyIssueFields, limit)
}

// EnsureDefault seeds version 1 with the built-in mapping when the store is
// empty, then reconciles the schema. Called once at startup.
func (s *MappingService) EnsureDefault(ctx context.Context) error {
	stored, err := s.store.GetActiveConfig(ctx, constants.ConfigTypeFieldMappings, constants.ConfigKeyIssueFields)
	if err != nil {
		return err
	}
	if stored == nil {
		cfg := DefaultFieldMappings()
		value, err := configToJSONB(cfg)
		if err != nil {
			return err
		}
		version, err := s.store.SaveConfig(ctx, constants.ConfigTypeFieldMappings, constants.ConfigKeyIssueFields, value, "system", "seed default configuration")
		if err != nil {
			return err
		}
		logging.Info("seeded default field mapping configuration", "version", version)
	}

	if _, err := s.SyncSchema(ctx); err != nil {
		return err
	}
	return nil
}

func configFromJSONB(value models.JSONB) (*dtos.FieldMappingConfig, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stored configuration: %w", err)
	}
	var cfg dtos.FieldMappingConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse stored configuration: %w", err)
	}
	return &cfg, nil
}

func configToJSONB(cfg *dtos.FieldMappingConfig) (models.JSONB, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	var value models.JSONB
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("failed to convert configuration: %w", err)
	}
	return value, nil
}
