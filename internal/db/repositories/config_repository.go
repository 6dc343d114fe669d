package repositories

import (
	"context"
	"fmt"
	"time"

	gormlib "gorm.io/gorm"

	models "jirapulse/internal/models/gorm"
)

// ActiveConfig is the resolved active version of a stored configuration.
type ActiveConfig struct {
	Value     models.JSONB
	Version   int
	UpdatedAt time.Time
}

// ConfigRepository manages the versioned configuration store. Configurations
// are never deleted, only superseded by a new active version.
type ConfigRepository struct {
	db *gormlib.DB
}

// NewConfigRepository creates a new configuration repository
func NewConfigRepository(db *gormlib.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetActiveConfig fetches the active configuration for a type and key, or nil
// when none exists.
func (r *ConfigRepository) GetActiveConfig(ctx context.Context, configType, configKey string) (*ActiveConfig, error) {
	var cfg models.Configuration

	err := r.db.WithContext(ctx).
		Where("config_type = ? AND config_key = ? AND is_active = ?", configType, configKey, true).
		Order("version DESC").
		First(&cfg).Error

	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active config: %w", err)
	}

	return &ActiveConfig{
		Value:     cfg.ConfigValue,
		Version:   cfg.Version,
		UpdatedAt: cfg.UpdatedAt,
	}, nil
}

// SaveConfig persists a new configuration version, deactivates the previous
// one, and appends a history record. Returns the new version number.
func (r *ConfigRepository) SaveConfig(ctx context.Context, configType, configKey string, value models.JSONB, user, reason string) (int, error) {
	var newVersion int

	err := r.db.WithContext(ctx).Transaction(func(tx *gormlib.DB) error {
		var current models.Configuration
		changeType := "create"
		var oldValue models.JSONB

		err := tx.Where("config_type = ? AND config_key = ? AND is_active = ?", configType, configKey, true).
			Order("version DESC").
			First(&current).Error
		switch err {
		case nil:
			changeType = "update"
			oldValue = current.ConfigValue
			newVersion = current.Version + 1
			if err := tx.Model(&models.Configuration{}).
				Where("id = ?", current.ID).
				Update("is_active", false).Error; err != nil {
				return fmt.Errorf("failed to deactivate previous version: %w", err)
			}
		case gormlib.ErrRecordNotFound:
			newVersion = 1
		default:
			return fmt.Errorf("failed to look up current config: %w", err)
		}

		next := models.Configuration{
			ConfigType:  configType,
			ConfigKey:   configKey,
			ConfigValue: value,
			Version:     newVersion,
			IsActive:    true,
			CreatedBy:   user,
			UpdatedBy:   user,
		}
		if err := tx.Create(&next).Error; err != nil {
			return fmt.Errorf("failed to save config version %d: %w", newVersion, err)
		}

		history := models.ConfigurationHistory{
			ConfigID:     next.ID,
			ConfigType:   configType,
			ConfigKey:    configKey,
			OldValue:     oldValue,
			NewValue:     value,
			ChangeType:   changeType,
			ChangedBy:    user,
			ChangeReason: reason,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record config history: %w", err)
		}

		return nil
	})

	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// GetHistory returns recent change records for a configuration, newest first.
func (r *ConfigRepository) GetHistory(ctx context.Context, configType, configKey string, limit int) ([]models.ConfigurationHistory, error) {
	var history []models.ConfigurationHistory

	query := r.db.WithContext(ctx).
		Where("config_type = ? AND config_key = ?", configType, configKey).
		Order("changed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to get config history: %w", err)
	}
	return history, nil
}
