package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB stores arbitrary JSON documents in a jsonb column.
type JSONB map[string]interface{}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	result := make(map[string]interface{})
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*j = result
	return nil
}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Configuration is one version of a stored configuration document. Versions
// are never deleted, only superseded: exactly one row per (type, key) is
// active at a time.
type Configuration struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ConfigType  string    `gorm:"column:config_type;type:varchar(50);not null;uniqueIndex:idx_config_type_key_version,priority:1"`
	ConfigKey   string    `gorm:"column:config_key;type:varchar(100);not null;uniqueIndex:idx_config_type_key_version,priority:2"`
	ConfigValue JSONB     `gorm:"column:config_value;type:jsonb;not null"`
	Version     int       `gorm:"column:version;default:1;uniqueIndex:idx_config_type_key_version,priority:3"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
	CreatedBy   string    `gorm:"column:created_by;type:varchar(255)"`
	UpdatedBy   string    `gorm:"column:updated_by;type:varchar(255)"`
}

// TableName specifies the table name for GORM
func (Configuration) TableName() string {
	return "configurations"
}

// ConfigurationHistory records every configuration change for auditing.
type ConfigurationHistory struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ConfigID     uint      `gorm:"column:config_id;index"`
	ConfigType   string    `gorm:"column:config_type;type:varchar(50);not null"`
	ConfigKey    string    `gorm:"column:config_key;type:varchar(100);not null"`
	OldValue     JSONB     `gorm:"column:old_value;type:jsonb"`
	NewValue     JSONB     `gorm:"column:new_value;type:jsonb;not null"`
	ChangeType   string    `gorm:"column:change_type;type:varchar(20);not null"` // create, update
	ChangedAt    time.Time `gorm:"column:changed_at;autoCreateTime"`
	ChangedBy    string    `gorm:"column:changed_by;type:varchar(255)"`
	ChangeReason string    `gorm:"column:change_reason;type:text"`
}

// TableName specifies the table name for GORM
func (ConfigurationHistory) TableName() string {
	return "configuration_history"
}
