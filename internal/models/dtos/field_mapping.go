package dtos

import (
	"fmt"

	"jirapulse/internal/constants"
)

// FieldType is the declared logical type of a mapped field.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeNumber   FieldType = "number"
	FieldTypeInteger  FieldType = "integer"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeDatetime FieldType = "datetime"
	FieldTypeArray    FieldType = "array"
	FieldTypeObject   FieldType = "object"
	FieldTypeStatus   FieldType = "status"
)

var validFieldTypes = map[FieldType]bool{
	FieldTypeString: true, FieldTypeNumber: true, FieldTypeInteger: true,
	FieldTypeBoolean: true, FieldTypeDate: true, FieldTypeDatetime: true,
	FieldTypeArray: true, FieldTypeObject: true, FieldTypeStatus: true,
}

// FieldSource discriminates where a field's value comes from.
type FieldSource string

const (
	SourceField       FieldSource = "field"       // custom field lookup (default)
	SourceSystem      FieldSource = "system"      // dot-path into the issue payload
	SourceTransitions FieldSource = "transitions" // changelog-derived milestone timestamp
)

// CombineMethod controls how multi-field values are joined.
type CombineMethod string

const (
	CombineSpace CombineMethod = "space"
	CombineComma CombineMethod = "comma"
	CombineFirst CombineMethod = "first"
)

// InstanceMapping is the per-JIRA-instance extraction rule for one field.
// Exactly one of FieldID, FieldIDs, or FieldPath is expected to be set.
type InstanceMapping struct {
	FieldID   string   `json:"field_id,omitempty"`
	FieldIDs  []string `json:"field_ids,omitempty"`
	FieldPath string   `json:"field_path,omitempty"`
}

// IsMapped reports whether the mapping carries any extraction rule.
func (m *InstanceMapping) IsMapped() bool {
	return m != nil && (m.FieldID != "" || len(m.FieldIDs) > 0 || m.FieldPath != "")
}

// FieldDefinition is one logical field in the mapping configuration.
type FieldDefinition struct {
	Type           FieldType        `json:"type"`
	Required       bool             `json:"required,omitempty"`
	Description    string           `json:"description,omitempty"`
	SystemField    bool             `json:"system_field,omitempty"`
	FieldID        string           `json:"field_id,omitempty"` // system fields only
	FieldPath      string           `json:"field_path,omitempty"`
	Source         FieldSource      `json:"source,omitempty"`
	TransitionName string           `json:"transition_name,omitempty"`
	CombineMethod  CombineMethod    `json:"combine_method,omitempty"`
	Instance1      *InstanceMapping `json:"instance_1,omitempty"`
	Instance2      *InstanceMapping `json:"instance_2,omitempty"`
}

// EffectiveSource resolves the source kind, defaulting to field extraction.
func (d *FieldDefinition) EffectiveSource() FieldSource {
	if d.Source != "" {
		return d.Source
	}
	return SourceField
}

// EffectiveCombine resolves the combine method, defaulting to space-joining.
func (d *FieldDefinition) EffectiveCombine() CombineMethod {
	if d.CombineMethod != "" {
		return d.CombineMethod
	}
	return CombineSpace
}

// MappingFor returns the extraction rule for the given instance, or nil.
func (d *FieldDefinition) MappingFor(instanceID string) *InstanceMapping {
	switch instanceID {
	case "instance_1":
		return d.Instance1
	case "instance_2":
		return d.Instance2
	}
	return nil
}

// HasAnyMapping reports whether any instance carries an extraction rule.
// Fields without one are valid but inert: skipped by schema sync and resolver.
func (d *FieldDefinition) HasAnyMapping() bool {
	return d.Instance1.IsMapped() || d.Instance2.IsMapped() ||
		d.EffectiveSource() == SourceTransitions ||
		(d.SystemField && d.FieldID != "") ||
		d.FieldPath != ""
}

// FieldGroup is a named group of field definitions.
type FieldGroup struct {
	Description string                     `json:"description,omitempty"`
	Fields      map[string]FieldDefinition `json:"fields"`
}

// FieldMappingConfig is the full versioned field-mapping document.
type FieldMappingConfig struct {
	FieldGroups map[string]FieldGroup `json:"field_groups"`
}

// Validate rejects malformed configuration eagerly, so resolution never has to
// guess deep inside a sync run.
func (c *FieldMappingConfig) Validate() error {
	for groupName, group := range c.FieldGroups {
		for fieldKey, def := range group.Fields {
			where := fmt.Sprintf("field %q in group %q", fieldKey, groupName)

			if def.Type != "" && !validFieldTypes[def.Type] {
				return fmt.Errorf("%s: unknown type %q", where, def.Type)
			}

			switch def.EffectiveSource() {
			case SourceField, SourceSystem, SourceTransitions:
			default:
				return fmt.Errorf("%s: unknown source %q", where, def.Source)
			}

			switch def.CombineMethod {
			case "", CombineSpace, CombineComma, CombineFirst:
			default:
				return fmt.Errorf("%s: unknown combine_method %q", where, def.CombineMethod)
			}

			if def.SystemField {
				if !constants.SystemFieldAllowList[def.FieldID] {
					return fmt.Errorf("%s: system field id %q is not a known system field", where, def.FieldID)
				}
			}

			if def.EffectiveSource() == SourceTransitions {
				name := def.TransitionName
				if name == "" {
					name = fieldKey
				}
				if _, ok := constants.MilestoneAliases[name]; !ok {
					return fmt.Errorf("%s: unknown transition milestone %q", where, name)
				}
			}
		}
	}
	return nil
}

// FindField locates a field definition by its logical key.
func (c *FieldMappingConfig) FindField(fieldKey string) *FieldDefinition {
	for _, group := range c.FieldGroups {
		if def, ok := group.Fields[fieldKey]; ok {
			return &def
		}
	}
	return nil
}
