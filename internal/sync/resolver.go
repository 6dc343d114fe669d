package sync

import (
	"strings"
	"time"

	"jirapulse/internal/models/dtos"
)

// Resolve extracts the raw value of one mapped field from an issue. The
// transitions map carries pre-extracted milestone timestamps so the changelog
// is only walked once per issue. Missing data resolves to nil, never an error.
func Resolve(def *dtos.FieldDefinition, fieldKey, instanceID string, issue *dtos.Issue, transitions map[string]*time.Time) interface{} {
	if def == nil || issue == nil {
		return nil
	}

	switch def.EffectiveSource() {
	case dtos.SourceTransitions:
		name := def.TransitionName
		if name == "" {
			name = fieldKey
		}
		if ts, ok := transitions[name]; ok && ts != nil {
			return *ts
		}
		return nil

	case dtos.SourceSystem:
		if def.FieldPath != "" {
			return dotWalk(issue.Fields, def.FieldPath)
		}
		if def.FieldID != "" {
			return unwrap(issue.Fields[def.FieldID])
		}
		return nil
	}

	if def.SystemField && def.FieldID != "" {
		if def.FieldPath != "" {
			return dotWalk(issue.Fields, def.FieldPath)
		}
		return unwrap(issue.Fields[def.FieldID])
	}

	mapping := def.MappingFor(instanceID)
	if !mapping.IsMapped() {
		return nil
	}

	switch {
	case mapping.FieldPath != "":
		return dotWalk(issue.Fields, mapping.FieldPath)
	case len(mapping.FieldIDs) > 0:
		return combineFields(issue, mapping.FieldIDs, def.EffectiveCombine())
	default:
		return unwrap(issue.Fields[mapping.FieldID])
	}
}

// combineFields joins the values of several upstream fields into one. Empty
// parts are skipped; if every part is empty the result is nil.
func combineFields(issue *dtos.Issue, fieldIDs []string, method dtos.CombineMethod) interface{} {
	parts := make([]string, 0, len(fieldIDs))
	for _, id := range fieldIDs {
		value := unwrap(issue.Fields[id])
		if value == nil {
			continue
		}
		s := strings.TrimSpace(stringify(value))
		if s == "" {
			continue
		}
		if method == dtos.CombineFirst {
			return s
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return nil
	}

	switch method {
	case dtos.CombineComma:
		return strings.Join(parts, ", ")
	default:
		return strings.Join(parts, " ")
	}
}

// dotWalk follows a dot-separated path through nested objects, returning nil
// as soon as any segment is missing or not an object.
func dotWalk(fields map[string]interface{}, path string) interface{} {
	var current interface{} = fields
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = node[segment]
		if !ok {
			return nil
		}
	}
	return unwrap(current)
}

// unwrap reduces JIRA's option/user object shapes to their display value,
// trying value, then displayName, then name. Non-object values pass through.
func unwrap(raw interface{}) interface{} {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return raw
	}
	for _, key := range []string{"value", "displayName", "name"} {
		if inner, ok := obj[key]; ok && inner != nil {
			return unwrap(inner)
		}
	}
	return raw
}
