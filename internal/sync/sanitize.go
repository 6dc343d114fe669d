package sync

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jirapulse/internal/models/dtos"
)

var firstDigitRun = regexp.MustCompile(`-?\d+`)

// integerSentinels are raw values operators enter to mean "no value".
var integerSentinels = map[string]bool{
	"zip":  true,
	"none": true,
	"n/a":  true,
	"-":    true,
}

var truthyValues = map[string]bool{
	"yes": true, "true": true, "1": true, "y": true, "on": true,
}

var falsyValues = map[string]bool{
	"no": true, "false": true, "0": true, "n": true, "off": true,
}

// datetimeLayouts are tried in order. The first is JIRA's REST format.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Sanitize coerces a raw upstream value into a database-ready value of the
// declared type. Unparseable or sentinel input yields nil (stored as NULL)
// rather than an error, so one dirty field never fails its issue.
func Sanitize(raw interface{}, fieldType dtos.FieldType) interface{} {
	if raw == nil {
		return nil
	}

	switch fieldType {
	case dtos.FieldTypeString, dtos.FieldTypeStatus, "":
		return sanitizeString(raw)
	case dtos.FieldTypeInteger:
		return sanitizeInteger(raw)
	case dtos.FieldTypeNumber:
		return sanitizeNumber(raw)
	case dtos.FieldTypeBoolean:
		return sanitizeBoolean(raw)
	case dtos.FieldTypeDate, dtos.FieldTypeDatetime:
		return sanitizeDatetime(raw)
	case dtos.FieldTypeArray, dtos.FieldTypeObject:
		return sanitizeJSON(raw)
	default:
		return sanitizeString(raw)
	}
}

func sanitizeString(raw interface{}) interface{} {
	s := strings.TrimSpace(stringify(raw))
	if s == "" {
		return nil
	}
	return s
}

// sanitizeInteger extracts the first digit run from free-text input, so
// values like "25 photos" still load as 25.
func sanitizeInteger(raw interface{}) interface{} {
	switch v := raw.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}

	s := strings.TrimSpace(stringify(raw))
	if s == "" || integerSentinels[strings.ToLower(s)] {
		return nil
	}

	match := firstDigitRun.FindString(strings.ReplaceAll(s, ",", ""))
	if match == "" {
		return nil
	}
	n, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return nil
	}
	return n
}

func sanitizeNumber(raw interface{}) interface{} {
	switch v := raw.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}

	s := strings.TrimSpace(stringify(raw))
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return f
}

func sanitizeBoolean(raw interface{}) interface{} {
	if b, ok := raw.(bool); ok {
		return b
	}

	s := strings.ToLower(strings.TrimSpace(stringify(raw)))
	switch {
	case truthyValues[s]:
		return true
	case falsyValues[s]:
		return false
	default:
		return nil
	}
}

func sanitizeDatetime(raw interface{}) interface{} {
	if t, ok := raw.(time.Time); ok {
		return t
	}

	s := strings.TrimSpace(stringify(raw))
	if s == "" {
		return nil
	}
	if t, ok := parseTimestamp(s); ok {
		return t
	}
	return nil
}

// sanitizeJSON normalizes arrays and objects to a JSON document string, which
// the driver stores directly into a jsonb column. Scalar strings that are not
// valid JSON are wrapped as a JSON string.
func sanitizeJSON(raw interface{}) interface{} {
	if s, ok := raw.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if json.Valid([]byte(s)) {
			return s
		}
		encoded, err := json.Marshal(s)
		if err != nil {
			return nil
		}
		return string(encoded)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	return string(encoded)
}

// parseTimestamp tries each known layout in order.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringify(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
