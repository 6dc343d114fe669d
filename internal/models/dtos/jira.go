package dtos

// Project is one upstream JIRA project.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Issue is a raw issue payload. Fields stays untyped on purpose: its shape is
// instance-specific and driven entirely by the field-mapping configuration.
type Issue struct {
	ID        string                 `json:"id"`
	Key       string                 `json:"key"`
	Fields    map[string]interface{} `json:"fields"`
	Changelog *Changelog             `json:"changelog,omitempty"`
}

// Changelog is the expanded change history of an issue.
type Changelog struct {
	Histories []ChangeHistory `json:"histories"`
}

// ChangeHistory is one changelog entry with its change items.
type ChangeHistory struct {
	Created string       `json:"created"`
	Items   []ChangeItem `json:"items"`
}

// ChangeItem is one field change inside a history entry.
type ChangeItem struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
}

// SearchResult is one page of a JQL search.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// FieldMetadata describes one field from the upstream field catalog.
type FieldMetadata struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
	Schema struct {
		Type string `json:"type"`
	} `json:"schema"`
}
