package dtos

import "time"

// SyncProgress is the orchestrator progress snapshot exposed to the API.
type SyncProgress struct {
	Status             string     `json:"status"`
	CurrentProjects    int        `json:"current_projects"`
	TotalProjects      int        `json:"total_projects"`
	CurrentIssues      int        `json:"current_issues"`
	ProgressPercentage float64    `json:"progress_percentage"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// SyncRunSummary is the API shape of one sync run.
type SyncRunSummary struct {
	SyncID             string     `json:"sync_id"`
	SyncType           string     `json:"sync_type"`
	Status             string     `json:"status"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	TotalProjects      int        `json:"total_projects"`
	SuccessfulProjects int        `json:"successful_projects"`
	FailedProjects     int        `json:"failed_projects"`
	EmptyProjects      int        `json:"empty_projects"`
	TotalIssues        int        `json:"total_issues"`
	IssuesCreated      int        `json:"issues_created"`
	IssuesUpdated      int        `json:"issues_updated"`
	ErrorMessage       string     `json:"error_message,omitempty"`
}

// StartSyncRequest is the body for POST /sync/start.
type StartSyncRequest struct {
	SyncType    string `json:"sync_type,omitempty"`
	InitiatedBy string `json:"initiated_by,omitempty"`
}

// StartSyncResponse carries the generated sync id.
type StartSyncResponse struct {
	SyncID string `json:"sync_id"`
}

// SchemaSyncResult reports the outcome of a schema synchronization pass.
type SchemaSyncResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
	Errors  []string `json:"errors"`
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Status       string      `json:"status"`
	Message      string      `json:"message,omitempty"`
	ResponseTime string      `json:"response_time,omitempty"`
	Data         interface{} `json:"data,omitempty"`
}

// SaveMappingRequest is the body for POST /config/field-mappings.
type SaveMappingRequest struct {
	Config    FieldMappingConfig `json:"config"`
	UpdatedBy string             `json:"updated_by,omitempty"`
	Reason    string             `json:"reason,omitempty"`
}

// SaveMappingResponse reports the new version and the best-effort schema sync.
type SaveMappingResponse struct {
	Version    int               `json:"version"`
	SchemaSync *SchemaSyncResult `json:"schema_sync,omitempty"`
}
