package constants

// Sync run lifecycle states persisted to sync_runs.status
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
	SyncStatusStopped   = "stopped"
)

// Sync trigger types
const (
	SyncTypeManual    = "manual"
	SyncTypeScheduled = "scheduled"
)

// Per-project terminal states. Empty means the project was reachable but had no
// issues in the sync window; it is not an error and not work done.
const (
	ProjectStatusSuccess = "Success"
	ProjectStatusEmpty   = "Empty"
	ProjectStatusFailed  = "Failed"
)

// Orchestrator-facing states reported to the API layer
const (
	EngineStateIdle    = "idle"
	EngineStateRunning = "running"
	EngineStateStopped = "stopped"
)

// Configuration store keys
const (
	ConfigTypeFieldMappings = "field_mappings"
	ConfigKeyIssueFields    = "issue_fields"
)

// MaxErrorMessageLen bounds error messages persisted with sync runs and
// project details.
const MaxErrorMessageLen = 1000
