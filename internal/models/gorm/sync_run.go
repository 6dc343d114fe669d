package gorm

import "time"

// SyncRun is one orchestration run. The UUID sync id is the primary key and
// the direct foreign key of the child tables.
type SyncRun struct {
	SyncID             string     `gorm:"column:sync_id;primaryKey;type:uuid"`
	SyncType           string     `gorm:"column:sync_type;type:varchar(20);not null"` // manual, scheduled
	TriggeredBy        string     `gorm:"column:triggered_by;type:varchar(255)"`
	Status             string     `gorm:"column:status;type:varchar(20);not null"` // running, completed, failed, stopped
	StartedAt          time.Time  `gorm:"column:started_at;not null"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	TotalProjects      int        `gorm:"column:total_projects;default:0"`
	SuccessfulProjects int        `gorm:"column:successful_projects;default:0"`
	FailedProjects     int        `gorm:"column:failed_projects;default:0"`
	EmptyProjects      int        `gorm:"column:empty_projects;default:0"`
	TotalIssues        int        `gorm:"column:total_issues;default:0"`
	IssuesCreated      int        `gorm:"column:issues_created;default:0"`
	IssuesUpdated      int        `gorm:"column:issues_updated;default:0"`
	ErrorMessage       string     `gorm:"column:error_message;type:text"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "sync_runs"
}

// ProjectSyncDetail is the per-project child record of a sync run.
type ProjectSyncDetail struct {
	ID              uint       `gorm:"column:id;primaryKey;autoIncrement"`
	SyncID          string     `gorm:"column:sync_id;type:uuid;not null;index"`
	ProjectKey      string     `gorm:"column:project_key;type:varchar(50);not null"`
	Instance        string     `gorm:"column:instance;type:varchar(50);not null"`
	Status          string     `gorm:"column:status;type:varchar(20);not null"`
	StartedAt       time.Time  `gorm:"column:started_at;not null"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	IssuesProcessed int        `gorm:"column:issues_processed;default:0"`
	IssuesCreated   int        `gorm:"column:issues_created;default:0"`
	IssuesUpdated   int        `gorm:"column:issues_updated;default:0"`
	IssuesFailed    int        `gorm:"column:issues_failed;default:0"`
	ErrorMessage    string     `gorm:"column:error_message;type:text"`
	RetryCount      int        `gorm:"column:retry_count;default:0"`
}

// TableName specifies the table name for GORM
func (ProjectSyncDetail) TableName() string {
	return "project_sync_details"
}

// SyncPerformanceMetric stores aggregate timing metrics for a run.
type SyncPerformanceMetric struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	SyncID      string    `gorm:"column:sync_id;type:uuid;not null;index"`
	MetricName  string    `gorm:"column:metric_name;type:varchar(100);not null"`
	MetricValue float64   `gorm:"column:metric_value;not null"`
	MetricUnit  string    `gorm:"column:metric_unit;type:varchar(20)"`
	RecordedAt  time.Time `gorm:"column:recorded_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (SyncPerformanceMetric) TableName() string {
	return "sync_performance_metrics"
}
