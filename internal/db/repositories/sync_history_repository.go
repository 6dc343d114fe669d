package repositories

import (
	"context"
	"fmt"
	"time"

	gormlib "gorm.io/gorm"

	"jirapulse/internal/constants"
	models "jirapulse/internal/models/gorm"
)

// SyncHistoryRepository persists sync runs, their per-project details, and
// aggregate performance metrics.
type SyncHistoryRepository struct {
	db *gormlib.DB
}

// NewSyncHistoryRepository creates a new sync history repository
func NewSyncHistoryRepository(db *gormlib.DB) *SyncHistoryRepository {
	return &SyncHistoryRepository{db: db}
}

// CreateRun inserts a new sync run in the running state.
func (r *SyncHistoryRepository) CreateRun(ctx context.Context, syncID, syncType, triggeredBy string) error {
	run := models.SyncRun{
		SyncID:      syncID,
		SyncType:    syncType,
		TriggeredBy: triggeredBy,
		Status:      constants.SyncStatusRunning,
		StartedAt:   time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

// RunUpdate carries the fields updated when a run reaches a terminal state.
type RunUpdate struct {
	Status             string
	TotalProjects      int
	SuccessfulProjects int
	FailedProjects     int
	EmptyProjects      int
	TotalIssues        int
	IssuesCreated      int
	IssuesUpdated      int
	ErrorMessage       string
}

// CompleteRun marks a run terminal with its final statistics. The error
// message is truncated to the storage bound.
func (r *SyncHistoryRepository) CompleteRun(ctx context.Context, syncID string, update RunUpdate) error {
	now := time.Now()
	values := map[string]interface{}{
		"status":              update.Status,
		"completed_at":        &now,
		"total_projects":      update.TotalProjects,
		"successful_projects": update.SuccessfulProjects,
		"failed_projects":     update.FailedProjects,
		"empty_projects":      update.EmptyProjects,
		"total_issues":        update.TotalIssues,
		"issues_created":      update.IssuesCreated,
		"issues_updated":      update.IssuesUpdated,
		"error_message":       truncateError(update.ErrorMessage),
	}

	err := r.db.WithContext(ctx).
		Model(&models.SyncRun{}).
		Where("sync_id = ?", syncID).
		Updates(values).Error
	if err != nil {
		return fmt.Errorf("failed to complete sync run: %w", err)
	}
	return nil
}

// CreateProjectDetail records the outcome of one project within a run.
func (r *SyncHistoryRepository) CreateProjectDetail(ctx context.Context, detail *models.ProjectSyncDetail) error {
	detail.ErrorMessage = truncateError(detail.ErrorMessage)
	if err := r.db.WithContext(ctx).Create(detail).Error; err != nil {
		return fmt.Errorf("failed to create project sync detail: %w", err)
	}
	return nil
}

// RecordMetric stores one aggregate performance metric for a run.
func (r *SyncHistoryRepository) RecordMetric(ctx context.Context, syncID, name string, value float64, unit string) error {
	metric := models.SyncPerformanceMetric{
		SyncID:      syncID,
		MetricName:  name,
		MetricValue: value,
		MetricUnit:  unit,
	}
	if err := r.db.WithContext(ctx).Create(&metric).Error; err != nil {
		return fmt.Errorf("failed to record metric %s: %w", name, err)
	}
	return nil
}

// GetLatestRun returns the most recent sync run, or nil when none exists.
func (r *SyncHistoryRepository) GetLatestRun(ctx context.Context) (*models.SyncRun, error) {
	var run models.SyncRun

	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest sync run: %w", err)
	}
	return &run, nil
}

// ListRuns returns recent sync runs, newest first.
func (r *SyncHistoryRepository) ListRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	var runs []models.SyncRun

	query := r.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

// GetProjectDetails returns the per-project records of one run.
func (r *SyncHistoryRepository) GetProjectDetails(ctx context.Context, syncID string) ([]models.ProjectSyncDetail, error) {
	var details []models.ProjectSyncDetail

	err := r.db.WithContext(ctx).
		Where("sync_id = ?", syncID).
		Order("project_key ASC").
		Find(&details).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get project details: %w", err)
	}
	return details, nil
}

func truncateError(msg string) string {
	if len(msg) > constants.MaxErrorMessageLen {
		return msg[:constants.MaxErrorMessageLen]
	}
	return msg
}
