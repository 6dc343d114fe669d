package services

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"jirapulse/internal/common"
	"jirapulse/internal/config"
	"jirapulse/internal/constants"
	"jirapulse/internal/db/repositories"
	"jirapulse/internal/logging"
	"jirapulse/internal/metrics"
	"jirapulse/internal/models/dtos"
	models "jirapulse/internal/models/gorm"
	"jirapulse/internal/providers"
	syncengine "jirapulse/internal/sync"
)

const latestRunCacheKey = "sync:latest_run"

// ClientFactory builds an upstream client for one instance. Swappable in tests.
type ClientFactory func(inst config.InstanceConfig, perf config.PerformanceConfig) syncengine.InstanceClient

func defaultClientFactory(inst config.InstanceConfig, perf config.PerformanceConfig) syncengine.InstanceClient {
	return providers.NewJiraProvider(inst, perf)
}

// SyncService owns the sync run lifecycle: starting and stopping runs,
// reporting progress, and persisting the run history. At most one run is
// active at a time; starting a new run stops the active one first.
type SyncService struct {
	cfg       *config.Config
	history   *repositories.SyncHistoryRepository
	mappings  *MappingService
	issues    syncengine.IssueStore
	cache     common.CacheService
	newClient ClientFactory

	mu        stdsync.Mutex
	current   *syncengine.Orchestrator
	currentID string
}

func NewSyncService(cfg *config.Config, history *repositories.SyncHistoryRepository, mappings *MappingService, issues syncengine.IssueStore, cache common.CacheService) *SyncService {
	return &SyncService{
		cfg:       cfg,
		history:   history,
		mappings:  mappings,
		issues:    issues,
		cache:     cache,
		newClient: defaultClientFactory,
	}
}

// SetClientFactory replaces the upstream client constructor. Used by tests.
func (s *SyncService) SetClientFactory(factory ClientFactory) {
	s.newClient = factory
}

// Start launches a sync run and returns its id immediately; the run itself
// proceeds in the background. Performance tunables are re-read here so edits
// apply to the next run, and the active mapping is validated before any
// upstream call is made.
func (s *SyncService) Start(ctx context.Context, syncType, initiatedBy string) (string, error) {
	if syncType == "" {
		syncType = constants.SyncTypeManual
	}
	if initiatedBy == "" {
		initiatedBy = "api"
	}

	active, err := s.mappings.Active(ctx)
	if err != nil {
		return "", fmt.Errorf("cannot start sync: %w", err)
	}

	perf := config.LoadPerformance()
	clients := make(map[string]syncengine.InstanceClient, len(s.cfg.Instances))
	order := make([]string, 0, len(s.cfg.Instances))
	for _, inst := range s.cfg.Instances {
		clients[inst.ID] = s.newClient(inst, perf)
		order = append(order, inst.ID)
	}

	s.mu.Lock()
	if s.current != nil {
		logging.Info("stopping active sync before starting a new one", "sync_id", s.currentID)
		s.current.Stop()
	}

	syncID := uuid.NewString()
	orch := syncengine.NewOrchestrator(clients, order, s.issues, active.Config, perf)
	s.current = orch
	s.currentID = syncID
	s.mu.Unlock()

	if err := s.history.CreateRun(ctx, syncID, syncType, initiatedBy); err != nil {
		s.clearCurrent(syncID)
		return "", err
	}

	logging.Info("sync started",
		"sync_id", syncID,
		"sync_type", syncType,
		"initiated_by", initiatedBy,
		"mapping_version", active.Version,
	)
	go s.execute(syncID, orch)
	return syncID, nil
}

// Stop requests a graceful stop of the active run.
func (s *SyncService) Stop() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return "", fmt.Errorf("no sync is running")
	}
	s.current.Stop()
	logging.Info("sync stop requested", "sync_id", s.currentID)
	return s.currentID, nil
}

// Progress returns the live progress of the active run, or an idle snapshot.
func (s *SyncService) Progress() dtos.SyncProgress {
	s.mu.Lock()
	orch := s.current
	s.mu.Unlock()

	if orch == nil {
		return dtos.SyncProgress{Status: constants.EngineStateIdle, UpdatedAt: time.Now()}
	}
	return orch.Progress()
}

// LatestRun returns the most recent run, or nil when none has ever run.
func (s *SyncService) LatestRun(ctx context.Context) (*dtos.SyncRunSummary, error) {
	run, err := s.history.GetLatestRun(ctx)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}
	summary := runSummary(run)
	return &summary, nil
}

// ListRuns returns recent runs, newest first.
func (s *SyncService) ListRuns(ctx context.Context, limit int) ([]dtos.SyncRunSummary, error) {
	runs, err := s.history.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]dtos.SyncRunSummary, len(runs))
	for i := range runs {
		summaries[i] = runSummary(&runs[i])
	}
	return summaries, nil
}

// ProjectDetails returns the per-project breakdown of one run.
func (s *SyncService) ProjectDetails(ctx context.Context, syncID string) ([]models.ProjectSyncDetail, error) {
	return s.history.GetProjectDetails(ctx, syncID)
}

// execute drives one run to its terminal state. Whatever happens, the run row
// ends up terminal: a panic or persistence failure is recorded as failed.
func (s *SyncService) execute(syncID string, orch *syncengine.Orchestrator) {
	ctx := context.Background()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logging.Error("sync run panicked", "sync_id", syncID, "panic", fmt.Sprintf("%v", r))
			_ = s.history.CompleteRun(ctx, syncID, repositories.RunUpdate{
				Status:       constants.SyncStatusFailed,
				ErrorMessage: fmt.Sprintf("internal error: %v", r),
			})
			metrics.SyncRunsTotal.WithLabelValues(constants.SyncStatusFailed).Inc()
		}
		s.clearCurrent(syncID)
	}()

	results, runErr := orch.Run(ctx)
	duration := time.Since(start)

	status := constants.SyncStatusCompleted
	errMsg := ""
	switch {
	case runErr != nil:
		status = constants.SyncStatusFailed
		errMsg = runErr.Error()
	case orch.Stopped():
		status = constants.SyncStatusStopped
	}

	s.recordProjectDetails(ctx, syncID, results)
	s.recordRunMetrics(ctx, syncID, duration, results)

	stats := orch.Statistics()
	if err := s.history.CompleteRun(ctx, syncID, repositories.RunUpdate{
		Status:             status,
		TotalProjects:      stats.TotalProjects,
		SuccessfulProjects: stats.SuccessfulProjects,
		FailedProjects:     stats.FailedProjects,
		EmptyProjects:      stats.EmptyProjects,
		TotalIssues:        stats.TotalIssues,
		IssuesCreated:      stats.IssuesCreated,
		IssuesUpdated:      stats.IssuesUpdated,
		ErrorMessage:       errMsg,
	}); err != nil {
		logging.Error("failed to persist sync run outcome", "sync_id", syncID, "error", err.Error())
	}

	metrics.SyncRunsTotal.WithLabelValues(status).Inc()
	metrics.SyncDuration.Observe(duration.Seconds())
	metrics.ProjectsSynced.WithLabelValues(constants.ProjectStatusSuccess).Add(float64(stats.SuccessfulProjects))
	metrics.ProjectsSynced.WithLabelValues(constants.ProjectStatusFailed).Add(float64(stats.FailedProjects))
	metrics.ProjectsSynced.WithLabelValues(constants.ProjectStatusEmpty).Add(float64(stats.EmptyProjects))
	metrics.IssuesWritten.WithLabelValues("created").Add(float64(stats.IssuesCreated))
	metrics.IssuesWritten.WithLabelValues("updated").Add(float64(stats.IssuesUpdated))

	_ = s.cache.Delete(ctx, latestRunCacheKey)

	logging.Info("sync finished",
		"sync_id", syncID,
		"status", status,
		"duration", duration.String(),
		"projects", stats.TotalProjects,
		"issues", stats.TotalIssues,
	)
}

func (s *SyncService) recordProjectDetails(ctx context.Context, syncID string, results []syncengine.ProjectResult) {
	for _, res := range results {
		detail := &models.ProjectSyncDetail{
			SyncID:          syncID,
			ProjectKey:      res.ProjectKey,
			Instance:        res.InstanceID,
			Status:          res.Status,
			StartedAt:       time.Now().Add(-res.Duration),
			IssuesProcessed: res.Processed,
			IssuesCreated:   res.Created,
			IssuesUpdated:   res.Updated,
			IssuesFailed:    res.Failed,
			RetryCount:      res.Retries,
		}
		now := time.Now()
		detail.CompletedAt = &now
		if res.Err != nil {
			detail.ErrorMessage = res.Err.Error()
		}
		if err := s.history.CreateProjectDetail(ctx, detail); err != nil {
			logging.Error("failed to persist project detail",
				"sync_id", syncID,
				"project", res.ProjectKey,
				"error", err.Error(),
			)
		}
	}
}

// recordRunMetrics stores min/avg/max project durations for the run.
func (s *SyncService) recordRunMetrics(ctx context.Context, syncID string, total time.Duration, results []syncengine.ProjectResult) {
	if len(results) == 0 {
		return
	}

	min := results[0].Duration
	max := results[0].Duration
	var sum time.Duration
	for _, res := range results {
		if res.Duration < min {
			min = res.Duration
		}
		if res.Duration > max {
			max = res.Duration
		}
		sum += res.Duration
	}
	avg := sum / time.Duration(len(results))

	for name, value := range map[string]float64{
		"total_duration":       total.Seconds(),
		"min_project_duration": min.Seconds(),
		"avg_project_duration": avg.Seconds(),
		"max_project_duration": max.Seconds(),
	} {
		if err := s.history.RecordMetric(ctx, syncID, name, value, "seconds"); err != nil {
			logging.Warn("failed to record metric", "sync_id", syncID, "metric", name, "error", err.Error())
		}
	}
}

func (s *SyncService) clearCurrent(syncID string) {
	s.mu.Lock()
	if s.currentID == syncID {
		s.current = nil
		s.currentID = ""
	}
	s.mu.Unlock()
}

func runSummary(run *models.SyncRun) dtos.SyncRunSummary {
	return dtos.SyncRunSummary{
		SyncID:             run.SyncID,
		SyncType:           run.SyncType,
		Status:             run.Status,
		StartedAt:          run.StartedAt,
		CompletedAt:        run.CompletedAt,
		TotalProjects:      run.TotalProjects,
		SuccessfulProjects: run.SuccessfulProjects,
		FailedProjects:     run.FailedProjects,
		EmptyProjects:      run.EmptyProjects,
		TotalIssues:        run.TotalIssues,
		IssuesCreated:      run.IssuesCreated,
		IssuesUpdated:      run.IssuesUpdated,
		ErrorMessage:       run.ErrorMessage,
	}
}
