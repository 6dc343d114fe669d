package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jirapulse/internal/common"
	"jirapulse/internal/config"
	"jirapulse/internal/constants"
	"jirapulse/internal/db/repositories"
	"jirapulse/internal/models/dtos"
	models "jirapulse/internal/models/gorm"
	syncengine "jirapulse/internal/sync"
)

type stubClient struct {
	projects    []dtos.Project
	projectsErr error
	issues      []dtos.Issue
}

func (c *stubClient) GetProjects(ctx context.Context) ([]dtos.Project, error) {
	return c.projects, c.projectsErr
}

func (c *stubClient) SearchIssues(ctx context.Context, jql string, fields []string, startAt, maxResults int, expand []string) (*dtos.SearchResult, error) {
	if startAt > 0 {
		return &dtos.SearchResult{Total: len(c.issues)}, nil
	}
	return &dtos.SearchResult{Total: len(c.issues), Issues: c.issues}, nil
}

type countingIssueStore struct {
	upserts int
}

func (s *countingIssueStore) BatchUpsert(ctx context.Context, rows [][]interface{}) (repositories.UpsertResult, error) {
	s.upserts += len(rows)
	return repositories.UpsertResult{Processed: len(rows), Created: len(rows)}, nil
}

func setupSyncService(t *testing.T, client *stubClient) (*SyncService, *countingIssueStore) {
	t.Helper()
	db, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Configuration{}, &models.ConfigurationHistory{},
		&models.SyncRun{}, &models.ProjectSyncDetail{}, &models.SyncPerformanceMetric{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cache := common.NewMemoryCacheService()
	mappings := NewMappingService(
		repositories.NewConfigRepository(db),
		syncengine.NewSchemaSynchronizer(&recordingSchemaStore{}),
		cache,
	)
	if _, err := mappings.Save(context.Background(), dtos.SaveMappingRequest{Config: minimalMapping()}); err != nil {
		t.Fatalf("failed to seed mapping: %v", err)
	}

	store := &countingIssueStore{}
	cfg := &config.Config{
		Instances: []config.InstanceConfig{{ID: "instance_1", URL: "http://jira.local"}},
	}
	svc := NewSyncService(cfg, repositories.NewSyncHistoryRepository(db), mappings, store, cache)
	svc.newClient = func(inst config.InstanceConfig, perf config.PerformanceConfig) syncengine.InstanceClient {
		return client
	}
	return svc, store
}

func waitForTerminalRun(t *testing.T, svc *SyncService, syncID string) *dtos.SyncRunSummary {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := svc.LatestRun(context.Background())
		if err != nil {
			t.Fatalf("LatestRun returned error: %v", err)
		}
		if run != nil && run.SyncID == syncID && run.Status != constants.SyncStatusRunning {
			return run
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("sync run did not reach a terminal state")
	return nil
}

func TestStartRunsToCompletion(t *testing.T) {
	client := &stubClient{
		projects: []dtos.Project{{Key: "ABC", Name: "Alpha"}},
		issues: []dtos.Issue{
			{Key: "ABC-1", Fields: map[string]interface{}{"customfield_1": "N-100"}},
			{Key: "ABC-2", Fields: map[string]interface{}{"customfield_1": "N-101"}},
		},
	}
	svc, store := setupSyncService(t, client)

	syncID, err := svc.Start(context.Background(), constants.SyncTypeManual, "tester")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if syncID == "" {
		t.Fatal("expected a sync id")
	}

	run := waitForTerminalRun(t, svc, syncID)
	if run.Status != constants.SyncStatusCompleted {
		t.Errorf("status = %q, error = %q", run.Status, run.ErrorMessage)
	}
	if run.TotalProjects != 1 || run.SuccessfulProjects != 1 {
		t.Errorf("projects = %d/%d", run.SuccessfulProjects, run.TotalProjects)
	}
	if run.TotalIssues != 2 || run.IssuesCreated != 2 {
		t.Errorf("issues = %d created = %d", run.TotalIssues, run.IssuesCreated)
	}
	if store.upserts != 2 {
		t.Errorf("upserts = %d", store.upserts)
	}

	details, err := svc.ProjectDetails(context.Background(), syncID)
	if err != nil {
		t.Fatalf("ProjectDetails returned error: %v", err)
	}
	if len(details) != 1 || details[0].ProjectKey != "ABC" {
		t.Fatalf("details = %+v", details)
	}
	if details[0].Status != constants.ProjectStatusSuccess {
		t.Errorf("detail status = %q", details[0].Status)
	}

	// The run is over, so the engine reports idle again shortly after.
	idleDeadline := time.Now().Add(2 * time.Second)
	for svc.Progress().Status != constants.EngineStateIdle {
		if time.Now().After(idleDeadline) {
			t.Fatalf("progress status = %q, want idle", svc.Progress().Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartRecordsDiscoveryFailure(t *testing.T) {
	client := &stubClient{projectsErr: errors.New("instance down")}
	svc, _ := setupSyncService(t, client)

	syncID, err := svc.Start(context.Background(), constants.SyncTypeScheduled, "cron")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	run := waitForTerminalRun(t, svc, syncID)
	if run.Status != constants.SyncStatusFailed {
		t.Errorf("status = %q", run.Status)
	}
	if run.ErrorMessage == "" {
		t.Error("expected an error message")
	}
	if run.SyncType != constants.SyncTypeScheduled {
		t.Errorf("sync type = %q", run.SyncType)
	}
}

func TestStopWithoutActiveRun(t *testing.T) {
	svc, _ := setupSyncService(t, &stubClient{})
	if _, err := svc.Stop(); err == nil {
		t.Fatal("expected error when no sync is running")
	}
}

func TestStartRequiresActiveMapping(t *testing.T) {
	db, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Configuration{}, &models.ConfigurationHistory{}, &models.SyncRun{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cache := common.NewMemoryCacheService()
	mappings := NewMappingService(
		repositories.NewConfigRepository(db),
		syncengine.NewSchemaSynchronizer(&recordingSchemaStore{}),
		cache,
	)
	cfg := &config.Config{Instances: []config.InstanceConfig{{ID: "instance_1", URL: "http://jira.local"}}}
	svc := NewSyncService(cfg, repositories.NewSyncHistoryRepository(db), mappings, &countingIssueStore{}, cache)

	if _, err := svc.Start(context.Background(), "", ""); err == nil {
		t.Fatal("expected error without an active mapping configuration")
	}
}
