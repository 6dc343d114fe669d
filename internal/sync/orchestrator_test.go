package sync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jirapulse/internal/config"
	"jirapulse/internal/constants"
	"jirapulse/internal/db/repositories"
	"jirapulse/internal/models/dtos"
)

type fakeClient struct {
	mu           sync.Mutex
	projects     []dtos.Project
	projectsErr  error
	issuesByKey  map[string][]dtos.Issue
	searchErrFor map[string]error
	searchErrAt  map[string]int // startAt from which searches fail
	pageTotal    map[string]int // overrides Total to force pagination
	searchCalls  int
	onSearch     func(jql string)
	block        bool
}

func (f *fakeClient) GetProjects(ctx context.Context) ([]dtos.Project, error) {
	if f.projectsErr != nil {
		return nil, f.projectsErr
	}
	return f.projects, nil
}

func (f *fakeClient) SearchIssues(ctx context.Context, jql string, fields []string, startAt, maxResults int, expand []string) (*dtos.SearchResult, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.onSearch != nil {
		f.onSearch(jql)
	}

	key := projectKeyFromJQL(jql)
	if err := f.searchErrFor[key]; err != nil {
		return nil, err
	}
	if at, ok := f.searchErrAt[key]; ok && startAt >= at {
		return nil, errors.New("page fetch failed")
	}

	issues := f.issuesByKey[key]
	end := startAt + maxResults
	if end > len(issues) {
		end = len(issues)
	}
	var page []dtos.Issue
	if startAt < len(issues) {
		page = issues[startAt:end]
	}

	total := len(issues)
	if t, ok := f.pageTotal[key]; ok {
		total = t
	}
	return &dtos.SearchResult{StartAt: startAt, MaxResults: maxResults, Total: total, Issues: page}, nil
}

func projectKeyFromJQL(jql string) string {
	// JQL is always "project = KEY AND ...".
	var key string
	for i := len("project = "); i < len(jql); i++ {
		if jql[i] == ' ' {
			key = jql[len("project = "):i]
			break
		}
	}
	return key
}

type fakeIssueStore struct {
	mu   sync.Mutex
	rows [][]interface{}
	err  error
}

func (f *fakeIssueStore) BatchUpsert(ctx context.Context, rows [][]interface{}) (repositories.UpsertResult, error) {
	if f.err != nil {
		return repositories.UpsertResult{}, f.err
	}
	f.mu.Lock()
	f.rows = append(f.rows, rows...)
	f.mu.Unlock()
	return repositories.UpsertResult{Processed: len(rows), Created: len(rows)}, nil
}

func testIssue(key, summary string) dtos.Issue {
	return dtos.Issue{
		ID:  key,
		Key: key,
		Fields: map[string]interface{}{
			"summary": summary,
			"status":  map[string]interface{}{"name": "Scheduled"},
		},
	}
}

func workerConfig() *dtos.FieldMappingConfig {
	return &dtos.FieldMappingConfig{
		FieldGroups: map[string]dtos.FieldGroup{
			"core": {
				Fields: map[string]dtos.FieldDefinition{
					"summary": {Type: dtos.FieldTypeString, SystemField: true, FieldID: "summary"},
					"status":  {Type: dtos.FieldTypeStatus, Source: dtos.SourceSystem, FieldPath: "status.name"},
				},
			},
		},
	}
}

func testPerf() config.PerformanceConfig {
	return config.PerformanceConfig{
		MaxWorkers:     4,
		ProjectTimeout: 5 * time.Second,
		BatchSize:      50,
		LookbackDays:   60,
	}
}

func TestWorkerAssemblesRecordsInColumnOrder(t *testing.T) {
	client := &fakeClient{
		issuesByKey: map[string][]dtos.Issue{
			"ABC": {testIssue("ABC-1", "First issue")},
		},
	}
	store := &fakeIssueStore{}
	var stopped atomic.Bool

	worker := NewProjectWorker(client, store, workerConfig(), testPerf(), &stopped)
	result := worker.SyncProject(context.Background(), dtos.Project{Key: "ABC", Name: "Alpha"}, "instance_1")

	if result.Status != constants.ProjectStatusSuccess {
		t.Fatalf("status = %q, err = %v", result.Status, result.Err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(store.rows))
	}

	row := store.rows[0]
	if len(row) != len(constants.IssueColumns) {
		t.Fatalf("row arity = %d, want %d", len(row), len(constants.IssueColumns))
	}
	if row[0] != "ABC-1" {
		t.Errorf("issue_key = %v", row[0])
	}
	if row[1] != "First issue" {
		t.Errorf("summary = %v", row[1])
	}
	if row[2] != "Scheduled" {
		t.Errorf("status = %v", row[2])
	}
	if row[3] != "Alpha" {
		t.Errorf("project_name = %v", row[3])
	}
	if _, ok := row[len(row)-1].(time.Time); !ok {
		t.Errorf("last_updated should be a timestamp, got %T", row[len(row)-1])
	}
}

func TestWorkerEmptyProject(t *testing.T) {
	client := &fakeClient{issuesByKey: map[string][]dtos.Issue{}}
	store := &fakeIssueStore{}
	var stopped atomic.Bool

	worker := NewProjectWorker(client, store, workerConfig(), testPerf(), &stopped)
	result := worker.SyncProject(context.Background(), dtos.Project{Key: "ABC", Name: "Alpha"}, "instance_1")

	if result.Status != constants.ProjectStatusEmpty {
		t.Errorf("status = %q", result.Status)
	}
	if result.Err != nil {
		t.Errorf("unexpected error: %v", result.Err)
	}
}

func TestWorkerStopsBetweenPages(t *testing.T) {
	var stopped atomic.Bool
	issues := make([]dtos.Issue, 4)
	for i := range issues {
		issues[i] = testIssue("ABC-"+string(rune('1'+i)), "issue")
	}

	client := &fakeClient{
		issuesByKey: map[string][]dtos.Issue{"ABC": issues},
		pageTotal:   map[string]int{"ABC": 100},
		onSearch:    func(string) { stopped.Store(true) },
	}
	store := &fakeIssueStore{}

	perf := testPerf()
	perf.BatchSize = 2
	worker := NewProjectWorker(client, store, workerConfig(), perf, &stopped)
	result := worker.SyncProject(context.Background(), dtos.Project{Key: "ABC", Name: "Alpha"}, "instance_1")

	// The first page completes and persists, then the stop flag is observed.
	if result.Processed != 2 {
		t.Errorf("processed = %d, want 2", result.Processed)
	}
	if client.searchCalls != 1 {
		t.Errorf("search calls = %d, want 1", client.searchCalls)
	}
	if result.Status != constants.ProjectStatusSuccess {
		t.Errorf("status = %q", result.Status)
	}
}

func TestOrchestratorAggregatesMixedResults(t *testing.T) {
	client := &fakeClient{
		projects: []dtos.Project{
			{Key: "A", Name: "Alpha"},
			{Key: "B", Name: "Bravo"},
			{Key: "C", Name: "Charlie"},
		},
		issuesByKey: map[string][]dtos.Issue{
			"A": {testIssue("A-1", "one"), testIssue("A-2", "two")},
		},
		searchErrFor: map[string]error{"B": errors.New("boom")},
	}
	store := &fakeIssueStore{}

	o := NewOrchestrator(
		map[string]InstanceClient{"instance_1": client},
		[]string{"instance_1"},
		store, workerConfig(), testPerf(),
	)

	results, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	stats := o.Statistics()
	if stats.TotalProjects != 3 {
		t.Errorf("total = %d", stats.TotalProjects)
	}
	if stats.SuccessfulProjects != 1 || stats.FailedProjects != 1 || stats.EmptyProjects != 1 {
		t.Errorf("success/failed/empty = %d/%d/%d",
			stats.SuccessfulProjects, stats.FailedProjects, stats.EmptyProjects)
	}
	if stats.TotalIssues != 2 || stats.IssuesCreated != 2 {
		t.Errorf("issues = %d created = %d", stats.TotalIssues, stats.IssuesCreated)
	}
	if got := stats.SuccessfulProjects + stats.FailedProjects + stats.EmptyProjects; got != stats.TotalProjects {
		t.Errorf("status counts %d do not sum to total %d", got, stats.TotalProjects)
	}

	progress := o.Progress()
	if progress.Status != constants.EngineStateIdle {
		t.Errorf("state = %q", progress.Status)
	}
	if progress.ProgressPercentage != 100 {
		t.Errorf("progress = %v", progress.ProgressPercentage)
	}
}

func TestStatisticsExcludePartiallyFailedProject(t *testing.T) {
	client := &fakeClient{
		projects: []dtos.Project{
			{Key: "A", Name: "Alpha"},
			{Key: "B", Name: "Bravo"},
		},
		issuesByKey: map[string][]dtos.Issue{
			"A": {testIssue("A-1", "one")},
			"B": {
				testIssue("B-1", "b1"), testIssue("B-2", "b2"),
				testIssue("B-3", "b3"), testIssue("B-4", "b4"),
			},
		},
		// Page 1 of B persists, page 2 fails.
		searchErrAt: map[string]int{"B": 2},
		pageTotal:   map[string]int{"B": 4},
	}
	store := &fakeIssueStore{}

	perf := testPerf()
	perf.BatchSize = 2
	o := NewOrchestrator(
		map[string]InstanceClient{"instance_1": client},
		[]string{"instance_1"},
		store, workerConfig(), perf,
	)

	results, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var bravo ProjectResult
	for _, res := range results {
		if res.ProjectKey == "B" {
			bravo = res
		}
	}
	if bravo.Status != constants.ProjectStatusFailed {
		t.Fatalf("B status = %q", bravo.Status)
	}
	if bravo.Processed != 2 {
		t.Errorf("B processed = %d, want 2", bravo.Processed)
	}

	stats := o.Statistics()
	if stats.SuccessfulProjects != 1 || stats.FailedProjects != 1 {
		t.Errorf("success/failed = %d/%d", stats.SuccessfulProjects, stats.FailedProjects)
	}
	// B's partial pages stay out of the run totals.
	if stats.TotalIssues != 1 || stats.IssuesCreated != 1 {
		t.Errorf("issues = %d created = %d, want 1/1", stats.TotalIssues, stats.IssuesCreated)
	}
	if o.Progress().CurrentIssues != 1 {
		t.Errorf("current issues = %d, want 1", o.Progress().CurrentIssues)
	}
}

func TestProgressAdvancesDuringRun(t *testing.T) {
	fast := &fakeClient{
		projects:    []dtos.Project{{Key: "FAST", Name: "Fast"}},
		issuesByKey: map[string][]dtos.Issue{"FAST": {testIssue("FAST-1", "one")}},
	}
	slow := &fakeClient{
		projects: []dtos.Project{{Key: "SLOW", Name: "Slow"}},
		block:    true,
	}

	perf := testPerf()
	perf.ProjectTimeout = time.Second
	o := NewOrchestrator(
		map[string]InstanceClient{"instance_1": fast, "instance_2": slow},
		[]string{"instance_1", "instance_2"},
		&fakeIssueStore{}, workerConfig(), perf,
	)

	done := make(chan []ProjectResult, 1)
	go func() {
		results, _ := o.Run(context.Background())
		done <- results
	}()

	// The fast project's completion must be visible while the slow one is
	// still held open.
	sawMidRun := false
	deadline := time.Now().Add(800 * time.Millisecond)
	for time.Now().Before(deadline) {
		p := o.Progress()
		if p.CurrentProjects == 1 && p.TotalProjects == 2 {
			sawMidRun = true
			if p.ProgressPercentage != 50 {
				t.Errorf("percentage = %v, want 50", p.ProgressPercentage)
			}
			if p.CurrentIssues != 1 {
				t.Errorf("current issues = %d, want 1", p.CurrentIssues)
			}
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !sawMidRun {
		t.Error("progress never advanced while a project was still running")
	}

	results := <-done
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestWorkerPanicFailsOnlyThatProject(t *testing.T) {
	healthy := &fakeClient{
		projects:    []dtos.Project{{Key: "A", Name: "Alpha"}},
		issuesByKey: map[string][]dtos.Issue{"A": {testIssue("A-1", "one")}},
	}

	o := NewOrchestrator(
		map[string]InstanceClient{"instance_1": healthy, "instance_2": panickyClient{}},
		[]string{"instance_1", "instance_2"},
		&fakeIssueStore{}, workerConfig(), testPerf(),
	)

	results, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byKey := map[string]ProjectResult{}
	for _, res := range results {
		byKey[res.ProjectKey] = res
	}
	if byKey["A"].Status != constants.ProjectStatusSuccess {
		t.Errorf("A status = %q", byKey["A"].Status)
	}
	bad := byKey["BAD"]
	if bad.Status != constants.ProjectStatusFailed {
		t.Errorf("BAD status = %q", bad.Status)
	}
	if bad.Err == nil || !strings.Contains(bad.Err.Error(), "internal error") {
		t.Errorf("BAD err = %v", bad.Err)
	}
	if o.Statistics().TotalIssues != 1 {
		t.Errorf("issues = %d, want 1", o.Statistics().TotalIssues)
	}
}

type panickyClient struct{}

func (panickyClient) GetProjects(ctx context.Context) ([]dtos.Project, error) {
	return []dtos.Project{{Key: "BAD", Name: "Bad"}}, nil
}

func (panickyClient) SearchIssues(ctx context.Context, jql string, fields []string, startAt, maxResults int, expand []string) (*dtos.SearchResult, error) {
	panic("unexpected payload shape")
}

type flakyStore struct{}

func (flakyStore) BatchUpsert(ctx context.Context, rows [][]interface{}) (repositories.UpsertResult, error) {
	return repositories.UpsertResult{
		Processed: len(rows) - 1,
		Created:   len(rows) - 1,
		Failed:    1,
		Retried:   len(rows),
	}, nil
}

func TestWorkerCarriesFailedAndRetriedCounts(t *testing.T) {
	client := &fakeClient{
		issuesByKey: map[string][]dtos.Issue{
			"ABC": {testIssue("ABC-1", "a"), testIssue("ABC-2", "b"), testIssue("ABC-3", "c")},
		},
	}
	var stopped atomic.Bool

	worker := NewProjectWorker(client, flakyStore{}, workerConfig(), testPerf(), &stopped)
	result := worker.SyncProject(context.Background(), dtos.Project{Key: "ABC", Name: "Alpha"}, "instance_1")

	if result.Status != constants.ProjectStatusSuccess {
		t.Fatalf("status = %q, err = %v", result.Status, result.Err)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if result.Retries != 3 {
		t.Errorf("retries = %d, want 3", result.Retries)
	}
}

func TestOrchestratorFailedInstanceOnlyLosesItsProjects(t *testing.T) {
	healthy := &fakeClient{
		projects:    []dtos.Project{{Key: "A", Name: "Alpha"}},
		issuesByKey: map[string][]dtos.Issue{"A": {testIssue("A-1", "one")}},
	}
	broken := &fakeClient{projectsErr: errors.New("401")}

	o := NewOrchestrator(
		map[string]InstanceClient{"instance_1": healthy, "instance_2": broken},
		[]string{"instance_1", "instance_2"},
		&fakeIssueStore{}, workerConfig(), testPerf(),
	)

	results, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 || results[0].ProjectKey != "A" {
		t.Fatalf("results = %+v", results)
	}
	if o.Statistics().SuccessfulProjects != 1 {
		t.Errorf("stats = %+v", o.Statistics())
	}
}

func TestOrchestratorAllInstancesFailing(t *testing.T) {
	broken := &fakeClient{projectsErr: errors.New("down")}

	o := NewOrchestrator(
		map[string]InstanceClient{"instance_1": broken},
		[]string{"instance_1"},
		&fakeIssueStore{}, workerConfig(), testPerf(),
	)

	if _, err := o.Run(context.Background()); err == nil {
		t.Fatal("expected error when every instance fails discovery")
	}
}

func TestOrchestratorProjectTimeout(t *testing.T) {
	client := &fakeClient{
		projects: []dtos.Project{{Key: "SLOW", Name: "Slow"}},
		block:    true,
	}

	perf := testPerf()
	perf.ProjectTimeout = 50 * time.Millisecond
	o := NewOrchestrator(
		map[string]InstanceClient{"instance_1": client},
		[]string{"instance_1"},
		&fakeIssueStore{}, workerConfig(), perf,
	)

	results, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Status != constants.ProjectStatusFailed {
		t.Errorf("status = %q", results[0].Status)
	}
	if results[0].Err == nil {
		t.Error("expected timeout error")
	}
}

func TestOrchestratorStopBeforeRunSkipsEverything(t *testing.T) {
	client := &fakeClient{projects: []dtos.Project{{Key: "A", Name: "Alpha"}}}

	o := NewOrchestrator(
		map[string]InstanceClient{"instance_1": client},
		[]string{"instance_1"},
		&fakeIssueStore{}, workerConfig(), testPerf(),
	)
	o.Stop()

	results, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if o.Progress().Status != constants.EngineStateStopped {
		t.Errorf("state = %q", o.Progress().Status)
	}
}
