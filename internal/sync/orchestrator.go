package sync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"jirapulse/internal/config"
	"jirapulse/internal/constants"
	"jirapulse/internal/logging"
	"jirapulse/internal/models/dtos"
)

// InstanceClient is the upstream surface the orchestrator needs per instance.
type InstanceClient interface {
	IssueSearcher
	GetProjects(ctx context.Context) ([]dtos.Project, error)
}

type projectTask struct {
	project    dtos.Project
	instanceID string
}

// Orchestrator runs one full sync: project discovery across every configured
// instance, then a bounded pool of project workers. One orchestrator serves
// exactly one run.
type Orchestrator struct {
	clients   map[string]InstanceClient
	instances []string // deterministic discovery order
	store     IssueStore
	cfg       *dtos.FieldMappingConfig
	perf      config.PerformanceConfig

	stopped atomic.Bool
	stats   Statistics

	mu        sync.Mutex
	state     string
	total     int
	completed int
	issues    int
	startedAt *time.Time
}

func NewOrchestrator(clients map[string]InstanceClient, instanceOrder []string, store IssueStore, cfg *dtos.FieldMappingConfig, perf config.PerformanceConfig) *Orchestrator {
	return &Orchestrator{
		clients:   clients,
		instances: instanceOrder,
		store:     store,
		cfg:       cfg,
		perf:      perf,
		state:     constants.EngineStateIdle,
	}
}

// Stop requests a graceful halt. In-flight projects finish their current page;
// queued projects are abandoned.
func (o *Orchestrator) Stop() {
	o.stopped.Store(true)
}

// Stopped reports whether a stop was requested.
func (o *Orchestrator) Stopped() bool {
	return o.stopped.Load()
}

// Run executes the sync and returns every terminal project result. It only
// returns an error when no instance could be discovered at all.
func (o *Orchestrator) Run(ctx context.Context) ([]ProjectResult, error) {
	now := time.Now()
	o.mu.Lock()
	o.state = constants.EngineStateRunning
	o.startedAt = &now
	o.mu.Unlock()

	tasks, err := o.discoverProjects(ctx)
	if err != nil {
		o.setState(constants.EngineStateIdle)
		return nil, err
	}

	o.mu.Lock()
	o.total = len(tasks)
	o.mu.Unlock()

	results := o.runPool(ctx, tasks)

	if o.stopped.Load() {
		o.setState(constants.EngineStateStopped)
	} else {
		o.setState(constants.EngineStateIdle)
	}
	return results, nil
}

// discoverProjects lists projects on every instance. A failing instance only
// loses its own projects; the run aborts only when every instance fails.
func (o *Orchestrator) discoverProjects(ctx context.Context) ([]projectTask, error) {
	var tasks []projectTask
	var failures []error

	for _, instanceID := range o.instances {
		if o.stopped.Load() {
			break
		}
		client := o.clients[instanceID]

		projects, err := client.GetProjects(ctx)
		if err != nil {
			logging.Error("project discovery failed",
				"instance", instanceID,
				"error", err.Error(),
			)
			failures = append(failures, fmt.Errorf("%s: %w", instanceID, err))
			continue
		}
		logging.Info("discovered projects", "instance", instanceID, "count", len(projects))
		for _, p := range projects {
			tasks = append(tasks, projectTask{project: p, instanceID: instanceID})
		}
	}

	if len(tasks) == 0 && len(failures) == len(o.instances) && len(failures) > 0 {
		return nil, fmt.Errorf("project discovery failed on every instance: %v", failures)
	}
	return tasks, nil
}

// runPool fans project tasks out over a bounded worker pool and collects every
// terminal result. A project exceeding the configured timeout is recorded as
// Failed and its context cancelled.
func (o *Orchestrator) runPool(ctx context.Context, tasks []projectTask) []ProjectResult {
	workers := int64(o.perf.MaxWorkers)
	if workers <= 0 {
		workers = 8
	}
	sem := semaphore.NewWeighted(workers)

	resultCh := make(chan ProjectResult, len(tasks))
	var wg sync.WaitGroup

	// Results are folded in as workers finish so progress and statistics
	// advance during the run, not after the last project.
	results := make([]ProjectResult, 0, len(tasks))
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for res := range resultCh {
			o.stats.AddProjectResult(res)
			o.mu.Lock()
			o.completed++
			if res.Status == constants.ProjectStatusSuccess {
				o.issues += res.Processed
			}
			o.mu.Unlock()
			results = append(results, res)
		}
	}()

	for _, task := range tasks {
		if o.stopped.Load() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(task projectTask) {
			defer wg.Done()
			defer sem.Release(1)
			resultCh <- o.runProject(ctx, task)
		}(task)
	}

	wg.Wait()
	close(resultCh)
	<-collected
	return results
}

// runProject runs one worker under the per-project wall clock.
func (o *Orchestrator) runProject(ctx context.Context, task projectTask) ProjectResult {
	timeout := o.perf.ProjectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	projectCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	worker := NewProjectWorker(o.clients[task.instanceID], o.store, o.cfg, o.perf, &o.stopped)

	start := time.Now()
	done := make(chan ProjectResult, 1)
	go func() {
		// A panicking payload path fails this project, not the run.
		defer func() {
			if r := recover(); r != nil {
				logging.Error("project worker panicked",
					"project", task.project.Key,
					"instance", task.instanceID,
					"panic", fmt.Sprintf("%v", r),
				)
				done <- ProjectResult{
					ProjectKey: task.project.Key,
					InstanceID: task.instanceID,
					Status:     constants.ProjectStatusFailed,
					Duration:   time.Since(start),
					Err:        fmt.Errorf("internal error: %v", r),
				}
			}
		}()
		done <- worker.SyncProject(projectCtx, task.project, task.instanceID)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res
	case <-timer.C:
		cancel()
		logging.Error("project timed out",
			"project", task.project.Key,
			"instance", task.instanceID,
			"timeout", timeout.String(),
		)
		return ProjectResult{
			ProjectKey: task.project.Key,
			InstanceID: task.instanceID,
			Status:     constants.ProjectStatusFailed,
			Duration:   timeout,
			Err:        fmt.Errorf("project %s timed out after %s", task.project.Key, timeout),
		}
	}
}

// Statistics returns the aggregated totals so far.
func (o *Orchestrator) Statistics() Statistics {
	return o.stats.Snapshot()
}

// Progress returns a point-in-time snapshot for the API layer.
func (o *Orchestrator) Progress() dtos.SyncProgress {
	o.mu.Lock()
	defer o.mu.Unlock()

	progress := dtos.SyncProgress{
		Status:          o.state,
		CurrentProjects: o.completed,
		TotalProjects:   o.total,
		CurrentIssues:   o.issues,
		StartedAt:       o.startedAt,
		UpdatedAt:       time.Now(),
	}
	if o.total > 0 {
		progress.ProgressPercentage = float64(o.completed) / float64(o.total) * 100
	}
	return progress
}

func (o *Orchestrator) setState(state string) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
}
