package sync

import (
	"sync"

	"jirapulse/internal/constants"
)

// Statistics aggregates per-project results across the worker pool.
type Statistics struct {
	mu sync.Mutex

	TotalProjects      int
	SuccessfulProjects int
	FailedProjects     int
	EmptyProjects      int
	TotalIssues        int
	IssuesCreated      int
	IssuesUpdated      int
}

// AddProjectResult folds one terminal project result into the totals.
func (s *Statistics) AddProjectResult(res ProjectResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalProjects++
	switch res.Status {
	case constants.ProjectStatusSuccess:
		s.SuccessfulProjects++
		// Issue totals cover fully synced projects only; partial work from
		// a project that failed mid-pagination stays out of them.
		s.TotalIssues += res.Processed
		s.IssuesCreated += res.Created
		s.IssuesUpdated += res.Updated
	case constants.ProjectStatusEmpty:
		s.EmptyProjects++
	default:
		s.FailedProjects++
	}
}

// Snapshot returns a copy safe to read outside the lock.
func (s *Statistics) Snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Statistics{
		TotalProjects:      s.TotalProjects,
		SuccessfulProjects: s.SuccessfulProjects,
		FailedProjects:     s.FailedProjects,
		EmptyProjects:      s.EmptyProjects,
		TotalIssues:        s.TotalIssues,
		IssuesCreated:      s.IssuesCreated,
		IssuesUpdated:      s.IssuesUpdated,
	}
}
