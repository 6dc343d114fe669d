package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"jirapulse/internal/config"
	"jirapulse/internal/constants"
	"jirapulse/internal/db/repositories"
	"jirapulse/internal/logging"
	"jirapulse/internal/models/dtos"
)

// IssueSearcher is the slice of the upstream client the worker needs.
type IssueSearcher interface {
	SearchIssues(ctx context.Context, jql string, fields []string, startAt, maxResults int, expand []string) (*dtos.SearchResult, error)
}

// IssueStore persists assembled records.
type IssueStore interface {
	BatchUpsert(ctx context.Context, rows [][]interface{}) (repositories.UpsertResult, error)
}

// ProjectResult is the terminal outcome of syncing one project.
type ProjectResult struct {
	ProjectKey string
	InstanceID string
	Status     string
	Duration   time.Duration
	Processed  int
	Created    int
	Updated    int
	Failed     int
	Retries    int
	Err        error
}

// ProjectWorker syncs the issues of a single project: paginated JQL search,
// field resolution and sanitization, then batched upserts page by page.
type ProjectWorker struct {
	provider IssueSearcher
	store    IssueStore
	cfg      *dtos.FieldMappingConfig
	perf     config.PerformanceConfig
	stopped  *atomic.Bool

	requestFields []string
}

func NewProjectWorker(provider IssueSearcher, store IssueStore, cfg *dtos.FieldMappingConfig, perf config.PerformanceConfig, stopped *atomic.Bool) *ProjectWorker {
	return &ProjectWorker{
		provider:      provider,
		store:         store,
		cfg:           cfg,
		perf:          perf,
		stopped:       stopped,
		requestFields: requestFieldsFor(cfg),
	}
}

// SyncProject runs the full sync of one project. Upstream failures make the
// project Failed; a reachable project with no issues in the window is Empty.
func (w *ProjectWorker) SyncProject(ctx context.Context, project dtos.Project, instanceID string) ProjectResult {
	start := time.Now()
	result := ProjectResult{
		ProjectKey: project.Key,
		InstanceID: instanceID,
	}
	log := logging.WithProject(project.Key, instanceID)

	since := time.Now().AddDate(0, 0, -w.perf.LookbackDays)
	jql := fmt.Sprintf(`project = %s AND updated >= "%s" ORDER BY updated DESC`,
		project.Key, since.Format("2006-01-02 15:04"))

	startAt := 0
	for {
		if w.stopped != nil && w.stopped.Load() {
			log.Infow("stop requested, abandoning remaining pages", "processed", result.Processed)
			break
		}

		page, err := w.provider.SearchIssues(ctx, jql, w.requestFields, startAt, w.perf.BatchSize, []string{"changelog"})
		if err != nil {
			result.Status = constants.ProjectStatusFailed
			result.Err = err
			result.Duration = time.Since(start)
			log.Errorw("project sync failed", "error", err.Error())
			return result
		}
		if len(page.Issues) == 0 {
			break
		}

		rows := make([][]interface{}, 0, len(page.Issues))
		for i := range page.Issues {
			rows = append(rows, w.assembleRecord(&page.Issues[i], project, instanceID))
		}

		upsert, err := w.store.BatchUpsert(ctx, rows)
		if err != nil {
			result.Status = constants.ProjectStatusFailed
			result.Err = err
			result.Duration = time.Since(start)
			return result
		}
		result.Processed += upsert.Processed
		result.Created += upsert.Created
		result.Updated += upsert.Updated
		result.Failed += upsert.Failed
		result.Retries += upsert.Retried

		startAt += len(page.Issues)
		if startAt >= page.Total {
			break
		}
	}

	result.Duration = time.Since(start)
	if result.Processed == 0 {
		result.Status = constants.ProjectStatusEmpty
		if w.stopped != nil && w.stopped.Load() {
			// Empty here means interrupted, not that the window had no issues.
			log.Infow("project interrupted before any issues were processed")
		}
	} else {
		result.Status = constants.ProjectStatusSuccess
		log.Infow("project synced",
			"issues", result.Processed,
			"created", result.Created,
			"updated", result.Updated,
			"duration", result.Duration.String(),
		)
	}
	return result
}

// assembleRecord builds one row in the declared column order. The changelog is
// walked once per issue; every value passes through sanitization.
func (w *ProjectWorker) assembleRecord(issue *dtos.Issue, project dtos.Project, instanceID string) []interface{} {
	transitions := ExtractTransitions(issue.Changelog)

	row := make([]interface{}, len(constants.IssueColumns))
	for i, column := range constants.IssueColumns {
		switch column {
		case "issue_key":
			row[i] = issue.Key
			continue
		case "project_name":
			row[i] = project.Name
			continue
		case "last_updated":
			row[i] = time.Now().UTC()
			continue
		}

		fieldKey, ok := constants.ColumnToFieldKey[column]
		if !ok {
			row[i] = nil
			continue
		}

		def := w.cfg.FindField(fieldKey)
		if def == nil {
			// Milestone columns load from the changelog even without an
			// explicit mapping entry.
			if ts := transitions[column]; ts != nil {
				row[i] = *ts
			}
			continue
		}

		raw := Resolve(def, fieldKey, instanceID, issue, transitions)
		row[i] = Sanitize(raw, def.Type)
	}
	return row
}

// requestFieldsFor collects the upstream field ids the configuration can
// touch, so searches fetch only what resolution needs.
func requestFieldsFor(cfg *dtos.FieldMappingConfig) []string {
	ids := map[string]bool{
		"summary": true,
		"status":  true,
		"updated": true,
	}

	for _, group := range cfg.FieldGroups {
		for _, def := range group.Fields {
			if def.FieldID != "" {
				ids[def.FieldID] = true
			}
			if def.FieldPath != "" {
				ids[rootSegment(def.FieldPath)] = true
			}
			for _, mapping := range []*dtos.InstanceMapping{def.Instance1, def.Instance2} {
				if mapping == nil {
					continue
				}
				if mapping.FieldID != "" {
					ids[mapping.FieldID] = true
				}
				for _, id := range mapping.FieldIDs {
					ids[id] = true
				}
				if mapping.FieldPath != "" {
					ids[rootSegment(mapping.FieldPath)] = true
				}
			}
		}
	}

	fields := make([]string, 0, len(ids))
	for id := range ids {
		fields = append(fields, id)
	}
	sort.Strings(fields)
	return fields
}

func rootSegment(path string) string {
	if i := strings.IndexByte(path, '.'); i > 0 {
		return path[:i]
	}
	return path
}
