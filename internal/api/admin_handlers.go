package api

import (
	"context"
	"net/http"
	"time"

	"jirapulse/internal/logging"
)

// IssueAdminStore covers the administrative operations on the issues table.
type IssueAdminStore interface {
	Count(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) (int64, error)
}

// AdminHandlers exposes maintenance operations on the synced issue data.
type AdminHandlers struct {
	issues IssueAdminStore
}

func NewAdminHandlers(issues IssueAdminStore) *AdminHandlers {
	return &AdminHandlers{issues: issues}
}

// GetIssueStats handles GET /admin/issues.
func (h *AdminHandlers) GetIssueStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	count, err := h.issues.Count(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusOK, "", map[string]interface{}{"total_issues": count}, start)
}

// ClearIssues handles POST /admin/issues/clear. A destructive bulk delete,
// kept behind the API key; the next full sync repopulates the table.
func (h *AdminHandlers) ClearIssues(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	deleted, err := h.issues.ClearAll(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logging.Warn("issue table cleared", "deleted", deleted)
	respondWithSuccess(w, http.StatusOK, "issues cleared", map[string]interface{}{"deleted": deleted}, start)
}
