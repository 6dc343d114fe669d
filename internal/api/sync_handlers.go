package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"jirapulse/internal/constants"
	"jirapulse/internal/models/dtos"
	"jirapulse/internal/services"
)

// SyncHandlers exposes the sync run lifecycle over HTTP.
type SyncHandlers struct {
	svc *services.SyncService
}

func NewSyncHandlers(svc *services.SyncService) *SyncHandlers {
	return &SyncHandlers{svc: svc}
}

// StartSync handles POST /sync/start. The body is optional; an empty body
// starts a manual sync attributed to the API.
func (h *SyncHandlers) StartSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req dtos.StartSyncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	syncID, err := h.svc.Start(r.Context(), req.SyncType, req.InitiatedBy)
	if err != nil {
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}

	respondWithSuccess(w, http.StatusAccepted, "sync started", dtos.StartSyncResponse{SyncID: syncID}, start)
}

// StopSync handles POST /sync/stop.
func (h *SyncHandlers) StopSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	syncID, err := h.svc.Stop()
	if err != nil {
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}

	respondWithSuccess(w, http.StatusOK, "stop requested", dtos.StartSyncResponse{SyncID: syncID}, start)
}

// GetProgress handles GET /sync/progress.
func (h *SyncHandlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	respondWithSuccess(w, http.StatusOK, "", h.svc.Progress(), time.Now())
}

// GetStatus handles GET /sync/status: the engine state plus the latest run.
func (h *SyncHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	latest, err := h.svc.LatestRun(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data := map[string]interface{}{
		"engine": h.svc.Progress().Status,
	}
	if latest != nil {
		data["latest_run"] = latest
	}
	respondWithSuccess(w, http.StatusOK, "", data, start)
}

// ListHistory handles GET /sync/history?limit=N.
func (h *SyncHandlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	runs, err := h.svc.ListRuns(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusOK, "", runs, start)
}

// GetRunDetails handles GET /sync/history/{syncID}: per-project breakdown.
func (h *SyncHandlers) GetRunDetails(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	syncID := chi.URLParam(r, "syncID")
	details, err := h.svc.ProjectDetails(r.Context(), syncID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(details) == 0 {
		respondWithError(w, http.StatusNotFound, "no project details for sync "+syncID)
		return
	}

	failed := 0
	for _, d := range details {
		if d.Status == constants.ProjectStatusFailed {
			failed++
		}
	}
	data := map[string]interface{}{
		"sync_id":         syncID,
		"projects":        details,
		"failed_projects": failed,
	}
	respondWithSuccess(w, http.StatusOK, "", data, start)
}
