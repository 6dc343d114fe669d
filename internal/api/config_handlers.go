package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"jirapulse/internal/models/dtos"
	"jirapulse/internal/services"
)

// ConfigHandlers exposes the versioned field-mapping configuration.
type ConfigHandlers struct {
	mappings *services.MappingService
}

func NewConfigHandlers(mappings *services.MappingService) *ConfigHandlers {
	return &ConfigHandlers{mappings: mappings}
}

// GetFieldMappings handles GET /config/field-mappings.
func (h *ConfigHandlers) GetFieldMappings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	active, err := h.mappings.Active(r.Context())
	if err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	data := map[string]interface{}{
		"version":    active.Version,
		"updated_at": active.UpdatedAt,
		"config":     active.Config,
	}
	respondWithSuccess(w, http.StatusOK, "", data, start)
}

// SaveFieldMappings handles POST /config/field-mappings. Validation failures
// are 400s; a valid save always succeeds even when the follow-up schema sync
// reports errors.
func (h *ConfigHandlers) SaveFieldMappings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req dtos.SaveMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Config.FieldGroups) == 0 {
		respondWithError(w, http.StatusBadRequest, "config.field_groups must not be empty")
		return
	}

	resp, err := h.mappings.Save(r.Context(), req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusOK, "configuration saved", resp, start)
}

// GetMappingHistory handles GET /config/field-mappings/history?limit=N.
func (h *ConfigHandlers) GetMappingHistory(w http.ResponseWriter, r *http.Request) {
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

	history, err := h.mappings.History(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusOK, "", history, start)
}

// TriggerSchemaSync handles POST /config/schema/sync: reconcile the issues
// table against the active mapping on demand.
func (h *ConfigHandlers) TriggerSchemaSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.mappings.SyncSchema(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusOK, "schema synchronized", result, start)
}
