package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
)

type serviceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

type healthCheckResponse struct {
	Status   string                   `json:"status"`
	Uptime   string                   `json:"uptime"`
	Services map[string]serviceStatus `json:"services"`
}

// HealthCheckHandler handles GET /healthCheck
func HealthCheckHandler(db *sqlx.DB, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]serviceStatus)

		pgStatus := "ok"
		pgDetails := "Postgres Connected"
		if err := db.Ping(); err != nil {
			pgStatus = "down"
			pgDetails = err.Error()
		}
		services["postgres"] = serviceStatus{Status: pgStatus, Details: pgDetails}

		overall := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overall = "down"
				break
			}
		}

		resp := healthCheckResponse{
			Status:   overall,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
			Services: services,
		}
		w.Header().Set("Content-Type", "application/json")
		if overall != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
