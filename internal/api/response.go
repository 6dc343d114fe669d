package api

import (
	"encoding/json"
	"net/http"
	"time"

	"jirapulse/internal/models/dtos"
)

func respondWithSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}, start time.Time) {
	resp := dtos.APIResponse{
		Status:       "success",
		Message:      message,
		ResponseTime: time.Since(start).String(),
		Data:         data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	resp := dtos.APIResponse{
		Status:  "error",
		Message: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
