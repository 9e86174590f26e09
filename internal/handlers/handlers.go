package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"trainsched/internal/config"
)

// authorized verifies the internal Bearer key. Every endpoint on this service
// is service-to-service; there is no end-user auth surface here.
func authorized(cfg *config.Config, r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+cfg.InternalAPIKey
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
