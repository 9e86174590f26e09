package handlers

import (
	"log/slog"
	"net/http"

	"trainsched/internal/config"
	"trainsched/internal/database"
	"trainsched/internal/models"
)

// ReadinessHandler ingests readiness readings from the mobile app's morning
// check-in and from wearable sync pipelines
type ReadinessHandler struct {
	db     *database.DB
	config *config.Config
	logger *slog.Logger
}

// NewReadinessHandler creates a readiness intake handler
func NewReadinessHandler(db *database.DB, cfg *config.Config) *ReadinessHandler {
	return &ReadinessHandler{db: db, config: cfg, logger: slog.Default()}
}

// HandleReadiness handles POST /readiness
// Body: {"athlete_id": 123, "date": "2026-08-31", "source": "MANUAL",
//
//	"perceived_energy": 6, "perceived_soreness": 3, "perceived_mood": 7,
//	"sleep_quality": 4, "sleep_duration_min": 430,
//	"hrv": 52, "sleep_score": 81, "fatigue_score": 35}
//
// Device fields (hrv, sleep_score, fatigue_score) are optional and typically
// absent for MANUAL check-ins. Re-submitting the same (athlete, date, source)
// replaces the earlier reading.
func (h *ReadinessHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !authorized(h.config, r) {
		h.logger.Warn("Unauthorized readiness request")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var metric models.ReadinessMetric
	if err := decodeBody(r, &metric); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if metric.AthleteID == 0 || metric.Date == "" {
		writeError(w, http.StatusBadRequest, "athlete_id and date are required")
		return
	}
	if metric.Source != models.SourceManual && metric.Source != models.SourceDevice {
		writeError(w, http.StatusBadRequest, "source must be MANUAL or DEVICE")
		return
	}

	if err := h.db.UpsertReadiness(&metric); err != nil {
		h.logger.Error("Failed to store readiness", "athlete_id", metric.AthleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store readiness")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "stored",
		"athlete_id":    metric.AthleteID,
		"date":          metric.Date,
		"fatigue_score": metric.Fatigue(),
	})
}
