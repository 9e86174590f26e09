package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"trainsched/internal/adjust"
	"trainsched/internal/config"
	"trainsched/internal/database"
	"trainsched/internal/models"
)

// TravelHandler lets support declare a travel week for an athlete
type TravelHandler struct {
	db       *database.DB
	config   *config.Config
	adjuster *adjust.Engine
	logger   *slog.Logger
}

// NewTravelHandler creates a travel handler
func NewTravelHandler(db *database.DB, cfg *config.Config, adjuster *adjust.Engine) *TravelHandler {
	return &TravelHandler{db: db, config: cfg, adjuster: adjuster, logger: slog.Default()}
}

// HandleTravel handles POST /admin/travel
// Body: {"athlete_id": 123}
//
// Compresses the rest of the athlete's current plan for travel: at most three
// sessions remain, converted to bodyweight work, with one endurance session
// kept as an equipment-free run. Calling it again the same day is a no-op.
func (h *TravelHandler) HandleTravel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !authorized(h.config, r) {
		h.logger.Warn("Unauthorized travel request")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		AthleteID int64 `json:"athlete_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.db.GetProfile(body.AthleteID)
	if err != nil {
		h.logger.Error("Failed to load profile", "athlete_id", body.AthleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "athlete not found")
		return
	}

	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	today := time.Now().In(loc).Format(models.DateLayout)

	if err := h.adjuster.TravelWeek(profile, today); err != nil {
		h.logger.Error("Travel adjustment failed", "athlete_id", body.AthleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "travel adjustment failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "adjusted",
		"athlete_id": body.AthleteID,
		"date":       today,
	})
}
