package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"trainsched/internal/config"
	"trainsched/internal/database"
	"trainsched/internal/models"
)

// ProfilesHandler receives profile syncs from the onboarding service. The
// scheduler treats profiles as read-only domain input; this endpoint is how
// the owning service pushes changes in.
type ProfilesHandler struct {
	db     *database.DB
	config *config.Config
	logger *slog.Logger
}

// NewProfilesHandler creates a profiles handler
func NewProfilesHandler(db *database.DB, cfg *config.Config) *ProfilesHandler {
	return &ProfilesHandler{db: db, config: cfg, logger: slog.Default()}
}

// HandleProfiles handles POST and GET on /admin/profiles
func (h *ProfilesHandler) HandleProfiles(w http.ResponseWriter, r *http.Request) {
	if !authorized(h.config, r) {
		h.logger.Warn("Unauthorized profiles request")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.upsert(w, r)
	case http.MethodGet:
		h.get(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ProfilesHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var profile models.AthleteProfile
	if err := decodeBody(r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if profile.AthleteID == 0 {
		writeError(w, http.StatusBadRequest, "athlete_id is required")
		return
	}
	if profile.Timezone == "" {
		profile.Timezone = "UTC"
	}

	if err := h.db.UpsertProfile(&profile); err != nil {
		h.logger.Error("Failed to upsert profile", "athlete_id", profile.AthleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "stored",
		"athlete_id": profile.AthleteID,
	})
}

func (h *ProfilesHandler) get(w http.ResponseWriter, r *http.Request) {
	athleteID, err := strconv.ParseInt(r.URL.Query().Get("athlete_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete_id parameter")
		return
	}

	profile, err := h.db.GetProfile(athleteID)
	if err != nil {
		h.logger.Error("Failed to load profile", "athlete_id", athleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "athlete not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
