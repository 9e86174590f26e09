package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"trainsched/internal/config"
	"trainsched/internal/database"
	"trainsched/internal/review"
)

// ReviewHandler exposes the on-demand review endpoint for support tooling
type ReviewHandler struct {
	db           *database.DB
	config       *config.Config
	orchestrator *review.Orchestrator
	logger       *slog.Logger
}

// NewReviewHandler creates a review handler
func NewReviewHandler(db *database.DB, cfg *config.Config, orchestrator *review.Orchestrator) *ReviewHandler {
	return &ReviewHandler{db: db, config: cfg, orchestrator: orchestrator, logger: slog.Default()}
}

// HandleReview handles POST /admin/review
// Body: {"athlete_id": 123}
//
// Runs every review step for one athlete immediately, ignoring time windows.
// Safe to call repeatedly: all steps check persisted state before acting.
func (h *ReviewHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !authorized(h.config, r) {
		h.logger.Warn("Unauthorized review request")
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
	local := time.Now().In(loc)

	if err := h.orchestrator.ReviewAthlete(r.Context(), profile, local, review.WindowForced); err != nil {
		h.logger.Error("On-demand review failed", "athlete_id", body.AthleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "review failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "reviewed",
		"athlete_id": body.AthleteID,
		"local_date": local.Format("2006-01-02"),
	})
}
