package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"trainsched/internal/config"
	"trainsched/internal/database"
	"trainsched/internal/models"
	"trainsched/internal/planner"
	"trainsched/internal/progression"
)

// PlansHandler exposes plan generation and inspection for internal services.
// Onboarding calls the initial endpoint after an athlete subscribes; next-week
// generation is normally driven by the nightly rollover and only called here
// for support intervention.
type PlansHandler struct {
	db          *database.DB
	config      *config.Config
	builder     *planner.Builder
	progression *progression.Engine
	logger      *slog.Logger
}

// NewPlansHandler creates a plans handler
func NewPlansHandler(db *database.DB, cfg *config.Config, builder *planner.Builder, prog *progression.Engine) *PlansHandler {
	return &PlansHandler{db: db, config: cfg, builder: builder, progression: prog, logger: slog.Default()}
}

// HandleInitial handles POST /admin/plans/initial
// Body: {"athlete_id": 123}
//
// Builds and activates week 1 for the athlete, starting next Monday in their
// local timezone.
func (h *PlansHandler) HandleInitial(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.athleteFromBody(w, r)
	if !ok {
		return
	}

	plan, sessions, err := h.builder.GenerateInitialPlan(profile)
	if err != nil {
		h.logger.Error("Initial plan generation failed", "athlete_id", profile.AthleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "plan generation failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"plan_id":     plan.ID,
		"week_number": plan.WeekNumber,
		"block_type":  plan.BlockType,
		"start_date":  plan.StartDate,
		"end_date":    plan.EndDate,
		"planned_tss": plan.PlannedTSS,
		"sessions":    sessions,
	})
}

// HandleNext handles POST /admin/plans/next
// Body: {"athlete_id": 123}
func (h *PlansHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.athleteFromBody(w, r)
	if !ok {
		return
	}

	plan, sessions, err := h.progression.GenerateNextWeek(profile)
	if err == database.ErrNoActivePlan {
		writeError(w, http.StatusConflict, "athlete has no active plan")
		return
	}
	if err != nil {
		h.logger.Error("Next week generation failed", "athlete_id", profile.AthleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "plan generation failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"plan_id":     plan.ID,
		"week_number": plan.WeekNumber,
		"block_type":  plan.BlockType,
		"start_date":  plan.StartDate,
		"end_date":    plan.EndDate,
		"planned_tss": plan.PlannedTSS,
		"sessions":    sessions,
	})
}

// HandleGet handles GET /admin/plans?athlete_id=123
//
// Returns the athlete's active plan with all of its sessions.
func (h *PlansHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !authorized(h.config, r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	athleteID, err := strconv.ParseInt(r.URL.Query().Get("athlete_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete_id parameter")
		return
	}

	plan, err := h.db.GetActivePlan(athleteID)
	if err != nil {
		h.logger.Error("Failed to load active plan", "athlete_id", athleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "no active plan")
		return
	}

	sessions, err := h.db.ListPlanSessions(plan.ID)
	if err != nil {
		h.logger.Error("Failed to load plan sessions", "plan_id", plan.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plan":     plan,
		"sessions": sessions,
	})
}

func (h *PlansHandler) athleteFromBody(w http.ResponseWriter, r *http.Request) (*models.AthleteProfile, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	if !authorized(h.config, r) {
		h.logger.Warn("Unauthorized plans request")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	var body struct {
		AthleteID int64 `json:"athlete_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	p, err := h.db.GetProfile(body.AthleteID)
	if err != nil {
		h.logger.Error("Failed to load profile", "athlete_id", body.AthleteID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return nil, false
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "athlete not found")
		return nil, false
	}
	return p, true
}
