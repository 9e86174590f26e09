package progression

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"trainsched/internal/database"
	"trainsched/internal/metrics"
	"trainsched/internal/models"
	"trainsched/internal/planner"
)

// Load-safety clamp bounds: week-over-week total prescribed load may not
// change by more than these factors, regardless of what the volume heuristic
// selected.
const (
	clampFloor   = 0.60
	clampCeiling = 1.10
)

// Volume multipliers selected by the adherence/readiness heuristic
const (
	multDeload   = 0.60
	multOverload = 1.08
	multReduced  = 0.90
	multDefault  = 1.0
)

// readinessLookbackDays is the trailing window of readiness rows consulted
// for the sustained-fatigue and energy checks
const readinessLookbackDays = 14

// BlockForWeek maps a week number to its periodization phase. Every 4th week
// is a deload; the remaining weeks cycle through four base weeks then four
// build weeks.
func BlockForWeek(week int) models.BlockType {
	if week%4 == 0 {
		return models.BlockDeload
	}
	cycle := ((week - 1) % 8) + 1
	if cycle <= 4 {
		return models.BlockBase
	}
	return models.BlockBuild
}

// Engine rolls a plan over to the next week, choosing the block type and
// volume from recent adherence and readiness, then clamping total load
type Engine struct {
	db      *database.DB
	builder *planner.Builder
	logger  *slog.Logger
}

// NewEngine creates a progression engine
func NewEngine(db *database.DB, builder *planner.Builder) *Engine {
	return &Engine{db: db, builder: builder, logger: slog.Default()}
}

// GenerateNextWeek builds and activates the week following the athlete's
// current active plan. The previous plan is deactivated in the same
// transaction that activates the new one.
func (e *Engine) GenerateNextWeek(profile *models.AthleteProfile) (*models.WorkoutPlan, int, error) {
	if profile == nil {
		return nil, 0, database.ErrProfileNotFound
	}

	current, err := e.db.GetActivePlan(profile.AthleteID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load active plan: %w", err)
	}
	if current == nil {
		return nil, 0, database.ErrNoActivePlan
	}

	week := current.WeekNumber + 1
	block := BlockForWeek(week)

	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	today := time.Now().In(loc)

	multiplier, reason, err := e.volumeMultiplier(profile.AthleteID, block, today)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select volume multiplier: %w", err)
	}

	prevEnd, err := time.ParseInLocation(models.DateLayout, current.EndDate, loc)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse plan end date: %w", err)
	}
	start := prevEnd.AddDate(0, 0, 1)

	plan, sessions, err := e.builder.BuildWeek(profile, week, block, start, multiplier)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build week %d: %w", week, err)
	}

	// Load-safety clamp, applied after the volume heuristic: the new total
	// must land within [0.60, 1.10] of the previous week's total.
	if current.PlannedTSS > 0 {
		clamped := ClampTotal(plan.PlannedTSS, current.PlannedTSS)
		if clamped != plan.PlannedTSS {
			rescaleSessions(sessions, float64(clamped)/float64(plan.PlannedTSS))
			plan.PlannedTSS = clamped
		}
	}

	if err := e.db.CreatePlanWithSessions(plan, sessions); err != nil {
		return nil, 0, fmt.Errorf("failed to persist next week: %w", err)
	}

	metrics.PlansGeneratedTotal.WithLabelValues(metrics.PlanKindWeekly).Inc()
	e.logger.Info("Generated next week",
		"athlete_id", profile.AthleteID,
		"plan_id", plan.ID,
		"week", week,
		"block", block,
		"multiplier", multiplier,
		"multiplier_reason", reason,
		"planned_tss", plan.PlannedTSS,
		"previous_tss", current.PlannedTSS)

	return plan, len(sessions), nil
}

// ClampTotal bounds the new weekly total against the previous week's total
func ClampTotal(total, previous int) int {
	floor := int(math.Round(float64(previous) * clampFloor))
	ceiling := int(math.Round(float64(previous) * clampCeiling))
	if total < floor {
		return floor
	}
	if total > ceiling {
		return ceiling
	}
	return total
}

func rescaleSessions(sessions []*models.WorkoutSession, factor float64) {
	for _, s := range sessions {
		s.PrescribedTSS = int(math.Round(float64(s.PrescribedTSS) * factor))
		s.Content.EstimatedTSS = s.PrescribedTSS
	}
}

// volumeMultiplier selects the next week's volume in priority order:
// scheduled or emergency deload first, then progressive overload, then
// reduced volume for weak adherence, otherwise hold steady.
func (e *Engine) volumeMultiplier(athleteID int64, block models.BlockType, today time.Time) (float64, string, error) {
	if block == models.BlockDeload {
		return multDeload, "scheduled_deload", nil
	}

	// Inclusive 14-day window: today plus the 13 days before it
	since := today.AddDate(0, 0, -(readinessLookbackDays - 1)).Format(models.DateLayout)
	readiness, err := e.db.ListReadinessSince(athleteID, since)
	if err != nil {
		return 0, "", fmt.Errorf("failed to load readiness: %w", err)
	}

	highFatigueDays := 0
	energyTotal, energyCount := 0, 0
	for _, r := range readiness {
		if r.Fatigue() > 70 {
			highFatigueDays++
		}
		if r.PerceivedEnergy > 0 {
			energyTotal += r.PerceivedEnergy
			energyCount++
		}
	}
	if highFatigueDays >= 5 {
		return multDeload, "sustained_fatigue", nil
	}

	recent, err := e.db.ListRecentAdherence(athleteID, 2)
	if err != nil {
		return 0, "", fmt.Errorf("failed to load adherence: %w", err)
	}
	if len(recent) == 2 && recent[0].AdherenceRate < 0.5 && recent[1].AdherenceRate < 0.5 {
		return multDeload, "collapsed_adherence", nil
	}

	avgEnergy := 0.0
	if energyCount > 0 {
		avgEnergy = float64(energyTotal) / float64(energyCount)
	}

	// No adherence history yet (first rollover) is no signal, not a weak week
	if len(recent) > 0 {
		currentRate := recent[0].AdherenceRate
		if currentRate > 0.80 && avgEnergy > 6 {
			return multOverload, "progressive_overload", nil
		}
		if currentRate < 0.60 {
			return multReduced, "low_adherence", nil
		}
	}
	return multDefault, "maintain", nil
}
