package adjust

import (
	"fmt"
	"log/slog"
	"math"

	"trainsched/internal/catalog"
	"trainsched/internal/database"
	"trainsched/internal/metrics"
	"trainsched/internal/models"
	"trainsched/internal/planner"
)

// Engine mutates a plan's future sessions in response to a single trigger
// event. Each trigger is an independent rule: several may apply to the same
// plan in the same review, and every rule is a no-op when its preconditions
// no longer hold, so retries are safe.
//
// Every decision that runs to completion writes exactly one adjustment log
// row, including decisions that found nothing to change.
type Engine struct {
	db      *database.DB
	catalog catalog.Catalog
	logger  *slog.Logger
}

// NewEngine creates an adjustment engine
func NewEngine(db *database.DB, cat catalog.Catalog) *Engine {
	return &Engine{db: db, catalog: cat, logger: slog.Default()}
}

// replacementScale is the volume factor applied to sessions that replace or
// absorb a missed strength day
const replacementScale = 0.85

// MissedStrength marks the session missed and schedules compensation. After
// a second strength miss in the same plan the deficit is consolidated into
// the next scheduled session as a reduced full-body day instead of inserting
// more sessions.
func (e *Engine) MissedStrength(profile *models.AthleteProfile, sessionID, today string) error {
	session, plan, marked, err := e.markMissed(sessionID)
	if err != nil || !marked {
		return err
	}

	sessions, err := e.db.ListPlanSessions(plan.ID)
	if err != nil {
		return fmt.Errorf("failed to list plan sessions: %w", err)
	}

	missedStrength := 0
	for _, s := range sessions {
		if s.Type.Family() == models.FamilyStrength && s.Status == models.StatusMissed {
			missedStrength++
		}
	}

	var affected []string
	var description string

	if missedStrength >= 2 {
		affected, description = e.consolidateStrength(profile, session, sessions, today)
	} else {
		affected, description = e.rescheduleStrength(profile, session, plan, today)
	}

	metrics.AdjustmentsTotal.WithLabelValues(string(models.TriggerMissedStrength)).Inc()
	return e.log(plan, profile.AthleteID, models.TriggerMissedStrength,
		fmt.Sprintf(`{"missed_session_id":%q,"missed_in_plan":%d}`, session.ID, missedStrength),
		"strength_reschedule", description, affected, today)
}

// consolidateStrength converts the next scheduled session into a reduced
// full-body day that absorbs the accumulated deficit
func (e *Engine) consolidateStrength(profile *models.AthleteProfile, missed *models.WorkoutSession, sessions []*models.WorkoutSession, today string) ([]string, string) {
	var next *models.WorkoutSession
	for _, s := range sessions {
		if s.Status == models.StatusScheduled && s.ScheduledDate > today {
			next = s
			break
		}
	}
	if next == nil {
		return []string{missed.ID}, "Second strength miss this plan; no future session left to consolidate into"
	}

	tmpl := e.catalog.Pick(models.StrengthFull, profile.EquipmentAccess, nil)
	if tmpl != nil {
		next.Content = tmpl.Content()
		next.PrescribedDuration = tmpl.BaseDuration
		next.PrescribedTSS = tmpl.BaseTSS
	}
	next.Type = models.StrengthFull
	planner.ScaleSets(&next.Content, replacementScale)
	next.PrescribedTSS = int(math.Round(float64(next.PrescribedTSS) * replacementScale))
	next.Content.EstimatedTSS = next.PrescribedTSS
	next.Content.Notes = append(next.Content.Notes, "Converted to full-body to absorb missed strength work")

	if _, err := e.db.UpdateSessionContent(next); err != nil {
		e.logger.Error("Failed to consolidate session", "session_id", next.ID, "error", err)
		return []string{missed.ID}, "Second strength miss this plan; consolidation update failed"
	}
	return []string{missed.ID, next.ID},
		fmt.Sprintf("Second strength miss this plan; consolidated into full-body session on %s at reduced volume", next.ScheduledDate)
}

// rescheduleStrength inserts a replacement on the next free day within the
// plan window, or absorbs the miss when no day is free
func (e *Engine) rescheduleStrength(profile *models.AthleteProfile, missed *models.WorkoutSession, plan *models.WorkoutPlan, today string) ([]string, string) {
	from := nextDate(missed.ScheduledDate)
	if from < today {
		from = today
	}

	date, ok, err := e.freeDay(profile.AthleteID, from, plan.EndDate)
	if err != nil {
		e.logger.Error("Free-day search failed", "athlete_id", profile.AthleteID, "error", err)
		return []string{missed.ID}, "Missed strength session; free-day search failed, miss absorbed"
	}
	if !ok {
		return []string{missed.ID}, "Missed strength session; no free day before plan end, miss absorbed"
	}

	replacement := e.buildReplacement(profile, missed, date, replacementScale)
	if err := e.db.InsertSession(replacement); err != nil {
		e.logger.Error("Failed to insert replacement session", "athlete_id", profile.AthleteID, "error", err)
		return []string{missed.ID}, "Missed strength session; replacement insert failed, miss absorbed"
	}
	return []string{missed.ID, replacement.ID},
		fmt.Sprintf("Missed strength session rescheduled to %s at reduced volume", date)
}

// MissedEndurance marks the session missed and compensates through existing
// future endurance sessions where possible, inserting a short Zone 2 session
// only when none remain.
func (e *Engine) MissedEndurance(profile *models.AthleteProfile, sessionID, today string) error {
	session, plan, marked, err := e.markMissed(sessionID)
	if err != nil || !marked {
		return err
	}

	sessions, err := e.db.ListPlanSessions(plan.ID)
	if err != nil {
		return fmt.Errorf("failed to list plan sessions: %w", err)
	}

	var future []*models.WorkoutSession
	for _, s := range sessions {
		if s.Status == models.StatusScheduled && s.ScheduledDate > today &&
			s.Type.Family() == models.FamilyEndurance {
			future = append(future, s)
		}
	}

	affected := []string{session.ID}
	var description string

	if len(future) > 0 {
		first := future[0]
		first.PrescribedDuration += 15
		first.PrescribedTSS += 12
		first.Content.EstimatedTSS = first.PrescribedTSS
		extendCardio(&first.Content, 15)
		first.Content.Notes = append(first.Content.Notes, "Extended to absorb missed endurance volume")
		if _, err := e.db.UpdateSessionContent(first); err == nil {
			affected = append(affected, first.ID)
		}

		for _, s := range future[1:] {
			if !isWeekend(s.ScheduledDate) {
				continue
			}
			s.PrescribedDuration = int(math.Round(float64(s.PrescribedDuration) * 1.20))
			s.PrescribedTSS = int(math.Round(float64(s.PrescribedTSS) * 1.20))
			s.Content.EstimatedTSS = s.PrescribedTSS
			s.Content.Notes = append(s.Content.Notes, "Lengthened to make up missed endurance work")
			if _, err := e.db.UpdateSessionContent(s); err == nil {
				affected = append(affected, s.ID)
			}
		}
		description = "Missed endurance session absorbed by extending future endurance sessions"
	} else {
		from := nextDate(session.ScheduledDate)
		if from < today {
			from = today
		}
		date, ok, err := e.freeDay(profile.AthleteID, from, plan.EndDate)
		if err != nil || !ok {
			description = "Missed endurance session; no future endurance session and no free day, miss absorbed"
		} else {
			replacement := e.buildReplacement(profile, session, date, 1.0)
			replacement.Type = models.EnduranceZone2
			replacement.PrescribedDuration = 30
			replacement.PrescribedTSS = 30
			replacement.Content.EstimatedTSS = 30
			if err := e.db.InsertSession(replacement); err == nil {
				affected = append(affected, replacement.ID)
				description = fmt.Sprintf("Missed endurance session replaced by a 30-minute Zone 2 session on %s", date)
			} else {
				description = "Missed endurance session; replacement insert failed, miss absorbed"
			}
		}
	}

	metrics.AdjustmentsTotal.WithLabelValues(string(models.TriggerMissedEndurance)).Inc()
	return e.log(plan, profile.AthleteID, models.TriggerMissedEndurance,
		fmt.Sprintf(`{"missed_session_id":%q}`, session.ID),
		"endurance_compensation", description, affected, today)
}

// HighFatigue softens today's session and, when fatigue has been sustained
// for three days, pulls the deload forward across the rest of the plan.
func (e *Engine) HighFatigue(profile *models.AthleteProfile, today string, metric *models.ReadinessMetric) error {
	count, err := e.db.CountAdjustments(profile.AthleteID, models.TriggerHighFatigue, today)
	if err != nil {
		return fmt.Errorf("failed to check prior adjustments: %w", err)
	}
	if count > 0 {
		return nil // already handled today
	}

	plan, err := e.db.GetActivePlan(profile.AthleteID)
	if err != nil {
		return fmt.Errorf("failed to load active plan: %w", err)
	}
	if plan == nil {
		return nil
	}

	var affected []string
	description := "High fatigue reported; no session scheduled today"

	target, err := e.todayScheduled(profile.AthleteID, today)
	if err != nil {
		return err
	}
	if target != nil {
		changed := true
		switch target.Type.Family() {
		case models.FamilyHIIT:
			tmpl := e.catalog.Pick(models.ActiveRecovery, profile.EquipmentAccess, nil)
			if tmpl == nil {
				tmpl = e.catalog.Pick(models.Mobility, profile.EquipmentAccess, nil)
			}
			if tmpl != nil {
				target.Content = tmpl.Content()
				target.PrescribedDuration = tmpl.BaseDuration
				target.PrescribedTSS = tmpl.BaseTSS
			}
			target.Type = models.ActiveRecovery
			target.Content.Notes = append(target.Content.Notes, "Swapped from HIIT to recovery due to high fatigue")
			description = "High fatigue: today's HIIT swapped to active recovery"
		case models.FamilyStrength:
			planner.ScaleSets(&target.Content, 0.75)
			target.PrescribedTSS = int(math.Round(float64(target.PrescribedTSS) * 0.75))
			target.Content.EstimatedTSS = target.PrescribedTSS
			target.Content.Notes = append(target.Content.Notes, "Sets reduced due to high fatigue")
			description = "High fatigue: today's strength volume reduced to 75%"
		case models.FamilyEndurance:
			target.Type = models.EnduranceZone2
			downgradeCardio(&target.Content)
			target.Content.Notes = append(target.Content.Notes, "Downgraded to Zone 2 intensity due to high fatigue")
			description = "High fatigue: today's endurance downgraded to Zone 2"
		default:
			changed = false
			description = "High fatigue: today's session already low intensity, left unchanged"
		}
		if changed {
			if ok, err := e.db.UpdateSessionContent(target); err == nil && ok {
				affected = append(affected, target.ID)
			}
		}
	}

	// Three straight days of high fatigue pulls the deload forward. This
	// stacks on top of today's single-session change.
	sustained, err := e.sustainedHighFatigue(profile.AthleteID, today)
	if err != nil {
		return err
	}
	adjustmentType := "fatigue_reduction"
	if sustained {
		adjustmentType = "emergency_deload"
		scaled, err := e.deloadRemaining(plan, today)
		if err != nil {
			e.logger.Error("Emergency deload failed", "athlete_id", profile.AthleteID, "error", err)
		} else {
			affected = append(affected, scaled...)
			description += "; sustained fatigue pulled deload forward for the rest of the plan"
		}
	}

	metrics.AdjustmentsTotal.WithLabelValues(string(models.TriggerHighFatigue)).Inc()
	return e.log(plan, profile.AthleteID, models.TriggerHighFatigue,
		fmt.Sprintf(`{"fatigue_score":%d,"sustained":%t}`, metric.Fatigue(), sustained),
		adjustmentType, description, affected, today)
}

// LowSleep trims today's session and, after two poor nights in a row, swaps
// the next HIIT session for active recovery.
func (e *Engine) LowSleep(profile *models.AthleteProfile, today string, metric *models.ReadinessMetric) error {
	count, err := e.db.CountAdjustments(profile.AthleteID, models.TriggerLowSleep, today)
	if err != nil {
		return fmt.Errorf("failed to check prior adjustments: %w", err)
	}
	if count > 0 {
		return nil
	}

	plan, err := e.db.GetActivePlan(profile.AthleteID)
	if err != nil {
		return fmt.Errorf("failed to load active plan: %w", err)
	}
	if plan == nil {
		return nil
	}

	var affected []string
	description := "Low sleep reported; no session scheduled today"

	target, err := e.todayScheduled(profile.AthleteID, today)
	if err != nil {
		return err
	}
	if target != nil {
		planner.ScaleSets(&target.Content, 0.90)
		target.PrescribedTSS = int(math.Round(float64(target.PrescribedTSS) * 0.90))
		target.Content.EstimatedTSS = target.PrescribedTSS
		target.Content.Notes = append(target.Content.Notes,
			"Short on sleep: volume trimmed, stop two reps shy of failure and hydrate well")
		if ok, err := e.db.UpdateSessionContent(target); err == nil && ok {
			affected = append(affected, target.ID)
		}
		description = "Low sleep: today's volume trimmed to 90% with a coaching note"
	}

	consecutive, err := e.consecutiveLowSleep(profile.AthleteID, today)
	if err != nil {
		return err
	}
	if consecutive {
		if swapped := e.swapNextHIIT(profile, today); swapped != "" {
			affected = append(affected, swapped)
			description += "; two poor nights in a row, next HIIT swapped to active recovery"
		}
	}

	metrics.AdjustmentsTotal.WithLabelValues(string(models.TriggerLowSleep)).Inc()
	return e.log(plan, profile.AthleteID, models.TriggerLowSleep,
		fmt.Sprintf(`{"sleep_duration_min":%d,"consecutive":%t}`, metric.SleepDurationMin, consecutive),
		"sleep_reduction", description, affected, today)
}

// TravelWeek caps the remaining week at three sessions, converts retained
// sessions to bodyweight equivalents, and keeps at most one endurance session
// as an equipment-free run. Excess sessions are skipped, not missed: travel
// is a planned exclusion, not a failure.
func (e *Engine) TravelWeek(profile *models.AthleteProfile, today string) error {
	count, err := e.db.CountAdjustments(profile.AthleteID, models.TriggerTravelWeek, today)
	if err != nil {
		return fmt.Errorf("failed to check prior adjustments: %w", err)
	}
	if count > 0 {
		return nil
	}

	plan, err := e.db.GetActivePlan(profile.AthleteID)
	if err != nil {
		return fmt.Errorf("failed to load active plan: %w", err)
	}
	if plan == nil {
		return nil
	}

	sessions, err := e.db.ListPlanSessions(plan.ID)
	if err != nil {
		return fmt.Errorf("failed to list plan sessions: %w", err)
	}

	var future []*models.WorkoutSession
	for _, s := range sessions {
		if s.Status == models.StatusScheduled && s.ScheduledDate >= today {
			future = append(future, s)
		}
	}

	var affected []string
	kept := future
	if len(future) > 3 {
		kept = future[:3]
		for _, s := range future[3:] {
			s.Content.Notes = append(s.Content.Notes, "Dropped for travel week")
			if _, err := e.db.UpdateSessionContent(s); err != nil {
				e.logger.Error("Failed to note dropped session", "session_id", s.ID, "error", err)
			}
			if ok, err := e.db.UpdateSessionStatus(s.ID, models.StatusSkipped); err == nil && ok {
				affected = append(affected, s.ID)
			}
		}
	}

	runKept := false
	for _, s := range kept {
		if s.Type.Family() == models.FamilyEndurance && !runKept {
			runKept = true
			if tmpl := e.catalog.Pick(s.Type, models.EquipmentBodyweight, nil); tmpl != nil {
				tss := s.PrescribedTSS
				s.Content = tmpl.Content()
				s.PrescribedDuration = tmpl.BaseDuration
				s.PrescribedTSS = tss
				s.Content.EstimatedTSS = tss
			}
			s.Content.Notes = append(s.Content.Notes, "Kept as an equipment-free run for travel week")
		} else {
			if tmpl := e.catalog.Pick(s.Type, models.EquipmentBodyweight, nil); tmpl != nil {
				s.Content = tmpl.Content()
				s.PrescribedDuration = tmpl.BaseDuration
				s.PrescribedTSS = tmpl.BaseTSS
			}
			s.Content.Notes = append(s.Content.Notes, "Converted to bodyweight for travel week")
		}
		if ok, err := e.db.UpdateSessionContent(s); err == nil && ok {
			affected = append(affected, s.ID)
		}
	}

	metrics.AdjustmentsTotal.WithLabelValues(string(models.TriggerTravelWeek)).Inc()
	return e.log(plan, profile.AthleteID, models.TriggerTravelWeek,
		fmt.Sprintf(`{"future_sessions":%d,"kept":%d}`, len(future), len(kept)),
		"travel_compression",
		fmt.Sprintf("Travel week: capped at %d sessions, converted retained work to bodyweight", len(kept)),
		affected, today)
}
