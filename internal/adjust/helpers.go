package adjust

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"trainsched/internal/database"
	"trainsched/internal/metrics"
	"trainsched/internal/models"
	"trainsched/internal/planner"
)

// markMissed transitions the session to MISSED and loads its plan. The third
// return is false when the session had already left SCHEDULED, in which case
// the caller treats the whole trigger as already handled.
func (e *Engine) markMissed(sessionID string) (*models.WorkoutSession, *models.WorkoutPlan, bool, error) {
	session, err := e.db.GetSession(sessionID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, nil, false, database.ErrSessionNotFound
	}
	if session.Status != models.StatusScheduled {
		return session, nil, false, nil
	}

	marked, err := e.db.UpdateSessionStatus(session.ID, models.StatusMissed)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to mark session missed: %w", err)
	}
	if !marked {
		return session, nil, false, nil
	}
	session.Status = models.StatusMissed
	metrics.SessionsMarkedMissedTotal.Inc()

	plan, err := e.db.GetPlan(session.PlanID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to load plan: %w", err)
	}
	if plan == nil {
		return nil, nil, false, fmt.Errorf("plan %s not found for session %s", session.PlanID, session.ID)
	}
	return session, plan, true, nil
}

func (e *Engine) log(plan *models.WorkoutPlan, athleteID int64, trigger models.TriggerEvent, data, adjustmentType, description string, affected []string, date string) error {
	if affected == nil {
		affected = []string{}
	}
	entry := &models.AdjustmentLog{
		ID:                 uuid.NewString(),
		PlanID:             plan.ID,
		AthleteID:          athleteID,
		TriggerEvent:       trigger,
		TriggerData:        data,
		AdjustmentType:     adjustmentType,
		Description:        description,
		AffectedSessionIDs: affected,
		Date:               date,
	}
	if err := e.db.InsertAdjustment(entry); err != nil {
		return fmt.Errorf("failed to record adjustment: %w", err)
	}
	e.logger.Info("Adjustment applied",
		"athlete_id", athleteID,
		"trigger", trigger,
		"type", adjustmentType,
		"affected", len(affected),
		"description", description)
	return nil
}

// freeDay returns the first date in [from, until] with no scheduled session
func (e *Engine) freeDay(athleteID int64, from, until string) (string, bool, error) {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse date %q: %w", from, err)
	}
	end, err := time.Parse(models.DateLayout, until)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse date %q: %w", until, err)
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(models.DateLayout)
		sessions, err := e.db.ListSessionsByDate(athleteID, date)
		if err != nil {
			return "", false, err
		}
		scheduled := false
		for _, s := range sessions {
			if s.Status == models.StatusScheduled {
				scheduled = true
				break
			}
		}
		if !scheduled {
			return date, true, nil
		}
	}
	return "", false, nil
}

// buildReplacement creates an unpersisted session of the same type on the
// given date, scaled down and linked back to the session it replaces
func (e *Engine) buildReplacement(profile *models.AthleteProfile, missed *models.WorkoutSession, date string, scale float64) *models.WorkoutSession {
	exclude := map[string]bool{missed.Content.TemplateID: true}
	content := missed.Content
	duration := missed.PrescribedDuration
	tss := missed.PrescribedTSS
	if tmpl := e.catalog.Pick(missed.Type, profile.EquipmentAccess, exclude); tmpl != nil {
		content = tmpl.Content()
		duration = tmpl.BaseDuration
		tss = tmpl.BaseTSS
	}

	if scale != 1.0 {
		planner.ScaleSets(&content, scale)
		tss = int(math.Round(float64(tss) * scale))
	}
	content.EstimatedTSS = tss
	content.Notes = append(content.Notes, "Rescheduled from a missed session at reduced volume")

	originalDate := missed.ScheduledDate
	rescheduledFrom := missed.ID
	return &models.WorkoutSession{
		ID:                 uuid.NewString(),
		PlanID:             missed.PlanID,
		AthleteID:          missed.AthleteID,
		ScheduledDate:      date,
		ScheduledOrder:     0,
		Type:               missed.Type,
		Status:             models.StatusScheduled,
		PrescribedDuration: duration,
		PrescribedTSS:      tss,
		Content:            content,
		OriginalDate:       &originalDate,
		RescheduledFrom:    &rescheduledFrom,
	}
}

// todayScheduled returns the athlete's first still-scheduled session today
func (e *Engine) todayScheduled(athleteID int64, today string) (*models.WorkoutSession, error) {
	sessions, err := e.db.ListSessionsByDate(athleteID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list today's sessions: %w", err)
	}
	for _, s := range sessions {
		if s.Status == models.StatusScheduled {
			return s, nil
		}
	}
	return nil, nil
}

// sustainedHighFatigue reports whether the last three days each have a
// readiness reading over the fatigue threshold. A missing day breaks the run.
func (e *Engine) sustainedHighFatigue(athleteID int64, today string) (bool, error) {
	day, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return false, fmt.Errorf("failed to parse date %q: %w", today, err)
	}
	since := day.AddDate(0, 0, -2).Format(models.DateLayout)

	readings, err := e.db.ListReadinessSince(athleteID, since)
	if err != nil {
		return false, fmt.Errorf("failed to load readiness history: %w", err)
	}
	if len(readings) < 3 {
		return false, nil
	}
	for _, r := range readings {
		if !r.HighFatigue() {
			return false, nil
		}
	}
	return true, nil
}

// consecutiveLowSleep reports whether both today's and yesterday's readiness
// cross the poor-sleep threshold
func (e *Engine) consecutiveLowSleep(athleteID int64, today string) (bool, error) {
	day, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return false, fmt.Errorf("failed to parse date %q: %w", today, err)
	}

	current, err := e.db.GetReadiness(athleteID, today)
	if err != nil {
		return false, err
	}
	previous, err := e.db.GetReadiness(athleteID, day.AddDate(0, 0, -1).Format(models.DateLayout))
	if err != nil {
		return false, err
	}
	return current != nil && previous != nil && current.LowSleep() && previous.LowSleep(), nil
}

// deloadRemaining scales every still-scheduled session from today onward to
// deload volume and relabels the plan's block
func (e *Engine) deloadRemaining(plan *models.WorkoutPlan, today string) ([]string, error) {
	sessions, err := e.db.ListPlanSessions(plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan sessions: %w", err)
	}

	var scaled []string
	for _, s := range sessions {
		if s.Status != models.StatusScheduled || s.ScheduledDate < today {
			continue
		}
		planner.ScaleSets(&s.Content, 0.60)
		s.PrescribedTSS = int(math.Round(float64(s.PrescribedTSS) * 0.60))
		s.Content.EstimatedTSS = s.PrescribedTSS
		s.Content.Notes = append(s.Content.Notes, "Deload pulled forward after sustained fatigue")
		if ok, err := e.db.UpdateSessionContent(s); err == nil && ok {
			scaled = append(scaled, s.ID)
		}
	}

	if err := e.db.UpdatePlanBlockType(plan.ID, models.BlockDeload); err != nil {
		return scaled, err
	}
	return scaled, nil
}

// swapNextHIIT converts the plan's next scheduled HIIT session into active
// recovery. Returns the session id, or empty when no HIIT session remains.
func (e *Engine) swapNextHIIT(profile *models.AthleteProfile, today string) string {
	plan, err := e.db.GetActivePlan(profile.AthleteID)
	if err != nil || plan == nil {
		return ""
	}
	sessions, err := e.db.ListPlanSessions(plan.ID)
	if err != nil {
		return ""
	}

	for _, s := range sessions {
		if s.Status != models.StatusScheduled || s.ScheduledDate <= today ||
			s.Type.Family() != models.FamilyHIIT {
			continue
		}
		if tmpl := e.catalog.Pick(models.ActiveRecovery, profile.EquipmentAccess, nil); tmpl != nil {
			s.Content = tmpl.Content()
			s.PrescribedDuration = tmpl.BaseDuration
			s.PrescribedTSS = tmpl.BaseTSS
		}
		s.Type = models.ActiveRecovery
		s.Content.Notes = append(s.Content.Notes, "Swapped from HIIT to recovery after consecutive poor sleep")
		if ok, err := e.db.UpdateSessionContent(s); err == nil && ok {
			return s.ID
		}
		return ""
	}
	return ""
}

func nextDate(date string) string {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, 1).Format(models.DateLayout)
}

func isWeekend(date string) bool {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return false
	}
	return d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
}

// extendCardio lengthens the longest continuous block in the main set
func extendCardio(content *models.SessionContent, minutes int) {
	longest := -1
	for i := range content.Main {
		if content.Main[i].DurationMin > 0 &&
			(longest < 0 || content.Main[i].DurationMin > content.Main[longest].DurationMin) {
			longest = i
		}
	}
	if longest >= 0 {
		content.Main[longest].DurationMin += minutes
	}
}

// downgradeCardio relabels main-set intensity to conversational Zone 2
func downgradeCardio(content *models.SessionContent) {
	for i := range content.Main {
		if content.Main[i].DurationMin > 0 {
			content.Main[i].Intensity = "zone 2, conversational"
		}
	}
}
