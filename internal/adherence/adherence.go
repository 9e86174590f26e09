package adherence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trainsched/internal/database"
	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

// streakLookbackSessions bounds the consecutive-miss walk. A streak longer
// than this is reported as the cap; by then escalation has long since fired.
const streakLookbackSessions = 30

// escalationWindowDays is the trailing window checked for the miss threshold
const escalationWindowDays = 7

// escalationThreshold is how many missed or skipped sessions inside the
// window raise an alert
const escalationThreshold = 3

// maxEscalationLevel caps repeat escalations at coach intervention
const maxEscalationLevel = 3

// levelLookbackDays is the trailing window of unresolved escalations that
// drives the level
const levelLookbackDays = 30

// Tracker maintains weekly adherence aggregates and raises escalations when
// misses accumulate. Aggregates are always recomputed whole from session rows,
// so a re-run converges on the same record instead of double counting.
type Tracker struct {
	db     *database.DB
	logger *slog.Logger
}

// NewTracker creates an adherence tracker
func NewTracker(db *database.DB) *Tracker {
	return &Tracker{db: db, logger: slog.Default()}
}

// RecomputeWeek rebuilds the aggregate for the week containing day. The rate
// is completed over scheduled for the whole week, so a week in progress reads
// low until its remaining sessions are worked off.
func (t *Tracker) RecomputeWeek(athleteID int64, day time.Time) (*models.AdherenceRecord, error) {
	weekStart := models.MondayOf(day)
	from := weekStart.Format(models.DateLayout)
	to := weekStart.AddDate(0, 0, 6).Format(models.DateLayout)
	today := day.Format(models.DateLayout)

	sessions, err := t.db.ListSessionsBetween(athleteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list week sessions: %w", err)
	}

	record := &models.AdherenceRecord{
		AthleteID: athleteID,
		WeekStart: from,
	}
	for _, s := range sessions {
		record.ScheduledCount++
		switch s.Status {
		case models.StatusCompleted:
			record.CompletedCount++
		case models.StatusMissed:
			record.MissedCount++
		case models.StatusSkipped:
			record.SkippedCount++
		}
	}
	if record.ScheduledCount > 0 {
		record.AdherenceRate = float64(record.CompletedCount) / float64(record.ScheduledCount)
	}

	streak, err := t.ConsecutiveMissed(athleteID, today)
	if err != nil {
		return nil, err
	}
	record.ConsecutiveMissed = streak

	existing, err := t.db.GetAdherence(athleteID, from)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		record.EscalationTriggered = existing.EscalationTriggered
	}

	if err := t.db.UpsertAdherence(record); err != nil {
		return nil, err
	}
	return record, nil
}

// ConsecutiveMissed walks the athlete's sessions backward from today counting
// the unbroken run of missed or skipped sessions. A completed session ends
// the streak; a past session still marked SCHEDULED ends it too, since its
// outcome is not yet known.
func (t *Tracker) ConsecutiveMissed(athleteID int64, today string) (int, error) {
	sessions, err := t.db.ListSessionsOnOrBefore(athleteID, today, streakLookbackSessions)
	if err != nil {
		return 0, fmt.Errorf("failed to list recent sessions: %w", err)
	}

	streak := 0
	for _, s := range sessions {
		switch s.Status {
		case models.StatusMissed, models.StatusSkipped:
			streak++
		default:
			return streak, nil
		}
	}
	return streak, nil
}

// EscalationDue reports whether the trailing window has accumulated enough
// missed or skipped sessions to warrant an alert
func (t *Tracker) EscalationDue(athleteID int64, day time.Time) (bool, int, error) {
	from := day.AddDate(0, 0, -(escalationWindowDays - 1)).Format(models.DateLayout)
	to := day.Format(models.DateLayout)

	sessions, err := t.db.ListSessionsBetween(athleteID, from, to)
	if err != nil {
		return false, 0, fmt.Errorf("failed to list window sessions: %w", err)
	}

	misses := 0
	for _, s := range sessions {
		if s.Status == models.StatusMissed || s.Status == models.StatusSkipped {
			misses++
		}
	}
	return misses >= escalationThreshold, misses, nil
}

// Escalate raises an adherence alert for the day, at most one per athlete per
// day. The level climbs with unresolved escalations from the last 30 days:
// level 1 nudges the athlete, level 2 suggests an easier plan, level 3 asks a
// human coach to step in. Returns the event when this call created it.
func (t *Tracker) Escalate(athleteID int64, day time.Time, misses int) (*models.EscalationEvent, error) {
	date := day.Format(models.DateLayout)

	// Inclusive trailing window: today plus the 29 days before it
	since := day.AddDate(0, 0, -(levelLookbackDays - 1)).Format(models.DateLayout)
	unresolved, err := t.db.CountUnresolvedSince(athleteID, since)
	if err != nil {
		return nil, err
	}
	level := unresolved + 1
	if level > maxEscalationLevel {
		level = maxEscalationLevel
	}

	event := &models.EscalationEvent{
		ID:            uuid.NewString(),
		AthleteID:     athleteID,
		Date:          date,
		TriggerReason: fmt.Sprintf("%d sessions missed or skipped in the last %d days", misses, escalationWindowDays),
		Level:         level,
	}
	created, err := t.db.InsertEscalation(event)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil // already raised today
	}

	weekStart := models.MondayOf(day).Format(models.DateLayout)
	if err := t.db.MarkAdherenceEscalated(athleteID, weekStart); err != nil {
		t.logger.Error("Failed to flag adherence record", "athlete_id", athleteID, "error", err)
	}

	metrics.EscalationsTotal.WithLabelValues(fmt.Sprintf("%d", level)).Inc()
	t.logger.Warn("Adherence escalation raised",
		"athlete_id", athleteID,
		"level", level,
		"misses", misses)
	return event, nil
}
