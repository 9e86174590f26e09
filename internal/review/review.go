package review

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainsched/internal/adherence"
	"trainsched/internal/adjust"
	"trainsched/internal/database"
	"trainsched/internal/metrics"
	"trainsched/internal/models"
	"trainsched/internal/notify"
	"trainsched/internal/planner"
	"trainsched/internal/progression"
)

// Window identifies which review work applies at the athlete's current local
// time. The tick runs hourly in server time; windows are evaluated per
// athlete in their own timezone.
type Window string

const (
	// WindowNone means no review work is due at this local hour
	WindowNone Window = ""
	// WindowMidnight runs day-close work: missed sessions, adherence, rollover
	WindowMidnight Window = "midnight"
	// WindowMorning runs day-open work: readiness, check-ins, motivation
	WindowMorning Window = "morning"
	// WindowForced runs everything; used by the admin review endpoint
	WindowForced Window = "forced"
)

// LocalWindow returns the athlete's local time and the review window it falls
// in. An unknown timezone falls back to UTC rather than skipping the athlete.
func LocalWindow(now time.Time, tz string) (time.Time, Window) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	switch {
	case local.Hour() == 0:
		return local, WindowMidnight
	case local.Hour() == 6, local.Hour() == 5 && local.Minute() >= 30:
		return local, WindowMorning
	default:
		return local, WindowNone
	}
}

// Orchestrator drives the daily review across all active athletes. All
// correctness comes from persisted-state checks inside each step; the dedup
// cache only suppresses redundant work within a day and may be lost freely.
type Orchestrator struct {
	db          *database.DB
	builder     *planner.Builder
	progression *progression.Engine
	adjuster    *adjust.Engine
	adherence   *adherence.Tracker
	dispatcher  *notify.Dispatcher
	logger      *slog.Logger
	workers     int
	now         func() time.Time
	rng         *rand.Rand

	mu   sync.Mutex
	seen map[string]bool
}

// NewOrchestrator wires the review pipeline. workers bounds concurrent
// per-athlete reviews within one tick.
func NewOrchestrator(db *database.DB, builder *planner.Builder, prog *progression.Engine, adj *adjust.Engine, track *adherence.Tracker, dispatcher *notify.Dispatcher, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		db:          db,
		builder:     builder,
		progression: prog,
		adjuster:    adj,
		adherence:   track,
		dispatcher:  dispatcher,
		logger:      slog.Default(),
		workers:     workers,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		seen:        make(map[string]bool),
	}
}

// RunTick evaluates every active athlete once. Athletes outside a review
// window are skipped; athletes already reviewed for this (date, window) are
// deduped. One athlete's failure never stops the others.
func (o *Orchestrator) RunTick(ctx context.Context) {
	metrics.ReviewTicksTotal.Inc()
	now := o.now()

	profiles, err := o.db.ListActiveProfiles()
	if err != nil {
		o.logger.Error("Failed to list active profiles", "error", err)
		return
	}

	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup

	for _, profile := range profiles {
		if ctx.Err() != nil {
			break
		}

		local, window := LocalWindow(now, profile.Timezone)
		if window == WindowNone {
			metrics.AthleteReviewsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
			continue
		}

		key := fmt.Sprintf("%d|%s|%s", profile.AthleteID, local.Format(models.DateLayout), window)
		o.mu.Lock()
		if o.seen[key] {
			o.mu.Unlock()
			metrics.AthleteReviewsTotal.WithLabelValues(metrics.OutcomeDeduped).Inc()
			continue
		}
		o.mu.Unlock()

		wg.Add(1)
		sem <- struct{}{}
		go func(p *models.AthleteProfile, local time.Time, window Window, key string) {
			defer wg.Done()
			defer func() { <-sem }()

			timer := prometheus.NewTimer(metrics.ReviewDuration)
			err := o.ReviewAthlete(ctx, p, local, window)
			timer.ObserveDuration()

			if err != nil {
				metrics.AthleteReviewsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
				o.logger.Error("Athlete review failed", "athlete_id", p.AthleteID, "error", err)
				return
			}

			o.mu.Lock()
			o.seen[key] = true
			size := len(o.seen)
			o.mu.Unlock()
			metrics.DedupCacheSize.Set(float64(size))
			metrics.AthleteReviewsTotal.WithLabelValues(metrics.OutcomeReviewed).Inc()
		}(profile, local, window, key)
	}

	wg.Wait()
}

// ResetDedupCache clears the in-memory (athlete, date, window) cache. Run
// daily; stale keys from prior days are useless since the date is in the key.
func (o *Orchestrator) ResetDedupCache() {
	o.mu.Lock()
	o.seen = make(map[string]bool)
	o.mu.Unlock()
	metrics.DedupCacheSize.Set(0)
	o.logger.Info("Review dedup cache reset")
}

// ReviewAthlete runs the review steps due in the given window. Steps are
// error-isolated: a failing step is logged and counted, and the remaining
// steps still run. Only a fully broken review returns an error.
func (o *Orchestrator) ReviewAthlete(ctx context.Context, profile *models.AthleteProfile, local time.Time, window Window) error {
	today := local.Format(models.DateLayout)
	failures := 0

	adjusted := 0
	if window == WindowMidnight || window == WindowForced {
		n, err := o.processMissed(profile, local)
		if err != nil {
			failures++
			metrics.ReviewStepErrorsTotal.WithLabelValues(metrics.StepMissedSessions).Inc()
			o.logger.Error("Missed-session step failed", "athlete_id", profile.AthleteID, "error", err)
		}
		adjusted = n
	}

	if window == WindowMorning || window == WindowForced {
		if err := o.processReadiness(profile, today); err != nil {
			failures++
			metrics.ReviewStepErrorsTotal.WithLabelValues(metrics.StepReadiness).Inc()
			o.logger.Error("Readiness step failed", "athlete_id", profile.AthleteID, "error", err)
		}
	}

	record, err := o.adherence.RecomputeWeek(profile.AthleteID, local)
	if err != nil {
		failures++
		metrics.ReviewStepErrorsTotal.WithLabelValues(metrics.StepEscalation).Inc()
		o.logger.Error("Adherence step failed", "athlete_id", profile.AthleteID, "error", err)
	} else if err := o.processEscalation(profile, local); err != nil {
		failures++
		metrics.ReviewStepErrorsTotal.WithLabelValues(metrics.StepEscalation).Inc()
		o.logger.Error("Escalation step failed", "athlete_id", profile.AthleteID, "error", err)
	}

	rolled := false
	if window == WindowMidnight || window == WindowForced {
		r, err := o.processRollover(profile, local)
		if err != nil {
			failures++
			metrics.ReviewStepErrorsTotal.WithLabelValues(metrics.StepRollover).Inc()
			o.logger.Error("Rollover step failed", "athlete_id", profile.AthleteID, "error", err)
		}
		rolled = r
	}

	if (window == WindowMorning || window == WindowForced) && record != nil {
		if err := o.processMotivation(profile, record, today); err != nil {
			failures++
			metrics.ReviewStepErrorsTotal.WithLabelValues(metrics.StepMotivation).Inc()
			o.logger.Error("Motivation step failed", "athlete_id", profile.AthleteID, "error", err)
		}
	}

	o.logger.Info("Athlete review complete",
		"athlete_id", profile.AthleteID,
		"window", window,
		"local_date", today,
		"missed_handled", adjusted,
		"rolled_over", rolled,
		"step_failures", failures)

	if failures > 0 && adjusted == 0 && !rolled && record == nil {
		return fmt.Errorf("all review steps failed for athlete %d", profile.AthleteID)
	}
	return nil
}

// processMissed marks yesterday's unworked sessions missed and routes
// strength and endurance misses through the adjustment engine. Sessions the
// engine cannot handle still get marked so adherence stays truthful.
func (o *Orchestrator) processMissed(profile *models.AthleteProfile, local time.Time) (int, error) {
	yesterday := local.AddDate(0, 0, -1).Format(models.DateLayout)
	today := local.Format(models.DateLayout)

	sessions, err := o.db.ListSessionsByDate(profile.AthleteID, yesterday)
	if err != nil {
		return 0, fmt.Errorf("failed to list yesterday's sessions: %w", err)
	}

	handled := 0
	for _, s := range sessions {
		if s.Status != models.StatusScheduled {
			continue
		}

		var adjErr error
		switch s.Type.Family() {
		case models.FamilyStrength:
			adjErr = o.adjuster.MissedStrength(profile, s.ID, today)
		case models.FamilyEndurance:
			adjErr = o.adjuster.MissedEndurance(profile, s.ID, today)
		default:
			// Mobility and HIIT misses are absorbed without compensation
			if marked, err := o.db.UpdateSessionStatus(s.ID, models.StatusMissed); err != nil {
				adjErr = err
			} else if marked {
				metrics.SessionsMarkedMissedTotal.Inc()
			}
		}
		if adjErr != nil {
			o.logger.Error("Missed-session adjustment failed, marking bare",
				"athlete_id", profile.AthleteID, "session_id", s.ID, "error", adjErr)
			if marked, err := o.db.UpdateSessionStatus(s.ID, models.StatusMissed); err == nil && marked {
				metrics.SessionsMarkedMissedTotal.Inc()
			}
		}
		handled++
	}
	return handled, nil
}

// processReadiness reacts to today's readiness reading, or requests a
// check-in when none has arrived by the morning window
func (o *Orchestrator) processReadiness(profile *models.AthleteProfile, today string) error {
	metric, err := o.db.GetReadiness(profile.AthleteID, today)
	if err != nil {
		return err
	}
	if metric == nil {
		_, _, err := o.dispatcher.RequestOncePerDay(profile.AthleteID, models.MessageCheckIn, today,
			"How are you feeling this morning? Tap to log your readiness.")
		return err
	}

	if metric.HighFatigue() {
		if err := o.adjuster.HighFatigue(profile, today, metric); err != nil {
			return err
		}
	}
	if metric.LowSleep() {
		if err := o.adjuster.LowSleep(profile, today, metric); err != nil {
			return err
		}
	}
	return nil
}

// processEscalation raises an adherence alert when the trailing week has
// accumulated too many misses
func (o *Orchestrator) processEscalation(profile *models.AthleteProfile, local time.Time) error {
	due, misses, err := o.adherence.EscalationDue(profile.AthleteID, local)
	if err != nil {
		return err
	}
	if !due {
		return nil
	}

	event, err := o.adherence.Escalate(profile.AthleteID, local, misses)
	if err != nil {
		return err
	}
	if event == nil {
		return nil // already escalated today
	}

	_, err = o.dispatcher.Request(profile.AthleteID, models.MessageEscalation, event.Date,
		fmt.Sprintf("level %d: %s", event.Level, event.TriggerReason))
	return err
}

// processRollover generates next week's plan when the current one is on its
// last day or already expired. The existence check against persisted plans is
// what makes a re-run a no-op.
func (o *Orchestrator) processRollover(profile *models.AthleteProfile, local time.Time) (bool, error) {
	plan, err := o.db.GetActivePlan(profile.AthleteID)
	if err != nil {
		return false, err
	}
	if plan == nil {
		return false, nil // onboarding creates the first plan explicitly
	}

	// Plans end on Sunday, so the last-day check covers the weekly cadence
	// and also catches plans that expired while the service was down. A plan
	// whose end is still ahead never rolls over, which is what makes a re-run
	// after a successful rollover a no-op.
	today := local.Format(models.DateLayout)
	if plan.EndDate > today {
		return false, nil
	}

	end, err := time.Parse(models.DateLayout, plan.EndDate)
	if err != nil {
		return false, fmt.Errorf("failed to parse plan end date: %w", err)
	}
	nextStart := end.AddDate(0, 0, 1).Format(models.DateLayout)

	exists, err := o.db.PlanExistsStartingOnOrAfter(profile.AthleteID, nextStart)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	next, sessions, err := o.progression.GenerateNextWeek(profile)
	if err != nil {
		return false, err
	}

	if _, _, err := o.dispatcher.RequestOncePerDay(profile.AthleteID, models.MessagePlanReady, today,
		fmt.Sprintf("Week %d is ready: %d sessions, %s block.", next.WeekNumber, sessions, next.BlockType)); err != nil {
		o.logger.Error("Plan-ready notification failed", "athlete_id", profile.AthleteID, "error", err)
	}
	return true, nil
}

// processMotivation sends an encouragement nudge, unless the athlete has
// already heard from us more than once today
func (o *Orchestrator) processMotivation(profile *models.AthleteProfile, record *models.AdherenceRecord, today string) error {
	count, err := o.db.CountMessages(profile.AthleteID, today)
	if err != nil {
		return err
	}
	if count > 1 {
		return nil // keep the day's message volume low
	}

	// Nudges go out 70% of the time so they read as a coach checking in
	// rather than a standing broadcast
	o.mu.Lock()
	send := o.rng.Float64() < 0.70
	o.mu.Unlock()
	if !send {
		return nil
	}

	context := "A new day, a fresh start. Your next session is waiting."
	if record.CompletedCount > 0 {
		context = fmt.Sprintf("You've completed %d of %d sessions this week. Keep it rolling.",
			record.CompletedCount, record.ScheduledCount)
	}
	_, _, err = o.dispatcher.RequestOncePerDay(profile.AthleteID, models.MessageMotivation, today, context)
	return err
}
