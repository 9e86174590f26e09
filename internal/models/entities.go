package models

import "time"

// AthleteProfile holds the capacity parameters the scheduler reads. It is
// owned by the onboarding flow; the scheduler never mutates it.
type AthleteProfile struct {
	AthleteID           int64           `json:"athlete_id"`
	Name                string          `json:"name"`
	Timezone            string          `json:"timezone"`
	TrainingDaysPerWeek int             `json:"training_days_per_week"`
	ExperienceLevel     ExperienceLevel `json:"experience_level"`
	EquipmentAccess     EquipmentTier   `json:"equipment_access"`
	PrimaryGoal         Goal            `json:"primary_goal"`
	SubscriptionActive  bool            `json:"subscription_active"`
	CreatedAt           int64           `json:"created_at"`
	UpdatedAt           int64           `json:"updated_at"`
}

// WorkoutPlan is one periodization window. At most one plan per athlete is
// active at any time; rollover deactivates the prior plan in the same
// transaction that creates the next one. Plans are deactivated, never deleted.
type WorkoutPlan struct {
	ID         string    `json:"id"`
	AthleteID  int64     `json:"athlete_id"`
	WeekNumber int       `json:"week_number"`
	BlockType  BlockType `json:"block_type"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	PlannedTSS int       `json:"planned_tss"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  int64     `json:"created_at"`
}

// Exercise is one prescribed movement inside a session block
type Exercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets,omitempty"`
	Reps        string `json:"reps,omitempty"`
	RestSec     int    `json:"rest_sec,omitempty"`
	DurationMin int    `json:"duration_min,omitempty"`
	Intensity   string `json:"intensity,omitempty"`
}

// SessionContent is the typed workout payload. It carries the template id it
// was built from so the planner can avoid repeating templates week to week.
type SessionContent struct {
	TemplateID   string     `json:"template_id"`
	Warmup       []Exercise `json:"warmup"`
	Main         []Exercise `json:"main"`
	Cooldown     []Exercise `json:"cooldown"`
	EstimatedTSS int        `json:"estimated_tss"`
	Notes        []string   `json:"notes,omitempty"`
}

// WorkoutSession is a single dated session within a plan
type WorkoutSession struct {
	ID                 string         `json:"id"`
	PlanID             string         `json:"plan_id"`
	AthleteID          int64          `json:"athlete_id"`
	ScheduledDate      string         `json:"scheduled_date"`
	ScheduledOrder     int            `json:"scheduled_order"`
	Type               SessionType    `json:"type"`
	Status             SessionStatus  `json:"status"`
	PrescribedDuration int            `json:"prescribed_duration"`
	PrescribedTSS      int            `json:"prescribed_tss"`
	Content            SessionContent `json:"content"`
	OriginalDate       *string        `json:"original_date,omitempty"`
	RescheduledFrom    *string        `json:"rescheduled_from,omitempty"`
	CreatedAt          int64          `json:"created_at"`
	UpdatedAt          int64          `json:"updated_at"`
}

// AdjustmentLog is the append-only audit record of one adjustment decision.
// One row is written per decision, including decisions that changed nothing.
type AdjustmentLog struct {
	ID                 string       `json:"id"`
	PlanID             string       `json:"plan_id"`
	AthleteID          int64        `json:"athlete_id"`
	TriggerEvent       TriggerEvent `json:"trigger_event"`
	TriggerData        string       `json:"trigger_data,omitempty"`
	AdjustmentType     string       `json:"adjustment_type"`
	Description        string       `json:"description"`
	AffectedSessionIDs []string     `json:"affected_session_ids"`
	Date               string       `json:"date"`
	CreatedAt          int64        `json:"created_at"`
}

// ReadinessMetric is one day's recovery signal from one source
type ReadinessMetric struct {
	AthleteID         int64           `json:"athlete_id"`
	Date              string          `json:"date"`
	Source            ReadinessSource `json:"source"`
	PerceivedEnergy   int             `json:"perceived_energy"`
	PerceivedSoreness int             `json:"perceived_soreness"`
	PerceivedMood     int             `json:"perceived_mood"`
	SleepQuality      int             `json:"sleep_quality"`
	SleepDurationMin  int             `json:"sleep_duration_min"`
	HRV               *int            `json:"hrv,omitempty"`
	SleepScore        *int            `json:"sleep_score,omitempty"`
	FatigueScore      *int            `json:"fatigue_score,omitempty"`
	CreatedAt         int64           `json:"created_at"`
}

// Fatigue returns the stored fatigue score when the source provided one,
// otherwise a 0-100 blend of perceived energy and soreness so manual
// check-ins are comparable against device thresholds.
func (r *ReadinessMetric) Fatigue() int {
	if r.FatigueScore != nil {
		return *r.FatigueScore
	}
	score := (10-r.PerceivedEnergy)*6 + r.PerceivedSoreness*4
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// HighFatigue reports whether this reading crosses the fatigue threshold
func (r *ReadinessMetric) HighFatigue() bool {
	return r.Fatigue() > 70 || (r.PerceivedEnergy < 4 && r.PerceivedSoreness > 7)
}

// LowSleep reports whether this reading crosses the poor-sleep threshold
func (r *ReadinessMetric) LowSleep() bool {
	if r.SleepScore != nil && *r.SleepScore < 50 {
		return true
	}
	return (r.SleepQuality > 0 && r.SleepQuality < 4) ||
		(r.SleepDurationMin > 0 && r.SleepDurationMin < 360)
}

// AdherenceRecord is the cached weekly aggregate, keyed by the Monday of the
// week. It is fully recomputed from session rows, never patched.
type AdherenceRecord struct {
	AthleteID           int64   `json:"athlete_id"`
	WeekStart           string  `json:"week_start"`
	ScheduledCount      int     `json:"scheduled_count"`
	CompletedCount      int     `json:"completed_count"`
	MissedCount         int     `json:"missed_count"`
	SkippedCount        int     `json:"skipped_count"`
	AdherenceRate       float64 `json:"adherence_rate"`
	ConsecutiveMissed   int     `json:"consecutive_missed"`
	EscalationTriggered bool    `json:"escalation_triggered"`
	UpdatedAt           int64   `json:"updated_at"`
}

// EscalationEvent records an adherence alert, at most one per athlete per day
type EscalationEvent struct {
	ID            string `json:"id"`
	AthleteID     int64  `json:"athlete_id"`
	Date          string `json:"date"`
	TriggerReason string `json:"trigger_reason"`
	Level         int    `json:"level"`
	Resolved      bool   `json:"resolved"`
	ResolvedAt    *int64 `json:"resolved_at,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

// MessageLog records an outbound notification request. Delivery is handled by
// an external channel; the row exists so reviews can dedup by category/day.
type MessageLog struct {
	ID        string          `json:"id"`
	AthleteID int64           `json:"athlete_id"`
	Category  MessageCategory `json:"category"`
	Channel   string          `json:"channel"`
	Date      string          `json:"date"`
	Context   string          `json:"context,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

// MondayOf returns the Monday of the week containing t, at t's location
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, -offset)
}
