package planner

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"trainsched/internal/catalog"
	"trainsched/internal/database"
	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

// templateLookbackDays is the window within which template ids are excluded
// to avoid repeating content
const templateLookbackDays = 14

// strengthRotation maps training days per week to the ordered strength split
// used to fill that week's strength slots
var strengthRotation = map[int][]models.SessionType{
	2: {models.StrengthFull, models.StrengthFull},
	3: {models.StrengthFull, models.StrengthUpper, models.StrengthLower},
	4: {models.StrengthUpper, models.StrengthLower, models.StrengthPush, models.StrengthPull},
	5: {models.StrengthPush, models.StrengthPull, models.StrengthLower, models.StrengthUpper, models.StrengthFull},
	6: {models.StrengthPush, models.StrengthPull, models.StrengthLower, models.StrengthPush, models.StrengthPull, models.StrengthLower},
}

var enduranceRotation = []models.SessionType{
	models.EnduranceZone2, models.EnduranceTempo, models.EnduranceIntervals,
}

// Builder turns an athlete's goal and capacity parameters into a dated,
// materialized week of sessions
type Builder struct {
	db      *database.DB
	catalog catalog.Catalog
	logger  *slog.Logger
}

// NewBuilder creates a plan builder
func NewBuilder(db *database.DB, cat catalog.Catalog) *Builder {
	return &Builder{db: db, catalog: cat, logger: slog.Default()}
}

// ClampDays bounds training days per week to the supported range
func ClampDays(n int) int {
	if n < 2 {
		return 2
	}
	if n > 6 {
		return 6
	}
	return n
}

// WeekSpecs computes the session type mix for one week. The count always
// equals the clamped day count and includes at least one strength session.
// Slots are filled in priority order (strength, endurance, HIIT, mobility),
// padded with Zone 2 when the rounded ratios come up short and truncated from
// the low-priority tail when they overshoot.
func WeekSpecs(daysPerWeek int, goal models.Goal) []models.SessionType {
	days := ClampDays(daysPerWeek)
	ratios := goal.Ratios()

	strength := int(math.Round(ratios.Strength * float64(days)))
	endurance := int(math.Round(ratios.Endurance * float64(days)))
	hiit := int(math.Round(ratios.HIIT * float64(days)))
	mobility := int(math.Round(ratios.Mobility * float64(days)))
	if strength < 1 {
		strength = 1
	}

	specs := make([]models.SessionType, 0, days)
	rotation := strengthRotation[days]
	for i := 0; i < strength; i++ {
		specs = append(specs, rotation[i%len(rotation)])
	}
	for i := 0; i < endurance; i++ {
		specs = append(specs, enduranceRotation[i%len(enduranceRotation)])
	}
	for i := 0; i < hiit; i++ {
		specs = append(specs, models.HIIT)
	}
	for i := 0; i < mobility; i++ {
		specs = append(specs, models.Mobility)
	}

	for len(specs) < days {
		specs = append(specs, models.EnduranceZone2)
	}
	if len(specs) > days {
		specs = specs[:days]
	}
	return specs
}

// BuildWeek materializes one week of sessions for the athlete starting at the
// given Monday. The plan and sessions are returned unpersisted so callers can
// apply load clamps before committing.
func (b *Builder) BuildWeek(profile *models.AthleteProfile, weekNumber int, block models.BlockType, weekStart time.Time, volumeMultiplier float64) (*models.WorkoutPlan, []*models.WorkoutSession, error) {
	specs := WeekSpecs(profile.TrainingDaysPerWeek, profile.PrimaryGoal)

	lookback := weekStart.AddDate(0, 0, -templateLookbackDays).Format(models.DateLayout)
	exclude, err := b.db.RecentTemplateIDs(profile.AthleteID, lookback)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load recent templates: %w", err)
	}
	if exclude == nil {
		exclude = make(map[string]bool)
	}

	plan := &models.WorkoutPlan{
		ID:         uuid.NewString(),
		AthleteID:  profile.AthleteID,
		WeekNumber: weekNumber,
		BlockType:  block,
		StartDate:  weekStart.Format(models.DateLayout),
		EndDate:    weekStart.AddDate(0, 0, 6).Format(models.DateLayout),
	}

	spacing := 7 / len(specs)
	if spacing < 1 {
		spacing = 1
	}

	mods := profile.ExperienceLevel.Modifiers()
	sessions := make([]*models.WorkoutSession, 0, len(specs))
	total := 0

	for i, sessionType := range specs {
		offset := i * spacing
		if offset > 6 {
			offset = 6
		}

		content, duration, tss := b.materialize(sessionType, profile.EquipmentAccess, exclude)
		applyExperience(&content, sessionType, mods)
		if volumeMultiplier != 1.0 {
			ScaleSets(&content, volumeMultiplier)
			tss = int(math.Round(float64(tss) * volumeMultiplier))
			content.EstimatedTSS = tss
		}

		sessions = append(sessions, &models.WorkoutSession{
			ID:                 uuid.NewString(),
			PlanID:             plan.ID,
			AthleteID:          profile.AthleteID,
			ScheduledDate:      weekStart.AddDate(0, 0, offset).Format(models.DateLayout),
			ScheduledOrder:     i,
			Type:               sessionType,
			Status:             models.StatusScheduled,
			PrescribedDuration: duration,
			PrescribedTSS:      tss,
			Content:            content,
		})
		total += tss
	}

	plan.PlannedTSS = total
	return plan, sessions, nil
}

// materialize fills a session spec from the catalog, tracking the chosen
// template so later slots in the same week avoid it too
func (b *Builder) materialize(sessionType models.SessionType, equipment models.EquipmentTier, exclude map[string]bool) (models.SessionContent, int, int) {
	tmpl := b.catalog.Pick(sessionType, equipment, exclude)
	if tmpl == nil {
		// No content exists for this type at all. Schedule it anyway with a
		// bare prescription; content can be attached by coaching later.
		b.logger.Warn("No template available", "session_type", sessionType, "equipment", equipment)
		return models.SessionContent{EstimatedTSS: 30}, 30, 30
	}
	exclude[tmpl.ID] = true
	return tmpl.Content(), tmpl.BaseDuration, tmpl.BaseTSS
}

// GenerateInitialPlan builds and activates week 1 for the athlete, starting
// on the next Monday in the athlete's local timezone. Returns the new plan
// and its session count.
func (b *Builder) GenerateInitialPlan(profile *models.AthleteProfile) (*models.WorkoutPlan, int, error) {
	if profile == nil {
		return nil, 0, database.ErrProfileNotFound
	}

	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start := NextMonday(time.Now().In(loc))

	plan, sessions, err := b.BuildWeek(profile, 1, models.BlockBase, start, 1.0)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build initial week: %w", err)
	}

	if err := b.db.CreatePlanWithSessions(plan, sessions); err != nil {
		return nil, 0, fmt.Errorf("failed to persist initial plan: %w", err)
	}

	metrics.PlansGeneratedTotal.WithLabelValues(metrics.PlanKindInitial).Inc()
	b.logger.Info("Generated initial plan",
		"athlete_id", profile.AthleteID,
		"plan_id", plan.ID,
		"sessions", len(sessions),
		"planned_tss", plan.PlannedTSS)

	return plan, len(sessions), nil
}

// NextMonday returns t's date if it is a Monday, otherwise the following
// Monday, at midnight in t's location
func NextMonday(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if day.Weekday() == time.Monday {
		return day
	}
	offset := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}

// applyExperience scales prescribed volume by the athlete's level and, for
// strength work, overrides rep range and intensity labels on the main lifts
func applyExperience(content *models.SessionContent, sessionType models.SessionType, mods models.ExperienceModifiers) {
	for i := range content.Main {
		e := &content.Main[i]
		if e.Sets > 0 {
			e.Sets = scaled(e.Sets, mods.SetMultiplier)
		}
		if e.RestSec > 0 {
			e.RestSec = int(math.Round(float64(e.RestSec) * mods.RestMultiplier))
		}
		if sessionType.Family() == models.FamilyStrength {
			e.Reps = mods.RepRange
			e.Intensity = mods.Intensity
		}
	}
}

// ScaleSets multiplies set counts in the main block, never dropping an
// exercise below one set
func ScaleSets(content *models.SessionContent, multiplier float64) {
	for i := range content.Main {
		if content.Main[i].Sets > 0 {
			content.Main[i].Sets = scaled(content.Main[i].Sets, multiplier)
		}
	}
}

func scaled(sets int, multiplier float64) int {
	n := int(math.Round(float64(sets) * multiplier))
	if n < 1 {
		n = 1
	}
	return n
}
