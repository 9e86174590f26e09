package planner

import (
	"math/rand"
	"testing"
	"time"

	"trainsched/internal/catalog"
	"trainsched/internal/database"
	"trainsched/internal/models"
)

func setupTest(t *testing.T) (*database.DB, *Builder) {
	t.Helper()

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	cat := catalog.NewStatic(rand.New(rand.NewSource(7)))
	return db, NewBuilder(db, cat)
}

func profile(days int, goal models.Goal) *models.AthleteProfile {
	return &models.AthleteProfile{
		AthleteID:           100,
		Name:                "Test",
		Timezone:            "UTC",
		TrainingDaysPerWeek: days,
		ExperienceLevel:     models.Intermediate,
		EquipmentAccess:     models.EquipmentFullGym,
		PrimaryGoal:         goal,
		SubscriptionActive:  true,
	}
}

func TestWeekSpecsCountAndStrength(t *testing.T) {
	for _, goal := range models.AllGoals() {
		for days := 2; days <= 6; days++ {
			specs := WeekSpecs(days, goal)
			if len(specs) != days {
				t.Errorf("goal=%s days=%d: expected %d specs, got %d", goal, days, days, len(specs))
			}

			strength := 0
			for _, st := range specs {
				if st.Family() == models.FamilyStrength {
					strength++
				}
			}
			if strength < 1 {
				t.Errorf("goal=%s days=%d: expected at least one strength session", goal, days)
			}
		}
	}
}

func TestWeekSpecsClampsDays(t *testing.T) {
	if got := len(WeekSpecs(1, models.GoalGeneral)); got != 2 {
		t.Errorf("Expected 1 day clamped to 2, got %d", got)
	}
	if got := len(WeekSpecs(9, models.GoalGeneral)); got != 6 {
		t.Errorf("Expected 9 days clamped to 6, got %d", got)
	}
}

func TestWeekSpecsEnduranceGoalMix(t *testing.T) {
	// 5 days at 55% endurance rounds to 3 endurance slots
	specs := WeekSpecs(5, models.GoalEndurance)

	endurance := 0
	for _, st := range specs {
		if st.Family() == models.FamilyEndurance {
			endurance++
		}
	}
	if endurance != 3 {
		t.Errorf("Expected 3 endurance sessions, got %d (%v)", endurance, specs)
	}
}

func TestBuildWeekDatesAndTotal(t *testing.T) {
	_, builder := setupTest(t)

	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) // a Monday
	plan, sessions, err := builder.BuildWeek(profile(4, models.GoalStrength), 1, models.BlockBase, monday, 1.0)
	if err != nil {
		t.Fatalf("BuildWeek failed: %v", err)
	}

	if plan.StartDate != "2026-08-31" || plan.EndDate != "2026-09-06" {
		t.Errorf("Unexpected plan window: %s to %s", plan.StartDate, plan.EndDate)
	}
	if len(sessions) != 4 {
		t.Fatalf("Expected 4 sessions, got %d", len(sessions))
	}

	total := 0
	for _, s := range sessions {
		if s.ScheduledDate < plan.StartDate || s.ScheduledDate > plan.EndDate {
			t.Errorf("Session %s outside plan window: %s", s.ID, s.ScheduledDate)
		}
		if s.Status != models.StatusScheduled {
			t.Errorf("Expected SCHEDULED, got %s", s.Status)
		}
		if s.PrescribedTSS != s.Content.EstimatedTSS {
			t.Errorf("Session TSS %d disagrees with content %d", s.PrescribedTSS, s.Content.EstimatedTSS)
		}
		total += s.PrescribedTSS
	}
	if plan.PlannedTSS != total {
		t.Errorf("Plan total %d != session sum %d", plan.PlannedTSS, total)
	}
}

func TestBuildWeekAppliesMultiplier(t *testing.T) {
	_, builder := setupTest(t)
	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	full, _, err := builder.BuildWeek(profile(4, models.GoalStrength), 1, models.BlockBase, monday, 1.0)
	if err != nil {
		t.Fatalf("BuildWeek failed: %v", err)
	}
	deload, _, err := builder.BuildWeek(profile(4, models.GoalStrength), 4, models.BlockDeload, monday, 0.60)
	if err != nil {
		t.Fatalf("BuildWeek failed: %v", err)
	}

	if deload.PlannedTSS >= full.PlannedTSS {
		t.Errorf("Deload total %d should be below full total %d", deload.PlannedTSS, full.PlannedTSS)
	}
}

func TestBuildWeekExperienceScaling(t *testing.T) {
	_, builder := setupTest(t)
	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	beginner := profile(3, models.GoalStrength)
	beginner.ExperienceLevel = models.Beginner

	_, sessions, err := builder.BuildWeek(beginner, 1, models.BlockBase, monday, 1.0)
	if err != nil {
		t.Fatalf("BuildWeek failed: %v", err)
	}

	for _, s := range sessions {
		if s.Type.Family() != models.FamilyStrength {
			continue
		}
		for _, e := range s.Content.Main {
			if e.Sets == 0 {
				continue
			}
			if e.Reps != "10-12" {
				t.Errorf("Expected beginner rep range 10-12, got %q", e.Reps)
			}
			if e.Intensity != "RPE 6-7" {
				t.Errorf("Expected beginner intensity RPE 6-7, got %q", e.Intensity)
			}
		}
	}
}

func TestGenerateInitialPlanPersists(t *testing.T) {
	db, builder := setupTest(t)

	p := profile(4, models.GoalGeneral)
	if err := db.UpsertProfile(p); err != nil {
		t.Fatalf("Failed to upsert profile: %v", err)
	}

	plan, count, err := builder.GenerateInitialPlan(p)
	if err != nil {
		t.Fatalf("GenerateInitialPlan failed: %v", err)
	}
	if plan.WeekNumber != 1 || plan.BlockType != models.BlockBase {
		t.Errorf("Expected week 1 base block, got week %d %s", plan.WeekNumber, plan.BlockType)
	}
	if count != 4 {
		t.Errorf("Expected 4 sessions, got %d", count)
	}

	start, err := time.Parse(models.DateLayout, plan.StartDate)
	if err != nil {
		t.Fatalf("Bad start date: %v", err)
	}
	if start.Weekday() != time.Monday {
		t.Errorf("Expected plan to start on a Monday, got %s", start.Weekday())
	}

	active, err := db.GetActivePlan(p.AthleteID)
	if err != nil {
		t.Fatalf("Failed to get active plan: %v", err)
	}
	if active == nil || active.ID != plan.ID {
		t.Errorf("Expected plan %s active, got %+v", plan.ID, active)
	}
}

func TestNextMonday(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"monday stays", time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC), "2026-08-31"},
		{"tuesday advances", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), "2026-09-07"},
		{"sunday advances one day", time.Date(2026, 9, 6, 23, 0, 0, 0, time.UTC), "2026-09-07"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextMonday(tc.in).Format(models.DateLayout)
			if got != tc.want {
				t.Errorf("NextMonday(%s) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestScaleSetsFloor(t *testing.T) {
	content := models.SessionContent{
		Main: []models.Exercise{{Name: "Push-up", Sets: 1}},
	}
	ScaleSets(&content, 0.60)
	if content.Main[0].Sets != 1 {
		t.Errorf("Expected sets floored at 1, got %d", content.Main[0].Sets)
	}
}

func TestBuildWeekAvoidsRecentTemplates(t *testing.T) {
	db, builder := setupTest(t)

	p := profile(3, models.GoalStrength)
	if err := db.UpsertProfile(p); err != nil {
		t.Fatalf("Failed to upsert profile: %v", err)
	}

	first, _, err := builder.GenerateInitialPlan(p)
	if err != nil {
		t.Fatalf("GenerateInitialPlan failed: %v", err)
	}
	firstSessions, err := db.ListPlanSessions(first.ID)
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}

	used := make(map[string]bool)
	for _, s := range firstSessions {
		used[s.Content.TemplateID] = true
	}

	start, _ := time.Parse(models.DateLayout, first.EndDate)
	_, second, err := builder.BuildWeek(p, 2, models.BlockBase, start.AddDate(0, 0, 1), 1.0)
	if err != nil {
		t.Fatalf("BuildWeek failed: %v", err)
	}

	// Skip full-body: its pool is small enough that exhaustion fallback could
	// legitimately repeat. The other types have alternatives and must rotate.
	for _, s := range second {
		if s.Type == models.StrengthFull {
			continue
		}
		if used[s.Content.TemplateID] {
			t.Errorf("Template %s repeated within lookback window (%s)", s.Content.TemplateID, s.Type)
		}
	}
}
