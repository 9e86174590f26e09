package adjust

import (
	"math/rand"
	"testing"

	"trainsched/internal/catalog"
	"trainsched/internal/database"
	"trainsched/internal/models"
)

func setupTest(t *testing.T) (*database.DB, *Engine) {
	t.Helper()

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	return db, NewEngine(db, catalog.NewStatic(rand.New(rand.NewSource(11))))
}

func testProfile() *models.AthleteProfile {
	return &models.AthleteProfile{
		AthleteID:           300,
		Name:                "Test",
		Timezone:            "UTC",
		TrainingDaysPerWeek: 4,
		ExperienceLevel:     models.Intermediate,
		EquipmentAccess:     models.EquipmentFullGym,
		PrimaryGoal:         models.GoalGeneral,
		SubscriptionActive:  true,
	}
}

func session(id string, date string, order int, st models.SessionType) *models.WorkoutSession {
	return &models.WorkoutSession{
		ID:             id,
		PlanID:         "plan-1",
		AthleteID:      300,
		ScheduledDate:  date,
		ScheduledOrder: order,
		Type:           st,
		Status:         models.StatusScheduled,
		PrescribedDuration: 50,
		PrescribedTSS:      50,
		Content: models.SessionContent{
			TemplateID:   "tpl-" + id,
			Main:         []models.Exercise{{Name: "Work", Sets: 4, Reps: "8", RestSec: 120}},
			EstimatedTSS: 50,
		},
	}
}

func cardioSession(id string, date string, order int, st models.SessionType) *models.WorkoutSession {
	s := session(id, date, order, st)
	s.Content.Main = []models.Exercise{{Name: "Run", DurationMin: 40, Intensity: "steady"}}
	return s
}

// seedPlan creates an active week plan with the given sessions
func seedPlan(t *testing.T, db *database.DB, sessions ...*models.WorkoutSession) *models.WorkoutPlan {
	t.Helper()

	plan := &models.WorkoutPlan{
		ID:         "plan-1",
		AthleteID:  300,
		WeekNumber: 1,
		BlockType:  models.BlockBase,
		StartDate:  "2026-08-31",
		EndDate:    "2026-09-06",
		PlannedTSS: 200,
	}
	if err := db.CreatePlanWithSessions(plan, sessions); err != nil {
		t.Fatalf("Failed to seed plan: %v", err)
	}
	return plan
}

func TestMissedStrengthReschedules(t *testing.T) {
	db, engine := setupTest(t)
	// Tuesday strength missed; Wednesday is free, Thursday has endurance
	seedPlan(t, db,
		session("s-1", "2026-09-01", 0, models.StrengthUpper),
		cardioSession("s-2", "2026-09-03", 1, models.EnduranceZone2),
	)

	if err := engine.MissedStrength(testProfile(), "s-1", "2026-09-02"); err != nil {
		t.Fatalf("MissedStrength failed: %v", err)
	}

	missed, err := db.GetSession("s-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if missed.Status != models.StatusMissed {
		t.Errorf("Expected MISSED, got %s", missed.Status)
	}

	// Replacement lands on the first free day with links back to the original
	all, err := db.ListSessionsBetween(300, "2026-08-31", "2026-09-06")
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	var replacement *models.WorkoutSession
	for _, s := range all {
		if s.RescheduledFrom != nil && *s.RescheduledFrom == "s-1" {
			replacement = s
		}
	}
	if replacement == nil {
		t.Fatal("Expected a replacement session")
	}
	if replacement.ScheduledDate != "2026-09-02" {
		t.Errorf("Expected replacement on 2026-09-02, got %s", replacement.ScheduledDate)
	}
	if replacement.Type.Family() != models.FamilyStrength {
		t.Errorf("Expected a strength replacement, got %s", replacement.Type)
	}
	if replacement.OriginalDate == nil || *replacement.OriginalDate != "2026-09-01" {
		t.Errorf("Expected original date link, got %v", replacement.OriginalDate)
	}
	if replacement.PrescribedTSS != replacement.Content.EstimatedTSS {
		t.Errorf("Replacement TSS %d disagrees with content %d",
			replacement.PrescribedTSS, replacement.Content.EstimatedTSS)
	}

	logs, err := db.ListPlanAdjustments("plan-1")
	if err != nil {
		t.Fatalf("Failed to list adjustments: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected exactly 1 adjustment log, got %d", len(logs))
	}
	if logs[0].TriggerEvent != models.TriggerMissedStrength {
		t.Errorf("Expected MISSED_STRENGTH trigger, got %s", logs[0].TriggerEvent)
	}
	if len(logs[0].AffectedSessionIDs) != 2 {
		t.Errorf("Expected 2 affected sessions, got %v", logs[0].AffectedSessionIDs)
	}
}

func TestMissedStrengthIdempotent(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db, session("s-1", "2026-09-01", 0, models.StrengthUpper))

	if err := engine.MissedStrength(testProfile(), "s-1", "2026-09-02"); err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if err := engine.MissedStrength(testProfile(), "s-1", "2026-09-02"); err != nil {
		t.Fatalf("Second call failed: %v", err)
	}

	logs, err := db.ListPlanAdjustments("plan-1")
	if err != nil {
		t.Fatalf("Failed to list adjustments: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("Expected 1 adjustment after re-run, got %d", len(logs))
	}
}

func TestMissedStrengthNoFreeDayAbsorbs(t *testing.T) {
	db, engine := setupTest(t)
	// Every remaining day holds a scheduled session
	seedPlan(t, db,
		session("s-1", "2026-09-01", 0, models.StrengthUpper),
		session("s-2", "2026-09-02", 0, models.StrengthLower),
		session("s-3", "2026-09-03", 0, models.HIIT),
		cardioSession("s-4", "2026-09-04", 0, models.EnduranceZone2),
		session("s-5", "2026-09-05", 0, models.Mobility),
		session("s-6", "2026-09-06", 0, models.StrengthPush),
	)

	if err := engine.MissedStrength(testProfile(), "s-1", "2026-09-02"); err != nil {
		t.Fatalf("MissedStrength failed: %v", err)
	}

	all, err := db.ListSessionsBetween(300, "2026-08-31", "2026-09-06")
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("Expected no replacement inserted, got %d sessions", len(all))
	}

	// The decision is still recorded
	logs, err := db.ListPlanAdjustments("plan-1")
	if err != nil {
		t.Fatalf("Failed to list adjustments: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected 1 adjustment log, got %d", len(logs))
	}
	if len(logs[0].AffectedSessionIDs) != 1 {
		t.Errorf("Expected only the missed session affected, got %v", logs[0].AffectedSessionIDs)
	}
}

func TestSecondStrengthMissConsolidates(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db,
		session("s-1", "2026-08-31", 0, models.StrengthUpper),
		session("s-2", "2026-09-02", 0, models.StrengthLower),
		session("s-3", "2026-09-04", 0, models.StrengthPush),
	)

	// First miss reschedules (or absorbs); the second consolidates
	if err := engine.MissedStrength(testProfile(), "s-1", "2026-09-01"); err != nil {
		t.Fatalf("First miss failed: %v", err)
	}
	if err := engine.MissedStrength(testProfile(), "s-2", "2026-09-03"); err != nil {
		t.Fatalf("Second miss failed: %v", err)
	}

	next, err := db.GetSession("s-3")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if next.Type != models.StrengthFull {
		t.Errorf("Expected next session converted to STRENGTH_FULL, got %s", next.Type)
	}

	logs, err := db.ListPlanAdjustments("plan-1")
	if err != nil {
		t.Fatalf("Failed to list adjustments: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("Expected 2 adjustment logs, got %d", len(logs))
	}
}

func TestMissedStrengthNeverTouchesCompleted(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db, session("s-1", "2026-09-01", 0, models.StrengthUpper))

	if _, err := db.UpdateSessionStatus("s-1", models.StatusCompleted); err != nil {
		t.Fatalf("Failed to complete session: %v", err)
	}

	if err := engine.MissedStrength(testProfile(), "s-1", "2026-09-02"); err != nil {
		t.Fatalf("MissedStrength errored: %v", err)
	}

	got, err := db.GetSession("s-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("Completed session was altered to %s", got.Status)
	}

	logs, err := db.ListPlanAdjustments("plan-1")
	if err != nil {
		t.Fatalf("Failed to list adjustments: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("Expected no adjustment for a completed session, got %d", len(logs))
	}
}

func TestMissedEnduranceExtendsFuture(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db,
		cardioSession("s-1", "2026-09-01", 0, models.EnduranceZone2),
		cardioSession("s-2", "2026-09-03", 0, models.EnduranceTempo),
		cardioSession("s-3", "2026-09-05", 0, models.EnduranceZone2), // Saturday
	)

	if err := engine.MissedEndurance(testProfile(), "s-1", "2026-09-02"); err != nil {
		t.Fatalf("MissedEndurance failed: %v", err)
	}

	extended, err := db.GetSession("s-2")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if extended.PrescribedDuration != 65 {
		t.Errorf("Expected next endurance extended to 65 min, got %d", extended.PrescribedDuration)
	}
	if extended.PrescribedTSS != 62 {
		t.Errorf("Expected TSS 62, got %d", extended.PrescribedTSS)
	}

	weekend, err := db.GetSession("s-3")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if weekend.PrescribedDuration != 60 {
		t.Errorf("Expected weekend session lengthened to 60 min, got %d", weekend.PrescribedDuration)
	}
}

func TestMissedEnduranceInsertsZone2WhenNoneLeft(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db,
		cardioSession("s-1", "2026-09-01", 0, models.EnduranceZone2),
		session("s-2", "2026-09-04", 0, models.StrengthFull),
	)

	if err := engine.MissedEndurance(testProfile(), "s-1", "2026-09-02"); err != nil {
		t.Fatalf("MissedEndurance failed: %v", err)
	}

	all, err := db.ListSessionsBetween(300, "2026-08-31", "2026-09-06")
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}

	var inserted *models.WorkoutSession
	for _, s := range all {
		if s.RescheduledFrom != nil && *s.RescheduledFrom == "s-1" {
			inserted = s
		}
	}
	if inserted == nil {
		t.Fatal("Expected a Zone 2 replacement")
	}
	if inserted.Type != models.EnduranceZone2 {
		t.Errorf("Expected ENDURANCE_ZONE2, got %s", inserted.Type)
	}
	if inserted.PrescribedDuration != 30 || inserted.PrescribedTSS != 30 {
		t.Errorf("Expected 30min/30TSS, got %dmin/%dTSS", inserted.PrescribedDuration, inserted.PrescribedTSS)
	}
}

func TestHighFatigueReducesStrengthDay(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db, session("s-1", "2026-09-02", 0, models.StrengthLower))

	score := 80
	metric := &models.ReadinessMetric{
		AthleteID: 300, Date: "2026-09-02", Source: models.SourceDevice,
		FatigueScore: &score,
	}
	if err := db.UpsertReadiness(metric); err != nil {
		t.Fatalf("Failed to upsert readiness: %v", err)
	}

	if err := engine.HighFatigue(testProfile(), "2026-09-02", metric); err != nil {
		t.Fatalf("HighFatigue failed: %v", err)
	}

	got, err := db.GetSession("s-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got.Content.Main[0].Sets != 3 { // 4 * 0.75
		t.Errorf("Expected 3 sets, got %d", got.Content.Main[0].Sets)
	}
	if got.PrescribedTSS != 38 { // round(50 * 0.75)
		t.Errorf("Expected TSS 38, got %d", got.PrescribedTSS)
	}

	// Re-running the same day changes nothing further
	if err := engine.HighFatigue(testProfile(), "2026-09-02", metric); err != nil {
		t.Fatalf("Second call failed: %v", err)
	}
	logs, err := db.ListPlanAdjustments("plan-1")
	if err != nil {
		t.Fatalf("Failed to list adjustments: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("Expected 1 adjustment, got %d", len(logs))
	}
}

func TestHighFatigueSwapsHIIT(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db, session("s-1", "2026-09-02", 0, models.HIIT))

	score := 85
	metric := &models.ReadinessMetric{
		AthleteID: 300, Date: "2026-09-02", Source: models.SourceDevice,
		FatigueScore: &score,
	}

	if err := engine.HighFatigue(testProfile(), "2026-09-02", metric); err != nil {
		t.Fatalf("HighFatigue failed: %v", err)
	}

	got, err := db.GetSession("s-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got.Type != models.ActiveRecovery {
		t.Errorf("Expected ACTIVE_RECOVERY, got %s", got.Type)
	}
}

func TestSustainedFatigueEmergencyDeload(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db,
		session("s-1", "2026-09-02", 0, models.StrengthLower),
		session("s-2", "2026-09-04", 0, models.StrengthUpper),
		cardioSession("s-3", "2026-09-05", 0, models.EnduranceZone2),
	)

	// Three straight days over threshold
	score := 82
	for _, date := range []string{"2026-08-31", "2026-09-01", "2026-09-02"} {
		r := &models.ReadinessMetric{
			AthleteID: 300, Date: date, Source: models.SourceDevice, FatigueScore: &score,
		}
		if err := db.UpsertReadiness(r); err != nil {
			t.Fatalf("Failed to upsert readiness: %v", err)
		}
	}
	metric, err := db.GetReadiness(300, "2026-09-02")
	if err != nil {
		t.Fatalf("Failed to get readiness: %v", err)
	}

	if err := engine.HighFatigue(testProfile(), "2026-09-02", metric); err != nil {
		t.Fatalf("HighFatigue failed: %v", err)
	}

	plan, err := db.GetPlan("plan-1")
	if err != nil {
		t.Fatalf("Failed to get plan: %v", err)
	}
	if plan.BlockType != models.BlockDeload {
		t.Errorf("Expected plan relabeled deload, got %s", plan.BlockType)
	}

	// Future strength volume scaled down
	future, err := db.GetSession("s-2")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if future.Content.Main[0].Sets != 2 { // round(4 * 0.60)
		t.Errorf("Expected 2 sets after deload, got %d", future.Content.Main[0].Sets)
	}

	logs, err := db.ListPlanAdjustments("plan-1")
	if err != nil {
		t.Fatalf("Failed to list adjustments: %v", err)
	}
	if len(logs) != 1 || logs[0].AdjustmentType != "emergency_deload" {
		t.Errorf("Expected one emergency_deload log, got %+v", logs)
	}
}

func TestLowSleepTrimsAndSwapsAfterTwoNights(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db,
		session("s-1", "2026-09-02", 0, models.StrengthLower),
		session("s-2", "2026-09-04", 0, models.HIIT),
	)

	for _, date := range []string{"2026-09-01", "2026-09-02"} {
		r := &models.ReadinessMetric{
			AthleteID: 300, Date: date, Source: models.SourceManual,
			PerceivedEnergy: 5, PerceivedSoreness: 3,
			SleepQuality: 2, SleepDurationMin: 300,
		}
		if err := db.UpsertReadiness(r); err != nil {
			t.Fatalf("Failed to upsert readiness: %v", err)
		}
	}
	metric, err := db.GetReadiness(300, "2026-09-02")
	if err != nil {
		t.Fatalf("Failed to get readiness: %v", err)
	}

	if err := engine.LowSleep(testProfile(), "2026-09-02", metric); err != nil {
		t.Fatalf("LowSleep failed: %v", err)
	}

	today, err := db.GetSession("s-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if today.PrescribedTSS != 45 { // round(50 * 0.90)
		t.Errorf("Expected TSS 45, got %d", today.PrescribedTSS)
	}
	if len(today.Content.Notes) == 0 {
		t.Error("Expected a coaching note on the trimmed session")
	}

	hiit, err := db.GetSession("s-2")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if hiit.Type != models.ActiveRecovery {
		t.Errorf("Expected next HIIT swapped to ACTIVE_RECOVERY, got %s", hiit.Type)
	}
}

func TestTravelWeekCapsAndConverts(t *testing.T) {
	db, engine := setupTest(t)
	seedPlan(t, db,
		session("s-1", "2026-09-01", 0, models.StrengthUpper),
		cardioSession("s-2", "2026-09-02", 0, models.EnduranceZone2),
		session("s-3", "2026-09-03", 0, models.StrengthLower),
		session("s-4", "2026-09-04", 0, models.HIIT),
		cardioSession("s-5", "2026-09-05", 0, models.EnduranceTempo),
	)

	if err := engine.TravelWeek(testProfile(), "2026-09-01"); err != nil {
		t.Fatalf("TravelWeek failed: %v", err)
	}

	all, err := db.ListSessionsBetween(300, "2026-08-31", "2026-09-06")
	if err != nil {
		t.Fatalf("Failed to list sessions: %v", err)
	}

	scheduled, skipped, endurance := 0, 0, 0
	for _, s := range all {
		switch s.Status {
		case models.StatusScheduled:
			scheduled++
			if s.Type.Family() == models.FamilyEndurance {
				endurance++
			}
		case models.StatusSkipped:
			skipped++
		}
	}
	if scheduled != 3 {
		t.Errorf("Expected 3 sessions kept, got %d", scheduled)
	}
	if skipped != 2 {
		t.Errorf("Expected 2 sessions skipped, got %d", skipped)
	}
	if endurance > 1 {
		t.Errorf("Expected at most one endurance session kept, got %d", endurance)
	}

	// The dropped sessions carry the travel note
	for _, s := range all {
		if s.Status != models.StatusSkipped {
			continue
		}
		if len(s.Content.Notes) == 0 {
			t.Errorf("Expected a travel note on skipped session %s", s.ID)
		}
	}

	// Retained strength work is bodyweight now
	kept, err := db.GetSession("s-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if kept.Content.TemplateID == "tpl-s-1" {
		t.Error("Expected content replaced with a bodyweight template")
	}

	// Idempotent within the day
	if err := engine.TravelWeek(testProfile(), "2026-09-01"); err != nil {
		t.Fatalf("Second call failed: %v", err)
	}
	logs, err := db.ListPlanAdjustments("plan-1")
	if err != nil {
		t.Fatalf("Failed to list adjustments: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("Expected 1 adjustment, got %d", len(logs))
	}
}
