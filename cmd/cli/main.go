// Command cli is a developer tool for poking at a local scheduler database:
// seeding demo athletes, generating plans, forcing reviews and inspecting
// adherence without going through the HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"trainsched/internal/adherence"
	"trainsched/internal/adjust"
	"trainsched/internal/catalog"
	"trainsched/internal/database"
	"trainsched/internal/models"
	"trainsched/internal/notify"
	"trainsched/internal/planner"
	"trainsched/internal/progression"
	"trainsched/internal/review"
)

func main() {
	dbPath := flag.String("db", "./trainsched.db", "Path to the SQLite database")
	seed := flag.Bool("seed", false, "Seed demo athlete profiles")
	plan := flag.Int64("plan", 0, "Generate the initial plan for an athlete")
	next := flag.Int64("next", 0, "Generate the next week for an athlete")
	runReview := flag.Int64("review", 0, "Run a forced review for an athlete")
	showAdherence := flag.Int64("adherence", 0, "Show recent adherence for an athlete")

	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	db, err := database.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	cat := catalog.NewStatic(rand.New(rand.NewSource(time.Now().UnixNano())))
	builder := planner.NewBuilder(db, cat)
	prog := progression.NewEngine(db, builder)
	adjuster := adjust.NewEngine(db, cat)
	tracker := adherence.NewTracker(db)
	dispatcher := notify.NewDispatcher(db, &notify.LogSender{})
	orchestrator := review.NewOrchestrator(db, builder, prog, adjuster, tracker, dispatcher, 1)

	switch {
	case *seed:
		seedProfiles(db)
	case *plan != 0:
		generateInitial(db, builder, *plan)
	case *next != 0:
		generateNext(db, prog, *next)
	case *runReview != 0:
		forceReview(db, orchestrator, *runReview)
	case *showAdherence != 0:
		printAdherence(db, *showAdherence)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func seedProfiles(db *database.DB) {
	profiles := []*models.AthleteProfile{
		{
			AthleteID:           1001,
			Name:                "Demo Strength",
			Timezone:            "America/New_York",
			TrainingDaysPerWeek: 4,
			ExperienceLevel:     models.Intermediate,
			EquipmentAccess:     models.EquipmentFullGym,
			PrimaryGoal:         models.GoalStrength,
			SubscriptionActive:  true,
		},
		{
			AthleteID:           1002,
			Name:                "Demo Endurance",
			Timezone:            "Europe/London",
			TrainingDaysPerWeek: 5,
			ExperienceLevel:     models.Advanced,
			EquipmentAccess:     models.EquipmentHomeBasic,
			PrimaryGoal:         models.GoalEndurance,
			SubscriptionActive:  true,
		},
		{
			AthleteID:           1003,
			Name:                "Demo Beginner",
			Timezone:            "Australia/Sydney",
			TrainingDaysPerWeek: 3,
			ExperienceLevel:     models.Beginner,
			EquipmentAccess:     models.EquipmentBodyweight,
			PrimaryGoal:         models.GoalGeneral,
			SubscriptionActive:  true,
		},
	}

	for _, p := range profiles {
		if err := db.UpsertProfile(p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to seed athlete %d: %v\n", p.AthleteID, err)
			os.Exit(1)
		}
		fmt.Printf("Seeded athlete %d (%s)\n", p.AthleteID, p.Name)
	}
}

func generateInitial(db *database.DB, builder *planner.Builder, athleteID int64) {
	profile := mustProfile(db, athleteID)
	plan, sessions, err := builder.GenerateInitialPlan(profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Plan %s: week %d, %s block, %s to %s, %d sessions, %d TSS\n",
		plan.ID, plan.WeekNumber, plan.BlockType, plan.StartDate, plan.EndDate, sessions, plan.PlannedTSS)
	printSessions(db, plan.ID)
}

func generateNext(db *database.DB, prog *progression.Engine, athleteID int64) {
	profile := mustProfile(db, athleteID)
	plan, sessions, err := prog.GenerateNextWeek(profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Plan %s: week %d, %s block, %s to %s, %d sessions, %d TSS\n",
		plan.ID, plan.WeekNumber, plan.BlockType, plan.StartDate, plan.EndDate, sessions, plan.PlannedTSS)
	printSessions(db, plan.ID)
}

func forceReview(db *database.DB, orchestrator *review.Orchestrator, athleteID int64) {
	profile := mustProfile(db, athleteID)
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	if err := orchestrator.ReviewAthlete(context.Background(), profile, time.Now().In(loc), review.WindowForced); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reviewed athlete %d\n", athleteID)
}

func printAdherence(db *database.DB, athleteID int64) {
	records, err := db.ListRecentAdherence(athleteID, 8)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No adherence records.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  scheduled=%d completed=%d missed=%d skipped=%d rate=%.2f streak=%d escalated=%t\n",
			r.WeekStart, r.ScheduledCount, r.CompletedCount, r.MissedCount,
			r.SkippedCount, r.AdherenceRate, r.ConsecutiveMissed, r.EscalationTriggered)
	}
}

func printSessions(db *database.DB, planID string) {
	sessions, err := db.ListPlanSessions(planID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, s := range sessions {
		fmt.Printf("  %s  %-20s %3d min  %3d TSS  [%s]\n",
			s.ScheduledDate, s.Type, s.PrescribedDuration, s.PrescribedTSS, s.Status)
	}
}

func mustProfile(db *database.DB, athleteID int64) *models.AthleteProfile {
	profile, err := db.GetProfile(athleteID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if profile == nil {
		fmt.Fprintf(os.Stderr, "Error: athlete %d not found\n", athleteID)
		os.Exit(1)
	}
	return profile
}
