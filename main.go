package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"

	"trainsched/internal/adherence"
	"trainsched/internal/adjust"
	"trainsched/internal/catalog"
	"trainsched/internal/config"
	"trainsched/internal/database"
	"trainsched/internal/handlers"
	"trainsched/internal/metrics"
	"trainsched/internal/middleware"
	"trainsched/internal/notify"
	"trainsched/internal/planner"
	"trainsched/internal/progression"
	"trainsched/internal/review"
)

func main() {
	reviewAthlete := flag.Int64("review-athlete", 0, "Run a full review for one athlete and exit")
	planAthlete := flag.Int64("plan-athlete", 0, "Generate the initial plan for one athlete and exit")

	flag.Parse()

	if *reviewAthlete != 0 || *planAthlete != 0 {
		runOneShot(*reviewAthlete, *planAthlete)
		return
	}

	runServer()
}

// runOneShot executes a single admin operation without starting the server
func runOneShot(reviewAthlete, planAthlete int64) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	_, builder, _, _, _, orchestrator := buildPipeline(db, cfg)

	switch {
	case planAthlete != 0:
		profile, err := db.GetProfile(planAthlete)
		if err != nil || profile == nil {
			fmt.Fprintf(os.Stderr, "Error: athlete %d not found\n", planAthlete)
			os.Exit(1)
		}
		plan, sessions, err := builder.GenerateInitialPlan(profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created plan %s: week %d, %s block, %d sessions, %d TSS\n",
			plan.ID, plan.WeekNumber, plan.BlockType, sessions, plan.PlannedTSS)

	case reviewAthlete != 0:
		profile, err := db.GetProfile(reviewAthlete)
		if err != nil || profile == nil {
			fmt.Fprintf(os.Stderr, "Error: athlete %d not found\n", reviewAthlete)
			os.Exit(1)
		}
		loc, err := time.LoadLocation(profile.Timezone)
		if err != nil {
			loc = time.UTC
		}
		if err := orchestrator.ReviewAthlete(context.Background(), profile, time.Now().In(loc), review.WindowForced); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Reviewed athlete %d\n", reviewAthlete)
	}
}

// buildPipeline wires the domain engines in dependency order
func buildPipeline(db *database.DB, cfg *config.Config) (catalog.Catalog, *planner.Builder, *progression.Engine, *adjust.Engine, *adherence.Tracker, *review.Orchestrator) {
	cat := catalog.NewStatic(rand.New(rand.NewSource(time.Now().UnixNano())))
	builder := planner.NewBuilder(db, cat)
	prog := progression.NewEngine(db, builder)
	adjuster := adjust.NewEngine(db, cat)
	tracker := adherence.NewTracker(db)
	dispatcher := notify.NewDispatcher(db, &notify.LogSender{})
	orchestrator := review.NewOrchestrator(db, builder, prog, adjuster, tracker, dispatcher, cfg.ReviewWorkers)
	return cat, builder, prog, adjuster, tracker, orchestrator
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting trainsched server",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
		"review_workers", cfg.ReviewWorkers,
		"log_level", cfg.LogLevel)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Init(); err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	logger.Info("Database opened successfully")

	_, builder, prog, adjuster, _, orchestrator := buildPipeline(db, cfg)

	// Create handlers
	reviewHandler := handlers.NewReviewHandler(db, cfg, orchestrator)
	plansHandler := handlers.NewPlansHandler(db, cfg, builder, prog)
	travelHandler := handlers.NewTravelHandler(db, cfg, adjuster)
	readinessHandler := handlers.NewReadinessHandler(db, cfg)
	profilesHandler := handlers.NewProfilesHandler(db, cfg)

	// Set up HTTP routes
	mux := http.NewServeMux()

	mux.Handle("/admin/review", middleware.WrapFunc(metrics.EndpointReview, reviewHandler.HandleReview))
	mux.Handle("/admin/plans/initial", middleware.WrapFunc(metrics.EndpointPlans, plansHandler.HandleInitial))
	mux.Handle("/admin/plans/next", middleware.WrapFunc(metrics.EndpointPlans, plansHandler.HandleNext))
	mux.Handle("/admin/plans", middleware.WrapFunc(metrics.EndpointPlans, plansHandler.HandleGet))
	mux.Handle("/admin/travel", middleware.WrapFunc(metrics.EndpointTravel, travelHandler.HandleTravel))
	mux.Handle("/admin/profiles", middleware.WrapFunc(metrics.EndpointProfiles, profilesHandler.HandleProfiles))
	mux.Handle("/readiness", middleware.WrapFunc(metrics.EndpointReadiness, readinessHandler.HandleReadiness))

	mux.Handle("/health", middleware.WrapFunc(metrics.EndpointHealth, func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Schedule the hourly review tick and the daily dedup cache reset. The
	// tick runs on the hour so each timezone's midnight and morning windows
	// are caught as they come around.
	tickCtx, tickCancel := context.WithCancel(context.Background())
	defer tickCancel()

	scheduler := cron.New()
	scheduler.AddFunc("0 0 * * * *", func() { orchestrator.RunTick(tickCtx) })
	scheduler.AddFunc("0 5 3 * * *", orchestrator.ResetDedupCache)
	scheduler.Start()
	metrics.SchedulerActive.Set(1)
	logger.Info("Review scheduler started")

	// Run one tick at startup so a restart never loses a whole hour
	go orchestrator.RunTick(tickCtx)

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Start HTTP server in background
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	scheduler.Stop()
	metrics.SchedulerActive.Set(0)
	tickCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("Server stopped")
}
