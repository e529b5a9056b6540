package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"branchrent-backend/internal/app"
	"branchrent-backend/internal/config"
	"branchrent-backend/internal/jobs"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'delete-abandoned', 'lapse-confirmed', 'mark-not-returned', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting BranchRent Cronjob Runner...", "log_level", cfg.Log.Level)

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(a.Store, a.Services.Reservations, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			logger.Error("Unknown job name", "job", *runOnce)
			a.Close()
			os.Exit(2)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to initialize scheduler", "error", err)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down scheduler...")
	cronScheduler.Stop()
	logger.Info("Scheduler stopped")
}

func runJobOnce(jr *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "delete-abandoned":
		jr.DeleteAbandonedReservations()
	case "lapse-confirmed":
		jr.LapseConfirmedReservations()
	case "mark-not-returned":
		jr.MarkNotReturnedReservations()
	case "all":
		jr.RunAll()
	default:
		return false
	}
	return true
}
