package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"reconledger-backend/internal/app"
	"reconledger-backend/internal/config"
	"reconledger-backend/internal/jobs"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'sweep-overdue', 'calculate-commissions', 'all-nightly', 'all-monthly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Ledger Cronjob Runner...", "log_level", cfg.Log.Level)

	a, err := app.Open(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backends", "error", err)
		log.Fatalf("Failed to initialize backends: %v", err)
	}
	defer a.Close()

	jobRunner := jobs.NewJobRunner(a.Store, &jobs.Services{
		Obligations: a.Obligations,
		Commissions: a.Commissions,
	}, cfg)

	// If run-once flag is set, run the specific job and exit
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		switch *runOnce {
		case "sweep-overdue":
			jobRunner.SweepOverdue()
		case "calculate-commissions":
			jobRunner.CalculateCommissions()
		case "all-nightly":
			jobRunner.RunAllNightlyJobs()
		case "all-monthly":
			jobRunner.RunAllMonthlyJobs()
		default:
			a.Close()
			log.Fatalf("Unknown job: %s", *runOnce)
		}
		logger.Info("Job completed", "job", *runOnce)
		return
	}

	sched, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		a.Close()
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()
	logger.Info("Scheduler started", "entries", len(sched.Entries()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received signal, shutting down", "signal", sig.String())

	sched.Stop()
	logger.Info("Cronjob runner stopped")
}
