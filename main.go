package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/taskdojo-app/taskdojo/taskdojo"
	"github.com/taskdojo-app/taskdojo/taskdojo/database"
	"github.com/taskdojo-app/taskdojo/taskdojo/logger"
	"github.com/taskdojo-app/taskdojo/taskdojo/web"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	runDaily := flag.Bool("run-daily", false, "run the daily job once and exit")
	runHourly := flag.Bool("run-hourly", false, "run the hourly job once and exit")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := taskdojo.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	customHandler := logger.NewHandler(cfg.Log.Level)
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting TaskDojo",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("type", "db"),
			slog.Any("error", err),
			slog.Duration("attempted_for", time.Since(dbStart)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("type", "db"),
			slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Database ready",
		slog.String("type", "db"),
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStart)))

	app := taskdojo.New(*cfg, version, commit)
	if err := app.Setup(ctx, db); err != nil {
		slog.Error("Failed to set up application", slog.Any("error", err))
		os.Exit(-1)
	}

	// One-shot job modes for operators and cron-less deployments.
	if *runDaily || *runHourly {
		runOnce(ctx, app, *runDaily, *runHourly)
		return
	}

	if err := app.Orchestrator.Start(cfg.Scheduler.DailySpec, cfg.Scheduler.HourlySpec); err != nil {
		slog.Error("Failed to start orchestrator", slog.Any("error", err))
		os.Exit(-1)
	}
	defer app.Orchestrator.Stop()

	server := web.NewServer(app, cfg.Server.Addr)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("HTTP server failed", slog.Any("error", err))
			os.Exit(-1)
		}
	}()

	slog.Info("TaskDojo is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s

	slog.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", slog.Any("error", err))
	}
}

func runOnce(ctx context.Context, app *taskdojo.App, daily, hourly bool) {
	if daily {
		if err := app.Orchestrator.RunDaily(ctx); err != nil {
			slog.Error("Daily job failed", slog.String("type", "job"), slog.Any("error", err))
			os.Exit(-1)
		}
	}
	if hourly {
		if err := app.Orchestrator.RunHourly(ctx); err != nil {
			slog.Error("Hourly job failed", slog.String("type", "job"), slog.Any("error", err))
			os.Exit(-1)
		}
	}
}
