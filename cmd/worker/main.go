package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/counsel-console/internal/bootstrap"
	"github.com/BruksfildServices01/counsel-console/internal/config"
	"github.com/BruksfildServices01/counsel-console/internal/jobs"
	"github.com/BruksfildServices01/counsel-console/internal/logger"
	"github.com/BruksfildServices01/counsel-console/internal/notify"
	ucbooking "github.com/BruksfildServices01/counsel-console/internal/usecase/booking"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.RedisAddr == "" {
		zl.Fatal("REDIS_ADDR is required by the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to start", zap.Error(err))
	}
	defer app.Close()

	// ======================================================
	// HANDLERS
	// ======================================================
	mux := asynq.NewServeMux()

	reconcile := ucbooking.NewReconcile(app.Engine, app.Ledger, ucbooking.ReconcileOptions{
		RetryAfter: cfg.SettlementRetryAfter(),
	})
	mux.HandleFunc(jobs.TypeReconcile, jobs.NewReconcileHandler(reconcile, zl))

	if cfg.FirebaseCredentialsFile != "" {
		sender, err := notify.NewFCMSender(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			zl.Fatal("failed to init push sender", zap.Error(err))
		}
		mux.HandleFunc(notify.TypeBookingTransition, notify.NewTransitionHandler(sender, zl))
	} else {
		zl.Warn("FIREBASE_CREDENTIALS_FILE not set, push delivery is disabled")
	}

	// ======================================================
	// SCHEDULER
	// ======================================================
	scheduler := asynq.NewScheduler(bootstrap.RedisOpt(cfg), &asynq.SchedulerOpts{
		Location: app.Location,
	})
	entryID, err := jobs.RegisterSweep(scheduler, cfg.SweepCron)
	if err != nil {
		zl.Fatal("failed to schedule sweep", zap.String("cron", cfg.SweepCron), zap.Error(err))
	}
	zl.Info("reconciliation sweep scheduled", zap.String("cron", cfg.SweepCron), zap.String("entry", entryID))

	if err := scheduler.Start(); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Shutdown()

	// ======================================================
	// SERVER
	// ======================================================
	srv := asynq.NewServer(bootstrap.RedisOpt(cfg), asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			notify.QueueNotifications: 6,
			jobs.QueueMaintenance:     3,
			"default":                 1,
		},
	})

	if err := srv.Start(mux); err != nil {
		zl.Fatal("failed to start worker", zap.Error(err))
	}
	zl.Info("worker running")

	<-ctx.Done()
	srv.Shutdown()
}
