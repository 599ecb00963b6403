package bootstrap

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counsel-console/internal/audit"
	"github.com/BruksfildServices01/counsel-console/internal/clock"
	"github.com/BruksfildServices01/counsel-console/internal/config"
	dbpkg "github.com/BruksfildServices01/counsel-console/internal/db"
	"github.com/BruksfildServices01/counsel-console/internal/export"
	"github.com/BruksfildServices01/counsel-console/internal/infra/lock"
	"github.com/BruksfildServices01/counsel-console/internal/infra/repository"
	"github.com/BruksfildServices01/counsel-console/internal/notify"
	"github.com/BruksfildServices01/counsel-console/internal/payments"
	ucbooking "github.com/BruksfildServices01/counsel-console/internal/usecase/booking"
)

// App holds the singletons shared by the API and the worker.
type App struct {
	DB       *gorm.DB
	Engine   *ucbooking.Engine
	Ledger   *payments.Ledger
	Exporter *export.SettlementExporter
	Location *time.Location

	closers []func()
}

func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
}

// Build connects the database and wires the transition engine. Without
// REDIS_ADDR the booking lock is in-process and notifications are dropped.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	provider, err := cfg.PaymentProvider()
	if err != nil {
		return nil, err
	}

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		return nil, err
	}

	app := &App{DB: db, Location: cfg.Location()}

	// ======================================================
	// LOCK + QUEUE
	// ======================================================
	var locker lock.Locker = lock.NewKeyedMutex(cfg.LockWait())
	var notifier notify.Notifier = notify.Discard{}

	if cfg.RedisAddr != "" {
		rc, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisLockDB)
		if err != nil {
			log.Warn("redis unavailable, using in-process booking lock", zap.Error(err))
		} else {
			locker = lock.NewRedisLocker(rc, cfg.LockTTL(), cfg.LockWait(), log)
			app.closers = append(app.closers, func() { _ = rc.Close() })
		}

		queue := asynq.NewClient(RedisOpt(cfg))
		notifier = notify.NewQueueNotifier(queue, log)
		app.closers = append(app.closers, func() { _ = queue.Close() })
	} else {
		log.Warn("REDIS_ADDR not set, booking notifications are disabled")
	}

	// ======================================================
	// PAYMENTS
	// ======================================================
	accounts := payments.NewGormAccounts(db)

	var gateway payments.Gateway
	switch provider {
	case config.ProviderStripe:
		gateway = payments.NewStripeGateway(cfg.StripeSecretKey, accounts)
	case config.ProviderMercadoPago:
		mp, err := payments.NewMercadoPagoGateway(cfg.MercadoPagoAccessToken, cfg.MercadoPagoPayerEmail, accounts)
		if err != nil {
			app.Close()
			return nil, err
		}
		gateway = mp
	default:
		log.Warn("no payments provider configured, settlements are logged only")
		gateway = payments.NewLogGateway(log)
	}
	log.Info("payments gateway selected", zap.String("provider", provider))

	dispatcher := payments.NewDispatcher(db, gateway, log)
	app.Ledger = payments.NewLedger(db, cfg.Currency, dispatcher, log)
	app.closers = append(app.closers, dispatcher.Close)

	// ======================================================
	// AUDIT
	// ======================================================
	auditDispatcher := audit.NewDispatcher(audit.New(db), log)
	app.closers = append(app.closers, auditDispatcher.Close)

	// ======================================================
	// ENGINE
	// ======================================================
	app.Engine = ucbooking.NewEngine(ucbooking.Deps{
		Repo:     repository.NewBookingGormRepository(db),
		Clock:    clock.NewSystem(app.Location),
		Locker:   locker,
		Payments: app.Ledger,
		Notifier: notifier,
		Audit:    auditDispatcher,
		Policy:   policy,
		Logger:   log,
	})

	if cfg.S3Enabled() {
		store := export.NewS3Store(export.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		app.Exporter = export.NewSettlementExporter(app.Ledger, store)
	}

	return app, nil
}

// Close drains the background dispatchers and releases connections, most
// recently opened first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
