package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	ucbooking "github.com/BruksfildServices01/counsel-console/internal/usecase/booking"
)

const (
	TypeReconcile    = "booking:reconcile"
	QueueMaintenance = "maintenance"
)

// Reconciler is the sweep run by TypeReconcile tasks.
type Reconciler interface {
	Execute(ctx context.Context) (ucbooking.ReconcileResult, error)
}

func NewReconcileTask() *asynq.Task {
	return asynq.NewTask(TypeReconcile, nil)
}

// NewReconcileHandler runs the sweep. Errors are returned so asynq records
// them; the next scheduled run retries anyway.
func NewReconcileHandler(r Reconciler, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		res, err := r.Execute(ctx)
		if err != nil {
			log.Error("reconciliation sweep failed", zap.Error(err))
			return err
		}

		log.Info("reconciliation sweep finished",
			zap.Int("sessions_ended", res.SessionsEnded),
			zap.Int("completed", res.Completed),
			zap.Int("resignalled", res.Resignalled),
			zap.Int("requeued", res.Requeued),
		)
		return nil
	}
}

// RegisterSweep schedules the sweep on cronspec (cron syntax or "@every 5m").
// Overlapping runs are collapsed by the task's unique window.
func RegisterSweep(s *asynq.Scheduler, cronspec string) (string, error) {
	return s.Register(cronspec, NewReconcileTask(),
		asynq.Queue(QueueMaintenance),
		asynq.MaxRetry(0),
		asynq.Unique(time.Minute),
	)
}
