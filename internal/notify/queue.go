package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeBookingTransition = "booking:transition"
	QueueNotifications    = "notifications"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands notifications to the worker through asynq.
type QueueNotifier struct {
	client enqueuer
	log    *zap.Logger
}

func NewQueueNotifier(client *asynq.Client, log *zap.Logger) *QueueNotifier {
	return &QueueNotifier{client: client, log: log}
}

// Delivery is one push for one recipient. Each recipient gets its own task,
// so a retry never repeats a push that already went out.
type Delivery struct {
	BookingID uint   `json:"booking_id"`
	Status    string `json:"status"`
	UserID    uint   `json:"user_id"`
}

func NewTransitionTask(d Delivery) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, nil, err
	}

	task := asynq.NewTask(TypeBookingTransition, b)
	opts := []asynq.Option{
		asynq.TaskID(fmt.Sprintf("booking-%d-%s-user-%d", d.BookingID, d.Status, d.UserID)),
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(5),
	}
	return task, opts, nil
}

func (q *QueueNotifier) Notify(ctx context.Context, n Notification) {
	for _, uid := range n.Recipients {
		q.enqueue(ctx, Delivery{BookingID: n.BookingID, Status: n.Status, UserID: uid})
	}
}

func (q *QueueNotifier) enqueue(ctx context.Context, d Delivery) {
	task, opts, err := NewTransitionTask(d)
	if err != nil {
		q.log.Error("notification payload", zap.Uint("booking_id", d.BookingID), zap.Error(err))
		return
	}

	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return
		}
		q.log.Warn("notification enqueue failed",
			zap.Uint("booking_id", d.BookingID),
			zap.String("status", d.Status),
			zap.Uint("user_id", d.UserID),
			zap.Error(err),
		)
	}
}
