package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NewTransitionHandler delivers booking:transition tasks, one recipient per
// task. A failed send is returned so asynq retries that recipient only.
func NewTransitionHandler(sender Sender, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var d Delivery
		if err := json.Unmarshal(task.Payload(), &d); err != nil || d.UserID == 0 {
			log.Error("invalid notification payload", zap.Error(err))
			return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
		}

		data := map[string]string{
			"bookingId": strconv.FormatUint(uint64(d.BookingID), 10),
			"status":    d.Status,
		}
		body := Body(Notification{BookingID: d.BookingID, Status: d.Status})

		if err := sender.Send(ctx, d.UserID, "Booking update", body, data); err != nil {
			log.Warn("push failed",
				zap.Uint("booking_id", d.BookingID),
				zap.Uint("user_id", d.UserID),
				zap.Error(err),
			)
			return err
		}
		return nil
	}
}
