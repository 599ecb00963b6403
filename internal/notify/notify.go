package notify

import (
	"context"
	"fmt"
)

// Notification announces that a booking reached a new state.
type Notification struct {
	BookingID  uint   `json:"booking_id"`
	Status     string `json:"status"`
	Recipients []uint `json:"recipients"`
}

// Notifier is fire-and-forget: implementations log failures and never
// report them to the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type Discard struct{}

func (Discard) Notify(context.Context, Notification) {}

var messages = map[string]string{
	"refunded":            "Session #%d was cancelled and the payment refunded.",
	"member_cancelled":    "Session #%d was cancelled by the member.",
	"counselor_cancelled": "Session #%d was cancelled on behalf of the counselor.",
	"reported":            "Session #%d was reported and is under review.",
	"session_ended":       "Session #%d has ended. Notes are due within 24 hours.",
	"completed":           "Session #%d is complete.",
}

// Body renders the push text for a notification.
func Body(n Notification) string {
	if tpl, ok := messages[n.Status]; ok {
		return fmt.Sprintf(tpl, n.BookingID)
	}
	return fmt.Sprintf("Session #%d is now %s.", n.BookingID, n.Status)
}
