package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// ListQuery is the storage-side pre-selection of a directory listing.
type ListQuery struct {
	From        time.Time
	To          time.Time
	Statuses    []Status
	CounselorID uint
	MemberID    uint
	Kind        Kind
}

type Repository interface {
	// -------- Read --------
	GetBooking(
		ctx context.Context,
		id uint,
	) (*models.Booking, error)

	ListBookings(
		ctx context.Context,
		q ListQuery,
	) ([]models.Booking, error)

	// -------- Write --------

	// CompareAndSwap stores every mutable field of b only if the stored
	// status still equals expected. It reports whether the row was written.
	CompareAndSwap(
		ctx context.Context,
		b *models.Booking,
		expected Status,
	) (bool, error)

	MarkSignalEmitted(
		ctx context.Context,
		bookingID uint,
		at time.Time,
	) error

	// -------- Reconciliation --------
	ListElapsed(
		ctx context.Context,
		now time.Time,
		limit int,
	) ([]models.Booking, error)

	ListDueForCompletion(
		ctx context.Context,
		graceCutoff time.Time,
		limit int,
	) ([]models.Booking, error)

	ListUnsignalled(
		ctx context.Context,
		updatedBefore time.Time,
		limit int,
	) ([]models.Booking, error)
}
