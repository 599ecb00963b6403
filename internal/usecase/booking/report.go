package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

type FileReport struct {
	engine *Engine
}

func NewFileReport(engine *Engine) *FileReport {
	return &FileReport{engine: engine}
}

func (uc *FileReport) Execute(
	ctx context.Context,
	actor domain.Actor,
	bookingID uint,
	message string,
) (*models.Booking, error) {

	settled := func(b *models.Booking) bool {
		return domain.Status(b.Status) == domain.StatusReported
	}

	return uc.engine.transition(ctx, bookingID, actor, settled,
		func(b *models.Booking, now time.Time) (domain.Effect, string, error) {
			return domain.Effect{}, "booking_reported", domain.FileReport(b, message, now)
		},
	)
}
