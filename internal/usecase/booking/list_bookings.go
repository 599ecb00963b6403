package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
)

type ListBookings struct {
	engine *Engine
	loc    *time.Location
}

func NewListBookings(engine *Engine, loc *time.Location) *ListBookings {
	return &ListBookings{engine: engine, loc: loc}
}

// Execute lists the bookings visible to actor that match f. Counselors see
// their own sessions and members the sessions they attend.
func (uc *ListBookings) Execute(
	ctx context.Context,
	actor domain.Actor,
	f domain.Filter,
) ([]View, error) {

	switch actor.Role {
	case domain.RoleCounselor:
		f.CounselorID = actor.ID
	case domain.RoleMember:
		f.MemberID = actor.ID
	case domain.RoleAdmin:
	default:
		return nil, domain.ErrForbidden
	}

	rows, err := uc.engine.repo.ListBookings(ctx, f.ListQuery(uc.loc))
	if err != nil {
		return nil, err
	}

	now := uc.engine.clock.Now()
	for i := range rows {
		if !needsCompletion(&rows[i], now) {
			continue
		}
		fresh, err := uc.engine.settle(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		rows[i] = *fresh
	}

	matched := domain.Apply(rows, f, now, uc.loc)

	out := make([]View, 0, len(matched))
	for i := range matched {
		out = append(out, uc.engine.View(&matched[i], actor))
	}
	return out, nil
}
