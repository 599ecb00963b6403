package booking

import (
	"strconv"
	"strings"
	"time"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

type Kind string

const (
	KindIndividual Kind = "individual"
	KindCouple     Kind = "couple"
)

func KindOf(b *models.Booking) Kind {
	if b.Member2ID != nil {
		return KindCouple
	}
	return KindIndividual
}

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindIndividual, KindCouple:
		return Kind(s), true
	}
	return "", false
}

// Filter selects bookings for list views. Zero values mean "any".
// Status is compared against the effective status.
type Filter struct {
	Date        time.Time
	Month       time.Time
	Status      Status
	Query       string
	Kind        Kind
	CounselorID uint
	MemberID    uint
}

// CandidateStatuses lists the persisted statuses that can resolve to the
// given effective status.
func CandidateStatuses(effective Status) []Status {
	switch effective {
	case StatusSessionEnded:
		return []Status{StatusConfirmed, StatusSessionEnded}
	case StatusCompleted:
		return []Status{StatusConfirmed, StatusSessionEnded, StatusCompleted}
	case "":
		return nil
	}
	return []Status{effective}
}

// Window returns the [from, to) range of session starts the filter admits,
// or ok=false when it is not bounded in time. Date wins over Month.
func (f Filter) Window(loc *time.Location) (from, to time.Time, ok bool) {
	switch {
	case !f.Date.IsZero():
		d := f.Date.In(loc)
		from = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 0, 1), true
	case !f.Month.IsZero():
		m := f.Month.In(loc)
		from = time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0), true
	}
	return time.Time{}, time.Time{}, false
}

// ListQuery turns the filter into the storage pre-selection. The result is a
// superset; Apply narrows it by effective status and free text.
func (f Filter) ListQuery(loc *time.Location) ListQuery {
	q := ListQuery{
		Statuses:    CandidateStatuses(f.Status),
		CounselorID: f.CounselorID,
		MemberID:    f.MemberID,
		Kind:        f.Kind,
	}
	if from, to, ok := f.Window(loc); ok {
		q.From, q.To = from, to
	}
	return q
}

func (f Filter) Matches(b *models.Booking, now time.Time, loc *time.Location) bool {
	if from, to, ok := f.Window(loc); ok {
		start := b.TimeStart.In(loc)
		if start.Before(from) || !start.Before(to) {
			return false
		}
	}

	if f.Status != "" && EffectiveStatusOf(b, now) != f.Status {
		return false
	}

	if f.Kind != "" && KindOf(b) != f.Kind {
		return false
	}

	if f.CounselorID != 0 && b.CounselorID != f.CounselorID {
		return false
	}

	if f.MemberID != 0 && b.MemberID != f.MemberID &&
		(b.Member2ID == nil || *b.Member2ID != f.MemberID) {
		return false
	}

	return matchesText(b, f.Query)
}

func matchesText(b *models.Booking, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}

	if strings.TrimPrefix(q, "#") == strconv.FormatUint(uint64(b.ID), 10) {
		return true
	}

	names := []string{b.Counselor.Name, b.Member.Name}
	if b.Member2 != nil {
		names = append(names, b.Member2.Name)
	}
	for _, n := range names {
		if n != "" && strings.Contains(strings.ToLower(n), q) {
			return true
		}
	}
	return false
}

// Apply returns the bookings that match f, keeping input order. The input
// slice is not modified.
func Apply(
	bookings []models.Booking,
	f Filter,
	now time.Time,
	loc *time.Location,
) []models.Booking {
	out := make([]models.Booking, 0, len(bookings))
	for i := range bookings {
		if f.Matches(&bookings[i], now, loc) {
			out = append(out, bookings[i])
		}
	}
	return out
}
