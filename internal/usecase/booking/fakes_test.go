package booking

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/counsel-console/internal/audit"
	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/infra/lock"
	"github.com/BruksfildServices01/counsel-console/internal/models"
	"github.com/BruksfildServices01/counsel-console/internal/notify"
)

// ======================================================
// Repository
// ======================================================

type memRepo struct {
	mu   sync.Mutex
	rows map[uint]models.Booking

	// beforeCAS runs once, ahead of the next compare-and-set.
	beforeCAS func(r *memRepo)
}

func newMemRepo(rows ...models.Booking) *memRepo {
	r := &memRepo{rows: make(map[uint]models.Booking)}
	for _, b := range rows {
		r.rows[b.ID] = b
	}
	return r
}

func (r *memRepo) get(id uint) models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *memRepo) setStatus(id uint, st domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.rows[id]
	b.Status = string(st)
	r.rows[id] = b
}

func (r *memRepo) GetBooking(_ context.Context, id uint) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *memRepo) ListBookings(_ context.Context, q domain.ListQuery) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for _, b := range r.rows {
		if q.CounselorID != 0 && b.CounselorID != q.CounselorID {
			continue
		}
		if len(q.Statuses) > 0 && !containsStatus(q.Statuses, domain.Status(b.Status)) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func containsStatus(in []domain.Status, s domain.Status) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}

func (r *memRepo) CompareAndSwap(_ context.Context, b *models.Booking, expected domain.Status) (bool, error) {
	r.mu.Lock()
	hook := r.beforeCAS
	r.beforeCAS = nil
	r.mu.Unlock()
	if hook != nil {
		hook(r)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[b.ID].Status != string(expected) {
		return false, nil
	}
	r.rows[b.ID] = *b
	return true, nil
}

func (r *memRepo) MarkSignalEmitted(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.rows[id]
	if b.SignalEmittedAt == nil {
		b.SignalEmittedAt = &at
		r.rows[id] = b
	}
	return nil
}

func (r *memRepo) ListElapsed(_ context.Context, now time.Time, _ int) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.Status == string(domain.StatusConfirmed) && !b.TimeEnd.After(now)
	}), nil
}

func (r *memRepo) ListDueForCompletion(_ context.Context, cutoff time.Time, _ int) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return domain.Status(b.Status).IsTimeDriven() && !b.TimeEnd.After(cutoff)
	}), nil
}

func (r *memRepo) ListUnsignalled(_ context.Context, _ time.Time, _ int) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.Disposition != "" && b.SignalEmittedAt == nil
	}), nil
}

func (r *memRepo) filter(keep func(models.Booking) bool) []models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.rows {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// ======================================================
// Collaborators
// ======================================================

type signal struct {
	BookingID   uint
	Amount      decimal.Decimal
	RecipientID uint
}

type countingPayments struct {
	mu      sync.Mutex
	refunds []signal
	payouts []signal
	fail    error
}

func (p *countingPayments) OnRefund(_ context.Context, id uint, amount decimal.Decimal, to uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.refunds = append(p.refunds, signal{id, amount, to})
	return nil
}

func (p *countingPayments) OnPayout(_ context.Context, id uint, amount decimal.Decimal, to uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.payouts = append(p.payouts, signal{id, amount, to})
	return nil
}

func (p *countingPayments) counts() (refunds, payouts int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.refunds), len(p.payouts)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) {
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) Dispatch(ev audit.Event) {
	a.mu.Lock()
	a.actions = append(a.actions, ev.Action)
	a.mu.Unlock()
}

// passLocker never blocks, leaving races to the compare-and-set.
type passLocker struct{}

func (passLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// busyLocker fails every acquire as if another writer held the booking.
type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) {
	return nil, lock.ErrBusy
}

// slowLocker runs wait before granting the lock, standing in for time spent
// queued behind another writer.
type slowLocker struct {
	wait func()
}

func (l slowLocker) Acquire(context.Context, string) (func(), error) {
	l.wait()
	return func() {}, nil
}
