package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/counsel-console/internal/clock"
	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/httperr"
	"github.com/BruksfildServices01/counsel-console/internal/models"
)

var (
	sessionStart = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	sessionEnd   = sessionStart.Add(50 * time.Minute)

	counselorActor = domain.Actor{ID: 1, Role: domain.RoleCounselor}
	memberActor    = domain.Actor{ID: 2, Role: domain.RoleMember}
	adminActor     = domain.Actor{ID: 9, Role: domain.RoleAdmin}
)

type harness struct {
	repo     *memRepo
	clock    *clock.Manual
	pay      *countingPayments
	notifier *recordingNotifier
	audit    *recordingAudit
	engine   *Engine
}

func newHarness(now time.Time, rows ...models.Booking) *harness {
	h := &harness{
		repo:     newMemRepo(rows...),
		clock:    clock.NewManual(now),
		pay:      &countingPayments{},
		notifier: &recordingNotifier{},
		audit:    &recordingAudit{},
	}
	h.engine = NewEngine(Deps{
		Repo:     h.repo,
		Clock:    h.clock,
		Payments: h.pay,
		Notifier: h.notifier,
		Audit:    h.audit,
		Policy:   domain.DefaultPolicy(),
	})
	return h
}

func newBooking(id uint, st domain.Status) models.Booking {
	return models.Booking{
		ID:          id,
		CounselorID: 1,
		MemberID:    2,
		TimeStart:   sessionStart,
		TimeEnd:     sessionEnd,
		Price:       decimal.RequireFromString("80000"),
		Status:      string(st),
	}
}

var fullNotes = domain.Notes{
	ProblemSummary:  "sleep problems",
	ProblemAnalysis: "work stress",
	Guides:          "evening routine",
}

// ======================================================
// Scenarios
// ======================================================

func TestScenario_NaturalCompletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(sessionEnd.Add(time.Second), newBooking(1, domain.StatusConfirmed))
	get := NewGetBooking(h.engine)

	v, err := get.Execute(ctx, counselorActor, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSessionEnded, v.EffectiveStatus)
	assert.Equal(t, domain.GracePeriod-time.Second, v.RemainingGrace)
	assert.Equal(t, string(domain.StatusConfirmed), h.repo.get(1).Status)
	_, payouts := h.pay.counts()
	assert.Equal(t, 0, payouts)

	h.clock.Set(sessionEnd.Add(domain.GracePeriod + time.Second))

	v, err = get.Execute(ctx, memberActor, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, v.EffectiveStatus)
	assert.Equal(t, time.Duration(0), v.RemainingGrace)
	assert.Equal(t, string(domain.StatusCompleted), h.repo.get(1).Status)

	_, err = get.Execute(ctx, counselorActor, 1)
	require.NoError(t, err)
	_, err = NewListBookings(h.engine, time.UTC).Execute(ctx, adminActor, domain.Filter{})
	require.NoError(t, err)

	refunds, payouts := h.pay.counts()
	assert.Equal(t, 0, refunds)
	require.Equal(t, 1, payouts)
	assert.Equal(t, uint(1), h.pay.payouts[0].RecipientID)
	assert.True(t, h.pay.payouts[0].Amount.Equal(decimal.RequireFromString("80000")))
	assert.NotNil(t, h.repo.get(1).SignalEmittedAt)
}

func TestScenario_TimelyCancellation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(sessionStart.Add(-48*time.Hour), newBooking(1, domain.StatusConfirmed))
	uc := NewCancelBooking(h.engine)

	b, err := uc.Execute(ctx, counselorActor, 1, CancelInput{Reason: "schedule conflict"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRefunded), b.Status)
	assert.Equal(t, "schedule conflict", b.CancelReason)

	// retry returns the stored state
	again, err := uc.Execute(ctx, counselorActor, 1, CancelInput{Reason: "schedule conflict"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRefunded), again.Status)

	refunds, payouts := h.pay.counts()
	assert.Equal(t, 1, refunds)
	assert.Equal(t, 0, payouts)
	assert.Equal(t, uint(2), h.pay.refunds[0].RecipientID)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "refunded", h.notifier.sent[0].Status)
	assert.Equal(t, []uint{1, 2}, h.notifier.sent[0].Recipients)
	assert.Equal(t, []string{"booking_cancelled"}, h.audit.actions)
}

func TestScenario_ReportOverride(t *testing.T) {
	ctx := context.Background()
	h := newHarness(sessionEnd.Add(2*time.Hour), newBooking(1, domain.StatusSessionEnded))

	b, err := NewFileReport(h.engine).Execute(ctx, memberActor, 1, "service quality")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusReported), b.Status)
	assert.True(t, b.IsReport)

	// a reported booking is out of the grace clock
	h.clock.Set(sessionEnd.Add(72 * time.Hour))

	adj := NewAdjudicateBooking(h.engine)
	b, err = adj.Execute(ctx, adminActor, 1, domain.OutcomeRefundMember, "counselor no-show")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRefunded), b.Status)

	_, err = adj.Execute(ctx, adminActor, 1, domain.OutcomeRefundMember, "")
	require.NoError(t, err)

	refunds, payouts := h.pay.counts()
	assert.Equal(t, 1, refunds)
	assert.Equal(t, 0, payouts)
}

// ======================================================
// Transition engine
// ======================================================

func TestCancel_Errors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(sessionStart.Add(-time.Hour), newBooking(1, domain.StatusConfirmed))
	uc := NewCancelBooking(h.engine)

	_, err := uc.Execute(ctx, counselorActor, 1, CancelInput{Reason: "late"})
	assert.True(t, httperr.IsBusiness(err, domain.CodeOutOfWindow))

	_, err = uc.Execute(ctx, domain.Actor{ID: 44, Role: domain.RoleCounselor}, 1, CancelInput{Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Execute(ctx, counselorActor, 404, CancelInput{Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, string(domain.StatusConfirmed), h.repo.get(1).Status)
	refunds, _ := h.pay.counts()
	assert.Equal(t, 0, refunds)
}

func TestCancel_MemberGoesToMemberCancelled(t *testing.T) {
	h := newHarness(sessionStart.Add(-30*time.Hour), newBooking(1, domain.StatusConfirmed))

	b, err := NewCancelBooking(h.engine).Execute(context.Background(), memberActor, 1, CancelInput{Reason: "travel"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusMemberCancelled), b.Status)
}

func TestFinalize_ValidationKeepsSessionEnded(t *testing.T) {
	h := newHarness(sessionEnd.Add(time.Hour), newBooking(1, domain.StatusSessionEnded))

	_, err := NewFinalizeBooking(h.engine).Execute(context.Background(), counselorActor, 1,
		domain.Notes{ProblemSummary: "x", Guides: ""})

	var be httperr.BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, domain.CodeValidation, be.Code)
	assert.Equal(t, []string{"guides"}, be.Fields)
	assert.Equal(t, string(domain.StatusSessionEnded), h.repo.get(1).Status)
}

func TestFinalize_RepeatDoesNotPayTwice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(sessionEnd.Add(time.Hour), newBooking(1, domain.StatusSessionEnded))
	uc := NewFinalizeBooking(h.engine)

	b, err := uc.Execute(ctx, counselorActor, 1, fullNotes)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), b.Status)

	_, err = uc.Execute(ctx, counselorActor, 1, fullNotes)
	require.NoError(t, err)

	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
}

func TestFinalize_ConcurrentCallersPayOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(sessionEnd.Add(time.Hour), newBooking(1, domain.StatusSessionEnded))
	uc := NewFinalizeBooking(h.engine)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(ctx, counselorActor, 1, fullNotes)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.True(t, httperr.IsBusiness(err, domain.CodeConcurrentModification), "unexpected %v", err)
		}
	}

	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
	assert.Equal(t, string(domain.StatusCompleted), h.repo.get(1).Status)
}

func TestFinalize_RacesLazyCompletionAtGraceExpiry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(sessionEnd.Add(domain.GracePeriod), newBooking(1, domain.StatusSessionEnded))
	finalize := NewFinalizeBooking(h.engine)
	get := NewGetBooking(h.engine)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = finalize.Execute(ctx, counselorActor, 1, fullNotes)
		}()
		go func() {
			defer wg.Done()
			_, _ = get.Execute(ctx, memberActor, 1)
		}()
	}
	wg.Wait()

	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
}

func TestFinalize_LostCompareAndSetIsAlreadyApplied(t *testing.T) {
	h := newHarness(sessionEnd.Add(time.Hour), newBooking(1, domain.StatusSessionEnded))
	h.engine.locker = passLocker{}
	h.repo.beforeCAS = func(r *memRepo) { r.setStatus(1, domain.StatusCompleted) }

	b, err := NewFinalizeBooking(h.engine).Execute(context.Background(), counselorActor, 1, fullNotes)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), b.Status)
	assert.Equal(t, "sleep problems", h.repo.get(1).ProblemSummary)

	_, payouts := h.pay.counts()
	assert.Equal(t, 0, payouts)
	assert.Empty(t, h.notifier.sent)
}

func TestFinalize_AfterGraceStoresNotesWithCompletion(t *testing.T) {
	h := newHarness(sessionEnd.Add(domain.GracePeriod+time.Second), newBooking(1, domain.StatusSessionEnded))

	b, err := NewFinalizeBooking(h.engine).Execute(context.Background(), counselorActor, 1, fullNotes)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), b.Status)

	stored := h.repo.get(1)
	assert.Equal(t, string(domain.StatusCompleted), stored.Status)
	assert.Equal(t, "sleep problems", stored.ProblemSummary)
	assert.Equal(t, "work stress", stored.ProblemAnalysis)
	assert.Equal(t, "evening routine", stored.Guides)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, stored.CompletedAt.Equal(domain.GraceDeadline(sessionEnd)))

	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
	assert.Equal(t, []string{"booking_completed"}, h.audit.actions)
}

func TestFinalize_AfterGraceRejectsMissingNotes(t *testing.T) {
	h := newHarness(sessionEnd.Add(domain.GracePeriod+time.Second), newBooking(1, domain.StatusSessionEnded))

	_, err := NewFinalizeBooking(h.engine).Execute(context.Background(), counselorActor, 1, domain.Notes{})
	require.Error(t, err)

	var be httperr.BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, domain.CodeValidation, be.Code)
	assert.ElementsMatch(t, []string{"problem_summary", "guides"}, be.Fields)

	assert.Equal(t, string(domain.StatusSessionEnded), h.repo.get(1).Status)
	_, payouts := h.pay.counts()
	assert.Equal(t, 0, payouts)
}

func TestFinalize_AfterLazyCompletionKeepsNotes(t *testing.T) {
	h := newHarness(sessionEnd.Add(domain.GracePeriod+time.Minute), newBooking(1, domain.StatusSessionEnded))

	_, err := NewGetBooking(h.engine).Execute(context.Background(), memberActor, 1)
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusCompleted), h.repo.get(1).Status)

	b, err := NewFinalizeBooking(h.engine).Execute(context.Background(), counselorActor, 1, fullNotes)
	require.NoError(t, err)
	assert.Equal(t, "evening routine", b.Guides)
	assert.Equal(t, "evening routine", h.repo.get(1).Guides)

	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
	assert.Equal(t, []string{"booking_auto_completed", "booking_notes_updated"}, h.audit.actions)
}

func TestFinalize_LostCompareAndSetToOtherState(t *testing.T) {
	h := newHarness(sessionEnd.Add(time.Hour), newBooking(1, domain.StatusSessionEnded))
	h.engine.locker = passLocker{}
	h.repo.beforeCAS = func(r *memRepo) { r.setStatus(1, domain.StatusReported) }

	_, err := NewFinalizeBooking(h.engine).Execute(context.Background(), counselorActor, 1, fullNotes)
	assert.True(t, httperr.IsBusiness(err, domain.CodeConcurrentModification))

	_, payouts := h.pay.counts()
	assert.Equal(t, 0, payouts)
}

func TestFinalize_MembersCannotFinalize(t *testing.T) {
	h := newHarness(sessionEnd.Add(time.Hour), newBooking(1, domain.StatusSessionEnded))

	_, err := NewFinalizeBooking(h.engine).Execute(context.Background(), memberActor, 1, fullNotes)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAdjudicate_AdminOnly(t *testing.T) {
	h := newHarness(sessionEnd, newBooking(1, domain.StatusReported))

	_, err := NewAdjudicateBooking(h.engine).Execute(context.Background(), counselorActor, 1, domain.OutcomePayCounselor, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	b, err := NewAdjudicateBooking(h.engine).Execute(context.Background(), adminActor, 1, domain.OutcomePayCounselor, "")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), b.Status)
	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
}

// ======================================================
// Notes
// ======================================================

func TestSaveNotes_FinalizesSessionEnded(t *testing.T) {
	h := newHarness(sessionEnd.Add(time.Hour), newBooking(1, domain.StatusConfirmed))

	b, err := NewSaveNotes(h.engine).Execute(context.Background(), counselorActor, 1, fullNotes)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), b.Status)
	assert.Equal(t, "evening routine", b.Guides)

	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
}

func TestSaveNotes_EditingCompletedDoesNotPay(t *testing.T) {
	done := newBooking(1, domain.StatusCompleted)
	done.ProblemSummary = "old"
	done.Guides = "old"
	h := newHarness(sessionEnd.Add(72*time.Hour), done)
	uc := NewSaveNotes(h.engine)

	b, err := uc.Execute(context.Background(), counselorActor, 1, fullNotes)
	require.NoError(t, err)
	assert.Equal(t, "sleep problems", b.ProblemSummary)
	assert.Equal(t, string(domain.StatusCompleted), h.repo.get(1).Status)

	_, err = uc.Execute(context.Background(), counselorActor, 1, domain.Notes{ProblemSummary: "x"})
	assert.True(t, httperr.IsBusiness(err, domain.CodeValidation))

	_, payouts := h.pay.counts()
	assert.Equal(t, 0, payouts)
	assert.Empty(t, h.notifier.sent)
	assert.Equal(t, []string{"booking_notes_updated"}, h.audit.actions)
}

func TestSaveNotes_AfterGraceCompletesOnceThenEdits(t *testing.T) {
	h := newHarness(sessionEnd.Add(domain.GracePeriod+time.Minute), newBooking(1, domain.StatusSessionEnded))

	b, err := NewSaveNotes(h.engine).Execute(context.Background(), counselorActor, 1, fullNotes)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), b.Status)
	assert.Equal(t, "sleep problems", b.ProblemSummary)

	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
}

func TestSaveNotes_CrossingGraceDeadlineKeepsNotes(t *testing.T) {
	h := newHarness(sessionEnd.Add(domain.GracePeriod-time.Second), newBooking(1, domain.StatusSessionEnded))
	h.engine.locker = slowLocker{wait: func() { h.clock.Set(sessionEnd.Add(domain.GracePeriod + time.Second)) }}

	_, err := NewSaveNotes(h.engine).Execute(context.Background(), counselorActor, 1, fullNotes)
	require.NoError(t, err)

	stored := h.repo.get(1)
	assert.Equal(t, string(domain.StatusCompleted), stored.Status)
	assert.Equal(t, "sleep problems", stored.ProblemSummary)

	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
}

func TestSaveNotes_BeforeSessionEnd(t *testing.T) {
	h := newHarness(sessionStart, newBooking(1, domain.StatusConfirmed))

	_, err := NewSaveNotes(h.engine).Execute(context.Background(), counselorActor, 1, fullNotes)
	assert.True(t, httperr.IsBusiness(err, domain.CodeInvalidState))
}

func TestGetBooking_BusyLockDoesNotShowUnpaidCompletion(t *testing.T) {
	h := newHarness(sessionEnd.Add(domain.GracePeriod+time.Minute), newBooking(1, domain.StatusSessionEnded))
	h.engine.locker = busyLocker{}

	v, err := NewGetBooking(h.engine).Execute(context.Background(), memberActor, 1)
	assert.Nil(t, v)
	assert.True(t, httperr.IsBusiness(err, domain.CodeConcurrentModification))

	_, err = NewListBookings(h.engine, time.UTC).Execute(context.Background(), adminActor, domain.Filter{})
	assert.True(t, httperr.IsBusiness(err, domain.CodeConcurrentModification))

	assert.Equal(t, string(domain.StatusSessionEnded), h.repo.get(1).Status)
	_, payouts := h.pay.counts()
	assert.Equal(t, 0, payouts)
}

func TestGetNotes(t *testing.T) {
	b := newBooking(1, domain.StatusSessionEnded)
	b.ProblemSummary = "draft"
	h := newHarness(sessionEnd.Add(time.Hour), b)

	form, err := NewGetNotes(h.engine).Execute(context.Background(), counselorActor, 1)
	require.NoError(t, err)
	assert.Equal(t, "draft", form.Notes.ProblemSummary)
	assert.True(t, form.Editable)
	assert.True(t, form.Finalizes)

	form, err = NewGetNotes(h.engine).Execute(context.Background(), memberActor, 1)
	require.NoError(t, err)
	assert.False(t, form.Editable)
}

// ======================================================
// Directory
// ======================================================

func TestListBookings_ScopedAndBucketed(t *testing.T) {
	ended := newBooking(1, domain.StatusConfirmed)
	ahead := newBooking(2, domain.StatusConfirmed)
	ahead.TimeStart = sessionStart.Add(48 * time.Hour)
	ahead.TimeEnd = ahead.TimeStart.Add(time.Hour)
	other := newBooking(3, domain.StatusConfirmed)
	other.CounselorID = 5

	h := newHarness(sessionEnd.Add(time.Hour), ended, ahead, other)
	uc := NewListBookings(h.engine, time.UTC)

	views, err := uc.Execute(context.Background(), counselorActor, domain.Filter{Status: domain.StatusSessionEnded})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, uint(1), views[0].Booking.ID)
	assert.True(t, views[0].Affordances.CanFinalize)

	views, err = uc.Execute(context.Background(), adminActor, domain.Filter{Status: domain.StatusSessionEnded})
	require.NoError(t, err)
	assert.Len(t, views, 2)

	_, err = uc.Execute(context.Background(), domain.Actor{ID: 1, Role: "guest"}, domain.Filter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ======================================================
// Reconciliation
// ======================================================

func TestReconcile_PersistsProjections(t *testing.T) {
	now := sessionEnd.Add(30 * time.Hour)

	overdue := newBooking(1, domain.StatusConfirmed)
	recent := newBooking(2, domain.StatusConfirmed)
	recent.TimeStart = now.Add(-2 * time.Hour)
	recent.TimeEnd = now.Add(-time.Hour)
	future := newBooking(3, domain.StatusConfirmed)
	future.TimeStart = now.Add(time.Hour)
	future.TimeEnd = now.Add(2 * time.Hour)

	h := newHarness(now, overdue, recent, future)

	res, err := NewReconcile(h.engine, nil, ReconcileOptions{}).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 1, res.SessionsEnded)
	assert.Equal(t, 0, res.Resignalled)
	assert.Equal(t, string(domain.StatusCompleted), h.repo.get(1).Status)
	assert.Equal(t, string(domain.StatusSessionEnded), h.repo.get(2).Status)
	assert.Equal(t, string(domain.StatusConfirmed), h.repo.get(3).Status)

	_, payouts := h.pay.counts()
	assert.Equal(t, 1, payouts)
}

func TestReconcile_ReEmitsUndeliveredSignal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(sessionStart.Add(-48*time.Hour), newBooking(1, domain.StatusConfirmed))
	h.pay.fail = errors.New("ledger unavailable")

	b, err := NewCancelBooking(h.engine).Execute(ctx, counselorActor, 1, CancelInput{Reason: "ill"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRefunded), b.Status)
	assert.Nil(t, h.repo.get(1).SignalEmittedAt)

	h.pay.mu.Lock()
	h.pay.fail = nil
	h.pay.mu.Unlock()

	sweep := NewReconcile(h.engine, nil, ReconcileOptions{})
	res, err := sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Resignalled)
	assert.NotNil(t, h.repo.get(1).SignalEmittedAt)

	res, err = sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Resignalled)

	refunds, _ := h.pay.counts()
	assert.Equal(t, 1, refunds)
}
