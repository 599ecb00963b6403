package booking

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusConfirmed          Status = "confirmed"
	StatusMemberCancelled    Status = "member_cancelled"
	StatusCounselorCancelled Status = "counselor_cancelled"
	StatusReported           Status = "reported"
	StatusRefunded           Status = "refunded"
	StatusSessionEnded       Status = "session_ended"
	StatusCompleted          Status = "completed"
)

var allStatuses = []Status{
	StatusConfirmed,
	StatusMemberCancelled,
	StatusCounselorCancelled,
	StatusReported,
	StatusRefunded,
	StatusSessionEnded,
	StatusCompleted,
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsCancellation reports whether s belongs to the cancellation-with-refund
// family. Only these states may carry a cancel reason.
func (s Status) IsCancellation() bool {
	switch s {
	case StatusMemberCancelled, StatusCounselorCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	return s.IsCancellation() || s == StatusCompleted
}

// IsTimeDriven reports whether the resolver may project s forward.
func (s Status) IsTimeDriven() bool {
	return s == StatusConfirmed || s == StatusSessionEnded
}

// ===============================
// Transitions
// ===============================

type Event string

const (
	EventMemberCancel     Event = "member_cancel"
	EventCounselorCancel  Event = "counselor_cancel"
	EventAdminCancel      Event = "admin_cancel"
	EventSessionElapsed   Event = "session_elapsed"
	EventNotesSubmitted   Event = "notes_submitted"
	EventGraceExpired     Event = "grace_expired"
	EventReportFiled      Event = "report_filed"
	EventAdjudicateRefund Event = "adjudicate_refund"
	EventAdjudicatePayout Event = "adjudicate_payout"
)

type Transition struct {
	From  Status
	Event Event
	To    Status
}

var transitions = []Transition{
	{From: StatusConfirmed, Event: EventCounselorCancel, To: StatusRefunded},
	{From: StatusConfirmed, Event: EventMemberCancel, To: StatusMemberCancelled},
	{From: StatusConfirmed, Event: EventAdminCancel, To: StatusCounselorCancelled},
	{From: StatusConfirmed, Event: EventSessionElapsed, To: StatusSessionEnded},
	{From: StatusSessionEnded, Event: EventNotesSubmitted, To: StatusCompleted},
	{From: StatusSessionEnded, Event: EventGraceExpired, To: StatusCompleted},
	{From: StatusConfirmed, Event: EventReportFiled, To: StatusReported},
	{From: StatusSessionEnded, Event: EventReportFiled, To: StatusReported},
	{From: StatusReported, Event: EventAdjudicateRefund, To: StatusRefunded},
	{From: StatusReported, Event: EventAdjudicatePayout, To: StatusCompleted},
}

// TransitionFor looks up the edge leaving from on ev.
func TransitionFor(from Status, ev Event) (Transition, bool) {
	for _, t := range transitions {
		if t.From == from && t.Event == ev {
			return t, true
		}
	}
	return Transition{}, false
}

// Next returns the target state of ev from the given effective state, or an
// invalid_state error when the table has no such edge.
func Next(from Status, ev Event) (Status, error) {
	t, ok := TransitionFor(from, ev)
	if !ok {
		return "", ErrInvalidState(from, ev)
	}
	return t.To, nil
}

// CancelEventFor picks the cancellation edge for the canceller's role.
func CancelEventFor(role Role) Event {
	switch role {
	case RoleMember:
		return EventMemberCancel
	case RoleAdmin:
		return EventAdminCancel
	default:
		return EventCounselorCancel
	}
}
