package booking

import "github.com/BruksfildServices01/counsel-console/internal/models"

type Role string

const (
	RoleCounselor Role = "counselor"
	RoleMember    Role = "member"
	RoleAdmin     Role = "admin"
	// RoleSystem is used by lazy writes and the reconciliation sweep.
	RoleSystem Role = "system"
)

var SystemActor = Actor{Role: RoleSystem}

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	ID   uint
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Authorize checks that the actor takes part in the booking. Admins act on
// any booking.
func Authorize(a Actor, b *models.Booking) error {
	switch a.Role {
	case RoleAdmin, RoleSystem:
		return nil
	case RoleCounselor:
		if b.CounselorID == a.ID {
			return nil
		}
	case RoleMember:
		if b.MemberID == a.ID || (b.Member2ID != nil && *b.Member2ID == a.ID) {
			return nil
		}
	}
	return ErrForbidden
}
