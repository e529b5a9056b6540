package domain

import "fmt"

// Action names a state-machine operation for capability checks.
type Action string

const (
	ActionCreate   Action = "create"
	ActionView     Action = "view"
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionDeliver  Action = "deliver"
	ActionReturn   Action = "return"
	ActionFinalize Action = "finalize"
	ActionLapse    Action = "lapse"
)

// CanTransition is the single "who may act" rule set for reservations.
func CanTransition(p Principal, r *Reservation, a Action) bool {
	switch a {
	case ActionCreate:
		if p.Role == RoleCustomer {
			return p.UserID == r.CustomerID
		}
		return p.IsStaff()
	case ActionView:
		if p.Role == RoleCustomer {
			return p.UserID == r.CustomerID
		}
		return p.IsStaff() || p.Role == RoleSystem
	case ActionConfirm:
		// Online payments are confirmed only by the payment notification
		// path; in-person payments by staff at the pickup branch.
		if r.Channel == PaymentChannelOnline {
			return p.Role == RoleSystem
		}
		return p.Role == RoleSystem || p.WorksAt(r.BranchID)
	case ActionCancel:
		if p.Role == RoleCustomer {
			return p.UserID == r.CustomerID
		}
		return p.WorksAt(r.BranchID)
	case ActionDeliver, ActionReturn:
		return p.WorksAt(r.BranchID)
	case ActionFinalize:
		return p.Role == RoleSystem || p.WorksAt(r.BranchID)
	case ActionLapse:
		return p.Role == RoleSystem || p.Role == RoleAdmin
	}
	return false
}

// Authorize wraps CanTransition into an ErrForbidden.
func Authorize(p Principal, r *Reservation, a Action) error {
	if !CanTransition(p, r, a) {
		return fmt.Errorf("%w: %s may not %s reservation %d", ErrForbidden, p.Role, a, r.ID)
	}
	return nil
}
