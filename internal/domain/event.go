package domain

import "time"

type EventType string

const (
	EventReservationConfirmed   EventType = "reservation.confirmed"
	EventReservationCancelled   EventType = "reservation.cancelled"
	EventReservationDelivered   EventType = "reservation.delivered"
	EventReservationReturned    EventType = "reservation.returned"
	EventReservationNotReturned EventType = "reservation.not_returned"
	EventReservationFinalized   EventType = "reservation.finalized"
	EventReservationDeleted     EventType = "reservation.deleted"
	EventRefundCreated          EventType = "refund.created"
)

// ReservationEvent is published after a lifecycle transition commits.
type ReservationEvent struct {
	Type          EventType        `json:"type"`
	ReservationID int32            `json:"reservation_id"`
	CustomerID    int32            `json:"customer_id"`
	ItemID        int32            `json:"item_id"`
	BranchID      int32            `json:"branch_id"`
	Quantity      int32            `json:"quantity"`
	State         ReservationState `json:"state"`
	AmountCents   int64            `json:"amount_cents"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

func NewReservationEvent(t EventType, r *Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          t,
		ReservationID: r.ID,
		CustomerID:    r.CustomerID,
		ItemID:        r.ItemID,
		BranchID:      r.BranchID,
		Quantity:      r.Quantity,
		State:         r.State,
		AmountCents:   r.TotalCents,
		OccurredAt:    at,
	}
}
