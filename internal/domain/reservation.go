package domain

import (
	"sort"
	"time"

	"branchrent-backend/internal/utils"
)

type ReservationState string

const (
	ReservationStatePendingPayment ReservationState = "PENDING_PAYMENT"
	ReservationStateConfirmed      ReservationState = "CONFIRMED"
	ReservationStateDelivered      ReservationState = "DELIVERED"
	ReservationStateReturnedOnTime ReservationState = "RETURNED_ON_TIME"
	ReservationStateNotReturned    ReservationState = "NOT_RETURNED"
	ReservationStateCancelled      ReservationState = "CANCELLED"
	ReservationStateFinalized      ReservationState = "FINALIZED"
)

// HoldingStates are the states in which a reservation's quantity has been
// debited from branch stock and counts against availability.
var HoldingStates = []ReservationState{
	ReservationStateConfirmed,
	ReservationStateDelivered,
	ReservationStateReturnedOnTime,
	ReservationStateNotReturned,
}

// LiveStates are the non-terminal, non-cancelled states. A customer may hold
// at most one reservation in any of them.
var LiveStates = []ReservationState{
	ReservationStatePendingPayment,
	ReservationStateConfirmed,
	ReservationStateDelivered,
	ReservationStateReturnedOnTime,
	ReservationStateNotReturned,
}

var transitions = map[ReservationState][]ReservationState{
	ReservationStatePendingPayment: {ReservationStateConfirmed, ReservationStateCancelled},
	ReservationStateConfirmed:      {ReservationStateDelivered, ReservationStateCancelled, ReservationStateFinalized},
	ReservationStateDelivered:      {ReservationStateReturnedOnTime, ReservationStateNotReturned, ReservationStateFinalized},
	ReservationStateReturnedOnTime: {ReservationStateFinalized},
	ReservationStateNotReturned:    {ReservationStateFinalized},
	ReservationStateCancelled:      {ReservationStateFinalized},
}

func (s ReservationState) HoldsCapacity() bool {
	for _, h := range HoldingStates {
		if s == h {
			return true
		}
	}
	return false
}

func (s ReservationState) IsLive() bool {
	for _, l := range LiveStates {
		if s == l {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s ReservationState) CanTransitionTo(next ReservationState) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (s ReservationState) Valid() bool {
	if s == ReservationStateFinalized {
		return true
	}
	_, ok := transitions[s]
	return ok
}

type PaymentChannel string

const (
	PaymentChannelOnline   PaymentChannel = "ONLINE"
	PaymentChannelInPerson PaymentChannel = "IN_PERSON"
)

// DateRange is a half-open range of calendar days [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalises both ends to UTC midnight and requires start < end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: utils.StartOfDay(start), End: utils.StartOfDay(end)}
	if !r.Start.Before(r.End) {
		return DateRange{}, Validationf("start date %s must be before end date %s",
			utils.FormatDate(r.Start), utils.FormatDate(r.End))
	}
	return r, nil
}

// Days is the number of rental days covered by the range (End - Start).
func (r DateRange) Days() int32 {
	return int32(utils.DaysBetween(r.Start, r.End))
}

// Overlaps uses half-open semantics: touching endpoints do not overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && r.End.After(o.Start)
}

// Contains reports whether day falls within [Start, End).
func (r DateRange) Contains(day time.Time) bool {
	d := utils.StartOfDay(day)
	return !d.Before(r.Start) && d.Before(r.End)
}

type Reservation struct {
	ID int32 `json:"id"`
	// Reference is the opaque identifier handed to the payment provider.
	Reference        string           `json:"reference"`
	CustomerID       int32            `json:"customer_id"`
	ItemID           int32            `json:"item_id"`
	BranchID         int32            `json:"branch_id"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	Quantity         int32            `json:"quantity"`
	PreDiscountCents int64            `json:"pre_discount_cents"`
	DiscountCents    int64            `json:"discount_cents"`
	TotalCents       int64            `json:"total_cents"`
	SurchargePercent int32            `json:"surcharge_percent"`
	CouponID         *int32           `json:"coupon_id,omitempty"`
	Channel          PaymentChannel   `json:"channel"`
	State            ReservationState `json:"state"`
	CheckoutRef      *string          `json:"checkout_ref,omitempty"`
	PickupCode       *string          `json:"pickup_code,omitempty"`
	// Exactly one initiator: CreatedByEmployeeID is nil for customer-initiated reservations.
	CreatedByEmployeeID   *int32     `json:"created_by_employee_id,omitempty"`
	ProcessedByEmployeeID *int32     `json:"processed_by_employee_id,omitempty"`
	CreatedOn             time.Time  `json:"created_on"`
	ConfirmedOn           *time.Time `json:"confirmed_on,omitempty"`
	DeliveredOn           *time.Time `json:"delivered_on,omitempty"`
	ReturnedOn            *time.Time `json:"returned_on,omitempty"`
	CancelledOn           *time.Time `json:"cancelled_on,omitempty"`
	FinalizedOn           *time.Time `json:"finalized_on,omitempty"`
	UpdatedOn             time.Time  `json:"updated_on"`
}

func (r *Reservation) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// IsActiveOn reports whether the rental window contains day.
func (r *Reservation) IsActiveOn(day time.Time) bool {
	return r.Range().Contains(day)
}

// WasPaid reports whether the reservation ever reached CONFIRMED.
func (r *Reservation) WasPaid() bool {
	return r.ConfirmedOn != nil
}

func (r *Reservation) IsCustomerInitiated() bool {
	return r.CreatedByEmployeeID == nil
}

// HeldQuantity sums the quantity of capacity-holding reservations overlapping
// window, skipping excludeID (0 excludes nothing).
func HeldQuantity(reservations []Reservation, window DateRange, excludeID int32) int32 {
	var held int32
	for i := range reservations {
		r := &reservations[i]
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		if !r.State.HoldsCapacity() {
			continue
		}
		if r.Range().Overlaps(window) {
			held += r.Quantity
		}
	}
	return held
}

// OpenHorizon covers every date a reservation can take.
var OpenHorizon = DateRange{
	Start: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
}

// PeakHeld is the largest quantity that capacity-holding reservations hold
// on any single day. Ranges are half-open, so a release and a pickup on the
// same date do not stack.
func PeakHeld(reservations []Reservation) int32 {
	type edge struct {
		at    time.Time
		delta int32
	}
	edges := make([]edge, 0, 2*len(reservations))
	for i := range reservations {
		r := &reservations[i]
		if !r.State.HoldsCapacity() {
			continue
		}
		edges = append(edges, edge{r.StartDate, r.Quantity}, edge{r.EndDate, -r.Quantity})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at.Equal(edges[j].at) {
			return edges[i].delta < edges[j].delta
		}
		return edges[i].at.Before(edges[j].at)
	})

	var held, peak int32
	for _, e := range edges {
		held += e.delta
		if held > peak {
			peak = held
		}
	}
	return peak
}

// ReservationFilter selects reservations for listings and reports.
// Zero-valued fields do not filter.
type ReservationFilter struct {
	States      []ReservationState
	CustomerID  *int32
	BranchID    *int32
	ItemID      *int32
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	// RentalFrom/RentalTo select reservations whose range overlaps [RentalFrom, RentalTo).
	RentalFrom *time.Time
	RentalTo   *time.Time
	Page       int32
	PageSize   int32
}
