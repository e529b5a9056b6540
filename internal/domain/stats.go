package domain

import "time"

// StateStat aggregates reservations created within a window, per state.
type StateStat struct {
	State            ReservationState `json:"state" db:"state"`
	Count            int64            `json:"count" db:"count"`
	TotalCents       int64            `json:"total_cents" db:"total_cents"`
	PreDiscountCents int64            `json:"pre_discount_cents" db:"pre_discount_cents"`
	DiscountCents    int64            `json:"discount_cents" db:"discount_cents"`
}

// ReservationStats is keyed on the reservation creation timestamp.
type ReservationStats struct {
	From    time.Time   `json:"from"`
	To      time.Time   `json:"to"`
	ByState []StateStat `json:"by_state"`
}

// RefundStats is keyed on the refund timestamp.
type RefundStats struct {
	From        time.Time `json:"from" db:"-"`
	To          time.Time `json:"to" db:"-"`
	Count       int64     `json:"count" db:"count"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
}
