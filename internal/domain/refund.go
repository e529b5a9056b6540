package domain

import "time"

// Refund records money owed back for a cancelled reservation. It is created
// only when staff finalize the cancellation.
type Refund struct {
	ID            int32 `json:"id"`
	CustomerID    int32 `json:"customer_id"`
	ReservationID int32 `json:"reservation_id"`
	AmountCents   int64 `json:"amount_cents"`
	Percent       int32 `json:"percent"`
	// CustomerDocument is a snapshot taken at refund time.
	CustomerDocument string    `json:"customer_document"`
	CreatedOn        time.Time `json:"created_on"`
}

// RefundQuote is the refund policy's answer for a cancellation date.
type RefundQuote struct {
	DaysBeforeStart int   `json:"days_before_start"`
	Percent         int32 `json:"percent"`
	AmountCents     int64 `json:"amount_cents"`
	// AutoFinalize is set below the zero-refund threshold: nothing is owed,
	// so the cancellation closes without staff intervention.
	AutoFinalize bool `json:"auto_finalize"`
}
