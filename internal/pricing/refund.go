package pricing

import (
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/utils"
)

// Refund applies the item's cancellation tiers to a reservation cancelled on
// asOf. With d = days from asOf to the rental start:
//
//	d >= full     -> 100%
//	d >= partial  -> item.PartialRefundPercent
//	d >= zero     -> 0%, cancellation still goes through staff
//	d <  zero     -> 0%, auto-finalized
//
// Boundaries are inclusive. Reservations that were never paid refund nothing
// and auto-finalize.
func Refund(r *domain.Reservation, item *domain.Item, asOf time.Time) domain.RefundQuote {
	d := utils.DaysBetween(asOf, r.StartDate)
	q := domain.RefundQuote{DaysBeforeStart: d}

	if !r.WasPaid() {
		q.AutoFinalize = true
		return q
	}

	switch {
	case d >= int(item.FullRefundDays):
		q.Percent = 100
	case d >= int(item.PartialRefundDays):
		q.Percent = item.PartialRefundPercent
	case d >= int(item.ZeroRefundDays):
		q.Percent = 0
	default:
		q.Percent = 0
		q.AutoFinalize = true
	}
	q.AmountCents = utils.PercentOf(r.TotalCents, int64(q.Percent))
	return q
}
