package pricing

import (
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/utils"
)

// Reliability surcharge tiers, applied to the base daily rate.
const (
	lowRatingThreshold  = 1.0
	lowRatingSurcharge  = 30
	fairRatingThreshold = 2.0
	fairRatingSurcharge = 20
)

// SurchargePercent maps a customer's reliability rating to a surcharge.
// Customers without a rating pay the base rate.
func SurchargePercent(rating *float64) int32 {
	if rating == nil {
		return 0
	}
	switch {
	case *rating <= lowRatingThreshold:
		return lowRatingSurcharge
	case *rating <= fairRatingThreshold:
		return fairRatingSurcharge
	default:
		return 0
	}
}

// PricePerDay returns the effective daily rate (rounded half-up to the cent)
// and the surcharge applied.
func PricePerDay(item *domain.Item, customer *domain.Customer) (int64, int32) {
	s := SurchargePercent(customer.Rating)
	return utils.DivRoundHalfUp(item.DailyPriceCents*int64(100+s), 100), s
}

// Quote prices a rental. The total is computed from the unrounded surcharged
// rate and rounded once: daily x (100+s) x days x qty / 100. A coupon, when
// given, must already have been checked as usable; its discount is taken off
// the pre-discount total.
func Quote(item *domain.Item, customer *domain.Customer, days, quantity int32, coupon *domain.Coupon) domain.Quote {
	effective, s := PricePerDay(item, customer)
	pre := utils.DivRoundHalfUp(item.DailyPriceCents*int64(100+s)*int64(days)*int64(quantity), 100)

	q := domain.Quote{
		DailyCents:          item.DailyPriceCents,
		EffectiveDailyCents: effective,
		SurchargePercent:    s,
		Days:                days,
		Quantity:            quantity,
		PreDiscountCents:    pre,
		TotalCents:          pre,
	}
	if coupon != nil {
		q.DiscountCents = coupon.Discount(pre)
		q.TotalCents = pre - q.DiscountCents
		id := coupon.ID
		q.CouponID = &id
	}
	return q
}

// QuoteDraft is the pricing stage of the draft pipeline.
func QuoteDraft(d *domain.Draft, item *domain.Item, customer *domain.Customer, coupon *domain.Coupon, today time.Time) (domain.Quote, error) {
	if coupon != nil {
		if err := coupon.CheckUsable(customer.ID, today); err != nil {
			return domain.Quote{}, err
		}
	}
	return Quote(item, customer, d.Range.Days(), d.Quantity, coupon), nil
}
