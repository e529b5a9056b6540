package domain

import (
	"time"

	"branchrent-backend/internal/utils"
)

type CouponKind string

const (
	CouponKindPercentage CouponKind = "PERCENTAGE"
	CouponKindFixed      CouponKind = "FIXED"
)

type Coupon struct {
	ID         int32      `json:"id"`
	CustomerID int32      `json:"customer_id"`
	Code       string     `json:"code"`
	Kind       CouponKind `json:"kind"`
	// Value is a percent for PERCENTAGE coupons and cents for FIXED ones.
	Value         int64     `json:"value"`
	ExpiresOn     time.Time `json:"expires_on"`
	Used          bool      `json:"used"`
	ReservationID *int32    `json:"reservation_id,omitempty"`
	CreatedOn     time.Time `json:"created_on"`
}

func (c *Coupon) Validate() error {
	if c.Code == "" {
		return Validationf("coupon code is required")
	}
	switch c.Kind {
	case CouponKindPercentage:
		if c.Value <= 0 || c.Value > 100 {
			return Validationf("percentage coupon value must be within 1..100")
		}
	case CouponKindFixed:
		if c.Value <= 0 {
			return Validationf("fixed coupon value must be positive")
		}
	default:
		return Validationf("unknown coupon kind %q", c.Kind)
	}
	return nil
}

// CheckUsable verifies the coupon belongs to customerID, has not expired by
// day (the expiry date itself is still valid) and is unused.
func (c *Coupon) CheckUsable(customerID int32, day time.Time) error {
	if c.CustomerID != customerID {
		return Validationf("coupon %s does not belong to this customer", c.Code)
	}
	if utils.StartOfDay(day).After(utils.StartOfDay(c.ExpiresOn)) {
		return Validationf("coupon %s expired on %s", c.Code, utils.FormatDate(c.ExpiresOn))
	}
	if c.Used {
		return ErrCouponAlreadyUsed
	}
	return nil
}

// Discount returns the discount for a pre-discount total, capped at the total.
func (c *Coupon) Discount(totalCents int64) int64 {
	var d int64
	switch c.Kind {
	case CouponKindPercentage:
		d = utils.PercentOf(totalCents, c.Value)
	case CouponKindFixed:
		d = c.Value
	}
	if d > totalCents {
		d = totalCents
	}
	return d
}
