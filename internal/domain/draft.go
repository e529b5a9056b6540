package domain

// Draft is a reservation request travelling through the create pipeline
// (validate -> price -> persist). It carries no hidden state: every stage
// receives the draft and returns a result.
type Draft struct {
	CustomerID int32          `json:"customer_id"`
	ItemID     int32          `json:"item_id"`
	BranchID   int32          `json:"branch_id"`
	Range      DateRange      `json:"range"`
	Quantity   int32          `json:"quantity"`
	Channel    PaymentChannel `json:"channel"`
	CouponCode string         `json:"coupon_code,omitempty"`
}

// Validate checks the draft against the item's rental bounds.
func (d *Draft) Validate(item *Item) error {
	if d.Quantity <= 0 {
		return Validationf("quantity must be positive")
	}
	if !d.Range.Start.Before(d.Range.End) {
		return Validationf("start date must be before end date")
	}
	days := d.Range.Days()
	if days < item.MinDays || days > item.MaxDays {
		return Validationf("rental of %d days is outside the allowed range %d-%d for %s",
			days, item.MinDays, item.MaxDays, item.Name)
	}
	switch d.Channel {
	case PaymentChannelOnline, PaymentChannelInPerson:
	default:
		return Validationf("unknown payment channel %q", d.Channel)
	}
	return nil
}

// Quote is the price computed for a draft.
type Quote struct {
	DailyCents          int64  `json:"daily_cents"`
	EffectiveDailyCents int64  `json:"effective_daily_cents"`
	SurchargePercent    int32  `json:"surcharge_percent"`
	Days                int32  `json:"days"`
	Quantity            int32  `json:"quantity"`
	PreDiscountCents    int64  `json:"pre_discount_cents"`
	DiscountCents       int64  `json:"discount_cents"`
	TotalCents          int64  `json:"total_cents"`
	CouponID            *int32 `json:"coupon_id,omitempty"`
}

// Apply copies the quote's amounts onto a reservation.
func (q Quote) Apply(r *Reservation) {
	r.PreDiscountCents = q.PreDiscountCents
	r.DiscountCents = q.DiscountCents
	r.TotalCents = q.TotalCents
	r.SurchargePercent = q.SurchargePercent
	r.CouponID = q.CouponID
}
