package domain

import "time"

type Item struct {
	ID              int32  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DailyPriceCents int64  `json:"daily_price_cents"`
	MinDays         int32  `json:"min_days"`
	MaxDays         int32  `json:"max_days"`
	// Refund thresholds in days before the rental start.
	FullRefundDays       int32 `json:"full_refund_days"`
	PartialRefundDays    int32 `json:"partial_refund_days"`
	ZeroRefundDays       int32 `json:"zero_refund_days"`
	PartialRefundPercent int32 `json:"partial_refund_percent"`
	// TotalUnits is the sum of branch stock totals, maintained by the inventory service.
	TotalUnits int32      `json:"total_units"`
	CreatedOn  time.Time  `json:"created_on"`
	ArchivedOn *time.Time `json:"archived_on,omitempty"`
}

// Validate checks the item definition rules: positive price, sane day bounds
// and non-decreasing refund thresholds (zero <= partial <= full).
func (i *Item) Validate() error {
	if i.Name == "" {
		return Validationf("item name is required")
	}
	if i.DailyPriceCents <= 0 {
		return Validationf("daily price must be positive")
	}
	if i.MinDays < 1 {
		return Validationf("minimum rental days must be at least 1")
	}
	if i.MaxDays < i.MinDays {
		return Validationf("maximum rental days (%d) must be >= minimum (%d)", i.MaxDays, i.MinDays)
	}
	if i.ZeroRefundDays < 0 {
		return Validationf("zero-refund threshold must not be negative")
	}
	if i.ZeroRefundDays > i.PartialRefundDays || i.PartialRefundDays > i.FullRefundDays {
		return Validationf("refund thresholds must satisfy zero <= partial <= full (got %d, %d, %d)",
			i.ZeroRefundDays, i.PartialRefundDays, i.FullRefundDays)
	}
	if i.PartialRefundPercent < 0 || i.PartialRefundPercent > 100 {
		return Validationf("partial refund percent must be within 0..100")
	}
	return nil
}

func (i *Item) IsArchived() bool {
	return i.ArchivedOn != nil
}
