package pricing

import (
	"testing"
	"time"

	"branchrent-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(v float64) *float64 { return &v }

func date(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSurchargePercent(t *testing.T) {
	tests := []struct {
		name     string
		rating   *float64
		expected int32
	}{
		{"Unrated", nil, 0},
		{"Zero", rating(0), 30},
		{"Exactly one", rating(1.0), 30},
		{"Just above one", rating(1.01), 20},
		{"Exactly two", rating(2.0), 20},
		{"Above two", rating(2.5), 0},
		{"Top", rating(5), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SurchargePercent(tt.rating))
		})
	}
}

func TestQuote(t *testing.T) {
	item := &domain.Item{ID: 1, Name: "Compactor", DailyPriceCents: 1005}

	t.Run("No surcharge", func(t *testing.T) {
		q := Quote(item, &domain.Customer{ID: 1, Rating: rating(4)}, 5, 2, nil)
		assert.Equal(t, int64(1005), q.EffectiveDailyCents)
		assert.Equal(t, int64(10050), q.PreDiscountCents)
		assert.Equal(t, int64(10050), q.TotalCents)
		assert.Zero(t, q.DiscountCents)
		assert.Nil(t, q.CouponID)
	})

	t.Run("Surcharge rounds half up once on the total", func(t *testing.T) {
		q := Quote(item, &domain.Customer{ID: 1, Rating: rating(0.5)}, 3, 1, nil)
		assert.Equal(t, int32(30), q.SurchargePercent)
		assert.Equal(t, int64(1307), q.EffectiveDailyCents) // 1306.5
		assert.Equal(t, int64(3920), q.TotalCents)          // 3919.5, not 3 x 1307
	})

	t.Run("Percentage coupon after surcharge", func(t *testing.T) {
		coupon := &domain.Coupon{ID: 9, CustomerID: 1, Code: "TEN", Kind: domain.CouponKindPercentage, Value: 10}
		q := Quote(item, &domain.Customer{ID: 1, Rating: rating(1.5)}, 2, 1, coupon)
		assert.Equal(t, int64(2412), q.PreDiscountCents) // 1005 * 1.2 * 2
		assert.Equal(t, int64(241), q.DiscountCents)
		assert.Equal(t, int64(2171), q.TotalCents)
		require.NotNil(t, q.CouponID)
		assert.Equal(t, int32(9), *q.CouponID)
	})

	t.Run("Fixed coupon capped at total", func(t *testing.T) {
		coupon := &domain.Coupon{ID: 2, CustomerID: 1, Code: "BIG", Kind: domain.CouponKindFixed, Value: 100000}
		q := Quote(item, &domain.Customer{ID: 1}, 1, 1, coupon)
		assert.Equal(t, int64(1005), q.DiscountCents)
		assert.Zero(t, q.TotalCents)
	})
}

func TestQuoteDraft(t *testing.T) {
	item := &domain.Item{ID: 1, DailyPriceCents: 1000}
	customer := &domain.Customer{ID: 1}
	r, _ := domain.NewDateRange(date(10), date(15))
	d := &domain.Draft{CustomerID: 1, ItemID: 1, BranchID: 1, Range: r, Quantity: 2}

	q, err := QuoteDraft(d, item, customer, nil, date(1))
	require.NoError(t, err)
	assert.Equal(t, int32(5), q.Days)
	assert.Equal(t, int64(10000), q.TotalCents)

	used := &domain.Coupon{ID: 1, CustomerID: 1, Code: "USED", Kind: domain.CouponKindFixed, Value: 100, ExpiresOn: date(30), Used: true}
	_, err = QuoteDraft(d, item, customer, used, date(1))
	assert.ErrorIs(t, err, domain.ErrCouponAlreadyUsed)
}

func TestRefund_Tiers(t *testing.T) {
	item := &domain.Item{FullRefundDays: 10, PartialRefundDays: 5, ZeroRefundDays: 2, PartialRefundPercent: 50}
	confirmed := date(1)
	r := &domain.Reservation{StartDate: date(20), EndDate: date(25), TotalCents: 10000, ConfirmedOn: &confirmed}

	tests := []struct {
		name         string
		asOf         time.Time
		percent      int32
		amount       int64
		autoFinalize bool
	}{
		{"Well before full threshold", date(2), 100, 10000, false},
		{"Exactly full threshold", date(10), 100, 10000, false},
		{"One day under full", date(11), 50, 5000, false},
		{"Exactly partial threshold", date(15), 50, 5000, false},
		{"One day under partial", date(16), 0, 0, false},
		{"Exactly zero threshold", date(18), 0, 0, false},
		{"Below zero threshold", date(19), 0, 0, true},
		{"After start", date(21), 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Refund(r, item, tt.asOf)
			assert.Equal(t, tt.percent, q.Percent)
			assert.Equal(t, tt.amount, q.AmountCents)
			assert.Equal(t, tt.autoFinalize, q.AutoFinalize)
		})
	}
}

func TestRefund_UnpaidReservation(t *testing.T) {
	item := &domain.Item{FullRefundDays: 10, PartialRefundDays: 5, ZeroRefundDays: 2, PartialRefundPercent: 50}
	r := &domain.Reservation{StartDate: date(20), EndDate: date(25), TotalCents: 10000}

	q := Refund(r, item, date(1))
	assert.Zero(t, q.AmountCents)
	assert.True(t, q.AutoFinalize)
}
