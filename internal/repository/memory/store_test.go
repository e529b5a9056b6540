package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, s *Store) (itemID, branchID, customerID int32) {
	t.Helper()
	ctx := context.Background()
	item := &domain.Item{Name: "Scaffold", DailyPriceCents: 500, MinDays: 1, MaxDays: 10}
	require.NoError(t, s.Items().Create(ctx, item))
	branch := &domain.Branch{Name: "North", Active: true}
	require.NoError(t, s.Branches().Create(ctx, branch))
	customer := &domain.Customer{Name: "Ana", Email: "ana@example.com", DocumentNumber: "D-1"}
	require.NoError(t, s.Customers().Create(ctx, customer))
	require.NoError(t, s.Stock().Create(ctx, &domain.BranchStock{ItemID: item.ID, BranchID: branch.ID, Total: 5, Available: 5}))
	return item.ID, branch.ID, customer.ID
}

func TestStore_WithTxRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	itemID, branchID, _ := seed(t, s)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Stock().ApplyDelta(ctx, itemID, branchID, 0, -3)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stock, err := s.Stock().Get(ctx, itemID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), stock.Available)

	require.NoError(t, s.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.Stock().ApplyDelta(ctx, itemID, branchID, 0, -3)
		return err
	}))
	stock, err = s.Stock().Get(ctx, itemID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stock.Available)
}

func TestStockRepository_RejectsAvailableAboveTotal(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	itemID, branchID, _ := seed(t, s)

	_, err := s.Stock().ApplyDelta(ctx, itemID, branchID, 0, 1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Stock().ApplyDelta(ctx, itemID, branchID, -6, -6)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Stock().ApplyDelta(ctx, itemID, branchID, 0, -6)
	assert.ErrorIs(t, err, domain.ErrValidation, "available below zero")

	total, err := s.Stock().SumTotalByItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), total)
}

func TestReservationRepository_OneLivePerCustomer(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	itemID, branchID, customerID := seed(t, s)

	first := &domain.Reservation{Reference: "a", CustomerID: customerID, ItemID: itemID, BranchID: branchID,
		StartDate: day(1), EndDate: day(3), Quantity: 1, State: domain.ReservationStatePendingPayment}
	require.NoError(t, s.Reservations().Create(ctx, first))

	second := &domain.Reservation{Reference: "b", CustomerID: customerID, ItemID: itemID, BranchID: branchID,
		StartDate: day(5), EndDate: day(6), Quantity: 1, State: domain.ReservationStatePendingPayment}
	assert.ErrorIs(t, s.Reservations().Create(ctx, second), domain.ErrLiveReservationExists)

	first.State = domain.ReservationStateCancelled
	require.NoError(t, s.Reservations().Update(ctx, first))
	assert.NoError(t, s.Reservations().Create(ctx, second))
}

func TestReservationRepository_Queries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	itemID, branchID, _ := seed(t, s)

	add := func(ref string, customer int32, start, end int, state domain.ReservationState, created time.Time) {
		require.NoError(t, s.Reservations().Create(ctx, &domain.Reservation{
			Reference: ref, CustomerID: customer, ItemID: itemID, BranchID: branchID,
			StartDate: day(start), EndDate: day(end), Quantity: 1, State: state, CreatedOn: created,
		}))
	}
	base := day(1)
	add("r1", 10, 1, 5, domain.ReservationStateConfirmed, base)
	add("r2", 11, 5, 10, domain.ReservationStateConfirmed, base.Add(time.Hour))
	add("r3", 12, 4, 6, domain.ReservationStatePendingPayment, base.Add(2*time.Hour))
	add("r4", 13, 2, 3, domain.ReservationStateDelivered, base.Add(3*time.Hour))

	window := domain.DateRange{Start: day(5), End: day(10)}
	overlapping, err := s.Reservations().ListOverlapping(ctx, itemID, branchID, window, domain.HoldingStates)
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, "r2", overlapping[0].Reference)

	ids, err := s.Reservations().ListIDsCreatedBefore(ctx, domain.ReservationStatePendingPayment, base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	ids, err = s.Reservations().ListIDsEndedBefore(ctx, domain.ReservationStateDelivered, day(4))
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	page, total, err := s.Reservations().List(ctx, domain.ReservationFilter{
		States: []domain.ReservationState{domain.ReservationStateConfirmed, domain.ReservationStatePendingPayment},
		Page:   1, PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "r3", page[0].Reference)

	stats, err := s.Stats().ReservationStats(ctx, day(1), day(2))
	require.NoError(t, err)
	assert.Len(t, stats, 3)
}

func TestCouponRepository_MarkUsedOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, _, customerID := seed(t, s)

	c := &domain.Coupon{CustomerID: customerID, Code: "ONCE", Kind: domain.CouponKindFixed, Value: 100, ExpiresOn: day(30)}
	require.NoError(t, s.Coupons().Create(ctx, c))

	require.NoError(t, s.Coupons().MarkUsed(ctx, c.ID, 1))
	assert.ErrorIs(t, s.Coupons().MarkUsed(ctx, c.ID, 2), domain.ErrCouponAlreadyUsed)

	got, err := s.Coupons().GetByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.True(t, got.Used)
	require.NotNil(t, got.ReservationID)
	assert.Equal(t, int32(1), *got.ReservationID)
}

func TestCouponRepository_MarkUsedRace(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, _, customerID := seed(t, s)

	c := &domain.Coupon{CustomerID: customerID, Code: "RACE", Kind: domain.CouponKindFixed, Value: 100, ExpiresOn: day(30)}
	require.NoError(t, s.Coupons().Create(ctx, c))

	const n = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make(chan error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(reservationID int32) {
			defer wg.Done()
			<-start
			errs <- s.Coupons().MarkUsed(ctx, c.ID, reservationID)
		}(int32(i + 1))
	}
	close(start)
	wg.Wait()
	close(errs)

	var used, rejected int
	for err := range errs {
		switch {
		case err == nil:
			used++
		case errors.Is(err, domain.ErrCouponAlreadyUsed):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, used)
	assert.Equal(t, n-1, rejected)
}
