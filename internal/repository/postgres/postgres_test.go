package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reservationColumnNames = []string{"id", "reference", "customer_id", "item_id", "branch_id", "start_date", "end_date", "quantity",
	"pre_discount_cents", "discount_cents", "total_cents", "surcharge_percent", "coupon_id", "channel", "state",
	"checkout_ref", "pickup_code", "created_by_employee_id", "processed_by_employee_id",
	"created_on", "confirmed_on", "delivered_on", "returned_on", "cancelled_on", "finalized_on", "updated_on"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestReservationRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	newReservation := func() *domain.Reservation {
		return &domain.Reservation{
			Reference: "ref-1", CustomerID: 3, ItemID: 1, BranchID: 2,
			StartDate: day(10), EndDate: day(12), Quantity: 2,
			PreDiscountCents: 4000, TotalCents: 4000,
			Channel: domain.PaymentChannelOnline, State: domain.ReservationStatePendingPayment,
		}
	}

	t.Run("Success", func(t *testing.T) {
		res := newReservation()
		mock.ExpectQuery("INSERT INTO reservations").
			WithArgs("ref-1", int32(3), int32(1), int32(2), day(10), day(12), int32(2),
				int64(4000), int64(0), int64(4000), int32(0), nil, "ONLINE", "PENDING_PAYMENT",
				nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))

		require.NoError(t, repo.Create(ctx, res))
		assert.Equal(t, int32(17), res.ID)
		assert.False(t, res.CreatedOn.IsZero())
	})

	t.Run("Live reservation conflict", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO reservations").
			WillReturnError(&pq.Error{Code: "23505", Constraint: liveReservationIndex})

		err := repo.Create(ctx, newReservation())
		assert.ErrorIs(t, err, domain.ErrLiveReservationExists)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(reservationColumnNames).
			AddRow(5, "ref-5", 3, 1, 2, day(10), day(12), 1,
				2000, 0, 2000, 0, nil, "IN_PERSON", "CONFIRMED",
				nil, "PK-1", 9, nil,
				now, now, nil, nil, nil, nil, now)
		mock.ExpectQuery(`SELECT (.+) FROM reservations WHERE id = \$1`).
			WithArgs(int32(5)).
			WillReturnRows(rows)

		res, err := repo.GetByID(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStateConfirmed, res.State)
		assert.Equal(t, domain.PaymentChannelInPerson, res.Channel)
		require.NotNil(t, res.PickupCode)
		assert.Equal(t, "PK-1", *res.PickupCode)
		require.NotNil(t, res.CreatedByEmployeeID)
		assert.Equal(t, int32(9), *res.CreatedByEmployeeID)
		assert.Nil(t, res.CouponID)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM reservations WHERE id = \$1`).
			WithArgs(int32(99)).
			WillReturnRows(sqlmock.NewRows(reservationColumnNames))

		_, err := repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_GetForUpdateLocksRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM reservations WHERE id = \$1 FOR UPDATE`).
		WithArgs(int32(5)).
		WillReturnRows(sqlmock.NewRows(reservationColumnNames))

	_, err := repo.GetForUpdate(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_ListOverlapping(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	window := domain.DateRange{Start: day(10), End: day(15)}

	now := time.Now()
	rows := sqlmock.NewRows(reservationColumnNames).
		AddRow(1, "a", 3, 1, 2, day(8), day(11), 2, 100, 0, 100, 0, nil, "ONLINE", "CONFIRMED", nil, nil, nil, nil, now, now, nil, nil, nil, nil, now).
		AddRow(2, "b", 4, 1, 2, day(14), day(20), 1, 100, 0, 100, 0, nil, "ONLINE", "DELIVERED", nil, nil, nil, nil, now, now, now, nil, nil, nil, now)

	// Overlap is start < window.end AND end > window.start.
	mock.ExpectQuery(`SELECT (.+) FROM reservations\s+WHERE item_id = \$1 AND branch_id = \$2 AND start_date < \$3 AND end_date > \$4 AND state = ANY\(\$5\)`).
		WithArgs(int32(1), int32(2), day(15), day(10), sqlmock.AnyArg()).
		WillReturnRows(rows)

	out, err := repo.ListOverlapping(context.Background(), 1, 2, window, domain.HoldingStates)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int32(3), domain.HeldQuantity(out, window, 0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	branchID := int32(2)
	from := day(1)
	filter := domain.ReservationFilter{
		States:      []domain.ReservationState{domain.ReservationStateConfirmed},
		BranchID:    &branchID,
		CreatedFrom: &from,
		Page:        2,
		PageSize:    10,
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM reservations WHERE state = ANY\(\$1\) AND branch_id = \$2 AND created_on >= \$3`).
		WithArgs(sqlmock.AnyArg(), branchID, from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`SELECT (.+) FROM reservations WHERE (.+) ORDER BY created_on DESC, id DESC LIMIT \$4 OFFSET \$5`).
		WithArgs(sqlmock.AnyArg(), branchID, from, int32(10), int32(10)).
		WillReturnRows(sqlmock.NewRows(reservationColumnNames))

	out, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(11), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_ListIDsEndedBefore(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	mock.ExpectQuery(`SELECT id FROM reservations WHERE state = \$1 AND end_date < \$2`).
		WithArgs("DELIVERED", day(20)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4).AddRow(9))

	ids, err := repo.ListIDsEndedBefore(context.Background(), domain.ReservationStateDelivered, day(20))
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 9}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepository_ApplyDelta(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStockRepository(db)
	ctx := context.Background()

	t.Run("Debit", func(t *testing.T) {
		mock.ExpectQuery("UPDATE branch_stock SET total = total \\+ \\$1, available = available \\+ \\$2").
			WithArgs(int32(0), int32(-2), sqlmock.AnyArg(), int32(1), int32(2)).
			WillReturnRows(sqlmock.NewRows([]string{"item_id", "branch_id", "total", "available", "updated_on"}).
				AddRow(1, 2, 5, 3, time.Now()))

		s, err := repo.ApplyDelta(ctx, 1, 2, 0, -2)
		require.NoError(t, err)
		assert.Equal(t, int32(3), s.Available)
	})

	t.Run("Check violation maps to validation", func(t *testing.T) {
		mock.ExpectQuery("UPDATE branch_stock").
			WillReturnError(&pq.Error{Code: "23514", Constraint: "chk_branch_stock_available"})

		_, err := repo.ApplyDelta(ctx, 1, 2, -10, -10)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Missing row", func(t *testing.T) {
		mock.ExpectQuery("UPDATE branch_stock").
			WillReturnRows(sqlmock.NewRows([]string{"item_id", "branch_id", "total", "available", "updated_on"}))

		_, err := repo.ApplyDelta(ctx, 1, 3, 0, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponRepository_MarkUsed(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE coupons SET used = TRUE, reservation_id = \$1 WHERE id = \$2 AND used = FALSE`).
		WithArgs(int32(40), int32(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkUsed(ctx, 7, 40))

	mock.ExpectExec(`UPDATE coupons SET used = TRUE`).
		WithArgs(int32(41), int32(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkUsed(ctx, 7, 41), domain.ErrCouponAlreadyUsed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT item_id, branch_id, total, available, updated_on FROM branch_stock WHERE item_id = \\$1 AND branch_id = \\$2 FOR UPDATE").
			WithArgs(int32(1), int32(2)).
			WillReturnRows(sqlmock.NewRows([]string{"item_id", "branch_id", "total", "available", "updated_on"}).
				AddRow(1, 2, 5, 5, time.Now()))
		mock.ExpectCommit()

		err := store.WithTx(ctx, func(tx repository.Tx) error {
			s, err := tx.Stock().GetForUpdate(ctx, 1, 2)
			if err != nil {
				return err
			}
			assert.Equal(t, int32(5), s.Total)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("Rollback returns the callback error", func(t *testing.T) {
		sentinel := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithTx(ctx, func(tx repository.Tx) error { return sentinel })
		assert.ErrorIs(t, err, sentinel)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)
	ctx := context.Background()
	from, to := day(1), day(31)

	mock.ExpectQuery(`SELECT state,(.+)FROM reservations(.+)GROUP BY state`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"state", "count", "total_cents", "pre_discount_cents", "discount_cents"}).
			AddRow("CONFIRMED", 3, 9000, 10000, 1000).
			AddRow("FINALIZED", 1, 2000, 2000, 0))

	stats, err := store.Stats().ReservationStats(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, domain.ReservationStateConfirmed, stats[0].State)
	assert.Equal(t, int64(1000), stats[0].DiscountCents)

	mock.ExpectQuery(`SELECT count\(\*\) AS count, COALESCE\(SUM\(amount_cents\), 0\) AS amount_cents\s+FROM refunds`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count", "amount_cents"}).AddRow(2, 7500))

	refunds, err := store.Stats().RefundStats(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(2), refunds.Count)
	assert.Equal(t, int64(7500), refunds.AmountCents)
	assert.Equal(t, from, refunds.From)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil, "item"))
	assert.ErrorIs(t, mapError(sql.ErrNoRows, "item"), domain.ErrNotFound)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505", Constraint: "coupons_code_key"}, "coupon"), domain.ErrValidation)
	assert.NotErrorIs(t, mapError(&pq.Error{Code: "23505", Constraint: "coupons_code_key"}, "coupon"), domain.ErrLiveReservationExists)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23503"}, "reservation"), domain.ErrValidation)

	other := errors.New("connection refused")
	assert.Equal(t, other, mapError(other, "item"))
}
