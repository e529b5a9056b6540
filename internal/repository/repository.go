package repository

import (
	"context"
	"time"

	"branchrent-backend/internal/domain"
)

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id int32) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	SetTotalUnits(ctx context.Context, itemID, totalUnits int32) error
	List(ctx context.Context, includeArchived bool) ([]domain.Item, error)
}

type BranchRepository interface {
	Create(ctx context.Context, branch *domain.Branch) error
	GetByID(ctx context.Context, id int32) (*domain.Branch, error)
	Update(ctx context.Context, branch *domain.Branch) error
	ListOperational(ctx context.Context) ([]domain.Branch, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id int32) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
}

// StockRepository owns the per-(item, branch) ledger rows.
type StockRepository interface {
	Create(ctx context.Context, stock *domain.BranchStock) error
	Get(ctx context.Context, itemID, branchID int32) (*domain.BranchStock, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, itemID, branchID int32) (*domain.BranchStock, error)
	ListByItem(ctx context.Context, itemID int32) ([]domain.BranchStock, error)
	// ApplyDelta adds the deltas to total and available and returns the new row.
	ApplyDelta(ctx context.Context, itemID, branchID, totalDelta, availableDelta int32) (*domain.BranchStock, error)
	Delete(ctx context.Context, itemID, branchID int32) error
	SumTotalByItem(ctx context.Context, itemID int32) (int32, error)
}

type ReservationRepository interface {
	// Create fails with domain.ErrLiveReservationExists when the customer
	// already holds a live reservation.
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id int32) (*domain.Reservation, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int32) (*domain.Reservation, error)
	GetByReference(ctx context.Context, reference string) (*domain.Reservation, error)
	GetByPickupCode(ctx context.Context, code string) (*domain.Reservation, error)
	Update(ctx context.Context, r *domain.Reservation) error
	Delete(ctx context.Context, id int32) error
	HasLive(ctx context.Context, customerID int32) (bool, error)
	CountLiveByStock(ctx context.Context, itemID, branchID int32) (int32, error)
	ListOverlapping(ctx context.Context, itemID, branchID int32, window domain.DateRange, states []domain.ReservationState) ([]domain.Reservation, error)
	List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error)
	ListIDsCreatedBefore(ctx context.Context, state domain.ReservationState, cutoff time.Time) ([]int32, error)
	ListIDsEndedBefore(ctx context.Context, state domain.ReservationState, day time.Time) ([]int32, error)
}

type RefundRepository interface {
	Create(ctx context.Context, refund *domain.Refund) error
	GetByReservation(ctx context.Context, reservationID int32) (*domain.Refund, error)
}

type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	GetByID(ctx context.Context, id int32) (*domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// MarkUsed binds the coupon to a reservation only if it is still unused;
	// otherwise it returns domain.ErrCouponAlreadyUsed.
	MarkUsed(ctx context.Context, couponID, reservationID int32) error
}

type StatsRepository interface {
	ReservationStats(ctx context.Context, from, to time.Time) ([]domain.StateStat, error)
	RefundStats(ctx context.Context, from, to time.Time) (*domain.RefundStats, error)
}

// Tx is the set of repositories bound to one connection or transaction.
type Tx interface {
	Items() ItemRepository
	Branches() BranchRepository
	Customers() CustomerRepository
	Stock() StockRepository
	Reservations() ReservationRepository
	Refunds() RefundRepository
	Coupons() CouponRepository
}

// Store exposes auto-commit repositories plus transactional execution.
type Store interface {
	Tx
	Stats() StatsRepository
	// WithTx runs fn in a single transaction. A non-nil error from fn rolls
	// everything back and is returned unchanged.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
