package service

import (
	"context"
	"time"

	"branchrent-backend/internal/domain"
)

type InventoryService interface {
	CreateItem(ctx context.Context, p domain.Principal, item *domain.Item) error
	UpdateItem(ctx context.Context, p domain.Principal, item *domain.Item) error
	ArchiveItem(ctx context.Context, p domain.Principal, itemID int32) error
	GetItem(ctx context.Context, itemID int32) (*domain.Item, error)
	ListItems(ctx context.Context) ([]domain.Item, error)

	CreateBranch(ctx context.Context, p domain.Principal, branch *domain.Branch) error
	ArchiveBranch(ctx context.Context, p domain.Principal, branchID int32) error
	ListBranches(ctx context.Context) ([]domain.Branch, error)

	StockItem(ctx context.Context, p domain.Principal, itemID, branchID, total int32) (*domain.BranchStock, error)
	AdjustStock(ctx context.Context, p domain.Principal, itemID, branchID, delta int32) (*domain.BranchStock, error)
	RemoveStock(ctx context.Context, p domain.Principal, itemID, branchID int32) error
	ListStock(ctx context.Context, itemID int32) ([]domain.BranchStock, error)
}

type AvailabilityService interface {
	// Free returns total minus the quantity held by overlapping reservations,
	// never below zero.
	Free(ctx context.Context, itemID, branchID int32, window domain.DateRange, excludeID int32) (int32, error)
	// Search evaluates one branch, or every operational branch when branchID
	// is nil, and returns those with at least quantity units free.
	Search(ctx context.Context, itemID int32, branchID *int32, window domain.DateRange, quantity int32) ([]domain.BranchAvailability, error)
}

type ReservationService interface {
	Quote(ctx context.Context, p domain.Principal, draft domain.Draft) (*domain.Quote, error)
	Create(ctx context.Context, p domain.Principal, draft domain.Draft) (*domain.Reservation, error)
	StartCheckout(ctx context.Context, p domain.Principal, draft domain.Draft) (*domain.Reservation, error)
	Confirm(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, error)
	HandlePaymentNotification(ctx context.Context, n domain.PaymentNotification) error
	Cancel(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, error)
	MarkDelivered(ctx context.Context, p domain.Principal, reservationID int32, pickupCode, documentNumber string) (*domain.Reservation, error)
	MarkReturned(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, error)
	Finalize(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, *domain.Refund, error)
	QuoteRefund(ctx context.Context, p domain.Principal, reservationID int32) (*domain.RefundQuote, error)

	Get(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, error)
	GetByPickupCode(ctx context.Context, p domain.Principal, code string) (*domain.Reservation, error)
	List(ctx context.Context, p domain.Principal, filter domain.ReservationFilter) ([]domain.Reservation, int32, error)

	// Sweeper transitions. Each re-reads the reservation under lock and
	// reports whether it changed anything.
	DeleteAbandoned(ctx context.Context, reservationID int32, cutoff time.Time) (bool, error)
	Lapse(ctx context.Context, reservationID int32, today time.Time) (bool, error)
}

type CustomerService interface {
	RegisterCustomer(ctx context.Context, customer *domain.Customer) error
	GetCustomer(ctx context.Context, p domain.Principal, customerID int32) (*domain.Customer, error)
	UpdateRating(ctx context.Context, p domain.Principal, customerID int32, rating *float64) error
	ArchiveCustomer(ctx context.Context, p domain.Principal, customerID int32) error
	IssueCoupon(ctx context.Context, p domain.Principal, coupon *domain.Coupon) error
}

type StatsService interface {
	ReservationStats(ctx context.Context, p domain.Principal, from, to time.Time) (*domain.ReservationStats, error)
	RefundStats(ctx context.Context, p domain.Principal, from, to time.Time) (*domain.RefundStats, error)
}

// PaymentProvider opens a checkout for an amount under our reference and
// returns the provider's checkout reference.
type PaymentProvider interface {
	CreateCheckout(ctx context.Context, amountCents int64, reference string) (string, error)
}

// Notifier delivers customer and staff messages. Callers log failures and
// carry on.
type Notifier interface {
	SendPickupCode(ctx context.Context, customer *domain.Customer, item *domain.Item, r *domain.Reservation) error
	SendCancellation(ctx context.Context, customer *domain.Customer, item *domain.Item, r *domain.Reservation, quote domain.RefundQuote) error
	SendRefundIssued(ctx context.Context, customer *domain.Customer, r *domain.Reservation, refund *domain.Refund) error
	SendNotReturnedAlarm(ctx context.Context, branch *domain.Branch, customer *domain.Customer, item *domain.Item, r *domain.Reservation) error
}

// EventPublisher fans reservation lifecycle events out to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}
