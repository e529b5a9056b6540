package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/repository"
)

type customerService struct {
	store repository.Store
	now   func() time.Time
}

func NewCustomerService(store repository.Store) CustomerService {
	return &customerService{store: store, now: time.Now}
}

func (s *customerService) RegisterCustomer(ctx context.Context, customer *domain.Customer) error {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	customer.DocumentNumber = strings.TrimSpace(customer.DocumentNumber)
	if customer.Name == "" {
		return domain.Validationf("customer name is required")
	}
	if _, err := mail.ParseAddress(customer.Email); err != nil {
		return domain.Validationf("invalid email address %q", customer.Email)
	}
	if customer.DocumentNumber == "" {
		return domain.Validationf("document number is required")
	}
	if err := validRating(customer.Rating); err != nil {
		return err
	}
	customer.ArchivedOn = nil
	customer.CreatedOn = s.now()
	if err := s.store.Customers().Create(ctx, customer); err != nil {
		return err
	}
	logger.Info("Customer registered", "customer_id", customer.ID)
	return nil
}

func (s *customerService) GetCustomer(ctx context.Context, p domain.Principal, customerID int32) (*domain.Customer, error) {
	if p.Role == domain.RoleCustomer && p.UserID != customerID {
		return nil, fmt.Errorf("%w: customers may only read their own profile", domain.ErrForbidden)
	}
	return s.store.Customers().GetByID(ctx, customerID)
}

// UpdateRating sets the reliability score that drives the price surcharge.
// Reservations already priced keep their amounts.
func (s *customerService) UpdateRating(ctx context.Context, p domain.Principal, customerID int32, rating *float64) error {
	if !p.IsStaff() {
		return fmt.Errorf("%w: rating is maintained by staff", domain.ErrForbidden)
	}
	if err := validRating(rating); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		c, err := tx.Customers().GetByID(ctx, customerID)
		if err != nil {
			return err
		}
		c.Rating = rating
		return tx.Customers().Update(ctx, c)
	})
}

func (s *customerService) ArchiveCustomer(ctx context.Context, p domain.Principal, customerID int32) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		c, err := tx.Customers().GetByID(ctx, customerID)
		if err != nil {
			return err
		}
		if c.ArchivedOn != nil {
			return nil
		}
		live, err := tx.Reservations().HasLive(ctx, customerID)
		if err != nil {
			return err
		}
		if live {
			return domain.Validationf("customer %d still has a live reservation", customerID)
		}
		now := s.now()
		c.ArchivedOn = &now
		return tx.Customers().Update(ctx, c)
	})
}

func (s *customerService) IssueCoupon(ctx context.Context, p domain.Principal, coupon *domain.Coupon) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if err := coupon.Validate(); err != nil {
		return err
	}
	if _, err := s.store.Customers().GetByID(ctx, coupon.CustomerID); err != nil {
		return err
	}
	coupon.Used = false
	coupon.ReservationID = nil
	coupon.CreatedOn = s.now()
	if err := s.store.Coupons().Create(ctx, coupon); err != nil {
		return err
	}
	logger.Info("Coupon issued", "coupon_id", coupon.ID, "customer_id", coupon.CustomerID, "kind", coupon.Kind)
	return nil
}

func validRating(rating *float64) error {
	if rating != nil && (*rating < 0 || *rating > 5) {
		return domain.Validationf("rating must be within 0..5")
	}
	return nil
}
