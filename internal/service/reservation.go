package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/pricing"
	"branchrent-backend/internal/repository"
	"branchrent-backend/internal/utils"

	"github.com/google/uuid"
)

const (
	defaultPageSize        = 20
	maxPageSize            = 100
	defaultCheckoutTimeout = 10 * time.Second
)

type reservationService struct {
	store           repository.Store
	payments        PaymentProvider
	notifier        Notifier
	events          EventPublisher
	now             func() time.Time
	checkoutTimeout time.Duration
}

type ReservationOption func(*reservationService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ReservationOption {
	return func(s *reservationService) { s.now = now }
}

// WithCheckoutTimeout bounds the payment provider call.
func WithCheckoutTimeout(d time.Duration) ReservationOption {
	return func(s *reservationService) {
		if d > 0 {
			s.checkoutTimeout = d
		}
	}
}

func NewReservationService(
	store repository.Store,
	payments PaymentProvider,
	notifier Notifier,
	events EventPublisher,
	opts ...ReservationOption,
) ReservationService {
	s := &reservationService{
		store:           store,
		payments:        payments,
		notifier:        notifier,
		events:          events,
		now:             time.Now,
		checkoutTimeout: defaultCheckoutTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *reservationService) today() time.Time {
	return utils.StartOfDay(s.now())
}

// prepare runs the draft pipeline up to pricing. Nothing is persisted.
func (s *reservationService) prepare(ctx context.Context, p domain.Principal, d domain.Draft) (*domain.Quote, error) {
	if err := domain.Authorize(p, &domain.Reservation{CustomerID: d.CustomerID, BranchID: d.BranchID}, domain.ActionCreate); err != nil {
		return nil, err
	}

	item, err := s.store.Items().GetByID(ctx, d.ItemID)
	if err != nil {
		return nil, err
	}
	if item.IsArchived() {
		return nil, domain.Validationf("item %s is no longer offered", item.Name)
	}
	branch, err := s.store.Branches().GetByID(ctx, d.BranchID)
	if err != nil {
		return nil, err
	}
	if !branch.IsOperational() {
		return nil, domain.Validationf("branch %s is not accepting reservations", branch.Name)
	}
	customer, err := s.store.Customers().GetByID(ctx, d.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.ArchivedOn != nil {
		return nil, domain.Validationf("customer account is closed")
	}

	if err := d.Validate(item); err != nil {
		return nil, err
	}
	today := s.today()
	if d.Range.Start.Before(today) {
		return nil, domain.Validationf("start date %s is in the past", utils.FormatDate(d.Range.Start))
	}

	free, err := freeUnits(ctx, s.store, d.ItemID, d.BranchID, d.Range, 0)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Validationf("%s is not stocked at branch %s", item.Name, branch.Name)
	}
	if err != nil {
		return nil, err
	}
	if free < d.Quantity {
		return nil, fmt.Errorf("%w: %d requested, %d free", domain.ErrInsufficientStock, d.Quantity, free)
	}

	var coupon *domain.Coupon
	if code := strings.TrimSpace(d.CouponCode); code != "" {
		if coupon, err = s.store.Coupons().GetByCode(ctx, code); err != nil {
			return nil, err
		}
	}
	q, err := pricing.QuoteDraft(&d, item, customer, coupon, today)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *reservationService) Quote(ctx context.Context, p domain.Principal, d domain.Draft) (*domain.Quote, error) {
	return s.prepare(ctx, p, d)
}

// Create persists a PENDING_PAYMENT reservation. The ledger is untouched until confirm.
func (s *reservationService) Create(ctx context.Context, p domain.Principal, d domain.Draft) (*domain.Reservation, error) {
	logger.EnterMethod("ReservationService.Create", "customer_id", d.CustomerID, "item_id", d.ItemID, "branch_id", d.BranchID)
	q, err := s.prepare(ctx, p, d)
	if err != nil {
		logger.ExitMethodWithError("ReservationService.Create", err)
		return nil, err
	}

	live, err := s.store.Reservations().HasLive(ctx, d.CustomerID)
	if err != nil {
		return nil, err
	}
	if live {
		return nil, domain.ErrLiveReservationExists
	}

	r := &domain.Reservation{
		Reference:  uuid.NewString(),
		CustomerID: d.CustomerID,
		ItemID:     d.ItemID,
		BranchID:   d.BranchID,
		StartDate:  d.Range.Start,
		EndDate:    d.Range.End,
		Quantity:   d.Quantity,
		Channel:    d.Channel,
		State:      domain.ReservationStatePendingPayment,
		CreatedOn:  s.now(),
	}
	if p.IsStaff() {
		employeeID := p.UserID
		r.CreatedByEmployeeID = &employeeID
	}
	q.Apply(r)

	if err := s.store.Reservations().Create(ctx, r); err != nil {
		logger.ExitMethodWithError("ReservationService.Create", err)
		return nil, err
	}
	logger.Info("Reservation created", "reservation_id", r.ID, "reference", r.Reference, "total_cents", r.TotalCents)
	return r, nil
}

// StartCheckout creates the reservation and opens a provider checkout for it.
// If the provider cannot produce a checkout reference the reservation is
// deleted again.
func (s *reservationService) StartCheckout(ctx context.Context, p domain.Principal, d domain.Draft) (*domain.Reservation, error) {
	if d.Channel != domain.PaymentChannelOnline {
		return nil, domain.Validationf("checkout is only available for online payment")
	}
	r, err := s.Create(ctx, p, d)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.checkoutTimeout)
	defer cancel()
	logger.ExternalServiceCall("payment", "CreateCheckout", "reference", r.Reference, "amount_cents", r.TotalCents)
	checkoutRef, err := s.payments.CreateCheckout(callCtx, r.TotalCents, r.Reference)
	if err == nil && checkoutRef == "" {
		err = errors.New("empty checkout reference")
	}
	logger.ExternalServiceResult("payment", "CreateCheckout", err, "reference", r.Reference)
	if err != nil {
		if delErr := s.store.Reservations().Delete(context.WithoutCancel(ctx), r.ID); delErr != nil {
			logger.Error("Failed to delete reservation after checkout failure", "reservation_id", r.ID, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalProvider, err)
	}

	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		cur, err := tx.Reservations().GetForUpdate(ctx, r.ID)
		if err != nil {
			return err
		}
		cur.CheckoutRef = &checkoutRef
		if err := tx.Reservations().Update(ctx, cur); err != nil {
			return err
		}
		r = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Confirm is the critical section: the stock row lock serialises competing
// confirms for the same (item, branch) so the availability check and the
// ledger update cannot interleave.
func (s *reservationService) Confirm(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, error) {
	logger.EnterMethod("ReservationService.Confirm", "reservation_id", reservationID)

	var confirmed *domain.Reservation
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(p, r, domain.ActionConfirm); err != nil {
			return err
		}
		if r.State != domain.ReservationStatePendingPayment {
			return domain.InvalidTransitionf("reservation %d is %s, not awaiting payment", r.ID, r.State)
		}

		stock, err := tx.Stock().GetForUpdate(ctx, r.ItemID, r.BranchID)
		if err != nil {
			return err
		}
		free, err := freeAgainst(ctx, tx, stock, r.Range(), r.ID)
		if err != nil {
			return err
		}
		if free < r.Quantity {
			return fmt.Errorf("%w: %d requested, %d free", domain.ErrInsufficientStock, r.Quantity, free)
		}

		if r.CouponID != nil {
			if err := tx.Coupons().MarkUsed(ctx, *r.CouponID, r.ID); err != nil {
				return err
			}
		}

		now := s.now()
		code := newPickupCode()
		r.State = domain.ReservationStateConfirmed
		r.ConfirmedOn = &now
		r.PickupCode = &code
		if p.IsStaff() {
			employeeID := p.UserID
			r.ProcessedByEmployeeID = &employeeID
		}
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		if _, err := rebalance(ctx, tx, r.ItemID, r.BranchID, 0); err != nil {
			return err
		}
		confirmed = r
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrCouponAlreadyUsed) {
			s.discard(ctx, reservationID, err)
		}
		logger.ExitMethodWithError("ReservationService.Confirm", err, "reservation_id", reservationID)
		return nil, err
	}

	logger.Transition(confirmed.ID, string(domain.ReservationStatePendingPayment), string(confirmed.State))
	s.publish(ctx, domain.EventReservationConfirmed, confirmed)
	if customer, item, err := s.parties(ctx, confirmed); err == nil && s.notifier != nil {
		if err := s.notifier.SendPickupCode(ctx, customer, item, confirmed); err != nil {
			logger.Warn("Failed to send pickup code", "reservation_id", confirmed.ID, "error", err)
		}
	}
	return confirmed, nil
}

// discard deletes a reservation that failed confirmation, provided it is
// still pending.
func (s *reservationService) discard(ctx context.Context, reservationID int32, cause error) {
	ctx = context.WithoutCancel(ctx)
	var deleted *domain.Reservation
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.State != domain.ReservationStatePendingPayment {
			return nil
		}
		if err := tx.Reservations().Delete(ctx, r.ID); err != nil {
			return err
		}
		deleted = r
		return nil
	})
	if err != nil {
		logger.Error("Failed to discard reservation", "reservation_id", reservationID, "cause", cause, "error", err)
		return
	}
	if deleted != nil {
		logger.Info("Reservation discarded", "reservation_id", reservationID, "cause", cause)
		s.publish(ctx, domain.EventReservationDeleted, deleted)
	}
}

func (s *reservationService) HandlePaymentNotification(ctx context.Context, n domain.PaymentNotification) error {
	logger.EnterMethod("ReservationService.HandlePaymentNotification", "reference", n.Reference, "status", n.Status)
	r, err := s.store.Reservations().GetByReference(ctx, n.Reference)
	if err != nil {
		return err
	}

	switch n.Status {
	case domain.PaymentStatusApproved:
		if r.State == domain.ReservationStateConfirmed {
			// Provider retries deliver the same approval more than once.
			return nil
		}
		_, err := s.Confirm(ctx, domain.SystemPrincipal, r.ID)
		return err
	case domain.PaymentStatusPending:
		return nil
	case domain.PaymentStatusRejected, domain.PaymentStatusCancelled:
		if r.State != domain.ReservationStatePendingPayment {
			return domain.InvalidTransitionf("payment %s for reservation %d in state %s", n.Status, r.ID, r.State)
		}
		s.discard(ctx, r.ID, fmt.Errorf("payment %s", n.Status))
		return nil
	}
	return domain.Validationf("unknown payment status %q", n.Status)
}

// Cancel moves a pending or confirmed reservation to CANCELLED, returning
// held stock at once. When nothing can be refunded the reservation is
// finalized in the same step.
func (s *reservationService) Cancel(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, error) {
	logger.EnterMethod("ReservationService.Cancel", "reservation_id", reservationID)

	var (
		cancelled *domain.Reservation
		from      domain.ReservationState
		quote     domain.RefundQuote
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(p, r, domain.ActionCancel); err != nil {
			return err
		}
		if !r.State.CanTransitionTo(domain.ReservationStateCancelled) {
			return domain.InvalidTransitionf("reservation %d cannot be cancelled from %s", r.ID, r.State)
		}
		today := s.today()
		if p.Role == domain.RoleCustomer && r.IsActiveOn(today) {
			return domain.Validationf("rental is in progress; only branch staff can cancel it now")
		}

		from = r.State
		item, err := tx.Items().GetByID(ctx, r.ItemID)
		if err != nil {
			return err
		}
		quote = pricing.Refund(r, item, today)

		now := s.now()
		r.State = domain.ReservationStateCancelled
		r.CancelledOn = &now
		if p.IsStaff() {
			employeeID := p.UserID
			r.ProcessedByEmployeeID = &employeeID
		}
		if quote.AutoFinalize {
			r.State = domain.ReservationStateFinalized
			r.FinalizedOn = &now
		}
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		if from.HoldsCapacity() {
			if _, err := rebalance(ctx, tx, r.ItemID, r.BranchID, 0); err != nil {
				return err
			}
		}
		cancelled = r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ReservationService.Cancel", err, "reservation_id", reservationID)
		return nil, err
	}

	logger.Transition(cancelled.ID, string(from), string(cancelled.State), "refund_percent", quote.Percent, "auto_finalized", quote.AutoFinalize)
	s.publish(ctx, domain.EventReservationCancelled, cancelled)
	if quote.AutoFinalize {
		s.publish(ctx, domain.EventReservationFinalized, cancelled)
	}
	if customer, item, err := s.parties(ctx, cancelled); err == nil && s.notifier != nil {
		if err := s.notifier.SendCancellation(ctx, customer, item, cancelled, quote); err != nil {
			logger.Warn("Failed to send cancellation notice", "reservation_id", cancelled.ID, "error", err)
		}
	}
	return cancelled, nil
}

// QuoteRefund previews what cancelling today would refund.
func (s *reservationService) QuoteRefund(ctx context.Context, p domain.Principal, reservationID int32) (*domain.RefundQuote, error) {
	r, err := s.store.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(p, r, domain.ActionCancel); err != nil {
		return nil, err
	}
	item, err := s.store.Items().GetByID(ctx, r.ItemID)
	if err != nil {
		return nil, err
	}
	q := pricing.Refund(r, item, s.today())
	return &q, nil
}

// MarkDelivered hands the equipment over. Staff must present the pickup
// code together with the customer's document number.
func (s *reservationService) MarkDelivered(ctx context.Context, p domain.Principal, reservationID int32, pickupCode, documentNumber string) (*domain.Reservation, error) {
	var delivered *domain.Reservation
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(p, r, domain.ActionDeliver); err != nil {
			return err
		}
		if r.State != domain.ReservationStateConfirmed {
			return domain.InvalidTransitionf("reservation %d is %s, not confirmed", r.ID, r.State)
		}
		today := s.today()
		if today.Before(r.StartDate) {
			return domain.Validationf("pickup opens on %s", utils.FormatDate(r.StartDate))
		}
		if !today.Before(r.EndDate) {
			return domain.InvalidTransitionf("rental window of reservation %d has ended", r.ID)
		}
		if r.PickupCode == nil || !strings.EqualFold(*r.PickupCode, strings.TrimSpace(pickupCode)) {
			return domain.Validationf("pickup code does not match")
		}
		customer, err := tx.Customers().GetByID(ctx, r.CustomerID)
		if err != nil {
			return err
		}
		if customer.DocumentNumber != strings.TrimSpace(documentNumber) {
			return domain.Validationf("document number does not match the customer")
		}

		now := s.now()
		employeeID := p.UserID
		r.State = domain.ReservationStateDelivered
		r.DeliveredOn = &now
		r.ProcessedByEmployeeID = &employeeID
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		delivered = r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ReservationService.MarkDelivered", err, "reservation_id", reservationID)
		return nil, err
	}
	logger.Transition(delivered.ID, string(domain.ReservationStateConfirmed), string(delivered.State), "employee_id", p.UserID)
	s.publish(ctx, domain.EventReservationDelivered, delivered)
	return delivered, nil
}

// MarkReturned records the equipment coming back. A return after the end
// date is recorded as NOT_RETURNED so finalize treats it as late.
func (s *reservationService) MarkReturned(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, error) {
	var returned *domain.Reservation
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(p, r, domain.ActionReturn); err != nil {
			return err
		}
		if r.State != domain.ReservationStateDelivered {
			return domain.InvalidTransitionf("reservation %d is %s, not delivered", r.ID, r.State)
		}
		now := s.now()
		employeeID := p.UserID
		r.State = domain.ReservationStateReturnedOnTime
		if s.today().After(r.EndDate) {
			r.State = domain.ReservationStateNotReturned
		}
		r.ReturnedOn = &now
		r.ProcessedByEmployeeID = &employeeID
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		returned = r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ReservationService.MarkReturned", err, "reservation_id", reservationID)
		return nil, err
	}
	logger.Transition(returned.ID, string(domain.ReservationStateDelivered), string(returned.State), "employee_id", p.UserID)
	if returned.State == domain.ReservationStateNotReturned {
		s.publish(ctx, domain.EventReservationNotReturned, returned)
	} else {
		s.publish(ctx, domain.EventReservationReturned, returned)
	}
	return returned, nil
}

// Finalize closes a reservation. Post-pickup states give their units back
// to the ledger; a cancellation gets its Refund row. Anything else,
// including an already finalized reservation, is rejected untouched.
func (s *reservationService) Finalize(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, *domain.Refund, error) {
	logger.EnterMethod("ReservationService.Finalize", "reservation_id", reservationID)

	var (
		finalized *domain.Reservation
		refund    *domain.Refund
		from      domain.ReservationState
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(p, r, domain.ActionFinalize); err != nil {
			return err
		}
		from = r.State
		now := s.now()

		switch r.State {
		case domain.ReservationStateDelivered, domain.ReservationStateReturnedOnTime, domain.ReservationStateNotReturned:
		case domain.ReservationStateCancelled:
			item, err := tx.Items().GetByID(ctx, r.ItemID)
			if err != nil {
				return err
			}
			customer, err := tx.Customers().GetByID(ctx, r.CustomerID)
			if err != nil {
				return err
			}
			asOf := now
			if r.CancelledOn != nil {
				asOf = *r.CancelledOn
			}
			q := pricing.Refund(r, item, asOf)
			refund = &domain.Refund{
				CustomerID:       r.CustomerID,
				ReservationID:    r.ID,
				AmountCents:      q.AmountCents,
				Percent:          q.Percent,
				CustomerDocument: customer.DocumentNumber,
				CreatedOn:        now,
			}
			if err := tx.Refunds().Create(ctx, refund); err != nil {
				return err
			}
		default:
			return domain.InvalidTransitionf("reservation %d cannot be finalized from %s", r.ID, r.State)
		}

		r.State = domain.ReservationStateFinalized
		r.FinalizedOn = &now
		if p.IsStaff() {
			employeeID := p.UserID
			r.ProcessedByEmployeeID = &employeeID
		}
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		if from.HoldsCapacity() {
			if _, err := rebalance(ctx, tx, r.ItemID, r.BranchID, 0); err != nil {
				return err
			}
		}
		finalized = r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ReservationService.Finalize", err, "reservation_id", reservationID)
		return nil, nil, err
	}

	logger.Transition(finalized.ID, string(from), string(finalized.State))
	s.publish(ctx, domain.EventReservationFinalized, finalized)
	if refund != nil {
		s.publish(ctx, domain.EventRefundCreated, finalized)
		if customer, _, err := s.parties(ctx, finalized); err == nil && s.notifier != nil {
			if err := s.notifier.SendRefundIssued(ctx, customer, finalized, refund); err != nil {
				logger.Warn("Failed to send refund notice", "reservation_id", finalized.ID, "error", err)
			}
		}
	}
	return finalized, refund, nil
}

// Lapse applies the end-of-window rules to one reservation whose end date
// is before today: a delivered rental becomes NOT_RETURNED, a confirmed one
// that was never picked up is finalized and its units returned.
func (s *reservationService) Lapse(ctx context.Context, reservationID int32, today time.Time) (bool, error) {
	today = utils.StartOfDay(today)

	var (
		lapsed *domain.Reservation
		from   domain.ReservationState
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(domain.SystemPrincipal, r, domain.ActionLapse); err != nil {
			return err
		}
		if !r.EndDate.Before(today) {
			return nil
		}
		from = r.State
		now := s.now()
		switch r.State {
		case domain.ReservationStateDelivered:
			r.State = domain.ReservationStateNotReturned
		case domain.ReservationStateConfirmed:
			r.State = domain.ReservationStateFinalized
			r.FinalizedOn = &now
		default:
			return nil
		}
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		if r.State == domain.ReservationStateFinalized {
			if _, err := rebalance(ctx, tx, r.ItemID, r.BranchID, 0); err != nil {
				return err
			}
		}
		lapsed = r
		return nil
	})
	if err != nil {
		return false, err
	}
	if lapsed == nil {
		return false, nil
	}

	logger.Transition(lapsed.ID, string(from), string(lapsed.State), "reason", "lapsed")
	if lapsed.State == domain.ReservationStateNotReturned {
		s.publish(ctx, domain.EventReservationNotReturned, lapsed)
		s.alarmNotReturned(ctx, lapsed)
	} else {
		s.publish(ctx, domain.EventReservationFinalized, lapsed)
	}
	return true, nil
}

func (s *reservationService) alarmNotReturned(ctx context.Context, r *domain.Reservation) {
	if s.notifier == nil {
		return
	}
	branch, err := s.store.Branches().GetByID(ctx, r.BranchID)
	if err != nil {
		logger.Warn("Cannot load branch for not-returned alarm", "reservation_id", r.ID, "error", err)
		return
	}
	customer, item, err := s.parties(ctx, r)
	if err != nil {
		return
	}
	if err := s.notifier.SendNotReturnedAlarm(ctx, branch, customer, item, r); err != nil {
		logger.Warn("Failed to send not-returned alarm", "reservation_id", r.ID, "error", err)
	}
}

// DeleteAbandoned removes a PENDING_PAYMENT reservation created before cutoff.
func (s *reservationService) DeleteAbandoned(ctx context.Context, reservationID int32, cutoff time.Time) (bool, error) {
	var deleted *domain.Reservation
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		r, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if r.State != domain.ReservationStatePendingPayment || !r.CreatedOn.Before(cutoff) {
			return nil
		}
		if err := tx.Reservations().Delete(ctx, r.ID); err != nil {
			return err
		}
		deleted = r
		return nil
	})
	if err != nil || deleted == nil {
		return false, err
	}
	logger.Info("Abandoned reservation deleted", "reservation_id", deleted.ID, "created_on", deleted.CreatedOn)
	s.publish(ctx, domain.EventReservationDeleted, deleted)
	return true, nil
}

func (s *reservationService) Get(ctx context.Context, p domain.Principal, reservationID int32) (*domain.Reservation, error) {
	r, err := s.store.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(p, r, domain.ActionView); err != nil {
		return nil, err
	}
	return r, nil
}

// GetByPickupCode is the counter lookup used by branch staff.
func (s *reservationService) GetByPickupCode(ctx context.Context, p domain.Principal, code string) (*domain.Reservation, error) {
	if !p.IsStaff() {
		return nil, fmt.Errorf("%w: pickup lookup is restricted to staff", domain.ErrForbidden)
	}
	r, err := s.store.Reservations().GetByPickupCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(p, r, domain.ActionDeliver); err != nil {
		return nil, err
	}
	return r, nil
}

// List scopes the filter to what the principal may see: customers their own
// reservations, employees their branch.
func (s *reservationService) List(ctx context.Context, p domain.Principal, f domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	switch p.Role {
	case domain.RoleCustomer:
		id := p.UserID
		f.CustomerID = &id
	case domain.RoleEmployee:
		if p.BranchID == nil {
			return nil, 0, fmt.Errorf("%w: employee without a branch", domain.ErrForbidden)
		}
		f.BranchID = p.BranchID
	}
	for _, st := range f.States {
		if !st.Valid() {
			return nil, 0, domain.Validationf("unknown reservation state %q", st)
		}
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return s.store.Reservations().List(ctx, f)
}

// parties loads the customer and item for post-commit side effects.
func (s *reservationService) parties(ctx context.Context, r *domain.Reservation) (*domain.Customer, *domain.Item, error) {
	customer, err := s.store.Customers().GetByID(ctx, r.CustomerID)
	if err != nil {
		logger.Warn("Cannot load customer for notification", "reservation_id", r.ID, "error", err)
		return nil, nil, err
	}
	item, err := s.store.Items().GetByID(ctx, r.ItemID)
	if err != nil {
		logger.Warn("Cannot load item for notification", "reservation_id", r.ID, "error", err)
		return nil, nil, err
	}
	return customer, item, nil
}

func (s *reservationService) publish(ctx context.Context, t domain.EventType, r *domain.Reservation) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, domain.NewReservationEvent(t, r, s.now())); err != nil {
		logger.Warn("Failed to publish reservation event", "type", t, "reservation_id", r.ID, "error", err)
	}
}

func newPickupCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
