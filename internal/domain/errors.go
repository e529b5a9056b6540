package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers test with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	ErrExternalProvider  = errors.New("external provider error")
	ErrCouponAlreadyUsed = errors.New("coupon already used")
	ErrForbidden         = errors.New("forbidden")
)

// ErrLiveReservationExists is returned when a customer already holds a live reservation.
var ErrLiveReservationExists = fmt.Errorf("%w: customer already holds a live reservation", ErrValidation)

// Validationf builds an ErrValidation with a caller-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds an ErrNotFound naming the missing entity.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidTransitionf builds an ErrInvalidTransition.
func InvalidTransitionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}
