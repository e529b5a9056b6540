package domain

import "strings"

// PaymentStatus is the status carried by a payment provider notification.
type PaymentStatus string

const (
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case PaymentStatusApproved, PaymentStatusPending, PaymentStatusRejected, PaymentStatusCancelled:
		return st, nil
	}
	return "", Validationf("unknown payment status %q", s)
}

// PaymentNotification is the provider's asynchronous answer for a checkout.
type PaymentNotification struct {
	Reference string        `json:"reference"`
	Status    PaymentStatus `json:"status"`
}
