package notify

import (
	"context"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
)

// LogNotifier writes notifications to the log. Used when no SendGrid key is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) SendPickupCode(ctx context.Context, customer *domain.Customer, item *domain.Item, r *domain.Reservation) error {
	logger.Info("Notification: pickup code", "customer_id", customer.ID, "item", item.Name, "reservation_id", r.ID)
	return nil
}

func (LogNotifier) SendCancellation(ctx context.Context, customer *domain.Customer, item *domain.Item, r *domain.Reservation, quote domain.RefundQuote) error {
	logger.Info("Notification: cancellation", "customer_id", customer.ID, "reservation_id", r.ID, "refund_percent", quote.Percent, "refund_cents", quote.AmountCents)
	return nil
}

func (LogNotifier) SendRefundIssued(ctx context.Context, customer *domain.Customer, r *domain.Reservation, refund *domain.Refund) error {
	logger.Info("Notification: refund issued", "customer_id", customer.ID, "reservation_id", r.ID, "amount_cents", refund.AmountCents)
	return nil
}

func (LogNotifier) SendNotReturnedAlarm(ctx context.Context, branch *domain.Branch, customer *domain.Customer, item *domain.Item, r *domain.Reservation) error {
	logger.Warn("Notification: equipment not returned", "branch_id", branch.ID, "customer_id", customer.ID, "item", item.Name, "reservation_id", r.ID)
	return nil
}
