package notify

import (
	"context"
	"fmt"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/utils"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendFunc func(ctx context.Context, message *mail.SGMailV3) error

// SendGridNotifier delivers customer and branch e-mails through SendGrid.
type SendGridNotifier struct {
	fromEmail string
	fromName  string
	send      sendFunc
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string) *SendGridNotifier {
	client := sendgrid.NewSendClient(apiKey)
	return &SendGridNotifier{
		fromEmail: fromEmail,
		fromName:  fromName,
		send: func(ctx context.Context, message *mail.SGMailV3) error {
			response, err := client.SendWithContext(ctx, message)
			if err != nil {
				return fmt.Errorf("failed to send email: %w", err)
			}
			if response.StatusCode >= 400 {
				return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
			}
			return nil
		},
	}
}

func (n *SendGridNotifier) sendEmail(ctx context.Context, to, toName, subject, plainText, htmlContent string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	logger.ExternalServiceCall("sendgrid", "Send", "to", to, "subject", subject)
	err := n.send(ctx, message)
	logger.ExternalServiceResult("sendgrid", "Send", err, "to", to)
	return err
}

func (n *SendGridNotifier) SendPickupCode(ctx context.Context, customer *domain.Customer, item *domain.Item, r *domain.Reservation) error {
	code := ""
	if r.PickupCode != nil {
		code = *r.PickupCode
	}
	subject := fmt.Sprintf("Your reservation for %s is confirmed", item.Name)
	plainText := fmt.Sprintf("Hello %s,\n\nYour reservation of %d x %s from %s to %s is confirmed.\nPickup code: %s\nTotal paid: %s\n\nBring this code and your document to the branch.",
		customer.Name, r.Quantity, item.Name, utils.FormatDate(r.StartDate), utils.FormatDate(r.EndDate), code, utils.FormatCents(r.TotalCents))
	htmlContent := fmt.Sprintf(`<html><body>
<h2>Reservation confirmed</h2>
<p>%d x <strong>%s</strong>, %s to %s.</p>
<p>Pickup code: <strong>%s</strong></p>
<p>Total paid: %s</p>
</body></html>`, r.Quantity, item.Name, utils.FormatDate(r.StartDate), utils.FormatDate(r.EndDate), code, utils.FormatCents(r.TotalCents))
	return n.sendEmail(ctx, customer.Email, customer.Name, subject, plainText, htmlContent)
}

func (n *SendGridNotifier) SendCancellation(ctx context.Context, customer *domain.Customer, item *domain.Item, r *domain.Reservation, quote domain.RefundQuote) error {
	subject := fmt.Sprintf("Reservation %s cancelled", r.Reference)
	plainText := fmt.Sprintf("Hello %s,\n\nYour reservation of %s starting %s has been cancelled.\nRefund: %d%% (%s).",
		customer.Name, item.Name, utils.FormatDate(r.StartDate), quote.Percent, utils.FormatCents(quote.AmountCents))
	if !quote.AutoFinalize && quote.AmountCents > 0 {
		plainText += "\nThe refund will be issued once the branch closes the reservation."
	}
	htmlContent := fmt.Sprintf(`<html><body>
<h2>Reservation cancelled</h2>
<p>%s starting %s.</p>
<p>Refund: %d%% (%s)</p>
</body></html>`, item.Name, utils.FormatDate(r.StartDate), quote.Percent, utils.FormatCents(quote.AmountCents))
	return n.sendEmail(ctx, customer.Email, customer.Name, subject, plainText, htmlContent)
}

func (n *SendGridNotifier) SendRefundIssued(ctx context.Context, customer *domain.Customer, r *domain.Reservation, refund *domain.Refund) error {
	subject := fmt.Sprintf("Refund for reservation %s", r.Reference)
	plainText := fmt.Sprintf("Hello %s,\n\nA refund of %s (%d%%) has been issued for reservation %s.",
		customer.Name, utils.FormatCents(refund.AmountCents), refund.Percent, r.Reference)
	htmlContent := fmt.Sprintf(`<html><body>
<h2>Refund issued</h2>
<p>%s (%d%%) for reservation %s.</p>
</body></html>`, utils.FormatCents(refund.AmountCents), refund.Percent, r.Reference)
	return n.sendEmail(ctx, customer.Email, customer.Name, subject, plainText, htmlContent)
}

// SendNotReturnedAlarm goes to the branch, not the customer.
func (n *SendGridNotifier) SendNotReturnedAlarm(ctx context.Context, branch *domain.Branch, customer *domain.Customer, item *domain.Item, r *domain.Reservation) error {
	if branch.Email == "" {
		logger.Warn("Branch has no alarm address", "branch_id", branch.ID, "reservation_id", r.ID)
		return nil
	}
	subject := fmt.Sprintf("NOT RETURNED: %s (reservation %d)", item.Name, r.ID)
	plainText := fmt.Sprintf("%d x %s rented by %s (document %s, %s) was due back on %s and has not been returned.",
		r.Quantity, item.Name, customer.Name, customer.DocumentNumber, customer.Email, utils.FormatDate(r.EndDate))
	htmlContent := fmt.Sprintf(`<html><body>
<h2>Equipment not returned</h2>
<p>%d x <strong>%s</strong> rented by %s (document %s) was due back on %s.</p>
</body></html>`, r.Quantity, item.Name, customer.Name, customer.DocumentNumber, utils.FormatDate(r.EndDate))
	return n.sendEmail(ctx, branch.Email, branch.Name, subject, plainText, htmlContent)
}
