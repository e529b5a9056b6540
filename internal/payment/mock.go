package payment

import (
	"context"

	"branchrent-backend/internal/logger"

	"github.com/google/uuid"
)

// MockProvider accepts every checkout. Approval arrives later through the
// payment notification path, as with a real provider.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (MockProvider) CreateCheckout(ctx context.Context, amountCents int64, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	checkoutRef := "mock_" + uuid.NewString()
	logger.Debug("Mock checkout created", "reference", reference, "amount_cents", amountCents, "checkout_ref", checkoutRef)
	return checkoutRef, nil
}
