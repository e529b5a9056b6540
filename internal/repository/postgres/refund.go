package postgres

import (
	"context"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"
)

type refundRepository struct {
	db dbtx
}

func NewRefundRepository(db dbtx) repository.RefundRepository {
	return &refundRepository{db: db}
}

func (r *refundRepository) Create(ctx context.Context, rf *domain.Refund) error {
	query := `INSERT INTO refunds (customer_id, reservation_id, amount_cents, percent, customer_document, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rf.CustomerID, rf.ReservationID, rf.AmountCents, rf.Percent, rf.CustomerDocument, rf.CreatedOn).Scan(&rf.ID)
	return mapError(err, "refund")
}

func (r *refundRepository) GetByReservation(ctx context.Context, reservationID int32) (*domain.Refund, error) {
	rf := &domain.Refund{}
	query := `SELECT id, customer_id, reservation_id, amount_cents, percent, customer_document, created_on FROM refunds WHERE reservation_id = $1`
	err := r.db.QueryRowContext(ctx, query, reservationID).
		Scan(&rf.ID, &rf.CustomerID, &rf.ReservationID, &rf.AmountCents, &rf.Percent, &rf.CustomerDocument, &rf.CreatedOn)
	if err != nil {
		return nil, mapError(err, "refund")
	}
	return rf, nil
}
