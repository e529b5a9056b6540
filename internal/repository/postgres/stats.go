package postgres

import (
	"context"
	"fmt"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"

	"github.com/jmoiron/sqlx"
)

// statsRepository serves the reporting queries. Rows map straight onto the
// domain structs through their db tags.
type statsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) ReservationStats(ctx context.Context, from, to time.Time) ([]domain.StateStat, error) {
	query := `
		SELECT state,
		       count(*) AS count,
		       COALESCE(SUM(total_cents), 0) AS total_cents,
		       COALESCE(SUM(pre_discount_cents), 0) AS pre_discount_cents,
		       COALESCE(SUM(discount_cents), 0) AS discount_cents
		FROM reservations
		WHERE created_on >= $1 AND created_on < $2
		GROUP BY state
		ORDER BY state
	`
	var stats []domain.StateStat
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to aggregate reservations: %w", err)
	}
	return stats, nil
}

func (r *statsRepository) RefundStats(ctx context.Context, from, to time.Time) (*domain.RefundStats, error) {
	query := `
		SELECT count(*) AS count, COALESCE(SUM(amount_cents), 0) AS amount_cents
		FROM refunds
		WHERE created_on >= $1 AND created_on < $2
	`
	stats := domain.RefundStats{From: from, To: to}
	if err := r.db.GetContext(ctx, &stats, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to aggregate refunds: %w", err)
	}
	return &stats, nil
}
