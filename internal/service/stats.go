package service

import (
	"context"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"
)

type statsService struct {
	stats repository.StatsRepository
}

func NewStatsService(stats repository.StatsRepository) StatsService {
	return &statsService{stats: stats}
}

func checkWindow(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return domain.Validationf("both from and to are required")
	}
	if !from.Before(to) {
		return domain.Validationf("from must be before to")
	}
	return nil
}

// ReservationStats groups reservations created in [from, to) by state.
func (s *statsService) ReservationStats(ctx context.Context, p domain.Principal, from, to time.Time) (*domain.ReservationStats, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}
	rows, err := s.stats.ReservationStats(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.StateStat{}
	}
	return &domain.ReservationStats{From: from, To: to, ByState: rows}, nil
}

// RefundStats totals refunds created in [from, to).
func (s *statsService) RefundStats(ctx context.Context, p domain.Principal, from, to time.Time) (*domain.RefundStats, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}
	out, err := s.stats.RefundStats(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out.From, out.To = from, to
	return out, nil
}
