package postgres

import (
	"context"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/repository"
)

type stockRepository struct {
	db dbtx
}

func NewStockRepository(db dbtx) repository.StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, s *domain.BranchStock) error {
	query := `INSERT INTO branch_stock (item_id, branch_id, total, available, updated_on) VALUES ($1, $2, $3, $4, $5)`
	s.UpdatedOn = time.Now()
	_, err := r.db.ExecContext(ctx, query, s.ItemID, s.BranchID, s.Total, s.Available, s.UpdatedOn)
	return mapError(err, "branch stock")
}

func (r *stockRepository) Get(ctx context.Context, itemID, branchID int32) (*domain.BranchStock, error) {
	return r.get(ctx, `SELECT item_id, branch_id, total, available, updated_on FROM branch_stock WHERE item_id = $1 AND branch_id = $2`, itemID, branchID)
}

func (r *stockRepository) GetForUpdate(ctx context.Context, itemID, branchID int32) (*domain.BranchStock, error) {
	logger.DatabaseCall("LockBranchStock", "item_id", itemID, "branch_id", branchID)
	return r.get(ctx, `SELECT item_id, branch_id, total, available, updated_on FROM branch_stock WHERE item_id = $1 AND branch_id = $2 FOR UPDATE`, itemID, branchID)
}

func (r *stockRepository) get(ctx context.Context, query string, itemID, branchID int32) (*domain.BranchStock, error) {
	s := &domain.BranchStock{}
	err := r.db.QueryRowContext(ctx, query, itemID, branchID).Scan(&s.ItemID, &s.BranchID, &s.Total, &s.Available, &s.UpdatedOn)
	if err != nil {
		return nil, mapError(err, "branch stock")
	}
	return s, nil
}

func (r *stockRepository) ListByItem(ctx context.Context, itemID int32) ([]domain.BranchStock, error) {
	query := `SELECT item_id, branch_id, total, available, updated_on FROM branch_stock WHERE item_id = $1 ORDER BY branch_id`
	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, mapError(err, "branch stock")
	}
	defer rows.Close()

	var stock []domain.BranchStock
	for rows.Next() {
		var s domain.BranchStock
		if err := rows.Scan(&s.ItemID, &s.BranchID, &s.Total, &s.Available, &s.UpdatedOn); err != nil {
			return nil, err
		}
		stock = append(stock, s)
	}
	return stock, rows.Err()
}

func (r *stockRepository) ApplyDelta(ctx context.Context, itemID, branchID, totalDelta, availableDelta int32) (*domain.BranchStock, error) {
	query := `UPDATE branch_stock SET total = total + $1, available = available + $2, updated_on = $3
	          WHERE item_id = $4 AND branch_id = $5
	          RETURNING item_id, branch_id, total, available, updated_on`
	logger.DatabaseCall("ApplyStockDelta", "item_id", itemID, "branch_id", branchID, "total_delta", totalDelta, "available_delta", availableDelta)
	s := &domain.BranchStock{}
	err := r.db.QueryRowContext(ctx, query, totalDelta, availableDelta, time.Now(), itemID, branchID).
		Scan(&s.ItemID, &s.BranchID, &s.Total, &s.Available, &s.UpdatedOn)
	if err != nil {
		return nil, mapError(err, "branch stock")
	}
	return s, nil
}

func (r *stockRepository) Delete(ctx context.Context, itemID, branchID int32) error {
	query := `DELETE FROM branch_stock WHERE item_id = $1 AND branch_id = $2`
	res, err := r.db.ExecContext(ctx, query, itemID, branchID)
	return expectOne(res, err, "branch stock")
}

func (r *stockRepository) SumTotalByItem(ctx context.Context, itemID int32) (int32, error) {
	var total int32
	query := `SELECT COALESCE(SUM(total), 0) FROM branch_stock WHERE item_id = $1`
	if err := r.db.QueryRowContext(ctx, query, itemID).Scan(&total); err != nil {
		return 0, mapError(err, "branch stock")
	}
	return total, nil
}
