package postgres

import (
	"context"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"
)

const itemColumns = `id, name, description, daily_price_cents, min_days, max_days, full_refund_days, partial_refund_days, zero_refund_days, partial_refund_percent, total_units, created_on, archived_on`

type itemRepository struct {
	db dbtx
}

func NewItemRepository(db dbtx) repository.ItemRepository {
	return &itemRepository{db: db}
}

func scanItem(row interface{ Scan(...any) error }, it *domain.Item) error {
	return row.Scan(&it.ID, &it.Name, &it.Description, &it.DailyPriceCents, &it.MinDays, &it.MaxDays,
		&it.FullRefundDays, &it.PartialRefundDays, &it.ZeroRefundDays, &it.PartialRefundPercent,
		&it.TotalUnits, &it.CreatedOn, &it.ArchivedOn)
}

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	query := `INSERT INTO items (name, description, daily_price_cents, min_days, max_days, full_refund_days, partial_refund_days, zero_refund_days, partial_refund_percent, total_units, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if it.CreatedOn.IsZero() {
		it.CreatedOn = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query, it.Name, it.Description, it.DailyPriceCents, it.MinDays, it.MaxDays,
		it.FullRefundDays, it.PartialRefundDays, it.ZeroRefundDays, it.PartialRefundPercent, it.TotalUnits, it.CreatedOn).Scan(&it.ID)
	return mapError(err, "item")
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	it := &domain.Item{}
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	if err := scanItem(r.db.QueryRowContext(ctx, query, id), it); err != nil {
		return nil, mapError(err, "item")
	}
	return it, nil
}

func (r *itemRepository) Update(ctx context.Context, it *domain.Item) error {
	query := `UPDATE items SET name=$1, description=$2, daily_price_cents=$3, min_days=$4, max_days=$5, full_refund_days=$6, partial_refund_days=$7, zero_refund_days=$8, partial_refund_percent=$9, archived_on=$10 WHERE id=$11`
	res, err := r.db.ExecContext(ctx, query, it.Name, it.Description, it.DailyPriceCents, it.MinDays, it.MaxDays,
		it.FullRefundDays, it.PartialRefundDays, it.ZeroRefundDays, it.PartialRefundPercent, it.ArchivedOn, it.ID)
	return expectOne(res, err, "item")
}

func (r *itemRepository) SetTotalUnits(ctx context.Context, itemID, totalUnits int32) error {
	query := `UPDATE items SET total_units = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, totalUnits, itemID)
	return expectOne(res, err, "item")
}

func (r *itemRepository) List(ctx context.Context, includeArchived bool) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	if !includeArchived {
		query += ` WHERE archived_on IS NULL`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err, "item")
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := scanItem(rows, &it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
