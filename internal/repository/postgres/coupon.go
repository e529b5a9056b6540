package postgres

import (
	"context"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"
)

const couponColumns = `id, customer_id, code, kind, value, expires_on, used, reservation_id, created_on`

type couponRepository struct {
	db dbtx
}

func NewCouponRepository(db dbtx) repository.CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	query := `INSERT INTO coupons (customer_id, code, kind, value, expires_on, used, created_on) VALUES ($1, $2, $3, $4, $5, FALSE, $6) RETURNING id`
	if c.CreatedOn.IsZero() {
		c.CreatedOn = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query, c.CustomerID, c.Code, c.Kind, c.Value, c.ExpiresOn, c.CreatedOn).Scan(&c.ID)
	return mapError(err, "coupon")
}

func (r *couponRepository) GetByID(ctx context.Context, id int32) (*domain.Coupon, error) {
	return r.getOne(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	return r.getOne(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code)
}

func (r *couponRepository) getOne(ctx context.Context, query string, arg any) (*domain.Coupon, error) {
	c := &domain.Coupon{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&c.ID, &c.CustomerID, &c.Code, &c.Kind, &c.Value, &c.ExpiresOn, &c.Used, &c.ReservationID, &c.CreatedOn)
	if err != nil {
		return nil, mapError(err, "coupon")
	}
	return c, nil
}

// MarkUsed is a conditional update: of two transactions racing for the same
// coupon, the second blocks on the row lock and then matches zero rows.
func (r *couponRepository) MarkUsed(ctx context.Context, couponID, reservationID int32) error {
	query := `UPDATE coupons SET used = TRUE, reservation_id = $1 WHERE id = $2 AND used = FALSE`
	res, err := r.db.ExecContext(ctx, query, reservationID, couponID)
	if err != nil {
		return mapError(err, "coupon")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCouponAlreadyUsed
	}
	return nil
}
