package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/repository"

	"github.com/lib/pq"
)

const reservationColumns = `id, reference, customer_id, item_id, branch_id, start_date, end_date, quantity,
	pre_discount_cents, discount_cents, total_cents, surcharge_percent, coupon_id, channel, state,
	checkout_ref, pickup_code, created_by_employee_id, processed_by_employee_id,
	created_on, confirmed_on, delivered_on, returned_on, cancelled_on, finalized_on, updated_on`

type reservationRepository struct {
	db dbtx
}

func NewReservationRepository(db dbtx) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func scanReservation(row interface{ Scan(...any) error }, r *domain.Reservation) error {
	return row.Scan(&r.ID, &r.Reference, &r.CustomerID, &r.ItemID, &r.BranchID, &r.StartDate, &r.EndDate, &r.Quantity,
		&r.PreDiscountCents, &r.DiscountCents, &r.TotalCents, &r.SurchargePercent, &r.CouponID, &r.Channel, &r.State,
		&r.CheckoutRef, &r.PickupCode, &r.CreatedByEmployeeID, &r.ProcessedByEmployeeID,
		&r.CreatedOn, &r.ConfirmedOn, &r.DeliveredOn, &r.ReturnedOn, &r.CancelledOn, &r.FinalizedOn, &r.UpdatedOn)
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	query := `INSERT INTO reservations (reference, customer_id, item_id, branch_id, start_date, end_date, quantity,
	          pre_discount_cents, discount_cents, total_cents, surcharge_percent, coupon_id, channel, state,
	          created_by_employee_id, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17) RETURNING id`
	if res.CreatedOn.IsZero() {
		res.CreatedOn = time.Now()
	}
	res.UpdatedOn = res.CreatedOn
	logger.DatabaseCall("CreateReservation", "customer_id", res.CustomerID, "item_id", res.ItemID, "branch_id", res.BranchID)
	err := r.db.QueryRowContext(ctx, query, res.Reference, res.CustomerID, res.ItemID, res.BranchID, res.StartDate, res.EndDate, res.Quantity,
		res.PreDiscountCents, res.DiscountCents, res.TotalCents, res.SurchargePercent, res.CouponID, res.Channel, res.State,
		res.CreatedByEmployeeID, res.CreatedOn, res.UpdatedOn).Scan(&res.ID)
	return mapError(err, "reservation")
}

func (r *reservationRepository) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

func (r *reservationRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
}

func (r *reservationRepository) GetByReference(ctx context.Context, reference string) (*domain.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE reference = $1`, reference)
}

func (r *reservationRepository) GetByPickupCode(ctx context.Context, code string) (*domain.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE pickup_code = $1`, code)
}

func (r *reservationRepository) getOne(ctx context.Context, query string, arg any) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	if err := scanReservation(r.db.QueryRowContext(ctx, query, arg), res); err != nil {
		return nil, mapError(err, "reservation")
	}
	return res, nil
}

func (r *reservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	query := `UPDATE reservations SET pre_discount_cents=$1, discount_cents=$2, total_cents=$3, surcharge_percent=$4,
	          coupon_id=$5, state=$6, checkout_ref=$7, pickup_code=$8, processed_by_employee_id=$9,
	          confirmed_on=$10, delivered_on=$11, returned_on=$12, cancelled_on=$13, finalized_on=$14, updated_on=$15
	          WHERE id=$16`
	res.UpdatedOn = time.Now()
	result, err := r.db.ExecContext(ctx, query, res.PreDiscountCents, res.DiscountCents, res.TotalCents, res.SurchargePercent,
		res.CouponID, res.State, res.CheckoutRef, res.PickupCode, res.ProcessedByEmployeeID,
		res.ConfirmedOn, res.DeliveredOn, res.ReturnedOn, res.CancelledOn, res.FinalizedOn, res.UpdatedOn, res.ID)
	return expectOne(result, err, "reservation")
}

func (r *reservationRepository) Delete(ctx context.Context, id int32) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	return expectOne(result, err, "reservation")
}

func (r *reservationRepository) HasLive(ctx context.Context, customerID int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reservations WHERE customer_id = $1 AND state = ANY($2))`
	err := r.db.QueryRowContext(ctx, query, customerID, pq.Array(stateStrings(domain.LiveStates))).Scan(&exists)
	if err != nil {
		return false, mapError(err, "reservation")
	}
	return exists, nil
}

func (r *reservationRepository) CountLiveByStock(ctx context.Context, itemID, branchID int32) (int32, error) {
	var n int32
	query := `SELECT count(*) FROM reservations WHERE item_id = $1 AND branch_id = $2 AND state = ANY($3)`
	err := r.db.QueryRowContext(ctx, query, itemID, branchID, pq.Array(stateStrings(domain.LiveStates))).Scan(&n)
	if err != nil {
		return 0, mapError(err, "reservation")
	}
	return n, nil
}

func (r *reservationRepository) ListOverlapping(ctx context.Context, itemID, branchID int32, window domain.DateRange, states []domain.ReservationState) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE item_id = $1 AND branch_id = $2 AND start_date < $3 AND end_date > $4 AND state = ANY($5)
	          ORDER BY start_date`
	rows, err := r.db.QueryContext(ctx, query, itemID, branchID, window.End, window.Start, pq.Array(stateStrings(states)))
	if err != nil {
		return nil, mapError(err, "reservation")
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *reservationRepository) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if len(f.States) > 0 {
		add("state = ANY($%d)", pq.Array(stateStrings(f.States)))
	}
	if f.CustomerID != nil {
		add("customer_id = $%d", *f.CustomerID)
	}
	if f.BranchID != nil {
		add("branch_id = $%d", *f.BranchID)
	}
	if f.ItemID != nil {
		add("item_id = $%d", *f.ItemID)
	}
	if f.CreatedFrom != nil {
		add("created_on >= $%d", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("created_on < $%d", *f.CreatedTo)
	}
	if f.RentalTo != nil {
		add("start_date < $%d", *f.RentalTo)
	}
	if f.RentalFrom != nil {
		add("end_date > $%d", *f.RentalFrom)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM reservations"+where, args...).Scan(&count); err != nil {
		return nil, 0, mapError(err, "reservation")
	}

	query := "SELECT " + reservationColumns + " FROM reservations" + where + " ORDER BY created_on DESC, id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, f.PageSize, (page-1)*f.PageSize)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "reservation")
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	return out, count, rows.Err()
}

func (r *reservationRepository) ListIDsCreatedBefore(ctx context.Context, state domain.ReservationState, cutoff time.Time) ([]int32, error) {
	return r.listIDs(ctx, `SELECT id FROM reservations WHERE state = $1 AND created_on < $2 ORDER BY id`, state, cutoff)
}

func (r *reservationRepository) ListIDsEndedBefore(ctx context.Context, state domain.ReservationState, day time.Time) ([]int32, error) {
	return r.listIDs(ctx, `SELECT id FROM reservations WHERE state = $1 AND end_date < $2 ORDER BY id`, state, day)
}

func (r *reservationRepository) listIDs(ctx context.Context, query string, args ...any) ([]int32, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "reservation")
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
