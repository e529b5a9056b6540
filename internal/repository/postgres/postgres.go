package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const liveReservationIndex = "uq_reservations_live_customer"

// dbtx is satisfied by both *sql.DB and *sql.Tx so every repository can run
// inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repos binds one repository of each kind to a connection or transaction.
type repos struct {
	items        repository.ItemRepository
	branches     repository.BranchRepository
	customers    repository.CustomerRepository
	stock        repository.StockRepository
	reservations repository.ReservationRepository
	refunds      repository.RefundRepository
	coupons      repository.CouponRepository
}

func newRepos(q dbtx) *repos {
	return &repos{
		items:        NewItemRepository(q),
		branches:     NewBranchRepository(q),
		customers:    NewCustomerRepository(q),
		stock:        NewStockRepository(q),
		reservations: NewReservationRepository(q),
		refunds:      NewRefundRepository(q),
		coupons:      NewCouponRepository(q),
	}
}

func (r *repos) Items() repository.ItemRepository               { return r.items }
func (r *repos) Branches() repository.BranchRepository          { return r.branches }
func (r *repos) Customers() repository.CustomerRepository       { return r.customers }
func (r *repos) Stock() repository.StockRepository              { return r.stock }
func (r *repos) Reservations() repository.ReservationRepository { return r.reservations }
func (r *repos) Refunds() repository.RefundRepository           { return r.refunds }
func (r *repos) Coupons() repository.CouponRepository           { return r.coupons }

type Store struct {
	db *sql.DB
	*repos
	stats repository.StatsRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		repos: newRepos(db),
		stats: NewStatsRepository(sqlx.NewDb(db, "postgres")),
	}
}

func (s *Store) Stats() repository.StatsRepository { return s.stats }

// WithTx runs fn at READ COMMITTED. Serialisation of competing confirms comes
// from the FOR UPDATE lock on the branch_stock row, not from the isolation level.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(newRepos(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError(err, "transaction")
	}
	return nil
}

// Ping is used by the gRPC health service.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.Info("Applying database schema")
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// mapError translates driver errors into the domain taxonomy.
func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundf("%s not found", entity)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == liveReservationIndex {
				return domain.ErrLiveReservationExists
			}
			return domain.Validationf("%s already exists (%s)", entity, pqErr.Constraint)
		case "23503":
			return domain.Validationf("%s references a missing record (%s)", entity, pqErr.Constraint)
		case "23514":
			return domain.Validationf("%s violates %s", entity, pqErr.Constraint)
		}
	}
	return err
}

func stateStrings(states []domain.ReservationState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

// expectOne maps a zero-row UPDATE/DELETE to ErrNotFound.
func expectOne(res sql.Result, err error, entity string) error {
	if err != nil {
		return mapError(err, entity)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundf("%s not found", entity)
	}
	return nil
}
