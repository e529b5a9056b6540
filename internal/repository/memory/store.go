// Package memory is a process-local Store used by the "memory" database driver
// and by service tests. Transactions are serialised behind one mutex and
// applied copy-on-commit, so a failing callback leaves no trace.
package memory

import (
	"context"
	"sync"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"
)

type stockKey struct {
	itemID   int32
	branchID int32
}

type data struct {
	items        map[int32]domain.Item
	branches     map[int32]domain.Branch
	customers    map[int32]domain.Customer
	stock        map[stockKey]domain.BranchStock
	reservations map[int32]domain.Reservation
	refunds      map[int32]domain.Refund
	coupons      map[int32]domain.Coupon
	seq          map[string]int32
}

func newData() *data {
	return &data{
		items:        map[int32]domain.Item{},
		branches:     map[int32]domain.Branch{},
		customers:    map[int32]domain.Customer{},
		stock:        map[stockKey]domain.BranchStock{},
		reservations: map[int32]domain.Reservation{},
		refunds:      map[int32]domain.Refund{},
		coupons:      map[int32]domain.Coupon{},
		seq:          map[string]int32{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *data) clone() *data {
	return &data{
		items:        cloneMap(d.items),
		branches:     cloneMap(d.branches),
		customers:    cloneMap(d.customers),
		stock:        cloneMap(d.stock),
		reservations: cloneMap(d.reservations),
		refunds:      cloneMap(d.refunds),
		coupons:      cloneMap(d.coupons),
		seq:          cloneMap(d.seq),
	}
}

func (d *data) next(table string) int32 {
	d.seq[table]++
	return d.seq[table]
}

type Store struct {
	mu sync.Mutex
	d  *data
	*view
}

func NewStore() *Store {
	s := &Store{d: newData()}
	s.view = &view{store: s}
	return s
}

// WithTx holds the store lock for the whole callback. fn must only use tx;
// calling back into s from inside fn deadlocks.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.d.clone()
	if err := fn(&view{store: s, tx: work}); err != nil {
		return err
	}
	s.d = work
	return nil
}

func (s *Store) Stats() repository.StatsRepository { return &statsRepository{v: s.view} }

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// view routes repository calls either to the committed data (taking the lock
// per call) or to a transaction's working copy.
type view struct {
	store *Store
	tx    *data
}

func (v *view) do(fn func(d *data) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.d)
}

func (v *view) Items() repository.ItemRepository         { return &itemRepository{v: v} }
func (v *view) Branches() repository.BranchRepository    { return &branchRepository{v: v} }
func (v *view) Customers() repository.CustomerRepository { return &customerRepository{v: v} }
func (v *view) Stock() repository.StockRepository        { return &stockRepository{v: v} }
func (v *view) Reservations() repository.ReservationRepository {
	return &reservationRepository{v: v}
}
func (v *view) Refunds() repository.RefundRepository { return &refundRepository{v: v} }
func (v *view) Coupons() repository.CouponRepository { return &couponRepository{v: v} }
