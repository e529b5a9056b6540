package memory

import (
	"context"
	"sort"
	"time"

	"branchrent-backend/internal/domain"
)

type itemRepository struct{ v *view }

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	return r.v.do(func(d *data) error {
		it.ID = d.next("items")
		if it.CreatedOn.IsZero() {
			it.CreatedOn = time.Now()
		}
		d.items[it.ID] = *it
		return nil
	})
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	var out domain.Item
	err := r.v.do(func(d *data) error {
		it, ok := d.items[id]
		if !ok {
			return domain.NotFoundf("item %d not found", id)
		}
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *itemRepository) Update(ctx context.Context, it *domain.Item) error {
	return r.v.do(func(d *data) error {
		cur, ok := d.items[it.ID]
		if !ok {
			return domain.NotFoundf("item %d not found", it.ID)
		}
		updated := *it
		updated.TotalUnits = cur.TotalUnits
		updated.CreatedOn = cur.CreatedOn
		d.items[it.ID] = updated
		return nil
	})
}

func (r *itemRepository) SetTotalUnits(ctx context.Context, itemID, totalUnits int32) error {
	return r.v.do(func(d *data) error {
		it, ok := d.items[itemID]
		if !ok {
			return domain.NotFoundf("item %d not found", itemID)
		}
		it.TotalUnits = totalUnits
		d.items[itemID] = it
		return nil
	})
}

func (r *itemRepository) List(ctx context.Context, includeArchived bool) ([]domain.Item, error) {
	var out []domain.Item
	err := r.v.do(func(d *data) error {
		for _, it := range d.items {
			if !includeArchived && it.IsArchived() {
				continue
			}
			out = append(out, it)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type branchRepository struct{ v *view }

func (r *branchRepository) Create(ctx context.Context, b *domain.Branch) error {
	return r.v.do(func(d *data) error {
		b.ID = d.next("branches")
		if b.CreatedOn.IsZero() {
			b.CreatedOn = time.Now()
		}
		d.branches[b.ID] = *b
		return nil
	})
}

func (r *branchRepository) GetByID(ctx context.Context, id int32) (*domain.Branch, error) {
	var out domain.Branch
	err := r.v.do(func(d *data) error {
		b, ok := d.branches[id]
		if !ok {
			return domain.NotFoundf("branch %d not found", id)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *branchRepository) Update(ctx context.Context, b *domain.Branch) error {
	return r.v.do(func(d *data) error {
		if _, ok := d.branches[b.ID]; !ok {
			return domain.NotFoundf("branch %d not found", b.ID)
		}
		d.branches[b.ID] = *b
		return nil
	})
}

func (r *branchRepository) ListOperational(ctx context.Context) ([]domain.Branch, error) {
	var out []domain.Branch
	err := r.v.do(func(d *data) error {
		for _, b := range d.branches {
			if b.IsOperational() {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

type customerRepository struct{ v *view }

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	return r.v.do(func(d *data) error {
		for _, existing := range d.customers {
			if existing.Email == c.Email {
				return domain.Validationf("customer already exists (%s)", c.Email)
			}
		}
		c.ID = d.next("customers")
		if c.CreatedOn.IsZero() {
			c.CreatedOn = time.Now()
		}
		d.customers[c.ID] = *c
		return nil
	})
}

func (r *customerRepository) GetByID(ctx context.Context, id int32) (*domain.Customer, error) {
	var out domain.Customer
	err := r.v.do(func(d *data) error {
		c, ok := d.customers[id]
		if !ok {
			return domain.NotFoundf("customer %d not found", id)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	return r.v.do(func(d *data) error {
		if _, ok := d.customers[c.ID]; !ok {
			return domain.NotFoundf("customer %d not found", c.ID)
		}
		d.customers[c.ID] = *c
		return nil
	})
}

type stockRepository struct{ v *view }

func (r *stockRepository) Create(ctx context.Context, s *domain.BranchStock) error {
	return r.v.do(func(d *data) error {
		key := stockKey{s.ItemID, s.BranchID}
		if _, ok := d.stock[key]; ok {
			return domain.Validationf("branch stock already exists for item %d at branch %d", s.ItemID, s.BranchID)
		}
		if _, ok := d.items[s.ItemID]; !ok {
			return domain.Validationf("branch stock references a missing item")
		}
		if _, ok := d.branches[s.BranchID]; !ok {
			return domain.Validationf("branch stock references a missing branch")
		}
		if s.Total < 0 || s.Available < 0 || s.Available > s.Total {
			return domain.Validationf("branch stock violates 0 <= available <= total")
		}
		s.UpdatedOn = time.Now()
		d.stock[key] = *s
		return nil
	})
}

func (r *stockRepository) Get(ctx context.Context, itemID, branchID int32) (*domain.BranchStock, error) {
	var out domain.BranchStock
	err := r.v.do(func(d *data) error {
		s, ok := d.stock[stockKey{itemID, branchID}]
		if !ok {
			return domain.NotFoundf("branch stock not found")
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate needs no row lock: transactions already hold the store lock.
func (r *stockRepository) GetForUpdate(ctx context.Context, itemID, branchID int32) (*domain.BranchStock, error) {
	return r.Get(ctx, itemID, branchID)
}

func (r *stockRepository) ListByItem(ctx context.Context, itemID int32) ([]domain.BranchStock, error) {
	var out []domain.BranchStock
	err := r.v.do(func(d *data) error {
		for k, s := range d.stock {
			if k.itemID == itemID {
				out = append(out, s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].BranchID < out[j].BranchID })
	return out, err
}

func (r *stockRepository) ApplyDelta(ctx context.Context, itemID, branchID, totalDelta, availableDelta int32) (*domain.BranchStock, error) {
	var out domain.BranchStock
	err := r.v.do(func(d *data) error {
		key := stockKey{itemID, branchID}
		s, ok := d.stock[key]
		if !ok {
			return domain.NotFoundf("branch stock not found")
		}
		s.Total += totalDelta
		s.Available += availableDelta
		if s.Total < 0 || s.Available < 0 || s.Available > s.Total {
			return domain.Validationf("branch stock violates 0 <= available <= total")
		}
		s.UpdatedOn = time.Now()
		d.stock[key] = s
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *stockRepository) Delete(ctx context.Context, itemID, branchID int32) error {
	return r.v.do(func(d *data) error {
		key := stockKey{itemID, branchID}
		if _, ok := d.stock[key]; !ok {
			return domain.NotFoundf("branch stock not found")
		}
		delete(d.stock, key)
		return nil
	})
}

func (r *stockRepository) SumTotalByItem(ctx context.Context, itemID int32) (int32, error) {
	var total int32
	err := r.v.do(func(d *data) error {
		for k, s := range d.stock {
			if k.itemID == itemID {
				total += s.Total
			}
		}
		return nil
	})
	return total, err
}

type refundRepository struct{ v *view }

func (r *refundRepository) Create(ctx context.Context, rf *domain.Refund) error {
	return r.v.do(func(d *data) error {
		for _, existing := range d.refunds {
			if existing.ReservationID == rf.ReservationID {
				return domain.Validationf("refund already exists for reservation %d", rf.ReservationID)
			}
		}
		rf.ID = d.next("refunds")
		d.refunds[rf.ID] = *rf
		return nil
	})
}

func (r *refundRepository) GetByReservation(ctx context.Context, reservationID int32) (*domain.Refund, error) {
	var out *domain.Refund
	err := r.v.do(func(d *data) error {
		for _, rf := range d.refunds {
			if rf.ReservationID == reservationID {
				found := rf
				out = &found
				return nil
			}
		}
		return domain.NotFoundf("refund for reservation %d not found", reservationID)
	})
	return out, err
}

type couponRepository struct{ v *view }

func (r *couponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	return r.v.do(func(d *data) error {
		for _, existing := range d.coupons {
			if existing.Code == c.Code {
				return domain.Validationf("coupon already exists (%s)", c.Code)
			}
		}
		c.ID = d.next("coupons")
		c.Used = false
		if c.CreatedOn.IsZero() {
			c.CreatedOn = time.Now()
		}
		d.coupons[c.ID] = *c
		return nil
	})
}

func (r *couponRepository) GetByID(ctx context.Context, id int32) (*domain.Coupon, error) {
	var out domain.Coupon
	err := r.v.do(func(d *data) error {
		c, ok := d.coupons[id]
		if !ok {
			return domain.NotFoundf("coupon %d not found", id)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var out *domain.Coupon
	err := r.v.do(func(d *data) error {
		for _, c := range d.coupons {
			if c.Code == code {
				found := c
				out = &found
				return nil
			}
		}
		return domain.NotFoundf("coupon %s not found", code)
	})
	return out, err
}

func (r *couponRepository) MarkUsed(ctx context.Context, couponID, reservationID int32) error {
	return r.v.do(func(d *data) error {
		c, ok := d.coupons[couponID]
		if !ok || c.Used {
			return domain.ErrCouponAlreadyUsed
		}
		c.Used = true
		c.ReservationID = &reservationID
		d.coupons[couponID] = c
		return nil
	})
}

type statsRepository struct{ v *view }

func (r *statsRepository) ReservationStats(ctx context.Context, from, to time.Time) ([]domain.StateStat, error) {
	byState := map[domain.ReservationState]*domain.StateStat{}
	err := r.v.do(func(d *data) error {
		for _, res := range d.reservations {
			if res.CreatedOn.Before(from) || !res.CreatedOn.Before(to) {
				continue
			}
			st, ok := byState[res.State]
			if !ok {
				st = &domain.StateStat{State: res.State}
				byState[res.State] = st
			}
			st.Count++
			st.TotalCents += res.TotalCents
			st.PreDiscountCents += res.PreDiscountCents
			st.DiscountCents += res.DiscountCents
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.StateStat, 0, len(byState))
	for _, st := range byState {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out, nil
}

func (r *statsRepository) RefundStats(ctx context.Context, from, to time.Time) (*domain.RefundStats, error) {
	stats := &domain.RefundStats{From: from, To: to}
	err := r.v.do(func(d *data) error {
		for _, rf := range d.refunds {
			if rf.CreatedOn.Before(from) || !rf.CreatedOn.Before(to) {
				continue
			}
			stats.Count++
			stats.AmountCents += rf.AmountCents
		}
		return nil
	})
	return stats, err
}
