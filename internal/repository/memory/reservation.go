package memory

import (
	"context"
	"sort"
	"time"

	"branchrent-backend/internal/domain"
)

type reservationRepository struct{ v *view }

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	return r.v.do(func(d *data) error {
		for _, existing := range d.reservations {
			if existing.Reference == res.Reference {
				return domain.Validationf("reservation already exists (%s)", res.Reference)
			}
			if res.State.IsLive() && existing.CustomerID == res.CustomerID && existing.State.IsLive() {
				return domain.ErrLiveReservationExists
			}
		}
		res.ID = d.next("reservations")
		if res.CreatedOn.IsZero() {
			res.CreatedOn = time.Now()
		}
		res.UpdatedOn = res.CreatedOn
		d.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepository) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	var out domain.Reservation
	err := r.v.do(func(d *data) error {
		res, ok := d.reservations[id]
		if !ok {
			return domain.NotFoundf("reservation %d not found", id)
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *reservationRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Reservation, error) {
	return r.GetByID(ctx, id)
}

func (r *reservationRepository) GetByReference(ctx context.Context, reference string) (*domain.Reservation, error) {
	return r.find(func(res *domain.Reservation) bool { return res.Reference == reference })
}

func (r *reservationRepository) GetByPickupCode(ctx context.Context, code string) (*domain.Reservation, error) {
	return r.find(func(res *domain.Reservation) bool { return res.PickupCode != nil && *res.PickupCode == code })
}

func (r *reservationRepository) find(match func(*domain.Reservation) bool) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.v.do(func(d *data) error {
		for _, res := range d.reservations {
			if match(&res) {
				found := res
				out = &found
				return nil
			}
		}
		return domain.NotFoundf("reservation not found")
	})
	return out, err
}

func (r *reservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	return r.v.do(func(d *data) error {
		cur, ok := d.reservations[res.ID]
		if !ok {
			return domain.NotFoundf("reservation %d not found", res.ID)
		}
		if res.PickupCode != nil {
			for id, other := range d.reservations {
				if id != res.ID && other.PickupCode != nil && *other.PickupCode == *res.PickupCode {
					return domain.Validationf("reservation already exists (pickup code)")
				}
			}
		}
		// Identity and rental terms are immutable once created.
		updated := *res
		updated.Reference = cur.Reference
		updated.CustomerID = cur.CustomerID
		updated.ItemID = cur.ItemID
		updated.BranchID = cur.BranchID
		updated.StartDate = cur.StartDate
		updated.EndDate = cur.EndDate
		updated.Quantity = cur.Quantity
		updated.Channel = cur.Channel
		updated.CreatedByEmployeeID = cur.CreatedByEmployeeID
		updated.CreatedOn = cur.CreatedOn
		updated.UpdatedOn = time.Now()
		res.UpdatedOn = updated.UpdatedOn
		d.reservations[res.ID] = updated
		return nil
	})
}

func (r *reservationRepository) Delete(ctx context.Context, id int32) error {
	return r.v.do(func(d *data) error {
		if _, ok := d.reservations[id]; !ok {
			return domain.NotFoundf("reservation %d not found", id)
		}
		delete(d.reservations, id)
		return nil
	})
}

func (r *reservationRepository) HasLive(ctx context.Context, customerID int32) (bool, error) {
	var live bool
	err := r.v.do(func(d *data) error {
		for _, res := range d.reservations {
			if res.CustomerID == customerID && res.State.IsLive() {
				live = true
				break
			}
		}
		return nil
	})
	return live, err
}

func (r *reservationRepository) CountLiveByStock(ctx context.Context, itemID, branchID int32) (int32, error) {
	var n int32
	err := r.v.do(func(d *data) error {
		for _, res := range d.reservations {
			if res.ItemID == itemID && res.BranchID == branchID && res.State.IsLive() {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *reservationRepository) ListOverlapping(ctx context.Context, itemID, branchID int32, window domain.DateRange, states []domain.ReservationState) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.v.do(func(d *data) error {
		for _, res := range d.reservations {
			if res.ItemID != itemID || res.BranchID != branchID || !hasState(states, res.State) {
				continue
			}
			if res.Range().Overlaps(window) {
				out = append(out, res)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, err
}

func (r *reservationRepository) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	var out []domain.Reservation
	err := r.v.do(func(d *data) error {
		for _, res := range d.reservations {
			if matches(&res, f) {
				out = append(out, res)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedOn.Equal(out[j].CreatedOn) {
			return out[i].CreatedOn.After(out[j].CreatedOn)
		}
		return out[i].ID > out[j].ID
	})

	total := int32(len(out))
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		lo := (page - 1) * f.PageSize
		if lo >= total {
			return nil, total, nil
		}
		hi := lo + f.PageSize
		if hi > total {
			hi = total
		}
		out = out[lo:hi]
	}
	return out, total, nil
}

func (r *reservationRepository) ListIDsCreatedBefore(ctx context.Context, state domain.ReservationState, cutoff time.Time) ([]int32, error) {
	return r.listIDs(func(res *domain.Reservation) bool {
		return res.State == state && res.CreatedOn.Before(cutoff)
	})
}

func (r *reservationRepository) ListIDsEndedBefore(ctx context.Context, state domain.ReservationState, day time.Time) ([]int32, error) {
	return r.listIDs(func(res *domain.Reservation) bool {
		return res.State == state && res.EndDate.Before(day)
	})
}

func (r *reservationRepository) listIDs(match func(*domain.Reservation) bool) ([]int32, error) {
	var ids []int32
	err := r.v.do(func(d *data) error {
		for id, res := range d.reservations {
			if match(&res) {
				ids = append(ids, id)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

func hasState(states []domain.ReservationState, s domain.ReservationState) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

func matches(res *domain.Reservation, f domain.ReservationFilter) bool {
	if len(f.States) > 0 && !hasState(f.States, res.State) {
		return false
	}
	if f.CustomerID != nil && res.CustomerID != *f.CustomerID {
		return false
	}
	if f.BranchID != nil && res.BranchID != *f.BranchID {
		return false
	}
	if f.ItemID != nil && res.ItemID != *f.ItemID {
		return false
	}
	if f.CreatedFrom != nil && res.CreatedOn.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !res.CreatedOn.Before(*f.CreatedTo) {
		return false
	}
	if f.RentalTo != nil && !res.StartDate.Before(*f.RentalTo) {
		return false
	}
	if f.RentalFrom != nil && !res.EndDate.After(*f.RentalFrom) {
		return false
	}
	return true
}
