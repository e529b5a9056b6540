package service

import (
	"context"
	"errors"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"
)

type availabilityService struct {
	store repository.Store
}

func NewAvailabilityService(store repository.Store) AvailabilityService {
	return &availabilityService{store: store}
}

func (s *availabilityService) Free(ctx context.Context, itemID, branchID int32, window domain.DateRange, excludeID int32) (int32, error) {
	return freeUnits(ctx, s.store, itemID, branchID, window, excludeID)
}

func (s *availabilityService) Search(ctx context.Context, itemID int32, branchID *int32, window domain.DateRange, quantity int32) ([]domain.BranchAvailability, error) {
	if quantity <= 0 {
		return nil, domain.Validationf("quantity must be positive")
	}

	var branches []domain.Branch
	if branchID != nil {
		b, err := s.store.Branches().GetByID(ctx, *branchID)
		if err != nil {
			return nil, err
		}
		if b.IsOperational() {
			branches = append(branches, *b)
		}
	} else {
		all, err := s.store.Branches().ListOperational(ctx)
		if err != nil {
			return nil, err
		}
		branches = all
	}

	out := []domain.BranchAvailability{}
	for _, b := range branches {
		free, err := freeUnits(ctx, s.store, itemID, b.ID, window, 0)
		if errors.Is(err, domain.ErrNotFound) {
			// Item not stocked here.
			continue
		}
		if err != nil {
			return nil, err
		}
		if free >= quantity {
			out = append(out, domain.BranchAvailability{Branch: b, Free: free})
		}
	}
	return out, nil
}

// freeUnits answers for one (item, branch). The confirm transaction calls
// freeAgainst directly with the stock row it has locked.
func freeUnits(ctx context.Context, tx repository.Tx, itemID, branchID int32, window domain.DateRange, excludeID int32) (int32, error) {
	stock, err := tx.Stock().Get(ctx, itemID, branchID)
	if err != nil {
		return 0, err
	}
	return freeAgainst(ctx, tx, stock, window, excludeID)
}

func freeAgainst(ctx context.Context, tx repository.Tx, stock *domain.BranchStock, window domain.DateRange, excludeID int32) (int32, error) {
	overlapping, err := tx.Reservations().ListOverlapping(ctx, stock.ItemID, stock.BranchID, window, domain.HoldingStates)
	if err != nil {
		return 0, err
	}
	free := stock.Total - domain.HeldQuantity(overlapping, window, excludeID)
	if free < 0 {
		free = 0
	}
	return free, nil
}
