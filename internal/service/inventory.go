package service

import (
	"context"
	"fmt"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/repository"
)

type inventoryService struct {
	store repository.Store
	now   func() time.Time
}

func NewInventoryService(store repository.Store) InventoryService {
	return &inventoryService{store: store, now: time.Now}
}

func requireAdmin(p domain.Principal) error {
	if p.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}

func requireBranchStaff(p domain.Principal, branchID int32) error {
	if !p.WorksAt(branchID) {
		return fmt.Errorf("%w: %s may not manage branch %d", domain.ErrForbidden, p.Role, branchID)
	}
	return nil
}

func (s *inventoryService) CreateItem(ctx context.Context, p domain.Principal, item *domain.Item) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}
	item.TotalUnits = 0
	item.ArchivedOn = nil
	return s.store.Items().Create(ctx, item)
}

func (s *inventoryService) UpdateItem(ctx context.Context, p domain.Principal, item *domain.Item) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		cur, err := tx.Items().GetByID(ctx, item.ID)
		if err != nil {
			return err
		}
		item.ArchivedOn = cur.ArchivedOn
		return tx.Items().Update(ctx, item)
	})
}

// ArchiveItem tombstones the item. Existing reservations keep referencing it;
// new drafts are refused.
func (s *inventoryService) ArchiveItem(ctx context.Context, p domain.Principal, itemID int32) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		item, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.IsArchived() {
			return nil
		}
		now := s.now()
		item.ArchivedOn = &now
		return tx.Items().Update(ctx, item)
	})
}

func (s *inventoryService) GetItem(ctx context.Context, itemID int32) (*domain.Item, error) {
	return s.store.Items().GetByID(ctx, itemID)
}

func (s *inventoryService) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.store.Items().List(ctx, false)
}

func (s *inventoryService) CreateBranch(ctx context.Context, p domain.Principal, branch *domain.Branch) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if branch.Name == "" {
		return domain.Validationf("branch name is required")
	}
	branch.ArchivedOn = nil
	return s.store.Branches().Create(ctx, branch)
}

func (s *inventoryService) ArchiveBranch(ctx context.Context, p domain.Principal, branchID int32) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		b, err := tx.Branches().GetByID(ctx, branchID)
		if err != nil {
			return err
		}
		if b.ArchivedOn != nil {
			return nil
		}
		now := s.now()
		b.ArchivedOn = &now
		b.Active = false
		return tx.Branches().Update(ctx, b)
	})
}

func (s *inventoryService) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	return s.store.Branches().ListOperational(ctx)
}

// StockItem opens a ledger row with available = total and refreshes the item aggregate.
func (s *inventoryService) StockItem(ctx context.Context, p domain.Principal, itemID, branchID, total int32) (*domain.BranchStock, error) {
	logger.EnterMethod("InventoryService.StockItem", "item_id", itemID, "branch_id", branchID, "total", total)
	if err := requireBranchStaff(p, branchID); err != nil {
		return nil, err
	}
	if total < 0 {
		return nil, domain.Validationf("stock total must not be negative")
	}

	var stock *domain.BranchStock
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		item, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.IsArchived() {
			return domain.Validationf("item %s is archived", item.Name)
		}
		branch, err := tx.Branches().GetByID(ctx, branchID)
		if err != nil {
			return err
		}
		if branch.ArchivedOn != nil {
			return domain.Validationf("branch %s is archived", branch.Name)
		}
		stock = &domain.BranchStock{ItemID: itemID, BranchID: branchID, Total: total, Available: total}
		if err := tx.Stock().Create(ctx, stock); err != nil {
			return err
		}
		return recomputeItemTotal(ctx, tx, itemID)
	})
	if err != nil {
		logger.ExitMethodWithError("InventoryService.StockItem", err)
		return nil, err
	}
	logger.ExitMethod("InventoryService.StockItem")
	return stock, nil
}

// AdjustStock applies delta to total and re-derives available from the
// reservations still holding units, so in-flight holds survive. Shrinking
// below the peak quantity held on any one day is refused.
func (s *inventoryService) AdjustStock(ctx context.Context, p domain.Principal, itemID, branchID, delta int32) (*domain.BranchStock, error) {
	logger.EnterMethod("InventoryService.AdjustStock", "item_id", itemID, "branch_id", branchID, "delta", delta)
	if err := requireBranchStaff(p, branchID); err != nil {
		return nil, err
	}
	if delta == 0 {
		return s.store.Stock().Get(ctx, itemID, branchID)
	}

	var stock *domain.BranchStock
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		if stock, err = rebalance(ctx, tx, itemID, branchID, delta); err != nil {
			return err
		}
		return recomputeItemTotal(ctx, tx, itemID)
	})
	if err != nil {
		logger.ExitMethodWithError("InventoryService.AdjustStock", err)
		return nil, err
	}
	logger.Info("Stock adjusted", "item_id", itemID, "branch_id", branchID, "delta", delta, "total", stock.Total, "available", stock.Available)
	return stock, nil
}

// RemoveStock drops the ledger row. Rows still referenced by live
// reservations are kept.
func (s *inventoryService) RemoveStock(ctx context.Context, p domain.Principal, itemID, branchID int32) error {
	if err := requireBranchStaff(p, branchID); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Stock().GetForUpdate(ctx, itemID, branchID); err != nil {
			return err
		}
		live, err := tx.Reservations().CountLiveByStock(ctx, itemID, branchID)
		if err != nil {
			return err
		}
		if live > 0 {
			return domain.Validationf("%d live reservations still reference this stock", live)
		}
		if err := tx.Stock().Delete(ctx, itemID, branchID); err != nil {
			return err
		}
		return recomputeItemTotal(ctx, tx, itemID)
	})
}

func (s *inventoryService) ListStock(ctx context.Context, itemID int32) ([]domain.BranchStock, error) {
	return s.store.Stock().ListByItem(ctx, itemID)
}

// recomputeItemTotal is the single write path for Item.TotalUnits.
func recomputeItemTotal(ctx context.Context, tx repository.Tx, itemID int32) error {
	total, err := tx.Stock().SumTotalByItem(ctx, itemID)
	if err != nil {
		return err
	}
	return tx.Items().SetTotalUnits(ctx, itemID, total)
}

// rebalance is the only ledger write driven by reservations. It adds
// totalDelta to total and moves available to total minus the peak quantity
// held on any one day, which keeps 0 <= available <= total. Callers run it
// inside their transaction after storing the reservation's new state.
func rebalance(ctx context.Context, tx repository.Tx, itemID, branchID, totalDelta int32) (*domain.BranchStock, error) {
	cur, err := tx.Stock().GetForUpdate(ctx, itemID, branchID)
	if err != nil {
		return nil, err
	}
	holding, err := tx.Reservations().ListOverlapping(ctx, itemID, branchID, domain.OpenHorizon, domain.HoldingStates)
	if err != nil {
		return nil, err
	}
	peak := domain.PeakHeld(holding)

	total := cur.Total + totalDelta
	if total < 0 {
		return nil, domain.Validationf("adjustment of %d would leave a negative total (%d)", totalDelta, cur.Total)
	}
	if total < peak {
		return nil, domain.Validationf("total of %d would drop below the %d units held at once by confirmed reservations", total, peak)
	}
	return tx.Stock().ApplyDelta(ctx, itemID, branchID, totalDelta, total-peak-cur.Available)
}
