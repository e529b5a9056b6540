package service_test

import (
	"context"
	"testing"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository/memory"
	"branchrent-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryService_StockKeepsItemTotal(t *testing.T) {
	f := newFixture(t)
	f.addBranch(t, "Norte", 4)

	item, err := f.inventory.GetItem(f.ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(7), item.TotalUnits)

	_, err = f.inventory.StockItem(f.ctx, admin, f.item.ID, f.branchID, 2)
	assert.ErrorIs(t, err, domain.ErrValidation, "row already exists")

	stock, err := f.inventory.ListStock(f.ctx, f.item.ID)
	require.NoError(t, err)
	assert.Len(t, stock, 2)
}

func TestInventoryService_AdjustStockPreservesHolds(t *testing.T) {
	f := newFixture(t)
	f.confirmed(t, "ana", 2, jan(10), jan(15))

	stock, err := f.inventory.AdjustStock(f.ctx, f.employee, f.item.ID, f.branchID, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(5), stock.Total)
	assert.Equal(t, int32(3), stock.Available)

	// Would leave total 1 under a hold of 2.
	_, err = f.inventory.AdjustStock(f.ctx, f.employee, f.item.ID, f.branchID, -4)
	assert.ErrorIs(t, err, domain.ErrValidation)

	stock, err = f.inventory.AdjustStock(f.ctx, f.employee, f.item.ID, f.branchID, -3)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stock.Total)
	assert.Equal(t, int32(0), stock.Available)

	_, err = f.inventory.AdjustStock(f.ctx, f.employee, f.item.ID, f.branchID, -3)
	assert.ErrorIs(t, err, domain.ErrValidation)

	item, err := f.inventory.GetItem(f.ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), item.TotalUnits)
}

func TestInventoryService_DisjointHoldsShareStock(t *testing.T) {
	f := newFixture(t)
	first, _, _ := f.confirmed(t, "ana", 3, jan(10), jan(12))
	f.confirmed(t, "bruno", 3, jan(20), jan(22))

	stock := f.stock(t)
	assert.Equal(t, int32(3), stock.Total)
	assert.Equal(t, int32(0), stock.Available)

	stock, err := f.inventory.AdjustStock(f.ctx, f.employee, f.item.ID, f.branchID, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(4), stock.Total)
	assert.Equal(t, int32(1), stock.Available)

	// Only three units are ever out at once.
	stock, err = f.inventory.AdjustStock(f.ctx, f.employee, f.item.ID, f.branchID, -1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), stock.Total)
	assert.Equal(t, int32(0), stock.Available)

	_, err = f.inventory.AdjustStock(f.ctx, f.employee, f.item.ID, f.branchID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.reservations.Cancel(f.ctx, f.employee, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), f.stock(t).Available, "the later hold still peaks at 3")
}

func TestInventoryService_ShrinkWithSpareCapacity(t *testing.T) {
	f := newFixture(t)
	f.confirmed(t, "ana", 2, jan(10), jan(12))
	f.confirmed(t, "bruno", 2, jan(12), jan(14))
	assert.Equal(t, int32(1), f.stock(t).Available, "touching ranges do not stack")

	stock, err := f.inventory.AdjustStock(f.ctx, f.employee, f.item.ID, f.branchID, -1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stock.Total)
	assert.Equal(t, int32(0), stock.Available)
}

func TestInventoryService_RemoveStock(t *testing.T) {
	f := newFixture(t)
	r, _, _ := f.confirmed(t, "ana", 1, jan(10), jan(12))

	err := f.inventory.RemoveStock(f.ctx, f.employee, f.item.ID, f.branchID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.reservations.Cancel(f.ctx, f.employee, r.ID)
	require.NoError(t, err)
	_, _, err = f.reservations.Finalize(f.ctx, f.employee, r.ID)
	require.NoError(t, err)

	require.NoError(t, f.inventory.RemoveStock(f.ctx, f.employee, f.item.ID, f.branchID))
	item, err := f.inventory.GetItem(f.ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), item.TotalUnits)
}

func TestInventoryService_Permissions(t *testing.T) {
	f := newFixture(t)
	other := int32(999)
	outsider := domain.Principal{UserID: 5, Role: domain.RoleEmployee, BranchID: &other}

	_, err := f.inventory.AdjustStock(f.ctx, outsider, f.item.ID, f.branchID, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.inventory.CreateItem(f.ctx, f.employee, &domain.Item{Name: "Drill", DailyPriceCents: 100, MinDays: 1, MaxDays: 2})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.inventory.CreateItem(f.ctx, admin, &domain.Item{Name: "Drill", DailyPriceCents: 100, MinDays: 3, MaxDays: 2})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInventoryService_ArchivedItemRefusesDrafts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.inventory.ArchiveItem(f.ctx, admin, f.item.ID))

	items, err := f.inventory.ListItems(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	p, c := f.addCustomer(t, "ana")
	_, err = f.reservations.Create(f.ctx, p, f.draft(c.ID, 1, jan(10), jan(12)))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAvailabilityService(t *testing.T) {
	f := newFixture(t)
	north := f.addBranch(t, "Norte", 1)
	f.confirmed(t, "ana", 2, jan(10), jan(15))

	t.Run("Free counts overlapping holds only", func(t *testing.T) {
		free, err := f.availability.Free(f.ctx, f.item.ID, f.branchID, domain.DateRange{Start: jan(12), End: jan(13)}, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(1), free)

		free, err = f.availability.Free(f.ctx, f.item.ID, f.branchID, domain.DateRange{Start: jan(15), End: jan(17)}, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(3), free, "touching ranges do not overlap")
	})

	t.Run("Search across branches", func(t *testing.T) {
		window := domain.DateRange{Start: jan(11), End: jan(12)}
		res, err := f.availability.Search(f.ctx, f.item.ID, nil, window, 1)
		require.NoError(t, err)
		assert.Len(t, res, 2)

		res, err = f.availability.Search(f.ctx, f.item.ID, nil, window, 2)
		require.NoError(t, err)
		assert.Empty(t, res)

		res, err = f.availability.Search(f.ctx, f.item.ID, &north, window, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, north, res[0].Branch.ID)
	})

	t.Run("Archived branch is skipped", func(t *testing.T) {
		require.NoError(t, f.inventory.ArchiveBranch(f.ctx, admin, north))
		res, err := f.availability.Search(f.ctx, f.item.ID, nil, domain.DateRange{Start: jan(20), End: jan(21)}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, f.branchID, res[0].Branch.ID)
	})

	t.Run("Rejects non-positive quantity", func(t *testing.T) {
		_, err := f.availability.Search(f.ctx, f.item.ID, nil, domain.DateRange{Start: jan(20), End: jan(21)}, 0)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestCustomerService(t *testing.T) {
	f := newFixture(t)

	err := f.customers.RegisterCustomer(f.ctx, &domain.Customer{Name: "x", Email: "not-an-email", DocumentNumber: "1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, c := f.addCustomer(t, "ana")
	_, err = f.customers.GetCustomer(f.ctx, domain.Principal{UserID: c.ID + 1, Role: domain.RoleCustomer}, c.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	bad := 7.0
	assert.ErrorIs(t, f.customers.UpdateRating(f.ctx, f.employee, c.ID, &bad), domain.ErrValidation)
	assert.ErrorIs(t, f.customers.UpdateRating(f.ctx, p, c.ID, nil), domain.ErrForbidden)

	assert.ErrorIs(t, f.customers.IssueCoupon(f.ctx, f.employee, &domain.Coupon{CustomerID: c.ID, Code: "X"}), domain.ErrForbidden)
	assert.ErrorIs(t, f.customers.IssueCoupon(f.ctx, admin, &domain.Coupon{CustomerID: c.ID, Code: "X", Kind: domain.CouponKindPercentage, Value: 150}), domain.ErrValidation)

	_, err = f.reservations.Create(f.ctx, p, f.draft(c.ID, 1, jan(10), jan(12)))
	require.NoError(t, err)
	assert.ErrorIs(t, f.customers.ArchiveCustomer(f.ctx, admin, c.ID), domain.ErrValidation)
}

func TestStatsService(t *testing.T) {
	store := memory.NewStore()
	svc := service.NewStatsService(store.Stats())
	now := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	_, err := svc.ReservationStats(context.Background(), domain.Principal{Role: domain.RoleEmployee}, now, now.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ReservationStats(context.Background(), admin, now, now)
	assert.ErrorIs(t, err, domain.ErrValidation)

	stats, err := svc.ReservationStats(context.Background(), admin, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, stats.ByState)

	f := newFixture(t)
	r, _, _ := f.confirmed(t, "ana", 1, jan(20), jan(22))
	_, err = f.reservations.Cancel(f.ctx, f.employee, r.ID)
	require.NoError(t, err)
	_, _, err = f.reservations.Finalize(f.ctx, f.employee, r.ID)
	require.NoError(t, err)

	refunds, err := service.NewStatsService(f.store.Stats()).RefundStats(f.ctx, admin, jan(1), jan(31))
	require.NoError(t, err)
	assert.Equal(t, int64(1), refunds.Count)
	assert.Equal(t, int64(2000), refunds.AmountCents)
}
