package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository/memory"
	"branchrent-backend/internal/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPaymentProvider
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateCheckout(ctx context.Context, amountCents int64, reference string) (string, error) {
	args := m.Called(ctx, amountCents, reference)
	return args.String(0), args.Error(1)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPickupCode(ctx context.Context, customer *domain.Customer, item *domain.Item, r *domain.Reservation) error {
	args := m.Called(ctx, customer, item, r)
	return args.Error(0)
}
func (m *MockNotifier) SendCancellation(ctx context.Context, customer *domain.Customer, item *domain.Item, r *domain.Reservation, quote domain.RefundQuote) error {
	args := m.Called(ctx, customer, item, r, quote)
	return args.Error(0)
}
func (m *MockNotifier) SendRefundIssued(ctx context.Context, customer *domain.Customer, r *domain.Reservation, refund *domain.Refund) error {
	args := m.Called(ctx, customer, r, refund)
	return args.Error(0)
}
func (m *MockNotifier) SendNotReturnedAlarm(ctx context.Context, branch *domain.Branch, customer *domain.Customer, item *domain.Item, r *domain.Reservation) error {
	args := m.Called(ctx, branch, customer, item, r)
	return args.Error(0)
}

// MockEventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func jan(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

var admin = domain.Principal{UserID: 900, Role: domain.RoleAdmin}

type fixture struct {
	ctx          context.Context
	store        *memory.Store
	clock        *fakeClock
	payments     *MockPaymentProvider
	notifier     *MockNotifier
	events       *MockEventPublisher
	inventory    service.InventoryService
	availability service.AvailabilityService
	reservations service.ReservationService
	customers    service.CustomerService

	item     *domain.Item
	branchID int32
	employee domain.Principal
}

// newFixture stocks 3 units of a scaffold (10.00/day, refunds: full >= 7
// days, 50% >= 1 day, zero tier at 0) at one branch. The clock starts on
// 2024-01-05 09:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		store:    memory.NewStore(),
		clock:    &fakeClock{t: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)},
		payments: new(MockPaymentProvider),
		notifier: new(MockNotifier),
		events:   new(MockEventPublisher),
	}
	f.notifier.On("SendPickupCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("SendCancellation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("SendRefundIssued", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("SendNotReturnedAlarm", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.inventory = service.NewInventoryService(f.store)
	f.availability = service.NewAvailabilityService(f.store)
	f.customers = service.NewCustomerService(f.store)
	f.reservations = service.NewReservationService(f.store, f.payments, f.notifier, f.events,
		service.WithClock(f.clock.Now), service.WithCheckoutTimeout(time.Second))

	f.item = &domain.Item{
		Name: "Scaffold", DailyPriceCents: 1000, MinDays: 1, MaxDays: 14,
		FullRefundDays: 7, PartialRefundDays: 1, ZeroRefundDays: 0, PartialRefundPercent: 50,
	}
	require.NoError(t, f.inventory.CreateItem(f.ctx, admin, f.item))
	f.branchID = f.addBranch(t, "Centro", 3)
	branchID := f.branchID
	f.employee = domain.Principal{UserID: 901, Role: domain.RoleEmployee, BranchID: &branchID}
	return f
}

func (f *fixture) addBranch(t *testing.T, name string, units int32) int32 {
	t.Helper()
	b := &domain.Branch{Name: name, Active: true}
	require.NoError(t, f.inventory.CreateBranch(f.ctx, admin, b))
	_, err := f.inventory.StockItem(f.ctx, admin, f.item.ID, b.ID, units)
	require.NoError(t, err)
	return b.ID
}

func (f *fixture) addCustomer(t *testing.T, name string) (domain.Principal, *domain.Customer) {
	t.Helper()
	c := &domain.Customer{Name: name, Email: name + "@example.com", DocumentNumber: "DOC-" + name}
	require.NoError(t, f.customers.RegisterCustomer(f.ctx, c))
	return domain.Principal{UserID: c.ID, Role: domain.RoleCustomer}, c
}

func (f *fixture) draft(customerID, qty int32, start, end time.Time) domain.Draft {
	return domain.Draft{
		CustomerID: customerID,
		ItemID:     f.item.ID,
		BranchID:   f.branchID,
		Range:      domain.DateRange{Start: start, End: end},
		Quantity:   qty,
		Channel:    domain.PaymentChannelInPerson,
	}
}

func (f *fixture) stock(t *testing.T) *domain.BranchStock {
	t.Helper()
	s, err := f.store.Stock().Get(f.ctx, f.item.ID, f.branchID)
	require.NoError(t, err)
	return s
}

// confirmed creates and confirms a reservation for a fresh customer.
func (f *fixture) confirmed(t *testing.T, name string, qty int32, start, end time.Time) (*domain.Reservation, domain.Principal, *domain.Customer) {
	t.Helper()
	p, c := f.addCustomer(t, name)
	r, err := f.reservations.Create(f.ctx, p, f.draft(c.ID, qty, start, end))
	require.NoError(t, err)
	r, err = f.reservations.Confirm(f.ctx, f.employee, r.ID)
	require.NoError(t, err)
	return r, p, c
}
