package order

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/validation"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage/memory"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]Event{}
	}
	p.events[key] = append(p.events[key], message.(Event))
	return p.err
}

type countingMetrics struct {
	created     int
	transitions map[string]int
}

func (m *countingMetrics) OrderCreated() { m.created++ }

func (m *countingMetrics) StatusChanged(from, to string) {
	if m.transitions == nil {
		m.transitions = map[string]int{}
	}
	m.transitions[from+"->"+to]++
}

type recordingInvalidator struct{ ids []int64 }

func (r *recordingInvalidator) InvalidateProduct(_ context.Context, id int64) {
	r.ids = append(r.ids, id)
}

type fixture struct {
	svc       *Service
	store     *memory.Storage
	pub       *recordingPublisher
	metrics   *countingMetrics
	invalid   *recordingInvalidator
	now       time.Time
	laptop    models.Product
	book      models.Product
	retired   models.Product
	customer  models.Identity
	otherUser models.Identity
	admin     models.Identity
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithRepo(t, nil)
}

func newFixtureWithRepo(t *testing.T, wrap func(*memory.Storage) Repository) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store:     memory.New(),
		pub:       &recordingPublisher{},
		metrics:   &countingMetrics{},
		invalid:   &recordingInvalidator{},
		now:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		customer:  models.Identity{ID: 1, Username: "alice", Email: "alice@x.com", Role: models.RoleUser},
		otherUser: models.Identity{ID: 2, Username: "bob", Email: "bob@x.com", Role: models.RoleCustomer},
		admin:     models.Identity{ID: 3, Username: "admin", Email: "admin@x.com", Role: models.RoleAdmin},
	}

	create := func(name, price string, stock int, active bool) models.Product {
		p, err := f.store.CreateProduct(ctx, models.Product{
			Name: name, Price: decimal.RequireFromString(price), Category: "electronics",
			Stock: stock, IsActive: active, CreatedAt: f.now, UpdatedAt: f.now,
		})
		require.NoError(t, err)
		return p
	}
	f.laptop = create("Laptop", "999.99", 5, true)
	f.book = create("Book", "15.00", 10, true)
	f.retired = create("Retired", "5.00", 10, false)

	var repo Repository = f.store
	if wrap != nil {
		repo = wrap(f.store)
	}
	f.svc = NewService(repo, DefaultConfig(), validation.New(), f.pub, f.metrics, f.invalid, newNoopLogger())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func address() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   "Alice A",
		Address:    "1 Main Street",
		City:       "Springfield",
		PostalCode: "12345",
		Phone:      "5551234567",
	}
}

func input(items ...models.CartItem) models.OrderInput {
	return models.OrderInput{Items: items, ShippingAddress: address(), PaymentMethod: "card"}
}

func TestCreate_Totals(t *testing.T) {
	tests := []struct {
		name         string
		items        func(f *fixture) []models.CartItem
		wantSubtotal string
		wantShipping string
		wantTotal    string
	}{
		{
			name:         "free shipping above threshold",
			items:        func(f *fixture) []models.CartItem { return []models.CartItem{{ProductID: f.laptop.ID, Quantity: 2}} },
			wantSubtotal: "1999.98",
			wantShipping: "0",
			wantTotal:    "1999.98",
		},
		{
			name:         "flat fee below threshold",
			items:        func(f *fixture) []models.CartItem { return []models.CartItem{{ProductID: f.book.ID, Quantity: 2}} },
			wantSubtotal: "30",
			wantShipping: "10",
			wantTotal:    "40",
		},
		{
			name:         "merged lines above threshold ship free",
			items:        func(f *fixture) []models.CartItem { return []models.CartItem{{ProductID: f.book.ID, Quantity: 6}, {ProductID: f.book.ID, Quantity: 1}} },
			wantSubtotal: "105",
			wantShipping: "0",
			wantTotal:    "105",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			o, err := f.svc.Create(context.Background(), f.customer, input(tt.items(f)...))
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.wantSubtotal).Equal(o.Subtotal), "subtotal %s", o.Subtotal)
			assert.True(t, decimal.RequireFromString(tt.wantShipping).Equal(o.ShippingCost), "shipping %s", o.ShippingCost)
			assert.True(t, decimal.RequireFromString(tt.wantTotal).Equal(o.TotalAmount), "total %s", o.TotalAmount)
			assert.True(t, o.TotalAmount.Equal(o.Subtotal.Add(o.ShippingCost)))
		})
	}
}

func TestCreate_ShippingThresholdBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.store.CreateProduct(ctx, models.Product{
		Name: "Hundred", Price: decimal.RequireFromString("100.00"), Category: "home", Stock: 1, IsActive: true,
	})
	require.NoError(t, err)

	o, err := f.svc.Create(ctx, f.customer, input(models.CartItem{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10").Equal(o.ShippingCost))
	assert.True(t, decimal.RequireFromString("110").Equal(o.TotalAmount))
}

func TestCreate_ReservesStockAndRecordsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.customer, input(
		models.CartItem{ProductID: f.laptop.ID, Quantity: 2},
		models.CartItem{ProductID: f.book.ID, Quantity: 1},
		models.CartItem{ProductID: f.laptop.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, 2, f.stock(t, f.laptop.ID))
	assert.Equal(t, 9, f.stock(t, f.book.ID))

	require.Len(t, o.Items, 2, "repeated product lines are merged")
	assert.Equal(t, f.laptop.ID, o.Items[0].ProductID)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, "Laptop", o.Items[0].ProductName)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, models.PaymentPending, o.PaymentStatus)
	assert.Equal(t, f.customer.ID, o.UserID)
	assert.Nil(t, o.TrackingNumber)
	assert.Nil(t, o.EstimatedDelivery)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+-[0-9A-F]{6}$`), o.OrderNumber)

	assert.Equal(t, 1, f.metrics.created)
	require.Len(t, f.pub.events[EventCreated], 1)
	assert.Equal(t, o.ID, f.pub.events[EventCreated][0].OrderID)
	assert.ElementsMatch(t, []int64{f.laptop.ID, f.book.ID}, f.invalid.ids)
}

func TestCreate_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		items   []models.CartItem
		wantErr error
	}{
		{
			name:    "insufficient stock on second line",
			items:   []models.CartItem{{ProductID: f.book.ID, Quantity: 2}, {ProductID: f.laptop.ID, Quantity: 6}},
			wantErr: apperr.ErrInsufficientStock,
		},
		{
			name:    "merged quantity exceeds stock",
			items:   []models.CartItem{{ProductID: f.laptop.ID, Quantity: 3}, {ProductID: f.laptop.ID, Quantity: 3}},
			wantErr: apperr.ErrInsufficientStock,
		},
		{
			name:    "missing product",
			items:   []models.CartItem{{ProductID: f.book.ID, Quantity: 1}, {ProductID: 999, Quantity: 1}},
			wantErr: apperr.ErrProductNotFound,
		},
		{
			name:    "inactive product",
			items:   []models.CartItem{{ProductID: f.book.ID, Quantity: 1}, {ProductID: f.retired.ID, Quantity: 1}},
			wantErr: apperr.ErrProductInactive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.customer, input(tt.items...))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 5, f.stock(t, f.laptop.ID))
			assert.Equal(t, 10, f.stock(t, f.book.ID))
		})
	}

	orders, err := f.store.ListOrders(ctx, models.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, f.metrics.created)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		mutate    func(*models.OrderInput)
		wantField string
	}{
		{"no items", func(in *models.OrderInput) { in.Items = nil }, "items"},
		{"too many items", func(in *models.OrderInput) { in.Items = make([]models.CartItem, 51) }, "items"},
		{"quantity above limit", func(in *models.OrderInput) { in.Items[0].Quantity = 101 }, "items[0].quantity"},
		{"zero quantity", func(in *models.OrderInput) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"unknown payment method", func(in *models.OrderInput) { in.PaymentMethod = "bitcoin" }, "paymentMethod"},
		{"short city", func(in *models.OrderInput) { in.ShippingAddress.City = "X" }, "shippingAddress.city"},
		{"short phone", func(in *models.OrderInput) { in.ShippingAddress.Phone = "123" }, "shippingAddress.phone"},
		{"long postal code", func(in *models.OrderInput) { in.ShippingAddress.PostalCode = "123456789012345678901" }, "shippingAddress.postalCode"},
		{"blank address", func(in *models.OrderInput) { in.ShippingAddress.Address = "          " }, "shippingAddress.address"},
		{"blank full name", func(in *models.OrderInput) { in.ShippingAddress.FullName = " \t " }, "shippingAddress.fullName"},
		{"padded short city", func(in *models.OrderInput) { in.ShippingAddress.City = "  X  " }, "shippingAddress.city"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(models.CartItem{ProductID: f.book.ID, Quantity: 1})
			tt.mutate(&in)
			_, err := f.svc.Create(context.Background(), f.customer, in)
			e, ok := apperr.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Contains(t, e.Fields, tt.wantField)
		})
	}
	assert.Equal(t, 10, f.stock(t, f.book.ID))
}

func TestCreate_TrimsShippingAddress(t *testing.T) {
	f := newFixture(t)

	in := input(models.CartItem{ProductID: f.book.ID, Quantity: 1})
	in.ShippingAddress.City = "  Springfield "
	in.ShippingAddress.Phone = " 5551234567\n"
	o, err := f.svc.Create(context.Background(), f.customer, in)
	require.NoError(t, err)
	assert.Equal(t, "Springfield", o.ShippingAddress.City)
	assert.Equal(t, "5551234567", o.ShippingAddress.Phone)
}

type failingOrders struct {
	*memory.Storage
}

func (failingOrders) CreateOrder(context.Context, models.Order) (models.Order, error) {
	return models.Order{}, errors.New("disk full")
}

func TestCreate_RollsBackStockWhenOrderNotSaved(t *testing.T) {
	f := newFixtureWithRepo(t, func(s *memory.Storage) Repository { return failingOrders{s} })

	_, err := f.svc.Create(context.Background(), f.customer, input(models.CartItem{ProductID: f.laptop.ID, Quantity: 2}))
	require.Error(t, err)
	assert.Equal(t, 5, f.stock(t, f.laptop.ID))
	assert.Empty(t, f.pub.events[EventCreated])
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	_, err := f.svc.Create(context.Background(), f.customer, input(models.CartItem{ProductID: f.book.ID, Quantity: 1}))
	assert.NoError(t, err)
}

func TestCanTransition(t *testing.T) {
	all := []models.OrderStatus{
		models.OrderPending, models.OrderConfirmed, models.OrderProcessing,
		models.OrderShipped, models.OrderDelivered, models.OrderCancelled,
	}
	allowed := map[[2]models.OrderStatus]bool{
		{models.OrderPending, models.OrderConfirmed}:    true,
		{models.OrderPending, models.OrderCancelled}:    true,
		{models.OrderConfirmed, models.OrderProcessing}: true,
		{models.OrderConfirmed, models.OrderCancelled}:  true,
		{models.OrderProcessing, models.OrderShipped}:   true,
		{models.OrderProcessing, models.OrderCancelled}: true,
		{models.OrderShipped, models.OrderDelivered}:    true,
		{models.OrderShipped, models.OrderCancelled}:    true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]models.OrderStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func status(s models.OrderStatus) *models.OrderStatus { return &s }

func strPtr(s string) *string { return &s }

func TestUpdate_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.customer, input(models.CartItem{ProductID: f.laptop.ID, Quantity: 1}))
	require.NoError(t, err)

	for _, next := range []models.OrderStatus{models.OrderConfirmed, models.OrderProcessing} {
		f.now = f.now.Add(time.Hour)
		updated, changes, err := f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(next)})
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
		require.Len(t, changes, 1)
		assert.Equal(t, "status", changes[0].Field)
		assert.Equal(t, f.now, updated.UpdatedAt)
	}

	f.now = f.now.Add(time.Hour)
	shipped, changes, err := f.svc.Update(ctx, o.ID, models.OrderUpdate{
		Status:         status(models.OrderShipped),
		TrackingNumber: strPtr("TRK-42"),
	})
	require.NoError(t, err)
	require.NotNil(t, shipped.EstimatedDelivery)
	assert.Equal(t, f.now.Add(5*24*time.Hour), *shipped.EstimatedDelivery)
	require.NotNil(t, shipped.TrackingNumber)
	assert.Equal(t, "TRK-42", *shipped.TrackingNumber)
	fields := make([]string, 0, len(changes))
	for _, c := range changes {
		fields = append(fields, c.Field)
	}
	assert.ElementsMatch(t, []string{"status", "estimatedDelivery", "trackingNumber"}, fields)

	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(models.OrderPending)})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	delivered, _, err := f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(models.OrderDelivered)})
	require.NoError(t, err)
	assert.Equal(t, *shipped.EstimatedDelivery, *delivered.EstimatedDelivery)

	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(models.OrderCancelled)})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "delivered is terminal")

	assert.Equal(t, 4, len(f.pub.events[EventUpdated]))
	assert.Equal(t, 1, f.metrics.transitions["shipped->delivered"])
	assert.Equal(t, 4, f.stock(t, f.laptop.ID), "stock is not restored unless cancelled")
}

func TestUpdate_CancelRestoresStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.customer, input(
		models.CartItem{ProductID: f.laptop.ID, Quantity: 2},
		models.CartItem{ProductID: f.book.ID, Quantity: 3},
	))
	require.NoError(t, err)
	require.Equal(t, 3, f.stock(t, f.laptop.ID))
	require.Equal(t, 7, f.stock(t, f.book.ID))

	_, changes, err := f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(models.OrderCancelled)})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 5, f.stock(t, f.laptop.ID))
	assert.Equal(t, 10, f.stock(t, f.book.ID))

	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(models.OrderCancelled)})
	assert.ErrorIs(t, err, apperr.ErrNoChanges)
	assert.Equal(t, 5, f.stock(t, f.laptop.ID))
	assert.Equal(t, 10, f.stock(t, f.book.ID))

	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(models.OrderConfirmed)})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "cancelled is terminal")
}

func TestUpdate_CancelSkipsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.customer, input(
		models.CartItem{ProductID: f.laptop.ID, Quantity: 1},
		models.CartItem{ProductID: f.book.ID, Quantity: 1},
	))
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteProduct(ctx, f.laptop.ID))

	cancelled, _, err := f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(models.OrderCancelled)})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, 10, f.stock(t, f.book.ID))
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.customer, input(models.CartItem{ProductID: f.book.ID, Quantity: 1}))
	require.NoError(t, err)

	_, _, err = f.svc.Update(ctx, 999, models.OrderUpdate{Status: status(models.OrderConfirmed)})
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)

	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{})
	assert.ErrorIs(t, err, apperr.ErrNoChanges)

	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(models.OrderPending)})
	assert.ErrorIs(t, err, apperr.ErrNoChanges, "same status is a no-op")

	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status(models.OrderShipped)})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{Status: status("lost")})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, e.Fields, "status")

	bad := models.PaymentStatus("stolen")
	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{PaymentStatus: &bad})
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, e.Fields, "paymentStatus")

	paid := models.PaymentPaid
	updated, changes, err := f.svc.Update(ctx, o.ID, models.OrderUpdate{PaymentStatus: &paid, AdminNotes: strPtr("checked")})
	require.NoError(t, err)
	assert.Len(t, changes, 2)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, "checked", updated.AdminNotes)

	_, _, err = f.svc.Update(ctx, o.ID, models.OrderUpdate{PaymentStatus: &paid, AdminNotes: strPtr("checked")})
	assert.ErrorIs(t, err, apperr.ErrNoChanges)
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.customer, input(models.CartItem{ProductID: f.book.ID, Quantity: 1}))
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)

	_, err = f.svc.Get(ctx, f.admin, o.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, f.otherUser, o.ID)
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)

	_, err = f.svc.Get(ctx, f.customer, 999)
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []int64
	for i, who := range []models.Identity{f.customer, f.customer, f.otherUser, f.customer} {
		f.now = f.now.Add(time.Minute)
		o, err := f.svc.Create(ctx, who, input(models.CartItem{ProductID: f.book.ID, Quantity: i + 1}))
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	_, _, err := f.svc.Update(ctx, ids[0], models.OrderUpdate{Status: status(models.OrderConfirmed)})
	require.NoError(t, err)

	tests := []struct {
		name      string
		caller    models.Identity
		q         models.OrderQuery
		wantIDs   []int64
		wantTotal int
		wantLimit int
	}{
		{
			name:      "own orders newest first",
			caller:    f.customer,
			q:         models.OrderQuery{},
			wantIDs:   []int64{ids[3], ids[1], ids[0]},
			wantTotal: 3,
			wantLimit: 10,
		},
		{
			name:      "admin view ignored for non admin",
			caller:    f.otherUser,
			q:         models.OrderQuery{AdminView: true},
			wantIDs:   []int64{ids[2]},
			wantTotal: 1,
			wantLimit: 10,
		},
		{
			name:      "admin without admin view sees own orders",
			caller:    f.admin,
			q:         models.OrderQuery{},
			wantIDs:   []int64{},
			wantTotal: 0,
			wantLimit: 10,
		},
		{
			name:      "admin view sees all by total asc",
			caller:    f.admin,
			q:         models.OrderQuery{AdminView: true, SortBy: "totalAmount", SortOrder: "asc"},
			wantIDs:   []int64{ids[0], ids[1], ids[2], ids[3]},
			wantTotal: 4,
			wantLimit: 10,
		},
		{
			name:      "status filter",
			caller:    f.customer,
			q:         models.OrderQuery{Status: "confirmed"},
			wantIDs:   []int64{ids[0]},
			wantTotal: 1,
			wantLimit: 10,
		},
		{
			name:      "limit clamped and offset applied",
			caller:    f.admin,
			q:         models.OrderQuery{AdminView: true, Limit: 1000, Offset: 3, SortOrder: "asc"},
			wantIDs:   []int64{ids[3]},
			wantTotal: 4,
			wantLimit: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.List(ctx, tt.caller, tt.q)
			require.NoError(t, err)
			got := make([]int64, 0, len(page.Items))
			for _, it := range page.Items {
				got = append(got, it.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantLimit, page.Limit)
		})
	}

	_, err = f.svc.List(ctx, f.customer, models.OrderQuery{Status: "lost"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
}
