package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/storefront/internal/cache"
	"github.com/magabrotheeeer/storefront/internal/config"
	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/validation"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/services/catalog"
	"github.com/magabrotheeeer/storefront/internal/storage"
	"github.com/magabrotheeeer/storefront/internal/storage/memory"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(t *testing.T) (*catalog.Service, *memory.Storage) {
	t.Helper()
	store := memory.New()
	return catalog.NewService(store, cache.Noop{}, time.Minute, validation.New(), newNoopLogger()), store
}

func ptr[T any](v T) *T { return &v }

func laptop() models.ProductInput {
	return models.ProductInput{
		Name:     "Laptop",
		Price:    decimal.RequireFromString("999.99"),
		Category: "electronics",
		Stock:    5,
	}
}

func TestService_Create(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, laptop())
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.True(t, p.IsActive)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	dup := laptop()
	dup.Name = "  LAPTOP "
	_, err = svc.Create(ctx, dup)
	assert.ErrorIs(t, err, apperr.ErrProductExists)

	inactive := laptop()
	inactive.Name = "Old Laptop"
	inactive.IsActive = ptr(false)
	p, err = svc.Create(ctx, inactive)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
}

// staleLookupStore не видит товары по названию, как если бы параллельный
// запрос создал товар между проверкой и вставкой.
type staleLookupStore struct {
	*memory.Storage
}

func (staleLookupStore) GetProductByName(context.Context, string) (models.Product, error) {
	return models.Product{}, storage.ErrNotFound
}

func TestService_DuplicateNameRejectedByStore(t *testing.T) {
	ctx := context.Background()
	store := staleLookupStore{memory.New()}
	svc := catalog.NewService(store, cache.Noop{}, time.Minute, validation.New(), newNoopLogger())

	p, err := svc.Create(ctx, laptop())
	require.NoError(t, err)

	dup := laptop()
	dup.Name = "LAPTOP"
	_, err = svc.Create(ctx, dup)
	assert.ErrorIs(t, err, apperr.ErrProductExists)

	other := laptop()
	other.Name = "Phone"
	phone, err := svc.Create(ctx, other)
	require.NoError(t, err)

	_, err = svc.Update(ctx, phone.ID, models.ProductPatch{Name: ptr("laptop")})
	assert.ErrorIs(t, err, apperr.ErrProductExists)

	list, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, p.Name, list[0].Name)
}

func TestService_Create_Validation(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name      string
		mutate    func(*models.ProductInput)
		wantField string
	}{
		{"zero price", func(in *models.ProductInput) { in.Price = decimal.Zero }, "price"},
		{"negative price", func(in *models.ProductInput) { in.Price = decimal.NewFromInt(-1) }, "price"},
		{"short name", func(in *models.ProductInput) { in.Name = "L" }, "name"},
		{"unknown category", func(in *models.ProductInput) { in.Category = "weapons" }, "category"},
		{"negative stock", func(in *models.ProductInput) { in.Stock = -1 }, "stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := laptop()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			e, ok := apperr.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Contains(t, e.Fields, tt.wantField)
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, laptop())
	require.NoError(t, err)
	other := laptop()
	other.Name = "Phone"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, models.ProductPatch{Stock: ptr(7), Name: ptr("laptop")})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, "laptop", updated.Name, "renaming to own name in other case is allowed")
	assert.True(t, p.Price.Equal(updated.Price), "unset fields keep their values")

	_, err = svc.Update(ctx, p.ID, models.ProductPatch{Name: ptr("PHONE")})
	assert.ErrorIs(t, err, apperr.ErrProductExists)

	_, err = svc.Update(ctx, p.ID, models.ProductPatch{Price: ptr(decimal.Zero)})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, e.Fields, "price")

	_, err = svc.Update(ctx, 999, models.ProductPatch{Stock: ptr(1)})
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestService_DeleteAndGet(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, laptop())
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID, true)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), apperr.ErrProductNotFound)
}

func TestService_Get_InactiveHidden(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := laptop()
	in.IsActive = ptr(false)
	p, err := svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID, false)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
	_, err = svc.Get(ctx, p.ID, true)
	assert.NoError(t, err)
}

func TestService_List(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	inputs := []models.ProductInput{
		{Name: "Laptop", Description: "Fast machine", Price: decimal.NewFromInt(1000), Category: "electronics", Stock: 3, Featured: true},
		{Name: "Novel", Description: "A good read", Price: decimal.NewFromInt(15), Category: "books", Stock: 10},
		{Name: "Headphones", Description: "Noise cancelling", Price: decimal.NewFromInt(200), Category: "electronics", Stock: 0},
		{Name: "Hidden", Price: decimal.NewFromInt(1), Category: "toys", IsActive: ptr(false)},
	}
	for _, in := range inputs {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		q         models.ProductQuery
		admin     bool
		wantNames []string
		wantTotal int
	}{
		{
			name:      "active only sorted by price asc",
			q:         models.ProductQuery{SortBy: "price", SortOrder: "asc"},
			wantNames: []string{"Novel", "Headphones", "Laptop"},
			wantTotal: 3,
		},
		{
			name:      "admin sees inactive",
			q:         models.ProductQuery{SortBy: "name", SortOrder: "asc"},
			admin:     true,
			wantNames: []string{"Headphones", "Hidden", "Laptop", "Novel"},
			wantTotal: 4,
		},
		{
			name:      "category filter",
			q:         models.ProductQuery{Category: "electronics", SortBy: "stock", SortOrder: "desc"},
			wantNames: []string{"Laptop", "Headphones"},
			wantTotal: 2,
		},
		{
			name:      "search in description",
			q:         models.ProductQuery{Search: "NOISE"},
			wantNames: []string{"Headphones"},
			wantTotal: 1,
		},
		{
			name:      "featured",
			q:         models.ProductQuery{Featured: ptr(true)},
			wantNames: []string{"Laptop"},
			wantTotal: 1,
		},
		{
			name:      "pagination keeps total",
			q:         models.ProductQuery{SortBy: "name", SortOrder: "asc", Limit: 1, Offset: 1},
			wantNames: []string{"Laptop"},
			wantTotal: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(ctx, tt.q, tt.admin)
			require.NoError(t, err)
			names := make([]string, 0, len(page.Items))
			for _, p := range page.Items {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

// CacheMock мок кеша.
type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestService_CacheInvalidation(t *testing.T) {
	store := memory.New()
	cm := new(CacheMock)
	svc := catalog.NewService(store, cm, time.Minute, validation.New(), newNoopLogger())
	ctx := context.Background()

	p, err := svc.Create(ctx, laptop())
	require.NoError(t, err)

	cm.On("Invalidate", mock.Anything, "product:1").Return(nil).Twice()
	_, err = svc.Update(ctx, p.ID, models.ProductPatch{Stock: ptr(1)})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, p.ID))
	cm.AssertExpectations(t)
}

func TestService_ReadThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	db, err := cache.NewClient(context.Background(), config.Redis{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := memory.New()
	svc := catalog.NewService(store, cache.New(db), time.Minute, validation.New(), newNoopLogger())
	ctx := context.Background()

	p, err := svc.Create(ctx, laptop())
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID, false)
	require.NoError(t, err)
	assert.True(t, mr.Exists("product:1"))

	// Прямое изменение хранилища не видно, пока запись в кеше.
	raw, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	raw.Stock = 0
	require.NoError(t, store.UpdateProduct(ctx, raw))
	cached, err := svc.Get(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 5, cached.Stock)

	svc.InvalidateProduct(ctx, p.ID)
	fresh, err := svc.Get(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Stock)
}
