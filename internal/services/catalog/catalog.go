// Package catalog содержит бизнес-логику каталога товаров и кеширование карточек.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/paging"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

const defaultLimit = 20

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Service реализует операции над каталогом.
type Service struct {
	products storage.ProductStore
	cache    Cache
	cacheTTL time.Duration
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// NewService создаёт новый экземпляр Service.
func NewService(products storage.ProductStore, cache Cache, cacheTTL time.Duration,
	validate *validator.Validate, log *slog.Logger) *Service {
	return &Service{
		products: products,
		cache:    cache,
		cacheTTL: cacheTTL,
		validate: validate,
		log:      log,
		now:      time.Now,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// Create добавляет товар. Новый товар активен, если не указано иное.
func (s *Service) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	const op = "services.catalog.Create"

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateInput(in, in.Price, true); err != nil {
		return models.Product{}, err
	}
	if err := s.ensureUniqueName(ctx, in.Name, 0); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	product := models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    in.Category,
		Stock:       in.Stock,
		Image:       in.Image,
		IsActive:    in.IsActive == nil || *in.IsActive,
		Featured:    in.Featured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	product, err := s.products.CreateProduct(ctx, product)
	if errors.Is(err, storage.ErrDuplicate) {
		return models.Product{}, apperr.ErrProductExists
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("product created", slog.Int64("product_id", product.ID), slog.String("name", product.Name))
	return product, nil
}

// Update частично изменяет товар.
func (s *Service) Update(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	const op = "services.catalog.Update"

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	price := decimal.NewFromInt(1)
	if patch.Price != nil {
		price = *patch.Price
	}
	if err := s.validateInput(patch, price, patch.Price != nil); err != nil {
		return models.Product{}, err
	}

	product, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Product{}, apperr.ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Name != nil && !strings.EqualFold(*patch.Name, product.Name) {
		if err := s.ensureUniqueName(ctx, *patch.Name, id); err != nil {
			return models.Product{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	applyPatch(&product, patch)
	product.UpdatedAt = s.now().UTC()

	err = s.products.UpdateProduct(ctx, product)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.Product{}, apperr.ErrProductNotFound
	case errors.Is(err, storage.ErrDuplicate):
		return models.Product{}, apperr.ErrProductExists
	case err != nil:
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.InvalidateProduct(ctx, id)
	return product, nil
}

func applyPatch(p *models.Product, patch models.ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = patch.Price.Round(2)
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.Featured != nil {
		p.Featured = *patch.Featured
	}
}

// Delete удаляет товар безвозвратно.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "services.catalog.Delete"

	err := s.products.DeleteProduct(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.InvalidateProduct(ctx, id)
	s.log.Info("product deleted", slog.Int64("product_id", id))
	return nil
}

// Get возвращает товар по ID. Неактивные товары видны только администратору.
func (s *Service) Get(ctx context.Context, id int64, includeInactive bool) (models.Product, error) {
	const op = "services.catalog.Get"

	var product models.Product
	found, err := s.cache.Get(ctx, cacheKey(id), &product)
	if err != nil {
		s.log.Warn("failed to read product from cache", slog.Int64("product_id", id), sl.Err(err))
		found = false
	}
	if !found {
		product, err = s.products.GetProduct(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return models.Product{}, apperr.ErrProductNotFound
		}
		if err != nil {
			return models.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.cache.Set(ctx, cacheKey(id), product, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache product", slog.Int64("product_id", id), sl.Err(err))
		}
	}

	if !product.IsActive && !includeInactive {
		return models.Product{}, apperr.ErrProductNotFound
	}
	return product, nil
}

// List возвращает страницу товаров с фильтрами и сортировкой.
func (s *Service) List(ctx context.Context, q models.ProductQuery, includeInactive bool) (models.Page[models.Product], error) {
	const op = "services.catalog.List"

	all, err := s.products.ListProducts(ctx)
	if err != nil {
		return models.Page[models.Product]{}, fmt.Errorf("%s: %w", op, err)
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	filtered := make([]models.Product, 0, len(all))
	for _, p := range all {
		if !p.IsActive && !includeInactive {
			continue
		}
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if q.Featured != nil && p.Featured != *q.Featured {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		filtered = append(filtered, p)
	}

	sortProducts(filtered, q.SortBy, q.SortOrder)

	limit, offset := paging.Normalize(q.Limit, q.Offset, defaultLimit)
	return models.Page[models.Product]{
		Items:  paging.Slice(filtered, limit, offset),
		Total:  len(filtered),
		Limit:  limit,
		Offset: offset,
	}, nil
}

// sortProducts сортирует по допустимому полю; неизвестное поле означает createdAt,
// неизвестный порядок означает desc.
func sortProducts(items []models.Product, by, order string) {
	var less func(a, b models.Product) bool
	switch by {
	case "name":
		less = func(a, b models.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "price":
		less = func(a, b models.Product) bool { return a.Price.LessThan(b.Price) }
	case "stock":
		less = func(a, b models.Product) bool { return a.Stock < b.Stock }
	default:
		less = func(a, b models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	asc := strings.EqualFold(order, "asc")
	sort.SliceStable(items, func(i, j int) bool {
		if asc {
			return less(items[i], items[j])
		}
		return less(items[j], items[i])
	})
}

// InvalidateProduct удаляет карточку товара из кеша. Ошибки только логируются.
func (s *Service) InvalidateProduct(ctx context.Context, id int64) {
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("failed to remove product from cache", slog.Int64("product_id", id), sl.Err(err))
	}
}

func (s *Service) validateInput(in any, price decimal.Decimal, checkPrice bool) error {
	fields := map[string]string{}
	if err := s.validate.Struct(in); err != nil {
		verr := apperr.FromValidator(err)
		e, ok := apperr.As(verr)
		if !ok {
			return verr
		}
		fields = e.Fields
	}
	if checkPrice && !price.IsPositive() {
		fields["price"] = "must be greater than 0"
	}
	if len(fields) > 0 {
		return apperr.Validation("validation failed", fields)
	}
	return nil
}

func (s *Service) ensureUniqueName(ctx context.Context, name string, selfID int64) error {
	existing, err := s.products.GetProductByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return apperr.ErrProductExists
	}
	return nil
}
