// Package order реализует оформление заказов, резервирование товара на складе
// и административное изменение заказов.
//
// Создание и изменение заказов сериализуются мьютексом сервиса: проверка
// остатков, списание и запись заказа выполняются как одна операция в
// пределах процесса. При ошибке записи заказа списанный товар возвращается.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/paging"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

const defaultLimit = 10

// Ключи маршрутизации событий.
const (
	EventCreated = "order.created"
	EventUpdated = "order.updated"
)

// Repository - хранилище товаров и заказов, с которым работает сервис.
type Repository interface {
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	UpdateProducts(ctx context.Context, products []models.Product) error
	CreateOrder(ctx context.Context, order models.Order) (models.Order, error)
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	UpdateOrder(ctx context.Context, order models.Order) error
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
}

// Publisher публикует события заказов.
type Publisher interface {
	Publish(ctx context.Context, key string, message any) error
}

// Metrics учитывает события заказов.
type Metrics interface {
	OrderCreated()
	StatusChanged(from, to string)
}

// ProductInvalidator сбрасывает кешированные карточки товаров после
// изменения остатков.
type ProductInvalidator interface {
	InvalidateProduct(ctx context.Context, id int64)
}

// Config - параметры расчёта заказа.
type Config struct {
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal // доставка бесплатна, если subtotal строго больше
	DeliveryLeadTime      time.Duration
}

// DefaultConfig возвращает параметры по умолчанию.
func DefaultConfig() Config {
	return Config{
		ShippingFee:           decimal.RequireFromString("10.00"),
		FreeShippingThreshold: decimal.RequireFromString("100.00"),
		DeliveryLeadTime:      5 * 24 * time.Hour,
	}
}

// Event - сообщение о создании или изменении заказа.
type Event struct {
	OrderID     int64              `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	UserID      int64              `json:"userId"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Changes     []models.Change    `json:"changes,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// Service реализует операции над заказами.
type Service struct {
	mu sync.Mutex

	repo      Repository
	cfg       Config
	validate  *validator.Validate
	publisher Publisher
	metrics   Metrics
	products  ProductInvalidator
	log       *slog.Logger
	now       func() time.Time
}

// NewService создаёт новый экземпляр Service.
func NewService(repo Repository, cfg Config, validate *validator.Validate, publisher Publisher,
	metrics Metrics, products ProductInvalidator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cfg:       cfg,
		validate:  validate,
		publisher: publisher,
		metrics:   metrics,
		products:  products,
		log:       log,
		now:       time.Now,
	}
}

// Create оформляет заказ: проверяет все позиции, считает суммы, списывает
// остатки и сохраняет заказ в статусе pending.
func (s *Service) Create(ctx context.Context, caller models.Identity, in models.OrderInput) (models.Order, error) {
	const op = "services.order.Create"

	in.ShippingAddress = in.ShippingAddress.Trimmed()
	in.Notes = strings.TrimSpace(in.Notes)
	if err := s.validate.Struct(in); err != nil {
		return models.Order{}, apperr.FromValidator(err)
	}
	lines := mergeLines(in.Items)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.OrderItem, 0, len(lines))
	reserved := make([]models.Product, 0, len(lines))
	originals := make([]models.Product, 0, len(lines))
	subtotal := decimal.Zero

	for _, line := range lines {
		product, err := s.repo.GetProduct(ctx, line.ProductID)
		if errors.Is(err, storage.ErrNotFound) {
			return models.Order{}, apperr.ErrProductNotFound.With("product %d not found", line.ProductID)
		}
		if err != nil {
			return models.Order{}, fmt.Errorf("%s: %w", op, err)
		}
		if !product.IsActive {
			return models.Order{}, apperr.ErrProductInactive.With("product %q is not available", product.Name)
		}
		if line.Quantity > product.Stock {
			return models.Order{}, apperr.ErrInsufficientStock.With(
				"insufficient stock for %q: requested %d, available %d",
				product.Name, line.Quantity, product.Stock)
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		lineTotal := product.Price.Mul(qty)
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    line.Quantity,
			Subtotal:    lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)

		originals = append(originals, product)
		product.Stock -= line.Quantity
		reserved = append(reserved, product)
	}

	shipping := s.shippingCost(subtotal)
	now := s.now().UTC()
	for i := range reserved {
		reserved[i].UpdatedAt = now
	}

	if err := s.repo.UpdateProducts(ctx, reserved); err != nil {
		return models.Order{}, fmt.Errorf("%s: reserve stock: %w", op, err)
	}

	order, err := s.repo.CreateOrder(ctx, models.Order{
		UserID:          caller.ID,
		OrderNumber:     newOrderNumber(now),
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		Subtotal:        subtotal,
		ShippingCost:    shipping,
		TotalAmount:     subtotal.Add(shipping),
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		s.rollbackStock(ctx, originals)
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, reserved)

	s.log.Info("order created",
		slog.Int64("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.Int64("user_id", caller.ID),
		slog.String("total", order.TotalAmount.StringFixed(2)),
	)
	s.metrics.OrderCreated()
	s.publish(ctx, EventCreated, order, nil)
	return order, nil
}

// Update применяет административные изменения к заказу и возвращает
// журнал фактически изменённых полей.
func (s *Service) Update(ctx context.Context, id int64, upd models.OrderUpdate) (models.Order, []models.Change, error) {
	const op = "services.order.Update"

	if err := s.validateUpdate(upd); err != nil {
		return models.Order{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Order{}, nil, apperr.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	prevStatus := order.Status
	var changes []models.Change

	if upd.Status != nil && *upd.Status != order.Status {
		if !CanTransition(order.Status, *upd.Status) {
			return models.Order{}, nil, apperr.ErrInvalidTransition.With(
				"cannot change order status from %s to %s", order.Status, *upd.Status)
		}
		changes = append(changes, models.Change{Field: "status", OldValue: order.Status, NewValue: *upd.Status})
		order.Status = *upd.Status

		if order.Status == models.OrderShipped && order.EstimatedDelivery == nil {
			eta := now.Add(s.cfg.DeliveryLeadTime)
			changes = append(changes, models.Change{Field: "estimatedDelivery", OldValue: nil, NewValue: eta})
			order.EstimatedDelivery = &eta
		}
	}
	if upd.PaymentStatus != nil && *upd.PaymentStatus != order.PaymentStatus {
		changes = append(changes, models.Change{Field: "paymentStatus", OldValue: order.PaymentStatus, NewValue: *upd.PaymentStatus})
		order.PaymentStatus = *upd.PaymentStatus
	}
	if upd.TrackingNumber != nil {
		var old string
		if order.TrackingNumber != nil {
			old = *order.TrackingNumber
		}
		if *upd.TrackingNumber != old {
			changes = append(changes, models.Change{Field: "trackingNumber", OldValue: order.TrackingNumber, NewValue: *upd.TrackingNumber})
			tracking := *upd.TrackingNumber
			order.TrackingNumber = &tracking
		}
	}
	if upd.AdminNotes != nil && *upd.AdminNotes != order.AdminNotes {
		changes = append(changes, models.Change{Field: "adminNotes", OldValue: order.AdminNotes, NewValue: *upd.AdminNotes})
		order.AdminNotes = *upd.AdminNotes
	}

	if len(changes) == 0 {
		return models.Order{}, nil, apperr.ErrNoChanges
	}
	order.UpdatedAt = now

	var originals, restored []models.Product
	if order.Status == models.OrderCancelled && prevStatus != models.OrderCancelled {
		originals, restored, err = s.restoreStock(ctx, order.Items, now)
		if err != nil {
			return models.Order{}, nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.repo.UpdateOrder(ctx, order); err != nil {
		if len(originals) > 0 {
			s.rollbackStock(ctx, originals)
		}
		return models.Order{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, restored)

	if order.Status != prevStatus {
		s.metrics.StatusChanged(string(prevStatus), string(order.Status))
	}
	s.log.Info("order updated",
		slog.Int64("order_id", order.ID),
		slog.String("status", string(order.Status)),
		slog.Int("changes", len(changes)),
	)
	s.publish(ctx, EventUpdated, order, changes)
	return order, changes, nil
}

// restoreStock возвращает на склад товары отменённого заказа. Удалённые
// товары пропускаются.
func (s *Service) restoreStock(ctx context.Context, items []models.OrderItem, now time.Time) (originals, restored []models.Product, err error) {
	byID := make(map[int64]int, len(items))
	for _, it := range items {
		product, err := s.repo.GetProduct(ctx, it.ProductID)
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("product of cancelled order no longer exists", slog.Int64("product_id", it.ProductID))
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if idx, ok := byID[product.ID]; ok {
			restored[idx].Stock += it.Quantity
			continue
		}
		originals = append(originals, product)
		product.Stock += it.Quantity
		product.UpdatedAt = now
		byID[product.ID] = len(restored)
		restored = append(restored, product)
	}
	if len(restored) == 0 {
		return nil, nil, nil
	}
	if err := s.repo.UpdateProducts(ctx, restored); err != nil {
		return nil, nil, fmt.Errorf("restore stock: %w", err)
	}
	return originals, restored, nil
}

// rollbackStock возвращает товары в исходное состояние после неудачной записи заказа.
func (s *Service) rollbackStock(ctx context.Context, originals []models.Product) {
	if err := s.repo.UpdateProducts(context.WithoutCancel(ctx), originals); err != nil {
		ids := make([]int64, 0, len(originals))
		for _, p := range originals {
			ids = append(ids, p.ID)
		}
		s.log.Error("failed to roll back stock", slog.Any("product_ids", ids), sl.Err(err))
	}
}

func (s *Service) invalidate(ctx context.Context, products []models.Product) {
	for _, p := range products {
		s.products.InvalidateProduct(ctx, p.ID)
	}
}

func (s *Service) publish(ctx context.Context, key string, order models.Order, changes []models.Change) {
	event := Event{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Changes:     changes,
		OccurredAt:  order.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.log.Warn("failed to publish order event",
			slog.String("event", key), slog.Int64("order_id", order.ID), sl.Err(err))
	}
}

func (s *Service) validateUpdate(upd models.OrderUpdate) error {
	fields := map[string]string{}
	if err := s.validate.Struct(upd); err != nil {
		verr := apperr.FromValidator(err)
		e, ok := apperr.As(verr)
		if !ok {
			return verr
		}
		fields = e.Fields
	}
	if upd.Status != nil && !knownStatus(*upd.Status) {
		fields["status"] = "must be one of: pending confirmed processing shipped delivered cancelled"
	}
	if upd.PaymentStatus != nil && !knownPaymentStatus(*upd.PaymentStatus) {
		fields["paymentStatus"] = "must be one of: pending paid failed refunded"
	}
	if len(fields) > 0 {
		return apperr.Validation("validation failed", fields)
	}
	return nil
}

// shippingCost - фиксированная стоимость доставки, если subtotal не
// превышает порог бесплатной доставки.
func (s *Service) shippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(s.cfg.FreeShippingThreshold) {
		return decimal.Zero
	}
	return s.cfg.ShippingFee
}

// mergeLines складывает количества повторяющихся товаров, сохраняя порядок
// первого появления.
func mergeLines(items []models.CartItem) []models.CartItem {
	idx := make(map[int64]int, len(items))
	merged := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged
}

// newOrderNumber формирует номер вида ORD-<unix-ms>-<6 hex>.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

// Get возвращает заказ владельцу или администратору. Для остальных заказ
// считается несуществующим.
func (s *Service) Get(ctx context.Context, caller models.Identity, id int64) (models.Order, error) {
	const op = "services.order.Get"

	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Order{}, apperr.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	if order.UserID != caller.ID && !caller.IsAdmin() {
		return models.Order{}, apperr.ErrOrderNotFound
	}
	return order, nil
}

// List возвращает страницу заказов. Пользователь видит только свои заказы;
// администратор с AdminView видит все.
func (s *Service) List(ctx context.Context, caller models.Identity, q models.OrderQuery) (models.Page[models.OrderSummary], error) {
	const op = "services.order.List"

	var filter models.OrderFilter
	if !(caller.IsAdmin() && q.AdminView) {
		uid := caller.ID
		filter.UserID = &uid
	}
	if q.Status != "" {
		status := models.OrderStatus(q.Status)
		if !knownStatus(status) {
			return models.Page[models.OrderSummary]{}, apperr.Validation("validation failed",
				map[string]string{"status": "must be one of: pending confirmed processing shipped delivered cancelled"})
		}
		filter.Status = &status
	}

	orders, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return models.Page[models.OrderSummary]{}, fmt.Errorf("%s: %w", op, err)
	}

	sortOrders(orders, q.SortBy, q.SortOrder)
	limit, offset := paging.Normalize(q.Limit, q.Offset, defaultLimit)

	page := paging.Slice(orders, limit, offset)
	items := make([]models.OrderSummary, 0, len(page))
	for _, o := range page {
		items = append(items, o.Summary())
	}
	return models.Page[models.OrderSummary]{
		Items:  items,
		Total:  len(orders),
		Limit:  limit,
		Offset: offset,
	}, nil
}

// sortOrders сортирует по допустимому полю; неизвестное поле означает
// createdAt, неизвестный порядок означает desc.
func sortOrders(orders []models.Order, by, order string) {
	var less func(a, b models.Order) bool
	switch by {
	case "updatedAt":
		less = func(a, b models.Order) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "totalAmount":
		less = func(a, b models.Order) bool { return a.TotalAmount.LessThan(b.TotalAmount) }
	case "status":
		less = func(a, b models.Order) bool { return a.Status < b.Status }
	case "orderNumber":
		less = func(a, b models.Order) bool { return a.OrderNumber < b.OrderNumber }
	default:
		less = func(a, b models.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	asc := strings.EqualFold(order, "asc")
	sort.SliceStable(orders, func(i, j int) bool {
		if asc {
			return less(orders[i], orders[j])
		}
		return less(orders[j], orders[i])
	})
}
