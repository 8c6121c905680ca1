// Package memory реализует хранилище магазина в памяти процесса.
//
// Каждое изменение может сопровождаться вызовом PersistFunc со снимком всех
// данных; на этом построено файловое хранилище jsonfile. Если сохранение не
// удалось, изменение откатывается.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

// Sequences - последние выданные ID по коллекциям. Хранятся отдельно от
// данных, поэтому ID не переиспользуются после удаления.
type Sequences struct {
	User    int64 `json:"user"`
	Product int64 `json:"product"`
	Order   int64 `json:"order"`
}

// Snapshot - полный снимок данных хранилища.
type Snapshot struct {
	Users     []models.User    `json:"users"`
	Products  []models.Product `json:"products"`
	Orders    []models.Order   `json:"orders"`
	Sequences Sequences        `json:"sequences"`
}

// PersistFunc сохраняет снимок данных после изменения.
type PersistFunc func(Snapshot) error

// Storage - потокобезопасное хранилище в памяти.
type Storage struct {
	mu       sync.RWMutex
	users    map[int64]models.User
	products map[int64]models.Product
	orders   map[int64]models.Order
	seq      Sequences
	persist  PersistFunc
}

var _ storage.Store = (*Storage)(nil)

// New создаёт пустое хранилище.
func New() *Storage {
	return FromSnapshot(Snapshot{}, nil)
}

// FromSnapshot восстанавливает хранилище из снимка. persist может быть nil.
func FromSnapshot(snap Snapshot, persist PersistFunc) *Storage {
	s := &Storage{
		users:    make(map[int64]models.User, len(snap.Users)),
		products: make(map[int64]models.Product, len(snap.Products)),
		orders:   make(map[int64]models.Order, len(snap.Orders)),
		seq:      snap.Sequences,
		persist:  persist,
	}
	for _, u := range snap.Users {
		s.users[u.ID] = u
		s.seq.User = max(s.seq.User, u.ID)
	}
	for _, p := range snap.Products {
		s.products[p.ID] = p
		s.seq.Product = max(s.seq.Product, p.ID)
	}
	for _, o := range snap.Orders {
		s.orders[o.ID] = cloneOrder(o)
		s.seq.Order = max(s.seq.Order, o.ID)
	}
	return s
}

// Snapshot возвращает копию данных, упорядоченную по ID.
func (s *Storage) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Storage) snapshotLocked() Snapshot {
	snap := Snapshot{
		Users:     make([]models.User, 0, len(s.users)),
		Products:  make([]models.Product, 0, len(s.products)),
		Orders:    make([]models.Order, 0, len(s.orders)),
		Sequences: s.seq,
	}
	for _, u := range s.users {
		snap.Users = append(snap.Users, u)
	}
	for _, p := range s.products {
		snap.Products = append(snap.Products, p)
	}
	for _, o := range s.orders {
		snap.Orders = append(snap.Orders, cloneOrder(o))
	}
	sort.Slice(snap.Users, func(i, j int) bool { return snap.Users[i].ID < snap.Users[j].ID })
	sort.Slice(snap.Products, func(i, j int) bool { return snap.Products[i].ID < snap.Products[j].ID })
	sort.Slice(snap.Orders, func(i, j int) bool { return snap.Orders[i].ID < snap.Orders[j].ID })
	return snap
}

// commit сохраняет снимок; при ошибке выполняет undo.
func (s *Storage) commit(op string, undo func()) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist(s.snapshotLocked()); err != nil {
		undo()
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close ничего не делает: данные живут до конца процесса.
func (s *Storage) Close() error { return nil }

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

// ===== USERS =====

// CreateUser сохраняет пользователя с новым ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.memory.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrDuplicate)
		}
	}

	prevSeq := s.seq.User
	s.seq.User++
	user.ID = s.seq.User
	s.users[user.ID] = user
	err := s.commit(op, func() {
		delete(s.users, user.ID)
		s.seq.User = prevSeq
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	const op = "storage.memory.GetUserByID"
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.memory.GetUserByEmail"
	return s.findUser(ctx, op, func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

// GetUserByUsername возвращает пользователя по имени без учёта регистра.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	const op = "storage.memory.GetUserByUsername"
	return s.findUser(ctx, op, func(u models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (s *Storage) findUser(ctx context.Context, op string, match func(models.User) bool) (models.User, error) {
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

// UpdateUser перезаписывает существующего пользователя.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.memory.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.users[user.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	s.users[user.ID] = user
	return s.commit(op, func() { s.users[user.ID] = prev })
}

// ===== PRODUCTS =====

// CreateProduct сохраняет товар с новым ID.
func (s *Storage) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	const op = "storage.memory.CreateProduct"
	if err := checkCtx(ctx, op); err != nil {
		return models.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.productNameTaken(product.Name, 0) {
		return models.Product{}, fmt.Errorf("%s: %w", op, storage.ErrDuplicate)
	}

	prevSeq := s.seq.Product
	s.seq.Product++
	product.ID = s.seq.Product
	s.products[product.ID] = product
	err := s.commit(op, func() {
		delete(s.products, product.ID)
		s.seq.Product = prevSeq
	})
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// GetProduct возвращает товар по ID.
func (s *Storage) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	const op = "storage.memory.GetProduct"
	if err := checkCtx(ctx, op); err != nil {
		return models.Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return p, nil
}

// GetProductByName возвращает товар по названию без учёта регистра.
func (s *Storage) GetProductByName(ctx context.Context, name string) (models.Product, error) {
	const op = "storage.memory.GetProductByName"
	if err := checkCtx(ctx, op); err != nil {
		return models.Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return models.Product{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

// ListProducts возвращает все товары в порядке ID.
func (s *Storage) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "storage.memory.ListProducts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// UpdateProduct перезаписывает существующий товар.
func (s *Storage) UpdateProduct(ctx context.Context, product models.Product) error {
	const op = "storage.memory.UpdateProduct"
	return s.updateProducts(ctx, op, []models.Product{product})
}

// UpdateProducts перезаписывает несколько товаров одним сохранением.
// Если хотя бы одного товара нет, ничего не меняется.
func (s *Storage) UpdateProducts(ctx context.Context, products []models.Product) error {
	const op = "storage.memory.UpdateProducts"
	return s.updateProducts(ctx, op, products)
}

func (s *Storage) updateProducts(ctx context.Context, op string, products []models.Product) error {
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := make(map[int64]models.Product, len(products))
	for _, p := range products {
		old, ok := s.products[p.ID]
		if !ok {
			return fmt.Errorf("%s: product %d: %w", op, p.ID, storage.ErrNotFound)
		}
		if _, seen := prev[p.ID]; !seen {
			prev[p.ID] = old
		}
		if s.productNameTaken(p.Name, p.ID) {
			return fmt.Errorf("%s: product %d: %w", op, p.ID, storage.ErrDuplicate)
		}
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s.commit(op, func() {
		for id, p := range prev {
			s.products[id] = p
		}
	})
}

// productNameTaken проверяет, занято ли название другим товаром (кроме exceptID).
// Вызывать под s.mu.
func (s *Storage) productNameTaken(name string, exceptID int64) bool {
	for id, p := range s.products {
		if id != exceptID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// DeleteProduct удаляет товар.
func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	const op = "storage.memory.DeleteProduct"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.products[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	delete(s.products, id)
	return s.commit(op, func() { s.products[id] = prev })
}

// ===== ORDERS =====

// CreateOrder сохраняет заказ с новым ID.
func (s *Storage) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	const op = "storage.memory.CreateOrder"
	if err := checkCtx(ctx, op); err != nil {
		return models.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prevSeq := s.seq.Order
	s.seq.Order++
	order.ID = s.seq.Order
	s.orders[order.ID] = cloneOrder(order)
	err := s.commit(op, func() {
		delete(s.orders, order.ID)
		s.seq.Order = prevSeq
	})
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// GetOrder возвращает заказ по ID.
func (s *Storage) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	const op = "storage.memory.GetOrder"
	if err := checkCtx(ctx, op); err != nil {
		return models.Order{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return cloneOrder(o), nil
}

// UpdateOrder перезаписывает существующий заказ.
func (s *Storage) UpdateOrder(ctx context.Context, order models.Order) error {
	const op = "storage.memory.UpdateOrder"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.orders[order.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	s.orders[order.ID] = cloneOrder(order)
	return s.commit(op, func() { s.orders[order.ID] = prev })
}

// ListOrders возвращает заказы, подходящие под фильтр, в порядке ID.
func (s *Storage) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	const op = "storage.memory.ListOrders"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Order, 0)
	for _, o := range s.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		res = append(res, cloneOrder(o))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}
