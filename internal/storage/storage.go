// Package storage описывает контракты хранилищ магазина и общие для всех
// реализаций ошибки. Конкретные реализации находятся в подпакетах:
// memory (данные в памяти), jsonfile (плоские JSON‑файлы) и postgresql.
package storage

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/storefront/internal/models"
)

var (
	// ErrNotFound - запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate - нарушено ограничение уникальности.
	ErrDuplicate = errors.New("record already exists")
)

// UserStore хранит учётные записи пользователей.
type UserStore interface {
	// CreateUser сохраняет пользователя, назначая ему новый ID.
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	// GetUserByEmail ищет пользователя по email без учёта регистра.
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// GetUserByUsername ищет пользователя по имени без учёта регистра.
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
}

// ProductStore хранит товары каталога.
type ProductStore interface {
	CreateProduct(ctx context.Context, product models.Product) (models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	// GetProductByName ищет товар по названию без учёта регистра.
	GetProductByName(ctx context.Context, name string) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) error
	// UpdateProducts сохраняет несколько товаров одной записью.
	UpdateProducts(ctx context.Context, products []models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// OrderStore хранит заказы. Заказы никогда не удаляются.
type OrderStore interface {
	CreateOrder(ctx context.Context, order models.Order) (models.Order, error)
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	UpdateOrder(ctx context.Context, order models.Order) error
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
}

// Store объединяет все хранилища одного бэкенда.
type Store interface {
	UserStore
	ProductStore
	OrderStore
	Close() error
}
